package log

import "sync"

// Components that were built without an explicit logger option fall back to
// this package-level logger. newApp installs the configured one at startup.
var global struct {
	mu     sync.RWMutex
	logger *Logger
}

// SetDefaultLogger installs the process-wide fallback logger
func SetDefaultLogger(logger *Logger) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.logger = logger
}

// DefaultLogger returns the process-wide fallback logger, creating one with
// the default configuration on first use
func DefaultLogger() *Logger {
	global.mu.RLock()
	logger := global.logger
	global.mu.RUnlock()

	if logger == nil {
		logger = Default()
		SetDefaultLogger(logger)
	}
	return logger
}
