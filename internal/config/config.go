// Package config loads the portalctl client configuration.
//
// Configuration lives in ~/.portalctl/config.yaml and may be overridden with
// environment variables. The same directory holds the session marker and the
// persisted backend cookies.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/portalctl/internal/errors"
)

// Environment variable overrides
const (
	EnvAPIURL    = "PORTAL_API_URL"
	EnvLogLevel  = "PORTAL_LOG_LEVEL"
	EnvLogFormat = "PORTAL_LOG_FORMAT"
)

// Config holds the client configuration
type Config struct {
	// APIURL is the base URL of the Company Access Portal backend
	APIURL string `yaml:"api_url"`

	// TimeoutSeconds is the per-request timeout for backend calls
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// LogLevel is the minimum log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogFormat is the log output format (text, json)
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() Config {
	return Config{
		APIURL:         "http://localhost:8002",
		TimeoutSeconds: 30,
		LogLevel:       "warn",
		LogFormat:      "text",
	}
}

// Timeout returns the request timeout as a duration
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StateDir returns the directory holding configuration and local client
// state (session marker, persisted cookies). It is created on demand by the
// writers, not here.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfigInvalid, "cannot resolve home directory", err)
	}
	return filepath.Join(home, ".portalctl"), nil
}

// Path returns the configuration file path
func Path() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration file, falling back to defaults when it does
// not exist, and applies environment overrides on top.
func Load() (Config, error) {
	cfg := DefaultConfig()

	path, err := Path()
	if err != nil {
		return cfg, err
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeConfigInvalid, "invalid config file: "+path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, errors.Wrap(errors.ErrCodeConfigInvalid, "cannot read config file: "+path, err)
	}

	applyEnv(&cfg)

	if cfg.APIURL == "" {
		return cfg, errors.New(errors.ErrCodeConfigInvalid, "api_url must not be empty")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
}

// Save writes the configuration file, creating the state directory if needed
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "cannot create state directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "cannot encode config", err)
	}

	return os.WriteFile(path, data, 0o600)
}
