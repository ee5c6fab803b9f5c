package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/portalctl/internal/errors"
)

// MarkerStore records that this client explicitly logged in at some point.
// Restoration only queries the backend when a marker exists, so a machine
// that never logged in makes no pointless network calls at startup.
type MarkerStore interface {
	Exists() bool
	Write(identity string) error
	Clear() error
}

// marker is the on-disk shape of the session marker
type marker struct {
	Identity  string    `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
}

// FileMarker is the file-backed MarkerStore used by the CLI and TUI
type FileMarker struct {
	path string
}

// NewFileMarker creates a marker store backed by the given file
func NewFileMarker(path string) *FileMarker {
	return &FileMarker{path: path}
}

// Exists reports whether a prior client-initiated login was recorded
func (f *FileMarker) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Write records a login for the given identity
func (f *FileMarker) Write(identity string) error {
	data, err := json.MarshalIndent(marker{
		Identity:  identity,
		CreatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarkerWriteFailed, "cannot encode session marker", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeMarkerWriteFailed, "cannot create state directory", err)
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeMarkerWriteFailed, "cannot write session marker", err)
	}
	return nil
}

// Clear removes the marker. Clearing an absent marker is not an error.
func (f *FileMarker) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeMarkerWriteFailed, "cannot remove session marker", err)
	}
	return nil
}

// Identity returns the identity recorded at login, if any
func (f *FileMarker) Identity() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrap(errors.ErrCodeMarkerReadFailed, "cannot read session marker", err)
	}

	var m marker
	if err := json.Unmarshal(data, &m); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarkerReadFailed, "corrupt session marker", err)
	}
	return m.Identity, nil
}
