package cmd

import (
	"path/filepath"

	"github.com/felixgeelhaar/portalctl/internal/admin"
	"github.com/felixgeelhaar/portalctl/internal/config"
	"github.com/felixgeelhaar/portalctl/internal/errors"
	"github.com/felixgeelhaar/portalctl/internal/gateway"
	"github.com/felixgeelhaar/portalctl/internal/log"
	"github.com/felixgeelhaar/portalctl/internal/permissions"
	"github.com/felixgeelhaar/portalctl/internal/session"
	"github.com/felixgeelhaar/portalctl/internal/tasks"
)

// File names under the state directory
const (
	markerFile = "session_marker.json"
	cookieFile = "cookies.json"
)

// app wires the client stack for one command invocation. Every command
// builds it fresh in RunE; there is no global client state beyond the files
// in the state directory.
type app struct {
	cfg      config.Config
	client   *gateway.Client
	sessions *session.Manager
	tasks    *tasks.Service
	console  *admin.Console
	editor   *permissions.Editor
}

// newApp loads configuration, sets up logging, and builds the full client
// stack on top of the persisted cookies and session marker.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Format: log.ParseFormat(cfg.LogFormat),
		Output: log.OutputStderr(),
	})
	log.SetDefaultLogger(logger)

	stateDir, err := config.StateDir()
	if err != nil {
		return nil, err
	}

	client, err := gateway.NewClient(cfg.APIURL,
		gateway.WithTimeout(cfg.Timeout()),
		gateway.WithLogger(logger),
		gateway.WithCookieStore(gateway.NewCookieStore(filepath.Join(stateDir, cookieFile))),
	)
	if err != nil {
		return nil, err
	}

	marker := session.NewFileMarker(filepath.Join(stateDir, markerFile))
	sessions := session.NewManager(client, marker, session.WithLogger(logger))

	return &app{
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		tasks:    tasks.NewService(client, sessions, tasks.WithLogger(logger)),
		console:  admin.NewConsole(client, admin.WithLogger(logger)),
		editor:   permissions.NewEditor(client, permissions.WithLogger(logger)),
	}, nil
}

// requiredFlag reports a missing mandatory flag as a validation error
func requiredFlag(name string) error {
	return errors.NewRequiredFieldError("--" + name)
}
