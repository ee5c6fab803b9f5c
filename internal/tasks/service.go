// Package tasks implements the task list view model.
//
// Capabilities are derived from the session's roles before any call leaves
// the process: viewers get a read-only list, managers may create, rename,
// and delete. The backend enforces the same rules, so the local checks exist
// to fail fast with a clear message rather than to replace server-side
// authorization.
package tasks

import (
	"context"
	"strings"
	"sync"

	"github.com/felixgeelhaar/portalctl/internal/errors"
	"github.com/felixgeelhaar/portalctl/internal/gateway"
	"github.com/felixgeelhaar/portalctl/internal/log"
	"github.com/felixgeelhaar/portalctl/internal/session"
)

// Roles that grant task capabilities
const (
	roleTaskManager = "Task Manager"
	roleTaskViewer  = "Task Viewer"
	roleReportsOnly = "Reports Only"
)

// Backend is the slice of the gateway the task service depends on
type Backend interface {
	ListTasks(ctx context.Context) ([]gateway.Task, error)
	CreateTask(ctx context.Context, title string) (gateway.Task, error)
	UpdateTask(ctx context.Context, name, title string) error
	DeleteTask(ctx context.Context, name string) error
}

// Sessions provides the session snapshot and teardown on rejection
type Sessions interface {
	Snapshot() session.Snapshot
	Invalidate()
}

// Service is the task list view model
type Service struct {
	mu       sync.Mutex
	backend  Backend
	sessions Sessions
	logger   *log.Logger

	tasks []gateway.Task
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a task service with no tasks loaded
func NewService(backend Backend, sessions Sessions, opts ...ServiceOption) *Service {
	s := &Service{
		backend:  backend,
		sessions: sessions,
		logger:   log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanManage reports whether the session may create, rename, and delete tasks
func CanManage(snap session.Snapshot) bool {
	return snap.IsAdmin() || (snap.Authenticated() && snap.HasRole(roleTaskManager))
}

// CanView reports whether the session may see the task list at all
func CanView(snap session.Snapshot) bool {
	return CanManage(snap) ||
		(snap.Authenticated() && (snap.HasRole(roleTaskViewer) || snap.HasRole(roleReportsOnly)))
}

// Load refreshes the task list. An authorization failure drops the session.
func (s *Service) Load(ctx context.Context) error {
	if !CanView(s.sessions.Snapshot()) {
		return errors.NewForbiddenError()
	}

	tasks, err := s.backend.ListTasks(ctx)
	if err != nil {
		if errors.IsAuthFailure(err) {
			s.logger.WithError(err).Warn("task list rejected, dropping session")
			s.sessions.Invalidate()
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	return nil
}

// Tasks returns the loaded task list
func (s *Service) Tasks() []gateway.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]gateway.Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks
}

// Create adds a task and refreshes the list
func (s *Service) Create(ctx context.Context, title string) error {
	if !CanManage(s.sessions.Snapshot()) {
		return errors.NewForbiddenError()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.NewRequiredFieldError("title")
	}

	if _, err := s.backend.CreateTask(ctx, title); err != nil {
		if errors.IsAuthFailure(err) {
			s.sessions.Invalidate()
		}
		return err
	}
	return s.Load(ctx)
}

// Rename changes a task's title and refreshes the list
func (s *Service) Rename(ctx context.Context, name, title string) error {
	if !CanManage(s.sessions.Snapshot()) {
		return errors.NewForbiddenError()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.NewRequiredFieldError("title")
	}

	if err := s.backend.UpdateTask(ctx, name, title); err != nil {
		if errors.IsAuthFailure(err) {
			s.sessions.Invalidate()
		}
		return err
	}
	return s.Load(ctx)
}

// Delete removes a task and refreshes the list
func (s *Service) Delete(ctx context.Context, name string) error {
	if !CanManage(s.sessions.Snapshot()) {
		return errors.NewForbiddenError()
	}

	if err := s.backend.DeleteTask(ctx, name); err != nil {
		if errors.IsAuthFailure(err) {
			s.sessions.Invalidate()
		}
		return err
	}
	return s.Load(ctx)
}
