// Package session owns the client's belief about the currently authenticated
// user.
//
// The Manager is the only writer of session state. Every other component
// reads immutable Snapshot values, so nothing outside this package can drift
// away from session truth. The state machine is small and explicit:
//
//	Uninitialized → Restoring → {Authenticated | Anonymous}
//	Authenticated → Anonymous   on logout or on any authorization failure
//	Anonymous     → Authenticated only via an explicit Login
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/felixgeelhaar/portalctl/internal/errors"
	"github.com/felixgeelhaar/portalctl/internal/gateway"
	"github.com/felixgeelhaar/portalctl/internal/log"
)

// AdminRole is the role granting access to user and role administration
const AdminRole = "Company Admin"

// State identifies where the session manager is in its lifecycle
type State int

const (
	// StateUninitialized is the cold-start state before any restoration ran
	StateUninitialized State = iota
	// StateRestoring means a restoration or login is in progress
	StateRestoring
	// StateAuthenticated means a valid backend session exists
	StateAuthenticated
	// StateAnonymous means no session exists
	StateAnonymous
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the session state. Callers may hold it as
// long as they like; it never mutates.
type Snapshot struct {
	State    State
	Settled  bool
	Identity string
	Roles    []string
}

// Authenticated reports whether a session exists
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}

// HasRole reports whether the session carries the named role
func (s Snapshot) HasRole(name string) bool {
	for _, r := range s.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the session belongs to a company administrator.
// Always derived from the role set, never stored, so it cannot drift.
func (s Snapshot) IsAdmin() bool {
	return s.Authenticated() && s.HasRole(AdminRole)
}

// Backend is the slice of the gateway the session manager depends on
type Backend interface {
	Login(ctx context.Context, identity, secret string) error
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (gateway.UserInfo, error)
	DropCookies() error
}

// Manager owns the session state machine
type Manager struct {
	mu      sync.Mutex
	backend Backend
	marker  MarkerStore
	logger  *log.Logger

	state    State
	settled  bool
	identity string
	roles    []string
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithLogger sets the manager logger
func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager in the Uninitialized state
func NewManager(backend Backend, marker MarkerStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend: backend,
		marker:  marker,
		logger:  log.DefaultLogger(),
		state:   StateUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns a read-only copy of the current session state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	roles := make([]string, len(m.roles))
	copy(roles, m.roles)

	return Snapshot{
		State:    m.state,
		Settled:  m.settled,
		Identity: m.identity,
		Roles:    roles,
	}
}

// Restore attempts to recover a previously established session without
// prompting for credentials. When no local marker exists — this client never
// logged in — no network call is made at all. Whatever happens, the manager
// ends up settled: callers must not render route-gated content before that.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()
	m.state = StateRestoring
	m.settled = false
	m.mu.Unlock()

	if !m.marker.Exists() {
		m.logger.Debug("no session marker, skipping restoration")
		m.setAnonymous()
		return
	}

	info, err := m.backend.CurrentUser(ctx)
	if err != nil || info.Email == "" {
		if err != nil {
			m.logger.WithError(err).Debug("session restoration failed")
		}
		// The marker stays: a transient backend outage should not force a
		// fresh login once the backend recovers.
		m.setAnonymous()
		return
	}

	m.setAuthenticated(info)
}

// Login establishes a new session. Both arguments must be non-empty after
// trimming. The login response is not trusted to carry role data, so a
// successful login is followed by the same restoration query Restore uses;
// only when that succeeds does the session become Authenticated. On any
// failure the local marker and all session state are cleared — the session
// is never left partially populated.
func (m *Manager) Login(ctx context.Context, identity, secret string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return errors.NewRequiredFieldError("email")
	}
	if strings.TrimSpace(secret) == "" {
		return errors.NewRequiredFieldError("password")
	}

	m.mu.Lock()
	m.state = StateRestoring
	m.settled = false
	m.mu.Unlock()

	if err := m.backend.Login(ctx, identity, secret); err != nil {
		m.clearMarker()
		m.setAnonymous()
		return err
	}

	if err := m.marker.Write(identity); err != nil {
		// The session is still valid for this process; only restoration in
		// a later process is affected.
		m.logger.WithError(err).Warn("could not write session marker")
	}

	info, err := m.backend.CurrentUser(ctx)
	if err != nil || info.Email == "" {
		m.clearMarker()
		m.setAnonymous()
		return errors.NewLoginFailedError("login succeeded but the session could not be established", err)
	}

	m.setAuthenticated(info)
	m.logger.Info("logged in", "identity", info.Email, "roles", len(info.Roles))
	return nil
}

// Logout tears down the session. The backend call is best effort: an
// unreachable backend must never leave stale local session state behind, so
// marker, cookies, and in-memory state are cleared regardless.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.backend.Logout(ctx); err != nil {
		m.logger.WithError(err).Warn("backend logout failed, clearing local session anyway")
	}

	m.clearMarker()
	if err := m.backend.DropCookies(); err != nil {
		m.logger.WithError(err).Warn("could not drop persisted cookies")
	}

	m.setAnonymous()
	m.logger.Info("logged out")
}

// Invalidate transitions Authenticated → Anonymous. Components call this
// when the gateway classifies a response as an authorization failure.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAuthenticated {
		return
	}
	m.state = StateAnonymous
	m.identity = ""
	m.roles = nil
	m.logger.Warn("session invalidated by authorization failure")
}

func (m *Manager) clearMarker() {
	if err := m.marker.Clear(); err != nil {
		m.logger.WithError(err).Warn("could not clear session marker")
	}
}

func (m *Manager) setAnonymous() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateAnonymous
	m.settled = true
	m.identity = ""
	m.roles = nil
}

func (m *Manager) setAuthenticated(info gateway.UserInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateAuthenticated
	m.settled = true
	m.identity = info.Email
	m.roles = make([]string, len(info.Roles))
	copy(m.roles, info.Roles)
}
