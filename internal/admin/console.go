// Package admin implements the user administration view model.
//
// The console lists portal users and creates new ones. The backend answers
// 403 for anyone without the admin role; that is a routing concern, not a
// session one — a valid non-admin session keeps its login, and the caller
// sends the user back to the landing view. The console therefore only
// classifies and returns the failure.
package admin

import (
	"context"
	"strings"
	"sync"

	"github.com/felixgeelhaar/portalctl/internal/errors"
	"github.com/felixgeelhaar/portalctl/internal/gateway"
	"github.com/felixgeelhaar/portalctl/internal/log"
)

// Backend is the slice of the gateway the console depends on
type Backend interface {
	ListUsers(ctx context.Context) ([]gateway.User, error)
	CreateUser(ctx context.Context, email, firstName, lastName, role string) error
}

// Console is the user administration view model
type Console struct {
	mu      sync.Mutex
	backend Backend
	logger  *log.Logger

	users []gateway.User
}

// ConsoleOption configures a Console
type ConsoleOption func(*Console)

// WithLogger sets the console logger
func WithLogger(logger *log.Logger) ConsoleOption {
	return func(c *Console) {
		c.logger = logger
	}
}

// NewConsole creates a console with no users loaded
func NewConsole(backend Backend, opts ...ConsoleOption) *Console {
	c := &Console{
		backend: backend,
		logger:  log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadUsers refreshes the user list. An authorization failure comes back as
// an AUTHZ error; the caller decides whether to reroute. The previously
// loaded list survives a failed refresh.
func (c *Console) LoadUsers(ctx context.Context) error {
	users, err := c.backend.ListUsers(ctx)
	if err != nil {
		if errors.IsAuthFailure(err) {
			c.logger.WithError(err).Warn("user list rejected for this session's roles")
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = users
	return nil
}

// Users returns the loaded user list
func (c *Console) Users() []gateway.User {
	c.mu.Lock()
	defer c.mu.Unlock()

	users := make([]gateway.User, len(c.users))
	copy(users, c.users)
	return users
}

// NewUser is the input for user creation
type NewUser struct {
	Email     string
	FirstName string
	LastName  string
	Roles     []string
}

// validate checks the input locally before anything reaches the backend
func (n *NewUser) validate() error {
	n.Email = strings.TrimSpace(n.Email)
	if n.Email == "" {
		return errors.NewRequiredFieldError("email")
	}
	n.FirstName = strings.TrimSpace(n.FirstName)
	if n.FirstName == "" {
		return errors.NewRequiredFieldError("first name")
	}
	n.LastName = strings.TrimSpace(n.LastName)

	roles := n.Roles[:0]
	for _, role := range n.Roles {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	n.Roles = roles
	if len(n.Roles) == 0 {
		return errors.New(errors.ErrCodeValidationRequired, "at least one role is required").
			WithSuggestion("Pick one or more roles for the new user")
	}
	return nil
}

// CreateUser creates a portal user and assigns every requested role. The
// backend takes one role per call; the first call creates the user and sends
// the invitation, the following ones only add roles. The user list is
// refreshed afterwards.
func (c *Console) CreateUser(ctx context.Context, input NewUser) error {
	if err := input.validate(); err != nil {
		return err
	}

	for _, role := range input.Roles {
		if err := c.backend.CreateUser(ctx, input.Email, input.FirstName, input.LastName, role); err != nil {
			return err
		}
	}

	c.logger.Info("user created", "email", input.Email, "roles", len(input.Roles))
	return c.LoadUsers(ctx)
}
