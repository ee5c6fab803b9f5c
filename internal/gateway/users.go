package gateway

import (
	"context"
	"net/http"
)

// Backend API method names for user administration
const (
	methodListUsers  = "company_access_portal.api.user_api.list_users"
	methodCreateUser = "company_access_portal.api.user_api.create_user"
)

// User is a portal user record. Name is the primary key (the email address).
type User struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Enabled   int    `json:"enabled"`
}

// ListUsers retrieves all portal users. Admin only; the backend answers 403
// for anyone else.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.callMethod(ctx, http.MethodGet, methodListUsers, nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

type createUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// CreateUser creates a portal user with one role and triggers the backend's
// invitation mail. The backend accepts one role per call; assigning several
// roles means several calls.
func (c *Client) CreateUser(ctx context.Context, email, firstName, lastName, role string) error {
	return c.callMethod(ctx, http.MethodPost, methodCreateUser, nil, createUserRequest{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
	}, nil)
}
