package gateway

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/portalctl/internal/errors"
)

// Backend API method names for authentication flows
const (
	methodLogin         = "login"
	methodLogout        = "logout"
	methodCurrentUser   = "company_access_portal.api.user_api.get_current_user_info"
	methodResetPassword = "company_access_portal.api.user_api.reset_password_from_frontend"
)

// UserInfo is the backend's view of the currently authenticated user
type UserInfo struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type loginRequest struct {
	Usr string `json:"usr"`
	Pwd string `json:"pwd"`
}

// Login authenticates with the backend. On success the session cookie is
// captured by the jar and persisted. The login response itself carries no
// role data; callers follow up with CurrentUser.
func (c *Client) Login(ctx context.Context, identity, secret string) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/method/"+methodLogin, nil, loginRequest{Usr: identity, Pwd: secret}, nil)
	if err != nil {
		if errors.IsTransportFailure(err) {
			return err
		}
		// A rejected login is an authentication failure, not a
		// session-invalidation signal. Carry the backend's message.
		if perr, ok := err.(*errors.PortalError); ok {
			return errors.NewLoginFailedError(perr.Message, perr.Cause)
		}
		return errors.NewLoginFailedError("", err)
	}

	if err := c.PersistCookies(); err != nil {
		return err
	}
	return nil
}

// Logout terminates the backend session. Errors are returned so the caller
// can log them, but the session manager tears down local state regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/method/"+methodLogout, nil, nil, nil)
}

// CurrentUser queries the backend for the authenticated user's identity and
// roles. Returns an AUTHZ error when no valid session exists.
func (c *Client) CurrentUser(ctx context.Context) (UserInfo, error) {
	var info UserInfo
	if err := c.callMethod(ctx, http.MethodGet, methodCurrentUser, nil, nil, &info); err != nil {
		return UserInfo{}, err
	}
	return info, nil
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword sets a new password using an invitation/reset token
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	err := c.callMethod(ctx, http.MethodPost, methodResetPassword, nil, resetPasswordRequest{
		Token:       token,
		NewPassword: newPassword,
	}, nil)
	if err != nil && errors.IsDomainFailure(err) {
		if perr, ok := err.(*errors.PortalError); ok {
			return errors.New(errors.ErrCodeAuthResetRejected, perr.Message)
		}
	}
	return err
}
