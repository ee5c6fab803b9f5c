package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Validation errors (VALIDATION-001 to VALIDATION-099) — detected on the
	// client before any request is issued
	ErrCodeValidationRequired ErrorCode = "VALIDATION-001"
	ErrCodeValidationFormat   ErrorCode = "VALIDATION-002"

	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthLoginFailed   ErrorCode = "AUTH-001"
	ErrCodeAuthNotLoggedIn   ErrorCode = "AUTH-002"
	ErrCodeAuthResetRejected ErrorCode = "AUTH-003"

	// Authorization errors (AUTHZ-001 to AUTHZ-099) — session invalid or
	// insufficient role, mapped from HTTP 401/403
	ErrCodeAuthzForbidden ErrorCode = "AUTHZ-001"

	// Domain errors (DOMAIN-001 to DOMAIN-099) — backend business-rule
	// rejections, surfaced verbatim
	ErrCodeDomainRejected ErrorCode = "DOMAIN-001"

	// Transport errors (TRANSPORT-001 to TRANSPORT-099)
	ErrCodeTransportUnreachable ErrorCode = "TRANSPORT-001"
	ErrCodeTransportDecode      ErrorCode = "TRANSPORT-002"

	// Editor errors (EDITOR-001 to EDITOR-099)
	ErrCodeEditorUpdateInFlight ErrorCode = "EDITOR-001"
	ErrCodeEditorNoSelection    ErrorCode = "EDITOR-002"
	ErrCodeEditorUnknownFlag    ErrorCode = "EDITOR-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"

	// Local state I/O errors (IO-001 to IO-099)
	ErrCodeMarkerReadFailed  ErrorCode = "IO-001"
	ErrCodeMarkerWriteFailed ErrorCode = "IO-002"
	ErrCodeCookieStoreFailed ErrorCode = "IO-003"
)

// PortalError represents an enhanced error with code, suggestions, and cause
type PortalError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *PortalError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PortalError) Unwrap() error {
	return e.Cause
}

// New creates a new PortalError
func New(code ErrorCode, message string) *PortalError {
	return &PortalError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new PortalError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *PortalError {
	return &PortalError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *PortalError) WithSuggestion(suggestion string) *PortalError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *PortalError) WithSuggestions(suggestions ...string) *PortalError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// CodeOf returns the error code of err, or an empty code if err is not a
// PortalError
func CodeOf(err error) ErrorCode {
	var perr *PortalError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

func hasPrefix(err error, prefix string) bool {
	return strings.HasPrefix(string(CodeOf(err)), prefix)
}

// IsValidation reports whether err is a client-side validation failure.
// Validation failures never reach the network.
func IsValidation(err error) bool {
	return hasPrefix(err, "VALIDATION-")
}

// IsAuthentication reports whether err is a rejected login or reset attempt
func IsAuthentication(err error) bool {
	return hasPrefix(err, "AUTH-")
}

// IsAuthFailure reports whether err signals an invalid session or an
// insufficient role. Components treat this as a session-invalidation signal.
func IsAuthFailure(err error) bool {
	return hasPrefix(err, "AUTHZ-")
}

// IsDomainFailure reports whether err is a backend business-rule rejection
func IsDomainFailure(err error) bool {
	return hasPrefix(err, "DOMAIN-")
}

// IsTransportFailure reports whether err means no response reached the client
func IsTransportFailure(err error) bool {
	return hasPrefix(err, "TRANSPORT-")
}

// Common error constructors for frequently used errors

// NewRequiredFieldError creates a validation error for an empty required field
func NewRequiredFieldError(field string) *PortalError {
	return New(ErrCodeValidationRequired, fmt.Sprintf("%s is required", field)).
		WithSuggestion(fmt.Sprintf("Provide a non-empty %s", field))
}

// NewLoginFailedError creates an authentication error carrying the backend's
// rejection message for display
func NewLoginFailedError(message string, cause error) *PortalError {
	if message == "" {
		message = "login failed"
	}
	return Wrap(ErrCodeAuthLoginFailed, message, cause).
		WithSuggestion("Check your email and password").
		WithSuggestion("Use 'portalctl reset-password' if you received a reset link")
}

// NewNotLoggedInError creates an error for operations requiring a session
func NewNotLoggedInError() *PortalError {
	return New(ErrCodeAuthNotLoggedIn, "not logged in").
		WithSuggestion("Run 'portalctl login' first")
}

// NewForbiddenError creates an authorization failure error
func NewForbiddenError() *PortalError {
	return New(ErrCodeAuthzForbidden, "session invalid or insufficient role").
		WithSuggestion("Run 'portalctl login' to re-authenticate")
}

// NewDomainError creates a backend business-rule rejection error.
// The message is the backend's own text and is shown to the user verbatim.
func NewDomainError(message string) *PortalError {
	if message == "" {
		message = "request rejected by the server"
	}
	return New(ErrCodeDomainRejected, message)
}

// NewUnreachableError creates a transport failure error
func NewUnreachableError(cause error) *PortalError {
	return Wrap(ErrCodeTransportUnreachable, "server not reachable", cause).
		WithSuggestion("Check the portal URL in ~/.portalctl/config.yaml").
		WithSuggestion("Retry once the server is back")
}

// NewDecodeError creates an error for a malformed server response
func NewDecodeError(cause error) *PortalError {
	return Wrap(ErrCodeTransportDecode, "malformed server response", cause)
}

// NewUpdateInFlightError creates an error for a permission toggle issued
// while another one has not resolved yet
func NewUpdateInFlightError() *PortalError {
	return New(ErrCodeEditorUpdateInFlight, "a permission update is already in flight").
		WithSuggestion("Wait for the current update to finish")
}

// NewNoRoleSelectedError creates an error for matrix operations without a
// selected role
func NewNoRoleSelectedError() *PortalError {
	return New(ErrCodeEditorNoSelection, "no role selected")
}

// NewUnknownFlagError creates an error for a permission flag outside the
// read/write/create/delete/submit set
func NewUnknownFlagError(flag string) *PortalError {
	return New(ErrCodeEditorUnknownFlag, fmt.Sprintf("unknown permission flag: %s", flag)).
		WithSuggestion("Use one of: read, write, create, delete, submit")
}
