// Package exitcode maps error categories onto process exit codes so shell
// scripts can distinguish validation mistakes from auth and network failures.
package exitcode

import (
	"os"

	"github.com/felixgeelhaar/portalctl/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ValidationError indicates input rejected before any request was issued
	ValidationError = 3

	// AuthError indicates an authentication or authorization failure
	AuthError = 4

	// DomainError indicates the backend rejected the request by business rule
	DomainError = 5

	// NetworkError indicates the backend was not reachable
	NetworkError = 6

	// Interrupted indicates the user cancelled the operation
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.IsValidation(err):
		return ValidationError
	case errors.IsAuthentication(err), errors.IsAuthFailure(err):
		return AuthError
	case errors.IsDomainFailure(err):
		return DomainError
	case errors.IsTransportFailure(err):
		return NetworkError
	default:
		return GeneralError
	}
}
