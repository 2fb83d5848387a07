// Package exitcode defines exit codes for the taskdash command.
package exitcode

import "taskdash/internal/service"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown command).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a store, identity provider or network error.
	BackendError = 3
)

// FromError maps an error to an exit code by its service kind.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	switch service.KindOf(err) {
	case service.KindUnauthorized, service.KindForbidden:
		return AuthError
	case service.KindValidation, service.KindNotFound:
		return UserError
	default:
		return BackendError
	}
}
