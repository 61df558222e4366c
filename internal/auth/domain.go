package auth

import (
	"errors"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

var (
	// ErrInvalidCredentials indicates the backend rejected the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrBackendUnavailable indicates the login could not reach the backend.
	ErrBackendUnavailable = errors.New("authentication service unavailable")
)

// HomePath is where a signed-in user lands: admins on the action panel,
// customers on their own usage.
func HomePath(cred hydro.Credential) string {
	if cred.IsAdmin() {
		return "/admin"
	}
	return "/usage"
}
