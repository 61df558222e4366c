package shared

import "errors"

var (
	// ErrUnauthenticated indicates the session carries no backend credential.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrForbidden indicates the credential's role may not use the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrStaleRequest indicates a newer request for the same view superseded this one.
	ErrStaleRequest = errors.New("request superseded")
)
