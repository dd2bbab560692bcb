package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated indicates an operation that requires a signed-in actor.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUnauthorized indicates a privileged mutation attempted by a non-privileged actor.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrImportFormat indicates a malformed permission snapshot.
	ErrImportFormat = errors.New("import format invalid")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
