package shared

import "errors"

// Sentinel errors shared across packages.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials covers every login failure so responses do not
	// leak which part of the credentials was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when a state-changing request carries no token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when the presented token fails verification.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
