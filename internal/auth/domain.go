package auth

import "time"

// User represents an authenticated account. Students and committee members
// share the same table; roles live in role_assignments.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
