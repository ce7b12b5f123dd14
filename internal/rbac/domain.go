package rbac

import "errors"

// Role is a label granted to a user through the role_assignments table.
type Role string

// Platform roles. Assignments are written by an administrative process
// outside this service; this package only reads them.
const (
	// RoleAdmin gates every privileged electoral transition.
	RoleAdmin Role = "admin"
	// RoleAuditor may read the audit timeline but not mutate anything.
	RoleAuditor Role = "auditor"
)

// ErrLookup indicates that role resolution failed because of a store or
// transport fault. Callers must treat it as "not authorized" (fail closed)
// while logging the underlying cause.
var ErrLookup = errors.New("rbac: role lookup failed")

// Assignment ties a role label to a user.
type Assignment struct {
	UserID int64
	Role   Role
}
