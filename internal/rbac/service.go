package rbac

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Service resolves role membership against role_assignments.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// HasRole reports whether the user holds the role. A missing row means
// "does not hold role" and is not an error; only a store fault produces
// ErrLookup.
func (s *Service) HasRole(ctx context.Context, userID int64, role Role) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_assignments WHERE user_id = $1 AND role = $2)`,
		userID, string(role),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	return exists, nil
}

// AssignRole grants a role to the user. Granting an already held role is a
// no-op.
func (s *Service) AssignRole(ctx context.Context, userID int64, role Role) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO role_assignments (user_id, role, created_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id, role) DO NOTHING`,
		userID, string(role))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLookup, err)
	}
	return nil
}

// RevokeRole removes a role from the user.
func (s *Service) RevokeRole(ctx context.Context, userID int64, role Role) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM role_assignments WHERE user_id = $1 AND role = $2`,
		userID, string(role))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLookup, err)
	}
	return nil
}

// ListRoles returns all role labels assigned to the user.
func (s *Service) ListRoles(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role FROM role_assignments WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLookup, err)
		}
		roles = append(roles, Role(role))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	return roles, nil
}
