package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, email, fullName, passwordHash string) (int64, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// RoleStore manages role assignments for accounts.
type RoleStore interface {
	AssignRole(ctx context.Context, userID int64, role rbac.Role) error
	RevokeRole(ctx context.Context, userID int64, role rbac.Role) error
	ListRoles(ctx context.Context, userID int64) ([]rbac.Role, error)
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	roles RoleStore
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleStore) *Service {
	return &Service{repo: repo, roles: roles}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns one user with its roles.
func (s *Service) GetUser(ctx context.Context, id int64) (User, []rbac.Role, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, nil, err
	}
	roles, err := s.roles.ListRoles(ctx, id)
	if err != nil {
		return User{}, nil, err
	}
	return user, roles, nil
}

// CreateUser hashes the password and stores the account.
func (s *Service) CreateUser(ctx context.Context, email, fullName, password string) (int64, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	return s.repo.CreateUser(ctx, email, fullName, string(hashed))
}

// SetActive flips the account's active flag.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// AssignRole grants a role.
func (s *Service) AssignRole(ctx context.Context, userID int64, role rbac.Role) error {
	return s.roles.AssignRole(ctx, userID, role)
}

// RevokeRole removes a role.
func (s *Service) RevokeRole(ctx context.Context, userID int64, role rbac.Role) error {
	return s.roles.RevokeRole(ctx, userID, role)
}
