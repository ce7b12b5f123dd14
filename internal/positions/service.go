package positions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit"
)

// RepositoryPort defines data access methods for positions.
type RepositoryPort interface {
	ListPositions(ctx context.Context) ([]Position, error)
	GetPosition(ctx context.Context, id uuid.UUID) (Position, error)
	CreatePosition(ctx context.Context, p Position) (Position, error)
	UpdatePosition(ctx context.Context, id uuid.UUID, name string, minCGPA float64) (Position, error)
	TogglePosition(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuditPort records privileged actions.
type AuditPort interface {
	Record(ctx context.Context, event audit.Event)
}

// Service handles position business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, auditor AuditPort) *Service {
	return &Service{repo: repo, audit: auditor}
}

// List returns all positions.
func (s *Service) List(ctx context.Context) ([]Position, error) {
	return s.repo.ListPositions(ctx)
}

// Get returns one position.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Position, error) {
	return s.repo.GetPosition(ctx, id)
}

// Create inserts a new position.
func (s *Service) Create(ctx context.Context, name string, minCGPA float64) (Position, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Position{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	if minCGPA < 0 {
		return Position{}, fmt.Errorf("%w: minimum cgpa may not be negative", ErrValidation)
	}
	created, err := s.repo.CreatePosition(ctx, Position{
		ID:      uuid.New(),
		Name:    name,
		MinCGPA: minCGPA,
		Active:  true,
	})
	if err != nil {
		return Position{}, err
	}
	s.recordAudit(ctx, audit.ActionCreatePosition, created.ID, map[string]any{"name": created.Name, "min_cgpa": created.MinCGPA})
	return created, nil
}

// Update changes name and requirement.
func (s *Service) Update(ctx context.Context, id uuid.UUID, name string, minCGPA float64) (Position, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Position{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	if minCGPA < 0 {
		return Position{}, fmt.Errorf("%w: minimum cgpa may not be negative", ErrValidation)
	}
	updated, err := s.repo.UpdatePosition(ctx, id, name, minCGPA)
	if err != nil {
		return Position{}, err
	}
	s.recordAudit(ctx, audit.ActionUpdatePosition, id, map[string]any{"name": name, "min_cgpa": minCGPA})
	return updated, nil
}

// Toggle flips the active flag.
func (s *Service) Toggle(ctx context.Context, id uuid.UUID) (bool, error) {
	active, err := s.repo.TogglePosition(ctx, id)
	if err != nil {
		return false, err
	}
	s.recordAudit(ctx, audit.ActionTogglePosition, id, map[string]any{"active": active})
	return active, nil
}

func (s *Service) recordAudit(ctx context.Context, action audit.Action, id uuid.UUID, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, audit.Event{
		Action:     action,
		EntityType: "position",
		EntityID:   id.String(),
		Details:    details,
	})
}
