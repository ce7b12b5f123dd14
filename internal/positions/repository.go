package positions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPositions returns all positions ordered by name.
func (r *Repository) ListPositions(ctx context.Context) ([]Position, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, min_cgpa, active, created_at, updated_at FROM positions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.Name, &p.MinCGPA, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPosition fetches one position by ID.
func (r *Repository) GetPosition(ctx context.Context, id uuid.UUID) (Position, error) {
	var p Position
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, min_cgpa, active, created_at, updated_at FROM positions WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.MinCGPA, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Position{}, ErrNotFound
		}
		return Position{}, err
	}
	return p, nil
}

// CreatePosition inserts a new position.
func (r *Repository) CreatePosition(ctx context.Context, p Position) (Position, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO positions (id, name, min_cgpa, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.MinCGPA, p.Active).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Position{}, err
	}
	return p, nil
}

// UpdatePosition updates name and requirement.
func (r *Repository) UpdatePosition(ctx context.Context, id uuid.UUID, name string, minCGPA float64) (Position, error) {
	var p Position
	err := r.pool.QueryRow(ctx,
		`UPDATE positions SET name = $2, min_cgpa = $3, updated_at = NOW() WHERE id = $1
		 RETURNING id, name, min_cgpa, active, created_at, updated_at`,
		id, name, minCGPA).
		Scan(&p.ID, &p.Name, &p.MinCGPA, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Position{}, ErrNotFound
		}
		return Position{}, err
	}
	return p, nil
}

// TogglePosition flips the active flag and returns the new value.
func (r *Repository) TogglePosition(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx,
		`UPDATE positions SET active = NOT active, updated_at = NOW() WHERE id = $1 RETURNING active`, id).
		Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return active, nil
}
