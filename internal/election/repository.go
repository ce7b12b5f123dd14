package election

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence. Lifecycle transitions
// are single conditional UPDATEs; the database is the arbiter when two
// sessions race on the same aspirant.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const aspirantColumns = `id, user_id, full_name, matric_number, department, position_id, cgpa,
state, public, payment_verified, screening_slot, COALESCE(screening_outcome, ''),
COALESCE(disqualify_reason, ''), COALESCE(manifesto, ''), COALESCE(photo_url, ''), created_at, updated_at`

func scanAspirant(row pgx.Row) (Aspirant, error) {
	var a Aspirant
	var dept, state, outcome string
	err := row.Scan(&a.ID, &a.UserID, &a.FullName, &a.MatricNumber, &dept, &a.PositionID, &a.CGPA,
		&state, &a.Public, &a.PaymentVerified, &a.ScreeningSlot, &outcome,
		&a.DisqualifyReason, &a.Manifesto, &a.PhotoURL, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Aspirant{}, err
	}
	a.Department = Department(dept)
	a.State = LifecycleState(state)
	a.ScreeningOutcome = ScreeningOutcome(outcome)
	return a, nil
}

// GetAspirant fetches one aspirant by ID.
func (r *Repository) GetAspirant(ctx context.Context, id uuid.UUID) (Aspirant, error) {
	a, err := scanAspirant(r.pool.QueryRow(ctx,
		`SELECT `+aspirantColumns+` FROM aspirants WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Aspirant{}, ErrNotFound
		}
		return Aspirant{}, err
	}
	return a, nil
}

// ListAspirants returns all aspirants ordered by declaration time.
func (r *Repository) ListAspirants(ctx context.Context) ([]Aspirant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+aspirantColumns+` FROM aspirants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Aspirant
	for rows.Next() {
		a, err := scanAspirant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListPublicCandidates returns promoted aspirants visible to voters.
func (r *Repository) ListPublicCandidates(ctx context.Context) ([]Aspirant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+aspirantColumns+` FROM aspirants
		 WHERE state = 'PROMOTED' AND public ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Aspirant
	for rows.Next() {
		a, err := scanAspirant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateAspirant inserts a new declaration.
func (r *Repository) CreateAspirant(ctx context.Context, a Aspirant) (Aspirant, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO aspirants (id, user_id, full_name, matric_number, department, position_id, cgpa, state, public, payment_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, false, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.FullName, a.MatricNumber, string(a.Department), a.PositionID, a.CGPA, string(a.State)).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Aspirant{}, err
	}
	return a, nil
}

// AspirantEmail resolves the account email behind an aspirant.
func (r *Repository) AspirantEmail(ctx context.Context, id uuid.UUID) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx,
		`SELECT u.email FROM users u JOIN aspirants a ON a.user_id = u.id WHERE a.id = $1`, id).
		Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return email, nil
}

// MarkUnderReview transitions SUBMITTED to UNDER_REVIEW.
func (r *Repository) MarkUnderReview(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id,
		`UPDATE aspirants SET state = 'UNDER_REVIEW', updated_at = NOW()
		 WHERE id = $1 AND state = 'SUBMITTED'`)
}

// MarkPaymentVerified records fee verification on a non-terminal aspirant.
func (r *Repository) MarkPaymentVerified(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id,
		`UPDATE aspirants SET payment_verified = true, updated_at = NOW()
		 WHERE id = $1 AND state NOT IN ('PROMOTED', 'DISQUALIFIED')`)
}

// SetScreeningSlot books a screening for an aspirant under review.
func (r *Repository) SetScreeningSlot(ctx context.Context, id uuid.UUID, slot time.Time) error {
	return r.transition(ctx, id,
		`UPDATE aspirants SET screening_slot = $2, updated_at = NOW()
		 WHERE id = $1 AND state = 'UNDER_REVIEW'`, slot)
}

// CompleteScreening stores the outcome and the resulting state.
func (r *Repository) CompleteScreening(ctx context.Context, id uuid.UUID, outcome ScreeningOutcome, to LifecycleState) error {
	return r.transition(ctx, id,
		`UPDATE aspirants SET screening_outcome = $2, state = $3, updated_at = NOW()
		 WHERE id = $1 AND state = 'UNDER_REVIEW' AND screening_slot IS NOT NULL`,
		string(outcome), string(to))
}

// PromoteAspirant applies the terminal promotion and flips visibility in
// the same statement, so no partial state is ever observable.
func (r *Repository) PromoteAspirant(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id,
		`UPDATE aspirants SET state = 'PROMOTED', public = true, updated_at = NOW()
		 WHERE id = $1 AND state IN ('SUBMITTED', 'UNDER_REVIEW', 'SCREENED')`)
}

// DisqualifyAspirant applies the terminal disqualification with its reason.
func (r *Repository) DisqualifyAspirant(ctx context.Context, id uuid.UUID, reason string) error {
	return r.transition(ctx, id,
		`UPDATE aspirants SET state = 'DISQUALIFIED', public = false, disqualify_reason = $2, updated_at = NOW()
		 WHERE id = $1 AND state NOT IN ('PROMOTED', 'DISQUALIFIED')`, reason)
}

// UpdateProfile edits the public candidate profile.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, manifesto, photoURL string) error {
	return r.transition(ctx, id,
		`UPDATE aspirants SET manifesto = $2, photo_url = $3, updated_at = NOW()
		 WHERE id = $1 AND state = 'PROMOTED'`, manifesto, photoURL)
}

// DeleteAspirant removes the record.
func (r *Repository) DeleteAspirant(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM aspirants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// transition runs a conditional update; zero affected rows means either a
// missing aspirant or a state that no longer matches the precondition.
func (r *Repository) transition(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	all := append([]any{id}, args...)
	tag, err := r.pool.Exec(ctx, query, all...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM aspirants WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidState
}

var _ RepositoryPort = (*Repository)(nil)
