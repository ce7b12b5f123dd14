package voting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence. Phase transitions are
// single conditional UPDATEs and the unique index on (voter_id, position_id)
// enforces one ballot per position even when the same voter races two
// sessions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetElection fetches one election.
func (r *Repository) GetElection(ctx context.Context, id uuid.UUID) (Election, error) {
	var e Election
	var phase string
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, phase, created_at, updated_at FROM elections WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &phase, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Election{}, ErrNotFound
		}
		return Election{}, err
	}
	e.Phase = Phase(phase)
	return e, nil
}

// CreateElection inserts a draft election.
func (r *Repository) CreateElection(ctx context.Context, e Election) (Election, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO elections (id, name, phase, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		e.ID, e.Name, string(e.Phase)).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Election{}, err
	}
	return e, nil
}

// TransitionPhase moves the election between phases with the expected
// current phase as the WHERE condition. Zero affected rows means either a
// missing election or a phase that no longer matches.
func (r *Repository) TransitionPhase(ctx context.Context, id uuid.UUID, from []Phase, to Phase) error {
	states := make([]string, 0, len(from))
	for _, p := range from {
		states = append(states, string(p))
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE elections SET phase = $2, updated_at = NOW()
		 WHERE id = $1 AND phase = ANY($3)`,
		id, string(to), states)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM elections WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrPhase
}

const voterColumns = `id, matric_number, full_name, COALESCE(department, ''), registered, COALESCE(user_id, 0), created_at`

func scanVoter(row pgx.Row) (Voter, error) {
	var v Voter
	err := row.Scan(&v.ID, &v.MatricNumber, &v.FullName, &v.Department, &v.Registered, &v.UserID, &v.CreatedAt)
	if err != nil {
		return Voter{}, err
	}
	return v, nil
}

// GetVoterByMatric looks a roster entry up by matric number.
func (r *Repository) GetVoterByMatric(ctx context.Context, matric string) (Voter, error) {
	v, err := scanVoter(r.pool.QueryRow(ctx,
		`SELECT `+voterColumns+` FROM eligible_voters WHERE matric_number = $1`, matric))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Voter{}, ErrNotOnRoster
		}
		return Voter{}, err
	}
	return v, nil
}

// GetVoter fetches one roster entry by ID.
func (r *Repository) GetVoter(ctx context.Context, id uuid.UUID) (Voter, error) {
	v, err := scanVoter(r.pool.QueryRow(ctx,
		`SELECT `+voterColumns+` FROM eligible_voters WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Voter{}, ErrNotFound
		}
		return Voter{}, err
	}
	return v, nil
}

// RegisterVoter flips the registered flag for an unclaimed roster entry.
func (r *Repository) RegisterVoter(ctx context.Context, matric string, userID int64) (Voter, error) {
	v, err := scanVoter(r.pool.QueryRow(ctx,
		`UPDATE eligible_voters SET registered = true, user_id = $2
		 WHERE matric_number = $1 AND NOT registered
		 RETURNING `+voterColumns, matric, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if probeErr := r.pool.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM eligible_voters WHERE matric_number = $1)`, matric).Scan(&exists); probeErr != nil {
				return Voter{}, probeErr
			}
			if !exists {
				return Voter{}, ErrNotOnRoster
			}
			return Voter{}, ErrAlreadyRegistered
		}
		return Voter{}, err
	}
	return v, nil
}

// CandidateOnBallot reports whether the candidate is promoted for the
// position.
func (r *Repository) CandidateOnBallot(ctx context.Context, candidateID, positionID uuid.UUID) (bool, error) {
	var onBallot bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM aspirants
		   WHERE id = $1 AND position_id = $2 AND state = 'PROMOTED'
		 )`, candidateID, positionID).Scan(&onBallot)
	if err != nil {
		return false, err
	}
	return onBallot, nil
}

// InsertVote records one ballot entry. A second vote for the same position
// trips uq_votes_voter_position and surfaces as ErrAlreadyVoted.
func (r *Repository) InsertVote(ctx context.Context, v Vote) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO votes (id, election_id, voter_id, position_id, candidate_id, cast_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		v.ID, v.ElectionID, v.VoterID, v.PositionID, v.CandidateID)
	if err != nil {
		if violatesConstraint(err, "uq_votes_voter_position") {
			return ErrAlreadyVoted
		}
		return err
	}
	return nil
}

func violatesConstraint(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == constraint
}

// TallyByPosition counts votes per candidate grouped by position.
func (r *Repository) TallyByPosition(ctx context.Context, electionID uuid.UUID) ([]Tally, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, a.id, a.full_name, COUNT(v.id)
		 FROM votes v
		 JOIN positions p ON p.id = v.position_id
		 JOIN aspirants a ON a.id = v.candidate_id
		 WHERE v.election_id = $1
		 GROUP BY p.id, p.name, a.id, a.full_name
		 ORDER BY p.name, COUNT(v.id) DESC, a.full_name`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Tally
	for rows.Next() {
		var t Tally
		if err := rows.Scan(&t.PositionID, &t.PositionName, &t.CandidateID, &t.CandidateName, &t.Votes); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

const timelineColumns = `id, label, starts_at, ends_at, active, created_at, updated_at`

func scanTimelineEntry(row pgx.Row) (TimelineEntry, error) {
	var e TimelineEntry
	err := row.Scan(&e.ID, &e.Label, &e.StartsAt, &e.EndsAt, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return TimelineEntry{}, err
	}
	return e, nil
}

// CreateTimelineEntry inserts a calendar stage.
func (r *Repository) CreateTimelineEntry(ctx context.Context, entry TimelineEntry) (TimelineEntry, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO timeline_entries (id, label, starts_at, ends_at, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		entry.ID, entry.Label, entry.StartsAt, entry.EndsAt, entry.Active).
		Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return TimelineEntry{}, err
	}
	return entry, nil
}

// UpdateTimelineEntry edits a calendar stage.
func (r *Repository) UpdateTimelineEntry(ctx context.Context, id uuid.UUID, label string, startsAt, endsAt time.Time) (TimelineEntry, error) {
	entry, err := scanTimelineEntry(r.pool.QueryRow(ctx,
		`UPDATE timeline_entries SET label = $2, starts_at = $3, ends_at = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+timelineColumns, id, label, startsAt, endsAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TimelineEntry{}, ErrNotFound
		}
		return TimelineEntry{}, err
	}
	return entry, nil
}

// ToggleTimelineEntry flips the active flag and returns the new value.
func (r *Repository) ToggleTimelineEntry(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx,
		`UPDATE timeline_entries SET active = NOT active, updated_at = NOW()
		 WHERE id = $1
		 RETURNING active`, id).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return active, nil
}

// ListTimeline returns the calendar in chronological order.
func (r *Repository) ListTimeline(ctx context.Context) ([]TimelineEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+timelineColumns+` FROM timeline_entries ORDER BY starts_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []TimelineEntry
	for rows.Next() {
		e, err := scanTimelineEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var _ RepositoryPort = (*Repository)(nil)
