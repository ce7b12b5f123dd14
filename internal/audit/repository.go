package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads the audit timeline from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a read repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const timelineSelect = `SELECT a.created_at, a.user_id, a.action, COALESCE(a.entity_type, ''), COALESCE(a.entity_id, ''), COALESCE(a.ip_address, '')
FROM audit_logs a
WHERE ($1::timestamptz IS NULL OR a.created_at >= $1)
  AND ($2::timestamptz IS NULL OR a.created_at <= $2)
  AND ($3 = '' OR a.user_id = $3)
  AND ($4 = '' OR a.action = $4)
  AND ($5 = '' OR a.entity_type = $5)
ORDER BY a.created_at DESC, a.id DESC`

// TimelineWindow returns one page of rows plus a lookahead row.
func (r *PGRepository) TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, timelineSelect+` LIMIT $6 OFFSET $7`,
		nullableTime(filters.From), nullableTime(filters.To),
		filters.Actor, filters.Action, filters.Entity, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimeline(rows)
}

// TimelineAll returns every matching row for export.
func (r *PGRepository) TimelineAll(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, timelineSelect,
		nullableTime(filters.From), nullableTime(filters.To),
		filters.Actor, filters.Action, filters.Entity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimeline(rows)
}

func scanTimeline(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]TimelineRow, error) {
	var result []TimelineRow
	for rows.Next() {
		var row TimelineRow
		if err := rows.Scan(&row.At, &row.Actor, &row.Action, &row.EntityType, &row.EntityID, &row.IPAddress); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var _ Repository = (*PGRepository)(nil)
