package roster

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/platform/db"
)

// Repository persists roster entries in PostgreSQL. Imports upsert on
// matric number so re-uploading a corrected file is safe; the registered
// flag of an already claimed entry is never reset.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes the entries in one batch inside a single transaction, so a
// failed import leaves the roster untouched.
func (r *Repository) Upsert(ctx context.Context, entries []Entry) (int, error) {
	written := 0
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range entries {
			batch.Queue(
				`INSERT INTO eligible_voters (id, matric_number, full_name, department, registered, created_at)
				 VALUES ($1, $2, $3, NULLIF($4, ''), false, NOW())
				 ON CONFLICT (matric_number) DO UPDATE
				 SET full_name = EXCLUDED.full_name, department = EXCLUDED.department`,
				uuid.New(), e.MatricNumber, e.FullName, e.Department)
		}
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range entries {
			if _, err := results.Exec(); err != nil {
				return err
			}
			written++
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// Count returns the roster size.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM eligible_voters`).Scan(&n)
	return n, err
}
