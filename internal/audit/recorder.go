package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/identity"
)

// Event describes one privileged action to be recorded.
type Event struct {
	Action     Action
	EntityType string
	EntityID   string
	Details    map[string]any
	IPAddress  string
}

// Store persists audit rows.
type Store interface {
	Insert(ctx context.Context, actorID string, event Event) error
}

// PGStore writes audit rows into the append-only audit_logs table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Insert appends one row. Rows are never updated or deleted.
func (s *PGStore) Insert(ctx context.Context, actorID string, event Event) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		actorID, string(event.Action), event.EntityType, event.EntityID, details, event.IPAddress)
	return err
}

const writeTimeout = 10 * time.Second

// Recorder writes one audit row per privileged action, tagged with the
// authenticated actor. Writes are detached from the caller: Record returns
// immediately and a failed write is logged and swallowed, never propagated
// or retried. The primary action's outcome is independent of the audit
// write's outcome.
type Recorder struct {
	store    Store
	provider identity.Provider
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewRecorder constructs a Recorder.
func NewRecorder(store Store, provider identity.Provider, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, provider: provider, logger: logger}
}

// Record submits the event. Without a signed-in identity it is a silent
// no-op: an audit row is never written with an anonymous actor.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil || r.store == nil {
		return
	}
	if !event.Action.Valid() {
		if r.logger != nil {
			r.logger.Error("audit action outside closed set", slog.String("action", string(event.Action)))
		}
		return
	}
	actor, ok := r.provider.Current(ctx)
	if !ok {
		return
	}
	if event.IPAddress == "" {
		event.IPAddress = "unknown"
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()
		if err := r.store.Insert(writeCtx, actor.ID, event); err != nil {
			if r.logger != nil {
				r.logger.Error("audit write failed",
					slog.String("action", string(event.Action)),
					slog.String("actor", actor.ID),
					slog.Any("error", err))
			}
		}
	}()
}

// Flush waits for in-flight writes, used on shutdown and in tests.
func (r *Recorder) Flush() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
