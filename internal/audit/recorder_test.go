package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/identity"
)

type memStore struct {
	mu   sync.Mutex
	rows []struct {
		Actor string
		Event Event
	}
	err error
}

func (s *memStore) Insert(ctx context.Context, actorID string, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, struct {
		Actor string
		Event Event
	}{actorID, event})
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type fixedProvider struct {
	id identity.Identity
	ok bool
}

func (p fixedProvider) Current(ctx context.Context) (identity.Identity, bool) { return p.id, p.ok }
func (p fixedProvider) Subscribe(func(identity.Identity, bool)) func()        { return func() {} }

func TestRecorderWritesActorRow(t *testing.T) {
	store := &memStore{}
	rec := NewRecorder(store, fixedProvider{id: identity.Identity{ID: "42"}, ok: true}, nil)

	rec.Record(context.Background(), Event{
		Action:     ActionPromoteCandidate,
		EntityType: "aspirant",
		EntityID:   "abc",
	})
	rec.Flush()

	require.Equal(t, 1, store.count())
	require.Equal(t, "42", store.rows[0].Actor)
	require.Equal(t, ActionPromoteCandidate, store.rows[0].Event.Action)
	require.Equal(t, "unknown", store.rows[0].Event.IPAddress, "missing origin defaults to unknown")
}

func TestRecorderNoOpWithoutIdentity(t *testing.T) {
	store := &memStore{}
	rec := NewRecorder(store, fixedProvider{ok: false}, nil)

	rec.Record(context.Background(), Event{Action: ActionSignIn})
	rec.Flush()

	require.Zero(t, store.count(), "anonymous audit rows must never be written")
}

func TestRecorderRejectsUnknownAction(t *testing.T) {
	store := &memStore{}
	rec := NewRecorder(store, fixedProvider{id: identity.Identity{ID: "42"}, ok: true}, nil)

	rec.Record(context.Background(), Event{Action: Action("made_up")})
	rec.Flush()

	require.Zero(t, store.count())
}

func TestRecorderSwallowsWriteFailure(t *testing.T) {
	store := &memStore{err: errors.New("boom")}
	rec := NewRecorder(store, fixedProvider{id: identity.Identity{ID: "42"}, ok: true}, nil)

	// Record must not panic or surface the failure.
	rec.Record(context.Background(), Event{Action: ActionCastVote})
	rec.Flush()
	require.Zero(t, store.count())
}
