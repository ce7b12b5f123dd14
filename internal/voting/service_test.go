package voting

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit"
)

type memoryRepo struct {
	elections map[uuid.UUID]Election
	voters    map[uuid.UUID]Voter
	ballot    map[uuid.UUID]uuid.UUID // candidate -> position
	votes     map[string]Vote         // voter|position
	timeline  map[uuid.UUID]TimelineEntry
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		elections: make(map[uuid.UUID]Election),
		voters:    make(map[uuid.UUID]Voter),
		ballot:    make(map[uuid.UUID]uuid.UUID),
		votes:     make(map[string]Vote),
		timeline:  make(map[uuid.UUID]TimelineEntry),
	}
}

func (r *memoryRepo) GetElection(ctx context.Context, id uuid.UUID) (Election, error) {
	e, ok := r.elections[id]
	if !ok {
		return Election{}, ErrNotFound
	}
	return e, nil
}

func (r *memoryRepo) CreateElection(ctx context.Context, e Election) (Election, error) {
	r.elections[e.ID] = e
	return e, nil
}

func (r *memoryRepo) TransitionPhase(ctx context.Context, id uuid.UUID, from []Phase, to Phase) error {
	e, ok := r.elections[id]
	if !ok {
		return ErrNotFound
	}
	for _, p := range from {
		if e.Phase == p {
			e.Phase = to
			r.elections[id] = e
			return nil
		}
	}
	return ErrPhase
}

func (r *memoryRepo) GetVoterByMatric(ctx context.Context, matric string) (Voter, error) {
	for _, v := range r.voters {
		if v.MatricNumber == matric {
			return v, nil
		}
	}
	return Voter{}, ErrNotOnRoster
}

func (r *memoryRepo) GetVoter(ctx context.Context, id uuid.UUID) (Voter, error) {
	v, ok := r.voters[id]
	if !ok {
		return Voter{}, ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) RegisterVoter(ctx context.Context, matric string, userID int64) (Voter, error) {
	for id, v := range r.voters {
		if v.MatricNumber == matric {
			if v.Registered {
				return Voter{}, ErrAlreadyRegistered
			}
			v.Registered = true
			v.UserID = userID
			r.voters[id] = v
			return v, nil
		}
	}
	return Voter{}, ErrNotOnRoster
}

func (r *memoryRepo) CandidateOnBallot(ctx context.Context, candidateID, positionID uuid.UUID) (bool, error) {
	pos, ok := r.ballot[candidateID]
	return ok && pos == positionID, nil
}

func (r *memoryRepo) InsertVote(ctx context.Context, v Vote) error {
	key := v.VoterID.String() + "|" + v.PositionID.String()
	if _, ok := r.votes[key]; ok {
		return ErrAlreadyVoted
	}
	r.votes[key] = v
	return nil
}

func (r *memoryRepo) TallyByPosition(ctx context.Context, electionID uuid.UUID) ([]Tally, error) {
	counts := make(map[uuid.UUID]int64)
	positions := make(map[uuid.UUID]uuid.UUID)
	for _, v := range r.votes {
		if v.ElectionID != electionID {
			continue
		}
		counts[v.CandidateID]++
		positions[v.CandidateID] = v.PositionID
	}
	var result []Tally
	for candidate, n := range counts {
		result = append(result, Tally{
			PositionID:  positions[candidate],
			CandidateID: candidate,
			Votes:       n,
		})
	}
	return result, nil
}

func (r *memoryRepo) CreateTimelineEntry(ctx context.Context, entry TimelineEntry) (TimelineEntry, error) {
	r.timeline[entry.ID] = entry
	return entry, nil
}

func (r *memoryRepo) UpdateTimelineEntry(ctx context.Context, id uuid.UUID, label string, startsAt, endsAt time.Time) (TimelineEntry, error) {
	e, ok := r.timeline[id]
	if !ok {
		return TimelineEntry{}, ErrNotFound
	}
	e.Label = label
	e.StartsAt = startsAt
	e.EndsAt = endsAt
	r.timeline[id] = e
	return e, nil
}

func (r *memoryRepo) ToggleTimelineEntry(ctx context.Context, id uuid.UUID) (bool, error) {
	e, ok := r.timeline[id]
	if !ok {
		return false, ErrNotFound
	}
	e.Active = !e.Active
	r.timeline[id] = e
	return e.Active, nil
}

func (r *memoryRepo) ListTimeline(ctx context.Context) ([]TimelineEntry, error) {
	var result []TimelineEntry
	for _, e := range r.timeline {
		result = append(result, e)
	}
	return result, nil
}

type stubAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *stubAudit) Record(ctx context.Context, event audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *stubAudit) actions() []audit.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Action, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

func newElection(t *testing.T, repo *memoryRepo, phase Phase) Election {
	t.Helper()
	e := Election{ID: uuid.New(), Name: "COHSSA General Election", Phase: phase}
	repo.elections[e.ID] = e
	return e
}

func newVoter(repo *memoryRepo, matric string, registered bool, userID int64) Voter {
	v := Voter{ID: uuid.New(), MatricNumber: matric, FullName: "Ada Obi", Registered: registered, UserID: userID}
	repo.voters[v.ID] = v
	return v
}

func TestPhaseTransitions(t *testing.T) {
	repo := newMemoryRepo()
	auditor := &stubAudit{}
	svc := NewService(repo, auditor)
	ctx := context.Background()

	e := newElection(t, repo, PhaseDraft)

	require.NoError(t, svc.Start(ctx, e.ID))
	require.NoError(t, svc.Pause(ctx, e.ID))
	require.NoError(t, svc.Resume(ctx, e.ID))
	require.NoError(t, svc.Close(ctx, e.ID))
	require.NoError(t, svc.PublishResults(ctx, e.ID))

	require.Equal(t, PhasePublished, repo.elections[e.ID].Phase)
	require.Equal(t, []audit.Action{
		audit.ActionStartVoting,
		audit.ActionPauseVoting,
		audit.ActionResumeVoting,
		audit.ActionCloseVoting,
		audit.ActionPublishResults,
	}, auditor.actions())
}

func TestTransitionRejectsWrongPhase(t *testing.T) {
	repo := newMemoryRepo()
	auditor := &stubAudit{}
	svc := NewService(repo, auditor)
	ctx := context.Background()

	e := newElection(t, repo, PhaseDraft)

	require.ErrorIs(t, svc.Pause(ctx, e.ID), ErrPhase)
	require.ErrorIs(t, svc.Close(ctx, e.ID), ErrPhase)
	require.ErrorIs(t, svc.PublishResults(ctx, e.ID), ErrPhase)
	require.Equal(t, PhaseDraft, repo.elections[e.ID].Phase)
	require.Empty(t, auditor.actions())
}

func TestPublishedIsTerminal(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubAudit{})
	ctx := context.Background()

	e := newElection(t, repo, PhasePublished)

	require.ErrorIs(t, svc.Start(ctx, e.ID), ErrPhase)
	require.ErrorIs(t, svc.Close(ctx, e.ID), ErrPhase)
}

func TestRegister(t *testing.T) {
	repo := newMemoryRepo()
	auditor := &stubAudit{}
	svc := NewService(repo, auditor)
	ctx := context.Background()

	newVoter(repo, "COHSSA/ACC/21/001", false, 0)

	voter, err := svc.Register(ctx, "COHSSA/ACC/21/001", 42)
	require.NoError(t, err)
	require.True(t, voter.Registered)
	require.EqualValues(t, 42, voter.UserID)
	require.Equal(t, []audit.Action{audit.ActionRegisterVoter}, auditor.actions())

	_, err = svc.Register(ctx, "COHSSA/ACC/21/001", 43)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = svc.Register(ctx, "COHSSA/ECO/21/999", 44)
	require.ErrorIs(t, err, ErrNotOnRoster)
}

func TestCastVote(t *testing.T) {
	repo := newMemoryRepo()
	auditor := &stubAudit{}
	svc := NewService(repo, auditor)
	ctx := context.Background()

	e := newElection(t, repo, PhaseOpen)
	voter := newVoter(repo, "COHSSA/POL/20/010", true, 42)
	candidateID := uuid.New()
	positionID := uuid.New()
	repo.ballot[candidateID] = positionID

	vote, err := svc.CastVote(ctx, e.ID, 42, voter.ID, positionID, candidateID)
	require.NoError(t, err)
	require.Equal(t, candidateID, vote.CandidateID)
	require.Equal(t, []audit.Action{audit.ActionCastVote}, auditor.actions())

	// Second ballot for the same position is rejected.
	_, err = svc.CastVote(ctx, e.ID, 42, voter.ID, positionID, candidateID)
	require.ErrorIs(t, err, ErrAlreadyVoted)
}

func TestCastVoteRejectsForeignVoterRecord(t *testing.T) {
	repo := newMemoryRepo()
	auditor := &stubAudit{}
	svc := NewService(repo, auditor)
	ctx := context.Background()

	e := newElection(t, repo, PhaseOpen)
	voter := newVoter(repo, "COHSSA/POL/20/011", true, 42)
	candidateID := uuid.New()
	positionID := uuid.New()
	repo.ballot[candidateID] = positionID

	// Account 99 knows the voter UUID but never claimed the roster entry.
	_, err := svc.CastVote(ctx, e.ID, 99, voter.ID, positionID, candidateID)
	require.ErrorIs(t, err, ErrVoterMismatch)
	require.Empty(t, auditor.actions())
}

func TestCastVoteRequiresOpenWindow(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubAudit{})
	ctx := context.Background()

	voter := newVoter(repo, "COHSSA/SOC/21/005", true, 42)
	candidateID := uuid.New()
	positionID := uuid.New()
	repo.ballot[candidateID] = positionID

	for _, phase := range []Phase{PhaseDraft, PhasePaused, PhaseClosed, PhasePublished} {
		e := newElection(t, repo, phase)
		_, err := svc.CastVote(ctx, e.ID, 42, voter.ID, positionID, candidateID)
		require.ErrorIs(t, err, ErrPhase, "phase %s", phase)
	}
}

func TestCastVoteRequiresRegistration(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubAudit{})
	ctx := context.Background()

	e := newElection(t, repo, PhaseOpen)
	voter := newVoter(repo, "COHSSA/HIS/21/030", false, 0)
	candidateID := uuid.New()
	positionID := uuid.New()
	repo.ballot[candidateID] = positionID

	_, err := svc.CastVote(ctx, e.ID, 42, voter.ID, positionID, candidateID)
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestCastVoteRequiresPromotedCandidate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubAudit{})
	ctx := context.Background()

	e := newElection(t, repo, PhaseOpen)
	voter := newVoter(repo, "COHSSA/PSY/21/014", true, 42)

	_, err := svc.CastVote(ctx, e.ID, 42, voter.ID, uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotOnBallot)
}

func TestPublishedResultsGate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubAudit{})
	ctx := context.Background()

	closed := newElection(t, repo, PhaseClosed)
	_, err := svc.PublishedResults(ctx, closed.ID)
	require.ErrorIs(t, err, ErrPhase)

	published := newElection(t, repo, PhasePublished)
	_, err = svc.PublishedResults(ctx, published.ID)
	require.NoError(t, err)
}

func TestTimelineEntries(t *testing.T) {
	repo := newMemoryRepo()
	auditor := &stubAudit{}
	svc := NewService(repo, auditor)
	ctx := context.Background()

	start := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	entry, err := svc.CreateTimelineEntry(ctx, "Aspirant screening", start, end)
	require.NoError(t, err)
	require.True(t, entry.Active)

	_, err = svc.CreateTimelineEntry(ctx, "", start, end)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTimelineEntry(ctx, "Backwards", end, start)
	require.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateTimelineEntry(ctx, entry.ID, "Screening week", start, end.Add(24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, "Screening week", updated.Label)

	active, err := svc.ToggleTimelineEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.False(t, active)

	require.Equal(t, []audit.Action{
		audit.ActionCreateTimeline,
		audit.ActionUpdateTimeline,
		audit.ActionToggleTimeline,
	}, auditor.actions())
}
