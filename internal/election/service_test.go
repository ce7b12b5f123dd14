package election

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/positions"
)

type memoryRepo struct {
	aspirants map[uuid.UUID]Aspirant
	emails    map[uuid.UUID]string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		aspirants: make(map[uuid.UUID]Aspirant),
		emails:    make(map[uuid.UUID]string),
	}
}

func (r *memoryRepo) GetAspirant(ctx context.Context, id uuid.UUID) (Aspirant, error) {
	a, ok := r.aspirants[id]
	if !ok {
		return Aspirant{}, ErrNotFound
	}
	return a, nil
}

func (r *memoryRepo) AspirantEmail(ctx context.Context, id uuid.UUID) (string, error) {
	if _, ok := r.aspirants[id]; !ok {
		return "", ErrNotFound
	}
	return r.emails[id], nil
}

func (r *memoryRepo) ListAspirants(ctx context.Context) ([]Aspirant, error) {
	result := make([]Aspirant, 0, len(r.aspirants))
	for _, a := range r.aspirants {
		result = append(result, a)
	}
	return result, nil
}

func (r *memoryRepo) ListPublicCandidates(ctx context.Context) ([]Aspirant, error) {
	var result []Aspirant
	for _, a := range r.aspirants {
		if a.State == StatePromoted && a.Public {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memoryRepo) CreateAspirant(ctx context.Context, a Aspirant) (Aspirant, error) {
	r.aspirants[a.ID] = a
	return a, nil
}

func (r *memoryRepo) mutate(id uuid.UUID, allowed func(Aspirant) bool, apply func(*Aspirant)) error {
	a, ok := r.aspirants[id]
	if !ok {
		return ErrNotFound
	}
	if !allowed(a) {
		return ErrInvalidState
	}
	apply(&a)
	r.aspirants[id] = a
	return nil
}

func (r *memoryRepo) MarkUnderReview(ctx context.Context, id uuid.UUID) error {
	return r.mutate(id,
		func(a Aspirant) bool { return a.State == StateSubmitted },
		func(a *Aspirant) { a.State = StateUnderReview })
}

func (r *memoryRepo) MarkPaymentVerified(ctx context.Context, id uuid.UUID) error {
	return r.mutate(id,
		func(a Aspirant) bool { return !a.State.Terminal() },
		func(a *Aspirant) { a.PaymentVerified = true })
}

func (r *memoryRepo) SetScreeningSlot(ctx context.Context, id uuid.UUID, slot time.Time) error {
	return r.mutate(id,
		func(a Aspirant) bool { return a.State == StateUnderReview },
		func(a *Aspirant) { a.ScreeningSlot = &slot })
}

func (r *memoryRepo) CompleteScreening(ctx context.Context, id uuid.UUID, outcome ScreeningOutcome, to LifecycleState) error {
	return r.mutate(id,
		func(a Aspirant) bool { return a.State == StateUnderReview && a.ScreeningSlot != nil },
		func(a *Aspirant) { a.ScreeningOutcome = outcome; a.State = to })
}

func (r *memoryRepo) PromoteAspirant(ctx context.Context, id uuid.UUID) error {
	return r.mutate(id,
		func(a Aspirant) bool { return !a.State.Terminal() },
		func(a *Aspirant) { a.State = StatePromoted; a.Public = true })
}

func (r *memoryRepo) DisqualifyAspirant(ctx context.Context, id uuid.UUID, reason string) error {
	return r.mutate(id,
		func(a Aspirant) bool { return !a.State.Terminal() },
		func(a *Aspirant) { a.State = StateDisqualified; a.Public = false; a.DisqualifyReason = reason })
}

func (r *memoryRepo) UpdateProfile(ctx context.Context, id uuid.UUID, manifesto, photoURL string) error {
	return r.mutate(id,
		func(a Aspirant) bool { return a.State == StatePromoted },
		func(a *Aspirant) { a.Manifesto = manifesto; a.PhotoURL = photoURL })
}

func (r *memoryRepo) DeleteAspirant(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.aspirants[id]; !ok {
		return ErrNotFound
	}
	delete(r.aspirants, id)
	return nil
}

type stubPositions struct {
	byID map[uuid.UUID]positions.Position
}

func (s *stubPositions) Get(ctx context.Context, id uuid.UUID) (positions.Position, error) {
	p, ok := s.byID[id]
	if !ok {
		return positions.Position{}, positions.ErrNotFound
	}
	return p, nil
}

type stubAudit struct {
	events []audit.Event
}

func (s *stubAudit) Record(ctx context.Context, event audit.Event) {
	s.events = append(s.events, event)
}

type queuedMail struct {
	to, subject, body string
}

type stubMailer struct {
	sent []queuedMail
	err  error
}

func (s *stubMailer) EnqueueMail(ctx context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, queuedMail{to: to, subject: subject, body: body})
	return nil
}

func fixture(t *testing.T, minCGPA, declared float64, state LifecycleState) (*Service, *memoryRepo, *stubAudit, uuid.UUID) {
	t.Helper()
	posID := uuid.New()
	pos := &stubPositions{byID: map[uuid.UUID]positions.Position{
		posID: {ID: posID, Name: "President", MinCGPA: minCGPA, Active: true},
	}}
	repo := newMemoryRepo()
	auditor := &stubAudit{}
	svc := NewService(repo, pos, auditor, nil)

	aspirantID := uuid.New()
	repo.aspirants[aspirantID] = Aspirant{
		ID:           aspirantID,
		UserID:       7,
		FullName:     "Ada Obi",
		MatricNumber: "COHSSA/2023/014",
		Department:   DeptPoliticalScience,
		PositionID:   posID,
		CGPA:         declared,
		State:        state,
	}
	return svc, repo, auditor, aspirantID
}

func TestPromoteScreenedEligibleAspirant(t *testing.T) {
	svc, repo, auditor, id := fixture(t, 3.00, 3.50, StateScreened)

	promoted, err := svc.Promote(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatePromoted, promoted.State)
	require.True(t, promoted.Public)
	require.Equal(t, StatePromoted, repo.aspirants[id].State)

	require.Len(t, auditor.events, 1)
	require.Equal(t, audit.ActionPromoteCandidate, auditor.events[0].Action)
	require.Equal(t, id.String(), auditor.events[0].EntityID)
	require.Equal(t, "aspirant", auditor.events[0].EntityType)
}

func TestPromoteIneligibleAspirant(t *testing.T) {
	svc, repo, auditor, id := fixture(t, 3.00, 2.50, StateScreened)

	_, err := svc.Promote(context.Background(), id)
	require.ErrorIs(t, err, ErrIneligible)

	var ineligible *IneligibleError
	require.ErrorAs(t, err, &ineligible)
	require.InDelta(t, 2.50, ineligible.Declared, 0.001)
	require.InDelta(t, 3.00, ineligible.Minimum, 0.001)

	require.Equal(t, StateScreened, repo.aspirants[id].State, "state must be untouched")
	require.Empty(t, auditor.events, "a failed precondition produces no audit event")
}

func TestPromoteWithoutConfiguredMinimum(t *testing.T) {
	// minimum <= 0 means no requirement: promotion proceeds.
	svc, _, auditor, id := fixture(t, 0, 2.10, StateScreened)

	_, err := svc.Promote(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, auditor.events, 1)
}

func TestPromoteFromTerminalState(t *testing.T) {
	for _, state := range []LifecycleState{StatePromoted, StateDisqualified} {
		svc, _, auditor, id := fixture(t, 3.00, 4.50, state)
		_, err := svc.Promote(context.Background(), id)
		require.ErrorIs(t, err, ErrInvalidState, "state %s", state)
		require.Empty(t, auditor.events)
	}
}

func TestDisqualifyRecordsReason(t *testing.T) {
	svc, repo, auditor, id := fixture(t, 3.00, 3.50, StateUnderReview)

	err := svc.Disqualify(context.Background(), id, "forged matric number")
	require.NoError(t, err)
	require.Equal(t, StateDisqualified, repo.aspirants[id].State)
	require.Equal(t, "forged matric number", repo.aspirants[id].DisqualifyReason)

	require.Len(t, auditor.events, 1)
	require.Equal(t, audit.ActionDisqualifyAspirant, auditor.events[0].Action)
}

func TestDisqualifyTerminalStateRejected(t *testing.T) {
	svc, _, auditor, id := fixture(t, 3.00, 3.50, StateDisqualified)

	err := svc.Disqualify(context.Background(), id, "again")
	require.ErrorIs(t, err, ErrInvalidState)
	require.Empty(t, auditor.events)
}

func TestDisqualifyRequiresReason(t *testing.T) {
	svc, _, _, id := fixture(t, 3.00, 3.50, StateUnderReview)
	err := svc.Disqualify(context.Background(), id, "   ")
	require.ErrorIs(t, err, ErrValidation)
}

func TestScreeningFlow(t *testing.T) {
	svc, repo, auditor, id := fixture(t, 3.00, 3.50, StateSubmitted)
	ctx := context.Background()

	require.NoError(t, svc.Review(ctx, id))
	require.Equal(t, StateUnderReview, repo.aspirants[id].State)

	// Screening cannot be scheduled before the fee is verified.
	slot := time.Now().Add(48 * time.Hour)
	err := svc.ScheduleScreening(ctx, id, slot)
	require.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, svc.VerifyPayment(ctx, id))
	require.NoError(t, svc.ScheduleScreening(ctx, id, slot))
	require.NoError(t, svc.CompleteScreening(ctx, id, ScreeningPassed))
	require.Equal(t, StateScreened, repo.aspirants[id].State)

	actions := make([]audit.Action, 0, len(auditor.events))
	for _, e := range auditor.events {
		actions = append(actions, e.Action)
	}
	require.Equal(t, []audit.Action{
		audit.ActionReviewAspirant,
		audit.ActionVerifyPayment,
		audit.ActionScheduleScreening,
		audit.ActionCompleteScreening,
	}, actions)
}

func TestScheduleScreeningQueuesInvitation(t *testing.T) {
	posID := uuid.New()
	pos := &stubPositions{byID: map[uuid.UUID]positions.Position{
		posID: {ID: posID, Name: "President", MinCGPA: 3.00, Active: true},
	}}
	repo := newMemoryRepo()
	mailer := &stubMailer{}
	svc := NewService(repo, pos, &stubAudit{}, mailer)

	id := uuid.New()
	repo.aspirants[id] = Aspirant{
		ID:              id,
		UserID:          7,
		FullName:        "Ada Obi",
		MatricNumber:    "COHSSA/2023/014",
		Department:      DeptPoliticalScience,
		PositionID:      posID,
		CGPA:            3.50,
		State:           StateUnderReview,
		PaymentVerified: true,
	}
	repo.emails[id] = "ada.obi@example.edu.ng"

	slot := time.Now().Add(72 * time.Hour)
	require.NoError(t, svc.ScheduleScreening(context.Background(), id, slot))

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "ada.obi@example.edu.ng", mailer.sent[0].to)
	require.Contains(t, mailer.sent[0].body, "Ada Obi")
}

func TestScheduleScreeningSurvivesQueueFailure(t *testing.T) {
	posID := uuid.New()
	pos := &stubPositions{byID: map[uuid.UUID]positions.Position{
		posID: {ID: posID, Name: "President", MinCGPA: 3.00, Active: true},
	}}
	repo := newMemoryRepo()
	mailer := &stubMailer{err: context.DeadlineExceeded}
	svc := NewService(repo, pos, &stubAudit{}, mailer)

	id := uuid.New()
	repo.aspirants[id] = Aspirant{
		ID:              id,
		UserID:          7,
		FullName:        "Ada Obi",
		MatricNumber:    "COHSSA/2023/014",
		Department:      DeptPoliticalScience,
		PositionID:      posID,
		CGPA:            3.50,
		State:           StateUnderReview,
		PaymentVerified: true,
	}
	repo.emails[id] = "ada.obi@example.edu.ng"

	slot := time.Now().Add(72 * time.Hour)
	require.NoError(t, svc.ScheduleScreening(context.Background(), id, slot))
	require.NotNil(t, repo.aspirants[id].ScreeningSlot)
}

func TestRejectedScheduleQueuesNothing(t *testing.T) {
	svc, repo, _, id := fixture(t, 3.00, 3.50, StateUnderReview)
	mailer := &stubMailer{}
	svc.mail = mailer
	repo.emails[id] = "ada.obi@example.edu.ng"

	// Fee unverified: the transition is rejected and no invitation goes out.
	err := svc.ScheduleScreening(context.Background(), id, time.Now().Add(24*time.Hour))
	require.ErrorIs(t, err, ErrInvalidState)
	require.Empty(t, mailer.sent)
}

func TestAddCandidateEmitsSingleAuditEvent(t *testing.T) {
	posID := uuid.New()
	pos := &stubPositions{byID: map[uuid.UUID]positions.Position{
		posID: {ID: posID, Name: "President", MinCGPA: 3.00, Active: true},
	}}
	repo := newMemoryRepo()
	auditor := &stubAudit{}
	svc := NewService(repo, pos, auditor, nil)

	promoted, err := svc.AddCandidate(context.Background(), DeclareInput{
		UserID:       11,
		FullName:     "Chinedu Okeke",
		MatricNumber: "COHSSA/2022/031",
		Department:   DeptEconomics,
		PositionID:   posID,
		CGPA:         3.80,
	})
	require.NoError(t, err)
	require.Equal(t, StatePromoted, promoted.State)

	require.Len(t, auditor.events, 1)
	require.Equal(t, audit.ActionAddCandidate, auditor.events[0].Action)
	require.Equal(t, promoted.ID.String(), auditor.events[0].EntityID)
}

func TestDeclareRejectsUnknownDepartment(t *testing.T) {
	svc, _, _, _ := fixture(t, 3.00, 3.50, StateSubmitted)
	_, err := svc.Declare(context.Background(), DeclareInput{
		UserID:       9,
		FullName:     "Test Person",
		MatricNumber: "COHSSA/2024/001",
		Department:   Department("Astrology"),
		PositionID:   uuid.New(),
		CGPA:         3.00,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeclareRejectsOutOfRangeCGPA(t *testing.T) {
	svc, _, _, _ := fixture(t, 3.00, 3.50, StateSubmitted)
	for _, v := range []float64{1.99, 5.01} {
		_, err := svc.Declare(context.Background(), DeclareInput{
			UserID:       9,
			FullName:     "Test Person",
			MatricNumber: "COHSSA/2024/001",
			Department:   DeptEconomics,
			PositionID:   uuid.New(),
			CGPA:         v,
		})
		require.ErrorIs(t, err, ErrValidation, "cgpa %v", v)
	}
}
