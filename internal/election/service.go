package election

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/positions"
)

// RepositoryPort describes repository operations used by Service. The
// transition methods are conditional writes keyed on the expected current
// state; when the stored state no longer matches, they return
// ErrInvalidState so a race lost against another session surfaces as a
// rejected action rather than a partial write.
type RepositoryPort interface {
	GetAspirant(ctx context.Context, id uuid.UUID) (Aspirant, error)
	AspirantEmail(ctx context.Context, id uuid.UUID) (string, error)
	ListAspirants(ctx context.Context) ([]Aspirant, error)
	ListPublicCandidates(ctx context.Context) ([]Aspirant, error)
	CreateAspirant(ctx context.Context, a Aspirant) (Aspirant, error)
	MarkUnderReview(ctx context.Context, id uuid.UUID) error
	MarkPaymentVerified(ctx context.Context, id uuid.UUID) error
	SetScreeningSlot(ctx context.Context, id uuid.UUID, slot time.Time) error
	CompleteScreening(ctx context.Context, id uuid.UUID, outcome ScreeningOutcome, to LifecycleState) error
	PromoteAspirant(ctx context.Context, id uuid.UUID) error
	DisqualifyAspirant(ctx context.Context, id uuid.UUID, reason string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, manifesto, photoURL string) error
	DeleteAspirant(ctx context.Context, id uuid.UUID) error
}

// PositionsPort exposes the position requirement lookup.
type PositionsPort interface {
	Get(ctx context.Context, id uuid.UUID) (positions.Position, error)
}

// AuditPort records privileged actions.
type AuditPort interface {
	Record(ctx context.Context, event audit.Event)
}

// MailPort enqueues outbound notifications. Delivery is best effort; a
// failed enqueue never blocks the transition that triggered it.
type MailPort interface {
	EnqueueMail(ctx context.Context, to, subject, body string) error
}

// Service executes aspirant lifecycle transitions. Authorization is
// enforced before the service is reached; every successful transition emits
// exactly one audit event after the write commits.
type Service struct {
	repo      RepositoryPort
	positions PositionsPort
	audit     AuditPort
	mail      MailPort
}

// NewService constructs the lifecycle service.
func NewService(repo RepositoryPort, positionsPort PositionsPort, auditor AuditPort, mailer MailPort) *Service {
	return &Service{repo: repo, positions: positionsPort, audit: auditor, mail: mailer}
}

// DeclareInput describes a new candidacy declaration.
type DeclareInput struct {
	UserID       int64
	FullName     string
	MatricNumber string
	Department   Department
	PositionID   uuid.UUID
	CGPA         float64
}

// Declare creates an aspirant in SUBMITTED state. Department and CGPA are
// validated here, before anything reaches the lifecycle machinery.
func (s *Service) Declare(ctx context.Context, input DeclareInput) (Aspirant, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.MatricNumber = strings.TrimSpace(input.MatricNumber)
	if input.FullName == "" || input.MatricNumber == "" {
		return Aspirant{}, fmt.Errorf("%w: name and matric number required", ErrValidation)
	}
	if !input.Department.Valid() {
		return Aspirant{}, fmt.Errorf("%w: unknown department %q", ErrValidation, input.Department)
	}
	if err := ValidateCGPA(input.CGPA); err != nil {
		return Aspirant{}, err
	}
	pos, err := s.positions.Get(ctx, input.PositionID)
	if err != nil {
		return Aspirant{}, fmt.Errorf("%w: position", ErrValidation)
	}
	if !pos.Active {
		return Aspirant{}, fmt.Errorf("%w: position %s is closed", ErrValidation, pos.Name)
	}
	return s.repo.CreateAspirant(ctx, Aspirant{
		ID:           uuid.New(),
		UserID:       input.UserID,
		FullName:     input.FullName,
		MatricNumber: input.MatricNumber,
		Department:   input.Department,
		PositionID:   input.PositionID,
		CGPA:         input.CGPA,
		State:        StateSubmitted,
	})
}

// Get returns one aspirant.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Aspirant, error) {
	return s.repo.GetAspirant(ctx, id)
}

// List returns all aspirants.
func (s *Service) List(ctx context.Context) ([]Aspirant, error) {
	return s.repo.ListAspirants(ctx)
}

// ListCandidates returns the public candidate directory. Only promoted
// aspirants with the public flag appear.
func (s *Service) ListCandidates(ctx context.Context) ([]Aspirant, error) {
	return s.repo.ListPublicCandidates(ctx)
}

// Review moves an aspirant from SUBMITTED to UNDER_REVIEW.
func (s *Service) Review(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.MarkUnderReview(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionReviewAspirant, id, nil)
	return nil
}

// VerifyPayment marks the declaration fee as verified.
func (s *Service) VerifyPayment(ctx context.Context, id uuid.UUID) error {
	asp, err := s.repo.GetAspirant(ctx, id)
	if err != nil {
		return err
	}
	if asp.State.Terminal() {
		return ErrInvalidState
	}
	if err := s.repo.MarkPaymentVerified(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionVerifyPayment, id, nil)
	return nil
}

// ScheduleScreening books a screening slot for an aspirant under review.
// The declaration fee must be verified first.
func (s *Service) ScheduleScreening(ctx context.Context, id uuid.UUID, slot time.Time) error {
	asp, err := s.repo.GetAspirant(ctx, id)
	if err != nil {
		return err
	}
	if asp.State != StateUnderReview {
		return ErrInvalidState
	}
	if !asp.PaymentVerified {
		return fmt.Errorf("%w: payment not verified", ErrInvalidState)
	}
	if slot.Before(time.Now()) {
		return fmt.Errorf("%w: screening slot in the past", ErrValidation)
	}
	if err := s.repo.SetScreeningSlot(ctx, id, slot); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionScheduleScreening, id, map[string]any{"slot": slot.UTC().Format(time.RFC3339)})
	s.notifyScreeningSlot(ctx, asp, slot)
	return nil
}

// notifyScreeningSlot queues the screening invitation. The slot is already
// committed at this point, so enqueue failures are dropped rather than
// rolling back the transition.
func (s *Service) notifyScreeningSlot(ctx context.Context, asp Aspirant, slot time.Time) {
	if s.mail == nil {
		return
	}
	email, err := s.repo.AspirantEmail(ctx, asp.ID)
	if err != nil || email == "" {
		return
	}
	_ = s.mail.EnqueueMail(ctx, email,
		"Screening scheduled",
		fmt.Sprintf("Dear %s, your screening is scheduled for %s.", asp.FullName, slot.UTC().Format(time.RFC1123)))
}

// CompleteScreening records the outcome. A pass moves the aspirant to
// SCREENED; a fail keeps the state so the committee can disqualify with a
// reason.
func (s *Service) CompleteScreening(ctx context.Context, id uuid.UUID, outcome ScreeningOutcome) error {
	if outcome != ScreeningPassed && outcome != ScreeningFailed {
		return fmt.Errorf("%w: unknown screening outcome %q", ErrValidation, outcome)
	}
	to := StateUnderReview
	if outcome == ScreeningPassed {
		to = StateScreened
	}
	if err := s.repo.CompleteScreening(ctx, id, outcome, to); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionCompleteScreening, id, map[string]any{"outcome": string(outcome)})
	return nil
}

// Promote executes the terminal aspirant-to-candidate transition. The
// eligibility precondition is strict: there is no administrative override.
func (s *Service) Promote(ctx context.Context, id uuid.UUID) (Aspirant, error) {
	promoted, posName, err := s.promote(ctx, id)
	if err != nil {
		return Aspirant{}, err
	}
	s.recordAudit(ctx, audit.ActionPromoteCandidate, id, map[string]any{
		"matric_number": promoted.MatricNumber,
		"position":      posName,
	})
	return promoted, nil
}

// promote performs the eligibility check and the state write without
// recording audit, so callers decide which single event the timeline gets.
func (s *Service) promote(ctx context.Context, id uuid.UUID) (Aspirant, string, error) {
	asp, err := s.repo.GetAspirant(ctx, id)
	if err != nil {
		return Aspirant{}, "", err
	}
	if asp.State.Terminal() {
		return Aspirant{}, "", ErrInvalidState
	}
	pos, err := s.positions.Get(ctx, asp.PositionID)
	if err != nil {
		return Aspirant{}, "", err
	}
	if MeetsRequirement(asp.CGPA, pos.MinCGPA) == VerdictNotMet {
		return Aspirant{}, "", &IneligibleError{Declared: asp.CGPA, Minimum: pos.MinCGPA}
	}
	if err := s.repo.PromoteAspirant(ctx, id); err != nil {
		return Aspirant{}, "", err
	}
	asp.State = StatePromoted
	asp.Public = true
	return asp, pos.Name, nil
}

// Disqualify terminates a candidacy with a reason. Terminal states are
// rejected; nothing ever transitions out of DISQUALIFIED.
func (s *Service) Disqualify(ctx context.Context, id uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: disqualification reason required", ErrValidation)
	}
	if err := s.repo.DisqualifyAspirant(ctx, id, reason); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionDisqualifyAspirant, id, map[string]any{"reason": reason})
	return nil
}

// AddCandidate lets the committee place a candidate on the ballot directly,
// bypassing the aspirant flow. The eligibility gate still applies.
func (s *Service) AddCandidate(ctx context.Context, input DeclareInput) (Aspirant, error) {
	asp, err := s.Declare(ctx, input)
	if err != nil {
		return Aspirant{}, err
	}
	promoted, posName, err := s.promote(ctx, asp.ID)
	if err != nil {
		return Aspirant{}, err
	}
	s.recordAudit(ctx, audit.ActionAddCandidate, promoted.ID, map[string]any{
		"matric_number": promoted.MatricNumber,
		"position":      posName,
	})
	return promoted, nil
}

// UpdateCandidateProfile edits the public profile of a promoted candidate.
func (s *Service) UpdateCandidateProfile(ctx context.Context, id uuid.UUID, manifesto, photoURL string) error {
	asp, err := s.repo.GetAspirant(ctx, id)
	if err != nil {
		return err
	}
	if asp.State != StatePromoted {
		return ErrInvalidState
	}
	if err := s.repo.UpdateProfile(ctx, id, manifesto, photoURL); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionEditCandidate, id, nil)
	return nil
}

// RemoveCandidate deletes an aspirant record entirely.
func (s *Service) RemoveCandidate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAspirant(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionDeleteCandidate, id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action audit.Action, id uuid.UUID, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, audit.Event{
		Action:     action,
		EntityType: "aspirant",
		EntityID:   id.String(),
		Details:    details,
	})
}
