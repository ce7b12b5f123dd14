package voting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit"
)

// RepositoryPort describes repository operations used by Service. Phase
// transitions are conditional writes keyed on the expected current phase
// and return ErrPhase when the stored phase no longer matches.
type RepositoryPort interface {
	GetElection(ctx context.Context, id uuid.UUID) (Election, error)
	CreateElection(ctx context.Context, e Election) (Election, error)
	TransitionPhase(ctx context.Context, id uuid.UUID, from []Phase, to Phase) error

	GetVoterByMatric(ctx context.Context, matric string) (Voter, error)
	GetVoter(ctx context.Context, id uuid.UUID) (Voter, error)
	RegisterVoter(ctx context.Context, matric string, userID int64) (Voter, error)

	CandidateOnBallot(ctx context.Context, candidateID, positionID uuid.UUID) (bool, error)
	InsertVote(ctx context.Context, v Vote) error
	TallyByPosition(ctx context.Context, electionID uuid.UUID) ([]Tally, error)

	CreateTimelineEntry(ctx context.Context, entry TimelineEntry) (TimelineEntry, error)
	UpdateTimelineEntry(ctx context.Context, id uuid.UUID, label string, startsAt, endsAt time.Time) (TimelineEntry, error)
	ToggleTimelineEntry(ctx context.Context, id uuid.UUID) (bool, error)
	ListTimeline(ctx context.Context) ([]TimelineEntry, error)
}

// AuditPort records privileged actions.
type AuditPort interface {
	Record(ctx context.Context, event audit.Event)
}

// Service orchestrates the voting window, registration, ballots and
// results.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs the voting service.
func NewService(repo RepositoryPort, auditor AuditPort) *Service {
	return &Service{repo: repo, audit: auditor}
}

// CreateElection opens a new draft election.
func (s *Service) CreateElection(ctx context.Context, name string) (Election, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Election{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	return s.repo.CreateElection(ctx, Election{ID: uuid.New(), Name: name, Phase: PhaseDraft})
}

// GetElection returns one election.
func (s *Service) GetElection(ctx context.Context, id uuid.UUID) (Election, error) {
	return s.repo.GetElection(ctx, id)
}

// Start opens the voting window.
func (s *Service) Start(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.TransitionPhase(ctx, id, []Phase{PhaseDraft}, PhaseOpen); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionStartVoting, id, nil)
	return nil
}

// Pause suspends an open window.
func (s *Service) Pause(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.TransitionPhase(ctx, id, []Phase{PhaseOpen}, PhasePaused); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionPauseVoting, id, nil)
	return nil
}

// Resume reopens a paused window.
func (s *Service) Resume(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.TransitionPhase(ctx, id, []Phase{PhasePaused}, PhaseOpen); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionResumeVoting, id, nil)
	return nil
}

// Close ends the voting window.
func (s *Service) Close(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.TransitionPhase(ctx, id, []Phase{PhaseOpen, PhasePaused}, PhaseClosed); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionCloseVoting, id, nil)
	return nil
}

// PublishResults makes the tallies public. Only a closed election can be
// published; PUBLISHED is terminal.
func (s *Service) PublishResults(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.TransitionPhase(ctx, id, []Phase{PhaseClosed}, PhasePublished); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.ActionPublishResults, id, nil)
	return nil
}

// Register binds a roster entry to a signed-in student.
func (s *Service) Register(ctx context.Context, matric string, userID int64) (Voter, error) {
	matric = strings.TrimSpace(matric)
	if matric == "" {
		return Voter{}, fmt.Errorf("%w: matric number required", ErrValidation)
	}
	existing, err := s.repo.GetVoterByMatric(ctx, matric)
	if err != nil {
		return Voter{}, err
	}
	if existing.Registered {
		return Voter{}, ErrAlreadyRegistered
	}
	voter, err := s.repo.RegisterVoter(ctx, matric, userID)
	if err != nil {
		return Voter{}, err
	}
	s.recordAudit(ctx, audit.ActionRegisterVoter, voter.ID, map[string]any{"matric_number": matric})
	return voter, nil
}

// CastVote records one ballot entry. The window must be open, the voter
// registered and claimed by the acting account, and the candidate promoted
// for the position. Duplicate votes per position are rejected by the
// store's unique constraint.
func (s *Service) CastVote(ctx context.Context, electionID uuid.UUID, actingUserID int64, voterID, positionID, candidateID uuid.UUID) (Vote, error) {
	election, err := s.repo.GetElection(ctx, electionID)
	if err != nil {
		return Vote{}, err
	}
	if election.Phase != PhaseOpen {
		return Vote{}, ErrPhase
	}
	voter, err := s.repo.GetVoter(ctx, voterID)
	if err != nil {
		return Vote{}, err
	}
	if !voter.Registered {
		return Vote{}, ErrNotRegistered
	}
	if voter.UserID != actingUserID {
		return Vote{}, ErrVoterMismatch
	}
	onBallot, err := s.repo.CandidateOnBallot(ctx, candidateID, positionID)
	if err != nil {
		return Vote{}, err
	}
	if !onBallot {
		return Vote{}, ErrNotOnBallot
	}
	vote := Vote{
		ID:          uuid.New(),
		ElectionID:  electionID,
		VoterID:     voterID,
		PositionID:  positionID,
		CandidateID: candidateID,
	}
	if err := s.repo.InsertVote(ctx, vote); err != nil {
		return Vote{}, err
	}
	s.recordAudit(ctx, audit.ActionCastVote, vote.ID, map[string]any{"position_id": positionID.String()})
	return vote, nil
}

// Results returns the tallies. Before publication only the committee may
// look; the handler enforces that split.
func (s *Service) Results(ctx context.Context, electionID uuid.UUID) ([]Tally, error) {
	return s.repo.TallyByPosition(ctx, electionID)
}

// PublishedResults returns tallies only for a published election. The phase
// check and the tally are independent reads, so they run concurrently.
func (s *Service) PublishedResults(ctx context.Context, electionID uuid.UUID) ([]Tally, error) {
	var (
		election Election
		tallies  []Tally
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		election, err = s.repo.GetElection(gctx, electionID)
		return err
	})
	g.Go(func() error {
		var err error
		tallies, err = s.repo.TallyByPosition(gctx, electionID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if election.Phase != PhasePublished {
		return nil, ErrPhase
	}
	return tallies, nil
}

// CreateTimelineEntry adds a stage to the election calendar.
func (s *Service) CreateTimelineEntry(ctx context.Context, label string, startsAt, endsAt time.Time) (TimelineEntry, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return TimelineEntry{}, fmt.Errorf("%w: label required", ErrValidation)
	}
	if !endsAt.After(startsAt) {
		return TimelineEntry{}, fmt.Errorf("%w: window must end after it starts", ErrValidation)
	}
	entry, err := s.repo.CreateTimelineEntry(ctx, TimelineEntry{
		ID:       uuid.New(),
		Label:    label,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Active:   true,
	})
	if err != nil {
		return TimelineEntry{}, err
	}
	s.recordAuditEntity(ctx, audit.ActionCreateTimeline, "timeline", entry.ID, map[string]any{"label": label})
	return entry, nil
}

// UpdateTimelineEntry edits a calendar stage.
func (s *Service) UpdateTimelineEntry(ctx context.Context, id uuid.UUID, label string, startsAt, endsAt time.Time) (TimelineEntry, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return TimelineEntry{}, fmt.Errorf("%w: label required", ErrValidation)
	}
	if !endsAt.After(startsAt) {
		return TimelineEntry{}, fmt.Errorf("%w: window must end after it starts", ErrValidation)
	}
	entry, err := s.repo.UpdateTimelineEntry(ctx, id, label, startsAt, endsAt)
	if err != nil {
		return TimelineEntry{}, err
	}
	s.recordAuditEntity(ctx, audit.ActionUpdateTimeline, "timeline", id, map[string]any{"label": label})
	return entry, nil
}

// ToggleTimelineEntry flips the active flag.
func (s *Service) ToggleTimelineEntry(ctx context.Context, id uuid.UUID) (bool, error) {
	active, err := s.repo.ToggleTimelineEntry(ctx, id)
	if err != nil {
		return false, err
	}
	s.recordAuditEntity(ctx, audit.ActionToggleTimeline, "timeline", id, map[string]any{"active": active})
	return active, nil
}

// Timeline lists the calendar.
func (s *Service) Timeline(ctx context.Context) ([]TimelineEntry, error) {
	return s.repo.ListTimeline(ctx)
}

func (s *Service) recordAudit(ctx context.Context, action audit.Action, id uuid.UUID, details map[string]any) {
	s.recordAuditEntity(ctx, action, "election", id, details)
}

func (s *Service) recordAuditEntity(ctx context.Context, action audit.Action, entity string, id uuid.UUID, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, audit.Event{
		Action:     action,
		EntityType: entity,
		EntityID:   id.String(),
		Details:    details,
	})
}
