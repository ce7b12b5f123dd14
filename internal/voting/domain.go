package voting

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Phase tracks the election through its voting window.
type Phase string

const (
	PhaseDraft     Phase = "DRAFT"
	PhaseOpen      Phase = "OPEN"
	PhasePaused    Phase = "PAUSED"
	PhaseClosed    Phase = "CLOSED"
	PhasePublished Phase = "PUBLISHED"
)

// Election is one voting exercise.
type Election struct {
	ID        uuid.UUID
	Name      string
	Phase     Phase
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Voter is a student on the imported roster. Registered flips when the
// student claims their ballot access.
type Voter struct {
	ID           uuid.UUID
	MatricNumber string
	FullName     string
	Department   string
	Registered   bool
	UserID       int64
	CreatedAt    time.Time
}

// Vote is one ballot entry. The store enforces one vote per voter per
// position.
type Vote struct {
	ID          uuid.UUID
	ElectionID  uuid.UUID
	VoterID     uuid.UUID
	PositionID  uuid.UUID
	CandidateID uuid.UUID
	CastAt      time.Time
}

// TimelineEntry is one scheduled stage of the election calendar.
type TimelineEntry struct {
	ID        uuid.UUID
	Label     string
	StartsAt  time.Time
	EndsAt    time.Time
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tally is the vote count for one candidate in one position.
type Tally struct {
	PositionID    uuid.UUID
	PositionName  string
	CandidateID   uuid.UUID
	CandidateName string
	Votes         int64
}

var (
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("voting: not found")
	// ErrPhase occurs when an action violates the phase machine.
	ErrPhase = errors.New("voting: action not allowed in current phase")
	// ErrAlreadyVoted indicates a second ballot for the same position.
	ErrAlreadyVoted = errors.New("voting: already voted for this position")
	// ErrNotOnRoster indicates a matric number absent from the roster.
	ErrNotOnRoster = errors.New("voting: matric number not on roster")
	// ErrAlreadyRegistered indicates a duplicate registration.
	ErrAlreadyRegistered = errors.New("voting: voter already registered")
	// ErrVoterMismatch indicates a ballot for a voter record claimed by a
	// different account.
	ErrVoterMismatch = errors.New("voting: voter belongs to another account")
	// ErrNotRegistered indicates a vote attempt before registration.
	ErrNotRegistered = errors.New("voting: voter not registered")
	// ErrNotOnBallot indicates the candidate is not promoted for the position.
	ErrNotOnBallot = errors.New("voting: candidate not on ballot for position")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("voting: invalid input")
)
