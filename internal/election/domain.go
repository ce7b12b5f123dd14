package election

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LifecycleState tracks an aspirant from declaration to the ballot.
type LifecycleState string

const (
	StateSubmitted    LifecycleState = "SUBMITTED"
	StateUnderReview  LifecycleState = "UNDER_REVIEW"
	StateScreened     LifecycleState = "SCREENED"
	StatePromoted     LifecycleState = "PROMOTED"
	StateDisqualified LifecycleState = "DISQUALIFIED"
)

// Terminal reports whether no further transitions are permitted.
func (s LifecycleState) Terminal() bool {
	return s == StatePromoted || s == StateDisqualified
}

// Department is one of the fixed COHSSA departments.
type Department string

const (
	DeptAccounting        Department = "Accounting"
	DeptBusinessAdmin     Department = "Business Administration"
	DeptEconomics         Department = "Economics"
	DeptHistory           Department = "History & International Studies"
	DeptMassComm          Department = "Mass Communication"
	DeptPoliticalScience  Department = "Political Science"
	DeptPsychology        Department = "Psychology"
	DeptSociology         Department = "Sociology"
)

var departmentCodes = map[Department]string{
	DeptAccounting:       "ACC",
	DeptBusinessAdmin:    "BUS",
	DeptEconomics:        "ECO",
	DeptHistory:          "HIS",
	DeptMassComm:         "MCM",
	DeptPoliticalScience: "POL",
	DeptPsychology:       "PSY",
	DeptSociology:        "SOC",
}

// Valid reports whether the department belongs to the closed list.
func (d Department) Valid() bool {
	_, ok := departmentCodes[d]
	return ok
}

// Code returns the short department code.
func (d Department) Code() string {
	return departmentCodes[d]
}

// Declared CGPA bounds. Values outside are rejected at the boundary.
const (
	CGPAMin = 2.00
	CGPAMax = 5.00
)

// ScreeningOutcome closes the screening step.
type ScreeningOutcome string

const (
	ScreeningPassed ScreeningOutcome = "PASSED"
	ScreeningFailed ScreeningOutcome = "FAILED"
)

// Aspirant is a declared candidacy. Public stays false until promotion.
type Aspirant struct {
	ID               uuid.UUID
	UserID           int64
	FullName         string
	MatricNumber     string
	Department       Department
	PositionID       uuid.UUID
	CGPA             float64
	State            LifecycleState
	Public           bool
	PaymentVerified  bool
	ScreeningSlot    *time.Time
	ScreeningOutcome ScreeningOutcome
	DisqualifyReason string
	Manifesto        string
	PhotoURL         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

var (
	// ErrNotFound indicates the aspirant does not exist.
	ErrNotFound = errors.New("election: aspirant not found")
	// ErrInvalidState occurs when a transition leaves a terminal or
	// otherwise incompatible state.
	ErrInvalidState = errors.New("election: invalid state transition")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("election: invalid input")
	// ErrIneligible matches any IneligibleError.
	ErrIneligible = errors.New("election: cgpa below minimum requirement")
)

// IneligibleError reports the specific CGPA shortfall to the acting
// administrator.
type IneligibleError struct {
	Declared float64
	Minimum  float64
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("election: CGPA below minimum requirement (declared %.2f, minimum %.2f)", e.Declared, e.Minimum)
}

// Unwrap lets errors.Is(err, ErrIneligible) match.
func (e *IneligibleError) Unwrap() error { return ErrIneligible }
