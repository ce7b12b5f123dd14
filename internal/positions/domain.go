package positions

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Position is an elective office with its minimum CGPA requirement.
// MinCGPA <= 0 means no requirement is configured for the office.
type Position struct {
	ID        uuid.UUID
	Name      string
	MinCGPA   float64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	// ErrNotFound indicates the position does not exist.
	ErrNotFound = errors.New("positions: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("positions: invalid input")
)
