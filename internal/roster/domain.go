package roster

import "errors"

// Entry is one row of the eligible voter roster.
type Entry struct {
	MatricNumber string `json:"matric_number"`
	FullName     string `json:"full_name"`
	Department   string `json:"department"`
}

// RowError ties a validation failure to its CSV line number.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Report summarises one parsed upload.
type Report struct {
	Accepted  int        `json:"accepted"`
	Rejected  int        `json:"rejected"`
	RowErrors []RowError `json:"row_errors,omitempty"`
}

var (
	// ErrEmptyFile indicates an upload with no data rows.
	ErrEmptyFile = errors.New("roster: file has no data rows")
	// ErrBadHeader indicates a header row missing required columns.
	ErrBadHeader = errors.New("roster: header must contain matric_number and full_name")
)
