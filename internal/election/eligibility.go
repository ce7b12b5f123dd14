package election

import "fmt"

// Verdict is the three-valued result of an eligibility check. A position
// without a configured minimum yields NotApplicable, never Met: the UI must
// not claim a requirement is satisfied when none was specified.
type Verdict int

const (
	// VerdictNotApplicable means no minimum requirement is configured.
	VerdictNotApplicable Verdict = iota
	// VerdictMet means the declared standing satisfies the minimum.
	VerdictMet
	// VerdictNotMet means the declared standing falls short.
	VerdictNotMet
)

// String returns a readable verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictMet:
		return "met"
	case VerdictNotMet:
		return "not_met"
	default:
		return "not_applicable"
	}
}

// MeetsRequirement compares a declared CGPA against a position minimum.
// minimum <= 0 means "no requirement configured".
func MeetsRequirement(declared, minimum float64) Verdict {
	if minimum <= 0 {
		return VerdictNotApplicable
	}
	if declared >= minimum {
		return VerdictMet
	}
	return VerdictNotMet
}

// ValidateCGPA rejects declared standings outside [2.00, 5.00]. Values are
// rejected, not clamped.
func ValidateCGPA(declared float64) error {
	if declared < CGPAMin || declared > CGPAMax {
		return fmt.Errorf("%w: cgpa %.2f outside [%.2f, %.2f]", ErrValidation, declared, CGPAMin, CGPAMax)
	}
	return nil
}
