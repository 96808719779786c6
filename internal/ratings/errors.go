package ratings

import (
	"errors"
	"fmt"
)

// The three hard error classes of the solve pipeline. Every error
// returned out of a solve wraps exactly one of these sentinels, so
// batch callers can route on errors.Is without string matching.
var (
	// ErrConfiguration covers invalid or contradictory configuration:
	// negative lambda, non-positive halflife, an all-zero weight
	// vector. Raised before any matrix construction happens.
	ErrConfiguration = errors.New("configuration error")

	// ErrData covers malformed game records: missing final score,
	// unknown team reference, duplicate game IDs when the caller asked
	// for strict handling. Missing talent composites are NOT a
	// DataError; they degrade to a zero prior.
	ErrData = errors.New("data error")

	// ErrSolver covers numerical failure: NaN/Inf in the solution or a
	// factorization that cannot be rescued by lambda escalation. Hard
	// abort, no partial result.
	ErrSolver = errors.New("solver error")
)

// ConfigurationError marks a solve rejected before matrix construction.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError builds a ConfigurationError for a named field.
func NewConfigurationError(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// DataError marks a malformed input record. GameID is empty when the
// defect is not attributable to a single game.
type DataError struct {
	GameID string
	Reason string
}

func (e *DataError) Error() string {
	if e.GameID == "" {
		return fmt.Sprintf("data error: %s", e.Reason)
	}
	return fmt.Sprintf("data error: game %s: %s", e.GameID, e.Reason)
}

func (e *DataError) Unwrap() error { return ErrData }

// SolverError marks a numerical failure in the ridge solve.
type SolverError struct {
	Stage  string
	Reason string
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("solver error: %s: %s", e.Stage, e.Reason)
}

func (e *SolverError) Unwrap() error { return ErrSolver }
