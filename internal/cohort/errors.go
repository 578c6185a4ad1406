package cohort

import (
	"errors"
	"fmt"
)

// Error codes (E210-E219).
const (
	ErrCodeEmptyCohort = "E211" // no rows for the stratum or one county
	ErrCodeNoOverlap   = "E212" // counties share no age group
	ErrCodeField       = "E213" // missing or unparseable column value
)

// EmptyCohortError is returned when no record matches the requested stratum,
// or when one of the two counties has no record within it.
type EmptyCohortError struct {
	Race   string
	Sex    string
	County string // empty when the whole stratum is empty
}

// Error implements the error interface.
func (e *EmptyCohortError) Error() string {
	if e.County != "" {
		return fmt.Sprintf("%s: county %q has no rows for race=%q sex=%q", ErrCodeEmptyCohort, e.County, e.Race, e.Sex)
	}
	return fmt.Sprintf("%s: no rows found for race=%q sex=%q", ErrCodeEmptyCohort, e.Race, e.Sex)
}

// NoOverlapError is returned when the two counties share no identical age
// group boundaries.
type NoOverlapError struct {
	CountyA string
	CountyB string
}

// Error implements the error interface.
func (e *NoOverlapError) Error() string {
	return fmt.Sprintf("%s: counties %q and %q share no age groups", ErrCodeNoOverlap, e.CountyA, e.CountyB)
}

// FieldError reports a record value that cannot be used.
type FieldError struct {
	Column string
	Row    int // index into the record slice
	Value  any
	Reason string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: row %d column %q: %s (value %v)", ErrCodeField, e.Row, e.Column, e.Reason, e.Value)
}

// IsEmptyCohort returns true if err is, or wraps, an *EmptyCohortError.
func IsEmptyCohort(err error) bool {
	var ec *EmptyCohortError
	return errors.As(err, &ec)
}

// IsNoOverlap returns true if err is, or wraps, a *NoOverlapError.
func IsNoOverlap(err error) bool {
	var no *NoOverlapError
	return errors.As(err, &no)
}
