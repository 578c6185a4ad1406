package lifetable

import (
	"errors"
	"fmt"
)

// Validation error codes (E200-E209).
const (
	ErrCodeLength       = "E201" // vector lengths disagree
	ErrCodeTooFewGroups = "E202" // fewer than two age groups
	ErrCodeOpenInterval = "E203" // open upper bound before the final group
	ErrCodeBounds       = "E204" // upper <= lower, or lower not increasing
	ErrCodeNegativeRate = "E205" // mx < 0
	ErrCodeNonFinite    = "E206" // NaN or Inf in an input column
	ErrCodeRadix        = "E207" // radix <= 0
	ErrCodeSteps        = "E208" // decomposition steps < 1
)

// ValidationError reports malformed life table input.
// Index is the offending row, or -1 when the problem is not row specific.
type ValidationError struct {
	Field   string `json:"field"`
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("[%s] %s[%d]: %s", e.Code, e.Field, e.Index, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// NewValidationError creates a ValidationError that is not tied to a row.
func NewValidationError(code, field, message string) *ValidationError {
	return &ValidationError{Field: field, Index: -1, Code: code, Message: message}
}

func rowError(code, field string, index int, message string) *ValidationError {
	return &ValidationError{Field: field, Index: index, Code: code, Message: message}
}

// IsValidationError returns true if err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
