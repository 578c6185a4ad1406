package lifetable

import (
	"fmt"
	"math"
)

// Validate checks in without building the table.
// The first violation found is returned as a *ValidationError.
func Validate(in Input) error {
	k := len(in.AgeLower)
	if len(in.AgeUpper) != k || len(in.Mx) != k {
		return NewValidationError(ErrCodeLength, "mx",
			fmt.Sprintf("age_lower, age_upper and mx must have the same length (got %d, %d, %d)",
				k, len(in.AgeUpper), len(in.Mx)))
	}
	if k < 2 {
		return NewValidationError(ErrCodeTooFewGroups, "age_lower",
			fmt.Sprintf("life tables require at least two age groups (got %d)", k))
	}
	if in.Ax != nil && len(in.Ax) != k {
		return NewValidationError(ErrCodeLength, "ax",
			fmt.Sprintf("ax must have the same length as the age vectors (got %d, want %d)", len(in.Ax), k))
	}

	for i := 0; i < k-1; i++ {
		if in.AgeUpper[i] == nil {
			return rowError(ErrCodeOpenInterval, "age_upper", i, "only the final age group may be open-ended")
		}
	}

	for i := 0; i < k; i++ {
		lo := in.AgeLower[i]
		if !finite(lo) {
			return rowError(ErrCodeNonFinite, "age_lower", i, "must be finite")
		}
		if i > 0 && lo <= in.AgeLower[i-1] {
			return rowError(ErrCodeBounds, "age_lower", i, "must be strictly increasing")
		}
		if hi := in.AgeUpper[i]; hi != nil {
			if !finite(*hi) {
				return rowError(ErrCodeNonFinite, "age_upper", i, "must be finite or open")
			}
			if *hi <= lo {
				return rowError(ErrCodeBounds, "age_upper", i,
					fmt.Sprintf("age_upper %g must exceed age_lower %g", *hi, lo))
			}
		}
	}

	for i, m := range in.Mx {
		if !finite(m) {
			return rowError(ErrCodeNonFinite, "mx", i, "must be finite")
		}
		if m < 0 {
			return rowError(ErrCodeNegativeRate, "mx", i,
				fmt.Sprintf("mortality rates must be non-negative (got %g)", m))
		}
	}
	for i, a := range in.Ax {
		if !finite(a) {
			return rowError(ErrCodeNonFinite, "ax", i, "must be finite")
		}
	}

	if in.Radix < 0 || !finite(in.Radix) {
		return NewValidationError(ErrCodeRadix, "radix", fmt.Sprintf("radix must be positive (got %g)", in.Radix))
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
