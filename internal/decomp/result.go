package decomp

// Result holds one additive contribution per age group. The partition is the
// one the decomposition was computed on.
type Result struct {
	AgeLower     []float64
	AgeUpper     []*float64
	Contribution []float64
}

// Len returns the number of age groups.
func (r *Result) Len() int {
	return len(r.Contribution)
}

// Total returns the sum of contributions, the decomposed e0 gap.
func (r *Result) Total() float64 {
	total := 0.0
	for _, c := range r.Contribution {
		total += c
	}
	return total
}

// Rows converts the result into one plain mapping per age group with keys
// age_lower, age_upper (nil when open) and contribution.
func (r *Result) Rows() []map[string]any {
	rows := make([]map[string]any, r.Len())
	for i := range rows {
		var upper any
		if r.AgeUpper[i] != nil {
			upper = *r.AgeUpper[i]
		}
		rows[i] = map[string]any{
			"age_lower":    r.AgeLower[i],
			"age_upper":    upper,
			"contribution": r.Contribution[i],
		}
	}
	return rows
}
