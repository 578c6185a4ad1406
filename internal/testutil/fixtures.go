package testutil

import (
	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/lifetable"
)

// Schedule is a mortality schedule over an age partition, shared by tests
// across packages.
type Schedule struct {
	AgeLower []float64
	AgeUpper []*float64
	Mx       []float64
}

// Input returns a lifetable.Input for the schedule with derived ax.
func (s Schedule) Input() lifetable.Input {
	return lifetable.Input{AgeLower: s.AgeLower, AgeUpper: s.AgeUpper, Mx: s.Mx}
}

// WithMx returns a copy of the schedule using rates mx on the same partition.
func (s Schedule) WithMx(mx ...float64) Schedule {
	return Schedule{AgeLower: s.AgeLower, AgeUpper: s.AgeUpper, Mx: mx}
}

// ThreeGroup is the [0,1), [1,5), [5,+) partition with county A rates.
func ThreeGroup() Schedule {
	return Schedule{
		AgeLower: []float64{0, 1, 5},
		AgeUpper: []*float64{lifetable.Upper(1), lifetable.Upper(5), nil},
		Mx:       []float64{0.005, 0.0008, 0.02},
	}
}

// ThreeGroupComparison holds county B rates for ThreeGroup.
func ThreeGroupComparison() Schedule {
	return ThreeGroup().WithMx(0.006, 0.001, 0.018)
}

// Abridged returns a standard abridged partition 0, 1-4, 5-9, ..., 85+ with a
// Gompertz-like schedule: infant mortality, a childhood trough, then
// exponential growth with age. Scale multiplies every rate.
func Abridged(scale float64) Schedule {
	lower := []float64{0, 1}
	for a := 5.0; a <= 85; a += 5 {
		lower = append(lower, a)
	}
	upper := make([]*float64, len(lower))
	for i := 0; i < len(lower)-1; i++ {
		upper[i] = lifetable.Upper(lower[i+1])
	}

	mx := make([]float64, len(lower))
	mx[0] = 0.0060
	mx[1] = 0.00025
	rate := 0.00012
	for i := 2; i < len(lower); i++ {
		if lower[i] >= 15 {
			rate *= 1.55
		}
		mx[i] = rate
	}
	for i := range mx {
		mx[i] *= scale
	}
	return Schedule{AgeLower: lower, AgeUpper: upper, Mx: mx}
}

// CountyRecords returns generic records for two counties and two cohorts in
// the shape produced by the loader package.
func CountyRecords() []cohort.Record {
	a := ThreeGroup()
	b := ThreeGroupComparison()
	var out []cohort.Record
	add := func(county, race, sex string, s Schedule) {
		for i := range s.Mx {
			var upper any
			if s.AgeUpper[i] != nil {
				upper = *s.AgeUpper[i]
			}
			out = append(out, cohort.Record{
				"county":    county,
				"race":      race,
				"sex":       sex,
				"age_lower": s.AgeLower[i],
				"age_upper": upper,
				"mx":        s.Mx[i],
			})
		}
	}
	add("A", "White", "Female", a)
	add("B", "White", "Female", b)
	add("A", "Black", "Male", a.WithMx(0.009, 0.0011, 0.025))
	add("B", "Black", "Male", b.WithMx(0.008, 0.0010, 0.022))
	return out
}
