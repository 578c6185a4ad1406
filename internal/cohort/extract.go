package cohort

import (
	"sort"

	"github.com/roach88/lifegap/internal/lifetable"
)

// Schedule extracts one county's rates for a stratum as life table input,
// ordered by age group. Ax is filled only when every group has a value.
func Schedule(records []Record, cols ColumnMapping, county, race, sex string) (lifetable.Input, error) {
	cols = cols.WithDefaults()

	var rows []indexedRow
	inCohort := 0
	for pos, rec := range records {
		if !matches(rec[cols.Race], race) || !matches(rec[cols.Sex], sex) {
			continue
		}
		inCohort++
		if matches(rec[cols.County], county) {
			rows = append(rows, indexedRow{pos, rec})
		}
	}
	if inCohort == 0 {
		return lifetable.Input{}, &EmptyCohortError{Race: race, Sex: sex}
	}
	if len(rows) == 0 {
		return lifetable.Input{}, &EmptyCohortError{Race: race, Sex: sex, County: county}
	}

	index, err := indexByAge(rows, cols)
	if err != nil {
		return lifetable.Input{}, err
	}
	keys := make([]ageKey, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	in := lifetable.Input{
		AgeLower: make([]float64, len(keys)),
		AgeUpper: make([]*float64, len(keys)),
		Mx:       make([]float64, len(keys)),
	}
	for i, key := range keys {
		in.AgeLower[i] = key.lower
		in.AgeUpper[i] = key.upperPtr()
		if in.Mx[i], err = requireFloat(index[key], cols.Mx); err != nil {
			return lifetable.Input{}, err
		}
	}

	if cols.Ax != "" {
		// Passing the same index twice reuses the all-or-nothing rule of alignAx.
		in.Ax, err = alignAx(keys, index, index, cols.Ax)
		if err != nil {
			return lifetable.Input{}, err
		}
	}
	return in, nil
}
