package cohort

import (
	"fmt"
	"sort"

	"github.com/roach88/lifegap/internal/decomp"
)

// Request selects the two counties and the stratum to compare.
type Request struct {
	CountyA string `json:"county_a" yaml:"county_a"`
	CountyB string `json:"county_b" yaml:"county_b"`
	Race    string `json:"race" yaml:"race"`
	Sex     string `json:"sex" yaml:"sex"`

	// Steps is the number of integration segments; 0 means decomp.DefaultSteps.
	Steps int `json:"steps,omitempty" yaml:"steps,omitempty"`

	// Workers bounds the goroutines used per decomposition step.
	Workers int `json:"-" yaml:"-"`
}

// Aligned holds the rate vectors of both counties over their shared,
// age-sorted groups.
type Aligned struct {
	AgeLower     []float64
	AgeUpper     []*float64
	BaselineMx   []float64 // county A
	ComparisonMx []float64 // county B
	Ax           []float64 // nil unless every group had a value
}

// ageKey identifies an age group. Open groups sort after closed ones with
// the same lower bound.
type ageKey struct {
	lower float64
	upper float64
	open  bool
}

func (k ageKey) less(o ageKey) bool {
	if k.lower != o.lower {
		return k.lower < o.lower
	}
	if k.open != o.open {
		return o.open
	}
	return k.upper < o.upper
}

func (k ageKey) upperPtr() *float64 {
	if k.open {
		return nil
	}
	u := k.upper
	return &u
}

type indexedRow struct {
	pos int
	rec Record
}

// Align filters records to the request's stratum and counties and returns the
// rate vectors over the age groups both counties share.
func Align(records []Record, cols ColumnMapping, req Request) (*Aligned, error) {
	cols = cols.WithDefaults()

	var rowsA, rowsB []indexedRow
	inCohort := 0
	for pos, rec := range records {
		if !matches(rec[cols.Race], req.Race) || !matches(rec[cols.Sex], req.Sex) {
			continue
		}
		inCohort++
		if matches(rec[cols.County], req.CountyA) {
			rowsA = append(rowsA, indexedRow{pos, rec})
		}
		if matches(rec[cols.County], req.CountyB) {
			rowsB = append(rowsB, indexedRow{pos, rec})
		}
	}
	if inCohort == 0 {
		return nil, &EmptyCohortError{Race: req.Race, Sex: req.Sex}
	}
	if len(rowsA) == 0 {
		return nil, &EmptyCohortError{Race: req.Race, Sex: req.Sex, County: req.CountyA}
	}
	if len(rowsB) == 0 {
		return nil, &EmptyCohortError{Race: req.Race, Sex: req.Sex, County: req.CountyB}
	}

	indexA, err := indexByAge(rowsA, cols)
	if err != nil {
		return nil, err
	}
	indexB, err := indexByAge(rowsB, cols)
	if err != nil {
		return nil, err
	}

	var common []ageKey
	for key := range indexA {
		if _, ok := indexB[key]; ok {
			common = append(common, key)
		}
	}
	if len(common) == 0 {
		return nil, &NoOverlapError{CountyA: req.CountyA, CountyB: req.CountyB}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].less(common[j]) })

	out := &Aligned{
		AgeLower:     make([]float64, len(common)),
		AgeUpper:     make([]*float64, len(common)),
		BaselineMx:   make([]float64, len(common)),
		ComparisonMx: make([]float64, len(common)),
	}
	for i, key := range common {
		out.AgeLower[i] = key.lower
		out.AgeUpper[i] = key.upperPtr()
		if out.BaselineMx[i], err = requireFloat(indexA[key], cols.Mx); err != nil {
			return nil, err
		}
		if out.ComparisonMx[i], err = requireFloat(indexB[key], cols.Mx); err != nil {
			return nil, err
		}
	}

	if cols.Ax != "" {
		out.Ax, err = alignAx(common, indexA, indexB, cols.Ax)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// indexByAge keys rows by age group. A repeated key keeps the later row.
func indexByAge(rows []indexedRow, cols ColumnMapping) (map[ageKey]indexedRow, error) {
	index := make(map[ageKey]indexedRow, len(rows))
	for _, row := range rows {
		lower, ok := parseFloat(row.rec[cols.AgeLower])
		if !ok {
			return nil, &FieldError{Column: cols.AgeLower, Row: row.pos, Value: row.rec[cols.AgeLower], Reason: "age_lower is not a number"}
		}
		upper, ok := parseUpper(row.rec[cols.AgeUpper])
		if !ok {
			return nil, &FieldError{Column: cols.AgeUpper, Row: row.pos, Value: row.rec[cols.AgeUpper], Reason: "age_upper is not a number or open marker"}
		}
		key := ageKey{lower: lower}
		if upper == nil {
			key.open = true
		} else {
			key.upper = *upper
		}
		index[key] = row
	}
	return index, nil
}

func requireFloat(row indexedRow, col string) (float64, error) {
	v, present, ok := optionalFloat(row.rec, col)
	if !present {
		return 0, &FieldError{Column: col, Row: row.pos, Value: row.rec[col], Reason: "value is missing"}
	}
	if !ok {
		return 0, &FieldError{Column: col, Row: row.pos, Value: row.rec[col], Reason: "value is not a number"}
	}
	return v, nil
}

// alignAx prefers county A's ax and falls back to county B's. A single group
// without either disables ax entirely.
func alignAx(keys []ageKey, indexA, indexB map[ageKey]indexedRow, col string) ([]float64, error) {
	ax := make([]float64, len(keys))
	for i, key := range keys {
		found := false
		for _, row := range []indexedRow{indexA[key], indexB[key]} {
			v, present, ok := optionalFloat(row.rec, col)
			if !present {
				continue
			}
			if !ok {
				return nil, &FieldError{Column: col, Row: row.pos, Value: row.rec[col], Reason: "ax is not a number"}
			}
			ax[i] = v
			found = true
			break
		}
		if !found {
			return nil, nil
		}
	}
	return ax, nil
}

// Decompose runs the Horiuchi decomposition of county B against county A.
func (a *Aligned) Decompose(steps, workers int) (*decomp.Result, error) {
	opts := []decomp.Option{decomp.WithWorkers(workers)}
	if steps != 0 {
		opts = append(opts, decomp.WithSteps(steps))
	}
	if a.Ax != nil {
		opts = append(opts, decomp.WithAx(a.Ax))
	}
	return decomp.Horiuchi(a.BaselineMx, a.ComparisonMx, a.AgeLower, a.AgeUpper, opts...)
}

// DecomposeBetweenCounties aligns records for req and decomposes the gap.
// Every returned row carries the request labels and the total difference.
func DecomposeBetweenCounties(records []Record, cols ColumnMapping, req Request) ([]Row, error) {
	aligned, err := Align(records, cols, req)
	if err != nil {
		return nil, err
	}
	res, err := aligned.Decompose(req.Steps, req.Workers)
	if err != nil {
		return nil, fmt.Errorf("decompose %s vs %s: %w", req.CountyA, req.CountyB, err)
	}
	return Annotate(res, req), nil
}
