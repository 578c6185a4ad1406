package store

import (
	"fmt"

	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/decomp"
	"github.com/roach88/lifegap/internal/ir"
)

// Run is one stored county-pair decomposition.
type Run struct {
	Seq             int64   `json:"seq"`
	ID              string  `json:"id"`
	UUID            string  `json:"uuid"`
	CountyA         string  `json:"county_a"`
	CountyB         string  `json:"county_b"`
	Race            string  `json:"race"`
	Sex             string  `json:"sex"`
	Steps           int     `json:"steps"`
	AxSupplied      bool    `json:"ax_supplied"`
	BaselineE0      float64 `json:"baseline_e0"`
	ComparisonE0    float64 `json:"comparison_e0"`
	TotalDifference float64 `json:"total_difference"`
	Groups          []Group `json:"groups,omitempty"`
}

// Group is one age group of a stored run.
type Group struct {
	AgeLower     float64  `json:"age_lower"`
	AgeUpper     *float64 `json:"age_upper"`
	BaselineMx   float64  `json:"baseline_mx"`
	ComparisonMx float64  `json:"comparison_mx"`
	Ax           *float64 `json:"ax"`
	Contribution float64  `json:"contribution"`
}

// NewRun assembles a storable run from an aligned request and its result.
// The ID is content addressed, so it is stable across processes.
func NewRun(req cohort.Request, aligned *cohort.Aligned, res *decomp.Result) (Run, error) {
	steps := req.Steps
	if steps == 0 {
		steps = decomp.DefaultSteps
	}

	id, err := ir.RunID(ir.RunInput{
		CountyA:      req.CountyA,
		CountyB:      req.CountyB,
		Race:         req.Race,
		Sex:          req.Sex,
		Steps:        steps,
		AgeLower:     aligned.AgeLower,
		AgeUpper:     aligned.AgeUpper,
		BaselineMx:   aligned.BaselineMx,
		ComparisonMx: aligned.ComparisonMx,
		Ax:           aligned.Ax,
	})
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}

	e0a, err := decomp.LifeExpectancy(aligned.BaselineMx, aligned.AgeLower, aligned.AgeUpper, aligned.Ax)
	if err != nil {
		return Run{}, fmt.Errorf("new run: baseline: %w", err)
	}
	e0b, err := decomp.LifeExpectancy(aligned.ComparisonMx, aligned.AgeLower, aligned.AgeUpper, aligned.Ax)
	if err != nil {
		return Run{}, fmt.Errorf("new run: comparison: %w", err)
	}

	run := Run{
		ID:              id,
		UUID:            ir.RunUUID(id).String(),
		CountyA:         req.CountyA,
		CountyB:         req.CountyB,
		Race:            req.Race,
		Sex:             req.Sex,
		Steps:           steps,
		AxSupplied:      aligned.Ax != nil,
		BaselineE0:      e0a,
		ComparisonE0:    e0b,
		TotalDifference: res.Total(),
		Groups:          make([]Group, res.Len()),
	}
	for i := range run.Groups {
		g := Group{
			AgeLower:     aligned.AgeLower[i],
			AgeUpper:     aligned.AgeUpper[i],
			BaselineMx:   aligned.BaselineMx[i],
			ComparisonMx: aligned.ComparisonMx[i],
			Contribution: res.Contribution[i],
		}
		if aligned.Ax != nil {
			ax := aligned.Ax[i]
			g.Ax = &ax
		}
		run.Groups[i] = g
	}
	return run, nil
}

// Residual is the integration error: the direct e0 gap minus the summed
// contributions.
func (r Run) Residual() float64 {
	return (r.ComparisonE0 - r.BaselineE0) - r.TotalDifference
}
