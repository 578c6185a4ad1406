package decomp

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/lifegap/internal/lifetable"
)

// Horiuchi decomposes e0(comparison) - e0(baseline) into one additive
// contribution per age group. Both rate vectors share the partition given by
// ageLower and ageUpper.
//
// Partial derivatives use a central difference of width 2h. Where an
// interpolated rate is below h the lower point would be negative, so that
// component falls back to a forward difference, which is first-order
// accurate instead of second-order.
//
// All inputs are validated before any evaluation: mismatched lengths, steps
// below 1, a non-positive step size, or an invalid life table for either
// endpoint return a *lifetable.ValidationError and no result.
func Horiuchi(baseline, comparison, ageLower []float64, ageUpper []*float64, opts ...Option) (*Result, error) {
	o := buildOptions(opts)

	if len(baseline) != len(comparison) {
		return nil, lifetable.NewValidationError(lifetable.ErrCodeLength, "comparison_mx",
			fmt.Sprintf("baseline_mx and comparison_mx must have the same length (got %d, %d)", len(baseline), len(comparison)))
	}
	if o.steps < 1 {
		return nil, lifetable.NewValidationError(lifetable.ErrCodeSteps, "steps",
			fmt.Sprintf("steps must be at least 1 (got %d)", o.steps))
	}
	if !(o.h > 0) || math.IsInf(o.h, 0) {
		return nil, lifetable.NewValidationError(lifetable.ErrCodeSteps, "step_size",
			fmt.Sprintf("finite-difference step must be positive (got %g)", o.h))
	}

	e := evaluator{ageLower: ageLower, ageUpper: ageUpper, ax: o.ax, radix: o.radix}
	for _, mx := range [][]float64{baseline, comparison} {
		if err := lifetable.Validate(e.input(mx)); err != nil {
			return nil, err
		}
	}

	k := len(baseline)
	delta := make([]float64, k)
	for i := range delta {
		delta[i] = comparison[i] - baseline[i]
	}

	contributions := make([]float64, k)
	mxStep := make([]float64, k)
	grad := make([]float64, k)
	steps := float64(o.steps)

	for j := 0; j < o.steps; j++ {
		w := (float64(j) + 0.5) / steps
		for i := range mxStep {
			mxStep[i] = baseline[i] + w*delta[i]
		}
		if err := e.gradient(mxStep, o.h, o.workers, grad); err != nil {
			return nil, fmt.Errorf("decomposition step %d: %w", j, err)
		}
		for i := range contributions {
			contributions[i] += grad[i] * delta[i] / steps
		}
	}

	return &Result{
		AgeLower:     append([]float64(nil), ageLower...),
		AgeUpper:     copyBounds(ageUpper),
		Contribution: contributions,
	}, nil
}

// LifeExpectancy returns e0 of the life table built from mx on the given
// partition.
func LifeExpectancy(mx, ageLower []float64, ageUpper []*float64, ax []float64) (float64, error) {
	e := evaluator{ageLower: ageLower, ageUpper: ageUpper, ax: ax}
	return e.e0(mx)
}

// evaluator is f(rates) = e0 on a fixed partition.
type evaluator struct {
	ageLower []float64
	ageUpper []*float64
	ax       []float64
	radix    float64
}

func (e evaluator) input(mx []float64) lifetable.Input {
	return lifetable.Input{AgeLower: e.ageLower, AgeUpper: e.ageUpper, Mx: mx, Ax: e.ax, Radix: e.radix}
}

func (e evaluator) e0(mx []float64) (float64, error) {
	t, err := lifetable.Build(e.input(mx))
	if err != nil {
		return 0, err
	}
	return t.LifeExpectancy(), nil
}

// partial estimates d e0 / d mx[i] at mx. mx is used as scratch space and
// restored before returning.
//
// The difference is central unless mx[i] < h, where the lower point would be
// a negative rate; there it falls back to a forward difference.
func (e evaluator) partial(mx []float64, i int, h float64) (float64, error) {
	orig := mx[i]
	defer func() { mx[i] = orig }()

	mx[i] = orig + h
	upper, err := e.e0(mx)
	if err != nil {
		return 0, err
	}

	if orig < h {
		mx[i] = orig
		base, err := e.e0(mx)
		if err != nil {
			return 0, err
		}
		return (upper - base) / h, nil
	}

	mx[i] = orig - h
	lower, err := e.e0(mx)
	if err != nil {
		return 0, err
	}
	return (upper - lower) / (2 * h), nil
}

// gradient fills out with the partial derivative of e0 for every component of
// mx. With workers > 1 components are evaluated concurrently, each on its own
// copy of mx.
func (e evaluator) gradient(mx []float64, h float64, workers int, out []float64) error {
	if workers < 2 {
		scratch := append([]float64(nil), mx...)
		for i := range out {
			g, err := e.partial(scratch, i, h)
			if err != nil {
				return err
			}
			out[i] = g
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range out {
		i := i
		g.Go(func() error {
			scratch := append([]float64(nil), mx...)
			v, err := e.partial(scratch, i, h)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	return g.Wait()
}

func copyBounds(src []*float64) []*float64 {
	out := make([]*float64, len(src))
	for i, v := range src {
		if v != nil {
			out[i] = lifetable.Upper(*v)
		}
	}
	return out
}
