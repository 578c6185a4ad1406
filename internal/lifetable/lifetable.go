package lifetable

import "math"

// DefaultRadix is the size of the synthetic cohort when Input.Radix is zero.
const DefaultRadix = 100_000.0

// MinRate is the floor applied to mortality rates wherever they are used as a
// divisor (open-interval ax and Lx).
const MinRate = 1e-12

// Input describes one life table to build.
type Input struct {
	// AgeLower holds the inclusive lower bound of each age group.
	AgeLower []float64

	// AgeUpper holds the exclusive upper bound of each age group.
	// A nil entry marks an open-ended interval and is only allowed last.
	AgeUpper []*float64

	// Mx holds the non-negative mortality rate of each age group.
	Mx []float64

	// Ax optionally supplies average years lived by those dying in each
	// group. When nil it is derived from the partition and Mx.
	Ax []float64

	// Radix is the starting cohort size. Zero means DefaultRadix.
	Radix float64
}

// Table is an abridged period life table. All columns are parallel slices
// indexed by age group. A Table is never modified after Build returns it.
type Table struct {
	AgeLower []float64
	AgeUpper []*float64
	N        []*float64
	Mx       []float64
	Ax       []float64
	Qx       []float64
	Px       []float64
	Lx       []float64
	Dx       []float64
	LLx      []float64 // person-years lived in the interval ("Lx")
	Tx       []float64
	Ex       []float64
}

// Upper returns a pointer to v for use as a closed AgeUpper bound.
func Upper(v float64) *float64 {
	return &v
}

// Build validates in and computes its life table.
func Build(in Input) (*Table, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	k := len(in.Mx)
	radix := in.Radix
	if radix == 0 {
		radix = DefaultRadix
	}

	t := &Table{
		AgeLower: append([]float64(nil), in.AgeLower...),
		AgeUpper: copyBounds(in.AgeUpper),
		N:        make([]*float64, k),
		Mx:       append([]float64(nil), in.Mx...),
		Qx:       make([]float64, k),
		Px:       make([]float64, k),
		Lx:       make([]float64, k),
		Dx:       make([]float64, k),
		LLx:      make([]float64, k),
		Tx:       make([]float64, k),
		Ex:       make([]float64, k),
	}

	if in.Ax != nil {
		t.Ax = append([]float64(nil), in.Ax...)
	} else {
		t.Ax = deriveAx(t.AgeLower, t.AgeUpper, t.Mx)
	}

	for i := 0; i < k; i++ {
		if t.AgeUpper[i] != nil {
			t.N[i] = Upper(*t.AgeUpper[i] - t.AgeLower[i])
		}
	}

	for i := 0; i < k; i++ {
		t.Qx[i] = probabilityOfDeath(t.N[i], t.Mx[i], t.Ax[i])
		t.Px[i] = 1 - t.Qx[i]
	}

	t.Lx[0] = radix
	for i := 1; i < k; i++ {
		t.Lx[i] = t.Lx[i-1] * t.Px[i-1]
	}

	for i := 0; i < k; i++ {
		t.Dx[i] = t.Lx[i] * t.Qx[i]
		if t.N[i] == nil {
			t.LLx[i] = t.Lx[i] / math.Max(t.Mx[i], MinRate)
		} else {
			n := *t.N[i]
			t.LLx[i] = n*(t.Lx[i]-t.Dx[i]) + t.Ax[i]*t.Dx[i]
		}
	}

	// Tx depends on every later age group, so accumulate back to front.
	t.Tx[k-1] = t.LLx[k-1]
	for i := k - 2; i >= 0; i-- {
		t.Tx[i] = t.Tx[i+1] + t.LLx[i]
	}

	for i := 0; i < k; i++ {
		if t.Lx[i] > 0 {
			t.Ex[i] = t.Tx[i] / t.Lx[i]
		}
	}

	return t, nil
}

// deriveAx uses the interval midpoint for closed groups and the mean of an
// exponential lifetime (1/mx) for the open group.
func deriveAx(lower []float64, upper []*float64, mx []float64) []float64 {
	ax := make([]float64, len(mx))
	for i := range mx {
		if upper[i] == nil {
			ax[i] = 1 / math.Max(mx[i], MinRate)
			continue
		}
		ax[i] = (*upper[i] - lower[i]) / 2
	}
	return ax
}

// probabilityOfDeath converts a rate to qx. Open intervals always return 1.
func probabilityOfDeath(n *float64, m, a float64) float64 {
	if n == nil {
		return 1
	}
	num := *n * m
	den := 1 + (*n-a)*m
	if den == 0 {
		return 1
	}
	return clamp01(num / den)
}

// clamp01 maps NaN to 1; it arises when an enormous rate overflows both
// sides of the qx ratio.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 || math.IsNaN(v) {
		return 1
	}
	return v
}

func copyBounds(src []*float64) []*float64 {
	out := make([]*float64, len(src))
	for i, v := range src {
		if v != nil {
			out[i] = Upper(*v)
		}
	}
	return out
}

// Len returns the number of age groups.
func (t *Table) Len() int {
	return len(t.Mx)
}

// LifeExpectancy returns ex at the first age of the partition.
func (t *Table) LifeExpectancy() float64 {
	return t.Ex[0]
}

// IsOpen reports whether age group i has no upper bound.
func (t *Table) IsOpen(i int) bool {
	return t.AgeUpper[i] == nil
}
