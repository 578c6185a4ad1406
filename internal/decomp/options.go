package decomp

// Defaults for Horiuchi.
const (
	DefaultSteps    = 50
	DefaultStepSize = 1e-5
)

type options struct {
	ax      []float64
	steps   int
	h       float64
	radix   float64
	workers int
}

// Option configures a decomposition.
type Option func(*options)

// WithAx fixes ax for every evaluated rate vector. It is never perturbed or
// interpolated.
func WithAx(ax []float64) Option {
	return func(o *options) { o.ax = ax }
}

// WithSteps sets the number of integration segments. Must be at least 1.
func WithSteps(steps int) Option {
	return func(o *options) { o.steps = steps }
}

// WithStepSize sets the finite-difference perturbation h.
func WithStepSize(h float64) Option {
	return func(o *options) { o.h = h }
}

// WithRadix sets the life table radix. e0 does not depend on it, but very
// small radices change rounding.
func WithRadix(radix float64) Option {
	return func(o *options) { o.radix = radix }
}

// WithWorkers bounds the goroutines used for one step's gradient.
// Values below 2 keep the computation on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func buildOptions(opts []Option) options {
	o := options{steps: DefaultSteps, h: DefaultStepSize, workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
