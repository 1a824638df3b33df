package cluster

// TieBreak decides which centroid wins when a point is equidistant to several.
type TieBreak int

const (
	// TieFirst assigns ties to the centroid with the lowest index.
	TieFirst TieBreak = iota
	// TieLast assigns ties to the centroid with the highest index.
	TieLast
)

// DefaultScaleFactor is applied to the mean member density of a centroid.
const DefaultScaleFactor = 4e-4

// Iteration bounds used unless overridden.
const (
	DefaultMaxIterations = 100
	DefaultEpsilon       = 1e-9
)

// Options configures a clustering run.
type Options struct {
	ScaleFactor   float64
	MaxIterations int
	Epsilon       float64 // max centroid movement in degrees still treated as converged
	TieBreak      TieBreak
	DropEmpty     bool // drop centroids that own no points after the final iteration
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the options used when no Option is given.
func DefaultOptions() Options {
	return Options{
		ScaleFactor:   DefaultScaleFactor,
		MaxIterations: DefaultMaxIterations,
		Epsilon:       DefaultEpsilon,
		TieBreak:      TieFirst,
	}
}

// WithScaleFactor sets the centroid density scale.
func WithScaleFactor(f float64) Option {
	return func(o *Options) {
		if f > 0 {
			o.ScaleFactor = f
		}
	}
}

// WithMaxIterations caps the number of Lloyd iterations.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxIterations = n
		}
	}
}

// WithEpsilon sets the convergence tolerance in degrees.
func WithEpsilon(eps float64) Option {
	return func(o *Options) {
		if eps >= 0 {
			o.Epsilon = eps
		}
	}
}

// WithTieBreak sets the tie-break rule for equidistant centroids.
func WithTieBreak(tb TieBreak) Option {
	return func(o *Options) { o.TieBreak = tb }
}

// WithDropEmpty removes centroids that end up with no members.
func WithDropEmpty(drop bool) Option {
	return func(o *Options) { o.DropEmpty = drop }
}

func resolve(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
