package nested

import (
	"fmt"
	"io"
)

// Config is the run configuration handed to a driver. Drivers ignore
// settings that have no meaning for their algorithm.
type Config struct {
	// NDim is the number of sampled dimensions, NPar the number of
	// parameters reported per point. lensed sets both to the parameter
	// count.
	NDim, NPar int

	// Wrap marks parameters with a circular domain.
	Wrap []bool

	// Priors transform unit coordinates to physical values, one per
	// dimension.
	Priors []Prior

	// Root is the prefix of files written by the driver when Output is set.
	Root   string
	Output bool

	Live           int
	Tolerance      float64
	Efficiency     float64
	Importance     bool
	Multimodal     bool
	ConstEff       bool
	MaxModes       int
	UpdateInterval int
	Seed           int64
	Resume         bool
	MaxIter        int

	// Feedback enables progress output on stdout.
	Feedback bool

	// Log receives the driver's own log output. Nil means discard.
	Log io.Writer
}

// DefaultConfig returns the default sampler settings.
func DefaultConfig() Config {
	return Config{
		Live:           300,
		Tolerance:      0.5,
		Efficiency:     0.8,
		Importance:     true,
		Multimodal:     false,
		MaxModes:       100,
		UpdateInterval: 1000,
		Seed:           -1,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch {
	case c.NDim <= 0:
		return fmt.Errorf("%w: ndim %d", ErrConfig, c.NDim)
	case c.NPar < c.NDim:
		return fmt.Errorf("%w: npar %d < ndim %d", ErrConfig, c.NPar, c.NDim)
	case len(c.Priors) != c.NDim:
		return fmt.Errorf("%w: %d priors for %d dimensions", ErrConfig, len(c.Priors), c.NDim)
	case c.Wrap != nil && len(c.Wrap) != c.NDim:
		return fmt.Errorf("%w: %d wrap flags for %d dimensions", ErrConfig, len(c.Wrap), c.NDim)
	case c.Live <= 0:
		return fmt.Errorf("%w: live points %d", ErrConfig, c.Live)
	case c.UpdateInterval <= 0:
		return fmt.Errorf("%w: update interval %d", ErrConfig, c.UpdateInterval)
	}
	return nil
}

// log returns the driver log sink.
func (c *Config) log() io.Writer {
	if c.Log == nil {
		return io.Discard
	}
	return c.Log
}

// physical maps a unit hypercube point to physical parameters.
func (c *Config) physical(u []float64, dst []float64) {
	for i, p := range c.Priors {
		dst[i] = p.Transform(u[i])
	}
}
