// Package nested defines the contract between lensed and a sampling
// driver: the likelihood and dump callbacks the driver invokes, the
// summary it reports, and its run configuration.
//
// A driver owns the search loop. lensed only answers callbacks, each of
// which blocks until the device work behind it has completed. Drivers are
// looked up by name in a registry; the package ships two reference drivers
// ("center" and "prior") that make the bridge runnable without an external
// sampler.
package nested

import (
	"errors"
	"fmt"
)

// Package errors.
var (
	// ErrUnknownDriver is returned when no driver is registered under a name.
	ErrUnknownDriver = errors.New("nested: unknown driver")

	// ErrConstraints is returned when a constraint array has the wrong length.
	ErrConstraints = errors.New("nested: malformed parameter constraints")

	// ErrConfig is returned for an invalid driver configuration.
	ErrConfig = errors.New("nested: invalid configuration")
)

// Prior maps a unit hypercube coordinate to a physical parameter value.
type Prior interface {
	Transform(u float64) float64
}

// LikelihoodEvaluator computes the log-likelihood of a physical parameter
// vector of length NDim.
type LikelihoodEvaluator interface {
	LogLike(params []float64) (float64, error)
}

// StateDumper receives the driver's periodic summary. Drivers call it at
// least once, at termination.
type StateDumper interface {
	Dump(s *Summary) error
}

// Summary is the state a driver reports to a StateDumper.
type Summary struct {
	// Samples is the number of posterior samples.
	Samples int

	// Live is the number of live points.
	Live int

	// PhysLive holds the live points, one row per point: NPar physical
	// parameters followed by the log-likelihood.
	PhysLive [][]float64

	// Posterior holds the posterior samples, one row per sample: NPar
	// physical parameters, the log-likelihood and the posterior weight.
	Posterior [][]float64

	// Per-parameter statistics, each of length NPar.
	Mean, Sigma, ML, MAP []float64

	// MaxLogLike is the largest log-likelihood found so far.
	MaxLogLike float64

	// LogZ is the log-evidence, INSLogZ its importance-sampling estimate
	// and LogZErr the error estimate.
	LogZ, INSLogZ, LogZErr float64
}

// SplitConstraints splits a flat constraint array of 4*npar values into
// its mean, sigma, maximum-likelihood and maximum-a-posteriori blocks.
// The returned slices alias c.
func SplitConstraints(c []float64, npar int) (mean, sigma, ml, mapv []float64, err error) {
	if npar < 0 || len(c) != 4*npar {
		return nil, nil, nil, nil, fmt.Errorf("%w: %d values for %d parameters", ErrConstraints, len(c), npar)
	}
	return c[0:npar:npar], c[npar : 2*npar : 2*npar], c[2*npar : 3*npar : 3*npar], c[3*npar : 4*npar : 4*npar], nil
}
