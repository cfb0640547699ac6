package config

import "math"

// Uniform is a flat prior on [Min, Max].
type Uniform struct{ Min, Max float64 }

// Transform implements nested.Prior.
func (p Uniform) Transform(u float64) float64 { return p.Min + u*(p.Max-p.Min) }

// Normal is a Gaussian prior.
type Normal struct{ Mean, Sigma float64 }

// unitEps keeps the inverse error function finite at the ends of the
// unit interval.
const unitEps = 1e-12

// Transform implements nested.Prior.
func (p Normal) Transform(u float64) float64 {
	u = min(max(u, unitEps), 1-unitEps)
	return p.Mean + p.Sigma*math.Sqrt2*math.Erfinv(2*u-1)
}

// Delta fixes a parameter to Value.
type Delta struct{ Value float64 }

// Transform implements nested.Prior.
func (p Delta) Transform(float64) float64 { return p.Value }
