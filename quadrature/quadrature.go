// Package quadrature provides the per-pixel integration rule used by the
// likelihood kernels.
//
// A rule is a fixed set of node offsets within the unit pixel and matching
// weights. Nodes are relative to the pixel centre, in [-0.5, 0.5]; the
// weights of a rule sum to one, so a constant surface brightness integrates
// to itself.
package quadrature

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/lensed/gpucore"
)

// DefaultOrder is the per-axis order of the default rule (9 points).
const DefaultOrder = 3

// MaxOrder bounds the per-axis order.
const MaxOrder = 16

// ErrOrder is returned for an order outside [1, MaxOrder].
var ErrOrder = errors.New("quadrature: order out of range")

// Rule is a two-dimensional quadrature rule.
//
// Weights are stored per axis: the weight of node q is
// Weights[q].X * Weights[q].Y. Kernels multiply the two components.
type Rule struct {
	Nodes   []gpucore.Float2
	Weights []gpucore.Float2
}

// Size returns the number of nodes.
func (r Rule) Size() int { return len(r.Nodes) }

// Provider supplies the rule for a run.
type Provider interface {
	Rule() Rule
}

// GaussLegendre is the tensor-product Gauss-Legendre rule of the given
// per-axis order over the unit pixel.
type GaussLegendre int

// Rule implements Provider. It panics on an invalid order; use New to
// validate user input.
func (g GaussLegendre) Rule() Rule {
	r, err := New(int(g))
	if err != nil {
		panic(err)
	}
	return r
}

// New returns the Gauss-Legendre product rule with order*order nodes.
func New(order int) (Rule, error) {
	if order < 1 || order > MaxOrder {
		return Rule{}, fmt.Errorf("%w: %d", ErrOrder, order)
	}
	x, w := legendre(order)
	r := Rule{
		Nodes:   make([]gpucore.Float2, 0, order*order),
		Weights: make([]gpucore.Float2, 0, order*order),
	}
	for j := 0; j < order; j++ {
		for i := 0; i < order; i++ {
			// map [-1, 1] onto [-0.5, 0.5]; weights scale by 1/2
			r.Nodes = append(r.Nodes, gpucore.Float2{X: float32(0.5 * x[i]), Y: float32(0.5 * x[j])})
			r.Weights = append(r.Weights, gpucore.Float2{X: float32(0.5 * w[i]), Y: float32(0.5 * w[j])})
		}
	}
	return r, nil
}

// legendre returns the nodes and weights of the n-point Gauss-Legendre rule
// on [-1, 1], by Newton iteration on the Legendre polynomial.
func legendre(n int) (x, w []float64) {
	x = make([]float64, n)
	w = make([]float64, n)
	for i := 0; i < (n+1)/2; i++ {
		z := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))
		var dp float64
		for iter := 0; iter < 100; iter++ {
			p0, p1 := 1.0, 0.0
			for k := 1; k <= n; k++ {
				p0, p1 = ((2*float64(k)-1)*z*p0-(float64(k)-1)*p1)/float64(k), p0
			}
			dp = float64(n) * (z*p0 - p1) / (z*z - 1)
			dz := p0 / dp
			z -= dz
			if math.Abs(dz) < 1e-15 {
				break
			}
		}
		x[i], x[n-1-i] = -z, z
		w[i] = 2 / ((1 - z*z) * dp * dp)
		w[n-1-i] = w[i]
	}
	if n%2 == 1 {
		x[n/2] = 0
	}
	return x, w
}
