// Package model provides the built-in model components and generates the
// likelihood program for a list of them.
//
// Each component kind has a WGSL implementation for the GPU backend and a
// Go implementation registered with the software backend. Both evaluate
// the surface brightness of the component at a point from the component's
// slice of the object buffer, which holds its parameters in order.
package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnknownKind is returned when no component kind has the given name.
var ErrUnknownKind = errors.New("model: unknown component kind")

// Kind is a model component type.
type Kind struct {
	// ID identifies the kind in generated build defines.
	ID int

	// Name is the kind name used in problem files.
	Name string

	// Params are the parameter names in object buffer order.
	Params []string

	// WGSL defines fn <Name>_value(base: u32, x: f32, y: f32) -> f32,
	// reading parameters from objbuf[base:].
	WGSL string

	// Eval is the Go implementation of the WGSL function.
	Eval func(p []float32, x, y float32) float32
}

// Size returns the component's byte size in the object buffer.
func (k *Kind) Size() uint64 { return 4 * uint64(len(k.Params)) }

var kinds = map[string]*Kind{
	"sky": {
		ID:     1,
		Name:   "sky",
		Params: []string{"value"},
		WGSL: `
fn sky_value(base: u32, x: f32, y: f32) -> f32 {
    return objbuf[base];
}
`,
		Eval: func(p []float32, _, _ float32) float32 { return p[0] },
	},
	"gauss": {
		ID:     2,
		Name:   "gauss",
		Params: []string{"x", "y", "flux", "sigma"},
		WGSL: `
fn gauss_value(base: u32, x: f32, y: f32) -> f32 {
    let dx = x - objbuf[base];
    let dy = y - objbuf[base + 1u];
    let s2 = objbuf[base + 3u] * objbuf[base + 3u];
    return objbuf[base + 2u] / (6.2831853 * s2) * exp(-0.5 * (dx * dx + dy * dy) / s2);
}
`,
		Eval: func(p []float32, x, y float32) float32 {
			dx, dy := x-p[0], y-p[1]
			s2 := p[3] * p[3]
			return p[2] / (6.2831853 * s2) * float32(math.Exp(float64(-0.5*(dx*dx+dy*dy)/s2)))
		},
	},
	"sersic": {
		ID:     3,
		Name:   "sersic",
		Params: []string{"x", "y", "r", "flux", "n"},
		WGSL: `
fn sersic_value(base: u32, x: f32, y: f32) -> f32 {
    let dx = x - objbuf[base];
    let dy = y - objbuf[base + 1u];
    let r = objbuf[base + 2u];
    let n = objbuf[base + 4u];
    let b = 2.0 * n - 0.327;
    let norm = objbuf[base + 3u] / (6.2831853 * r * r * n * exp(b) * pow(b, -2.0 * n) * sersic_gamma(2.0 * n));
    return norm * exp(-b * (pow(sqrt(dx * dx + dy * dy) / r, 1.0 / n) - 1.0));
}

fn sersic_gamma(z: f32) -> f32 {
    // Stirling series, adequate for the 2n > 1 used here
    return sqrt(6.2831853 / z) * pow(z / 2.7182818, z) * (1.0 + 1.0 / (12.0 * z));
}
`,
		Eval: func(p []float32, x, y float32) float32 {
			dx, dy := float64(x-p[0]), float64(y-p[1])
			r, flux, n := float64(p[2]), float64(p[3]), float64(p[4])
			b := 2*n - 0.327
			z := 2 * n
			gamma := math.Sqrt(2*math.Pi/z) * math.Pow(z/math.E, z) * (1 + 1/(12*z))
			norm := flux / (2 * math.Pi * r * r * n * math.Exp(b) * math.Pow(b, -2*n) * gamma)
			return float32(norm * math.Exp(-b*(math.Pow(math.Hypot(dx, dy)/r, 1/n)-1)))
		},
	},
}

var kindsByID = func() map[int]*Kind {
	m := make(map[int]*Kind, len(kinds))
	for _, k := range kinds {
		m[k.ID] = k
	}
	return m
}()

// Lookup returns the kind with the given name.
func Lookup(name string) (*Kind, error) {
	k, ok := kinds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownKind, name, Names())
	}
	return k, nil
}

// Names returns the sorted names of all kinds.
func Names() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
