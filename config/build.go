package config

import (
	"fmt"
	"os"

	"github.com/gogpu/lensed"
	"github.com/gogpu/lensed/data"
	"github.com/gogpu/lensed/model"
	"github.com/gogpu/lensed/nested"
	"github.com/gogpu/lensed/quadrature"
)

// Input builds the fitting problem: one object per spec with its
// parameters in kind order, and the generated kernel source.
func (p *Problem) Input() (*lensed.Input, error) {
	objs := make([]lensed.Object, len(p.Objects))
	ks := make([]*model.Kind, len(p.Objects))
	for i, o := range p.Objects {
		k, err := model.Lookup(o.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: object %q: %v", ErrInvalid, o.Name, err)
		}
		obj := lensed.Object{Name: o.Name, Size: k.Size()}
		for _, name := range k.Params {
			ps := o.Params[name]
			obj.Params = append(obj.Params, lensed.Parameter{
				ID:    o.Name + "." + name,
				Label: ps.Label,
				Wrap:  ps.Wrap,
				Prior: ps.prior(),
			})
		}
		objs[i], ks[i] = obj, k
	}

	src, err := model.Program(objs, ks, p.Rule().Rule().Size())
	if err != nil {
		return nil, err
	}
	var extra []string
	for _, name := range p.Kernels {
		b, err := os.ReadFile(p.path(name))
		if err != nil {
			return nil, fmt.Errorf("config: kernel fragment: %w", err)
		}
		extra = append(extra, string(b))
	}
	src.Fragments = append(extra, src.Fragments...)

	return &lensed.Input{Objects: objs, Source: src, Sampler: p.sampler()}, nil
}

func (p *Problem) sampler() nested.Config {
	s := p.Sampler
	cfg := nested.DefaultConfig()
	cfg.Live = s.Live
	cfg.Tolerance = s.Tolerance
	cfg.Efficiency = s.Efficiency
	cfg.Importance = s.Importance
	cfg.Multimodal = s.Multimodal
	cfg.ConstEff = s.ConstEff
	cfg.MaxModes = s.MaxModes
	cfg.UpdateInterval = s.UpdateInterval
	cfg.Seed = s.Seed
	cfg.Resume = s.Resume
	cfg.MaxIter = s.MaxIter
	return cfg
}

// Rule returns the quadrature rule of the problem.
func (p *Problem) Rule() quadrature.Provider { return quadrature.GaussLegendre(p.Quadrature) }

// Data loads the observed image and mask.
func (p *Problem) Data() (*lensed.DataImage, error) {
	return data.Load(p.path(p.Image), p.path(p.Mask), data.Options{Gain: p.Gain, Offset: p.Offset})
}

// NewDriver returns the problem's sampling driver.
func (p *Problem) NewDriver() (nested.Driver, error) {
	return nested.New(p.Driver)
}

// Options returns the run options of the problem.
func (p *Problem) Options() []lensed.Option {
	opts := []lensed.Option{
		lensed.WithGPU(p.GPU),
		lensed.WithBackend(p.Backend),
		lensed.WithQuadrature(p.Rule()),
	}
	if p.Output {
		opts = append(opts, lensed.WithOutput(p.Root))
	}
	return opts
}
