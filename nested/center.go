package nested

import (
	"context"
	"fmt"
)

func init() {
	Register("center", func() Driver { return Center{} })
}

// Center evaluates the likelihood once, at the prior median, and reports
// that point as the result. It is a diagnostic for checking a model and
// its kernels end to end, not a sampler.
type Center struct{}

// Name implements Driver.
func (Center) Name() string { return "center" }

// Run implements Driver.
func (Center) Run(ctx context.Context, cfg Config, eval LikelihoodEvaluator, dump StateDumper) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	u := make([]float64, cfg.NDim)
	for i := range u {
		u[i] = 0.5
	}
	x := make([]float64, cfg.NDim)
	cfg.physical(u, x)

	ll, err := eval.LogLike(x)
	if err != nil {
		return fmt.Errorf("center: %w", err)
	}
	fmt.Fprintf(cfg.log(), "center: log-likelihood %.6f at %v\n", ll, x)

	point := append(append([]float64(nil), x...), ll)
	s := &Summary{
		Samples:    1,
		Live:       1,
		PhysLive:   [][]float64{point},
		Posterior:  [][]float64{append(append([]float64(nil), point...), 1)},
		Mean:       append([]float64(nil), x...),
		Sigma:      make([]float64, cfg.NDim),
		ML:         append([]float64(nil), x...),
		MAP:        append([]float64(nil), x...),
		MaxLogLike: ll,
		LogZ:       ll,
		INSLogZ:    ll,
	}
	return dump.Dump(s)
}
