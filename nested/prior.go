package nested

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"time"
)

func init() {
	Register("prior", func() Driver { return &PriorSampler{Stdout: os.Stdout} })
}

// PriorSampler draws independent points from the prior and weights them
// by their likelihood. The evidence is the prior mean of the likelihood.
//
// It converges slowly for peaked likelihoods and is meant for smoke runs
// and small problems. Without MaxIter it draws ten batches of Live points.
type PriorSampler struct {
	// Stdout receives progress lines when Config.Feedback is set.
	Stdout io.Writer
}

// Name implements Driver.
func (*PriorSampler) Name() string { return "prior" }

// WritesStdout implements StdoutWriter.
func (*PriorSampler) WritesStdout() bool { return true }

type sample struct {
	x  []float64
	ll float64
}

// Run implements Driver.
func (p *PriorSampler) Run(ctx context.Context, cfg Config, eval LikelihoodEvaluator, dump StateDumper) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	total := cfg.MaxIter
	if total <= 0 {
		total = 10 * cfg.Live
	}
	seed := uint64(cfg.Seed) //nolint:gosec // negative seeds select a clock seed below
	if cfg.Seed < 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // clock is positive
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	samples := make([]sample, 0, total)
	u := make([]float64, cfg.NDim)
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range u {
			u[i] = rng.Float64()
		}
		x := make([]float64, cfg.NDim)
		cfg.physical(u, x)
		ll, err := eval.LogLike(x)
		if err != nil {
			return fmt.Errorf("prior: sample %d: %w", n, err)
		}
		samples = append(samples, sample{x: x, ll: ll})

		if n%cfg.UpdateInterval == 0 || n == total {
			s := summarize(samples, cfg.Live)
			if cfg.Feedback && p.Stdout != nil {
				fmt.Fprintf(p.Stdout, "prior: %d samples, log Z = %.4f +/- %.4f, max log L = %.4f\n",
					n, s.LogZ, s.LogZErr, s.MaxLogLike)
			}
			fmt.Fprintf(cfg.log(), "prior: %d/%d samples, log Z %.6f\n", n, total, s.LogZ)
			if err := dump.Dump(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// summarize computes likelihood-weighted statistics of prior samples.
// The last live samples are reported as the live set.
func summarize(samples []sample, live int) *Summary {
	ndim := len(samples[0].x)
	n := float64(len(samples))

	best := 0
	for i, s := range samples {
		if s.ll > samples[best].ll {
			best = i
		}
	}
	lmax := samples[best].ll

	// weights relative to the best sample; with no finite likelihood every
	// sample weighs the same and the evidence is zero
	impossible := math.IsInf(lmax, -1)
	var sumW, sumW2 float64
	w := make([]float64, len(samples))
	for i, s := range samples {
		w[i] = 1
		if !impossible {
			w[i] = math.Exp(s.ll - lmax)
		}
		sumW += w[i]
		sumW2 += w[i] * w[i]
	}

	sm := &Summary{
		Samples:    len(samples),
		Mean:       make([]float64, ndim),
		Sigma:      make([]float64, ndim),
		ML:         append([]float64(nil), samples[best].x...),
		MAP:        append([]float64(nil), samples[best].x...),
		MaxLogLike: lmax,
		Posterior:  make([][]float64, len(samples)),
	}
	sm.LogZ = lmax + math.Log(sumW/n)
	sm.INSLogZ = sm.LogZ
	// relative standard error of the mean weight
	if v := sumW2/n/((sumW/n)*(sumW/n)) - 1; v > 0 && !impossible {
		sm.LogZErr = math.Sqrt(v / n)
	}

	for i, s := range samples {
		pw := w[i] / sumW
		for d, v := range s.x {
			sm.Mean[d] += pw * v
		}
		row := make([]float64, 0, ndim+2)
		row = append(row, s.x...)
		sm.Posterior[i] = append(row, s.ll, pw)
	}
	for i, s := range samples {
		pw := w[i] / sumW
		for d, v := range s.x {
			sm.Sigma[d] += pw * (v - sm.Mean[d]) * (v - sm.Mean[d])
		}
	}
	for d := range sm.Sigma {
		sm.Sigma[d] = math.Sqrt(sm.Sigma[d])
	}

	start := len(samples) - live
	if start < 0 {
		start = 0
	}
	for _, s := range samples[start:] {
		row := make([]float64, 0, ndim+1)
		sm.PhysLive = append(sm.PhysLive, append(append(row, s.x...), s.ll))
	}
	sm.Live = len(sm.PhysLive)
	return sm
}
