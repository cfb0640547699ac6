package lensed

import (
	"os"
	"time"

	"github.com/gogpu/lensed/gpucore"
	"github.com/gogpu/lensed/internal/capture"
)

// RunResult is the outcome of a run. The per-parameter statistics and
// evidence come from the driver's last summary; Chi2DOF and Dump from the
// dump of its maximum-likelihood point.
type RunResult struct {
	RunID string

	Mean, Sigma, ML, MAP []float64

	LogEvidence    float64
	LogEvidenceINS float64
	LogEvidenceErr float64
	MaxLogLike     float64

	// Importance reports whether the driver ran with importance sampling,
	// in which case LogEvidenceINS is the preferred estimate.
	Importance bool

	Chi2DOF float64

	// Dump holds one record per pixel: model, residual, sigma, chi-square.
	Dump []gpucore.Float4

	Duration time.Duration

	sink      *os.File
	lateFlush bool
	late      *capture.Redirect
}

// Evidence returns the log-evidence estimate the driver's settings favour.
func (r *RunResult) Evidence() float64 {
	if r.Importance {
		return r.LogEvidenceINS
	}
	return r.LogEvidence
}

// Close releases the run log. When the driver flushes output late, stdout
// is redirected to the log first and stays redirected until RestoreStdout,
// so output the driver flushes afterwards still lands in the log.
func (r *RunResult) Close() error {
	if r.sink == nil {
		return nil
	}
	sink := r.sink
	r.sink = nil
	if r.lateFlush {
		redir, err := capture.Stdout(sink)
		if err != nil {
			_ = sink.Close()
			return err
		}
		r.late = redir
	}
	return sink.Close()
}

// RestoreStdout undoes the late-flush redirect made by Close. It is a
// no-op when no redirect is active.
func (r *RunResult) RestoreStdout() error {
	redir := r.late
	r.late = nil
	return redir.Restore()
}
