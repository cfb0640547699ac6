package lensed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/lensed/gpucore"
	"github.com/gogpu/lensed/internal/capture"
	"github.com/gogpu/lensed/nested"
)

// Run fits the input to the data with the given driver.
//
// It acquires a device unless WithDevice supplies one, plans the work
// distribution, builds the program, allocates the buffer set and hands the
// bridge to the driver. Device resources Run created are released on every
// path before Run returns. The returned result must be closed.
func Run(ctx context.Context, in *Input, data *DataImage, drv nested.Driver, opts ...Option) (res *RunResult, err error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		runsTotal.WithLabelValues(outcome).Inc()
	}()

	if err := data.Validate(); err != nil {
		return nil, err
	}
	layout, err := NewLayout(in.Objects)
	if err != nil {
		return nil, err
	}
	rule := o.rule.Rule()
	log := Logger()
	log.Debug("lensed: data", "width", data.Width, "height", data.Height, "pixels", data.Size(), "masked", data.NMask)
	log.Debug("lensed: quadrature", "points", rule.Size())

	dev := o.device
	if dev == nil {
		dev, err = AcquireDevice(ctx, DeviceOptions{PreferGPU: o.gpu, Backend: o.backend})
		if err != nil {
			return nil, err
		}
		defer dev.Release()
	}

	plan, err := gpucore.PlanWorkGroups(data.Width, data.Height, dev.MaxWorkGroupSize())
	if err != nil {
		return nil, &DeviceError{Op: "plan work-groups", Err: err}
	}
	log.Debug("lensed: work-groups", "plan", plan.String(), "groups", plan.Groups(), "max", dev.MaxWorkGroupSize())

	if o.output {
		path := o.root + "kernel.wgsl"
		if err := WriteKernelSource(path, in.Source.Fragments); err != nil {
			return nil, err
		}
		log.Debug("lensed: kernel source written", "path", path)
	}

	prog, err := BuildProgram(dev, in.Source, data.Width, data.Height, rule.Size(), plan)
	if err != nil {
		return nil, err
	}
	defer prog.Release()

	bufs, err := AllocateBuffers(dev, data, rule, layout)
	if err != nil {
		return nil, err
	}
	defer bufs.Release()

	res = &RunResult{RunID: o.runID, Importance: in.Sampler.Importance}
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}
	bridge, err := NewBridge(dev, prog, bufs, plan, data, res)
	if err != nil {
		return nil, err
	}
	defer bridge.Release()

	sink, err := openSink(o)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(sink, "lensed %s run %s\n", Version, res.RunID)
	res.sink = sink
	defer func() {
		if err != nil {
			_ = sink.Close()
		}
	}()

	cfg := in.Sampler
	cfg.NDim, cfg.NPar = layout.NDim, layout.NDim
	cfg.Wrap = make([]bool, layout.NDim)
	cfg.Priors = make([]nested.Prior, layout.NDim)
	for i, p := range layout.Params() {
		cfg.Wrap[i] = p.Wrap
		cfg.Priors[i] = p.Prior
	}
	cfg.Root, cfg.Output = o.root, o.output
	cfg.Feedback = log.Enabled(ctx, slog.LevelDebug)
	cfg.Log = sink

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info("lensed: search started", "driver", drv.Name(), "ndim", layout.NDim, "run", res.RunID)
	start := time.Now()
	if err := runDriver(ctx, drv, cfg, bridge, sink); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	log.Info("lensed: search finished", "duration", res.Duration.Round(time.Second))

	if len(res.Dump) == 0 {
		return nil, fmt.Errorf("%w: driver %q", ErrNoSummary, drv.Name())
	}
	res.Chi2DOF, err = Finalize(res.Dump, data, layout.NDim)
	if err != nil {
		return nil, err
	}
	if lf, ok := drv.(nested.LateFlusher); ok && lf.FlushesLate() {
		res.lateFlush = true
	}
	return res, nil
}

// openSink opens the driver log: <root>log.txt with output enabled,
// otherwise the null device.
func openSink(o runOptions) (*os.File, error) {
	name := os.DevNull
	if o.output {
		name = o.root + "log.txt"
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("lensed: open log: %w", err)
	}
	return f, nil
}

// runDriver runs the driver, with stdout redirected to the sink for
// drivers that write to it. Stdout is restored on every path.
func runDriver(ctx context.Context, drv nested.Driver, cfg nested.Config, b *Bridge, sink *os.File) (err error) {
	if sw, ok := drv.(nested.StdoutWriter); ok && sw.WritesStdout() {
		r, rerr := capture.Stdout(sink)
		if rerr != nil {
			return rerr
		}
		defer func() {
			err = errors.Join(err, r.Restore())
		}()
	}
	return drv.Run(ctx, cfg, b, b)
}
