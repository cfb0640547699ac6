package lensed

import (
	"fmt"
	"math"
	"time"

	"github.com/gogpu/lensed/gpucore"
	"github.com/gogpu/lensed/nested"
)

// Bridge answers the driver's callbacks on the device. It implements
// nested.LikelihoodEvaluator and nested.StateDumper.
//
// Every callback blocks until its device work has completed. A Bridge is
// not safe for concurrent use; parallel drivers need one per worker, each
// with its own buffer set.
type Bridge struct {
	dev     *Device
	bufs    *BufferSet
	plan    gpucore.WorkGroupPlan
	data    *DataImage
	result  *RunResult
	lognorm float64

	setParams gpucore.KernelID
	logLike   gpucore.KernelID
	dumper    gpucore.KernelID

	params  []byte
	raw     []byte
	values  []float32
	dumpRaw []byte
}

var (
	_ nested.LikelihoodEvaluator = (*Bridge)(nil)
	_ nested.StateDumper         = (*Bridge)(nil)
)

// NewBridge creates the three kernels of prog bound to the buffer set.
// Dumps are recorded into result.
func NewBridge(dev *Device, prog *Program, bufs *BufferSet, plan gpucore.WorkGroupPlan, data *DataImage, result *RunResult) (*Bridge, error) {
	b := &Bridge{
		dev:     dev,
		bufs:    bufs,
		plan:    plan,
		data:    data,
		result:  result,
		lognorm: -math.Log(data.Gain),
		params:  make([]byte, 4*bufs.NDim),
		raw:     make([]byte, 4*bufs.Pixels),
		values:  make([]float32, bufs.Pixels),
		dumpRaw: make([]byte, 16*bufs.Pixels),
	}

	pixelArgs := func(out gpucore.BufferID) []gpucore.BufferID {
		return []gpucore.BufferID{bufs.Object, bufs.Nodes, bufs.Weights, bufs.Mean, bufs.Variance, out}
	}
	pixelSlots := func(out uint32) []uint32 {
		return []uint32{BindingObject, BindingNodes, BindingWeights, BindingMean, BindingVariance, out}
	}
	kernels := []struct {
		id   *gpucore.KernelID
		desc gpucore.KernelDesc
	}{
		{&b.setParams, gpucore.KernelDesc{
			Program: prog.ID, EntryPoint: "set_params",
			Args:     []gpucore.BufferID{bufs.Object, bufs.Params},
			Bindings: []uint32{BindingObject, BindingParams},
		}},
		{&b.logLike, gpucore.KernelDesc{
			Program: prog.ID, EntryPoint: "loglike",
			Args: pixelArgs(bufs.LogLike), Bindings: pixelSlots(BindingLogLike),
		}},
		{&b.dumper, gpucore.KernelDesc{
			Program: prog.ID, EntryPoint: "dumper",
			Args: pixelArgs(bufs.Dump), Bindings: pixelSlots(BindingDump),
		}},
	}
	for _, k := range kernels {
		id, err := dev.CreateKernel(&k.desc)
		if err != nil {
			b.Release()
			return nil, &AllocationError{Op: k.desc.EntryPoint + " kernel", Err: err}
		}
		*k.id = id
	}
	return b, nil
}

// Release destroys the kernels.
func (b *Bridge) Release() {
	for _, id := range []gpucore.KernelID{b.setParams, b.logLike, b.dumper} {
		if id != gpucore.InvalidID {
			b.dev.DestroyKernel(id)
		}
	}
	b.setParams, b.logLike, b.dumper = gpucore.InvalidID, gpucore.InvalidID, gpucore.InvalidID
}

// upload writes a parameter vector and dispatches set_params over it.
func (b *Bridge) upload(params []float64) error {
	if len(params) != b.bufs.NDim {
		return fmt.Errorf("%w: %d parameters, want %d", ErrInvalidInput, len(params), b.bufs.NDim)
	}
	gpucore.PutFloat64s(b.params, params)
	if err := b.dev.WriteBuffer(b.bufs.Params, 0, b.params); err != nil {
		return &DeviceError{Op: "write parameters", Err: err}
	}
	if err := b.dev.Dispatch(b.setParams, gpucore.Size2{b.bufs.NDim, 1}, gpucore.Size2{1, 1}); err != nil {
		return &DeviceError{Op: "dispatch set_params", Err: err}
	}
	return nil
}

// LogLike evaluates the log-likelihood of a physical parameter vector: the
// sum of the per-pixel values over unmasked pixels plus -log(gain).
func (b *Bridge) LogLike(params []float64) (float64, error) {
	start := time.Now()
	ll, err := b.logLikeAt(params)
	if err != nil {
		callbackErrors.WithLabelValues("loglike").Inc()
		return 0, err
	}
	logLikeEvaluations.Inc()
	callbackDuration.WithLabelValues("loglike").Observe(time.Since(start).Seconds())
	return ll, nil
}

func (b *Bridge) logLikeAt(params []float64) (float64, error) {
	if err := b.upload(params); err != nil {
		return 0, err
	}
	if err := b.dev.Dispatch(b.logLike, b.plan.Global, b.plan.Local); err != nil {
		return 0, &DeviceError{Op: "dispatch loglike", Err: err}
	}
	if err := b.dev.Finish(); err != nil {
		return 0, &DeviceError{Op: "finish loglike", Err: err}
	}
	if err := b.dev.ReadBuffer(b.bufs.LogLike, 0, b.raw); err != nil {
		return 0, &DeviceError{Op: "read loglike", Err: err}
	}
	gpucore.Float32s(b.values, b.raw)

	sum := 0.0
	for i, v := range b.values {
		if !b.data.Mask[i] {
			sum += float64(v)
		}
	}
	return sum + b.lognorm, nil
}

// Dump records the driver's summary in the result, then sets the
// maximum-likelihood point, runs the dumper kernel and reads the per-pixel
// records back. The maximum-likelihood point stays set on the device.
func (b *Bridge) Dump(s *nested.Summary) error {
	start := time.Now()
	if err := b.dump(s); err != nil {
		callbackErrors.WithLabelValues("dump").Inc()
		return err
	}
	dumpsTotal.Inc()
	callbackDuration.WithLabelValues("dump").Observe(time.Since(start).Seconds())
	return nil
}

func (b *Bridge) dump(s *nested.Summary) error {
	for _, arr := range []struct {
		name string
		v    []float64
	}{{"mean", s.Mean}, {"sigma", s.Sigma}, {"ML", s.ML}, {"MAP", s.MAP}} {
		if len(arr.v) != b.bufs.NDim {
			return fmt.Errorf("%w: summary %s has %d values, want %d", ErrInvalidInput, arr.name, len(arr.v), b.bufs.NDim)
		}
	}

	if err := b.upload(s.ML); err != nil {
		return err
	}
	if err := b.dev.Dispatch(b.dumper, b.plan.Global, b.plan.Local); err != nil {
		return &DeviceError{Op: "dispatch dumper", Err: err}
	}
	if err := b.dev.Finish(); err != nil {
		return &DeviceError{Op: "finish dumper", Err: err}
	}
	if err := b.dev.ReadBuffer(b.bufs.Dump, 0, b.dumpRaw); err != nil {
		return &DeviceError{Op: "read dumper", Err: err}
	}

	// the result changes only once the dump has been read back
	r := b.result
	r.Mean = append(r.Mean[:0], s.Mean...)
	r.Sigma = append(r.Sigma[:0], s.Sigma...)
	r.ML = append(r.ML[:0], s.ML...)
	r.MAP = append(r.MAP[:0], s.MAP...)
	r.LogEvidence = s.LogZ
	r.LogEvidenceINS = s.INSLogZ
	r.LogEvidenceErr = s.LogZErr
	r.MaxLogLike = s.MaxLogLike
	if len(r.Dump) != b.bufs.Pixels {
		r.Dump = make([]gpucore.Float4, b.bufs.Pixels)
	}
	gpucore.Float4s(r.Dump, b.dumpRaw)
	Logger().Debug("lensed: state dumped", "samples", s.Samples, "max_loglike", s.MaxLogLike, "logz", s.LogZ)
	return nil
}
