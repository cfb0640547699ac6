package lensed

import (
	"github.com/gogpu/lensed/gpucore"
	"github.com/gogpu/lensed/quadrature"
)

// BufferSet holds all device memory of a run. Read-only buffers are filled
// at allocation; the others are written by kernels or by the bridge.
type BufferSet struct {
	Object   gpucore.BufferID // layout size, read-write
	Nodes    gpucore.BufferID // nq float2, read-only
	Weights  gpucore.BufferID // nq float2, read-only
	Mean     gpucore.BufferID // pixels float, read-only
	Variance gpucore.BufferID // pixels float, read-only
	Params   gpucore.BufferID // ndim float, host-written
	LogLike  gpucore.BufferID // pixels float, host-read
	Dump     gpucore.BufferID // pixels float4, host-read

	Pixels int
	NDim   int

	dev      *Device
	created  []gpucore.BufferID
	released bool
}

// AllocateBuffers creates the buffer set for a problem. If any allocation
// fails, the buffers already created are destroyed and an
// *AllocationError is returned.
func AllocateBuffers(dev *Device, data *DataImage, rule quadrature.Rule, layout Layout) (*BufferSet, error) {
	n := uint64(data.Size()) //nolint:gosec // validated positive
	nq := uint64(rule.Size())
	bs := &BufferSet{Pixels: data.Size(), NDim: layout.NDim, dev: dev}

	steps := []struct {
		id   *gpucore.BufferID
		desc gpucore.BufferDesc
	}{
		{&bs.Object, gpucore.BufferDesc{Label: "object", Size: layout.Size, Flags: gpucore.MemReadWrite}},
		{&bs.Nodes, gpucore.BufferDesc{Label: "qq", Size: 8 * nq, Flags: gpucore.MemReadOnly, Contents: gpucore.Float2Bytes(rule.Nodes)}},
		{&bs.Weights, gpucore.BufferDesc{Label: "ww", Size: 8 * nq, Flags: gpucore.MemReadOnly, Contents: gpucore.Float2Bytes(rule.Weights)}},
		{&bs.Mean, gpucore.BufferDesc{Label: "mean", Size: 4 * n, Flags: gpucore.MemReadOnly, Contents: gpucore.Float32Bytes(data.Mean)}},
		{&bs.Variance, gpucore.BufferDesc{Label: "variance", Size: 4 * n, Flags: gpucore.MemReadOnly, Contents: gpucore.Float32Bytes(data.Variance)}},
		{&bs.Params, gpucore.BufferDesc{Label: "params", Size: 4 * uint64(layout.NDim), Flags: gpucore.MemReadOnly | gpucore.MemHostWrite}}, //nolint:gosec // ndim is positive
		{&bs.LogLike, gpucore.BufferDesc{Label: "loglike", Size: 4 * n, Flags: gpucore.MemWriteOnly | gpucore.MemHostRead}},
		{&bs.Dump, gpucore.BufferDesc{Label: "dumper", Size: 16 * n, Flags: gpucore.MemWriteOnly | gpucore.MemHostRead}},
	}
	for _, s := range steps {
		id, err := dev.CreateBuffer(&s.desc)
		if err != nil {
			bs.destroy()
			return nil, &AllocationError{Op: s.desc.Label + " buffer", Err: err}
		}
		*s.id = id
		bs.created = append(bs.created, id)
		Logger().Debug("lensed: buffer allocated", "label", s.desc.Label, "bytes", s.desc.Size)
	}
	return bs, nil
}

func (bs *BufferSet) destroy() {
	for i := len(bs.created) - 1; i >= 0; i-- {
		bs.dev.DestroyBuffer(bs.created[i])
	}
	bs.created = nil
}

// Release destroys all buffers. It must be called exactly once; a second
// call panics.
func (bs *BufferSet) Release() {
	if bs.released {
		panic("lensed: buffer set released twice")
	}
	bs.released = true
	bs.destroy()
}
