//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/lensed/gpucore"
)

type kernel struct {
	entry      string
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
	bindGroup  hal.BindGroup
}

// dispatch is a recorded command: a compute dispatch when kernel is set,
// otherwise a buffer copy.
type dispatch struct {
	kernel *kernel
	groups [2]uint32

	copySrc, copyDst     hal.Buffer
	copyOffset, copySize uint64
}

// CreateKernel builds a compute pipeline for the entry point with a bind
// group over the argument buffers. Buffers the kernel may write are bound
// as read-write storage, the rest as read-only storage.
func (d *Device) CreateKernel(desc *gpucore.KernelDesc) (gpucore.KernelID, error) {
	p, ok := d.programs[desc.Program]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: program %d", gpucore.ErrInvalidID, desc.Program)
	}

	layoutEntries := make([]gputypes.BindGroupLayoutEntry, len(desc.Args))
	groupEntries := make([]gputypes.BindGroupEntry, len(desc.Args))
	for i, arg := range desc.Args {
		b, ok := d.buffers[arg]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("%w: argument %d of %q", gpucore.ErrInvalidID, i, desc.EntryPoint)
		}
		kind := gputypes.BufferBindingTypeReadOnlyStorage
		if b.flags.KernelWritable() {
			kind = gputypes.BufferBindingTypeStorage
		}
		slot := desc.Binding(i)
		layoutEntries[i] = gputypes.BindGroupLayoutEntry{
			Binding: slot, Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: kind},
		}
		groupEntries[i] = gputypes.BindGroupEntry{
			Binding:  slot,
			Resource: gputypes.BufferBinding{Buffer: b.buf.NativeHandle(), Offset: 0, Size: b.alloc},
		}
	}

	k := &kernel{entry: desc.EntryPoint}
	var err error
	k.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: desc.EntryPoint + "_bind_layout", Entries: layoutEntries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("create bind group layout for %q: %w", desc.EntryPoint, err)
	}
	k.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: desc.EntryPoint + "_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{k.bindLayout},
	})
	if err != nil {
		d.destroyKernel(k)
		return gpucore.InvalidID, fmt.Errorf("create pipeline layout for %q: %w", desc.EntryPoint, err)
	}
	k.pipeline, err = d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: desc.EntryPoint, Layout: k.pipeLayout,
		Compute: hal.ComputeState{Module: p.module, EntryPoint: desc.EntryPoint},
	})
	if err != nil {
		d.destroyKernel(k)
		return gpucore.InvalidID, fmt.Errorf("%w: %q in %q: %v", gpucore.ErrUnknownEntryPoint, desc.EntryPoint, p.label, err)
	}
	k.bindGroup, err = d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: desc.EntryPoint + "_bind", Layout: k.bindLayout, Entries: groupEntries,
	})
	if err != nil {
		d.destroyKernel(k)
		return gpucore.InvalidID, fmt.Errorf("create bind group for %q: %w", desc.EntryPoint, err)
	}

	id := gpucore.KernelID(d.newID())
	d.kernels[id] = k
	return id, nil
}

// DestroyKernel releases a kernel.
func (d *Device) DestroyKernel(id gpucore.KernelID) {
	k, ok := d.kernels[id]
	if !ok {
		return
	}
	delete(d.kernels, id)
	d.destroyKernel(k)
}

func (d *Device) destroyKernel(k *kernel) {
	if d.device == nil {
		return
	}
	if k.bindGroup != nil {
		d.device.DestroyBindGroup(k.bindGroup)
	}
	if k.pipeline != nil {
		d.device.DestroyComputePipeline(k.pipeline)
	}
	if k.pipeLayout != nil {
		d.device.DestroyPipelineLayout(k.pipeLayout)
	}
	if k.bindLayout != nil {
		d.device.DestroyBindGroupLayout(k.bindLayout)
	}
}

// Dispatch records a dispatch of global/local work-groups. The local size
// must match the @workgroup_size compiled into the entry point.
func (d *Device) Dispatch(id gpucore.KernelID, global, local gpucore.Size2) error {
	k, ok := d.kernels[id]
	if !ok {
		return fmt.Errorf("%w: kernel %d", gpucore.ErrInvalidID, id)
	}
	var groups [2]uint32
	for i := range global {
		if local[i] <= 0 || global[i] <= 0 || global[i]%local[i] != 0 {
			return fmt.Errorf("%w: global %v is not a multiple of local %v", gpucore.ErrInvalidSize, global, local)
		}
		groups[i] = uint32(global[i] / local[i]) //nolint:gosec // bounded by image size
	}
	if local.Count() > d.info.MaxWorkGroupSize {
		return fmt.Errorf("%w: work-group %v exceeds %d invocations", gpucore.ErrInvalidSize, local, d.info.MaxWorkGroupSize)
	}
	d.pending = append(d.pending, dispatch{kernel: k, groups: groups})
	return nil
}

// Finish submits pending work and waits for it to complete.
func (d *Device) Finish() error {
	if d.device == nil {
		return gpucore.ErrDeviceDestroyed
	}
	return d.flush()
}

// flush encodes all recorded commands into one command buffer, one compute
// pass per dispatch, and waits on a fence. Passes are separated by the
// implicit storage barriers between compute passes.
func (d *Device) flush() error {
	if len(d.pending) == 0 {
		return nil
	}
	cmds := d.pending
	d.pending = nil

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "lensed_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("lensed"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	for _, c := range cmds {
		if c.kernel == nil {
			encoder.CopyBufferToBuffer(c.copySrc, c.copyDst, []hal.BufferCopy{
				{SrcOffset: c.copyOffset, DstOffset: 0, Size: c.copySize},
			})
			continue
		}
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: c.kernel.entry})
		pass.SetPipeline(c.kernel.pipeline)
		pass.SetBindGroup(0, c.kernel.bindGroup, nil)
		pass.Dispatch(c.groups[0], c.groups[1], 1)
		pass.End()
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, waitTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("wait for GPU: timed out after %v", waitTimeout)
	}
	return nil
}
