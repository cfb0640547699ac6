//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/lensed/gpucore"
)

type buffer struct {
	label string
	flags gpucore.MemFlags
	size  uint64 // requested size
	buf   hal.Buffer
	alloc uint64 // allocated size, 4-byte aligned
}

// align4 rounds n up to a multiple of four bytes, the granularity of
// storage bindings and buffer copies.
func align4(n uint64) uint64 { return (n + 3) &^ 3 }

// CreateBuffer allocates a storage buffer. Every buffer can be copied in
// both directions so the host can write parameters and read results.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if d.device == nil {
		return gpucore.InvalidID, gpucore.ErrDeviceDestroyed
	}
	if desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer %q has zero size", gpucore.ErrInvalidSize, desc.Label)
	}
	if uint64(len(desc.Contents)) > desc.Size {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer %q contents exceed %d bytes", gpucore.ErrInvalidSize, desc.Label, desc.Size)
	}

	alloc := align4(desc.Size)
	hb, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  alloc,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("create buffer %q (%d bytes): %w", desc.Label, alloc, err)
	}
	if len(desc.Contents) > 0 {
		d.queue.WriteBuffer(hb, 0, padded(desc.Contents))
	}

	id := gpucore.BufferID(d.newID())
	d.buffers[id] = &buffer{label: desc.Label, flags: desc.Flags, size: desc.Size, buf: hb, alloc: alloc}
	slogger().Debug("wgpu: buffer created", "label", desc.Label, "bytes", alloc, "flags", desc.Flags.String())
	return id, nil
}

// padded returns data extended with zeros to a multiple of four bytes.
func padded(data []byte) []byte {
	n := align4(uint64(len(data)))
	if n == uint64(len(data)) {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

// DestroyBuffer releases a buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	delete(d.buffers, id)
	if d.device != nil {
		d.device.DestroyBuffer(b.buf)
	}
}

// WriteBuffer uploads host data. Pending dispatches are submitted first so
// the write is ordered after them.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrInvalidID, id)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: write of %d bytes at %d into %q (%d bytes)",
			gpucore.ErrInvalidSize, len(data), offset, b.label, b.size)
	}
	if offset%4 != 0 {
		return fmt.Errorf("%w: unaligned write offset %d into %q", gpucore.ErrInvalidSize, offset, b.label)
	}
	if err := d.flush(); err != nil {
		return err
	}
	d.queue.WriteBuffer(b.buf, offset, padded(data))
	return nil
}

// ReadBuffer copies buffer contents to dst through a mappable staging
// buffer, after all pending work has completed.
func (d *Device) ReadBuffer(id gpucore.BufferID, offset uint64, dst []byte) error {
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrInvalidID, id)
	}
	if b.flags&gpucore.MemHostRead == 0 {
		return fmt.Errorf("%w: %q", gpucore.ErrNotHostReadable, b.label)
	}
	if offset+uint64(len(dst)) > b.size {
		return fmt.Errorf("%w: read of %d bytes at %d from %q (%d bytes)",
			gpucore.ErrInvalidSize, len(dst), offset, b.label, b.size)
	}
	if len(dst) == 0 {
		return nil
	}

	start := offset &^ 3
	size := align4(offset+uint64(len(dst))) - start

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer for %q: %w", b.label, err)
	}
	defer d.device.DestroyBuffer(staging)

	d.pending = append(d.pending, dispatch{copySrc: b.buf, copyDst: staging, copyOffset: start, copySize: size})
	if err := d.flush(); err != nil {
		return err
	}

	readback := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, readback); err != nil {
		return fmt.Errorf("readback %q: %w", b.label, err)
	}
	copy(dst, readback[offset-start:])
	return nil
}
