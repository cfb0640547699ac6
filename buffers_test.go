package lensed

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/lensed/backend/software"
	"github.com/gogpu/lensed/gpucore"
	"github.com/gogpu/lensed/quadrature"
)

var errOutOfMemory = errors.New("out of device memory")

// faultyDevice fails the failAt-th buffer creation and tracks live buffers.
type faultyDevice struct {
	gpucore.Device
	failAt  int
	created int
	live    []gpucore.BufferID
}

func (d *faultyDevice) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	d.created++
	if d.created == d.failAt {
		return gpucore.InvalidID, errOutOfMemory
	}
	id, err := d.Device.CreateBuffer(desc)
	if err == nil {
		d.live = append(d.live, id)
	}
	return id, err
}

func (d *faultyDevice) DestroyBuffer(id gpucore.BufferID) {
	d.live = slices.DeleteFunc(d.live, func(b gpucore.BufferID) bool { return b == id })
	d.Device.DestroyBuffer(id)
}

func testLayout(t *testing.T, ndim int) Layout {
	t.Helper()
	l, err := NewLayout(sumInput(ndim).Objects)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestAllocateBuffers(t *testing.T) {
	fd := &faultyDevice{Device: software.New()}
	dev := WrapDevice(fd)
	defer dev.Release()

	data := constImage(5, 3, 1, 2, 1)
	rule := quadrature.GaussLegendre(2).Rule()
	bs, err := AllocateBuffers(dev, data, rule, testLayout(t, 3))
	if err != nil {
		t.Fatal(err)
	}
	if len(fd.live) != 8 {
		t.Errorf("%d buffers allocated, want 8", len(fd.live))
	}
	if bs.Pixels != 15 || bs.NDim != 3 {
		t.Errorf("Pixels, NDim = %d, %d, want 15, 3", bs.Pixels, bs.NDim)
	}

	// read-only inputs are filled at allocation
	if err := dev.ReadBuffer(bs.Variance, 0, make([]byte, 4)); !errors.Is(err, gpucore.ErrNotHostReadable) {
		t.Errorf("ReadBuffer(variance) = %v, want ErrNotHostReadable", err)
	}
	raw := make([]byte, 4*15)
	if err := dev.ReadBuffer(bs.LogLike, 0, raw); err != nil {
		t.Errorf("ReadBuffer(loglike) = %v", err)
	}

	bs.Release()
	if len(fd.live) != 0 {
		t.Errorf("%d buffers left after Release", len(fd.live))
	}
}

func TestAllocateBuffersFailure(t *testing.T) {
	for failAt := 1; failAt <= 8; failAt++ {
		fd := &faultyDevice{Device: software.New(), failAt: failAt}
		dev := WrapDevice(fd)

		_, err := AllocateBuffers(dev, constImage(4, 4, 0, 1, 1), quadrature.GaussLegendre(1).Rule(), testLayout(t, 2))
		var ae *AllocationError
		if !errors.As(err, &ae) || !errors.Is(err, ErrAllocation) || !errors.Is(err, errOutOfMemory) {
			t.Errorf("failAt %d: error = %v, want *AllocationError wrapping the device error", failAt, err)
		}
		if len(fd.live) != 0 {
			t.Errorf("failAt %d: %d buffers leaked", failAt, len(fd.live))
		}
		dev.Release()
	}
}

func TestBufferSetDoubleRelease(t *testing.T) {
	dev := testDevice(t)
	bs, err := AllocateBuffers(dev, constImage(2, 2, 0, 1, 1), quadrature.GaussLegendre(1).Rule(), testLayout(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	bs.Release()
	defer func() {
		if recover() == nil {
			t.Error("second Release did not panic")
		}
	}()
	bs.Release()
}
