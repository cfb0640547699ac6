package lensed

import (
	"context"

	"github.com/gogpu/lensed/backend"
	"github.com/gogpu/lensed/gpucore"

	// Register the pure-Go backend so a CPU device is always available.
	_ "github.com/gogpu/lensed/backend/software"
)

// DeviceOptions select the compute device.
type DeviceOptions struct {
	// PreferGPU requests a GPU device; otherwise a CPU device. There is no
	// fallback to the other class.
	PreferGPU bool

	// Backend names the backend to use. Empty selects the first registered
	// backend, in priority order, with a device of the requested class.
	Backend string

	// Notify receives backend diagnostics. Nil logs them at debug level.
	Notify gpucore.NotifyFunc
}

// Device is a compute device with its single in-order queue.
type Device struct {
	gpucore.Device
	owned bool
}

// AcquireDevice selects a device of the requested class and opens it.
func AcquireDevice(ctx context.Context, opts DeviceOptions) (*Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DeviceError{Op: "acquire", Err: err}
	}
	class := gpucore.DeviceCPU
	if opts.PreferGPU {
		class = gpucore.DeviceGPU
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(msg string) { Logger().Debug("device notification", "msg", msg) }
	}

	dev, err := backend.Acquire(opts.Backend, backend.Options{Class: class, Notify: notify})
	if err != nil {
		return nil, &DeviceError{Op: "acquire " + class.String(), Err: err}
	}
	d := &Device{Device: dev, owned: true}
	trackDevice(d)
	Logger().Info("lensed: device acquired", "device", dev.Info().String())
	return d, nil
}

// WrapDevice adopts a device created by the caller. Release leaves it open.
func WrapDevice(dev gpucore.Device) *Device {
	d := &Device{Device: dev}
	trackDevice(d)
	return d
}

// Release destroys the device if lensed opened it.
func (d *Device) Release() {
	untrackDevice(d)
	if d.owned {
		d.Destroy()
	}
}
