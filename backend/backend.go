package backend

import (
	"errors"

	"github.com/gogpu/lensed/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend names.
const (
	// BackendWGPU is the gogpu/wgpu HAL backend.
	BackendWGPU = "wgpu"

	// BackendSoftware is the pure-Go reference backend.
	BackendSoftware = "software"
)

// Options configure device acquisition.
type Options struct {
	// Class selects a CPU or GPU device. Backends never substitute
	// another class when the requested one is missing.
	Class gpucore.DeviceClass

	// Notify receives backend diagnostics. May be nil.
	Notify gpucore.NotifyFunc
}

// notify forwards msg to the sink if one is set.
func (o Options) notify(msg string) {
	if o.Notify != nil {
		o.Notify(msg)
	}
}

// Notifier returns the notification sink, or a no-op when none is set.
func (o Options) Notifier() gpucore.NotifyFunc {
	return o.notify
}

// Factory acquires a device from a backend.
type Factory func(opts Options) (gpucore.Device, error)
