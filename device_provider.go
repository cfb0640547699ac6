//go:build !nogpu

package lensed

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/lensed/backend/wgpu"
)

// DeviceFromProvider shares a GPU device owned by a host application, such
// as a gogpu window. The device is not destroyed on Release.
func DeviceFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	dev, err := wgpu.FromProvider(provider, func(msg string) {
		Logger().Debug("device notification", "msg", msg)
	})
	if err != nil {
		return nil, &DeviceError{Op: "adopt provider device", Err: err}
	}
	return WrapDevice(dev), nil
}
