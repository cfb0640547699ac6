package lensed

import (
	"github.com/gogpu/lensed/quadrature"
)

// Option configures a Run.
//
// Example:
//
//	// CPU run on the pure-Go device, no files written
//	res, err := lensed.Run(ctx, in, img, drv, lensed.WithBackend("software"))
//
//	// GPU run writing <root>kernel.wgsl and <root>log.txt
//	res, err := lensed.Run(ctx, in, img, drv, lensed.WithGPU(true), lensed.WithOutput("out/fit-"))
type Option func(*runOptions)

// runOptions holds the optional configuration of a run.
type runOptions struct {
	gpu     bool
	backend string
	device  *Device
	output  bool
	root    string
	rule    quadrature.Provider
	runID   string
}

// defaultOptions returns the default run options.
func defaultOptions() runOptions {
	return runOptions{
		rule: quadrature.GaussLegendre(quadrature.DefaultOrder),
	}
}

// WithGPU selects a GPU device instead of a CPU device.
func WithGPU(gpu bool) Option {
	return func(o *runOptions) {
		o.gpu = gpu
	}
}

// WithBackend selects the device backend by name.
func WithBackend(name string) Option {
	return func(o *runOptions) {
		o.backend = name
	}
}

// WithDevice runs on a device the caller owns, for example one from
// DeviceFromProvider. Run does not release it.
func WithDevice(d *Device) Option {
	return func(o *runOptions) {
		o.device = d
	}
}

// WithOutput enables file output with the given path prefix: the kernel
// source artifact <root>kernel.wgsl and the driver log <root>log.txt.
// Drivers write their own files under the same root.
func WithOutput(root string) Option {
	return func(o *runOptions) {
		o.output = true
		o.root = root
	}
}

// WithQuadrature sets the per-pixel quadrature rule.
func WithQuadrature(p quadrature.Provider) Option {
	return func(o *runOptions) {
		if p != nil {
			o.rule = p
		}
	}
}

// WithRunID sets the run identifier. By default a random UUID is used.
func WithRunID(id string) Option {
	return func(o *runOptions) {
		o.runID = id
	}
}
