// Package lensed fits a parametric image model to observed pixel data by
// evaluating its likelihood on a parallel compute device, driven by an
// external sampler.
//
// # Overview
//
// lensed is the bridge between a sampling driver and a compute device.
// It provisions the device, builds the per-problem kernel program, plans
// the per-pixel work distribution, keeps data and parameters in device
// memory, and answers the driver's two callbacks:
//
//   - LogLike: upload a parameter vector, run the likelihood kernel, and
//     reduce the per-pixel log-likelihood over the unmasked pixels.
//   - Dump: record the driver's summary and render the maximum-likelihood
//     model, residuals and chi-square per pixel.
//
// # Quick Start
//
//	in := &lensed.Input{Objects: objs, Source: src, Sampler: nested.DefaultConfig()}
//	drv, _ := nested.New("prior")
//	res, err := lensed.Run(ctx, in, img, drv, lensed.WithBackend("software"))
//
// # Kernel program
//
// The program is built from source fragments plus the compile-time
// constants WIDTH, HEIGHT, NQ, LOCAL_X and LOCAL_Y. It must provide three
// entry points whose arguments are bound at the slots listed by the
// Binding constants:
//
//	set_params(object, params)
//	loglike(object, qq, ww, mean, variance, loglike)
//	dumper(object, qq, ww, mean, variance, dumper)
//
// The model package generates such programs for its built-in components.
//
// # Architecture
//
// The package is organized into:
//   - Device layer: gpucore (interface, planning), backend (registry),
//     backend/wgpu (GPU) and backend/software (pure Go)
//   - Core: AcquireDevice, BuildProgram, AllocateBuffers, Bridge, Finalize
//   - Collaborators: nested (drivers), quadrature, model, config, data, report
package lensed

// Version information
const (
	// Version is the current version of lensed.
	Version = "0.9.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 9

	// VersionPatch is the patch version
	VersionPatch = 0
)
