// Package backend provides a pluggable compute backend registry.
//
// Backends register a [Factory] from an init() function and are selected
// at runtime by name:
//
//	import _ "github.com/gogpu/lensed/backend/wgpu"
//
//	dev, err := backend.Acquire("wgpu", backend.Options{Class: gpucore.DeviceGPU})
//
// An empty name selects [Default], which prefers the wgpu backend over the
// software reference device. Acquisition never falls back to another
// backend or device class: a missing GPU is an error, not a CPU run.
package backend
