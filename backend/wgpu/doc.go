// Package wgpu provides the GPU compute backend for lensed.
//
// The device runs on gogpu/wgpu's HAL layer (Vulkan). Kernel programs are
// written in WGSL and compiled to SPIR-V with gogpu/naga. Build defines are
// emitted as WGSL constants ahead of the program fragments, so the
// per-problem dimensions and the work-group tile are compile-time values.
//
// Importing the package registers the "wgpu" backend:
//
//	import _ "github.com/gogpu/lensed/backend/wgpu"
//
// A host application that already owns a HAL device can share it through
// [FromProvider].
package wgpu
