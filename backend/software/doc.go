// Package software provides a pure-Go compute device for lensed.
//
// The device implements gpucore.Device on host memory. Kernel programs are
// not compiled: each entry point is backed by a Go [KernelFunc], either
// registered globally with [RegisterKernel] (used by the "software" backend
// factory) or passed to [New] with [WithKernels].
//
// The device is the reference for kernel authors and the target of the
// test suite; it makes the likelihood bridge testable without a GPU.
package software
