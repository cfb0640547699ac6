// Package gpucore provides shared compute abstractions for lensed.
//
// This package defines the [Device] interface, which abstracts over the
// compute backends a likelihood can be evaluated on:
//   - gogpu/wgpu (Pure Go WebGPU via HAL, see backend/wgpu)
//   - the pure-Go software device (see backend/software)
//
// # Architecture
//
// The bridge and buffer management are implemented once against [Device],
// while thin backends translate to a specific API:
//
//	               +-----------------+
//	               |     lensed      |
//	               | (Bridge, Buffers)|
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|  wgpu backend   |          | software backend|
//	|  (hal.Device)   |          |  (Go kernels)   |
//	+--------+--------+          +-----------------+
//	         |
//	+--------v--------+
//	|   gogpu/wgpu    |
//	|   (Pure Go)     |
//	+-----------------+
//
// # Work distribution
//
// [PlanWorkGroups] computes the 2-D tiling shared by every per-pixel
// dispatch. The plan is deterministic for a given image size and device
// limit.
//
// # Resource IDs
//
// Resources are referred to by opaque uint64 IDs. Zero is never a valid ID.
package gpucore
