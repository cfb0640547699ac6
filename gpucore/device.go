package gpucore

// Device abstracts over compute backend implementations.
//
// This interface lets the likelihood bridge work with any backend
// (gogpu/wgpu HAL, the pure-Go software device) without knowing how
// buffers, programs and kernels are represented.
//
// A Device owns exactly one in-order queue. Commands recorded by Dispatch
// execute in submission order; Finish blocks until all of them completed.
// Implementations are not required to be safe for concurrent use.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource while in use is undefined behavior
//   - IDs become invalid after destruction and must not be reused
type Device interface {
	// === Capabilities ===

	// Info describes the device.
	Info() DeviceInfo

	// MaxWorkGroupSize returns the maximum total work-items per work-group.
	MaxWorkGroupSize() int

	// === Buffer Management ===

	// CreateBuffer creates a device buffer, copying desc.Contents if set.
	CreateBuffer(desc *BufferDesc) (BufferID, error)

	// DestroyBuffer releases a device buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer copies host data into a buffer at the given byte offset.
	// The write is ordered before any later Dispatch.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// ReadBuffer copies buffer contents into dst, blocking until all
	// previously recorded work has completed.
	ReadBuffer(id BufferID, offset uint64, dst []byte) error

	// === Programs and Kernels ===

	// CreateProgram compiles source fragments into a program.
	// Compilation failures are reported as *CompileError.
	CreateProgram(desc *ProgramDesc) (ProgramID, error)

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// CreateKernel looks up an entry point and binds its argument buffers.
	CreateKernel(desc *KernelDesc) (KernelID, error)

	// DestroyKernel releases a kernel.
	DestroyKernel(id KernelID)

	// === Execution ===

	// Dispatch records a kernel execution over global work-items grouped
	// into local work-groups. global must be a multiple of local.
	Dispatch(kernel KernelID, global, local Size2) error

	// Finish submits recorded work and waits for completion.
	Finish() error

	// Destroy releases the device, its context and queue.
	Destroy()
}

// NotifyFunc receives diagnostic messages emitted by a backend.
type NotifyFunc func(msg string)
