package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent device resources. Each backend maintains a
// mapping between IDs and its own buffers, programs and kernels.

// BufferID is an opaque handle to a device buffer.
type BufferID uint64

// ProgramID is an opaque handle to a compiled kernel program.
type ProgramID uint64

// KernelID is an opaque handle to a kernel entry point with bound arguments.
type KernelID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// MemFlags is a bitmask describing how a buffer is accessed by kernels and
// by the host.
type MemFlags uint32

// Memory flags.
const (
	// MemReadOnly buffers are only read by kernels.
	MemReadOnly MemFlags = 1 << 0

	// MemWriteOnly buffers are only written by kernels.
	MemWriteOnly MemFlags = 1 << 1

	// MemReadWrite buffers are read and written by kernels.
	MemReadWrite MemFlags = 1 << 2

	// MemHostWrite buffers are written by the host after creation.
	MemHostWrite MemFlags = 1 << 3

	// MemHostRead buffers are read back by the host.
	MemHostRead MemFlags = 1 << 4
)

// KernelWritable reports whether kernels may write to the buffer.
func (f MemFlags) KernelWritable() bool {
	return f&(MemWriteOnly|MemReadWrite) != 0
}

// String returns a compact representation such as "ro|host-write".
func (f MemFlags) String() string {
	var s string
	add := func(flag MemFlags, name string) {
		if f&flag == 0 {
			return
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	add(MemReadOnly, "ro")
	add(MemWriteOnly, "wo")
	add(MemReadWrite, "rw")
	add(MemHostWrite, "host-write")
	add(MemHostRead, "host-read")
	if s == "" {
		return "none"
	}
	return s
}

// DeviceClass selects the kind of compute device to acquire.
type DeviceClass int

const (
	// DeviceCPU selects a multi-core CPU device.
	DeviceCPU DeviceClass = iota
	// DeviceGPU selects a discrete or integrated GPU.
	DeviceGPU
)

// String returns "CPU" or "GPU".
func (c DeviceClass) String() string {
	switch c {
	case DeviceCPU:
		return "CPU"
	case DeviceGPU:
		return "GPU"
	default:
		return fmt.Sprintf("DeviceClass(%d)", int(c))
	}
}

// DeviceInfo describes an acquired device.
type DeviceInfo struct {
	// Name is the adapter name reported by the backend.
	Name string

	// Backend is the registered backend name (e.g. "wgpu", "software").
	Backend string

	// Class is the device class that was requested and found.
	Class DeviceClass

	// MaxWorkGroupSize is the maximum number of work-items in one work-group.
	MaxWorkGroupSize int
}

// String returns a human-readable description of the device.
func (i DeviceInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", i.Name, i.Class, i.Backend)
}

// BufferDesc describes a device buffer.
type BufferDesc struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Flags describes kernel and host access.
	Flags MemFlags

	// Contents, if non-nil, is copied into the buffer at creation.
	// Its length must not exceed Size.
	Contents []byte
}

// Define is a compile-time integer constant made available to kernel code.
type Define struct {
	Name  string
	Value int64
}

// BuildOptions carries compiler flags and compile-time constants.
type BuildOptions struct {
	// Flags are backend compiler flags. Backends ignore flags they
	// do not understand.
	Flags []string

	// Defines are compile-time constants, in declaration order.
	Defines []Define
}

// String renders the options in compiler command-line form,
// e.g. "-cl-mad-enable -DWIDTH=64".
func (o BuildOptions) String() string {
	var s string
	for _, f := range o.Flags {
		if s != "" {
			s += " "
		}
		s += f
	}
	for _, d := range o.Defines {
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("-D%s=%d", d.Name, d.Value)
	}
	return s
}

// Lookup returns the value of a define.
func (o BuildOptions) Lookup(name string) (int64, bool) {
	for _, d := range o.Defines {
		if d.Name == name {
			return d.Value, true
		}
	}
	return 0, false
}

// ProgramDesc describes a kernel program compiled from source fragments.
type ProgramDesc struct {
	// Label is an optional debug label.
	Label string

	// Fragments are compiled together as one unit, in order.
	Fragments []string

	// Options are applied to the compilation.
	Options BuildOptions
}

// KernelDesc describes a kernel entry point with its argument buffers.
type KernelDesc struct {
	// Program is the compiled program containing the entry point.
	Program ProgramID

	// EntryPoint is the kernel function name.
	EntryPoint string

	// Args are the buffers bound to the kernel, in argument order.
	Args []BufferID

	// Bindings gives the shader binding slot of each argument.
	// Nil means the slot equals the argument index.
	Bindings []uint32
}

// Binding returns the binding slot of argument i.
func (k *KernelDesc) Binding(i int) uint32 {
	if i < len(k.Bindings) {
		return k.Bindings[i]
	}
	return uint32(i) //nolint:gosec // argument count is small
}

// Size2 is a two-dimensional work size.
type Size2 [2]int

// Count returns the number of items covered by the size.
func (s Size2) Count() int { return s[0] * s[1] }

// Float2 matches a two-component float vector on the device.
type Float2 struct {
	X, Y float32
}

// Float4 matches a four-component float vector on the device.
type Float4 struct {
	S [4]float32
}
