package software

import (
	"sort"
	"sync"

	"github.com/gogpu/lensed/gpucore"
)

// Invocation is passed to a KernelFunc once per work-item.
type Invocation struct {
	// GlobalID is the work-item position in the padded global range.
	GlobalID gpucore.Size2

	// GlobalSize is the padded global range of the dispatch.
	GlobalSize gpucore.Size2

	// Args are the kernel's argument buffers, in argument order.
	Args []Memory

	// Options are the program's build options.
	Options *gpucore.BuildOptions
}

// Define returns a compile-time constant of the program, or 0 if unset.
func (inv *Invocation) Define(name string) int {
	v, _ := inv.Options.Lookup(name)
	return int(v)
}

// KernelFunc is the Go implementation of a kernel entry point.
//
// Like device kernels, a KernelFunc runs for every item of the padded
// global range and must ignore items outside the problem bounds.
type KernelFunc func(inv *Invocation)

// Kernels maps entry point names to implementations.
type Kernels map[string]KernelFunc

var (
	kernelsMu sync.RWMutex
	kernels   = make(Kernels)
)

// RegisterKernel makes a kernel implementation available to every device
// created by the registered "software" backend factory.
func RegisterKernel(entryPoint string, fn KernelFunc) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	kernels[entryPoint] = fn
}

// UnregisterKernel removes a registered kernel. Useful for tests.
func UnregisterKernel(entryPoint string) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	delete(kernels, entryPoint)
}

// RegisteredKernels returns the sorted names of registered kernels.
func RegisteredKernels() []string {
	kernelsMu.RLock()
	defer kernelsMu.RUnlock()
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// registeredKernels snapshots the global kernel table.
func registeredKernels() Kernels {
	kernelsMu.RLock()
	defer kernelsMu.RUnlock()
	out := make(Kernels, len(kernels))
	for k, v := range kernels {
		out[k] = v
	}
	return out
}
