package backend

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/gogpu/lensed/gpucore"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection. The HAL backend is preferred;
	// the software device is the reference.
	backendPriority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Default returns the name of the preferred registered backend,
// or "" if none is registered.
func Default() string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if names := ordered(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// ordered returns the registered backend names in priority order, the
// backends outside backendPriority last and sorted. The caller holds
// registryMu.
func ordered() []string {
	names := make([]string, 0, len(backends))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range backends {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Acquire creates a device from the named backend. An empty name tries the
// registered backends in priority order and returns the first device of the
// requested class; a backend without such a device is skipped. There is no
// fallback to another device class.
func Acquire(name string, opts Options) (gpucore.Device, error) {
	if name != "" {
		registryMu.RLock()
		factory, ok := backends[name]
		registryMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotAvailable, name, Available())
		}
		return factory(opts)
	}

	registryMu.RLock()
	names := ordered()
	factories := make([]Factory, len(names))
	for i, n := range names {
		factories[i] = backends[n]
	}
	registryMu.RUnlock()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no backend registered", ErrBackendNotAvailable)
	}

	var errs []error
	for i, factory := range factories {
		dev, err := factory(opts)
		if err == nil {
			return dev, nil
		}
		if !errors.Is(err, gpucore.ErrNoDevice) {
			return nil, fmt.Errorf("backend %s: %w", names[i], err)
		}
		opts.notify(fmt.Sprintf("backend %s: %v", names[i], err))
		errs = append(errs, fmt.Errorf("backend %s: %w", names[i], err))
	}
	return nil, errors.Join(errs...)
}
