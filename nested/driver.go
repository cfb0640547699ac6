package nested

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Driver runs a search over parameter space, calling eval for every point
// and dump periodically and at termination. Run returns the first error
// reported by a callback.
type Driver interface {
	Name() string
	Run(ctx context.Context, cfg Config, eval LikelihoodEvaluator, dump StateDumper) error
}

// StdoutWriter is implemented by drivers that write progress directly to
// the process standard output. lensed redirects stdout to the run log for
// the duration of Run.
type StdoutWriter interface {
	WritesStdout() bool
}

// LateFlusher is implemented by drivers whose buffered stdout output may
// be flushed after Run returns. lensed leaves stdout redirected to the run
// log after such a driver finishes.
type LateFlusher interface {
	FlushesLate() bool
}

// Factory creates a driver.
type Factory func() Driver

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a driver available by name. Registering a name twice
// replaces the previous factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New creates the driver registered under name.
func New(name string) (Driver, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownDriver, name, Names())
	}
	return f(), nil
}

// Names returns the sorted names of registered drivers.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
