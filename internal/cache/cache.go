// Package cache provides a small bounded cache for values derived from
// long-lived keys, such as per-program tables decoded from build options.
package cache

import (
	"slices"
	"sync"
)

// Cache maps keys to values and evicts the least recently used quarter of
// its entries when it grows past its limit. It is safe for concurrent use
// and must not be copied.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	limit   int
	tick    uint64
}

type entry[V any] struct {
	value V
	used  uint64
}

// New returns a cache holding about limit entries. A limit of 0 means
// unbounded.
func New[K comparable, V any](limit int) *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]*entry[V]), limit: limit}
}

// Get returns the value for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.tick++
	e.used = c.tick
	return e.value, true
}

// GetOrCreate returns the value for key, calling create to build it on a
// miss. create runs under the cache lock, so it is called at most once per
// key while the entry is cached.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	if e, ok := c.entries[key]; ok {
		e.used = c.tick
		return e.value
	}
	v := create()
	c.entries[key] = &entry[V]{value: v, used: c.tick}
	if c.limit > 0 && len(c.entries) > c.limit {
		c.evict()
	}
	return v
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evict drops the oldest entries down to three quarters of the limit.
// The caller holds c.mu.
func (c *Cache[K, V]) evict() {
	keep := max(c.limit*3/4, 1)
	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b K) int {
		ua, ub := c.entries[a].used, c.entries[b].used
		switch {
		case ua < ub:
			return -1
		case ua > ub:
			return 1
		}
		return 0
	})
	for _, k := range keys[:len(keys)-keep] {
		delete(c.entries, k)
	}
}
