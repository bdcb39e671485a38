// Package cache provides a concurrency-safe in-memory store with per-entry
// expiry. Expired entries are evicted lazily on read; there is no background
// sweep goroutine.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a generic key→value store with per-entry TTL. Entries are stored
// and returned by value; for values with reference semantics (slices, maps)
// the caller must clone on both Set and Get to keep entries isolated.
type Cache[V any] struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]entry[V]
}

// New creates an empty cache using the given time source.
func New[V any](clock clockwork.Clock) *Cache[V] {
	return &Cache[V]{
		clock:   clock,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the live value for key. A key that is absent or whose entry
// has expired is a miss; expired entries are removed on the way out.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	// An entry expires the instant now reaches expiresAt.
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the given TTL, replacing any previous entry.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(ttl)}
}

// Invalidate removes key immediately, if present.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len reports the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
