// Package geocache provides the in-memory TTL cache shared by the geo/POI
// provider clients. It replaces per-call provider lookups with a
// process-wide cache keyed by rounded coordinates and radius.
package geocache

import (
	"fmt"
	"sync"
	"time"
)

// Key builds a cache key from coordinates rounded to 4 decimal places
// (~11 m) plus the query radius, so escalated-radius queries don't collide.
func Key(provider string, lat, lon float64, radiusMeters int) string {
	return fmt.Sprintf("%s|%.4f|%.4f|%d", provider, lat, lon, radiusMeters)
}

type entry[V any] struct {
	value      V
	expiresAt  time.Time
	lastSeenAt time.Time
}

// Cache is a concurrency-safe TTL cache with a max-entry cap. When the cap
// is exceeded the least-recently-considered entry is evicted. The clock is
// injectable for deterministic tests.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock sets the time source, for testing.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		c.now = now
	}
}

// New creates a cache with the given TTL and entry cap.
func New[V any](ttl time.Duration, maxEntries int, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		entries:    make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	now := c.now()
	if now.After(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	e.lastSeenAt = now
	c.entries[key] = e
	return e.value, true
}

// Set stores a value under key. Concurrent writers to the same key simply
// overwrite each other; values for one key are equivalent so the race is
// harmless.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = entry[V]{
		value:      value,
		expiresAt:  now.Add(c.ttl),
		lastSeenAt: now,
	}

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictOldest()
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest drops the least-recently-considered entry. Caller holds mu.
func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.lastSeenAt.Before(oldest) {
			oldestKey = k
			oldest = e.lastSeenAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
