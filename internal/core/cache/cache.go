// Package cache provides a small generic TTL cache with lazy eviction.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache maps keys to values that expire after a fixed TTL. Entries are
// evicted lazily on read; writes are last-writer-wins.
type Cache[K comparable, V any] struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[K]entry[V]
}

// New creates a cache whose entries expire after ttl.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
	}
}

// Get returns the cached value and whether it is present and fresh.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if time.Since(e.storedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under write lock; another writer may have refreshed it.
		if cur, ok := c.entries[key]; ok && time.Since(cur.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value, resetting its TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: time.Now()}
	c.mu.Unlock()
}

// Delete removes a key.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including any not yet evicted.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge removes every expired entry. Callers may run it periodically; the
// cache stays correct without it.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if time.Since(e.storedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}
