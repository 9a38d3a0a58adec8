package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryQuantityCache implements the quantity cache with process-local
// storage. Suitable for single-instance deployments and tests; entries
// expire lazily on read.
type InMemoryQuantityCache struct {
	mu      sync.RWMutex
	entries map[string]quantityEntry
}

type quantityEntry struct {
	value     int64
	expiresAt time.Time
}

func (e quantityEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// NewInMemoryQuantityCache creates an empty in-memory quantity cache
func NewInMemoryQuantityCache() *InMemoryQuantityCache {
	return &InMemoryQuantityCache{
		entries: make(map[string]quantityEntry),
	}
}

// Get returns the cached value for key and whether it was present
func (c *InMemoryQuantityCache) Get(_ context.Context, key string) (int64, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return 0, false
	}
	if entry.isExpired() {
		c.mu.Lock()
		// re-check under the write lock, a Set may have raced us
		if current, ok := c.entries[key]; ok && current.isExpired() {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return 0, false
	}
	return entry.value, true
}

// Set stores the value for key with a TTL
func (c *InMemoryQuantityCache) Set(_ context.Context, key string, value int64, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = quantityEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete drops keys from the cache
func (c *InMemoryQuantityCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// Len returns the number of entries currently held, expired or not
func (c *InMemoryQuantityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
