// Package cache provides the process-wide TTL query cache. Entries memoize
// idempotent read results for a bounded duration; writers invalidate whole
// resource families by key substring, trading precision for freshness.
package cache

import (
	"strings"
	"sync"
	"time"
)

// TTLs by resource volatility.
const (
	TTLFeed      = 120 * time.Second // community feeds change often
	TTLCatalog   = 300 * time.Second // courses, lessons, schedules
	TTLAggregate = 600 * time.Second // user-scoped aggregates
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is an unbounded key/value store with per-entry expiry. Expiry is the
// only removal mechanism besides explicit invalidation; there is no LRU.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the stored value while it has not expired. An expired entry is
// treated as absent and evicted lazily.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// re-check under the write lock; a concurrent Set may have refreshed it
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value with expiry now+ttl, overwriting any existing entry
// unconditionally. Last write wins.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate deletes every entry whose key contains pattern as a substring.
func (c *Cache) Invalidate(pattern string) {
	c.mu.Lock()
	for k := range c.entries {
		if strings.Contains(k, pattern) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// InvalidateAll clears the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
