package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCache(now *time.Time) *Cache {
	c := New()
	c.now = func() time.Time { return *now }
	return c
}

func TestCache_GetSet(t *testing.T) {
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(&now)

	_, ok := c.Get("courses:0:20")
	assert.False(t, ok)

	c.Set("courses:0:20", "v1", TTLCatalog)
	got, ok := c.Get("courses:0:20")
	assert.True(t, ok)
	assert.Equal(t, "v1", got)

	// overwrite is unconditional; last write wins
	c.Set("courses:0:20", "v2", TTLCatalog)
	got, _ = c.Get("courses:0:20")
	assert.Equal(t, "v2", got)
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(&now)

	c.Set("posts:0:50", 42, TTLFeed)

	now = now.Add(TTLFeed - time.Second)
	got, ok := c.Get("posts:0:50")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("posts:0:50")
	assert.False(t, ok)
	// expired entry was evicted lazily on lookup
	assert.Equal(t, 0, c.Len())
}

func TestCache_InvalidatePattern(t *testing.T) {
	now := time.Now()
	c := newTestCache(&now)

	c.Set("courses", 1, TTLCatalog)
	c.Set("courses:0:20:formal", 2, TTLCatalog)
	c.Set("lessons:7", 3, TTLCatalog)

	c.Invalidate("courses")

	_, ok := c.Get("courses")
	assert.False(t, ok)
	_, ok = c.Get("courses:0:20:formal")
	assert.False(t, ok)

	got, ok := c.Get("lessons:7")
	assert.True(t, ok)
	assert.Equal(t, 3, got)
}

func TestCache_InvalidateAllIdempotent(t *testing.T) {
	now := time.Now()
	c := newTestCache(&now)

	c.Set("a", 1, time.Minute)
	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())

	// clearing an empty cache is a no-op, not an error
	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(Key("enrollments", n, j), j, time.Minute)
				c.Get(Key("enrollments", n, j))
				if j%10 == 0 {
					c.Invalidate("enrollments")
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestKey(t *testing.T) {
	assert.Equal(t, "courses", Key("courses"))
	assert.Equal(t, "courses:0:20:formal:<nil>", Key("courses", 0, 20, "formal", nil))
	assert.Equal(t, "attendance:3:9", Key("attendance", 3, 9))
}

func TestKey_EscapesCallerStrings(t *testing.T) {
	// a caller-supplied string carrying the separator must not alias the key
	// of a differently-shaped read
	assert.NotEqual(t, Key("certificates", 5, 7), Key("certificates", "5:7"))
	assert.NotEqual(t, Key("certificates", "nonformal", 7), Key("certificates", "nonformal:7"))
	assert.NotEqual(t, Key("courses", 0, 20, "a", "b:c"), Key("courses", 0, 20, "a:b", "c"))

	// escaping is unambiguous: a literal "%3A" is not confused with an
	// escaped ':'
	assert.NotEqual(t, Key("certificates", "a:b"), Key("certificates", "a%3Ab"))
}
