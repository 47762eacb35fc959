package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// "b" is now least recently used.
	c.Set("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 2, stats.Size)
}

func TestLRUCache_Overwrite(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("k", "old")
	c.Set("k", "new")
	v, _ := c.Get("k")
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_Expiry(t *testing.T) {
	c := NewLRUCache[int](4, -time.Second)
	c.Set("a", 1)
	c.Set("b", 2)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUCache_DeleteAndPurge(t *testing.T) {
	c := NewLRUCache[int](0, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, 1, c.Size(), "size is at least one")

	c.Delete("b")
	assert.Equal(t, 0, c.Size())

	c.Set("a", 1)
	c.Purge()
	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "v1|ALL", Key("v1", "ALL"))
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	expired := NewLRUCache[int](4, -time.Second)
	expired.Set("a", 1)
	live := NewLRUCache[int](4, time.Hour)
	live.Set("b", 2)

	m := NewManager(nil)
	m.Register(expired)
	m.Register(live)
	assert.Equal(t, 1, m.CleanNow())
	assert.Equal(t, 1, live.Size())

	m.StartCleanup(time.Millisecond)
	m.Stop()
}
