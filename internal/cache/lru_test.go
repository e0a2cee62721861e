package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLRU(size int, ttl time.Duration) (*LRU[int], *clock) {
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[int](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUGetSet(t *testing.T) {
	c, _ := newTestLRU(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set("b", 20)
	v, _ = c.Get("b")
	assert.Equal(t, 20, v)
	assert.Equal(t, 2, c.Len())

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestLRU(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestLRU(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	clk.t = clk.t.Add(30 * time.Second)
	c.Set("c", 3)

	clk.t = clk.t.Add(45 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok)

	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Len())
}

func TestLRUJanitorStops(t *testing.T) {
	c := NewLRU[int](1, time.Nanosecond)
	c.Set("a", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c.Janitor(ctx, 5*time.Millisecond)
	assert.Equal(t, 0, c.Len())
}
