package geocache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey_RoundsToFourDecimals(t *testing.T) {
	a := Key("places", 37.97760149, -122.031701, 500)
	b := Key("places", 37.97757, -122.0316988, 500)
	assert.Equal(t, a, b)

	c := Key("places", 37.9776, -122.0317, 1000)
	assert.NotEqual(t, a, c, "radius participates in the key")

	d := Key("trails", 37.9776, -122.0317, 500)
	assert.NotEqual(t, a, d, "provider participates in the key")
}

func TestCache_GetSet(t *testing.T) {
	c := New[string](time.Hour, 10)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", "v")
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := New(6*time.Hour, 10, WithClock[int](clock))

	c.Set("k", 42)

	now = now.Add(5 * time.Hour)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry past TTL should be dropped")
}

func TestCache_EvictsLeastRecentlyConsidered(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := New(time.Hour, 2, WithClock[string](clock))

	c.Set("a", "1")
	now = now.Add(time.Minute)
	c.Set("b", "2")
	now = now.Add(time.Minute)

	// Touch "a" so "b" becomes the least recently considered.
	_, ok := c.Get("a")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	c.Set("c", "3")

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted at the cap")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_OverwriteSameKey(t *testing.T) {
	c := New[string](time.Hour, 10)
	c.Set("k", "old")
	c.Set("k", "new")
	got, _ := c.Get("k")
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, c.Len())
}
