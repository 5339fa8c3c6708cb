package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetSet(t *testing.T) {
	c := New[string]("test", 10, time.Minute, nil, nil)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k1", "v1")
	v, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictsOldestWhenFull(t *testing.T) {
	c := New[int]("test", 2, time.Minute, nil, nil)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New[int]("test", 10, 20*time.Millisecond, nil, nil)

	c.Set("k", 1)
	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Purge(t *testing.T) {
	c := New[int]("test", 10, time.Minute, nil, nil)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()

	assert.Equal(t, 0, c.Len())
}

func TestCache_DefaultsOnInvalidConfig(t *testing.T) {
	c := New[int]("test", 0, 0, nil, nil)

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
