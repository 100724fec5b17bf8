package cache

import (
	"context"
	"testing"

	"github.com/hupe1980/bitdex/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_Eviction(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	c := NewLRU(50, rc)
	ctx := context.Background()

	c.Set(ctx, "a", make([]byte, 20))
	c.Set(ctx, "b", make([]byte, 20))
	assert.Equal(t, int64(40), c.Size())
	assert.Equal(t, int64(40), rc.MemoryUsage())

	// Touch a so that b is the eviction candidate.
	_, ok := c.Get(ctx, "a")
	require.True(t, ok)

	c.Set(ctx, "c", make([]byte, 20))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(40), rc.MemoryUsage())

	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_TooLarge(t *testing.T) {
	c := NewLRU(10, nil)
	c.Set(context.Background(), "big", make([]byte, 11))

	_, ok := c.Get(context.Background(), "big")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
}

func TestLRU_Replace(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	c := NewLRU(100, rc)
	ctx := context.Background()

	c.Set(ctx, "k", make([]byte, 30))
	c.Set(ctx, "k", []byte("new"))

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "new", string(got))
	assert.Equal(t, int64(3), c.Size())
	assert.Equal(t, int64(3), rc.MemoryUsage())
}

func TestLRU_ControllerRefuses(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	require.True(t, rc.TryAcquireMemory(8))

	c := NewLRU(100, rc)
	c.Set(context.Background(), "k", make([]byte, 5))
	assert.Zero(t, c.Len())
}

func TestLRU_Invalidate(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	c := NewLRU(100, rc)
	ctx := context.Background()

	c.Set(ctx, "k", make([]byte, 10))
	c.Invalidate("k")
	c.Invalidate("missing")

	assert.Zero(t, c.Size())
	assert.Zero(t, rc.MemoryUsage())
}
