package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(ctx, 20), context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_Concurrency(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 2})
	assert.Equal(t, int64(2), c.Config().MaxBackgroundWorkers)

	require.NoError(t, c.AcquireBackground(context.Background()))
	require.NoError(t, c.AcquireBackground(context.Background()))
	assert.False(t, c.TryAcquireBackground())

	c.ReleaseBackground()
	assert.True(t, c.TryAcquireBackground())
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Larger than the burst, admitted in steps from the initial bucket plus
	// refill.
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20+1024))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.AcquireIO(ctx, 1<<21), context.Canceled)
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	require.NoError(t, c.AcquireMemory(ctx, 10))
	assert.True(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Zero(t, c.MemoryUsage())
	require.NoError(t, c.AcquireBackground(ctx))
	assert.True(t, c.TryAcquireBackground())
	c.ReleaseBackground()
	require.NoError(t, c.AcquireIO(ctx, 1<<30))
	assert.Equal(t, Config{}, c.Config())
}
