package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUint64ToInt(t *testing.T) {
	got, err := Uint64ToInt(0)
	assert.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = Uint64ToInt(uint64(math.MaxInt))
	assert.NoError(t, err)
	assert.Equal(t, math.MaxInt, got)

	_, err = Uint64ToInt(uint64(math.MaxInt) + 1)
	assert.Error(t, err)
}

func TestInt64ToInt(t *testing.T) {
	got, err := Int64ToInt(-42)
	assert.NoError(t, err)
	assert.Equal(t, -42, got)

	got, err = Int64ToInt(1 << 20)
	assert.NoError(t, err)
	assert.Equal(t, 1<<20, got)
}
