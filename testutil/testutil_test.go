package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBits(t *testing.T) {
	rng := NewRNG(4711)

	bits := rng.Bits(1000)

	assert.Len(t, bits, 1000)
	assert.NotEmpty(t, Positions(bits))
	assert.Less(t, len(Positions(bits)), 1000)
}

func TestInt64s(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.Int64s(200, -5, 5)
	assert.Len(t, v, 200)
	for _, x := range v {
		assert.GreaterOrEqual(t, x, int64(-5))
		assert.LessOrEqual(t, x, int64(5))
	}

	full := rng.Int64s(10, math.MinInt64, math.MaxInt64)
	assert.Len(t, full, 10)
}

func TestFloat64s(t *testing.T) {
	rng := NewRNG(4711)

	for _, x := range rng.Float64s(100, 10) {
		assert.Less(t, math.Abs(x), 10.0)
	}
}

func TestZipfKeys(t *testing.T) {
	rng := NewRNG(4711)

	keys := rng.ZipfKeys(1000, 20, 1.5)
	counts := make([]int, 20)
	for _, k := range keys {
		assert.Less(t, k, uint64(20))
		counts[k]++
	}
	assert.Greater(t, counts[0], counts[19])
}

func TestMatch(t *testing.T) {
	values := []int{1, 2, 3, 4}
	skip := []bool{false, true, false, false}

	got := Match(values, skip, func(v int) bool { return v%2 == 0 || v == 1 })
	assert.Equal(t, []bool{true, false, false, true}, got)
	assert.Equal(t, []uint64{0, 3}, Positions(got))
	assert.Equal(t, []bool{false, true}, Match([]int{1, 2}, nil, func(v int) bool { return v == 2 }))
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.Uint64()
	rng.Reset()
	assert.Equal(t, a, rng.Uint64())
	assert.Equal(t, int64(4711), rng.Seed())
}
