package binner

import (
	"math"
	"sort"
	"testing"

	"github.com/hupe1980/bitdex/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type celsius float32

func TestClassOf(t *testing.T) {
	assert.Equal(t, ClassUnsigned, ClassOf[uint16]())
	assert.Equal(t, ClassSigned, ClassOf[int8]())
	assert.Equal(t, ClassFloat, ClassOf[float64]())
	assert.Equal(t, ClassFloat, ClassOf[celsius]())
	assert.Equal(t, uint(32), Width[celsius]())
	assert.Equal(t, uint(8), Width[int8]())
}

func TestOrder_Signed(t *testing.T) {
	assert.Equal(t, uint64(0), Order(int8(math.MinInt8)))
	assert.Equal(t, uint64(0x7f), Order(int8(-1)))
	assert.Equal(t, uint64(0x80), Order(int8(0)))
	assert.Equal(t, uint64(0xff), Order(int8(math.MaxInt8)))
	assert.Equal(t, uint64(1)<<63, Order(int64(0)))
	assert.Equal(t, uint64(math.MaxUint64), Order(int64(math.MaxInt64)))
	assert.Equal(t, uint64(42), Order(uint32(42)))
}

func TestOrder_Preserving(t *testing.T) {
	rng := testutil.NewRNG(4711)

	ints := rng.Int64s(500, math.MinInt64, math.MaxInt64)
	ints = append(ints, math.MinInt64, -1, 0, 1, math.MaxInt64)
	sort.Slice(ints, func(i, j int) bool { return ints[i] < ints[j] })
	for i := 1; i < len(ints); i++ {
		if ints[i-1] < ints[i] {
			assert.Less(t, Order(ints[i-1]), Order(ints[i]))
		}
	}

	floats := rng.Float64s(500, 1e6)
	floats = append(floats, math.Inf(-1), -math.MaxFloat64, -math.SmallestNonzeroFloat64,
		math.SmallestNonzeroFloat64, math.MaxFloat64, math.Inf(1))
	sort.Float64s(floats)
	for i := 1; i < len(floats); i++ {
		if floats[i-1] < floats[i] {
			assert.Less(t, Order(floats[i-1]), Order(floats[i]), "%g < %g", floats[i-1], floats[i])
		}
	}
}

func TestOrder_Zero(t *testing.T) {
	assert.Equal(t, Order(0.0), Order(math.Copysign(0, -1)))
	assert.Equal(t, Order(float32(0)), Order(float32(math.Copysign(0, -1))))
	assert.Less(t, Order(float32(-1)), Order(float32(0)))
	assert.Less(t, Order(float32(0)), Order(float32(1)))
	assert.Less(t, Order(float32(-2)), Order(float32(-1)))
}

func TestPrecision(t *testing.T) {
	_, err := NewPrecision[float32](24)
	require.ErrorIs(t, err, ErrInvalidDigits)
	_, err = NewPrecision[float64](0)
	require.ErrorIs(t, err, ErrInvalidDigits)

	p, err := NewPrecision[float64](10)
	require.NoError(t, err)
	assert.Equal(t, Config{Kind: KindPrecision, Digits: 10}, p.Config())

	// Values that differ only in low mantissa bits share a bin.
	assert.Equal(t, p.Bin(1.0), p.Bin(1.0+1e-9))
	assert.NotEqual(t, p.Bin(1.0), p.Bin(2.0))
	assert.Less(t, p.Bin(-3.5), p.Bin(-3.0))

	rng := testutil.NewRNG(3)
	values := rng.Float64s(300, 1e3)
	sort.Float64s(values)
	for i := 1; i < len(values); i++ {
		assert.LessOrEqual(t, p.Bin(values[i-1]), p.Bin(values[i]))
	}

	ip, err := NewPrecision[int32](5)
	require.NoError(t, err)
	assert.Equal(t, Order(int32(-12345)), ip.Bin(-12345))
}

func TestDecimal(t *testing.T) {
	_, err := NewDecimal[float64](19)
	require.ErrorIs(t, err, ErrInvalidDigits)

	d, err := NewDecimal[float64](2)
	require.NoError(t, err)
	assert.Equal(t, int64(314), d.Scale(3.14159))
	assert.Equal(t, int64(-315), d.Scale(-3.146))
	assert.Equal(t, d.Bin(3.14159), d.Bin(3.141))
	assert.Less(t, d.Bin(-1.0), d.Bin(1.0))
	assert.Equal(t, int64(math.MaxInt64), d.Scale(1e300))
	assert.Equal(t, int64(math.MinInt64), d.Scale(-1e300))

	coarse, err := NewDecimal[int64](-2)
	require.NoError(t, err)
	assert.Equal(t, int64(12), coarse.Scale(1234))
	assert.Equal(t, int64(13), coarse.Scale(1250))
	assert.Equal(t, int64(-13), coarse.Scale(-1250))
	assert.Equal(t, int64(-12), coarse.Scale(-1249))

	fine, err := NewDecimal[uint64](3)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), fine.Scale(7))
	assert.Equal(t, int64(math.MaxInt64), fine.Scale(math.MaxUint64))

	rng := testutil.NewRNG(9)
	values := rng.Int64s(300, -1e6, 1e6)
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i := 1; i < len(values); i++ {
		assert.LessOrEqual(t, coarse.Bin(values[i-1]), coarse.Bin(values[i]))
	}
}

func TestBool(t *testing.T) {
	var b Bool
	assert.Equal(t, uint64(0), b.Bin(false))
	assert.Equal(t, uint64(1), b.Bin(true))
	assert.Equal(t, KindBool, b.Config().Kind)
}

func TestConfig_RoundTrip(t *testing.T) {
	for _, c := range []Config{
		{Kind: KindIdentity},
		{Kind: KindPrecision, Digits: 7},
		{Kind: KindDecimal, Digits: -3},
		{Kind: KindBool},
	} {
		data := c.AppendBinary(nil)
		got, rest, err := DecodeConfig(append(data, 0xaa))
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.Equal(t, []byte{0xaa}, rest)
	}

	_, _, err := DecodeConfig([]byte{9, 0})
	require.ErrorIs(t, err, ErrUnknownKind)
	_, _, err = DecodeConfig([]byte{1})
	require.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	b, err := FromConfig[float64](Config{Kind: KindDecimal, Digits: 1})
	require.NoError(t, err)
	assert.Equal(t, Config{Kind: KindDecimal, Digits: 1}, b.Config())

	_, err = FromConfig[float64](Config{Kind: KindPrecision, Digits: 99})
	require.ErrorIs(t, err, ErrInvalidDigits)

	_, err = FromConfig[int](Config{Kind: KindBool})
	require.ErrorIs(t, err, ErrUnknownKind)
}
