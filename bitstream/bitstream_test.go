package bitstream

import (
	"fmt"
	"slices"
	"testing"

	"github.com/hupe1980/bitdex/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kinds = []Kind{KindNull, KindEWAH, KindRoaring}

func fromBools(k Kind, bits []bool) BitStream {
	b := New(k)
	for _, bit := range bits {
		b.PushBack(bit)
	}
	return b
}

func toBools(b *BitStream) []bool {
	out := make([]bool, b.Len())
	for i := range out {
		out[i] = b.At(uint64(i))
	}
	return out
}

func padded(bits []bool, n int) []bool {
	out := make([]bool, max(len(bits), n))
	copy(out, bits)
	return out
}

func apply(a, b []bool, op func(x, y bool) bool) []bool {
	n := max(len(a), len(b))
	a, b = padded(a, n), padded(b, n)
	out := make([]bool, n)
	for i := range out {
		out[i] = op(a[i], b[i])
	}
	return out
}

func TestBitStream_ZeroValue(t *testing.T) {
	var b BitStream
	assert.Equal(t, KindNull, b.Kind())
	assert.True(t, b.Empty())
	assert.Equal(t, uint64(0), b.Count())
	_, ok := b.FindFirst()
	assert.False(t, ok)

	b.PushBack(true)
	assert.Equal(t, "1", b.String())
}

func TestBitStream_Append(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			b := New(k)
			b.PushBack(true)
			b.PushBack(false)
			b.AppendBits(3, true)
			b.AppendBlock(0xf00f, 16)
			b.AppendBits(130, false)
			b.AppendBits(70, true)

			assert.Equal(t, uint64(2+3+16+130+70), b.Len())
			assert.Equal(t, uint64(1+3+8+70), b.Count())
			assert.True(t, b.At(0))
			assert.False(t, b.At(1))
			assert.True(t, b.At(5))
			assert.False(t, b.At(9))
			assert.True(t, b.Back())
			assert.Panics(t, func() { b.At(b.Len()) })
		})
	}
}

func TestBitStream_MatchesReference(t *testing.T) {
	rng := testutil.NewRNG(4711)
	for _, k := range kinds {
		for round := range 8 {
			t.Run(fmt.Sprintf("%s/%d", k, round), func(t *testing.T) {
				ra := rng.Bits(rng.Intn(700))
				rb := rng.Bits(rng.Intn(700))
				a, b := fromBools(k, ra), fromBools(k, rb)

				assert.Equal(t, ra, toBools(&a))
				assert.Equal(t, uint64(len(testutil.Positions(ra))), a.Count())
				assert.Equal(t, testutil.Positions(ra), slices.Collect(a.All()))

				ops := []struct {
					name string
					run  func(x, y *BitStream)
					ref  func(x, y bool) bool
				}{
					{"and", (*BitStream).And, func(x, y bool) bool { return x && y }},
					{"or", (*BitStream).Or, func(x, y bool) bool { return x || y }},
					{"xor", (*BitStream).Xor, func(x, y bool) bool { return x != y }},
					{"andnot", (*BitStream).AndNot, func(x, y bool) bool { return x && !y }},
				}
				for _, op := range ops {
					got := a.Clone()
					op.run(&got, &b)
					want := apply(ra, rb, op.ref)
					assert.Equal(t, want, toBools(&got), op.name)
					assert.Equal(t, testutil.Positions(want), slices.Collect(got.All()), op.name)
				}

				cat := a.Clone()
				cat.Append(&b)
				assert.Equal(t, append(slices.Clone(ra), rb...), toBools(&cat))
			})
		}
	}
}

func TestBitStream_BooleanClosure(t *testing.T) {
	rng := testutil.NewRNG(42)
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			a := fromBools(k, rng.Bits(1000))
			b := fromBools(k, rng.Bits(1000))

			x := a.Clone()
			x.And(&b)
			y := a.Clone()
			y.AndNot(&b)
			x.Or(&y)
			assert.True(t, x.Equal(&a))

			n := a.Clone()
			n.Not()
			assert.Equal(t, a.Len()-a.Count(), n.Count())
			n.Not()
			assert.True(t, n.Equal(&a))

			self := a.Clone()
			self.Xor(&self)
			assert.Equal(t, uint64(0), self.Count())
			assert.Equal(t, a.Len(), self.Len())
		})
	}
}

func TestBitStream_Find(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			b := New(k)
			b.AppendBlock(0xffff, 64)
			b.AppendBlock(0x30abffff7000ffff, 64)
			b.AppendBits(200, false)

			i, ok := b.FindLast()
			require.True(t, ok)
			assert.Equal(t, uint64(125), i)
			i, ok = b.FindPrev(i)
			require.True(t, ok)
			assert.Equal(t, uint64(124), i)
			i, ok = b.FindPrev(i)
			require.True(t, ok)
			assert.Equal(t, uint64(119), i)
			i, ok = b.FindPrev(63)
			require.True(t, ok)
			assert.Equal(t, uint64(15), i)
			_, ok = b.FindPrev(0)
			assert.False(t, ok)

			i, ok = b.FindFirst()
			require.True(t, ok)
			assert.Equal(t, uint64(0), i)
			i, ok = b.FindNext(15)
			require.True(t, ok)
			assert.Equal(t, uint64(64), i)
			_, ok = b.FindNext(125)
			assert.False(t, ok)
		})
	}
}

func TestBitStream_Iterator(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			b := New(k)
			begin, end := b.Begin(), b.End()
			assert.True(t, begin.Equal(&end))

			b.AppendBits(100, false)
			b.PushBack(true)
			b.AppendBits(500, false)
			b.PushBack(true)

			it := b.Begin()
			require.False(t, it.Done())
			assert.Equal(t, uint64(100), it.Value())

			cp := it.Clone()
			it.Next()
			assert.Equal(t, uint64(601), it.Value())
			assert.Equal(t, uint64(100), cp.Value())
			assert.False(t, it.Equal(&cp))

			it.Next()
			assert.True(t, it.Done())
			end = b.End()
			assert.True(t, it.Equal(&end))
			assert.Panics(t, func() { it.Value() })
		})
	}
}

func TestBitStream_KindMismatchPanics(t *testing.T) {
	a := Make(KindNull, 10, true)
	b := Make(KindEWAH, 10, true)

	assert.Panics(t, func() { a.And(&b) })
	assert.Panics(t, func() { a.Append(&b) })
	assert.Panics(t, func() { a.Equal(&b) })

	ia, ib := a.Begin(), b.Begin()
	assert.Panics(t, func() { ia.Equal(&ib) })

	assert.Panics(t, func() { b.Bits() })
	assert.Equal(t, uint64(10), a.Bits().Count())
}

func TestBitStream_EWAHLongRuns(t *testing.T) {
	const n = uint64(1) << 40

	b := Make(KindEWAH, n, true)
	b.PushBack(false)
	b.AppendBits(n, false)
	b.PushBack(true)

	assert.Equal(t, 2*n+2, b.Len())
	assert.Equal(t, n+1, b.Count())
	assert.True(t, b.At(n-1))
	assert.False(t, b.At(n))

	last, ok := b.FindLast()
	require.True(t, ok)
	assert.Equal(t, 2*n+1, last)
	prev, ok := b.FindPrev(last)
	require.True(t, ok)
	assert.Equal(t, n-1, prev)
	next, ok := b.FindNext(n - 1)
	require.True(t, ok)
	assert.Equal(t, 2*n+1, next)

	b.Not()
	assert.Equal(t, n+1, b.Count())
	first, ok := b.FindFirst()
	require.True(t, ok)
	assert.Equal(t, n, first)

	c := b.Clone()
	c.And(&b)
	assert.True(t, c.Equal(&b))
	c.Trim()
	assert.True(t, c.Equal(&b))
}

func TestBitStream_Trim(t *testing.T) {
	rng := testutil.NewRNG(7)
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			b := fromBools(k, rng.Bits(2000))
			want := b.Clone()
			b.Not()
			b.Not()
			b.Trim()
			assert.True(t, b.Equal(&want))
		})
	}
}

func TestBitStream_Clear(t *testing.T) {
	for _, k := range kinds {
		b := Make(k, 300, true)
		b.Clear()
		assert.True(t, b.Empty(), k.String())
		b.PushBack(true)
		assert.Equal(t, uint64(1), b.Count(), k.String())
	}
}

func TestBitStream_ToRoaring(t *testing.T) {
	rng := testutil.NewRNG(11)
	bits := rng.Bits(900)
	for _, k := range kinds {
		b := fromBools(k, bits)
		rb := b.ToRoaring()
		assert.Equal(t, uint64(len(testutil.Positions(bits))), rb.GetCardinality(), k.String())
		for _, p := range testutil.Positions(bits) {
			assert.True(t, rb.Contains(uint32(p)))
		}
	}
}

func TestBitStream_Serialization(t *testing.T) {
	rng := testutil.NewRNG(3)
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			b := fromBools(k, rng.Bits(777))

			data, err := b.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, byte(k), data[0])

			var out BitStream
			require.NoError(t, out.UnmarshalBinary(data))
			assert.Equal(t, k, out.Kind())
			assert.True(t, out.Equal(&b))

			err = out.UnmarshalBinary(data[:len(data)-1])
			require.ErrorIs(t, err, ErrFormat)
			assert.True(t, out.Equal(&b))

			err = out.UnmarshalBinary(append(slices.Clone(data), 0))
			require.ErrorIs(t, err, ErrFormat)

			empty := New(k)
			data, err = empty.MarshalBinary()
			require.NoError(t, err)
			require.NoError(t, out.UnmarshalBinary(data))
			assert.True(t, out.Empty())
		})
	}
}

func TestDecode_UnknownTag(t *testing.T) {
	_, _, err := Decode([]byte{9, 0})
	require.ErrorIs(t, err, ErrFormat)

	_, _, err = Decode(nil)
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecode_Concatenated(t *testing.T) {
	a := Make(KindEWAH, 70, true)
	b := Make(KindRoaring, 5, true)

	buf, err := a.AppendBinary(nil)
	require.NoError(t, err)
	buf, err = b.AppendBinary(buf)
	require.NoError(t, err)

	gotA, rest, err := Decode(buf)
	require.NoError(t, err)
	gotB, rest, err := Decode(rest)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.True(t, gotA.Equal(&a))
	assert.True(t, gotB.Equal(&b))
}

func TestKind(t *testing.T) {
	for _, k := range kinds {
		assert.True(t, k.Valid())
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.False(t, Kind(0).Valid())
	_, err := ParseKind("wah")
	assert.Error(t, err)
}
