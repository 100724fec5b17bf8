package bitstream

import (
	"errors"
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/bitdex/bitvector"
	"github.com/hupe1980/bitdex/internal/binfmt"
)

// ErrFormat is returned when decoding an unknown representation tag or a
// malformed payload.
var ErrFormat = errors.New("bitstream: format error")

// Kind identifies the concrete representation behind a BitStream. The numeric
// values are part of the serialized format.
type Kind uint8

const (
	// KindNull is the uncompressed, bitvector-backed representation.
	KindNull Kind = 1
	// KindEWAH is the word-aligned hybrid run-length representation.
	KindEWAH Kind = 2
	// KindRoaring is the RoaringBitmap-backed representation. It holds at most
	// 2^32 bits.
	KindRoaring Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindEWAH:
		return "ewah"
	case KindRoaring:
		return "roaring"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k names a known representation.
func (k Kind) Valid() bool {
	return k >= KindNull && k <= KindRoaring
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "null":
		return KindNull, nil
	case "ewah":
		return KindEWAH, nil
	case "roaring":
		return KindRoaring, nil
	default:
		return 0, fmt.Errorf("unknown bitstream kind %q", s)
	}
}

// model is the fixed interface every concrete representation implements.
// Binary operations receive a model of the same concrete type.
type model interface {
	kind() Kind
	clone() model
	equal(o model) bool
	not()
	and(o model)
	or(o model)
	xor(o model)
	andNot(o model)
	appendStream(o model)
	appendBits(n uint64, bit bool)
	appendBlock(block, nbits uint64)
	trim()
	clear()
	at(i uint64) bool
	len() uint64
	count() uint64
	begin() cursor
	findFirst() (uint64, bool)
	findNext(i uint64) (uint64, bool)
	findLast() (uint64, bool)
	findPrev(i uint64) (uint64, bool)
	appendBinary(dst []byte) ([]byte, error)
}

func newModel(k Kind) model {
	switch k {
	case KindNull:
		return newNull()
	case KindEWAH:
		return newEWAH()
	case KindRoaring:
		return newRoaring()
	default:
		panic(fmt.Sprintf("bitstream: unknown kind %d", uint8(k)))
	}
}

// empty backs reads on a zero BitStream. It is never mutated.
var empty model = newNull()

// BitStream is a bit sequence over one concrete representation.
//
// The zero value is an empty KindNull stream. Assigning a BitStream shares
// its representation; use Clone for an independent copy. Binary operations
// between streams of different kinds are programming errors and panic.
type BitStream struct {
	m model
}

// New returns an empty stream of the given kind.
func New(k Kind) BitStream {
	return BitStream{m: newModel(k)}
}

// Make returns a stream of the given kind holding n copies of bit.
func Make(k Kind, n uint64, bit bool) BitStream {
	b := New(k)
	b.AppendBits(n, bit)
	return b
}

func (b *BitStream) read() model {
	if b.m == nil {
		return empty
	}
	return b.m
}

func (b *BitStream) impl() model {
	if b.m == nil {
		b.m = newNull()
	}
	return b.m
}

func (b *BitStream) peer(other *BitStream) model {
	self, o := b.read(), other.read()
	if self.kind() != o.kind() {
		panic(fmt.Sprintf("bitstream: bad bitstream cast: %s vs %s", self.kind(), o.kind()))
	}
	if o == b.m {
		return o.clone()
	}
	return o
}

// Kind returns the representation of b.
func (b *BitStream) Kind() Kind { return b.read().kind() }

// Clone returns a deep copy of b.
func (b *BitStream) Clone() BitStream {
	return BitStream{m: b.read().clone()}
}

// Equal reports whether b and other hold the same bits. Both must have the
// same kind.
func (b *BitStream) Equal(other *BitStream) bool {
	return b.read().equal(b.peer(other))
}

// Not flips every bit.
func (b *BitStream) Not() { b.impl().not() }

// And computes b &= other. The shorter operand is padded with zeros.
func (b *BitStream) And(other *BitStream) { o := b.peer(other); b.impl().and(o) }

// Or computes b |= other. The shorter operand is padded with zeros.
func (b *BitStream) Or(other *BitStream) { o := b.peer(other); b.impl().or(o) }

// Xor computes b ^= other. The shorter operand is padded with zeros.
func (b *BitStream) Xor(other *BitStream) { o := b.peer(other); b.impl().xor(o) }

// AndNot computes b &^= other. The shorter operand is padded with zeros.
func (b *BitStream) AndNot(other *BitStream) { o := b.peer(other); b.impl().andNot(o) }

// Append appends all bits of other.
func (b *BitStream) Append(other *BitStream) { o := b.peer(other); b.impl().appendStream(o) }

// AppendBits appends n copies of bit.
func (b *BitStream) AppendBits(n uint64, bit bool) { b.impl().appendBits(n, bit) }

// AppendBlock appends the nbits least significant bits of block.
func (b *BitStream) AppendBlock(block, nbits uint64) {
	if nbits > bitvector.BlockWidth {
		panic(fmt.Sprintf("bitstream: cannot append %d bits from one block", nbits))
	}
	b.impl().appendBlock(block, nbits)
}

// PushBack appends a single bit.
func (b *BitStream) PushBack(bit bool) { b.impl().appendBits(1, bit) }

// Trim normalizes the internal representation without changing the bits.
func (b *BitStream) Trim() { b.impl().trim() }

// Clear removes all bits.
func (b *BitStream) Clear() { b.impl().clear() }

// At returns the bit at position i. It panics if i >= Len().
func (b *BitStream) At(i uint64) bool {
	m := b.read()
	if i >= m.len() {
		panic(fmt.Sprintf("bitstream: index %d out of range [0:%d]", i, m.len()))
	}
	return m.at(i)
}

// Len returns the number of bits.
func (b *BitStream) Len() uint64 { return b.read().len() }

// Count returns the number of set bits.
func (b *BitStream) Count() uint64 { return b.read().count() }

// Empty reports whether b has no bits.
func (b *BitStream) Empty() bool { return b.read().len() == 0 }

// Back returns the last bit. It panics on an empty stream.
func (b *BitStream) Back() bool {
	n := b.Len()
	if n == 0 {
		panic("bitstream: back of empty stream")
	}
	return b.read().at(n - 1)
}

// FindFirst returns the position of the first set bit.
func (b *BitStream) FindFirst() (uint64, bool) { return b.read().findFirst() }

// FindNext returns the position of the first set bit after i.
func (b *BitStream) FindNext(i uint64) (uint64, bool) { return b.read().findNext(i) }

// FindLast returns the position of the last set bit.
func (b *BitStream) FindLast() (uint64, bool) { return b.read().findLast() }

// FindPrev returns the position of the last set bit before i.
func (b *BitStream) FindPrev(i uint64) (uint64, bool) { return b.read().findPrev(i) }

// Bits exposes the raw storage of a KindNull stream. It panics for other
// kinds. The returned vector must not be modified.
func (b *BitStream) Bits() *bitvector.Vector {
	n, ok := b.read().(*nullModel)
	if !ok {
		panic(fmt.Sprintf("bitstream: raw bits unavailable for %s", b.Kind()))
	}
	return n.bits
}

// Begin returns an iterator positioned at the first set bit.
func (b *BitStream) Begin() Iterator {
	c := b.read().begin()
	return Iterator{c: c}
}

// End returns the past-the-end iterator.
func (b *BitStream) End() Iterator {
	return Iterator{c: endCursor{k: b.Kind()}}
}

// All returns the positions of all set bits in ascending order.
func (b *BitStream) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for it := b.Begin(); !it.Done(); it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}

// ToRoaring returns the set positions as a roaring bitmap, for combining
// lookup results with other columns. It panics if b is longer than 2^32.
func (b *BitStream) ToRoaring() *roaring.Bitmap {
	if r, ok := b.read().(*roaringModel); ok {
		return r.rb.Clone()
	}
	if b.Len() > maxRoaringLen {
		panic(fmt.Sprintf("bitstream: %d bits exceed roaring range", b.Len()))
	}
	rb := roaring.New()
	buf := make([]uint32, 0, 256)
	for pos := range b.All() {
		buf = append(buf, uint32(pos))
		if len(buf) == cap(buf) {
			rb.AddMany(buf)
			buf = buf[:0]
		}
	}
	rb.AddMany(buf)
	return rb
}

// String renders the bits with the highest position first.
func (b *BitStream) String() string {
	n := b.Len()
	out := make([]byte, n)
	for i := range out {
		out[i] = '0'
	}
	for pos := range b.All() {
		out[n-1-pos] = '1'
	}
	return string(out)
}

// AppendBinary appends the encoding of b: a kind tag followed by the
// representation payload.
func (b *BitStream) AppendBinary(dst []byte) ([]byte, error) {
	m := b.read()
	dst = append(dst, byte(m.kind()))
	return m.appendBinary(dst)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (b *BitStream) MarshalBinary() ([]byte, error) {
	return b.AppendBinary(nil)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. On error b is left
// unchanged.
func (b *BitStream) UnmarshalBinary(data []byte) error {
	out, rest, err := Decode(data)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrFormat, len(rest))
	}
	*b = out
	return nil
}

// Decode reads one stream from the front of data and returns the rest.
func Decode(data []byte) (BitStream, []byte, error) {
	r := binfmt.NewReader(data)
	k := Kind(r.Byte())
	if err := r.Err(); err != nil {
		return BitStream{}, nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	var (
		m    model
		rest []byte
		err  error
	)
	switch k {
	case KindNull:
		m, rest, err = decodeNull(r.Rest())
	case KindEWAH:
		m, rest, err = decodeEWAH(r.Rest())
	case KindRoaring:
		m, rest, err = decodeRoaring(r.Rest())
	default:
		return BitStream{}, nil, fmt.Errorf("%w: unknown representation tag %d", ErrFormat, uint8(k))
	}
	if err != nil {
		return BitStream{}, nil, fmt.Errorf("%w: %s: %w", ErrFormat, k, err)
	}
	return BitStream{m: m}, rest, nil
}

func lowMask(k uint64) uint64 {
	if k == 0 {
		return 0
	}
	return ^uint64(0) >> (64 - k)
}
