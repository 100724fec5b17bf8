package bitvector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/hupe1980/bitdex/internal/binfmt"
)

// BlockWidth is the number of bits per storage block.
const BlockWidth = 64

// MaxLen is the largest bit count a decoded vector may declare.
const MaxLen = 1 << 56

// ErrCorrupt is returned when decoding a malformed vector encoding.
var ErrCorrupt = errors.New("bitvector: corrupt encoding")

// Vector is an ordered sequence of bits stored in 64-bit blocks.
//
// Bit i lives in block i/64 at bit position i%64 (least significant first).
// Bits at or beyond Len() within the last block are always zero.
type Vector struct {
	blocks []uint64
	size   uint64
}

// New returns a vector of n zero bits.
func New(n uint64) *Vector {
	return &Vector{
		blocks: make([]uint64, blocksFor(n)),
		size:   n,
	}
}

// NewFilled returns a vector of n copies of bit.
func NewFilled(n uint64, bit bool) *Vector {
	v := New(n)
	if bit {
		for i := range v.blocks {
			v.blocks[i] = ^uint64(0)
		}
		v.trim()
	}
	return v
}

// FromBlocks returns a vector of n bits copied from blocks. Missing blocks are
// treated as zero and bits beyond n are discarded.
func FromBlocks(blocks []uint64, n uint64) *Vector {
	v := New(n)
	copy(v.blocks, blocks)
	v.trim()
	return v
}

func blocksFor(n uint64) uint64 {
	return (n + BlockWidth - 1) / BlockWidth
}

// lowMask returns a mask of the k least significant bits (k in [0, 64]).
func lowMask(k uint64) uint64 {
	if k == 0 {
		return 0
	}
	return ^uint64(0) >> (BlockWidth - k)
}

func (v *Vector) trim() {
	if r := v.size % BlockWidth; r != 0 {
		v.blocks[len(v.blocks)-1] &= lowMask(r)
	}
}

// Len returns the number of bits.
func (v *Vector) Len() uint64 { return v.size }

// Blocks returns the number of allocated blocks.
func (v *Vector) Blocks() int { return len(v.blocks) }

// Block returns the i-th storage block.
func (v *Vector) Block(i int) uint64 { return v.blocks[i] }

// Words returns the backing blocks. The slice must not be modified.
func (v *Vector) Words() []uint64 { return v.blocks }

// Empty reports whether the vector has no bits.
func (v *Vector) Empty() bool { return v.size == 0 }

// Clone returns a deep copy.
func (v *Vector) Clone() *Vector {
	return &Vector{
		blocks: append([]uint64(nil), v.blocks...),
		size:   v.size,
	}
}

// Clear removes all bits.
func (v *Vector) Clear() {
	v.blocks = v.blocks[:0]
	v.size = 0
}

// Resize grows the vector with zeros or truncates it to n bits.
func (v *Vector) Resize(n uint64) {
	nb := blocksFor(n)
	switch {
	case nb > uint64(len(v.blocks)):
		v.blocks = append(v.blocks, make([]uint64, nb-uint64(len(v.blocks)))...)
	case nb < uint64(len(v.blocks)):
		v.blocks = v.blocks[:nb]
	}
	v.size = n
	v.trim()
}

func (v *Vector) check(i uint64) {
	if i >= v.size {
		panic(fmt.Sprintf("bitvector: index %d out of range [0:%d]", i, v.size))
	}
}

// Get returns the bit at position i.
func (v *Vector) Get(i uint64) bool {
	v.check(i)
	return v.blocks[i/BlockWidth]&(1<<(i%BlockWidth)) != 0
}

// Set assigns bit to position i.
func (v *Vector) Set(i uint64, bit bool) {
	v.check(i)
	if bit {
		v.blocks[i/BlockWidth] |= 1 << (i % BlockWidth)
	} else {
		v.blocks[i/BlockWidth] &^= 1 << (i % BlockWidth)
	}
}

// Flip toggles the bit at position i.
func (v *Vector) Flip(i uint64) {
	v.check(i)
	v.blocks[i/BlockWidth] ^= 1 << (i % BlockWidth)
}

// PushBack appends a single bit.
func (v *Vector) PushBack(bit bool) {
	if v.size%BlockWidth == 0 {
		v.blocks = append(v.blocks, 0)
	}
	if bit {
		v.blocks[len(v.blocks)-1] |= 1 << (v.size % BlockWidth)
	}
	v.size++
}

// AppendBlock appends the nbits least significant bits of block.
func (v *Vector) AppendBlock(block, nbits uint64) {
	if nbits == 0 {
		return
	}
	if nbits > BlockWidth {
		panic(fmt.Sprintf("bitvector: cannot append %d bits from one block", nbits))
	}
	block &= lowMask(nbits)
	offset := v.size % BlockWidth
	if offset == 0 {
		v.blocks = append(v.blocks, block)
	} else {
		v.blocks[len(v.blocks)-1] |= block << offset
		if offset+nbits > BlockWidth {
			v.blocks = append(v.blocks, block>>(BlockWidth-offset))
		}
	}
	v.size += nbits
}

// AppendBits appends n copies of bit.
func (v *Vector) AppendBits(n uint64, bit bool) {
	if n == 0 {
		return
	}
	var fill uint64
	if bit {
		fill = ^uint64(0)
	}
	if offset := v.size % BlockWidth; offset != 0 {
		k := min(BlockWidth-offset, n)
		v.blocks[len(v.blocks)-1] |= (fill & lowMask(k)) << offset
		v.size += k
		n -= k
	}
	for ; n >= BlockWidth; n -= BlockWidth {
		v.blocks = append(v.blocks, fill)
		v.size += BlockWidth
	}
	if n > 0 {
		v.blocks = append(v.blocks, fill&lowMask(n))
		v.size += n
	}
}

// Append appends all bits of other.
func (v *Vector) Append(other *Vector) {
	if v.size%BlockWidth == 0 {
		v.blocks = append(v.blocks, other.blocks...)
		v.size += other.size
		return
	}
	full := other.size / BlockWidth
	for i := uint64(0); i < full; i++ {
		v.AppendBlock(other.blocks[i], BlockWidth)
	}
	if r := other.size % BlockWidth; r != 0 {
		v.AppendBlock(other.blocks[full], r)
	}
}

// Count returns the number of set bits.
func (v *Vector) Count() uint64 {
	var n int
	for _, b := range v.blocks {
		n += bits.OnesCount64(b)
	}
	return uint64(n)
}

// FindFirst returns the position of the first set bit.
func (v *Vector) FindFirst() (uint64, bool) {
	return v.findFrom(0)
}

// FindNext returns the position of the first set bit after i.
func (v *Vector) FindNext(i uint64) (uint64, bool) {
	if i == ^uint64(0) {
		return 0, false
	}
	return v.findFrom(i + 1)
}

// FindLast returns the position of the last set bit.
func (v *Vector) FindLast() (uint64, bool) {
	if v.size == 0 {
		return 0, false
	}
	return v.findUpTo(v.size - 1)
}

// FindPrev returns the position of the last set bit before i.
func (v *Vector) FindPrev(i uint64) (uint64, bool) {
	if i == 0 || v.size == 0 {
		return 0, false
	}
	return v.findUpTo(min(i-1, v.size-1))
}

// findFrom searches forward from i inclusive.
func (v *Vector) findFrom(i uint64) (uint64, bool) {
	if i >= v.size {
		return 0, false
	}
	bi := i / BlockWidth
	w := v.blocks[bi] & (^uint64(0) << (i % BlockWidth))
	for {
		if w != 0 {
			return bi*BlockWidth + uint64(bits.TrailingZeros64(w)), true
		}
		bi++
		if bi >= uint64(len(v.blocks)) {
			return 0, false
		}
		w = v.blocks[bi]
	}
}

// findUpTo searches backward from i inclusive.
func (v *Vector) findUpTo(i uint64) (uint64, bool) {
	bi := i / BlockWidth
	w := v.blocks[bi] & lowMask(i%BlockWidth+1)
	for {
		if w != 0 {
			return bi*BlockWidth + uint64(BlockWidth-1-bits.LeadingZeros64(w)), true
		}
		if bi == 0 {
			return 0, false
		}
		bi--
		w = v.blocks[bi]
	}
}

// ShiftLeft returns a vector of equal length with every bit moved n
// positions towards higher indices.
func (v *Vector) ShiftLeft(n uint64) *Vector {
	out := New(v.size)
	if n >= v.size {
		return out
	}
	ws, bs := int(n/BlockWidth), n%BlockWidth
	for i := len(v.blocks) - 1; i >= ws; i-- {
		w := v.blocks[i-ws] << bs
		if bs != 0 && i-ws-1 >= 0 {
			w |= v.blocks[i-ws-1] >> (BlockWidth - bs)
		}
		out.blocks[i] = w
	}
	out.trim()
	return out
}

// ShiftRight returns a vector of equal length with every bit moved n
// positions towards lower indices.
func (v *Vector) ShiftRight(n uint64) *Vector {
	out := New(v.size)
	if n >= v.size {
		return out
	}
	ws, bs := int(n/BlockWidth), n%BlockWidth
	last := len(v.blocks) - 1
	for i := 0; i+ws <= last; i++ {
		w := v.blocks[i+ws] >> bs
		if bs != 0 && i+ws+1 <= last {
			w |= v.blocks[i+ws+1] << (BlockWidth - bs)
		}
		out.blocks[i] = w
	}
	return out
}

// Not flips every bit in place.
func (v *Vector) Not() {
	for i := range v.blocks {
		v.blocks[i] = ^v.blocks[i]
	}
	v.trim()
}

func (v *Vector) mustMatch(other *Vector) {
	if v.size != other.size {
		panic(fmt.Sprintf("bitvector: size mismatch %d != %d", v.size, other.size))
	}
}

// And computes v &= other. Both vectors must have equal length.
func (v *Vector) And(other *Vector) {
	v.mustMatch(other)
	for i, b := range other.blocks {
		v.blocks[i] &= b
	}
}

// Or computes v |= other. Both vectors must have equal length.
func (v *Vector) Or(other *Vector) {
	v.mustMatch(other)
	for i, b := range other.blocks {
		v.blocks[i] |= b
	}
}

// Xor computes v ^= other. Both vectors must have equal length.
func (v *Vector) Xor(other *Vector) {
	v.mustMatch(other)
	for i, b := range other.blocks {
		v.blocks[i] ^= b
	}
}

// AndNot computes v &^= other. Both vectors must have equal length.
func (v *Vector) AndNot(other *Vector) {
	v.mustMatch(other)
	for i, b := range other.blocks {
		v.blocks[i] &^= b
	}
}

// Equal reports whether both vectors hold the same bits.
func (v *Vector) Equal(other *Vector) bool {
	if v.size != other.size {
		return false
	}
	for i, b := range v.blocks {
		if other.blocks[i] != b {
			return false
		}
	}
	return true
}

// String renders the bits with the highest position first.
func (v *Vector) String() string {
	var sb strings.Builder
	sb.Grow(int(v.size))
	for i := v.size; i > 0; i-- {
		if v.Get(i - 1) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// AppendBinary appends the encoding of v to dst: a uvarint bit count
// followed by the little-endian blocks.
func (v *Vector) AppendBinary(dst []byte) ([]byte, error) {
	dst = binary.AppendUvarint(dst, v.size)
	return binfmt.AppendWords(dst, v.blocks), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (v *Vector) MarshalBinary() ([]byte, error) {
	return v.AppendBinary(make([]byte, 0, 10+8*len(v.blocks)))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (v *Vector) UnmarshalBinary(data []byte) error {
	out, rest, err := Decode(data)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(rest))
	}
	*v = *out
	return nil
}

// Decode reads one vector from the front of data and returns the rest.
func Decode(data []byte) (*Vector, []byte, error) {
	r := binfmt.NewReader(data)
	size := r.Uvarint()
	if size > MaxLen {
		return nil, nil, fmt.Errorf("%w: length %d too large", ErrCorrupt, size)
	}
	blocks := r.Words(blocksFor(size))
	if err := r.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	v := &Vector{blocks: blocks, size: size}
	if rem := size % BlockWidth; rem != 0 && blocks[len(blocks)-1]&^lowMask(rem) != 0 {
		return nil, nil, fmt.Errorf("%w: bits set beyond length", ErrCorrupt)
	}
	return v, r.Rest(), nil
}
