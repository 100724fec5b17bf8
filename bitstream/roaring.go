package bitstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/bitdex/internal/binfmt"
)

// maxRoaringLen is the number of positions a 32-bit roaring bitmap can address.
const maxRoaringLen = 1 << 32

// roaringModel stores the set positions in a roaring bitmap. The length is
// tracked separately since trailing zeros are not represented.
type roaringModel struct {
	rb   *roaring.Bitmap
	size uint64
}

func newRoaring() *roaringModel {
	return &roaringModel{rb: roaring.New()}
}

func (m *roaringModel) kind() Kind { return KindRoaring }

func (m *roaringModel) clone() model {
	return &roaringModel{rb: m.rb.Clone(), size: m.size}
}

func (m *roaringModel) grow(n uint64) uint64 {
	end := m.size + n
	if end > maxRoaringLen || end < m.size {
		panic(fmt.Sprintf("bitstream: roaring stream cannot exceed %d bits", uint64(maxRoaringLen)))
	}
	return end
}

func (m *roaringModel) equal(o model) bool {
	other := o.(*roaringModel)
	return m.size == other.size && m.rb.Equals(other.rb)
}

func (m *roaringModel) not() { m.rb.Flip(0, m.size) }

// Positions beyond the shorter operand are absent from its bitmap, which is
// the zero padding the operations require.
func (m *roaringModel) and(o model) {
	other := o.(*roaringModel)
	m.rb.And(other.rb)
	m.size = max(m.size, other.size)
}

func (m *roaringModel) or(o model) {
	other := o.(*roaringModel)
	m.rb.Or(other.rb)
	m.size = max(m.size, other.size)
}

func (m *roaringModel) xor(o model) {
	other := o.(*roaringModel)
	m.rb.Xor(other.rb)
	m.size = max(m.size, other.size)
}

func (m *roaringModel) andNot(o model) {
	other := o.(*roaringModel)
	m.rb.AndNot(other.rb)
	m.size = max(m.size, other.size)
}

func (m *roaringModel) appendStream(o model) {
	other := o.(*roaringModel)
	end := m.grow(other.size)
	buf := make([]uint32, 0, 256)
	it := other.rb.Iterator()
	for it.HasNext() {
		buf = append(buf, uint32(m.size+uint64(it.Next())))
		if len(buf) == cap(buf) {
			m.rb.AddMany(buf)
			buf = buf[:0]
		}
	}
	m.rb.AddMany(buf)
	m.size = end
}

func (m *roaringModel) appendBits(n uint64, bit bool) {
	end := m.grow(n)
	if bit {
		m.rb.AddRange(m.size, end)
	}
	m.size = end
}

func (m *roaringModel) appendBlock(block, nbits uint64) {
	end := m.grow(nbits)
	block &= lowMask(nbits)
	for block != 0 {
		j := uint64(bits.TrailingZeros64(block))
		m.rb.Add(uint32(m.size + j))
		block &= block - 1
	}
	m.size = end
}

func (m *roaringModel) trim() { m.rb.RunOptimize() }

func (m *roaringModel) clear() {
	m.rb.Clear()
	m.size = 0
}

func (m *roaringModel) at(i uint64) bool { return m.rb.Contains(uint32(i)) }

func (m *roaringModel) len() uint64 { return m.size }

func (m *roaringModel) count() uint64 { return m.rb.GetCardinality() }

func (m *roaringModel) begin() cursor { return newFindCursor(m) }

// findFrom returns the first set position >= i.
func (m *roaringModel) findFrom(i uint64) (uint64, bool) {
	if i >= m.size {
		return 0, false
	}
	var below uint64
	if i > 0 {
		below = m.rb.Rank(uint32(i - 1))
	}
	if below >= m.rb.GetCardinality() {
		return 0, false
	}
	x, err := m.rb.Select(uint32(below))
	if err != nil {
		return 0, false
	}
	return uint64(x), true
}

// findUpTo returns the last set position <= i.
func (m *roaringModel) findUpTo(i uint64) (uint64, bool) {
	upTo := m.rb.Rank(uint32(i))
	if upTo == 0 {
		return 0, false
	}
	x, err := m.rb.Select(uint32(upTo - 1))
	if err != nil {
		return 0, false
	}
	return uint64(x), true
}

func (m *roaringModel) findFirst() (uint64, bool) { return m.findFrom(0) }

func (m *roaringModel) findNext(i uint64) (uint64, bool) {
	if i == ^uint64(0) {
		return 0, false
	}
	return m.findFrom(i + 1)
}

func (m *roaringModel) findLast() (uint64, bool) {
	if m.rb.IsEmpty() {
		return 0, false
	}
	return uint64(m.rb.Maximum()), true
}

func (m *roaringModel) findPrev(i uint64) (uint64, bool) {
	if i == 0 || m.size == 0 {
		return 0, false
	}
	return m.findUpTo(min(i-1, m.size-1))
}

func (m *roaringModel) appendBinary(dst []byte) ([]byte, error) {
	data, err := m.rb.ToBytes()
	if err != nil {
		return nil, err
	}
	dst = binary.AppendUvarint(dst, m.size)
	return binfmt.AppendBytes(dst, data), nil
}

var errRoaringRange = errors.New("roaring positions exceed declared length")

func decodeRoaring(data []byte) (model, []byte, error) {
	r := binfmt.NewReader(data)
	size := r.Uvarint()
	payload := r.Bytes()
	if err := r.Err(); err != nil {
		return nil, nil, err
	}
	if size > maxRoaringLen {
		return nil, nil, errRoaringRange
	}
	rb := roaring.New()
	if err := rb.UnmarshalBinary(payload); err != nil {
		return nil, nil, err
	}
	if !rb.IsEmpty() && uint64(rb.Maximum()) >= size {
		return nil, nil, errRoaringRange
	}
	return &roaringModel{rb: rb, size: size}, r.Rest(), nil
}
