package bitstream

import (
	"github.com/hupe1980/bitdex/bitvector"
)

// nullModel is the uncompressed representation: one bit per position.
type nullModel struct {
	bits *bitvector.Vector
}

func newNull() *nullModel {
	return &nullModel{bits: bitvector.New(0)}
}

func (m *nullModel) kind() Kind { return KindNull }

func (m *nullModel) clone() model { return &nullModel{bits: m.bits.Clone()} }

func (m *nullModel) equal(o model) bool { return m.bits.Equal(o.(*nullModel).bits) }

// operand equalizes lengths, growing m in place or returning a padded copy
// of o.
func (m *nullModel) operand(o model) *bitvector.Vector {
	other := o.(*nullModel).bits
	switch {
	case m.bits.Len() < other.Len():
		m.bits.Resize(other.Len())
	case other.Len() < m.bits.Len():
		other = other.Clone()
		other.Resize(m.bits.Len())
	}
	return other
}

func (m *nullModel) not() { m.bits.Not() }

func (m *nullModel) and(o model) { m.bits.And(m.operand(o)) }

func (m *nullModel) or(o model) { m.bits.Or(m.operand(o)) }

func (m *nullModel) xor(o model) { m.bits.Xor(m.operand(o)) }

func (m *nullModel) andNot(o model) { m.bits.AndNot(m.operand(o)) }

func (m *nullModel) appendStream(o model) { m.bits.Append(o.(*nullModel).bits) }

func (m *nullModel) appendBits(n uint64, bit bool) { m.bits.AppendBits(n, bit) }

func (m *nullModel) appendBlock(block, nbits uint64) { m.bits.AppendBlock(block, nbits) }

func (m *nullModel) trim() {}

func (m *nullModel) clear() { m.bits.Clear() }

func (m *nullModel) at(i uint64) bool { return m.bits.Get(i) }

func (m *nullModel) len() uint64 { return m.bits.Len() }

func (m *nullModel) count() uint64 { return m.bits.Count() }

func (m *nullModel) begin() cursor { return newFindCursor(m) }

func (m *nullModel) findFirst() (uint64, bool) { return m.bits.FindFirst() }

func (m *nullModel) findNext(i uint64) (uint64, bool) { return m.bits.FindNext(i) }

func (m *nullModel) findLast() (uint64, bool) { return m.bits.FindLast() }

func (m *nullModel) findPrev(i uint64) (uint64, bool) { return m.bits.FindPrev(i) }

func (m *nullModel) appendBinary(dst []byte) ([]byte, error) {
	return m.bits.AppendBinary(dst)
}

func decodeNull(data []byte) (model, []byte, error) {
	v, rest, err := bitvector.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return &nullModel{bits: v}, rest, nil
}
