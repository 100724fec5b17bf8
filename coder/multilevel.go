package coder

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/bitdex/bitstream"
	"github.com/hupe1980/bitdex/internal/binfmt"
)

// MultiLevel decomposes keys into the digits of a Base and encodes each
// digit with its own level coder. Queries combine one partial result per
// level, so the number of streams grows with the sum of the radices rather
// than with the number of distinct keys.
type MultiLevel struct {
	kind    bitstream.Kind
	base    Base
	level   Kind
	rows    uint64
	present bitstream.BitStream
	levels  []levelCoder
}

// NewMultiLevel returns an empty multi-level coder. level selects the coder
// used per digit and must be KindRange or KindEquality.
func NewMultiLevel(base Base, level Kind, k bitstream.Kind) (*MultiLevel, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if level != KindRange && level != KindEquality {
		return nil, fmt.Errorf("%w: %s coder cannot serve as level coder", ErrInvalidBase, level)
	}
	c := &MultiLevel{
		kind:    k,
		base:    append(Base(nil), base...),
		level:   level,
		present: bitstream.New(k),
		levels:  make([]levelCoder, len(base)),
	}
	for i := range c.levels {
		c.levels[i] = newLevel(level, k)
	}
	return c, nil
}

func newLevel(level Kind, k bitstream.Kind) levelCoder {
	if level == KindEquality {
		return NewEquality(k)
	}
	return NewRange(k)
}

func (c *MultiLevel) Kind() Kind                 { return KindMultiLevel }
func (c *MultiLevel) StreamKind() bitstream.Kind { return c.kind }
func (c *MultiLevel) Len() uint64                { return c.rows }
func (c *MultiLevel) valueCoder()                {}

// Base returns a copy of the base.
func (c *MultiLevel) Base() Base { return append(Base(nil), c.base...) }

// LevelKind returns the coding scheme used per digit.
func (c *MultiLevel) LevelKind() Kind { return c.level }

// Encode implements Coder. It fails with ErrKeyOutOfRange, leaving the
// coder unchanged, when key does not fit the base.
func (c *MultiLevel) Encode(key, n, skip uint64) error {
	digits, err := c.base.Decompose(key)
	if err != nil {
		return err
	}
	for i, d := range digits {
		if err := c.levels[i].Encode(d, n, skip); err != nil {
			return err
		}
	}
	appendRows(&c.present, n, skip, true)
	c.rows += n + skip
	return nil
}

// Decode evaluates op digit by digit from the most significant level down.
// It tracks the rows whose digits so far equal the key's digits and adds,
// at each level, those of them that are already strictly less (or greater).
func (c *MultiLevel) Decode(op Op, key uint64) (bitstream.BitStream, error) {
	if !op.Valid() {
		return bitstream.BitStream{}, opError(KindMultiLevel, op)
	}
	digits, err := c.base.Decompose(key)
	if err != nil {
		// key exceeds every representable value.
		switch op {
		case OpLessThan, OpLessEqual, OpNotEqual:
			return c.present.Clone(), nil
		default:
			return zeros(c.kind, c.rows), nil
		}
	}

	equal := c.present.Clone()
	result := zeros(c.kind, c.rows)
	for i, d := range digits {
		lvl := c.levels[i]
		var part bitstream.BitStream
		switch op {
		case OpLessThan, OpLessEqual:
			part = lvl.less(d)
		case OpGreaterThan, OpGreaterEqual:
			part = lvl.greater(d)
		}
		if op.Ordering() {
			part.And(&equal)
			result.Or(&part)
		}
		same := lvl.eq(d)
		equal.And(&same)
	}

	switch op {
	case OpEqual:
		return equal, nil
	case OpNotEqual:
		out := c.present.Clone()
		out.AndNot(&equal)
		return out, nil
	case OpLessEqual, OpGreaterEqual:
		result.Or(&equal)
	}
	return result, nil
}

func (c *MultiLevel) compatible(o *MultiLevel) bool {
	return o.kind == c.kind && o.level == c.level && o.base.Equal(c.base)
}

func (c *MultiLevel) Append(other Coder) error {
	o, ok := other.(*MultiLevel)
	if !ok || !c.compatible(o) {
		return mismatch(c, other)
	}
	if o == c {
		o = o.Clone().(*MultiLevel)
	}
	for i := range c.levels {
		if err := c.levels[i].Append(o.levels[i]); err != nil {
			return err
		}
	}
	c.present.Append(&o.present)
	c.rows += o.rows
	return nil
}

// Streams returns the streams of every level, most significant first,
// followed by the presence mask.
func (c *MultiLevel) Streams() []bitstream.BitStream {
	var out []bitstream.BitStream
	for _, l := range c.levels {
		out = append(out, l.Streams()...)
	}
	return append(out, c.present.Clone())
}

func (c *MultiLevel) Equal(other Coder) bool {
	o, ok := other.(*MultiLevel)
	if !ok || !c.compatible(o) || o.rows != c.rows || !c.present.Equal(&o.present) {
		return false
	}
	for i := range c.levels {
		if !c.levels[i].Equal(o.levels[i]) {
			return false
		}
	}
	return true
}

func (c *MultiLevel) Clone() Coder {
	out := &MultiLevel{
		kind:    c.kind,
		base:    c.Base(),
		level:   c.level,
		rows:    c.rows,
		present: c.present.Clone(),
		levels:  make([]levelCoder, len(c.levels)),
	}
	for i, l := range c.levels {
		out.levels[i] = l.Clone().(levelCoder)
	}
	return out
}

func (c *MultiLevel) appendBinary(dst []byte) ([]byte, error) {
	dst = appendHeader(dst, KindMultiLevel, c.kind, c.rows)
	dst = append(dst, byte(c.level))
	dst = binary.AppendUvarint(dst, uint64(len(c.base)))
	for _, r := range c.base {
		dst = binary.AppendUvarint(dst, r)
	}
	dst, err := c.present.AppendBinary(dst)
	if err != nil {
		return nil, err
	}
	for _, l := range c.levels {
		if dst, err = l.appendBinary(dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (c *MultiLevel) MarshalBinary() ([]byte, error) { return c.appendBinary(nil) }

// UnmarshalBinary implements encoding.BinaryUnmarshaler. On error c is left
// unchanged.
func (c *MultiLevel) UnmarshalBinary(data []byte) error { return unmarshal(c, data) }

func (c *MultiLevel) decodeFrom(r *binfmt.Reader) {
	c.kind, c.rows = readHeader(r, KindMultiLevel)
	c.level = Kind(r.Byte())
	n := r.Uvarint()
	if r.Err() != nil {
		return
	}
	if n > uint64(r.Len()) {
		r.Fail(binfmt.ErrShortBuffer)
		return
	}
	c.base = make(Base, n)
	for i := range c.base {
		c.base[i] = r.Uvarint()
	}
	if err := c.base.Validate(); err != nil && r.Err() == nil {
		r.Fail(err)
	}
	if c.level != KindRange && c.level != KindEquality && r.Err() == nil {
		r.Fail(fmt.Errorf("%w: level coder %s", ErrInvalidBase, c.level))
	}
	c.present = readStream(r, c.kind, c.rows)
	c.levels = make([]levelCoder, 0, len(c.base))
	for range c.base {
		if r.Err() != nil {
			return
		}
		var l interface {
			levelCoder
			decodeFrom(r *binfmt.Reader)
		}
		if c.level == KindEquality {
			l = &Equality{}
		} else {
			l = &Range{}
		}
		l.decodeFrom(r)
		if r.Err() == nil && (l.StreamKind() != c.kind || l.Len() != c.rows) {
			r.Fail(errStreamShape)
		}
		c.levels = append(c.levels, l)
	}
}
