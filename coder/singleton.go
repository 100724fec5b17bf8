package coder

import (
	"github.com/hupe1980/bitdex/bitstream"
	"github.com/hupe1980/bitdex/internal/binfmt"
)

// Singleton stores one bit per row and is meant for boolean columns: key 1
// sets the row bit, key 0 clears it. A presence mask separates false rows
// from rows without a value.
type Singleton struct {
	kind    bitstream.Kind
	rows    uint64
	bits    bitstream.BitStream
	present bitstream.BitStream
}

// NewSingleton returns an empty singleton coder over representation k.
func NewSingleton(k bitstream.Kind) *Singleton {
	return &Singleton{kind: k, bits: bitstream.New(k), present: bitstream.New(k)}
}

func (c *Singleton) Kind() Kind                 { return KindSingleton }
func (c *Singleton) StreamKind() bitstream.Kind { return c.kind }
func (c *Singleton) Len() uint64                { return c.rows }

// Encode implements Coder. Only keys 0 and 1 are representable.
func (c *Singleton) Encode(key, n, skip uint64) error {
	if key > 1 {
		return ErrKeyOutOfRange
	}
	appendRows(&c.bits, n, skip, key == 1)
	appendRows(&c.present, n, skip, true)
	c.rows += n + skip
	return nil
}

func (c *Singleton) eq(key uint64) bitstream.BitStream {
	switch key {
	case 0:
		out := c.present.Clone()
		out.AndNot(&c.bits)
		return out
	case 1:
		return c.bits.Clone()
	default:
		return zeros(c.kind, c.rows)
	}
}

// Decode implements Coder. Ordering operators are not supported.
func (c *Singleton) Decode(op Op, key uint64) (bitstream.BitStream, error) {
	switch op {
	case OpEqual:
		return c.eq(key), nil
	case OpNotEqual:
		if key > 1 {
			return c.present.Clone(), nil
		}
		return c.eq(1 - key), nil
	default:
		return bitstream.BitStream{}, opError(KindSingleton, op)
	}
}

// Append implements Coder.
func (c *Singleton) Append(other Coder) error {
	o, ok := other.(*Singleton)
	if !ok || o.kind != c.kind {
		return mismatch(c, other)
	}
	if o == c {
		o = o.Clone().(*Singleton)
	}
	c.bits.Append(&o.bits)
	c.present.Append(&o.present)
	c.rows += o.rows
	return nil
}

// Streams returns the value bits followed by the presence mask.
func (c *Singleton) Streams() []bitstream.BitStream {
	return []bitstream.BitStream{c.bits.Clone(), c.present.Clone()}
}

func (c *Singleton) Equal(other Coder) bool {
	o, ok := other.(*Singleton)
	return ok && o.kind == c.kind && o.rows == c.rows &&
		c.bits.Equal(&o.bits) && c.present.Equal(&o.present)
}

func (c *Singleton) Clone() Coder {
	return &Singleton{kind: c.kind, rows: c.rows, bits: c.bits.Clone(), present: c.present.Clone()}
}

func (c *Singleton) appendBinary(dst []byte) ([]byte, error) {
	dst = appendHeader(dst, KindSingleton, c.kind, c.rows)
	dst, err := c.bits.AppendBinary(dst)
	if err != nil {
		return nil, err
	}
	return c.present.AppendBinary(dst)
}

func (c *Singleton) MarshalBinary() ([]byte, error) { return c.appendBinary(nil) }

// UnmarshalBinary implements encoding.BinaryUnmarshaler. On error c is left
// unchanged.
func (c *Singleton) UnmarshalBinary(data []byte) error { return unmarshal(c, data) }

func (c *Singleton) decodeFrom(r *binfmt.Reader) {
	c.kind, c.rows = readHeader(r, KindSingleton)
	c.bits = readStream(r, c.kind, c.rows)
	c.present = readStream(r, c.kind, c.rows)
	if r.Err() == nil {
		extra := c.bits.Clone()
		extra.AndNot(&c.present)
		if extra.Count() != 0 {
			r.Fail(errStreamShape)
		}
	}
}
