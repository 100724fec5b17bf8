package coder

import (
	"encoding/binary"
	"slices"

	"github.com/hupe1980/bitdex/bitstream"
	"github.com/hupe1980/bitdex/internal/binfmt"
)

// Equality keeps one stream per distinct key. Streams are created the first
// time a key is seen, zero-padded to the current row count.
type Equality struct {
	kind    bitstream.Kind
	rows    uint64
	keys    []uint64
	streams []bitstream.BitStream
	present bitstream.BitStream
}

// NewEquality returns an empty equality coder over representation k.
func NewEquality(k bitstream.Kind) *Equality {
	return &Equality{kind: k, present: bitstream.New(k)}
}

func (c *Equality) Kind() Kind                 { return KindEquality }
func (c *Equality) StreamKind() bitstream.Kind { return c.kind }
func (c *Equality) Len() uint64                { return c.rows }
func (c *Equality) valueCoder()                {}

// Keys returns the distinct keys seen so far in ascending order.
func (c *Equality) Keys() []uint64 { return slices.Clone(c.keys) }

func (c *Equality) Encode(key, n, skip uint64) error {
	i, found := slices.BinarySearch(c.keys, key)
	if !found {
		c.keys = slices.Insert(c.keys, i, key)
		c.streams = slices.Insert(c.streams, i, zeros(c.kind, c.rows))
	}
	for j := range c.streams {
		appendRows(&c.streams[j], n, skip, j == i)
	}
	appendRows(&c.present, n, skip, true)
	c.rows += n + skip
	return nil
}

func (c *Equality) eq(key uint64) bitstream.BitStream {
	if i, ok := slices.BinarySearch(c.keys, key); ok {
		return c.streams[i].Clone()
	}
	return zeros(c.kind, c.rows)
}

// union returns the OR of the streams of keys[lo:hi].
func (c *Equality) union(lo, hi int) bitstream.BitStream {
	out := zeros(c.kind, c.rows)
	for i := lo; i < hi; i++ {
		out.Or(&c.streams[i])
	}
	return out
}

func (c *Equality) less(key uint64) bitstream.BitStream {
	i, _ := slices.BinarySearch(c.keys, key)
	return c.union(0, i)
}

func (c *Equality) greater(key uint64) bitstream.BitStream {
	i, found := slices.BinarySearch(c.keys, key)
	if found {
		i++
	}
	return c.union(i, len(c.keys))
}

// Decode supports OpEqual and OpNotEqual only; equality coding carries no
// order information.
func (c *Equality) Decode(op Op, key uint64) (bitstream.BitStream, error) {
	switch op {
	case OpEqual:
		return c.eq(key), nil
	case OpNotEqual:
		out := c.present.Clone()
		if i, ok := slices.BinarySearch(c.keys, key); ok {
			out.AndNot(&c.streams[i])
		}
		return out, nil
	default:
		return bitstream.BitStream{}, opError(KindEquality, op)
	}
}

func (c *Equality) Append(other Coder) error {
	o, ok := other.(*Equality)
	if !ok || o.kind != c.kind {
		return mismatch(c, other)
	}
	if o == c {
		o = o.Clone().(*Equality)
	}
	c.merge(o)
	return nil
}

func (c *Equality) merge(o *Equality) {
	keys := mergeKeys(c.keys, o.keys)
	streams := make([]bitstream.BitStream, len(keys))
	for i, k := range keys {
		if j, ok := slices.BinarySearch(c.keys, k); ok {
			streams[i] = c.streams[j]
		} else {
			streams[i] = zeros(c.kind, c.rows)
		}
		if j, ok := slices.BinarySearch(o.keys, k); ok {
			streams[i].Append(&o.streams[j])
		} else {
			streams[i].AppendBits(o.rows, false)
		}
	}
	c.keys, c.streams = keys, streams
	c.present.Append(&o.present)
	c.rows += o.rows
}

// mergeKeys returns the sorted union of two ascending key sets.
func mergeKeys(a, b []uint64) []uint64 {
	out := make([]uint64, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}

// Streams returns the per-key streams in key order followed by the presence
// mask.
func (c *Equality) Streams() []bitstream.BitStream {
	out := make([]bitstream.BitStream, 0, len(c.streams)+1)
	for i := range c.streams {
		out = append(out, c.streams[i].Clone())
	}
	return append(out, c.present.Clone())
}

func (c *Equality) Equal(other Coder) bool {
	o, ok := other.(*Equality)
	if !ok || o.kind != c.kind || o.rows != c.rows || !slices.Equal(c.keys, o.keys) {
		return false
	}
	for i := range c.streams {
		if !c.streams[i].Equal(&o.streams[i]) {
			return false
		}
	}
	return c.present.Equal(&o.present)
}

func (c *Equality) Clone() Coder {
	out := &Equality{kind: c.kind, rows: c.rows, keys: slices.Clone(c.keys), present: c.present.Clone()}
	out.streams = make([]bitstream.BitStream, len(c.streams))
	for i := range c.streams {
		out.streams[i] = c.streams[i].Clone()
	}
	return out
}

func (c *Equality) appendBinary(dst []byte) ([]byte, error) {
	dst = appendHeader(dst, KindEquality, c.kind, c.rows)
	dst, err := c.present.AppendBinary(dst)
	if err != nil {
		return nil, err
	}
	dst = binary.AppendUvarint(dst, uint64(len(c.keys)))
	for _, k := range c.keys {
		dst = binary.AppendUvarint(dst, k)
	}
	for i := range c.streams {
		if dst, err = c.streams[i].AppendBinary(dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (c *Equality) MarshalBinary() ([]byte, error) { return c.appendBinary(nil) }

// UnmarshalBinary implements encoding.BinaryUnmarshaler. On error c is left
// unchanged.
func (c *Equality) UnmarshalBinary(data []byte) error { return unmarshal(c, data) }

func (c *Equality) decodeFrom(r *binfmt.Reader) {
	c.kind, c.rows = readHeader(r, KindEquality)
	c.present = readStream(r, c.kind, c.rows)
	c.keys = readKeys(r, r.Uvarint())
	c.streams = make([]bitstream.BitStream, 0, len(c.keys))
	for range c.keys {
		if r.Err() != nil {
			return
		}
		c.streams = append(c.streams, readStream(r, c.kind, c.rows))
	}
}
