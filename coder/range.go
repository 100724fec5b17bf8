package coder

import (
	"encoding/binary"
	"slices"
	"sort"

	"github.com/hupe1980/bitdex/bitstream"
	"github.com/hupe1980/bitdex/internal/binfmt"
)

// Range uses cumulative encoding: it keeps one stream per distinct key, and
// the stream of threshold t marks every row whose key is at most t. Any
// ordering predicate is then answered from at most two streams.
type Range struct {
	kind       bitstream.Kind
	rows       uint64
	thresholds []uint64
	streams    []bitstream.BitStream
}

// NewRange returns an empty range coder over representation k.
func NewRange(k bitstream.Kind) *Range {
	return &Range{kind: k}
}

func (c *Range) Kind() Kind                 { return KindRange }
func (c *Range) StreamKind() bitstream.Kind { return c.kind }
func (c *Range) Len() uint64                { return c.rows }
func (c *Range) valueCoder()                {}

// Thresholds returns the distinct keys seen so far in ascending order.
func (c *Range) Thresholds() []uint64 { return slices.Clone(c.thresholds) }

func (c *Range) Encode(key, n, skip uint64) error {
	i, found := slices.BinarySearch(c.thresholds, key)
	if !found {
		// Rows at most key so far are exactly the rows at most the next
		// smaller threshold.
		seed := zeros(c.kind, c.rows)
		if i > 0 {
			seed = c.streams[i-1].Clone()
		}
		c.thresholds = slices.Insert(c.thresholds, i, key)
		c.streams = slices.Insert(c.streams, i, seed)
	}
	for j := range c.streams {
		appendRows(&c.streams[j], n, skip, j >= i)
	}
	c.rows += n + skip
	return nil
}

// floor returns the index of the largest threshold at most key, or -1.
func (c *Range) floor(key uint64) int {
	return sort.Search(len(c.thresholds), func(i int) bool { return c.thresholds[i] > key }) - 1
}

// presence returns the rows holding any value.
func (c *Range) presence() bitstream.BitStream {
	if len(c.streams) == 0 {
		return zeros(c.kind, c.rows)
	}
	return c.streams[len(c.streams)-1].Clone()
}

func (c *Range) le(key uint64) bitstream.BitStream {
	if i := c.floor(key); i >= 0 {
		return c.streams[i].Clone()
	}
	return zeros(c.kind, c.rows)
}

func (c *Range) lt(key uint64) bitstream.BitStream {
	if key == 0 {
		return zeros(c.kind, c.rows)
	}
	return c.le(key - 1)
}

func (c *Range) eq(key uint64) bitstream.BitStream {
	i, found := slices.BinarySearch(c.thresholds, key)
	if !found {
		return zeros(c.kind, c.rows)
	}
	out := c.streams[i].Clone()
	if i > 0 {
		out.AndNot(&c.streams[i-1])
	}
	return out
}

func (c *Range) less(key uint64) bitstream.BitStream { return c.lt(key) }

func (c *Range) greater(key uint64) bitstream.BitStream {
	out := c.presence()
	le := c.le(key)
	out.AndNot(&le)
	return out
}

func (c *Range) Decode(op Op, key uint64) (bitstream.BitStream, error) {
	var out bitstream.BitStream
	switch op {
	case OpEqual:
		out = c.eq(key)
	case OpLessEqual:
		out = c.le(key)
	case OpLessThan:
		out = c.lt(key)
	case OpGreaterThan:
		out = c.greater(key)
	case OpGreaterEqual, OpNotEqual:
		out = c.presence()
		var sub bitstream.BitStream
		if op == OpGreaterEqual {
			sub = c.lt(key)
		} else {
			sub = c.eq(key)
		}
		out.AndNot(&sub)
	default:
		return bitstream.BitStream{}, opError(KindRange, op)
	}
	return out, nil
}

func (c *Range) Append(other Coder) error {
	o, ok := other.(*Range)
	if !ok || o.kind != c.kind {
		return mismatch(c, other)
	}
	if o == c {
		o = o.Clone().(*Range)
	}
	c.merge(o)
	return nil
}

// merge concatenates cumulative streams: the merged stream of threshold t is
// each side's "at most t" stream, one after the other.
func (c *Range) merge(o *Range) {
	thresholds := mergeKeys(c.thresholds, o.thresholds)
	streams := make([]bitstream.BitStream, len(thresholds))
	for i, t := range thresholds {
		streams[i] = c.le(t)
		theirs := o.le(t)
		streams[i].Append(&theirs)
	}
	c.thresholds, c.streams = thresholds, streams
	c.rows += o.rows
}

// Streams returns the cumulative streams in threshold order. The last one
// doubles as the presence mask.
func (c *Range) Streams() []bitstream.BitStream {
	out := make([]bitstream.BitStream, len(c.streams))
	for i := range c.streams {
		out[i] = c.streams[i].Clone()
	}
	return out
}

func (c *Range) Equal(other Coder) bool {
	o, ok := other.(*Range)
	if !ok || o.kind != c.kind || o.rows != c.rows || !slices.Equal(c.thresholds, o.thresholds) {
		return false
	}
	for i := range c.streams {
		if !c.streams[i].Equal(&o.streams[i]) {
			return false
		}
	}
	return true
}

func (c *Range) Clone() Coder {
	return &Range{
		kind:       c.kind,
		rows:       c.rows,
		thresholds: slices.Clone(c.thresholds),
		streams:    c.Streams(),
	}
}

func (c *Range) appendBinary(dst []byte) ([]byte, error) {
	dst = appendHeader(dst, KindRange, c.kind, c.rows)
	dst = binary.AppendUvarint(dst, uint64(len(c.thresholds)))
	for _, t := range c.thresholds {
		dst = binary.AppendUvarint(dst, t)
	}
	var err error
	for i := range c.streams {
		if dst, err = c.streams[i].AppendBinary(dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (c *Range) MarshalBinary() ([]byte, error) { return c.appendBinary(nil) }

// UnmarshalBinary implements encoding.BinaryUnmarshaler. On error c is left
// unchanged.
func (c *Range) UnmarshalBinary(data []byte) error { return unmarshal(c, data) }

func (c *Range) decodeFrom(r *binfmt.Reader) {
	c.kind, c.rows = readHeader(r, KindRange)
	c.thresholds = readKeys(r, r.Uvarint())
	c.streams = make([]bitstream.BitStream, 0, len(c.thresholds))
	for i := range c.thresholds {
		if r.Err() != nil {
			return
		}
		s := readStream(r, c.kind, c.rows)
		if r.Err() == nil && i > 0 {
			// Cumulative streams must be nested.
			extra := c.streams[i-1].Clone()
			extra.AndNot(&s)
			if extra.Count() != 0 {
				r.Fail(errStreamShape)
			}
		}
		c.streams = append(c.streams, s)
	}
}
