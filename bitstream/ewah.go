package bitstream

import (
	"encoding/binary"
	"errors"
	"math/bits"

	"github.com/hupe1980/bitdex/internal/binfmt"
)

// EWAH marker word layout:
//
//	bit 63       value of the clean words
//	bits 32..62  number of clean words
//	bits 0..31   number of dirty (literal) words that follow the marker
const (
	maxClean = 1<<31 - 1
	maxDirty = 1<<32 - 1
)

func markerBit(mk uint64) bool     { return mk>>63 == 1 }
func markerClean(mk uint64) uint64 { return (mk >> 32) & maxClean }
func markerDirty(mk uint64) uint64 { return mk & maxDirty }

func makeMarker(bit bool, clean, dirty uint64) uint64 {
	mk := clean<<32 | dirty
	if bit {
		mk |= 1 << 63
	}
	return mk
}

// ewahModel is the enhanced word-aligned hybrid representation. Full 64-bit
// words are run-length compressed in words; the trailing partial word is kept
// literally in tail.
type ewahModel struct {
	words  []uint64
	marker int
	tail   uint64
	size   uint64
}

func newEWAH() *ewahModel {
	return &ewahModel{words: []uint64{0}}
}

func (m *ewahModel) kind() Kind { return KindEWAH }

func (m *ewahModel) clone() model {
	cp := *m
	cp.words = append([]uint64(nil), m.words...)
	return &cp
}

func (m *ewahModel) fullWords() uint64 { return m.size / 64 }

// pushClean appends n clean words of the given value.
func (m *ewahModel) pushClean(bit bool, n uint64) {
	for n > 0 {
		mk := m.words[m.marker]
		clean := markerClean(mk)
		if markerDirty(mk) == 0 && (clean == 0 || markerBit(mk) == bit) && clean < maxClean {
			k := min(n, maxClean-clean)
			m.words[m.marker] = makeMarker(bit, clean+k, 0)
			n -= k
			continue
		}
		m.words = append(m.words, 0)
		m.marker = len(m.words) - 1
	}
}

// pushWord appends one full word.
func (m *ewahModel) pushWord(w uint64) {
	switch w {
	case 0:
		m.pushClean(false, 1)
	case ^uint64(0):
		m.pushClean(true, 1)
	default:
		if markerDirty(m.words[m.marker]) == maxDirty {
			m.words = append(m.words, 0)
			m.marker = len(m.words) - 1
		}
		m.words[m.marker]++
		m.words = append(m.words, w)
	}
}

func (m *ewahModel) appendBits(n uint64, bit bool) {
	if n == 0 {
		return
	}
	if r := m.size % 64; r != 0 {
		k := min(64-r, n)
		if bit {
			m.tail |= lowMask(k) << r
		}
		m.size += k
		n -= k
		if m.size%64 == 0 {
			m.pushWord(m.tail)
			m.tail = 0
		}
	}
	if full := n / 64; full > 0 {
		m.pushClean(bit, full)
		m.size += full * 64
		n -= full * 64
	}
	if n > 0 {
		if bit {
			m.tail = lowMask(n)
		}
		m.size += n
	}
}

func (m *ewahModel) appendBlock(block, nbits uint64) {
	if nbits == 0 {
		return
	}
	block &= lowMask(nbits)
	r := m.size % 64
	m.tail |= block << r
	if r+nbits >= 64 {
		m.pushWord(m.tail)
		if r == 0 {
			m.tail = 0
		} else {
			m.tail = block >> (64 - r)
		}
	}
	m.size += nbits
}

// ewahReader walks the full words of an encoding chunk by chunk. A chunk is
// either a stretch of identical clean words or a single dirty word.
type ewahReader struct {
	words []uint64
	pos   int
	clean uint64
	bit   bool
	dirty uint64
}

func (r *ewahReader) fill() bool {
	for r.clean == 0 && r.dirty == 0 {
		if r.pos >= len(r.words) {
			return false
		}
		mk := r.words[r.pos]
		r.pos++
		r.bit, r.clean, r.dirty = markerBit(mk), markerClean(mk), markerDirty(mk)
	}
	return true
}

// peek returns the current chunk word and how many words it spans.
func (r *ewahReader) peek() (uint64, uint64) {
	if r.clean > 0 {
		if r.bit {
			return ^uint64(0), r.clean
		}
		return 0, r.clean
	}
	return r.words[r.pos], 1
}

// skip consumes n words of the current chunk.
func (r *ewahReader) skip(n uint64) {
	if r.clean > 0 {
		r.clean -= n
		return
	}
	r.dirty--
	r.pos++
}

func (m *ewahModel) reader() ewahReader { return ewahReader{words: m.words} }

// zip walks the full words of two encodings with equal length in lockstep.
func zip(a, b *ewahModel, fn func(x, y, n uint64) bool) bool {
	ra, rb := a.reader(), b.reader()
	for ra.fill() && rb.fill() {
		x, nx := ra.peek()
		y, ny := rb.peek()
		n := min(nx, ny)
		if !fn(x, y, n) {
			return false
		}
		ra.skip(n)
		rb.skip(n)
	}
	return true
}

func (m *ewahModel) padded(o *ewahModel) *ewahModel {
	switch {
	case m.size < o.size:
		m.appendBits(o.size-m.size, false)
	case o.size < m.size:
		o = o.clone().(*ewahModel)
		o.appendBits(m.size-o.size, false)
	}
	return o
}

func (m *ewahModel) combine(other model, op func(x, y uint64) uint64) {
	o := m.padded(other.(*ewahModel))
	out := newEWAH()
	zip(m, o, func(x, y, n uint64) bool {
		w := op(x, y)
		if n > 1 {
			out.pushClean(w != 0, n)
		} else {
			out.pushWord(w)
		}
		return true
	})
	out.tail = op(m.tail, o.tail) & lowMask(m.size%64)
	out.size = m.size
	*m = *out
}

func (m *ewahModel) and(o model)    { m.combine(o, func(x, y uint64) uint64 { return x & y }) }
func (m *ewahModel) or(o model)     { m.combine(o, func(x, y uint64) uint64 { return x | y }) }
func (m *ewahModel) xor(o model)    { m.combine(o, func(x, y uint64) uint64 { return x ^ y }) }
func (m *ewahModel) andNot(o model) { m.combine(o, func(x, y uint64) uint64 { return x &^ y }) }

func (m *ewahModel) not() {
	for i := 0; i < len(m.words); {
		mk := m.words[i]
		m.words[i] = mk ^ 1<<63
		d := int(markerDirty(mk))
		for j := i + 1; j <= i+d; j++ {
			m.words[j] = ^m.words[j]
		}
		i += 1 + d
	}
	m.tail = ^m.tail & lowMask(m.size%64)
}

func (m *ewahModel) equal(other model) bool {
	o := other.(*ewahModel)
	if m.size != o.size || m.tail != o.tail {
		return false
	}
	return zip(m, o, func(x, y, _ uint64) bool { return x == y })
}

func (m *ewahModel) appendStream(other model) {
	o := other.(*ewahModel)
	r := o.reader()
	for r.fill() {
		w, n := r.peek()
		if n > 1 {
			m.appendBits(n*64, w != 0)
		} else {
			m.appendBlock(w, 64)
		}
		r.skip(n)
	}
	m.appendBlock(o.tail, o.size%64)
}

// trim rewrites the encoding in canonical form.
func (m *ewahModel) trim() {
	out := newEWAH()
	out.appendStream(m)
	*m = *out
}

func (m *ewahModel) clear() {
	*m = *newEWAH()
}

func (m *ewahModel) at(i uint64) bool {
	wi := i / 64
	if wi >= m.fullWords() {
		return m.tail>>(i%64)&1 == 1
	}
	r := m.reader()
	var base uint64
	for r.fill() {
		w, n := r.peek()
		if wi < base+n {
			return w>>(i%64)&1 == 1
		}
		base += n
		r.skip(n)
	}
	return false
}

func (m *ewahModel) len() uint64 { return m.size }

func (m *ewahModel) count() uint64 {
	total := uint64(bits.OnesCount64(m.tail))
	r := m.reader()
	for r.fill() {
		w, n := r.peek()
		total += uint64(bits.OnesCount64(w)) * n
		r.skip(n)
	}
	return total
}

// findFrom returns the first set bit at or after i.
func (m *ewahModel) findFrom(i uint64) (uint64, bool) {
	if i >= m.size {
		return 0, false
	}
	start := i / 64
	r := m.reader()
	var base uint64
	for r.fill() {
		w, n := r.peek()
		if w != 0 && start < base+n {
			wi := max(base, start)
			mask := w
			if wi == start {
				mask &= ^uint64(0) << (i % 64)
			}
			if mask != 0 {
				return wi*64 + uint64(bits.TrailingZeros64(mask)), true
			}
			if wi+1 < base+n {
				return (wi+1)*64 + uint64(bits.TrailingZeros64(w)), true
			}
		}
		base += n
		r.skip(n)
	}
	mask := m.tail
	if start == base {
		mask &= ^uint64(0) << (i % 64)
	}
	if mask != 0 {
		return base*64 + uint64(bits.TrailingZeros64(mask)), true
	}
	return 0, false
}

// findUpTo returns the last set bit at or before i.
func (m *ewahModel) findUpTo(i uint64) (uint64, bool) {
	var (
		best  uint64
		found bool
		base  uint64
	)
	end := i / 64
	r := m.reader()
	for r.fill() {
		if base > end {
			return best, found
		}
		w, n := r.peek()
		if w != 0 {
			wi := min(base+n-1, end)
			mask := w
			if wi == end {
				mask &= lowMask(i%64 + 1)
			}
			switch {
			case mask != 0:
				best, found = wi*64+uint64(63-bits.LeadingZeros64(mask)), true
			case wi > base:
				best, found = (wi-1)*64+uint64(63-bits.LeadingZeros64(w)), true
			}
		}
		base += n
		r.skip(n)
	}
	if base <= end {
		mask := m.tail
		if base == end {
			mask &= lowMask(i%64 + 1)
		}
		if mask != 0 {
			best, found = base*64+uint64(63-bits.LeadingZeros64(mask)), true
		}
	}
	return best, found
}

func (m *ewahModel) findFirst() (uint64, bool) { return m.findFrom(0) }

func (m *ewahModel) findNext(i uint64) (uint64, bool) {
	if i == ^uint64(0) {
		return 0, false
	}
	return m.findFrom(i + 1)
}

func (m *ewahModel) findLast() (uint64, bool) {
	if m.size == 0 {
		return 0, false
	}
	return m.findUpTo(m.size - 1)
}

func (m *ewahModel) findPrev(i uint64) (uint64, bool) {
	if i == 0 || m.size == 0 {
		return 0, false
	}
	return m.findUpTo(min(i-1, m.size-1))
}

func (m *ewahModel) begin() cursor {
	c := &ewahCursor{r: m.reader(), tail: m.tail, hasTail: m.size%64 != 0}
	c.next()
	return c
}

// ewahCursor iterates set bits word by word, skipping zero runs without
// expanding them.
type ewahCursor struct {
	r        ewahReader
	chunk    uint64
	left     uint64
	nextWord uint64
	word     uint64
	cur      uint64
	tail     uint64
	hasTail  bool
	tailDone bool
	at       uint64
	done     bool
}

func (c *ewahCursor) kind() Kind { return KindEWAH }

func (c *ewahCursor) clone() cursor {
	cp := *c
	return &cp
}

func (c *ewahCursor) pos() (uint64, bool) { return c.at, !c.done }

func (c *ewahCursor) next() {
	for !c.done {
		if c.cur != 0 {
			c.at = c.word*64 + uint64(bits.TrailingZeros64(c.cur))
			c.cur &= c.cur - 1
			return
		}
		c.load()
	}
}

// load makes the next non-zero word current, or marks the cursor done.
func (c *ewahCursor) load() {
	for {
		if c.left > 0 {
			c.left--
			c.word = c.nextWord
			c.nextWord++
			c.cur = c.chunk
			return
		}
		if c.r.fill() {
			w, n := c.r.peek()
			c.r.skip(n)
			if w == 0 {
				c.nextWord += n
				continue
			}
			c.chunk, c.left = w, n
			continue
		}
		if c.hasTail && !c.tailDone {
			c.tailDone = true
			c.word = c.nextWord
			c.cur = c.tail
			return
		}
		c.done = true
		return
	}
}

var errEWAHLayout = errors.New("inconsistent ewah layout")

func (m *ewahModel) appendBinary(dst []byte) ([]byte, error) {
	dst = binary.AppendUvarint(dst, m.size)
	dst = binary.AppendUvarint(dst, uint64(len(m.words)))
	dst = binfmt.AppendWords(dst, m.words)
	if m.size%64 != 0 {
		dst = binary.LittleEndian.AppendUint64(dst, m.tail)
	}
	return dst, nil
}

func decodeEWAH(data []byte) (model, []byte, error) {
	r := binfmt.NewReader(data)
	size := r.Uvarint()
	n := r.Uvarint()
	words := r.Words(n)
	var tail uint64
	if size%64 != 0 {
		tail = r.Uint64()
	}
	if err := r.Err(); err != nil {
		return nil, nil, err
	}
	if len(words) == 0 || tail&^lowMask(size%64) != 0 {
		return nil, nil, errEWAHLayout
	}
	var (
		full   uint64
		marker int
	)
	for i := 0; i < len(words); {
		mk := words[i]
		d := markerDirty(mk)
		if d > uint64(len(words)-i-1) {
			return nil, nil, errEWAHLayout
		}
		marker = i
		full += markerClean(mk) + d
		i += 1 + int(d)
	}
	if full != size/64 {
		return nil, nil, errEWAHLayout
	}
	return &ewahModel{words: words, marker: marker, tail: tail, size: size}, r.Rest(), nil
}
