// Package binfmt provides the append-style writer helpers and the sticky-error
// reader shared by all bitdex binary encodings.
//
// Integers are written either as uvarints or as little-endian fixed-width
// words. Byte strings are length-prefixed with a uvarint.
package binfmt

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when the input ends before a value is complete.
var ErrShortBuffer = errors.New("binfmt: short buffer")

// ErrOverflow is returned when a uvarint does not fit into 64 bits.
var ErrOverflow = errors.New("binfmt: varint overflows 64 bits")

// AppendBytes appends a uvarint length prefix followed by b.
func AppendBytes(dst, b []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// AppendWords appends each word as a little-endian uint64.
func AppendWords(dst []byte, words []uint64) []byte {
	for _, w := range words {
		dst = binary.LittleEndian.AppendUint64(dst, w)
	}
	return dst
}

// Reader decodes values from a byte slice. The first failure is sticky:
// every subsequent call returns a zero value and Err reports the failure.
type Reader struct {
	data []byte
	err  error
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.data) }

// Rest returns the unread bytes.
func (r *Reader) Rest() []byte { return r.data }

// Fail records err as the reader's error unless one is already set. Nested
// decoders use it to report semantic errors through the same sticky path.
func (r *Reader) Fail(err error) { r.fail(err) }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
	r.data = nil
}

// Byte reads a single byte.
func (r *Reader) Byte() byte {
	if r.err != nil {
		return 0
	}
	if len(r.data) < 1 {
		r.fail(ErrShortBuffer)
		return 0
	}
	b := r.data[0]
	r.data = r.data[1:]
	return b
}

// Uvarint reads an unsigned varint.
func (r *Reader) Uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data)
	switch {
	case n == 0:
		r.fail(ErrShortBuffer)
		return 0
	case n < 0:
		r.fail(ErrOverflow)
		return 0
	}
	r.data = r.data[n:]
	return v
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() uint32 {
	b := r.Raw(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() uint64 {
	b := r.Raw(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Words reads n little-endian uint64 words.
func (r *Reader) Words(n uint64) []uint64 {
	if r.err != nil {
		return nil
	}
	if n > uint64(len(r.data))/8 {
		r.fail(ErrShortBuffer)
		return nil
	}
	words := make([]uint64, n)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(r.data[i*8:])
	}
	r.data = r.data[n*8:]
	return words
}

// Raw reads exactly n bytes. The returned slice aliases the input.
func (r *Reader) Raw(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data) < n {
		r.fail(ErrShortBuffer)
		return nil
	}
	b := r.data[:n:n]
	r.data = r.data[n:]
	return b
}

// Bytes reads a uvarint length-prefixed byte string.
func (r *Reader) Bytes() []byte {
	n := r.Uvarint()
	if r.err != nil {
		return nil
	}
	if n > uint64(len(r.data)) {
		r.fail(ErrShortBuffer)
		return nil
	}
	return r.Raw(int(n))
}
