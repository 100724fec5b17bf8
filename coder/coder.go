package coder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/bitdex/bitstream"
	"github.com/hupe1980/bitdex/internal/binfmt"
)

var (
	// ErrUnsupportedOperator is returned when a coder cannot answer an
	// operator, such as an ordering query against an equality coder.
	ErrUnsupportedOperator = errors.New("coder: unsupported operator")

	// ErrTypeMismatch is returned when merging coders of different types,
	// representations or bases.
	ErrTypeMismatch = errors.New("coder: type mismatch")

	// ErrKeyOutOfRange is returned when encoding a key the coder cannot
	// represent.
	ErrKeyOutOfRange = errors.New("coder: key out of range")

	// ErrInvalidBase is returned for malformed multi-level bases.
	ErrInvalidBase = errors.New("coder: invalid base")
)

var errStreamShape = errors.New("stream does not match coder state")

// Kind identifies a coding scheme. The numeric values are part of the
// serialized format.
type Kind uint8

const (
	KindSingleton Kind = iota + 1
	KindEquality
	KindRange
	KindMultiLevel
)

func (k Kind) String() string {
	switch k {
	case KindSingleton:
		return "singleton"
	case KindEquality:
		return "equality"
	case KindRange:
		return "range"
	case KindMultiLevel:
		return "multi-level"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Coder maps bin keys onto bitstreams and decodes relational predicates back
// into the matching rows.
//
// Every stream a coder owns has exactly Len() bits after each mutation.
// Decode never mutates the coder, so concurrent decodes are safe as long as
// no Encode or Append runs at the same time.
type Coder interface {
	// Kind returns the coding scheme.
	Kind() Kind
	// StreamKind returns the representation of all owned streams.
	StreamKind() bitstream.Kind
	// Len returns the number of rows.
	Len() uint64
	// Encode appends n rows holding key followed by skip rows without a
	// value.
	Encode(key, n, skip uint64) error
	// Decode returns the rows whose key satisfies "row op key". Rows without
	// a value match no operator.
	Decode(op Op, key uint64) (bitstream.BitStream, error)
	// Append appends all rows of other, which must have the same
	// configuration.
	Append(other Coder) error
	// Streams returns copies of all owned streams, including the presence
	// mask.
	Streams() []bitstream.BitStream
	// Equal reports whether other has the same configuration and state.
	Equal(other Coder) bool
	// Clone returns a deep copy.
	Clone() Coder

	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// ValueCoder is a Coder for ordered numeric keys. The singleton coder, which
// only holds one bit per row, deliberately does not implement it.
type ValueCoder interface {
	Coder
	valueCoder()
}

// levelCoder is a ValueCoder usable as one level of a MultiLevel coder.
type levelCoder interface {
	ValueCoder
	eq(key uint64) bitstream.BitStream
	less(key uint64) bitstream.BitStream
	greater(key uint64) bitstream.BitStream
	appendBinary(dst []byte) ([]byte, error)
}

func zeros(k bitstream.Kind, n uint64) bitstream.BitStream {
	return bitstream.Make(k, n, false)
}

// appendRows appends n set and skip cleared bits.
func appendRows(s *bitstream.BitStream, n, skip uint64, bit bool) {
	s.AppendBits(n, bit)
	s.AppendBits(skip, false)
}

func opError(c Kind, op Op) error {
	return fmt.Errorf("%w: %s on %s coder", ErrUnsupportedOperator, op, c)
}

func mismatch(c Coder, other Coder) error {
	return fmt.Errorf("%w: cannot merge %s/%s coder into %s/%s coder",
		ErrTypeMismatch, other.Kind(), other.StreamKind(), c.Kind(), c.StreamKind())
}

func appendHeader(dst []byte, c Kind, k bitstream.Kind, rows uint64) []byte {
	dst = append(dst, byte(c), byte(k))
	return binary.AppendUvarint(dst, rows)
}

func readHeader(r *binfmt.Reader, want Kind) (bitstream.Kind, uint64) {
	got := Kind(r.Byte())
	k := bitstream.Kind(r.Byte())
	rows := r.Uvarint()
	if r.Err() != nil {
		return 0, 0
	}
	if got != want {
		r.Fail(fmt.Errorf("%w: %s payload for %s coder", ErrTypeMismatch, got, want))
		return 0, 0
	}
	if !k.Valid() {
		r.Fail(fmt.Errorf("unknown representation tag %d", uint8(k)))
		return 0, 0
	}
	return k, rows
}

// readStream decodes one stream and checks that it matches the coder's
// representation and row count.
func readStream(r *binfmt.Reader, k bitstream.Kind, rows uint64) bitstream.BitStream {
	if r.Err() != nil {
		return bitstream.BitStream{}
	}
	s, rest, err := bitstream.Decode(r.Rest())
	if err != nil {
		r.Fail(err)
		return bitstream.BitStream{}
	}
	r.Raw(r.Len() - len(rest))
	if s.Kind() != k || s.Len() != rows {
		r.Fail(fmt.Errorf("%w: %s stream of %d bits, want %s of %d", errStreamShape, s.Kind(), s.Len(), k, rows))
	}
	return s
}

// readKeys reads n strictly ascending keys.
func readKeys(r *binfmt.Reader, n uint64) []uint64 {
	if n > uint64(r.Len()) {
		r.Fail(binfmt.ErrShortBuffer)
		return nil
	}
	keys := make([]uint64, 0, n)
	for i := uint64(0); i < n && r.Err() == nil; i++ {
		k := r.Uvarint()
		if i > 0 && k <= keys[i-1] {
			r.Fail(errors.New("keys not strictly ascending"))
		}
		keys = append(keys, k)
	}
	return keys
}

func formatError(c Kind, err error) error {
	if errors.Is(err, bitstream.ErrFormat) {
		return fmt.Errorf("%s coder: %w", c, err)
	}
	return fmt.Errorf("%w: %s coder: %w", bitstream.ErrFormat, c, err)
}

func finish(r *binfmt.Reader, c Kind) error {
	if err := r.Err(); err != nil {
		return formatError(c, err)
	}
	if r.Len() != 0 {
		return formatError(c, fmt.Errorf("%d trailing bytes", r.Len()))
	}
	return nil
}

// New returns an empty coder of kind c over representation k. Multi-level
// coders need a base and are created with NewMultiLevel instead.
func New(c Kind, k bitstream.Kind) (Coder, error) {
	switch c {
	case KindSingleton:
		return NewSingleton(k), nil
	case KindEquality:
		return NewEquality(k), nil
	case KindRange:
		return NewRange(k), nil
	default:
		return nil, fmt.Errorf("%w: cannot create %s coder without a base", ErrTypeMismatch, c)
	}
}

// Decode reconstructs a coder from the front of data, dispatching on the
// leading kind tag, and returns the rest.
func Decode(data []byte) (Coder, []byte, error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: empty coder payload", bitstream.ErrFormat)
	}
	r := binfmt.NewReader(data)
	var c interface {
		Coder
		decodeFrom(r *binfmt.Reader)
	}
	switch Kind(data[0]) {
	case KindSingleton:
		c = &Singleton{}
	case KindEquality:
		c = &Equality{}
	case KindRange:
		c = &Range{}
	case KindMultiLevel:
		c = &MultiLevel{}
	default:
		return nil, nil, fmt.Errorf("%w: unknown coder tag %d", bitstream.ErrFormat, data[0])
	}
	c.decodeFrom(r)
	if err := r.Err(); err != nil {
		return nil, nil, formatError(c.Kind(), err)
	}
	return c, r.Rest(), nil
}

// unmarshal decodes data into a fresh value and copies it into dst only on
// success.
func unmarshal[C any, P interface {
	*C
	Kind() Kind
	decodeFrom(r *binfmt.Reader)
}](dst P, data []byte) error {
	var fresh C
	p := P(&fresh)
	r := binfmt.NewReader(data)
	p.decodeFrom(r)
	if err := finish(r, dst.Kind()); err != nil {
		return err
	}
	*dst = fresh
	return nil
}
