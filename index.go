package bitdex

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/hupe1980/bitdex/binner"
	"github.com/hupe1980/bitdex/bitstream"
	"github.com/hupe1980/bitdex/coder"
)

// Value is the set of column types an Index can hold.
type Value interface {
	binner.Number | ~bool
}

// formatVersion is bumped on incompatible changes to the index header.
const formatVersion = 1

var magic = [4]byte{'B', 'D', 'X', '1'}

// Index is a bitmap index over one column of values of type T. Every row
// is mapped to a bin key by the binner, and the coder maintains the
// bitstreams that answer relational lookups over those keys.
//
// Index follows a single-writer, multi-reader discipline: Lookup and the
// other read methods may run concurrently, but never together with PushBack,
// Append, AppendIndex or UnmarshalBinary.
type Index[T Value] struct {
	binner binner.Binner[T]
	coder  coder.Coder

	// newBinner and accepts restore the binner and validate the coder when
	// decoding, since T alone does not say whether the index is boolean.
	newBinner func(binner.Config) (binner.Binner[T], error)
	accepts   func(coder.Coder) bool

	logger  *Logger
	metrics MetricsCollector
}

// New returns an empty index for numeric values. A nil binner selects the
// identity binner and a nil coder an equality coder over the configured
// representation.
//
// Only value coders are accepted; boolean columns use NewBool.
func New[T binner.Number](b binner.Binner[T], c coder.ValueCoder, opts ...Option) *Index[T] {
	o := applyOptions(opts)
	if b == nil {
		b = binner.Identity[T]{}
	}
	if c == nil {
		c = coder.NewEquality(o.kind)
	}
	return newNumeric(b, c, o)
}

func newNumeric[T binner.Number](b binner.Binner[T], c coder.Coder, o options) *Index[T] {
	return &Index[T]{
		binner:    b,
		coder:     c,
		newBinner: binner.FromConfig[T],
		accepts: func(c coder.Coder) bool {
			_, ok := c.(coder.ValueCoder)
			return ok
		},
		logger:  o.logger.WithCoder(c.Kind()),
		metrics: o.metricsCollector,
	}
}

// NewBool returns an empty index for boolean values. A nil coder selects a
// singleton coder over the configured representation.
func NewBool(c *coder.Singleton, opts ...Option) *Index[bool] {
	o := applyOptions(opts)
	if c == nil {
		c = coder.NewSingleton(o.kind)
	}
	return newBool(c, o)
}

func newBool(c *coder.Singleton, o options) *Index[bool] {
	return &Index[bool]{
		binner: binner.Bool{},
		coder:  c,
		newBinner: func(cfg binner.Config) (binner.Binner[bool], error) {
			if cfg.Kind != binner.KindBool {
				return nil, fmt.Errorf("%w: %s binner on bool index", ErrTypeMismatch, cfg)
			}
			return binner.Bool{}, nil
		},
		accepts: func(c coder.Coder) bool {
			_, ok := c.(*coder.Singleton)
			return ok
		},
		logger:  o.logger.WithCoder(c.Kind()),
		metrics: o.metricsCollector,
	}
}

// NewEquality returns an equality-coded index with binner b.
func NewEquality[T binner.Number](b binner.Binner[T], opts ...Option) *Index[T] {
	o := applyOptions(opts)
	return New(b, coder.NewEquality(o.kind), opts...)
}

// NewRange returns a range-coded index with binner b.
func NewRange[T binner.Number](b binner.Binner[T], opts ...Option) *Index[T] {
	o := applyOptions(opts)
	return New(b, coder.NewRange(o.kind), opts...)
}

// NewMultiLevel returns a bit-sliced index with binner b over base, using
// range coding per digit.
func NewMultiLevel[T binner.Number](b binner.Binner[T], base coder.Base, opts ...Option) (*Index[T], error) {
	o := applyOptions(opts)
	c, err := coder.NewMultiLevel(base, coder.KindRange, o.kind)
	if err != nil {
		return nil, err
	}
	return New(b, c, opts...), nil
}

// Load decodes a numeric index produced by MarshalBinary.
func Load[T binner.Number](data []byte, opts ...Option) (*Index[T], error) {
	o := applyOptions(opts)
	idx := newNumeric[T](binner.Identity[T]{}, coder.NewEquality(o.kind), o)
	if err := idx.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return idx, nil
}

// LoadBool decodes a boolean index produced by MarshalBinary.
func LoadBool(data []byte, opts ...Option) (*Index[bool], error) {
	o := applyOptions(opts)
	idx := newBool(coder.NewSingleton(o.kind), o)
	if err := idx.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return idx, nil
}

// PushBack appends one row holding x.
func (idx *Index[T]) PushBack(x T) error {
	return idx.Append(x, 1, 0)
}

// Append appends n rows holding x followed by skip rows without a value.
// Skipped rows match no lookup.
func (idx *Index[T]) Append(x T, n, skip uint64) error {
	err := idx.coder.Encode(idx.binner.Bin(x), n, skip)
	idx.metrics.RecordAppend(n+skip, err)
	idx.logger.LogAppend(context.Background(), n, skip, err)
	return err
}

// AppendIndex appends all rows of other. Both indexes must use the same
// binner configuration and an identically configured coder.
func (idx *Index[T]) AppendIndex(other *Index[T]) error {
	start := time.Now()
	rows := other.Len()
	err := idx.appendIndex(other)
	idx.metrics.RecordMerge(rows, time.Since(start), err)
	idx.logger.LogMerge(context.Background(), rows, err)
	return err
}

func (idx *Index[T]) appendIndex(other *Index[T]) error {
	want, got := idx.binner.Config(), other.binner.Config()
	if want != got {
		return &MismatchError{Want: want.String(), Got: got.String(), cause: ErrTypeMismatch}
	}
	if err := idx.coder.Append(other.coder); err != nil {
		return &MismatchError{
			Want:  fmt.Sprintf("%s/%s", idx.coder.Kind(), idx.coder.StreamKind()),
			Got:   fmt.Sprintf("%s/%s", other.coder.Kind(), other.coder.StreamKind()),
			cause: err,
		}
	}
	return nil
}

// Lookup returns the rows whose value satisfies "row op x". The result has
// exactly Len bits.
//
// Lossy binners make lookups operate on bins: with a precision or decimal
// binner, values sharing a bin with x compare equal to it.
func (idx *Index[T]) Lookup(op coder.Op, x T) (bitstream.BitStream, error) {
	start := time.Now()
	out, err := idx.coder.Decode(op, idx.binner.Bin(x))
	if err != nil {
		err = &LookupError{Op: op, Coder: idx.coder.Kind(), cause: err}
	}
	matches := out.Count()
	idx.metrics.RecordLookup(time.Since(start), matches, err)
	idx.logger.LogLookup(context.Background(), op, matches, err)
	return out, err
}

// Len returns the number of rows.
func (idx *Index[T]) Len() uint64 { return idx.coder.Len() }

// Empty reports whether the index has no rows.
func (idx *Index[T]) Empty() bool { return idx.coder.Len() == 0 }

// Coder returns the coder. It is owned by the index and must not be mutated.
func (idx *Index[T]) Coder() coder.Coder { return idx.coder }

// Binner returns the binner.
func (idx *Index[T]) Binner() binner.Binner[T] { return idx.binner }

// Equal reports whether both indexes use the same binner configuration and
// hold identical coder state.
func (idx *Index[T]) Equal(other *Index[T]) bool {
	return idx.binner.Config() == other.binner.Config() && idx.coder.Equal(other.coder)
}

// Clone returns a deep copy that shares the logger and metrics collector.
func (idx *Index[T]) Clone() *Index[T] {
	out := *idx
	out.coder = idx.coder.Clone()
	return &out
}

func typeTag[T Value]() byte {
	return byte(reflect.TypeFor[T]().Kind())
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
// Layout: magic "BDX1" | version | value type tag | binner config | coder.
func (idx *Index[T]) MarshalBinary() ([]byte, error) {
	dst := append([]byte(nil), magic[:]...)
	dst = append(dst, formatVersion, typeTag[T]())
	dst = idx.binner.Config().AppendBinary(dst)
	payload, err := idx.coder.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(dst, payload...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. It replaces the
// binner and coder with the decoded ones; on error idx is left unchanged.
//
// idx must have been created by a constructor or by Load.
func (idx *Index[T]) UnmarshalBinary(data []byte) error {
	if idx.newBinner == nil {
		return ErrNotInitialized
	}
	b, c, err := idx.decode(data)
	err = translateError(err)
	idx.logger.LogDecode(context.Background(), len(data), err)
	if err != nil {
		return err
	}
	idx.binner, idx.coder = b, c
	return nil
}

func (idx *Index[T]) decode(data []byte) (binner.Binner[T], coder.Coder, error) {
	if len(data) < len(magic)+2 || !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, nil, fmt.Errorf("%w: missing index header", ErrFormat)
	}
	data = data[len(magic):]
	if data[0] != formatVersion {
		return nil, nil, fmt.Errorf("%w: unsupported index version %d", ErrFormat, data[0])
	}
	if tag := typeTag[T](); data[1] != tag {
		return nil, nil, fmt.Errorf("%w: value type %s, want %s",
			ErrFormat, reflect.Kind(data[1]), reflect.Kind(tag))
	}
	cfg, rest, err := binner.DecodeConfig(data[2:])
	if err != nil {
		return nil, nil, err
	}
	b, err := idx.newBinner(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	c, rest, err := coder.Decode(rest)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) != 0 {
		return nil, nil, fmt.Errorf("%w: %d trailing bytes", ErrFormat, len(rest))
	}
	if !idx.accepts(c) {
		return nil, nil, fmt.Errorf("%w: %s coder on %s index", ErrFormat, c.Kind(), reflect.TypeFor[T]())
	}
	return b, c, nil
}
