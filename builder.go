// Package bitdex provides compressed bitmap indexes over columns of values.
//
// This file implements the fluent column builder. Builders are immutable:
// each method returns a new builder with the updated configuration.
package bitdex

import (
	"github.com/hupe1980/bitdex/binner"
	"github.com/hupe1980/bitdex/bitstream"
	"github.com/hupe1980/bitdex/coder"
)

type binnerSpec struct {
	kind   binner.Kind
	digits int
}

// Column creates a new index builder for numeric values. The defaults are
// the identity binner, equality coding and EWAH streams.
//
// Example:
//
//	idx, err := bitdex.Column[float64]().
//	    Decimal(2).
//	    Range().
//	    Roaring().
//	    Build()
func Column[T binner.Number]() ColumnBuilder[T] {
	return ColumnBuilder[T]{
		binner: binnerSpec{kind: binner.KindIdentity},
		coder:  coder.KindEquality,
		level:  coder.KindRange,
		kind:   bitstream.KindEWAH,
	}
}

// ColumnBuilder is an immutable fluent builder for numeric indexes.
// Each method returns a new builder with the updated configuration.
type ColumnBuilder[T binner.Number] struct {
	binner  binnerSpec
	coder   coder.Kind
	level   coder.Kind
	base    coder.Base
	kind    bitstream.Kind
	logger  *Logger
	metrics MetricsCollector
}

// Identity bins every value exactly.
func (b ColumnBuilder[T]) Identity() ColumnBuilder[T] {
	b.binner = binnerSpec{kind: binner.KindIdentity}
	return b
}

// Precision keeps the given number of mantissa bits of floating point
// values. Integer values are binned exactly.
func (b ColumnBuilder[T]) Precision(digits int) ColumnBuilder[T] {
	b.binner = binnerSpec{kind: binner.KindPrecision, digits: digits}
	return b
}

// Decimal rounds values to the given number of decimal digits. Negative
// digits round to tens, hundreds and so on.
func (b ColumnBuilder[T]) Decimal(digits int) ColumnBuilder[T] {
	b.binner = binnerSpec{kind: binner.KindDecimal, digits: digits}
	return b
}

// Equality keeps one bitstream per distinct bin.
func (b ColumnBuilder[T]) Equality() ColumnBuilder[T] {
	b.coder = coder.KindEquality
	return b
}

// Range keeps one cumulative bitstream per distinct bin.
func (b ColumnBuilder[T]) Range() ColumnBuilder[T] {
	b.coder = coder.KindRange
	return b
}

// MultiLevel decomposes bins into the digits of base.
func (b ColumnBuilder[T]) MultiLevel(base coder.Base) ColumnBuilder[T] {
	b.coder = coder.KindMultiLevel
	b.base = append(coder.Base(nil), base...)
	return b
}

// BitSliced decomposes bins into digits of the given bit width. It is
// shorthand for MultiLevel(coder.UniformBits(width)).
func (b ColumnBuilder[T]) BitSliced(width int) ColumnBuilder[T] {
	base, err := coder.UniformBits(width)
	if err != nil {
		// Keep the invalid width visible to Build.
		base = coder.Base{}
	}
	return b.MultiLevel(base)
}

// LevelEquality switches multi-level indexes to equality coding per digit.
// Default: range coding.
func (b ColumnBuilder[T]) LevelEquality() ColumnBuilder[T] {
	b.level = coder.KindEquality
	return b
}

// Null stores bitstreams uncompressed.
func (b ColumnBuilder[T]) Null() ColumnBuilder[T] {
	b.kind = bitstream.KindNull
	return b
}

// EWAH stores bitstreams word-aligned run-length compressed.
func (b ColumnBuilder[T]) EWAH() ColumnBuilder[T] {
	b.kind = bitstream.KindEWAH
	return b
}

// Roaring stores bitstreams as roaring bitmaps.
func (b ColumnBuilder[T]) Roaring() ColumnBuilder[T] {
	b.kind = bitstream.KindRoaring
	return b
}

// Logger sets the structured logger.
func (b ColumnBuilder[T]) Logger(l *Logger) ColumnBuilder[T] {
	b.logger = l
	return b
}

// Metrics sets the metrics collector.
func (b ColumnBuilder[T]) Metrics(mc MetricsCollector) ColumnBuilder[T] {
	b.metrics = mc
	return b
}

// Build validates the configuration and creates the index.
func (b ColumnBuilder[T]) Build() (*Index[T], error) {
	bn, err := binner.FromConfig[T](binner.Config{Kind: b.binner.kind, Digits: b.binner.digits})
	if err != nil {
		return nil, err
	}

	var c coder.ValueCoder
	switch b.coder {
	case coder.KindRange:
		c = coder.NewRange(b.kind)
	case coder.KindMultiLevel:
		ml, err := coder.NewMultiLevel(b.base, b.level, b.kind)
		if err != nil {
			return nil, err
		}
		c = ml
	default:
		c = coder.NewEquality(b.kind)
	}

	opts := []Option{WithKind(b.kind), WithMetricsCollector(b.metrics)}
	if b.logger != nil {
		opts = append(opts, WithLogger(b.logger))
	}
	return New(bn, c, opts...), nil
}
