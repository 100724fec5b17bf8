package binner

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/bitdex/internal/binfmt"
)

// ErrInvalidDigits is returned when a binner is configured with a resolution
// outside the supported range.
var ErrInvalidDigits = errors.New("binner: invalid digits")

// ErrUnknownKind is returned when decoding a configuration with an unknown
// binner kind.
var ErrUnknownKind = errors.New("binner: unknown kind")

// Decimal digits are limited so that 10^digits fits into an int64.
const (
	MinDecimalDigits = -18
	MaxDecimalDigits = 18
)

// Kind identifies a binning policy. The numeric values are part of the
// serialized index header.
type Kind uint8

const (
	KindIdentity Kind = iota + 1
	KindPrecision
	KindDecimal
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindPrecision:
		return "precision"
	case KindDecimal:
		return "decimal"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Config describes a binner. Two binners with equal configs produce the same
// bin keys for the same value type.
type Config struct {
	Kind   Kind
	Digits int
}

func (c Config) String() string {
	switch c.Kind {
	case KindPrecision, KindDecimal:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Digits)
	default:
		return c.Kind.String()
	}
}

// AppendBinary appends the kind byte and the zig-zag encoded digits.
func (c Config) AppendBinary(dst []byte) []byte {
	dst = append(dst, byte(c.Kind))
	return binary.AppendVarint(dst, int64(c.Digits))
}

// DecodeConfig reads a Config from the front of data and returns the rest.
func DecodeConfig(data []byte) (Config, []byte, error) {
	r := binfmt.NewReader(data)
	k := Kind(r.Byte())
	if err := r.Err(); err != nil {
		return Config{}, nil, err
	}
	d, n := binary.Varint(r.Rest())
	if n <= 0 {
		return Config{}, nil, binfmt.ErrShortBuffer
	}
	if k < KindIdentity || k > KindBool {
		return Config{}, nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return Config{Kind: k, Digits: int(d)}, r.Rest()[n:], nil
}

// Binner maps a raw value onto an order-preserving bin key.
type Binner[T any] interface {
	Bin(x T) uint64
	Config() Config
}

// Identity bins every value exactly.
type Identity[T Number] struct{}

// Bin returns Order(x).
func (Identity[T]) Bin(x T) uint64 { return Order(x) }

// Config implements Binner.
func (Identity[T]) Config() Config { return Config{Kind: KindIdentity} }

// Precision keeps the sign, the exponent and the leading digits bits of the
// mantissa of a float. Integers are binned exactly.
type Precision[T Number] struct {
	digits uint
	shift  uint
}

// NewPrecision returns a precision binner keeping digits mantissa bits. For
// floats digits must be in [1, 23] (float32) or [1, 52] (float64); for
// integers in [1, 64].
func NewPrecision[T Number](digits int) (Precision[T], error) {
	limit := mantissaBits[T]()
	if limit == 0 {
		limit = 64
	}
	if digits < 1 || uint(digits) > limit {
		return Precision[T]{}, fmt.Errorf("%w: precision %d outside [1, %d]", ErrInvalidDigits, digits, limit)
	}
	p := Precision[T]{digits: uint(digits)}
	if m := mantissaBits[T](); m > 0 {
		p.shift = m - uint(digits)
	}
	return p, nil
}

// Bin implements Binner.
func (p Precision[T]) Bin(x T) uint64 { return Order(x) >> p.shift }

// Config implements Binner.
func (p Precision[T]) Config() Config { return Config{Kind: KindPrecision, Digits: int(p.digits)} }

// Decimal rounds values to a fixed number of decimal digits. Negative digits
// round to tens, hundreds, and so on. Results beyond the int64 range
// saturate.
type Decimal[T Number] struct {
	digits int
}

// NewDecimal returns a decimal binner. digits must be in
// [MinDecimalDigits, MaxDecimalDigits].
func NewDecimal[T Number](digits int) (Decimal[T], error) {
	if digits < MinDecimalDigits || digits > MaxDecimalDigits {
		return Decimal[T]{}, fmt.Errorf("%w: decimal digits %d outside [%d, %d]", ErrInvalidDigits, digits, MinDecimalDigits, MaxDecimalDigits)
	}
	return Decimal[T]{digits: digits}, nil
}

// Bin implements Binner.
func (d Decimal[T]) Bin(x T) uint64 {
	return Order(d.scale(x))
}

// Scale returns x rounded to the configured number of decimal digits, as a
// count of 10^-digits units.
func (d Decimal[T]) Scale(x T) int64 { return d.scale(x) }

func (d Decimal[T]) scale(x T) int64 {
	switch ClassOf[T]() {
	case ClassFloat:
		return saturate(math.Round(float64(x) * math.Pow10(d.digits)))
	case ClassUnsigned:
		u := uint64(x)
		if u > math.MaxInt64 {
			return scaleInt(math.MaxInt64, d.digits)
		}
		return scaleInt(int64(u), d.digits)
	default:
		return scaleInt(int64(x), d.digits)
	}
}

// Config implements Binner.
func (d Decimal[T]) Config() Config { return Config{Kind: KindDecimal, Digits: d.digits} }

var pow10 = func() [MaxDecimalDigits + 1]int64 {
	var p [MaxDecimalDigits + 1]int64
	p[0] = 1
	for i := 1; i < len(p); i++ {
		p[i] = p[i-1] * 10
	}
	return p
}()

func scaleInt(v int64, digits int) int64 {
	if digits >= 0 {
		p := pow10[digits]
		switch {
		case v > math.MaxInt64/p:
			return math.MaxInt64
		case v < math.MinInt64/p:
			return math.MinInt64
		}
		return v * p
	}
	p := pow10[-digits]
	q, r := v/p, v%p
	// Round half away from zero.
	if r < 0 {
		r = -r
	}
	if r >= p-r {
		if v < 0 {
			q--
		} else {
			q++
		}
	}
	return q
}

func saturate(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// Bool maps false to 0 and true to 1.
type Bool struct{}

// Bin implements Binner.
func (Bool) Bin(x bool) uint64 {
	if x {
		return 1
	}
	return 0
}

// Config implements Binner.
func (Bool) Config() Config { return Config{Kind: KindBool} }

// FromConfig reconstructs a binner for T from its configuration.
func FromConfig[T Number](c Config) (Binner[T], error) {
	switch c.Kind {
	case KindIdentity:
		return Identity[T]{}, nil
	case KindPrecision:
		p, err := NewPrecision[T](c.Digits)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindDecimal:
		d, err := NewDecimal[T](c.Digits)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %s for numeric values", ErrUnknownKind, c.Kind)
	}
}
