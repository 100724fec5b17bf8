package binner

import (
	"math"
	"unsafe"
)

// Number is the set of value types a binner maps to bin keys.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Class describes how the bits of a Number are interpreted.
type Class uint8

const (
	ClassUnsigned Class = iota + 1
	ClassSigned
	ClassFloat
)

func (c Class) String() string {
	switch c {
	case ClassUnsigned:
		return "unsigned"
	case ClassSigned:
		return "signed"
	case ClassFloat:
		return "float"
	default:
		return "unknown"
	}
}

// ClassOf returns the class of T.
func ClassOf[T Number]() Class {
	half := 0.5
	if T(half) != 0 {
		return ClassFloat
	}
	var zero T
	if zero-1 < zero {
		return ClassSigned
	}
	return ClassUnsigned
}

// Width returns the size of T in bits.
func Width[T Number]() uint {
	var zero T
	return uint(unsafe.Sizeof(zero)) * 8
}

// Order maps x onto an unsigned integer such that unsigned comparison of the
// results agrees with the natural order of the inputs.
//
// Unsigned values map to themselves. Signed values get the sign bit at their
// own width flipped, so the result stays within that width. Floats are
// reinterpreted as their IEEE-754 bit pattern; non-negative values get the
// sign bit set and negative values have all bits complemented. Negative zero
// is treated as positive zero so that both land in the same bin. NaNs sort
// after +Inf (or before -Inf when their sign bit is set).
func Order[T Number](x T) uint64 {
	width := Width[T]()
	switch ClassOf[T]() {
	case ClassFloat:
		if x == 0 {
			x = 0
		}
		if width == 32 {
			b := uint64(math.Float32bits(float32(x)))
			if b>>31 == 1 {
				return ^b & math.MaxUint32
			}
			return b | 1<<31
		}
		b := math.Float64bits(float64(x))
		if b>>63 == 1 {
			return ^b
		}
		return b | 1<<63
	case ClassSigned:
		u := uint64(int64(x))
		if width < 64 {
			u &= 1<<width - 1
		}
		return u ^ 1<<(width-1)
	default:
		return uint64(x)
	}
}

// mantissaBits returns the explicit mantissa width of float type T, or zero
// for integer types.
func mantissaBits[T Number]() uint {
	if ClassOf[T]() != ClassFloat {
		return 0
	}
	if Width[T]() == 32 {
		return 23
	}
	return 52
}
