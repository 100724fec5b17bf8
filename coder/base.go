package coder

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"
)

// Base is a mixed-radix number system, most significant digit first. A key
// k decomposes into digits d_0 ... d_{n-1} with
// k = ((d_0*b_1 + d_1)*b_2 + d_2)... and 0 <= d_i < b_i.
type Base []uint64

// Uniform returns a base of n digits, each of the given radix.
func Uniform(radix uint64, n int) (Base, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d levels", ErrInvalidBase, n)
	}
	b := make(Base, n)
	for i := range b {
		b[i] = radix
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// UniformBits returns the base that slices a 64-bit key into digits of the
// given bit width. When 64 is not a multiple of width, the most significant
// digit takes the remaining bits.
func UniformBits(width int) (Base, error) {
	if width < 1 || width > 32 {
		return nil, fmt.Errorf("%w: digit width %d outside [1, 32]", ErrInvalidBase, width)
	}
	var b Base
	if rem := 64 % width; rem != 0 {
		b = append(b, uint64(1)<<rem)
	}
	for range 64 / width {
		b = append(b, uint64(1)<<width)
	}
	return b, nil
}

// Validate checks that the base has at least one digit and every radix is
// at least 2.
func (b Base) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("%w: no digits", ErrInvalidBase)
	}
	for i, r := range b {
		if r < 2 {
			return fmt.Errorf("%w: radix %d at digit %d", ErrInvalidBase, r, i)
		}
	}
	return nil
}

// Domain returns the number of representable keys. full is true when every
// uint64 is representable, in which case n is meaningless.
func (b Base) Domain() (n uint64, full bool) {
	n = 1
	for _, r := range b {
		hi, lo := bits.Mul64(n, r)
		if hi != 0 {
			return 0, true
		}
		n = lo
	}
	return n, false
}

// Decompose returns the digits of key, most significant first. It fails with
// ErrKeyOutOfRange when key does not fit into the base.
func (b Base) Decompose(key uint64) ([]uint64, error) {
	digits := make([]uint64, len(b))
	k := key
	for i := len(b) - 1; i >= 0; i-- {
		digits[i] = k % b[i]
		k /= b[i]
	}
	if k != 0 {
		return nil, fmt.Errorf("%w: %d does not fit base %s", ErrKeyOutOfRange, key, b)
	}
	return digits, nil
}

// Compose is the inverse of Decompose.
func (b Base) Compose(digits []uint64) uint64 {
	var k uint64
	for i, d := range digits {
		k = k*b[i] + d
	}
	return k
}

func (b Base) Equal(other Base) bool { return slices.Equal(b, other) }

func (b Base) String() string {
	parts := make([]string, len(b))
	for i, r := range b {
		parts[i] = fmt.Sprint(r)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
