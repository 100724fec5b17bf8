package bitdex

import (
	"errors"
	"fmt"

	"github.com/hupe1980/bitdex/binner"
	"github.com/hupe1980/bitdex/bitstream"
	"github.com/hupe1980/bitdex/coder"
	"github.com/hupe1980/bitdex/internal/binfmt"
)

var (
	// ErrUnsupportedOperator is returned when the coder of an index cannot
	// answer an operator, such as an ordering query on an equality index.
	ErrUnsupportedOperator = coder.ErrUnsupportedOperator

	// ErrTypeMismatch is returned when merging indexes with different binner
	// or coder configurations.
	ErrTypeMismatch = coder.ErrTypeMismatch

	// ErrKeyOutOfRange is returned when a value bins to a key the coder
	// cannot represent.
	ErrKeyOutOfRange = coder.ErrKeyOutOfRange

	// ErrFormat is returned when decoding malformed or unknown serialized
	// state.
	ErrFormat = bitstream.ErrFormat

	// ErrInvalidDigits is returned for out-of-range binner resolutions.
	ErrInvalidDigits = binner.ErrInvalidDigits

	// ErrInvalidBase is returned for malformed multi-level bases.
	ErrInvalidBase = coder.ErrInvalidBase

	// ErrNotInitialized is returned when decoding into an index that was not
	// created by one of the constructors.
	ErrNotInitialized = errors.New("index not initialized")
)

// LookupError reports a failed lookup together with its operator.
//
// The original underlying error can be accessed via errors.Unwrap.
type LookupError struct {
	Op    coder.Op
	Coder coder.Kind
	cause error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s on %s index: %v", e.Op, e.Coder, e.cause)
}

func (e *LookupError) Unwrap() error { return e.cause }

// MismatchError reports an attempt to merge two incompatible indexes.
//
// The original underlying error can be accessed via errors.Unwrap.
type MismatchError struct {
	Want, Got string
	cause     error
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("index mismatch: want %s, got %s", e.Want, e.Got)
}

func (e *MismatchError) Unwrap() error { return e.cause }

// translateError maps decoding failures of any layer onto ErrFormat so
// callers can test for a single sentinel.
func translateError(err error) error {
	if err == nil || errors.Is(err, ErrFormat) {
		return err
	}
	if errors.Is(err, binner.ErrUnknownKind) || errors.Is(err, binfmt.ErrShortBuffer) || errors.Is(err, binfmt.ErrOverflow) {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return err
}
