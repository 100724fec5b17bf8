package mmap

import "errors"

// AccessPattern hints the kernel how mapped data will be read.
type AccessPattern int

const (
	AccessDefault AccessPattern = iota
	// AccessSequential suits whole-blob decoding, the common case for
	// snapshots.
	AccessSequential
	AccessRandom
	AccessWillNeed
	AccessDontNeed
)

var (
	// ErrClosed is returned when attempting to access a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when the file size cannot be mapped.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
