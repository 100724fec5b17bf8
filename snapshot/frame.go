package snapshot

import (
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/bitdex/bitstream"
	"github.com/hupe1980/bitdex/internal/binfmt"
	"github.com/hupe1980/bitdex/internal/hash"
)

// Magic identifies a snapshot frame.
const Magic = "BDXS"

// Version is the frame format version written by Encode.
const Version = 1

// MaxHeaderSize bounds the encoded size of a frame header.
const MaxHeaderSize = len(Magic) + 2 + binary.MaxVarintLen64 + 4

// ErrCorrupt is returned for frames with a bad magic, version, length or
// checksum. It is always wrapped together with bitstream.ErrFormat.
var ErrCorrupt = errors.New("snapshot: corrupt frame")

// Header describes a snapshot frame.
type Header struct {
	Version     uint8
	Compression Compression
	// RawSize is the length of the uncompressed index encoding.
	RawSize uint64
	// Checksum is the CRC32-C of the uncompressed index encoding.
	Checksum uint32
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", bitstream.ErrFormat, ErrCorrupt, fmt.Sprintf(format, args...))
}

// Encode serializes idx and wraps it in a checksummed frame. When c does not
// shrink the payload, the frame is stored uncompressed.
func Encode(idx encoding.BinaryMarshaler, c Compression) ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("snapshot: unknown compression %s", c)
	}

	raw, err := idx.MarshalBinary()
	if err != nil {
		return nil, err
	}

	payload, used, err := compress(raw, c)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, MaxHeaderSize+len(payload))
	out = append(out, Magic...)
	out = append(out, Version, byte(used))
	out = binary.AppendUvarint(out, uint64(len(raw)))
	out = binary.LittleEndian.AppendUint32(out, hash.CRC32C(raw))
	return append(out, payload...), nil
}

// ReadHeader parses the frame header at the start of data and returns it
// together with the number of header bytes.
func ReadHeader(data []byte) (Header, int, error) {
	r := binfmt.NewReader(data)

	magic := r.Raw(len(Magic))
	h := Header{
		Version:     r.Byte(),
		Compression: Compression(r.Byte()),
		RawSize:     r.Uvarint(),
		Checksum:    r.Uint32(),
	}
	if err := r.Err(); err != nil {
		return Header{}, 0, corrupt("header: %v", err)
	}

	switch {
	case string(magic) != Magic:
		return Header{}, 0, corrupt("bad magic %q", magic)
	case h.Version != Version:
		return Header{}, 0, corrupt("unsupported version %d", h.Version)
	case !h.Compression.Valid():
		return Header{}, 0, corrupt("unknown compression %d", uint8(h.Compression))
	}
	return h, len(data) - r.Len(), nil
}

// Decode verifies the frame in data and restores idx from it. idx is only
// touched once the payload has passed its checksum.
func Decode(data []byte, idx encoding.BinaryUnmarshaler) error {
	h, n, err := ReadHeader(data)
	if err != nil {
		return err
	}

	raw, err := decompress(data[n:], h.Compression, h.RawSize)
	if err != nil {
		return corrupt("%s payload: %v", h.Compression, err)
	}
	if sum := hash.CRC32C(raw); sum != h.Checksum {
		return corrupt("checksum mismatch: got %08x, want %08x", sum, h.Checksum)
	}
	return idx.UnmarshalBinary(raw)
}
