package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/hupe1980/bitdex/bitstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blob is a trivial BinaryMarshaler/BinaryUnmarshaler.
type blob struct {
	data []byte
	err  error
}

func (b *blob) MarshalBinary() ([]byte, error) { return b.data, b.err }

func (b *blob) UnmarshalBinary(data []byte) error {
	b.data = append([]byte(nil), data...)
	return b.err
}

func compressible() []byte {
	return bytes.Repeat([]byte("bitdex snapshot "), 512)
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		c    Compression
		used Compression
	}{
		{"None", compressible(), None, None},
		{"LZ4", compressible(), LZ4, LZ4},
		{"ZSTD", compressible(), ZSTD, ZSTD},
		{"Empty", nil, ZSTD, None},
		{"Incompressible", []byte{0x01, 0x7f, 0x33}, LZ4, None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Encode(&blob{data: tt.data}, tt.c)
			require.NoError(t, err)

			h, n, err := ReadHeader(frame)
			require.NoError(t, err)
			assert.Equal(t, uint8(Version), h.Version)
			assert.Equal(t, tt.used, h.Compression)
			assert.Equal(t, uint64(len(tt.data)), h.RawSize)
			assert.LessOrEqual(t, n, MaxHeaderSize)
			if tt.used != None {
				assert.Less(t, len(frame), len(tt.data))
			}

			var out blob
			require.NoError(t, Decode(frame, &out))
			assert.Equal(t, len(tt.data), len(out.data))
			assert.True(t, bytes.Equal(tt.data, out.data))
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(&blob{}, Compression(9))
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = Encode(&blob{err: boom}, None)
	assert.ErrorIs(t, err, boom)
}

func TestDecode_Corrupt(t *testing.T) {
	for _, c := range []Compression{None, LZ4, ZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			frame, err := Encode(&blob{data: compressible()}, c)
			require.NoError(t, err)

			mutate := map[string]func([]byte) []byte{
				"Magic":       func(b []byte) []byte { b[0] = 'X'; return b },
				"Version":     func(b []byte) []byte { b[4] = 99; return b },
				"Compression": func(b []byte) []byte { b[5] = 7; return b },
				"Checksum": func(b []byte) []byte {
					_, n, _ := ReadHeader(b)
					b[n-1] ^= 0xff
					return b
				},
				"Payload":   func(b []byte) []byte { b[len(b)-1] ^= 0xff; return b },
				"Truncated": func(b []byte) []byte { return b[:len(b)-1] },
				"Header":    func(b []byte) []byte { return b[:6] },
				"Trailing":  func(b []byte) []byte { return append(b, 0) },
			}

			for name, fn := range mutate {
				t.Run(name, func(t *testing.T) {
					out := blob{data: []byte("untouched")}
					err := Decode(fn(bytes.Clone(frame)), &out)
					require.Error(t, err)
					assert.ErrorIs(t, err, ErrCorrupt)
					assert.ErrorIs(t, err, bitstream.ErrFormat)
					assert.Equal(t, "untouched", string(out.data))
				})
			}
		})
	}
}

func TestDecode_ImplausibleSize(t *testing.T) {
	frame := []byte(Magic)
	frame = append(frame, Version, byte(LZ4))
	frame = binary.AppendUvarint(frame, 1<<40)
	frame = binary.LittleEndian.AppendUint32(frame, 0)
	frame = append(frame, 0x10, 0x00)

	err := Decode(frame, &blob{})
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode_UnmarshalError(t *testing.T) {
	frame, err := Encode(&blob{data: []byte("x")}, None)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = Decode(frame, &blob{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrCorrupt)
}

func TestCompression_String(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "lz4", LZ4.String())
	assert.Equal(t, "zstd", ZSTD.String())
	assert.Equal(t, "Compression(7)", Compression(7).String())
	assert.False(t, Compression(7).Valid())
}
