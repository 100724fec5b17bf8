package snapshot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/bitdex/internal/conv"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm applied to a snapshot payload.
type Compression uint8

const (
	// None stores the payload as is.
	None Compression = 0
	// LZ4 uses LZ4 block compression (fast, good for hot data).
	LZ4 Compression = 1
	// ZSTD uses ZSTD compression (better ratio, good for cold data).
	ZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// Valid reports whether c is a known algorithm.
func (c Compression) Valid() bool {
	return c <= ZSTD
}

// lz4MaxRatio bounds the expansion of an LZ4 block; it rejects frames
// claiming implausible raw sizes before allocating.
const lz4MaxRatio = 255

var errSizeMismatch = errors.New("decompressed size mismatch")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compress returns the compressed payload and the algorithm actually used.
// Payloads that do not shrink by at least 10% are stored uncompressed.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	if c == None || len(data) == 0 {
		return data, None, nil
	}

	var out []byte
	switch c {
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, None, err
		}
		out = buf[:n]
	case ZSTD:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	default:
		return nil, None, fmt.Errorf("snapshot: unknown compression %s", c)
	}

	if len(out) == 0 || float64(len(out)) > float64(len(data))*0.9 {
		return data, None, nil
	}
	return out, c, nil
}

// decompress inflates payload into a buffer of exactly rawSize bytes.
func decompress(payload []byte, c Compression, rawSize uint64) ([]byte, error) {
	switch c {
	case None:
		if uint64(len(payload)) != rawSize {
			return nil, errSizeMismatch
		}
		return payload, nil

	case LZ4:
		if rawSize > uint64(len(payload))*lz4MaxRatio+16 {
			return nil, errSizeMismatch
		}
		size, err := conv.Uint64ToInt(rawSize)
		if err != nil {
			return nil, err
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, err
		}
		if uint64(n) != rawSize {
			return nil, errSizeMismatch
		}
		return out, nil

	case ZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		out, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, err
		}
		if uint64(len(out)) != rawSize {
			return nil, errSizeMismatch
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown compression %s", c)
	}
}
