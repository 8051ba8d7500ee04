package backup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how a stored payload is packed.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression accepts "none", "zstd" or "lz4"; empty means zstd.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CompressionZstd, nil
	case CompressionNone, CompressionZstd, CompressionLZ4:
		return c, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want none, zstd or lz4)", s)
	}
}

var errIncompressible = errors.New("backup: payload incompressible")

var (
	encMode     cbor.EncMode
	decMode     cbor.DecMode
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("backup: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{ExtraReturnErrors: cbor.ExtraDecErrorUnknownField}.DecMode()
	if err != nil {
		panic("backup: CBOR decoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("backup: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("backup: zstd decoder initialization failed: " + err.Error())
	}
}

// compress packs data with c. When the payload does not shrink it is stored
// raw and the returned Compression says so.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	var (
		out []byte
		err error
	)
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionZstd:
		out = zstdEncoder.EncodeAll(data, nil)
		if len(out) >= len(data) {
			err = errIncompressible
		}
	case CompressionLZ4:
		out, err = compressLZ4(data)
	default:
		return nil, "", fmt.Errorf("unsupported compression %q", c)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, "", err
	}
	return out, c, nil
}

func decompress(packed []byte, c Compression, rawLen int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(packed) != rawLen {
			return nil, fmt.Errorf("raw payload: size %d does not match expected %d", len(packed), rawLen)
		}
		return packed, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(packed, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) != rawLen {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), rawLen)
		}
		return out, nil
	case CompressionLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(packed, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if n != rawLen {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, rawLen)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", c)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}
