package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Zstd compresses sections with Zstandard. Encoders and decoders are
// pooled: klauspost/compress/zstd is explicitly designed for reuse, and a
// reader may decompress many S+Tree payload blocks per query.
type Zstd struct{}

var _ Codec = Zstd{}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("compress: failed to build pooled zstd decoder: %v", err))
		}

		return dec
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("compress: failed to build pooled zstd encoder: %v", err))
		}

		return enc
	},
}

// Compress returns the Zstandard-compressed form of data.
func (Zstd) Compress(data []byte) ([]byte, error) {
	enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

// Decompress returns the decompressed form of a Zstandard-compressed
// section. originalSize, when known, is passed as a capacity hint.
func (Zstd) Decompress(data []byte, originalSize int) ([]byte, error) {
	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	var dst []byte
	if originalSize > 0 {
		dst = make([]byte, 0, originalSize)
	}

	return dec.DecodeAll(data, dst)
}
