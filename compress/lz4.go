package compress

import (
	"sync"

	"github.com/pierrec/lz4/v4"
)

// LZ4 compresses sections with LZ4 block compression, favoring decode
// speed over ratio — a reasonable default for payload blocks that may be
// decompressed once per query.
type LZ4 struct{}

var _ Codec = LZ4{}

var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// Compress returns the LZ4-compressed form of data.
func (LZ4) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	c, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(c)

	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible input: lz4 signals this by writing nothing.
		return data, nil
	}

	return dst[:n], nil
}

// Decompress returns the decompressed form of an LZ4-compressed section.
// originalSize must be the exact decompressed length, as recorded in the
// header when the section was written.
func (LZ4) Decompress(data []byte, originalSize int) ([]byte, error) {
	dst := make([]byte, originalSize)

	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}
