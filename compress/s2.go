package compress

import "github.com/klauspost/compress/s2"

// S2 compresses sections with S2, Snappy's faster, higher-ratio cousin
// from the klauspost/compress module — a good fit when encode speed
// matters more than ratio (e.g. compressing a large header schema
// fragment once at write time).
type S2 struct{}

var _ Codec = S2{}

// Compress returns the S2-compressed form of data.
func (S2) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

// Decompress returns the decompressed form of an S2-compressed section.
func (S2) Decompress(data []byte, originalSize int) ([]byte, error) {
	var dst []byte
	if originalSize > 0 {
		dst = make([]byte, 0, originalSize)
	}

	return s2.Decode(dst, data)
}
