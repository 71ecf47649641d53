// Package compress provides the pluggable compression codecs applied to an
// S+Tree's payload/suffix sections. The header's metadata, extension and
// template blobs are stored uncompressed, and the feature section itself
// is never compressed
// (spec.md §1 non-goals); see SPEC_FULL.md §2's C10 for the rationale.
package compress

import "github.com/cityjson/flatcitybuf/format"

// Codec compresses and decompresses a section's bytes. Implementations
// must be safe for concurrent use so a single Codec value can be shared
// across reader sessions.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte, originalSize int) ([]byte, error)
}

// For resolves the Codec for a CompressionType tag as stored in the
// container header.
func For(t format.CompressionType) (Codec, error) {
	switch t {
	case format.CompressionNone:
		return NoOp{}, nil
	case format.CompressionZstd:
		return Zstd{}, nil
	case format.CompressionS2:
		return S2{}, nil
	case format.CompressionLZ4:
		return LZ4{}, nil
	default:
		return nil, errUnknownCompression(t)
	}
}

type errUnknownCompression format.CompressionType

func (e errUnknownCompression) Error() string {
	return "compress: unknown compression type tag"
}
