// Package checksum computes the xxHash64 section checksums FlatCityBuf
// appends after its header, R-tree, and each S+Tree's index/payload
// regions (SPEC_FULL.md §3.5), so a reader can detect corruption in a
// section it has fetched in full without re-deriving it from the features
// themselves.
package checksum

import "github.com/cespare/xxhash/v2"

// Size is the byte width of a section checksum as stored on disk.
const Size = 8

// Of returns the xxHash64 digest of data.
func Of(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Verify reports whether data matches the given digest.
func Verify(data []byte, want uint64) bool {
	return xxhash.Sum64(data) == want
}
