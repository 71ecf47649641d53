// Package citygeom implements the CityJSON geometry payload a FlatCityBuf
// feature record carries: the flat-array boundary hierarchy (spec.md
// §4.2), geometry templates/instances, and (optionally) per-surface
// semantics and appearance references.
//
// Decoding here is per region, not lazy: each Decode function parses one
// encoded region into plain slices in a single pass. The feature codec
// calls them only for the region a caller asks for (e.g. Record.Geometry).
package citygeom

import "encoding/binary"

// GeometryType mirrors CityJSON's geometry "type" discriminant.
type GeometryType uint8

const (
	GeometryInvalid GeometryType = iota
	GeometryMultiPoint
	GeometryMultiLineString
	GeometryMultiSurface
	GeometryCompositeSurface
	GeometrySolid
	GeometryMultiSolid
	GeometryCompositeSolid
	GeometryInstance
)

// BoundaryArrays is the in-memory form of the dimensional hierarchy
// described in spec.md §4.2: each level is a flat slice of counts, where
// element i at level L is the number of level-(L-1) groups it owns. The
// deepest level, Boundaries, holds raw vertex indices instead of counts.
//
// Not every level is populated for every geometry type: a MultiSurface has
// only Surfaces+Strings+Boundaries; a Solid additionally has Shells; a
// MultiSolid/CompositeSolid additionally has Solids. Unused levels are nil.
type BoundaryArrays struct {
	Solids     []uint32
	Shells     []uint32
	Surfaces   []uint32
	Strings    []uint32
	Boundaries []uint32
}

// Encode serializes the boundary arrays as five length-prefixed uint32
// slices, in the fixed order Solids, Shells, Surfaces, Strings, Boundaries.
func (b *BoundaryArrays) Encode() []byte {
	levels := [][]uint32{b.Solids, b.Shells, b.Surfaces, b.Strings, b.Boundaries}

	size := 0
	for _, l := range levels {
		size += 4 + 4*len(l)
	}

	buf := make([]byte, size)
	off := 0
	for _, l := range levels {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(l))) //nolint: gosec
		off += 4
		for _, v := range l {
			binary.LittleEndian.PutUint32(buf[off:], v)
			off += 4
		}
	}

	return buf
}

// DecodeBoundaryArrays parses the byte form produced by Encode.
func DecodeBoundaryArrays(data []byte) (BoundaryArrays, int, error) {
	var b BoundaryArrays

	levels := make([][]uint32, 5)
	off := 0

	for i := range levels {
		if off+4 > len(data) {
			return BoundaryArrays{}, 0, errTruncated
		}

		n := binary.LittleEndian.Uint32(data[off:])
		off += 4

		if off+4*int(n) > len(data) {
			return BoundaryArrays{}, 0, errTruncated
		}

		if n == 0 {
			continue
		}

		level := make([]uint32, n)
		for j := range level {
			level[j] = binary.LittleEndian.Uint32(data[off:])
			off += 4
		}

		levels[i] = level
	}

	b.Solids, b.Shells, b.Surfaces, b.Strings, b.Boundaries = levels[0], levels[1], levels[2], levels[3], levels[4]

	return b, off, nil
}

// ShellRange returns the [start, end) range into Shells owned by solid
// solidIdx. Index arithmetic walks the counts rather than storing
// explicit start offsets, matching the flat count-array encoding in
// spec.md §4.2.
func (b *BoundaryArrays) ShellRange(solidIdx int) (start, end int) {
	start = 0
	for i := 0; i < solidIdx; i++ {
		start += int(b.Solids[i])
	}

	return start, start + int(b.Solids[solidIdx])
}

// SurfaceRange returns the [start, end) range into Surfaces owned by
// shell shellIdx.
func (b *BoundaryArrays) SurfaceRange(shellIdx int) (start, end int) {
	start = 0
	for i := 0; i < shellIdx; i++ {
		start += int(b.Shells[i])
	}

	return start, start + int(b.Shells[shellIdx])
}

// StringRange returns the [start, end) range into Strings owned by
// surface surfaceIdx.
func (b *BoundaryArrays) StringRange(surfaceIdx int) (start, end int) {
	start = 0
	for i := 0; i < surfaceIdx; i++ {
		start += int(b.Surfaces[i])
	}

	return start, start + int(b.Surfaces[surfaceIdx])
}

// BoundaryRange returns the [start, end) range into Boundaries owned by
// ring stringIdx.
func (b *BoundaryArrays) BoundaryRange(stringIdx int) (start, end int) {
	start = 0
	for i := 0; i < stringIdx; i++ {
		start += int(b.Strings[i])
	}

	return start, start + int(b.Strings[stringIdx])
}

// Ring returns the vertex indices of ring stringIdx, as raw indices into
// the owning feature's local vertex array.
func (b *BoundaryArrays) Ring(stringIdx int) []uint32 {
	start, end := b.BoundaryRange(stringIdx)

	return b.Boundaries[start:end]
}

var errTruncated = boundaryError("citygeom: truncated boundary arrays")

type boundaryError string

func (e boundaryError) Error() string { return string(e) }
