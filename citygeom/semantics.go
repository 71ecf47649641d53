package citygeom

import "encoding/binary"

// SemanticsArrays mirrors BoundaryArrays one level up: Values holds one
// semantic-surface-type ordinal per leaf surface (i.e. one entry per
// element of BoundaryArrays.Surfaces, in the same order), and Parents
// records, for surfaces that themselves refer to a "parent" semantic
// object (CityJSON's semantics.values can nest), the index of that parent
// within Values. A zero-length Parents means no surface has a parent.
type SemanticsArrays struct {
	Values  []uint16
	Parents []uint32
}

// Encode serializes the semantics arrays as two length-prefixed slices.
func (s *SemanticsArrays) Encode() []byte {
	size := 4 + 2*len(s.Values) + 4 + 4*len(s.Parents)
	buf := make([]byte, size)

	off := 0
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(s.Values))) //nolint: gosec
	off += 4

	for _, v := range s.Values {
		binary.LittleEndian.PutUint16(buf[off:], v)
		off += 2
	}

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(s.Parents))) //nolint: gosec
	off += 4

	for _, p := range s.Parents {
		binary.LittleEndian.PutUint32(buf[off:], p)
		off += 4
	}

	return buf
}

// DecodeSemanticsArrays parses the byte form produced by Encode.
func DecodeSemanticsArrays(data []byte) (SemanticsArrays, int, error) {
	var s SemanticsArrays

	off := 0
	if off+4 > len(data) {
		return SemanticsArrays{}, 0, errTruncated
	}

	nv := binary.LittleEndian.Uint32(data[off:])
	off += 4

	if off+2*int(nv) > len(data) {
		return SemanticsArrays{}, 0, errTruncated
	}

	s.Values = make([]uint16, nv)
	for i := range s.Values {
		s.Values[i] = binary.LittleEndian.Uint16(data[off:])
		off += 2
	}

	if off+4 > len(data) {
		return SemanticsArrays{}, 0, errTruncated
	}

	np := binary.LittleEndian.Uint32(data[off:])
	off += 4

	if off+4*int(np) > len(data) {
		return SemanticsArrays{}, 0, errTruncated
	}

	s.Parents = make([]uint32, np)
	for i := range s.Parents {
		s.Parents[i] = binary.LittleEndian.Uint32(data[off:])
		off += 4
	}

	return s, off, nil
}

// SurfaceType returns the semantic surface type ordinal for leaf surface
// surfaceIdx, and ok=false if semantics were not recorded for this
// geometry (empty Values).
func (s *SemanticsArrays) SurfaceType(surfaceIdx int) (v uint16, ok bool) {
	if surfaceIdx < 0 || surfaceIdx >= len(s.Values) {
		return 0, false
	}

	return s.Values[surfaceIdx], true
}
