package citygeom

import "encoding/binary"

// MaterialRef is a per-surface reference into the container header's
// shared material table (spec.md's appearance extension, §4.2
// [EXPANDED]). Index -1 (encoded as math.MaxUint32) means "no material".
type MaterialRef struct {
	MaterialIndex uint32
}

// TextureRef is a per-ring reference into the header's shared texture
// table plus the UV coordinate indices for that ring, mirroring
// CityJSON's texture "values" array.
type TextureRef struct {
	TextureIndex uint32
	UVIndices    []uint32
}

// Appearance is the optional fifth TOC region (spec.md §4.2 [EXPANDED]):
// present only when the feature carries material or texture references.
// Materials has one entry per leaf surface (parallel to
// SemanticsArrays.Values); Textures has one entry per boundary ring
// (parallel to BoundaryArrays.Strings).
type Appearance struct {
	Materials []MaterialRef
	Textures  []TextureRef
}

const noMaterial = ^uint32(0)

// Encode serializes the appearance block.
func (a *Appearance) Encode() []byte {
	size := 4 + 4*len(a.Materials) + 4
	for _, t := range a.Textures {
		size += 4 + 4 + 4*len(t.UVIndices)
	}

	buf := make([]byte, size)
	off := 0

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(a.Materials))) //nolint: gosec
	off += 4

	for _, m := range a.Materials {
		binary.LittleEndian.PutUint32(buf[off:], m.MaterialIndex)
		off += 4
	}

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(a.Textures))) //nolint: gosec
	off += 4

	for _, t := range a.Textures {
		binary.LittleEndian.PutUint32(buf[off:], t.TextureIndex)
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(t.UVIndices))) //nolint: gosec
		off += 4

		for _, uv := range t.UVIndices {
			binary.LittleEndian.PutUint32(buf[off:], uv)
			off += 4
		}
	}

	return buf
}

// DecodeAppearance parses the byte form produced by Encode.
func DecodeAppearance(data []byte) (Appearance, int, error) {
	var a Appearance

	off := 0
	if off+4 > len(data) {
		return Appearance{}, 0, errTruncated
	}

	nm := binary.LittleEndian.Uint32(data[off:])
	off += 4

	if off+4*int(nm) > len(data) {
		return Appearance{}, 0, errTruncated
	}

	a.Materials = make([]MaterialRef, nm)
	for i := range a.Materials {
		a.Materials[i] = MaterialRef{MaterialIndex: binary.LittleEndian.Uint32(data[off:])}
		off += 4
	}

	if off+4 > len(data) {
		return Appearance{}, 0, errTruncated
	}

	nt := binary.LittleEndian.Uint32(data[off:])
	off += 4

	a.Textures = make([]TextureRef, nt)
	for i := range a.Textures {
		if off+8 > len(data) {
			return Appearance{}, 0, errTruncated
		}

		texIdx := binary.LittleEndian.Uint32(data[off:])
		off += 4
		nuv := binary.LittleEndian.Uint32(data[off:])
		off += 4

		if off+4*int(nuv) > len(data) {
			return Appearance{}, 0, errTruncated
		}

		uv := make([]uint32, nuv)
		for j := range uv {
			uv[j] = binary.LittleEndian.Uint32(data[off:])
			off += 4
		}

		a.Textures[i] = TextureRef{TextureIndex: texIdx, UVIndices: uv}
	}

	return a, off, nil
}

// HasMaterial reports whether surfaceIdx carries a material reference.
func (a *Appearance) HasMaterial(surfaceIdx int) bool {
	return surfaceIdx >= 0 && surfaceIdx < len(a.Materials) && a.Materials[surfaceIdx].MaterialIndex != noMaterial
}
