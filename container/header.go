package container

import (
	"encoding/json"
	"math"

	"github.com/cityjson/flatcitybuf/citygeom"
	"github.com/cityjson/flatcitybuf/endian"
	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/format"
)

// ColumnDescriptor names one attribute column carried by every feature
// record; its position in Header.Columns is the column's ordinal
// (feature.Attribute.Ordinal, sptree index lookup key).
type ColumnDescriptor struct {
	Name string
	Type format.ColumnType
}

// RTreeSection describes the spatial index's byte range and the
// parameters needed to reinterpret it (rtree.Decode's numRefs/nodeSize).
type RTreeSection struct {
	Offset      uint64
	Length      uint64
	NumFeatures uint32
	NodeSize    uint32
}

// AttrIndexSection describes one attribute's S+Tree: its index region,
// payload region (duplicate-offset chains), and optional suffix table
// (string columns only), per spec.md §4.7's per-column descriptor tuple.
type AttrIndexSection struct {
	ColumnOrdinal   uint16
	BranchingFactor uint16
	NumItems        uint32
	KeyWidth        uint16
	PayloadCapacity uint16
	Compression     format.CompressionType

	IndexOffset uint64
	IndexLen    uint64

	// PayloadOffset/PayloadLen bound the (possibly compressed) on-disk
	// payload region; PayloadRawLen is the decompressed size Codec.Decompress
	// needs (equal to PayloadLen when Compression is CompressionNone).
	PayloadOffset uint64
	PayloadLen    uint64
	PayloadRawLen uint64

	SuffixOffset uint64
	SuffixLen    uint64
	SuffixRawLen uint64
}

// FeatureSection describes the feature record region. Individual record
// sizes are not stored (spec.md §3.3) — only the section's outer bounds.
type FeatureSection struct {
	Offset uint64
	Length uint64
}

// Transform is the scale/translate CityJSON's integer-coded local
// vertices are rescaled through to recover real-world coordinates
// (spec.md §3.1's Header entity). The container owns this, not just the
// source CityJSONSeq stream, so a reader never needs the original text
// stream to reconstruct the same local coordinates on the way back out.
type Transform struct {
	Scale     [3]float64
	Translate [3]float64
}

// IdentityTransform is the Transform of a container whose stored
// vertices are already real-world coordinates.
var IdentityTransform = Transform{Scale: [3]float64{1, 1, 1}}

// Header is the container's schemaed metadata record: field ordinals and
// widths are stable across versions (spec.md §6.1) — Parse reads exactly
// the fields it knows and ignores any trailing bytes a newer writer
// appended, so older readers tolerate forward-compatible additions.
// Columns, Extensions, and GeometryTemplates (spec.md §3.2) are owned
// here exclusively — a feature record never repeats them.
type Header struct {
	Version              uint32
	FeatureCount         uint32
	IndexNodeSize        uint32
	AttrBranchingFactor  uint32
	PayloadBlockCapacity uint32

	// Transform, GeographicalExtent, Metadata, and Extensions carry the
	// CityJSON Header-level fields spec.md §3.1 lists (transform, extent,
	// CRS/schema metadata, extensions) through to the container, rather
	// than leaving them only in the source CityJSONSeq text. Metadata and
	// Extensions are kept as opaque JSON (the CityJSON "metadata" and
	// "extensions" objects can carry arbitrary nested schema-extension
	// content this format has no reason to model structurally) and are
	// round-tripped byte-for-byte.
	Transform          Transform
	GeographicalExtent []float64
	Metadata           json.RawMessage
	Extensions         json.RawMessage

	// GeometryTemplates is the shared, high-precision template array
	// spec.md §4.2 describes: a GeometryInstance.TemplateIndex on any
	// feature record indexes into this slice. Owned exclusively by the
	// header, never repeated per-feature.
	GeometryTemplates []citygeom.GeometryTemplate

	Columns   []ColumnDescriptor
	AttrIndex []AttrIndexSection
	RTree     RTreeSection
	Features  FeatureSection
}

const headerFixedPrefix = 4 + 4 + 4 + 4 + 4 + 2 + 2 // 5 uint32 + numColumns + numAttrIndexes

const rtreeSectionWidth = 8 + 8 + 4 + 4

const attrIndexSectionWidth = 2 + 2 + 4 + 2 + 2 + 1 + 8 + 8 + 8 + 8 + 8 + 8 + 8 + 8

const featureSectionWidth = 8 + 8

const transformWidth = 8 * 6 // scale[3] + translate[3], float64 each

// Bytes serializes h into its on-disk form.
func (h *Header) Bytes() []byte {
	eng := endian.LittleEndian()

	size := headerFixedPrefix + rtreeSectionWidth + featureSectionWidth
	size += len(h.AttrIndex) * attrIndexSectionWidth
	size += transformWidth
	size += 2 + len(h.GeographicalExtent)*8
	size += 4 + len(h.Metadata)
	size += 4 + len(h.Extensions)

	templateBytes := make([][]byte, len(h.GeometryTemplates))
	size += 2

	for i := range h.GeometryTemplates {
		tb := h.GeometryTemplates[i].Encode()
		templateBytes[i] = tb
		size += 4 + len(tb)
	}

	columnBytes := make([][]byte, len(h.Columns))
	for i, c := range h.Columns {
		cb := make([]byte, 2+1+len(c.Name))
		eng.PutUint16(cb[0:2], uint16(len(c.Name))) //nolint: gosec
		cb[2] = byte(c.Type)
		copy(cb[3:], c.Name)
		columnBytes[i] = cb
		size += len(cb)
	}

	buf := make([]byte, size)
	off := 0

	eng.PutUint32(buf[off:], h.Version)
	off += 4
	eng.PutUint32(buf[off:], h.FeatureCount)
	off += 4
	eng.PutUint32(buf[off:], h.IndexNodeSize)
	off += 4
	eng.PutUint32(buf[off:], h.AttrBranchingFactor)
	off += 4
	eng.PutUint32(buf[off:], h.PayloadBlockCapacity)
	off += 4
	eng.PutUint16(buf[off:], uint16(len(h.Columns))) //nolint: gosec
	off += 2
	eng.PutUint16(buf[off:], uint16(len(h.AttrIndex))) //nolint: gosec
	off += 2

	for _, cb := range columnBytes {
		copy(buf[off:], cb)
		off += len(cb)
	}

	eng.PutUint64(buf[off:], h.RTree.Offset)
	off += 8
	eng.PutUint64(buf[off:], h.RTree.Length)
	off += 8
	eng.PutUint32(buf[off:], h.RTree.NumFeatures)
	off += 4
	eng.PutUint32(buf[off:], h.RTree.NodeSize)
	off += 4

	for _, a := range h.AttrIndex {
		eng.PutUint16(buf[off:], a.ColumnOrdinal)
		off += 2
		eng.PutUint16(buf[off:], a.BranchingFactor)
		off += 2
		eng.PutUint32(buf[off:], a.NumItems)
		off += 4
		eng.PutUint16(buf[off:], a.KeyWidth)
		off += 2
		eng.PutUint16(buf[off:], a.PayloadCapacity)
		off += 2
		buf[off] = byte(a.Compression)
		off++
		eng.PutUint64(buf[off:], a.IndexOffset)
		off += 8
		eng.PutUint64(buf[off:], a.IndexLen)
		off += 8
		eng.PutUint64(buf[off:], a.PayloadOffset)
		off += 8
		eng.PutUint64(buf[off:], a.PayloadLen)
		off += 8
		eng.PutUint64(buf[off:], a.PayloadRawLen)
		off += 8
		eng.PutUint64(buf[off:], a.SuffixOffset)
		off += 8
		eng.PutUint64(buf[off:], a.SuffixLen)
		off += 8
		eng.PutUint64(buf[off:], a.SuffixRawLen)
		off += 8
	}

	eng.PutUint64(buf[off:], h.Features.Offset)
	off += 8
	eng.PutUint64(buf[off:], h.Features.Length)
	off += 8

	for _, v := range h.Transform.Scale {
		eng.PutUint64(buf[off:], math.Float64bits(v))
		off += 8
	}

	for _, v := range h.Transform.Translate {
		eng.PutUint64(buf[off:], math.Float64bits(v))
		off += 8
	}

	eng.PutUint16(buf[off:], uint16(len(h.GeographicalExtent))) //nolint: gosec
	off += 2

	for _, v := range h.GeographicalExtent {
		eng.PutUint64(buf[off:], math.Float64bits(v))
		off += 8
	}

	eng.PutUint32(buf[off:], uint32(len(h.Metadata))) //nolint: gosec
	off += 4
	copy(buf[off:], h.Metadata)
	off += len(h.Metadata)

	eng.PutUint32(buf[off:], uint32(len(h.Extensions))) //nolint: gosec
	off += 4
	copy(buf[off:], h.Extensions)
	off += len(h.Extensions)

	eng.PutUint16(buf[off:], uint16(len(templateBytes))) //nolint: gosec
	off += 2

	for _, tb := range templateBytes {
		eng.PutUint32(buf[off:], uint32(len(tb))) //nolint: gosec
		off += 4
		copy(buf[off:], tb)
		off += len(tb)
	}

	return buf
}

// Parse decodes a Header from data, which may carry trailing bytes
// beyond what this version of Parse understands (forward compatibility,
// spec.md §6.1); those bytes are simply not consumed.
func (h *Header) Parse(data []byte) error {
	if len(data) < headerFixedPrefix {
		return errs.NewFormatError("header", errs.ErrHeaderTooShort)
	}

	eng := endian.LittleEndian()
	off := 0

	h.Version = eng.Uint32(data[off:])
	off += 4
	h.FeatureCount = eng.Uint32(data[off:])
	off += 4
	h.IndexNodeSize = eng.Uint32(data[off:])
	off += 4
	h.AttrBranchingFactor = eng.Uint32(data[off:])
	off += 4
	h.PayloadBlockCapacity = eng.Uint32(data[off:])
	off += 4

	numColumns := int(eng.Uint16(data[off:]))
	off += 2
	numAttrIndexes := int(eng.Uint16(data[off:]))
	off += 2

	h.Columns = make([]ColumnDescriptor, numColumns)

	for i := 0; i < numColumns; i++ {
		if off+3 > len(data) {
			return errs.NewFormatError("header", errs.ErrHeaderTooShort)
		}

		nameLen := int(eng.Uint16(data[off:]))
		off += 2

		typ := format.ColumnType(data[off])
		off++

		if off+nameLen > len(data) {
			return errs.NewFormatError("header", errs.ErrHeaderTooShort)
		}

		h.Columns[i] = ColumnDescriptor{Name: string(data[off : off+nameLen]), Type: typ}
		off += nameLen
	}

	if off+rtreeSectionWidth > len(data) {
		return errs.NewFormatError("header", errs.ErrHeaderTooShort)
	}

	h.RTree.Offset = eng.Uint64(data[off:])
	off += 8
	h.RTree.Length = eng.Uint64(data[off:])
	off += 8
	h.RTree.NumFeatures = eng.Uint32(data[off:])
	off += 4
	h.RTree.NodeSize = eng.Uint32(data[off:])
	off += 4

	h.AttrIndex = make([]AttrIndexSection, numAttrIndexes)

	for i := 0; i < numAttrIndexes; i++ {
		if off+attrIndexSectionWidth > len(data) {
			return errs.NewFormatError("header", errs.ErrHeaderTooShort)
		}

		var a AttrIndexSection

		a.ColumnOrdinal = eng.Uint16(data[off:])
		off += 2
		a.BranchingFactor = eng.Uint16(data[off:])
		off += 2
		a.NumItems = eng.Uint32(data[off:])
		off += 4
		a.KeyWidth = eng.Uint16(data[off:])
		off += 2
		a.PayloadCapacity = eng.Uint16(data[off:])
		off += 2
		a.Compression = format.CompressionType(data[off])
		off++
		a.IndexOffset = eng.Uint64(data[off:])
		off += 8
		a.IndexLen = eng.Uint64(data[off:])
		off += 8
		a.PayloadOffset = eng.Uint64(data[off:])
		off += 8
		a.PayloadLen = eng.Uint64(data[off:])
		off += 8
		a.PayloadRawLen = eng.Uint64(data[off:])
		off += 8
		a.SuffixOffset = eng.Uint64(data[off:])
		off += 8
		a.SuffixLen = eng.Uint64(data[off:])
		off += 8
		a.SuffixRawLen = eng.Uint64(data[off:])
		off += 8

		h.AttrIndex[i] = a
	}

	if off+featureSectionWidth > len(data) {
		return errs.NewFormatError("header", errs.ErrHeaderTooShort)
	}

	h.Features.Offset = eng.Uint64(data[off:])
	off += 8
	h.Features.Length = eng.Uint64(data[off:])
	off += 8

	// Transform/GeographicalExtent/Metadata/Extensions trail the fixed
	// section descriptors. A header written before these fields existed
	// simply ends here, so a short read falls back to the identity
	// transform and empty extent/metadata/extensions rather than erroring
	// — the same forward/backward-compatibility stance this type's doc
	// comment describes for trailing bytes in general.
	if off+transformWidth > len(data) {
		h.Transform = IdentityTransform

		return nil
	}

	for i := range h.Transform.Scale {
		h.Transform.Scale[i] = math.Float64frombits(eng.Uint64(data[off:]))
		off += 8
	}

	for i := range h.Transform.Translate {
		h.Transform.Translate[i] = math.Float64frombits(eng.Uint64(data[off:]))
		off += 8
	}

	if off+2 > len(data) {
		return nil
	}

	numExtent := int(eng.Uint16(data[off:]))
	off += 2

	if off+numExtent*8 > len(data) {
		return errs.NewFormatError("header", errs.ErrHeaderTooShort)
	}

	if numExtent > 0 {
		h.GeographicalExtent = make([]float64, numExtent)
		for i := range h.GeographicalExtent {
			h.GeographicalExtent[i] = math.Float64frombits(eng.Uint64(data[off:]))
			off += 8
		}
	}

	if off+4 > len(data) {
		return nil
	}

	metaLen := int(eng.Uint32(data[off:]))
	off += 4

	if off+metaLen > len(data) {
		return errs.NewFormatError("header", errs.ErrHeaderTooShort)
	}

	if metaLen > 0 {
		h.Metadata = append(json.RawMessage(nil), data[off:off+metaLen]...)
		off += metaLen
	}

	if off+4 > len(data) {
		return nil
	}

	extLen := int(eng.Uint32(data[off:]))
	off += 4

	if off+extLen > len(data) {
		return errs.NewFormatError("header", errs.ErrHeaderTooShort)
	}

	if extLen > 0 {
		h.Extensions = append(json.RawMessage(nil), data[off:off+extLen]...)
		off += extLen
	}

	if off+2 > len(data) {
		return nil
	}

	numTemplates := int(eng.Uint16(data[off:]))
	off += 2

	if numTemplates == 0 {
		return nil
	}

	h.GeometryTemplates = make([]citygeom.GeometryTemplate, numTemplates)

	for i := 0; i < numTemplates; i++ {
		if off+4 > len(data) {
			return errs.NewFormatError("header", errs.ErrHeaderTooShort)
		}

		tLen := int(eng.Uint32(data[off:]))
		off += 4

		if off+tLen > len(data) {
			return errs.NewFormatError("header", errs.ErrHeaderTooShort)
		}

		tmpl, _, err := citygeom.DecodeGeometryTemplate(data[off : off+tLen])
		if err != nil {
			return errs.NewFormatError("header", err)
		}

		h.GeometryTemplates[i] = tmpl
		off += tLen
	}

	return nil
}

// AttrIndexByColumn returns the descriptor for the named column, if an
// index exists for it.
func (h *Header) AttrIndexByColumn(name string) (AttrIndexSection, bool) {
	for i, c := range h.Columns {
		if c.Name != name {
			continue
		}

		for _, a := range h.AttrIndex {
			if int(a.ColumnOrdinal) == i {
				return a, true
			}
		}

		return AttrIndexSection{}, false
	}

	return AttrIndexSection{}, false
}
