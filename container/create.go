package container

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cityjson/flatcitybuf/citygeom"
	"github.com/cityjson/flatcitybuf/compress"
	"github.com/cityjson/flatcitybuf/endian"
	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/format"
	"github.com/cityjson/flatcitybuf/internal/checksum"
)

// AttrIndexInput is one column's already-built S+Tree material, handed
// to Create by the build-side driver that ran sptree.Build for that
// indexed column. IndexBytes is the tree's arithmetic-addressed index
// region and is never compressed (spec.md's non-goal on compressing a
// directly-addressed layer); PayloadBytes/SuffixBytes are compressed
// with Compression before being written.
type AttrIndexInput struct {
	ColumnOrdinal   uint16
	BranchingFactor uint16
	NumItems        uint32
	KeyWidth        uint16
	PayloadCapacity uint16
	Compression     format.CompressionType

	IndexBytes   []byte
	PayloadBytes []byte
	SuffixBytes  []byte
}

// BuildInput collects every already-encoded section Create needs to
// assemble a container file: the column schema, the packed R-tree's
// node bytes, one AttrIndexInput per indexed column, and the
// concatenated feature records, each at the byte offset its
// corresponding rtree.Ref in RTreeBytes names (not necessarily in
// Hilbert order: the R-tree already carries each feature's absolute
// offset, so the feature section can be written in whatever order the
// caller produced features).
type BuildInput struct {
	Columns              []ColumnDescriptor
	FeatureCount         uint32
	IndexNodeSize        uint32
	AttrBranchingFactor  uint32
	PayloadBlockCapacity uint32

	// Transform, GeographicalExtent, Metadata, and Extensions carry the
	// CityJSON Header-level fields (spec.md §3.1) through to the
	// container's own Header. Transform defaults to IdentityTransform
	// (the zero value's all-zero Scale is never what a caller wants).
	Transform          Transform
	GeographicalExtent []float64
	Metadata           json.RawMessage
	Extensions         json.RawMessage

	// GeometryTemplates carries the header-owned template array (spec.md
	// §4.2); a feature's GeometryInstance.TemplateIndex resolves against
	// this slice's position, not anything stored per-feature.
	GeometryTemplates []citygeom.GeometryTemplate

	RTreeBytes  []byte
	RTreeNumRef uint32

	AttrIndexes []AttrIndexInput

	FeatureBytes []byte
}

// Create builds a new container file at path from in, using the
// temp-path-then-rename discipline (spec.md §7): a partial or failed
// build never leaves a corrupt file at path.
func Create(path string, in BuildInput) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".fcb-build-*")
	if err != nil {
		return errs.NewBuildError("create-temp", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = writeContainer(tmp, in); err != nil {
		return errs.NewBuildError("write-sections", err)
	}

	if err = tmp.Close(); err != nil {
		return errs.NewBuildError("close-temp", err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return errs.NewBuildError("rename", err)
	}

	return nil
}

type attrSectionBytes struct {
	index   []byte
	payload []byte
	suffix  []byte
}

// layoutSections assigns every section an 8-byte-aligned offset and
// compresses each attribute index's payload/suffix regions, returning
// the finished Header (with real offsets) and the bytes to write at
// each of those offsets.
func layoutSections(in BuildInput) (*Header, []attrSectionBytes, error) {
	transform := in.Transform
	if transform.Scale == ([3]float64{}) {
		transform = IdentityTransform
	}

	h := &Header{
		Version:              Version,
		FeatureCount:         in.FeatureCount,
		IndexNodeSize:        in.IndexNodeSize,
		AttrBranchingFactor:  in.AttrBranchingFactor,
		PayloadBlockCapacity: in.PayloadBlockCapacity,
		Transform:            transform,
		GeographicalExtent:   in.GeographicalExtent,
		Metadata:             in.Metadata,
		Extensions:           in.Extensions,
		GeometryTemplates:    in.GeometryTemplates,
		Columns:              in.Columns,
		AttrIndex:            make([]AttrIndexSection, len(in.AttrIndexes)),
	}

	// Header.Bytes()'s length depends only on field counts and column
	// name lengths, not on the offset values stored in it, so this first
	// call (with every offset still zero) gives the header's true
	// on-disk length.
	headerLen := len(h.Bytes())

	off := alignUp8(8 + 4 + uint64(headerLen) + checksum.Size)

	h.RTree = RTreeSection{
		Offset:      off,
		Length:      uint64(len(in.RTreeBytes)),
		NumFeatures: in.RTreeNumRef,
		NodeSize:    in.IndexNodeSize,
	}

	off = h.RTree.Offset + h.RTree.Length + checksum.Size

	attrBytes := make([]attrSectionBytes, len(in.AttrIndexes))

	for i, a := range in.AttrIndexes {
		off = alignUp8(off)

		codec, err := compress.For(a.Compression)
		if err != nil {
			return nil, nil, err
		}

		payloadCompressed, err := codec.Compress(a.PayloadBytes)
		if err != nil {
			return nil, nil, err
		}

		sec := AttrIndexSection{
			ColumnOrdinal:   a.ColumnOrdinal,
			BranchingFactor: a.BranchingFactor,
			NumItems:        a.NumItems,
			KeyWidth:        a.KeyWidth,
			PayloadCapacity: a.PayloadCapacity,
			Compression:     a.Compression,
			IndexOffset:     off,
			IndexLen:        uint64(len(a.IndexBytes)),
		}

		off = alignUp8(sec.IndexOffset + sec.IndexLen + checksum.Size)

		sec.PayloadOffset = off
		sec.PayloadLen = uint64(len(payloadCompressed))
		sec.PayloadRawLen = uint64(len(a.PayloadBytes))

		off = sec.PayloadOffset + sec.PayloadLen + checksum.Size

		var suffixCompressed []byte

		if len(a.SuffixBytes) > 0 {
			suffixCompressed, err = codec.Compress(a.SuffixBytes)
			if err != nil {
				return nil, nil, err
			}

			off = alignUp8(off)
			sec.SuffixOffset = off
			sec.SuffixLen = uint64(len(suffixCompressed))
			sec.SuffixRawLen = uint64(len(a.SuffixBytes))
			off = sec.SuffixOffset + sec.SuffixLen + checksum.Size
		}

		h.AttrIndex[i] = sec
		attrBytes[i] = attrSectionBytes{index: a.IndexBytes, payload: payloadCompressed, suffix: suffixCompressed}
	}

	off = alignUp8(off)
	h.Features = FeatureSection{Offset: off, Length: uint64(len(in.FeatureBytes))}

	return h, attrBytes, nil
}

func writeContainer(f *os.File, in BuildInput) error {
	eng := endian.LittleEndian()

	header, attrBytes, err := layoutSections(in)
	if err != nil {
		return err
	}

	headerBytes := header.Bytes()

	if _, err := f.Write(Magic[:]); err != nil {
		return err
	}

	lenBuf := make([]byte, 4)
	eng.PutUint32(lenBuf, uint32(len(headerBytes))) //nolint: gosec

	if _, err := f.Write(lenBuf); err != nil {
		return err
	}

	if _, err := f.Write(headerBytes); err != nil {
		return err
	}

	if err := writeChecksum(f, headerBytes); err != nil {
		return err
	}

	pos := uint64(8+4+len(headerBytes)) + checksum.Size

	if err := writePadding(f, header.RTree.Offset-pos); err != nil {
		return err
	}

	if _, err := f.Write(in.RTreeBytes); err != nil {
		return err
	}

	if err := writeChecksum(f, in.RTreeBytes); err != nil {
		return err
	}

	pos = header.RTree.Offset + header.RTree.Length + checksum.Size

	for i, a := range header.AttrIndex {
		if err := writePadding(f, a.IndexOffset-pos); err != nil {
			return err
		}

		sec := attrBytes[i]

		if _, err := f.Write(sec.index); err != nil {
			return err
		}

		if err := writeChecksum(f, sec.index); err != nil {
			return err
		}

		if err := writePadding(f, a.PayloadOffset-(a.IndexOffset+a.IndexLen+checksum.Size)); err != nil {
			return err
		}

		if _, err := f.Write(sec.payload); err != nil {
			return err
		}

		if err := writeChecksum(f, sec.payload); err != nil {
			return err
		}

		pos = a.PayloadOffset + a.PayloadLen + checksum.Size

		if a.SuffixLen > 0 {
			if err := writePadding(f, a.SuffixOffset-pos); err != nil {
				return err
			}

			if _, err := f.Write(sec.suffix); err != nil {
				return err
			}

			if err := writeChecksum(f, sec.suffix); err != nil {
				return err
			}

			pos = a.SuffixOffset + a.SuffixLen + checksum.Size
		}
	}

	if err := writePadding(f, header.Features.Offset-pos); err != nil {
		return err
	}

	_, err = f.Write(in.FeatureBytes)

	return err
}

func writePadding(f *os.File, n uint64) error {
	if n == 0 {
		return nil
	}

	_, err := f.Write(make([]byte, n))

	return err
}

func writeChecksum(f *os.File, data []byte) error {
	buf := make([]byte, checksum.Size)
	endian.LittleEndian().PutUint64(buf, checksum.Of(data))
	_, err := f.Write(buf)

	return err
}
