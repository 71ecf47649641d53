package feature

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cityjson/flatcitybuf/citygeom"
	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/format"
	"github.com/cityjson/flatcitybuf/internal/pool"
)

const headerLen = 1 + 1 + 4*5

const (
	flagHasAppearance = 1 << 0
)

const (
	geomFlagIsInstance   = 1 << 0
	geomFlagHasSemantics = 1 << 1
)

// Geometry is the decoded form of a record's geometry region: either a
// direct boundary-array geometry (optionally with semantics) or a
// reference to a header-level GeometryTemplate via an instance.
type Geometry struct {
	Type       citygeom.GeometryType
	IsInstance bool
	Instance   citygeom.GeometryInstance
	Boundary   citygeom.BoundaryArrays
	Semantics  *citygeom.SemanticsArrays
}

// Input is the caller-supplied content of one feature, passed to Build to
// produce its on-disk record bytes.
type Input struct {
	CityObjectType CityObjectType
	MBR            [4]float64
	Vertices       []Vertex
	Attributes     []Attribute
	Geometry       Geometry
	Appearance     *citygeom.Appearance
}

// Record is a parsed view over one feature record's byte slice. Parse does
// not copy or decode the record body; every accessor reads lazily and
// directly from the backing slice, per spec.md §4.2's zero-copy contract.
type Record struct {
	raw              []byte
	mbrOffset        int
	vertexOffset     int
	attrTableOffset  int
	geomOffset       int
	appearanceOffset int
	hasAppearance    bool
}

// Parse validates and indexes record bytes without decoding attribute
// values, vertices, or geometry. The slice must span exactly one record
// (the container/range-fetch reader derives record bounds per spec.md
// §3.3's implicit-size rule); a short or structurally inconsistent slice
// yields errs.ErrTruncatedRecord.
func Parse(data []byte) (*Record, error) {
	if len(data) < headerLen {
		return nil, errs.ErrTruncatedRecord
	}

	flags := data[1]

	r := &Record{
		raw:              data,
		mbrOffset:        int(binary.LittleEndian.Uint32(data[2:])),
		vertexOffset:     int(binary.LittleEndian.Uint32(data[6:])),
		attrTableOffset:  int(binary.LittleEndian.Uint32(data[10:])),
		geomOffset:       int(binary.LittleEndian.Uint32(data[14:])),
		appearanceOffset: int(binary.LittleEndian.Uint32(data[18:])),
		hasAppearance:    flags&flagHasAppearance != 0,
	}

	if r.mbrOffset+32 > len(data) {
		return nil, errs.ErrTruncatedRecord
	}

	return r, nil
}

// CityObjectType returns the feature's CityJSON object type tag.
func (r *Record) CityObjectType() CityObjectType {
	return CityObjectType(r.raw[0])
}

// MBR returns the feature's (min_x, min_y, max_x, max_y) bounding
// rectangle, read directly from the backing slice with no allocation.
func (r *Record) MBR() [4]float64 {
	var m [4]float64
	for i := range m {
		m[i] = math.Float64frombits(binary.LittleEndian.Uint64(r.raw[r.mbrOffset+i*8:]))
	}

	return m
}

// VertexCount returns the number of entries in the local vertex array.
func (r *Record) VertexCount() int {
	return int(binary.LittleEndian.Uint32(r.raw[r.vertexOffset:]))
}

// VertexAt returns local vertex i without decoding any other vertex.
func (r *Record) VertexAt(i int) (Vertex, error) {
	n := r.VertexCount()
	if i < 0 || i >= n {
		return Vertex{}, errs.ErrTruncatedRecord
	}

	off := r.vertexOffset + 4 + i*24
	if off+24 > len(r.raw) {
		return Vertex{}, errs.ErrTruncatedRecord
	}

	return Vertex{
		X: math.Float64frombits(binary.LittleEndian.Uint64(r.raw[off:])),
		Y: math.Float64frombits(binary.LittleEndian.Uint64(r.raw[off+8:])),
		Z: math.Float64frombits(binary.LittleEndian.Uint64(r.raw[off+16:])),
	}, nil
}

// Vertices decodes the full local vertex array.
func (r *Record) Vertices() ([]Vertex, error) {
	n := r.VertexCount()
	out := make([]Vertex, n)

	for i := range out {
		v, err := r.VertexAt(i)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

// AttributeByOrdinal locates column ordinal's value via binary search over
// the record's sorted attribute index, decoding only that one value.
// ok is false if the record carries no value for this ordinal (a feature
// need not set every extension column).
func (r *Record) AttributeByOrdinal(ordinal uint16) (v any, t format.ColumnType, ok bool, err error) {
	off := r.attrTableOffset
	if off+4 > len(r.raw) {
		return nil, 0, false, errs.ErrTruncatedRecord
	}

	count := int(binary.LittleEndian.Uint32(r.raw[off:]))
	off += 4

	entries := off
	const entryWidth = 2 + 1 + 4

	idx := sort.Search(count, func(i int) bool {
		o := binary.LittleEndian.Uint16(r.raw[entries+i*entryWidth:])

		return o >= ordinal
	})

	if idx >= count {
		return nil, 0, false, nil
	}

	entryOff := entries + idx*entryWidth
	foundOrdinal := binary.LittleEndian.Uint16(r.raw[entryOff:])

	if foundOrdinal != ordinal {
		return nil, 0, false, nil
	}

	colType := format.ColumnType(r.raw[entryOff+2])
	valueOff := int(binary.LittleEndian.Uint32(r.raw[entryOff+3:]))

	blobOff := entries + count*entryWidth
	if blobOff+4 > len(r.raw) {
		return nil, 0, false, errs.ErrTruncatedRecord
	}

	blobLen := int(binary.LittleEndian.Uint32(r.raw[blobOff:]))
	blobStart := blobOff + 4

	abs := blobStart + valueOff
	if abs > len(r.raw) || abs > blobStart+blobLen {
		return nil, 0, false, errs.ErrTruncatedRecord
	}

	val, err := DecodeValue(r.raw[abs:blobStart+blobLen], colType)
	if err != nil {
		return nil, 0, false, err
	}

	return val, colType, true, nil
}

// Geometry decodes the record's geometry region.
func (r *Record) Geometry() (Geometry, error) {
	data := r.raw[r.geomOffset:]
	if len(data) < 2 {
		return Geometry{}, errs.ErrTruncatedRecord
	}

	var g Geometry
	g.Type = citygeom.GeometryType(data[0])
	flags := data[1]
	g.IsInstance = flags&geomFlagIsInstance != 0

	body := data[2:]

	if g.IsInstance {
		inst, _, err := citygeom.DecodeGeometryInstance(body)
		if err != nil {
			return Geometry{}, err
		}

		g.Instance = inst

		return g, nil
	}

	b, n, err := citygeom.DecodeBoundaryArrays(body)
	if err != nil {
		return Geometry{}, err
	}

	g.Boundary = b

	if flags&geomFlagHasSemantics != 0 {
		sem, _, err := citygeom.DecodeSemanticsArrays(body[n:])
		if err != nil {
			return Geometry{}, err
		}

		g.Semantics = &sem
	}

	return g, nil
}

// Appearance decodes the record's optional appearance region. ok is false
// when the feature carries no material/texture references.
func (r *Record) Appearance() (app citygeom.Appearance, ok bool, err error) {
	if !r.hasAppearance {
		return citygeom.Appearance{}, false, nil
	}

	app, _, err = citygeom.DecodeAppearance(r.raw[r.appearanceOffset:])
	if err != nil {
		return citygeom.Appearance{}, false, err
	}

	return app, true, nil
}

// Build serializes in into the table-of-contents record format Parse
// reads. Attributes need not be pre-sorted; Build sorts a copy by ordinal
// so AttributeByOrdinal's binary search is valid.
func Build(in Input) ([]byte, error) {
	attrs := make([]Attribute, len(in.Attributes))
	copy(attrs, in.Attributes)
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Ordinal < attrs[j].Ordinal })

	mbr := make([]byte, 32)
	for i, v := range in.MBR {
		binary.LittleEndian.PutUint64(mbr[i*8:], math.Float64bits(v))
	}

	vertexRegion := encodeVertices(in.Vertices)
	attrRegion := encodeAttrTable(attrs)
	geomRegion := encodeGeometry(in.Geometry)

	var appearanceRegion []byte
	hasAppearance := in.Appearance != nil

	if hasAppearance {
		appearanceRegion = in.Appearance.Encode()
	}

	mbrOffset := headerLen
	vertexOffset := mbrOffset + len(mbr)
	attrTableOffset := vertexOffset + len(vertexRegion)
	geomOffset := attrTableOffset + len(attrRegion)
	appearanceOffset := 0

	if hasAppearance {
		appearanceOffset = geomOffset + len(geomRegion)
	}

	total := geomOffset + len(geomRegion) + len(appearanceRegion)

	// The record is assembled in a pooled scratch buffer (its final size
	// is a one-off per call, so growth never thrashes the pool) and
	// copied out once, since the returned slice outlives this call and
	// the pool needs its buffer back for the next Build.
	scratch := pool.Records.Get()
	defer pool.Records.Put(scratch)

	scratch.Grow(total)
	scratch.B = scratch.B[:total]
	buf := scratch.B

	buf[0] = byte(in.CityObjectType)

	var flags byte
	if hasAppearance {
		flags |= flagHasAppearance
	}

	buf[1] = flags

	binary.LittleEndian.PutUint32(buf[2:], uint32(mbrOffset))         //nolint: gosec
	binary.LittleEndian.PutUint32(buf[6:], uint32(vertexOffset))      //nolint: gosec
	binary.LittleEndian.PutUint32(buf[10:], uint32(attrTableOffset))  //nolint: gosec
	binary.LittleEndian.PutUint32(buf[14:], uint32(geomOffset))       //nolint: gosec
	binary.LittleEndian.PutUint32(buf[18:], uint32(appearanceOffset)) //nolint: gosec

	off := headerLen
	off += copy(buf[off:], mbr)
	off += copy(buf[off:], vertexRegion)
	off += copy(buf[off:], attrRegion)
	off += copy(buf[off:], geomRegion)

	if hasAppearance {
		copy(buf[off:], appearanceRegion)
	}

	out := make([]byte, total)
	copy(out, buf)

	return out, nil
}

func encodeVertices(vs []Vertex) []byte {
	buf := make([]byte, 4+24*len(vs))
	binary.LittleEndian.PutUint32(buf, uint32(len(vs))) //nolint: gosec

	off := 4
	for _, v := range vs {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v.X))
		binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(v.Y))
		binary.LittleEndian.PutUint64(buf[off+16:], math.Float64bits(v.Z))
		off += 24
	}

	return buf
}

const attrEntryWidth = 2 + 1 + 4

func encodeAttrTable(attrs []Attribute) []byte {
	entries := make([]byte, attrEntryWidth*len(attrs))
	var blob []byte

	for i, a := range attrs {
		binary.LittleEndian.PutUint16(entries[i*attrEntryWidth:], a.Ordinal)
		entries[i*attrEntryWidth+2] = byte(a.Type)
		binary.LittleEndian.PutUint32(entries[i*attrEntryWidth+3:], uint32(len(blob))) //nolint: gosec

		blob = append(blob, a.Raw...)
	}

	out := make([]byte, 4+len(entries)+4+len(blob))
	binary.LittleEndian.PutUint32(out, uint32(len(attrs))) //nolint: gosec

	off := 4
	off += copy(out[off:], entries)
	binary.LittleEndian.PutUint32(out[off:], uint32(len(blob))) //nolint: gosec
	off += 4
	copy(out[off:], blob)

	return out
}

func encodeGeometry(g Geometry) []byte {
	var flags byte
	if g.IsInstance {
		flags |= geomFlagIsInstance
	} else if g.Semantics != nil {
		flags |= geomFlagHasSemantics
	}

	head := []byte{byte(g.Type), flags}

	if g.IsInstance {
		return append(head, g.Instance.Encode()...)
	}

	out := append(head, g.Boundary.Encode()...)
	if g.Semantics != nil {
		out = append(out, g.Semantics.Encode()...)
	}

	return out
}
