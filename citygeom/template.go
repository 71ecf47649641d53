package citygeom

import (
	"encoding/binary"
	"math"
)

// GeometryTemplate is a geometry defined once in the container header and
// referenced by index from any number of feature instances (spec.md §4.2).
// Its boundaries index into a shared, high-precision template vertex array
// rather than a feature's own local one.
type GeometryTemplate struct {
	Type     GeometryType
	Boundary BoundaryArrays
}

// Encode serializes a template as a type byte followed by its boundary
// arrays.
func (t *GeometryTemplate) Encode() []byte {
	b := t.Boundary.Encode()
	out := make([]byte, 1+len(b))
	out[0] = byte(t.Type)
	copy(out[1:], b)

	return out
}

// DecodeGeometryTemplate parses the byte form produced by Encode.
func DecodeGeometryTemplate(data []byte) (GeometryTemplate, int, error) {
	if len(data) < 1 {
		return GeometryTemplate{}, 0, errTruncated
	}

	typ := GeometryType(data[0])

	b, n, err := DecodeBoundaryArrays(data[1:])
	if err != nil {
		return GeometryTemplate{}, 0, err
	}

	return GeometryTemplate{Type: typ, Boundary: b}, 1 + n, nil
}

// transformWidth is the byte size of a 4x4 row-major matrix of float64s.
const transformWidth = 16 * 8

// GeometryInstance references a GeometryTemplate by index and places it in
// a feature via an anchor vertex (an index into the feature's own local
// vertex array) and a 4x4 affine transform, per spec.md §4.2. The transform
// is applied in the template's own coordinate space before translating to
// the anchor vertex.
type GeometryInstance struct {
	TemplateIndex uint32
	AnchorVertex  uint32
	Transform     [16]float64
}

// Encode serializes an instance as TemplateIndex, AnchorVertex, then the
// 16 matrix entries in row-major order, all little-endian.
func (g *GeometryInstance) Encode() []byte {
	buf := make([]byte, 4+4+transformWidth)
	binary.LittleEndian.PutUint32(buf[0:], g.TemplateIndex)
	binary.LittleEndian.PutUint32(buf[4:], g.AnchorVertex)

	off := 8
	for _, v := range g.Transform {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
		off += 8
	}

	return buf
}

// DecodeGeometryInstance parses the byte form produced by Encode.
func DecodeGeometryInstance(data []byte) (GeometryInstance, int, error) {
	const size = 4 + 4 + transformWidth
	if len(data) < size {
		return GeometryInstance{}, 0, errTruncated
	}

	var g GeometryInstance
	g.TemplateIndex = binary.LittleEndian.Uint32(data[0:])
	g.AnchorVertex = binary.LittleEndian.Uint32(data[4:])

	off := 8
	for i := range g.Transform {
		g.Transform[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
		off += 8
	}

	return g, size, nil
}

// Apply returns the world-space coordinates of a template vertex v under
// this instance's transform, translated by the anchor position anchor.
func (g *GeometryInstance) Apply(v [3]float64, anchor [3]float64) [3]float64 {
	m := g.Transform

	var out [3]float64
	for row := 0; row < 3; row++ {
		out[row] = m[row*4+0]*v[0] + m[row*4+1]*v[1] + m[row*4+2]*v[2] + m[row*4+3]
	}

	return [3]float64{out[0] + anchor[0], out[1] + anchor[1], out[2] + anchor[2]}
}
