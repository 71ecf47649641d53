package cityjsonseq

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/cityjson/flatcitybuf/citygeom"
	"github.com/cityjson/flatcitybuf/container"
	"github.com/cityjson/flatcitybuf/feature"
	"github.com/cityjson/flatcitybuf/format"
)

// cityObjectJSON is the textual shape of one entry in a CityJSONFeature's
// "CityObjects" map. Extension keys this adapter does not carry (geographic
// extent overrides, appearance references, address) are ignored rather
// than rejected.
type cityObjectJSON struct {
	Type       string                     `json:"type"`
	Geometry   []geometryJSON             `json:"geometry,omitempty"`
	Attributes map[string]json.RawMessage `json:"attributes,omitempty"`
	Children   []string                   `json:"children,omitempty"`
	Parents    []string                   `json:"parents,omitempty"`
}

// FeatureLine is one CityJSONFeature: a line of a CityJSONSeq stream after
// the header.
type FeatureLine struct {
	Type        string                    `json:"type"`
	ID          string                    `json:"id"`
	CityObjects map[string]cityObjectJSON `json:"CityObjects"`
	Vertices    [][3]int64                `json:"vertices"`
	Appearance  json.RawMessage           `json:"appearance,omitempty"`
}

// ReadFeature reads and unmarshals one CityJSONFeature line. io.EOF is
// returned once the stream is exhausted.
func ReadFeature(r *bufio.Reader) (FeatureLine, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(err == io.EOF && len(line) > 0) {
		return FeatureLine{}, err
	}

	var f FeatureLine
	if uErr := jsonAPI.Unmarshal([]byte(line), &f); uErr != nil {
		return FeatureLine{}, uErr
	}

	return f, nil
}

// WriteFeature marshals f as one newline-terminated CityJSONFeature line.
func WriteFeature(w io.Writer, f FeatureLine) error {
	if f.Type == "" {
		f.Type = "CityJSONFeature"
	}

	b, err := jsonAPI.Marshal(f)
	if err != nil {
		return err
	}

	if _, err := w.Write(b); err != nil {
		return err
	}

	_, err = w.Write([]byte{'\n'})

	return err
}

// Schema fixes the attribute column set and ordinal assignment a stream of
// feature.Input values is built against. The container format carries no
// per-feature column names, only ordinals into a header-level column
// list, so every feature line in a stream must be converted against the
// same Schema.
type Schema struct {
	columns []container.ColumnDescriptor
	ordinal map[string]uint16
}

// NewSchema builds a Schema from an already-decided column list, in
// ordinal order.
func NewSchema(columns []container.ColumnDescriptor) *Schema {
	s := &Schema{
		columns: columns,
		ordinal: make(map[string]uint16, len(columns)),
	}

	for i, c := range columns {
		s.ordinal[c.Name] = uint16(i) //nolint: gosec
	}

	return s
}

// Columns returns the schema's column descriptors, in ordinal order, for
// use as container.BuildInput.Columns.
func (s *Schema) Columns() []container.ColumnDescriptor {
	return s.columns
}

// Ordinal looks up a column's ordinal by name.
func (s *Schema) Ordinal(name string) (uint16, bool) {
	o, ok := s.ordinal[name]

	return o, ok
}

// DiscoverSchema infers a Schema from a sequence of already-decoded
// feature lines by examining every root CityObject's attributes map: the
// first JSON kind seen for a name fixes its ColumnType (string ->
// ColumnString, bool -> ColumnBool, number -> ColumnFloat64, object/array
// -> ColumnJSON); a later line disagreeing with that choice is widened to
// ColumnJSON rather than rejected, since CityJSONSeq streams are not
// required to declare a schema up front the way the container format
// does. Column order is name's first-appearance order, for a
// deterministic and human-legible container header.
func DiscoverSchema(lines []FeatureLine) *Schema {
	var order []string

	types := make(map[string]format.ColumnType)

	for _, line := range lines {
		root, ok := line.CityObjects[line.ID]
		if !ok {
			continue
		}

		names := make([]string, 0, len(root.Attributes))
		for name := range root.Attributes {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			raw := root.Attributes[name]

			t := sniffColumnType(raw)

			existing, seen := types[name]
			if !seen {
				types[name] = t
				order = append(order, name)

				continue
			}

			if existing != t {
				types[name] = format.ColumnJSON
			}
		}
	}

	cols := make([]container.ColumnDescriptor, len(order))
	for i, name := range order {
		cols[i] = container.ColumnDescriptor{Name: name, Type: types[name]}
	}

	return NewSchema(cols)
}

func sniffColumnType(raw json.RawMessage) format.ColumnType {
	var v any
	if err := jsonAPI.Unmarshal(raw, &v); err != nil {
		return format.ColumnJSON
	}

	switch v.(type) {
	case string:
		return format.ColumnString
	case bool:
		return format.ColumnBool
	case float64:
		return format.ColumnFloat64
	default:
		return format.ColumnJSON
	}
}

// ToInput converts one feature line's root CityObject (the object named
// by the line's own "id") into a feature.Input, against schema's column
// ordinals and t's local-to-real vertex transform.
//
// Only the root object is carried: a Building's BuildingParts, if any,
// are addressable only via the original CityJSON text, not via the
// resulting container. Only geometry[0] of the root object is carried.
func ToInput(line FeatureLine, t Transform, schema *Schema) (feature.Input, error) {
	root, ok := line.CityObjects[line.ID]
	if !ok {
		return feature.Input{}, fmt.Errorf("cityjsonseq: feature %q has no CityObject named %q", line.ID, line.ID)
	}

	ot, ok := feature.ParseCityObjectType(root.Type)
	if !ok {
		ot = feature.TypeGenericCityObject
	}

	vertices := make([]feature.Vertex, len(line.Vertices))
	mbr := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}

	for i, v := range line.Vertices {
		real := t.ToReal(v)
		vertices[i] = feature.Vertex{X: real[0], Y: real[1], Z: real[2]}

		if real[0] < mbr[0] {
			mbr[0] = real[0]
		}

		if real[1] < mbr[1] {
			mbr[1] = real[1]
		}

		if real[0] > mbr[2] {
			mbr[2] = real[0]
		}

		if real[1] > mbr[3] {
			mbr[3] = real[1]
		}
	}

	if len(vertices) == 0 {
		mbr = [4]float64{}
	}

	var geom feature.Geometry

	if len(root.Geometry) > 0 {
		g, err := root.Geometry[0].toGeometry()
		if err != nil {
			return feature.Input{}, err
		}

		geom = g
	}

	attrs, err := attributesToInput(root.Attributes, schema)
	if err != nil {
		return feature.Input{}, err
	}

	return feature.Input{
		CityObjectType: ot,
		MBR:            mbr,
		Vertices:       vertices,
		Attributes:     attrs,
		Geometry:       geom,
	}, nil
}

func attributesToInput(raw map[string]json.RawMessage, schema *Schema) ([]feature.Attribute, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}

	sort.Strings(names)

	out := make([]feature.Attribute, 0, len(names))

	for _, name := range names {
		ordinal, ok := schema.Ordinal(name)
		if !ok {
			continue
		}

		col := schema.columns[ordinal]

		v, err := attributeValue(raw[name], col.Type)
		if err != nil {
			return nil, err
		}

		enc, err := feature.EncodeValue(v, col.Type)
		if err != nil {
			return nil, err
		}

		out = append(out, feature.Attribute{Ordinal: ordinal, Type: col.Type, Raw: enc})
	}

	return out, nil
}

func attributeValue(raw json.RawMessage, t format.ColumnType) (any, error) {
	switch t {
	case format.ColumnString:
		var s string
		if err := jsonAPI.Unmarshal(raw, &s); err != nil {
			return nil, err
		}

		return s, nil
	case format.ColumnBool:
		var b bool
		if err := jsonAPI.Unmarshal(raw, &b); err != nil {
			return nil, err
		}

		return b, nil
	case format.ColumnFloat64:
		var f float64
		if err := jsonAPI.Unmarshal(raw, &f); err != nil {
			return nil, err
		}

		return f, nil
	case format.ColumnJSON:
		return []byte(raw), nil
	default:
		return nil, fmt.Errorf("cityjsonseq: unsupported column type %v for discovered schema", t)
	}
}

// FromRecord converts a parsed feature.Record back into a FeatureLine,
// using id as both the line's "id" and the sole key of its CityObjects
// map, and t to convert real-world vertices back to the integer-coded
// local form CityJSONSeq stores.
func FromRecord(id string, r *feature.Record, schema *Schema, t Transform) (FeatureLine, error) {
	vs, err := r.Vertices()
	if err != nil {
		return FeatureLine{}, err
	}

	verts := make([][3]int64, len(vs))
	for i, v := range vs {
		verts[i] = t.ToLocal([3]float64{v.X, v.Y, v.Z})
	}

	g, err := r.Geometry()
	if err != nil {
		return FeatureLine{}, err
	}

	attrs, err := attributesFromRecord(r, schema)
	if err != nil {
		return FeatureLine{}, err
	}

	obj := cityObjectJSON{
		Type:       r.CityObjectType().String(),
		Attributes: attrs,
	}

	if g.Type != citygeom.GeometryInvalid {
		gj, err := geometryFromFeature(g)
		if err != nil {
			return FeatureLine{}, err
		}

		obj.Geometry = []geometryJSON{gj}
	}

	return FeatureLine{
		Type:        "CityJSONFeature",
		ID:          id,
		CityObjects: map[string]cityObjectJSON{id: obj},
		Vertices:    verts,
	}, nil
}

func attributesFromRecord(r *feature.Record, schema *Schema) (map[string]json.RawMessage, error) {
	if len(schema.columns) == 0 {
		return nil, nil
	}

	out := make(map[string]json.RawMessage)

	for ordinal, col := range schema.columns {
		v, _, ok, err := r.AttributeByOrdinal(uint16(ordinal)) //nolint: gosec
		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		raw, err := jsonAPI.Marshal(v)
		if err != nil {
			return nil, err
		}

		if col.Type == format.ColumnJSON {
			if b, ok := v.([]byte); ok {
				raw = b
			}
		}

		out[col.Name] = raw
	}

	if len(out) == 0 {
		return nil, nil
	}

	return out, nil
}
