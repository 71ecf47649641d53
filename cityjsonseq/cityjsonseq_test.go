package cityjsonseq_test

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cityjson/flatcitybuf/citygeom"
	"github.com/cityjson/flatcitybuf/cityjsonseq"
	"github.com/cityjson/flatcitybuf/container"
	"github.com/cityjson/flatcitybuf/format"
)

const sampleFeature = `{"type":"CityJSONFeature","id":"B1","CityObjects":{"B1":{"type":"Building","attributes":{"name":"Town Hall","height":12.5},"geometry":[{"type":"Solid","lod":"2","boundaries":[[[[0,1,2,3]],[[4,5,6,7]],[[0,1,5,4]],[[1,2,6,5]],[[2,3,7,6]],[[3,0,4,7]]]],"semantics":{"surfaces":[{"type":"GroundSurface"},{"type":"RoofSurface"},{"type":"WallSurface"}],"values":[[1,0,2,2,2,2]]}}]}},"vertices":[[0,0,0],[10,0,0],[10,10,0],[0,10,0],[0,0,30],[10,0,30],[10,10,30],[0,10,30]]}
`

func TestReadWriteHeader_RoundTrip(t *testing.T) {
	h := cityjsonseq.Header{
		Type:      "CityJSON",
		Version:   "2.0",
		Transform: cityjsonseq.Transform{Scale: [3]float64{0.001, 0.001, 0.001}, Translate: [3]float64{100, 200, 0}},
	}

	var buf strings.Builder
	require.NoError(t, cityjsonseq.WriteHeader(&buf, h))

	got, err := cityjsonseq.ReadHeader(bufio.NewReader(strings.NewReader(buf.String())))
	require.NoError(t, err)
	require.Equal(t, h.Type, got.Type)
	require.Equal(t, h.Version, got.Version)
	require.Equal(t, h.Transform, got.Transform)
}

func TestReadHeader_DefaultsIdentityTransform(t *testing.T) {
	got, err := cityjsonseq.ReadHeader(bufio.NewReader(strings.NewReader(`{"type":"CityJSON","version":"2.0"}` + "\n")))
	require.NoError(t, err)
	require.Equal(t, cityjsonseq.IdentityTransform, got.Transform)
}

func TestTransform_ToRealToLocal_RoundTrip(t *testing.T) {
	tr := cityjsonseq.Transform{Scale: [3]float64{0.001, 0.001, 0.001}, Translate: [3]float64{100, 200, 50}}

	local := [3]int64{12345, -6789, 42}
	real := tr.ToReal(local)
	got := tr.ToLocal(real)

	require.Equal(t, local, got)
}

func TestFeature_ToInput_RoundTrip(t *testing.T) {
	line, err := cityjsonseq.ReadFeature(bufio.NewReader(strings.NewReader(sampleFeature)))
	require.NoError(t, err)
	require.Equal(t, "B1", line.ID)

	schema := cityjsonseq.DiscoverSchema([]cityjsonseq.FeatureLine{line})
	cols := schema.Columns()
	require.Len(t, cols, 2)

	names := map[string]format.ColumnType{}
	for _, c := range cols {
		names[c.Name] = c.Type
	}
	require.Equal(t, format.ColumnString, names["name"])
	require.Equal(t, format.ColumnFloat64, names["height"])

	in, err := cityjsonseq.ToInput(line, cityjsonseq.IdentityTransform, schema)
	require.NoError(t, err)
	require.Len(t, in.Vertices, 8)
	require.Equal(t, [4]float64{0, 0, 10, 10}, in.MBR)
	require.Len(t, in.Attributes, 2)
	require.Equal(t, citygeom.GeometrySolid, in.Geometry.Type)
	require.NotNil(t, in.Geometry.Semantics)
	// Local surfaces dictionary is [Ground, Roof, Wall]; local values
	// [1,0,2,2,2,2] translate through the canonical type table to
	// [Roof, Ground, Wall, Wall, Wall, Wall] == ordinals [0,1,2,2,2,2].
	require.Equal(t, []uint16{0, 1, 2, 2, 2, 2}, in.Geometry.Semantics.Values)
}

func TestFeature_WriteFeature_RoundTripsLine(t *testing.T) {
	line, err := cityjsonseq.ReadFeature(bufio.NewReader(strings.NewReader(sampleFeature)))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, cityjsonseq.WriteFeature(&buf, line))

	again, err := cityjsonseq.ReadFeature(bufio.NewReader(strings.NewReader(buf.String())))
	require.NoError(t, err)
	require.Equal(t, line.ID, again.ID)
	require.Equal(t, line.Vertices, again.Vertices)
}

func TestDiscoverSchema_WidensMismatchedTypesToJSON(t *testing.T) {
	a := `{"type":"CityJSONFeature","id":"A","CityObjects":{"A":{"type":"GenericCityObject","attributes":{"note":"hello"}}},"vertices":[]}` + "\n"
	b := `{"type":"CityJSONFeature","id":"B","CityObjects":{"B":{"type":"GenericCityObject","attributes":{"note":42}}},"vertices":[]}` + "\n"

	la, err := cityjsonseq.ReadFeature(bufio.NewReader(strings.NewReader(a)))
	require.NoError(t, err)

	lb, err := cityjsonseq.ReadFeature(bufio.NewReader(strings.NewReader(b)))
	require.NoError(t, err)

	schema := cityjsonseq.DiscoverSchema([]cityjsonseq.FeatureLine{la, lb})
	cols := schema.Columns()
	require.Len(t, cols, 1)
	require.Equal(t, "note", cols[0].Name)
	require.Equal(t, format.ColumnJSON, cols[0].Type)
}

func TestSchema_MatchesContainerColumnDescriptor(t *testing.T) {
	schema := cityjsonseq.NewSchema([]container.ColumnDescriptor{
		{Name: "name", Type: format.ColumnString},
		{Name: "height", Type: format.ColumnFloat64},
	})

	o, ok := schema.Ordinal("height")
	require.True(t, ok)
	require.Equal(t, uint16(1), o)

	_, ok = schema.Ordinal("missing")
	require.False(t, ok)
}
