package feature_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cityjson/flatcitybuf/citygeom"
	"github.com/cityjson/flatcitybuf/feature"
	"github.com/cityjson/flatcitybuf/format"
)

func buildingInput() feature.Input {
	return feature.Input{
		CityObjectType: feature.TypeBuilding,
		MBR:            [4]float64{0, 0, 10, 10},
		Vertices: []feature.Vertex{
			{X: 0, Y: 0, Z: 0},
			{X: 10, Y: 0, Z: 0},
			{X: 10, Y: 10, Z: 0},
			{X: 0, Y: 10, Z: 0},
		},
		Attributes: []feature.Attribute{
			mustAttr(2, format.ColumnFloat64, 12.5),
			mustAttr(0, format.ColumnString, "house-1"),
			mustAttr(1, format.ColumnUint32, uint32(1995)),
		},
		Geometry: feature.Geometry{
			Type: citygeom.GeometrySolid,
			Boundary: citygeom.BoundaryArrays{
				Solids:     []uint32{1},
				Shells:     []uint32{1},
				Surfaces:   []uint32{1},
				Strings:    []uint32{4},
				Boundaries: []uint32{0, 1, 2, 3},
			},
		},
	}
}

func mustAttr(ordinal uint16, t format.ColumnType, v any) feature.Attribute {
	raw, err := feature.EncodeValue(v, t)
	if err != nil {
		panic(err)
	}

	return feature.Attribute{Ordinal: ordinal, Type: t, Raw: raw}
}

func TestBuildParse_MBRIsZeroCopy(t *testing.T) {
	data, err := feature.Build(buildingInput())
	require.NoError(t, err)

	rec, err := feature.Parse(data)
	require.NoError(t, err)

	require.Equal(t, [4]float64{0, 0, 10, 10}, rec.MBR())
	require.Equal(t, feature.TypeBuilding, rec.CityObjectType())
}

func TestBuildParse_Vertices(t *testing.T) {
	data, err := feature.Build(buildingInput())
	require.NoError(t, err)

	rec, err := feature.Parse(data)
	require.NoError(t, err)

	require.Equal(t, 4, rec.VertexCount())

	v, err := rec.VertexAt(1)
	require.NoError(t, err)
	require.Equal(t, feature.Vertex{X: 10, Y: 0, Z: 0}, v)

	all, err := rec.Vertices()
	require.NoError(t, err)
	require.Len(t, all, 4)
}

func TestBuildParse_AttributeByOrdinal(t *testing.T) {
	data, err := feature.Build(buildingInput())
	require.NoError(t, err)

	rec, err := feature.Parse(data)
	require.NoError(t, err)

	v, typ, ok, err := rec.AttributeByOrdinal(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, format.ColumnString, typ)
	require.Equal(t, "house-1", v)

	v, typ, ok, err = rec.AttributeByOrdinal(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, format.ColumnUint32, typ)
	require.Equal(t, uint32(1995), v)

	v, typ, ok, err = rec.AttributeByOrdinal(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, format.ColumnFloat64, typ)
	require.InDelta(t, 12.5, v, 0)

	_, _, ok, err = rec.AttributeByOrdinal(99)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBuildParse_Geometry(t *testing.T) {
	data, err := feature.Build(buildingInput())
	require.NoError(t, err)

	rec, err := feature.Parse(data)
	require.NoError(t, err)

	g, err := rec.Geometry()
	require.NoError(t, err)
	require.False(t, g.IsInstance)
	require.Equal(t, citygeom.GeometrySolid, g.Type)
	require.Equal(t, []uint32{0, 1, 2, 3}, g.Boundary.Boundaries)
}

func TestBuildParse_GeometryInstance(t *testing.T) {
	in := buildingInput()
	in.Geometry = feature.Geometry{
		Type:       citygeom.GeometryInstance,
		IsInstance: true,
		Instance: citygeom.GeometryInstance{
			TemplateIndex: 2,
			AnchorVertex:  0,
			Transform: [16]float64{
				1, 0, 0, 0,
				0, 1, 0, 0,
				0, 0, 1, 0,
				0, 0, 0, 1,
			},
		},
	}

	data, err := feature.Build(in)
	require.NoError(t, err)

	rec, err := feature.Parse(data)
	require.NoError(t, err)

	g, err := rec.Geometry()
	require.NoError(t, err)
	require.True(t, g.IsInstance)
	require.Equal(t, uint32(2), g.Instance.TemplateIndex)
}

func TestBuildParse_SemanticsRoundTrip(t *testing.T) {
	in := buildingInput()
	sem := citygeom.SemanticsArrays{Values: []uint16{3}}
	in.Geometry.Semantics = &sem

	data, err := feature.Build(in)
	require.NoError(t, err)

	rec, err := feature.Parse(data)
	require.NoError(t, err)

	g, err := rec.Geometry()
	require.NoError(t, err)
	require.NotNil(t, g.Semantics)
	require.Equal(t, []uint16{3}, g.Semantics.Values)
}

func TestBuildParse_Appearance(t *testing.T) {
	in := buildingInput()
	in.Appearance = &citygeom.Appearance{
		Materials: []citygeom.MaterialRef{{MaterialIndex: 1}},
	}

	data, err := feature.Build(in)
	require.NoError(t, err)

	rec, err := feature.Parse(data)
	require.NoError(t, err)

	app, ok, err := rec.Appearance()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(1), app.Materials[0].MaterialIndex)
}

func TestBuildParse_NoAppearance(t *testing.T) {
	data, err := feature.Build(buildingInput())
	require.NoError(t, err)

	rec, err := feature.Parse(data)
	require.NoError(t, err)

	_, ok, err := rec.Appearance()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParse_TruncatedRecord(t *testing.T) {
	_, err := feature.Parse([]byte{1, 2, 3})
	require.Error(t, err)
}
