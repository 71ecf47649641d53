package citygeom_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cityjson/flatcitybuf/citygeom"
)

func TestBoundaryArrays_RoundTrip(t *testing.T) {
	b := citygeom.BoundaryArrays{
		Solids:     []uint32{2},
		Shells:     []uint32{1, 1},
		Surfaces:   []uint32{4, 6},
		Strings:    []uint32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		Boundaries: []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19},
	}

	data := b.Encode()
	got, n, err := citygeom.DecodeBoundaryArrays(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, b, got)
}

func TestBoundaryArrays_RangeLookups(t *testing.T) {
	b := citygeom.BoundaryArrays{
		Solids:     []uint32{2, 1},
		Shells:     []uint32{1, 2, 1},
		Surfaces:   []uint32{3, 3, 3, 4},
		Strings:    make([]uint32, 13),
		Boundaries: make([]uint32, 13),
	}
	for i := range b.Strings {
		b.Strings[i] = 1
		b.Boundaries[i] = uint32(i) //nolint: gosec
	}

	start, end := b.ShellRange(0)
	require.Equal(t, 0, start)
	require.Equal(t, 2, end)

	start, end = b.ShellRange(1)
	require.Equal(t, 2, start)
	require.Equal(t, 3, end)

	start, end = b.SurfaceRange(1)
	require.Equal(t, 1, start)
	require.Equal(t, 3, end)

	ring := b.Ring(5)
	require.Equal(t, []uint32{5}, ring)
}

func TestBoundaryArrays_TruncatedErrors(t *testing.T) {
	_, _, err := citygeom.DecodeBoundaryArrays([]byte{0x01})
	require.Error(t, err)
}

func TestGeometryTemplate_RoundTrip(t *testing.T) {
	tmpl := citygeom.GeometryTemplate{
		Type: citygeom.GeometrySolid,
		Boundary: citygeom.BoundaryArrays{
			Solids:     []uint32{1},
			Shells:     []uint32{1},
			Surfaces:   []uint32{4},
			Strings:    []uint32{1, 1, 1, 1},
			Boundaries: []uint32{0, 1, 2, 3},
		},
	}

	data := tmpl.Encode()
	got, n, err := citygeom.DecodeGeometryTemplate(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, tmpl, got)
}

func TestGeometryInstance_RoundTripAndApply(t *testing.T) {
	inst := citygeom.GeometryInstance{
		TemplateIndex: 3,
		AnchorVertex:  7,
		Transform: [16]float64{
			1, 0, 0, 10,
			0, 1, 0, 20,
			0, 0, 1, 30,
			0, 0, 0, 1,
		},
	}

	data := inst.Encode()
	got, n, err := citygeom.DecodeGeometryInstance(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, inst, got)

	world := got.Apply([3]float64{1, 2, 3}, [3]float64{100, 200, 300})
	require.Equal(t, [3]float64{111, 222, 333}, world)
}

func TestSemanticsArrays_RoundTrip(t *testing.T) {
	s := citygeom.SemanticsArrays{
		Values:  []uint16{0, 1, 2},
		Parents: []uint32{},
	}

	data := s.Encode()
	got, n, err := citygeom.DecodeSemanticsArrays(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, s.Values, got.Values)

	v, ok := got.SurfaceType(1)
	require.True(t, ok)
	require.Equal(t, uint16(1), v)

	_, ok = got.SurfaceType(99)
	require.False(t, ok)
}

func TestAppearance_RoundTrip(t *testing.T) {
	a := citygeom.Appearance{
		Materials: []citygeom.MaterialRef{{MaterialIndex: 2}, {MaterialIndex: 0}},
		Textures: []citygeom.TextureRef{
			{TextureIndex: 1, UVIndices: []uint32{0, 1, 2}},
		},
	}

	data := a.Encode()
	got, n, err := citygeom.DecodeAppearance(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, a, got)

	require.True(t, got.HasMaterial(0))
}
