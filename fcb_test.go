package fcb_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	fcb "github.com/cityjson/flatcitybuf"
	"github.com/cityjson/flatcitybuf/container"
	"github.com/cityjson/flatcitybuf/feature"
	"github.com/cityjson/flatcitybuf/format"
	"github.com/cityjson/flatcitybuf/keycodec"
	"github.com/cityjson/flatcitybuf/multiindex"
	"github.com/cityjson/flatcitybuf/rtree"
)

func sampleInputs() []feature.Input {
	mk := func(mbr [4]float64, year float64, name string) feature.Input {
		return feature.Input{
			CityObjectType: feature.TypeBuilding,
			MBR:            mbr,
			Vertices:       []feature.Vertex{{X: mbr[0], Y: mbr[1], Z: 0}},
			Attributes: []feature.Attribute{
				{Ordinal: 0, Type: format.ColumnFloat64, Raw: mustEncode(year, format.ColumnFloat64)},
				{Ordinal: 1, Type: format.ColumnString, Raw: mustEncode(name, format.ColumnString)},
			},
		}
	}

	return []feature.Input{
		mk([4]float64{0, 0, 1, 1}, 1990, "Town Hall"),
		mk([4]float64{5, 5, 6, 6}, 2000, "Library"),
		mk([4]float64{10, 10, 11, 11}, 2000, "Library"),
	}
}

func mustEncode(v any, t format.ColumnType) []byte {
	b, err := feature.EncodeValue(v, t)
	if err != nil {
		panic(err)
	}

	return b
}

func sampleColumns() []container.ColumnDescriptor {
	return []container.ColumnDescriptor{
		{Name: "year", Type: format.ColumnFloat64},
		{Name: "name", Type: format.ColumnString},
	}
}

func TestCreateOpen_SpatialQuery_RoundTrip(t *testing.T) {
	cfg := fcb.DefaultConfig()
	cfg.IndexColumns = []string{"year", "name"}

	path := filepath.Join(t.TempDir(), "sample.fcb")
	require.NoError(t, fcb.Create(path, sampleColumns(), sampleInputs(), cfg))

	r, err := fcb.Open(t.Context(), path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, uint32(3), r.Header().FeatureCount)

	bbox := rtree.Box{MinX: 4, MinY: 4, MaxX: 12, MaxY: 12}

	var results []*feature.Record

	for rec, err := range r.Query(t.Context(), multiindex.Query{Spatial: &multiindex.Spatial{BBox: &bbox}}) {
		require.NoError(t, err)
		results = append(results, rec)
	}

	require.Len(t, results, 2)

	for _, rec := range results {
		v, _, ok, err := rec.AttributeByOrdinal(1)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "Library", v)
	}
}

func TestCreateOpen_AttributeEqualityQuery(t *testing.T) {
	cfg := fcb.DefaultConfig()
	cfg.IndexColumns = []string{"year"}

	path := filepath.Join(t.TempDir(), "sample.fcb")
	require.NoError(t, fcb.Create(path, sampleColumns(), sampleInputs(), cfg))

	r, err := fcb.Open(t.Context(), path)
	require.NoError(t, err)
	defer r.Close()

	key, err := keycodec.Encode(1990.0, format.ColumnFloat64, keycodec.Width(format.ColumnFloat64))
	require.NoError(t, err)

	var results []*feature.Record

	for rec, err := range r.Query(t.Context(), multiindex.Query{
		Predicates: []multiindex.Predicate{{Column: "year", IsEq: true, Key: key}},
	}) {
		require.NoError(t, err)
		results = append(results, rec)
	}

	require.Len(t, results, 1)

	v, _, ok, err := results[0].AttributeByOrdinal(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Town Hall", v)
}

func TestCreateOpen_RecordsWrittenInHilbertOrder(t *testing.T) {
	// Inputs are given in reverse spatial order; Create must still lay
	// the feature section out in ascending Hilbert order, matching the
	// rtree leaf order query.Driver relies on for record-length
	// derivation.
	inputs := []feature.Input{
		{
			CityObjectType: feature.TypeBuilding,
			MBR:            [4]float64{10, 10, 11, 11},
			Vertices:       []feature.Vertex{{X: 10, Y: 10, Z: 0}},
			Attributes: []feature.Attribute{
				{Ordinal: 0, Type: format.ColumnFloat64, Raw: mustEncode(2000.0, format.ColumnFloat64)},
				{Ordinal: 1, Type: format.ColumnString, Raw: mustEncode("Last", format.ColumnString)},
			},
		},
		{
			CityObjectType: feature.TypeBuilding,
			MBR:            [4]float64{0, 0, 1, 1},
			Vertices:       []feature.Vertex{{X: 0, Y: 0, Z: 0}},
			Attributes: []feature.Attribute{
				{Ordinal: 0, Type: format.ColumnFloat64, Raw: mustEncode(1990.0, format.ColumnFloat64)},
				{Ordinal: 1, Type: format.ColumnString, Raw: mustEncode("First", format.ColumnString)},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "hilbert-order.fcb")
	require.NoError(t, fcb.Create(path, sampleColumns(), inputs, fcb.DefaultConfig()))

	r, err := fcb.Open(t.Context(), path)
	require.NoError(t, err)
	defer r.Close()

	bbox := rtree.Box{MinX: -1, MinY: -1, MaxX: 12, MaxY: 12}

	var names []string

	for rec, err := range r.Query(t.Context(), multiindex.Query{Spatial: &multiindex.Spatial{BBox: &bbox}}) {
		require.NoError(t, err)

		v, _, ok, err := rec.AttributeByOrdinal(1)
		require.NoError(t, err)
		require.True(t, ok)
		names = append(names, v.(string))
	}

	require.Equal(t, []string{"First", "Last"}, names)
}

func TestCreate_RejectsEmptyInputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.fcb")
	err := fcb.Create(path, nil, nil, fcb.DefaultConfig())
	require.Error(t, err)
}

func TestCreateOpen_TruncatedStringKeyWidth_RoundTrip(t *testing.T) {
	cfg := fcb.DefaultConfig()
	cfg.IndexColumns = []string{"name"}
	cfg.StringKeyPrefixWidth = 4

	inputs := []feature.Input{
		{
			CityObjectType: feature.TypeBuilding,
			MBR:            [4]float64{0, 0, 1, 1},
			Vertices:       []feature.Vertex{{X: 0, Y: 0, Z: 0}},
			Attributes: []feature.Attribute{
				{Ordinal: 0, Type: format.ColumnFloat64, Raw: mustEncode(2020.0, format.ColumnFloat64)},
				{Ordinal: 1, Type: format.ColumnString, Raw: mustEncode("Amsterdam Central Station", format.ColumnString)},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "suffix.fcb")
	require.NoError(t, fcb.Create(path, sampleColumns(), inputs, cfg))

	r, err := fcb.Open(t.Context(), path)
	require.NoError(t, err)
	defer r.Close()

	var results []*feature.Record

	bbox := rtree.Box{MinX: -1, MinY: -1, MaxX: 2, MaxY: 2}

	for rec, err := range r.Query(t.Context(), multiindex.Query{Spatial: &multiindex.Spatial{BBox: &bbox}}) {
		require.NoError(t, err)
		results = append(results, rec)
	}

	require.Len(t, results, 1)

	v, _, ok, err := results[0].AttributeByOrdinal(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Amsterdam Central Station", v)
}
