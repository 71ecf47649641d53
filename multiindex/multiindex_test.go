package multiindex_test

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cityjson/flatcitybuf/format"
	"github.com/cityjson/flatcitybuf/keycodec"
	"github.com/cityjson/flatcitybuf/multiindex"
	"github.com/cityjson/flatcitybuf/rtree"
	"github.com/cityjson/flatcitybuf/sptree"
)

func u32key(n uint32) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func buildYearTree(t *testing.T) *sptree.Tree {
	t.Helper()

	entries := []sptree.Entry{
		{Key: u32key(1990), Offsets: []int64{1}},
		{Key: u32key(1995), Offsets: []int64{2, 3}},
		{Key: u32key(2000), Offsets: []int64{4}},
		{Key: u32key(2010), Offsets: []int64{5}},
	}

	tree, err := sptree.Build(entries, 4, 2, 4, nil)
	require.NoError(t, err)

	return tree
}

func buildSpatialTree(t *testing.T) *rtree.Tree {
	t.Helper()

	refs := []rtree.Ref{
		{Box: rtree.Box{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}, Offset: 1, Hilbert: 0},
		{Box: rtree.Box{MinX: 5, MinY: 5, MaxX: 6, MaxY: 6}, Offset: 2, Hilbert: 1},
		{Box: rtree.Box{MinX: 5, MinY: 5, MaxX: 6, MaxY: 6}, Offset: 3, Hilbert: 2},
		{Box: rtree.Box{MinX: 5, MinY: 5, MaxX: 6, MaxY: 6}, Offset: 4, Hilbert: 3},
		{Box: rtree.Box{MinX: 100, MinY: 100, MaxX: 101, MaxY: 101}, Offset: 5, Hilbert: 4},
	}

	tree, err := rtree.Build(refs, 2)
	require.NoError(t, err)

	return tree
}

func collect(t *testing.T, seq func(func(int64) bool)) []int64 {
	t.Helper()

	var out []int64
	seq(func(v int64) bool {
		out = append(out, v)

		return true
	})

	return out
}

func TestEvaluate_SingleAttributePredicate(t *testing.T) {
	idx := multiindex.New(map[string]*sptree.Tree{"year": buildYearTree(t)}, nil, nil)

	seq, err := idx.Evaluate(context.Background(), multiindex.Query{
		Predicates: []multiindex.Predicate{{Column: "year", IsEq: true, Key: u32key(1995)}},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{2, 3}, collect(t, seq))
}

func TestEvaluate_UnknownColumnErrors(t *testing.T) {
	idx := multiindex.New(map[string]*sptree.Tree{"year": buildYearTree(t)}, nil, nil)

	_, err := idx.Evaluate(context.Background(), multiindex.Query{
		Predicates: []multiindex.Predicate{{Column: "height", IsEq: true, Key: u32key(1)}},
	})
	require.Error(t, err)
}

func TestEvaluate_SpatialAndAttributeIntersect(t *testing.T) {
	idx := multiindex.New(map[string]*sptree.Tree{"year": buildYearTree(t)}, buildSpatialTree(t), nil)

	bbox := rtree.Box{MinX: 4, MinY: 4, MaxX: 7, MaxY: 7}

	seq, err := idx.Evaluate(context.Background(), multiindex.Query{
		Spatial:    &multiindex.Spatial{BBox: &bbox},
		Predicates: []multiindex.Predicate{{Column: "year", IsEq: true, Key: u32key(1995)}},
	})
	require.NoError(t, err)

	got := collect(t, seq)
	slices.Sort(got)
	require.Equal(t, []int64{2, 3}, got)
}

func TestEvaluate_RangePredicate(t *testing.T) {
	idx := multiindex.New(map[string]*sptree.Tree{"year": buildYearTree(t)}, nil, nil)

	seq, err := idx.Evaluate(context.Background(), multiindex.Query{
		Predicates: []multiindex.Predicate{{Column: "year", Key: u32key(1995), KeyHi: u32key(2000)}},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{2, 3, 4}, collect(t, seq))
}

func f64key(t *testing.T, v float64) []byte {
	t.Helper()

	b, err := keycodec.EncodeFloat64(v)
	require.NoError(t, err)

	return b
}

func buildHeightTree(t *testing.T) *sptree.Tree {
	t.Helper()

	entries := []sptree.Entry{
		{Key: f64key(t, 10), Offsets: []int64{1}},
		{Key: f64key(t, 20), Offsets: []int64{2}},
		{Key: f64key(t, 30), Offsets: []int64{3}},
		{Key: f64key(t, math.NaN()), Offsets: []int64{4}},
	}

	tree, err := sptree.Build(entries, 8, 2, 4, nil)
	require.NoError(t, err)

	return tree
}

func TestEvaluate_FindEqNaN_ReturnsEmpty(t *testing.T) {
	idx := multiindex.New(map[string]*sptree.Tree{"height": buildHeightTree(t)}, nil, nil)

	seq, err := idx.Evaluate(context.Background(), multiindex.Query{
		Predicates: []multiindex.Predicate{
			{Column: "height", ColumnType: format.ColumnFloat64, IsEq: true, Key: f64key(t, math.NaN())},
		},
	})
	require.NoError(t, err)
	require.Empty(t, collect(t, seq))
}

func TestEvaluate_OpenEndedRange_ExcludesNaN(t *testing.T) {
	idx := multiindex.New(map[string]*sptree.Tree{"height": buildHeightTree(t)}, nil, nil)

	seq, err := idx.Evaluate(context.Background(), multiindex.Query{
		Predicates: []multiindex.Predicate{
			{Column: "height", ColumnType: format.ColumnFloat64, Op: sptree.CmpGreaterOrEqual, Key: f64key(t, 10)},
		},
	})
	require.NoError(t, err)

	got := collect(t, seq)
	slices.Sort(got)
	require.Equal(t, []int64{1, 2, 3}, got)
}

func TestEvaluate_ResultsAscending(t *testing.T) {
	idx := multiindex.New(map[string]*sptree.Tree{"year": buildYearTree(t)}, nil, nil)

	seq, err := idx.Evaluate(context.Background(), multiindex.Query{
		Predicates: []multiindex.Predicate{{Column: "year", Op: sptree.CmpGreaterOrEqual, Key: u32key(1990)}},
	})
	require.NoError(t, err)

	got := collect(t, seq)
	require.True(t, slices.IsSorted(got))
}
