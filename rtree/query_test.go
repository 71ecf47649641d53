package rtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fourCorners() []Ref {
	return []Ref{
		{Box: Box{MinX: 0, MinY: 0, MaxX: 0, MaxY: 0}, Offset: 1, Hilbert: 0},
		{Box: Box{MinX: 1, MinY: 0, MaxX: 1, MaxY: 0}, Offset: 2, Hilbert: 1},
		{Box: Box{MinX: 0, MinY: 1, MaxX: 0, MaxY: 1}, Offset: 3, Hilbert: 2},
		{Box: Box{MinX: 10, MinY: 10, MaxX: 10, MaxY: 10}, Offset: 4, Hilbert: 3},
	}
}

func TestBBox_IntersectingOnly(t *testing.T) {
	tree, err := Build(fourCorners(), 2)
	require.NoError(t, err)

	got := tree.BBox(Box{MinX: -0.5, MinY: -0.5, MaxX: 1.5, MaxY: 1.5})
	require.ElementsMatch(t, []int64{1, 2, 3}, got)
}

func TestPoint_ExactMatch(t *testing.T) {
	tree, err := Build(fourCorners(), 2)
	require.NoError(t, err)

	got := tree.Point(10, 10)
	require.Equal(t, []int64{4}, got)

	got = tree.Point(5, 5)
	require.Empty(t, got)
}

func TestNearest_BestFirstWithTieBreak(t *testing.T) {
	refs := []Ref{
		{Box: Box{MinX: 0, MinY: 0, MaxX: 0, MaxY: 0}, Offset: 0, Hilbert: 0},
		{Box: Box{MinX: 1, MinY: 0, MaxX: 1, MaxY: 0}, Offset: 1, Hilbert: 1},
		{Box: Box{MinX: 0, MinY: 1, MaxX: 0, MaxY: 1}, Offset: 2, Hilbert: 2},
		{Box: Box{MinX: 10, MinY: 10, MaxX: 10, MaxY: 10}, Offset: 3, Hilbert: 3},
	}

	tree, err := Build(refs, 2)
	require.NoError(t, err)

	got := tree.Nearest(0, 0, 3)
	require.Len(t, got, 3)
	require.Equal(t, int64(0), got[0].Offset)
	require.InDelta(t, 0, got[0].Distance, 1e-9)

	// offsets 1 and 2 are equidistant from the origin; tie-break on
	// ascending offset.
	require.Equal(t, int64(1), got[1].Offset)
	require.Equal(t, int64(2), got[2].Offset)
}

func TestNearest_KZeroReturnsEmpty(t *testing.T) {
	tree, err := Build(fourCorners(), 2)
	require.NoError(t, err)

	require.Empty(t, tree.Nearest(0, 0, 0))
}
