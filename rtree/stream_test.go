package rtree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchStreaming_MatchesInMemoryBBox(t *testing.T) {
	refs := []Ref{
		{Box: Box{MinX: 0, MinY: 0, MaxX: 0, MaxY: 0}, Offset: 1, Hilbert: 0},
		{Box: Box{MinX: 1, MinY: 0, MaxX: 1, MaxY: 0}, Offset: 2, Hilbert: 1},
		{Box: Box{MinX: 0, MinY: 1, MaxX: 0, MaxY: 1}, Offset: 3, Hilbert: 2},
		{Box: Box{MinX: 10, MinY: 10, MaxX: 10, MaxY: 10}, Offset: 4, Hilbert: 3},
	}

	tree, err := Build(refs, 2)
	require.NoError(t, err)

	fetch := func(_ context.Context, i, j int) ([]Node, error) {
		out := make([]Node, j-i)
		copy(out, tree.nodes[i:j])

		return out, nil
	}

	q := Box{MinX: -0.5, MinY: -0.5, MaxX: 1.5, MaxY: 1.5}

	want := tree.BBox(q)
	got, err := SearchStreaming(context.Background(), tree.Levels(), tree.NodeSize(), q, fetch)
	require.NoError(t, err)
	require.ElementsMatch(t, want, got)
}
