package hilbert_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cityjson/flatcitybuf/rtree/hilbert"
)

func TestEncode_OriginIsZero(t *testing.T) {
	require.Equal(t, uint64(0), hilbert.Encode(0, 0))
}

func TestEncode_Deterministic(t *testing.T) {
	require.Equal(t, hilbert.Encode(100, 200), hilbert.Encode(100, 200))
}

func TestEncode_DistinctCellsMostlyDistinctValues(t *testing.T) {
	a := hilbert.Encode(1, 1)
	b := hilbert.Encode(2, 2)
	require.NotEqual(t, a, b)
}

func TestRescale_ClampsToRange(t *testing.T) {
	require.Equal(t, uint32(0), hilbert.Rescale(-5, 0, 10))
	require.Equal(t, uint32((1<<hilbert.Order)-1), hilbert.Rescale(15, 0, 10))
}

func TestRescale_DegenerateExtent(t *testing.T) {
	require.Equal(t, uint32(0), hilbert.Rescale(5, 3, 3))
}

func TestCentroidOf_NearbyPointsProduceNearbyValues(t *testing.T) {
	a := hilbert.CentroidOf(1, 1, 0, 0, 100, 100)
	b := hilbert.CentroidOf(1.01, 1.01, 0, 0, 100, 100)

	// Not a strict metric guarantee, but adjacent cells at this
	// resolution should not differ wildly for a small perturbation.
	require.InDelta(t, float64(a), float64(b), 1<<20)
}
