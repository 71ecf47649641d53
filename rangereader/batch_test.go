package rangereader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoalesceRanges_MergesWithinThreshold(t *testing.T) {
	ranges := []ByteRange{
		{Start: 0, Length: 100},
		{Start: 150, Length: 50},
		{Start: 5000, Length: 10},
	}

	got := CoalesceRanges(ranges, 100)
	require.Equal(t, []ByteRange{
		{Start: 0, Length: 200},
		{Start: 5000, Length: 10},
	}, got)
}

func TestCoalesceRanges_ThreeLeafReadsCollapseToTwo(t *testing.T) {
	ranges := []ByteRange{
		{Start: 0, Length: 40},
		{Start: 50, Length: 40},
		{Start: 2000, Length: 40},
	}

	got := CoalesceRanges(ranges, 1024)
	require.Len(t, got, 2)
	require.Equal(t, ByteRange{Start: 0, Length: 90}, got[0])
	require.Equal(t, ByteRange{Start: 2000, Length: 40}, got[1])
}

func TestCoalesceRanges_UnsortedAndOverlappingInput(t *testing.T) {
	ranges := []ByteRange{
		{Start: 100, Length: 50},
		{Start: 0, Length: 120},
	}

	got := CoalesceRanges(ranges, 0)
	require.Equal(t, []ByteRange{{Start: 0, Length: 150}}, got)
}

func TestCoalesceRanges_EmptyInput(t *testing.T) {
	require.Nil(t, CoalesceRanges(nil, 100))
}

func TestCoalesceRanges_SingleRange(t *testing.T) {
	got := CoalesceRanges([]ByteRange{{Start: 10, Length: 5}}, 100)
	require.Equal(t, []ByteRange{{Start: 10, Length: 5}}, got)
}
