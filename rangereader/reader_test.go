package rangereader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingSource is an in-memory Source over a fixed byte slice that
// records every ReadAt call, so tests can assert on batching behavior
// without real HTTP or filesystem access (SPEC_FULL.md §8's expanded
// rangereader test note).
type countingSource struct {
	data  []byte
	calls []ByteRange
}

func (c *countingSource) ReadAt(_ context.Context, start, length int64) ([]byte, error) {
	c.calls = append(c.calls, ByteRange{Start: start, Length: length})

	return c.data[start : start+length], nil
}

func (c *countingSource) Size(context.Context) (int64, error) { return int64(len(c.data)), nil }
func (c *countingSource) Close() error                        { return nil }

func fixtureData(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}

	return b
}

func TestReader_ReadRanges_BatchesAdjacentReads(t *testing.T) {
	src := &countingSource{data: fixtureData(10000)}
	r, err := New(src, WithCombineThreshold(1024))
	require.NoError(t, err)

	want := []ByteRange{
		{Start: 0, Length: 40},
		{Start: 50, Length: 40},
		{Start: 9000, Length: 40},
	}

	got, err := r.ReadRanges(context.Background(), want)
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Len(t, src.calls, 2, "adjacent ranges under threshold should issue one combined read")

	for i, w := range want {
		require.Equal(t, src.data[w.Start:w.Start+w.Length], got[i])
	}
}

func TestReader_ReadRanges_Idempotent(t *testing.T) {
	src := &countingSource{data: fixtureData(1000)}
	r, err := New(src)
	require.NoError(t, err)

	ranges := []ByteRange{{Start: 10, Length: 20}, {Start: 100, Length: 20}}

	first, err := r.ReadRanges(context.Background(), ranges)
	require.NoError(t, err)

	second, err := r.ReadRanges(context.Background(), ranges)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestReader_ReadRanges_EmptyInput(t *testing.T) {
	src := &countingSource{data: fixtureData(10)}
	r, err := New(src)
	require.NoError(t, err)

	got, err := r.ReadRanges(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestReader_ReadRanges_CancelledContext(t *testing.T) {
	src := &countingSource{data: fixtureData(10)}
	r, err := New(src)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.ReadRanges(ctx, []ByteRange{{Start: 0, Length: 5}})
	require.Error(t, err)
}
