package rangereader

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeCache_LoadsOnceAndCaches(t *testing.T) {
	var loads int64

	nc := NewNodeCache(func(_ context.Context, indexID uint32, nodeIndex int) ([]byte, error) {
		atomic.AddInt64(&loads, 1)

		return []byte{byte(indexID), byte(nodeIndex)}, nil
	}, 16)

	ctx := context.Background()

	got, err := nc.Get(ctx, 0, 5)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 5}, got)

	got, err = nc.Get(ctx, 0, 5)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 5}, got)

	require.EqualValues(t, 1, atomic.LoadInt64(&loads))
}

func TestNodeCache_DistinctKeysLoadIndependently(t *testing.T) {
	nc := NewNodeCache(func(_ context.Context, indexID uint32, nodeIndex int) ([]byte, error) {
		return []byte{byte(indexID), byte(nodeIndex)}, nil
	}, 16)

	ctx := context.Background()

	a, err := nc.Get(ctx, 1, 2)
	require.NoError(t, err)

	b, err := nc.Get(ctx, 1, 3)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestNodeCache_CancelledContextErrors(t *testing.T) {
	nc := NewNodeCache(func(_ context.Context, _ uint32, _ int) ([]byte, error) {
		return []byte{1}, nil
	}, 16)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := nc.Get(ctx, 0, 0)
	require.Error(t, err)
}

func TestNodeCache_Invalidate(t *testing.T) {
	var loads int64

	nc := NewNodeCache(func(_ context.Context, indexID uint32, nodeIndex int) ([]byte, error) {
		n := atomic.AddInt64(&loads, 1)

		return []byte{byte(n)}, nil
	}, 16)

	ctx := context.Background()

	first, err := nc.Get(ctx, 0, 0)
	require.NoError(t, err)

	nc.Invalidate(0, 0)

	second, err := nc.Get(ctx, 0, 0)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
