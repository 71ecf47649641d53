package sptree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func key(n int) []byte {
	b := make([]byte, 4)
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)

	return b
}

func TestBuild_RejectsUnsortedInput(t *testing.T) {
	_, err := Build([]Entry{
		{Key: key(2), Offsets: []int64{1}},
		{Key: key(1), Offsets: []int64{2}},
	}, 4, 2, 0, nil)
	require.Error(t, err)
}

func TestBuild_RejectsEmpty(t *testing.T) {
	_, err := Build(nil, 4, 2, 0, nil)
	require.Error(t, err)
}

func TestFindEq_DirectOffset(t *testing.T) {
	entries := []Entry{
		{Key: key(1), Offsets: []int64{100}},
		{Key: key(5), Offsets: []int64{500}},
		{Key: key(9), Offsets: []int64{900}},
	}

	tree, err := Build(entries, 4, 2, 0, nil)
	require.NoError(t, err)

	got, err := tree.FindEq(key(5))
	require.NoError(t, err)
	require.Equal(t, []int64{500}, got)

	got, err = tree.FindEq(key(42))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFindEq_DuplicateChain(t *testing.T) {
	entries := []Entry{
		{Key: key(1), Offsets: []int64{10}},
		{Key: key(2), Offsets: []int64{20, 21, 22}},
		{Key: key(3), Offsets: []int64{30}},
	}

	tree, err := Build(entries, 4, 2, 2, nil)
	require.NoError(t, err)

	got, err := tree.FindEq(key(2))
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{20, 21, 22}, got)
}

func buildLargeTree(t *testing.T, n, arity int) *Tree {
	t.Helper()

	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{Key: key(i), Offsets: []int64{int64(i * 10)}}
	}

	tree, err := Build(entries, 4, arity, 0, nil)
	require.NoError(t, err)

	return tree
}

func TestFindEq_ManyKeysAcrossMultipleLayers(t *testing.T) {
	tree := buildLargeTree(t, 500, 4)
	require.Greater(t, tree.Height(), 2)

	for _, i := range []int{0, 1, 123, 250, 499} {
		got, err := tree.FindEq(key(i))
		require.NoError(t, err)
		require.Equal(t, []int64{int64(i * 10)}, got)
	}
}

func TestFindRange_InclusiveBounds(t *testing.T) {
	tree := buildLargeTree(t, 100, 8)

	got, err := tree.FindRange(key(10), key(15))
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{100, 110, 120, 130, 140, 150}, got)
}

func TestFindCmp_AllOperators(t *testing.T) {
	tree := buildLargeTree(t, 20, 4)

	ge, err := tree.FindCmp(CmpGreaterOrEqual, key(15))
	require.NoError(t, err)
	require.Len(t, ge, 5) // 15..19

	gt, err := tree.FindCmp(CmpGreater, key(15))
	require.NoError(t, err)
	require.Len(t, gt, 4) // 16..19

	le, err := tree.FindCmp(CmpLessOrEqual, key(4))
	require.NoError(t, err)
	require.Len(t, le, 5) // 0..4

	lt, err := tree.FindCmp(CmpLess, key(4))
	require.NoError(t, err)
	require.Len(t, lt, 4) // 0..3
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	entries := []Entry{
		{Key: key(1), Offsets: []int64{10}},
		{Key: key(2), Offsets: []int64{20, 21}},
		{Key: key(3), Offsets: []int64{30}},
		{Key: key(4), Offsets: []int64{40}},
		{Key: key(5), Offsets: []int64{50}},
	}

	tree, err := Build(entries, 4, 2, 4, nil)
	require.NoError(t, err)

	data := tree.Encode()
	got, err := Decode(data, tree.Payload(), tree.capacity, nil)
	require.NoError(t, err)

	offs, err := got.FindEq(key(2))
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{20, 21}, offs)
}

func TestFindEqString_ResolvesPrefixCollision(t *testing.T) {
	prefix := []byte("abcdefgh")

	entries := []Entry{
		{Key: prefix, Offsets: []int64{1, 2}},
	}

	suffixEntries := []SuffixEntry{
		{Offset: 1, Value: "abcdefgh-one"},
		{Offset: 2, Value: "abcdefgh-two"},
	}

	tree, err := Build(entries, 8, 2, 4, suffixEntries)
	require.NoError(t, err)

	got, err := tree.FindEqString(prefix, "abcdefgh-two")
	require.NoError(t, err)
	require.Equal(t, []int64{2}, got)
}

func TestWalkChain_CapExceededIsCorruptIndex(t *testing.T) {
	orig := MaxPayloadChainBytes
	MaxPayloadChainBytes = 1
	defer func() { MaxPayloadChainBytes = orig }()

	entries := []Entry{
		{Key: key(1), Offsets: []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}

	tree, err := Build(entries, 4, 2, 2, nil)
	require.NoError(t, err)

	_, err = tree.FindEq(key(1))
	require.Error(t, err)
}
