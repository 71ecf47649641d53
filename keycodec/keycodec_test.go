package keycodec_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cityjson/flatcitybuf/keycodec"
)

func TestEncodeInt_OrderPreserving(t *testing.T) {
	values := []int64{math.MinInt32, -1000, -1, 0, 1, 1000, math.MaxInt32}
	for i := 0; i < len(values)-1; i++ {
		a, err := keycodec.EncodeInt(values[i], 32)
		require.NoError(t, err)
		b, err := keycodec.EncodeInt(values[i+1], 32)
		require.NoError(t, err)
		require.Less(t, keycodec.Compare(a, b), 0, "%d should sort before %d", values[i], values[i+1])
	}
}

func TestEncodeInt_RoundTrip(t *testing.T) {
	for _, v := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
		enc, err := keycodec.EncodeInt(v, 64)
		require.NoError(t, err)
		dec, err := keycodec.DecodeInt(enc, 64)
		require.NoError(t, err)
		require.Equal(t, v, dec)
	}
}

func TestEncodeUint_OrderPreserving(t *testing.T) {
	values := []uint64{0, 1, 255, 65535, math.MaxUint32}
	for i := 0; i < len(values)-1; i++ {
		a, _ := keycodec.EncodeUint(values[i], 64)
		b, _ := keycodec.EncodeUint(values[i+1], 64)
		require.Less(t, keycodec.Compare(a, b), 0)
	}
}

func TestEncodeFloat64_OrderPreserving(t *testing.T) {
	values := []float64{math.Inf(-1), -1e300, -1.5, -0.0, 0.0, 1.5, 1e300, math.Inf(1)}
	for i := 0; i < len(values)-1; i++ {
		a, err := keycodec.EncodeFloat64(values[i])
		require.NoError(t, err)
		b, err := keycodec.EncodeFloat64(values[i+1])
		require.NoError(t, err)
		require.LessOrEqual(t, keycodec.Compare(a, b), 0, "%v should sort at-or-before %v", values[i], values[i+1])
	}
}

func TestEncodeFloat64_NaNSortsLast(t *testing.T) {
	nan, err := keycodec.EncodeFloat64(math.NaN())
	require.NoError(t, err)
	maxFinite, err := keycodec.EncodeFloat64(math.MaxFloat64)
	require.NoError(t, err)
	posInf, err := keycodec.EncodeFloat64(math.Inf(1))
	require.NoError(t, err)

	require.Greater(t, keycodec.Compare(nan, maxFinite), 0)
	require.Greater(t, keycodec.Compare(nan, posInf), 0)
}

func TestEncodeFloat64_RoundTrip(t *testing.T) {
	for _, v := range []float64{0, -0.0, 1.5, -1.5, math.MaxFloat64, -math.MaxFloat64} {
		enc, err := keycodec.EncodeFloat64(v)
		require.NoError(t, err)
		dec, err := keycodec.DecodeFloat64(enc)
		require.NoError(t, err)
		require.Equal(t, v, dec)
	}
}

func TestEncodeFloat32_RoundTrip(t *testing.T) {
	for _, v := range []float32{0, -0.0, 1.5, -1.5, math.MaxFloat32} {
		enc, err := keycodec.EncodeFloat32(v)
		require.NoError(t, err)
		dec, err := keycodec.DecodeFloat32(enc)
		require.NoError(t, err)
		require.Equal(t, v, dec)
	}
}

func TestEncodeBool(t *testing.T) {
	f, err := keycodec.EncodeBool(false)
	require.NoError(t, err)
	tr, err := keycodec.EncodeBool(true)
	require.NoError(t, err)
	require.Less(t, keycodec.Compare(f, tr), 0)

	dec, err := keycodec.DecodeBool(tr)
	require.NoError(t, err)
	require.True(t, dec)
}

func TestEncodeDate_OrderPreserving(t *testing.T) {
	d1 := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	e1, err := keycodec.EncodeDate(d1)
	require.NoError(t, err)
	e2, err := keycodec.EncodeDate(d2)
	require.NoError(t, err)
	require.Less(t, keycodec.Compare(e1, e2), 0)

	dec, err := keycodec.DecodeDate(e1)
	require.NoError(t, err)
	require.True(t, dec.Equal(d1))
}

func TestEncodeDateTime_OrderPreservingAcrossSubSecond(t *testing.T) {
	t1 := time.Date(2020, 1, 1, 0, 0, 0, 100, time.UTC)
	t2 := time.Date(2020, 1, 1, 0, 0, 0, 200, time.UTC)

	e1, err := keycodec.EncodeDateTime(t1)
	require.NoError(t, err)
	e2, err := keycodec.EncodeDateTime(t2)
	require.NoError(t, err)
	require.Less(t, keycodec.Compare(e1, e2), 0)
}

func TestEncodeStringPrefix_CollisionsShareKey(t *testing.T) {
	a := keycodec.EncodeStringPrefix("abcdefgh-one", 8)
	b := keycodec.EncodeStringPrefix("abcdefgh-two", 8)
	require.Equal(t, a, b, "both share the first 8 bytes so their keys must collide")
}

func TestEncodeStringPrefix_Padding(t *testing.T) {
	got := keycodec.EncodeStringPrefix("ab", 8)
	require.Len(t, got, 8)
	require.Equal(t, byte(0), got[7])
}
