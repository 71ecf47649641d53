// Package keycodec implements the fixed-width, order-preserving byte
// encoding for S+Tree key types (spec.md §4.1): lexicographic byte order
// must equal semantic order for every supported scalar type, so the
// S+Tree's arithmetic descent can compare raw key bytes directly.
package keycodec

import (
	"math"
	"time"

	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/format"
)

// Width returns the fixed on-disk width W_K of a key of column type t. It
// returns 0 for ColumnString, whose prefix length L is not determined by
// type alone and is chosen by the caller.
func Width(t format.ColumnType) int {
	switch t {
	case format.ColumnInt8, format.ColumnUint8, format.ColumnBool:
		return 1
	case format.ColumnInt16, format.ColumnUint16:
		return 2
	case format.ColumnInt32, format.ColumnUint32, format.ColumnFloat32:
		return 4
	case format.ColumnInt64, format.ColumnUint64, format.ColumnFloat64, format.ColumnDate:
		return 8
	case format.ColumnDateTime:
		return 12
	default:
		return 0
	}
}

// EncodeInt encodes a signed integer of bitWidth bits (8/16/32/64) as a
// big-endian, sign-flipped two's-complement key so that byte order matches
// numeric order.
func EncodeInt(v int64, bitWidth int) ([]byte, error) {
	n := bitWidth / 8
	buf := make([]byte, n)

	u := uint64(v) ^ (uint64(1) << (uint(bitWidth) - 1))
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(u)
		u >>= 8
	}

	return buf, nil
}

// DecodeInt decodes a key produced by EncodeInt.
func DecodeInt(key []byte, bitWidth int) (int64, error) {
	n := bitWidth / 8
	if len(key) != n {
		return 0, errs.ErrKeyTypeMismatch
	}

	var u uint64
	for i := 0; i < n; i++ {
		u = (u << 8) | uint64(key[i])
	}

	return int64(u ^ (uint64(1) << (uint(bitWidth) - 1))), nil
}

// EncodeUint encodes an unsigned integer of bitWidth bits as plain
// big-endian bytes (already order-preserving).
func EncodeUint(v uint64, bitWidth int) ([]byte, error) {
	n := bitWidth / 8
	buf := make([]byte, n)

	u := v
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(u)
		u >>= 8
	}

	return buf, nil
}

// DecodeUint decodes a key produced by EncodeUint.
func DecodeUint(key []byte, bitWidth int) (uint64, error) {
	n := bitWidth / 8
	if len(key) != n {
		return 0, errs.ErrKeyTypeMismatch
	}

	var u uint64
	for i := 0; i < n; i++ {
		u = (u << 8) | uint64(key[i])
	}

	return u, nil
}

// EncodeFloat32 applies the IEEE-754 total-order transform: if the sign
// bit is set (negative, including -0), invert the whole word; otherwise
// flip only the sign bit. This maps IEEE order onto big-endian byte order,
// with NaN sorting last deterministically (its mantissa/exponent bit
// pattern is the largest representable after the transform).
func EncodeFloat32(v float32) ([]byte, error) {
	bits := math.Float32bits(v)
	if bits&0x8000_0000 != 0 {
		bits = ^bits
	} else {
		bits ^= 0x8000_0000
	}

	return []byte{byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}, nil
}

// DecodeFloat32 decodes a key produced by EncodeFloat32.
func DecodeFloat32(key []byte) (float32, error) {
	if len(key) != 4 {
		return 0, errs.ErrKeyTypeMismatch
	}

	bits := uint32(key[0])<<24 | uint32(key[1])<<16 | uint32(key[2])<<8 | uint32(key[3])
	if bits&0x8000_0000 != 0 {
		bits ^= 0x8000_0000
	} else {
		bits = ^bits
	}

	return math.Float32frombits(bits), nil
}

// EncodeFloat64 is the 64-bit analogue of EncodeFloat32.
func EncodeFloat64(v float64) ([]byte, error) {
	bits := math.Float64bits(v)
	if bits&0x8000_0000_0000_0000 != 0 {
		bits = ^bits
	} else {
		bits ^= 0x8000_0000_0000_0000
	}

	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(bits)
		bits >>= 8
	}

	return buf, nil
}

// DecodeFloat64 decodes a key produced by EncodeFloat64.
func DecodeFloat64(key []byte) (float64, error) {
	if len(key) != 8 {
		return 0, errs.ErrKeyTypeMismatch
	}

	var bits uint64
	for i := 0; i < 8; i++ {
		bits = (bits << 8) | uint64(key[i])
	}

	if bits&0x8000_0000_0000_0000 != 0 {
		bits ^= 0x8000_0000_0000_0000
	} else {
		bits = ^bits
	}

	return math.Float64frombits(bits), nil
}

// EncodeBool encodes a bool as a single 0x00/0x01 byte.
func EncodeBool(v bool) ([]byte, error) {
	if v {
		return []byte{0x01}, nil
	}

	return []byte{0x00}, nil
}

// DecodeBool decodes a key produced by EncodeBool.
func DecodeBool(key []byte) (bool, error) {
	if len(key) != 1 {
		return false, errs.ErrKeyTypeMismatch
	}

	return key[0] != 0x00, nil
}

const epochDay = 24 * time.Hour

// EncodeDate encodes a date as the signed, big-endian count of days since
// 1970-01-01, sign-flipped so byte order matches calendar order.
func EncodeDate(v time.Time) ([]byte, error) {
	days := int64(v.UTC().Truncate(epochDay).Unix() / int64(epochDay/time.Second))

	return EncodeInt(days, 64)
}

// DecodeDate decodes a key produced by EncodeDate.
func DecodeDate(key []byte) (time.Time, error) {
	days, err := DecodeInt(key, 64)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(days*int64(epochDay/time.Second), 0).UTC(), nil
}

// EncodeDateTime encodes a timestamp as 8 bytes of signed, sign-flipped
// seconds since epoch followed by 4 bytes of unsigned nanoseconds, so two
// timestamps with equal seconds but different sub-second precision still
// compare correctly.
func EncodeDateTime(v time.Time) ([]byte, error) {
	secs, err := EncodeInt(v.Unix(), 64)
	if err != nil {
		return nil, err
	}

	nanos, err := EncodeUint(uint64(v.Nanosecond()), 32) //nolint: gosec
	if err != nil {
		return nil, err
	}

	return append(secs, nanos...), nil
}

// DecodeDateTime decodes a key produced by EncodeDateTime.
func DecodeDateTime(key []byte) (time.Time, error) {
	if len(key) != 12 {
		return time.Time{}, errs.ErrKeyTypeMismatch
	}

	secs, err := DecodeInt(key[:8], 64)
	if err != nil {
		return time.Time{}, err
	}

	nanos, err := DecodeUint(key[8:], 32)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(secs, int64(nanos)).UTC(), nil
}

// EncodeStringPrefix encodes the first L bytes of an UTF-8 string as a
// fixed-width key prefix, right-padded with 0x00. Values whose encoded
// byte length exceeds L collide in the key space with any other value
// sharing the same L-byte prefix; the S+Tree resolves such ties with its
// suffix table (spec.md §4.4).
func EncodeStringPrefix(s string, prefixWidth int) []byte {
	buf := make([]byte, prefixWidth)
	copy(buf, s)

	return buf
}
