package keycodec

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/format"
)

// Compare returns -1, 0, or 1 comparing two encoded keys of the same
// width, by plain lexicographic byte order — the whole point of the
// order-preserving transforms above is that this is always correct.
func Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}

// IsNaNKey reports whether key, declared as column type t, decodes to a
// floating-point NaN (spec.md §8.2: NaN sorts last, is excluded from
// range queries, and find_eq(NaN) returns no match). Non-float column
// types never hold NaN, so this is always false for them.
func IsNaNKey(key []byte, t format.ColumnType) bool {
	switch t {
	case format.ColumnFloat32:
		v, err := DecodeFloat32(key)

		return err == nil && math.IsNaN(float64(v))
	case format.ColumnFloat64:
		v, err := DecodeFloat64(key)

		return err == nil && math.IsNaN(v)
	default:
		return false
	}
}

// NaNKeyFor returns the canonical encoded key for math.NaN() under column
// type t, or nil for a non-float type. Used to find and exclude any
// NaN-keyed tree entry from a range/comparison query's result.
func NaNKeyFor(t format.ColumnType) []byte {
	switch t {
	case format.ColumnFloat32:
		key, _ := EncodeFloat32(float32(math.NaN()))

		return key
	case format.ColumnFloat64:
		key, _ := EncodeFloat64(math.NaN())

		return key
	default:
		return nil
	}
}

// Encode dispatches to the type-specific encoder for column type t,
// returning the fixed-width key bytes for v. prefixWidth is only
// consulted for ColumnString. It returns errs.ErrKeyTypeMismatch wrapped
// with the offending Go type when v's dynamic type doesn't match t.
func Encode(v any, t format.ColumnType, prefixWidth int) ([]byte, error) {
	switch t {
	case format.ColumnInt8:
		return encodeSigned[int8](v, 8)
	case format.ColumnInt16:
		return encodeSigned[int16](v, 16)
	case format.ColumnInt32:
		return encodeSigned[int32](v, 32)
	case format.ColumnInt64:
		return encodeSigned[int64](v, 64)
	case format.ColumnUint8:
		return encodeUnsigned[uint8](v, 8)
	case format.ColumnUint16:
		return encodeUnsigned[uint16](v, 16)
	case format.ColumnUint32:
		return encodeUnsigned[uint32](v, 32)
	case format.ColumnUint64:
		return encodeUnsigned[uint64](v, 64)
	case format.ColumnFloat32:
		f, ok := v.(float32)
		if !ok {
			return nil, typeMismatch(v, t)
		}

		return EncodeFloat32(f)
	case format.ColumnFloat64:
		f, ok := v.(float64)
		if !ok {
			return nil, typeMismatch(v, t)
		}

		return EncodeFloat64(f)
	case format.ColumnBool:
		b, ok := v.(bool)
		if !ok {
			return nil, typeMismatch(v, t)
		}

		return EncodeBool(b)
	case format.ColumnDate:
		tm, ok := v.(time.Time)
		if !ok {
			return nil, typeMismatch(v, t)
		}

		return EncodeDate(tm)
	case format.ColumnDateTime:
		tm, ok := v.(time.Time)
		if !ok {
			return nil, typeMismatch(v, t)
		}

		return EncodeDateTime(tm)
	case format.ColumnString:
		s, ok := v.(string)
		if !ok {
			return nil, typeMismatch(v, t)
		}

		return EncodeStringPrefix(s, prefixWidth), nil
	default:
		return nil, fmt.Errorf("keycodec: column type %s has no key encoding", t)
	}
}

func typeMismatch(v any, t format.ColumnType) error {
	return fmt.Errorf("keycodec: value of type %T does not match column type %s: %w", v, t, errs.ErrKeyTypeMismatch)
}

type signedInt interface{ ~int8 | ~int16 | ~int32 | ~int64 }

func encodeSigned[T signedInt](v any, bitWidth int) ([]byte, error) {
	tv, ok := v.(T)
	if !ok {
		var zero T

		return nil, typeMismatch(v, columnTypeOf(zero))
	}

	return EncodeInt(int64(tv), bitWidth)
}

type unsignedInt interface{ ~uint8 | ~uint16 | ~uint32 | ~uint64 }

func encodeUnsigned[T unsignedInt](v any, bitWidth int) ([]byte, error) {
	tv, ok := v.(T)
	if !ok {
		var zero T

		return nil, typeMismatch(v, columnTypeOf(zero))
	}

	return EncodeUint(uint64(tv), bitWidth)
}

// columnTypeOf is only used to build a readable type-mismatch error; it
// does not need to be exhaustive beyond the types encodeSigned/encodeUnsigned
// instantiate with.
func columnTypeOf(v any) format.ColumnType {
	switch v.(type) {
	case int8:
		return format.ColumnInt8
	case int16:
		return format.ColumnInt16
	case int32:
		return format.ColumnInt32
	case int64:
		return format.ColumnInt64
	case uint8:
		return format.ColumnUint8
	case uint16:
		return format.ColumnUint16
	case uint32:
		return format.ColumnUint32
	case uint64:
		return format.ColumnUint64
	default:
		return format.ColumnInvalid
	}
}
