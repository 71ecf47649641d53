package feature

import (
	"encoding/binary"
	"math"

	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/format"
)

// EncodeValue serializes an attribute value v, whose dynamic Go type must
// match t, into its on-disk Raw form. Unlike keycodec's fixed-width,
// order-preserving keys, these are plain little-endian value encodings —
// nothing here needs to sort.
func EncodeValue(v any, t format.ColumnType) ([]byte, error) {
	if w, ok := t.FixedWidth(); ok {
		buf := make([]byte, w)

		switch t {
		case format.ColumnInt8:
			iv, ok := v.(int8)
			if !ok {
				return nil, errs.ErrEncode
			}

			buf[0] = byte(iv)
		case format.ColumnUint8, format.ColumnBool:
			switch tv := v.(type) {
			case uint8:
				buf[0] = tv
			case bool:
				if tv {
					buf[0] = 1
				}
			default:
				return nil, errs.ErrEncode
			}
		case format.ColumnInt16:
			iv, ok := v.(int16)
			if !ok {
				return nil, errs.ErrEncode
			}

			binary.LittleEndian.PutUint16(buf, uint16(iv))
		case format.ColumnUint16:
			uv, ok := v.(uint16)
			if !ok {
				return nil, errs.ErrEncode
			}

			binary.LittleEndian.PutUint16(buf, uv)
		case format.ColumnInt32:
			iv, ok := v.(int32)
			if !ok {
				return nil, errs.ErrEncode
			}

			binary.LittleEndian.PutUint32(buf, uint32(iv))
		case format.ColumnUint32:
			uv, ok := v.(uint32)
			if !ok {
				return nil, errs.ErrEncode
			}

			binary.LittleEndian.PutUint32(buf, uv)
		case format.ColumnFloat32:
			fv, ok := v.(float32)
			if !ok {
				return nil, errs.ErrEncode
			}

			binary.LittleEndian.PutUint32(buf, math.Float32bits(fv))
		case format.ColumnInt64, format.ColumnDate:
			iv, ok := v.(int64)
			if !ok {
				return nil, errs.ErrEncode
			}

			binary.LittleEndian.PutUint64(buf, uint64(iv))
		case format.ColumnUint64:
			uv, ok := v.(uint64)
			if !ok {
				return nil, errs.ErrEncode
			}

			binary.LittleEndian.PutUint64(buf, uv)
		case format.ColumnFloat64:
			fv, ok := v.(float64)
			if !ok {
				return nil, errs.ErrEncode
			}

			binary.LittleEndian.PutUint64(buf, math.Float64bits(fv))
		case format.ColumnDateTime:
			iv, ok := v.(int64)
			if !ok {
				return nil, errs.ErrEncode
			}

			binary.LittleEndian.PutUint64(buf, uint64(iv))
		}

		return buf, nil
	}

	switch t {
	case format.ColumnString:
		s, ok := v.(string)
		if !ok {
			return nil, errs.ErrEncode
		}

		return lengthPrefixed([]byte(s)), nil
	case format.ColumnJSON:
		b, ok := v.([]byte)
		if !ok {
			return nil, errs.ErrEncode
		}

		return lengthPrefixed(b), nil
	default:
		return nil, errs.ErrEncode
	}
}

func lengthPrefixed(b []byte) []byte {
	out := make([]byte, 4+len(b))
	binary.LittleEndian.PutUint32(out, uint32(len(b))) //nolint: gosec
	copy(out[4:], b)

	return out
}

// DecodeValue is the inverse of EncodeValue, returning a Go value of the
// type t's natural Go representation (int8/uint16/float64/string/…).
func DecodeValue(raw []byte, t format.ColumnType) (any, error) {
	if w, ok := t.FixedWidth(); ok {
		if len(raw) != w {
			return nil, errs.ErrTruncatedRecord
		}

		switch t {
		case format.ColumnInt8:
			return int8(raw[0]), nil
		case format.ColumnUint8:
			return raw[0], nil
		case format.ColumnBool:
			return raw[0] != 0, nil
		case format.ColumnInt16:
			return int16(binary.LittleEndian.Uint16(raw)), nil
		case format.ColumnUint16:
			return binary.LittleEndian.Uint16(raw), nil
		case format.ColumnInt32:
			return int32(binary.LittleEndian.Uint32(raw)), nil
		case format.ColumnUint32:
			return binary.LittleEndian.Uint32(raw), nil
		case format.ColumnFloat32:
			return math.Float32frombits(binary.LittleEndian.Uint32(raw)), nil
		case format.ColumnInt64, format.ColumnDate, format.ColumnDateTime:
			return int64(binary.LittleEndian.Uint64(raw)), nil
		case format.ColumnUint64:
			return binary.LittleEndian.Uint64(raw), nil
		case format.ColumnFloat64:
			return math.Float64frombits(binary.LittleEndian.Uint64(raw)), nil
		}
	}

	switch t {
	case format.ColumnString:
		b, _, err := readLengthPrefixed(raw)
		if err != nil {
			return nil, err
		}

		return string(b), nil
	case format.ColumnJSON:
		b, _, err := readLengthPrefixed(raw)
		if err != nil {
			return nil, err
		}

		return b, nil
	default:
		return nil, errs.ErrSchemaMismatch
	}
}

func readLengthPrefixed(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, errs.ErrTruncatedRecord
	}

	n := binary.LittleEndian.Uint32(data)
	if uint64(4+n) > uint64(len(data)) { //nolint: gosec
		return nil, 0, errs.ErrTruncatedRecord
	}

	return data[4 : 4+n], 4 + int(n), nil
}
