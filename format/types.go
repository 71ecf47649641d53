// Package format defines the small, shared enumerations used across the
// container, key codec, and feature codec: column/key scalar types and
// section compression tags.
package format

// ColumnType identifies the scalar type of an attribute column, per the
// table in spec.md §4.1.
type ColumnType uint8

const (
	ColumnInvalid ColumnType = iota
	ColumnInt8
	ColumnInt16
	ColumnInt32
	ColumnInt64
	ColumnUint8
	ColumnUint16
	ColumnUint32
	ColumnUint64
	ColumnFloat32
	ColumnFloat64
	ColumnBool
	ColumnString
	ColumnDateTime
	ColumnDate
	ColumnJSON
)

func (t ColumnType) String() string {
	switch t {
	case ColumnInt8:
		return "int8"
	case ColumnInt16:
		return "int16"
	case ColumnInt32:
		return "int32"
	case ColumnInt64:
		return "int64"
	case ColumnUint8:
		return "uint8"
	case ColumnUint16:
		return "uint16"
	case ColumnUint32:
		return "uint32"
	case ColumnUint64:
		return "uint64"
	case ColumnFloat32:
		return "float32"
	case ColumnFloat64:
		return "float64"
	case ColumnBool:
		return "bool"
	case ColumnString:
		return "string"
	case ColumnDateTime:
		return "datetime"
	case ColumnDate:
		return "date"
	case ColumnJSON:
		return "json"
	default:
		return "invalid"
	}
}

// FixedWidth reports whether values of t are encoded at a single fixed byte
// width (true for every scalar type except String and JSON) and that
// width. String columns have a fixed *key prefix* width but variable full
// value length, and JSON values are always variable length; both report
// (0, false) here since "fixed width" is meaningless for an attribute
// value of those types (it still applies to their *key encoding*, see
// package keycodec).
func (t ColumnType) FixedWidth() (int, bool) {
	switch t {
	case ColumnInt8, ColumnUint8, ColumnBool:
		return 1, true
	case ColumnInt16, ColumnUint16:
		return 2, true
	case ColumnInt32, ColumnUint32, ColumnFloat32:
		return 4, true
	case ColumnInt64, ColumnUint64, ColumnFloat64, ColumnDate:
		return 8, true
	case ColumnDateTime:
		return 12, true
	default:
		return 0, false
	}
}

// CompressionType identifies the section-level compression codec used for
// an S+Tree's payload/suffix region. It is never applied to the header,
// to the feature section (spec.md §1 non-goals) or to an S+Tree's
// arithmetic-addressed index region.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionZstd
	CompressionS2
	CompressionLZ4
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionS2:
		return "s2"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}
