// Package endian provides the byte-order engine used throughout FlatCityBuf's
// binary framing.
//
// The container format fixes little-endian for every fixed-width framing
// field (§6.1 of the format spec); this package exists so that framing code
// threads a single, explicit engine value rather than hardcoding
// binary.LittleEndian everywhere, and so that a big-endian build remains a
// one-line change for embedders who need it.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// Engine combines binary.ByteOrder and binary.AppendByteOrder into one
// interface, satisfied by binary.LittleEndian and binary.BigEndian without
// any wrapping.
type Engine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// LittleEndian is the engine mandated by the container format (§6.1).
func LittleEndian() Engine { return binary.LittleEndian }

// BigEndian is provided for embedders targeting a big-endian host profile;
// the container format itself always fixes little-endian framing.
func BigEndian() Engine { return binary.BigEndian }

// hostOrder probes the native byte order using a fixed test value.
func hostOrder() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host CPU is little-endian.
func IsNativeLittleEndian() bool {
	return hostOrder() == binary.LittleEndian
}
