package sptree

import "encoding/binary"

func putU32(buf []byte, v uint32) { binary.LittleEndian.PutUint32(buf, v) }
func putU64(buf []byte, v uint64) { binary.LittleEndian.PutUint64(buf, v) }
func getU32(buf []byte) uint32    { return binary.LittleEndian.Uint32(buf) }
func getU64(buf []byte) uint64    { return binary.LittleEndian.Uint64(buf) }
