// Package container implements the file framing of spec.md §4.7: magic,
// header, and the ordered, 8-byte-aligned section layout (R-tree,
// attribute indexes, feature section) that the rest of the module reads
// and writes through.
package container

// Magic is the container's 8-byte file signature: "fcb\0" followed by
// the 4-byte version (version 1 is "\x01\x00\x00\x00"). spec.md §6.1
// fixes the magic at 8 bytes, resolving an ambiguity in the source
// material between a 4-byte and 8-byte framing.
var Magic = [8]byte{'f', 'c', 'b', 0, 1, 0, 0, 0}

// Version is the format version encoded in Magic's trailing 4 bytes.
const Version = 1
