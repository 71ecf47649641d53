package rtree

import "encoding/binary"

// NodeSize is the fixed on-disk byte width of one node entry: a Box
// (32 bytes) followed by an 8-byte offset, matching spec.md §3's
// "(MBR, child_pointer_or_feature_offset)" node entry shape.
const NodeSize = boxWidth + 8

// Node is one entry of the packed R-tree, in memory. At the leaf level,
// Offset is a feature record's byte offset into the feature section; at
// every other level it is the node index (not a byte offset) of the
// node's first child, per spec.md §3's "pointer type is implicit from
// depth".
type Node struct {
	Box
	Offset int64
}

// Encode serializes n into the on-disk node entry format.
func (n Node) Encode() []byte {
	buf := make([]byte, NodeSize)
	n.Box.encode(buf)
	binary.LittleEndian.PutUint64(buf[boxWidth:], uint64(n.Offset))

	return buf
}

// DecodeNode parses a single NodeSize-byte node entry.
func DecodeNode(buf []byte) Node {
	return Node{
		Box:    decodeBox(buf),
		Offset: int64(binary.LittleEndian.Uint64(buf[boxWidth:])),
	}
}
