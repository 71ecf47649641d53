package sptree

// Encode serializes the tree's index layers (leaf plus every internal
// layer) as a small header — key width, arity, layer count, and the
// per-layer key count — followed by each layer's flat (key, ptr) array,
// leaf layer first. The payload and suffix sections are serialized
// separately (Tree.Payload, SuffixTable.Encode) since they compress
// independently and the index region itself never does (spec.md §1
// non-goals; see DESIGN.md).
func (t *Tree) Encode() []byte {
	entryWidth := t.keyWidth + 8

	size := 4 + 4 + 4 + 4*len(t.layers)
	for _, l := range t.layers {
		size += len(l) * entryWidth
	}

	buf := make([]byte, size)
	off := 0

	putU32(buf[off:], uint32(t.keyWidth)) //nolint: gosec
	off += 4
	putU32(buf[off:], uint32(t.arity)) //nolint: gosec
	off += 4
	putU32(buf[off:], uint32(len(t.layers))) //nolint: gosec
	off += 4

	for _, l := range t.layers {
		putU32(buf[off:], uint32(len(l))) //nolint: gosec
		off += 4
	}

	for _, l := range t.layers {
		for _, n := range l {
			copy(buf[off:], n.key)
			off += t.keyWidth
			putU64(buf[off:], n.ptr)
			off += 8
		}
	}

	return buf
}

// Decode parses the index-layer bytes produced by Encode, attaching the
// separately-stored payload section and (optional) suffix table.
func Decode(data []byte, payload []byte, payloadCapacity int, suffix *SuffixTable) (*Tree, error) {
	if len(data) < 12 {
		return nil, errTruncated
	}

	keyWidth := int(getU32(data[0:]))
	arity := int(getU32(data[4:]))
	numLayers := int(getU32(data[8:]))

	off := 12
	if off+4*numLayers > len(data) {
		return nil, errTruncated
	}

	lens := make([]int, numLayers)
	for i := range lens {
		lens[i] = int(getU32(data[off:]))
		off += 4
	}

	entryWidth := keyWidth + 8

	t := &Tree{
		keyWidth: keyWidth,
		arity:    arity,
		payload:  payload,
		capacity: payloadCapacity,
		suffix:   suffix,
	}

	for _, n := range lens {
		if off+n*entryWidth > len(data) {
			return nil, errTruncated
		}

		layer := make([]node, n)

		for i := range layer {
			key := make([]byte, keyWidth)
			copy(key, data[off:off+keyWidth])
			off += keyWidth

			layer[i] = node{key: key, ptr: getU64(data[off:])}
			off += 8
		}

		t.layers = append(t.layers, layer)
	}

	return t, nil
}
