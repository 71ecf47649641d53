package sptree

import (
	"bytes"

	"github.com/cityjson/flatcitybuf/errs"
)

var errTruncated = errs.NewFormatError("sptree-index", errs.ErrCorruptIndex)

// DefaultArity is B_a from spec.md §4.4: the fan-out of internal nodes
// when not otherwise configured.
const DefaultArity = 64

// Entry is one unique key and the (possibly several) feature offsets it
// maps to, the grouped form Build expects: duplicate detection ("group
// duplicates", build step 1) happens before Build is called, typically
// while the caller streams attribute values in sorted order.
type Entry struct {
	Key     []byte
	Offsets []int64
}

type node struct {
	key []byte
	ptr uint64
}

// Tree is a fully in-memory static B+Tree over one attribute column.
// Layer 0 holds the leaves (one node per unique key); the last layer
// holds the single root node.
type Tree struct {
	layers   [][]node
	keyWidth int
	arity    int
	payload  []byte
	capacity int
	suffix   *SuffixTable
}

// Build constructs a Tree from entries, which must already be sorted
// ascending by Key and hold no duplicate keys (spec.md §4.4 build steps
// 1-5: group duplicates, emit payload blocks, build the unique-key leaf
// index, then internal layers bottom-up). keyWidth is W_K; arity is B_a;
// payloadCapacity is M (DefaultPayloadCapacity if zero). suffixEntries
// disambiguates string-prefix collisions and may be nil.
func Build(entries []Entry, keyWidth, arity, payloadCapacity int, suffixEntries []SuffixEntry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, errs.NewBuildError("sptree", errs.ErrEncode)
	}

	if arity < 2 {
		arity = DefaultArity
	}

	if payloadCapacity < 1 {
		payloadCapacity = DefaultPayloadCapacity
	}

	for i := 1; i < len(entries); i++ {
		if bytes.Compare(entries[i-1].Key, entries[i].Key) >= 0 {
			return nil, errs.NewBuildError("sptree", errs.ErrUnsortedKeys)
		}
	}

	t := &Tree{keyWidth: keyWidth, arity: arity, capacity: payloadCapacity}

	if len(suffixEntries) > 0 {
		t.suffix = NewSuffixTable(suffixEntries)
	}

	leaves := make([]node, len(entries))

	for i, e := range entries {
		var ptr uint64
		if len(e.Offsets) == 1 {
			ptr = uint64(e.Offsets[0])
		} else {
			block := encodePayloadBlocks(&t.payload, e.Offsets, payloadCapacity)
			ptr = block | payloadTagBit
		}

		leaves[i] = node{key: e.Key, ptr: ptr}
	}

	t.layers = append(t.layers, leaves)

	for len(t.layers[len(t.layers)-1]) > 1 {
		below := t.layers[len(t.layers)-1]
		levelLen := (len(below) + arity - 1) / arity

		level := make([]node, levelLen)
		for i := range level {
			start := i * arity
			level[i] = node{key: below[start].key, ptr: uint64(start)} //nolint: gosec
		}

		t.layers = append(t.layers, level)
	}

	return t, nil
}

// Height returns the number of layers, including the leaf layer.
func (t *Tree) Height() int { return len(t.layers) }

// NumKeys returns the number of unique keys indexed.
func (t *Tree) NumKeys() int { return len(t.layers[0]) }

// Payload returns the raw payload-block section bytes built alongside
// the tree, for serialization by the container writer.
func (t *Tree) Payload() []byte { return t.payload }

// Suffix returns the tree's string-collision suffix table, or nil if the
// indexed column is not a string column.
func (t *Tree) Suffix() *SuffixTable { return t.suffix }
