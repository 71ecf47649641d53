package sptree

import (
	"bytes"
	"sort"
)

// descend narrows from the root down to the leaf-layer window that must
// contain key, if it is present: at each layer it binary-searches for the
// rightmost node whose key is <= the target within the current window,
// then follows that node's child-group pointer into the layer below.
// This is the "top-down descent in O(log_{B_a} N) node touches" from
// spec.md §4.4 — each touch reads at most arity keys, exactly the unit a
// range-fetch reader would fetch as one page.
func (t *Tree) descend(key []byte) (start, end int) {
	rangeStart, rangeEnd := 0, len(t.layers[len(t.layers)-1])

	for level := len(t.layers) - 1; level >= 1; level-- {
		layer := t.layers[level]

		idx := lastLE(layer, rangeStart, rangeEnd, key)
		if idx < rangeStart {
			idx = rangeStart
		}

		childStart := int(layer[idx].ptr)

		below := t.layers[level-1]

		rangeStart = childStart
		rangeEnd = childStart + t.arity

		if rangeEnd > len(below) {
			rangeEnd = len(below)
		}
	}

	return rangeStart, rangeEnd
}

// lastLE returns the index within [lo, hi) of the last node whose key is
// <= target, or lo-1 if every node in the window sorts after target.
func lastLE(layer []node, lo, hi int, target []byte) int {
	idx := sort.Search(hi-lo, func(i int) bool {
		return bytes.Compare(layer[lo+i].key, target) > 0
	})

	return lo + idx - 1
}

func (t *Tree) resolve(n node) ([]int64, error) {
	if n.ptr&payloadTagBit == 0 {
		return []int64{int64(n.ptr)}, nil
	}

	first := n.ptr &^ payloadTagBit

	return walkChain(first, t.capacity, t.readBlock)
}

func (t *Tree) readBlock(idx uint64) ([]byte, error) {
	width := payloadBlockWidth(t.capacity)
	off := (idx - 1) * uint64(width)

	if off+uint64(width) > uint64(len(t.payload)) {
		return nil, errTruncated
	}

	return t.payload[off : off+uint64(width)], nil
}

// FindEq returns every feature offset whose indexed value equals key
// (spec.md §4.4's find_eq).
func (t *Tree) FindEq(key []byte) ([]int64, error) {
	start, end := t.descend(key)

	leaves := t.layers[0]

	idx := sort.Search(end-start, func(i int) bool {
		return bytes.Compare(leaves[start+i].key, key) >= 0
	})
	idx += start

	if idx >= end || !bytes.Equal(leaves[idx].key, key) {
		return nil, nil
	}

	return t.resolve(leaves[idx])
}

// FindEqString is FindEq specialized for string columns: the index key
// is only a fixed-width prefix (keycodec.EncodeStringPrefix), so two
// distinct strings sharing a prefix land on the same leaf entry and
// dereference the same duplicate chain. FindEqString resolves that
// chain and then keeps only the offsets whose suffix-table value
// actually equals want, disambiguating a prefix collision from a true
// match (spec.md §4.4).
func (t *Tree) FindEqString(keyPrefix []byte, want string) ([]int64, error) {
	offs, err := t.FindEq(keyPrefix)
	if err != nil || len(offs) <= 1 || t.suffix == nil {
		return offs, err
	}

	out := offs[:0]

	for _, o := range offs {
		if v, ok := t.suffix.Lookup(o); !ok || v == want {
			out = append(out, o)
		}
	}

	return out, nil
}

// CmpOp identifies a comparison predicate for FindCmp.
type CmpOp int

const (
	CmpLess CmpOp = iota
	CmpLessOrEqual
	CmpGreater
	CmpGreaterOrEqual
)

// FindRange returns every feature offset whose indexed value lies in
// [lo, hi] inclusive (spec.md §4.4's find_range): lower_bound(lo) and
// upper_bound(hi) each descend once, then the leaf layer is scanned
// sequentially between them.
func (t *Tree) FindRange(lo, hi []byte) ([]int64, error) {
	leaves := t.layers[0]

	lowStart, lowEnd := t.descend(lo)
	lowIdx := lowStart + sort.Search(lowEnd-lowStart, func(i int) bool {
		return bytes.Compare(leaves[lowStart+i].key, lo) >= 0
	})

	hiStart, hiEnd := t.descend(hi)
	hiIdx := hiStart + sort.Search(hiEnd-hiStart, func(i int) bool {
		return bytes.Compare(leaves[hiStart+i].key, hi) > 0
	})

	var out []int64

	for i := lowIdx; i < hiIdx && i < len(leaves); i++ {
		offs, err := t.resolve(leaves[i])
		if err != nil {
			return nil, err
		}

		out = append(out, offs...)
	}

	return out, nil
}

// FindCmp returns every feature offset satisfying key OP value for the
// given comparison operator, e.g. CmpGreaterOrEqual selects every key >=
// value.
func (t *Tree) FindCmp(op CmpOp, value []byte) ([]int64, error) {
	leaves := t.layers[0]

	switch op {
	case CmpGreaterOrEqual:
		start, end := t.descend(value)
		idx := start + sort.Search(end-start, func(i int) bool {
			return bytes.Compare(leaves[start+i].key, value) >= 0
		})

		return t.resolveRange(idx, len(leaves))
	case CmpGreater:
		start, end := t.descend(value)
		idx := start + sort.Search(end-start, func(i int) bool {
			return bytes.Compare(leaves[start+i].key, value) > 0
		})

		return t.resolveRange(idx, len(leaves))
	case CmpLessOrEqual:
		start, end := t.descend(value)
		idx := start + sort.Search(end-start, func(i int) bool {
			return bytes.Compare(leaves[start+i].key, value) > 0
		})

		return t.resolveRange(0, idx)
	case CmpLess:
		start, end := t.descend(value)
		idx := start + sort.Search(end-start, func(i int) bool {
			return bytes.Compare(leaves[start+i].key, value) >= 0
		})

		return t.resolveRange(0, idx)
	default:
		return nil, nil
	}
}

func (t *Tree) resolveRange(start, end int) ([]int64, error) {
	leaves := t.layers[0]

	var out []int64

	for i := start; i < end; i++ {
		offs, err := t.resolve(leaves[i])
		if err != nil {
			return nil, err
		}

		out = append(out, offs...)
	}

	return out, nil
}
