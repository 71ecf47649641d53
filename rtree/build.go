package rtree

import (
	"sort"

	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/internal/pool"
)

// Ref is one feature reference handed to Build: a feature's MBR plus its
// byte offset into the feature section. Build sorts refs by Hilbert value
// internally — callers need not pre-sort, only fill in each ref's Hilbert
// value (e.g. from the feature's centroid).
type Ref struct {
	Box
	Offset  int64
	Hilbert uint64
}

// levelRange is a closed/open node-index range [start, end) comprising
// one level of the tree. Level 0 holds the leaves; the last level holds
// the single root node.
type levelRange struct {
	start, end int
}

// levelify computes, for a given leaf count and fan-out, the node-index
// range of every level, bottom-up. Grounded directly on the Go FlatGeobuf
// port's levelify (see packedrtree.go in the example pack): a level's
// node count is ceil(prevCount/nodeSize), repeated until one node (the
// root) remains; level start indices are then assigned back-to-front so
// leaves occupy the tail of the node array and the root is node 0.
func levelify(numRefs, nodeSize int) []levelRange {
	nodesPerLevel := []int{numRefs}

	nodesThisLevel := numRefs
	for nodesThisLevel > 1 {
		nodesThisLevel = (nodesThisLevel + nodeSize - 1) / nodeSize
		nodesPerLevel = append(nodesPerLevel, nodesThisLevel)
	}

	numNodes := 0
	for _, n := range nodesPerLevel {
		numNodes += n
	}

	levels := make([]levelRange, len(nodesPerLevel))
	remaining := numNodes

	for i, n := range nodesPerLevel {
		remaining -= n
		levels[i] = levelRange{start: remaining, end: remaining + n}
	}

	return levels
}

// Tree is a packed, bottom-up Hilbert R-tree, fully materialized in
// memory. Level 0 is the leaf level; the last level holds the root.
type Tree struct {
	nodes    []Node
	levels   []levelRange
	nodeSize int
	numRefs  int
}

// DefaultNodeSize is B_r from spec.md §4.3: the fan-out of internal
// nodes when not otherwise configured.
const DefaultNodeSize = 16

// Build constructs a packed Hilbert R-tree from refs, which Build sorts
// by Hilbert value in place (spec.md §4.3's "compute the 2-D Hilbert
// value of each feature centroid ... sort features by that value").
// The sort is stable so that a caller which has already placed refs in
// some canonical order for ties (e.g. fcb.Create, which writes feature
// records in the same Hilbert order before calling Build) gets that same
// relative order back at the leaf level instead of an arbitrary one.
// nodeSize must be at least 2.
func Build(refs []Ref, nodeSize int) (*Tree, error) {
	if len(refs) == 0 {
		return nil, errs.NewBuildError("rtree", errs.ErrEncode)
	}

	if nodeSize < 2 {
		nodeSize = DefaultNodeSize
	}

	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Hilbert < refs[j].Hilbert })

	levels := levelify(len(refs), nodeSize)

	t := &Tree{
		nodes:    make([]Node, levels[0].end),
		levels:   levels,
		nodeSize: nodeSize,
		numRefs:  len(refs),
	}

	leafStart := levels[0].start
	for i, r := range refs {
		t.nodes[leafStart+i] = Node{Box: r.Box, Offset: r.Offset}
	}

	for lvl := 0; lvl < len(levels)-1; lvl++ {
		level := levels[lvl]
		parentIdx := levels[lvl+1].start

		nodeIndex := level.start
		for nodeIndex < level.end {
			parent := Node{Box: EmptyBox, Offset: int64(nodeIndex)}

			childCount := 0
			for childCount < nodeSize && nodeIndex < level.end {
				parent.Expand(t.nodes[nodeIndex].Box)
				nodeIndex++
				childCount++
			}

			t.nodes[parentIdx] = parent
			parentIdx++
		}
	}

	return t, nil
}

// Bounds returns the bounding box enclosing every feature in the tree.
func (t *Tree) Bounds() Box {
	return t.nodes[0].Box
}

// NumRefs returns the number of leaf (feature) references in the tree.
func (t *Tree) NumRefs() int { return t.numRefs }

// NodeSize returns the tree's configured fan-out.
func (t *Tree) NodeSize() int { return t.nodeSize }

// NumNodes returns the total node count (internal plus leaf).
func (t *Tree) NumNodes() int { return len(t.nodes) }

// LeafOffsets returns every feature offset in leaf order. Since Build
// sorts refs by Hilbert value and the container writer lays out feature
// records in that same Hilbert order, leaf order is also ascending
// feature-offset order — callers needing "the next feature's offset"
// for record-size derivation (spec.md §4.4) can binary-search this
// slice rather than re-deriving it.
func (t *Tree) LeafOffsets() []int64 {
	leaf := t.levels[0]

	offsets := make([]int64, leaf.end-leaf.start)
	for i := range offsets {
		offsets[i] = t.nodes[leaf.start+i].Offset
	}

	return offsets
}

// Encode serializes every node, level-major (root-last order matches the
// in-memory layout), into the flat on-disk node array spec.md §3
// describes.
func (t *Tree) Encode() []byte {
	total := NodeSize * len(t.nodes)

	page := pool.NodePages.Get()
	defer pool.NodePages.Put(page)

	page.Grow(total)
	page.B = page.B[:total]
	buf := page.B

	for i, n := range t.nodes {
		copy(buf[i*NodeSize:], n.Encode())
	}

	out := make([]byte, total)
	copy(out, buf)

	return out
}

// Decode reconstructs a Tree from its on-disk node array plus the
// (numRefs, nodeSize) that produced it. The array must hold exactly as
// many nodes as levelify(numRefs, nodeSize) predicts.
func Decode(data []byte, numRefs, nodeSize int) (*Tree, error) {
	levels := levelify(numRefs, nodeSize)
	want := levels[0].end

	if len(data) != want*NodeSize {
		return nil, errs.NewFormatError("rtree-node", errs.ErrCorruptNode)
	}

	nodes := make([]Node, want)
	for i := range nodes {
		nodes[i] = DecodeNode(data[i*NodeSize:])
	}

	return &Tree{nodes: nodes, levels: levels, nodeSize: nodeSize, numRefs: numRefs}, nil
}
