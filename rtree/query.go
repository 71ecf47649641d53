package rtree

import "container/heap"

// ticket is a pending work item in a tree search: the node index to
// visit next and the level it belongs to. Grounded directly on the Go
// FlatGeobuf port's packedRTree.search ticket/ticketBag pattern (see
// packedrtree.go in the example pack).
type ticket struct {
	nodeIndex int
	level     int
}

// ticketBag implements heap.Interface so the same type serves as a plain
// stack (in-memory search, push/pop the tail) or a min-heap ordered by
// nodeIndex (streaming search, so node fetches are monotonically
// increasing and can be read sequentially from a Source).
type ticketBag []ticket

func (tq ticketBag) Len() int           { return len(tq) }
func (tq ticketBag) Less(i, j int) bool { return tq[i].nodeIndex < tq[j].nodeIndex }
func (tq ticketBag) Swap(i, j int)      { tq[i], tq[j] = tq[j], tq[i] }

func (tq *ticketBag) Push(x any) { *tq = append(*tq, x.(ticket)) } //nolint: forcetypeassert

func (tq *ticketBag) Pop() any {
	old := *tq
	n := len(old)
	x := old[n-1]
	*tq = old[:n-1]

	return x
}

func stackPush(tq *ticketBag, t ticket) { *tq = append(*tq, t) }

func stackPop(tq *ticketBag) ticket {
	old := *tq
	n := len(old)
	x := old[n-1]
	*tq = old[:n-1]

	return x
}

func heapPush(tq *ticketBag, t ticket) { heap.Push(tq, t) }

func heapPop(tq *ticketBag) ticket {
	return heap.Pop(tq).(ticket) //nolint: forcetypeassert
}

// BBox returns the byte offsets of every feature whose MBR intersects q,
// in tree-traversal order, not sorted by offset (spec.md §4.3's bbox(q)).
func (t *Tree) BBox(q Box) []int64 {
	var out []int64

	t.walk(q, func(n Node) bool { return n.Box.Intersects(q) }, func(off int64) {
		out = append(out, off)
	})

	return out
}

// Point returns the byte offsets of every feature whose MBR contains p
// (spec.md §4.3's point(p)). Callers needing exact point-in-polygon
// containment must re-filter using the decoded feature's geometry: the
// R-tree only ever filters by MBR.
func (t *Tree) Point(x, y float64) []int64 {
	var out []int64

	t.walk(Box{MinX: x, MinY: y, MaxX: x, MaxY: y},
		func(n Node) bool { return n.Box.ContainsPoint(x, y) },
		func(off int64) { out = append(out, off) })

	return out
}

// walk is the shared in-memory traversal: a plain stack of tickets,
// descending only into children whose node passes match, invoking visit
// for each matching leaf.
func (t *Tree) walk(q Box, match func(Node) bool, visit func(offset int64)) {
	root := t.levels[len(t.levels)-1]

	var bag ticketBag
	bag = append(bag, ticket{nodeIndex: root.start, level: len(t.levels) - 1})

	for len(bag) > 0 {
		tk := stackPop(&bag)

		level := t.levels[tk.level]
		end := tk.nodeIndex + t.nodeSize
		if level.end < end {
			end = level.end
		}

		isLeaf := tk.level == 0

		for pos := tk.nodeIndex; pos < end; pos++ {
			n := t.nodes[pos]
			if !match(n) {
				continue
			}

			if isLeaf {
				visit(n.Offset)
			} else {
				stackPush(&bag, ticket{nodeIndex: int(n.Offset), level: tk.level - 1})
			}
		}
	}
}

// Neighbor is one result of Nearest: a feature offset and its centroid
// distance (not squared) from the query point.
type Neighbor struct {
	Offset   int64
	Distance float64
}

// Nearest returns the k features whose MBR centroid is closest to (x, y),
// best-first, ties broken by ascending feature offset (spec.md §4.3's
// nearest(p, k)). It prunes subtrees whose minimum possible distance to
// (x, y) already exceeds the current k-th best distance.
func (t *Tree) Nearest(x, y float64, k int) []Neighbor {
	if k <= 0 {
		return nil
	}

	best := make(neighborHeap, 0, k)

	root := t.levels[len(t.levels)-1]

	var bag ticketBag
	bag = append(bag, ticket{nodeIndex: root.start, level: len(t.levels) - 1})

	for len(bag) > 0 {
		tk := stackPop(&bag)

		level := t.levels[tk.level]
		end := tk.nodeIndex + t.nodeSize
		if level.end < end {
			end = level.end
		}

		isLeaf := tk.level == 0

		for pos := tk.nodeIndex; pos < end; pos++ {
			n := t.nodes[pos]

			if len(best) == k {
				worst := best[0].distSq
				if n.Box.minDistSq(x, y) > worst {
					continue
				}
			}

			if isLeaf {
				cx, cy := n.Box.Centroid()
				dx, dy := cx-x, cy-y
				distSq := dx*dx + dy*dy

				pushBounded(&best, boundedNeighbor{offset: n.Offset, distSq: distSq}, k)
			} else {
				stackPush(&bag, ticket{nodeIndex: int(n.Offset), level: tk.level - 1})
			}
		}
	}

	return best.sorted()
}
