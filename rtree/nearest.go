package rtree

import (
	"math"
	"sort"
)

// boundedNeighbor is a candidate entry in the bounded max-heap Nearest
// uses to track the current k-best-so-far: the heap's root is always the
// worst (largest-distance, then highest-offset) candidate so the pruning
// check in Nearest is a single read of best[0].
type boundedNeighbor struct {
	offset int64
	distSq float64
}

// worse reports whether a ranks after b: farther, or equally far with a
// higher offset.
func worse(a, b boundedNeighbor) bool {
	return a.distSq > b.distSq || (a.distSq == b.distSq && a.offset > b.offset)
}

// neighborHeap is a max-heap on (distSq, offset), capped at k entries by
// pushBounded. It is maintained by hand (siftUp/siftDown) rather than via
// container/heap: every insert is also a capacity check against k, which
// doesn't map cleanly onto heap.Interface's Push/Pop contract.
type neighborHeap []boundedNeighbor

// pushBounded inserts c into h, evicting the current worst candidate if h
// already holds k entries and c is better than it.
func pushBounded(h *neighborHeap, c boundedNeighbor, k int) {
	if len(*h) < k {
		siftUp(h, c)

		return
	}

	if !worse((*h)[0], c) {
		return
	}

	(*h)[0] = c
	siftDown(h, 0)
}

func siftUp(h *neighborHeap, c boundedNeighbor) {
	*h = append(*h, c)

	i := len(*h) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !worse((*h)[i], (*h)[parent]) {
			break
		}

		(*h)[parent], (*h)[i] = (*h)[i], (*h)[parent]
		i = parent
	}
}

func siftDown(h *neighborHeap, i int) {
	n := len(*h)

	for {
		left := 2*i + 1
		if left >= n {
			return
		}

		largest := left
		if right := left + 1; right < n && worse((*h)[right], (*h)[left]) {
			largest = right
		}

		if !worse((*h)[largest], (*h)[i]) {
			return
		}

		(*h)[i], (*h)[largest] = (*h)[largest], (*h)[i]
		i = largest
	}
}

// sorted drains h into a Neighbor slice in ascending-distance order,
// breaking ties by ascending offset per spec.md §4.3.
func (h neighborHeap) sorted() []Neighbor {
	out := make([]Neighbor, len(h))
	for i, c := range h {
		out[i] = Neighbor{Offset: c.offset, Distance: math.Sqrt(c.distSq)}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}

		return out[i].Offset < out[j].Offset
	})

	return out
}
