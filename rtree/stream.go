package rtree

import "context"

// Fetcher supplies nodes [i, j) on demand during a streaming search, so a
// tree whose nodes live behind a range-fetch reader never needs to be
// fully materialized. Implementations should read nodes in ascending
// index order when possible — SearchStreaming visits tickets through a
// min-heap precisely so consecutive fetches tend to be contiguous.
type Fetcher func(ctx context.Context, i, j int) ([]Node, error)

// SearchStreaming performs the same descent as BBox/Point, but pulls
// nodes through fetch instead of reading a fully materialized Tree.
// Grounded on the Go FlatGeobuf port's Seek (see packedrtree.go in the
// example pack): the ticket bag is a min-heap ordered by node index, so
// node reads are requested in non-decreasing order, which the range-fetch
// reader's request coalescing (rangereader.CoalesceRanges) can batch into
// few HTTP calls.
func SearchStreaming(ctx context.Context, levels []int, nodeSize int, q Box, fetch Fetcher) ([]int64, error) {
	ranges := make([]levelRange, len(levels)/2)
	for i := range ranges {
		ranges[i] = levelRange{start: levels[2*i], end: levels[2*i+1]}
	}

	var out []int64

	var bag ticketBag
	heapPush(&bag, ticket{nodeIndex: ranges[len(ranges)-1].start, level: len(ranges) - 1})

	for len(bag) > 0 {
		tk := heapPop(&bag)

		level := ranges[tk.level]
		end := tk.nodeIndex + nodeSize
		if level.end < end {
			end = level.end
		}

		nodes, err := fetch(ctx, tk.nodeIndex, end)
		if err != nil {
			return nil, err
		}

		isLeaf := tk.level == 0

		for _, n := range nodes {
			if !n.Box.Intersects(q) {
				continue
			}

			if isLeaf {
				out = append(out, n.Offset)
			} else {
				heapPush(&bag, ticket{nodeIndex: int(n.Offset), level: tk.level - 1})
			}
		}
	}

	return out, nil
}

// Levels returns the flattened [start0, end0, start1, end1, ...]
// level-range list for the tree, suitable for passing to SearchStreaming
// without exposing the unexported levelRange type across the package
// boundary it will eventually cross into rangereader.
func (t *Tree) Levels() []int {
	out := make([]int, 0, 2*len(t.levels))
	for _, l := range t.levels {
		out = append(out, l.start, l.end)
	}

	return out
}
