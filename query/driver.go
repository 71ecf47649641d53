// Package query implements the query driver of spec.md §4.8: it
// composes multiindex's predicate evaluation, rangereader's batched
// byte fetches, and the feature codec's record decode into a single
// streaming iterator over matching CityJSON features.
package query

import (
	"context"
	"iter"
	"sort"

	"github.com/cityjson/flatcitybuf/container"
	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/feature"
	"github.com/cityjson/flatcitybuf/multiindex"
	"github.com/cityjson/flatcitybuf/rangereader"
	"github.com/cityjson/flatcitybuf/rtree"
)

// Driver runs queries against one opened container, streaming decoded
// feature records back to the caller.
type Driver struct {
	header      *container.Header
	reader      *rangereader.Reader
	index       *multiindex.Index
	leafOffsets []int64 // ascending; see rtree.Tree.LeafOffsets
}

// NewDriver wires a Driver from an opened container's header, a reader
// over that same container's bytes, the query index built from its
// decoded R-tree/S+Trees, and the spatial tree itself (used only to
// derive leaf offsets for record-size computation).
func NewDriver(header *container.Header, reader *rangereader.Reader, index *multiindex.Index, spatial *rtree.Tree) *Driver {
	offsets := spatial.LeafOffsets()
	sorted := make([]int64, len(offsets))
	copy(sorted, offsets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return &Driver{header: header, reader: reader, index: index, leafOffsets: sorted}
}

// Run evaluates q and yields one decoded feature record at a time, in
// ascending feature-offset order, with at-most-once delivery per
// feature (spec.md §4.8). Iteration stops at the first error, which is
// yielded as the final pair.
func (d *Driver) Run(ctx context.Context, q multiindex.Query) iter.Seq2[*feature.Record, error] {
	return func(yield func(*feature.Record, error) bool) {
		offsets, err := d.index.Evaluate(ctx, q)
		if err != nil {
			yield(nil, err)

			return
		}

		for off := range offsets {
			if err := ctx.Err(); err != nil {
				yield(nil, errs.NewTransportError(0, err))

				return
			}

			length := d.recordLength(off)

			data, err := d.reader.ReadOne(ctx, rangereader.ByteRange{Start: off, Length: length})
			if err != nil {
				yield(nil, err)

				return
			}

			rec, err := feature.Parse(data)
			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(rec, nil) {
				return
			}
		}
	}
}

// recordLength derives a feature's byte length from the offset of the
// next feature in Hilbert (= file) order, per spec.md §4.4's "size of
// entry i is offset(i+1) - offset(i)"; the final feature's length
// extends to the end of the feature section.
func (d *Driver) recordLength(offset int64) int64 {
	idx := sort.Search(len(d.leafOffsets), func(i int) bool { return d.leafOffsets[i] >= offset })

	if idx+1 < len(d.leafOffsets) {
		return d.leafOffsets[idx+1] - offset
	}

	end := int64(d.header.Features.Offset + d.header.Features.Length) //nolint: gosec

	return end - offset
}
