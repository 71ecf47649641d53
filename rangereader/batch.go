package rangereader

import "sort"

// DefaultCombineThreshold is the default gap, in bytes, below which two
// adjacent ranges are coalesced into a single request (spec.md §8.3
// scenario 5: 3 leaf reads spanning a gap under threshold collapse to 2
// requests).
const DefaultCombineThreshold = 4096

// CoalesceRanges merges ranges whose gap to the next range (after
// sorting by Start) is <= threshold into a single spanning range, so
// the caller issues one Source.ReadAt covering both instead of two
// separate round trips. Input ranges need not be sorted or
// non-overlapping; the result is sorted ascending by Start and contains
// no overlapping or adjacent-within-threshold ranges.
func CoalesceRanges(ranges []ByteRange, threshold int64) []ByteRange {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]ByteRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := []ByteRange{sorted[0]}

	for _, r := range sorted[1:] {
		last := &out[len(out)-1]

		gap := r.Start - last.End()
		if gap <= threshold {
			if end := r.End(); end > last.End() {
				last.Length = end - last.Start
			}

			continue
		}

		out = append(out, r)
	}

	return out
}
