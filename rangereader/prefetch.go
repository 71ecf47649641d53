package rangereader

import "sort"

// PayloadRef is one pending payload-chain dereference discovered during
// an sptree traversal: offset/length into the attribute index's payload
// section. Collecting these during traversal and resolving them as one
// batch (spec.md §4.6 responsibilities 4-5) avoids a round trip per
// duplicate-key chain link.
type PayloadRef struct {
	Offset int64
	Length int64
}

// DefaultPayloadPrefetchCap bounds how many distinct payload blocks a
// single query eagerly prefetches, to avoid a pathological query (one
// matching nearly every duplicate chain) from fetching the whole
// payload section.
const DefaultPayloadPrefetchCap = 256

// DefaultPayloadPrefetchMinDupRatio is the minimum observed
// duplicates-per-distinct-key ratio (duplicate chain hits / total
// lookups) below which prefetch is skipped as not worth the extra
// request: a query hitting mostly unique keys gains little from
// prefetching chains it won't walk.
const DefaultPayloadPrefetchMinDupRatio = 0.25

// PrefetchPlanner accumulates PayloadRefs observed during a query and
// decides, once the traversal finishes, which to actually fetch ahead
// of resolution time.
type PrefetchPlanner struct {
	cap        int
	minDupRate float64
	refs       []PayloadRef
	chainHits  int
	lookups    int
}

// NewPrefetchPlanner constructs a planner with the given cap and
// minimum duplicate ratio (0 values fall back to the package defaults).
func NewPrefetchPlanner(cap int, minDupRate float64) *PrefetchPlanner {
	if cap <= 0 {
		cap = DefaultPayloadPrefetchCap
	}

	if minDupRate <= 0 {
		minDupRate = DefaultPayloadPrefetchMinDupRatio
	}

	return &PrefetchPlanner{cap: cap, minDupRate: minDupRate}
}

// Observe records one duplicate-chain dereference encountered during
// traversal (isChain distinguishes a payload-block pointer from a
// direct offset, which needs no prefetch).
func (p *PrefetchPlanner) Observe(ref PayloadRef, isChain bool) {
	p.lookups++

	if isChain {
		p.chainHits++
		p.refs = append(p.refs, ref)
	}
}

// Plan returns the coalesced byte ranges worth prefetching given what
// was observed, or nil if the duplicate ratio didn't clear the
// planner's threshold or there was nothing to fetch.
func (p *PrefetchPlanner) Plan(combineThreshold int64) []ByteRange {
	if p.lookups == 0 || len(p.refs) == 0 {
		return nil
	}

	if float64(p.chainHits)/float64(p.lookups) < p.minDupRate {
		return nil
	}

	refs := p.refs
	if len(refs) > p.cap {
		sort.Slice(refs, func(i, j int) bool { return refs[i].Offset < refs[j].Offset })
		refs = refs[:p.cap]
	}

	ranges := make([]ByteRange, len(refs))
	for i, r := range refs {
		ranges[i] = ByteRange{Start: r.Offset, Length: r.Length}
	}

	return CoalesceRanges(ranges, combineThreshold)
}
