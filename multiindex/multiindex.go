// Package multiindex implements the query planner of spec.md §4.5: given
// a query over zero or more attribute predicates plus an optional
// spatial predicate, it evaluates the combination against the relevant
// sptree/rtree indexes and yields matching feature offsets ascending.
package multiindex

import (
	"context"
	"iter"
	"sort"

	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/format"
	"github.com/cityjson/flatcitybuf/keycodec"
	"github.com/cityjson/flatcitybuf/rtree"
	"github.com/cityjson/flatcitybuf/sptree"
)

// Predicate is one attribute comparison: column OP value, where value is
// already encoded via keycodec for column's declared type. ColumnType
// names the key's declared type so NaN-valued float keys can be
// recognized and excluded (spec.md §8.2); it may be left at its zero
// value for non-float columns, where no such check applies.
type Predicate struct {
	Column     string
	ColumnType format.ColumnType
	Op         sptree.CmpOp
	IsEq       bool
	Key        []byte // for IsEq and the comparison ops
	KeyHi      []byte // when set, the predicate is the closed range [Key, KeyHi] and Op is ignored
}

// Spatial selects the geometric predicate: at most one of BBox/Point/K
// is active at a time.
type Spatial struct {
	BBox     *rtree.Box
	PointX   float64
	PointY   float64
	HasPoint bool
	Nearest  int // k, if > 0
	NearestX float64
	NearestY float64
}

// Query is the caller-supplied request: a spatial predicate and a list
// of attribute predicates, implicitly AND-ed together (spec.md §4.5's
// composition rule — OR and NOT are expressed by the caller issuing
// multiple Evaluate calls and combining offset sets itself, since the
// wire format indexes exactly one predicate per S+Tree).
type Query struct {
	Spatial    *Spatial
	Predicates []Predicate
}

// Index wraps the named S+Trees and the single R-tree built for one
// container, and plans/evaluates Query values against them.
type Index struct {
	trees       map[string]*sptree.Tree
	spatial     *rtree.Tree
	selectivity SelectivityFunc
}

// SelectivityFunc estimates how many feature offsets a predicate will
// match, used to decide which predicate to evaluate first (spec.md §4.5:
// plan the cheapest/most-selective filter first, intersect the rest).
// Implementations need not be exact — only comparatively ordered.
type SelectivityFunc func(idx *Index, p Predicate) int

// DefaultSelectivity is a coarse estimator: equality predicates are
// assumed most selective, range/comparison predicates next, with no
// per-column statistics consulted (spec §9's open question on
// selectivity is left swappable — see DESIGN.md).
func DefaultSelectivity(idx *Index, p Predicate) int {
	if p.IsEq {
		return 1
	}

	return 1000
}

// New wraps a set of named attribute indexes and an optional spatial
// index. selectivity may be nil to use DefaultSelectivity.
func New(trees map[string]*sptree.Tree, spatial *rtree.Tree, selectivity SelectivityFunc) *Index {
	if selectivity == nil {
		selectivity = DefaultSelectivity
	}

	return &Index{trees: trees, spatial: spatial, selectivity: selectivity}
}

// Evaluate runs q against the index, returning feature offsets ascending
// (spec.md §4.5's ordering guarantee, needed so the query driver can
// issue contiguous, batched reads against the feature section).
func (idx *Index) Evaluate(ctx context.Context, q Query) (iter.Seq[int64], error) {
	sets, err := idx.candidateSets(q)
	if err != nil {
		return nil, err
	}

	result := intersectAll(sets)

	return func(yield func(int64) bool) {
		for _, off := range result {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if !yield(off) {
				return
			}
		}
	}, nil
}

func (idx *Index) candidateSets(q Query) ([][]int64, error) {
	var sets [][]int64

	if q.Spatial != nil {
		offs, err := idx.evalSpatial(*q.Spatial)
		if err != nil {
			return nil, err
		}

		sets = append(sets, offs)
	}

	ordered := make([]Predicate, len(q.Predicates))
	copy(ordered, q.Predicates)
	sort.Slice(ordered, func(i, j int) bool {
		return idx.selectivity(idx, ordered[i]) < idx.selectivity(idx, ordered[j])
	})

	for _, p := range ordered {
		offs, err := idx.evalPredicate(p)
		if err != nil {
			return nil, err
		}

		sets = append(sets, offs)
	}

	return sets, nil
}

func (idx *Index) evalSpatial(s Spatial) ([]int64, error) {
	if idx.spatial == nil {
		return nil, errs.NewQueryError("", errs.ErrUnknownColumn)
	}

	switch {
	case s.BBox != nil:
		out := idx.spatial.BBox(*s.BBox)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

		return out, nil
	case s.HasPoint:
		out := idx.spatial.Point(s.PointX, s.PointY)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

		return out, nil
	case s.Nearest > 0:
		neighbors := idx.spatial.Nearest(s.NearestX, s.NearestY, s.Nearest)
		out := make([]int64, len(neighbors))

		for i, n := range neighbors {
			out[i] = n.Offset
		}
		// Nearest is already best-first; callers that also AND it with
		// attribute predicates get the intersection re-sorted ascending
		// by intersectAll, so ranking is only meaningful when Nearest is
		// the sole predicate.
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

		return out, nil
	default:
		return nil, nil
	}
}

func (idx *Index) evalPredicate(p Predicate) ([]int64, error) {
	tree, ok := idx.trees[p.Column]
	if !ok {
		return nil, errs.NewQueryError(p.Column, errs.ErrUnknownColumn)
	}

	// find_eq(NaN) is defined to return no offsets regardless of what, if
	// anything, is actually stored at that byte pattern (spec.md §8.2).
	if p.IsEq && keycodec.IsNaNKey(p.Key, p.ColumnType) {
		return nil, nil
	}

	var (
		offs []int64
		err  error
	)

	switch {
	case p.IsEq:
		offs, err = tree.FindEq(p.Key)
	case p.KeyHi != nil:
		offs, err = tree.FindRange(p.Key, p.KeyHi)
	default:
		offs, err = tree.FindCmp(p.Op, p.Key)
	}

	if err != nil {
		return nil, errs.NewQueryError(p.Column, err)
	}

	// A NaN-encoded key sorts after every real value (keycodec.EncodeFloat64),
	// so an open-ended comparison like CmpGreaterOrEqual naturally sweeps up
	// to and including any NaN-keyed entry at the tail of the leaf layer.
	// Explicitly drop those offsets rather than let them leak through: NaN
	// is excluded from every range/comparison query, not just equality.
	if !p.IsEq {
		if nanKey := keycodec.NaNKeyFor(p.ColumnType); nanKey != nil {
			nanOffs, err := tree.FindEq(nanKey)
			if err == nil && len(nanOffs) > 0 {
				offs = excludeOffsets(offs, nanOffs)
			}
		}
	}

	sort.Slice(offs, func(i, j int) bool { return offs[i] < offs[j] })

	return offs, nil
}

// excludeOffsets returns the elements of offs not present in drop.
func excludeOffsets(offs, drop []int64) []int64 {
	if len(drop) == 0 {
		return offs
	}

	skip := make(map[int64]struct{}, len(drop))
	for _, d := range drop {
		skip[d] = struct{}{}
	}

	out := offs[:0]

	for _, o := range offs {
		if _, ok := skip[o]; ok {
			continue
		}

		out = append(out, o)
	}

	return out
}

// intersectAll returns the sorted intersection of every set in sets. An
// empty sets list (a query with no predicates at all) has no defined
// universe here and returns nil — callers should special-case "no
// predicates" as "scan the whole feature section" before calling
// Evaluate.
func intersectAll(sets [][]int64) []int64 {
	if len(sets) == 0 {
		return nil
	}

	cur := sets[0]
	for _, s := range sets[1:] {
		cur = intersectTwo(cur, s)
		if len(cur) == 0 {
			return cur
		}
	}

	return cur
}

func intersectTwo(a, b []int64) []int64 {
	var out []int64

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}

	return out
}
