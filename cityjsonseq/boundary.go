package cityjsonseq

import (
	"errors"

	"github.com/cityjson/flatcitybuf/citygeom"
)

var errBadBoundary = errors.New("cityjsonseq: malformed geometry boundary")

// boundaryDepth returns the nesting depth of a CityJSON "boundaries" array
// for geometry type t: the number of array levels down to and including
// the innermost list of plain vertex-index numbers (a MultiLineString, a
// list of index lists, has depth 2). MultiPoint is handled separately by
// the caller and, like any type without a boundary array, is rejected
// here; the other types nest as rings, surfaces-of-rings, optionally
// wrapped in shells and solids.
func boundaryDepth(t citygeom.GeometryType) (int, error) {
	switch t {
	case citygeom.GeometryMultiLineString:
		return 2, nil
	case citygeom.GeometryMultiSurface, citygeom.GeometryCompositeSurface:
		return 3, nil
	case citygeom.GeometrySolid:
		return 4, nil
	case citygeom.GeometryMultiSolid, citygeom.GeometryCompositeSolid:
		return 5, nil
	default:
		return 0, errBadBoundary
	}
}

// flattenBoundaries converts a decoded-JSON "boundaries" value (nested
// []any bottoming out in float64 vertex indices) into the flat
// count-array form citygeom.BoundaryArrays stores, per spec.md §4.2: each
// level holds the number of next-level groups its element owns, and the
// outermost level of the JSON tree contributes no count of its own (there
// is nothing above it to group multiple geometries for one feature).
func flattenBoundaries(raw any, t citygeom.GeometryType) (citygeom.BoundaryArrays, error) {
	if t == citygeom.GeometryMultiPoint {
		top, ok := raw.([]any)
		if !ok {
			return citygeom.BoundaryArrays{}, errBadBoundary
		}

		idx, err := toUint32Slice(top)
		if err != nil {
			return citygeom.BoundaryArrays{}, err
		}

		return citygeom.BoundaryArrays{Boundaries: idx}, nil
	}

	depth, err := boundaryDepth(t)
	if err != nil {
		return citygeom.BoundaryArrays{}, err
	}

	top, ok := raw.([]any)
	if !ok {
		return citygeom.BoundaryArrays{}, errBadBoundary
	}

	var b citygeom.BoundaryArrays

	var walk func(node []any, d int) (uint32, error)
	walk = func(node []any, d int) (uint32, error) {
		if d == 0 {
			idx, err := toUint32Slice(node)
			if err != nil {
				return 0, err
			}

			b.Boundaries = append(b.Boundaries, idx...)
			b.Strings = append(b.Strings, uint32(len(idx))) //nolint: gosec

			return uint32(len(idx)), nil //nolint: gosec
		}

		for _, c := range node {
			child, ok := c.([]any)
			if !ok {
				return 0, errBadBoundary
			}

			cnt, err := walk(child, d-1)
			if err != nil {
				return 0, err
			}

			switch d - 1 {
			case 1:
				b.Surfaces = append(b.Surfaces, cnt)
			case 2:
				b.Shells = append(b.Shells, cnt)
			case 3:
				b.Solids = append(b.Solids, cnt)
			}
		}

		return uint32(len(node)), nil //nolint: gosec
	}

	if _, err := walk(top, depth-1); err != nil {
		return citygeom.BoundaryArrays{}, err
	}

	return b, nil
}

func toUint32Slice(raw []any) ([]uint32, error) {
	out := make([]uint32, len(raw))

	for i, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil, errBadBoundary
		}

		out[i] = uint32(f) //nolint: gosec
	}

	return out, nil
}

// boundariesToJSON is flattenBoundaries's inverse, reconstructing the
// nested []any tree jsoniter writes back out as a CityJSON "boundaries"
// array.
func boundariesToJSON(b citygeom.BoundaryArrays, t citygeom.GeometryType) (any, error) {
	if t == citygeom.GeometryMultiPoint {
		return uint32SliceToJSON(b.Boundaries), nil
	}

	switch t {
	case citygeom.GeometryMultiLineString:
		out := make([]any, len(b.Strings))
		for i := range b.Strings {
			out[i] = ringJSON(&b, i)
		}

		return out, nil
	case citygeom.GeometryMultiSurface, citygeom.GeometryCompositeSurface:
		out := make([]any, len(b.Surfaces))
		for i := range b.Surfaces {
			out[i] = surfaceJSON(&b, i)
		}

		return out, nil
	case citygeom.GeometrySolid:
		out := make([]any, len(b.Shells))
		for i := range b.Shells {
			out[i] = shellJSON(&b, i)
		}

		return out, nil
	case citygeom.GeometryMultiSolid, citygeom.GeometryCompositeSolid:
		out := make([]any, len(b.Solids))
		for i := range b.Solids {
			out[i] = solidJSON(&b, i)
		}

		return out, nil
	default:
		return nil, errBadBoundary
	}
}

func uint32SliceToJSON(s []uint32) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}

	return out
}

func ringJSON(b *citygeom.BoundaryArrays, stringIdx int) []any {
	return uint32SliceToJSON(b.Ring(stringIdx))
}

func surfaceJSON(b *citygeom.BoundaryArrays, surfaceIdx int) []any {
	start, end := b.StringRange(surfaceIdx)
	out := make([]any, 0, end-start)

	for i := start; i < end; i++ {
		out = append(out, ringJSON(b, i))
	}

	return out
}

func shellJSON(b *citygeom.BoundaryArrays, shellIdx int) []any {
	start, end := b.SurfaceRange(shellIdx)
	out := make([]any, 0, end-start)

	for i := start; i < end; i++ {
		out = append(out, surfaceJSON(b, i))
	}

	return out
}

func solidJSON(b *citygeom.BoundaryArrays, solidIdx int) []any {
	start, end := b.ShellRange(solidIdx)
	out := make([]any, 0, end-start)

	for i := start; i < end; i++ {
		out = append(out, shellJSON(b, i))
	}

	return out
}

// semanticsWalkDepth mirrors boundaryDepth, two levels shallower: CityJSON
// semantics "values" arrays nest down to the surface level, never down to
// individual ring vertices.
func semanticsWalkDepth(t citygeom.GeometryType) (int, error) {
	depth, err := boundaryDepth(t)
	if err != nil {
		return 0, err
	}

	return depth - 2, nil
}

// noSemanticValue marks a surface with no semantic assignment (CityJSON
// "null" in the values tree).
const noSemanticValue = 0xFFFF

func flattenSemanticsValues(raw any, t citygeom.GeometryType) ([]uint16, error) {
	depth, err := semanticsWalkDepth(t)
	if err != nil {
		return nil, err
	}

	var out []uint16

	var walk func(node any, d int) error
	walk = func(node any, d int) error {
		if d == 0 {
			if node == nil {
				out = append(out, noSemanticValue)

				return nil
			}

			f, ok := node.(float64)
			if !ok {
				return errBadBoundary
			}

			out = append(out, uint16(f)) //nolint: gosec

			return nil
		}

		arr, ok := node.([]any)
		if !ok {
			return errBadBoundary
		}

		for _, c := range arr {
			if err := walk(c, d-1); err != nil {
				return err
			}
		}

		return nil
	}

	if err := walk(raw, depth); err != nil {
		return nil, err
	}

	return out, nil
}

// semanticsValuesToJSON rebuilds the nested values tree from a flat
// per-surface Values slice, shaped the same way boundariesToJSON shapes
// the boundaries tree (one surface index consumed per leaf).
func semanticsValuesToJSON(values []uint16, b citygeom.BoundaryArrays, t citygeom.GeometryType) (any, error) {
	depth, err := semanticsWalkDepth(t)
	if err != nil {
		return nil, err
	}

	next := 0

	leaf := func() any {
		v := values[next]
		next++

		if v == noSemanticValue {
			return nil
		}

		return v
	}

	switch depth {
	case 1:
		out := make([]any, len(b.Surfaces))
		for i := range out {
			out[i] = leaf()
		}

		return out, nil
	case 2:
		out := make([]any, len(b.Shells))

		for i := range b.Shells {
			start, end := b.SurfaceRange(i)
			row := make([]any, 0, end-start)

			for range end - start {
				row = append(row, leaf())
			}

			out[i] = row
		}

		return out, nil
	case 3:
		out := make([]any, len(b.Solids))

		for i := range b.Solids {
			shellStart, shellEnd := b.ShellRange(i)
			solidRow := make([]any, 0, shellEnd-shellStart)

			for shellIdx := shellStart; shellIdx < shellEnd; shellIdx++ {
				start, end := b.SurfaceRange(shellIdx)
				row := make([]any, 0, end-start)

				for range end - start {
					row = append(row, leaf())
				}

				solidRow = append(solidRow, row)
			}

			out[i] = solidRow
		}

		return out, nil
	default:
		return nil, errBadBoundary
	}
}
