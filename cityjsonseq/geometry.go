package cityjsonseq

import (
	"github.com/cityjson/flatcitybuf/citygeom"
	"github.com/cityjson/flatcitybuf/feature"
)

func geometryTypeFromString(s string) (citygeom.GeometryType, bool) {
	switch s {
	case "MultiPoint":
		return citygeom.GeometryMultiPoint, true
	case "MultiLineString":
		return citygeom.GeometryMultiLineString, true
	case "MultiSurface":
		return citygeom.GeometryMultiSurface, true
	case "CompositeSurface":
		return citygeom.GeometryCompositeSurface, true
	case "Solid":
		return citygeom.GeometrySolid, true
	case "MultiSolid":
		return citygeom.GeometryMultiSolid, true
	case "CompositeSolid":
		return citygeom.GeometryCompositeSolid, true
	case "GeometryInstance":
		return citygeom.GeometryInstance, true
	default:
		return citygeom.GeometryInvalid, false
	}
}

func geometryTypeToString(t citygeom.GeometryType) string {
	switch t {
	case citygeom.GeometryMultiPoint:
		return "MultiPoint"
	case citygeom.GeometryMultiLineString:
		return "MultiLineString"
	case citygeom.GeometryMultiSurface:
		return "MultiSurface"
	case citygeom.GeometryCompositeSurface:
		return "CompositeSurface"
	case citygeom.GeometrySolid:
		return "Solid"
	case citygeom.GeometryMultiSolid:
		return "MultiSolid"
	case citygeom.GeometryCompositeSolid:
		return "CompositeSolid"
	case citygeom.GeometryInstance:
		return "GeometryInstance"
	default:
		return "Invalid"
	}
}

// semanticSurface is the subset of CityJSON's semantics surface object this
// adapter preserves: its "type" discriminant. Extension attributes on a
// semantic surface (e.g. "slope", "parent"/"children" nesting) are not
// round-tripped.
type semanticSurface struct {
	Type string `json:"type"`
}

type semanticsJSON struct {
	Surfaces []semanticSurface `json:"surfaces"`
	Values   any               `json:"values"`
}

// canonicalSemanticTypes is the fixed, dataset-wide enumeration this
// adapter uses for citygeom.SemanticsArrays.Values, since the container
// format carries only a uint16 ordinal per surface and no per-file type
// dictionary. CityJSON defines a handful of standard surface types for
// building-family geometries; this covers them plus ClosureSurface. A
// type outside this set is folded into WallSurface, the most
// common case, rather than dropped.
var canonicalSemanticTypes = []string{
	"RoofSurface", "GroundSurface", "WallSurface", "ClosureSurface",
	"OuterCeilingSurface", "OuterFloorSurface", "Window", "Door",
}

func semanticTypeOrdinal(name string) uint16 {
	for i, n := range canonicalSemanticTypes {
		if n == name {
			return uint16(i) //nolint: gosec
		}
	}

	return 2 // WallSurface
}

func semanticTypeName(ordinal uint16) string {
	if int(ordinal) < len(canonicalSemanticTypes) {
		return canonicalSemanticTypes[ordinal]
	}

	return "WallSurface"
}

// geometryJSON is the textual shape of one entry in a CityObject's
// "geometry" array, covering both direct boundary geometries and
// GeometryInstance references.
type geometryJSON struct {
	Type                 string          `json:"type"`
	LOD                  string          `json:"lod,omitempty"`
	Boundaries           any             `json:"boundaries,omitempty"`
	Semantics            *semanticsJSON `json:"semantics,omitempty"`
	Template             *int           `json:"template,omitempty"`
	TransformationMatrix []float64      `json:"transformationMatrix,omitempty"`
}

// toGeometry converts g into the feature codec's Geometry shape. anchor is
// the feature-local vertex index CityJSON's GeometryInstance "boundaries"
// array holds (its sole element).
func (g geometryJSON) toGeometry() (feature.Geometry, error) {
	t, ok := geometryTypeFromString(g.Type)
	if !ok {
		return feature.Geometry{}, errBadBoundary
	}

	if t == citygeom.GeometryInstance {
		anchor, err := g.instanceAnchor()
		if err != nil {
			return feature.Geometry{}, err
		}

		if len(g.TransformationMatrix) != 16 {
			return feature.Geometry{}, errBadBoundary
		}

		if g.Template == nil {
			return feature.Geometry{}, errBadBoundary
		}

		var m [16]float64
		copy(m[:], g.TransformationMatrix)

		return feature.Geometry{
			Type:       t,
			IsInstance: true,
			Instance: citygeom.GeometryInstance{
				TemplateIndex: uint32(*g.Template), //nolint: gosec
				AnchorVertex:  anchor,
				Transform:     m,
			},
		}, nil
	}

	b, err := flattenBoundaries(g.Boundaries, t)
	if err != nil {
		return feature.Geometry{}, err
	}

	out := feature.Geometry{Type: t, Boundary: b}

	if g.Semantics != nil {
		localIdx, err := flattenSemanticsValues(g.Semantics.Values, t)
		if err != nil {
			return feature.Geometry{}, err
		}

		values := make([]uint16, len(localIdx))

		for i, li := range localIdx {
			if li == noSemanticValue {
				values[i] = noSemanticValue

				continue
			}

			if int(li) >= len(g.Semantics.Surfaces) {
				return feature.Geometry{}, errBadBoundary
			}

			values[i] = semanticTypeOrdinal(g.Semantics.Surfaces[li].Type)
		}

		out.Semantics = &citygeom.SemanticsArrays{Values: values}
	}

	return out, nil
}

func (g geometryJSON) instanceAnchor() (uint32, error) {
	arr, ok := g.Boundaries.([]any)
	if !ok || len(arr) != 1 {
		return 0, errBadBoundary
	}

	f, ok := arr[0].(float64)
	if !ok {
		return 0, errBadBoundary
	}

	return uint32(f), nil //nolint: gosec
}

// geometryFromFeature is toGeometry's inverse, used when writing CityJSON
// text back out from a decoded feature.Record.
func geometryFromFeature(g feature.Geometry) (geometryJSON, error) {
	out := geometryJSON{Type: geometryTypeToString(g.Type)}

	if g.IsInstance {
		tmpl := int(g.Instance.TemplateIndex)
		out.Template = &tmpl
		out.TransformationMatrix = append([]float64(nil), g.Instance.Transform[:]...)
		out.Boundaries = []any{g.Instance.AnchorVertex}

		return out, nil
	}

	b, err := boundariesToJSON(g.Boundary, g.Type)
	if err != nil {
		return geometryJSON{}, err
	}

	out.Boundaries = b

	if g.Semantics != nil {
		// Surfaces lists every canonical type once, at its own ordinal
		// position, so Values can index it directly without a per-file
		// renumbering pass: ordinal i in g.Semantics.Values always means
		// canonicalSemanticTypes[i].
		names := make([]semanticSurface, len(canonicalSemanticTypes))
		for i, n := range canonicalSemanticTypes {
			names[i] = semanticSurface{Type: n}
		}

		values, err := semanticsValuesToJSON(g.Semantics.Values, g.Boundary, g.Type)
		if err != nil {
			return geometryJSON{}, err
		}

		out.Semantics = &semanticsJSON{Surfaces: names, Values: values}
	}

	return out, nil
}
