// Package cityjsonseq adapts between textual CityJSONSeq (newline-delimited
// CityJSON feature streams, CityJSON's own established streaming
// convention) and the feature.Input/feature.Record wire shape the core
// codec defines. It is a collaborator of the core, not part of it: nothing
// in container, feature, rtree, sptree, multiindex, rangereader, or query
// imports this package.
//
// A CityJSONSeq stream is one header line (a CityJSON object with no
// "CityObjects", carrying version/transform/metadata/extensions) followed
// by one line per CityJSONFeature. This package reads/writes that line
// shape with github.com/json-iterator/go, a drop-in, allocation-lighter
// replacement for encoding/json used elsewhere in the example pack for
// structured line-oriented JSON.
//
// Scope cuts (documented, not silent): a CityJSONFeature's CityObjects map
// may contain a root object plus children (e.g. a Building with
// BuildingParts); this adapter carries only the root object named by the
// line's own "id" into one feature.Record — children are not flattened
// into additional records. A CityObject's "geometry" array may list
// several LOD representations; only geometry[0] is carried. Appearance
// (materials/textures) and geometry-template header blocks are not
// converted; the underlying citygeom/feature codecs support them at the
// byte level, but wiring the CityJSON-side material/texture/template
// tables was out of scope for this adapter.
package cityjsonseq

import (
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary
