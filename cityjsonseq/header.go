package cityjsonseq

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/cityjson/flatcitybuf/container"
)

// Transform is CityJSON's "transform" object: the scale/translate applied
// to each feature line's integer-coded local vertices to recover real-world
// coordinates. cityjsonseq always round-trips vertices through a Transform;
// a stream with no "transform" key gets the identity (scale 1, translate 0).
type Transform struct {
	Scale     [3]float64 `json:"scale"`
	Translate [3]float64 `json:"translate"`
}

// IdentityTransform is used when a stream declares no transform, or when
// writing a stream of already-real-valued vertices without rescaling.
var IdentityTransform = Transform{Scale: [3]float64{1, 1, 1}}

// ToReal converts one integer-coded local vertex to real-world coordinates.
func (t Transform) ToReal(v [3]int64) [3]float64 {
	return [3]float64{
		float64(v[0])*t.Scale[0] + t.Translate[0],
		float64(v[1])*t.Scale[1] + t.Translate[1],
		float64(v[2])*t.Scale[2] + t.Translate[2],
	}
}

// ToLocal is ToReal's inverse, rounding to the nearest representable
// integer under this transform's scale.
func (t Transform) ToLocal(v [3]float64) [3]int64 {
	return [3]int64{
		roundDiv(v[0]-t.Translate[0], t.Scale[0]),
		roundDiv(v[1]-t.Translate[1], t.Scale[1]),
		roundDiv(v[2]-t.Translate[2], t.Scale[2]),
	}
}

// ToContainerTransform converts a stream's Transform to the container
// package's own Transform type, so it can be carried into a container's
// Header (spec.md §3.1) instead of being dropped on the way to fcb.Create.
func (t Transform) ToContainerTransform() container.Transform {
	return container.Transform{Scale: t.Scale, Translate: t.Translate}
}

// TransformFromContainer is ToContainerTransform's inverse, used when
// reconstructing a stream header from a container's own Header.
func TransformFromContainer(t container.Transform) Transform {
	return Transform{Scale: t.Scale, Translate: t.Translate}
}

func roundDiv(num, den float64) int64 {
	if den == 0 {
		den = 1
	}

	q := num / den
	if q >= 0 {
		return int64(q + 0.5)
	}

	return int64(q - 0.5)
}

// Header is the textual shape of a CityJSONSeq stream's first line: a
// CityJSON object carrying every file-global field except the feature
// list itself (which in CityJSONSeq lives in the following lines, not in
// a "CityObjects" key on this object).
type Header struct {
	Type               string          `json:"type"`
	Version            string          `json:"version"`
	Transform          Transform       `json:"transform"`
	Metadata           json.RawMessage `json:"metadata,omitempty"`
	GeographicalExtent []float64       `json:"geographicalExtent,omitempty"`
	Extensions         json.RawMessage `json:"extensions,omitempty"`
}

// DefaultVersion is the CityJSON schema version this package writes.
const DefaultVersion = "2.0"

// ReadHeader reads and unmarshals a stream's first line.
func ReadHeader(r *bufio.Reader) (Header, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(err == io.EOF && len(line) > 0) {
		return Header{}, err
	}

	var h Header
	if err := jsonAPI.Unmarshal([]byte(line), &h); err != nil {
		return Header{}, err
	}

	if h.Transform.Scale == ([3]float64{}) {
		h.Transform.Scale = [3]float64{1, 1, 1}
	}

	return h, nil
}

// WriteHeader marshals h as the stream's first line, newline-terminated.
func WriteHeader(w io.Writer, h Header) error {
	if h.Type == "" {
		h.Type = "CityJSON"
	}

	if h.Version == "" {
		h.Version = DefaultVersion
	}

	b, err := jsonAPI.Marshal(h)
	if err != nil {
		return err
	}

	if _, err := w.Write(b); err != nil {
		return err
	}

	_, err = w.Write([]byte{'\n'})

	return err
}
