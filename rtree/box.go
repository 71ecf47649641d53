package rtree

import (
	"encoding/binary"
	"math"
)

// Box is an axis-aligned 2-D minimum bounding rectangle, the MBR type
// from spec.md §3: (min_x, min_y, max_x, max_y), 4×f64.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyBox is the identity element for Expand: expanding it by any box b
// yields b.
var EmptyBox = Box{
	MinX: math.Inf(1), MinY: math.Inf(1),
	MaxX: math.Inf(-1), MaxY: math.Inf(-1),
}

// Intersects reports whether b and o share at least one point.
func (b Box) Intersects(o Box) bool {
	return b.MinX <= o.MaxX && b.MaxX >= o.MinX && b.MinY <= o.MaxY && b.MaxY >= o.MinY
}

// ContainsPoint reports whether (x, y) lies within b, inclusive of its
// edges.
func (b Box) ContainsPoint(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Centroid returns the midpoint of b.
func (b Box) Centroid() (x, y float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}

// Expand grows b in place to the union of b and o.
func (b *Box) Expand(o Box) {
	b.MinX = math.Min(b.MinX, o.MinX)
	b.MinY = math.Min(b.MinY, o.MinY)
	b.MaxX = math.Max(b.MaxX, o.MaxX)
	b.MaxY = math.Max(b.MaxY, o.MaxY)
}

// minDistSq returns the squared minimum Euclidean distance from (x, y) to
// the nearest point of b (zero if (x, y) is inside b). Used to prune
// subtrees during Nearest.
func (b Box) minDistSq(x, y float64) float64 {
	dx := 0.0
	if x < b.MinX {
		dx = b.MinX - x
	} else if x > b.MaxX {
		dx = x - b.MaxX
	}

	dy := 0.0
	if y < b.MinY {
		dy = b.MinY - y
	} else if y > b.MaxY {
		dy = y - b.MaxY
	}

	return dx*dx + dy*dy
}

const boxWidth = 32

func (b Box) encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(b.MinX))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(b.MinY))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(b.MaxX))
	binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(b.MaxY))
}

func decodeBox(buf []byte) Box {
	return Box{
		MinX: math.Float64frombits(binary.LittleEndian.Uint64(buf[0:])),
		MinY: math.Float64frombits(binary.LittleEndian.Uint64(buf[8:])),
		MaxX: math.Float64frombits(binary.LittleEndian.Uint64(buf[16:])),
		MaxY: math.Float64frombits(binary.LittleEndian.Uint64(buf[24:])),
	}
}
