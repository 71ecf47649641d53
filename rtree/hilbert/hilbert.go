// Package hilbert computes 2-D Hilbert curve indices used to order
// feature centroids before building the packed R-tree (spec.md §4.3):
// sorting features by Hilbert value keeps spatially nearby features
// nearby in the feature section, so a bbox query touches few, contiguous
// byte ranges.
package hilbert

// Order is the number of bits per axis used by Encode. 16 bits per axis
// (a 32-bit interleaved index) comfortably resolves a rescaled dataset
// extent without needing more than a uint32 per axis.
const Order = 16

// Encode returns the Hilbert curve distance of the cell (x, y) on a
// 2^Order x 2^Order grid, using the classic bit-rotation construction.
func Encode(x, y uint32) uint64 {
	var rx, ry uint32
	var d uint64

	for s := uint32(1) << (Order - 1); s > 0; s >>= 1 {
		if x&s > 0 {
			rx = 1
		} else {
			rx = 0
		}

		if y&s > 0 {
			ry = 1
		} else {
			ry = 0
		}

		d += uint64(s) * uint64(s) * uint64((3*rx)^ry)
		x, y = rotate(s, x, y, rx, ry)
	}

	return d
}

func rotate(s, x, y, rx, ry uint32) (uint32, uint32) {
	if ry != 0 {
		return x, y
	}

	if rx == 1 {
		x = s - 1 - x
		y = s - 1 - y
	}

	return y, x
}

// Rescale maps a coordinate v within [lo, hi] onto a grid cell index in
// [0, 2^Order). Values outside [lo, hi] are clamped. A degenerate extent
// (hi == lo) always maps to 0.
func Rescale(v, lo, hi float64) uint32 {
	if hi <= lo {
		return 0
	}

	const maxCoord = (uint32(1) << Order) - 1

	if v <= lo {
		return 0
	}

	if v >= hi {
		return maxCoord
	}

	frac := (v - lo) / (hi - lo)

	return uint32(frac * float64(maxCoord))
}

// CentroidOf returns a Hilbert value for the 2-D centroid (cx, cy) of a
// feature, rescaled against the dataset extent [minX, minY, maxX, maxY].
func CentroidOf(cx, cy, minX, minY, maxX, maxY float64) uint64 {
	return Encode(Rescale(cx, minX, maxX), Rescale(cy, minY, maxY))
}
