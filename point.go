package qrscan

import "math"

// ResultPoint is a location in image coordinates: x grows to the right and y
// grows downward.
type ResultPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the distance between two points.
func Distance(a, b ResultPoint) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// CrossProductZ computes the z component of the cross product between vectors
// (b-a) and (c-a).
func CrossProductZ(a, b, c ResultPoint) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// OrderBestPatterns orders three finder centers as top-left, top-right and
// bottom-left of the symbol. Top-left is the vertex opposite the longest
// side. With y pointing down, walking top-left -> top-right -> bottom-left is
// clockwise on screen, so the cross product must be non-negative; otherwise
// the other two points are swapped.
func OrderBestPatterns(patterns [3]ResultPoint) (topLeft, topRight, bottomLeft ResultPoint) {
	d01 := Distance(patterns[0], patterns[1])
	d12 := Distance(patterns[1], patterns[2])
	d02 := Distance(patterns[0], patterns[2])

	var a, b, c ResultPoint
	switch {
	case d12 >= d01 && d12 >= d02:
		a, b, c = patterns[0], patterns[1], patterns[2]
	case d02 >= d01 && d02 >= d12:
		a, b, c = patterns[1], patterns[0], patterns[2]
	default:
		a, b, c = patterns[2], patterns[0], patterns[1]
	}
	if CrossProductZ(a, b, c) < 0 {
		b, c = c, b
	}
	return a, b, c
}
