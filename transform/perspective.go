// Package transform maps between module space and image space.
package transform

import qrscan "github.com/ericlevine/qrscan"

// PerspectiveTransform is a planar homography. Points are row vectors:
// [x' y' w] = [x y 1] * m.
type PerspectiveTransform struct {
	m [3][3]float64
}

// Quad is four points in the order that corresponds to the unit square
// corners (0,0), (1,0), (1,1), (0,1).
type Quad [4]qrscan.ResultPoint

// SquareToQuad returns the transform taking the unit square onto q.
func SquareToQuad(q Quad) *PerspectiveTransform {
	x0, y0 := q[0].X, q[0].Y
	x1, y1 := q[1].X, q[1].Y
	x2, y2 := q[2].X, q[2].Y
	x3, y3 := q[3].X, q[3].Y
	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		return &PerspectiveTransform{m: [3][3]float64{
			{x1 - x0, y1 - y0, 0},
			{x2 - x1, y2 - y1, 0},
			{x0, y0, 1},
		}}
	}
	dx1, dx2 := x1-x2, x3-x2
	dy1, dy2 := y1-y2, y3-y2
	den := dx1*dy2 - dx2*dy1
	g := (dx3*dy2 - dx2*dy3) / den
	h := (dx1*dy3 - dx3*dy1) / den
	return &PerspectiveTransform{m: [3][3]float64{
		{x1 - x0 + g*x1, y1 - y0 + g*y1, g},
		{x3 - x0 + h*x3, y3 - y0 + h*y3, h},
		{x0, y0, 1},
	}}
}

// QuadToSquare returns the transform taking q onto the unit square.
func QuadToSquare(q Quad) *PerspectiveTransform {
	return SquareToQuad(q).Adjugate()
}

// QuadToQuad returns the transform taking from onto to.
func QuadToQuad(from, to Quad) *PerspectiveTransform {
	return SquareToQuad(to).Times(QuadToSquare(from))
}

// Adjugate returns the adjugate matrix, which is the inverse transform up to
// scale.
func (t *PerspectiveTransform) Adjugate() *PerspectiveTransform {
	var r PerspectiveTransform
	m := &t.m
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			i1, i2 := (i+1)%3, (i+2)%3
			j1, j2 := (j+1)%3, (j+2)%3
			r.m[i][j] = m[j1][i1]*m[j2][i2] - m[j1][i2]*m[j2][i1]
		}
	}
	return &r
}

// Times returns the transform that applies other first and then t.
func (t *PerspectiveTransform) Times(other *PerspectiveTransform) *PerspectiveTransform {
	var r PerspectiveTransform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r.m[i][j] += other.m[i][k] * t.m[k][j]
			}
		}
	}
	return &r
}

// Apply maps a single point.
func (t *PerspectiveTransform) Apply(p qrscan.ResultPoint) qrscan.ResultPoint {
	x, y := t.apply(p.X, p.Y)
	return qrscan.ResultPoint{X: x, Y: y}
}

func (t *PerspectiveTransform) apply(x, y float64) (float64, float64) {
	m := &t.m
	w := m[0][2]*x + m[1][2]*y + m[2][2]
	return (m[0][0]*x + m[1][0]*y + m[2][0]) / w, (m[0][1]*x + m[1][1]*y + m[2][1]) / w
}

// TransformPoints maps interleaved x, y pairs in place.
func (t *PerspectiveTransform) TransformPoints(points []float64) {
	for i := 0; i+1 < len(points); i += 2 {
		points[i], points[i+1] = t.apply(points[i], points[i+1])
	}
}
