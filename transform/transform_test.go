package transform

import (
	"errors"
	"math"
	"testing"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
)

func closeTo(t *testing.T, got, want qrscan.ResultPoint) {
	t.Helper()
	if math.Abs(got.X-want.X) > 1e-6 || math.Abs(got.Y-want.Y) > 1e-6 {
		t.Errorf("got %v, want %v", got, want)
	}
}

var unitSquare = Quad{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

func TestSquareToQuadMapsCorners(t *testing.T) {
	quads := []Quad{
		{{X: 10, Y: 10}, {X: 60, Y: 10}, {X: 60, Y: 60}, {X: 10, Y: 60}},
		{{X: 12, Y: 5}, {X: 80, Y: 22}, {X: 70, Y: 95}, {X: 3, Y: 70}},
		{{X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}, {X: 0, Y: 0}},
	}
	for _, q := range quads {
		tr := SquareToQuad(q)
		for i := range unitSquare {
			closeTo(t, tr.Apply(unitSquare[i]), q[i])
		}
		inv := QuadToSquare(q)
		for i := range q {
			closeTo(t, inv.Apply(q[i]), unitSquare[i])
		}
	}
}

func TestQuadToQuad(t *testing.T) {
	from := Quad{{X: 3.5, Y: 3.5}, {X: 17.5, Y: 3.5}, {X: 17.5, Y: 17.5}, {X: 3.5, Y: 17.5}}
	to := Quad{{X: 40, Y: 35}, {X: 160, Y: 50}, {X: 150, Y: 170}, {X: 30, Y: 155}}
	tr := QuadToQuad(from, to)
	for i := range from {
		closeTo(t, tr.Apply(from[i]), to[i])
	}
	back := QuadToQuad(to, from)
	mid := tr.Apply(qrscan.ResultPoint{X: 9, Y: 12})
	closeTo(t, back.Apply(mid), qrscan.ResultPoint{X: 9, Y: 12})
}

func TestTransformPointsMatchesApply(t *testing.T) {
	tr := SquareToQuad(Quad{{X: 12, Y: 5}, {X: 80, Y: 22}, {X: 70, Y: 95}, {X: 3, Y: 70}})
	pts := []float64{0.25, 0.5, 0.75, 0.1}
	tr.TransformPoints(pts)
	closeTo(t, qrscan.ResultPoint{X: pts[0], Y: pts[1]}, tr.Apply(qrscan.ResultPoint{X: 0.25, Y: 0.5}))
	closeTo(t, qrscan.ResultPoint{X: pts[2], Y: pts[3]}, tr.Apply(qrscan.ResultPoint{X: 0.75, Y: 0.1}))
}

func TestSampleGrid(t *testing.T) {
	// A 3x3 checkerboard drawn at 4 pixels per module with an offset of 2.
	img := bitutil.NewBitMatrix(16, 16)
	for my := 0; my < 3; my++ {
		for mx := 0; mx < 3; mx++ {
			if (mx+my)%2 == 0 {
				img.SetRegion(2+4*mx, 2+4*my, 4, 4)
			}
		}
	}
	tr := QuadToQuad(
		Quad{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 0, Y: 3}},
		Quad{{X: 2, Y: 2}, {X: 14, Y: 2}, {X: 14, Y: 14}, {X: 2, Y: 14}},
	)
	bits, err := SampleGrid(img, 3, 3, tr)
	if err != nil {
		t.Fatal(err)
	}
	want := bitutil.ParseBitMatrix("#.#\n.#.\n#.#\n", "#")
	if !bits.Equal(want) {
		t.Errorf("sampled\n%s\nwant\n%s", bits, want)
	}
}

func TestSampleGridOutOfBounds(t *testing.T) {
	img := bitutil.NewBitMatrix(10, 10)
	tr := QuadToQuad(
		Quad{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 0, Y: 3}},
		Quad{{X: 5, Y: 5}, {X: 35, Y: 5}, {X: 35, Y: 35}, {X: 5, Y: 35}},
	)
	_, err := SampleGrid(img, 3, 3, tr)
	if !errors.Is(err, qrscan.ErrModuleSamplingOutOfBounds) {
		t.Errorf("err = %v, want ErrModuleSamplingOutOfBounds", err)
	}
}

func TestSampleGridNudgesEdgePoints(t *testing.T) {
	img := bitutil.NewBitMatrix(10, 10)
	img.SetRegion(9, 0, 1, 10)
	// Module centers land at x = 2.5, 6.5 and 10.5; the last is one pixel
	// past the edge and is pulled back to column 9.
	tr := QuadToQuad(
		Quad{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 1}, {X: 0, Y: 1}},
		Quad{{X: 0.5, Y: 0}, {X: 12.5, Y: 0}, {X: 12.5, Y: 4}, {X: 0.5, Y: 4}},
	)
	bits, err := SampleGrid(img, 3, 1, tr)
	if err != nil {
		t.Fatal(err)
	}
	if bits.Get(0, 0) || bits.Get(1, 0) || !bits.Get(2, 0) {
		t.Errorf("sampled %s", bits)
	}
}
