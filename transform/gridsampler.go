package transform

import (
	"fmt"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
)

// SampleGrid reads a dimensionX by dimensionY module grid from image. The
// transform maps module space, where module (x, y) covers [x, x+1) by
// [y, y+1), to image pixels; each module takes the pixel under its center.
func SampleGrid(image *bitutil.BitMatrix, dimensionX, dimensionY int, t *PerspectiveTransform) (*bitutil.BitMatrix, error) {
	if dimensionX <= 0 || dimensionY <= 0 {
		return nil, fmt.Errorf("%w: empty %dx%d grid", qrscan.ErrModuleSamplingOutOfBounds, dimensionX, dimensionY)
	}
	bits := bitutil.NewBitMatrix(dimensionX, dimensionY)
	points := make([]float64, 2*dimensionX)
	for y := 0; y < dimensionY; y++ {
		cy := float64(y) + 0.5
		for x := 0; x < dimensionX; x++ {
			points[2*x] = float64(x) + 0.5
			points[2*x+1] = cy
		}
		t.TransformPoints(points)
		if err := nudgePoints(image, points); err != nil {
			return nil, fmt.Errorf("row %d: %w", y, err)
		}
		for x := 0; x < dimensionX; x++ {
			px, py := int(points[2*x]), int(points[2*x+1])
			if px < 0 || px >= image.Width() || py < 0 || py >= image.Height() {
				return nil, fmt.Errorf("%w: module (%d,%d) at (%d,%d)", qrscan.ErrModuleSamplingOutOfBounds, x, y, px, py)
			}
			if image.Get(px, py) {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}

// nudgePoints pulls points lying exactly one pixel outside the image back
// onto its edge, scanning in from each end of the row until a point needs no
// change.
func nudgePoints(image *bitutil.BitMatrix, points []float64) error {
	n := len(points) / 2
	for i := 0; i < n; i++ {
		moved, err := nudge(image, points, i)
		if err != nil {
			return err
		}
		if !moved {
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		moved, err := nudge(image, points, i)
		if err != nil {
			return err
		}
		if !moved {
			break
		}
	}
	return nil
}

func nudge(image *bitutil.BitMatrix, points []float64, i int) (bool, error) {
	w, h := image.Width(), image.Height()
	x, y := int(points[2*i]), int(points[2*i+1])
	if x < -1 || x > w || y < -1 || y > h {
		return false, fmt.Errorf("%w: point (%.1f,%.1f) outside %dx%d image",
			qrscan.ErrModuleSamplingOutOfBounds, points[2*i], points[2*i+1], w, h)
	}
	moved := false
	switch x {
	case -1:
		points[2*i], moved = 0, true
	case w:
		points[2*i], moved = float64(w-1), true
	}
	switch y {
	case -1:
		points[2*i+1], moved = 0, true
	case h:
		points[2*i+1], moved = float64(h-1), true
	}
	return moved, nil
}
