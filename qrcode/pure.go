package qrcode

import (
	"fmt"
	"math"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
)

type pureSymbol struct {
	bits    *bitutil.BitMatrix
	corners [4]qrscan.ResultPoint
}

func notPure(format string, args ...interface{}) error {
	return fmt.Errorf("%w: not a pure symbol: "+format, append([]interface{}{qrscan.ErrFinderPatternNotFound}, args...)...)
}

// extractPureBits reads a symbol from an image that holds nothing but the
// unrotated, unskewed symbol and a white border.
func extractPureBits(image *bitutil.BitMatrix) (*pureSymbol, error) {
	left, top, ok := image.TopLeftOnBit()
	if !ok {
		return nil, notPure("blank image")
	}
	right, bottom, _ := image.BottomRightOnBit()

	moduleSize, err := moduleSizePure(image, left, top)
	if err != nil {
		return nil, err
	}
	if left >= right || top >= bottom {
		return nil, notPure("empty extent")
	}
	if bottom-top != right-left {
		// Assume a square symbol and trust the vertical extent.
		right = left + (bottom - top)
		if right >= image.Width() {
			return nil, notPure("symbol wider than image")
		}
	}

	dimension := int(math.Round(float64(right-left+1) / moduleSize))
	if dimension <= 0 || dimension != int(math.Round(float64(bottom-top+1)/moduleSize)) {
		return nil, notPure("extent %dx%d at module size %.2f", right-left+1, bottom-top+1, moduleSize)
	}
	corners := [4]qrscan.ResultPoint{
		{X: float64(left), Y: float64(top)},
		{X: float64(right + 1), Y: float64(top)},
		{X: float64(right + 1), Y: float64(bottom + 1)},
		{X: float64(left), Y: float64(bottom + 1)},
	}

	// Sample module centers, pulling back if rounding pushes the last
	// module past the extent.
	nudge := int(moduleSize / 2.0)
	top += nudge
	left += nudge
	if over := left + int(float64(dimension-1)*moduleSize) - right; over > 0 {
		if over > nudge {
			return nil, notPure("module grid overruns by %d pixels", over)
		}
		left -= over
	}
	if over := top + int(float64(dimension-1)*moduleSize) - bottom; over > 0 {
		if over > nudge {
			return nil, notPure("module grid overruns by %d pixels", over)
		}
		top -= over
	}

	bits := bitutil.NewSquareBitMatrix(dimension)
	for y := 0; y < dimension; y++ {
		py := top + int(float64(y)*moduleSize)
		for x := 0; x < dimension; x++ {
			if image.Get(left+int(float64(x)*moduleSize), py) {
				bits.Set(x, y)
			}
		}
	}
	return &pureSymbol{bits: bits, corners: corners}, nil
}

// moduleSizePure walks the diagonal of the top-left finder pattern, which
// crosses five color changes over seven modules.
func moduleSizePure(image *bitutil.BitMatrix, left, top int) (float64, error) {
	width, height := image.Width(), image.Height()
	x, y := left, top
	inBlack := true
	transitions := 0
	for x < width && y < height {
		if inBlack != image.Get(x, y) {
			transitions++
			if transitions == 5 {
				break
			}
			inBlack = !inBlack
		}
		x++
		y++
	}
	if x == width || y == height {
		return 0, notPure("finder diagonal runs off the image")
	}
	return float64(x-left) / 7.0, nil
}
