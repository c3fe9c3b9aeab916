// Package binarizer converts luminance data to black and white.
package binarizer

import (
	"fmt"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
)

const (
	luminanceBits    = 5
	luminanceShift   = 8 - luminanceBits
	luminanceBuckets = 1 << luminanceBits
)

// GlobalHistogram picks one black point for the whole image from a histogram
// of its central rows. It serves images too small for Block.
type GlobalHistogram struct {
	source qrscan.LuminanceSource
}

// NewGlobalHistogram creates a new GlobalHistogram binarizer.
func NewGlobalHistogram(source qrscan.LuminanceSource) *GlobalHistogram {
	return &GlobalHistogram{source: source}
}

// LuminanceSource returns the underlying source.
func (g *GlobalHistogram) LuminanceSource() qrscan.LuminanceSource {
	return g.source
}

// BlackMatrix returns the full binarized matrix. The histogram samples four
// rows across the middle three fifths of the image; tiny images use every
// row and column instead.
func (g *GlobalHistogram) BlackMatrix() (*bitutil.BitMatrix, error) {
	width, height := g.source.Width(), g.source.Height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d image", qrscan.ErrBinarizationFailed, width, height)
	}
	luma := g.source.Matrix()

	var buckets [luminanceBuckets]int
	left, right := width/5, width*4/5
	if right <= left {
		left, right = 0, width
	}
	for i := 1; i < 5; i++ {
		y := height * i / 5
		for _, p := range luma[y*width+left : y*width+right] {
			buckets[p>>luminanceShift]++
		}
	}
	blackPoint, err := estimateBlackPoint(buckets[:])
	if err != nil {
		return nil, err
	}

	matrix := bitutil.NewBitMatrix(width, height)
	for y := 0; y < height; y++ {
		for x, p := range luma[y*width : (y+1)*width] {
			if int(p) < blackPoint {
				matrix.Set(x, y)
			}
		}
	}
	return matrix, nil
}

// estimateBlackPoint finds the deepest valley between the two strongest
// histogram peaks.
func estimateBlackPoint(buckets []int) (int, error) {
	n := len(buckets)
	firstPeak, firstPeakSize, maxCount := 0, 0, 0
	for x, c := range buckets {
		if c > firstPeakSize {
			firstPeak, firstPeakSize = x, c
		}
		maxCount = max(maxCount, c)
	}

	// The second peak is weighted by its squared distance from the first so
	// that a neighbouring bucket of the same peak is not picked.
	secondPeak, secondPeakScore := 0, 0
	for x, c := range buckets {
		d := x - firstPeak
		if score := c * d * d; score > secondPeakScore {
			secondPeak, secondPeakScore = x, score
		}
	}
	if firstPeak > secondPeak {
		firstPeak, secondPeak = secondPeak, firstPeak
	}
	if secondPeak-firstPeak <= n/16 {
		return 0, fmt.Errorf("%w: no contrast in luminance histogram", qrscan.ErrBinarizationFailed)
	}

	valley, valleyScore := secondPeak-1, -1
	for x := secondPeak - 1; x > firstPeak; x-- {
		fromFirst := x - firstPeak
		score := fromFirst * fromFirst * (secondPeak - x) * (maxCount - buckets[x])
		if score > valleyScore {
			valley, valleyScore = x, score
		}
	}
	return valley << luminanceShift, nil
}

var _ qrscan.Binarizer = (*GlobalHistogram)(nil)
