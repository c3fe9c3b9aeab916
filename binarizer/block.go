package binarizer

import (
	"fmt"
	"math"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
)

const (
	// blocksAlongShorterSide is the target number of threshold blocks across
	// the shorter image side.
	blocksAlongShorterSide = 40
	// MinBlockSize is the smallest block edge in pixels. Images with a side
	// shorter than this are binarized with a GlobalHistogram.
	MinBlockSize = 16
	// minDynamicRange is the spread below which a block is treated as a
	// single solid color.
	minDynamicRange = 12
	blackBias       = 1.1
)

// Block binarizes with one threshold per square block, smoothed over the 5x5
// neighborhood of blocks. It copes with shadows and gradients that defeat a
// global threshold.
type Block struct {
	source qrscan.LuminanceSource
}

// NewBlock creates a Block binarizer over source.
func NewBlock(source qrscan.LuminanceSource) *Block {
	return &Block{source: source}
}

// LuminanceSource returns the underlying source.
func (b *Block) LuminanceSource() qrscan.LuminanceSource {
	return b.source
}

// BlockGeometry returns the block edge and the number of blocks along each
// axis for an image of the given size.
func BlockGeometry(width, height int) (size, countX, countY int) {
	size = max(min(width, height)/blocksAlongShorterSide, MinBlockSize)
	countX = (width + size - 1) / size
	countY = (height + size - 1) / size
	return size, countX, countY
}

// BlackMatrix computes the binary image. Pixels at or below their smoothed
// block threshold are black.
func (b *Block) BlackMatrix() (*bitutil.BitMatrix, error) {
	width, height := b.source.Width(), b.source.Height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d image", qrscan.ErrBinarizationFailed, width, height)
	}
	if width < MinBlockSize || height < MinBlockSize {
		return NewGlobalHistogram(b.source).BlackMatrix()
	}

	luma := b.source.Matrix()
	size, countX, countY := BlockGeometry(width, height)
	thresholds := make([]byte, countX*countY)
	for by := 0; by < countY; by++ {
		for bx := 0; bx < countX; bx++ {
			thresholds[by*countX+bx] = blockThreshold(luma, width, height, size, bx, by, countX, thresholds)
		}
	}

	matrix := bitutil.NewBitMatrix(width, height)
	for by := 0; by < countY; by++ {
		for bx := 0; bx < countX; bx++ {
			sum := 0
			for dy := -2; dy <= 2; dy++ {
				ny := clampInt(by+dy, 0, countY-1)
				for dx := -2; dx <= 2; dx++ {
					nx := clampInt(bx+dx, 0, countX-1)
					sum += int(thresholds[ny*countX+nx])
				}
			}
			applyThreshold(luma, width, height, size, bx, by, float64(sum)/25, matrix)
		}
	}
	return matrix, nil
}

// blockOrigin returns the top-left pixel of a block. The last block on each
// axis is shifted back so it lies fully inside the image.
func blockOrigin(bx, by, size, width, height int) (left, top int) {
	return min(bx*size, width-size), min(by*size, height-size)
}

func blockThreshold(luma []byte, width, height, size, bx, by, countX int, thresholds []byte) byte {
	left, top := blockOrigin(bx, by, size, width, height)
	lo, hi := 255, 0
	for y := top; y < top+size; y++ {
		row := luma[y*width+left : y*width+left+size]
		for _, p := range row {
			lo = min(lo, int(p))
			hi = max(hi, int(p))
		}
	}

	if hi-lo > minDynamicRange {
		avg := float64(lo+hi) / 2
		return toByte(min(255, avg+float64(lo+hi)/4, avg*blackBias))
	}

	// A flat block. On the top row and left column there is nothing to
	// compare with, so assume light background.
	if bx == 0 || by == 0 {
		return toByte(float64(lo - 1))
	}
	i := by*countX + bx
	neighbours := float64(int(thresholds[i-1])+int(thresholds[i-countX])+int(thresholds[i-countX-1])) / 3
	if neighbours > float64(lo) {
		return toByte(neighbours)
	}
	return toByte(float64(lo - 1))
}

func applyThreshold(luma []byte, width, height, size, bx, by int, threshold float64, matrix *bitutil.BitMatrix) {
	left, top := blockOrigin(bx, by, size, width, height)
	for y := top; y < top+size; y++ {
		for x := left; x < left+size; x++ {
			matrix.SetTo(x, y, float64(luma[y*width+x]) <= threshold)
		}
	}
}

// toByte stores v the way a clamped byte buffer would: rounded half to even
// and clamped to 0..255.
func toByte(v float64) byte {
	return byte(math.Max(0, math.Min(255, math.RoundToEven(v))))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

var _ qrscan.Binarizer = (*Block)(nil)
