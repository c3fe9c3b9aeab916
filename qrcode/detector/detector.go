// Package detector locates a QR symbol in a binary image and samples it
// into a module grid.
package detector

import (
	"fmt"
	"math"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
	"github.com/ericlevine/qrscan/internal"
	"github.com/ericlevine/qrscan/qrcode/decoder"
	"github.com/ericlevine/qrscan/transform"
)

// Detector finds and samples a QR symbol in a binary image.
type Detector struct {
	image *bitutil.BitMatrix
}

// NewDetector creates a Detector for image.
func NewDetector(image *bitutil.BitMatrix) *Detector {
	return &Detector{image: image}
}

// Detect locates the finder patterns and samples the symbol they frame.
func (d *Detector) Detect(tryHarder bool) (*internal.DetectorResult, error) {
	info, err := NewFinderPatternFinder(d.image).Find(tryHarder)
	if err != nil {
		return nil, err
	}
	return d.ProcessFinderPatternInfo(info)
}

// ProcessFinderPatternInfo samples the symbol framed by three ordered finder
// patterns.
func (d *Detector) ProcessFinderPatternInfo(info *FinderPatternInfo) (*internal.DetectorResult, error) {
	topLeft, topRight, bottomLeft := info.TopLeft, info.TopRight, info.BottomLeft

	moduleSize := d.calculateModuleSize(topLeft, topRight, bottomLeft)
	if moduleSize < 1.0 {
		return nil, fmt.Errorf("%w: module size %.2f", qrscan.ErrFinderPatternNotFound, moduleSize)
	}
	dimension, err := computeDimension(topLeft, topRight, bottomLeft, moduleSize)
	if err != nil {
		return nil, err
	}
	version, err := decoder.VersionForDimension(dimension)
	if err != nil {
		return nil, err
	}

	s, err := d.sample(info, moduleSize, version)
	if err != nil {
		return nil, err
	}
	if version.Number >= 7 {
		// The version blocks outrank the geometric estimate.
		if explicit, ok := decoder.ReadVersionInfo(s.bits); ok && explicit.Number != version.Number {
			version = explicit
			if s, err = d.sample(info, moduleSize, version); err != nil {
				return nil, err
			}
		}
	}

	points := []qrscan.ResultPoint{bottomLeft.Point(), topLeft.Point(), topRight.Point()}
	if s.alignment != nil {
		points = append(points, s.alignment.Point())
	}
	dim := float64(version.Dimension())
	corners := [4]qrscan.ResultPoint{
		s.transform.Apply(qrscan.ResultPoint{X: 0, Y: 0}),
		s.transform.Apply(qrscan.ResultPoint{X: dim, Y: 0}),
		s.transform.Apply(qrscan.ResultPoint{X: dim, Y: dim}),
		s.transform.Apply(qrscan.ResultPoint{X: 0, Y: dim}),
	}
	return &internal.DetectorResult{
		Bits:    s.bits,
		Points:  points,
		Corners: corners,
		Version: version.Number,
	}, nil
}

type sampled struct {
	bits      *bitutil.BitMatrix
	alignment *AlignmentPattern
	transform *transform.PerspectiveTransform
}

// sample searches for the bottom-right alignment pattern of the given
// version and reads the module grid.
func (d *Detector) sample(info *FinderPatternInfo, moduleSize float64, version *decoder.Version) (*sampled, error) {
	topLeft, topRight, bottomLeft := info.TopLeft, info.TopRight, info.BottomLeft
	dimension := version.Dimension()

	var alignment *AlignmentPattern
	if len(version.AlignmentCenters) > 0 {
		bottomRightX := topRight.X - topLeft.X + bottomLeft.X
		bottomRightY := topRight.Y - topLeft.Y + bottomLeft.Y
		// The alignment center sits three modules in from the bottom-right
		// finder position.
		correction := 1.0 - 3.0/float64(dimension-7)
		estX := int(topLeft.X + correction*(bottomRightX-topLeft.X))
		estY := int(topLeft.Y + correction*(bottomRightY-topLeft.Y))
		for allowance := 4; allowance <= 16; allowance <<= 1 {
			if alignment = d.findAlignmentInRegion(moduleSize, estX, estY, float64(allowance)); alignment != nil {
				break
			}
		}
	}

	t := createTransform(topLeft, topRight, bottomLeft, alignment, dimension)
	bits, err := transform.SampleGrid(d.image, dimension, dimension, t)
	if err != nil {
		return nil, err
	}
	return &sampled{bits: bits, alignment: alignment, transform: t}, nil
}

// createTransform maps module space onto the image using the finder
// centers, which sit 3.5 modules in from the corners, and either the
// alignment center or the parallelogram completion of the finders.
func createTransform(topLeft, topRight, bottomLeft *FinderPattern, alignment *AlignmentPattern, dimension int) *transform.PerspectiveTransform {
	dimMinusThree := float64(dimension) - 3.5
	bottomRight := qrscan.ResultPoint{
		X: topRight.X - topLeft.X + bottomLeft.X,
		Y: topRight.Y - topLeft.Y + bottomLeft.Y,
	}
	sourceBottomRight := dimMinusThree
	if alignment != nil {
		bottomRight = alignment.Point()
		sourceBottomRight = dimMinusThree - 3.0
	}
	return transform.QuadToQuad(
		transform.Quad{
			{X: 3.5, Y: 3.5},
			{X: dimMinusThree, Y: 3.5},
			{X: sourceBottomRight, Y: sourceBottomRight},
			{X: 3.5, Y: dimMinusThree},
		},
		transform.Quad{topLeft.Point(), topRight.Point(), bottomRight, bottomLeft.Point()},
	)
}

// computeDimension estimates the modules per side from the finder spacing
// and snaps it to a valid size.
func computeDimension(topLeft, topRight, bottomLeft *FinderPattern, moduleSize float64) (int, error) {
	tltr := int(math.Round(qrscan.Distance(topLeft.Point(), topRight.Point()) / moduleSize))
	tlbl := int(math.Round(qrscan.Distance(topLeft.Point(), bottomLeft.Point()) / moduleSize))
	dimension := (tltr+tlbl)/2 + 7
	switch dimension & 0x03 {
	case 0:
		dimension++
	case 2:
		dimension--
	case 3:
		return 0, fmt.Errorf("%w: estimated dimension %d", qrscan.ErrInvalidVersion, dimension)
	}
	return dimension, nil
}

func (d *Detector) calculateModuleSize(topLeft, topRight, bottomLeft *FinderPattern) float64 {
	return (d.calculateModuleSizeOneWay(topLeft, topRight) +
		d.calculateModuleSizeOneWay(topLeft, bottomLeft)) / 2.0
}

// calculateModuleSizeOneWay measures the black-white-black run through
// each pattern towards the other; a run covers seven modules.
func (d *Detector) calculateModuleSizeOneWay(pattern, other *FinderPattern) float64 {
	est1 := d.sizeOfBlackWhiteBlackRunBothWays(int(pattern.X), int(pattern.Y), int(other.X), int(other.Y))
	est2 := d.sizeOfBlackWhiteBlackRunBothWays(int(other.X), int(other.Y), int(pattern.X), int(pattern.Y))
	switch {
	case math.IsNaN(est1):
		return est2 / 7.0
	case math.IsNaN(est2):
		return est1 / 7.0
	}
	return (est1 + est2) / 14.0
}

func (d *Detector) sizeOfBlackWhiteBlackRunBothWays(fromX, fromY, toX, toY int) float64 {
	result := d.sizeOfBlackWhiteBlackRun(fromX, fromY, toX, toY)

	// Same run in the opposite direction, clipped to the image.
	w, h := d.image.Width(), d.image.Height()
	scale := 1.0
	otherToX := fromX - (toX - fromX)
	if otherToX < 0 {
		scale = float64(fromX) / float64(fromX-otherToX)
		otherToX = 0
	} else if otherToX >= w {
		scale = float64(w-1-fromX) / float64(otherToX-fromX)
		otherToX = w - 1
	}
	otherToY := int(float64(fromY) - float64(toY-fromY)*scale)

	scale = 1.0
	if otherToY < 0 {
		scale = float64(fromY) / float64(fromY-otherToY)
		otherToY = 0
	} else if otherToY >= h {
		scale = float64(h-1-fromY) / float64(otherToY-fromY)
		otherToY = h - 1
	}
	otherToX = int(float64(fromX) + float64(otherToX-fromX)*scale)

	result += d.sizeOfBlackWhiteBlackRun(fromX, fromY, otherToX, otherToY)
	// The center pixel was counted twice.
	return result - 1.0
}

// sizeOfBlackWhiteBlackRun walks a Bresenham line from the center of a
// finder pattern and returns the distance to the end of the second black
// run, or NaN if the line ends first.
func (d *Detector) sizeOfBlackWhiteBlackRun(fromX, fromY, toX, toY int) float64 {
	steep := abs(toY-fromY) > abs(toX-fromX)
	if steep {
		fromX, fromY = fromY, fromX
		toX, toY = toY, toX
	}
	dx, dy := abs(toX-fromX), abs(toY-fromY)
	xstep, ystep := 1, 1
	if fromX > toX {
		xstep = -1
	}
	if fromY > toY {
		ystep = -1
	}

	e := -dx / 2
	state := 0
	xLimit := toX + xstep
	for x, y := fromX, fromY; x != xLimit; x += xstep {
		realX, realY := x, y
		if steep {
			realX, realY = y, x
		}
		if realX < 0 || realY < 0 || realX >= d.image.Width() || realY >= d.image.Height() {
			break
		}
		// States 0 and 2 look for white, state 1 for black.
		if (state == 1) == d.image.Get(realX, realY) {
			if state == 2 {
				return math.Hypot(float64(x-fromX), float64(y-fromY))
			}
			state++
		}
		e += dy
		if e > 0 {
			if y == toY {
				break
			}
			y += ystep
			e -= dx
		}
	}
	if state == 2 {
		return math.Hypot(float64(toX+xstep-fromX), float64(toY-fromY))
	}
	return math.NaN()
}

// findAlignmentInRegion looks for the alignment pattern within
// allowanceFactor module sizes of an estimated center.
func (d *Detector) findAlignmentInRegion(moduleSize float64, estX, estY int, allowanceFactor float64) *AlignmentPattern {
	allowance := int(allowanceFactor * moduleSize)
	left := max(0, estX-allowance)
	right := min(d.image.Width()-1, estX+allowance)
	if float64(right-left) < moduleSize*3 {
		return nil
	}
	top := max(0, estY-allowance)
	bottom := min(d.image.Height()-1, estY+allowance)
	if float64(bottom-top) < moduleSize*3 {
		return nil
	}
	f := &alignmentFinder{
		image:      d.image,
		startX:     left,
		startY:     top,
		width:      right - left,
		height:     bottom - top,
		moduleSize: moduleSize,
	}
	return f.find()
}
