package detector

import (
	"math"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
)

// AlignmentPattern is the center of an alignment pattern.
type AlignmentPattern struct {
	X, Y                float64
	EstimatedModuleSize float64
}

// Point returns the center as a ResultPoint.
func (p *AlignmentPattern) Point() qrscan.ResultPoint {
	return qrscan.ResultPoint{X: p.X, Y: p.Y}
}

func (p *AlignmentPattern) aboutEquals(moduleSize, i, j float64) bool {
	if math.Abs(i-p.Y) <= moduleSize && math.Abs(j-p.X) <= moduleSize {
		diff := math.Abs(moduleSize - p.EstimatedModuleSize)
		return diff <= 1.0 || diff <= p.EstimatedModuleSize
	}
	return false
}

func (p *AlignmentPattern) combineEstimate(i, j, moduleSize float64) *AlignmentPattern {
	return &AlignmentPattern{
		X:                   (p.X + j) / 2,
		Y:                   (p.Y + i) / 2,
		EstimatedModuleSize: (p.EstimatedModuleSize + moduleSize) / 2,
	}
}

// alignmentFinder searches a window of the image for the white-black-white
// 1:1:1 core of an alignment pattern. Rows are visited from the middle of
// the window outward.
type alignmentFinder struct {
	image           *bitutil.BitMatrix
	startX, startY  int
	width, height   int
	moduleSize      float64
	possibleCenters []*AlignmentPattern
}

// find returns a center confirmed by two rows if there is one, otherwise
// the first candidate seen, otherwise nil.
func (a *alignmentFinder) find() *AlignmentPattern {
	maxJ := a.startX + a.width
	middleI := a.startY + a.height/2
	for step := 0; step < a.height; step++ {
		// 0, 1, -1, 2, -2, ...
		delta := (step + 1) / 2
		if step&1 == 0 {
			delta = -delta
		}
		i := middleI + delta
		if i < a.startY || i >= a.startY+a.height {
			continue
		}

		var stateCount [3]int
		j := a.startX
		// A white run cut by the window edge has no meaningful length.
		for j < maxJ && !a.image.Get(j, i) {
			j++
		}
		state := 0
		for ; j < maxJ; j++ {
			if !a.image.Get(j, i) {
				if state == 1 {
					state++
				}
				stateCount[state]++
				continue
			}
			if state == 1 {
				stateCount[1]++
				continue
			}
			if state != 2 {
				state++
				stateCount[state]++
				continue
			}
			if a.foundPatternCross(stateCount) {
				if c := a.handlePossibleCenter(stateCount, i, j); c != nil {
					return c
				}
			}
			stateCount[0] = stateCount[2]
			stateCount[1] = 1
			stateCount[2] = 0
			state = 1
		}
		if a.foundPatternCross(stateCount) {
			if c := a.handlePossibleCenter(stateCount, i, maxJ); c != nil {
				return c
			}
		}
	}
	if len(a.possibleCenters) > 0 {
		return a.possibleCenters[0]
	}
	return nil
}

func (a *alignmentFinder) foundPatternCross(stateCount [3]int) bool {
	maxVariance := a.moduleSize / 2.0
	for _, c := range stateCount {
		if math.Abs(a.moduleSize-float64(c)) >= maxVariance {
			return false
		}
	}
	return true
}

func alignmentCenterFromEnd(stateCount [3]int, end int) float64 {
	return float64(end-stateCount[2]) - float64(stateCount[1])/2.0
}

// handlePossibleCenter returns a center once it has been seen on two rows.
func (a *alignmentFinder) handlePossibleCenter(stateCount [3]int, i, j int) *AlignmentPattern {
	total := stateCount[0] + stateCount[1] + stateCount[2]
	centerJ := alignmentCenterFromEnd(stateCount, j)
	centerI := a.crossCheckVertical(i, int(centerJ), 2*stateCount[1], total)
	if math.IsNaN(centerI) {
		return nil
	}
	moduleSize := float64(total) / 3.0
	for _, c := range a.possibleCenters {
		if c.aboutEquals(moduleSize, centerI, centerJ) {
			return c.combineEstimate(centerI, centerJ, moduleSize)
		}
	}
	a.possibleCenters = append(a.possibleCenters, &AlignmentPattern{X: centerJ, Y: centerI, EstimatedModuleSize: moduleSize})
	return nil
}

func (a *alignmentFinder) crossCheckVertical(startI, centerJ, maxCount, originalTotal int) float64 {
	maxI := a.image.Height()
	var sc [3]int

	i := startI
	for i >= 0 && a.image.Get(centerJ, i) && sc[1] <= maxCount {
		sc[1]++
		i--
	}
	if i < 0 || sc[1] > maxCount {
		return math.NaN()
	}
	for i >= 0 && !a.image.Get(centerJ, i) && sc[0] <= maxCount {
		sc[0]++
		i--
	}
	if sc[0] > maxCount {
		return math.NaN()
	}

	i = startI + 1
	for i < maxI && a.image.Get(centerJ, i) && sc[1] <= maxCount {
		sc[1]++
		i++
	}
	if i == maxI || sc[1] > maxCount {
		return math.NaN()
	}
	for i < maxI && !a.image.Get(centerJ, i) && sc[2] <= maxCount {
		sc[2]++
		i++
	}
	if sc[2] > maxCount {
		return math.NaN()
	}

	total := sc[0] + sc[1] + sc[2]
	if 5*abs(total-originalTotal) >= 2*originalTotal {
		return math.NaN()
	}
	if !a.foundPatternCross(sc) {
		return math.NaN()
	}
	return alignmentCenterFromEnd(sc, i)
}
