package detector

import (
	"fmt"
	"math"
	"sort"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
)

const (
	centerQuorum = 2
	minSkip      = 3
	// maxModules is the largest symbol, version 40, in modules.
	maxModules = 177

	minModulesPerEdge = 9
	maxModulesPerEdge = 180
	// shapeTolerance bounds the relative error of the two legs and of the
	// hypotenuse of a finder triangle.
	shapeTolerance = 0.1
)

// FinderPattern is a candidate finder pattern center. Count is the number
// of scans that confirmed it.
type FinderPattern struct {
	X, Y                float64
	EstimatedModuleSize float64
	Count               int
}

// Point returns the center as a ResultPoint.
func (p *FinderPattern) Point() qrscan.ResultPoint {
	return qrscan.ResultPoint{X: p.X, Y: p.Y}
}

func (p *FinderPattern) aboutEquals(moduleSize, i, j float64) bool {
	if math.Abs(i-p.Y) <= moduleSize && math.Abs(j-p.X) <= moduleSize {
		diff := math.Abs(moduleSize - p.EstimatedModuleSize)
		return diff <= 1.0 || diff <= p.EstimatedModuleSize
	}
	return false
}

// combineEstimate returns the count-weighted average of p and a new
// observation.
func (p *FinderPattern) combineEstimate(i, j, moduleSize float64) *FinderPattern {
	n := float64(p.Count)
	c := n + 1
	return &FinderPattern{
		X:                   (n*p.X + j) / c,
		Y:                   (n*p.Y + i) / c,
		EstimatedModuleSize: (n*p.EstimatedModuleSize + moduleSize) / c,
		Count:               p.Count + 1,
	}
}

// FinderPatternInfo holds the three finder patterns of a symbol.
type FinderPatternInfo struct {
	BottomLeft, TopLeft, TopRight *FinderPattern
}

// FinderPatternFinder scans a binary image for the three 1:1:3:1:1 finder
// patterns of a QR symbol.
type FinderPatternFinder struct {
	image           *bitutil.BitMatrix
	possibleCenters []*FinderPattern
	hasSkipped      bool
	tryHarder       bool
}

// NewFinderPatternFinder creates a finder for image.
func NewFinderPatternFinder(image *bitutil.BitMatrix) *FinderPatternFinder {
	return &FinderPatternFinder{image: image}
}

// PossibleCenters returns the candidates collected by the last Find call.
func (f *FinderPatternFinder) PossibleCenters() []*FinderPattern {
	return f.possibleCenters
}

// Find locates the three finder patterns. With tryHarder every row is
// scanned and candidates must also pass a diagonal check.
func (f *FinderPatternFinder) Find(tryHarder bool) (*FinderPatternInfo, error) {
	f.possibleCenters = f.possibleCenters[:0]
	f.hasSkipped = false
	f.tryHarder = tryHarder

	maxI, maxJ := f.image.Height(), f.image.Width()
	iSkip := 3 * maxI / (4 * maxModules)
	if iSkip < minSkip {
		iSkip = minSkip
	}
	if tryHarder {
		iSkip = 1
	}

	var stateCount [5]int
	done := false
	for i := iSkip - 1; i < maxI && !done; i += iSkip {
		stateCount = [5]int{}
		state := 0
		for j := 0; j < maxJ; j++ {
			if f.image.Get(j, i) {
				if state&1 == 1 {
					state++
				}
				stateCount[state]++
				continue
			}
			if state&1 == 1 {
				stateCount[state]++
				continue
			}
			if state != 4 {
				state++
				stateCount[state]++
				continue
			}
			if !foundPatternCross(stateCount) || !f.handlePossibleCenter(stateCount, i, j) {
				shiftCounts(&stateCount)
				state = 3
				continue
			}
			// Confirmed: from here rows are scanned more densely.
			iSkip = 2
			if f.hasSkipped {
				done = f.haveMultiplyConfirmedCenters()
			} else if rowSkip := f.findRowSkip(); rowSkip > stateCount[2] {
				// Jump down close to the row of the third pattern.
				i += rowSkip - stateCount[2] - iSkip
				j = maxJ - 1
			}
			stateCount = [5]int{}
			state = 0
		}
		if foundPatternCross(stateCount) && f.handlePossibleCenter(stateCount, i, maxJ) {
			iSkip = stateCount[0]
			if f.hasSkipped {
				done = f.haveMultiplyConfirmedCenters()
			}
		}
	}

	best, err := f.selectBestPatterns()
	if err != nil {
		return nil, err
	}
	return orderFinderPatterns(best), nil
}

func shiftCounts(stateCount *[5]int) {
	stateCount[0] = stateCount[2]
	stateCount[1] = stateCount[3]
	stateCount[2] = stateCount[4]
	stateCount[3] = 1
	stateCount[4] = 0
}

// centerFromEnd returns the center of the pattern whose runs end just
// before end.
func centerFromEnd(stateCount [5]int, end int) float64 {
	return float64(end-stateCount[4]-stateCount[3]) - float64(stateCount[2])/2.0
}

func foundPatternCross(stateCount [5]int) bool {
	return foundPattern(stateCount, 2.0)
}

func foundPatternDiagonal(stateCount [5]int) bool {
	return foundPattern(stateCount, 1.333)
}

// foundPattern reports whether the five runs are close to 1:1:3:1:1. Each
// unit run may differ from the module size by less than moduleSize/divisor.
func foundPattern(stateCount [5]int, divisor float64) bool {
	total := 0
	for _, c := range stateCount {
		if c == 0 {
			return false
		}
		total += c
	}
	if total < 7 {
		return false
	}
	moduleSize := float64(total) / 7.0
	maxVariance := moduleSize / divisor
	return math.Abs(moduleSize-float64(stateCount[0])) < maxVariance &&
		math.Abs(moduleSize-float64(stateCount[1])) < maxVariance &&
		math.Abs(3*moduleSize-float64(stateCount[2])) < 3*maxVariance &&
		math.Abs(moduleSize-float64(stateCount[3])) < maxVariance &&
		math.Abs(moduleSize-float64(stateCount[4])) < maxVariance
}

// handlePossibleCenter cross checks a horizontal hit ending at column j of
// row i and merges it into the candidate list. It reports whether the hit
// was confirmed.
func (f *FinderPatternFinder) handlePossibleCenter(stateCount [5]int, i, j int) bool {
	total := 0
	for _, c := range stateCount {
		total += c
	}
	centerJ := centerFromEnd(stateCount, j)
	centerI := f.crossCheck(int(centerJ), i, 0, 1, stateCount[2], total, 2)
	if math.IsNaN(centerI) {
		return false
	}
	centerJ = f.crossCheck(int(centerJ), int(centerI), 1, 0, stateCount[2], total, 1)
	if math.IsNaN(centerJ) {
		return false
	}
	if f.tryHarder && !f.crossCheckDiagonal(int(centerI), int(centerJ)) {
		return false
	}

	moduleSize := float64(total) / 7.0
	for idx, c := range f.possibleCenters {
		if c.aboutEquals(moduleSize, centerI, centerJ) {
			f.possibleCenters[idx] = c.combineEstimate(centerI, centerJ, moduleSize)
			return true
		}
	}
	f.possibleCenters = append(f.possibleCenters, &FinderPattern{
		X: centerJ, Y: centerI, EstimatedModuleSize: moduleSize, Count: 1,
	})
	return true
}

// crossCheck counts the five runs of a finder pattern along the line
// through (x, y) with step (dx, dy), one of which is zero. The outer runs
// may not exceed maxCount, and the total must be within
// tolerance*originalTotal/5 of the original scan. It returns the center
// coordinate along the line, or NaN.
func (f *FinderPatternFinder) crossCheck(x, y, dx, dy, maxCount, originalTotal, tolerance int) float64 {
	w, h := f.image.Width(), f.image.Height()
	in := func(k int) bool {
		px, py := x+k*dx, y+k*dy
		return px >= 0 && py >= 0 && px < w && py < h
	}
	black := func(k int) bool { return f.image.Get(x+k*dx, y+k*dy) }

	var sc [5]int
	k := 0
	for in(k) && black(k) {
		sc[2]++
		k--
	}
	if !in(k) {
		return math.NaN()
	}
	for in(k) && !black(k) && sc[1] <= maxCount {
		sc[1]++
		k--
	}
	if !in(k) || sc[1] > maxCount {
		return math.NaN()
	}
	for in(k) && black(k) && sc[0] <= maxCount {
		sc[0]++
		k--
	}
	if sc[0] > maxCount {
		return math.NaN()
	}

	k = 1
	for in(k) && black(k) {
		sc[2]++
		k++
	}
	if !in(k) {
		return math.NaN()
	}
	for in(k) && !black(k) && sc[3] <= maxCount {
		sc[3]++
		k++
	}
	if !in(k) || sc[3] > maxCount {
		return math.NaN()
	}
	for in(k) && black(k) && sc[4] <= maxCount {
		sc[4]++
		k++
	}
	if sc[4] > maxCount {
		return math.NaN()
	}

	total := sc[0] + sc[1] + sc[2] + sc[3] + sc[4]
	if 5*abs(total-originalTotal) >= tolerance*originalTotal {
		return math.NaN()
	}
	if !foundPatternCross(sc) {
		return math.NaN()
	}
	return centerFromEnd(sc, x*dx+y*dy+k)
}

// crossCheckDiagonal looks for the 1:1:3:1:1 pattern along the top-left to
// bottom-right diagonal through a center.
func (f *FinderPatternFinder) crossCheckDiagonal(centerI, centerJ int) bool {
	var sc [5]int
	i := 0
	for centerI >= i && centerJ >= i && f.image.Get(centerJ-i, centerI-i) {
		sc[2]++
		i++
	}
	if sc[2] == 0 {
		return false
	}
	for centerI >= i && centerJ >= i && !f.image.Get(centerJ-i, centerI-i) {
		sc[1]++
		i++
	}
	if sc[1] == 0 {
		return false
	}
	for centerI >= i && centerJ >= i && f.image.Get(centerJ-i, centerI-i) {
		sc[0]++
		i++
	}
	if sc[0] == 0 {
		return false
	}

	maxI, maxJ := f.image.Height(), f.image.Width()
	i = 1
	for centerI+i < maxI && centerJ+i < maxJ && f.image.Get(centerJ+i, centerI+i) {
		sc[2]++
		i++
	}
	for centerI+i < maxI && centerJ+i < maxJ && !f.image.Get(centerJ+i, centerI+i) {
		sc[3]++
		i++
	}
	if sc[3] == 0 {
		return false
	}
	for centerI+i < maxI && centerJ+i < maxJ && f.image.Get(centerJ+i, centerI+i) {
		sc[4]++
		i++
	}
	if sc[4] == 0 {
		return false
	}
	return foundPatternDiagonal(sc)
}

// findRowSkip estimates how many rows can be skipped once two patterns are
// confirmed: the third lies at least that far below.
func (f *FinderPatternFinder) findRowSkip() int {
	if len(f.possibleCenters) <= 1 {
		return 0
	}
	var first *FinderPattern
	for _, c := range f.possibleCenters {
		if c.Count < centerQuorum {
			continue
		}
		if first == nil {
			first = c
			continue
		}
		f.hasSkipped = true
		return int((math.Abs(first.X-c.X) - math.Abs(first.Y-c.Y)) / 2)
	}
	return 0
}

// haveMultiplyConfirmedCenters reports whether at least three candidates
// are confirmed and their module sizes agree within 5%.
func (f *FinderPatternFinder) haveMultiplyConfirmedCenters() bool {
	confirmed := 0
	total := 0.0
	for _, c := range f.possibleCenters {
		if c.Count >= centerQuorum {
			confirmed++
			total += c.EstimatedModuleSize
		}
	}
	if confirmed < 3 {
		return false
	}
	average := total / float64(len(f.possibleCenters))
	deviation := 0.0
	for _, c := range f.possibleCenters {
		deviation += math.Abs(c.EstimatedModuleSize - average)
	}
	return deviation <= 0.05*total
}

// selectBestPatterns picks the three candidates most likely to be the
// finder patterns of one symbol. Candidates far from the average module
// size are dropped; of the remaining triples that form a right isosceles
// triangle of plausible size, the one with the most confirmations wins,
// ties going to the better shape.
func (f *FinderPatternFinder) selectBestPatterns() ([3]*FinderPattern, error) {
	var best [3]*FinderPattern
	centers := f.possibleCenters
	if confirmed := confirmedCenters(centers); len(confirmed) >= 3 {
		centers = confirmed
	}
	if len(centers) < 3 {
		return best, fmt.Errorf("%w: %d candidate centers", qrscan.ErrFinderPatternNotFound, len(centers))
	}

	average := 0.0
	for _, c := range centers {
		average += c.EstimatedModuleSize
	}
	average /= float64(len(centers))
	var filtered []*FinderPattern
	for _, c := range centers {
		if math.Abs(c.EstimatedModuleSize-average) <= 0.5*average {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) < 3 {
		filtered = centers
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].EstimatedModuleSize > filtered[j].EstimatedModuleSize
	})

	bestScore, bestError := -1, math.Inf(1)
	n := len(filtered)
	for i := 0; i < n-2; i++ {
		for j := i + 1; j < n-1; j++ {
			for k := j + 1; k < n; k++ {
				triple := [3]*FinderPattern{filtered[i], filtered[j], filtered[k]}
				shapeError, ok := triangleError(triple)
				if !ok {
					continue
				}
				score := triple[0].Count + triple[1].Count + triple[2].Count
				if score > bestScore || (score == bestScore && shapeError < bestError) {
					best, bestScore, bestError = triple, score, shapeError
				}
			}
		}
	}
	if bestScore < 0 {
		return best, fmt.Errorf("%w: no right-angled triple among %d candidates", qrscan.ErrFinderPatternNotFound, n)
	}
	return best, nil
}

func confirmedCenters(centers []*FinderPattern) []*FinderPattern {
	var out []*FinderPattern
	for _, c := range centers {
		if c.Count >= centerQuorum {
			out = append(out, c)
		}
	}
	return out
}

// triangleError checks that the patterns form a right isosceles triangle
// with legs of a plausible module count and returns its relative shape
// error.
func triangleError(t [3]*FinderPattern) (float64, bool) {
	info := orderFinderPatterns(t)
	tl, tr, bl := info.TopLeft.Point(), info.TopRight.Point(), info.BottomLeft.Point()
	if qrscan.CrossProductZ(tl, tr, bl) == 0 {
		return 0, false
	}
	a := qrscan.Distance(tl, bl)
	b := qrscan.Distance(tl, tr)
	c := qrscan.Distance(tr, bl)
	if a == 0 || b == 0 {
		return 0, false
	}

	moduleSize := (t[0].EstimatedModuleSize + t[1].EstimatedModuleSize + t[2].EstimatedModuleSize) / 3
	modules := (a + b) / (2 * moduleSize)
	if modules < minModulesPerEdge || modules > maxModulesPerEdge {
		return 0, false
	}
	legs := math.Abs(a-b) / math.Min(a, b)
	if legs >= shapeTolerance {
		return 0, false
	}
	hyp := math.Sqrt(a*a + b*b)
	diag := math.Abs(c-hyp) / math.Min(c, hyp)
	if diag >= shapeTolerance {
		return 0, false
	}
	return legs + diag, true
}

func orderFinderPatterns(p [3]*FinderPattern) *FinderPatternInfo {
	tl, tr, bl := qrscan.OrderBestPatterns([3]qrscan.ResultPoint{p[0].Point(), p[1].Point(), p[2].Point()})
	var used [3]bool
	pick := func(pt qrscan.ResultPoint) *FinderPattern {
		for i, fp := range p {
			if !used[i] && fp.Point() == pt {
				used[i] = true
				return fp
			}
		}
		return nil
	}
	return &FinderPatternInfo{TopLeft: pick(tl), TopRight: pick(tr), BottomLeft: pick(bl)}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
