package decoder

import (
	"fmt"
	"math/bits"

	qrscan "github.com/ericlevine/qrscan"
)

const (
	formatInfoMask = 0x5412
	formatInfoPoly = 0x537
)

// FormatInfo is the decoded content of the 15-bit format information.
type FormatInfo struct {
	ECLevel  ErrorCorrectionLevel
	DataMask int
}

// FormatInfoBits returns the masked 15-bit word that encodes a level and
// data mask.
func FormatInfoBits(level ErrorCorrectionLevel, mask int) int {
	data := level.Bits()<<3 | mask
	return (data<<10 | bchRemainder(data<<10, formatInfoPoly)) ^ formatInfoMask
}

// maskedFormatWords lists all 32 valid words indexed by their five data bits.
var maskedFormatWords = func() [32]int {
	var w [32]int
	for data := range w {
		w[data] = FormatInfoBits(ECLevelForBits(data>>3), data&0x07)
	}
	return w
}()

// DecodeFormatInfo decodes the two copies of the format information read
// from a symbol. An exact match of either copy wins; otherwise the closest
// valid word over both copies is used if it is within 3 bit errors. Symbols
// that omit the format mask are accepted as a last resort.
func DecodeFormatInfo(word1, word2 int) (FormatInfo, error) {
	if fi, ok := closestFormatInfo(word1, word2); ok {
		return fi, nil
	}
	if fi, ok := closestFormatInfo(word1^formatInfoMask, word2^formatInfoMask); ok {
		return fi, nil
	}
	return FormatInfo{}, fmt.Errorf("%w: read %015b and %015b", qrscan.ErrFormatInfoUnrecoverable, word1, word2)
}

func closestFormatInfo(word1, word2 int) (FormatInfo, bool) {
	best, bestDist := -1, maxBitErrors+1
	for data, target := range maskedFormatWords {
		if target == word1 || target == word2 {
			return formatInfoFor(data), true
		}
		for _, w := range [2]int{word1, word2} {
			if dist := bits.OnesCount(uint(w ^ target)); dist < bestDist {
				best, bestDist = data, dist
			}
		}
	}
	if best < 0 {
		return FormatInfo{}, false
	}
	return formatInfoFor(best), true
}

func formatInfoFor(data int) FormatInfo {
	return FormatInfo{ECLevel: ECLevelForBits(data >> 3), DataMask: data & 0x07}
}
