// Package decoder turns a sampled QR module grid into text.
package decoder

import "fmt"

// ErrorCorrectionLevel is one of the four QR error correction levels, ordered
// by increasing redundancy.
type ErrorCorrectionLevel int

const (
	ECLevelL ErrorCorrectionLevel = iota
	ECLevelM
	ECLevelQ
	ECLevelH
)

// levelForBits maps the two format bits to a level.
var levelForBits = [4]ErrorCorrectionLevel{ECLevelM, ECLevelL, ECLevelH, ECLevelQ}

// ECLevelForBits decodes the two error correction bits of the format
// information.
func ECLevelForBits(bits int) ErrorCorrectionLevel {
	return levelForBits[bits&0x03]
}

// Bits returns the two-bit format encoding of the level.
func (l ErrorCorrectionLevel) Bits() int {
	for b, level := range levelForBits {
		if level == l {
			return b
		}
	}
	return -1
}

func (l ErrorCorrectionLevel) String() string {
	switch l {
	case ECLevelL:
		return "L"
	case ECLevelM:
		return "M"
	case ECLevelQ:
		return "Q"
	case ECLevelH:
		return "H"
	}
	return fmt.Sprintf("ErrorCorrectionLevel(%d)", int(l))
}

// ParseECLevel parses "L", "M", "Q" or "H".
func ParseECLevel(s string) (ErrorCorrectionLevel, error) {
	for l := ECLevelL; l <= ECLevelH; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown error correction level %q", s)
}
