package decoder

import (
	"fmt"

	qrscan "github.com/ericlevine/qrscan"
)

// Mode is a segment mode indicator.
type Mode int

const (
	ModeTerminator         Mode = 0x0
	ModeNumeric            Mode = 0x1
	ModeAlphanumeric       Mode = 0x2
	ModeStructuredAppend   Mode = 0x3
	ModeByte               Mode = 0x4
	ModeFNC1FirstPosition  Mode = 0x5
	ModeECI                Mode = 0x7
	ModeKanji              Mode = 0x8
	ModeFNC1SecondPosition Mode = 0x9
	ModeHanzi              Mode = 0xD
)

type modeInfo struct {
	name string
	// countBits is the character count field width for versions 1-9,
	// 10-26 and 27-40; zero for modes without a count.
	countBits [3]int
}

var modes = map[Mode]modeInfo{
	ModeTerminator:         {"terminator", [3]int{}},
	ModeNumeric:            {"numeric", [3]int{10, 12, 14}},
	ModeAlphanumeric:       {"alphanumeric", [3]int{9, 11, 13}},
	ModeStructuredAppend:   {"structured append", [3]int{}},
	ModeByte:               {"byte", [3]int{8, 16, 16}},
	ModeFNC1FirstPosition:  {"FNC1 first", [3]int{}},
	ModeECI:                {"ECI", [3]int{}},
	ModeKanji:              {"kanji", [3]int{8, 10, 12}},
	ModeFNC1SecondPosition: {"FNC1 second", [3]int{}},
	ModeHanzi:              {"hanzi", [3]int{8, 10, 12}},
}

// ModeForBits decodes a four-bit mode indicator.
func ModeForBits(bits int) (Mode, error) {
	m := Mode(bits)
	if _, ok := modes[m]; !ok {
		return 0, fmt.Errorf("%w: unknown mode indicator %04b", qrscan.ErrMalformedBitstream, bits)
	}
	return m, nil
}

// CharacterCountBits returns the width of the character count field for
// this mode in the given version.
func (m Mode) CharacterCountBits(v *Version) int {
	tier := 0
	switch {
	case v.Number >= 27:
		tier = 2
	case v.Number >= 10:
		tier = 1
	}
	return modes[m].countBits[tier]
}

func (m Mode) String() string {
	if info, ok := modes[m]; ok {
		return info.name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
