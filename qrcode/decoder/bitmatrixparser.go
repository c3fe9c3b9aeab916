package decoder

import (
	"fmt"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
)

// BitMatrixParser reads format information, version information and
// codewords from a sampled symbol.
type BitMatrixParser struct {
	bits    *bitutil.BitMatrix
	version *Version
	format  *FormatInfo
}

// NewBitMatrixParser prepares to parse a copy of bits, which must be a square
// grid of 21 to 177 modules.
func NewBitMatrixParser(bits *bitutil.BitMatrix) (*BitMatrixParser, error) {
	d := bits.Height()
	if bits.Width() != d || d < 21 || d > 177 || d%4 != 1 {
		return nil, fmt.Errorf("%w: %dx%d module grid", qrscan.ErrInvalidVersion, bits.Width(), d)
	}
	return &BitMatrixParser{bits: bits.Clone()}, nil
}

func (p *BitMatrixParser) appendBit(word, x, y int) int {
	word <<= 1
	if p.bits.Get(x, y) {
		word |= 1
	}
	return word
}

// formatWords returns the copy around the top-left finder and the copy split
// between the top-right and bottom-left finders.
func (p *BitMatrixParser) formatWords() (int, int) {
	w1 := 0
	for x := 0; x < 6; x++ {
		w1 = p.appendBit(w1, x, 8)
	}
	w1 = p.appendBit(w1, 7, 8)
	w1 = p.appendBit(w1, 8, 8)
	w1 = p.appendBit(w1, 8, 7)
	for y := 5; y >= 0; y-- {
		w1 = p.appendBit(w1, 8, y)
	}

	d := p.bits.Height()
	w2 := 0
	for y := d - 1; y >= d-7; y-- {
		w2 = p.appendBit(w2, 8, y)
	}
	for x := d - 8; x < d; x++ {
		w2 = p.appendBit(w2, x, 8)
	}
	return w1, w2
}

// ReadFormatInfo decodes the format information.
func (p *BitMatrixParser) ReadFormatInfo() (FormatInfo, error) {
	if p.format != nil {
		return *p.format, nil
	}
	fi, err := DecodeFormatInfo(p.formatWords())
	if err != nil {
		return FormatInfo{}, err
	}
	p.format = &fi
	return fi, nil
}

// versionWords returns the 18-bit version blocks above the bottom-left finder
// and left of the top-right finder.
func versionWords(m *bitutil.BitMatrix) (topRight, bottomLeft int) {
	d := m.Height()
	bit := func(word, x, y int) int {
		word <<= 1
		if m.Get(x, y) {
			word |= 1
		}
		return word
	}
	for y := 5; y >= 0; y-- {
		for x := d - 9; x >= d-11; x-- {
			topRight = bit(topRight, x, y)
		}
	}
	for x := 5; x >= 0; x-- {
		for y := d - 9; y >= d-11; y-- {
			bottomLeft = bit(bottomLeft, x, y)
		}
	}
	return topRight, bottomLeft
}

// ReadVersionInfo decodes the version blocks of a grid of at least 45
// modules. It reports false when neither copy is within correction distance.
func ReadVersionInfo(m *bitutil.BitMatrix) (*Version, bool) {
	tr, bl := versionWords(m)
	if v, ok := DecodeVersionBits(tr); ok {
		return v, true
	}
	return DecodeVersionBits(bl)
}

// ReadVersion determines the version. Below version 7 it follows from the
// grid size. Otherwise the version blocks are decoded; if neither copy can
// be read the grid size is trusted, but a readable copy that disagrees with
// the grid size is an error.
func (p *BitMatrixParser) ReadVersion() (*Version, error) {
	if p.version != nil {
		return p.version, nil
	}
	d := p.bits.Height()
	provisional, err := VersionForDimension(d)
	if err != nil {
		return nil, err
	}
	if provisional.Number < 7 {
		p.version = provisional
		return provisional, nil
	}

	tr, bl := versionWords(p.bits)
	disagree := 0
	for _, word := range [2]int{tr, bl} {
		v, ok := DecodeVersionBits(word)
		if !ok {
			continue
		}
		if v.Dimension() == d {
			p.version = v
			return v, nil
		}
		disagree = v.Number
	}
	if disagree != 0 {
		return nil, fmt.Errorf("%w: version field says %d but grid has %d modules",
			qrscan.ErrInvalidVersion, disagree, d)
	}
	p.version = provisional
	return provisional, nil
}

// ReadCodewords unmasks the grid and reads its codewords in placement order:
// two-module columns from the right edge, alternating upward and downward,
// skipping the vertical timing column and function patterns.
func (p *BitMatrixParser) ReadCodewords() ([]byte, error) {
	fi, err := p.ReadFormatInfo()
	if err != nil {
		return nil, err
	}
	v, err := p.ReadVersion()
	if err != nil {
		return nil, err
	}

	Unmask(p.bits, fi.DataMask)
	defer Unmask(p.bits, fi.DataMask)

	function := v.FunctionPattern()
	d := p.bits.Height()
	codewords := make([]byte, 0, v.TotalCodewords)
	cur, n := 0, 0
	upward := true
	for right := d - 1; right > 0; right -= 2 {
		if right == 6 {
			right--
		}
		for i := 0; i < d; i++ {
			y := i
			if upward {
				y = d - 1 - i
			}
			for x := right; x > right-2; x-- {
				if function.Get(x, y) {
					continue
				}
				cur <<= 1
				if p.bits.Get(x, y) {
					cur |= 1
				}
				if n++; n == 8 {
					codewords = append(codewords, byte(cur))
					cur, n = 0, 0
				}
			}
		}
		upward = !upward
	}
	if len(codewords) != v.TotalCodewords {
		return nil, fmt.Errorf("%w: read %d codewords, version %d holds %d",
			qrscan.ErrMalformedBitstream, len(codewords), v.Number, v.TotalCodewords)
	}
	return codewords, nil
}
