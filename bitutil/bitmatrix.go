// Package bitutil holds the bit containers shared by the binarizer, the
// detector and the QR decoder.
package bitutil

import (
	"math/bits"
	"strings"
)

const wordBits = 64

// BitMatrix is a dense two dimensional grid of bits. x is the column and y is
// the row; the origin is the top-left corner. A set bit means black.
type BitMatrix struct {
	width  int
	height int
	stride int
	words  []uint64
}

// NewBitMatrix returns a width x height matrix with every bit clear.
func NewBitMatrix(width, height int) *BitMatrix {
	if width < 1 || height < 1 {
		panic("bitutil: matrix dimensions must be positive")
	}
	stride := (width + wordBits - 1) / wordBits
	return &BitMatrix{
		width:  width,
		height: height,
		stride: stride,
		words:  make([]uint64, stride*height),
	}
}

// NewSquareBitMatrix returns a dimension x dimension matrix.
func NewSquareBitMatrix(dimension int) *BitMatrix {
	return NewBitMatrix(dimension, dimension)
}

// ParseBitMatrix builds a matrix from rows of text, one character per bit.
// Any character in set is black; every other non-newline character is white.
func ParseBitMatrix(text string, set string) *BitMatrix {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		panic("bitutil: empty matrix text")
	}
	m := NewBitMatrix(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != m.width {
			panic("bitutil: ragged matrix text")
		}
		for x := 0; x < len(row); x++ {
			if strings.IndexByte(set, row[x]) >= 0 {
				m.Set(x, y)
			}
		}
	}
	return m
}

func (m *BitMatrix) index(x, y int) (int, uint64) {
	return y*m.stride + x/wordBits, 1 << uint(x%wordBits)
}

// Get reports whether the bit at (x, y) is set.
func (m *BitMatrix) Get(x, y int) bool {
	i, mask := m.index(x, y)
	return m.words[i]&mask != 0
}

// Set marks (x, y) black.
func (m *BitMatrix) Set(x, y int) {
	i, mask := m.index(x, y)
	m.words[i] |= mask
}

// Unset marks (x, y) white.
func (m *BitMatrix) Unset(x, y int) {
	i, mask := m.index(x, y)
	m.words[i] &^= mask
}

// SetTo assigns the bit at (x, y).
func (m *BitMatrix) SetTo(x, y int, black bool) {
	if black {
		m.Set(x, y)
	} else {
		m.Unset(x, y)
	}
}

// Flip inverts the bit at (x, y).
func (m *BitMatrix) Flip(x, y int) {
	i, mask := m.index(x, y)
	m.words[i] ^= mask
}

// FlipAll inverts every bit. Padding bits past the right edge stay clear so
// that Equal and the on-bit searches keep working.
func (m *BitMatrix) FlipAll() {
	tail := uint(m.width % wordBits)
	for y := 0; y < m.height; y++ {
		row := m.words[y*m.stride : (y+1)*m.stride]
		for i := range row {
			row[i] = ^row[i]
		}
		if tail != 0 {
			row[m.stride-1] &= (1 << tail) - 1
		}
	}
}

// SetRegion sets every bit of the width x height rectangle at (left, top).
func (m *BitMatrix) SetRegion(left, top, width, height int) {
	if left < 0 || top < 0 || width < 1 || height < 1 ||
		left+width > m.width || top+height > m.height {
		panic("bitutil: region outside matrix")
	}
	for y := top; y < top+height; y++ {
		for x := left; x < left+width; x++ {
			m.Set(x, y)
		}
	}
}

// Transpose mirrors a square matrix about its main diagonal in place.
func (m *BitMatrix) Transpose() {
	if m.width != m.height {
		panic("bitutil: transpose of non-square matrix")
	}
	for x := 0; x < m.width; x++ {
		for y := x + 1; y < m.height; y++ {
			a, b := m.Get(x, y), m.Get(y, x)
			if a != b {
				m.Flip(x, y)
				m.Flip(y, x)
			}
		}
	}
}

// TopLeftOnBit returns the first set bit in row-major order.
func (m *BitMatrix) TopLeftOnBit() (x, y int, ok bool) {
	for i, w := range m.words {
		if w != 0 {
			return (i%m.stride)*wordBits + bits.TrailingZeros64(w), i / m.stride, true
		}
	}
	return 0, 0, false
}

// BottomRightOnBit returns the last set bit in row-major order.
func (m *BitMatrix) BottomRightOnBit() (x, y int, ok bool) {
	for i := len(m.words) - 1; i >= 0; i-- {
		if w := m.words[i]; w != 0 {
			return (i%m.stride)*wordBits + wordBits - 1 - bits.LeadingZeros64(w), i / m.stride, true
		}
	}
	return 0, 0, false
}

// CountSet returns the number of black bits.
func (m *BitMatrix) CountSet() int {
	n := 0
	for _, w := range m.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Width returns the number of columns.
func (m *BitMatrix) Width() int { return m.width }

// Height returns the number of rows.
func (m *BitMatrix) Height() int { return m.height }

// Clone returns an independent copy.
func (m *BitMatrix) Clone() *BitMatrix {
	c := *m
	c.words = append([]uint64(nil), m.words...)
	return &c
}

// Equal reports whether both matrices have the same size and bits.
func (m *BitMatrix) Equal(o *BitMatrix) bool {
	if m.width != o.width || m.height != o.height {
		return false
	}
	for i := range m.words {
		if m.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// String renders the matrix with "#" for black and "." for white.
func (m *BitMatrix) String() string {
	var sb strings.Builder
	sb.Grow(m.height * (m.width + 1))
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.Get(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
