package decoder

import "github.com/ericlevine/qrscan/bitutil"

// maskBit reports whether data mask pattern mask inverts the module at the
// given row and column.
func maskBit(mask, row, col int) bool {
	switch mask {
	case 0:
		return (row+col)%2 == 0
	case 1:
		return row%2 == 0
	case 2:
		return col%3 == 0
	case 3:
		return (row+col)%3 == 0
	case 4:
		return (row/2+col/3)%2 == 0
	case 5:
		return row*col%2+row*col%3 == 0
	case 6:
		return (row*col%2+row*col%3)%2 == 0
	case 7:
		return ((row+col)%2+row*col%3)%2 == 0
	}
	panic("decoder: data mask out of range")
}

// Unmask flips every module selected by the data mask. Applying it twice
// restores the matrix.
func Unmask(m *bitutil.BitMatrix, mask int) {
	d := m.Height()
	for row := 0; row < d; row++ {
		for col := 0; col < d; col++ {
			if maskBit(mask, row, col) {
				m.Flip(col, row)
			}
		}
	}
}
