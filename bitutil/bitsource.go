package bitutil

import (
	"errors"
	"fmt"
)

// ErrShortRead is returned when more bits are requested than remain.
var ErrShortRead = errors.New("bitutil: not enough bits")

// BitSource reads big-endian bit fields from a byte slice: the most
// significant bit of the first byte comes out first.
type BitSource struct {
	data []byte
	pos  int // in bits
}

// NewBitSource wraps data without copying it.
func NewBitSource(data []byte) *BitSource {
	return &BitSource{data: data}
}

// Available returns the number of unread bits.
func (s *BitSource) Available() int {
	return 8*len(s.data) - s.pos
}

// Position returns the number of bits consumed so far.
func (s *BitSource) Position() int {
	return s.pos
}

// ReadBits consumes n bits, 1 <= n <= 32, and returns them right aligned.
func (s *BitSource) ReadBits(n int) (int, error) {
	if n < 1 || n > 32 {
		return 0, fmt.Errorf("bitutil: cannot read %d bits at once", n)
	}
	if n > s.Available() {
		return 0, fmt.Errorf("%w: want %d, have %d", ErrShortRead, n, s.Available())
	}
	v := 0
	for n > 0 {
		byteIdx, bitIdx := s.pos/8, s.pos%8
		take := 8 - bitIdx
		if take > n {
			take = n
		}
		chunk := int(s.data[byteIdx]>>uint(8-bitIdx-take)) & (1<<uint(take) - 1)
		v = v<<uint(take) | chunk
		s.pos += take
		n -= take
	}
	return v, nil
}
