// Package internal holds the values passed between the detector, the decoder
// and the reader.
package internal

// Segment describes one decoded segment of the bitstream.
type Segment struct {
	Mode string `json:"mode"`
	// Count is the character count field, or the designator for ECI
	// segments.
	Count int `json:"count"`
	// Bits is the number of bits the segment occupied, header included.
	Bits int `json:"bits"`
}

// DecoderResult is the outcome of decoding a module grid.
type DecoderResult struct {
	RawBytes        []byte
	Text            string
	ByteSegments    [][]byte
	Segments        []Segment
	Version         int
	ECLevel         string
	ErrorsCorrected int
	// Mirrored is set when the grid only decoded after transposing.
	Mirrored bool

	StructuredAppendSequence int
	StructuredAppendParity   int
	SymbologyModifier        int
}

// NewDecoderResult returns a result with no structured append information.
func NewDecoderResult(rawBytes []byte, text string) *DecoderResult {
	return &DecoderResult{
		RawBytes:                 rawBytes,
		Text:                     text,
		StructuredAppendSequence: -1,
		StructuredAppendParity:   -1,
	}
}

// HasStructuredAppend reports whether the symbol is part of a sequence.
func (d *DecoderResult) HasStructuredAppend() bool {
	return d.StructuredAppendParity >= 0 && d.StructuredAppendSequence >= 0
}
