package decoder

import (
	"fmt"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
	"github.com/ericlevine/qrscan/internal"
	"github.com/ericlevine/qrscan/reedsolomon"
)

// Options controls text decoding.
type Options struct {
	// CharacterSet is used for byte segments without an ECI. Empty means
	// guess per segment.
	CharacterSet string
	// DecodeURLs percent-decodes text that contains a URL.
	DecodeURLs bool
}

// Decoder decodes sampled QR module grids. It holds no per-call state and is
// safe for concurrent use.
type Decoder struct {
	rs *reedsolomon.Decoder
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{rs: reedsolomon.NewDecoder(reedsolomon.QRField)}
}

// Decode decodes a square module grid, black meaning dark. If the grid does
// not decode as is, it is transposed and decoded once more to read symbols
// printed mirrored; the error of the first attempt is returned if both fail.
func (d *Decoder) Decode(bits *bitutil.BitMatrix, opts Options) (*internal.DecoderResult, error) {
	r, err := d.decode(bits, opts)
	if err == nil {
		return r, nil
	}
	if bits.Width() != bits.Height() {
		return nil, err
	}
	mirrored := bits.Clone()
	mirrored.Transpose()
	r, mirrorErr := d.decode(mirrored, opts)
	if mirrorErr != nil {
		return nil, err
	}
	r.Mirrored = true
	return r, nil
}

func (d *Decoder) decode(bits *bitutil.BitMatrix, opts Options) (*internal.DecoderResult, error) {
	p, err := NewBitMatrixParser(bits)
	if err != nil {
		return nil, err
	}
	v, err := p.ReadVersion()
	if err != nil {
		return nil, err
	}
	fi, err := p.ReadFormatInfo()
	if err != nil {
		return nil, err
	}
	codewords, err := p.ReadCodewords()
	if err != nil {
		return nil, err
	}

	blocks := SplitDataBlocks(codewords, v, fi.ECLevel)
	data := make([]byte, 0, v.ECBlocks(fi.ECLevel).NumDataCodewords())
	corrected := 0
	for i, b := range blocks {
		n, err := d.correct(b)
		if err != nil {
			return nil, fmt.Errorf("block %d of %d: %w", i+1, len(blocks), err)
		}
		corrected += n
		data = append(data, b.Codewords[:b.NumDataCodewords]...)
	}

	r, err := DecodeBitStream(data, v, fi.ECLevel, opts.CharacterSet)
	if err != nil {
		return nil, err
	}
	r.ErrorsCorrected = corrected
	if opts.DecodeURLs {
		r.Text = DecodeURLText(r.Text)
	}
	return r, nil
}

// correct repairs a block in place and returns the number of codewords
// changed.
func (d *Decoder) correct(b DataBlock) (int, error) {
	n, err := d.rs.Decode(b.Codewords, len(b.Codewords)-b.NumDataCodewords)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", qrscan.ErrUncorrectableBlock, err)
	}
	return n, nil
}
