package decoder

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
	"github.com/ericlevine/qrscan/charset"
	"github.com/ericlevine/qrscan/internal"
)

const alphanumericTable = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

const (
	hanziSubsetGB2312 = 1
	groupSeparator    = 0x1D
)

// bitstream holds the state of one DecodeBitStream call.
type bitstream struct {
	src          *bitutil.BitSource
	version      *Version
	characterSet string

	text         strings.Builder
	byteSegments [][]byte
	segments     []internal.Segment
	eci          *charset.ECI
	fnc1First    bool
	fnc1Second   bool
	saSequence   int
	saParity     int
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{qrscan.ErrMalformedBitstream}, args...)...)
}

func (b *bitstream) read(n int) (int, error) {
	v, err := b.src.ReadBits(n)
	if errors.Is(err, bitutil.ErrShortRead) {
		return 0, fmt.Errorf("%w: %v", qrscan.ErrMalformedBitstream, err)
	}
	return v, err
}

// DecodeBitStream decodes the concatenated data codewords of a symbol.
// characterSet applies to byte segments not preceded by an ECI; empty means
// guess per segment.
func DecodeBitStream(data []byte, v *Version, level ErrorCorrectionLevel, characterSet string) (*internal.DecoderResult, error) {
	b := &bitstream{
		src:          bitutil.NewBitSource(data),
		version:      v,
		characterSet: characterSet,
		saSequence:   -1,
		saParity:     -1,
	}
	for b.src.Available() >= 4 {
		start := b.src.Position()
		bits, err := b.read(4)
		if err != nil {
			return nil, err
		}
		mode, err := ModeForBits(bits)
		if err != nil {
			return nil, err
		}
		if mode == ModeTerminator {
			break
		}
		count, err := b.segment(mode)
		if err != nil {
			return nil, fmt.Errorf("%s segment at bit %d: %w", mode, start, err)
		}
		b.segments = append(b.segments, internal.Segment{
			Mode:  mode.String(),
			Count: count,
			Bits:  b.src.Position() - start,
		})
	}

	r := internal.NewDecoderResult(data, b.text.String())
	r.ByteSegments = b.byteSegments
	r.Segments = b.segments
	r.Version = v.Number
	r.ECLevel = level.String()
	r.StructuredAppendSequence = b.saSequence
	r.StructuredAppendParity = b.saParity
	r.SymbologyModifier = b.symbologyModifier()
	return r, nil
}

// segment decodes the body of one segment and returns its count field.
func (b *bitstream) segment(mode Mode) (int, error) {
	switch mode {
	case ModeFNC1FirstPosition:
		b.fnc1First = true
		return 0, nil
	case ModeFNC1SecondPosition:
		// The application indicator byte follows.
		ai, err := b.read(8)
		if err != nil {
			return 0, err
		}
		b.fnc1Second = true
		return ai, nil
	case ModeStructuredAppend:
		seq, err := b.read(8)
		if err != nil {
			return 0, err
		}
		parity, err := b.read(8)
		if err != nil {
			return 0, err
		}
		b.saSequence, b.saParity = seq, parity
		return seq, nil
	case ModeECI:
		value, err := b.eciDesignator()
		if err != nil {
			return 0, err
		}
		eci, err := charset.ByValue(value)
		if err != nil {
			return 0, malformed("ECI %d: %v", value, err)
		}
		b.eci = eci
		return value, nil
	case ModeHanzi:
		subset, err := b.read(4)
		if err != nil {
			return 0, err
		}
		if subset != hanziSubsetGB2312 {
			return 0, malformed("unsupported hanzi subset %d", subset)
		}
	}

	count, err := b.read(mode.CharacterCountBits(b.version))
	if err != nil {
		return 0, err
	}
	switch mode {
	case ModeNumeric:
		err = b.numeric(count)
	case ModeAlphanumeric:
		err = b.alphanumeric(count)
	case ModeByte:
		err = b.bytes(count)
	case ModeKanji:
		err = b.doubleByte(count, 0x0C0, 0x01F00, 0x08140, 0x0C140, charset.DecodeShiftJIS)
	case ModeHanzi:
		err = b.doubleByte(count, 0x060, 0x00A00, 0x0A1A1, 0x0A6A1, charset.DecodeGB2312)
	default:
		err = malformed("unexpected mode %s", mode)
	}
	return count, err
}

func (b *bitstream) eciDesignator() (int, error) {
	first, err := b.read(8)
	if err != nil {
		return 0, err
	}
	switch {
	case first&0x80 == 0:
		return first, nil
	case first&0xC0 == 0x80:
		rest, err := b.read(8)
		if err != nil {
			return 0, err
		}
		return (first&0x3F)<<8 | rest, nil
	case first&0xE0 == 0xC0:
		rest, err := b.read(16)
		if err != nil {
			return 0, err
		}
		return (first&0x1F)<<16 | rest, nil
	}
	return 0, malformed("bad ECI designator byte %#02x", first)
}

func (b *bitstream) numeric(count int) error {
	for ; count >= 3; count -= 3 {
		v, err := b.read(10)
		if err != nil {
			return err
		}
		if v >= 1000 {
			return malformed("numeric triple %d", v)
		}
		fmt.Fprintf(&b.text, "%03d", v)
	}
	switch count {
	case 2:
		v, err := b.read(7)
		if err != nil {
			return err
		}
		if v >= 100 {
			return malformed("numeric pair %d", v)
		}
		fmt.Fprintf(&b.text, "%02d", v)
	case 1:
		v, err := b.read(4)
		if err != nil {
			return err
		}
		if v >= 10 {
			return malformed("numeric digit %d", v)
		}
		b.text.WriteString(strconv.Itoa(v))
	}
	return nil
}

func alphanumericChar(v int) (byte, error) {
	if v >= len(alphanumericTable) {
		return 0, malformed("alphanumeric value %d", v)
	}
	return alphanumericTable[v], nil
}

func (b *bitstream) alphanumeric(count int) error {
	var seg []byte
	for ; count > 1; count -= 2 {
		v, err := b.read(11)
		if err != nil {
			return err
		}
		c1, err := alphanumericChar(v / 45)
		if err != nil {
			return err
		}
		c2, err := alphanumericChar(v % 45)
		if err != nil {
			return err
		}
		seg = append(seg, c1, c2)
	}
	if count == 1 {
		v, err := b.read(6)
		if err != nil {
			return err
		}
		c, err := alphanumericChar(v)
		if err != nil {
			return err
		}
		seg = append(seg, c)
	}
	if b.fnc1First || b.fnc1Second {
		// In GS1 data "%" stands for the group separator and "%%" for a
		// literal percent sign.
		out := seg[:0:0]
		for i := 0; i < len(seg); i++ {
			switch {
			case seg[i] != '%':
				out = append(out, seg[i])
			case i+1 < len(seg) && seg[i+1] == '%':
				out = append(out, '%')
				i++
			default:
				out = append(out, groupSeparator)
			}
		}
		seg = out
	}
	b.text.Write(seg)
	return nil
}

func (b *bitstream) bytes(count int) error {
	if 8*count > b.src.Available() {
		return malformed("byte segment of %d bytes with %d bits left", count, b.src.Available())
	}
	seg := make([]byte, count)
	for i := range seg {
		v, err := b.read(8)
		if err != nil {
			return err
		}
		seg[i] = byte(v)
	}
	var name string
	switch {
	case b.eci != nil:
		name = b.eci.Name
	case b.characterSet != "":
		name = b.characterSet
	default:
		name = charset.GuessEncoding(seg)
	}
	b.text.WriteString(charset.DecodeBytes(seg, name))
	b.byteSegments = append(b.byteSegments, seg)
	return nil
}

// doubleByte decodes Kanji and Hanzi segments, which pack each two-byte
// character into 13 bits as high*divisor+low after subtracting an offset
// chosen by the range the character falls in.
func (b *bitstream) doubleByte(count, divisor, split, lowOffset, highOffset int, decode func([]byte) (string, error)) error {
	if 13*count > b.src.Available() {
		return malformed("%d characters with %d bits left", count, b.src.Available())
	}
	buf := make([]byte, 0, 2*count)
	for i := 0; i < count; i++ {
		v, err := b.read(13)
		if err != nil {
			return err
		}
		assembled := (v/divisor)<<8 | v%divisor
		if assembled < split {
			assembled += lowOffset
		} else {
			assembled += highOffset
		}
		buf = append(buf, byte(assembled>>8), byte(assembled))
	}
	s, err := decode(buf)
	if err != nil {
		return malformed("double-byte text: %v", err)
	}
	b.text.WriteString(s)
	return nil
}

func (b *bitstream) symbologyModifier() int {
	m := 1
	switch {
	case b.fnc1First:
		m = 3
	case b.fnc1Second:
		m = 5
	}
	if b.eci != nil {
		m++
	}
	return m
}

var urlPattern = regexp.MustCompile(`(ftp|http|https)://(\w+:?\w*@)?(\S+)(:[0-9]+)?(/|/([\w#!:.?+=&%@\-/]))?`)

// DecodeURLText percent-decodes s if it contains an ftp, http or https URL.
// Text that does not unescape cleanly is returned unchanged.
func DecodeURLText(s string) string {
	if !urlPattern.MatchString(s) {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
