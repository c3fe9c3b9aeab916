package decoder

import (
	"errors"
	"testing"

	qrscan "github.com/ericlevine/qrscan"
)

// bitWriter packs values most significant bit first.
type bitWriter struct {
	buf  []byte
	nbit int
}

func (w *bitWriter) put(value, n int) *bitWriter {
	for i := n - 1; i >= 0; i-- {
		if w.nbit%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if value>>i&1 == 1 {
			w.buf[w.nbit/8] |= 0x80 >> (w.nbit % 8)
		}
		w.nbit++
	}
	return w
}

func (w *bitWriter) bytes() []byte {
	// Terminator, then zero padding to the byte boundary.
	return w.put(0, 4).buf
}

func mustVersion(t *testing.T, n int) *Version {
	t.Helper()
	v, err := VersionForNumber(n)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestDecodeBitStreamSegments(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		text     string
		modes    []string
		modifier int
	}{
		{
			name:     "numeric",
			data:     new(bitWriter).put(1, 4).put(8, 10).put(12, 10).put(345, 10).put(67, 7).bytes(),
			text:     "01234567",
			modes:    []string{"numeric"},
			modifier: 1,
		},
		{
			name:     "alphanumeric",
			data:     new(bitWriter).put(2, 4).put(3, 9).put(10*45+11, 11).put(36, 6).bytes(),
			text:     "AB ",
			modes:    []string{"alphanumeric"},
			modifier: 1,
		},
		{
			name:     "byte with ECI",
			data:     new(bitWriter).put(7, 4).put(26, 8).put(4, 4).put(2, 8).put(0xC3, 8).put(0xA9, 8).bytes(),
			text:     "é",
			modes:    []string{"ECI", "byte"},
			modifier: 2,
		},
		{
			name:     "kanji",
			data:     new(bitWriter).put(8, 4).put(1, 8).put(0x12*0xC0+0x1F, 13).bytes(),
			text:     "点",
			modes:    []string{"kanji"},
			modifier: 1,
		},
		{
			name:     "hanzi",
			data:     new(bitWriter).put(0xD, 4).put(1, 4).put(1, 8).put(0x0A*0x60, 13).bytes(),
			text:     "啊",
			modes:    []string{"hanzi"},
			modifier: 1,
		},
		{
			name: "FNC1 first position",
			data: new(bitWriter).put(5, 4).put(2, 4).put(5, 9).
				put(10*45+38, 11).put(11*45+38, 11).put(38, 6).bytes(),
			text:     "A\x1dB%",
			modes:    []string{"FNC1 first", "alphanumeric"},
			modifier: 3,
		},
		{
			name:     "FNC1 second position",
			data:     new(bitWriter).put(9, 4).put(37, 8).put(1, 4).put(2, 10).put(42, 7).bytes(),
			text:     "42",
			modes:    []string{"FNC1 second", "numeric"},
			modifier: 5,
		},
		{
			name:     "mixed",
			data:     new(bitWriter).put(1, 4).put(1, 10).put(7, 4).put(4, 4).put(1, 8).put('x', 8).bytes(),
			text:     "7x",
			modes:    []string{"numeric", "byte"},
			modifier: 1,
		},
	}
	v := mustVersion(t, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := DecodeBitStream(tt.data, v, ECLevelM, "")
			if err != nil {
				t.Fatal(err)
			}
			if r.Text != tt.text {
				t.Errorf("text = %q, want %q", r.Text, tt.text)
			}
			if len(r.Segments) != len(tt.modes) {
				t.Fatalf("segments = %+v, want modes %v", r.Segments, tt.modes)
			}
			for i, s := range r.Segments {
				if s.Mode != tt.modes[i] {
					t.Errorf("segment %d mode = %s, want %s", i, s.Mode, tt.modes[i])
				}
			}
			if r.SymbologyModifier != tt.modifier {
				t.Errorf("symbology modifier = %d, want %d", r.SymbologyModifier, tt.modifier)
			}
		})
	}
}

func TestDecodeBitStreamByteSegments(t *testing.T) {
	data := new(bitWriter).put(4, 4).put(3, 8).put('a', 8).put('b', 8).put('c', 8).bytes()
	r, err := DecodeBitStream(data, mustVersion(t, 1), ECLevelL, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.ByteSegments) != 1 || string(r.ByteSegments[0]) != "abc" {
		t.Errorf("byte segments = %q", r.ByteSegments)
	}
	if s := r.Segments[0]; s.Count != 3 || s.Bits != 4+8+24 {
		t.Errorf("segment = %+v", s)
	}
}

func TestDecodeBitStreamCharacterSet(t *testing.T) {
	// 0xE9 is é in ISO-8859-1 but a lone lead byte in UTF-8.
	data := new(bitWriter).put(4, 4).put(1, 8).put(0xE9, 8).bytes()
	r, err := DecodeBitStream(data, mustVersion(t, 1), ECLevelL, "ISO-8859-1")
	if err != nil {
		t.Fatal(err)
	}
	if r.Text != "é" {
		t.Errorf("text = %q", r.Text)
	}
}

func TestDecodeBitStreamStructuredAppend(t *testing.T) {
	data := new(bitWriter).put(3, 4).put(0x12, 8).put(0xAB, 8).put(1, 4).put(1, 10).put(9, 4).bytes()
	r, err := DecodeBitStream(data, mustVersion(t, 1), ECLevelL, "")
	if err != nil {
		t.Fatal(err)
	}
	if !r.HasStructuredAppend() || r.StructuredAppendSequence != 0x12 || r.StructuredAppendParity != 0xAB {
		t.Errorf("structured append = %d, %d", r.StructuredAppendSequence, r.StructuredAppendParity)
	}
	if r.Text != "9" {
		t.Errorf("text = %q", r.Text)
	}
}

func TestDecodeBitStreamCountWidthsByVersion(t *testing.T) {
	// Version 10 uses a 12-bit numeric count.
	data := new(bitWriter).put(1, 4).put(1, 12).put(5, 4).bytes()
	r, err := DecodeBitStream(data, mustVersion(t, 10), ECLevelL, "")
	if err != nil {
		t.Fatal(err)
	}
	if r.Text != "5" {
		t.Errorf("text = %q", r.Text)
	}
}

func TestDecodeBitStreamMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"unknown mode", new(bitWriter).put(6, 4).put(0, 12).bytes()},
		{"numeric triple", new(bitWriter).put(1, 4).put(3, 10).put(1000, 10).bytes()},
		{"numeric pair", new(bitWriter).put(1, 4).put(2, 10).put(100, 7).bytes()},
		{"alphanumeric value", new(bitWriter).put(2, 4).put(1, 9).put(45, 6).bytes()},
		{"byte overrun", new(bitWriter).put(4, 4).put(5, 8).put('a', 8).bytes()},
		{"truncated numeric", new(bitWriter).put(1, 4).put(9, 10).put(123, 10).buf},
		{"unknown ECI", new(bitWriter).put(7, 4).put(0x80|3, 8).put(0xE7, 8).bytes()},
		{"bad ECI designator", new(bitWriter).put(7, 4).put(0xE0, 8).bytes()},
		{"hanzi subset", new(bitWriter).put(0xD, 4).put(2, 4).put(1, 8).put(0, 13).bytes()},
	}
	v := mustVersion(t, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBitStream(tt.data, v, ECLevelL, "")
			if !errors.Is(err, qrscan.ErrMalformedBitstream) {
				t.Errorf("err = %v, want ErrMalformedBitstream", err)
			}
		})
	}
}

func TestFormatInfo(t *testing.T) {
	if got := FormatInfoBits(ECLevelM, 0); got != 0x5412 {
		t.Errorf("M/0 = %#x, want 0x5412", got)
	}
	if got := FormatInfoBits(ECLevelL, 0); got != 0x77C4 {
		t.Errorf("L/0 = %#x, want 0x77c4", got)
	}

	for level := ECLevelL; level <= ECLevelH; level++ {
		for mask := 0; mask < 8; mask++ {
			want := FormatInfo{ECLevel: level, DataMask: mask}
			word := FormatInfoBits(level, mask)
			if fi, err := DecodeFormatInfo(word, 0x000F); err != nil || fi != want {
				t.Errorf("exact %v: got %+v, %v", want, fi, err)
			}
			if fi, err := DecodeFormatInfo(0x000F, word^0x4021); err != nil || fi != want {
				t.Errorf("three flips %v: got %+v, %v", want, fi, err)
			}
		}
	}

	fi, err := DecodeFormatInfo(FormatInfoBits(ECLevelQ, 2)^formatInfoMask, FormatInfoBits(ECLevelQ, 2)^formatInfoMask)
	if err != nil || fi != (FormatInfo{ECLevel: ECLevelQ, DataMask: 2}) {
		t.Errorf("unmasked word: got %+v, %v", fi, err)
	}

	if _, err := DecodeFormatInfo(0x000F, 0x000F); !errors.Is(err, qrscan.ErrFormatInfoUnrecoverable) {
		t.Errorf("err = %v, want ErrFormatInfoUnrecoverable", err)
	}
}

func TestVersionInfo(t *testing.T) {
	for n, want := range map[int]int{7: 0x07C94, 8: 0x085BC, 40: 0x28C69} {
		if got := VersionInfoBits(n); got != want {
			t.Errorf("VersionInfoBits(%d) = %#x, want %#x", n, got, want)
		}
	}
	for n := 7; n <= 40; n++ {
		v, ok := DecodeVersionBits(VersionInfoBits(n) ^ 0x10101)
		if !ok || v.Number != n {
			t.Errorf("version %d with three flips decoded as %v, %v", n, v, ok)
		}
	}
}

func TestVersionForDimension(t *testing.T) {
	v, err := VersionForDimension(57)
	if err != nil || v.Number != 10 || v.Dimension() != 57 {
		t.Errorf("VersionForDimension(57) = %v, %v", v, err)
	}
	for _, d := range []int{19, 22, 181} {
		if _, err := VersionForDimension(d); !errors.Is(err, qrscan.ErrInvalidVersion) {
			t.Errorf("VersionForDimension(%d) err = %v", d, err)
		}
	}
	if _, err := VersionForNumber(41); !errors.Is(err, qrscan.ErrInvalidVersion) {
		t.Errorf("VersionForNumber(41) err = %v", err)
	}
}

func TestSplitDataBlocks(t *testing.T) {
	v := mustVersion(t, 5)
	raw := make([]byte, v.TotalCodewords)
	for i := range raw {
		raw[i] = byte(i)
	}
	blocks := SplitDataBlocks(raw, v, ECLevelQ)
	if len(blocks) != 4 {
		t.Fatalf("%d blocks, want 4", len(blocks))
	}
	for b, block := range blocks {
		wantData := 15
		if b >= 2 {
			wantData = 16
		}
		if block.NumDataCodewords != wantData || len(block.Codewords) != wantData+18 {
			t.Fatalf("block %d: %d data of %d", b, block.NumDataCodewords, len(block.Codewords))
		}
		for i := 0; i < 15; i++ {
			if got := block.Codewords[i]; got != byte(4*i+b) {
				t.Errorf("block %d data %d = %d, want %d", b, i, got, 4*i+b)
			}
		}
		if b >= 2 && block.Codewords[15] != byte(60+b-2) {
			t.Errorf("block %d long data = %d", b, block.Codewords[15])
		}
		for i := 0; i < 18; i++ {
			if got := block.Codewords[wantData+i]; got != byte(62+4*i+b) {
				t.Errorf("block %d check %d = %d, want %d", b, i, got, 62+4*i+b)
			}
		}
	}
}

func TestUnmaskIsInvolution(t *testing.T) {
	m := symbol(t, "MASK", 1, ECLevelL)
	for mask := 0; mask < 8; mask++ {
		c := m.Clone()
		Unmask(c, mask)
		if c.Equal(m) {
			t.Errorf("mask %d changed nothing", mask)
		}
		Unmask(c, mask)
		if !c.Equal(m) {
			t.Errorf("mask %d applied twice is not the identity", mask)
		}
	}
}
