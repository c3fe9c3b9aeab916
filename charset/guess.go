package charset

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DecodeBytes converts data in the named character set to a UTF-8 string.
// Unknown names are treated as ISO-8859-1. Bytes the decoder rejects are
// replaced with U+FFFD by the underlying decoder.
func DecodeBytes(data []byte, name string) string {
	e := ByName(name)
	if e == nil {
		e = byName["iso-8859-1"]
	}
	if e.Encoding == nil {
		return string(data)
	}
	out, _, err := transform.Bytes(e.Encoding.NewDecoder(), data)
	if err != nil {
		out, _, _ = transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
	}
	return string(out)
}

// DecodeShiftJIS decodes double-byte Shift_JIS as produced by Kanji segments.
func DecodeShiftJIS(data []byte) (string, error) {
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	return string(out), err
}

// DecodeGB2312 decodes double-byte GB2312 as produced by Hanzi segments.
func DecodeGB2312(data []byte) (string, error) {
	out, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), data)
	return string(out), err
}

// sjisStats tracks whether a byte stream can be Shift_JIS and how Japanese it
// looks.
type sjisStats struct {
	ok            bool
	pending       int
	katakana      int
	katakanaRun   int
	maxKatakana   int
	doubleByteRun int
	maxDoubleByte int
}

func (s *sjisStats) feed(b byte) {
	switch {
	case s.pending > 0:
		if b < 0x40 || b == 0x7F || b > 0xFC {
			s.ok = false
			return
		}
		s.pending--
	case b == 0x80 || b == 0xA0 || b > 0xEF:
		s.ok = false
	case b > 0xA0 && b < 0xE0:
		s.katakana++
		s.doubleByteRun = 0
		s.katakanaRun++
		s.maxKatakana = max(s.maxKatakana, s.katakanaRun)
	case b > 0x7F:
		s.pending++
		s.katakanaRun = 0
		s.doubleByteRun++
		s.maxDoubleByte = max(s.maxDoubleByte, s.doubleByteRun)
	default:
		s.katakanaRun = 0
		s.doubleByteRun = 0
	}
}

// GuessEncoding picks the most plausible character set for a byte segment
// without an ECI: UTF-16 if a byte order mark is present, then UTF-8 with
// multi-byte sequences, then Shift_JIS with long Japanese runs, then
// ISO-8859-1. The result is a name accepted by DecodeBytes.
func GuessEncoding(data []byte) string {
	if len(data) > 2 && (data[0] == 0xFE && data[1] == 0xFF || data[0] == 0xFF && data[1] == 0xFE) {
		return "UTF-16"
	}

	isUTF8 := utf8.Valid(data)
	multiByte := false
	if isUTF8 {
		for _, b := range data {
			if b >= 0x80 {
				multiByte = true
				break
			}
		}
	}
	utf8BOM := len(data) > 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF

	isLatin1 := true
	latin1Other := 0
	sjis := sjisStats{ok: true}
	for _, b := range data {
		if isLatin1 {
			if b > 0x7F && b < 0xA0 {
				isLatin1 = false
			} else if b > 0x9F && (b < 0xC0 || b == 0xD7 || b == 0xF7) {
				latin1Other++
			}
		}
		if sjis.ok {
			sjis.feed(b)
		}
		if !isLatin1 && !sjis.ok {
			break
		}
	}
	if sjis.pending > 0 {
		sjis.ok = false
	}

	switch {
	case isUTF8 && (utf8BOM || multiByte):
		return "UTF-8"
	case sjis.ok && (sjis.maxKatakana >= 3 || sjis.maxDoubleByte >= 3):
		return "Shift_JIS"
	case isLatin1 && sjis.ok:
		if sjis.maxKatakana == 2 && sjis.katakana == 2 || latin1Other*10 >= len(data) {
			return "Shift_JIS"
		}
		return "ISO-8859-1"
	case isLatin1:
		return "ISO-8859-1"
	case sjis.ok:
		return "Shift_JIS"
	}
	return "UTF-8"
}
