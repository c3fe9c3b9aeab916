// Package charset maps Extended Channel Interpretation designators to text
// encodings and decodes QR byte segments to UTF-8.
package charset

import (
	"errors"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// ErrUnknownECI is returned for ECI designators outside 0..999999 or ones
// with no known character set.
var ErrUnknownECI = errors.New("charset: unknown ECI designator")

// ECI is a character set selectable by an ECI segment.
type ECI struct {
	// Values are the ECI designators that select this character set.
	Values []int
	// Name is the canonical name returned by GuessEncoding and accepted by
	// DecodeBytes.
	Name    string
	Aliases []string
	// Encoding is nil for UTF-8 and ASCII, which need no conversion.
	Encoding encoding.Encoding
}

var ecis = []*ECI{
	{Values: []int{0, 2}, Name: "Cp437", Aliases: []string{"IBM437"}, Encoding: charmap.CodePage437},
	{Values: []int{1, 3}, Name: "ISO-8859-1", Aliases: []string{"ISO8859_1", "latin1"}, Encoding: charmap.ISO8859_1},
	{Values: []int{4}, Name: "ISO-8859-2", Aliases: []string{"ISO8859_2"}, Encoding: charmap.ISO8859_2},
	{Values: []int{5}, Name: "ISO-8859-3", Aliases: []string{"ISO8859_3"}, Encoding: charmap.ISO8859_3},
	{Values: []int{6}, Name: "ISO-8859-4", Aliases: []string{"ISO8859_4"}, Encoding: charmap.ISO8859_4},
	{Values: []int{7}, Name: "ISO-8859-5", Aliases: []string{"ISO8859_5"}, Encoding: charmap.ISO8859_5},
	{Values: []int{8}, Name: "ISO-8859-6", Aliases: []string{"ISO8859_6"}, Encoding: charmap.ISO8859_6},
	{Values: []int{9}, Name: "ISO-8859-7", Aliases: []string{"ISO8859_7"}, Encoding: charmap.ISO8859_7},
	{Values: []int{10}, Name: "ISO-8859-8", Aliases: []string{"ISO8859_8"}, Encoding: charmap.ISO8859_8},
	{Values: []int{11}, Name: "ISO-8859-9", Aliases: []string{"ISO8859_9"}, Encoding: charmap.ISO8859_9},
	{Values: []int{12}, Name: "ISO-8859-10", Aliases: []string{"ISO8859_10"}, Encoding: charmap.ISO8859_10},
	{Values: []int{13}, Name: "ISO-8859-11", Aliases: []string{"ISO8859_11"}, Encoding: charmap.Windows874},
	{Values: []int{15}, Name: "ISO-8859-13", Aliases: []string{"ISO8859_13"}, Encoding: charmap.ISO8859_13},
	{Values: []int{16}, Name: "ISO-8859-14", Aliases: []string{"ISO8859_14"}, Encoding: charmap.ISO8859_14},
	{Values: []int{17}, Name: "ISO-8859-15", Aliases: []string{"ISO8859_15"}, Encoding: charmap.ISO8859_15},
	{Values: []int{18}, Name: "ISO-8859-16", Aliases: []string{"ISO8859_16"}, Encoding: charmap.ISO8859_16},
	{Values: []int{20}, Name: "Shift_JIS", Aliases: []string{"SJIS"}, Encoding: japanese.ShiftJIS},
	{Values: []int{21}, Name: "windows-1250", Aliases: []string{"Cp1250"}, Encoding: charmap.Windows1250},
	{Values: []int{22}, Name: "windows-1251", Aliases: []string{"Cp1251"}, Encoding: charmap.Windows1251},
	{Values: []int{23}, Name: "windows-1252", Aliases: []string{"Cp1252"}, Encoding: charmap.Windows1252},
	{Values: []int{24}, Name: "windows-1256", Aliases: []string{"Cp1256"}, Encoding: charmap.Windows1256},
	{Values: []int{25}, Name: "UTF-16BE", Aliases: []string{"UnicodeBig", "UnicodeBigUnmarked"}, Encoding: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
	{Values: []int{26}, Name: "UTF-8", Aliases: []string{"UTF8"}},
	{Values: []int{27, 170}, Name: "US-ASCII", Aliases: []string{"ASCII"}},
	{Values: []int{28}, Name: "Big5", Encoding: traditionalchinese.Big5},
	{Values: []int{29}, Name: "GB18030", Aliases: []string{"GB2312", "GBK", "EUC_CN"}, Encoding: simplifiedchinese.GB18030},
	{Values: []int{30}, Name: "EUC-KR", Aliases: []string{"EUC_KR"}, Encoding: korean.EUCKR},
}

var (
	byValue = make(map[int]*ECI)
	byName  = make(map[string]*ECI)
)

func init() {
	for _, e := range ecis {
		for _, v := range e.Values {
			byValue[v] = e
		}
		byName[strings.ToLower(e.Name)] = e
		for _, a := range e.Aliases {
			byName[strings.ToLower(a)] = e
		}
	}
	// UTF-16 with a byte order mark, as reported by GuessEncoding.
	byName["utf-16"] = &ECI{Name: "UTF-16", Encoding: unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)}
}

// ByValue returns the character set selected by an ECI designator.
func ByValue(value int) (*ECI, error) {
	if value < 0 || value > 999999 {
		return nil, ErrUnknownECI
	}
	e, ok := byValue[value]
	if !ok {
		return nil, ErrUnknownECI
	}
	return e, nil
}

// ByName looks up a character set by name or alias, case-insensitively. It
// returns nil for unknown names.
func ByName(name string) *ECI {
	return byName[strings.ToLower(name)]
}
