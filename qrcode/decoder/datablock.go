package decoder

// DataBlock is one error correction block: data codewords followed by check
// codewords.
type DataBlock struct {
	NumDataCodewords int
	Codewords        []byte
}

// SplitDataBlocks undoes the codeword interleaving. Data codewords are
// interleaved across all blocks, with the extra codeword of the longer blocks
// after the rest; the check codewords follow, interleaved the same way.
// raw must hold exactly version.TotalCodewords bytes.
func SplitDataBlocks(raw []byte, v *Version, level ErrorCorrectionLevel) []DataBlock {
	ec := v.ECBlocks(level)
	blocks := make([]DataBlock, 0, ec.NumBlocks())
	for _, g := range ec.Groups {
		for i := 0; i < g.Count; i++ {
			blocks = append(blocks, DataBlock{
				NumDataCodewords: g.DataCodewords,
				Codewords:        make([]byte, g.DataCodewords+ec.ECCodewordsPerBlock),
			})
		}
	}

	shortData := blocks[0].NumDataCodewords
	pos := 0
	for i := 0; i < shortData; i++ {
		for b := range blocks {
			blocks[b].Codewords[i] = raw[pos]
			pos++
		}
	}
	for b := range blocks {
		if blocks[b].NumDataCodewords > shortData {
			blocks[b].Codewords[shortData] = raw[pos]
			pos++
		}
	}
	for i := 0; i < ec.ECCodewordsPerBlock; i++ {
		for b := range blocks {
			blocks[b].Codewords[blocks[b].NumDataCodewords+i] = raw[pos]
			pos++
		}
	}
	return blocks
}
