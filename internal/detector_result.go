package internal

import (
	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/bitutil"
)

// DetectorResult is a sampled module grid together with where it was found.
type DetectorResult struct {
	Bits *bitutil.BitMatrix
	// Points are the bottom-left, top-left and top-right finder centers,
	// then the alignment pattern center if one was found.
	Points []qrscan.ResultPoint
	// Corners are the outer symbol corners: top-left, top-right,
	// bottom-right, bottom-left.
	Corners [4]qrscan.ResultPoint
	Version int
}
