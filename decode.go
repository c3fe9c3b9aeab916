package qrscan

import (
	"fmt"
	"image"
	"strings"
)

// InversionMode selects which polarities of the image are tried.
type InversionMode int

const (
	// InversionOriginal decodes dark modules on a light background only.
	InversionOriginal InversionMode = iota
	// InversionInvert decodes light modules on a dark background only.
	InversionInvert
	// InversionBoth tries the original first, then the inverted image.
	InversionBoth
)

func (m InversionMode) String() string {
	switch m {
	case InversionOriginal:
		return "original"
	case InversionInvert:
		return "invert"
	case InversionBoth:
		return "both"
	default:
		return fmt.Sprintf("InversionMode(%d)", int(m))
	}
}

// ParseInversionMode parses the names produced by InversionMode.String.
func ParseInversionMode(s string) (InversionMode, error) {
	switch strings.ToLower(s) {
	case "", "original":
		return InversionOriginal, nil
	case "invert", "inverted":
		return InversionInvert, nil
	case "both":
		return InversionBoth, nil
	}
	return 0, fmt.Errorf("unknown inversion mode %q", s)
}

// Attempts lists the polarities to try, in order; true means inverted.
func (m InversionMode) Attempts() []bool {
	switch m {
	case InversionInvert:
		return []bool{true}
	case InversionBoth:
		return []bool{false, true}
	default:
		return []bool{false}
	}
}

// ScanRegion restricts decoding to a rectangle of the source image. When
// DownScaledWidth and DownScaledHeight are set the region is resampled to
// that size before decoding; corner points are always reported in source
// coordinates.
type ScanRegion struct {
	X, Y             int
	Width, Height    int
	DownScaledWidth  int
	DownScaledHeight int
}

// Rect returns the region clipped to an image of the given size. A zero
// Width or Height extends the region to the image edge.
func (r ScanRegion) Rect(width, height int) image.Rectangle {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = width - r.X
	}
	if h <= 0 {
		h = height - r.Y
	}
	return image.Rect(r.X, r.Y, r.X+w, r.Y+h).Intersect(image.Rect(0, 0, width, height))
}

// DecodeOptions configures decoding. The zero value decodes the full frame
// with default grayscale weights and original polarity.
type DecodeOptions struct {
	// GrayscaleWeights override the luma conversion factors.
	GrayscaleWeights GrayscaleWeights

	// Inversion selects which polarities to try.
	Inversion InversionMode

	// ScanRegion restricts decoding to part of the image.
	ScanRegion *ScanRegion

	// AlsoTryWithoutScanRegion retries on the full frame when decoding the
	// scan region fails.
	AlsoTryWithoutScanRegion bool

	// PureBarcode hints that the image contains only the symbol with minimal
	// border and no rotation.
	PureBarcode bool

	// TryHarder enables spending more time looking for finder patterns.
	TryHarder bool

	// CharacterSet specifies the character set of byte segments without an
	// ECI. Empty means guess.
	CharacterSet string

	// DecodeURLs percent-decodes the text when it looks like an absolute URL.
	DecodeURLs bool
}
