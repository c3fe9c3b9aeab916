package qrscan

import "errors"

// Every failure the decoding pipeline expects is one of these values, possibly
// wrapped with context. Use errors.Is to test for them.
var (
	// ErrBinarizationFailed is returned for empty or degenerate images.
	ErrBinarizationFailed = errors.New("binarization failed")

	// ErrFinderPatternNotFound is returned when three finder patterns forming
	// a plausible symbol corner triangle could not be located.
	ErrFinderPatternNotFound = errors.New("finder pattern not found")

	// ErrInvalidVersion is returned when the estimated module count does not
	// correspond to a version between 1 and 40.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrModuleSamplingOutOfBounds is returned when a module center maps to a
	// point outside the image.
	ErrModuleSamplingOutOfBounds = errors.New("module sampling out of bounds")

	// ErrFormatInfoUnrecoverable is returned when neither copy of the format
	// information is within correction distance of a valid codeword.
	ErrFormatInfoUnrecoverable = errors.New("format information unrecoverable")

	// ErrUncorrectableBlock is returned when a codeword block has more errors
	// than Reed-Solomon correction can repair.
	ErrUncorrectableBlock = errors.New("uncorrectable block")

	// ErrMalformedBitstream is returned for unknown segment modes and
	// segments that run past the end of the data.
	ErrMalformedBitstream = errors.New("malformed bitstream")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrBinarizationFailed, "BinarizationFailed"},
	{ErrFinderPatternNotFound, "FinderPatternNotFound"},
	{ErrInvalidVersion, "InvalidVersion"},
	{ErrModuleSamplingOutOfBounds, "ModuleSamplingOutOfBounds"},
	{ErrFormatInfoUnrecoverable, "FormatInfoUnrecoverable"},
	{ErrUncorrectableBlock, "UncorrectableBlock"},
	{ErrMalformedBitstream, "MalformedBitstream"},
}

// ErrorKind returns the stable name of the pipeline error wrapped by err, or
// "" if err is not one of them.
func ErrorKind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return ""
}
