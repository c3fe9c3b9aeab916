// Package qrcode runs the full pipeline from image to decoded QR payload.
package qrcode

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/binarizer"
	"github.com/ericlevine/qrscan/bitutil"
	"github.com/ericlevine/qrscan/internal"
	"github.com/ericlevine/qrscan/qrcode/decoder"
	"github.com/ericlevine/qrscan/qrcode/detector"
)

// Reader decodes QR symbols. It holds no per-call state and is safe for
// concurrent use.
type Reader struct {
	dec *decoder.Decoder
}

// NewReader creates a new QR code Reader.
func NewReader() *Reader {
	return &Reader{dec: decoder.NewDecoder()}
}

// Decode decodes a row-major RGBA buffer of width*height*4 bytes.
func Decode(pixels []byte, width, height int, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	return NewReader().Decode(pixels, width, height, opts)
}

// Decode decodes a row-major RGBA buffer of width*height*4 bytes. Luma is
// computed by qrscan.Grayscale, which ignores alpha.
func (r *Reader) Decode(pixels []byte, width, height int, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	if opts == nil {
		opts = &qrscan.DecodeOptions{}
	}
	src, err := qrscan.NewRGBASource(pixels, width, height, opts.GrayscaleWeights)
	if err != nil {
		return nil, err
	}
	return r.decodeLuma(src, opts)
}

// DecodeImage decodes any image. Fully transparent pixels are treated as
// white. Points in the result are relative to the image's bounds origin.
func (r *Reader) DecodeImage(img image.Image, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	if opts == nil {
		opts = &qrscan.DecodeOptions{}
	}
	src, err := qrscan.NewImageSource(img, opts.GrayscaleWeights)
	if err != nil {
		return nil, err
	}
	return r.decodeLuma(src, opts)
}

// DecodeBitmap decodes an already binarized image, black meaning dark.
func (r *Reader) DecodeBitmap(matrix *bitutil.BitMatrix, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	if opts == nil {
		opts = &qrscan.DecodeOptions{}
	}
	var firstErr error
	for _, inverted := range opts.Inversion.Attempts() {
		m := matrix
		if inverted {
			m = matrix.Clone()
			m.FlipAll()
		}
		result, err := r.decodeMatrix(m, opts)
		if err == nil {
			return result, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func (r *Reader) decodeLuma(src *qrscan.LumaSource, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	if opts.ScanRegion == nil {
		return r.decodeFrame(src, opts)
	}
	result, err := r.decodeRegion(src, *opts.ScanRegion, opts)
	if err == nil || !opts.AlsoTryWithoutScanRegion {
		return result, err
	}
	if result, fullErr := r.decodeFrame(src, opts); fullErr == nil {
		return result, nil
	}
	return nil, err
}

func (r *Reader) decodeFrame(src *qrscan.LumaSource, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	var firstErr error
	for _, inverted := range opts.Inversion.Attempts() {
		s := src
		if inverted {
			s = src.Invert()
		}
		result, err := r.decodeSource(s, opts)
		if err == nil {
			return result, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// decodeRegion crops the scan region out of the luma plane, optionally
// downscales it, decodes it and maps the result points back to image
// coordinates. The downscaled size may not exceed the region.
func (r *Reader) decodeRegion(src *qrscan.LumaSource, region qrscan.ScanRegion, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	width, height := src.Width(), src.Height()
	rect := region.Rect(width, height)
	if rect.Empty() {
		return nil, fmt.Errorf("%w: scan region %+v outside %dx%d image", qrscan.ErrBinarizationFailed, region, width, height)
	}
	w, h := rect.Dx(), rect.Dy()
	if region.DownScaledWidth > 0 && region.DownScaledHeight > 0 {
		if region.DownScaledWidth > w || region.DownScaledHeight > h {
			return nil, fmt.Errorf("%w: downscaled size %dx%d exceeds %dx%d scan region",
				qrscan.ErrBinarizationFailed, region.DownScaledWidth, region.DownScaledHeight, w, h)
		}
		w, h = region.DownScaledWidth, region.DownScaledHeight
	}

	plane := &image.Gray{Pix: src.Matrix(), Stride: width, Rect: image.Rect(0, 0, width, height)}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == rect.Dx() && h == rect.Dy() {
		draw.Draw(dst, dst.Bounds(), plane, rect.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), plane, rect, draw.Src, nil)
	}
	cropped, err := qrscan.NewLumaSource(dst.Pix, w, h)
	if err != nil {
		return nil, err
	}

	result, err := r.decodeFrame(cropped, opts)
	if err != nil {
		return nil, err
	}
	sx := float64(rect.Dx()) / float64(w)
	sy := float64(rect.Dy()) / float64(h)
	toSource := func(p qrscan.ResultPoint) qrscan.ResultPoint {
		return qrscan.ResultPoint{X: p.X*sx + float64(rect.Min.X), Y: p.Y*sy + float64(rect.Min.Y)}
	}
	for i, p := range result.CornerPoints {
		result.CornerPoints[i] = toSource(p)
	}
	for i, p := range result.FinderPoints {
		result.FinderPoints[i] = toSource(p)
	}
	return result, nil
}

func (r *Reader) decodeSource(src qrscan.LuminanceSource, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	matrix, err := binarizer.NewBlock(src).BlackMatrix()
	if err != nil {
		return nil, err
	}
	return r.decodeMatrix(matrix, opts)
}

func (r *Reader) decodeMatrix(matrix *bitutil.BitMatrix, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	decodeOpts := decoder.Options{CharacterSet: opts.CharacterSet, DecodeURLs: opts.DecodeURLs}

	if opts.PureBarcode {
		pure, err := extractPureBits(matrix)
		if err != nil {
			return nil, err
		}
		dr, err := r.dec.Decode(pure.bits, decodeOpts)
		if err != nil {
			return nil, err
		}
		return newResult(dr, pure.corners, nil), nil
	}

	det, err := detector.NewDetector(matrix).Detect(opts.TryHarder)
	if err != nil {
		return nil, err
	}
	dr, err := r.dec.Decode(det.Bits, decodeOpts)
	if err != nil {
		return nil, err
	}
	return newResult(dr, det.Corners, det.Points), nil
}

func newResult(dr *internal.DecoderResult, corners [4]qrscan.ResultPoint, finders []qrscan.ResultPoint) *qrscan.Result {
	if dr.Mirrored {
		// The grid was decoded transposed, which swaps the symbol's
		// top-right and bottom-left.
		corners[1], corners[3] = corners[3], corners[1]
		if len(finders) >= 3 {
			finders[0], finders[2] = finders[2], finders[0]
		}
	}

	result := qrscan.NewResult(dr.Text, dr.RawBytes)
	result.CornerPoints = corners
	result.FinderPoints = finders
	result.Version = dr.Version
	result.ECLevel = dr.ECLevel
	result.ErrorsCorrected = dr.ErrorsCorrected

	if len(dr.ByteSegments) > 0 {
		result.PutMetadata(qrscan.MetadataByteSegments, dr.ByteSegments)
	}
	result.PutMetadata(qrscan.MetadataErrorCorrectionLevel, dr.ECLevel)
	result.PutMetadata(qrscan.MetadataErrorsCorrected, dr.ErrorsCorrected)
	if dr.HasStructuredAppend() {
		result.PutMetadata(qrscan.MetadataStructuredAppendSequence, dr.StructuredAppendSequence)
		result.PutMetadata(qrscan.MetadataStructuredAppendParity, dr.StructuredAppendParity)
	}
	result.PutMetadata(qrscan.MetadataSymbologyIdentifier, fmt.Sprintf("]Q%d", dr.SymbologyModifier))
	if dr.Mirrored {
		result.PutMetadata(qrscan.MetadataMirrored, true)
	}
	if len(dr.Segments) > 0 {
		result.PutMetadata(qrscan.MetadataSegments, dr.Segments)
	}
	return result
}
