package qrscan

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// GrayscaleWeights are the integer factors of the luma conversion
//
//	luma = (Red*R + Blue*G + Green*B + 128) >> 8
//
// Blue scales the green channel and Green scales the blue channel. The field
// names are kept from the historical configuration format so that existing
// weight tables produce the same luma; the default is BT.601.
type GrayscaleWeights struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

// DefaultGrayscaleWeights are the BT.601 luma coefficients scaled to 256.
var DefaultGrayscaleWeights = GrayscaleWeights{Red: 77, Blue: 150, Green: 29}

// IsZero reports whether no weight is set.
func (w GrayscaleWeights) IsZero() bool {
	return w.Red == 0 && w.Green == 0 && w.Blue == 0
}

// Validate checks that the weights are non-negative and sum to 256.
func (w GrayscaleWeights) Validate() error {
	if w.Red < 0 || w.Green < 0 || w.Blue < 0 {
		return fmt.Errorf("grayscale weights must be non-negative: %+v", w)
	}
	if sum := w.Red + w.Green + w.Blue; sum != 256 {
		return fmt.Errorf("grayscale weights must sum to 256, got %d", sum)
	}
	return nil
}

func (w GrayscaleWeights) orDefault() GrayscaleWeights {
	if w.IsZero() {
		return DefaultGrayscaleWeights
	}
	return w
}

// Grayscale converts a row-major RGBA buffer into one luma byte per pixel.
// Zero weights select DefaultGrayscaleWeights. The alpha channel is ignored,
// so a transparent black pixel has luma 0.
func Grayscale(pixels []byte, width, height int, weights GrayscaleWeights) ([]byte, error) {
	if width <= 0 || height <= 0 || width > math.MaxInt/4/height {
		return nil, fmt.Errorf("%w: %dx%d image", ErrBinarizationFailed, width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes of RGBA for a %dx%d image", ErrBinarizationFailed, len(pixels), width, height)
	}
	w := weights.orDefault()
	luma := make([]byte, width*height)
	for i := range luma {
		p := pixels[4*i : 4*i+3 : 4*i+3]
		v := (w.Red*int(p[0]) + w.Blue*int(p[1]) + w.Green*int(p[2]) + 128) >> 8
		if v > 255 {
			v = 255
		}
		luma[i] = byte(v)
	}
	return luma, nil
}

// RGBAPixels flattens img into a non-premultiplied RGBA buffer. Fully
// transparent pixels become opaque white.
func RGBAPixels(img image.Image) (pixels []byte, width, height int) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	pixels = make([]byte, 4*width*height)
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < height; y++ {
			off := (b.Min.Y+y-src.Rect.Min.Y)*src.Stride + (b.Min.X-src.Rect.Min.X)*4
			copy(pixels[4*y*width:4*(y+1)*width], src.Pix[off:off+4*width])
		}
		whitenTransparent(pixels)
		return pixels, width, height
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = c.R, c.G, c.B, c.A
			i += 4
		}
	}
	whitenTransparent(pixels)
	return pixels, width, height
}

func whitenTransparent(pixels []byte) {
	for i := 0; i < len(pixels); i += 4 {
		if pixels[i+3] == 0 {
			pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = 0xff, 0xff, 0xff, 0xff
		}
	}
}

// LumaSource is an in-memory LuminanceSource. It is never modified after
// construction.
type LumaSource struct {
	luma   []byte
	width  int
	height int
}

// NewLumaSource wraps an existing luma buffer.
func NewLumaSource(luma []byte, width, height int) (*LumaSource, error) {
	if width <= 0 || height <= 0 || width > math.MaxInt/height || len(luma) != width*height {
		return nil, fmt.Errorf("%w: %d luma bytes for a %dx%d image", ErrBinarizationFailed, len(luma), width, height)
	}
	return &LumaSource{luma: luma, width: width, height: height}, nil
}

// NewRGBASource converts an RGBA buffer with the given weights.
func NewRGBASource(pixels []byte, width, height int, weights GrayscaleWeights) (*LumaSource, error) {
	luma, err := Grayscale(pixels, width, height, weights)
	if err != nil {
		return nil, err
	}
	return &LumaSource{luma: luma, width: width, height: height}, nil
}

// NewImageSource converts any image with the given weights.
func NewImageSource(img image.Image, weights GrayscaleWeights) (*LumaSource, error) {
	pixels, w, h := RGBAPixels(img)
	return NewRGBASource(pixels, w, h, weights)
}

// Row returns a row of luminance data.
func (s *LumaSource) Row(y int, row []byte) []byte {
	if y < 0 || y >= s.height {
		return nil
	}
	if len(row) < s.width {
		row = make([]byte, s.width)
	}
	copy(row, s.luma[y*s.width:(y+1)*s.width])
	return row
}

// Matrix returns a copy of the luminance matrix.
func (s *LumaSource) Matrix() []byte {
	return append([]byte(nil), s.luma...)
}

// Width returns the width of the image.
func (s *LumaSource) Width() int { return s.width }

// Height returns the height of the image.
func (s *LumaSource) Height() int { return s.height }

// Invert returns a new source with every sample replaced by 255 - sample.
func (s *LumaSource) Invert() *LumaSource {
	inv := make([]byte, len(s.luma))
	for i, v := range s.luma {
		inv[i] = 255 - v
	}
	return &LumaSource{luma: inv, width: s.width, height: s.height}
}
