// Package imageio reads source images for the decoder from a filesystem.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/kettek/apng"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for data that no registered image
// decoder recognizes.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var extensions = map[string]bool{
	".png":  true,
	".apng": true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsSupported reports whether path has the extension of a readable format.
func IsSupported(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Decode reads a single image in any registered format.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if errors.Is(err, image.ErrFormat) {
		return nil, "", ErrUnsupportedFormat
	}
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Load reads the image at path. For animated PNGs this is the default
// image.
func Load(fs afero.Fs, path string) (image.Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadFrames reads every frame of the image at path. Animated PNG frames are
// composed onto a canvas the size of the first frame so each one is a full
// picture; any other file yields a single frame.
func LoadFrames(fs afero.Fs, path string) ([]image.Image, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	if a, err := apng.DecodeAll(bytes.NewReader(data)); err == nil && len(a.Frames) > 1 {
		return composeFrames(a.Frames), nil
	}

	img, _, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return []image.Image{img}, nil
}

func composeFrames(frames []apng.Frame) []image.Image {
	bounds := frames[0].Image.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	out := make([]image.Image, 0, len(frames))
	for _, fr := range frames {
		b := fr.Image.Bounds()
		at := image.Rect(fr.XOffset, fr.YOffset, fr.XOffset+b.Dx(), fr.YOffset+b.Dy())
		op := draw.Over
		if fr.BlendOp == apng.BLEND_OP_SOURCE {
			op = draw.Src
		}
		draw.Draw(canvas, at, fr.Image, b.Min, op)

		frame := image.NewNRGBA(canvas.Bounds())
		copy(frame.Pix, canvas.Pix)
		out = append(out, frame)
	}
	return out
}
