package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/kettek/apng"
	skipqr "github.com/skip2/go-qrcode"
	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func symbol(t *testing.T, content string) image.Image {
	t.Helper()
	q, err := skipqr.New(content, skipqr.Medium)
	if err != nil {
		t.Fatal(err)
	}
	src := q.Image(128)
	img := image.NewNRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	return img
}

func writeFile(t *testing.T, fs afero.Fs, path string, encode func(*bytes.Buffer) error) {
	t.Helper()
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFormats(t *testing.T) {
	fs := afero.NewMemMapFs()
	img := symbol(t, "formats")
	writeFile(t, fs, "in/a.png", func(b *bytes.Buffer) error { return png.Encode(b, img) })
	writeFile(t, fs, "in/a.bmp", func(b *bytes.Buffer) error { return bmp.Encode(b, img) })
	writeFile(t, fs, "in/a.tiff", func(b *bytes.Buffer) error { return tiff.Encode(b, img, nil) })

	for _, path := range []string{"in/a.png", "in/a.bmp", "in/a.tiff"} {
		got, err := Load(fs, path)
		if err != nil {
			t.Errorf("%s: %v", path, err)
			continue
		}
		if got.Bounds().Size() != img.Bounds().Size() {
			t.Errorf("%s: size %v, want %v", path, got.Bounds().Size(), img.Bounds().Size())
		}
		r, g, b, _ := got.At(0, 0).RGBA()
		if r != 0xffff || g != 0xffff || b != 0xffff {
			t.Errorf("%s: quiet zone pixel is %v", path, got.At(0, 0))
		}
	}
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "notes.png", []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(fs, "notes.png"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("garbage: err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Load(fs, "missing.png"); err == nil {
		t.Error("missing file loaded")
	}
	if _, err := LoadFrames(fs, "notes.png"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("frames of garbage: err = %v", err)
	}
}

func TestLoadFramesAPNG(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := apng.APNG{Frames: []apng.Frame{
		{Image: symbol(t, "frame one"), DelayNumerator: 100, DelayDenominator: 1000},
		{Image: symbol(t, "frame two"), DelayNumerator: 100, DelayDenominator: 1000},
		{Image: symbol(t, "frame three"), DelayNumerator: 100, DelayDenominator: 1000},
	}}
	writeFile(t, fs, "capture.png", func(b *bytes.Buffer) error { return apng.Encode(b, a) })

	frames, err := LoadFrames(fs, "capture.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 3 {
		t.Fatalf("%d frames, want 3", len(frames))
	}
	for i, fr := range frames {
		if fr.Bounds().Dx() != 128 || fr.Bounds().Dy() != 128 {
			t.Errorf("frame %d bounds %v", i, fr.Bounds())
		}
	}
}

func TestLoadFramesStill(t *testing.T) {
	fs := afero.NewMemMapFs()
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	img.SetGray(1, 1, color.Gray{Y: 7})
	writeFile(t, fs, "still.png", func(b *bytes.Buffer) error { return png.Encode(b, img) })

	frames, err := LoadFrames(fs, "still.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 || frames[0].Bounds() != img.Bounds() {
		t.Fatalf("frames = %v", frames)
	}
}

func TestIsSupported(t *testing.T) {
	tests := map[string]bool{
		"a.PNG":        true,
		"b.jpeg":       true,
		"dir/c.webp":   true,
		"d.tif":        true,
		"e.txt":        false,
		"noextension":  false,
		"archive.tar":  false,
		"capture.apng": true,
	}
	for path, want := range tests {
		if got := IsSupported(path); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", path, got, want)
		}
	}
}
