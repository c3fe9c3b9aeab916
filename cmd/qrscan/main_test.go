package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/draw"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kettek/apng"
	skipqr "github.com/skip2/go-qrcode"
	"github.com/spf13/afero"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/qrcode"
)

func pngSymbol(t *testing.T, content string) []byte {
	t.Helper()
	data, err := skipqr.Encode(content, skipqr.Medium, 160)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func symbolImage(t *testing.T, content string) image.Image {
	t.Helper()
	q, err := skipqr.New(content, skipqr.Medium)
	if err != nil {
		t.Fatal(err)
	}
	src := q.Image(160)
	img := image.NewNRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	return img
}

func blankImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 160, 160))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func newScanner(fs afero.Fs) (*scanner, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &scanner{
		fs:     fs,
		reader: qrcode.NewReader(),
		opts:   qrscan.DecodeOptions{Inversion: qrscan.InversionBoth},
		logger: log.New(io.Discard, "", 0),
		stdout: &stdout,
		stderr: &stderr,
	}, &stdout, &stderr
}

func TestScanAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "a.png", pngSymbol(t, "first"), 0o644)
	afero.WriteFile(fs, "b.png", pngSymbol(t, "second"), 0o644)
	afero.WriteFile(fs, "c.txt.png", []byte("text"), 0o644)

	s, stdout, stderr := newScanner(fs)
	failed, err := s.scanAll(context.Background(), []string{"a.png", "b.png", "c.txt.png", "missing.png"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 ||
		!strings.HasPrefix(lines[0], "a.png: [v") || !strings.HasSuffix(lines[0], "] first") ||
		!strings.HasPrefix(lines[1], "b.png: [v") || !strings.HasSuffix(lines[1], "] second") {
		t.Errorf("stdout = %q", stdout.String())
	}
	for _, want := range []string{"c.txt.png: error:", "missing.png: error:"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr %q lacks %q", stderr.String(), want)
		}
	}
}

func TestScanFrames(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := apng.APNG{Frames: []apng.Frame{
		{Image: symbolImage(t, "frame zero"), DelayNumerator: 1, DelayDenominator: 10},
		{Image: blankImage(), DelayNumerator: 1, DelayDenominator: 10},
		{Image: symbolImage(t, "frame two"), DelayNumerator: 1, DelayDenominator: 10},
	}}
	var buf bytes.Buffer
	if err := apng.Encode(&buf, a); err != nil {
		t.Fatal(err)
	}
	afero.WriteFile(fs, "capture.png", buf.Bytes(), 0o644)

	s, stdout, _ := newScanner(fs)
	s.frames = true
	s.json = true
	failed, err := s.scanAll(context.Background(), []string{"capture.png"}, 1)
	if err != nil || failed != 0 {
		t.Fatalf("failed = %d, err = %v", failed, err)
	}

	var report struct {
		Path   string
		Frames []struct {
			Frame  int
			Result *struct{ Text string }
			Kind   string
		}
	}
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("%q: %v", stdout.String(), err)
	}
	if len(report.Frames) != 3 {
		t.Fatalf("report = %+v", report)
	}
	if report.Frames[0].Result == nil || report.Frames[0].Result.Text != "frame zero" {
		t.Errorf("frame 0 = %+v", report.Frames[0])
	}
	if report.Frames[1].Result != nil || report.Frames[1].Kind == "" {
		t.Errorf("frame 1 = %+v", report.Frames[1])
	}
	if report.Frames[2].Result == nil || report.Frames[2].Result.Text != "frame two" {
		t.Errorf("frame 2 = %+v", report.Frames[2])
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	if err := os.WriteFile(good, pngSymbol(t, "from disk"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"try_harder": true, "jobs": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-config", cfgPath, good}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, stderr.String())
	}
	if !strings.HasSuffix(strings.TrimSpace(stdout.String()), "] from disk") {
		t.Errorf("stdout = %q", stdout.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := run([]string{good, filepath.Join(dir, "absent.png")}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code %d with a missing file", code)
	}

	for _, args := range [][]string{
		{},
		{"-weights", "1,2", good},
		{"-weights", "100,100,100", good},
		{"-inversion", "upside-down", good},
		{"-config", filepath.Join(dir, "nope.json"), good},
	} {
		if code := run(args, io.Discard, io.Discard); code == 0 {
			t.Errorf("run(%q) succeeded", args)
		}
	}
}

func TestParseWeights(t *testing.T) {
	w, err := parseWeights("86, 85,85")
	if err != nil || w != (qrscan.GrayscaleWeights{Red: 86, Green: 85, Blue: 85}) {
		t.Errorf("parseWeights = %+v, %v", w, err)
	}
	if _, err := parseWeights("a,b,c"); err == nil {
		t.Error("non-numeric weights accepted")
	}
}

// syncBuffer is written by the watch goroutine while the test polls it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	var stdout syncBuffer
	s := &scanner{
		fs:     afero.NewOsFs(),
		reader: qrcode.NewReader(),
		logger: log.New(io.Discard, "", 0),
		stdout: &stdout,
		stderr: io.Discard,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.watch(ctx, dir) }()

	// Give the watcher time to register before the file appears.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dropped.png"), pngSymbol(t, "watched"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(stdout.String(), "] watched") && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	out := stdout.String()
	if !strings.Contains(out, "dropped.png: [v") || !strings.Contains(out, "] watched") {
		t.Errorf("stdout = %q", out)
	}
	if strings.Contains(out, "ignored.txt") {
		t.Errorf("unsupported file was scanned: %q", out)
	}
}
