package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/imageio"
	"github.com/ericlevine/qrscan/qrcode"
)

// scanner decodes image files and prints what it finds.
type scanner struct {
	fs     afero.Fs
	reader *qrcode.Reader
	opts   qrscan.DecodeOptions
	// frames decodes every frame of animated images instead of the default
	// image only.
	frames  bool
	json    bool
	verbose bool
	logger  *log.Logger

	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

type frameResult struct {
	Frame  int            `json:"frame"`
	Result *qrscan.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Kind   string         `json:"kind,omitempty"`
}

type fileReport struct {
	Path   string        `json:"path"`
	Frames []frameResult `json:"frames,omitempty"`
	Error  string        `json:"error,omitempty"`
	err    error
}

// ok reports whether at least one frame of the file decoded.
func (r *fileReport) ok() bool {
	if r.err != nil {
		return false
	}
	for _, f := range r.Frames {
		if f.Result != nil {
			return true
		}
	}
	return false
}

func (s *scanner) scanFile(path string) *fileReport {
	report := &fileReport{Path: path}
	var images []image.Image
	if s.frames {
		frames, err := imageio.LoadFrames(s.fs, path)
		if err != nil {
			report.err = err
			report.Error = err.Error()
			return report
		}
		images = frames
	} else {
		img, err := imageio.Load(s.fs, path)
		if err != nil {
			report.err = err
			report.Error = err.Error()
			return report
		}
		images = []image.Image{img}
	}

	for i, img := range images {
		opts := s.opts
		result, err := s.reader.DecodeImage(img, &opts)
		fr := frameResult{Frame: i, Result: result}
		if err != nil {
			fr.Error = err.Error()
			fr.Kind = qrscan.ErrorKind(err)
			if s.verbose {
				s.logger.Printf("%s frame %d: %v", path, i, err)
			}
		}
		report.Frames = append(report.Frames, fr)
	}
	return report
}

// scanAll decodes paths with at most jobs files in flight and prints the
// reports in input order. It returns the number of files with no decoded
// symbol.
func (s *scanner) scanAll(ctx context.Context, paths []string, jobs int) (int, error) {
	reports := make([]*fileReport, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = s.scanFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	failed := 0
	for _, r := range reports {
		if !r.ok() {
			failed++
		}
		s.print(r, len(paths) > 1)
	}
	return failed, nil
}

func (s *scanner) print(r *fileReport, withPath bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.json {
		json.NewEncoder(s.stdout).Encode(r)
		return
	}
	if r.err != nil {
		fmt.Fprintf(s.stderr, "%s: error: %v\n", r.Path, r.err)
		return
	}
	for _, f := range r.Frames {
		label := r.Path
		if len(r.Frames) > 1 {
			label = fmt.Sprintf("%s[%d]", r.Path, f.Frame)
		}
		if f.Result == nil {
			if len(r.Frames) == 1 || s.verbose {
				fmt.Fprintf(s.stderr, "%s: no QR code found (%s)\n", label, f.Kind)
			}
			continue
		}
		if withPath || len(r.Frames) > 1 {
			fmt.Fprintf(s.stdout, "%s: ", label)
		}
		fmt.Fprintf(s.stdout, "[v%d-%s] %s\n", f.Result.Version, f.Result.ECLevel, f.Result.Text)
	}
	if len(r.Frames) > 1 && !r.ok() {
		fmt.Fprintf(s.stderr, "%s: no QR code found in %d frames\n", r.Path, len(r.Frames))
	}
}
