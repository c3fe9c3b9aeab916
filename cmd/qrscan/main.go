// Command qrscan decodes QR codes in image files.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/config"
	"github.com/ericlevine/qrscan/qrcode"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("qrscan", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "JSON configuration `file`")
	tryHarder := flags.Bool("try-harder", false, "spend more time looking for finder patterns")
	pure := flags.Bool("pure", false, "hint that the image is a clean symbol render with minimal border")
	inversion := flags.String("inversion", "", "polarities to try: original, invert or both")
	weights := flags.String("weights", "", "grayscale weights as `red,green,blue`, summing to 256")
	charset := flags.String("charset", "", "character set of byte segments without an ECI")
	decodeURLs := flags.Bool("decode-urls", false, "percent-decode payloads that look like URLs")
	jobs := flags.Int("jobs", 0, "files decoded in parallel (default from config)")
	frames := flags.Bool("frames", false, "decode every frame of animated PNGs")
	watchDir := flags.String("watch", "", "decode images as they appear in `dir`")
	jsonOut := flags.Bool("json", false, "print one JSON report per file")
	verbose := flags.Bool("v", false, "log every failed attempt")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: qrscan [flags] <image-file> [image-file...]\n")
		fmt.Fprintf(stderr, "       qrscan [flags] -watch <dir>\n\n")
		fmt.Fprintf(stderr, "Detect and decode QR codes in image files (PNG, APNG, JPEG, GIF, BMP, TIFF, WebP).\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() == 0 && *watchDir == "" {
		flags.Usage()
		return 1
	}

	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "qrscan: %v\n", err)
		return 1
	}

	// Flags given on the command line win over the configuration file.
	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["try-harder"] {
		cfg.TryHarder = *tryHarder
	}
	if set["pure"] {
		cfg.PureBarcode = *pure
	}
	if set["inversion"] {
		cfg.Inversion = *inversion
	}
	if set["charset"] {
		cfg.CharacterSet = *charset
	}
	if set["decode-urls"] {
		cfg.DecodeURLs = *decodeURLs
	}
	if set["jobs"] {
		cfg.Jobs = *jobs
	}
	if set["weights"] {
		w, err := parseWeights(*weights)
		if err != nil {
			fmt.Fprintf(stderr, "qrscan: -weights: %v\n", err)
			return 1
		}
		cfg.GrayscaleWeights = w
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "qrscan: %v\n", err)
		return 1
	}
	opts, err := cfg.DecodeOptions()
	if err != nil {
		fmt.Fprintf(stderr, "qrscan: %v\n", err)
		return 1
	}

	logger, closer, err := cfg.OpenLogger(fs, "qrscan: ")
	if err != nil {
		fmt.Fprintf(stderr, "qrscan: %v\n", err)
		return 1
	}
	defer closer.Close()

	s := &scanner{
		fs:      fs,
		reader:  qrcode.NewReader(),
		opts:    opts,
		frames:  *frames,
		json:    *jsonOut,
		verbose: *verbose,
		logger:  logger,
		stdout:  stdout,
		stderr:  stderr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exitCode := 0
	if flags.NArg() > 0 {
		failed, err := s.scanAll(ctx, flags.Args(), cfg.Jobs)
		if err != nil {
			fmt.Fprintf(stderr, "qrscan: %v\n", err)
			return 1
		}
		if failed > 0 {
			exitCode = 1
		}
	}
	if *watchDir != "" {
		if err := s.watch(ctx, *watchDir); err != nil {
			fmt.Fprintf(stderr, "qrscan: %v\n", err)
			return 1
		}
	}
	return exitCode
}

func parseWeights(s string) (qrscan.GrayscaleWeights, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return qrscan.GrayscaleWeights{}, fmt.Errorf("want red,green,blue, got %q", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return qrscan.GrayscaleWeights{}, err
		}
		v[i] = n
	}
	w := qrscan.GrayscaleWeights{Red: v[0], Green: v[1], Blue: v[2]}
	return w, w.Validate()
}
