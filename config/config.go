// Package config reads the JSON configuration shared by the qrscan command
// line tool and the qrscand daemon. A user file is merged on top of the
// defaults; only the keys it sets take effect.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"

	"github.com/spf13/afero"

	qrscan "github.com/ericlevine/qrscan"
)

// Config is the representation of config.json.
type Config struct {
	GrayscaleWeights qrscan.GrayscaleWeights `json:"grayscale_weights"`
	Inversion        string                  `json:"inversion"`
	TryHarder        bool                    `json:"try_harder"`
	PureBarcode      bool                    `json:"pure_barcode"`
	DecodeURLs       bool                    `json:"decode_urls"`
	CharacterSet     string                  `json:"character_set"`

	Listen         string `json:"listen"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	LogFile        string `json:"log_file"`
	Jobs           int    `json:"jobs"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Inversion:      qrscan.InversionBoth.String(),
		Listen:         "localhost:9730",
		MaxUploadBytes: 8 << 20,
		Jobs:           4,
	}
}

// Load returns the defaults with the file at path merged on top. An empty
// path returns the defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	user := new(Config)
	if err := user.parse(fs, path); err != nil {
		return nil, err
	}
	cfg.merge(user)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (cfg *Config) parse(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// merge copies every non-zero field of other on top of cfg.
func (cfg *Config) merge(other *Config) {
	dst := reflect.ValueOf(cfg).Elem()
	src := reflect.ValueOf(other).Elem()
	for i := 0; i < src.NumField(); i++ {
		f := src.Field(i)
		if f.IsZero() {
			continue
		}
		if d := dst.Field(i); d.CanSet() {
			d.Set(f)
		}
	}
}

// Validate checks the decode settings and limits.
func (cfg *Config) Validate() error {
	if !cfg.GrayscaleWeights.IsZero() {
		if err := cfg.GrayscaleWeights.Validate(); err != nil {
			return err
		}
	}
	if _, err := qrscan.ParseInversionMode(cfg.Inversion); err != nil {
		return err
	}
	if cfg.MaxUploadBytes < 0 {
		return fmt.Errorf("max_upload_bytes must not be negative, got %d", cfg.MaxUploadBytes)
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", cfg.Jobs)
	}
	return nil
}

// DecodeOptions converts the decode settings.
func (cfg *Config) DecodeOptions() (qrscan.DecodeOptions, error) {
	inversion, err := qrscan.ParseInversionMode(cfg.Inversion)
	if err != nil {
		return qrscan.DecodeOptions{}, err
	}
	return qrscan.DecodeOptions{
		GrayscaleWeights: cfg.GrayscaleWeights,
		Inversion:        inversion,
		TryHarder:        cfg.TryHarder,
		PureBarcode:      cfg.PureBarcode,
		CharacterSet:     cfg.CharacterSet,
		DecodeURLs:       cfg.DecodeURLs,
	}, nil
}

// OpenLogger returns a logger writing to the configured log file, creating
// its directory when needed, or to stderr when no file is set. The returned
// closer releases the file.
func (cfg *Config) OpenLogger(fs afero.Fs, prefix string) (*log.Logger, io.Closer, error) {
	if cfg.LogFile == "" {
		return log.New(os.Stderr, prefix, log.LstdFlags), io.NopCloser(nil), nil
	}
	if err := fs.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := fs.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return log.New(f, prefix, log.LstdFlags), f, nil
}
