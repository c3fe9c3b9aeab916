// Command qrscand serves QR decoding over HTTP.
//
//	POST /v1/decode                         encoded image body
//	POST /v1/decode/rgba/{width}x{height}   raw RGBA body
//	GET  /health
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/ericlevine/qrscan/config"
	"github.com/ericlevine/qrscan/httpapi"
)

func main() {
	configPath := flag.String("config", "", "JSON configuration `file`")
	listen := flag.String("listen", "", "address to listen on (default from config)")
	flag.Parse()

	if err := run(*configPath, *listen); err != nil {
		fmt.Fprintf(os.Stderr, "qrscand: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, listen string) error {
	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}
	opts, err := cfg.DecodeOptions()
	if err != nil {
		return err
	}
	logger, closer, err := cfg.OpenLogger(fs, "qrscand: ")
	if err != nil {
		return err
	}
	defer closer.Close()

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.NewRouter(httpapi.NewServer(opts, cfg.MaxUploadBytes, logger)),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s", cfg.Listen)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-idle
	logger.Println("stopped")
	return nil
}
