// Command img2txt-server runs the HTTP conversion service.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/textmode/img2txt/internal/config"
	"github.com/textmode/img2txt/internal/server"
)

func main() {
	port := flag.Int("port", 8080, "HTTP listen port")
	outputDir := flag.String("output-dir", "outputs", "Directory for conversion artifacts")
	maxUpload := flag.Int64("max-upload", 64<<20, "Maximum upload size in bytes")
	workers := flag.Int("workers", 1, "Worker goroutines per video conversion")
	timeout := flag.Duration("convert-timeout", 5*time.Minute, "Wall-clock limit per conversion (0 disables)")
	flag.Parse()

	cfg := config.AppConfig{
		Port:           *port,
		OutputDir:      *outputDir,
		MaxUploadBytes: *maxUpload,
		Workers:        *workers,
		ConvertTimeout: *timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("listening on :%d, outputs in %s", cfg.Port, cfg.OutputDir)
	if err := server.Run(ctx, cfg); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
