// Package config holds the service configuration assembled by the
// server entry point from flags.
package config

import "time"

type AppConfig struct {
	Port           int
	OutputDir      string
	MaxUploadBytes int64
	Workers        int
	ConvertTimeout time.Duration
}
