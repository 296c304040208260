package img2txt

import (
	"errors"
	"testing"
)

func TestNewParamsDefaults(t *testing.T) {
	p, err := NewParams()
	if err != nil {
		t.Fatalf("NewParams failed: %v", err)
	}
	if p.DetailLevel != 1.0 {
		t.Errorf("Expected detail 1.0, got %f", p.DetailLevel)
	}
	if p.Sensitivity != 1.0 {
		t.Errorf("Expected sensitivity 1.0, got %f", p.Sensitivity)
	}
	if p.MaxCols != DefaultMaxCols || p.MaxRows != DefaultMaxRows {
		t.Errorf("Expected %dx%d caps, got %dx%d",
			DefaultMaxCols, DefaultMaxRows, p.MaxCols, p.MaxRows)
	}
	if string(p.Ramp) != Presets["standard"] {
		t.Errorf("Expected standard ramp, got %q", string(p.Ramp))
	}
}

func TestNewParamsOptions(t *testing.T) {
	p, err := NewParams(
		WithDetailLevel(2.5),
		WithSensitivity(0.8),
		WithMaxDims(80, 40),
		WithPreset("minimal"),
		WithSharpen(true),
		WithWorkers(8),
	)
	if err != nil {
		t.Fatalf("NewParams failed: %v", err)
	}
	if p.DetailLevel != 2.5 || p.Sensitivity != 0.8 {
		t.Errorf("Options not applied: detail %f, sensitivity %f",
			p.DetailLevel, p.Sensitivity)
	}
	if p.MaxCols != 80 || p.MaxRows != 40 {
		t.Errorf("Expected 80x40 caps, got %dx%d", p.MaxCols, p.MaxRows)
	}
	if string(p.Ramp) != Presets["minimal"] {
		t.Errorf("Expected minimal ramp, got %q", string(p.Ramp))
	}
	if !p.Sharpen || p.Workers != 8 {
		t.Errorf("Expected sharpen on and 8 workers, got %v/%d", p.Sharpen, p.Workers)
	}
}

func TestNewParamsValidation(t *testing.T) {
	cases := []struct {
		name string
		opts []Option
	}{
		{"detail too low", []Option{WithDetailLevel(0.05)}},
		{"detail too high", []Option{WithDetailLevel(6)}},
		{"negative sensitivity", []Option{WithSensitivity(-1)}},
		{"zero caps", []Option{WithMaxDims(0, 60)}},
		{"empty ramp", []Option{WithRamp(nil)}},
		{"unknown preset", []Option{WithPreset("bogus")}},
		{"negative workers", []Option{WithWorkers(-2)}},
	}
	for _, tc := range cases {
		if _, err := NewParams(tc.opts...); !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("%s: expected ErrInvalidParameters, got %v", tc.name, err)
		}
	}
}

func TestNewParamsZeroSensitivityAllowed(t *testing.T) {
	if _, err := NewParams(WithSensitivity(0)); err != nil {
		t.Errorf("Sensitivity 0 is degenerate but valid, got %v", err)
	}
}

func TestKindOfPath(t *testing.T) {
	tests := []struct {
		path string
		want MediaKind
	}{
		{"photo.JPG", MediaImage},
		{"photo.png", MediaImage},
		{"scan.tiff", MediaImage},
		{"pic.webp", MediaImage},
		{"clip.mp4", MediaVideo},
		{"clip.MKV", MediaVideo},
		{"movie.webm", MediaVideo},
		{"notes.txt", MediaUnknown},
		{"noext", MediaUnknown},
	}
	for _, tt := range tests {
		if got := KindOfPath(tt.path); got != tt.want {
			t.Errorf("KindOfPath(%q): expected %v, got %v", tt.path, tt.want, got)
		}
	}
}
