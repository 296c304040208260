package img2txt

import "fmt"

// Detail level bounds and default geometry caps. The caps are the
// base output size at detail level 1.0; the planner scales them by
// the detail level and then fits the source aspect ratio inside.
const (
	MinDetailLevel = 0.1
	MaxDetailLevel = 5.0

	DefaultMaxCols = 120
	DefaultMaxRows = 60
)

// Params holds the parameters for one conversion call. A Params
// value is read-only for the duration of the call, so the same value
// may drive any number of conversions concurrently.
type Params struct {
	// DetailLevel scales the output grid size; valid range is
	// [MinDetailLevel, MaxDetailLevel].
	DetailLevel float64

	// Sensitivity adjusts contrast around mid-brightness before
	// quantization. Zero is a valid degenerate value that maps
	// every cell to the midpoint glyph; negative values are
	// rejected.
	Sensitivity float64

	// MaxCols and MaxRows cap the planned grid at detail level 1.0.
	MaxCols int
	MaxRows int

	// Ramp is the glyph ramp; must be non-empty. Its ordering
	// semantics belong to the caller.
	Ramp GlyphRamp

	// Sharpen applies a mild sharpening pre-filter to the source
	// before sampling.
	Sharpen bool

	// Workers sets the number of goroutines converting video
	// frames. Zero or one means serial conversion. Output order is
	// unaffected either way.
	Workers int
}

// Option configures a Params value.
type Option func(*Params)

// NewParams returns a validated Params with the given options applied
// over the defaults (detail 1.0, sensitivity 1.0, 120x60 caps, the
// "standard" preset ramp, no sharpening, serial video conversion).
func NewParams(opts ...Option) (Params, error) {
	p := Params{
		DetailLevel: 1.0,
		Sensitivity: 1.0,
		MaxCols:     DefaultMaxCols,
		MaxRows:     DefaultMaxRows,
		Ramp:        RampFromString(Presets["standard"]),
	}
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// WithDetailLevel sets the detail level.
func WithDetailLevel(detail float64) Option {
	return func(p *Params) { p.DetailLevel = detail }
}

// WithSensitivity sets the contrast sensitivity factor.
func WithSensitivity(sensitivity float64) Option {
	return func(p *Params) { p.Sensitivity = sensitivity }
}

// WithMaxDims sets the grid caps applied at detail level 1.0.
func WithMaxDims(cols, rows int) Option {
	return func(p *Params) {
		p.MaxCols = cols
		p.MaxRows = rows
	}
}

// WithRamp sets a directly supplied glyph ramp.
func WithRamp(ramp GlyphRamp) Option {
	return func(p *Params) { p.Ramp = ramp }
}

// WithPreset resolves a named preset to a ramp. An unknown name
// leaves the ramp nil so that validation fails rather than silently
// keeping the default.
func WithPreset(name string) Option {
	return func(p *Params) {
		ramp, err := RampFromPreset(name)
		if err != nil {
			p.Ramp = nil
			return
		}
		p.Ramp = ramp
	}
}

// WithSharpen enables the sharpening pre-filter.
func WithSharpen(enabled bool) Option {
	return func(p *Params) { p.Sharpen = enabled }
}

// WithWorkers sets the video frame conversion parallelism.
func WithWorkers(n int) Option {
	return func(p *Params) { p.Workers = n }
}

// Validate checks every field against its documented range. It is
// called before any pixel work so that invalid parameters are never
// partially applied.
func (p Params) Validate() error {
	if p.DetailLevel < MinDetailLevel || p.DetailLevel > MaxDetailLevel {
		return fmt.Errorf("%w: detail level %.3f outside [%.1f, %.1f]",
			ErrInvalidParameters, p.DetailLevel, MinDetailLevel, MaxDetailLevel)
	}
	if p.Sensitivity < 0 {
		return fmt.Errorf("%w: sensitivity %.3f is negative",
			ErrInvalidParameters, p.Sensitivity)
	}
	if p.MaxCols <= 0 || p.MaxRows <= 0 {
		return fmt.Errorf("%w: dimension caps %dx%d must be positive",
			ErrInvalidParameters, p.MaxCols, p.MaxRows)
	}
	if len(p.Ramp) == 0 {
		return fmt.Errorf("%w: glyph ramp is empty", ErrInvalidParameters)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers %d is negative",
			ErrInvalidParameters, p.Workers)
	}
	return nil
}
