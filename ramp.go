package img2txt

import (
	"fmt"
	"sort"
)

// GlyphRamp is an ordered, non-empty sequence of glyphs indexed by
// quantized brightness. The ramp's visual ordering (dark-to-light or
// any custom density ordering) is a caller-supplied property: the
// conversion guarantees only that brightness 0 maps to index 0 and
// brightness 1 maps to the last index, deterministically and
// monotonically in between.
type GlyphRamp []rune

// RampFromString builds a GlyphRamp from the runes of s in order.
func RampFromString(s string) GlyphRamp {
	return GlyphRamp([]rune(s))
}

// Presets maps preset names to their character sequences. These are
// data, not pipeline logic: a preset resolves to a concrete ramp at
// configuration time and the pipeline never sees the name again.
// All shipped presets run visually dense to sparse.
var Presets = map[string]string{
	"standard": "@%#*+=-:. ",
	"block":    "█▉▊▋▌▍▎▏ ",
	"simple":   "##++--.. ",
	"detailed": "$@B%8&WM#*oahkbdpqwmZO0QLCJUYXzcvunxrjft/\\|()1{}[]?-_+~<>i!lI;:,\"^`'. ",
	"minimal":  "@*. ",
	"dots":     "●◐◑◒◓◔◕○ ",
}

// PresetNames returns the available preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RampFromPreset resolves a preset name to its ramp. Unknown names
// are an error; there is no fallback ramp.
func RampFromPreset(name string) (GlyphRamp, error) {
	s, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown charset preset %q (available: %v)",
			ErrInvalidParameters, name, PresetNames())
	}
	return RampFromString(s), nil
}

// Index maps a brightness value in [0, 1] and a sensitivity factor to
// a ramp index. Sensitivity rescales contrast around mid-gray before
// quantization; sensitivity 0 collapses every brightness to the
// midpoint glyph, which is degenerate but valid. The result is
// clamped to [0, len-1] to guard floating-point rounding at the
// boundary value 1.0.
func (ramp GlyphRamp) Index(brightness, sensitivity float64) int {
	adjusted := (brightness-0.5)*sensitivity + 0.5
	if adjusted < 0 {
		adjusted = 0
	} else if adjusted > 1 {
		adjusted = 1
	}

	index := int(adjusted * float64(len(ramp)-1))
	if index < 0 {
		index = 0
	} else if index > len(ramp)-1 {
		index = len(ramp) - 1
	}
	return index
}

// Glyph selects the ramp glyph for a brightness value at the given
// sensitivity.
func (ramp GlyphRamp) Glyph(brightness, sensitivity float64) rune {
	return ramp[ramp.Index(brightness, sensitivity)]
}
