package img2txt

import "errors"

// Error taxonomy for conversions. All failures are surfaced to the
// caller immediately as wrapped sentinels; the core never retries and
// never substitutes defaults for invalid inputs.
var (
	// ErrInvalidParameters reports a detail level, sensitivity,
	// dimension cap, or ramp outside its documented valid range.
	// Raised before any pixel work begins.
	ErrInvalidParameters = errors.New("img2txt: invalid parameters")

	// ErrInvalidSource reports a decoded buffer with non-positive
	// dimensions or an otherwise unusable decoded input.
	ErrInvalidSource = errors.New("img2txt: invalid source")

	// ErrSourceUnavailable reports that the decoder could not
	// produce frames or buffers at all. Reported once, before any
	// frames are processed.
	ErrSourceUnavailable = errors.New("img2txt: source unavailable")
)
