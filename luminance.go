package img2txt

// Luminance converts 8-bit RGB channel intensities to a normalized
// brightness value in [0, 1] using the ITU-R BT.709 luma weighting.
// Channel values outside [0, 255] are a caller contract breach; the
// decode step is responsible for clamping.
func Luminance(r, g, b uint8) float64 {
	return (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 255.0
}
