package imageutil

import (
	"image"

	"golang.org/x/image/draw"
)

// Interpolation selects the resampling filter for resizing.
type Interpolation int

const (
	// InterpolationArea uses a Catmull-Rom resampling kernel, the
	// closest pure Go equivalent to OpenCV's INTER_AREA. The kernel
	// support scales with the resize ratio, so downscaling
	// aggregates every covered source pixel instead of point
	// sampling.
	InterpolationArea Interpolation = iota

	// InterpolationLinear uses bilinear interpolation.
	InterpolationLinear

	// InterpolationNearest uses nearest-neighbor interpolation.
	// Fast, but aliases fine detail; not used by the conversion
	// pipeline itself.
	InterpolationNearest
)

// Resize resamples img to the given dimensions with the selected
// filter.
func Resize(img *RGBAImage, width, height int, interp Interpolation) *RGBAImage {
	dst := NewRGBAImage(width, height)

	var scaler draw.Scaler
	switch interp {
	case InterpolationLinear:
		scaler = draw.BiLinear
	case InterpolationNearest:
		scaler = draw.NearestNeighbor
	default:
		scaler = draw.CatmullRom
	}

	scaler.Scale(dst.RGBA, image.Rect(0, 0, width, height),
		img.RGBA, img.Bounds(), draw.Src, nil)
	return dst
}
