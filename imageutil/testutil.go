package imageutil

import "math"

// Synthetic images used by tests across the module.

// SolidImage creates a uniform image of the given color.
func SolidImage(width, height int, c RGB) *RGBAImage {
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGB(x, y, c)
		}
	}
	return img
}

// GradientImage creates a horizontal black-to-white gradient. A
// single-column image is all black.
func GradientImage(width, height int) *RGBAImage {
	img := NewRGBAImage(width, height)
	span := max(width-1, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(255 * x / span)
			img.SetRGB(x, y, RGB{R: v, G: v, B: v})
		}
	}
	return img
}

// CheckerImage creates a black-and-white checkerboard with the given
// square size.
func CheckerImage(width, height, squareSize int) *RGBAImage {
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if ((x/squareSize)+(y/squareSize))%2 == 0 {
				img.SetRGB(x, y, RGB{R: 255, G: 255, B: 255})
			} else {
				img.SetRGB(x, y, RGB{})
			}
		}
	}
	return img
}

// MeanSquaredError computes the per-channel MSE between two images of
// equal dimensions.
func MeanSquaredError(a, b *RGBAImage) float64 {
	if a.Width() != b.Width() || a.Height() != b.Height() {
		return math.MaxFloat64
	}

	width, height := a.Width(), a.Height()
	var sumSq float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			ca := a.RGBAAt(x, y)
			cb := b.RGBAAt(x, y)
			dr := float64(ca.R) - float64(cb.R)
			dg := float64(ca.G) - float64(cb.G)
			db := float64(ca.B) - float64(cb.B)
			sumSq += dr*dr + dg*dg + db*db
		}
	}
	return sumSq / float64(width*height*3)
}
