package img2txt

import "github.com/textmode/img2txt/imageutil"

// sampleBrightness downsamples src to a cols x rows grid of
// normalized brightness values, one per output cell. The resample
// uses area-weighted filtering rather than point sampling, so fine
// source detail is aggregated instead of aliased. The returned grid
// always has exactly rows slices of exactly cols values.
func sampleBrightness(src *imageutil.RGBAImage, cols, rows int) [][]float64 {
	resized := imageutil.Resize(src, cols, rows, imageutil.InterpolationArea)

	grid := make([][]float64, rows)
	for y := 0; y < rows; y++ {
		row := make([]float64, cols)
		for x := 0; x < cols; x++ {
			c := resized.GetRGB(x, y)
			row[x] = Luminance(c.R, c.G, c.B)
		}
		grid[y] = row
	}
	return grid
}
