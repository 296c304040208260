package img2txt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/textmode/img2txt/imageutil"
)

// TextGrid is the glyph output of one image or frame conversion: an
// ordered sequence of rows, every row exactly the planned column
// count of glyphs.
type TextGrid []string

// Cols returns the glyph count per row.
func (g TextGrid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return utf8.RuneCountInString(g[0])
}

// Rows returns the row count.
func (g TextGrid) Rows() int {
	return len(g)
}

// String joins the rows with newlines, with a trailing newline. This
// is the canonical plain-text form of a converted frame.
func (g TextGrid) String() string {
	var sb strings.Builder
	for _, row := range g {
		sb.WriteString(row)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ConvertImage converts one decoded pixel buffer into a TextGrid.
// The grid dimensions are planned from the buffer's size and the
// detail level, the buffer is area-resampled to that grid, and each
// cell's brightness is quantized to a ramp glyph. Identical (buffer,
// params) inputs always produce byte-identical output.
func ConvertImage(src *imageutil.RGBAImage, p Params) (TextGrid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil pixel buffer", ErrInvalidSource)
	}
	if src.Width() <= 0 || src.Height() <= 0 {
		return nil, fmt.Errorf("%w: pixel buffer has dimensions %dx%d",
			ErrInvalidSource, src.Width(), src.Height())
	}

	cols, rows := PlanDimensions(src.Width(), src.Height(),
		p.DetailLevel, p.MaxCols, p.MaxRows)
	return convertPlanned(src, p, cols, rows), nil
}

// convertPlanned runs the sampler and quantizer against a grid whose
// dimensions have already been planned. The video pipeline uses it to
// reuse the first frame's plan for every subsequent frame.
func convertPlanned(src *imageutil.RGBAImage, p Params, cols, rows int) TextGrid {
	if p.Sharpen {
		src = imageutil.Sharpen(src)
	}

	brightness := sampleBrightness(src, cols, rows)

	grid := make(TextGrid, rows)
	var sb strings.Builder
	for y := 0; y < rows; y++ {
		sb.Reset()
		sb.Grow(cols)
		for x := 0; x < cols; x++ {
			sb.WriteRune(p.Ramp.Glyph(brightness[y][x], p.Sensitivity))
		}
		grid[y] = sb.String()
	}
	return grid
}
