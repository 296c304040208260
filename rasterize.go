package img2txt

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/textmode/img2txt/imageutil"
)

// RasterOptions configures text-to-raster rendering of a TextGrid.
// The zero value renders with the built-in 7x13 bitmap face.
type RasterOptions struct {
	// FontPath points at a TTF file; empty selects the built-in
	// face. A monospaced font keeps the cell grid aligned.
	FontPath string

	// FontSize is the point size for TTF rendering. Ignored for the
	// built-in face. Defaults to 12.
	FontSize float64

	// Padding is the pixel border around the rendered grid.
	// Defaults to 10.
	Padding int
}

// RasterizeGrid renders a TextGrid as dark text on a white background
// and returns the image. This is a presentation concern layered on
// top of conversion: the grid is not reinterpreted, just drawn.
func RasterizeGrid(grid TextGrid, opts RasterOptions) (*image.RGBA, error) {
	if len(grid) == 0 || grid.Cols() == 0 {
		return nil, fmt.Errorf("%w: empty text grid", ErrInvalidSource)
	}

	face, closeFace, err := resolveFace(opts)
	if err != nil {
		return nil, err
	}
	if closeFace != nil {
		defer closeFace()
	}

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	advance, ok := face.GlyphAdvance('M')
	if !ok {
		advance = metrics.Height / 2
	}
	cellWidth := advance.Ceil()

	padding := opts.Padding
	if padding == 0 {
		padding = 10
	}

	width := grid.Cols()*cellWidth + 2*padding
	height := grid.Rows()*lineHeight + 2*padding

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
	}
	for i, row := range grid {
		drawer.Dot = fixed.P(padding, padding+i*lineHeight+ascent)
		drawer.DrawString(row)
	}
	return img, nil
}

// SaveGridPNG renders a TextGrid and writes it to path as PNG.
func SaveGridPNG(grid TextGrid, path string, opts RasterOptions) error {
	img, err := RasterizeGrid(grid, opts)
	if err != nil {
		return err
	}
	return imageutil.SavePNG(img, path)
}

// resolveFace returns the font face for the given options, plus a
// cleanup function for faces that hold resources.
func resolveFace(opts RasterOptions) (font.Face, func(), error) {
	if opts.FontPath == "" {
		return basicfont.Face7x13, nil, nil
	}

	fontBytes, err := os.ReadFile(opts.FontPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read font: %w", err)
	}
	ttf, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse font: %w", err)
	}

	size := opts.FontSize
	if size == 0 {
		size = 12
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return face, func() { face.Close() }, nil
}
