// Command img2txt converts an image or video file to glyph art. Images
// become a single text grid (or a rendered PNG); videos become a frame
// sequence written as banded text, per-frame files, zstd-compressed
// text, or a CBOR document.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/textmode/img2txt"
	"github.com/textmode/img2txt/imageutil"
	"github.com/textmode/img2txt/videoutil"
)

func main() {
	detail := flag.Float64("detail", 1.0, "Detail level, 0.1 to 5.0")
	sensitivity := flag.Float64("sensitivity", 1.0, "Brightness contrast around mid-gray")
	charset := flag.String("charset", "standard", "Character set preset: "+strings.Join(img2txt.PresetNames(), ", "))
	ramp := flag.String("ramp", "", "Explicit glyph ramp, darkest to lightest (overrides -charset)")
	frameRate := flag.Float64("framerate", 10, "Target output frame rate for videos")
	output := flag.String("output", "", "Output path (default stdout for text)")
	format := flag.String("format", "text", "Output format: text, frames, image, cbor, zstd")
	sharpen := flag.Bool("sharpen", false, "Sharpen before sampling")
	workers := flag.Int("workers", 1, "Worker goroutines for video conversion")
	fontPath := flag.String("font", "", "TTF font for -format image (default built-in bitmap font)")
	fontSize := flag.Float64("fontsize", 12, "Font size in points for -format image")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <image-or-video>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	input := flag.Arg(0)

	opts := []img2txt.Option{
		img2txt.WithDetailLevel(*detail),
		img2txt.WithSensitivity(*sensitivity),
		img2txt.WithSharpen(*sharpen),
		img2txt.WithWorkers(*workers),
	}
	if *ramp != "" {
		opts = append(opts, img2txt.WithRamp(img2txt.RampFromString(*ramp)))
	} else {
		opts = append(opts, img2txt.WithPreset(*charset))
	}

	params, err := img2txt.NewParams(opts...)
	if err != nil {
		fatal(err)
	}

	raster := img2txt.RasterOptions{FontPath: *fontPath, FontSize: *fontSize}

	switch img2txt.KindOfPath(input) {
	case img2txt.MediaImage:
		err = runImage(input, params, *format, *output, raster)
	case img2txt.MediaVideo:
		err = runVideo(input, params, *frameRate, *format, *output)
	default:
		err = fmt.Errorf("unrecognized media extension on %q", input)
	}
	if err != nil {
		fatal(err)
	}
}

func runImage(input string, params img2txt.Params, format, output string, raster img2txt.RasterOptions) error {
	img, err := imageutil.LoadImage(input)
	if err != nil {
		return err
	}
	grid, err := img2txt.ConvertImage(img, params)
	if err != nil {
		return err
	}

	switch format {
	case "image":
		if output == "" {
			output = replaceExt(input, "_ascii.png")
		}
		return img2txt.SaveGridPNG(grid, output, raster)
	case "text":
		return writeTextOutput(output, grid.String())
	default:
		return fmt.Errorf("format %q not supported for images", format)
	}
}

func runVideo(input string, params img2txt.Params, frameRate float64, format, output string) error {
	capture, err := videoutil.Open(input)
	if err != nil {
		return err
	}
	defer capture.Close()

	seq, err := img2txt.ConvertVideo(capture, frameRate, params)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "converted %d frames at %.2f fps\n", len(seq.Frames), seq.Rate)

	switch format {
	case "text":
		if output == "" {
			var sb strings.Builder
			if err := seq.WriteText(&sb); err != nil {
				return err
			}
			_, err := os.Stdout.WriteString(sb.String())
			return err
		}
		return writeToFile(output, seq.WriteText)
	case "frames":
		if output == "" {
			output = strings.TrimSuffix(input, ext(input))
		}
		return seq.WriteFrameFiles(output)
	case "zstd":
		if output == "" {
			output = replaceExt(input, "_ascii.txt.zst")
		}
		return writeToFile(output, seq.WriteTextZstd)
	case "cbor":
		if output == "" {
			output = replaceExt(input, "_ascii.cbor")
		}
		return writeToFile(output, seq.EncodeCBOR)
	default:
		return fmt.Errorf("format %q not supported for videos", format)
	}
}

func writeTextOutput(path, text string) error {
	if path == "" {
		_, err := os.Stdout.WriteString(text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

func writeToFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ext(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}

func replaceExt(path, suffix string) string {
	return strings.TrimSuffix(path, ext(path)) + suffix
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
