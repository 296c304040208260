package img2txt

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/textmode/img2txt/imageutil"
)

// memSource is an in-memory FrameSource for tests. Real decoding is
// exercised by videoutil against OpenCV; the pipeline itself only
// needs the stream contract.
type memSource struct {
	frames []*imageutil.RGBAImage
	rate   float64
	index  int
	failAt int // inject a decode error at this index; -1 disables
}

func newMemSource(rate float64, frames ...*imageutil.RGBAImage) *memSource {
	return &memSource{frames: frames, rate: rate, failAt: -1}
}

func (s *memSource) Next() (*imageutil.RGBAImage, error) {
	if s.failAt >= 0 && s.index == s.failAt {
		return nil, errors.New("decode failure")
	}
	if s.index >= len(s.frames) {
		return nil, io.EOF
	}
	frame := s.frames[s.index]
	s.index++
	return frame, nil
}

func (s *memSource) FrameRate() float64 { return s.rate }
func (s *memSource) FrameCount() int    { return len(s.frames) }

// grayFrames builds solid frames whose brightness increases with the
// frame index.
func grayFrames(n, width, height int) []*imageutil.RGBAImage {
	frames := make([]*imageutil.RGBAImage, n)
	for i := range frames {
		v := uint8(255 * i / max(n-1, 1))
		frames[i] = imageutil.SolidImage(width, height, imageutil.RGB{R: v, G: v, B: v})
	}
	return frames
}

func TestFrameSkip(t *testing.T) {
	tests := []struct {
		native, target float64
		want           int
	}{
		{30, 10, 3},
		{30, 30, 1},
		{10, 30, 1},
		{25, 10, 2},
		{60, 1, 60},
		{0, 10, 1},
	}
	for _, tt := range tests {
		if got := FrameSkip(tt.native, tt.target); got != tt.want {
			t.Errorf("FrameSkip(%.0f, %.0f): expected %d, got %d",
				tt.native, tt.target, tt.want, got)
		}
	}
}

func TestConvertVideoDecimation(t *testing.T) {
	src := newMemSource(30, grayFrames(300, 64, 48)...)
	p := mustParams(t)

	seq, err := ConvertVideo(src, 10, p)
	if err != nil {
		t.Fatalf("ConvertVideo failed: %v", err)
	}
	// frameSkip 3: frames 0, 3, 6, ..., 297.
	if len(seq.Frames) != 100 {
		t.Errorf("Expected 100 kept frames, got %d", len(seq.Frames))
	}
	if seq.Rate != 10 {
		t.Errorf("Expected effective rate 10, got %f", seq.Rate)
	}
}

func TestConvertVideoTargetExceedsNative(t *testing.T) {
	src := newMemSource(10, grayFrames(25, 64, 48)...)
	p := mustParams(t)

	seq, err := ConvertVideo(src, 30, p)
	if err != nil {
		t.Fatalf("ConvertVideo failed: %v", err)
	}
	if len(seq.Frames) != 25 {
		t.Errorf("Expected all 25 frames kept, got %d", len(seq.Frames))
	}
	if seq.Rate != 10 {
		t.Errorf("Expected effective rate clamped to native 10, got %f", seq.Rate)
	}
}

func TestConvertVideoKeepsTemporalOrder(t *testing.T) {
	frames := grayFrames(10, 64, 48)
	ramp := RampFromString(Presets["standard"])
	p := mustParams(t, WithRamp(ramp))

	seq, err := ConvertVideo(newMemSource(30, frames...), 30, p)
	if err != nil {
		t.Fatalf("ConvertVideo failed: %v", err)
	}

	prev := -1
	for i, grid := range seq.Frames {
		idx := rampIndexOf(t, ramp, []rune(grid[0])[0])
		if idx < prev {
			t.Fatalf("Frame %d out of order: glyph index %d after %d", i, idx, prev)
		}
		prev = idx
	}
}

func TestConvertVideoConcurrentMatchesSerial(t *testing.T) {
	frames := grayFrames(24, 96, 54)

	serialParams := mustParams(t)
	serial, err := ConvertVideo(newMemSource(24, frames...), 8, serialParams)
	if err != nil {
		t.Fatalf("Serial ConvertVideo failed: %v", err)
	}

	parallelParams := mustParams(t, WithWorkers(4))
	parallel, err := ConvertVideo(newMemSource(24, frames...), 8, parallelParams)
	if err != nil {
		t.Fatalf("Parallel ConvertVideo failed: %v", err)
	}

	if !reflect.DeepEqual(serial.Frames, parallel.Frames) {
		t.Error("Concurrent conversion should match serial frame-for-frame")
	}
}

func TestConvertVideoPartialDecode(t *testing.T) {
	src := newMemSource(30, grayFrames(20, 64, 48)...)
	src.failAt = 7
	p := mustParams(t)

	seq, err := ConvertVideo(src, 30, p)
	if err != nil {
		t.Fatalf("Partial decode should succeed, got %v", err)
	}
	if len(seq.Frames) != 7 {
		t.Errorf("Expected 7 frames before the decode failure, got %d", len(seq.Frames))
	}
}

func TestConvertVideoEmptyStream(t *testing.T) {
	p := mustParams(t)

	seq, err := ConvertVideo(newMemSource(30), 10, p)
	if err != nil {
		t.Fatalf("Empty stream should succeed, got %v", err)
	}
	if len(seq.Frames) != 0 {
		t.Errorf("Expected 0 frames, got %d", len(seq.Frames))
	}
}

func TestConvertVideoDimensionsPlannedOnce(t *testing.T) {
	// A mid-stream size change must not change the grid: the plan
	// comes from the first frame only.
	frames := []*imageutil.RGBAImage{
		imageutil.SolidImage(640, 480, imageutil.RGB{}),
		imageutil.SolidImage(320, 240, imageutil.RGB{R: 255, G: 255, B: 255}),
	}
	p := mustParams(t)

	seq, err := ConvertVideo(newMemSource(30, frames...), 30, p)
	if err != nil {
		t.Fatalf("ConvertVideo failed: %v", err)
	}
	if len(seq.Frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(seq.Frames))
	}
	if seq.Frames[0].Cols() != seq.Frames[1].Cols() ||
		seq.Frames[0].Rows() != seq.Frames[1].Rows() {
		t.Errorf("Frame grids differ: %dx%d vs %dx%d",
			seq.Frames[0].Cols(), seq.Frames[0].Rows(),
			seq.Frames[1].Cols(), seq.Frames[1].Rows())
	}
}

func TestConvertVideoErrors(t *testing.T) {
	p := mustParams(t)

	if _, err := ConvertVideo(nil, 10, p); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable for nil source, got %v", err)
	}

	src := newMemSource(30, grayFrames(5, 64, 48)...)
	if _, err := ConvertVideo(src, 0, p); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("Expected ErrInvalidParameters for zero target rate, got %v", err)
	}
}
