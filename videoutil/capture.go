// Package videoutil decodes video files into frame streams for glyph
// conversion. It wraps OpenCV (via gocv) and owns the capture
// lifecycle; the conversion pipeline only ever sees fully decoded
// pixel buffers.
package videoutil

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"

	"github.com/textmode/img2txt"
	"github.com/textmode/img2txt/imageutil"
)

// Capture is a consumed-once frame stream over a video file. It
// implements img2txt.FrameSource. Close must be called to release the
// decoder; the conversion pipeline never manages the lifecycle.
type Capture struct {
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	rate   float64
	count  int
	closed bool
}

// Open opens a video file for sequential decoding. A container that
// cannot be opened is reported as img2txt.ErrSourceUnavailable before
// any frames are produced.
func Open(path string) (*Capture, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", img2txt.ErrSourceUnavailable, path, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("%w: could not open video %s", img2txt.ErrSourceUnavailable, path)
	}

	return &Capture{
		cap:   cap,
		mat:   gocv.NewMat(),
		rate:  cap.Get(gocv.VideoCaptureFPS),
		count: int(cap.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

// Next decodes and returns the next frame, or io.EOF at end of
// stream. Each returned buffer is independently owned; the internal
// decode Mat is reused between calls.
func (c *Capture) Next() (*imageutil.RGBAImage, error) {
	if c.closed {
		return nil, io.EOF
	}
	if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, io.EOF
	}

	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return imageutil.FromImage(img), nil
}

// FrameRate returns the container's native frames per second.
func (c *Capture) FrameRate() float64 {
	return c.rate
}

// FrameCount returns the container's declared frame count. Advisory
// only: containers routinely over- or under-declare.
func (c *Capture) FrameCount() int {
	return c.count
}

// Close releases the decoder. Safe to call more than once.
func (c *Capture) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.mat.Close(); err != nil {
		c.cap.Close()
		return err
	}
	return c.cap.Close()
}
