package img2txt

import (
	"fmt"
	"sync"

	"github.com/textmode/img2txt/imageutil"
)

// FrameSource is a finite, consumed-once stream of decoded video
// frames with a known native frame rate. Implementations own the
// decoder lifecycle (open, read, release); the conversion pipeline
// only reads. A FrameSource is not restartable.
type FrameSource interface {
	// Next returns the next frame in temporal order, or io.EOF when
	// the stream ends. Any other error means the frame could not be
	// decoded; the pipeline treats that as end of stream.
	Next() (*imageutil.RGBAImage, error)

	// FrameRate returns the source's native frames per second.
	FrameRate() float64

	// FrameCount returns the container's declared frame count. It
	// is advisory: the actual stream end governs.
	FrameCount() int
}

// FrameSequence is the ordered result of one video conversion. Frame
// order equals the source temporal order of the kept frames; length is
// the number of frames surviving decimation, not the source total.
type FrameSequence struct {
	Frames []TextGrid

	// Rate is the effective output frame rate after decimation.
	Rate float64
}

// FrameSkip returns the temporal decimation interval for reducing a
// native frame rate to a target rate: every skip-th frame is kept,
// starting from frame 0. A target at or above the native rate keeps
// every frame.
func FrameSkip(nativeRate, targetRate float64) int {
	if nativeRate <= 0 || targetRate <= 0 {
		return 1
	}
	skip := int(nativeRate / targetRate)
	if skip < 1 {
		skip = 1
	}
	return skip
}

// ConvertVideo converts a frame stream into a FrameSequence at the
// target output frame rate. Frames are decimated before conversion,
// so dropped frames cost only their decode. Grid dimensions are
// planned once from the first frame and reused, since frame size does
// not change mid-stream. A decode error partway through ends the
// stream and the frames converted so far are returned as a successful
// partial result.
//
// With Params.Workers > 1, kept frames are converted concurrently;
// each frame's grid is placed at its fixed index, so output order is
// positional and does not depend on completion order.
func ConvertVideo(src FrameSource, targetRate float64, p Params) (FrameSequence, error) {
	if err := p.Validate(); err != nil {
		return FrameSequence{}, err
	}
	if targetRate <= 0 {
		return FrameSequence{}, fmt.Errorf("%w: target frame rate %.3f must be positive",
			ErrInvalidParameters, targetRate)
	}
	if src == nil {
		return FrameSequence{}, fmt.Errorf("%w: nil frame source", ErrSourceUnavailable)
	}

	nativeRate := src.FrameRate()
	skip := FrameSkip(nativeRate, targetRate)

	outRate := targetRate
	if nativeRate > 0 {
		outRate = nativeRate / float64(skip)
	}

	if p.Workers > 1 {
		frames, err := convertFramesParallel(src, skip, p)
		return FrameSequence{Frames: frames, Rate: outRate}, err
	}

	var (
		frames    []TextGrid
		cols, rows int
		index     int
	)
	for {
		frame, err := src.Next()
		if err != nil {
			// io.EOF is the normal end; any other decode error is
			// treated the same way so work already done is kept.
			break
		}
		if index%skip == 0 {
			if frames == nil {
				if frame.Width() <= 0 || frame.Height() <= 0 {
					return FrameSequence{}, fmt.Errorf("%w: first frame has dimensions %dx%d",
						ErrInvalidSource, frame.Width(), frame.Height())
				}
				cols, rows = PlanDimensions(frame.Width(), frame.Height(),
					p.DetailLevel, p.MaxCols, p.MaxRows)
				frames = make([]TextGrid, 0, estimateKept(src.FrameCount(), skip))
			}
			frames = append(frames, convertPlanned(frame, p, cols, rows))
		}
		index++
	}
	return FrameSequence{Frames: frames, Rate: outRate}, nil
}

// estimateKept sizes the result slice from the container's declared
// frame count. The declared count is advisory only.
func estimateKept(declared, skip int) int {
	if declared <= 0 {
		return 0
	}
	return (declared + skip - 1) / skip
}

type frameJob struct {
	index int
	frame *imageutil.RGBAImage
}

// convertFramesParallel decodes sequentially (the decoder is a single
// stream) and fans frame conversion out across workers. Results are
// slotted by kept-frame index to preserve temporal order.
func convertFramesParallel(src FrameSource, skip int, p Params) ([]TextGrid, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		frames []TextGrid
	)

	jobs := make(chan frameJob, p.Workers)
	var cols, rows int

	for w := 0; w < p.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				grid := convertPlanned(job.frame, p, cols, rows)
				mu.Lock()
				for len(frames) <= job.index {
					frames = append(frames, nil)
				}
				frames[job.index] = grid
				mu.Unlock()
			}
		}()
	}

	var index, kept int
	var dimErr error
	for {
		frame, err := src.Next()
		if err != nil {
			// io.EOF is the normal end; decode errors end the
			// stream the same way and keep the work already done.
			break
		}
		if index%skip == 0 {
			if kept == 0 {
				if frame.Width() <= 0 || frame.Height() <= 0 {
					dimErr = fmt.Errorf("%w: first frame has dimensions %dx%d",
						ErrInvalidSource, frame.Width(), frame.Height())
					break
				}
				// Planned before any job is dispatched, then
				// read-only for the rest of the stream.
				cols, rows = PlanDimensions(frame.Width(), frame.Height(),
					p.DetailLevel, p.MaxCols, p.MaxRows)
			}
			jobs <- frameJob{index: kept, frame: frame}
			kept++
		}
		index++
	}
	close(jobs)
	wg.Wait()

	if dimErr != nil {
		return nil, dimErr
	}
	return frames, nil
}
