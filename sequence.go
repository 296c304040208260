package img2txt

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// WriteText writes the sequence as a single text artifact, each frame
// preceded by a 1-based "=== FRAME n ===" banner.
func (seq FrameSequence) WriteText(w io.Writer) error {
	for i, frame := range seq.Frames {
		if _, err := fmt.Fprintf(w, "=== FRAME %d ===\n", i+1); err != nil {
			return err
		}
		if _, err := io.WriteString(w, frame.String()); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteFrameFiles writes one plain-text file per frame named
// <base>_frame_0001.txt, <base>_frame_0002.txt, and so on.
func (seq FrameSequence) WriteFrameFiles(base string) error {
	for i, frame := range seq.Frames {
		path := fmt.Sprintf("%s_frame_%04d.txt", base, i+1)
		if err := os.WriteFile(path, []byte(frame.String()), 0o644); err != nil {
			return fmt.Errorf("failed to write frame file: %w", err)
		}
	}
	return nil
}

// WriteTextZstd writes the banner-separated text artifact through a
// zstd compressor. ASCII frame sequences are highly repetitive, so
// this typically shrinks artifacts by an order of magnitude.
func (seq FrameSequence) WriteTextZstd(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := seq.WriteText(zw); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// sequenceDoc is the CBOR wire form of a FrameSequence. Grid
// dimensions are hoisted into the header so consumers can size
// playback without scanning frames.
type sequenceDoc struct {
	Cols   int        `cbor:"cols"`
	Rows   int        `cbor:"rows"`
	Rate   float64    `cbor:"fps"`
	Frames [][]string `cbor:"frames"`
}

// EncodeCBOR writes the sequence as a CBOR document for programmatic
// consumers.
func (seq FrameSequence) EncodeCBOR(w io.Writer) error {
	doc := sequenceDoc{Rate: seq.Rate, Frames: make([][]string, len(seq.Frames))}
	if len(seq.Frames) > 0 {
		doc.Cols = seq.Frames[0].Cols()
		doc.Rows = seq.Frames[0].Rows()
	}
	for i, frame := range seq.Frames {
		doc.Frames[i] = frame
	}
	return cbor.NewEncoder(w).Encode(doc)
}

// DecodeCBOR reads a CBOR frame sequence document written by
// EncodeCBOR.
func DecodeCBOR(r io.Reader) (FrameSequence, error) {
	var doc sequenceDoc
	if err := cbor.NewDecoder(r).Decode(&doc); err != nil {
		return FrameSequence{}, fmt.Errorf("failed to decode frame sequence: %w", err)
	}
	seq := FrameSequence{Rate: doc.Rate, Frames: make([]TextGrid, len(doc.Frames))}
	for i, rows := range doc.Frames {
		seq.Frames[i] = TextGrid(rows)
	}
	return seq, nil
}
