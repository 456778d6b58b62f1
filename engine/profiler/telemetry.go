package profiler

import (
	"fmt"
	"io"
	"log"

	"github.com/gocarina/gocsv"
)

// FrameSample is one row of per-frame telemetry.
type FrameSample struct {
	Frame        uint64  `csv:"frame"`
	FPS          float64 `csv:"fps"`
	FrameMillis  float64 `csv:"frame_ms"`
	Particles    uint32  `csv:"particles"`
	OffscreenW   uint32  `csv:"offscreen_w"`
	OffscreenH   uint32  `csv:"offscreen_h"`
	Tiles        uint32  `csv:"tiles"`
	GridOverflow uint64  `csv:"grid_overflow"`
}

// Telemetry writes a FrameSample to a CSV sink every N frames.
type Telemetry struct {
	out           io.Writer
	every         uint64
	seen          uint64
	headerWritten bool
}

// NewTelemetry creates a Telemetry writing to out.
//
// Parameters:
//   - out: the CSV sink; nil disables recording
//   - every: the sampling interval in frames (values < 1 sample every frame)
//
// Returns:
//   - *Telemetry: the recorder
func NewTelemetry(out io.Writer, every int) *Telemetry {
	if every < 1 {
		every = 1
	}
	return &Telemetry{out: out, every: uint64(every)}
}

// Record counts a frame and writes the sample when the interval is reached.
//
// Parameters:
//   - s: the frame's sample
//
// Returns:
//   - bool: true if the sample was written
//   - error: a write error from the sink
func (t *Telemetry) Record(s FrameSample) (bool, error) {
	if t == nil || t.out == nil {
		return false, nil
	}
	t.seen++
	if (t.seen-1)%t.every != 0 {
		return false, nil
	}

	rows := []FrameSample{s}
	if !t.headerWritten {
		if err := gocsv.Marshal(rows, t.out); err != nil {
			return false, fmt.Errorf("writing telemetry: %w", err)
		}
		t.headerWritten = true
		log.Printf("[Telemetry] recording every %d frames", t.every)
		return true, nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, t.out); err != nil {
		return false, fmt.Errorf("writing telemetry: %w", err)
	}
	return true, nil
}
