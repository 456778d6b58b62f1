package profiler

import (
	"bytes"
	"strings"
	"testing"
)

func TestTelemetryHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	tel := NewTelemetry(&buf, 1)

	for i := range 3 {
		ok, err := tel.Record(FrameSample{Frame: uint64(i), FPS: 60, Particles: 100})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("record %d was not written", i)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "frame,fps,frame_ms,particles") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Count(buf.String(), "grid_overflow") != 1 {
		t.Error("header written more than once")
	}
}

func TestTelemetryInterval(t *testing.T) {
	var buf bytes.Buffer
	tel := NewTelemetry(&buf, 4)

	written := 0
	for i := range 10 {
		ok, err := tel.Record(FrameSample{Frame: uint64(i)})
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			written++
		}
	}
	// frames 0, 4 and 8
	if written != 3 {
		t.Errorf("wrote %d samples, want 3", written)
	}
}

func TestTelemetryNilSink(t *testing.T) {
	var tel *Telemetry
	if ok, err := tel.Record(FrameSample{}); ok || err != nil {
		t.Errorf("nil telemetry recorded: %v %v", ok, err)
	}
	if ok, _ := NewTelemetry(nil, 1).Record(FrameSample{}); ok {
		t.Error("nil sink recorded")
	}
}
