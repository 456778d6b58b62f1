package uniform

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeAllocator struct {
	created  int
	released int
	writes   [][]byte
	sizes    []uint64
	fail     error
}

func (f *fakeAllocator) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.created++
	f.sizes = append(f.sizes, size)
	return &wgpu.Buffer{}, nil
}

func (f *fakeAllocator) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	f.writes = append(f.writes, append([]byte(nil), data...))
}

func (f *fakeAllocator) ReleaseBuffer(buf *wgpu.Buffer) {
	f.released++
}

type params struct {
	Decay    float32
	Count    uint32
	Position [2]float32
}

type oddParams struct {
	A, B, C float32
}

func TestBlockWritesWholeStructOnlyWhenDirty(t *testing.T) {
	alloc := &fakeAllocator{}
	b, err := New(alloc, "slime params", params{Decay: 0.1, Count: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if alloc.sizes[0] != 16 {
		t.Errorf("buffer size = %d, want 16", alloc.sizes[0])
	}
	if !b.Flush(alloc) {
		t.Fatalf("first flush must upload")
	}
	if b.Flush(alloc) {
		t.Errorf("clean block flushed again")
	}

	b.Update(func(p *params) { p.Decay = 0.25 })
	if !b.Dirty() {
		t.Fatalf("update did not mark dirty")
	}
	b.Flush(alloc)

	if len(alloc.writes) != 2 {
		t.Fatalf("writes = %d, want 2", len(alloc.writes))
	}
	last := alloc.writes[1]
	if len(last) != 16 {
		t.Fatalf("write length = %d, want whole struct (16)", len(last))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(last[0:4])); got != 0.25 {
		t.Errorf("decay = %v, want 0.25", got)
	}
	if got := binary.LittleEndian.Uint32(last[4:8]); got != 10 {
		t.Errorf("count = %d, want 10", got)
	}
	if b.Flushes() != 2 {
		t.Errorf("flushes = %d", b.Flushes())
	}
}

func TestNewRejectsUnpaddedStruct(t *testing.T) {
	_, err := New(&fakeAllocator{}, "odd", oddParams{})
	var initErr *common.InitializationFailedError
	if !errors.As(err, &initErr) {
		t.Fatalf("error = %v, want InitializationFailedError", err)
	}
}

func TestNewPropagatesAllocationError(t *testing.T) {
	want := &common.BufferTooLargeError{Requested: 16, MaxAvailable: 0}
	_, err := New(&fakeAllocator{fail: want}, "p", params{})
	if !errors.Is(err, want) {
		t.Errorf("error = %v, want %v", err, want)
	}
}

func TestFlushAll(t *testing.T) {
	alloc := &fakeAllocator{}
	a, _ := New(alloc, "a", params{})
	b, _ := New(alloc, "b", params{})
	a.Flush(alloc)
	if n := FlushAll(alloc, a, b, nil); n != 1 {
		t.Errorf("FlushAll wrote %d blocks, want 1", n)
	}
	a.Release(alloc)
	a.Release(alloc)
	if alloc.released != 1 {
		t.Errorf("released = %d, want 1", alloc.released)
	}
}
