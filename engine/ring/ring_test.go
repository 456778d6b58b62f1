package ring

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeAllocator struct {
	limit    uint64
	live     map[*wgpu.Buffer]uint64
	writes   map[*wgpu.Buffer]int
	failNext bool
}

func newFakeAllocator(limit uint64) *fakeAllocator {
	return &fakeAllocator{limit: limit, live: map[*wgpu.Buffer]uint64{}, writes: map[*wgpu.Buffer]int{}}
}

func (f *fakeAllocator) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	if f.limit > 0 && size > f.limit {
		return nil, &common.BufferTooLargeError{Requested: size, MaxAvailable: f.limit}
	}
	buf := &wgpu.Buffer{}
	f.live[buf] = size
	return buf, nil
}

func (f *fakeAllocator) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	f.writes[buf]++
}

func (f *fakeAllocator) ReleaseBuffer(buf *wgpu.Buffer) {
	delete(f.live, buf)
}

func TestSwapMakesInactiveCurrent(t *testing.T) {
	alloc := newFakeAllocator(0)
	r, err := New(alloc, "particles", 32, 100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.CurrentID() == r.InactiveID() {
		t.Fatalf("read and write sides share an id")
	}
	prevInactive := r.InactiveID()
	r.Swap()
	if r.CurrentID() != prevInactive {
		t.Errorf("current id = %d, want previous inactive %d", r.CurrentID(), prevInactive)
	}
	if r.Current() == r.Inactive() {
		t.Errorf("read and write sides are the same buffer after swap")
	}
}

func TestResizeGrowReallocatesShrinkKeeps(t *testing.T) {
	alloc := newFakeAllocator(0)
	r, _ := New(alloc, "particles", 16, 10_000)
	gen := r.Generation()
	old := r.Current()

	grew, err := r.Resize(alloc, 50_000)
	if err != nil || !grew {
		t.Fatalf("Resize up = (%v, %v), want (true, nil)", grew, err)
	}
	if r.Count() != 50_000 || r.Size() != 16*50_000 {
		t.Errorf("count/size = %d/%d", r.Count(), r.Size())
	}
	if r.Generation() == gen {
		t.Errorf("generation did not change on reallocation")
	}
	if _, alive := alloc.live[old]; alive {
		t.Errorf("old buffer not released")
	}
	if len(alloc.live) != 2 {
		t.Errorf("live buffers = %d, want 2", len(alloc.live))
	}

	gen = r.Generation()
	grew, err = r.Resize(alloc, 20_000)
	if err != nil || grew {
		t.Fatalf("Resize down = (%v, %v), want (false, nil)", grew, err)
	}
	if r.Count() != 20_000 || r.Capacity() != 50_000 || r.Generation() != gen {
		t.Errorf("shrink changed buffers: count=%d cap=%d", r.Count(), r.Capacity())
	}
}

func TestResizeTooLargeKeepsOldBuffers(t *testing.T) {
	alloc := newFakeAllocator(16 * 1000)
	r, _ := New(alloc, "particles", 16, 1000)
	cur, inact := r.Current(), r.Inactive()

	_, err := r.Resize(alloc, 1001)
	var tooLarge *common.BufferTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("error = %v, want BufferTooLargeError", err)
	}
	if tooLarge.Requested != 16*1001 || tooLarge.MaxAvailable != 16*1000 {
		t.Errorf("error fields = %+v", tooLarge)
	}
	if r.Current() != cur || r.Inactive() != inact || r.Count() != 1000 {
		t.Errorf("ring changed after failed resize")
	}
	if len(alloc.live) != 2 {
		t.Errorf("live buffers = %d, want 2", len(alloc.live))
	}
}

func TestUploadWritesBothSides(t *testing.T) {
	alloc := newFakeAllocator(0)
	r, _ := New(alloc, "particles", 8, 4)
	r.Upload(alloc, make([]byte, 64))
	if alloc.writes[r.Side(0)] != 1 || alloc.writes[r.Side(1)] != 1 {
		t.Errorf("writes = %v", alloc.writes)
	}
}

func TestBindPairOrientations(t *testing.T) {
	alloc := newFakeAllocator(0)
	r, _ := New(alloc, "particles", 8, 4)
	var bp BindPair
	err := bp.Build(r, func(side int, read, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		if read == write {
			t.Fatalf("side %d binds the same buffer for read and write", side)
		}
		return bind_group_provider.NewBindGroupProvider("step",
			bind_group_provider.WithBuffer(0, read),
			bind_group_provider.WithBuffer(1, write),
		), nil
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i := 0; i < 3; i++ {
		p := bp.For(r)
		if p.Buffer(0) != r.Current() || p.Buffer(1) != r.Inactive() {
			t.Fatalf("orientation %d does not match ring", r.Active())
		}
		r.Swap()
	}
	if bp.Stale(r) {
		t.Errorf("fresh pair reported stale")
	}
	r.Resize(alloc, 100)
	if !bp.Stale(r) {
		t.Errorf("pair not stale after reallocation")
	}
}

func TestBindPairBuildFailureKeepsPrevious(t *testing.T) {
	alloc := newFakeAllocator(0)
	r, _ := New(alloc, "particles", 8, 4)
	var bp BindPair
	ok := func(side int, read, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return bind_group_provider.NewBindGroupProvider("step", bind_group_provider.WithBuffer(0, read)), nil
	}
	bp.Build(r, ok)
	prev := bp.For(r)
	boom := errors.New("boom")
	err := bp.Build(r, func(side int, read, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		if side == 1 {
			return nil, boom
		}
		return ok(side, read, write)
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
	if bp.For(r) != prev {
		t.Errorf("failed build replaced providers")
	}
}
