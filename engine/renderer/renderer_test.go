package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestCheckBufferSize(t *testing.T) {
	limits := wgpu.Limits{MaxBufferSize: 1 << 30, MaxStorageBufferBindingSize: 1 << 27}
	cases := []struct {
		name    string
		size    uint64
		usage   wgpu.BufferUsage
		wantMax uint64
	}{
		{"storage within binding limit", 1 << 26, wgpu.BufferUsageStorage, 0},
		{"storage over binding limit", 1<<27 + 1, wgpu.BufferUsageStorage | wgpu.BufferUsageVertex, 1 << 27},
		{"uniform uses buffer limit", 1<<27 + 1, wgpu.BufferUsageUniform, 0},
		{"over buffer limit", 1<<30 + 4, wgpu.BufferUsageCopyDst, 1 << 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkBufferSize(tc.size, tc.usage, limits)
			if tc.wantMax == 0 {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			var tooLarge *common.BufferTooLargeError
			if !errors.As(err, &tooLarge) {
				t.Fatalf("error = %v, want BufferTooLargeError", err)
			}
			if tooLarge.Requested != tc.size || tooLarge.MaxAvailable != tc.wantMax {
				t.Errorf("got %+v, want requested %d max %d", tooLarge, tc.size, tc.wantMax)
			}
		})
	}
}

func TestAlignBufferSize(t *testing.T) {
	for in, want := range map[uint64]uint64{0: 4, 1: 4, 4: 4, 5: 8, 96: 96, 1001: 1004} {
		if got := alignBufferSize(in); got != want {
			t.Errorf("alignBufferSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestWorkgroups(t *testing.T) {
	src := "@compute @workgroup_size(64)\nfn main() {}"
	p, err := pipeline.NewComputeFromSource("k", src)
	if err != nil {
		t.Fatal(err)
	}
	if got := Workgroups(p, 1000); got != [3]uint32{16, 1, 1} {
		t.Errorf("Workgroups(1000) = %v", got)
	}
	if got := Workgroups(p, 0); got[0] != 0 {
		t.Errorf("Workgroups(0) = %v", got)
	}

	src2 := "@compute @workgroup_size(16, 16)\nfn main() {}"
	p2, err := pipeline.NewComputeFromSource("k2", src2)
	if err != nil {
		t.Fatal(err)
	}
	if got := Workgroups2D(p2, 1920, 1081); got != [3]uint32{120, 68, 1} {
		t.Errorf("Workgroups2D = %v", got)
	}
}

func TestParsePresentMode(t *testing.T) {
	if ParsePresentMode("uncapped") != PresentModeUncapped || ParsePresentMode("vsync") != PresentModeVSync || ParsePresentMode("???") != PresentModeVSync {
		t.Errorf("ParsePresentMode mapping wrong")
	}
}
