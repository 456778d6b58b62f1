package stage

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

func TestScaleForZoom(t *testing.T) {
	tests := []struct {
		zoom float32
		want float32
	}{
		{0.005, 2},
		{0.5, 2},
		{0.99, 2},
		{1, 1.6},
		{1.25, 2},
		{2, 3.2},
		{5, 8},
		{50, 8},
	}
	for _, tt := range tests {
		if got := ScaleForZoom(tt.zoom); math.Abs(float64(got-tt.want)) > 1e-5 {
			t.Errorf("ScaleForZoom(%v) = %v, want %v", tt.zoom, got, tt.want)
		}
	}
}

func TestResolutionMonotonic(t *testing.T) {
	const w, h = 1280, 720
	prevW, prevH, _ := Resolution(w, h, 1, 0)
	for z := float32(1); z <= 50; z += 0.05 {
		rw, rh, _ := Resolution(w, h, z, 0)
		if rw < prevW || rh < prevH {
			t.Fatalf("resolution decreased at zoom %v: %dx%d < %dx%d", z, rw, rh, prevW, prevH)
		}
		prevW, prevH = rw, rh
	}

	prevW, prevH, _ = Resolution(w, h, 0.001, 0)
	for i := 2; i <= 1000; i++ {
		z := float32(i) / 1000
		rw, rh, _ := Resolution(w, h, z, 0)
		if rw > prevW || rh > prevH {
			t.Fatalf("resolution grew toward zoom 1 at %v: %dx%d > %dx%d", z, rw, rh, prevW, prevH)
		}
		prevW, prevH = rw, rh
	}
}

func TestResolutionCapped(t *testing.T) {
	rw, rh, s := Resolution(3840, 2160, 50, 0)
	if rw > MaxTextureSize || rh > MaxTextureSize {
		t.Fatalf("resolution %dx%d exceeds cap", rw, rh)
	}
	if rw != MaxTextureSize {
		t.Errorf("width = %d, want capped at %d", rw, MaxTextureSize)
	}
	if s < 1 || s > 8 {
		t.Errorf("scale %v outside [1, 8]", s)
	}
	rw, _, _ = Resolution(3840, 2160, 50, 4096)
	if rw != 4096 {
		t.Errorf("device limit not honoured: width %d", rw)
	}
}

func TestAdaptiveHysteresis(t *testing.T) {
	var a Adaptive
	if _, _, changed := a.Update(1000, 1000, 2, 0); !changed {
		t.Fatalf("first update must allocate")
	}
	// 2.0 -> 2.03 moves the scale by 0.048, inside the 0.05 band.
	if _, _, changed := a.Update(1000, 1000, 2.03, 0); changed {
		t.Errorf("small zoom change reallocated")
	}
	if _, _, changed := a.Update(1000, 1000, 2.2, 0); !changed {
		t.Errorf("large zoom change did not reallocate")
	}
	if _, _, changed := a.Update(1200, 1000, 2.2, 0); !changed {
		t.Errorf("surface resize did not reallocate")
	}
	a.Invalidate()
	if _, _, changed := a.Update(1200, 1000, 2.2, 0); !changed {
		t.Errorf("invalidated state did not reallocate")
	}
}

func TestTileCount(t *testing.T) {
	tests := []struct {
		zoom float32
		want uint32
	}{
		{50, 7},
		{1, 7},
		{0.5, 8},
		{0.1, 16},
		{0.05, 28},
		{0.0078125, 136},
		{0.0001, 1024},
	}
	for _, tt := range tests {
		if got := TileCount(tt.zoom); got != tt.want {
			t.Errorf("TileCount(%v) = %d, want %d", tt.zoom, got, tt.want)
		}
	}
}

func TestFadeAlpha(t *testing.T) {
	tests := []struct {
		fade, want float32
	}{
		{0, 0.3},
		{0.5, 0.075},
		{0.99, 0.002},
		{1, 0.002},
		{-1, 0.3},
	}
	for _, tt := range tests {
		if got := FadeAlpha(tt.fade); math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("FadeAlpha(%v) = %v, want %v", tt.fade, got, tt.want)
		}
	}
}

func TestPostIdentity(t *testing.T) {
	if !IdentityPost.IsIdentity() {
		t.Fatalf("identity not detected")
	}
	if (PostParams{Brightness: 1.1, Contrast: 1, Saturation: 1, Gamma: 1}).IsIdentity() {
		t.Errorf("non-identity reported as identity")
	}
	c := [3]float32{0.2, 0.5, 0.8}
	got := PostColor(c, IdentityPost)
	for i := range c {
		if math.Abs(float64(got[i]-c[i])) > 1e-6 {
			t.Errorf("identity changed channel %d: %v -> %v", i, c[i], got[i])
		}
	}
}

func TestPostDesaturate(t *testing.T) {
	got := PostColor([3]float32{1, 0, 0}, PostParams{Brightness: 1, Contrast: 1, Saturation: 0, Gamma: 1})
	if got[0] != got[1] || got[1] != got[2] {
		t.Errorf("zero saturation left colour: %v", got)
	}
	if math.Abs(float64(got[0])-0.299) > 1e-6 {
		t.Errorf("gray = %v, want 0.299", got[0])
	}
}

func TestTrailSwap(t *testing.T) {
	a := &renderer.RenderTarget{Label: "a"}
	b := &renderer.RenderTarget{Label: "b"}
	tr := &Trail{targets: [2]*renderer.RenderTarget{a, b}, needsClear: true}
	if tr.Write() == tr.Read() {
		t.Fatalf("read and write share a target")
	}
	w := tr.Write()
	tr.Swap()
	if tr.Read() != w {
		t.Errorf("previous write is not the new read")
	}
	if tr.NeedsClear() {
		t.Errorf("swap did not clear the reset flag")
	}
	tr.Reset()
	if !tr.NeedsClear() {
		t.Errorf("reset not recorded")
	}
}

func TestTileOrigin(t *testing.T) {
	tests := []struct {
		p    mgl32.Vec2
		want mgl32.Vec2
	}{
		{mgl32.Vec2{0, 0}, mgl32.Vec2{0, 0}},
		{mgl32.Vec2{0.99, -0.99}, mgl32.Vec2{0, 0}},
		{mgl32.Vec2{1.01, -1}, mgl32.Vec2{1, 0}},
		{mgl32.Vec2{-1.01, 3.5}, mgl32.Vec2{-1, 2}},
		{mgl32.Vec2{-3.5, -1.01}, mgl32.Vec2{-2, -1}},
	}
	for _, tt := range tests {
		if got := tileOrigin(tt.p); got != tt.want {
			t.Errorf("tileOrigin(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestUniformLayouts(t *testing.T) {
	if (FadeParams{}).Size() != 32 || (PostParams{}).Size() != 16 || (CompositeParams{}).Size() != 16 {
		t.Errorf("unexpected uniform sizes")
	}
}
