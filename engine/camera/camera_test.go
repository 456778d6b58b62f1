package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

func near(a, b common.Vec2, eps float64) bool {
	return math.Abs(float64(a[0]-b[0])) <= eps && math.Abs(float64(a[1]-b[1])) <= eps
}

func TestZoomToCursorKeepsWorldPoint(t *testing.T) {
	const w, h = 1280, 720
	cx, cy := float32(0.25*w), float32(0.25*h)

	cases := []struct {
		name      string
		smoothing float32
		delta     float32
	}{
		{"snap zoom in", 0, 0.5},
		{"snap zoom out", 0, -0.3},
		{"smoothed zoom in", 10, 0.5},
		{"smoothed zoom out", 10, -0.4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCamera(WithViewport(w, h), WithSmoothing(tc.smoothing))
			w0 := c.ScreenToWorld(cx, cy)
			c.ZoomToCursor(tc.delta, cx, cy)
			for i := 0; i < 120; i++ {
				c.Update(1.0 / 60)
				if got := c.ScreenToWorld(cx, cy); !near(got, w0, 1e-4) {
					t.Fatalf("frame %d: world under cursor drifted: got %v want %v", i, got, w0)
				}
			}
			want := 1 + tc.delta
			if math.Abs(float64(c.Zoom()-want)) > 1e-4 {
				t.Errorf("zoom = %v, want %v", c.Zoom(), want)
			}
		})
	}
}

func TestZoomClamp(t *testing.T) {
	c := NewCamera(WithSmoothing(0))
	for i := 0; i < 200; i++ {
		c.ZoomBy(1)
	}
	if c.Zoom() != MaxZoom {
		t.Errorf("zoom after zooming in = %v, want %v", c.Zoom(), MaxZoom)
	}
	for i := 0; i < 200; i++ {
		c.ZoomBy(-0.9)
	}
	if c.Zoom() != MinZoom {
		t.Errorf("zoom after zooming out = %v, want %v", c.Zoom(), MinZoom)
	}
	if z := NewCamera(WithZoom(1000)).Zoom(); z != MaxZoom {
		t.Errorf("WithZoom(1000) = %v, want %v", z, MaxZoom)
	}
}

func TestPanFollowsPointer(t *testing.T) {
	c := NewCamera(WithViewport(800, 600), WithZoom(2), WithSmoothing(0))
	before := c.ScreenToWorld(100, 100)
	c.Pan(40, -25)
	after := c.ScreenToWorld(140, 75)
	if !near(before, after, 1e-5) {
		t.Errorf("dragged point moved: before %v after %v", before, after)
	}
}

func TestPanCancelsZoomAnchor(t *testing.T) {
	c := NewCamera(WithViewport(800, 600), WithSmoothing(8))
	c.ZoomToCursor(1, 100, 100)
	c.Update(1.0 / 60)
	c.Pan(10, 0)
	pos := c.Position()
	c.Update(1.0 / 60)
	if c.Position()[0] > pos[0]+1 {
		t.Errorf("position jumped after pan: %v -> %v", pos, c.Position())
	}
}

func TestScreenWorldRoundTrip(t *testing.T) {
	c := NewCamera(WithViewport(1920, 1080), WithPosition(0.3, -0.7), WithZoom(3.5))
	for _, p := range []common.Vec2{{0, 0}, {960, 540}, {1919, 1079}, {12.5, 800}} {
		got := c.WorldToScreen(c.ScreenToWorld(p[0], p[1]))
		if !near(got, p, 1e-2) {
			t.Errorf("round trip of %v = %v", p, got)
		}
	}
}

func TestScreenToWorldYUp(t *testing.T) {
	c := NewCamera(WithViewport(1000, 1000))
	top := c.ScreenToWorld(500, 0)
	if math.Abs(float64(top[1]-1)) > 1e-6 {
		t.Errorf("top edge world y = %v, want 1", top[1])
	}
	centre := c.ScreenToWorld(500, 500)
	if !near(centre, common.Vec2{}, 1e-6) {
		t.Errorf("centre = %v, want origin", centre)
	}
}

func TestViewProjectionMapsViewportEdges(t *testing.T) {
	c := NewCamera(WithViewport(1600, 800), WithPosition(0.5, 0))
	vp := c.ViewProjection()
	right := c.ScreenToWorld(1600, 400)
	clip := vp.Mul4x1([4]float32{right[0], right[1], 0, 1})
	if math.Abs(float64(clip[0]-1)) > 1e-5 || math.Abs(float64(clip[1])) > 1e-5 {
		t.Errorf("right edge clip = %v, want (1, 0)", clip)
	}
}

func TestResetSnapsToOrigin(t *testing.T) {
	c := NewCamera(WithSmoothing(5))
	c.ZoomToCursor(2, 10, 10)
	c.Pan(30, 30)
	c.Reset()
	c.Update(0.5)
	if c.Zoom() != 1 || c.Position() != (common.Vec2{}) {
		t.Errorf("after reset: zoom %v position %v", c.Zoom(), c.Position())
	}
}

func TestUniformSize(t *testing.T) {
	u := NewCamera().Uniform()
	if u.Size() != 96 {
		t.Errorf("GPUCameraUniform size = %d, want 96", u.Size())
	}
	if len(u.Marshal()) != 96 {
		t.Errorf("marshalled size = %d, want 96", len(u.Marshal()))
	}
}
