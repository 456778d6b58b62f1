package cursor

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestButtonMap(t *testing.T) {
	tests := []struct {
		button int
		want   Mode
	}{
		{0, Primary},
		{1, Inactive},
		{2, Secondary},
		{7, Inactive},
	}
	for _, tt := range tests {
		if got := ButtonMode(tt.button); got != tt.want {
			t.Errorf("ButtonMode(%d) = %v, want %v", tt.button, got, tt.want)
		}
	}
}

func TestStateMachine(t *testing.T) {
	c := New()
	if c.Press(common.Vec2{0, 0}, 1, 0.016) {
		t.Errorf("middle button started an action")
	}
	if !c.Press(common.Vec2{0, 0}, 0, 0.016) || c.Mode() != Primary {
		t.Fatalf("primary press mode = %v", c.Mode())
	}
	if c.Release(2) {
		t.Errorf("releasing another button ended the action")
	}
	if !c.Release(0) || c.Mode() != Inactive {
		t.Errorf("release mode = %v", c.Mode())
	}
	c.Press(common.Vec2{0, 0}, 2, 0.016)
	if c.Mode() != Secondary {
		t.Errorf("secondary press mode = %v", c.Mode())
	}
}

func TestVelocityEMA(t *testing.T) {
	c := New()
	c.Press(common.Vec2{0, 0}, 0, 0.1)
	if c.Velocity() != (common.Vec2{}) {
		t.Fatalf("first sample produced velocity %v", c.Velocity())
	}
	c.Move(common.Vec2{0.1, 0}, 0.1)
	// 0.3*0 + 0.7*(0.1/0.1)
	if !near(c.Velocity()[0], 0.7) {
		t.Errorf("vx = %v, want 0.7", c.Velocity()[0])
	}
	c.Move(common.Vec2{0.2, 0}, 0.1)
	if !near(c.Velocity()[0], 0.3*0.7+0.7) {
		t.Errorf("vx = %v, want %v", c.Velocity()[0], 0.3*0.7+0.7)
	}
}

func TestReleaseKeepsVelocityThenDecays(t *testing.T) {
	c := New()
	c.Press(common.Vec2{0, 0}, 0, 0.1)
	c.Move(common.Vec2{0.1, 0}, 0.1)
	v := c.Velocity()[0]
	c.Release(0)
	if c.Velocity()[0] != v {
		t.Fatalf("release changed velocity")
	}
	c.Tick()
	c.Tick()
	if !near(c.Velocity()[0], v*0.95*0.95) {
		t.Errorf("vx after two ticks = %v, want %v", c.Velocity()[0], v*0.95*0.95)
	}
}

func TestHeldCursorDoesNotDecay(t *testing.T) {
	c := New()
	c.Press(common.Vec2{0, 0}, 0, 0.1)
	c.Move(common.Vec2{0.1, 0}, 0.1)
	v := c.Velocity()
	c.Tick()
	if c.Velocity() != v {
		t.Errorf("velocity decayed while held")
	}
}

func TestPositionStaysOnTile(t *testing.T) {
	c := New()
	c.Move(common.Vec2{0.95, 0}, 0.1)
	c.Move(common.Vec2{1.05, 3.5}, 0.1)
	p := c.Position()
	if p[0] < -1 || p[0] > 1 || p[1] < -1 || p[1] > 1 {
		t.Fatalf("position %v outside the unit tile", p)
	}
	// Crossing the edge moved 0.1 to the right, not 1.9 to the left.
	if c.Velocity()[0] <= 0 {
		t.Errorf("edge crossing produced vx = %v", c.Velocity()[0])
	}
}

func TestGPUCursorLayout(t *testing.T) {
	if got := (GPUCursor{}).Size(); got != 32 {
		t.Errorf("GPUCursor size = %d, want 32", got)
	}
}
