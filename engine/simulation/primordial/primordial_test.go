package primordial

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/grid"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

func TestGPULayouts(t *testing.T) {
	if got := (Particle{}).Size(); got != 16 {
		t.Errorf("Particle size = %d, want 16", got)
	}
	if got := (Params{}).Size(); got != 80 {
		t.Errorf("Params size = %d, want 80", got)
	}
}

func TestTurn(t *testing.T) {
	alpha := float32(math.Pi)
	beta := float32(17 * math.Pi / 180)
	cases := []struct {
		left, right int
		want        float32
	}{
		{0, 0, alpha},
		{2, 2, alpha},
		{1, 3, alpha + beta*4},
		{5, 1, alpha - beta*6},
	}
	for _, tc := range cases {
		if got := Turn(alpha, beta, tc.left, tc.right); math.Abs(float64(got-tc.want)) > 1e-6 {
			t.Errorf("Turn(L=%d, R=%d) = %v, want %v", tc.left, tc.right, got, tc.want)
		}
	}
}

func TestSide(t *testing.T) {
	// Facing +x, +y is on the left.
	if Side(0, [2]float32{0, 1}) {
		t.Error("+y reported on the right when facing +x")
	}
	if !Side(0, [2]float32{0, -1}) {
		t.Error("-y reported on the left when facing +x")
	}
	// Facing +y, +x is on the right.
	if !Side(math.Pi/2, [2]float32{1, 0}) {
		t.Error("+x reported on the left when facing +y")
	}
}

func TestCountNeighboursWithCPUGrid(t *testing.T) {
	const radius = 0.1
	g := grid.NewCPUGrid(radius, grid.DefaultCapacity, true)
	ps := []common.Vec2{{0, 0}, {0, 0.05}, {0, -0.05}, {0.03, -0.02}, {0.5, 0.5}}
	g.Populate(ps)

	var left, right int
	g.Neighbors(0, 0, func(j uint32) {
		if j == 0 {
			return
		}
		d := ps[j]
		if float32(math.Hypot(float64(d[0]), float64(d[1]))) >= radius {
			return
		}
		if Side(0, d) {
			right++
		} else {
			left++
		}
	})
	if left != 1 || right != 2 {
		t.Errorf("left=%d right=%d, want 1 and 2", left, right)
	}
	if got := Turn(1, 0.5, left, right); got != 1+0.5*3 {
		t.Errorf("Turn = %v", got)
	}
}

func TestApplyRouting(t *testing.T) {
	s := DefaultSettings()
	s.normalize()
	if change, err := s.apply("alpha", 90); err != nil || change != simulation.ChangeUniform {
		t.Errorf("alpha: change=%v err=%v", change, err)
	}
	if change, err := s.apply("particle_count", 500); err != nil || change != simulation.ChangeRebuild {
		t.Errorf("particle_count: change=%v err=%v", change, err)
	}
	if _, err := s.apply("radius", 9); err != nil || s.Radius != MaxRadius {
		t.Errorf("radius = %v err=%v, want clamp to %v", s.Radius, err, MaxRadius)
	}
	if _, err := s.apply("alpha", "wide"); err == nil {
		t.Error("non-numeric alpha accepted")
	}
	if _, err := s.apply("gamma_ray", 1); err == nil {
		t.Error("unknown setting accepted")
	}
}

func TestDefaults(t *testing.T) {
	s := DefaultSettings()
	if s.Alpha != 180 || s.Beta != 17 {
		t.Errorf("defaults alpha=%v beta=%v, want 180/17", s.Alpha, s.Beta)
	}
}
