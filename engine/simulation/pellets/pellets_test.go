package pellets

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

func TestGPULayouts(t *testing.T) {
	if got := (Particle{}).Size(); got != 40 {
		t.Errorf("Particle size = %d, want 40", got)
	}
	if got := (Params{}).Size(); got != 112 {
		t.Errorf("Params size = %d, want 112", got)
	}
}

func TestElasticCollisionSwapsEqualMasses(t *testing.T) {
	// a moves right at 1, b is at rest to its right: relative normal velocity is -1.
	va, vb := float32(1), float32(0)
	dv := Impulse(1, 1, vb-va, 0)
	va += dv
	vb -= dv
	if math.Abs(float64(va)) > 1e-6 || math.Abs(float64(vb-1)) > 1e-6 {
		t.Errorf("after collision va=%v vb=%v, want 0 and 1", va, vb)
	}
}

func TestCollisionConservesMomentum(t *testing.T) {
	for _, damping := range []float32{0, 0.3, 1} {
		ma, mb := float32(2), float32(0.5)
		va, vb := float32(0.4), float32(-0.9)
		before := ma*va + mb*vb
		// Each pellet sees the pair closing along its own normal: +x for a, -x for b.
		dva := Impulse(ma, mb, vb-va, damping)
		dvb := Impulse(mb, ma, vb-va, damping)
		va += dva
		vb -= dvb
		after := ma*va + mb*vb
		if math.Abs(float64(after-before)) > 1e-5 {
			t.Errorf("damping %v: momentum %v -> %v", damping, before, after)
		}
	}
}

func TestSeparatingPairsGetNoImpulse(t *testing.T) {
	if got := Impulse(1, 1, 0.5, 0); got != 0 {
		t.Errorf("Impulse(separating) = %v, want 0", got)
	}
}

func TestGravitySoftened(t *testing.T) {
	if got := Gravity(1, 1, 0, 0.01); math.Abs(float64(got-100)) > 1e-3 {
		t.Errorf("Gravity at r=0 = %v, want 100", got)
	}
	if Gravity(1, 1, 0.1, 0.01) >= Gravity(1, 1, 0.05, 0.01) {
		t.Error("gravity does not fall off with distance")
	}
}

func TestRadiusScalesWithMass(t *testing.T) {
	if got := Radius(0.01, 2, 2); got != 0.01 {
		t.Errorf("heaviest radius = %v, want base", got)
	}
	if Radius(0.01, 0.25, 2) >= Radius(0.01, 1, 2) {
		t.Error("lighter pellet is not smaller")
	}
}

func TestSeedClumps(t *testing.T) {
	s := DefaultSettings()
	s.normalize()
	s.ClumpCount = 3
	ps := Seed(s, 300, generate.NewRand(42))
	counts := map[uint32]int{}
	for _, p := range ps {
		counts[p.Clump]++
		if p.Mass < s.MassMin || p.Mass > s.MassMax {
			t.Fatalf("mass %v outside [%v, %v]", p.Mass, s.MassMin, s.MassMax)
		}
		if math.Abs(float64(p.Pos[0])) > 1 || math.Abs(float64(p.Pos[1])) > 1 {
			t.Fatalf("position %v outside the tile", p.Pos)
		}
	}
	for c := uint32(0); c < 3; c++ {
		if counts[c] != 100 {
			t.Errorf("clump %d has %d pellets, want 100", c, counts[c])
		}
	}
}

func TestSeedDeterministic(t *testing.T) {
	s := DefaultSettings()
	s.normalize()
	a := Seed(s, 50, generate.NewRand(7))
	b := Seed(s, 50, generate.NewRand(7))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pellet %d differs between identical seeds", i)
		}
	}
}

func TestApplyRouting(t *testing.T) {
	s := DefaultSettings()
	s.normalize()
	cases := []struct {
		name  string
		value any
		want  simulation.Change
	}{
		{"particle_count", 1000, simulation.ChangeRebuild},
		{"gravity_strength", 0.001, simulation.ChangeUniform},
		{"clump_count", 4, simulation.ChangeReseed},
		{"coloring_mode", "Mass", simulation.ChangeUniform},
		{"brightness", 1.5, simulation.ChangeUniform},
	}
	for _, tc := range cases {
		got, err := s.apply(tc.name, tc.value)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s change = %v, want %v", tc.name, got, tc.want)
		}
	}
	if s.ColoringMode != ColorMass || s.ColoringMode.index() != 2 {
		t.Errorf("coloring_mode = %q", s.ColoringMode)
	}
}

func TestMassBoundsStayOrdered(t *testing.T) {
	s := DefaultSettings()
	s.normalize()
	if _, err := s.apply("mass_min", 5.0); err != nil {
		t.Fatal(err)
	}
	if s.MassMax < s.MassMin {
		t.Errorf("mass_max %v < mass_min %v", s.MassMax, s.MassMin)
	}
	if _, err := s.apply("mass_max", 1.0); err != nil {
		t.Fatal(err)
	}
	if s.MassMin > s.MassMax {
		t.Errorf("mass_min %v > mass_max %v", s.MassMin, s.MassMax)
	}
}

func TestUnknownColoringModeFallsBack(t *testing.T) {
	s := DefaultSettings()
	s.normalize()
	s.ColoringMode = ColorClump
	if _, err := s.apply("coloring_mode", "Plaid"); err != nil {
		t.Fatal(err)
	}
	if s.ColoringMode != ColorDensity {
		t.Errorf("coloring_mode = %q, want Density", s.ColoringMode)
	}
}
