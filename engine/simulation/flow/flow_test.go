package flow

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

func TestGPULayouts(t *testing.T) {
	if got := (Particle{}).Size(); got != 32 {
		t.Errorf("Particle size = %d, want 32", got)
	}
	if got := (Params{}).Size(); got != 96 {
		t.Errorf("Params size = %d, want 96", got)
	}
}

func TestVectorsAreUnitAndDeterministic(t *testing.T) {
	for _, nt := range NoiseTypes {
		a := Vectors(nt, 11, 3)
		b := Vectors(nt, 11, 3)
		if len(a) != VectorGridSize*VectorGridSize {
			t.Fatalf("%s: %d vectors", nt, len(a))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%s: vector %d differs between runs", nt, i)
			}
			l := math.Hypot(float64(a[i][0]), float64(a[i][1]))
			if math.Abs(l-1) > 1e-4 {
				t.Fatalf("%s: vector %d has length %v", nt, i, l)
			}
		}
	}
}

func TestVectorsDependOnSeed(t *testing.T) {
	a := Vectors(NoiseOpenSimplex, 1, 3)
	b := Vectors(NoiseOpenSimplex, 2, 3)
	same := 0
	for i := range a {
		if a[i] == b[i] {
			same++
		}
	}
	if same == len(a) {
		t.Error("different seeds produced the same field")
	}
}

func TestSampleMatchesNodes(t *testing.T) {
	grid := Vectors(NoisePerlin, 5, 2)
	const n = VectorGridSize
	for _, c := range [][2]int{{0, 0}, {17, 64}, {127, 127}} {
		x := float32(c[0])/n*2 - 1
		y := float32(c[1])/n*2 - 1
		got := Sample(grid, x, y)
		want := grid[c[1]*n+c[0]]
		if math.Abs(float64(got[0]-want[0])) > 1e-4 || math.Abs(float64(got[1]-want[1])) > 1e-4 {
			t.Errorf("Sample at node %v = %v, want %v", c, got, want)
		}
	}
}

func TestSampleWraps(t *testing.T) {
	grid := make([]common.Vec2, VectorGridSize*VectorGridSize)
	for i := range grid {
		grid[i] = common.Vec2{float32(i % VectorGridSize), 0}
	}
	a := Sample(grid, -0.5, 0.2)
	b := Sample(grid, 1.5, 0.2)
	if a != b {
		t.Errorf("Sample is not periodic: %v vs %v", a, b)
	}
}

func TestApplyRouting(t *testing.T) {
	s := DefaultSettings()
	prev := s
	if c, err := s.apply("noise_type", "Perlin"); err != nil || c != simulation.ChangeUniform || s.NoiseType != NoisePerlin {
		t.Errorf("noise_type: %v %v %q", c, err, s.NoiseType)
	}
	if !prev.vectorsChanged(s) {
		t.Error("noise type change should regenerate vectors")
	}
	if _, err := s.apply("noise_type", "Worley"); err != nil || s.NoiseType != NoiseOpenSimplex {
		t.Errorf("unknown noise type should fall back, got %q, %v", s.NoiseType, err)
	}
	if c, _ := s.apply("particle_count", 123.0); c != simulation.ChangeRebuild || s.ParticleCount != 123 {
		t.Errorf("particle_count change %v count %d", c, s.ParticleCount)
	}
	if _, err := s.apply("spawn_rate", 9.0); err != nil || s.SpawnRate != 1 {
		t.Errorf("spawn_rate clamp = %v, %v", s.SpawnRate, err)
	}
	if _, err := s.apply("sensor_angle", 1.0); err == nil {
		t.Error("slime setting accepted by flow")
	}
	if prev.vectorsChanged(prev) {
		t.Error("identical settings reported a vector change")
	}
}
