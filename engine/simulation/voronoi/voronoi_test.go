package voronoi

import (
	"errors"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

func TestGPULayouts(t *testing.T) {
	if got := (Params{}).Size(); got != 64 {
		t.Errorf("Params size = %d, want 64", got)
	}
}

// Four seeds on a 2x2 lattice split the torus into four squares; every square touches every
// other one across the wrapped edges.
func TestLatticeGeometry(t *testing.T) {
	seeds := []common.Vec2{{-0.5, -0.5}, {0.5, -0.5}, {-0.5, 0.5}, {0.5, 0.5}}
	g := Build(seeds, 64)
	if got := g.Owner[0]; got != 0 {
		t.Errorf("owner of bottom-left texel = %d, want 0", got)
	}
	if got := g.Owner[63]; got != 1 {
		t.Errorf("owner of bottom-right texel = %d, want 1", got)
	}
	if got := g.Owner[63*64+63]; got != 3 {
		t.Errorf("owner of top-right texel = %d, want 3", got)
	}
	for i := range seeds {
		n := g.Neighbors(i)
		if len(n) != 2 {
			t.Errorf("cell %d neighbours = %v, want the two edge-sharing cells", i, n)
		}
		if slices.Contains(n, uint32(i)) {
			t.Errorf("cell %d lists itself", i)
		}
	}
}

func TestAdjacencySymmetric(t *testing.T) {
	g := NewGeometry(300, 128, generate.NewRand(42))
	if len(g.Offsets) != 301 {
		t.Fatalf("offsets = %d, want 301", len(g.Offsets))
	}
	for i := range g.Seeds {
		for _, j := range g.Neighbors(i) {
			if !slices.Contains(g.Neighbors(int(j)), uint32(i)) {
				t.Fatalf("%d lists %d but not the reverse", i, j)
			}
		}
	}
}

func TestOwnerMatchesBruteForce(t *testing.T) {
	g := NewGeometry(200, 64, generate.NewRand(7))
	texel := float32(2) / 64
	for _, y := range []uint32{0, 13, 31, 63} {
		for _, x := range []uint32{0, 7, 40, 63} {
			px := -1 + (float32(x)+0.5)*texel
			py := -1 + (float32(y)+0.5)*texel
			best, bestD := uint32(0), float32(10)
			for i, s := range g.Seeds {
				if d := torusDist2(s, px, py); d < bestD {
					best, bestD = uint32(i), d
				}
			}
			if got := g.Owner[y*64+x]; torusDist2(g.Seeds[got], px, py) > bestD {
				t.Errorf("texel (%d,%d) owner %d, nearest is %d", x, y, got, best)
			}
		}
	}
}

func TestStepAppliesRule(t *testing.T) {
	// A hub cell 0 joined to cells 1..4 in a star.
	g := &Geometry{
		Seeds:   make([]common.Vec2, 5),
		Offsets: []uint32{0, 4, 5, 6, 7, 8},
		Indices: []uint32{1, 2, 3, 4, 0, 0, 0, 0},
	}
	rule, err := generate.ParseRule("B3/S23")
	if err != nil {
		t.Fatal(err)
	}
	// Three live leaves give the dead hub exactly three live neighbours.
	next := Step(rule, g, []uint32{0, 1, 1, 1, 0})
	if next[0] != 1 {
		t.Error("hub with three live neighbours was not born")
	}
	// Leaves have one neighbour (the dead hub) and die.
	for i := 1; i <= 3; i++ {
		if next[i] != 0 {
			t.Errorf("leaf %d survived with no live neighbours", i)
		}
	}
}

func TestRandomStateDensity(t *testing.T) {
	state := RandomState(10000, 0.3, generate.NewRand(1))
	var live int
	for _, s := range state {
		live += int(s)
	}
	if live < 2800 || live > 3200 {
		t.Errorf("live = %d, want about 3000", live)
	}
}

func TestRulestring(t *testing.T) {
	s := DefaultSettings()
	s.normalize()
	if _, err := s.apply("rulestring", "S23/B36"); err != nil {
		t.Fatal(err)
	}
	if s.Rulestring != "B36/S23" {
		t.Errorf("rulestring = %q, want canonical B36/S23", s.Rulestring)
	}
	_, err := s.apply("rulestring", "B9X/S2")
	var inv *common.InvalidSettingError
	if !errors.As(err, &inv) {
		t.Errorf("err = %v, want InvalidSettingError", err)
	}
	if s.Rulestring != "B36/S23" {
		t.Error("rejected rulestring replaced the stored one")
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
		{"cell_count", 500, simulation.ChangeRebuild},
		{"owner_map_size", 256, simulation.ChangeRebuild},
		{"initial_density", 0.5, simulation.ChangeReseed},
		{"steps_per_second", 30, simulation.ChangeUniform},
		{"auto_reseed_enabled", true, simulation.ChangeUniform},
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
}

func TestDueCarriesFraction(t *testing.T) {
	v := &Voronoi{settings: Settings{StepsPerSecond: 10}}
	total := 0
	for range 10 {
		total += v.due(0.05)
	}
	if total != 5 {
		t.Errorf("steps over 0.5s at 10/s = %d, want 5", total)
	}
	if got := v.due(5); got != maxStepsPerFrame {
		t.Errorf("catch-up steps = %d, want cap %d", got, maxStepsPerFrame)
	}
}
