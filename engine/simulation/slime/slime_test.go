package slime

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

func TestGPULayouts(t *testing.T) {
	if got := (Agent{}).Size(); got != 16 {
		t.Errorf("Agent size = %d, want 16", got)
	}
	if got := (Params{}).Size(); got != 96 {
		t.Errorf("Params size = %d, want 96", got)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.ParticleCount == 0 || s.TrailMapSize != 512 {
		t.Errorf("defaults = %+v", s)
	}
	if s.GradientType != GradientDisabled || s.PositionGenerator != generate.PositionRandom {
		t.Errorf("enum defaults = %q %q", s.GradientType, s.PositionGenerator)
	}
	if !s.Post().IsIdentity() {
		t.Error("default display is not identity")
	}
}

func TestDecayScenario(t *testing.T) {
	field := make([]float32, 64*64)
	for i := range field {
		field[i] = 1
	}
	for step := range uint64(10) {
		if Due(1, step) {
			Decay(field, 0.1)
		}
	}
	want := float32(math.Pow(0.9, 10))
	for i, v := range field {
		if math.Abs(float64(v-want)) > 1e-3 {
			t.Fatalf("texel %d = %v, want %v", i, v, want)
		}
	}
}

func TestDue(t *testing.T) {
	for step := range uint64(5) {
		if !Due(0, step) || !Due(1, step) {
			t.Errorf("frequency 0/1 skipped step %d", step)
		}
	}
	var ran int
	for step := range uint64(12) {
		if Due(3, step) {
			ran++
		}
	}
	if ran != 4 {
		t.Errorf("frequency 3 ran %d times in 12 steps, want 4", ran)
	}
}

func TestDiffuseConservesMass(t *testing.T) {
	const size = 16
	field := make([]float32, size*size)
	field[5*size+7] = 9
	out := Diffuse(field, size, 1)
	var sum float32
	for _, v := range out {
		sum += v
	}
	if math.Abs(float64(sum-9)) > 1e-4 {
		t.Errorf("mass = %v, want 9", sum)
	}
	if out[5*size+7] != 1 || out[4*size+6] != 1 {
		t.Errorf("full-rate diffusion should spread evenly: centre %v corner %v", out[5*size+7], out[4*size+6])
	}
	if same := Diffuse(field, size, 0); same[5*size+7] != 9 {
		t.Error("rate 0 changed the field")
	}
}

func TestGradientRange(t *testing.T) {
	for _, g := range GradientTypes {
		for y := float32(-1); y <= 1; y += 0.125 {
			for x := float32(-1); x <= 1; x += 0.125 {
				v := Gradient(g, x, y)
				if v < 0 || v > 1 {
					t.Fatalf("%s(%v, %v) = %v", g, x, y, v)
				}
			}
		}
	}
	if Gradient(GradientRadial, 0, 0) != 1 {
		t.Error("radial gradient should peak at the origin")
	}
}

func TestApplyRouting(t *testing.T) {
	cases := []struct {
		name   string
		value  any
		change simulation.Change
		check  func(Settings) bool
	}{
		{"particle_count", 50000.0, simulation.ChangeRebuild, func(s Settings) bool { return s.ParticleCount == 50000 }},
		{"trail_map_size", 10.0, simulation.ChangeRebuild, func(s Settings) bool { return s.TrailMapSize == MinMapSize }},
		{"decay_rate", 3.0, simulation.ChangeUniform, func(s Settings) bool { return s.DecayRate == 1 }},
		{"gradient_type", "Spiral", simulation.ChangeUniform, func(s Settings) bool { return s.GradientType == GradientSpiral }},
		{"gradient_type", "spiral", simulation.ChangeUniform, func(s Settings) bool { return s.GradientType == GradientDisabled }},
		{"position_generator", "Ring", simulation.ChangeReseed, func(s Settings) bool { return s.PositionGenerator == generate.PositionRing }},
		{"wrap_edges", false, simulation.ChangeUniform, func(s Settings) bool { return !s.WrapEdges }},
		{"brightness", 2.0, simulation.ChangeUniform, func(s Settings) bool { return s.Brightness == 2 }},
	}
	for _, c := range cases {
		s := DefaultSettings()
		change, err := s.apply(c.name, c.value)
		if err != nil {
			t.Errorf("%s: %v", c.name, err)
			continue
		}
		if change != c.change || !c.check(s) {
			t.Errorf("%s=%v: change %v, settings %+v", c.name, c.value, change, s)
		}
	}
}

func TestApplyRejects(t *testing.T) {
	s := DefaultSettings()
	before := s
	var inv *common.InvalidSettingError
	if _, err := s.apply("no_such_setting", 1.0); !errors.As(err, &inv) {
		t.Errorf("unknown name error = %v", err)
	}
	if _, err := s.apply("agent_speed", "fast"); !errors.As(err, &inv) {
		t.Errorf("bad value error = %v", err)
	}
	if s != before {
		t.Error("rejected updates modified settings")
	}
}

func TestSettingsJSONRoundTrip(t *testing.T) {
	s := DefaultSettings()
	s.randomize(generate.NewRand(3))
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	next := DefaultSettings()
	if _, err := simulation.ApplyJSON(data, nil, next.apply); err != nil {
		t.Fatal(err)
	}
	if next != s {
		t.Errorf("applied settings differ:\n got %+v\nwant %+v", next, s)
	}
}
