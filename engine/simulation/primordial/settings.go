package primordial

import (
	_ "embed"
	"math/rand/v2"
	"slices"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

const (
	MaxParticles = 500_000
	MinRadius    = 0.005
	MaxRadius    = 0.25
)

// Settings are the persisted primordial particle knobs. Alpha and beta are in degrees.
type Settings struct {
	ParticleCount     uint32            `json:"particle_count" yaml:"particle_count"`
	Alpha             float32           `json:"alpha" yaml:"alpha"`
	Beta              float32           `json:"beta" yaml:"beta"`
	Velocity          float32           `json:"velocity" yaml:"velocity"`
	Radius            float32           `json:"radius" yaml:"radius"`
	WrapEdges         bool              `json:"wrap_edges" yaml:"wrap_edges"`
	ParticleSize      float32           `json:"particle_size" yaml:"particle_size"`
	PositionGenerator generate.Position `json:"position_generator" yaml:"position_generator"`

	simulation.DisplaySettings `yaml:",inline"`
}

//go:embed defaults.yaml
var defaultsYAML []byte

// DefaultSettings returns the built-in settings, the classic 180°/17° system.
func DefaultSettings() Settings {
	return simulation.MustLoadDefaults[Settings](defaultsYAML)
}

func (s *Settings) apply(name string, v any) (simulation.Change, error) {
	var err error
	f := func(dst *float32, lo, hi float32) {
		var x float32
		if x, err = simulation.Clamped(name, v, lo, hi); err == nil {
			*dst = x
		}
	}

	change := simulation.ChangeUniform
	switch name {
	case "particle_count":
		var n int
		if n, err = simulation.ClampedInt(name, v, 1, MaxParticles); err == nil {
			s.ParticleCount = uint32(n)
		}
		change = simulation.ChangeRebuild
	case "alpha":
		f(&s.Alpha, -180, 180)
	case "beta":
		f(&s.Beta, -90, 90)
	case "velocity":
		f(&s.Velocity, 0, 1)
	case "radius":
		f(&s.Radius, MinRadius, MaxRadius)
	case "wrap_edges":
		var b bool
		if b, err = simulation.Bool(name, v); err == nil {
			s.WrapEdges = b
		}
	case "particle_size":
		f(&s.ParticleSize, 0.0005, 0.05)
	case "position_generator":
		var p generate.Position
		if p, err = simulation.Enum(name, v, generate.AllPositions, generate.PositionRandom); err == nil {
			s.PositionGenerator = p
		}
		change = simulation.ChangeReseed
	default:
		handled, derr := s.DisplaySettings.Apply(name, v)
		if !handled {
			return simulation.ChangeNone, simulation.UnknownName(label, name)
		}
		err = derr
	}
	if err != nil {
		return simulation.ChangeNone, err
	}
	return change, nil
}

func (s *Settings) normalize() {
	s.ParticleCount = min(max(s.ParticleCount, 1), MaxParticles)
	s.Radius = common.Clamp(s.Radius, MinRadius, MaxRadius)
	if !slices.Contains(generate.AllPositions, s.PositionGenerator) {
		s.PositionGenerator = generate.PositionRandom
	}
	s.DisplaySettings.Normalize()
}

// randomize draws a new alpha/beta pair, the two angles that decide which structures emerge.
func (s *Settings) randomize(rng *rand.Rand) {
	s.Alpha = rng.Float32()*360 - 180
	s.Beta = rng.Float32()*60 - 30
	s.Radius = 0.015 + rng.Float32()*0.03
}
