package flow

import (
	_ "embed"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

const (
	MaxParticles = 2_000_000
	MinMapSize   = 64
	MaxMapSize   = 4096
)

// Settings are the persisted flow field knobs.
type Settings struct {
	ParticleCount      uint32    `json:"particle_count" yaml:"particle_count"`
	ParticleLifetime   float32   `json:"particle_lifetime" yaml:"particle_lifetime"`
	ParticleSpeed      float32   `json:"particle_speed" yaml:"particle_speed"`
	VectorMagnitude    float32   `json:"vector_magnitude" yaml:"vector_magnitude"`
	NoiseType          NoiseType `json:"noise_type" yaml:"noise_type"`
	NoiseScale         float32   `json:"noise_scale" yaml:"noise_scale"`
	NoiseSeed          int64     `json:"noise_seed" yaml:"noise_seed"`
	TrailDecayRate     float32   `json:"trail_decay_rate" yaml:"trail_decay_rate"`
	TrailDiffusionRate float32   `json:"trail_diffusion_rate" yaml:"trail_diffusion_rate"`
	TrailDeposition    float32   `json:"trail_deposition" yaml:"trail_deposition"`
	TrailWashOutRate   float32   `json:"trail_wash_out_rate" yaml:"trail_wash_out_rate"`
	AutospawnEnabled   bool      `json:"autospawn_enabled" yaml:"autospawn_enabled"`
	SpawnRate          float32   `json:"spawn_rate" yaml:"spawn_rate"`
	ParticleSize       float32   `json:"particle_size" yaml:"particle_size"`
	TrailMapSize       uint32    `json:"trail_map_size" yaml:"trail_map_size"`

	simulation.DisplaySettings `yaml:",inline"`
}

//go:embed defaults.yaml
var defaultsYAML []byte

// DefaultSettings returns the built-in flow settings.
func DefaultSettings() Settings {
	return simulation.MustLoadDefaults[Settings](defaultsYAML)
}

// vectorsChanged reports whether the flow vectors must be regenerated to go from s to next.
func (s Settings) vectorsChanged(next Settings) bool {
	return s.NoiseType != next.NoiseType || s.NoiseScale != next.NoiseScale || s.NoiseSeed != next.NoiseSeed
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
	case "particle_lifetime":
		f(&s.ParticleLifetime, 0.1, 120)
	case "particle_speed":
		f(&s.ParticleSpeed, 0, 5)
	case "vector_magnitude":
		f(&s.VectorMagnitude, 0, 10)
	case "noise_type":
		var t NoiseType
		if t, err = simulation.Enum(name, v, NoiseTypes, NoiseOpenSimplex); err == nil {
			s.NoiseType = t
		}
	case "noise_scale":
		f(&s.NoiseScale, 0.01, 50)
	case "noise_seed":
		var n uint64
		if n, err = simulation.Uint64(name, v); err == nil {
			s.NoiseSeed = int64(n & math.MaxInt64)
		}
	case "trail_decay_rate":
		f(&s.TrailDecayRate, 0, 1)
	case "trail_diffusion_rate":
		f(&s.TrailDiffusionRate, 0, 1)
	case "trail_deposition":
		f(&s.TrailDeposition, 0, 1)
	case "trail_wash_out_rate":
		f(&s.TrailWashOutRate, 0, 1)
	case "autospawn_enabled":
		var b bool
		if b, err = simulation.Bool(name, v); err == nil {
			s.AutospawnEnabled = b
		}
	case "spawn_rate":
		f(&s.SpawnRate, 0, 1)
	case "particle_size":
		f(&s.ParticleSize, 0.0005, 0.05)
	case "trail_map_size":
		var n int
		if n, err = simulation.ClampedInt(name, v, MinMapSize, MaxMapSize); err == nil {
			s.TrailMapSize = uint32(n)
		}
		change = simulation.ChangeRebuild
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
	s.TrailMapSize = min(max(s.TrailMapSize, MinMapSize), MaxMapSize)
	if !slices.Contains(NoiseTypes, s.NoiseType) {
		s.NoiseType = NoiseOpenSimplex
	}
	if s.NoiseScale <= 0 {
		s.NoiseScale = 1
	}
	s.ParticleLifetime = max(s.ParticleLifetime, 0.1)
	s.DisplaySettings.Normalize()
}

func (s *Settings) randomize(rng *rand.Rand) {
	span := func(lo, hi float32) float32 { return lo + rng.Float32()*(hi-lo) }
	s.NoiseType = NoiseTypes[rng.IntN(len(NoiseTypes))]
	s.NoiseScale = span(0.5, 8)
	s.NoiseSeed = rng.Int64N(1 << 31)
	s.ParticleSpeed = span(0.05, 0.4)
	s.ParticleLifetime = span(2, 12)
	s.TrailDecayRate = span(0.005, 0.08)
	s.TrailDiffusionRate = span(0, 0.5)
	s.TrailDeposition = span(0.02, 0.2)
}
