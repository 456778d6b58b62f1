package slime

import (
	_ "embed"
	"math/rand/v2"
	"slices"

	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

// GradientType selects the static field agents are additionally drawn to.
type GradientType string

const (
	GradientDisabled     GradientType = "Disabled"
	GradientLinear       GradientType = "Linear"
	GradientRadial       GradientType = "Radial"
	GradientEllipse      GradientType = "Ellipse"
	GradientSpiral       GradientType = "Spiral"
	GradientCheckerboard GradientType = "Checkerboard"
)

// GradientTypes lists every gradient; the index is the value the kernels see.
var GradientTypes = []GradientType{GradientDisabled, GradientLinear, GradientRadial, GradientEllipse, GradientSpiral, GradientCheckerboard}

func (g GradientType) index() uint32 {
	for i, v := range GradientTypes {
		if v == g {
			return uint32(i)
		}
	}
	return 0
}

const (
	MaxAgents    = 4_000_000
	MinMapSize   = 64
	MaxMapSize   = 4096
	maxFrequency = 120
)

// Settings are the persisted slime mould knobs. Angles are in degrees, rates per second.
type Settings struct {
	ParticleCount      uint32            `json:"particle_count" yaml:"particle_count"`
	AgentSpeed         float32           `json:"agent_speed" yaml:"agent_speed"`
	SensorAngle        float32           `json:"sensor_angle" yaml:"sensor_angle"`
	SensorDistance     float32           `json:"sensor_distance" yaml:"sensor_distance"`
	TurnRate           float32           `json:"turn_rate" yaml:"turn_rate"`
	Jitter             float32           `json:"jitter" yaml:"jitter"`
	Deposition         float32           `json:"deposition" yaml:"deposition"`
	DecayRate          float32           `json:"decay_rate" yaml:"decay_rate"`
	DecayFrequency     uint32            `json:"decay_frequency" yaml:"decay_frequency"`
	DiffusionRate      float32           `json:"diffusion_rate" yaml:"diffusion_rate"`
	DiffusionFrequency uint32            `json:"diffusion_frequency" yaml:"diffusion_frequency"`
	TrailMapSize       uint32            `json:"trail_map_size" yaml:"trail_map_size"`
	GradientType       GradientType      `json:"gradient_type" yaml:"gradient_type"`
	GradientStrength   float32           `json:"gradient_strength" yaml:"gradient_strength"`
	PositionGenerator  generate.Position `json:"position_generator" yaml:"position_generator"`
	WrapEdges          bool              `json:"wrap_edges" yaml:"wrap_edges"`

	simulation.DisplaySettings `yaml:",inline"`
}

//go:embed defaults.yaml
var defaultsYAML []byte

// DefaultSettings returns the built-in slime settings.
func DefaultSettings() Settings {
	return simulation.MustLoadDefaults[Settings](defaultsYAML)
}

// apply routes one name into s. s is only modified when the value is accepted.
func (s *Settings) apply(name string, v any) (simulation.Change, error) {
	var err error
	f := func(dst *float32, lo, hi float32) {
		var x float32
		if x, err = simulation.Clamped(name, v, lo, hi); err == nil {
			*dst = x
		}
	}
	u := func(dst *uint32, lo, hi int) {
		var x int
		if x, err = simulation.ClampedInt(name, v, lo, hi); err == nil {
			*dst = uint32(x)
		}
	}

	change := simulation.ChangeUniform
	switch name {
	case "particle_count":
		u(&s.ParticleCount, 1, MaxAgents)
		change = simulation.ChangeRebuild
	case "agent_speed":
		f(&s.AgentSpeed, 0, 5)
	case "sensor_angle":
		f(&s.SensorAngle, 0, 180)
	case "sensor_distance":
		f(&s.SensorDistance, 0, 0.5)
	case "turn_rate":
		f(&s.TurnRate, 0, 100)
	case "jitter":
		f(&s.Jitter, 0, 50)
	case "deposition":
		f(&s.Deposition, 0, 1)
	case "decay_rate":
		f(&s.DecayRate, 0, 1)
	case "decay_frequency":
		u(&s.DecayFrequency, 0, maxFrequency)
	case "diffusion_rate":
		f(&s.DiffusionRate, 0, 1)
	case "diffusion_frequency":
		u(&s.DiffusionFrequency, 0, maxFrequency)
	case "trail_map_size":
		u(&s.TrailMapSize, MinMapSize, MaxMapSize)
		change = simulation.ChangeRebuild
	case "gradient_type":
		var g GradientType
		if g, err = simulation.Enum(name, v, GradientTypes, GradientDisabled); err == nil {
			s.GradientType = g
		}
	case "gradient_strength":
		f(&s.GradientStrength, -2, 2)
	case "position_generator":
		var p generate.Position
		if p, err = simulation.Enum(name, v, generate.AllPositions, generate.PositionRandom); err == nil {
			s.PositionGenerator = p
		}
		change = simulation.ChangeReseed
	case "wrap_edges":
		var b bool
		if b, err = simulation.Bool(name, v); err == nil {
			s.WrapEdges = b
		}
	default:
		handled, derr := s.DisplaySettings.Apply(name, v)
		if !handled {
			return simulation.ChangeNone, simulation.UnknownName("Slime", name)
		}
		err = derr
	}
	if err != nil {
		return simulation.ChangeNone, err
	}
	return change, nil
}

// normalize clamps values that arrived through presets.
func (s *Settings) normalize() {
	s.ParticleCount = min(max(s.ParticleCount, 1), MaxAgents)
	s.TrailMapSize = min(max(s.TrailMapSize, MinMapSize), MaxMapSize)
	s.DecayFrequency = min(s.DecayFrequency, maxFrequency)
	s.DiffusionFrequency = min(s.DiffusionFrequency, maxFrequency)
	if !slices.Contains(GradientTypes, s.GradientType) {
		s.GradientType = GradientDisabled
	}
	if p, ok := generate.ParsePosition(string(s.PositionGenerator)); !ok {
		s.PositionGenerator = p
	}
	s.DisplaySettings.Normalize()
}

// randomize draws new behaviour knobs; counts and map size are kept.
func (s *Settings) randomize(rng *rand.Rand) {
	span := func(lo, hi float32) float32 { return lo + rng.Float32()*(hi-lo) }
	s.AgentSpeed = span(0.05, 0.6)
	s.SensorAngle = span(10, 90)
	s.SensorDistance = span(0.005, 0.06)
	s.TurnRate = span(2, 30)
	s.Jitter = span(0, 4)
	s.Deposition = span(0.02, 0.3)
	s.DecayRate = span(0.01, 0.15)
	s.DiffusionRate = span(0.1, 1)
}
