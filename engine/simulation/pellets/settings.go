package pellets

import (
	_ "embed"
	"math/rand/v2"
	"slices"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

// ColoringMode selects the scalar each pellet is coloured by.
type ColoringMode string

const (
	ColorDensity  ColoringMode = "Density"
	ColorVelocity ColoringMode = "Velocity"
	ColorMass     ColoringMode = "Mass"
	ColorClump    ColoringMode = "Clump"
)

// ColoringModes lists every ColoringMode in shader index order.
var ColoringModes = []ColoringMode{ColorDensity, ColorVelocity, ColorMass, ColorClump}

func (c ColoringMode) index() uint32 {
	return uint32(max(slices.Index(ColoringModes, c), 0))
}

const (
	MaxParticles = 500_000
	MaxClumps    = 64
)

// Settings are the persisted pellets knobs.
type Settings struct {
	ParticleCount          uint32            `json:"particle_count" yaml:"particle_count"`
	PelletRadius           float32           `json:"pellet_radius" yaml:"pellet_radius"`
	MassMin                float32           `json:"mass_min" yaml:"mass_min"`
	MassMax                float32           `json:"mass_max" yaml:"mass_max"`
	CollisionDamping       float32           `json:"collision_damping" yaml:"collision_damping"`
	OverlapResolution      bool              `json:"overlap_resolution" yaml:"overlap_resolution"`
	OverlapStrength        float32           `json:"overlap_strength" yaml:"overlap_strength"`
	GravityStrength        float32           `json:"gravity_strength" yaml:"gravity_strength"`
	Softening              float32           `json:"softening" yaml:"softening"`
	InteractionRadius      float32           `json:"interaction_radius" yaml:"interaction_radius"`
	LongRangeGravity       float32           `json:"long_range_gravity" yaml:"long_range_gravity"`
	DensityDampingEnabled  bool              `json:"density_damping_enabled" yaml:"density_damping_enabled"`
	DensityDampingStrength float32           `json:"density_damping_strength" yaml:"density_damping_strength"`
	ColoringMode           ColoringMode      `json:"coloring_mode" yaml:"coloring_mode"`
	InitialVelocity        float32           `json:"initial_velocity" yaml:"initial_velocity"`
	ClumpCount             uint32            `json:"clump_count" yaml:"clump_count"`
	WrapEdges              bool              `json:"wrap_edges" yaml:"wrap_edges"`
	PositionGenerator      generate.Position `json:"position_generator" yaml:"position_generator"`

	simulation.DisplaySettings `yaml:",inline"`
}

//go:embed defaults.yaml
var defaultsYAML []byte

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return simulation.MustLoadDefaults[Settings](defaultsYAML)
}

// cellSize is the grid cell: large enough for both gravity and the widest collision.
func (s Settings) cellSize() float32 {
	return max(s.InteractionRadius, 2*s.PelletRadius)
}

func (s *Settings) apply(name string, v any) (simulation.Change, error) {
	var err error
	f := func(dst *float32, lo, hi float32) {
		var x float32
		if x, err = simulation.Clamped(name, v, lo, hi); err == nil {
			*dst = x
		}
	}
	b := func(dst *bool) {
		var x bool
		if x, err = simulation.Bool(name, v); err == nil {
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
	case "pellet_radius":
		f(&s.PelletRadius, 0.0005, 0.05)
	case "mass_min":
		f(&s.MassMin, 0.01, 100)
		s.MassMax = max(s.MassMax, s.MassMin)
		change = simulation.ChangeReseed
	case "mass_max":
		f(&s.MassMax, 0.01, 100)
		s.MassMin = min(s.MassMin, s.MassMax)
		change = simulation.ChangeReseed
	case "collision_damping":
		f(&s.CollisionDamping, 0, 1)
	case "overlap_resolution":
		b(&s.OverlapResolution)
	case "overlap_strength":
		f(&s.OverlapStrength, 0, 1)
	case "gravity_strength":
		f(&s.GravityStrength, 0, 0.01)
	case "softening":
		f(&s.Softening, 1e-6, 0.01)
	case "interaction_radius":
		f(&s.InteractionRadius, 0.01, 0.5)
	case "long_range_gravity":
		f(&s.LongRangeGravity, -1, 1)
	case "density_damping_enabled":
		b(&s.DensityDampingEnabled)
	case "density_damping_strength":
		f(&s.DensityDampingStrength, 0, 1)
	case "coloring_mode":
		var c ColoringMode
		if c, err = simulation.Enum(name, v, ColoringModes, ColorDensity); err == nil {
			s.ColoringMode = c
		}
	case "initial_velocity":
		f(&s.InitialVelocity, 0, 1)
		change = simulation.ChangeReseed
	case "clump_count":
		var n int
		if n, err = simulation.ClampedInt(name, v, 1, MaxClumps); err == nil {
			s.ClumpCount = uint32(n)
		}
		change = simulation.ChangeReseed
	case "wrap_edges":
		b(&s.WrapEdges)
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
	s.ClumpCount = min(max(s.ClumpCount, 1), MaxClumps)
	s.MassMin = common.Clamp(s.MassMin, 0.01, 100)
	s.MassMax = max(s.MassMax, s.MassMin)
	s.InteractionRadius = common.Clamp(s.InteractionRadius, 0.01, 0.5)
	if !slices.Contains(ColoringModes, s.ColoringMode) {
		s.ColoringMode = ColorDensity
	}
	if !slices.Contains(generate.AllPositions, s.PositionGenerator) {
		s.PositionGenerator = generate.PositionRandom
	}
	s.DisplaySettings.Normalize()
}

func (s *Settings) randomize(rng *rand.Rand) {
	span := func(lo, hi float32) float32 { return lo + rng.Float32()*(hi-lo) }
	s.GravityStrength = span(0.00002, 0.0004)
	s.CollisionDamping = span(0, 0.6)
	s.InteractionRadius = span(0.04, 0.15)
	s.LongRangeGravity = span(-0.05, 0.1)
	s.ColoringMode = ColoringModes[rng.IntN(len(ColoringModes))]
}
