package life

import (
	_ "embed"
	"math/rand/v2"
	"slices"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
	"gonum.org/v1/gonum/mat"
)

const (
	MaxParticles = 1_000_000
	MinSpecies   = 2
	MaxSpecies   = 16
	MinDistance  = 0.01
	MaxDistance  = 0.5
)

// Settings are the persisted particle life knobs.
type Settings struct {
	ParticleCount     uint32            `json:"particle_count" yaml:"particle_count"`
	SpeciesCount      uint32            `json:"species_count" yaml:"species_count"`
	MaxDistance       float32           `json:"max_distance" yaml:"max_distance"`
	MinDistance       float32           `json:"min_distance" yaml:"min_distance"`
	Beta              float32           `json:"beta" yaml:"beta"`
	Friction          float32           `json:"friction" yaml:"friction"`
	ForceScale        float32           `json:"force_scale" yaml:"force_scale"`
	RepulsionStrength float32           `json:"repulsion_strength" yaml:"repulsion_strength"`
	BrownianMotion    float32           `json:"brownian_motion" yaml:"brownian_motion"`
	MaxVelocity       float32           `json:"max_velocity" yaml:"max_velocity"`
	ParticleSize      float32           `json:"particle_size" yaml:"particle_size"`
	WrapEdges         bool              `json:"wrap_edges" yaml:"wrap_edges"`
	PositionGenerator generate.Position `json:"position_generator" yaml:"position_generator"`
	TypeGenerator     generate.Type     `json:"type_generator" yaml:"type_generator"`
	MatrixGenerator   generate.Matrix   `json:"matrix_generator" yaml:"matrix_generator"`
	ForceMatrix       [][]float32       `json:"force_matrix" yaml:"force_matrix"`
	SpeciesHues       bool              `json:"species_hues" yaml:"species_hues"`

	simulation.DisplaySettings `yaml:",inline"`
}

//go:embed defaults.yaml
var defaultsYAML []byte

// DefaultSettings returns the built-in settings. The force matrix is generated on first use
// from matrix_generator.
func DefaultSettings() Settings {
	return simulation.MustLoadDefaults[Settings](defaultsYAML)
}

// applyOrder resolves species_count before anything sized by it.
var applyOrder = []string{"species_count", "matrix_generator", "force_matrix", "matrix_operation"}

// Matrix returns the force matrix as a dense matrix.
func (s Settings) Matrix() *mat.Dense {
	n := len(s.ForceMatrix)
	m := mat.NewDense(max(n, 1), max(n, 1), nil)
	for i, row := range s.ForceMatrix {
		for j, v := range row {
			m.Set(i, j, float64(v))
		}
	}
	return m
}

func (s *Settings) setMatrix(m *mat.Dense) {
	s.ForceMatrix = generate.Rows(m)
}

// update applies one setting and rejects a result that breaks the distance ordering.
func (s *Settings) update(name string, v any, rng *rand.Rand) (simulation.Change, error) {
	next := *s
	change, err := next.apply(name, v, rng)
	if err != nil {
		return simulation.ChangeNone, err
	}
	if err := next.validate(name); err != nil {
		return simulation.ChangeNone, err
	}
	*s = next
	return change, nil
}

// validate checks constraints spanning more than one setting. name is reported as the
// offending setting.
func (s Settings) validate(name string) error {
	if s.MinDistance >= s.MaxDistance {
		return common.InvalidSetting(name, "min_distance %.3f must be below max_distance %.3f", s.MinDistance, s.MaxDistance)
	}
	return nil
}

// fitMinDistance pulls min_distance under max_distance.
func (s *Settings) fitMinDistance() {
	s.MinDistance = common.Clamp(s.MinDistance, 0, MaxDistance)
	if s.MinDistance >= s.MaxDistance {
		s.MinDistance = s.MaxDistance / 2
	}
}

func (s *Settings) apply(name string, v any, rng *rand.Rand) (simulation.Change, error) {
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
	case "species_count":
		var n int
		if n, err = simulation.ClampedInt(name, v, MinSpecies, MaxSpecies); err == nil && uint32(n) != s.SpeciesCount {
			s.SpeciesCount = uint32(n)
			s.setMatrix(generate.Resize(s.Matrix(), n, rng))
		}
		change = simulation.ChangeRebuild
	case "max_distance":
		f(&s.MaxDistance, MinDistance, MaxDistance)
	case "min_distance":
		f(&s.MinDistance, 0, MaxDistance)
	case "beta":
		f(&s.Beta, 0.01, 0.99)
	case "friction":
		f(&s.Friction, 0, 1)
	case "force_scale":
		f(&s.ForceScale, 0, 10)
	case "repulsion_strength":
		f(&s.RepulsionStrength, 0, 20)
	case "brownian_motion":
		f(&s.BrownianMotion, 0, 1)
	case "max_velocity":
		f(&s.MaxVelocity, 0.01, 10)
	case "particle_size":
		f(&s.ParticleSize, 0.0005, 0.05)
	case "wrap_edges":
		var b bool
		if b, err = simulation.Bool(name, v); err == nil {
			s.WrapEdges = b
		}
	case "species_hues":
		var b bool
		if b, err = simulation.Bool(name, v); err == nil {
			s.SpeciesHues = b
		}
	case "position_generator":
		var p generate.Position
		if p, err = simulation.Enum(name, v, generate.AllPositions, generate.PositionRandom); err == nil {
			s.PositionGenerator = p
		}
		change = simulation.ChangeReseed
	case "type_generator":
		var t generate.Type
		if t, err = simulation.Enum(name, v, generate.AllTypes, generate.TypeRandom); err == nil {
			s.TypeGenerator = t
		}
		change = simulation.ChangeReseed
	case "matrix_generator":
		var g generate.Matrix
		if g, err = simulation.Enum(name, v, generate.AllMatrices, generate.MatrixRandom); err == nil {
			s.MatrixGenerator = g
			s.setMatrix(generate.ForceMatrix(g, int(s.SpeciesCount), rng))
		}
	case "force_matrix":
		var rows [][]float64
		if rows, err = simulation.Matrix(name, v); err != nil {
			break
		}
		if len(rows) != int(s.SpeciesCount) {
			err = common.InvalidSetting(name, "matrix is %dx%d but species_count is %d", len(rows), len(rows), s.SpeciesCount)
			break
		}
		m, _ := generate.FromRows(rows)
		m.Apply(func(_, _ int, x float64) float64 { return common.Clamp(x, -1, 1) }, m)
		s.setMatrix(m)
	case "matrix_operation":
		// Operations are one-shot edits of force_matrix, so an unknown name is an error rather
		// than a fallback.
		var opName string
		if opName, err = simulation.String(name, v); err != nil {
			break
		}
		op, ok := generate.ParseOperation(opName)
		if !ok {
			err = common.InvalidSetting(name, "unknown operation %q", opName)
			break
		}
		s.setMatrix(generate.Apply(op, s.Matrix(), rng))
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

// normalize clamps loaded values and generates a force matrix when the stored one does not
// match the species count.
func (s *Settings) normalize(rng *rand.Rand) {
	s.ParticleCount = min(max(s.ParticleCount, 1), MaxParticles)
	s.SpeciesCount = min(max(s.SpeciesCount, MinSpecies), MaxSpecies)
	s.MaxDistance = common.Clamp(s.MaxDistance, MinDistance, MaxDistance)
	s.fitMinDistance()
	s.Beta = common.Clamp(s.Beta, 0.01, 0.99)
	if !slices.Contains(generate.AllPositions, s.PositionGenerator) {
		s.PositionGenerator = generate.PositionRandom
	}
	if !slices.Contains(generate.AllTypes, s.TypeGenerator) {
		s.TypeGenerator = generate.TypeRandom
	}
	if !slices.Contains(generate.AllMatrices, s.MatrixGenerator) {
		s.MatrixGenerator = generate.MatrixRandom
	}
	if len(s.ForceMatrix) != int(s.SpeciesCount) {
		s.setMatrix(generate.ForceMatrix(s.MatrixGenerator, int(s.SpeciesCount), rng))
	}
	s.DisplaySettings.Normalize()
}

// randomize draws a new matrix pattern and interaction ranges.
func (s *Settings) randomize(rng *rand.Rand) {
	span := func(lo, hi float32) float32 { return lo + rng.Float32()*(hi-lo) }
	s.MatrixGenerator = generate.AllMatrices[rng.IntN(len(generate.AllMatrices))]
	s.setMatrix(generate.ForceMatrix(s.MatrixGenerator, int(s.SpeciesCount), rng))
	s.MaxDistance = span(0.05, 0.2)
	s.fitMinDistance()
	s.Beta = span(0.15, 0.45)
	s.Friction = span(0.02, 0.3)
	s.ForceScale = span(0.5, 2)
}
