package voronoi

import (
	_ "embed"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

const (
	MinCells   = 16
	MaxCells   = 100_000
	MinMapSize = 64
	MaxMapSize = 2048
	MaxSteps   = 120
)

// Settings are the persisted Voronoi automaton knobs.
type Settings struct {
	CellCount              uint32  `json:"cell_count" yaml:"cell_count"`
	Rulestring             string  `json:"rulestring" yaml:"rulestring"`
	InitialDensity         float32 `json:"initial_density" yaml:"initial_density"`
	AutoReseedEnabled      bool    `json:"auto_reseed_enabled" yaml:"auto_reseed_enabled"`
	AutoReseedIntervalSecs float32 `json:"auto_reseed_interval_secs" yaml:"auto_reseed_interval_secs"`
	OwnerMapSize           uint32  `json:"owner_map_size" yaml:"owner_map_size"`
	StepsPerSecond         float32 `json:"steps_per_second" yaml:"steps_per_second"`

	simulation.DisplaySettings `yaml:",inline"`
}

//go:embed defaults.yaml
var defaultsYAML []byte

// DefaultSettings returns the built-in settings, Conway's rule on a Voronoi graph.
func DefaultSettings() Settings {
	return simulation.MustLoadDefaults[Settings](defaultsYAML)
}

// rule parses the rulestring. normalize guarantees the stored string parses.
func (s Settings) rule() generate.Rule {
	r, _ := generate.ParseRule(s.Rulestring)
	return r
}

func (s *Settings) apply(name string, v any) (simulation.Change, error) {
	var err error
	change := simulation.ChangeUniform
	switch name {
	case "cell_count":
		var n int
		if n, err = simulation.ClampedInt(name, v, MinCells, MaxCells); err == nil {
			s.CellCount = uint32(n)
		}
		change = simulation.ChangeRebuild
	case "rulestring":
		var str string
		if str, err = simulation.String(name, v); err != nil {
			break
		}
		var r generate.Rule
		if r, err = generate.ParseRule(str); err == nil {
			s.Rulestring = r.String()
		}
	case "initial_density":
		var f float32
		if f, err = simulation.Clamped(name, v, 0, 1); err == nil {
			s.InitialDensity = f
		}
		change = simulation.ChangeReseed
	case "auto_reseed_enabled":
		var b bool
		if b, err = simulation.Bool(name, v); err == nil {
			s.AutoReseedEnabled = b
		}
	case "auto_reseed_interval_secs":
		var f float32
		if f, err = simulation.Clamped(name, v, 1, 3600); err == nil {
			s.AutoReseedIntervalSecs = f
		}
	case "owner_map_size":
		var n int
		if n, err = simulation.ClampedInt(name, v, MinMapSize, MaxMapSize); err == nil {
			s.OwnerMapSize = uint32(n)
		}
		change = simulation.ChangeRebuild
	case "steps_per_second":
		var f float32
		if f, err = simulation.Clamped(name, v, 0, MaxSteps); err == nil {
			s.StepsPerSecond = f
		}
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
	s.CellCount = min(max(s.CellCount, MinCells), MaxCells)
	s.OwnerMapSize = min(max(s.OwnerMapSize, MinMapSize), MaxMapSize)
	s.InitialDensity = common.Clamp(s.InitialDensity, 0, 1)
	s.StepsPerSecond = common.Clamp(s.StepsPerSecond, 0, MaxSteps)
	s.AutoReseedIntervalSecs = max(s.AutoReseedIntervalSecs, 1)
	if r, err := generate.ParseRule(s.Rulestring); err == nil {
		s.Rulestring = r.String()
	} else {
		s.Rulestring = "B3/S23"
	}
	s.DisplaySettings.Normalize()
}

// rules are known to give lasting activity on Voronoi graphs, whose cells average six neighbours.
var rules = []string{"B3/S23", "B2/S34", "B3/S234", "B34/S345", "B2/S23", "B35/S2345", "B3/S12"}

func (s *Settings) randomize(rng *rand.Rand) {
	s.Rulestring = rules[rng.IntN(len(rules))]
	s.InitialDensity = 0.15 + rng.Float32()*0.4
}
