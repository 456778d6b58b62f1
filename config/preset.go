package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
	"gopkg.in/yaml.v3"
)

// Preset is a persisted set of simulation settings.
//
//	kind: slime
//	settings:
//	  particle_count: 500000
//	  sensor_angle: 0.5
type Preset struct {
	Kind     string         `yaml:"kind"`
	Settings map[string]any `yaml:"settings"`
}

// LoadPreset reads a preset file and converts its settings to the JSON form accepted by
// Simulation.ApplySettings.
//
// Parameters:
//   - path: the preset YAML file
//
// Returns:
//   - simulation.Kind: the simulation the preset is for
//   - []byte: the settings as JSON
//   - error: a *common.IoError on read, parse or kind failures
func LoadPreset(path string) (simulation.Kind, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, common.IO(fmt.Sprintf("reading preset %s", path), err)
	}
	kind, settings, err := ParsePreset(data)
	if err != nil {
		return "", nil, common.IO(fmt.Sprintf("preset %s", path), err)
	}
	return kind, settings, nil
}

// ParsePreset decodes preset YAML.
//
// Parameters:
//   - data: the preset document
//
// Returns:
//   - simulation.Kind: the simulation the preset is for
//   - []byte: the settings as JSON, "{}" when the preset has none
//   - error: a parse or unknown-kind error
func ParsePreset(data []byte) (simulation.Kind, []byte, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return "", nil, fmt.Errorf("parsing preset: %w", err)
	}
	kind, err := simulation.ParseKind(p.Kind)
	if err != nil {
		return "", nil, err
	}
	if p.Settings == nil {
		p.Settings = map[string]any{}
	}
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return "", nil, fmt.Errorf("encoding preset settings: %w", err)
	}
	return kind, settings, nil
}

// SavePreset writes a simulation's settings JSON as a preset file.
//
// Parameters:
//   - path: the destination file
//   - kind: the simulation the settings belong to
//   - settings: JSON as returned by Simulation.Settings
//
// Returns:
//   - error: a *common.IoError on encode or write failures
func SavePreset(path string, kind simulation.Kind, settings []byte) error {
	p := Preset{Kind: string(kind)}
	if err := json.Unmarshal(settings, &p.Settings); err != nil {
		return common.IO("decoding settings", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return common.IO("encoding preset", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return common.IO(fmt.Sprintf("writing preset %s", path), err)
	}
	return nil
}
