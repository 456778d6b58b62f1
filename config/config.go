// Package config provides configuration loading and access for the simulation host,
// plus the preset and palette file formats.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all host configuration.
type Config struct {
	Window     WindowConfig     `yaml:"window"`
	Renderer   RendererConfig   `yaml:"renderer"`
	Engine     EngineConfig     `yaml:"engine"`
	Simulation SimulationConfig `yaml:"simulation"`
	LUT        LUTConfig        `yaml:"lut"`
}

// WindowConfig sizes the host window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RendererConfig selects presentation and adapter behaviour.
type RendererConfig struct {
	PresentMode   string `yaml:"present_mode"` // vsync | uncapped
	ForceSoftware bool   `yaml:"force_software"`
}

// EngineConfig holds loop rates and diagnostics.
type EngineConfig struct {
	TickRate       float64 `yaml:"tick_rate"`
	FrameLimit     float64 `yaml:"frame_limit"` // 0 = uncapped
	Profiling      bool    `yaml:"profiling"`
	TelemetryPath  string  `yaml:"telemetry_path"`
	TelemetryEvery int     `yaml:"telemetry_every"`
}

// SimulationConfig picks the starting simulation.
type SimulationConfig struct {
	Kind   string `yaml:"kind"`
	Preset string `yaml:"preset"`
}

// LUTConfig names the starting palette and an optional directory of palette files.
type LUTConfig struct {
	Default    string `yaml:"default"`
	PaletteDir string `yaml:"palette_dir"`
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects values the host cannot start with.
func (c *Config) validate() error {
	if _, err := simulation.ParseKind(c.Simulation.Kind); err != nil {
		return fmt.Errorf("simulation.kind: %w", err)
	}
	switch c.Renderer.PresentMode {
	case "vsync", "uncapped":
	default:
		return fmt.Errorf("renderer.present_mode: want vsync or uncapped, got %q", c.Renderer.PresentMode)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window: size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Engine.TelemetryEvery < 1 {
		c.Engine.TelemetryEvery = 1
	}
	return nil
}

// Kind returns the configured starting simulation. Load has already validated it.
func (c *Config) Kind() simulation.Kind {
	return simulation.Kind(c.Simulation.Kind)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
