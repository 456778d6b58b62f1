package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/Carmen-Shannon/oxy-sim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
	"github.com/Carmen-Shannon/oxy-sim/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTelemetry records per-frame samples to t.
//
// Parameters:
//   - t: the telemetry recorder; nil disables recording
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTelemetry(t *profiler.Telemetry) EngineBuilderOption {
	return func(e *engine) {
		e.telemetry = t
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window the engine reads input from and renders into.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer bound to the engine's window.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithSimulation sets the simulation that runs first. The engine takes ownership and releases
// it on switch or shutdown.
//
// Parameters:
//   - s: the simulation, usually from NewSimulation
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSimulation(s simulation.Simulation) EngineBuilderOption {
	return func(e *engine) {
		e.sim = s
	}
}

// WithLUTManager sets the colour table registry used for LUT cycling and new simulations.
// Defaults to lut.NewManager().
//
// Parameters:
//   - m: the registry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLUTManager(m *lut.Manager) EngineBuilderOption {
	return func(e *engine) {
		e.luts = m
	}
}

// WithPreset sets the settings JSON applied when switching to kind.
//
// Parameters:
//   - kind: the simulation variant
//   - settings: settings JSON as produced by Simulation.Settings or a preset file
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPreset(kind simulation.Kind, settings []byte) EngineBuilderOption {
	return func(e *engine) {
		e.presets[kind] = settings
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}
