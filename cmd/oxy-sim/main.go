// Command oxy-sim runs one of the GPU simulations in a window.
//
//	oxy-sim -sim life -preset examples/presets/life-chains.yaml -profile
//
// Keys: Space pause, R reset, C camera reset, N randomize, T traces, L next palette,
// V reverse palette, 1-6 switch simulation, WASD/arrows pan, Esc quit.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/Carmen-Shannon/oxy-sim/config"
	"github.com/Carmen-Shannon/oxy-sim/engine"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/Carmen-Shannon/oxy-sim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
	"github.com/Carmen-Shannon/oxy-sim/engine/window"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (embedded defaults when empty)")
	simName := flag.String("sim", "", "simulation to start: slime, flow, life, pellets, primordial, voronoi")
	presetPath := flag.String("preset", "", "YAML preset applied over the simulation's settings")
	profile := flag.Bool("profile", false, "log FPS and memory stats every second")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("[Main] %v", err)
	}
	cfg := config.Cfg()

	kind := cfg.Kind()
	if *simName != "" {
		k, err := simulation.ParseKind(*simName)
		if err != nil {
			log.Fatalf("[Main] -sim: %v", err)
		}
		kind = k
	}

	if *presetPath == "" {
		*presetPath = cfg.Simulation.Preset
	}
	var settings []byte
	if *presetPath != "" {
		pk, data, err := config.LoadPreset(*presetPath)
		if err != nil {
			log.Fatalf("[Main] %v", err)
		}
		if *simName != "" && pk != kind {
			log.Fatalf("[Main] preset %s is for %s, not %s", *presetPath, pk, kind)
		}
		kind, settings = pk, data
	}

	luts := lut.NewManager()
	if _, err := config.LoadPalettes(cfg.LUT.PaletteDir, luts); err != nil {
		log.Fatalf("[Main] %v", err)
	}
	lutName := cfg.LUT.Default
	if _, err := luts.Get(lutName); err != nil {
		log.Printf("[Main] %v, using %s", err, lut.DefaultName)
		lutName = lut.DefaultName
	}

	w := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
	)
	r := renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		w,
		renderer.WithPresentMode(renderer.ParsePresentMode(cfg.Renderer.PresentMode)),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceSoftware),
	)

	sim, err := engine.NewSimulation(kind, r, luts, simulation.DefaultState(lutName), settings)
	if err != nil {
		r.Release()
		log.Fatalf("[Main] %v", err)
	}

	var telemetry *profiler.Telemetry
	if cfg.Engine.TelemetryPath != "" {
		f, err := os.Create(cfg.Engine.TelemetryPath)
		if err != nil {
			log.Fatalf("[Main] creating telemetry file: %v", err)
		}
		defer f.Close()
		telemetry = profiler.NewTelemetry(f, cfg.Engine.TelemetryEvery)
	}

	eng := engine.NewEngine(
		engine.WithWindow(w),
		engine.WithRenderer(r),
		engine.WithLUTManager(luts),
		engine.WithSimulation(sim),
		engine.WithPreset(kind, settings),
		engine.WithProfiling(cfg.Engine.Profiling || *profile),
		engine.WithTelemetry(telemetry),
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithRenderFrameLimit(cfg.Engine.FrameLimit),
	)
	eng.Run()
}
