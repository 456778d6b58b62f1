package engine

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation/flow"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation/life"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation/pellets"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation/primordial"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation/slime"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation/voronoi"
)

// NewSimulation constructs the simulation of the given kind with its built-in settings, then
// applies settings JSON over them when provided.
//
// Parameters:
//   - kind: the simulation variant
//   - r: the renderer the simulation allocates from
//   - luts: the colour table registry
//   - state: the common runtime state to start from
//   - settings: optional settings JSON (a preset); nil keeps the defaults
//
// Returns:
//   - simulation.Simulation: the running simulation
//   - error: a construction or settings error; nothing is leaked on error
func NewSimulation(kind simulation.Kind, r renderer.Renderer, luts *lut.Manager, state simulation.CommonState, settings []byte) (simulation.Simulation, error) {
	var sim simulation.Simulation
	var err error

	switch kind {
	case simulation.KindSlime:
		sim, err = slime.New(r, luts, state, slime.DefaultSettings())
	case simulation.KindFlow:
		sim, err = flow.New(r, luts, state, flow.DefaultSettings())
	case simulation.KindLife:
		sim, err = life.New(r, luts, state, life.DefaultSettings())
	case simulation.KindPellets:
		sim, err = pellets.New(r, luts, state, pellets.DefaultSettings())
	case simulation.KindPrimordial:
		sim, err = primordial.New(r, luts, state, primordial.DefaultSettings())
	case simulation.KindVoronoi:
		sim, err = voronoi.New(r, luts, state, voronoi.DefaultSettings())
	default:
		return nil, fmt.Errorf("unknown simulation %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", kind, err)
	}

	if len(settings) > 0 {
		if err := sim.ApplySettings(settings); err != nil {
			sim.Release()
			return nil, fmt.Errorf("applying %s settings: %w", kind, err)
		}
	}

	log.Printf("[Engine] created %s simulation", kind)
	return sim, nil
}
