// Package primordial implements primordial particles: every particle turns by a fixed angle
// plus a term proportional to its neighbour count, toward the side with more neighbours, then
// moves forward at constant speed.
package primordial

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/grid"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sim/engine/ring"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
	"github.com/Carmen-Shannon/oxy-sim/engine/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/particle_update.wgsl
var updateSource string

//go:embed assets/density.wgsl
var densitySource string

//go:embed assets/render.wgsl
var renderSource string

const label = "Primordial"

const maxStep = float32(1.0 / 15)

// Primordial is the primordial particle simulation.
type Primordial struct {
	*simulation.Base
	settings Settings

	particles *ring.Ring
	params    *uniform.Block[Params]
	grid      *grid.Grid

	update  pipeline.Pipeline
	density pipeline.Pipeline
	render  pipeline.Pipeline

	updateGroups  ring.BindPair
	densityGroups ring.BindPair
	drawGroups    ring.BindPair
	gridGen       uint64

	step uint64
}

var _ simulation.Simulation = &Primordial{}

// New builds a primordial particle simulation.
//
// Parameters:
//   - r: the renderer
//   - luts: the colour table registry
//   - state: the initial common state
//   - settings: the initial settings, normally DefaultSettings()
//
// Returns:
//   - *Primordial: the simulation
//   - error: a *common.InitializationFailedError, *common.BufferTooLargeError or allocation error
func New(r renderer.Renderer, luts *lut.Manager, state simulation.CommonState, settings Settings) (*Primordial, error) {
	base, err := simulation.NewBase(r, label, luts, state)
	if err != nil {
		return nil, err
	}
	settings.normalize()
	p := &Primordial{Base: base, settings: settings}
	if err := p.init(); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *Primordial) init() error {
	includes := map[string]string{"particle": particleSource, "primordial": paramsSource}
	var err error
	if p.update, err = p.Pipes.Compute("primordial.particle_update", updateSource, includes); err != nil {
		return err
	}
	if p.density, err = p.Pipes.Compute("primordial.density", densitySource, includes); err != nil {
		return err
	}
	if p.render, err = p.Pipes.Render("primordial.render", renderSource, includes, pipeline.AdditiveBlend); err != nil {
		return err
	}
	if p.params, err = uniform.New(p.R, label+" Params", Params{}); err != nil {
		return err
	}
	if p.particles, err = ring.New(p.R, label+" Particles", Particle{}.Size(), p.settings.ParticleCount); err != nil {
		return err
	}
	if p.grid, err = grid.New(p.R, label, particleSource, gridParams(p.settings)); err != nil {
		return err
	}
	p.SetDisplay(p.settings.DisplaySettings)
	p.seed()
	return nil
}

func gridParams(s Settings) grid.Params {
	return grid.NewParams(s.Radius, grid.DefaultCapacity, s.ParticleCount, s.WrapEdges)
}

func (p *Primordial) bind() error {
	err := p.updateGroups.Build(p.particles, func(side int, read, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return p.Group(fmt.Sprintf("Update %d", side), p.update, map[int]*wgpu.Buffer{
			0: read,
			1: p.params.Buffer(),
			3: p.grid.ParamsBuffer(),
			5: write,
			6: p.grid.Cells(),
		})
	})
	if err != nil {
		return err
	}
	err = p.densityGroups.Build(p.particles, func(side int, _, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return p.Group(fmt.Sprintf("Density %d", side), p.density, map[int]*wgpu.Buffer{
			1: p.params.Buffer(),
			3: p.grid.ParamsBuffer(),
			5: write,
			6: p.grid.Cells(),
		})
	})
	if err != nil {
		return err
	}
	err = p.drawGroups.Build(p.particles, func(side int, read, _ *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return p.Group(fmt.Sprintf("Draw %d", side), p.render, map[int]*wgpu.Buffer{
			0: read,
			1: p.params.Buffer(),
			4: p.LUT.GPUBuffer(),
		})
	})
	if err != nil {
		return err
	}
	p.gridGen = p.grid.Generation()
	return nil
}

func (p *Primordial) seed() {
	n := int(p.particles.Count())
	positions := generate.Scatter(p.settings.PositionGenerator, n, p.Rand)
	ps := make([]Particle, n)
	for i, pos := range positions {
		ps[i] = Particle{Pos: pos, Heading: p.Rand.Float32() * 2 * math.Pi}
	}
	p.particles.Upload(p.R, common.SliceToBytes(ps))
	p.Stage.ResetTrail()
	p.step = 0
}

func (p *Primordial) syncParams(dt float32) {
	st := p.settings
	var wrap uint32
	if st.WrapEdges {
		wrap = 1
	}
	p.params.Set(Params{
		ParticleCount: p.particles.Count(),
		Wrap:          wrap,
		Frame:         uint32(p.step),
		Seed:          uint32(p.Common.RandomSeed),
		Alpha:         st.Alpha * math.Pi / 180,
		Beta:          st.Beta * math.Pi / 180,
		Velocity:      st.Velocity,
		Radius:        st.Radius,
		ParticleSize:  st.ParticleSize,
		Dt:            dt,
		Cursor:        p.Cursor.GPU(),
	})
}

// Kind returns simulation.KindPrimordial.
func (p *Primordial) Kind() simulation.Kind {
	return simulation.KindPrimordial
}

// RenderFrame rebuilds the grid, turns and moves every particle, then recomputes density.
func (p *Primordial) RenderFrame(surface *wgpu.TextureView, dt float32) error {
	if err := p.BeginFrame(dt); err != nil {
		return err
	}
	p.syncParams(common.Clamp(dt, 0, maxStep))
	p.params.Flush(p.R)
	p.grid.SetParticleCount(p.particles.Count())
	if p.updateGroups.Stale(p.particles) || p.gridGen != p.grid.Generation() {
		if err := p.bind(); err != nil {
			return err
		}
	}
	n := p.particles.Count()
	err := p.Compute(func() error {
		if err := p.grid.Step(p.particles); err != nil {
			return err
		}
		p.Dispatch(p.update, n, p.updateGroups.For(p.particles))
		p.Dispatch(p.density, n, p.densityGroups.For(p.particles))
		return nil
	})
	if err != nil {
		return err
	}
	p.grid.Resolve()
	p.particles.Swap()
	p.step++
	p.draw(surface)
	return nil
}

// RenderFramePaused redraws without stepping.
func (p *Primordial) RenderFramePaused(surface *wgpu.TextureView) error {
	if err := p.BeginFrame(0); err != nil {
		return err
	}
	p.draw(surface)
	return nil
}

func (p *Primordial) draw(surface *wgpu.TextureView) {
	p.Composite(surface, func() {
		p.Draw(p.render, 6, p.particles.Count(), p.drawGroups.For(p.particles))
	})
}

// UpdateSetting changes one setting.
func (p *Primordial) UpdateSetting(name string, value any) error {
	next := p.settings
	change, err := next.apply(name, value)
	if err != nil {
		return err
	}
	return p.commit(next, change)
}

// ApplySettings applies a JSON settings object.
func (p *Primordial) ApplySettings(data []byte) error {
	next := p.settings
	change, err := simulation.ApplyJSON(data, nil, next.apply)
	if err != nil {
		return err
	}
	return p.commit(next, change)
}

func (p *Primordial) commit(next Settings, change simulation.Change) error {
	prev := p.settings
	if next.ParticleCount != prev.ParticleCount {
		if _, err := p.particles.Resize(p.R, next.ParticleCount); err != nil {
			return err
		}
	}
	if gridParams(next) != gridParams(prev) {
		if _, err := p.grid.Update(gridParams(next)); err != nil {
			_, _ = p.particles.Resize(p.R, prev.ParticleCount)
			return err
		}
	}
	p.settings = next
	p.SetDisplay(next.DisplaySettings)
	if change >= simulation.ChangeReseed {
		p.seed()
	}
	return nil
}

// UpdateState changes one runtime state value.
func (p *Primordial) UpdateState(name string, value any) error {
	change, handled, err := p.ApplyState(name, value)
	if !handled {
		return simulation.UnknownName(label, name)
	}
	if err != nil {
		return err
	}
	if change == simulation.ChangeReseed {
		p.seed()
	}
	return nil
}

// ResetRuntimeState scatters the particles again.
func (p *Primordial) ResetRuntimeState() error {
	p.ResetRuntime()
	p.seed()
	return nil
}

// RandomizeSettings draws new turning angles.
func (p *Primordial) RandomizeSettings() error {
	next := p.settings
	next.randomize(p.Rand)
	return p.commit(next, simulation.ChangeUniform)
}

// Settings returns the settings as JSON.
func (p *Primordial) Settings() ([]byte, error) {
	return json.Marshal(p.settings)
}

// State returns the runtime state as JSON.
func (p *Primordial) State() ([]byte, error) {
	return json.Marshal(struct {
		simulation.CommonState
		Cursor cursor.State `json:"cursor"`
		Step   uint64       `json:"step"`
	}{p.Common, p.Cursor.State(), p.step})
}

// Stats reports the particle count, stage size and grid drops.
func (p *Primordial) Stats() simulation.Stats {
	s := simulation.Stats{Particles: p.particles.Count()}
	if p.grid != nil {
		s.GridOverflow = p.grid.Overflow().Dropped
	}
	return p.StageStats(s)
}

// Release frees every GPU resource.
func (p *Primordial) Release() {
	p.updateGroups.Release()
	p.densityGroups.Release()
	p.drawGroups.Release()
	if p.grid != nil {
		p.grid.Release()
	}
	if p.particles != nil {
		p.particles.Release(p.R)
	}
	p.params.Release(p.R)
	p.Base.Release()
}
