// Package flow implements the flow field simulation: short-lived particles follow a noise
// vector field and leave coloured trails that decay, diffuse and wash out.
package flow

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
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
var particleUpdateSource string

//go:embed assets/trail_update.wgsl
var trailUpdateSource string

//go:embed assets/render_trail.wgsl
var renderTrailSource string

//go:embed assets/render_particles.wgsl
var renderParticlesSource string

const label = "Flow"

const maxStep = float32(1.0 / 15)

const trailUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

type trailBuffers struct {
	size    uint32
	trail   *wgpu.Buffer
	scratch *wgpu.Buffer

	update bind_group_provider.BindGroupProvider
	render bind_group_provider.BindGroupProvider
}

func (t *trailBuffers) bytes() uint64 {
	return uint64(t.size) * uint64(t.size) * 16
}

func (t *trailBuffers) release(r renderer.Renderer) {
	for _, g := range []bind_group_provider.BindGroupProvider{t.update, t.render} {
		if g != nil {
			g.Release()
		}
	}
	for _, b := range []*wgpu.Buffer{t.trail, t.scratch} {
		if b != nil {
			r.ReleaseBuffer(b)
		}
	}
	*t = trailBuffers{}
}

// Flow is the flow field simulation.
type Flow struct {
	*simulation.Base
	settings Settings

	particles *ring.Ring
	params    *uniform.Block[Params]
	vectors   *wgpu.Buffer
	trails    trailBuffers

	updateKernel    pipeline.Pipeline
	trailKernel     pipeline.Pipeline
	renderTrail     pipeline.Pipeline
	renderParticles pipeline.Pipeline
	updateGroups    ring.BindPair
	drawGroups      ring.BindPair

	step uint64
}

var _ simulation.Simulation = &Flow{}

// New builds a flow simulation.
//
// Parameters:
//   - r: the renderer
//   - luts: the colour table registry
//   - state: the initial common state
//   - settings: the initial settings, normally DefaultSettings()
//
// Returns:
//   - *Flow: the simulation
//   - error: a *common.InitializationFailedError, *common.BufferTooLargeError or allocation error
func New(r renderer.Renderer, luts *lut.Manager, state simulation.CommonState, settings Settings) (*Flow, error) {
	base, err := simulation.NewBase(r, label, luts, state)
	if err != nil {
		return nil, err
	}
	settings.normalize()
	f := &Flow{Base: base, settings: settings}
	if err := f.init(); err != nil {
		f.Release()
		return nil, err
	}
	return f, nil
}

func (f *Flow) init() error {
	includes := map[string]string{"flow": wgslTypes}
	var err error
	if f.updateKernel, err = f.Pipes.Compute("flow.particle_update", particleUpdateSource, includes); err != nil {
		return err
	}
	if f.trailKernel, err = f.Pipes.Compute("flow.trail_update", trailUpdateSource, includes); err != nil {
		return err
	}
	if f.renderTrail, err = f.Pipes.Render("flow.render_trail", renderTrailSource, includes, pipeline.AlphaBlend); err != nil {
		return err
	}
	if f.renderParticles, err = f.Pipes.Render("flow.render_particles", renderParticlesSource, includes, pipeline.AdditiveBlend); err != nil {
		return err
	}

	if f.params, err = uniform.New(f.R, label+" Params", Params{}); err != nil {
		return err
	}
	if f.vectors, err = f.R.CreateBuffer(label+" Vectors", VectorGridSize*VectorGridSize*8, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	f.uploadVectors()
	if f.particles, err = ring.New(f.R, label+" Particles", Particle{}.Size(), f.settings.ParticleCount); err != nil {
		return err
	}
	if err := f.allocateTrail(f.settings.TrailMapSize); err != nil {
		return err
	}
	f.SetDisplay(f.settings.DisplaySettings)
	f.seed()
	return nil
}

func (f *Flow) uploadVectors() {
	v := Vectors(f.settings.NoiseType, f.settings.NoiseSeed, f.settings.NoiseScale)
	f.R.WriteBuffer(f.vectors, 0, common.SliceToBytes(v))
}

func (f *Flow) allocateTrail(size uint32) error {
	next := trailBuffers{size: size}
	var err error
	if next.trail, err = f.R.CreateBuffer(label+" Trail", next.bytes(), trailUsage); err != nil {
		return err
	}
	if next.scratch, err = f.R.CreateBuffer(label+" Trail Scratch", next.bytes(), trailUsage); err != nil {
		next.release(f.R)
		return err
	}
	params := f.params.Buffer()
	if next.update, err = f.Group("Trail Update", f.trailKernel, map[int]*wgpu.Buffer{1: params, 3: next.trail, 6: next.scratch}); err != nil {
		next.release(f.R)
		return err
	}
	if next.render, err = f.Group("Trail Render", f.renderTrail, map[int]*wgpu.Buffer{1: params, 3: next.trail}); err != nil {
		next.release(f.R)
		return err
	}

	prev := f.trails
	f.trails = next
	if err := f.bindParticles(); err != nil {
		f.trails = prev
		next.release(f.R)
		return err
	}
	prev.release(f.R)
	return nil
}

func (f *Flow) bindParticles() error {
	err := f.updateGroups.Build(f.particles, func(side int, read, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return f.Group(fmt.Sprintf("Update %d", side), f.updateKernel, map[int]*wgpu.Buffer{
			0: read,
			1: f.params.Buffer(),
			2: f.vectors,
			3: f.trails.trail,
			4: f.LUT.GPUBuffer(),
			5: write,
		})
	})
	if err != nil {
		return err
	}
	// Drawing reads the side the last step wrote, which is the current side after the swap.
	return f.drawGroups.Build(f.particles, func(side int, read, _ *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return f.Group(fmt.Sprintf("Draw %d", side), f.renderParticles, map[int]*wgpu.Buffer{
			0: read,
			1: f.params.Buffer(),
			4: f.LUT.GPUBuffer(),
		})
	})
}

// seed respawns every particle at a random age and clears the trail.
func (f *Flow) seed() {
	n := int(f.particles.Count())
	positions := generate.Scatter(generate.PositionRandom, n, f.Rand)
	ps := make([]Particle, n)
	for i, p := range positions {
		life := f.settings.ParticleLifetime * (0.5 + f.Rand.Float32())
		ps[i] = Particle{Pos: p, Lifetime: life, Age: f.Rand.Float32() * life, Hue: f.Rand.Float32(), Alive: 1}
	}
	f.particles.Upload(f.R, common.SliceToBytes(ps))
	f.R.WriteBuffer(f.trails.trail, 0, make([]byte, f.trails.bytes()))
	f.Stage.ResetTrail()
	f.step = 0
}

func (f *Flow) syncParams(dt float32) {
	st := f.settings
	var autospawn uint32
	if st.AutospawnEnabled {
		autospawn = 1
	}
	f.params.Set(Params{
		ParticleCount: f.particles.Count(),
		MapSize:       f.trails.size,
		VectorSize:    VectorGridSize,
		Frame:         uint32(f.step),
		Lifetime:      st.ParticleLifetime,
		Speed:         st.ParticleSpeed,
		Magnitude:     st.VectorMagnitude,
		Dt:            dt,
		Decay:         st.TrailDecayRate,
		Diffusion:     st.TrailDiffusionRate,
		Deposition:    st.TrailDeposition,
		WashOut:       st.TrailWashOutRate,
		Autospawn:     autospawn,
		SpawnRate:     st.SpawnRate,
		ParticleSize:  st.ParticleSize,
		Seed:          uint32(f.Common.RandomSeed),
		Cursor:        f.Cursor.GPU(),
	})
}

// Kind returns simulation.KindFlow.
func (f *Flow) Kind() simulation.Kind {
	return simulation.KindFlow
}

// RenderFrame advances particles, updates the trail and composites both.
func (f *Flow) RenderFrame(surface *wgpu.TextureView, dt float32) error {
	if err := f.BeginFrame(dt); err != nil {
		return err
	}
	f.syncParams(common.Clamp(dt, 0, maxStep))
	f.params.Flush(f.R)
	if f.updateGroups.Stale(f.particles) {
		if err := f.bindParticles(); err != nil {
			return err
		}
	}
	n := f.trails.size
	err := f.Compute(func() error {
		f.Dispatch2D(f.trailKernel, n, n, f.trails.update)
		f.R.CopyBufferToBuffer(f.trails.scratch, f.trails.trail, f.trails.bytes())
		f.Dispatch(f.updateKernel, f.particles.Count(), f.updateGroups.For(f.particles))
		return nil
	})
	if err != nil {
		return err
	}
	f.particles.Swap()
	f.step++
	f.draw(surface)
	return nil
}

// RenderFramePaused redraws without stepping.
func (f *Flow) RenderFramePaused(surface *wgpu.TextureView) error {
	if err := f.BeginFrame(0); err != nil {
		return err
	}
	f.draw(surface)
	return nil
}

func (f *Flow) draw(surface *wgpu.TextureView) {
	f.Composite(surface, func() {
		f.Draw(f.renderTrail, 3, 1, f.trails.render)
		f.Draw(f.renderParticles, 6, f.particles.Count(), f.drawGroups.For(f.particles))
	})
}

// UpdateSetting changes one setting.
func (f *Flow) UpdateSetting(name string, value any) error {
	next := f.settings
	change, err := next.apply(name, value)
	if err != nil {
		return err
	}
	return f.commit(next, change)
}

// ApplySettings applies a JSON settings object.
func (f *Flow) ApplySettings(data []byte) error {
	next := f.settings
	change, err := simulation.ApplyJSON(data, nil, next.apply)
	if err != nil {
		return err
	}
	return f.commit(next, change)
}

func (f *Flow) commit(next Settings, change simulation.Change) error {
	prev := f.settings
	if next.ParticleCount != prev.ParticleCount {
		if _, err := f.particles.Resize(f.R, next.ParticleCount); err != nil {
			return err
		}
	}
	if next.TrailMapSize != f.trails.size {
		if err := f.allocateTrail(next.TrailMapSize); err != nil {
			_, _ = f.particles.Resize(f.R, prev.ParticleCount)
			return err
		}
	}
	f.settings = next
	f.SetDisplay(next.DisplaySettings)
	if prev.vectorsChanged(next) {
		f.uploadVectors()
	}
	if change >= simulation.ChangeReseed {
		f.seed()
	}
	return nil
}

// UpdateState changes one runtime state value.
func (f *Flow) UpdateState(name string, value any) error {
	change, handled, err := f.ApplyState(name, value)
	if !handled {
		return simulation.UnknownName(label, name)
	}
	if err != nil {
		return err
	}
	if change == simulation.ChangeReseed {
		f.seed()
	}
	return nil
}

// ResetRuntimeState respawns particles and clears trails.
func (f *Flow) ResetRuntimeState() error {
	f.ResetRuntime()
	f.seed()
	return nil
}

// RandomizeSettings draws a new field and new particle rates.
func (f *Flow) RandomizeSettings() error {
	next := f.settings
	next.randomize(f.Rand)
	return f.commit(next, simulation.ChangeUniform)
}

// Settings returns the settings as JSON.
func (f *Flow) Settings() ([]byte, error) {
	return json.Marshal(f.settings)
}

// State returns the runtime state as JSON.
func (f *Flow) State() ([]byte, error) {
	return json.Marshal(struct {
		simulation.CommonState
		Cursor cursor.State `json:"cursor"`
		Step   uint64       `json:"step"`
	}{f.Common, f.Cursor.State(), f.step})
}

// Stats reports the particle count and stage size.
func (f *Flow) Stats() simulation.Stats {
	return f.StageStats(simulation.Stats{Particles: f.particles.Count()})
}

// Release frees every GPU resource.
func (f *Flow) Release() {
	f.updateGroups.Release()
	f.drawGroups.Release()
	f.trails.release(f.R)
	if f.particles != nil {
		f.particles.Release(f.R)
	}
	if f.vectors != nil {
		f.R.ReleaseBuffer(f.vectors)
	}
	f.params.Release(f.R)
	f.Base.Release()
}
