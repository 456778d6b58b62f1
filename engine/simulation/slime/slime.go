// Package slime implements the slime mould simulation. Agents sense a chemical field ahead of
// them, steer toward the strongest reading and deposit into the field, which decays and diffuses.
package slime

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"

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

//go:embed assets/agent_update.wgsl
var agentUpdateSource string

//go:embed assets/trail_decay.wgsl
var trailDecaySource string

//go:embed assets/trail_diffuse.wgsl
var trailDiffuseSource string

//go:embed assets/gradient.wgsl
var gradientSource string

//go:embed assets/render.wgsl
var renderSource string

const label = "Slime"

// maxStep bounds dt so a stalled frame does not throw agents across the field.
const maxStep = float32(1.0 / 15)

const fieldUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

// fieldBuffers are the buffers sized by trail_map_size and the groups that bind them.
type fieldBuffers struct {
	size     uint32
	field    *wgpu.Buffer
	scratch  *wgpu.Buffer
	gradient *wgpu.Buffer

	decay   bind_group_provider.BindGroupProvider
	diffuse bind_group_provider.BindGroupProvider
	fill    bind_group_provider.BindGroupProvider
	render  bind_group_provider.BindGroupProvider
}

func (f *fieldBuffers) bytes() uint64 {
	return uint64(f.size) * uint64(f.size) * 4
}

func (f *fieldBuffers) release(r renderer.Renderer) {
	for _, g := range []bind_group_provider.BindGroupProvider{f.decay, f.diffuse, f.fill, f.render} {
		if g != nil {
			g.Release()
		}
	}
	for _, b := range []*wgpu.Buffer{f.field, f.scratch, f.gradient} {
		if b != nil {
			r.ReleaseBuffer(b)
		}
	}
	*f = fieldBuffers{}
}

// Slime is the slime mould simulation.
type Slime struct {
	*simulation.Base
	settings Settings

	agents *ring.Ring
	params *uniform.Block[Params]
	fields fieldBuffers

	agentKernel    pipeline.Pipeline
	decayKernel    pipeline.Pipeline
	diffuseKernel  pipeline.Pipeline
	gradientKernel pipeline.Pipeline
	render         pipeline.Pipeline
	agentGroups    ring.BindPair

	gradientDirty bool
	step          uint64
}

var _ simulation.Simulation = &Slime{}

// New builds a slime simulation.
//
// Parameters:
//   - r: the renderer
//   - luts: the colour table registry
//   - state: the initial common state
//   - settings: the initial settings, normally DefaultSettings()
//
// Returns:
//   - *Slime: the simulation, seeded and ready to render
//   - error: a *common.InitializationFailedError, *common.BufferTooLargeError or allocation error
func New(r renderer.Renderer, luts *lut.Manager, state simulation.CommonState, settings Settings) (*Slime, error) {
	base, err := simulation.NewBase(r, label, luts, state)
	if err != nil {
		return nil, err
	}
	settings.normalize()
	s := &Slime{Base: base, settings: settings}
	if err := s.init(); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

func (s *Slime) init() error {
	includes := map[string]string{"slime": wgslTypes}
	var err error
	if s.agentKernel, err = s.Pipes.Compute("slime.agent_update", agentUpdateSource, includes); err != nil {
		return err
	}
	if s.decayKernel, err = s.Pipes.Compute("slime.trail_decay", trailDecaySource, includes); err != nil {
		return err
	}
	if s.diffuseKernel, err = s.Pipes.Compute("slime.trail_diffuse", trailDiffuseSource, includes); err != nil {
		return err
	}
	if s.gradientKernel, err = s.Pipes.Compute("slime.gradient", gradientSource, includes); err != nil {
		return err
	}
	if s.render, err = s.Pipes.Render("slime.render", renderSource, includes, pipeline.AlphaBlend); err != nil {
		return err
	}

	if s.params, err = uniform.New(s.R, label+" Params", Params{}); err != nil {
		return err
	}
	if s.agents, err = ring.New(s.R, label+" Agents", Agent{}.Size(), s.settings.ParticleCount); err != nil {
		return err
	}
	if err := s.allocateField(s.settings.TrailMapSize); err != nil {
		return err
	}
	s.SetDisplay(s.settings.DisplaySettings)
	s.seed()
	return nil
}

// allocateField replaces the field buffers and every group that binds them. On failure the
// previous buffers stay bound.
func (s *Slime) allocateField(size uint32) error {
	next := fieldBuffers{size: size}
	var err error
	alloc := func(name string) *wgpu.Buffer {
		if err != nil {
			return nil
		}
		var b *wgpu.Buffer
		b, err = s.R.CreateBuffer(label+" "+name, next.bytes(), fieldUsage)
		return b
	}
	next.field = alloc("Field")
	next.scratch = alloc("Field Scratch")
	next.gradient = alloc("Gradient")
	if err != nil {
		next.release(s.R)
		return err
	}

	params := s.params.Buffer()
	group := func(name string, p pipeline.Pipeline, buffers map[int]*wgpu.Buffer) bind_group_provider.BindGroupProvider {
		if err != nil {
			return nil
		}
		var g bind_group_provider.BindGroupProvider
		g, err = s.Group(name, p, buffers)
		return g
	}
	next.decay = group("Decay", s.decayKernel, map[int]*wgpu.Buffer{1: params, 2: next.field})
	next.diffuse = group("Diffuse", s.diffuseKernel, map[int]*wgpu.Buffer{1: params, 2: next.field, 6: next.scratch})
	next.fill = group("Gradient", s.gradientKernel, map[int]*wgpu.Buffer{1: params, 3: next.gradient})
	next.render = group("Render", s.render, map[int]*wgpu.Buffer{0: next.field, 1: params, 4: s.LUT.GPUBuffer()})
	if err != nil {
		next.release(s.R)
		return err
	}

	prev := s.fields
	s.fields = next
	if err := s.bindAgents(); err != nil {
		s.fields = prev
		next.release(s.R)
		return err
	}
	prev.release(s.R)
	s.gradientDirty = true
	return nil
}

func (s *Slime) bindAgents() error {
	return s.agentGroups.Build(s.agents, func(side int, read, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return s.Group(fmt.Sprintf("Agents %d", side), s.agentKernel, map[int]*wgpu.Buffer{
			0: read,
			1: s.params.Buffer(),
			2: s.fields.field,
			3: s.fields.gradient,
			5: write,
		})
	})
}

// seed regenerates every agent, clears the field and restarts trails.
func (s *Slime) seed() {
	n := int(s.agents.Count())
	positions := generate.Scatter(s.settings.PositionGenerator, n, s.Rand)
	agents := make([]Agent, n)
	for i, p := range positions {
		agents[i] = Agent{Pos: p, Heading: s.Rand.Float32() * 2 * math.Pi}
	}
	s.agents.Upload(s.R, common.SliceToBytes(agents))
	s.R.WriteBuffer(s.fields.field, 0, make([]byte, s.fields.bytes()))
	s.Stage.ResetTrail()
	s.gradientDirty = true
	s.step = 0
}

func (s *Slime) syncParams(dt float32) {
	st := s.settings
	var wrap uint32
	if st.WrapEdges {
		wrap = 1
	}
	s.params.Set(Params{
		AgentCount:       s.agents.Count(),
		MapSize:          s.fields.size,
		Wrap:             wrap,
		Frame:            uint32(s.step),
		Speed:            st.AgentSpeed,
		SensorAngle:      st.SensorAngle * math.Pi / 180,
		SensorDistance:   st.SensorDistance,
		TurnRate:         st.TurnRate,
		Jitter:           st.Jitter,
		Deposition:       st.Deposition,
		Decay:            st.DecayRate,
		Diffusion:        st.DiffusionRate,
		Dt:               dt,
		GradientType:     st.GradientType.index(),
		GradientStrength: st.GradientStrength,
		Seed:             uint32(s.Common.RandomSeed),
		Cursor:           s.Cursor.GPU(),
	})
}

// Kind returns simulation.KindSlime.
func (s *Slime) Kind() simulation.Kind {
	return simulation.KindSlime
}

// RenderFrame runs one step (gradient when dirty, agents, decay and diffusion on their
// schedules) and composites the field.
func (s *Slime) RenderFrame(surface *wgpu.TextureView, dt float32) error {
	if err := s.BeginFrame(dt); err != nil {
		return err
	}
	s.syncParams(common.Clamp(dt, 0, maxStep))
	s.params.Flush(s.R)
	if s.agentGroups.Stale(s.agents) {
		if err := s.bindAgents(); err != nil {
			return err
		}
	}

	n := s.fields.size
	err := s.Compute(func() error {
		if s.gradientDirty && s.settings.GradientType != GradientDisabled {
			s.Dispatch2D(s.gradientKernel, n, n, s.fields.fill)
			s.gradientDirty = false
		}
		s.Dispatch(s.agentKernel, s.agents.Count(), s.agentGroups.For(s.agents))
		if Due(s.settings.DecayFrequency, s.step) && s.settings.DecayRate > 0 {
			s.Dispatch2D(s.decayKernel, n, n, s.fields.decay)
		}
		if Due(s.settings.DiffusionFrequency, s.step) && s.settings.DiffusionRate > 0 {
			s.Dispatch2D(s.diffuseKernel, n, n, s.fields.diffuse)
			s.R.CopyBufferToBuffer(s.fields.scratch, s.fields.field, s.fields.bytes())
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.agents.Swap()
	s.step++
	s.draw(surface)
	return nil
}

// RenderFramePaused redraws the field through the current colour table.
func (s *Slime) RenderFramePaused(surface *wgpu.TextureView) error {
	if err := s.BeginFrame(0); err != nil {
		return err
	}
	s.draw(surface)
	return nil
}

func (s *Slime) draw(surface *wgpu.TextureView) {
	s.Composite(surface, func() {
		s.Draw(s.render, 3, 1, s.fields.render)
	})
}

// UpdateSetting changes one setting.
func (s *Slime) UpdateSetting(name string, value any) error {
	next := s.settings
	change, err := next.apply(name, value)
	if err != nil {
		return err
	}
	return s.commit(next, change)
}

// ApplySettings applies a JSON settings object.
func (s *Slime) ApplySettings(data []byte) error {
	next := s.settings
	change, err := simulation.ApplyJSON(data, nil, next.apply)
	if err != nil {
		return err
	}
	return s.commit(next, change)
}

// commit makes next current, reallocating first so that a failed allocation leaves the previous
// settings in effect.
func (s *Slime) commit(next Settings, change simulation.Change) error {
	prev := s.settings
	if next.ParticleCount != prev.ParticleCount {
		if _, err := s.agents.Resize(s.R, next.ParticleCount); err != nil {
			return err
		}
	}
	if next.TrailMapSize != s.fields.size {
		if err := s.allocateField(next.TrailMapSize); err != nil {
			// Shrinking back never reallocates.
			_, _ = s.agents.Resize(s.R, prev.ParticleCount)
			return err
		}
	}
	s.settings = next
	s.SetDisplay(next.DisplaySettings)
	if next.GradientType != prev.GradientType {
		s.gradientDirty = true
	}
	if change >= simulation.ChangeReseed {
		s.seed()
	}
	return nil
}

// UpdateState changes one runtime state value.
func (s *Slime) UpdateState(name string, value any) error {
	change, handled, err := s.ApplyState(name, value)
	if !handled {
		return simulation.UnknownName(label, name)
	}
	if err != nil {
		return err
	}
	if change == simulation.ChangeReseed {
		s.seed()
	}
	return nil
}

// ResetRuntimeState reseeds agents and clears the field.
func (s *Slime) ResetRuntimeState() error {
	s.ResetRuntime()
	s.seed()
	return nil
}

// RandomizeSettings draws new steering and field rates.
func (s *Slime) RandomizeSettings() error {
	next := s.settings
	next.randomize(s.Rand)
	return s.commit(next, simulation.ChangeUniform)
}

// Settings returns the settings as JSON.
func (s *Slime) Settings() ([]byte, error) {
	return json.Marshal(s.settings)
}

// State returns the runtime state as JSON.
func (s *Slime) State() ([]byte, error) {
	return json.Marshal(struct {
		simulation.CommonState
		Cursor cursor.State `json:"cursor"`
		Step   uint64       `json:"step"`
	}{s.Common, s.Cursor.State(), s.step})
}

// Stats reports the agent count and stage size.
func (s *Slime) Stats() simulation.Stats {
	return s.StageStats(simulation.Stats{Particles: s.agents.Count()})
}

// Release frees every GPU resource.
func (s *Slime) Release() {
	s.agentGroups.Release()
	s.fields.release(s.R)
	if s.agents != nil {
		s.agents.Release(s.R)
	}
	s.params.Release(s.R)
	s.Base.Release()
}
