// Package pellets implements softened N-body gravity between pellets that collide with one
// another. Neighbour gravity and contacts use the uniform grid; a global pull stands in for
// long-range gravity.
package pellets

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"

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

//go:embed assets/physics.wgsl
var physicsSource string

//go:embed assets/density.wgsl
var densitySource string

//go:embed assets/render.wgsl
var renderSource string

const label = "Pellets"

const (
	maxStep      = float32(1.0 / 15)
	gridCapacity = 64
	clumpRadius  = 0.12
)

// Pellets is the pellets simulation.
type Pellets struct {
	*simulation.Base
	settings Settings

	particles *ring.Ring
	params    *uniform.Block[Params]
	grid      *grid.Grid

	physics pipeline.Pipeline
	density pipeline.Pipeline
	render  pipeline.Pipeline

	physicsGroups ring.BindPair
	densityGroups ring.BindPair
	drawGroups    ring.BindPair
	gridGen       uint64

	step uint64
}

var _ simulation.Simulation = &Pellets{}

// New builds a pellets simulation.
//
// Parameters:
//   - r: the renderer
//   - luts: the colour table registry
//   - state: the initial common state
//   - settings: the initial settings, normally DefaultSettings()
//
// Returns:
//   - *Pellets: the simulation
//   - error: a *common.InitializationFailedError, *common.BufferTooLargeError or allocation error
func New(r renderer.Renderer, luts *lut.Manager, state simulation.CommonState, settings Settings) (*Pellets, error) {
	base, err := simulation.NewBase(r, label, luts, state)
	if err != nil {
		return nil, err
	}
	settings.normalize()
	p := &Pellets{Base: base, settings: settings}
	if err := p.init(); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *Pellets) init() error {
	includes := map[string]string{"particle": particleSource, "pellets": paramsSource}
	var err error
	if p.physics, err = p.Pipes.Compute("pellets.physics", physicsSource, includes); err != nil {
		return err
	}
	if p.density, err = p.Pipes.Compute("pellets.density", densitySource, includes); err != nil {
		return err
	}
	if p.render, err = p.Pipes.Render("pellets.render", renderSource, includes, pipeline.AlphaBlend); err != nil {
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
	return grid.NewParams(s.cellSize(), gridCapacity, s.ParticleCount, s.WrapEdges)
}

func (p *Pellets) bind() error {
	err := p.physicsGroups.Build(p.particles, func(side int, read, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return p.Group(fmt.Sprintf("Physics %d", side), p.physics, map[int]*wgpu.Buffer{
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

// Seed lays out n pellets. With more than one clump, pellets gather in discs around random
// centres; otherwise the position generator places them.
//
// Parameters:
//   - s: the settings
//   - n: pellet count
//   - rng: the random source
//
// Returns:
//   - []Particle: the pellets
func Seed(s Settings, n int, rng *rand.Rand) []Particle {
	out := make([]Particle, n)
	clumps := int(max(s.ClumpCount, 1))
	var scattered []common.Vec2
	if clumps == 1 {
		scattered = generate.Scatter(s.PositionGenerator, n, rng)
	}
	centres := make([]common.Vec2, clumps)
	for i := range centres {
		centres[i] = common.Vec2{rng.Float32()*1.4 - 0.7, rng.Float32()*1.4 - 0.7}
	}
	for i := range out {
		var pos common.Vec2
		clump := i % clumps
		if scattered != nil {
			pos = scattered[i]
		} else {
			a := rng.Float32() * 2 * math.Pi
			r := float32(math.Sqrt(float64(rng.Float32()))) * clumpRadius
			c := centres[clump]
			pos = common.Vec2{c[0] + r*float32(math.Cos(float64(a))), c[1] + r*float32(math.Sin(float64(a)))}
		}
		mass := s.MassMin + rng.Float32()*(s.MassMax-s.MassMin)
		a := rng.Float32() * 2 * math.Pi
		speed := s.InitialVelocity * rng.Float32()
		out[i] = Particle{
			Pos:    pos,
			Vel:    [2]float32{speed * float32(math.Cos(float64(a))), speed * float32(math.Sin(float64(a)))},
			Mass:   mass,
			Radius: Radius(s.PelletRadius, mass, s.MassMax),
			Clump:  uint32(clump),
		}
	}
	return out
}

func (p *Pellets) seed() {
	n := int(p.particles.Count())
	ps := Seed(p.settings, n, p.Rand)
	p.particles.Upload(p.R, common.SliceToBytes(ps))
	p.Stage.ResetTrail()
	p.step = 0
}

func (p *Pellets) syncParams(dt float32) {
	st := p.settings
	flag := func(b bool) uint32 {
		if b {
			return 1
		}
		return 0
	}
	p.params.Set(Params{
		ParticleCount:          p.particles.Count(),
		ClumpCount:             st.ClumpCount,
		Wrap:                   flag(st.WrapEdges),
		Frame:                  uint32(p.step),
		Dt:                     dt,
		PelletRadius:           st.PelletRadius,
		CollisionDamping:       st.CollisionDamping,
		OverlapResolution:      flag(st.OverlapResolution),
		OverlapStrength:        st.OverlapStrength,
		GravityStrength:        st.GravityStrength,
		Softening:              st.Softening,
		InteractionRadius:      st.InteractionRadius,
		LongRangeGravity:       st.LongRangeGravity,
		DensityDamping:         flag(st.DensityDampingEnabled),
		DensityDampingStrength: st.DensityDampingStrength,
		ColoringMode:           st.ColoringMode.index(),
		MassMin:                st.MassMin,
		MassMax:                st.MassMax,
		Seed:                   uint32(p.Common.RandomSeed),
		Cursor:                 p.Cursor.GPU(),
	})
}

// Kind returns simulation.KindPellets.
func (p *Pellets) Kind() simulation.Kind {
	return simulation.KindPellets
}

// RenderFrame rebuilds the grid, steps physics then density, and draws the pellets.
func (p *Pellets) RenderFrame(surface *wgpu.TextureView, dt float32) error {
	if err := p.BeginFrame(dt); err != nil {
		return err
	}
	p.syncParams(common.Clamp(dt, 0, maxStep))
	p.params.Flush(p.R)
	p.grid.SetParticleCount(p.particles.Count())
	if p.physicsGroups.Stale(p.particles) || p.gridGen != p.grid.Generation() {
		if err := p.bind(); err != nil {
			return err
		}
	}
	n := p.particles.Count()
	err := p.Compute(func() error {
		if err := p.grid.Step(p.particles); err != nil {
			return err
		}
		p.Dispatch(p.physics, n, p.physicsGroups.For(p.particles))
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
func (p *Pellets) RenderFramePaused(surface *wgpu.TextureView) error {
	if err := p.BeginFrame(0); err != nil {
		return err
	}
	p.draw(surface)
	return nil
}

func (p *Pellets) draw(surface *wgpu.TextureView) {
	p.Composite(surface, func() {
		p.Draw(p.render, 6, p.particles.Count(), p.drawGroups.For(p.particles))
	})
}

// UpdateSetting changes one setting.
func (p *Pellets) UpdateSetting(name string, value any) error {
	next := p.settings
	change, err := next.apply(name, value)
	if err != nil {
		return err
	}
	return p.commit(next, change)
}

// ApplySettings applies a JSON settings object.
func (p *Pellets) ApplySettings(data []byte) error {
	next := p.settings
	change, err := simulation.ApplyJSON(data, []string{"mass_min", "mass_max"}, next.apply)
	if err != nil {
		return err
	}
	return p.commit(next, change)
}

func (p *Pellets) commit(next Settings, change simulation.Change) error {
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
	if change >= simulation.ChangeReseed || next.PelletRadius != prev.PelletRadius {
		p.seed()
	}
	return nil
}

// UpdateState changes one runtime state value.
func (p *Pellets) UpdateState(name string, value any) error {
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

// ResetRuntimeState re-lays out the pellets.
func (p *Pellets) ResetRuntimeState() error {
	p.ResetRuntime()
	p.seed()
	return nil
}

// RandomizeSettings draws new gravity and collision constants.
func (p *Pellets) RandomizeSettings() error {
	next := p.settings
	next.randomize(p.Rand)
	return p.commit(next, simulation.ChangeUniform)
}

// Settings returns the settings as JSON.
func (p *Pellets) Settings() ([]byte, error) {
	return json.Marshal(p.settings)
}

// State returns the runtime state as JSON.
func (p *Pellets) State() ([]byte, error) {
	return json.Marshal(struct {
		simulation.CommonState
		Cursor cursor.State `json:"cursor"`
		Step   uint64       `json:"step"`
	}{p.Common, p.Cursor.State(), p.step})
}

// Stats reports the pellet count, stage size and grid drops.
func (p *Pellets) Stats() simulation.Stats {
	s := simulation.Stats{Particles: p.particles.Count()}
	if p.grid != nil {
		s.GridOverflow = p.grid.Overflow().Dropped
	}
	return p.StageStats(s)
}

// Release frees every GPU resource.
func (p *Pellets) Release() {
	p.physicsGroups.Release()
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
