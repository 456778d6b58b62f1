// Package life implements particle life: species attract or repel one another according to a
// force matrix, with neighbours found through a uniform grid.
package life

import (
	_ "embed"
	"encoding/json"
	"fmt"

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

const label = "Life"

const maxStep = float32(1.0 / 15)

// Life is the particle life simulation.
type Life struct {
	*simulation.Base
	settings Settings

	particles *ring.Ring
	params    *uniform.Block[Params]
	matrix    *wgpu.Buffer
	colors    *wgpu.Buffer
	grid      *grid.Grid

	physics pipeline.Pipeline
	density pipeline.Pipeline
	render  pipeline.Pipeline

	physicsGroups ring.BindPair
	densityGroups ring.BindPair
	drawGroups    ring.BindPair
	gridGen       uint64
	colorKey      colorKey

	step uint64
}

// colorKey identifies the inputs of the last species colour upload.
type colorKey struct {
	table   *lut.LUT
	species uint32
	hues    bool
}

var _ simulation.Simulation = &Life{}

// New builds a particle life simulation. The force matrix is generated from matrix_generator
// when settings carry none of the right size.
//
// Parameters:
//   - r: the renderer
//   - luts: the colour table registry
//   - state: the initial common state
//   - settings: the initial settings, normally DefaultSettings()
//
// Returns:
//   - *Life: the simulation
//   - error: a *common.InitializationFailedError, *common.BufferTooLargeError or allocation error
func New(r renderer.Renderer, luts *lut.Manager, state simulation.CommonState, settings Settings) (*Life, error) {
	base, err := simulation.NewBase(r, label, luts, state)
	if err != nil {
		return nil, err
	}
	settings.normalize(base.Rand)
	l := &Life{Base: base, settings: settings}
	if err := l.init(); err != nil {
		l.Release()
		return nil, err
	}
	return l, nil
}

func (l *Life) init() error {
	includes := map[string]string{"particle": particleSource, "life": paramsSource}
	var err error
	if l.physics, err = l.Pipes.Compute("life.physics", physicsSource, includes); err != nil {
		return err
	}
	if l.density, err = l.Pipes.Compute("life.density", densitySource, includes); err != nil {
		return err
	}
	if l.render, err = l.Pipes.Render("life.render", renderSource, includes, pipeline.AdditiveBlend); err != nil {
		return err
	}
	if l.params, err = uniform.New(l.R, label+" Params", Params{}); err != nil {
		return err
	}
	if l.matrix, err = l.R.CreateBuffer(label+" Force Matrix", MaxMatrixEntries*4, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	if l.colors, err = l.R.CreateBuffer(label+" Species Colors", MaxSpecies*16, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	if l.particles, err = ring.New(l.R, label+" Particles", Particle{}.Size(), l.settings.ParticleCount); err != nil {
		return err
	}
	if l.grid, err = grid.New(l.R, label, particleSource, l.gridParams(l.settings)); err != nil {
		return err
	}
	l.uploadMatrix()
	l.SetDisplay(l.settings.DisplaySettings)
	l.seed()
	return nil
}

func (l *Life) gridParams(s Settings) grid.Params {
	return grid.NewParams(s.MaxDistance, grid.DefaultCapacity, s.ParticleCount, s.WrapEdges)
}

func (l *Life) uploadMatrix() {
	l.R.WriteBuffer(l.matrix, 0, common.SliceToBytes(generate.Flatten(l.settings.Matrix())))
}

func (l *Life) bind() error {
	err := l.physicsGroups.Build(l.particles, func(side int, read, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return l.Group(fmt.Sprintf("Physics %d", side), l.physics, map[int]*wgpu.Buffer{
			0: read,
			1: l.params.Buffer(),
			2: l.matrix,
			3: l.grid.ParamsBuffer(),
			5: write,
			6: l.grid.Cells(),
		})
	})
	if err != nil {
		return err
	}
	// Density runs on the side physics just wrote.
	err = l.densityGroups.Build(l.particles, func(side int, _, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return l.Group(fmt.Sprintf("Density %d", side), l.density, map[int]*wgpu.Buffer{
			1: l.params.Buffer(),
			3: l.grid.ParamsBuffer(),
			5: write,
			6: l.grid.Cells(),
		})
	})
	if err != nil {
		return err
	}
	if err := l.drawGroups.Build(l.particles, func(side int, read, _ *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return l.Group(fmt.Sprintf("Draw %d", side), l.render, map[int]*wgpu.Buffer{
			0: read,
			1: l.params.Buffer(),
			4: l.colors,
		})
	}); err != nil {
		return err
	}
	l.gridGen = l.grid.Generation()
	return nil
}

func (l *Life) stale() bool {
	return l.physicsGroups.Stale(l.particles) || l.gridGen != l.grid.Generation()
}

// seed lays out particles with the position and type generators. Velocities start at zero.
func (l *Life) seed() {
	n := int(l.particles.Count())
	st := l.settings
	positions, types := generate.Layout(st.PositionGenerator, st.TypeGenerator, n, int(st.SpeciesCount), l.Rand)
	ps := make([]Particle, n)
	for i := range ps {
		ps[i] = Particle{Pos: positions[i], Species: types[i]}
	}
	l.particles.Upload(l.R, common.SliceToBytes(ps))
	l.Stage.ResetTrail()
	l.step = 0
}

func (l *Life) syncParams(dt float32) {
	st := l.settings
	var wrap uint32
	if st.WrapEdges {
		wrap = 1
	}
	l.params.Set(Params{
		ParticleCount: l.particles.Count(),
		SpeciesCount:  st.SpeciesCount,
		Wrap:          wrap,
		Frame:         uint32(l.step),
		MaxDistance:   st.MaxDistance,
		MinDistance:   st.MinDistance,
		Beta:          st.Beta,
		Friction:      st.Friction,
		ForceScale:    st.ForceScale,
		Repulsion:     st.RepulsionStrength,
		Brownian:      st.BrownianMotion,
		MaxVelocity:   st.MaxVelocity,
		ParticleSize:  st.ParticleSize,
		Dt:            dt,
		Seed:          uint32(l.Common.RandomSeed),
		Cursor:        l.Cursor.GPU(),
	})
}

// Kind returns simulation.KindLife.
func (l *Life) Kind() simulation.Kind {
	return simulation.KindLife
}

// RenderFrame rebuilds the grid, steps physics then density, and draws the particles.
func (l *Life) RenderFrame(surface *wgpu.TextureView, dt float32) error {
	if err := l.BeginFrame(dt); err != nil {
		return err
	}
	l.syncParams(common.Clamp(dt, 0, maxStep))
	l.params.Flush(l.R)
	l.grid.SetParticleCount(l.particles.Count())
	if l.stale() {
		if err := l.bind(); err != nil {
			return err
		}
	}
	n := l.particles.Count()
	err := l.Compute(func() error {
		if err := l.grid.Step(l.particles); err != nil {
			return err
		}
		l.Dispatch(l.physics, n, l.physicsGroups.For(l.particles))
		l.Dispatch(l.density, n, l.densityGroups.For(l.particles))
		return nil
	})
	if err != nil {
		return err
	}
	l.grid.Resolve()
	l.particles.Swap()
	l.step++
	l.draw(surface)
	return nil
}

// RenderFramePaused redraws without stepping physics or density.
func (l *Life) RenderFramePaused(surface *wgpu.TextureView) error {
	if err := l.BeginFrame(0); err != nil {
		return err
	}
	l.draw(surface)
	return nil
}

// uploadColors rewrites the species colours when the table, species count or hue mode changed.
func (l *Life) uploadColors() {
	key := colorKey{table: l.LUT.Current(), species: l.settings.SpeciesCount, hues: l.settings.SpeciesHues}
	if key == l.colorKey {
		return
	}
	l.R.WriteBuffer(l.colors, 0, common.SliceToBytes(SpeciesColors(l.settings, key.table)))
	l.colorKey = key
}

func (l *Life) draw(surface *wgpu.TextureView) {
	l.uploadColors()
	l.Composite(surface, func() {
		l.Draw(l.render, 6, l.particles.Count(), l.drawGroups.For(l.particles))
	})
}

// UpdateSetting changes one setting. matrix_operation edits force_matrix in place and is not
// itself stored.
func (l *Life) UpdateSetting(name string, value any) error {
	next := l.settings
	change, err := next.update(name, value, l.Rand)
	if err != nil {
		return err
	}
	return l.commit(next, change)
}

// ApplySettings applies a JSON settings object. species_count is applied before the matrix.
func (l *Life) ApplySettings(data []byte) error {
	next := l.settings
	change, err := simulation.ApplyJSON(data, applyOrder, func(name string, v any) (simulation.Change, error) {
		return next.apply(name, v, l.Rand)
	})
	if err != nil {
		return err
	}
	// Distances are checked once all names are in, so a preset may move both in either order.
	if err := next.validate("min_distance"); err != nil {
		return err
	}
	return l.commit(next, change)
}

func (l *Life) commit(next Settings, change simulation.Change) error {
	prev := l.settings
	if err := resizeBuffers(l.R, l.grid, l.particles, l.gridParams(prev), l.gridParams(next), next.ParticleCount); err != nil {
		return err
	}
	l.settings = next
	l.SetDisplay(next.DisplaySettings)
	l.uploadMatrix()
	// Species changes invalidate every tag, so they reseed as well.
	if change >= simulation.ChangeReseed {
		l.seed()
	}
	return nil
}

// shaper is the part of grid.Grid that resizeBuffers drives.
type shaper interface {
	Update(p grid.Params) (bool, error)
}

// resizeBuffers reshapes the grid, then the particle ring. The grid goes first because a failed
// update leaves it untouched, whereas a grown ring holds unseeded buffers. When the ring cannot
// grow the grid is returned to prev, so a failure leaves both as they were.
//
// Parameters:
//   - alloc: the buffer allocator
//   - g: the neighbour grid
//   - particles: the particle ring
//   - prev, next: grid shapes before and after the change
//   - count: the new particle count
//
// Returns:
//   - error: the grid or ring allocation error
func resizeBuffers(alloc ring.Allocator, g shaper, particles *ring.Ring, prev, next grid.Params, count uint32) error {
	reshaped := prev != next
	if reshaped {
		if _, err := g.Update(next); err != nil {
			return err
		}
	}
	if count == particles.Count() {
		return nil
	}
	if _, err := particles.Resize(alloc, count); err != nil {
		if reshaped {
			_, _ = g.Update(prev)
		}
		return err
	}
	return nil
}

// UpdateState changes one runtime state value.
func (l *Life) UpdateState(name string, value any) error {
	change, handled, err := l.ApplyState(name, value)
	if !handled {
		return simulation.UnknownName(label, name)
	}
	if err != nil {
		return err
	}
	if change == simulation.ChangeReseed {
		l.seed()
	}
	return nil
}

// ResetRuntimeState re-lays out the particles.
func (l *Life) ResetRuntimeState() error {
	l.ResetRuntime()
	l.seed()
	return nil
}

// RandomizeSettings draws a new matrix and interaction ranges.
func (l *Life) RandomizeSettings() error {
	next := l.settings
	next.randomize(l.Rand)
	return l.commit(next, simulation.ChangeUniform)
}

// Settings returns the settings as JSON, including the force matrix.
func (l *Life) Settings() ([]byte, error) {
	return json.Marshal(l.settings)
}

// State returns the runtime state as JSON.
func (l *Life) State() ([]byte, error) {
	return json.Marshal(struct {
		simulation.CommonState
		Cursor cursor.State `json:"cursor"`
		Step   uint64       `json:"step"`
	}{l.Common, l.Cursor.State(), l.step})
}

// Stats reports the particle count, stage size and grid drops.
func (l *Life) Stats() simulation.Stats {
	s := simulation.Stats{Particles: l.particles.Count()}
	if l.grid != nil {
		s.GridOverflow = l.grid.Overflow().Dropped
	}
	return l.StageStats(s)
}

// Release frees every GPU resource.
func (l *Life) Release() {
	l.physicsGroups.Release()
	l.densityGroups.Release()
	l.drawGroups.Release()
	if l.grid != nil {
		l.grid.Release()
	}
	if l.particles != nil {
		l.particles.Release(l.R)
	}
	if l.matrix != nil {
		l.R.ReleaseBuffer(l.matrix)
	}
	if l.colors != nil {
		l.R.ReleaseBuffer(l.colors)
	}
	l.params.Release(l.R)
	l.Base.Release()
}
