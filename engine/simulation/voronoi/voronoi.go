// Package voronoi runs a life-like cellular automaton on the cells of a Voronoi diagram. Cells
// are neighbours when their regions touch; the rule counts live neighbours exactly as on a
// square grid.
package voronoi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sim/engine/ring"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
	"github.com/Carmen-Shannon/oxy-sim/engine/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/rule_step.wgsl
var ruleStepSource string

//go:embed assets/render.wgsl
var renderSource string

const label = "Voronoi"

// maxStepsPerFrame caps catch-up after a stall.
const maxStepsPerFrame = 8

const geometryUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst

// geometryBuffers hold the uploaded Geometry.
type geometryBuffers struct {
	cells   uint32
	mapSize uint32
	seeds   *wgpu.Buffer
	owner   *wgpu.Buffer
	offsets *wgpu.Buffer
	indices *wgpu.Buffer
}

func (g *geometryBuffers) release(r renderer.Renderer) {
	for _, b := range []*wgpu.Buffer{g.seeds, g.owner, g.offsets, g.indices} {
		if b != nil {
			r.ReleaseBuffer(b)
		}
	}
	*g = geometryBuffers{}
}

// Voronoi is the Voronoi cellular automaton.
type Voronoi struct {
	*simulation.Base
	settings Settings

	state  *ring.Ring
	params *uniform.Block[Params]
	geom   geometryBuffers

	ruleKernel pipeline.Pipeline
	render     pipeline.Pipeline
	stepGroups ring.BindPair
	drawGroups ring.BindPair

	geomGen     uint64
	boundGen    uint64
	pending     float32
	sinceReseed float32
	step        uint64
}

var _ simulation.Simulation = &Voronoi{}

// New builds a Voronoi automaton.
//
// Parameters:
//   - r: the renderer
//   - luts: the colour table registry
//   - state: the initial common state
//   - settings: the initial settings, normally DefaultSettings()
//
// Returns:
//   - *Voronoi: the simulation
//   - error: a *common.InitializationFailedError, *common.BufferTooLargeError or allocation error
func New(r renderer.Renderer, luts *lut.Manager, state simulation.CommonState, settings Settings) (*Voronoi, error) {
	base, err := simulation.NewBase(r, label, luts, state)
	if err != nil {
		return nil, err
	}
	settings.normalize()
	v := &Voronoi{Base: base, settings: settings}
	if err := v.init(); err != nil {
		v.Release()
		return nil, err
	}
	return v, nil
}

func (v *Voronoi) init() error {
	includes := map[string]string{"voronoi": wgslTypes}
	var err error
	if v.ruleKernel, err = v.Pipes.Compute("voronoi.rule_step", ruleStepSource, includes); err != nil {
		return err
	}
	if v.render, err = v.Pipes.Render("voronoi.render", renderSource, includes, pipeline.AlphaBlend); err != nil {
		return err
	}
	if v.params, err = uniform.New(v.R, label+" Params", Params{}); err != nil {
		return err
	}
	if v.state, err = ring.New(v.R, label+" State", 4, v.settings.CellCount); err != nil {
		return err
	}
	if err := v.buildGeometry(v.settings); err != nil {
		return err
	}
	v.SetDisplay(v.settings.DisplaySettings)
	v.seed()
	return nil
}

// buildGeometry scatters seeds and uploads the owner map and adjacency. The previous buffers
// stay in place when an allocation fails.
func (v *Voronoi) buildGeometry(s Settings) error {
	g := NewGeometry(int(s.CellCount), s.OwnerMapSize, v.Rand)
	next := geometryBuffers{cells: s.CellCount, mapSize: s.OwnerMapSize}
	var err error
	upload := func(name string, data []byte) *wgpu.Buffer {
		if err != nil {
			return nil
		}
		size := max(uint64(len(data)), 4)
		var b *wgpu.Buffer
		if b, err = v.R.CreateBuffer(label+" "+name, size, geometryUsage); err != nil {
			return nil
		}
		if len(data) > 0 {
			v.R.WriteBuffer(b, 0, data)
		}
		return b
	}
	next.seeds = upload("Seeds", common.SliceToBytes(g.Seeds))
	next.owner = upload("Owner Map", common.SliceToBytes(g.Owner))
	next.offsets = upload("Offsets", common.SliceToBytes(g.Offsets))
	next.indices = upload("Neighbours", common.SliceToBytes(g.Indices))
	if err != nil {
		next.release(v.R)
		return err
	}
	v.geom.release(v.R)
	v.geom = next
	v.geomGen++
	log.Printf("[%s] built %d cells with %d adjacencies on a %dx%d owner map",
		label, len(g.Seeds), len(g.Indices)/2, s.OwnerMapSize, s.OwnerMapSize)
	return nil
}

func (v *Voronoi) bind() error {
	err := v.stepGroups.Build(v.state, func(side int, read, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return v.Group(fmt.Sprintf("Step %d", side), v.ruleKernel, map[int]*wgpu.Buffer{
			0: read,
			1: v.params.Buffer(),
			2: v.geom.offsets,
			3: v.geom.indices,
			5: write,
			6: v.geom.seeds,
		})
	})
	if err != nil {
		return err
	}
	err = v.drawGroups.Build(v.state, func(side int, read, _ *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		return v.Group(fmt.Sprintf("Draw %d", side), v.render, map[int]*wgpu.Buffer{
			0: v.geom.owner,
			1: v.params.Buffer(),
			2: read,
			4: v.LUT.GPUBuffer(),
		})
	})
	if err != nil {
		return err
	}
	v.boundGen = v.geomGen
	return nil
}

// seed fills the cells at initial_density.
func (v *Voronoi) seed() {
	state := RandomState(int(v.state.Count()), v.settings.InitialDensity, v.Rand)
	v.state.Upload(v.R, common.SliceToBytes(state))
	v.Stage.ResetTrail()
	v.pending = 0
	v.sinceReseed = 0
	v.step = 0
}

func (v *Voronoi) syncParams() {
	rule := v.settings.rule()
	v.params.Set(Params{
		CellCount: v.state.Count(),
		Birth:     rule.Birth,
		Survive:   rule.Survive,
		MapSize:   v.geom.mapSize,
		Frame:     uint32(v.step),
		Seed:      uint32(v.Common.RandomSeed),
		Cursor:    v.Cursor.GPU(),
	})
}

// Kind returns simulation.KindVoronoi.
func (v *Voronoi) Kind() simulation.Kind {
	return simulation.KindVoronoi
}

// due converts elapsed time into whole rule steps at steps_per_second.
func (v *Voronoi) due(dt float32) int {
	v.pending += max(dt, 0) * v.settings.StepsPerSecond
	steps := int(v.pending)
	v.pending -= float32(steps)
	return min(steps, maxStepsPerFrame)
}

// RenderFrame advances the automaton at steps_per_second, reseeding on the auto-reseed timer,
// and draws the cells.
func (v *Voronoi) RenderFrame(surface *wgpu.TextureView, dt float32) error {
	if err := v.BeginFrame(dt); err != nil {
		return err
	}
	if v.settings.AutoReseedEnabled {
		v.sinceReseed += dt
		if v.sinceReseed >= v.settings.AutoReseedIntervalSecs {
			v.seed()
		}
	}
	v.syncParams()
	v.params.Flush(v.R)
	if v.stepGroups.Stale(v.state) || v.boundGen != v.geomGen {
		if err := v.bind(); err != nil {
			return err
		}
	}

	if steps := v.due(dt); steps > 0 {
		err := v.Compute(func() error {
			for range steps {
				v.Dispatch(v.ruleKernel, v.state.Count(), v.stepGroups.For(v.state))
				v.state.Swap()
			}
			return nil
		})
		if err != nil {
			return err
		}
		v.step += uint64(steps)
	}
	v.draw(surface)
	return nil
}

// RenderFramePaused redraws without stepping.
func (v *Voronoi) RenderFramePaused(surface *wgpu.TextureView) error {
	if err := v.BeginFrame(0); err != nil {
		return err
	}
	v.draw(surface)
	return nil
}

func (v *Voronoi) draw(surface *wgpu.TextureView) {
	v.Composite(surface, func() {
		v.Draw(v.render, 3, 1, v.drawGroups.For(v.state))
	})
}

// UpdateSetting changes one setting.
func (v *Voronoi) UpdateSetting(name string, value any) error {
	next := v.settings
	change, err := next.apply(name, value)
	if err != nil {
		return err
	}
	return v.commit(next, change)
}

// ApplySettings applies a JSON settings object.
func (v *Voronoi) ApplySettings(data []byte) error {
	next := v.settings
	change, err := simulation.ApplyJSON(data, nil, next.apply)
	if err != nil {
		return err
	}
	return v.commit(next, change)
}

func (v *Voronoi) commit(next Settings, change simulation.Change) error {
	prev := v.settings
	if next.CellCount != prev.CellCount {
		if _, err := v.state.Resize(v.R, next.CellCount); err != nil {
			return err
		}
	}
	if next.CellCount != prev.CellCount || next.OwnerMapSize != prev.OwnerMapSize {
		if err := v.buildGeometry(next); err != nil {
			_, _ = v.state.Resize(v.R, prev.CellCount)
			return err
		}
	}
	v.settings = next
	v.SetDisplay(next.DisplaySettings)
	if change >= simulation.ChangeReseed {
		v.seed()
	}
	return nil
}

// UpdateState changes one runtime state value. A new random_seed also moves the cells.
func (v *Voronoi) UpdateState(name string, value any) error {
	change, handled, err := v.ApplyState(name, value)
	if !handled {
		return simulation.UnknownName(label, name)
	}
	if err != nil {
		return err
	}
	if change == simulation.ChangeReseed {
		if err := v.buildGeometry(v.settings); err != nil {
			return err
		}
		v.seed()
	}
	return nil
}

// ResetRuntimeState refills the cells; the diagram is kept.
func (v *Voronoi) ResetRuntimeState() error {
	v.ResetRuntime()
	v.seed()
	return nil
}

// RandomizeSettings picks another rule and density.
func (v *Voronoi) RandomizeSettings() error {
	next := v.settings
	next.randomize(v.Rand)
	return v.commit(next, simulation.ChangeReseed)
}

// Settings returns the settings as JSON.
func (v *Voronoi) Settings() ([]byte, error) {
	return json.Marshal(v.settings)
}

// State returns the runtime state as JSON.
func (v *Voronoi) State() ([]byte, error) {
	return json.Marshal(struct {
		simulation.CommonState
		Cursor cursor.State `json:"cursor"`
		Step   uint64       `json:"step"`
	}{v.Common, v.Cursor.State(), v.step})
}

// Stats reports the cell count and stage size.
func (v *Voronoi) Stats() simulation.Stats {
	return v.StageStats(simulation.Stats{Particles: v.state.Count()})
}

// Release frees every GPU resource.
func (v *Voronoi) Release() {
	v.stepGroups.Release()
	v.drawGroups.Release()
	v.geom.release(v.R)
	if v.state != nil {
		v.state.Release(v.R)
	}
	v.params.Release(v.R)
	v.Base.Release()
}
