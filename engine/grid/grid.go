// Package grid buckets particles into a uniform cell grid over [-1, 1]² so neighbour kernels
// scan nine cells instead of every particle. The grid is rebuilt every step by a clear kernel
// and a populate kernel; full cells drop further insertions.
package grid

import (
	_ "embed"
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-sim/engine/ring"
	"github.com/Carmen-Shannon/oxy-sim/engine/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/grid_clear.wgsl
var gridClearSource string

//go:embed assets/grid_populate.wgsl
var gridPopulateSource string

// Grid is the GPU spatial grid of one simulation.
type Grid struct {
	label      string
	r          renderer.Renderer
	params     *uniform.Block[Params]
	cells      *wgpu.Buffer
	generation uint64

	clear    pipeline.Pipeline
	populate pipeline.Pipeline

	clearGroup    bind_group_provider.BindGroupProvider
	populateGroup ring.BindPair

	readback *renderer.Readback
	overflow OverflowStats
}

// New compiles the grid kernels for a particle layout and allocates the cell buffer.
//
// Parameters:
//   - r: the renderer
//   - label: owning simulation label; pipeline keys are derived from it
//   - particleSource: WGSL declaring `struct Particle` with a `pos: vec2<f32>` field
//   - params: the initial grid shape
//
// Returns:
//   - *Grid: the grid
//   - error: a *common.InitializationFailedError or allocation error
func New(r renderer.Renderer, label, particleSource string, params Params) (*Grid, error) {
	clearKernel, err := pipeline.NewComputeFromSource(label+".grid_clear", gridClearSource)
	if err != nil {
		return nil, err
	}
	populate, err := pipeline.NewComputeFromSource(label+".grid_populate", gridPopulateSource,
		shader.WithInclude("particle", particleSource))
	if err != nil {
		return nil, err
	}
	if err := r.RegisterPipelines(clearKernel, populate); err != nil {
		return nil, err
	}

	block, err := uniform.New(r, label+" Grid Params", params)
	if err != nil {
		return nil, err
	}
	g := &Grid{
		label:    label,
		r:        r,
		params:   block,
		clear:    r.Pipeline(clearKernel.PipelineKey()),
		populate: r.Pipeline(populate.PipelineKey()),
	}
	if err := g.allocate(params); err != nil {
		block.Release(r)
		return nil, err
	}
	return g, nil
}

// allocate replaces the cell buffer, clear bind group and readback for a new shape.
func (g *Grid) allocate(p Params) error {
	cells, err := g.r.CreateBuffer(g.label+" Grid Cells", p.BufferSize(),
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if err != nil {
		return err
	}
	clearGroup := bind_group_provider.NewBindGroupProvider(g.label+" Grid Clear",
		bind_group_provider.WithBuffer(1, g.params.Buffer()),
		bind_group_provider.WithBuffer(2, cells),
	)
	if err := g.r.InitBindGroup(clearGroup, g.clear, nil, nil); err != nil {
		g.r.ReleaseBuffer(cells)
		return err
	}
	rb, err := renderer.NewReadback(g.r, g.label+" Grid Counts", uint64(p.Cells())*4)
	if err != nil {
		clearGroup.Release()
		g.r.ReleaseBuffer(cells)
		return err
	}

	g.release()
	g.cells = cells
	g.clearGroup = clearGroup
	g.readback = rb
	g.generation++
	return nil
}

func (g *Grid) release() {
	g.populateGroup.Release()
	if g.clearGroup != nil {
		g.clearGroup.Release()
		g.clearGroup = nil
	}
	if g.readback != nil {
		g.readback.Release()
		g.readback = nil
	}
	if g.cells != nil {
		g.r.ReleaseBuffer(g.cells)
		g.cells = nil
	}
}

// Update applies a new shape. The cell buffer is reallocated only when the cell count or
// capacity changes; otherwise only the uniform is rewritten.
//
// Parameters:
//   - p: the new grid parameters
//
// Returns:
//   - bool: true if the cell buffer was replaced and dependent bind groups must be rebuilt
//   - error: the allocation error; the previous buffer stays bound
func (g *Grid) Update(p Params) (bool, error) {
	old := g.params.Value()
	g.params.Set(p)
	if old.Cells() == p.Cells() && old.Capacity == p.Capacity {
		return false, nil
	}
	if err := g.allocate(p); err != nil {
		g.params.Set(old)
		return false, err
	}
	return true, nil
}

// SetParticleCount updates the number of particles inserted per step.
func (g *Grid) SetParticleCount(n uint32) {
	g.params.Update(func(p *Params) { p.ParticleCount = n })
}

// Step records grid-clear then grid-populate on the open compute frame, reading the ring's
// current side, and schedules a counter readback when none is in flight.
//
// Parameters:
//   - particles: the particle ring
//
// Returns:
//   - error: a bind group build error
func (g *Grid) Step(particles *ring.Ring) error {
	if g.populateGroup.Stale(particles) {
		if err := g.bind(particles); err != nil {
			return err
		}
	}
	g.params.Flush(g.r)
	p := g.params.Value()

	g.r.DispatchCompute(g.clear, []bind_group_provider.BindGroupProvider{g.clearGroup}, renderer.Workgroups(g.clear, p.Cells()))
	g.r.DispatchCompute(g.populate, []bind_group_provider.BindGroupProvider{g.populateGroup.For(particles)}, renderer.Workgroups(g.populate, p.ParticleCount))
	g.readback.Schedule(g.r, g.cells)
	return nil
}

func (g *Grid) bind(particles *ring.Ring) error {
	return g.populateGroup.Build(particles, func(side int, read, _ *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
		p := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s Grid Populate %d", g.label, side),
			bind_group_provider.WithBuffer(0, read),
			bind_group_provider.WithBuffer(1, g.params.Buffer()),
			bind_group_provider.WithBuffer(2, g.cells),
		)
		if err := g.r.InitBindGroup(p, g.populate, nil, nil); err != nil {
			return nil, err
		}
		return p, nil
	})
}

// Resolve starts mapping the scheduled counter copy. Call after the compute frame is submitted.
func (g *Grid) Resolve() {
	g.readback.Resolve()
}

// Overflow returns the statistics of the newest completed readback. A readback that is still
// in flight leaves the previous statistics in place.
//
// Returns:
//   - OverflowStats: dropped insertions and cell load
func (g *Grid) Overflow() OverflowStats {
	raw, fresh := g.readback.Latest()
	if fresh {
		prev := g.overflow.Dropped
		g.overflow = Overflow(DecodeCounts(raw), g.params.Value().Capacity)
		if g.overflow.Dropped > 0 && prev == 0 {
			log.Printf("[Grid] %s: %d insertions dropped across %d full cells", g.label, g.overflow.Dropped, g.overflow.FullCells)
		}
	}
	return g.overflow
}

// Cells returns the cell buffer for binding into neighbour kernels.
func (g *Grid) Cells() *wgpu.Buffer {
	return g.cells
}

// ParamsBuffer returns the GridParams uniform buffer.
func (g *Grid) ParamsBuffer() *wgpu.Buffer {
	return g.params.Buffer()
}

// Params returns the current grid parameters.
func (g *Grid) Params() Params {
	return g.params.Value()
}

// Generation changes whenever the cell buffer is replaced.
func (g *Grid) Generation() uint64 {
	return g.generation
}

// Release frees the buffers, bind groups and pipelines.
func (g *Grid) Release() {
	g.release()
	g.params.Release(g.r)
	g.r.ReleasePipeline(g.clear.PipelineKey())
	g.r.ReleasePipeline(g.populate.PipelineKey())
}
