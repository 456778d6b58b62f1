package simulation

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Pipelines compiles and tracks a simulation's own pipelines so they can be released together.
type Pipelines struct {
	r    renderer.Renderer
	keys []string
}

func includeOptions(includes map[string]string) []shader.ShaderBuilderOption {
	opts := make([]shader.ShaderBuilderOption, 0, len(includes))
	for name, src := range includes {
		opts = append(opts, shader.WithInclude(name, src))
	}
	return opts
}

// Compute compiles and registers a compute kernel.
//
// Parameters:
//   - key: the pipeline key
//   - source: the WGSL kernel
//   - includes: per-kernel include snippets
//
// Returns:
//   - pipeline.Pipeline: the registered pipeline
//   - error: a *common.InitializationFailedError
func (p *Pipelines) Compute(key, source string, includes map[string]string) (pipeline.Pipeline, error) {
	c, err := pipeline.NewComputeFromSource(key, source, includeOptions(includes)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return p.register(c)
}

// Render compiles and registers a render pipeline targeting the offscreen tile.
//
// Parameters:
//   - key: the pipeline key
//   - source: WGSL holding one vertex and one fragment entry point
//   - includes: per-shader include snippets
//   - blend: the blend state
//
// Returns:
//   - pipeline.Pipeline: the registered pipeline
//   - error: a *common.InitializationFailedError
func (p *Pipelines) Render(key, source string, includes map[string]string, blend wgpu.BlendState) (pipeline.Pipeline, error) {
	rp, err := pipeline.NewRenderFromSource(key, source, includeOptions(includes),
		pipeline.WithTargetFormat(renderer.OffscreenFormat),
		pipeline.WithBlendState(blend),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return p.register(rp)
}

func (p *Pipelines) register(pl pipeline.Pipeline) (pipeline.Pipeline, error) {
	if err := p.r.RegisterPipelines(pl); err != nil {
		return nil, err
	}
	p.keys = append(p.keys, pl.PipelineKey())
	return p.r.Pipeline(pl.PipelineKey()), nil
}

// Release frees every tracked pipeline.
func (p *Pipelines) Release() {
	for _, k := range p.keys {
		p.r.ReleasePipeline(k)
	}
	p.keys = nil
}

// Group builds a bind group for p from borrowed buffers.
//
// Parameters:
//   - name: label suffix
//   - p: the pipeline whose layout the group follows
//   - buffers: binding → buffer
//
// Returns:
//   - bind_group_provider.BindGroupProvider: the initialized provider
//   - error: the bind group creation error
func (b *Base) Group(name string, p pipeline.Pipeline, buffers map[int]*wgpu.Buffer) (bind_group_provider.BindGroupProvider, error) {
	g := bind_group_provider.NewBindGroupProvider(b.Label+" "+name, bind_group_provider.WithBuffers(buffers))
	if err := b.R.InitBindGroup(g, p, nil, nil); err != nil {
		g.Release()
		return nil, err
	}
	return g, nil
}

// Compute wraps record in a compute frame. The frame is always submitted, even when record
// fails, so the encoder never leaks into the next frame.
func (b *Base) Compute(record func() error) error {
	if err := b.R.BeginComputeFrame(); err != nil {
		return err
	}
	recErr := record()
	if err := b.R.EndComputeFrame(); err != nil {
		return err
	}
	return recErr
}

// Dispatch runs a one-dimensional kernel over n items.
func (b *Base) Dispatch(p pipeline.Pipeline, n uint32, groups ...bind_group_provider.BindGroupProvider) {
	if n == 0 {
		return
	}
	b.R.DispatchCompute(p, groups, renderer.Workgroups(p, n))
}

// Dispatch2D runs a two-dimensional kernel over a width × height grid.
func (b *Base) Dispatch2D(p pipeline.Pipeline, width, height uint32, groups ...bind_group_provider.BindGroupProvider) {
	b.R.DispatchCompute(p, groups, renderer.Workgroups2D(p, width, height))
}

// Draw records a draw into the open tile pass.
func (b *Base) Draw(p pipeline.Pipeline, vertices, instances uint32, groups ...bind_group_provider.BindGroupProvider) {
	if instances == 0 {
		return
	}
	b.R.DrawCall(p, vertices, instances, groups)
}
