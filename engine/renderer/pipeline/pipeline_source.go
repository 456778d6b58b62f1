package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/shader"
)

// NewComputeFromSource parses a WGSL compute kernel and wraps it in a compute pipeline.
//
// Parameters:
//   - key: the pipeline key, also used as the shader key
//   - source: the WGSL source
//   - shaderOpts: includes or entry point overrides for the shader
//
// Returns:
//   - Pipeline: the unregistered compute pipeline
//   - error: an error if the shader fails to parse
func NewComputeFromSource(key, source string, shaderOpts ...shader.ShaderBuilderOption) (Pipeline, error) {
	cs, err := shader.NewShader(key, shader.ShaderTypeCompute, source, shaderOpts...)
	if err != nil {
		return nil, fmt.Errorf("compute pipeline %s: %w", key, err)
	}
	return NewPipeline(key, PipelineTypeCompute, WithComputeShader(cs)), nil
}

// NewRenderFromSource parses a WGSL file holding both a @vertex and a @fragment entry point
// and wraps the pair in a render pipeline.
//
// Parameters:
//   - key: the pipeline key
//   - source: the WGSL source declaring both stages
//   - shaderOpts: includes applied to both stages
//   - opts: pipeline options (target format, blending, topology)
//
// Returns:
//   - Pipeline: the unregistered render pipeline
//   - error: an error if either stage fails to parse
func NewRenderFromSource(key, source string, shaderOpts []shader.ShaderBuilderOption, opts ...PipelineBuilderOption) (Pipeline, error) {
	vs, err := shader.NewShader(key+".vs", shader.ShaderTypeVertex, source, shaderOpts...)
	if err != nil {
		return nil, fmt.Errorf("render pipeline %s: %w", key, err)
	}
	fs, err := shader.NewShader(key+".fs", shader.ShaderTypeFragment, source, shaderOpts...)
	if err != nil {
		return nil, fmt.Errorf("render pipeline %s: %w", key, err)
	}
	opts = append([]PipelineBuilderOption{WithVertexShader(vs), WithFragmentShader(fs)}, opts...)
	return NewPipeline(key, PipelineTypeRender, opts...), nil
}
