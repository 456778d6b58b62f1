package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sim/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	width, height int

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

// Renderer is the GPU runtime shared by every simulation: pipelines, buffers, render targets,
// one batched compute submission and one render submission per frame.
//
// Frame protocol:
//  1. BeginFrame acquires the surface view and opens the render encoder
//  2. BeginComputeFrame / DispatchCompute / EndComputeFrame submit the compute work first
//  3. BeginPass / DrawCall / EndPass record render passes (offscreen or surface)
//  4. EndFrame submits the render encoder, Present shows the image
type Renderer interface {
	// Resize reconfigures the surface.
	//
	// Parameters:
	//   - width, height: the new surface size in pixels
	Resize(width, height int)

	// SetPresentMode switches between vsync and uncapped presentation. Takes effect on the next Resize.
	//
	// Parameters:
	//   - mode: the present mode
	SetPresentMode(mode PresentMode)

	// SurfaceConfig returns the current surface size and format.
	//
	// Returns:
	//   - common.SurfaceConfig: width, height and format
	SurfaceConfig() common.SurfaceConfig

	// Limits returns the device limits the renderer was created with.
	//
	// Returns:
	//   - wgpu.Limits: the device limits
	Limits() wgpu.Limits

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates the GPU objects for each pipeline and caches it by key.
	// Keys already registered are returned from the cache untouched.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: a *common.InitializationFailedError if shader compilation or pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// ReleasePipeline drops a pipeline from the cache and frees it.
	//
	// Parameters:
	//   - key: the pipeline key
	ReleasePipeline(key string)

	// CreateBuffer allocates a GPU buffer.
	//
	// Parameters:
	//   - label: debug label
	//   - size: requested size in bytes
	//   - usage: buffer usage flags
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer
	//   - error: a *common.BufferTooLargeError when size exceeds the device limits, or a *common.GpuError
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error)

	// WriteBuffer queues a write of data into buf at offset.
	//
	// Parameters:
	//   - buf: destination buffer
	//   - offset: byte offset
	//   - data: bytes to write
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// WriteBuffers queues several writes.
	//
	// Parameters:
	//   - writes: the writes; entries without a resolvable buffer are skipped
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// ReleaseBuffer frees a buffer. Nil is ignored.
	//
	// Parameters:
	//   - buf: the buffer to free
	ReleaseBuffer(buf *wgpu.Buffer)

	// CreateRenderTarget allocates an RGBA8 offscreen target usable as attachment and texture.
	//
	// Parameters:
	//   - label: debug label
	//   - width, height: size in pixels
	//
	// Returns:
	//   - *RenderTarget: the target
	//   - error: a *common.GpuError on allocation failure
	CreateRenderTarget(label string, width, height uint32) (*RenderTarget, error)

	// InitBindGroup builds the bind group for provider.Group() of pipeline p. Buffers missing on
	// the provider are created (and owned by it) with the usage implied by the binding plus any
	// override, sized by the override or the binding's minimum size.
	//
	// Parameters:
	//   - provider: the provider describing the resources
	//   - p: a registered pipeline whose layout the group must match
	//   - bufferUsageOverrides: extra usage flags keyed by binding
	//   - bufferSizeOverrides: sizes for created buffers keyed by binding
	//
	// Returns:
	//   - error: an error if a texture or sampler is missing or allocation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, p pipeline.Pipeline, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitSampler creates a sampler owned by provider at bindingKey.
	//
	// Parameters:
	//   - provider: the provider to receive the sampler
	//   - bindingKey: the binding index
	//   - samplerStagingData: sampler parameters; zero fields take defaults
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// BeginComputeFrame opens the encoder collecting this frame's compute dispatches.
	//
	// Returns:
	//   - error: a *common.GpuError if the encoder cannot be created
	BeginComputeFrame() error

	// DispatchCompute records one compute pass.
	//
	// Parameters:
	//   - p: the compute pipeline
	//   - groups: bind groups, each bound at its own group index
	//   - workGroupCount: the dispatch size
	DispatchCompute(p pipeline.Pipeline, groups []bind_group_provider.BindGroupProvider, workGroupCount [3]uint32)

	// CopyBufferToBuffer records a copy on the compute encoder.
	//
	// Parameters:
	//   - src, dst: source and destination
	//   - size: bytes to copy
	CopyBufferToBuffer(src, dst *wgpu.Buffer, size uint64)

	// EndComputeFrame submits the compute encoder. It always precedes the render submission.
	//
	// Returns:
	//   - error: a *common.GpuError on submission failure
	EndComputeFrame() error

	// BeginFrame acquires the next surface image and opens the render encoder.
	//
	// Returns:
	//   - *wgpu.TextureView: the surface view for this frame
	//   - error: a *common.GpuError if the surface cannot be acquired
	BeginFrame() (*wgpu.TextureView, error)

	// BeginPass opens a render pass on target. A nil clear loads the existing contents.
	//
	// Parameters:
	//   - target: the color attachment
	//   - clear: the clear color, or nil to load
	BeginPass(target *wgpu.TextureView, clear *wgpu.Color)

	// DrawCall records a non-indexed draw in the open pass.
	//
	// Parameters:
	//   - p: the render pipeline
	//   - vertexCount: vertices per instance
	//   - instanceCount: instances to draw
	//   - groups: bind groups, each bound at its own group index
	DrawCall(p pipeline.Pipeline, vertexCount, instanceCount uint32, groups []bind_group_provider.BindGroupProvider)

	// EndPass closes the open render pass.
	EndPass()

	// EndFrame submits the render encoder.
	//
	// Returns:
	//   - error: a *common.GpuError on submission failure
	EndFrame() error

	// Present shows the acquired surface image.
	Present()

	// Poll drives device callbacks such as buffer maps.
	//
	// Parameters:
	//   - wait: block until the queue is idle
	Poll(wait bool)

	// Release frees every cached pipeline and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer bound to the window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		width:         window.Width(),
		height:        window.Height(),
	}

	// Options first so forceFallbackAdapter is known before the adapter request.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(r.width, r.height)
	return r
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	r.width, r.height = max(width, 1), max(height, 1)
	r.mu.Unlock()
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SurfaceConfig() common.SurfaceConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return common.SurfaceConfig{Width: r.width, Height: r.height, Format: r.backend.SurfaceFormat()}
}

func (r *renderer) Limits() wgpu.Limits {
	return r.backend.Limits()
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		var err error
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			err = r.backend.RegisterComputePipeline(p)
		case pipeline.PipelineTypeRender:
			err = r.backend.RegisterRenderPipeline(p)
		}
		if err != nil {
			return common.InitializationFailed(fmt.Sprintf("pipeline %s", key), err)
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) ReleasePipeline(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pipelineCache[key]; ok {
		p.Release()
		delete(r.pipelineCache, key)
	}
}

func (r *renderer) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := r.backend.CreateBuffer(label, size, usage)
	if err != nil {
		var tooLarge *common.BufferTooLargeError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, common.GPU(fmt.Sprintf("create buffer %s", label), err)
	}
	return buf, nil
}

func (r *renderer) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	r.backend.WriteBuffer(buf, offset, data)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		r.backend.WriteBuffer(w.Target(), w.Offset, w.Data)
	}
}

func (r *renderer) ReleaseBuffer(buf *wgpu.Buffer) {
	if buf != nil {
		buf.Release()
	}
}

func (r *renderer) CreateRenderTarget(label string, width, height uint32) (*RenderTarget, error) {
	t, err := r.backend.CreateRenderTarget(label, width, height)
	if err != nil {
		return nil, common.GPU(fmt.Sprintf("create render target %s", label), err)
	}
	return t, nil
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, p pipeline.Pipeline, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, p, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) BeginComputeFrame() error {
	if err := r.backend.BeginComputeFrame(); err != nil {
		return common.GPU("begin compute frame", err)
	}
	return nil
}

func (r *renderer) DispatchCompute(p pipeline.Pipeline, groups []bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) {
	r.backend.DispatchCompute(p, groups, workGroupCount)
}

func (r *renderer) CopyBufferToBuffer(src, dst *wgpu.Buffer, size uint64) {
	r.backend.CopyBufferToBuffer(src, dst, size)
}

func (r *renderer) EndComputeFrame() error {
	return r.backend.EndComputeFrame()
}

func (r *renderer) BeginFrame() (*wgpu.TextureView, error) {
	return r.backend.BeginFrame()
}

func (r *renderer) BeginPass(target *wgpu.TextureView, clear *wgpu.Color) {
	r.backend.BeginPass(target, clear)
}

func (r *renderer) DrawCall(p pipeline.Pipeline, vertexCount, instanceCount uint32, groups []bind_group_provider.BindGroupProvider) {
	r.backend.DrawCall(p, vertexCount, instanceCount, groups)
}

func (r *renderer) EndPass() {
	r.backend.EndPass()
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Poll(wait bool) {
	r.backend.Poll(wait)
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}

// checkBufferSize rejects allocations the device cannot hold. Storage buffers are bound whole,
// so they are also limited by the binding size.
func checkBufferSize(size uint64, usage wgpu.BufferUsage, limits wgpu.Limits) error {
	limit := limits.MaxBufferSize
	if usage&wgpu.BufferUsageStorage != 0 && limits.MaxStorageBufferBindingSize > 0 {
		limit = min(limit, limits.MaxStorageBufferBindingSize)
	}
	if limit > 0 && size > limit {
		return &common.BufferTooLargeError{Requested: size, MaxAvailable: limit}
	}
	return nil
}

// alignBufferSize rounds up to the 4-byte multiple WriteBuffer and buffer mapping require.
func alignBufferSize(size uint64) uint64 {
	return max((size+3)&^3, 4)
}

// Workgroups returns the 1D dispatch size covering n items with the pipeline's workgroup width.
//
// Parameters:
//   - p: the compute pipeline
//   - n: number of items
//
// Returns:
//   - [3]uint32: the dispatch size ⌈n / wg.x⌉ × 1 × 1
func Workgroups(p pipeline.Pipeline, n uint32) [3]uint32 {
	wg := p.WorkgroupSize()
	return [3]uint32{common.CeilDiv(n, max(wg[0], 1)), 1, 1}
}

// Workgroups2D returns the 2D dispatch size covering a width × height grid.
//
// Parameters:
//   - p: the compute pipeline
//   - width, height: grid size
//
// Returns:
//   - [3]uint32: the dispatch size
func Workgroups2D(p pipeline.Pipeline, width, height uint32) [3]uint32 {
	wg := p.WorkgroupSize()
	return [3]uint32{common.CeilDiv(width, max(wg[0], 1)), common.CeilDiv(height, max(wg[1], 1)), 1}
}
