package renderer

import (
	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode maps a config string to a PresentMode. Unknown values fall back to VSync.
//
// Parameters:
//   - s: "vsync" or "uncapped"
//
// Returns:
//   - PresentMode: the parsed mode
func ParsePresentMode(s string) PresentMode {
	if s == "uncapped" {
		return PresentModeUncapped
	}
	return PresentModeVSync
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}

// wgpuRendererBackend is the set of device operations the Renderer delegates to.
type wgpuRendererBackend interface {
	ConfigureSurface(width, height int)
	SetPresentMode(mode PresentMode)
	SurfaceFormat() wgpu.TextureFormat
	Limits() wgpu.Limits
	Device() *wgpu.Device
	Queue() *wgpu.Queue

	RegisterRenderPipeline(p pipeline.Pipeline) error
	RegisterComputePipeline(p pipeline.Pipeline) error

	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error)
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
	CreateRenderTarget(label string, width, height uint32) (*RenderTarget, error)
	InitBindGroup(provider bind_group_provider.BindGroupProvider, p pipeline.Pipeline, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	BeginComputeFrame() error
	DispatchCompute(p pipeline.Pipeline, groups []bind_group_provider.BindGroupProvider, workGroupCount [3]uint32)
	CopyBufferToBuffer(src, dst *wgpu.Buffer, size uint64)
	EndComputeFrame() error

	BeginFrame() (*wgpu.TextureView, error)
	BeginPass(target *wgpu.TextureView, clear *wgpu.Color)
	DrawCall(p pipeline.Pipeline, vertexCount, instanceCount uint32, groups []bind_group_provider.BindGroupProvider)
	EndPass()
	EndFrame() error
	Present()

	Poll(wait bool)
	Release()
}
