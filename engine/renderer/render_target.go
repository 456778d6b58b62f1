package renderer

import "github.com/cogentcore/webgpu/wgpu"

// OffscreenFormat is the color format of every offscreen target.
const OffscreenFormat = wgpu.TextureFormatRGBA8Unorm

// RenderTarget is an offscreen color texture that can be rendered into and sampled.
type RenderTarget struct {
	Label   string
	Width   uint32
	Height  uint32
	Texture *wgpu.Texture
	View    *wgpu.TextureView
}

// Release frees the texture and its view.
func (t *RenderTarget) Release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}
