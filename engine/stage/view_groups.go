package stage

import (
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// viewGroups caches one bind group per sampled view. Offscreen passes read different targets on
// alternate frames, so each source gets its own group instead of a rebuild per frame.
type viewGroups struct {
	groups map[*wgpu.TextureView]bind_group_provider.BindGroupProvider
}

func (v *viewGroups) get(view *wgpu.TextureView, build func() (bind_group_provider.BindGroupProvider, error)) (bind_group_provider.BindGroupProvider, error) {
	if g, ok := v.groups[view]; ok {
		return g, nil
	}
	g, err := build()
	if err != nil {
		return nil, err
	}
	if v.groups == nil {
		v.groups = make(map[*wgpu.TextureView]bind_group_provider.BindGroupProvider)
	}
	v.groups[view] = g
	return g, nil
}

func (v *viewGroups) release() {
	for view, g := range v.groups {
		g.Release()
		delete(v.groups, view)
	}
}
