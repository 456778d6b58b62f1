package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestBorrowedBindings(t *testing.T) {
	particles := &wgpu.Buffer{}
	view := &wgpu.TextureView{}
	p := NewBindGroupProvider("life physics", WithGroup(1), WithBuffer(0, particles), WithTextureView(3, view))

	if p.Label() != "life physics" || p.Group() != 1 {
		t.Errorf("label/group = %q/%d", p.Label(), p.Group())
	}
	if p.Buffer(0) != particles || !p.Borrowed(0) {
		t.Errorf("buffer 0 should be borrowed")
	}
	if p.TextureView(3) != view || !p.Borrowed(3) {
		t.Errorf("texture view 3 should be borrowed")
	}
	if p.Borrowed(1) {
		t.Errorf("unset binding reported as borrowed")
	}

	// Release must forget borrowed resources without freeing them; freeing a zero wgpu object would panic.
	p.Release()
	if p.Buffer(0) != nil || p.TextureView(3) != nil || p.Borrowed(0) {
		t.Errorf("release kept bindings")
	}
}

func TestBufferWriteTarget(t *testing.T) {
	direct := &wgpu.Buffer{}
	bound := &wgpu.Buffer{}
	p := NewBindGroupProvider("params", WithBuffers(map[int]*wgpu.Buffer{2: bound}))

	cases := []struct {
		name  string
		write BufferWrite
		want  *wgpu.Buffer
	}{
		{"direct buffer wins", BufferWrite{Buffer: direct, Provider: p, Binding: 2}, direct},
		{"provider lookup", BufferWrite{Provider: p, Binding: 2}, bound},
		{"missing binding", BufferWrite{Provider: p, Binding: 5}, nil},
		{"nothing", BufferWrite{}, nil},
	}
	for _, tc := range cases {
		if got := tc.write.Target(); got != tc.want {
			t.Errorf("%s: Target() = %p, want %p", tc.name, got, tc.want)
		}
	}
}
