package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const populateKernel = `
//@oxy:include particle
//@oxy:include grid
//@oxy:include grid

@group(0) @binding(0) var<storage, read> particles: array<Particle>;
@group(0) @binding(1) var<uniform> grid_params: GridParams; // reflected as uniform
@group(0) @binding(2) var<storage, read_write> grid: array<atomic<u32>>;
/* @group(0) @binding(9) var<uniform> ignored: GridParams; */

@compute @workgroup_size(16, 16)
fn populate(@builtin(global_invocation_id) id: vec3<u32>) {
}
`

func TestNewShaderExpandsIncludesOnce(t *testing.T) {
	s, err := NewShader("populate", ShaderTypeCompute, populateKernel,
		WithInclude("particle", "struct Particle { pos: vec2<f32>, vel: vec2<f32> };"))
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	if n := strings.Count(s.Source(), "struct GridParams"); n != 1 {
		t.Errorf("GridParams declared %d times, want 1", n)
	}
	if !strings.Contains(s.Source(), "struct Particle") {
		t.Errorf("particle include not expanded")
	}
	if s.EntryPoint() != "populate" {
		t.Errorf("entry point = %q", s.EntryPoint())
	}
	if s.WorkgroupSize() != [3]uint32{16, 16, 1} {
		t.Errorf("workgroup size = %v", s.WorkgroupSize())
	}
}

func TestNewShaderReflectsBindings(t *testing.T) {
	s, err := NewShader("populate", ShaderTypeCompute, populateKernel,
		WithInclude("particle", "struct Particle { pos: vec2<f32> };"))
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	desc := s.BindGroupLayoutDescriptor(0)
	if len(desc.Entries) != 3 {
		t.Fatalf("entries = %d, want 3 (commented declaration must be skipped)", len(desc.Entries))
	}
	want := []wgpu.BufferBindingType{
		wgpu.BufferBindingTypeReadOnlyStorage,
		wgpu.BufferBindingTypeUniform,
		wgpu.BufferBindingTypeStorage,
	}
	for i, e := range desc.Entries {
		if e.Buffer.Type != want[i] {
			t.Errorf("binding %d type = %v, want %v", e.Binding, e.Buffer.Type, want[i])
		}
		if e.Visibility != wgpu.ShaderStageCompute {
			t.Errorf("binding %d visibility = %v", e.Binding, e.Visibility)
		}
	}
	if b, ok := s.BindGroupFromVarName(0, "grid"); !ok || b != 2 {
		t.Errorf("BindGroupFromVarName(grid) = %d, %v", b, ok)
	}
	if name := s.BindGroupVarName(0, 1); name != "grid_params" {
		t.Errorf("BindGroupVarName(0, 1) = %q", name)
	}
}

func TestNewShaderTextures(t *testing.T) {
	src := `
//@oxy:include fullscreen
@group(0) @binding(0) var tile: texture_2d<f32>;
@group(0) @binding(1) var tile_sampler: sampler;
@group(0) @binding(2) var field: texture_storage_2d<r32float, write>;

@fragment
fn fs_main(in: FullscreenOut) -> @location(0) vec4<f32> {
    return textureSample(tile, tile_sampler, in.uv);
}
`
	vs, err := NewShader("tile.vs", ShaderTypeVertex, src)
	if err != nil {
		t.Fatalf("vertex: %v", err)
	}
	if vs.EntryPoint() != "vs_fullscreen" {
		t.Errorf("vertex entry = %q", vs.EntryPoint())
	}
	fs, err := NewShader("tile.fs", ShaderTypeFragment, src)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	entries := fs.BindGroupLayoutDescriptor(0).Entries
	if entries[0].Texture.SampleType != wgpu.TextureSampleTypeFloat || entries[0].Texture.ViewDimension != wgpu.TextureViewDimension2D {
		t.Errorf("texture entry = %+v", entries[0].Texture)
	}
	if entries[1].Sampler.Type != wgpu.SamplerBindingTypeFiltering {
		t.Errorf("sampler entry = %+v", entries[1].Sampler)
	}
	if entries[2].StorageTexture.Format != wgpu.TextureFormatR32Float || entries[2].StorageTexture.Access != wgpu.StorageTextureAccessWriteOnly {
		t.Errorf("storage texture entry = %+v", entries[2].StorageTexture)
	}
}

func TestPreProcessorErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"unknown include", "//@oxy:include nope", "unknown include"},
		{"unknown directive", "//@oxy:define X", "unknown directive"},
		{"missing argument", "//@oxy:include", "exactly one argument"},
		{"empty directive", "//@oxy:", "empty"},
	}
	pp := NewPreProcessor(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pp.Process(tc.src)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Process(%q) error = %v, want containing %q", tc.src, err, tc.want)
			}
		})
	}
}

func TestPreProcessorCycle(t *testing.T) {
	pp := NewPreProcessor(map[string]string{
		"a": "//@oxy:include b",
		"b": "//@oxy:include a",
	})
	out, err := pp.Process("//@oxy:include a\nfn f() {}")
	if err != nil {
		t.Fatalf("cycle should be cut by the seen set: %v", err)
	}
	if !strings.Contains(out, "fn f()") {
		t.Errorf("body lost: %q", out)
	}
}

func TestNewShaderWithoutEntryPoint(t *testing.T) {
	if _, err := NewShader("empty", ShaderTypeCompute, "fn helper() {}"); err == nil {
		t.Errorf("expected missing entry point error")
	}
	if _, err := NewShader("empty", ShaderTypeCompute, ""); err == nil {
		t.Errorf("expected empty source error")
	}
}

func TestSpriteIncludeSuppliesFragment(t *testing.T) {
	src := `
//@oxy:include sprite
@group(0) @binding(0) var<storage, read> points: array<vec2<f32>>;

@vertex
fn vs_points(@builtin(vertex_index) vi: u32, @builtin(instance_index) ii: u32) -> SpriteOut {
    return sprite_vertex(points[ii], 0.01, vi, vec4<f32>(1.0));
}
`
	fs, err := NewShader("points.fs", ShaderTypeFragment, src)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if fs.EntryPoint() != "fs_sprite" {
		t.Errorf("fragment entry = %q", fs.EntryPoint())
	}
	vs, err := NewShader("points.vs", ShaderTypeVertex, src)
	if err != nil {
		t.Fatalf("vertex: %v", err)
	}
	if vs.EntryPoint() != "vs_points" {
		t.Errorf("vertex entry = %q", vs.EntryPoint())
	}
}
