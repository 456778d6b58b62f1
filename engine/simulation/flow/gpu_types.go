package flow

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
)

// wgslTypes is the "flow" include shared by the flow kernels and render shaders.
const wgslTypes = `struct Particle {
    pos: vec2<f32>,
    vel: vec2<f32>,
    age: f32,
    lifetime: f32,
    hue: f32,
    alive: u32,
};

struct FlowParams {
    particle_count: u32,
    map_size: u32,
    vector_size: u32,
    frame: u32,
    lifetime: f32,
    speed: f32,
    magnitude: f32,
    dt: f32,
    decay: f32,
    diffusion: f32,
    deposition: f32,
    wash_out: f32,
    autospawn: u32,
    spawn_rate: f32,
    particle_size: f32,
    seed: u32,
    cursor: Cursor,
};

fn trail_index(p: vec2<f32>, size: u32) -> u32 {
    let uv = clamp((p + 1.0) * 0.5, vec2<f32>(0.0), vec2<f32>(0.999999));
    let c = vec2<u32>(uv * f32(size));
    return c.y * size + c.x;
}
`

// Particle is one flow particle. Size: 32 bytes.
type Particle struct {
	Pos      [2]float32
	Vel      [2]float32
	Age      float32
	Lifetime float32
	Hue      float32
	Alive    uint32
}

// Size returns the byte size of Particle.
func (p Particle) Size() uint64 { return uint64(unsafe.Sizeof(p)) }

// Params is the FlowParams uniform. Size: 96 bytes.
type Params struct {
	ParticleCount uint32
	MapSize       uint32
	VectorSize    uint32
	Frame         uint32
	Lifetime      float32
	Speed         float32
	Magnitude     float32
	Dt            float32
	Decay         float32
	Diffusion     float32
	Deposition    float32
	WashOut       float32
	Autospawn     uint32
	SpawnRate     float32
	ParticleSize  float32
	Seed          uint32
	Cursor        cursor.GPUCursor
}

// Size returns the byte size of Params.
func (p Params) Size() uint64 { return uint64(unsafe.Sizeof(p)) }
