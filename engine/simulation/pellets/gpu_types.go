package pellets

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
)

// particleSource is the "particle" include shared with the grid populate kernel.
const particleSource = `struct Particle {
    pos: vec2<f32>,
    vel: vec2<f32>,
    mass: f32,
    radius: f32,
    density: f32,
    color: f32,
    clump: u32,
    _pad: u32,
};
`

// paramsSource is the "pellets" include.
const paramsSource = `struct PelletParams {
    particle_count: u32,
    clump_count: u32,
    wrap: u32,
    frame: u32,
    dt: f32,
    pellet_radius: f32,
    collision_damping: f32,
    overlap_resolution: u32,
    overlap_strength: f32,
    gravity_strength: f32,
    softening: f32,
    interaction_radius: f32,
    long_range_gravity: f32,
    density_damping: u32,
    density_damping_strength: f32,
    coloring_mode: u32,
    mass_min: f32,
    mass_max: f32,
    seed: u32,
    _pad: u32,
    cursor: Cursor,
};

fn displacement(a: vec2<f32>, b: vec2<f32>, wrap: u32) -> vec2<f32> {
    if (wrap != 0u) {
        return torus_delta(a, b);
    }
    return b - a;
}
`

// Particle is one pellet. Size: 40 bytes.
type Particle struct {
	Pos     [2]float32
	Vel     [2]float32
	Mass    float32
	Radius  float32
	Density float32
	Color   float32
	Clump   uint32
	_pad    uint32
}

// Size returns the byte size of Particle.
func (p Particle) Size() uint64 { return uint64(unsafe.Sizeof(p)) }

// Params is the PelletParams uniform. Size: 112 bytes.
type Params struct {
	ParticleCount          uint32
	ClumpCount             uint32
	Wrap                   uint32
	Frame                  uint32
	Dt                     float32
	PelletRadius           float32
	CollisionDamping       float32
	OverlapResolution      uint32
	OverlapStrength        float32
	GravityStrength        float32
	Softening              float32
	InteractionRadius      float32
	LongRangeGravity       float32
	DensityDamping         uint32
	DensityDampingStrength float32
	ColoringMode           uint32
	MassMin                float32
	MassMax                float32
	Seed                   uint32
	_pad                   uint32
	Cursor                 cursor.GPUCursor
}

// Size returns the byte size of Params.
func (p Params) Size() uint64 { return uint64(unsafe.Sizeof(p)) }
