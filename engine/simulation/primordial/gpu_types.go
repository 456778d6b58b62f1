package primordial

import (
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
)

const particleSource = `struct Particle {
    pos: vec2<f32>,
    heading: f32,
    density: f32,
};
`

const paramsSource = `struct PrimordialParams {
    particle_count: u32,
    wrap: u32,
    frame: u32,
    seed: u32,
    alpha: f32,
    beta: f32,
    velocity: f32,
    radius: f32,
    particle_size: f32,
    dt: f32,
    _pad0: u32,
    _pad1: u32,
    cursor: Cursor,
};

fn displacement(a: vec2<f32>, b: vec2<f32>, wrap: u32) -> vec2<f32> {
    if (wrap != 0u) {
        return torus_delta(a, b);
    }
    return b - a;
}
`

// Particle is one primordial particle. Size: 16 bytes.
type Particle struct {
	Pos     [2]float32
	Heading float32
	Density float32
}

// Size returns the byte size of Particle.
func (p Particle) Size() uint64 { return uint64(unsafe.Sizeof(p)) }

// Params is the PrimordialParams uniform. Size: 80 bytes.
type Params struct {
	ParticleCount uint32
	Wrap          uint32
	Frame         uint32
	Seed          uint32
	Alpha         float32 // radians
	Beta          float32 // radians
	Velocity      float32
	Radius        float32
	ParticleSize  float32
	Dt            float32
	_pad0         uint32
	_pad1         uint32
	Cursor        cursor.GPUCursor
}

// Size returns the byte size of Params.
func (p Params) Size() uint64 { return uint64(unsafe.Sizeof(p)) }

// Turn is the heading change for a particle with left and right neighbour counts, matching the
// update kernel: alpha + beta * N * sign(R - L).
//
// Parameters:
//   - alpha, beta: angles in radians
//   - left, right: neighbour counts on each side of the heading
//
// Returns:
//   - float32: the rotation in radians
func Turn(alpha, beta float32, left, right int) float32 {
	n := float32(left + right)
	var sign float32
	switch {
	case right > left:
		sign = 1
	case right < left:
		sign = -1
	}
	return alpha + beta*n*sign
}

// Side reports whether offset d lies to the right (true) of a particle facing heading.
func Side(heading float32, d [2]float32) bool {
	hx, hy := math.Cos(float64(heading)), math.Sin(float64(heading))
	return hx*float64(d[1])-hy*float64(d[0]) < 0
}
