package life

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
)

// particleSource is the "particle" include. The grid populate kernel reads pos from it.
const particleSource = `struct Particle {
    pos: vec2<f32>,
    vel: vec2<f32>,
    species: u32,
    density: f32,
    _pad0: u32,
    _pad1: u32,
};
`

// paramsSource is the "life" include.
const paramsSource = `struct LifeParams {
    particle_count: u32,
    species_count: u32,
    wrap: u32,
    frame: u32,
    max_distance: f32,
    min_distance: f32,
    beta: f32,
    friction: f32,
    force_scale: f32,
    repulsion: f32,
    brownian: f32,
    max_velocity: f32,
    particle_size: f32,
    dt: f32,
    seed: u32,
    _pad: u32,
    cursor: Cursor,
};

// Piecewise force on normalized distance r in [0, 1): linear repulsion below beta, then a tent
// peaking at attraction a halfway through the interaction zone.
fn life_force(r: f32, a: f32, beta: f32) -> f32 {
    if (r < beta) {
        return r / beta - 1.0;
    }
    if (r < 1.0) {
        return a * (1.0 - abs(2.0 * r - 1.0 - beta) / (1.0 - beta));
    }
    return 0.0;
}
`

// MaxMatrixEntries is the fixed size of the force matrix buffer.
const MaxMatrixEntries = MaxSpecies * MaxSpecies

// Particle is one particle life particle. Size: 32 bytes.
type Particle struct {
	Pos     [2]float32
	Vel     [2]float32
	Species uint32
	Density float32
	_pad0   uint32
	_pad1   uint32
}

// Size returns the byte size of Particle.
func (p Particle) Size() uint64 { return uint64(unsafe.Sizeof(p)) }

// Params is the LifeParams uniform. Size: 96 bytes.
type Params struct {
	ParticleCount uint32
	SpeciesCount  uint32
	Wrap          uint32
	Frame         uint32
	MaxDistance   float32
	MinDistance   float32
	Beta          float32
	Friction      float32
	ForceScale    float32
	Repulsion     float32
	Brownian      float32
	MaxVelocity   float32
	ParticleSize  float32
	Dt            float32
	Seed          uint32
	_pad          uint32
	Cursor        cursor.GPUCursor
}

// Size returns the byte size of Params.
func (p Params) Size() uint64 { return uint64(unsafe.Sizeof(p)) }

// Force is the CPU form of life_force.
//
// Parameters:
//   - r: distance divided by max_distance
//   - a: the matrix entry
//   - beta: the repulsion zone boundary
//
// Returns:
//   - float32: the signed force magnitude
func Force(r, a, beta float32) float32 {
	switch {
	case r < beta:
		return r/beta - 1
	case r < 1:
		d := 2*r - 1 - beta
		if d < 0 {
			d = -d
		}
		return a * (1 - d/(1-beta))
	}
	return 0
}

// SpeciesColors returns one RGBA colour per species: equidistant samples of table, or evenly
// spaced hues when species_hues is set or no table is bound.
//
// Parameters:
//   - s: the settings supplying species_count and species_hues
//   - table: the active colour table
//
// Returns:
//   - [][4]float32: species_count colours, laid out as the species_colors storage array
func SpeciesColors(s Settings, table *lut.LUT) [][4]float32 {
	k := int(s.SpeciesCount)
	if s.SpeciesHues || table == nil {
		return lut.SpeciesColors(k)
	}
	return table.Colors(k)
}
