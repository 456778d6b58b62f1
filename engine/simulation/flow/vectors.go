package flow

import (
	"math"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// VectorGridSize is the side of the flow vector grid.
const VectorGridSize = 128

// NoiseType selects the noise the flow vectors are derived from.
type NoiseType string

const (
	NoiseOpenSimplex NoiseType = "OpenSimplex"
	NoisePerlin      NoiseType = "Perlin"
)

// NoiseTypes lists every noise type.
var NoiseTypes = []NoiseType{NoiseOpenSimplex, NoisePerlin}

// noiseFunc returns a 2D noise in roughly [-1, 1] over the unit tile. OpenSimplex is sampled on a
// 4D torus so the field tiles without seams; Perlin is sampled directly.
func noiseFunc(t NoiseType, seed int64, scale float64) func(u, v float64) float64 {
	switch t {
	case NoisePerlin:
		p := perlin.NewPerlin(2, 2, 3, seed)
		return func(u, v float64) float64 {
			return p.Noise2D(u*scale, v*scale) * 2
		}
	default:
		n := opensimplex.New(seed)
		r := scale / (2 * math.Pi)
		return func(u, v float64) float64 {
			a, b := 2*math.Pi*u, 2*math.Pi*v
			return n.Eval4(r*math.Cos(a), r*math.Sin(a), r*math.Cos(b), r*math.Sin(b))
		}
	}
}

// Vectors builds the VectorGridSize² grid of unit flow directions. Row 0 is world y = -1.
//
// Parameters:
//   - t: the noise type
//   - seed: the noise seed
//   - scale: noise features per tile
//
// Returns:
//   - []common.Vec2: row-major unit vectors
func Vectors(t NoiseType, seed int64, scale float32) []common.Vec2 {
	noise := noiseFunc(t, seed, float64(scale))
	out := make([]common.Vec2, VectorGridSize*VectorGridSize)
	for y := range VectorGridSize {
		for x := range VectorGridSize {
			u := float64(x) / VectorGridSize
			v := float64(y) / VectorGridSize
			angle := noise(u, v) * 2 * math.Pi
			out[y*VectorGridSize+x] = common.Vec2{float32(math.Cos(angle)), float32(math.Sin(angle))}
		}
	}
	return out
}

// Sample bilinearly interpolates the grid at world point (x, y), wrapping at the tile edges.
// It mirrors the particle-update kernel.
func Sample(grid []common.Vec2, x, y float32) common.Vec2 {
	const n = VectorGridSize
	gx := (common.WrapUnit(x) + 1) / 2 * n
	gy := (common.WrapUnit(y) + 1) / 2 * n
	x0, y0 := int(math.Floor(float64(gx))), int(math.Floor(float64(gy)))
	fx, fy := gx-float32(x0), gy-float32(y0)
	at := func(i, j int) common.Vec2 {
		return grid[((j%n+n)%n)*n+(i%n+n)%n]
	}
	a, b, c, d := at(x0, y0), at(x0+1, y0), at(x0, y0+1), at(x0+1, y0+1)
	var out common.Vec2
	for k := range out {
		top := common.Lerp(a[k], b[k], fx)
		bottom := common.Lerp(c[k], d[k], fx)
		out[k] = common.Lerp(top, bottom, fy)
	}
	return out
}
