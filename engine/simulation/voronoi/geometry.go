package voronoi

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/grid"
)

// Geometry is the fixed part of a Voronoi automaton: seed points, the texel-to-cell owner map
// and the cell adjacency graph in compressed sparse row form.
type Geometry struct {
	Seeds   []common.Vec2
	MapSize uint32
	// Owner holds the nearest seed for every texel, row-major.
	Owner []uint32
	// Offsets has len(Seeds)+1 entries; cell i's neighbours are Indices[Offsets[i]:Offsets[i+1]].
	Offsets []uint32
	Indices []uint32
}

// Neighbors returns the cells adjacent to cell i.
func (g *Geometry) Neighbors(i int) []uint32 {
	return g.Indices[g.Offsets[i]:g.Offsets[i+1]]
}

// NewGeometry scatters n seeds on the torus, rasterizes the owner map and derives adjacency
// from texels whose 4-neighbours belong to another cell.
//
// Parameters:
//   - n: cell count
//   - mapSize: owner map side in texels
//   - rng: the random source
//
// Returns:
//   - *Geometry: the geometry
func NewGeometry(n int, mapSize uint32, rng *rand.Rand) *Geometry {
	seeds := generate.Scatter(generate.PositionRandom, n, rng)
	return Build(seeds, mapSize)
}

// Build computes the owner map and adjacency for fixed seeds.
func Build(seeds []common.Vec2, mapSize uint32) *Geometry {
	g := &Geometry{Seeds: seeds, MapSize: mapSize, Owner: make([]uint32, mapSize*mapSize)}
	owner := newOwnerSearch(seeds)
	texel := 2 / float32(mapSize)
	for y := range mapSize {
		for x := range mapSize {
			px := -1 + (float32(x)+0.5)*texel
			py := -1 + (float32(y)+0.5)*texel
			g.Owner[y*mapSize+x] = owner.nearest(px, py)
		}
	}
	g.adjacency()
	return g
}

func (g *Geometry) adjacency() {
	n := len(g.Seeds)
	sets := make([]map[uint32]struct{}, n)
	for i := range sets {
		sets[i] = map[uint32]struct{}{}
	}
	size := g.MapSize
	link := func(a, b uint32) {
		if a != b {
			sets[a][b] = struct{}{}
			sets[b][a] = struct{}{}
		}
	}
	for y := range size {
		for x := range size {
			o := g.Owner[y*size+x]
			link(o, g.Owner[y*size+(x+1)%size])
			link(o, g.Owner[((y+1)%size)*size+x])
		}
	}
	g.Offsets = make([]uint32, n+1)
	g.Indices = g.Indices[:0]
	for i, set := range sets {
		start := len(g.Indices)
		for j := range set {
			g.Indices = append(g.Indices, j)
		}
		slices.Sort(g.Indices[start:])
		g.Offsets[i+1] = uint32(len(g.Indices))
	}
}

// ownerSearch finds the nearest seed on the torus through the CPU reference grid, falling back
// to a full scan when the nearest candidate is farther than one cell.
type ownerSearch struct {
	seeds []common.Vec2
	grid  *grid.CPUGrid
	reach float32
}

func newOwnerSearch(seeds []common.Vec2) *ownerSearch {
	// Cells tile the torus exactly, so the 3x3 block around a texel covers a full cell width
	// on every side, seam included.
	spacing := math.Sqrt(4/float64(max(len(seeds), 1))) * 1.5
	dims := math.Ceil(2 / min(max(spacing, 0.01), 2))
	cell := float32(2 / dims * (1 + 1e-6))
	g := grid.NewCPUGrid(cell, uint32(grid.DefaultCapacity), true)
	g.Populate(seeds)
	return &ownerSearch{seeds: seeds, grid: g, reach: g.Params().CellSize}
}

func torusDist2(a common.Vec2, x, y float32) float32 {
	dx := wrapDelta(a[0] - x)
	dy := wrapDelta(a[1] - y)
	return dx*dx + dy*dy
}

func wrapDelta(d float32) float32 {
	return d - 2*float32(math.Round(float64(d)/2))
}

func (s *ownerSearch) nearest(x, y float32) uint32 {
	best, bestD := uint32(0), float32(math.MaxFloat32)
	s.grid.Neighbors(x, y, func(i uint32) {
		if d := torusDist2(s.seeds[i], x, y); d < bestD || (d == bestD && i < best) {
			best, bestD = i, d
		}
	})
	if bestD <= s.reach*s.reach && s.grid.Dropped() == 0 {
		return best
	}
	best, bestD = 0, float32(math.MaxFloat32)
	for i, seed := range s.seeds {
		if d := torusDist2(seed, x, y); d < bestD {
			best, bestD = uint32(i), d
		}
	}
	return best
}

// Step is the CPU form of the rule kernel.
//
// Parameters:
//   - rule: birth and survive sets
//   - g: the geometry
//   - state: 1 for live cells, 0 for dead
//
// Returns:
//   - []uint32: the next state
func Step(rule generate.Rule, g *Geometry, state []uint32) []uint32 {
	next := make([]uint32, len(state))
	for i := range state {
		live := 0
		for _, j := range g.Neighbors(i) {
			if state[j] != 0 {
				live++
			}
		}
		if rule.Next(state[i] != 0, live) {
			next[i] = 1
		}
	}
	return next
}

// RandomState sets each cell alive with probability density.
func RandomState(n int, density float32, rng *rand.Rand) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		if rng.Float32() < density {
			out[i] = 1
		}
	}
	return out
}
