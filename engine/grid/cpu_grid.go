package grid

import "github.com/Carmen-Shannon/oxy-sim/common"

// CPUGrid is the host-side counterpart of the GPU grid with the same insertion rule. It backs
// neighbour queries the runtime does on the CPU (Voronoi seeds) and serves as the reference the
// kernels are checked against.
type CPUGrid struct {
	params  Params
	counts  []uint32
	slots   []uint32
	dropped int
}

// NewCPUGrid creates an empty grid.
//
// Parameters:
//   - cellSize: cell side in world units
//   - capacity: slots per cell
//   - wrap: whether neighbour scans wrap
//
// Returns:
//   - *CPUGrid: the grid
func NewCPUGrid(cellSize float32, capacity uint32, wrap bool) *CPUGrid {
	p := NewParams(cellSize, capacity, 0, wrap)
	return &CPUGrid{
		params: p,
		counts: make([]uint32, p.Cells()),
		slots:  make([]uint32, p.Cells()*p.Capacity),
	}
}

// Params returns the grid shape.
func (g *CPUGrid) Params() Params {
	return g.params
}

// Populate clears the grid and inserts every position in index order. Insertions into a full
// cell are dropped and counted.
//
// Parameters:
//   - positions: particle positions
func (g *CPUGrid) Populate(positions []common.Vec2) {
	clear(g.counts)
	g.dropped = 0
	g.params.ParticleCount = uint32(len(positions))
	for i, pos := range positions {
		cx, cy := g.params.CellCoord(pos[0], pos[1])
		cell := g.params.CellIndex(cx, cy)
		slot := g.counts[cell]
		g.counts[cell]++
		if slot < g.params.Capacity {
			g.slots[uint32(cell)*g.params.Capacity+slot] = uint32(i)
		} else {
			g.dropped++
		}
	}
}

// Cell returns the indices stored in a cell.
func (g *CPUGrid) Cell(cell int) []uint32 {
	n := min(g.counts[cell], g.params.Capacity)
	start := uint32(cell) * g.params.Capacity
	return g.slots[start : start+n]
}

// Counts returns the raw per-cell counters, including dropped insertions.
func (g *CPUGrid) Counts() []uint32 {
	return g.counts
}

// Dropped returns how many insertions the last Populate discarded.
func (g *CPUGrid) Dropped() int {
	return g.dropped
}

// Neighbors calls fn for every stored index in the cell containing (x, y) and its 8 neighbours.
// Wrapped neighbours that resolve to the same cell are visited once.
//
// Parameters:
//   - x, y: query position
//   - fn: receives each candidate index
func (g *CPUGrid) Neighbors(x, y float32, fn func(i uint32)) {
	cx, cy := g.params.CellCoord(x, y)
	var visited [9]int
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			cell := g.params.CellIndex(cx+dx, cy+dy)
			if cell < 0 || containsCell(visited[:n], cell) {
				continue
			}
			visited[n] = cell
			n++
			for _, i := range g.Cell(cell) {
				fn(i)
			}
		}
	}
}

func containsCell(cells []int, cell int) bool {
	for _, c := range cells {
		if c == cell {
			return true
		}
	}
	return false
}
