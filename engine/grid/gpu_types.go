package grid

import (
	"math"
	"unsafe"
)

// DefaultCapacity is the number of particle slots per cell.
const DefaultCapacity = 32

// MaxDims bounds the grid resolution per axis.
const MaxDims = 1024

// Params mirrors GridParams in the grid WGSL include.
type Params struct {
	Dims          [2]uint32
	Capacity      uint32
	ParticleCount uint32
	CellSize      float32
	Wrap          uint32
	_pad0         uint32
	_pad1         uint32
}

// Size returns the byte size of Params.
func (p Params) Size() uint64 {
	return uint64(unsafe.Sizeof(p))
}

// NewParams derives the grid shape for a cell size over [-1, 1]². Dimensions are ⌈2/c⌉ per
// axis; cell sizes too small for MaxDims are widened.
//
// Parameters:
//   - cellSize: requested cell side in world units
//   - capacity: slots per cell
//   - particleCount: particles inserted per step
//   - wrap: whether neighbour lookups wrap around the edges
//
// Returns:
//   - Params: the uniform contents
func NewParams(cellSize float32, capacity, particleCount uint32, wrap bool) Params {
	cellSize = max(cellSize, 2.0/MaxDims)
	d := uint32(math.Ceil(float64(2 / cellSize)))
	d = min(max(d, 1), MaxDims)
	p := Params{
		Dims:          [2]uint32{d, d},
		Capacity:      max(capacity, 1),
		ParticleCount: particleCount,
		CellSize:      cellSize,
	}
	if wrap {
		p.Wrap = 1
	}
	return p
}

// Cells returns the number of cells.
func (p Params) Cells() uint32 {
	return p.Dims[0] * p.Dims[1]
}

// BufferSize returns the byte size of the cell buffer: one counter per cell followed by
// Capacity indices per cell.
func (p Params) BufferSize() uint64 {
	cells := uint64(p.Cells())
	return (cells + cells*uint64(p.Capacity)) * 4
}

// CellCoord returns the cell holding pos, clamped to the grid.
//
// Parameters:
//   - x, y: world position
//
// Returns:
//   - int, int: cell column and row
func (p Params) CellCoord(x, y float32) (int, int) {
	hi := float64(p.Dims[0] - 1)
	cx := math.Floor(float64((x + 1) / p.CellSize))
	cy := math.Floor(float64((y + 1) / p.CellSize))
	return int(min(max(cx, 0), hi)), int(min(max(cy, 0), float64(p.Dims[1]-1)))
}

// CellIndex flattens a cell coordinate, wrapping when enabled. Returns -1 for a coordinate
// outside a non-wrapping grid.
func (p Params) CellIndex(cx, cy int) int {
	w, h := int(p.Dims[0]), int(p.Dims[1])
	if p.Wrap != 0 {
		cx = ((cx % w) + w) % w
		cy = ((cy % h) + h) % h
	} else if cx < 0 || cy < 0 || cx >= w || cy >= h {
		return -1
	}
	return cy*w + cx
}
