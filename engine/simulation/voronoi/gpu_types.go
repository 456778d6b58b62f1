package voronoi

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
)

// wgslTypes is the "voronoi" include.
const wgslTypes = `struct VoronoiParams {
    cell_count: u32,
    birth: u32,
    survive: u32,
    map_size: u32,
    frame: u32,
    seed: u32,
    _pad0: u32,
    _pad1: u32,
    cursor: Cursor,
};
`

// Params is the VoronoiParams uniform. Size: 64 bytes.
type Params struct {
	CellCount uint32
	Birth     uint32
	Survive   uint32
	MapSize   uint32
	Frame     uint32
	Seed      uint32
	_pad0     uint32
	_pad1     uint32
	Cursor    cursor.GPUCursor
}

// Size returns the byte size of Params.
func (p Params) Size() uint64 { return uint64(unsafe.Sizeof(p)) }
