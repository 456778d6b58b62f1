package grid

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

func TestNewParamsShape(t *testing.T) {
	tests := []struct {
		name     string
		cellSize float32
		wantDims uint32
	}{
		{"exact", 0.5, 4},
		{"partial last cell", 0.3, 7},
		{"whole world", 4, 1},
		{"capped", 0.0001, MaxDims},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParams(tt.cellSize, DefaultCapacity, 10, true)
			if p.Dims[0] != tt.wantDims || p.Dims[1] != tt.wantDims {
				t.Errorf("dims = %v, want %d", p.Dims, tt.wantDims)
			}
			if got := p.BufferSize(); got != uint64(p.Cells())*(1+DefaultCapacity)*4 {
				t.Errorf("buffer size = %d", got)
			}
		})
	}
}

func TestParamsLayout(t *testing.T) {
	if got := (Params{}).Size(); got != 32 {
		t.Errorf("Params size = %d, want 32", got)
	}
}

func TestCellCoordClampsEdges(t *testing.T) {
	p := NewParams(0.5, DefaultCapacity, 0, false)
	if x, y := p.CellCoord(-1, -1); x != 0 || y != 0 {
		t.Errorf("(-1,-1) -> (%d,%d)", x, y)
	}
	if x, y := p.CellCoord(1, 1); x != 3 || y != 3 {
		t.Errorf("(1,1) -> (%d,%d), want (3,3)", x, y)
	}
	if p.CellIndex(-1, 0) != -1 {
		t.Errorf("non-wrapping grid resolved an outside cell")
	}
	p.Wrap = 1
	if got := p.CellIndex(-1, 0); got != 3 {
		t.Errorf("wrapped (-1,0) = %d, want 3", got)
	}
}

func TestPopulateSoundness(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	positions := make([]common.Vec2, 5000)
	for i := range positions {
		positions[i] = common.Vec2{rng.Float32()*2 - 1, rng.Float32()*2 - 1}
	}
	// Pile extra particles into one cell to force overflow.
	for i := 0; i < 100; i++ {
		positions = append(positions, common.Vec2{0.01, 0.01})
	}

	g := NewCPUGrid(0.1, DefaultCapacity, true)
	g.Populate(positions)
	p := g.Params()

	inserted := make(map[int]uint32)
	for i, pos := range positions {
		cx, cy := p.CellCoord(pos[0], pos[1])
		cell := p.CellIndex(cx, cy)
		before := inserted[cell]
		inserted[cell]++
		if before < p.Capacity && !slices.Contains(g.Cell(cell), uint32(i)) {
			t.Fatalf("particle %d missing from cell %d with %d prior insertions", i, cell, before)
		}
	}

	stats := Overflow(g.Counts(), p.Capacity)
	if stats.Dropped != uint64(g.Dropped()) {
		t.Errorf("overflow dropped = %d, cpu dropped = %d", stats.Dropped, g.Dropped())
	}
	if stats.Dropped == 0 || stats.FullCells == 0 {
		t.Errorf("expected overflow, got %+v", stats)
	}
}

func TestNeighborsWrapAcrossEdge(t *testing.T) {
	g := NewCPUGrid(0.5, DefaultCapacity, true)
	g.Populate([]common.Vec2{{-0.99, 0}, {0.99, 0}, {0, 0}})
	var got []uint32
	g.Neighbors(-0.99, 0, func(i uint32) { got = append(got, i) })
	if !slices.Contains(got, 1) {
		t.Errorf("neighbour across the wrap edge not found: %v", got)
	}
	if slices.Contains(got, 2) {
		t.Errorf("distant particle reported as neighbour: %v", got)
	}
}

func TestNeighborsSingleCellVisitedOnce(t *testing.T) {
	g := NewCPUGrid(4, DefaultCapacity, true)
	g.Populate([]common.Vec2{{0, 0}})
	n := 0
	g.Neighbors(0, 0, func(uint32) { n++ })
	if n != 1 {
		t.Errorf("visited %d times, want 1", n)
	}
}

func TestDecodeCounts(t *testing.T) {
	raw := []byte{1, 0, 0, 0, 0, 1, 0, 0}
	got := DecodeCounts(raw)
	if !slices.Equal(got, []uint32{1, 256}) {
		t.Errorf("DecodeCounts = %v", got)
	}
}
