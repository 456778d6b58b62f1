package grid

import "encoding/binary"

// OverflowStats summarizes per-cell counters read back from the GPU.
type OverflowStats struct {
	// Dropped is the number of insertions discarded by full cells.
	Dropped uint64
	// FullCells is the number of cells that reached capacity.
	FullCells uint32
	// MaxLoad is the largest per-cell counter.
	MaxLoad uint32
}

// Overflow computes drop statistics from per-cell counters.
//
// Parameters:
//   - counts: per-cell insertion counters
//   - capacity: slots per cell
//
// Returns:
//   - OverflowStats: the summary
func Overflow(counts []uint32, capacity uint32) OverflowStats {
	var s OverflowStats
	for _, c := range counts {
		s.MaxLoad = max(s.MaxLoad, c)
		if c >= capacity {
			s.FullCells++
			s.Dropped += uint64(c - capacity)
		}
	}
	return s
}

// DecodeCounts reads little-endian u32 counters from a readback.
func DecodeCounts(raw []byte) []uint32 {
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return out
}
