// Package lut holds 256-entry RGBA colour tables used to map scalar fields (density, species,
// speed) to colour, and the registry simulations look them up in.
package lut

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Size is the number of entries in every table.
const Size = 256

// LUT is an immutable named colour table.
type LUT struct {
	name     string
	reversed bool
	table    [Size][4]uint8
}

// New wraps a raw table.
//
// Parameters:
//   - name: the registry name
//   - table: RGBA8 entries, index 0 maps to t = 0
//
// Returns:
//   - *LUT: the table
func New(name string, table [Size][4]uint8) *LUT {
	return &LUT{name: name, table: table}
}

// FromStops builds a table by interpolating equally spaced colour stops in Lab space.
//
// Parameters:
//   - name: the registry name
//   - stops: at least one colour; a single stop yields a flat table
//
// Returns:
//   - *LUT: the table
//   - error: an error when stops is empty
func FromStops(name string, stops []colorful.Color) (*LUT, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("lut %s: no colour stops", name)
	}
	l := &LUT{name: name}
	for i := range l.table {
		t := float64(i) / float64(Size-1)
		c := sampleStops(stops, t)
		r, g, b := c.Clamped().RGB255()
		l.table[i] = [4]uint8{r, g, b, 255}
	}
	return l, nil
}

func sampleStops(stops []colorful.Color, t float64) colorful.Color {
	if len(stops) == 1 {
		return stops[0]
	}
	pos := t * float64(len(stops)-1)
	i := min(int(math.Floor(pos)), len(stops)-2)
	return stops[i].BlendLab(stops[i+1], pos-float64(i))
}

// Name returns the registry name.
func (l *LUT) Name() string {
	return l.name
}

// IsReversed reports whether the table is the reversed form of the registered one.
func (l *LUT) IsReversed() bool {
	return l.reversed
}

// Reversed returns the table with its entries in reverse order. Reversing twice yields a
// table byte-identical to the original.
func (l *LUT) Reversed() *LUT {
	out := &LUT{name: l.name, reversed: !l.reversed}
	for i := range l.table {
		out.table[i] = l.table[Size-1-i]
	}
	return out
}

// Table returns a copy of the raw entries.
func (l *LUT) Table() [Size][4]uint8 {
	return l.table
}

// At returns the entry for t in [0, 1] as normalized RGBA.
func (l *LUT) At(t float32) [4]float32 {
	i := int(math.Round(float64(min(max(t, 0), 1)) * (Size - 1)))
	return normalize(l.table[i])
}

// Colors returns k equidistant samples. The first and last sample are always the table's end
// entries.
//
// Parameters:
//   - k: number of colours
//
// Returns:
//   - [][4]float32: normalized RGBA colours
func (l *LUT) Colors(k int) [][4]float32 {
	if k <= 0 {
		return nil
	}
	out := make([][4]float32, k)
	if k == 1 {
		out[0] = normalize(l.table[0])
		return out
	}
	for i := range out {
		idx := (i*(Size-1) + (k-1)/2) / (k - 1)
		out[i] = normalize(l.table[idx])
	}
	return out
}

// Packed returns the table as r | g<<8 | b<<16 | a<<24 words, matching unpack4x8unorm.
func (l *LUT) Packed() [Size]uint32 {
	var out [Size]uint32
	for i, c := range l.table {
		out[i] = uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16 | uint32(c[3])<<24
	}
	return out
}

// Background returns the colour used to clear behind particles: the t = 0 entry.
func (l *LUT) Background() [4]float32 {
	return normalize(l.table[0])
}

func normalize(c [4]uint8) [4]float32 {
	return [4]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
}
