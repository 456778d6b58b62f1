package lut

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/lucasb-eyer/go-colorful"
)

func TestReversedRoundTrip(t *testing.T) {
	m := NewManager()
	for _, name := range m.Names() {
		l, _ := m.Get(name)
		twice := l.Reversed().Reversed()
		if twice.Table() != l.Table() {
			t.Errorf("%s: reversed twice differs from original", name)
		}
		if twice.IsReversed() {
			t.Errorf("%s: reversed flag not restored", name)
		}
		if l.Reversed().Table()[0] != l.Table()[Size-1] {
			t.Errorf("%s: reversed first entry is not original last entry", name)
		}
	}
}

func TestColorsPreserveEndpoints(t *testing.T) {
	l, err := FromStops("bw", []colorful.Color{{R: 0, G: 0, B: 0}, {R: 1, G: 1, B: 1}})
	if err != nil {
		t.Fatalf("FromStops: %v", err)
	}
	for _, k := range []int{2, 3, 5, 16, 256} {
		c := l.Colors(k)
		if len(c) != k {
			t.Fatalf("Colors(%d) returned %d", k, len(c))
		}
		if c[0] != l.At(0) || c[k-1] != l.At(1) {
			t.Errorf("Colors(%d) endpoints = %v .. %v", k, c[0], c[k-1])
		}
	}
	if got := l.Colors(0); got != nil {
		t.Errorf("Colors(0) = %v", got)
	}
}

func TestPackedLayout(t *testing.T) {
	var table [Size][4]uint8
	table[0] = [4]uint8{0x11, 0x22, 0x33, 0x44}
	packed := New("p", table).Packed()
	if packed[0] != 0x44332211 {
		t.Errorf("packed = %#x, want 0x44332211", packed[0])
	}
}

func TestFromStopsHitsStops(t *testing.T) {
	stops, _ := ParseStops([]string{"#ff0000", "#0000ff"})
	l, _ := FromStops("rb", stops)
	tab := l.Table()
	if tab[0] != [4]uint8{255, 0, 0, 255} || tab[Size-1] != [4]uint8{0, 0, 255, 255} {
		t.Errorf("endpoints = %v %v", tab[0], tab[Size-1])
	}
	if _, err := FromStops("none", nil); err == nil {
		t.Errorf("empty stops accepted")
	}
}

func TestManagerLookup(t *testing.T) {
	m := NewManager()
	if _, err := m.Get(DefaultName); err != nil {
		t.Fatalf("default palette missing: %v", err)
	}
	_, err := m.Get("nope")
	var inv *common.InvalidSettingError
	if !errors.As(err, &inv) || inv.Name != "lut_name" {
		t.Errorf("Get(nope) error = %v", err)
	}
	_, err = m.Require("nope")
	var initErr *common.InitializationFailedError
	if !errors.As(err, &initErr) {
		t.Errorf("Require(nope) error = %v", err)
	}

	r, _ := m.Resolve(DefaultName, true)
	if !r.IsReversed() {
		t.Errorf("Resolve did not reverse")
	}

	names := m.Names()
	if m.Next(names[len(names)-1]) != names[0] {
		t.Errorf("Next does not wrap")
	}
}

func TestSpeciesColorsDistinct(t *testing.T) {
	c := SpeciesColors(6)
	for i := 1; i < len(c); i++ {
		if c[i] == c[i-1] {
			t.Errorf("species %d and %d share a colour", i-1, i)
		}
	}
}
