package generate

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"gonum.org/v1/gonum/mat"
)

func TestLayoutCenterDeterminism(t *testing.T) {
	const n, s = 1000, 4
	positions, types := Layout(PositionCenter, TypeRandom, n, s, NewRand(42))
	if len(positions) != n || len(types) != n {
		t.Fatalf("got %d positions, %d types", len(positions), len(types))
	}
	for i, p := range positions {
		if math.Hypot(float64(p[0]), float64(p[1])) > 0.01 {
			t.Fatalf("particle %d at %v is not within 0.01 of the origin", i, p)
		}
	}
	counts := make([]int, s)
	for _, ty := range types {
		counts[ty]++
	}
	for sp, c := range counts {
		if math.Abs(float64(c)-n/s) > 0.02*n {
			t.Errorf("species %d has %d particles, want %d ± 2%%", sp, c, n/s)
		}
	}

	again, againTypes := Layout(PositionCenter, TypeRandom, n, s, NewRand(42))
	for i := range positions {
		if positions[i] != again[i] || types[i] != againTypes[i] {
			t.Fatalf("same seed produced a different layout at %d", i)
		}
	}
}

func TestEveryLayoutInBounds(t *testing.T) {
	for _, pos := range AllPositions {
		for _, typ := range AllTypes {
			positions, types := Layout(pos, typ, 500, 6, NewRand(7))
			for i, p := range positions {
				if p[0] < -1 || p[0] > 1 || p[1] < -1 || p[1] > 1 {
					t.Fatalf("%s/%s: particle %d at %v", pos, typ, i, p)
				}
				if types[i] >= 6 {
					t.Fatalf("%s/%s: species %d out of range", pos, typ, types[i])
				}
			}
		}
	}
}

func TestParseFallbacks(t *testing.T) {
	if p, ok := ParsePosition("Spiral"); !ok || p != PositionSpiral {
		t.Errorf("ParsePosition(Spiral) = %v, %v", p, ok)
	}
	if p, ok := ParsePosition("spiral"); ok || p != PositionRandom {
		t.Errorf("enum names are case-sensitive; got %v, %v", p, ok)
	}
	if m, ok := ParseMatrix("Bogus"); ok || m != MatrixRandom {
		t.Errorf("ParseMatrix(Bogus) = %v, %v", m, ok)
	}
	if _, ok := ParseOperation("Transpose"); !ok {
		t.Errorf("Transpose rejected")
	}
}

func TestMatrixGeneratorRange(t *testing.T) {
	if len(AllMatrices) < 20 {
		t.Fatalf("only %d matrix patterns", len(AllMatrices))
	}
	for _, pattern := range AllMatrices {
		for _, s := range []int{1, 2, 5, 16} {
			m := ForceMatrix(pattern, s, NewRand(3))
			if !InRange(m) {
				t.Errorf("%s with %d species out of range:\n%v", pattern, s, mat.Formatted(m))
			}
		}
	}
	r := ForceMatrix(MatrixRandom, 8, NewRand(1))
	for i := 0; i < 8; i++ {
		if r.At(i, i) >= 0 {
			t.Errorf("diagonal %d = %v, want self-repulsion", i, r.At(i, i))
		}
	}
}

func TestRotateFourTimesIsIdentity(t *testing.T) {
	rng := NewRand(9)
	for _, s := range []int{1, 3, 4, 7} {
		m := ForceMatrix(MatrixRandom, s, rng)
		got := m
		for k := 0; k < 4; k++ {
			got = Apply(OpRotateClockwise, got, rng)
		}
		if !mat.Equal(got, m) {
			t.Errorf("S=%d: four clockwise rotations changed the matrix", s)
		}
		back := Apply(OpRotateCounterClockwise, Apply(OpRotateClockwise, m, rng), rng)
		if !mat.Equal(back, m) {
			t.Errorf("S=%d: counter-clockwise does not undo clockwise", s)
		}
	}
}

func TestOperations(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	rng := NewRand(1)
	tests := []struct {
		op   Operation
		want []float64
	}{
		{OpRotateClockwise, []float64{3, 1, 4, 2}},
		{OpFlipHorizontal, []float64{2, 1, 4, 3}},
		{OpFlipVertical, []float64{3, 4, 1, 2}},
		{OpTranspose, []float64{1, 3, 2, 4}},
		{OpNegate, []float64{-1, -2, -3, -4}},
		{OpSymmetrize, []float64{1, 2.5, 2.5, 4}},
		{OpZero, []float64{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		got := Apply(tt.op, m, rng)
		if !mat.Equal(got, mat.NewDense(2, 2, tt.want)) {
			t.Errorf("%s = %v, want %v", tt.op, got.RawMatrix().Data, tt.want)
		}
	}
	if m.At(0, 1) != 2 {
		t.Errorf("Apply modified its input")
	}
}

func TestResizeKeepsOverlap(t *testing.T) {
	m := ForceMatrix(MatrixChains, 3, NewRand(1))
	grown := Resize(m, 5, NewRand(2))
	if r, c := grown.Dims(); r != 5 || c != 5 {
		t.Fatalf("dims = %dx%d", r, c)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if grown.At(i, j) != m.At(i, j) {
				t.Errorf("entry (%d,%d) not kept", i, j)
			}
		}
	}
}

func TestFromRows(t *testing.T) {
	if _, ok := FromRows([][]float64{{1, 2}, {3}}); ok {
		t.Errorf("ragged rows accepted")
	}
	m, ok := FromRows([][]float64{{1, 2}, {3, 4}})
	if !ok || m.At(1, 0) != 3 {
		t.Errorf("FromRows = %v, %v", m, ok)
	}
	if got := Rows(m); got[0][1] != 2 {
		t.Errorf("Rows = %v", got)
	}
}

func TestParseRule(t *testing.T) {
	r, err := ParseRule("B3/S23")
	if err != nil {
		t.Fatalf("ParseRule: %v", err)
	}
	if r.Birth != 1<<3 || r.Survive != 1<<2|1<<3 {
		t.Errorf("rule = %+v", r)
	}
	if !r.Next(false, 3) || r.Next(false, 2) || !r.Next(true, 2) || r.Next(true, 4) {
		t.Errorf("Next disagrees with B3/S23")
	}
	if r.String() != "B3/S23" {
		t.Errorf("String = %q", r.String())
	}
	if r2, err := ParseRule("S32/B3"); err != nil || r2 != r {
		t.Errorf("reordered rule = %+v, %v", r2, err)
	}

	for _, bad := range []string{"", "B3", "B3/X23", "B3/S2a", "B3/B2", "/S23"} {
		_, err := ParseRule(bad)
		var inv *common.InvalidSettingError
		if !errors.As(err, &inv) || inv.Name != "rulestring" {
			t.Errorf("ParseRule(%q) error = %v", bad, err)
		}
	}
	if r, err := ParseRule("B/S"); err != nil || r != (Rule{}) {
		t.Errorf("empty digit lists = %+v, %v", r, err)
	}
}
