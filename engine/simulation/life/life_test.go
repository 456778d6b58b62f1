package life

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/grid"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/Carmen-Shannon/oxy-sim/engine/ring"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lucasb-eyer/go-colorful"
)

func TestGPULayouts(t *testing.T) {
	if got := (Particle{}).Size(); got != 32 {
		t.Errorf("Particle size = %d, want 32", got)
	}
	if got := (Params{}).Size(); got != 96 {
		t.Errorf("Params size = %d, want 96", got)
	}
}

func TestForceShape(t *testing.T) {
	const beta = 0.3
	if got := Force(0, 1, beta); got != -1 {
		t.Errorf("Force(0) = %v, want -1", got)
	}
	if got := Force(beta, 1, beta); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("Force(beta) = %v, want 0", got)
	}
	peak := float32((1 + beta) / 2)
	if got := Force(peak, 0.7, beta); math.Abs(float64(got-0.7)) > 1e-6 {
		t.Errorf("Force(peak) = %v, want 0.7", got)
	}
	if got := Force(peak, -0.5, beta); math.Abs(float64(got+0.5)) > 1e-6 {
		t.Errorf("Force(peak, repel) = %v, want -0.5", got)
	}
	for _, r := range []float32{1, 1.5} {
		if got := Force(r, 1, beta); got != 0 {
			t.Errorf("Force(%v) = %v, want 0", r, got)
		}
	}
}

func newSettings(t *testing.T) Settings {
	t.Helper()
	s := DefaultSettings()
	s.normalize(generate.NewRand(42))
	return s
}

func TestNormalizeGeneratesMatrix(t *testing.T) {
	s := newSettings(t)
	if len(s.ForceMatrix) != int(s.SpeciesCount) {
		t.Fatalf("matrix rows = %d, want %d", len(s.ForceMatrix), s.SpeciesCount)
	}
	if !generate.InRange(s.Matrix()) {
		t.Error("generated matrix out of range")
	}
}

func TestSpeciesCountResizesMatrix(t *testing.T) {
	s := newSettings(t)
	rng := generate.NewRand(1)
	change, err := s.apply("species_count", 9, rng)
	if err != nil {
		t.Fatal(err)
	}
	if change != simulation.ChangeRebuild {
		t.Errorf("change = %v, want rebuild", change)
	}
	if len(s.ForceMatrix) != 9 || len(s.ForceMatrix[0]) != 9 {
		t.Errorf("matrix is %dx%d, want 9x9", len(s.ForceMatrix), len(s.ForceMatrix[0]))
	}
	if _, err := s.apply("species_count", 40, rng); err != nil {
		t.Fatal(err)
	}
	if s.SpeciesCount != MaxSpecies {
		t.Errorf("species_count = %d, want clamp to %d", s.SpeciesCount, MaxSpecies)
	}
}

func TestForceMatrixMustMatchSpecies(t *testing.T) {
	s := newSettings(t)
	before := s.ForceMatrix
	_, err := s.apply("force_matrix", [][]float64{{0, 1}, {1, 0}}, generate.NewRand(1))
	var inv *common.InvalidSettingError
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want InvalidSettingError", err)
	}
	if len(s.ForceMatrix) != len(before) {
		t.Error("rejected matrix replaced the stored one")
	}
}

func TestMinDistanceMustStayBelowMax(t *testing.T) {
	s := newSettings(t)
	rng := generate.NewRand(1)
	before := s

	_, err := s.update("min_distance", 0.3, rng)
	var inv *common.InvalidSettingError
	if !errors.As(err, &inv) {
		t.Fatalf("min_distance above max_distance: err = %v, want InvalidSettingError", err)
	}
	if s.MinDistance != before.MinDistance || s.MaxDistance != before.MaxDistance {
		t.Errorf("rejected update changed distances to %v..%v", s.MinDistance, s.MaxDistance)
	}

	if _, err := s.update("max_distance", before.MinDistance, rng); !errors.As(err, &inv) {
		t.Errorf("max_distance equal to min_distance: err = %v, want InvalidSettingError", err)
	}
	if _, err := s.update("min_distance", 0.05, rng); err != nil {
		t.Fatalf("valid min_distance rejected: %v", err)
	}
	if s.MinDistance != 0.05 {
		t.Errorf("min_distance = %v, want 0.05", s.MinDistance)
	}
}

func TestDistanceBatchCheckedAfterApply(t *testing.T) {
	s := newSettings(t)
	rng := generate.NewRand(1)
	// max_distance sorts first and drops below the current min on its own.
	s.MinDistance = 0.1
	data := []byte(`{"min_distance": 0.02, "max_distance": 0.05}`)
	if _, err := simulation.ApplyJSON(data, applyOrder, func(name string, v any) (simulation.Change, error) {
		return s.apply(name, v, rng)
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.validate("min_distance"); err != nil {
		t.Errorf("consistent batch rejected: %v", err)
	}
	s.MinDistance = 0.06
	if err := s.validate("min_distance"); err == nil {
		t.Error("min_distance 0.06 with max_distance 0.05 accepted")
	}
}

func TestNormalizeAndRandomizeKeepDistanceOrder(t *testing.T) {
	s := DefaultSettings()
	s.MinDistance, s.MaxDistance = 0.3, 0.1
	s.normalize(generate.NewRand(1))
	if s.MinDistance >= s.MaxDistance {
		t.Errorf("normalize left min %v >= max %v", s.MinDistance, s.MaxDistance)
	}

	s.MinDistance = 0.2
	s.MaxDistance = MaxDistance
	rng := generate.NewRand(2)
	for i := 0; i < 50; i++ {
		s.randomize(rng)
		if s.MinDistance >= s.MaxDistance {
			t.Fatalf("randomize produced min %v >= max %v", s.MinDistance, s.MaxDistance)
		}
	}
}

func TestSpeciesColors(t *testing.T) {
	table, err := lut.FromStops("bw", []colorful.Color{{R: 0, G: 0, B: 0}, {R: 1, G: 1, B: 1}})
	if err != nil {
		t.Fatal(err)
	}
	s := newSettings(t)
	s.SpeciesCount = 4

	got := SpeciesColors(s, table)
	if len(got) != 4 {
		t.Fatalf("got %d colours, want 4", len(got))
	}
	if got[0] != table.Colors(4)[0] || got[3] != table.Colors(4)[3] {
		t.Errorf("table colours = %v, want endpoints of the table", got)
	}

	s.SpeciesHues = true
	hues := SpeciesColors(s, table)
	want := lut.SpeciesColors(4)
	for i := range want {
		if hues[i] != want[i] {
			t.Errorf("hue %d = %v, want %v", i, hues[i], want[i])
		}
	}

	s.SpeciesHues = false
	if nilTable := SpeciesColors(s, nil); nilTable[1] != want[1] {
		t.Errorf("no table: colour 1 = %v, want hue %v", nilTable[1], want[1])
	}
}

func TestSpeciesHuesSetting(t *testing.T) {
	s := newSettings(t)
	change, err := s.update("species_hues", true, generate.NewRand(1))
	if err != nil {
		t.Fatal(err)
	}
	if !s.SpeciesHues || change != simulation.ChangeUniform {
		t.Errorf("species_hues = %v, change %v", s.SpeciesHues, change)
	}
}

func TestForceMatrixClamped(t *testing.T) {
	s := newSettings(t)
	if _, err := s.apply("species_count", 2, generate.NewRand(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.apply("force_matrix", []any{[]any{3.0, -0.5}, []any{0.25, -9.0}}, generate.NewRand(1)); err != nil {
		t.Fatal(err)
	}
	want := [][]float32{{1, -0.5}, {0.25, -1}}
	for i := range want {
		for j := range want[i] {
			if s.ForceMatrix[i][j] != want[i][j] {
				t.Errorf("m[%d][%d] = %v, want %v", i, j, s.ForceMatrix[i][j], want[i][j])
			}
		}
	}
}

func TestMatrixOperation(t *testing.T) {
	s := newSettings(t)
	orig := s.Matrix()
	if _, err := s.apply("matrix_operation", "Negate", generate.NewRand(1)); err != nil {
		t.Fatal(err)
	}
	n := len(s.ForceMatrix)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if got, want := float64(s.ForceMatrix[i][j]), -orig.At(i, j); math.Abs(got-want) > 1e-6 {
				t.Fatalf("m[%d][%d] = %v, want %v", i, j, got, want)
			}
		}
	}
	if _, err := s.apply("matrix_operation", "Explode", generate.NewRand(1)); err == nil {
		t.Error("unknown operation accepted")
	}
}

func TestApplyJSONOrdersSpeciesFirst(t *testing.T) {
	s := newSettings(t)
	data := []byte(`{"force_matrix": [[0.5, 0.1, 0.2], [0, 0, 0], [-1, 1, 0]], "species_count": 3}`)
	rng := generate.NewRand(3)
	if _, err := simulation.ApplyJSON(data, applyOrder, func(name string, v any) (simulation.Change, error) {
		return s.apply(name, v, rng)
	}); err != nil {
		t.Fatal(err)
	}
	if s.SpeciesCount != 3 || s.ForceMatrix[2][0] != -1 {
		t.Errorf("settings = %d species, matrix %v", s.SpeciesCount, s.ForceMatrix)
	}
}

func TestUnknownSetting(t *testing.T) {
	s := newSettings(t)
	if _, err := s.apply("gravity", 1, generate.NewRand(1)); err == nil {
		t.Error("unknown setting accepted")
	}
}

func TestSettingsJSONRoundTrip(t *testing.T) {
	s := newSettings(t)
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var back Settings
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.SpeciesCount != s.SpeciesCount || len(back.ForceMatrix) != len(s.ForceMatrix) || back.MatrixGenerator != s.MatrixGenerator {
		t.Errorf("round trip = %+v", back)
	}
}

type limitAllocator struct {
	limit uint64
}

func (a *limitAllocator) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	if size > a.limit {
		return nil, &common.BufferTooLargeError{Requested: size, MaxAvailable: a.limit}
	}
	return &wgpu.Buffer{}, nil
}

func (a *limitAllocator) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {}

func (a *limitAllocator) ReleaseBuffer(buf *wgpu.Buffer) {}

type recordingGrid struct {
	current grid.Params
	fail    bool
	updates int
}

func (g *recordingGrid) Update(p grid.Params) (bool, error) {
	g.updates++
	if g.fail {
		return false, errors.New("out of memory")
	}
	g.current = p
	return true, nil
}

func TestResizeBuffersGridFailureKeepsRing(t *testing.T) {
	alloc := &limitAllocator{limit: 1 << 20}
	particles, err := ring.New(alloc, "particles", Particle{}.Size(), 100)
	if err != nil {
		t.Fatal(err)
	}
	prev := grid.NewParams(0.1, grid.DefaultCapacity, 100, true)
	next := grid.NewParams(0.1, grid.DefaultCapacity, 1000, true)
	g := &recordingGrid{current: prev, fail: true}

	if err := resizeBuffers(alloc, g, particles, prev, next, 1000); err == nil {
		t.Fatal("grid failure not reported")
	}
	if particles.Count() != 100 || particles.Capacity() != 100 {
		t.Errorf("ring = %d/%d after grid failure, want 100/100", particles.Count(), particles.Capacity())
	}
}

func TestResizeBuffersRingFailureRestoresGrid(t *testing.T) {
	alloc := &limitAllocator{limit: 100 * 32}
	particles, err := ring.New(alloc, "particles", Particle{}.Size(), 100)
	if err != nil {
		t.Fatal(err)
	}
	prev := grid.NewParams(0.1, grid.DefaultCapacity, 100, true)
	next := grid.NewParams(0.1, grid.DefaultCapacity, 1000, true)
	g := &recordingGrid{current: prev}

	err = resizeBuffers(alloc, g, particles, prev, next, 1000)
	var tooLarge *common.BufferTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("err = %v, want BufferTooLargeError", err)
	}
	if g.current != prev {
		t.Errorf("grid left at %+v, want previous shape", g.current)
	}
	if particles.Count() != 100 {
		t.Errorf("ring count = %d, want 100", particles.Count())
	}
}

func TestResizeBuffersGrows(t *testing.T) {
	alloc := &limitAllocator{limit: 1 << 20}
	particles, err := ring.New(alloc, "particles", Particle{}.Size(), 100)
	if err != nil {
		t.Fatal(err)
	}
	prev := grid.NewParams(0.1, grid.DefaultCapacity, 100, true)
	next := grid.NewParams(0.1, grid.DefaultCapacity, 1000, true)
	g := &recordingGrid{current: prev}

	if err := resizeBuffers(alloc, g, particles, prev, next, 1000); err != nil {
		t.Fatal(err)
	}
	if g.current != next || particles.Count() != 1000 {
		t.Errorf("grid %+v, ring count %d; want next shape and 1000", g.current, particles.Count())
	}
	if err := resizeBuffers(alloc, g, particles, next, next, 1000); err != nil || g.updates != 1 {
		t.Errorf("unchanged shape: err %v, %d grid updates, want nil and 1", err, g.updates)
	}
}
