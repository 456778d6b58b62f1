package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window.Title != "oxy-sim" {
		t.Errorf("title = %q", cfg.Window.Title)
	}
	if cfg.Kind() != simulation.KindSlime {
		t.Errorf("kind = %q", cfg.Kind())
	}
	if cfg.LUT.Default != lut.DefaultName {
		t.Errorf("lut default = %q, want %q", cfg.LUT.Default, lut.DefaultName)
	}
	if cfg.Engine.TickRate != 60 || cfg.Engine.TelemetryEvery != 30 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.yaml", "simulation:\n  kind: voronoi\nwindow:\n  width: 640\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Kind() != simulation.KindVoronoi {
		t.Errorf("kind = %q", cfg.Kind())
	}
	if cfg.Window.Width != 640 || cfg.Window.Height != 720 {
		t.Errorf("window = %+v", cfg.Window)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown kind":   "simulation:\n  kind: boids\n",
		"present mode":   "renderer:\n  present_mode: mailbox\n",
		"zero size":      "window:\n  width: 0\n",
		"malformed yaml": "window: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "c.yaml", body)
			if _, err := Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestInitAndCfg(t *testing.T) {
	global = nil
	defer func() { global = nil }()
	if err := Init(""); err != nil {
		t.Fatal(err)
	}
	if Cfg().Window.Width != 1280 {
		t.Errorf("width = %d", Cfg().Window.Width)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, _ := Load("")
	cfg.Simulation.Kind = "pellets"
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Kind() != simulation.KindPellets {
		t.Errorf("kind = %q", back.Kind())
	}
}

func TestParsePreset(t *testing.T) {
	doc := "kind: life\nsettings:\n  species_count: 4\n  force_matrix:\n    - [1, -1]\n    - [0.5, 0]\n"
	kind, data, err := ParsePreset([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if kind != simulation.KindLife {
		t.Errorf("kind = %q", kind)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("settings are not JSON: %v", err)
	}
	if got["species_count"].(float64) != 4 {
		t.Errorf("species_count = %v", got["species_count"])
	}
	if rows := got["force_matrix"].([]any); len(rows) != 2 {
		t.Errorf("force_matrix rows = %d", len(rows))
	}

	_, data, err = ParsePreset([]byte("kind: flow\n"))
	if err != nil || string(data) != "{}" {
		t.Errorf("empty settings: %s, %v", data, err)
	}
	if _, _, err := ParsePreset([]byte("kind: nope\n")); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestLoadPresetIoError(t *testing.T) {
	_, _, err := LoadPreset(filepath.Join(t.TempDir(), "none.yaml"))
	var ioErr *common.IoError
	if !errors.As(err, &ioErr) {
		t.Fatalf("got %T %v, want *common.IoError", err, err)
	}

	path := writeFile(t, t.TempDir(), "bad.yaml", "kind: [\n")
	if _, _, err := LoadPreset(path); !errors.As(err, &ioErr) {
		t.Errorf("parse failure: got %T, want *common.IoError", err)
	}
}

func TestSavePresetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	if err := SavePreset(path, simulation.KindVoronoi, []byte(`{"rulestring":"B36/S23","cell_count":100}`)); err != nil {
		t.Fatal(err)
	}
	kind, data, err := LoadPreset(path)
	if err != nil {
		t.Fatal(err)
	}
	if kind != simulation.KindVoronoi {
		t.Errorf("kind = %q", kind)
	}
	var got map[string]any
	_ = json.Unmarshal(data, &got)
	if got["rulestring"] != "B36/S23" {
		t.Errorf("rulestring = %v", got["rulestring"])
	}
}

func TestLoadPalettes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fire.yaml", "name: fire\nstops: ['#000000', '#ff0000', '#ffff00']\n")
	writeFile(t, dir, "ice.yml", "name: ice\nstops: ['#ffffff', '#0000ff']\n")
	writeFile(t, dir, "notes.txt", "ignored")

	m := lut.NewManager()
	names, err := LoadPalettes(dir, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "fire" || names[1] != "ice" {
		t.Fatalf("names = %v", names)
	}
	fire, err := m.Get("fire")
	if err != nil {
		t.Fatal(err)
	}
	tbl := fire.Table()
	if !nearRGBA(tbl[0], [4]uint8{0, 0, 0, 255}) || !nearRGBA(tbl[lut.Size-1], [4]uint8{255, 255, 0, 255}) {
		t.Errorf("fire endpoints = %v %v", tbl[0], tbl[lut.Size-1])
	}
}

// nearRGBA allows one step of Lab round-trip error per channel.
func nearRGBA(a, b [4]uint8) bool {
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < -1 || d > 1 {
			return false
		}
	}
	return true
}

func TestLoadPalettesRejectsBadFile(t *testing.T) {
	cases := map[string]string{
		"one stop": "name: x\nstops: ['#000000']\n",
		"no name":  "stops: ['#000000', '#ffffff']\n",
		"bad hex":  "name: x\nstops: ['#zz0000', '#ffffff']\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "p.yaml", body)
			var ioErr *common.IoError
			if _, err := LoadPalettes(dir, lut.NewManager()); !errors.As(err, &ioErr) {
				t.Errorf("got %v, want *common.IoError", err)
			}
		})
	}
	if names, err := LoadPalettes("", lut.NewManager()); names != nil || err != nil {
		t.Errorf("empty dir: %v %v", names, err)
	}
}
