package simulation

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/lucasb-eyer/go-colorful"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("Slime"); err == nil {
		t.Error("kind names are case-sensitive")
	}
}

func TestFloatCoercion(t *testing.T) {
	cases := []struct {
		in      any
		want    float32
		wantErr bool
	}{
		{0.5, 0.5, false},
		{float32(2), 2, false},
		{3, 3, false},
		{json.Number("1.25"), 1.25, false},
		{"4", 4, false},
		{"four", 0, true},
		{true, 0, true},
		{[]any{1.0}, 0, true},
	}
	for _, c := range cases {
		got, err := Float("x", c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("Float(%v) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if !c.wantErr && got != c.want {
			t.Errorf("Float(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestClampedRejectsNonFinite(t *testing.T) {
	if got, err := Clamped("rate", 5.0, 0, 1); err != nil || got != 1 {
		t.Errorf("Clamped(5) = %v, %v; want 1", got, err)
	}
	_, err := Clamped("rate", json.Number("NaN"), 0, 1)
	var inv *common.InvalidSettingError
	if !errors.As(err, &inv) || inv.Name != "rate" {
		t.Errorf("NaN error = %v, want InvalidSetting for rate", err)
	}
}

func TestIntAndUint64(t *testing.T) {
	if n, err := ClampedInt("n", 2.6, 0, 10); err != nil || n != 3 {
		t.Errorf("ClampedInt(2.6) = %d, %v", n, err)
	}
	if n, err := ClampedInt("n", 50, 0, 10); err != nil || n != 10 {
		t.Errorf("ClampedInt(50) = %d, %v", n, err)
	}
	big := json.Number("18446744073709551615")
	if s, err := Uint64("seed", big); err != nil || s != 1<<64-1 {
		t.Errorf("Uint64(max) = %d, %v", s, err)
	}
	if _, err := Uint64("seed", -1.0); err == nil {
		t.Error("negative seed accepted")
	}
}

func TestBoolAndString(t *testing.T) {
	if b, err := Bool("b", "true"); err != nil || !b {
		t.Errorf("Bool(\"true\") = %v, %v", b, err)
	}
	if _, err := Bool("b", 1.0); err == nil {
		t.Error("number accepted as bool")
	}
	if _, err := String("s", 1.0); err == nil {
		t.Error("number accepted as string")
	}
}

type mode string

func TestEnumFallsBackOnUnknownString(t *testing.T) {
	valid := []mode{"A", "B"}
	if got, err := Enum("m", "B", valid, "A"); err != nil || got != "B" {
		t.Errorf("Enum(B) = %q, %v", got, err)
	}
	if got, err := Enum("m", "b", valid, "A"); err != nil || got != "A" {
		t.Errorf("Enum(b) = %q, %v; want fallback A", got, err)
	}
	if _, err := Enum("m", 2.0, valid, "A"); err == nil {
		t.Error("non-string enum accepted")
	}
}

func TestColor(t *testing.T) {
	c, err := Color("bg", []any{0.5, 2.0, -1.0})
	if err != nil {
		t.Fatal(err)
	}
	if c != [3]float32{0.5, 1, 0} {
		t.Errorf("Color = %v", c)
	}
	if _, err := Color("bg", []any{1.0, 1.0}); err == nil {
		t.Error("two channels accepted")
	}
	nan := float32(math.NaN())
	if _, err := Color("bg", [3]float32{0, nan, 0}); err == nil {
		t.Error("NaN channel accepted")
	}
}

func TestMatrix(t *testing.T) {
	m, err := Matrix("force_matrix", []any{[]any{0.1, -0.2}, []any{0.3, 0.4}})
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m[1][0] != float64(float32(0.3)) {
		t.Errorf("Matrix = %v", m)
	}
	if _, err := Matrix("force_matrix", []any{[]any{0.1, 0.2}}); err == nil {
		t.Error("non-square matrix accepted")
	}
	if _, err := Matrix("force_matrix", []any{}); err == nil {
		t.Error("empty matrix accepted")
	}
	if _, err := Matrix("force_matrix", [][]float64{{0, math.Inf(1)}, {0, 0}}); err == nil {
		t.Error("infinite entry accepted")
	}
}

func TestDisplaySettingsApply(t *testing.T) {
	d := DefaultDisplaySettings()
	if !d.Post().IsIdentity() {
		t.Fatal("default display is not identity")
	}
	handled, err := d.Apply("gamma", 0.0)
	if !handled || err != nil || d.Gamma != 0.1 {
		t.Errorf("gamma clamp: handled=%v err=%v gamma=%v", handled, err, d.Gamma)
	}
	before := d
	handled, err = d.Apply("contrast", "high")
	if !handled || err == nil || d != before {
		t.Error("bad contrast must be rejected without changing settings")
	}
	if handled, _ := d.Apply("particle_count", 10); handled {
		t.Error("display router claimed a simulation setting")
	}
}

func TestBackgroundFromLUT(t *testing.T) {
	table, err := lut.FromStops("navy", []colorful.Color{{R: 0, G: 0, B: 0.5}, {R: 1, G: 1, B: 1}})
	if err != nil {
		t.Fatal(err)
	}
	d := DefaultDisplaySettings()
	d.BackgroundColor = [3]float32{0.2, 0.2, 0.2}
	if got := d.Background(table); got != d.BackgroundColor {
		t.Errorf("background without flag = %v, want %v", got, d.BackgroundColor)
	}

	handled, err := d.Apply("background_from_lut", true)
	if !handled || err != nil || !d.BackgroundFromLUT {
		t.Fatalf("background_from_lut: handled=%v err=%v flag=%v", handled, err, d.BackgroundFromLUT)
	}
	want := table.Background()
	if got := d.Background(table); got != [3]float32{want[0], want[1], want[2]} {
		t.Errorf("background = %v, want table entry 0 %v", got, want)
	}
	if got := d.Background(table.Reversed()); got[2] <= 0.9 {
		t.Errorf("reversed table background = %v, want the white end", got)
	}
	if got := d.Background(nil); got != d.BackgroundColor {
		t.Errorf("nil table = %v, want fallback %v", got, d.BackgroundColor)
	}
}

func TestDecodeSettings(t *testing.T) {
	m, err := DecodeSettings([]byte(`{"a": 1, "b": "x", "c": [[1, 2], [3, 4]]}`))
	if err != nil {
		t.Fatal(err)
	}
	if m["a"] != 1.0 || m["b"] != "x" {
		t.Errorf("decoded %v", m)
	}
	if _, err := DecodeSettings([]byte(`[1]`)); err == nil {
		t.Error("array accepted as settings object")
	}
}

func TestUnknownName(t *testing.T) {
	var inv *common.InvalidSettingError
	if err := UnknownName("Slime", "nope"); !errors.As(err, &inv) || inv.Name != "nope" {
		t.Errorf("UnknownName = %v", err)
	}
}

func TestApplyJSONOrderAndMerge(t *testing.T) {
	var seen []string
	change, err := ApplyJSON([]byte(`{"z": 1, "a": 2, "count": 3}`), []string{"count"}, func(name string, v any) (Change, error) {
		seen = append(seen, name)
		if name == "count" {
			return ChangeRebuild, nil
		}
		return ChangeUniform, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if change != ChangeRebuild {
		t.Errorf("change = %v, want rebuild", change)
	}
	want := []string{"count", "a", "z"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("order = %v, want %v", seen, want)
		}
	}
}

func TestApplyJSONStopsOnError(t *testing.T) {
	_, err := ApplyJSON([]byte(`{"a": 1, "b": 2}`), nil, func(name string, v any) (Change, error) {
		if name == "a" {
			return ChangeNone, common.InvalidSetting(name, "bad")
		}
		t.Errorf("applied %q after an error", name)
		return ChangeNone, nil
	})
	if err == nil {
		t.Error("error not propagated")
	}
}

type yamlSettings struct {
	Count           uint32 `yaml:"count"`
	DisplaySettings `yaml:",inline"`
}

func TestLoadDefaultsInline(t *testing.T) {
	s, err := LoadDefaults[yamlSettings]([]byte("count: 7\ngamma: 2\nbackground_color: [0.1, 0.2, 0.3]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Count != 7 || s.Gamma != 2 || s.BackgroundColor[2] != 0.3 {
		t.Errorf("decoded %+v", s)
	}
	if _, err := LoadDefaults[yamlSettings]([]byte("count: [")); err == nil {
		t.Error("malformed yaml accepted")
	}
}
