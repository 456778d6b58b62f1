package simulation

import (
	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/Carmen-Shannon/oxy-sim/engine/stage"
)

// DisplaySettings are the persisted post-effect and background knobs every simulation carries.
type DisplaySettings struct {
	Brightness      float32    `json:"brightness" yaml:"brightness"`
	Contrast        float32    `json:"contrast" yaml:"contrast"`
	Saturation      float32    `json:"saturation" yaml:"saturation"`
	Gamma           float32    `json:"gamma" yaml:"gamma"`
	BackgroundColor [3]float32 `json:"background_color" yaml:"background_color"`

	// BackgroundFromLUT clears to the colour table's first entry instead of BackgroundColor.
	BackgroundFromLUT bool `json:"background_from_lut" yaml:"background_from_lut"`
}

// DefaultDisplaySettings is the identity post-effect over a black background.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{Brightness: 1, Contrast: 1, Saturation: 1, Gamma: 1}
}

// Post converts the settings to the post-effect uniform.
func (d DisplaySettings) Post() stage.PostParams {
	return stage.PostParams{
		Brightness: d.Brightness,
		Contrast:   d.Contrast,
		Saturation: d.Saturation,
		Gamma:      d.Gamma,
	}.Clamped()
}

// Background resolves the clear colour against the active colour table.
//
// Parameters:
//   - table: the colour table in use; nil falls back to BackgroundColor
//
// Returns:
//   - [3]float32: the RGB clear colour
func (d DisplaySettings) Background(table *lut.LUT) [3]float32 {
	if !d.BackgroundFromLUT || table == nil {
		return d.BackgroundColor
	}
	c := table.Background()
	return [3]float32{c[0], c[1], c[2]}
}

// Apply routes a display setting name.
//
// Parameters:
//   - name: the setting name
//   - v: the value
//
// Returns:
//   - bool: true if name is a display setting
//   - error: a coercion error; d is unchanged on error
func (d *DisplaySettings) Apply(name string, v any) (bool, error) {
	var err error
	var f float32
	switch name {
	case "brightness":
		if f, err = Clamped(name, v, 0, 4); err == nil {
			d.Brightness = f
		}
	case "contrast":
		if f, err = Clamped(name, v, 0, 4); err == nil {
			d.Contrast = f
		}
	case "saturation":
		if f, err = Clamped(name, v, 0, 4); err == nil {
			d.Saturation = f
		}
	case "gamma":
		if f, err = Clamped(name, v, 0.1, 4); err == nil {
			d.Gamma = f
		}
	case "background_color":
		var c [3]float32
		if c, err = Color(name, v); err == nil {
			d.BackgroundColor = c
		}
	case "background_from_lut":
		var b bool
		if b, err = Bool(name, v); err == nil {
			d.BackgroundFromLUT = b
		}
	default:
		return false, nil
	}
	return true, err
}

// Normalize clamps values loaded from presets or JSON.
func (d *DisplaySettings) Normalize() {
	p := d.Post()
	d.Brightness, d.Contrast, d.Saturation, d.Gamma = p.Brightness, p.Contrast, p.Saturation, p.Gamma
	for i := range d.BackgroundColor {
		d.BackgroundColor[i] = common.Clamp(d.BackgroundColor[i], 0, 1)
	}
}

// CommonState is the runtime state every simulation shares.
type CommonState struct {
	LUTName        string  `json:"lut_name"`
	LUTReversed    bool    `json:"lut_reversed"`
	TracesEnabled  bool    `json:"traces_enabled"`
	TraceFade      float32 `json:"trace_fade"`
	RandomSeed     uint64  `json:"random_seed"`
	CursorSize     float32 `json:"cursor_size"`
	CursorStrength float32 `json:"cursor_strength"`
}

// DefaultState returns the state a simulation starts with.
func DefaultState(lutName string) CommonState {
	return CommonState{
		LUTName:        lutName,
		TraceFade:      stage.DefaultDisplay.TraceFade,
		RandomSeed:     42,
		CursorSize:     0.1,
		CursorStrength: 1,
	}
}
