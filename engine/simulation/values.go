package simulation

import (
	"encoding/json"
	"log"
	"math"
	"slices"
	"strconv"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

// Float coerces a setting value to float32. Numbers, numeric strings and json.Number are
// accepted; NaN and infinities are rejected.
func Float(name string, v any) (float32, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, common.InvalidSetting(name, "%q is not a number", x)
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, common.InvalidSetting(name, "%q is not a number", x)
		}
		f = p
	default:
		return 0, common.InvalidSetting(name, "expected a number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, common.InvalidSetting(name, "%v cannot be clamped into range", f)
	}
	return float32(f), nil
}

// Clamped coerces a number and clamps it to [lo, hi].
func Clamped(name string, v any, lo, hi float32) (float32, error) {
	f, err := Float(name, v)
	if err != nil {
		return 0, err
	}
	return common.Clamp(f, lo, hi), nil
}

// Int coerces an integral number. Fractional values are rounded.
func Int(name string, v any) (int, error) {
	f, err := Float(name, v)
	if err != nil {
		return 0, err
	}
	return int(math.Round(float64(f))), nil
}

// ClampedInt coerces an integer and clamps it to [lo, hi].
func ClampedInt(name string, v any, lo, hi int) (int, error) {
	n, err := Int(name, v)
	if err != nil {
		return 0, err
	}
	return common.Clamp(n, lo, hi), nil
}

// Uint64 coerces a non-negative integer such as a seed without float rounding.
func Uint64(name string, v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case json.Number:
		if n, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return n, nil
		}
	case string:
		if n, err := strconv.ParseUint(x, 10, 64); err == nil {
			return n, nil
		}
		return 0, common.InvalidSetting(name, "%q is not a non-negative integer", x)
	}
	f, err := Float(name, v)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, common.InvalidSetting(name, "%v is negative", f)
	}
	return uint64(f), nil
}

// Bool coerces a bool or "true"/"false".
func Bool(name string, v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, common.InvalidSetting(name, "%q is not a bool", x)
		}
		return b, nil
	}
	return false, common.InvalidSetting(name, "expected a bool, got %T", v)
}

// String requires a string.
func String(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", common.InvalidSetting(name, "expected a string, got %T", v)
	}
	return s, nil
}

// Enum resolves a case-sensitive enum name. Unknown names fall back to the default; values that
// are not strings are rejected.
//
// Parameters:
//   - name: the setting name
//   - v: the value
//   - valid: the accepted names
//   - fallback: the documented default
//
// Returns:
//   - T: the enum value
//   - error: a *common.InvalidSettingError when v is not a string
func Enum[T ~string](name string, v any, valid []T, fallback T) (T, error) {
	s, err := String(name, v)
	if err != nil {
		return fallback, err
	}
	if !slices.Contains(valid, T(s)) {
		log.Printf("[Simulation] %s: unknown value %q, using %q", name, s, fallback)
		return fallback, nil
	}
	return T(s), nil
}

// Color coerces a three-element array of channel values in [0, 1].
func Color(name string, v any) ([3]float32, error) {
	var out [3]float32
	switch x := v.(type) {
	case [3]float32:
		out = x
	case []float32:
		if len(x) != 3 {
			return out, common.InvalidSetting(name, "expected 3 channels, got %d", len(x))
		}
		copy(out[:], x)
	case []float64:
		if len(x) != 3 {
			return out, common.InvalidSetting(name, "expected 3 channels, got %d", len(x))
		}
		for i := range out {
			out[i] = float32(x[i])
		}
	case []any:
		if len(x) != 3 {
			return out, common.InvalidSetting(name, "expected 3 channels, got %d", len(x))
		}
		for i, c := range x {
			f, err := Float(name, c)
			if err != nil {
				return out, err
			}
			out[i] = f
		}
	default:
		return out, common.InvalidSetting(name, "expected [r, g, b], got %T", v)
	}
	for i := range out {
		if !common.IsFinite(out[i]) {
			return out, common.InvalidSetting(name, "channel %d is not finite", i)
		}
		out[i] = common.Clamp(out[i], 0, 1)
	}
	return out, nil
}

// Matrix coerces a square nested array.
func Matrix(name string, v any) ([][]float64, error) {
	var rows [][]float64
	switch x := v.(type) {
	case [][]float64:
		rows = x
	case [][]float32:
		for _, r := range x {
			row := make([]float64, len(r))
			for j, f := range r {
				row[j] = float64(f)
			}
			rows = append(rows, row)
		}
	case []any:
		for _, r := range x {
			cells, ok := r.([]any)
			if !ok {
				return nil, common.InvalidSetting(name, "expected rows of numbers, got %T", r)
			}
			row := make([]float64, len(cells))
			for j, c := range cells {
				f, err := Float(name, c)
				if err != nil {
					return nil, err
				}
				row[j] = float64(f)
			}
			rows = append(rows, row)
		}
	default:
		return nil, common.InvalidSetting(name, "expected a square array, got %T", v)
	}
	for _, r := range rows {
		if len(r) != len(rows) {
			return nil, common.InvalidSetting(name, "matrix must be %dx%d", len(rows), len(rows))
		}
		for _, f := range r {
			if !common.IsFinite(float32(f)) {
				return nil, common.InvalidSetting(name, "matrix entries must be finite")
			}
		}
	}
	if len(rows) == 0 {
		return nil, common.InvalidSetting(name, "matrix is empty")
	}
	return rows, nil
}

// DecodeSettings parses a JSON object into name → value pairs, preserving integer precision.
func DecodeSettings(data []byte) (map[string]any, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, common.InvalidSetting("settings", "invalid JSON: %v", err)
	}
	out := make(map[string]any, len(raw))
	for k, msg := range raw {
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil, common.InvalidSetting(k, "invalid JSON: %v", err)
		}
		out[k] = v
	}
	return out, nil
}
