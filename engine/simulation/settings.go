package simulation

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"gopkg.in/yaml.v3"
)

// ApplyFunc routes one setting name into a settings value.
type ApplyFunc func(name string, v any) (Change, error)

// Merge returns the stronger of two changes.
func Merge(a, b Change) Change {
	return max(a, b)
}

// LoadDefaults decodes an embedded YAML settings document.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - T: the decoded settings
//   - error: a *common.InitializationFailedError when the document does not parse
func LoadDefaults[T any](data []byte) (T, error) {
	var s T
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, common.InitializationFailed("default settings", err)
	}
	return s, nil
}

// MustLoadDefaults is LoadDefaults for package-level defaults compiled into the binary.
func MustLoadDefaults[T any](data []byte) T {
	s, err := LoadDefaults[T](data)
	if err != nil {
		panic(err)
	}
	return s
}

// ApplyJSON applies every field of a JSON object through apply and returns the strongest change.
// Names listed in order go first (species_count before force_matrix); the rest follow
// alphabetically. The first error stops the walk.
//
// Parameters:
//   - data: JSON object
//   - order: names applied first, in this order
//   - apply: the router
//
// Returns:
//   - Change: the strongest change requested
//   - error: the first routing error
func ApplyJSON(data []byte, order []string, apply ApplyFunc) (Change, error) {
	values, err := DecodeSettings(data)
	if err != nil {
		return ChangeNone, err
	}
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	slices.SortFunc(names, func(a, b string) int {
		ia, ib := slices.Index(order, a), slices.Index(order, b)
		switch {
		case ia >= 0 && ib >= 0:
			return ia - ib
		case ia >= 0:
			return -1
		case ib >= 0:
			return 1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})

	change := ChangeNone
	for _, name := range names {
		c, err := apply(name, values[name])
		if err != nil {
			return ChangeNone, err
		}
		change = Merge(change, c)
	}
	return change, nil
}
