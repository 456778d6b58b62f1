package lut

import (
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

// Manager is the name → table registry. It is filled at startup and read-only afterwards.
type Manager struct {
	mu   sync.RWMutex
	luts map[string]*LUT
}

// NewManager creates a registry holding the built-in palettes.
func NewManager() *Manager {
	m := &Manager{luts: make(map[string]*LUT)}
	for name, hex := range builtinStops {
		stops, err := ParseStops(hex)
		if err != nil {
			log.Printf("[LUT] builtin %s: %v", name, err)
			continue
		}
		l, _ := FromStops(name, stops)
		m.luts[name] = l
	}
	m.luts["rainbow"] = rainbow()
	return m
}

// Register adds or replaces a table.
func (m *Manager) Register(l *LUT) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.luts[l.Name()] = l
}

// Get looks up a table by name.
//
// Parameters:
//   - name: the registry name
//
// Returns:
//   - *LUT: the table
//   - error: a *common.InvalidSettingError naming lut_name when absent
func (m *Manager) Get(name string) (*LUT, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.luts[name]
	if !ok {
		return nil, common.InvalidSetting("lut_name", "unknown color scheme %q", name)
	}
	return l, nil
}

// Resolve looks up a table and applies the reversed flag.
func (m *Manager) Resolve(name string, reversed bool) (*LUT, error) {
	l, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	if reversed {
		return l.Reversed(), nil
	}
	return l, nil
}

// Require is Get for bootstrap paths, where a missing table is an initialization failure.
func (m *Manager) Require(name string) (*LUT, error) {
	l, err := m.Get(name)
	if err != nil {
		return nil, common.InitializationFailed(fmt.Sprintf("lut %q not found", name), nil)
	}
	return l, nil
}

// Names returns the registered names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.luts))
	for name := range m.luts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Next returns the name after current in sorted order, wrapping around.
func (m *Manager) Next(current string) string {
	names := m.Names()
	if len(names) == 0 {
		return current
	}
	i := slices.Index(names, current)
	return names[(i+1)%len(names)]
}
