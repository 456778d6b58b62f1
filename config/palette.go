package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"gopkg.in/yaml.v3"
)

// Palette is a colour table file: a name and at least two hex stops, spread evenly.
type Palette struct {
	Name  string   `yaml:"name"`
	Stops []string `yaml:"stops"`
}

// ParsePalette decodes palette YAML into a 256-entry table.
//
// Parameters:
//   - data: the palette document
//
// Returns:
//   - *lut.LUT: the table
//   - error: a parse or stop error
func ParsePalette(data []byte) (*lut.LUT, error) {
	var p Palette
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing palette: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("palette has no name")
	}
	if len(p.Stops) < 2 {
		return nil, fmt.Errorf("palette %q needs at least two stops", p.Name)
	}
	stops, err := lut.ParseStops(p.Stops)
	if err != nil {
		return nil, fmt.Errorf("palette %q: %w", p.Name, err)
	}
	return lut.FromStops(p.Name, stops)
}

// LoadPalettes registers every *.yaml / *.yml palette in dir with m. A bad file fails the
// whole load so a typo is not silently skipped.
//
// Parameters:
//   - dir: the palette directory; empty is a no-op
//   - m: the registry to fill
//
// Returns:
//   - []string: the registered names, sorted
//   - error: a *common.IoError naming the failing file
func LoadPalettes(dir string, m *lut.Manager) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.IO(fmt.Sprintf("reading palette dir %s", dir), err)
	}

	var names []string
	for _, ent := range entries {
		ext := strings.ToLower(filepath.Ext(ent.Name()))
		if ent.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, common.IO(fmt.Sprintf("reading palette %s", path), err)
		}
		l, err := ParsePalette(data)
		if err != nil {
			return nil, common.IO(path, err)
		}
		m.Register(l)
		names = append(names, l.Name())
	}
	slices.Sort(names)
	log.Printf("[Config] registered %d palettes from %s", len(names), dir)
	return names, nil
}
