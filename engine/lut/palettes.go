package lut

import (
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultName is the palette every simulation starts with.
const DefaultName = "viridis"

// builtinStops are the stock palettes as hex stops.
var builtinStops = map[string][]string{
	"viridis":   {"#440154", "#482878", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"},
	"magma":     {"#000004", "#180f3d", "#440f76", "#721f81", "#9e2f7f", "#cd4071", "#f1605d", "#fd9668", "#feca8d", "#fcfdbf"},
	"inferno":   {"#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60", "#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4"},
	"plasma":    {"#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786", "#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921"},
	"ocean":     {"#000814", "#001d3d", "#003566", "#0077b6", "#00b4d8", "#90e0ef", "#caf0f8"},
	"fire":      {"#000000", "#3b0000", "#8b0000", "#d62d20", "#ff7f00", "#ffd700", "#ffffe0"},
	"ice":       {"#020024", "#0b2a4a", "#1f5f8b", "#5fa8d3", "#bde0fe", "#ffffff"},
	"grayscale": {"#000000", "#ffffff"},
	"forest":    {"#0b1d0e", "#1b4332", "#2d6a4f", "#52b788", "#b7e4c7", "#f1faee"},
}

// rainbow is generated in HSV rather than from stops.
func rainbow() *LUT {
	l := &LUT{name: "rainbow"}
	for i := range l.table {
		h := float64(i) / float64(Size) * 360
		r, g, b := colorful.Hsv(h, 0.85, 1).Clamped().RGB255()
		l.table[i] = [4]uint8{r, g, b, 255}
	}
	return l
}

// ParseStops converts hex strings to colours.
//
// Parameters:
//   - hex: colours like "#ff8800"
//
// Returns:
//   - []colorful.Color: the parsed colours
//   - error: the first parse failure
func ParseStops(hex []string) ([]colorful.Color, error) {
	out := make([]colorful.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// SpeciesColors returns k evenly spaced hues, used when a simulation colours by species
// without a palette.
func SpeciesColors(k int) [][4]float32 {
	out := make([][4]float32, k)
	for i := range out {
		c := colorful.Hsv(float64(i)/float64(max(k, 1))*360, 0.75, 0.95).Clamped()
		out[i] = [4]float32{float32(c.R), float32(c.G), float32(c.B), 1}
	}
	return out
}
