package generate

import (
	"math"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

// CenterRadius bounds the Center layout.
const CenterRadius = 0.005

// Layout generates species and positions together. Type generators that read positions run
// after the positions; position generators that read species see a balanced provisional
// assignment first.
//
// Parameters:
//   - pos: the position generator
//   - typ: the type generator
//   - n: particle count
//   - species: species count, at least 1
//   - rng: the random source
//
// Returns:
//   - []common.Vec2: positions in [-1, 1]²
//   - []uint32: species per particle in [0, species)
func Layout(pos Position, typ Type, n, species int, rng *rand.Rand) ([]common.Vec2, []uint32) {
	species = max(species, 1)
	var types []uint32
	if typ.spatial() {
		provisional := Types(TypeRandom, nil, n, species, rng)
		positions := Positions(pos, provisional, species, rng)
		return positions, Types(typ, positions, n, species, rng)
	}
	types = Types(typ, nil, n, species, rng)
	return Positions(pos, types, species, rng), types
}

// Positions lays out len(types) points.
//
// Parameters:
//   - pos: the generator
//   - types: species per particle; only species-aware layouts read it
//   - species: species count
//   - rng: the random source
//
// Returns:
//   - []common.Vec2: positions in [-1, 1]²
func Positions(pos Position, types []uint32, species int, rng *rand.Rand) []common.Vec2 {
	n := len(types)
	out := make([]common.Vec2, n)
	s := float64(max(species, 1))
	for i := range out {
		u := rng.Float64()
		var x, y float64
		switch pos {
		case PositionCenter:
			x, y = disk(rng, CenterRadius)
		case PositionUniformCircle:
			x, y = disk(rng, 0.8)
		case PositionCenteredCircle:
			r := 0.4 * u
			a := rng.Float64() * 2 * math.Pi
			x, y = r*math.Cos(a), r*math.Sin(a)
		case PositionRing:
			r := 0.6 + (rng.Float64()-0.5)*0.04
			a := u * 2 * math.Pi
			x, y = r*math.Cos(a), r*math.Sin(a)
		case PositionRainbowRing:
			r := 0.6 + (rng.Float64()-0.5)*0.04
			a := (float64(types[i]) + u) / s * 2 * math.Pi
			x, y = r*math.Cos(a), r*math.Sin(a)
		case PositionColorBattle:
			a := float64(types[i]) / s * 2 * math.Pi
			bx, by := disk(rng, 0.15)
			x, y = 0.5*math.Cos(a)+bx, 0.5*math.Sin(a)+by
		case PositionColorWheel:
			r := 0.8 * math.Sqrt(rng.Float64())
			a := (float64(types[i]) + u) / s * 2 * math.Pi
			x, y = r*math.Cos(a), r*math.Sin(a)
		case PositionLine:
			x, y = u*1.8-0.9, (rng.Float64()-0.5)*0.02
		case PositionSpiral:
			x, y = spiral(u, rng)
		case PositionRainbowSpiral:
			x, y = spiral((float64(types[i])+u)/s, rng)
		default:
			x, y = u*2-1, rng.Float64()*2-1
		}
		out[i] = common.Vec2{float32(clampUnit(x)), float32(clampUnit(y))}
	}
	return out
}

func disk(rng *rand.Rand, radius float64) (float64, float64) {
	r := radius * math.Sqrt(rng.Float64())
	a := rng.Float64() * 2 * math.Pi
	return r * math.Cos(a), r * math.Sin(a)
}

// spiral places t in [0, 1] along a three-turn Archimedean spiral.
func spiral(t float64, rng *rand.Rand) (float64, float64) {
	r := 0.05 + 0.85*t
	a := t * 6 * math.Pi
	j := (rng.Float64() - 0.5) * 0.02
	return (r + j) * math.Cos(a), (r + j) * math.Sin(a)
}

func clampUnit(v float64) float64 {
	return math.Min(math.Max(v, -1), 1)
}

// Types assigns species to n particles.
//
// Parameters:
//   - typ: the generator
//   - positions: particle positions; required by the spatial generators
//   - n: particle count
//   - species: species count
//   - rng: the random source
//
// Returns:
//   - []uint32: species per particle
func Types(typ Type, positions []common.Vec2, n, species int, rng *rand.Rand) []uint32 {
	species = max(species, 1)
	out := make([]uint32, n)
	s := float64(species)
	bucket := func(f float64) uint32 {
		return uint32(min(max(int(f*s), 0), species-1))
	}
	switch {
	case typ == TypeLineByLine || typ == TypeRandomize10Percent:
		for i := range out {
			out[i] = uint32(i * species / max(n, 1))
		}
		if typ == TypeRandomize10Percent {
			for k := 0; k < n/10; k++ {
				out[rng.IntN(n)] = uint32(rng.IntN(species))
			}
		}
	case typ.spatial() && len(positions) == n:
		for i, p := range positions {
			x, y := float64(p[0]), float64(p[1])
			switch typ {
			case TypeSlices:
				out[i] = bucket((x + 1) / 2)
			case TypeOnion:
				out[i] = bucket(math.Hypot(x, y) / math.Sqrt2)
			case TypeStripes:
				out[i] = uint32(int((y+1)/2*s*3) % species)
			case TypeSpiral:
				a := (math.Atan2(y, x) + math.Pi) / (2 * math.Pi)
				out[i] = uint32(int((a+math.Hypot(x, y))*s) % species)
			}
		}
	default:
		// Balanced round-robin, shuffled, so every species gets n/S ± 1 particles.
		for i := range out {
			out[i] = uint32(i % species)
		}
		rng.Shuffle(n, func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

// Scatter lays out n single-species points.
func Scatter(pos Position, n int, rng *rand.Rand) []common.Vec2 {
	return Positions(pos, make([]uint32, n), 1, rng)
}
