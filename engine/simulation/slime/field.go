package slime

import "math"

// Due reports whether a pass configured to run every frequency steps runs on step. Frequencies
// of 0 and 1 both mean every step.
func Due(frequency uint32, step uint64) bool {
	return frequency <= 1 || step%uint64(frequency) == 0
}

// Decay is the CPU reference of the trail-decay kernel.
func Decay(field []float32, rate float32) {
	keep := 1 - rate
	for i := range field {
		field[i] *= keep
	}
}

// Diffuse is the CPU reference of the trail-diffuse kernel: each texel moves toward the mean of
// its wrapped 3×3 neighbourhood by rate.
func Diffuse(field []float32, size int, rate float32) []float32 {
	out := make([]float32, len(field))
	for y := range size {
		for x := range size {
			var sum float32
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := (x+dx+size)%size, (y+dy+size)%size
					sum += field[ny*size+nx]
				}
			}
			c := field[y*size+x]
			out[y*size+x] = c + (sum/9-c)*rate
		}
	}
	return out
}

// Gradient is the CPU reference of the gradient kernel at world point (x, y). Values lie in [0, 1].
func Gradient(g GradientType, x, y float32) float32 {
	fx, fy := float64(x), float64(y)
	switch g {
	case GradientLinear:
		return (x + 1) / 2
	case GradientRadial:
		return float32(1 - math.Min(math.Hypot(fx, fy), 1))
	case GradientEllipse:
		return float32(1 - math.Min(math.Hypot(fx, 2*fy), 1))
	case GradientSpiral:
		a := math.Atan2(fy, fx)/(2*math.Pi) + math.Hypot(fx, fy)*2
		return float32(a - math.Floor(a))
	case GradientCheckerboard:
		cx := math.Floor((fx + 1) * 4)
		cy := math.Floor((fy + 1) * 4)
		return float32(math.Mod(cx+cy, 2))
	}
	return 0
}
