package stage

import (
	"math"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

// IdentityPost leaves colours unchanged.
var IdentityPost = PostParams{Brightness: 1, Contrast: 1, Saturation: 1, Gamma: 1}

// IsIdentity reports whether the post pass would be a no-op and can be skipped.
func (p PostParams) IsIdentity() bool {
	return p == IdentityPost
}

// Clamped returns the parameters limited to the ranges the display settings accept.
func (p PostParams) Clamped() PostParams {
	return PostParams{
		Brightness: common.Clamp(p.Brightness, 0, 4),
		Contrast:   common.Clamp(p.Contrast, 0.01, 4),
		Saturation: common.Clamp(p.Saturation, 0, 4),
		Gamma:      common.Clamp(p.Gamma, 0.1, 4),
	}
}

// PostColor applies the post-effect to one RGB colour on the CPU, the same way post.wgsl does.
//
// Parameters:
//   - c: input colour in [0, 1]
//   - p: the post parameters
//
// Returns:
//   - [3]float32: the adjusted colour
func PostColor(c [3]float32, p PostParams) [3]float32 {
	var b [3]float32
	for i := range c {
		b[i] = c[i] * p.Brightness
	}
	gray := b[0]*0.299 + b[1]*0.587 + b[2]*0.114
	var out [3]float32
	for i := range b {
		s := common.Clamp(common.Lerp(gray, b[i], p.Saturation), 0, 1)
		v := math.Pow(math.Pow(float64(s), float64(p.Contrast)), 1/math.Max(float64(p.Gamma), 0.001))
		out[i] = float32(v)
	}
	return out
}
