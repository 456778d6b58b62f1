package stage

import (
	"math"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

const (
	// MaxTextureSize caps each offscreen axis.
	MaxTextureSize = 8192

	minScale     = 1.0
	maxScale     = 8.0
	qualityBoost = 2.0

	hysteresisZoomedIn  = 0.05
	hysteresisZoomedOut = 0.15
)

// ScaleForZoom returns the offscreen resolution multiplier for a camera zoom before the texture
// size cap is applied. Zoomed out, the base is raised to 1 before the quality boost, which
// holds the scale at 2 for every zoom below 1 and keeps it from rising toward zoom 1.
//
// Parameters:
//   - zoom: camera zoom
//
// Returns:
//   - float32: the scale multiplier
func ScaleForZoom(zoom float32) float32 {
	var base float32
	if zoom >= 1 {
		base = min(zoom*0.8, 4)
	} else {
		base = common.Clamp(max(zoom*0.5+0.5, 0.5), minScale, maxScale)
	}
	return common.Clamp(base*qualityBoost, minScale, maxScale)
}

// Resolution returns the offscreen size for a surface and zoom. The scale is reduced so neither
// axis exceeds maxDim.
//
// Parameters:
//   - width, height: surface size in pixels
//   - zoom: camera zoom
//   - maxDim: largest allowed axis; 0 means MaxTextureSize
//
// Returns:
//   - uint32, uint32: offscreen width and height
//   - float32: the scale actually used
func Resolution(width, height int, zoom float32, maxDim uint32) (uint32, uint32, float32) {
	if maxDim == 0 || maxDim > MaxTextureSize {
		maxDim = MaxTextureSize
	}
	w, h := float32(max(width, 1)), float32(max(height, 1))
	s := ScaleForZoom(zoom)
	s = min(s, float32(maxDim)/w, float32(maxDim)/h)
	s = max(s, min(minScale, float32(maxDim)/w, float32(maxDim)/h))
	rw := uint32(math.Round(float64(w * s)))
	rh := uint32(math.Round(float64(h * s)))
	return min(max(rw, 1), maxDim), min(max(rh, 1), maxDim), s
}

// Adaptive holds the current offscreen resolution and applies hysteresis to zoom changes.
type Adaptive struct {
	scale         float32
	surfaceWidth  int
	surfaceHeight int
	width, height uint32
	maxDim        uint32
	valid         bool
}

// Update re-evaluates the resolution. A new size is reported only when the surface changed or the
// scale moved by more than the hysteresis band (0.05 at zoom ≥ 1, 0.15 below).
//
// Parameters:
//   - width, height: surface size in pixels
//   - zoom: camera zoom
//   - maxDim: device texture size limit
//
// Returns:
//   - uint32, uint32: the offscreen size to use
//   - bool: true when the size changed and targets must be reallocated
func (a *Adaptive) Update(width, height int, zoom float32, maxDim uint32) (uint32, uint32, bool) {
	rw, rh, s := Resolution(width, height, zoom, maxDim)
	if a.valid && width == a.surfaceWidth && height == a.surfaceHeight && maxDim == a.maxDim {
		band := float32(hysteresisZoomedOut)
		if zoom >= 1 {
			band = hysteresisZoomedIn
		}
		if float32(math.Abs(float64(s-a.scale))) <= band || (rw == a.width && rh == a.height) {
			return a.width, a.height, false
		}
	}
	a.scale, a.surfaceWidth, a.surfaceHeight, a.maxDim = s, width, height, maxDim
	a.width, a.height = rw, rh
	a.valid = true
	return rw, rh, true
}

// Size returns the current offscreen size.
func (a *Adaptive) Size() (uint32, uint32) {
	return a.width, a.height
}

// Scale returns the current scale.
func (a *Adaptive) Scale() float32 {
	return a.scale
}

// Invalidate forces the next Update to report a size.
func (a *Adaptive) Invalidate() {
	a.valid = false
}

// TileCount returns how many unit tiles per axis the compositor draws so the viewport stays
// covered at a zoom.
//
// Parameters:
//   - zoom: camera zoom
//
// Returns:
//   - uint32: tiles per axis, between the minimum and 1024
func TileCount(zoom float32) uint32 {
	pad, minTiles := 6, 5
	if zoom < 0.1 {
		pad, minTiles = 8, 7
	}
	visible := 2 / float64(max(zoom, 1e-6))
	t := int(math.Ceil(visible/2)) + pad
	return uint32(common.Clamp(t, minTiles, 1024))
}

// FadeAlpha converts trace_fade into the per-frame blend toward the background.
//
// Parameters:
//   - traceFade: persistence in [0, 1]; higher keeps trails longer
//
// Returns:
//   - float32: clamp((1-traceFade)²·0.3, 0.002, 0.3)
func FadeAlpha(traceFade float32) float32 {
	f := common.Clamp(traceFade, 0, 1)
	return common.Clamp((1-f)*(1-f)*0.3, 0.002, 0.3)
}
