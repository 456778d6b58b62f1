package stage

import "unsafe"

// FadeParams mirrors FadeParams in fade.wgsl.
type FadeParams struct {
	Background [4]float32
	FadeAlpha  float32
	_pad       [3]float32
}

// Size returns the byte size of FadeParams.
func (p FadeParams) Size() uint64 { return uint64(unsafe.Sizeof(p)) }

// PostParams mirrors PostParams in post.wgsl.
type PostParams struct {
	Brightness float32
	Contrast   float32
	Saturation float32
	Gamma      float32
}

// Size returns the byte size of PostParams.
func (p PostParams) Size() uint64 { return uint64(unsafe.Sizeof(p)) }

// CompositeParams mirrors CompositeParams in composite.wgsl.
type CompositeParams struct {
	Origin [2]float32
	Tiles  uint32
	Smooth uint32
}

// Size returns the byte size of CompositeParams.
func (p CompositeParams) Size() uint64 { return uint64(unsafe.Sizeof(p)) }
