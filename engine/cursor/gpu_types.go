package cursor

import (
	"unsafe"
)

// GPUCursorSource is the WGSL declaration matching GPUCursor, registered as the "cursor" include.
const GPUCursorSource = `struct Cursor {
    position: vec2<f32>,
    velocity: vec2<f32>,
    mode: u32,
    radius: f32,
    strength: f32,
    _pad: u32,
};

// Returns the displacement from p to the cursor on the torus and its falloff weight in [0, 1].
fn cursor_influence(c: Cursor, p: vec2<f32>) -> vec3<f32> {
    var d = c.position - p;
    d = d - 2.0 * round(d * 0.5);
    let r = length(d);
    if (c.mode == 0u || r >= c.radius || c.radius <= 0.0) {
        return vec3<f32>(d, 0.0);
    }
    return vec3<f32>(d, 1.0 - r / c.radius);
}
`

// GPUCursor is the cursor block embedded at the end of simulation parameter uniforms.
type GPUCursor struct {
	Position [2]float32
	Velocity [2]float32
	Mode     uint32
	Radius   float32
	Strength float32
	_pad     uint32
}

// Size returns the byte size of GPUCursor.
func (g GPUCursor) Size() uint64 {
	return uint64(unsafe.Sizeof(g))
}
