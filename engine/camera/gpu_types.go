package camera

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (96 bytes).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Size: 96 bytes.
type GPUCameraUniform struct {
	ViewProj [16]float32 // offset  0: world -> clip (mat4x4<f32>, column-major)
	Position [2]float32  // offset 64: camera centre in world units
	Zoom     float32     // offset 72
	Aspect   float32     // offset 76: viewport width / height
	Viewport [2]float32  // offset 80: surface size in pixels
	_pad     [2]float32  // offset 88
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: a copy of the struct bytes
func (g *GPUCameraUniform) Marshal() []byte {
	return append([]byte(nil), common.StructToBytes(g)...)
}
