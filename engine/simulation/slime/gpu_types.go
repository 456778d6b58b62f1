package slime

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
)

// wgslTypes declares Agent and SlimeParams for every slime kernel, registered as the "slime"
// include. Layouts match Agent and Params below.
const wgslTypes = `struct Agent {
    pos: vec2<f32>,
    heading: f32,
    _pad: f32,
};

struct SlimeParams {
    agent_count: u32,
    map_size: u32,
    wrap: u32,
    frame: u32,
    speed: f32,
    sensor_angle: f32,
    sensor_distance: f32,
    turn_rate: f32,
    jitter: f32,
    deposition: f32,
    decay: f32,
    diffusion: f32,
    dt: f32,
    gradient_type: u32,
    gradient_strength: f32,
    seed: u32,
    cursor: Cursor,
};

fn field_index(p: vec2<f32>, size: u32) -> u32 {
    let uv = clamp((p + 1.0) * 0.5, vec2<f32>(0.0), vec2<f32>(0.999999));
    let c = vec2<u32>(uv * f32(size));
    return c.y * size + c.x;
}
`

// Agent is one slime agent. Size: 16 bytes.
type Agent struct {
	Pos     [2]float32
	Heading float32
	_pad    float32
}

// Size returns the byte size of Agent.
func (a Agent) Size() uint64 { return uint64(unsafe.Sizeof(a)) }

// Params is the SlimeParams uniform. Size: 96 bytes.
type Params struct {
	AgentCount       uint32
	MapSize          uint32
	Wrap             uint32
	Frame            uint32
	Speed            float32
	SensorAngle      float32 // radians
	SensorDistance   float32
	TurnRate         float32 // radians per second
	Jitter           float32
	Deposition       float32
	Decay            float32
	Diffusion        float32
	Dt               float32
	GradientType     uint32
	GradientStrength float32
	Seed             uint32
	Cursor           cursor.GPUCursor
}

// Size returns the byte size of Params.
func (p Params) Size() uint64 { return uint64(unsafe.Sizeof(p)) }
