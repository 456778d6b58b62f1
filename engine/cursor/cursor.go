// Package cursor tracks the world-space pointer used to push, pull, spawn or grab particles.
//
// Positions are wrapped onto the [-1, 1] tile rather than clamped to it: the world repeats, so
// a pointer over a neighbouring tile acts on the same particles as its image in the base tile.
package cursor

import (
	"math"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

// Mode is the active cursor action.
type Mode uint32

const (
	// Inactive means no button is held.
	Inactive Mode = iota
	// Primary is attract, spawn or grab depending on the simulation.
	Primary
	// Secondary is repel or destroy.
	Secondary
)

func (m Mode) String() string {
	switch m {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return "inactive"
	}
}

const (
	// velocityKeep is the weight of the previous velocity in the moving average.
	velocityKeep = 0.3
	// releaseDecay is the per-frame velocity factor while no button is held.
	releaseDecay = 0.95

	DefaultRadius   = 0.1
	DefaultStrength = 1.0
)

// ButtonMode maps a host button index to a mode. 0 is the primary action, 2 the secondary one;
// everything else is ignored.
func ButtonMode(button int) Mode {
	switch button {
	case 0:
		return Primary
	case 2:
		return Secondary
	default:
		return Inactive
	}
}

// Cursor is the pointer state of one simulation.
type Cursor struct {
	position common.Vec2
	velocity common.Vec2
	mode     Mode
	button   int
	tracking bool
	radius   float32
	strength float32
}

// State is the JSON form of a cursor.
type State struct {
	Position common.Vec2 `json:"position"`
	Velocity common.Vec2 `json:"velocity"`
	Mode     string      `json:"mode"`
	Radius   float32     `json:"radius"`
	Strength float32     `json:"strength"`
}

// New creates an inactive cursor with default radius and strength.
func New() *Cursor {
	return &Cursor{radius: DefaultRadius, strength: DefaultStrength}
}

// Press starts an action at a world point. Buttons other than 0 and 2 are ignored.
//
// Parameters:
//   - world: the world point under the pointer
//   - button: host button index
//   - dt: seconds since the previous pointer sample
//
// Returns:
//   - bool: true if the press changed the mode
func (c *Cursor) Press(world common.Vec2, button int, dt float32) bool {
	mode := ButtonMode(button)
	if mode == Inactive {
		return false
	}
	c.sample(world, dt)
	c.mode = mode
	c.button = button
	return true
}

// Move updates position and velocity. Moves before the first press only record the position.
//
// Parameters:
//   - world: the world point under the pointer
//   - dt: seconds since the previous pointer sample
func (c *Cursor) Move(world common.Vec2, dt float32) {
	c.sample(world, dt)
}

// Release ends the action started by button. Velocity is kept so a grab can be thrown; it then
// decays in Tick.
//
// Parameters:
//   - button: host button index
//
// Returns:
//   - bool: true if the release ended the active action
func (c *Cursor) Release(button int) bool {
	if c.mode == Inactive || button != c.button {
		return false
	}
	c.mode = Inactive
	return true
}

// Tick advances one frame: while inactive the velocity decays.
func (c *Cursor) Tick() {
	if c.mode != Inactive {
		return
	}
	c.velocity[0] *= releaseDecay
	c.velocity[1] *= releaseDecay
}

// sample wraps the point onto the unit tile and folds the displacement into the velocity
// average. Displacements use the shortest path on the torus so crossing a tile edge does not
// produce a spike.
func (c *Cursor) sample(world common.Vec2, dt float32) {
	p := common.Vec2{common.WrapUnit(world[0]), common.WrapUnit(world[1])}
	if c.tracking && dt > 0 {
		d := common.Vec2{torusDelta(c.position[0], p[0]), torusDelta(c.position[1], p[1])}
		c.velocity[0] = velocityKeep*c.velocity[0] + (1-velocityKeep)*d[0]/dt
		c.velocity[1] = velocityKeep*c.velocity[1] + (1-velocityKeep)*d[1]/dt
	}
	c.position = p
	c.tracking = true
}

func torusDelta(a, b float32) float32 {
	d := b - a
	return d - 2*float32(math.Round(float64(d/2)))
}

// Position returns the world point.
func (c *Cursor) Position() common.Vec2 { return c.position }

// Velocity returns the smoothed velocity in world units per second.
func (c *Cursor) Velocity() common.Vec2 { return c.velocity }

// Mode returns the active mode.
func (c *Cursor) Mode() Mode { return c.mode }

// Radius returns the influence radius in world units.
func (c *Cursor) Radius() float32 { return c.radius }

// Strength returns the force multiplier.
func (c *Cursor) Strength() float32 { return c.strength }

// SetRadius sets the influence radius, clamped to [0.001, 2].
func (c *Cursor) SetRadius(r float32) { c.radius = common.Clamp(r, 0.001, 2) }

// SetStrength sets the force multiplier, clamped to [0, 100].
func (c *Cursor) SetStrength(s float32) { c.strength = common.Clamp(s, 0, 100) }

// Reset clears the action and velocity but keeps radius and strength.
func (c *Cursor) Reset() {
	c.mode = Inactive
	c.velocity = common.Vec2{}
	c.tracking = false
}

// State returns the JSON form.
func (c *Cursor) State() State {
	return State{Position: c.position, Velocity: c.velocity, Mode: c.mode.String(), Radius: c.radius, Strength: c.strength}
}

// GPU returns the uniform form embedded in simulation parameter blocks.
func (c *Cursor) GPU() GPUCursor {
	return GPUCursor{
		Position: c.position,
		Velocity: c.velocity,
		Mode:     uint32(c.mode),
		Radius:   c.radius,
		Strength: c.strength,
	}
}
