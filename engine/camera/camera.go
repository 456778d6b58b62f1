package camera

import (
	"math"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MinZoom and MaxZoom bound every zoom operation.
	MinZoom float32 = 0.005
	MaxZoom float32 = 50.0

	// anchorEpsilon ends a zoom animation once the zoom is this close to its target.
	anchorEpsilon = 1e-4
)

type cameraImpl struct {
	position common.Vec2
	zoom     float32

	targetPosition common.Vec2
	targetZoom     float32

	viewport common.Vec2

	// smoothing is the exponential approach rate in 1/s. Zero snaps immediately.
	smoothing float32

	// anchor keeps the world point under the cursor fixed while a zoom animation runs.
	anchored     bool
	anchorWorld  common.Vec2
	anchorScreen common.Vec2
}

// Camera is the 2D pan/zoom camera over the infinitely tiled unit world.
//
// World space is [-1, 1]^2 with Y up; screen space is pixels with Y down. The mapping is
//
//	world = position + (screen - viewport/2) / (zoom * 0.5 * min(viewport))
//
// with the Y component negated. Camera methods never fail.
type Camera interface {
	// Position returns the current (smoothed) camera centre in world units.
	Position() common.Vec2

	// Zoom returns the current (smoothed) zoom factor.
	Zoom() float32

	// TargetZoom returns the zoom the camera is moving towards.
	TargetZoom() float32

	// Viewport returns the surface size in pixels.
	Viewport() common.Vec2

	// SetViewport updates the surface size used by the coordinate mapping and projection.
	//
	// Parameters:
	//   - width, height: surface size in pixels
	SetViewport(width, height float32)

	// Pan translates the camera by a screen-space drag of (dx, dy) pixels so the content
	// follows the pointer. The world distance is scaled by 1/zoom.
	//
	// Parameters:
	//   - dx, dy: pointer movement in pixels
	Pan(dx, dy float32)

	// ZoomBy zooms about the viewport centre.
	//
	// Parameters:
	//   - delta: relative zoom change; the zoom is multiplied by (1 + delta)
	ZoomBy(delta float32)

	// ZoomToCursor zooms while keeping the world point under (cx, cy) fixed on screen.
	//
	// Parameters:
	//   - delta: relative zoom change; the zoom is multiplied by (1 + delta)
	//   - cx, cy: cursor position in pixels
	ZoomToCursor(delta, cx, cy float32)

	// Reset returns to the origin at zoom 1 without animation.
	Reset()

	// Update advances smoothing by dt seconds.
	//
	// Parameters:
	//   - dt: frame time in seconds
	Update(dt float32)

	// ScreenToWorld maps a pixel position to world coordinates using the current state.
	//
	// Parameters:
	//   - sx, sy: pixel position (Y down)
	//
	// Returns:
	//   - common.Vec2: the world position (Y up), not wrapped onto the unit tile
	ScreenToWorld(sx, sy float32) common.Vec2

	// WorldToScreen is the inverse of ScreenToWorld.
	//
	// Parameters:
	//   - world: the world position
	//
	// Returns:
	//   - common.Vec2: pixel position (Y down)
	WorldToScreen(world common.Vec2) common.Vec2

	// ViewProjection returns the world-to-clip matrix for the current state.
	//
	// Returns:
	//   - mgl32.Mat4: the column-major view-projection matrix
	ViewProjection() mgl32.Mat4

	// Uniform builds the GPU camera block for the current state.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform ready for Marshal
	Uniform() GPUCameraUniform

	// State returns a serialisable snapshot of the camera.
	//
	// Returns:
	//   - State: position, zoom and viewport
	State() State
}

// State is the JSON view of a camera.
type State struct {
	Position   [2]float32 `json:"position"`
	Zoom       float32    `json:"zoom"`
	TargetZoom float32    `json:"target_zoom"`
	Viewport   [2]float32 `json:"viewport"`
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera at the origin with zoom 1 and applies the provided options.
//
// Parameters:
//   - options: functional options for camera configuration
//
// Returns:
//   - Camera: the configured camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		zoom:       1,
		targetZoom: 1,
		viewport:   common.Vec2{1280, 720},
		smoothing:  14,
	}
	for _, opt := range options {
		opt(c)
	}
	c.targetPosition = c.position
	c.targetZoom = c.zoom
	return c
}

func (c *cameraImpl) Position() common.Vec2 {
	return c.position
}

func (c *cameraImpl) Zoom() float32 {
	return c.zoom
}

func (c *cameraImpl) TargetZoom() float32 {
	return c.targetZoom
}

func (c *cameraImpl) Viewport() common.Vec2 {
	return c.viewport
}

func (c *cameraImpl) SetViewport(width, height float32) {
	c.viewport = common.Vec2{max(width, 1), max(height, 1)}
}

func (c *cameraImpl) Pan(dx, dy float32) {
	s := c.pixelsPerUnit(c.zoom)
	shift := common.Vec2{-dx / s, dy / s}
	c.position[0] += shift[0]
	c.position[1] += shift[1]
	c.targetPosition[0] += shift[0]
	c.targetPosition[1] += shift[1]
	c.anchored = false
}

func (c *cameraImpl) ZoomBy(delta float32) {
	c.ZoomToCursor(delta, c.viewport[0]*0.5, c.viewport[1]*0.5)
}

func (c *cameraImpl) ZoomToCursor(delta, cx, cy float32) {
	// The anchor comes from the current view so the point the user sees under the cursor stays put.
	world := c.ScreenToWorld(cx, cy)

	c.targetZoom = clampZoom(c.targetZoom * zoomFactor(delta))
	c.anchored = true
	c.anchorWorld = world
	c.anchorScreen = common.Vec2{cx, cy}
	c.targetPosition = c.positionForAnchor(c.targetZoom)

	if c.smoothing <= 0 {
		c.zoom = c.targetZoom
		c.position = c.targetPosition
		c.anchored = false
	}
}

func (c *cameraImpl) Reset() {
	c.position = common.Vec2{}
	c.targetPosition = common.Vec2{}
	c.zoom = 1
	c.targetZoom = 1
	c.anchored = false
}

func (c *cameraImpl) Update(dt float32) {
	if dt <= 0 {
		return
	}
	k := float32(1)
	if c.smoothing > 0 {
		k = 1 - float32(math.Exp(float64(-c.smoothing*dt)))
	}

	c.zoom = clampZoom(common.Lerp(c.zoom, c.targetZoom, k))
	if c.anchored {
		c.position = c.positionForAnchor(c.zoom)
		if abs(c.zoom-c.targetZoom) < anchorEpsilon*c.targetZoom {
			c.zoom = c.targetZoom
			c.position = c.targetPosition
			c.anchored = false
		}
		return
	}
	c.position[0] = common.Lerp(c.position[0], c.targetPosition[0], k)
	c.position[1] = common.Lerp(c.position[1], c.targetPosition[1], k)
}

func (c *cameraImpl) ScreenToWorld(sx, sy float32) common.Vec2 {
	return c.screenToWorld(c.position, c.zoom, sx, sy)
}

func (c *cameraImpl) WorldToScreen(world common.Vec2) common.Vec2 {
	s := c.pixelsPerUnit(c.zoom)
	return common.Vec2{
		(world[0]-c.position[0])*s + c.viewport[0]*0.5,
		-(world[1]-c.position[1])*s + c.viewport[1]*0.5,
	}
}

func (c *cameraImpl) ViewProjection() mgl32.Mat4 {
	m := c.zoom * min(c.viewport[0], c.viewport[1])
	scale := mgl32.Scale3D(m/c.viewport[0], m/c.viewport[1], 1)
	return scale.Mul4(mgl32.Translate3D(-c.position[0], -c.position[1], 0))
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj: c.ViewProjection(),
		Position: c.position,
		Zoom:     c.zoom,
		Aspect:   c.viewport[0] / c.viewport[1],
		Viewport: c.viewport,
	}
}

func (c *cameraImpl) State() State {
	return State{
		Position:   c.position,
		Zoom:       c.zoom,
		TargetZoom: c.targetZoom,
		Viewport:   c.viewport,
	}
}

// pixelsPerUnit is the screen scale for a world unit at the given zoom.
func (c *cameraImpl) pixelsPerUnit(zoom float32) float32 {
	return zoom * 0.5 * min(c.viewport[0], c.viewport[1])
}

func (c *cameraImpl) screenToWorld(position common.Vec2, zoom, sx, sy float32) common.Vec2 {
	s := c.pixelsPerUnit(zoom)
	return common.Vec2{
		position[0] + (sx-c.viewport[0]*0.5)/s,
		position[1] - (sy-c.viewport[1]*0.5)/s,
	}
}

// positionForAnchor solves for the centre that keeps anchorWorld under anchorScreen at zoom.
func (c *cameraImpl) positionForAnchor(zoom float32) common.Vec2 {
	s := c.pixelsPerUnit(zoom)
	return common.Vec2{
		c.anchorWorld[0] - (c.anchorScreen[0]-c.viewport[0]*0.5)/s,
		c.anchorWorld[1] + (c.anchorScreen[1]-c.viewport[1]*0.5)/s,
	}
}

func zoomFactor(delta float32) float32 {
	return max(1+delta, 0.05)
}

func clampZoom(z float32) float32 {
	return common.Clamp(z, MinZoom, MaxZoom)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
