package camera

import "github.com/Carmen-Shannon/oxy-sim/common"

// CameraBuilderOption is a functional option for configuring a Camera.
type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the initial camera centre in world units.
//
// Parameters:
//   - x, y: world position
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithPosition(x, y float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = common.Vec2{x, y}
	}
}

// WithZoom sets the initial zoom, clamped to [MinZoom, MaxZoom].
//
// Parameters:
//   - zoom: the zoom factor
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithZoom(zoom float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.zoom = clampZoom(zoom)
	}
}

// WithViewport sets the initial surface size in pixels.
//
// Parameters:
//   - width, height: surface size
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithViewport(width, height float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.SetViewport(width, height)
	}
}

// WithSmoothing sets the exponential approach rate (1/s) for pan and zoom targets.
// Zero disables smoothing.
//
// Parameters:
//   - rate: approach rate per second
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithSmoothing(rate float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.smoothing = max(rate, 0)
	}
}
