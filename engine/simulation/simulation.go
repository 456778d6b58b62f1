// Package simulation defines the contract every simulation implements and the state they share:
// camera, cursor, stage, colour table and the common settings and state names.
package simulation

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/camera"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/cogentcore/webgpu/wgpu"
)

// Kind names a simulation variant. The set is closed; the host switches over it exhaustively.
type Kind string

const (
	KindSlime      Kind = "slime"
	KindFlow       Kind = "flow"
	KindLife       Kind = "life"
	KindPellets    Kind = "pellets"
	KindPrimordial Kind = "primordial"
	KindVoronoi    Kind = "voronoi"
)

// Kinds lists every variant in the order the host's number keys select them.
var Kinds = []Kind{KindSlime, KindFlow, KindLife, KindPellets, KindPrimordial, KindVoronoi}

// ParseKind validates a simulation name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(Kinds, k) {
		return "", fmt.Errorf("unknown simulation %q", s)
	}
	return k, nil
}

// Stats is the per-frame telemetry a simulation reports.
type Stats struct {
	Particles       uint32
	OffscreenWidth  uint32
	OffscreenHeight uint32
	Tiles           uint32
	GridOverflow    uint64
}

// Change classifies what a settings or state update requires.
type Change int

const (
	// ChangeNone needs nothing beyond the CPU-side value.
	ChangeNone Change = iota
	// ChangeUniform needs a uniform block rewrite.
	ChangeUniform
	// ChangeReseed needs particle state regenerated into the existing buffers.
	ChangeReseed
	// ChangeRebuild needs buffers or bind groups recreated, then a reseed.
	ChangeRebuild
)

// Simulation is the contract between the host loop and one running simulation. All methods are
// called from the render goroutine only.
type Simulation interface {
	// Kind returns the variant.
	Kind() Kind

	// RenderFrame advances one step by dt seconds and composites into surface.
	//
	// Parameters:
	//   - surface: the frame's surface view
	//   - dt: elapsed seconds
	//
	// Returns:
	//   - error: a *common.GpuError or allocation error; the simulation stays renderable
	RenderFrame(surface *wgpu.TextureView, dt float32) error

	// RenderFramePaused composites without stepping. Colour-dependent passes still run.
	//
	// Parameters:
	//   - surface: the frame's surface view
	//
	// Returns:
	//   - error: as RenderFrame
	RenderFramePaused(surface *wgpu.TextureView) error

	// Resize adapts to a new surface configuration.
	//
	// Parameters:
	//   - cfg: the new surface
	//
	// Returns:
	//   - error: a target allocation error
	Resize(cfg common.SurfaceConfig) error

	// UpdateSetting changes one persisted setting.
	//
	// Parameters:
	//   - name: the setting name
	//   - value: a string, number, bool or array (force matrices, colours)
	//
	// Returns:
	//   - error: *common.InvalidSettingError for unknown names or unusable values,
	//     *common.BufferTooLargeError when a count cannot be allocated
	UpdateSetting(name string, value any) error

	// UpdateState changes one runtime state value (colour scheme, traces, seed, cursor).
	//
	// Parameters:
	//   - name: the state name
	//   - value: the new value
	//
	// Returns:
	//   - error: *common.InvalidSettingError for unknown names or unusable values
	UpdateState(name string, value any) error

	// HandleMouseInteraction presses or drags with button at a world point.
	HandleMouseInteraction(worldX, worldY float32, button int)
	// HandleMouseMove tracks the pointer without a button.
	HandleMouseMove(worldX, worldY float32)
	// HandleMouseRelease ends the action started by button.
	HandleMouseRelease(button int)

	// PanCamera moves the camera by screen pixels.
	PanCamera(dx, dy float32)
	// ZoomCamera zooms about the view centre.
	ZoomCamera(delta float32)
	// ZoomCameraToCursor zooms keeping the world point under (cx, cy) fixed.
	ZoomCameraToCursor(delta, cx, cy float32)
	// ResetCamera returns to the origin at zoom 1.
	ResetCamera()
	// Camera returns the simulation camera.
	Camera() camera.Camera

	// ApplySettings replaces settings from a JSON object. Absent fields keep their values.
	//
	// Parameters:
	//   - data: JSON settings object
	//
	// Returns:
	//   - error: as UpdateSetting; on error the previous settings stay in effect
	ApplySettings(data []byte) error

	// ResetRuntimeState regenerates particles from the current seed and clears trails.
	ResetRuntimeState() error

	// RandomizeSettings draws new settings within each setting's range.
	RandomizeSettings() error

	// UpdateColorScheme switches the colour table.
	UpdateColorScheme(l *lut.LUT) error

	// Settings returns the persisted settings as JSON.
	Settings() ([]byte, error)
	// State returns the runtime state as JSON.
	State() ([]byte, error)
	// CameraState returns the camera as JSON.
	CameraState() ([]byte, error)

	// Stats returns telemetry for the last frame.
	Stats() Stats

	// Release frees every GPU resource the simulation owns.
	Release()
}
