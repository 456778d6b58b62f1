package simulation

import (
	"encoding/json"
	"log"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/camera"
	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
	"github.com/Carmen-Shannon/oxy-sim/engine/generate"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sim/engine/stage"
	"github.com/cogentcore/webgpu/wgpu"
)

// Base holds what every simulation owns besides its particles: camera, cursor, stage, colour
// table and the common state. Simulations embed it and forward the camera and pointer methods.
type Base struct {
	R      renderer.Renderer
	Label  string
	Cam    camera.Camera
	Cursor *cursor.Cursor
	Stage  *stage.Stage
	LUTs   *lut.Manager
	LUT    *lut.Buffer
	Rand   *rand.Rand
	Common CommonState
	Pipes  Pipelines

	display   DisplaySettings
	pointerDt float32
	frame     uint64
}

// NewBase creates the shared parts of a simulation.
//
// Parameters:
//   - r: the renderer
//   - label: the simulation label used for pipeline keys and logs
//   - luts: the colour table registry
//   - state: the initial common state
//
// Returns:
//   - *Base: the shared state
//   - error: a *common.InitializationFailedError when the colour table is unknown, or an
//     allocation error
func NewBase(r renderer.Renderer, label string, luts *lut.Manager, state CommonState) (*Base, error) {
	l, err := luts.Require(state.LUTName)
	if err != nil {
		return nil, err
	}
	if state.LUTReversed {
		l = l.Reversed()
	}
	surface := r.SurfaceConfig()
	cam := camera.NewCamera(camera.WithViewport(float32(surface.Width), float32(surface.Height)))

	buf, err := lut.NewBuffer(r, label+" LUT", l)
	if err != nil {
		return nil, err
	}
	st, err := stage.New(r, label, cam)
	if err != nil {
		buf.Release(r)
		return nil, err
	}
	b := &Base{
		R:       r,
		Label:   label,
		Cam:     cam,
		Cursor:  cursor.New(),
		Stage:   st,
		LUTs:    luts,
		LUT:     buf,
		Common:  state,
		Pipes:   Pipelines{r: r},
		display: DefaultDisplaySettings(),
	}
	b.Cursor.SetRadius(state.CursorSize)
	b.Cursor.SetStrength(state.CursorStrength)
	b.Reseed()
	b.syncDisplay()
	return b, nil
}

// Reseed restarts the random stream from the state's seed.
func (b *Base) Reseed() {
	b.Rand = generate.NewRand(b.Common.RandomSeed)
}

// SetDisplay applies persisted display settings to the stage.
func (b *Base) SetDisplay(d DisplaySettings) {
	b.display = d
	b.syncDisplay()
}

func (b *Base) syncDisplay() {
	b.Stage.SetDisplay(stage.Display{
		Post:       b.display.Post(),
		Background: b.display.Background(b.LUT.Current()),
		Traces:     b.Common.TracesEnabled,
		TraceFade:  b.Common.TraceFade,
		Smooth:     true,
	})
}

// BeginFrame advances the camera and cursor and prepares the stage for a frame.
//
// Parameters:
//   - dt: elapsed seconds; zero for paused frames
//
// Returns:
//   - error: a target allocation error
func (b *Base) BeginFrame(dt float32) error {
	b.pointerDt += dt
	b.frame++
	b.Cam.Update(dt)
	b.Cursor.Tick()
	return b.Stage.Prepare(b.Cam)
}

// Frame returns the number of frames begun.
func (b *Base) Frame() uint64 {
	return b.frame
}

// Composite draws into the tile through draw, then composites to surface.
func (b *Base) Composite(surface *wgpu.TextureView, draw func()) {
	b.Stage.BeginContent()
	draw()
	b.Stage.EndContent(surface)
}

// Resize adapts the camera and stage to a new surface.
func (b *Base) Resize(cfg common.SurfaceConfig) error {
	b.Cam.SetViewport(float32(cfg.Width), float32(cfg.Height))
	b.Stage.Invalidate()
	return b.Stage.Prepare(b.Cam)
}

// Camera returns the simulation camera.
func (b *Base) Camera() camera.Camera { return b.Cam }

// PanCamera moves the camera by screen pixels.
func (b *Base) PanCamera(dx, dy float32) { b.Cam.Pan(dx, dy) }

// ZoomCamera zooms about the view centre.
func (b *Base) ZoomCamera(delta float32) { b.Cam.ZoomBy(delta) }

// ZoomCameraToCursor zooms keeping the world point under (cx, cy) fixed.
func (b *Base) ZoomCameraToCursor(delta, cx, cy float32) { b.Cam.ZoomToCursor(delta, cx, cy) }

// ResetCamera returns to the origin at zoom 1.
func (b *Base) ResetCamera() { b.Cam.Reset() }

// HandleMouseInteraction presses or drags at a world point.
func (b *Base) HandleMouseInteraction(worldX, worldY float32, button int) {
	p := common.Vec2{worldX, worldY}
	if b.Cursor.Mode() == cursor.Inactive {
		b.Cursor.Press(p, button, b.pointerDt)
	} else {
		b.Cursor.Move(p, b.pointerDt)
	}
	b.pointerDt = 0
}

// HandleMouseMove tracks the pointer.
func (b *Base) HandleMouseMove(worldX, worldY float32) {
	b.Cursor.Move(common.Vec2{worldX, worldY}, b.pointerDt)
	b.pointerDt = 0
}

// HandleMouseRelease ends the action started by button.
func (b *Base) HandleMouseRelease(button int) {
	b.Cursor.Release(button)
}

// CameraState returns the camera as JSON.
func (b *Base) CameraState() ([]byte, error) {
	return json.Marshal(b.Cam.State())
}

// UpdateColorScheme writes a new colour table and records it in the state. A background taken
// from the table follows it.
func (b *Base) UpdateColorScheme(l *lut.LUT) error {
	if l == nil {
		return common.InvalidSetting("lut_name", "no colour table")
	}
	b.LUT.Apply(b.R, l)
	b.Common.LUTName = l.Name()
	b.Common.LUTReversed = l.IsReversed()
	b.syncDisplay()
	return nil
}

// ApplyState routes a common state name.
//
// Parameters:
//   - name: the state name
//   - v: the value
//
// Returns:
//   - Change: ChangeReseed for a new seed, ChangeUniform otherwise
//   - bool: true if name is a common state name
//   - error: a coercion or lookup error; the state is unchanged on error
func (b *Base) ApplyState(name string, v any) (Change, bool, error) {
	switch name {
	case "lut_name", "lut_reversed":
		s := b.Common
		if name == "lut_name" {
			n, err := String(name, v)
			if err != nil {
				return ChangeNone, true, err
			}
			s.LUTName = n
		} else {
			r, err := Bool(name, v)
			if err != nil {
				return ChangeNone, true, err
			}
			s.LUTReversed = r
		}
		l, err := b.LUTs.Resolve(s.LUTName, s.LUTReversed)
		if err != nil {
			return ChangeNone, true, err
		}
		return ChangeUniform, true, b.UpdateColorScheme(l)
	case "traces_enabled":
		t, err := Bool(name, v)
		if err != nil {
			return ChangeNone, true, err
		}
		b.Common.TracesEnabled = t
	case "trace_fade":
		f, err := Clamped(name, v, 0, 1)
		if err != nil {
			return ChangeNone, true, err
		}
		b.Common.TraceFade = f
	case "random_seed":
		seed, err := Uint64(name, v)
		if err != nil {
			return ChangeNone, true, err
		}
		b.Common.RandomSeed = seed
		b.Reseed()
		return ChangeReseed, true, nil
	case "cursor_size":
		f, err := Clamped(name, v, 0.001, 2)
		if err != nil {
			return ChangeNone, true, err
		}
		b.Common.CursorSize = f
		b.Cursor.SetRadius(f)
	case "cursor_strength":
		f, err := Clamped(name, v, 0, 100)
		if err != nil {
			return ChangeNone, true, err
		}
		b.Common.CursorStrength = f
		b.Cursor.SetStrength(f)
	default:
		return ChangeNone, false, nil
	}
	b.syncDisplay()
	return ChangeUniform, true, nil
}

// ResetRuntime clears trails and the cursor and restarts the random stream.
func (b *Base) ResetRuntime() {
	b.Stage.ResetTrail()
	b.Cursor.Reset()
	b.Reseed()
}

// StageStats fills the stage fields of Stats.
func (b *Base) StageStats(s Stats) Stats {
	s.OffscreenWidth, s.OffscreenHeight = b.Stage.Resolution()
	s.Tiles = b.Stage.Tiles()
	return s
}

// UnknownName reports a name that no router accepted.
func UnknownName(label, name string) error {
	log.Printf("[Simulation] %s: rejected unknown name %q", label, name)
	return common.InvalidSetting(name, "unknown name for %s", label)
}

// Release frees the stage, colour table buffer and the simulation's pipelines.
func (b *Base) Release() {
	b.Pipes.Release()
	b.Stage.Release()
	b.LUT.Release(b.R)
}
