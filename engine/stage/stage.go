// Package stage owns the offscreen half of every frame: the fixed tile holding world region
// [-1, 1]² at an adaptive resolution, the optional trail accumulator, the post-effect pass and
// the compositor that repeats the tile across the surface.
//
// A frame looks like:
//
//	stage.Prepare(cam)          // before compute; may reallocate targets
//	stage.BeginContent()        // opens the tile pass (cleared, or faded trail)
//	... simulation draws into the open pass ...
//	stage.EndContent(surface)   // post-effect, composite to surface, trail swap
package stage

import (
	_ "embed"
	"fmt"
	"log"
	"math"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/camera"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sim/engine/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/fade.wgsl
var fadeSource string

//go:embed assets/post.wgsl
var postSource string

//go:embed assets/composite.wgsl
var compositeSource string

const (
	fadeKey      = "stage.fade"
	postKey      = "stage.post"
	compositeKey = "stage.composite"
)

// Display is the shared display configuration of a simulation.
type Display struct {
	Post       PostParams
	Background [3]float32
	Traces     bool
	TraceFade  float32
	// Smooth selects linear filtering when the tile is magnified; nearest otherwise.
	Smooth bool
}

// DefaultDisplay is the display every simulation starts with.
var DefaultDisplay = Display{Post: IdentityPost, TraceFade: 0.9, Smooth: true}

// Stage renders a simulation's tile and composites it.
type Stage struct {
	r     renderer.Renderer
	label string

	adaptive Adaptive
	display  *renderer.RenderTarget
	trail    *Trail
	post     *renderer.RenderTarget

	fadePipeline      pipeline.Pipeline
	postPipeline      pipeline.Pipeline
	compositePipeline pipeline.Pipeline

	fadeParams      *uniform.Block[FadeParams]
	postParams      *uniform.Block[PostParams]
	compositeParams *uniform.Block[CompositeParams]
	cameraParams    *uniform.Block[camera.GPUCameraUniform]

	fadeGroups      viewGroups
	postGroups      viewGroups
	compositeGroups viewGroups
	cameraGroup     bind_group_provider.BindGroupProvider

	settings Display
	tiles    uint32
	content  *renderer.RenderTarget
	frameOK  bool
}

// New compiles the stage pipelines and allocates targets for the current surface.
//
// Parameters:
//   - r: the renderer
//   - label: owning simulation label
//   - cam: the camera whose zoom drives the initial resolution
//
// Returns:
//   - *Stage: the stage
//   - error: a *common.InitializationFailedError or allocation error
func New(r renderer.Renderer, label string, cam camera.Camera) (*Stage, error) {
	s := &Stage{r: r, label: label, settings: DefaultDisplay}
	if err := s.registerPipelines(); err != nil {
		return nil, err
	}

	var err error
	if s.fadeParams, err = uniform.New(r, label+" Fade Params", FadeParams{}); err != nil {
		return nil, err
	}
	if s.postParams, err = uniform.New(r, label+" Post Params", IdentityPost); err != nil {
		return nil, err
	}
	if s.compositeParams, err = uniform.New(r, label+" Composite Params", CompositeParams{Smooth: 1}); err != nil {
		return nil, err
	}
	if s.cameraParams, err = uniform.New(r, label+" Camera", cam.Uniform()); err != nil {
		return nil, err
	}
	s.cameraGroup = bind_group_provider.NewBindGroupProvider(label+" Camera",
		bind_group_provider.WithGroup(1),
		bind_group_provider.WithBuffer(0, s.cameraParams.Buffer()),
	)
	if err := r.InitBindGroup(s.cameraGroup, s.compositePipeline, nil, nil); err != nil {
		return nil, err
	}
	if err := s.Prepare(cam); err != nil {
		return nil, err
	}
	return s, nil
}

// registerPipelines compiles the shared stage pipelines once per renderer.
func (s *Stage) registerPipelines() error {
	if s.r.Pipeline(fadeKey) == nil {
		fade, err := pipeline.NewRenderFromSource(fadeKey, fadeSource, nil,
			pipeline.WithTargetFormat(renderer.OffscreenFormat))
		if err != nil {
			return err
		}
		post, err := pipeline.NewRenderFromSource(postKey, postSource, nil,
			pipeline.WithTargetFormat(renderer.OffscreenFormat))
		if err != nil {
			return err
		}
		composite, err := pipeline.NewRenderFromSource(compositeKey, compositeSource, nil)
		if err != nil {
			return err
		}
		if err := s.r.RegisterPipelines(fade, post, composite); err != nil {
			return err
		}
	}
	s.fadePipeline = s.r.Pipeline(fadeKey)
	s.postPipeline = s.r.Pipeline(postKey)
	s.compositePipeline = s.r.Pipeline(compositeKey)
	return nil
}

// Prepare adapts the offscreen resolution to the camera and uploads the camera and tiling
// uniforms. Targets are reallocated here, before any pass of the frame is recorded.
//
// Parameters:
//   - cam: the simulation camera
//
// Returns:
//   - error: a target allocation error; the previous targets stay in use
func (s *Stage) Prepare(cam camera.Camera) error {
	surface := s.r.SurfaceConfig()
	w, h, changed := s.adaptive.Update(surface.Width, surface.Height, cam.Zoom(), s.r.Limits().MaxTextureDimension2D)
	if changed || s.display == nil {
		if err := s.allocate(w, h); err != nil {
			s.adaptive.Invalidate()
			return err
		}
	}

	s.cameraParams.Set(cam.Uniform())
	s.tiles = TileCount(cam.Zoom())
	origin := tileOrigin(mgl32.Vec2(cam.Position()))
	var smooth uint32
	if s.settings.Smooth {
		smooth = 1
	}
	s.compositeParams.Set(CompositeParams{
		Origin: [2]float32(origin),
		Tiles:  s.tiles,
		Smooth: smooth,
	})
	uniform.FlushAll(s.r, s.cameraParams, s.compositeParams)
	return nil
}

// tileOrigin returns the index of the unit tile containing world point p.
func tileOrigin(p mgl32.Vec2) mgl32.Vec2 {
	t := p.Add(mgl32.Vec2{1, 1}).Mul(0.5)
	return mgl32.Vec2{float32(math.Floor(float64(t[0]))), float32(math.Floor(float64(t[1])))}
}

// allocate replaces every target. Nothing is swapped in unless all allocations succeed.
func (s *Stage) allocate(w, h uint32) error {
	display, err := s.r.CreateRenderTarget(s.label+" Display", w, h)
	if err != nil {
		return err
	}
	post, err := s.r.CreateRenderTarget(s.label+" Post", w, h)
	if err != nil {
		display.Release()
		return err
	}
	trail, err := newTrail(s.r, s.label+" Trail", w, h)
	if err != nil {
		display.Release()
		post.Release()
		return err
	}

	s.releaseTargets()
	s.display, s.post, s.trail = display, post, trail
	log.Printf("[Stage] %s offscreen %dx%d (scale %.2f)", s.label, w, h, s.adaptive.Scale())
	return nil
}

func (s *Stage) releaseTargets() {
	s.fadeGroups.release()
	s.postGroups.release()
	s.compositeGroups.release()
	s.display.Release()
	s.post.Release()
	if s.trail != nil {
		s.trail.release()
	}
	s.display, s.post, s.trail = nil, nil, nil
}

// Invalidate forces the next Prepare to reallocate, used after a surface resize.
func (s *Stage) Invalidate() {
	s.adaptive.Invalidate()
}

// SetDisplay applies display settings. Enabling traces restarts the trail from the background.
func (s *Stage) SetDisplay(d Display) {
	d.Post = d.Post.Clamped()
	if d.Traces && !s.settings.Traces && s.trail != nil {
		s.trail.Reset()
	}
	s.settings = d
	s.postParams.Set(d.Post)
}

// Display returns the current display settings.
func (s *Stage) Display() Display {
	return s.settings
}

// ResetTrail clears accumulated trails on the next frame.
func (s *Stage) ResetTrail() {
	if s.trail != nil {
		s.trail.Reset()
	}
}

// Resolution returns the offscreen size particles are drawn at.
func (s *Stage) Resolution() (uint32, uint32) {
	return s.adaptive.Size()
}

// Tiles returns the tiles per axis of the last composite.
func (s *Stage) Tiles() uint32 {
	return s.tiles
}

func (s *Stage) background() wgpu.Color {
	b := s.settings.Background
	return wgpu.Color{R: float64(b[0]), G: float64(b[1]), B: float64(b[2]), A: 1}
}

// BeginContent opens the render pass the simulation draws its tile into. With traces off the
// display is cleared to the background; with traces on the write trail is first filled with
// the faded previous frame.
func (s *Stage) BeginContent() {
	bg := s.background()
	if !s.settings.Traces {
		s.content = s.display
		s.r.BeginPass(s.content.View, &bg)
		return
	}

	s.content = s.trail.Write()
	if s.trail.NeedsClear() {
		s.r.BeginPass(s.content.View, &bg)
		return
	}
	b := s.settings.Background
	s.fadeParams.Set(FadeParams{
		Background: [4]float32{b[0], b[1], b[2], 1},
		FadeAlpha:  FadeAlpha(s.settings.TraceFade),
	})
	s.fadeParams.Flush(s.r)
	read := s.trail.Read()
	group, err := s.fadeGroups.get(read.View, func() (bind_group_provider.BindGroupProvider, error) {
		return s.textureGroup("Fade", s.fadePipeline, read, s.fadeParams.Buffer(), 1, false)
	})
	s.r.BeginPass(s.content.View, nil)
	if err != nil {
		log.Printf("[Stage] %s fade: %v", s.label, err)
		return
	}
	s.r.DrawCall(s.fadePipeline, 3, 1, []bind_group_provider.BindGroupProvider{group})
}

// EndContent closes the tile pass, runs the post-effect when it is not the identity, tiles the
// result over surface and swaps the trail.
//
// Parameters:
//   - surface: the frame's surface view
func (s *Stage) EndContent(surface *wgpu.TextureView) {
	s.r.EndPass()
	source := s.content

	if !s.settings.Post.IsIdentity() {
		s.postParams.Flush(s.r)
		group, err := s.postGroups.get(source.View, func() (bind_group_provider.BindGroupProvider, error) {
			return s.textureGroup("Post", s.postPipeline, source, s.postParams.Buffer(), 1, false)
		})
		if err == nil {
			s.r.BeginPass(s.post.View, nil)
			s.r.DrawCall(s.postPipeline, 3, 1, []bind_group_provider.BindGroupProvider{group})
			s.r.EndPass()
			source = s.post
		} else {
			log.Printf("[Stage] %s post: %v", s.label, err)
		}
	}

	group, err := s.compositeGroups.get(source.View, func() (bind_group_provider.BindGroupProvider, error) {
		return s.textureGroup("Composite", s.compositePipeline, source, s.compositeParams.Buffer(), 2, true)
	})
	bg := s.background()
	s.r.BeginPass(surface, &bg)
	if err == nil {
		s.r.DrawCall(s.compositePipeline, 6, s.tiles*s.tiles, []bind_group_provider.BindGroupProvider{group, s.cameraGroup})
	} else {
		log.Printf("[Stage] %s composite: %v", s.label, err)
	}
	s.r.EndPass()

	if s.settings.Traces {
		s.trail.Swap()
	}
}

// textureGroup builds a group 0 binding a target's view at 0, optionally a sampler at 1, and a
// uniform buffer at paramsBinding.
func (s *Stage) textureGroup(name string, p pipeline.Pipeline, source *renderer.RenderTarget, params *wgpu.Buffer, paramsBinding int, withSampler bool) (bind_group_provider.BindGroupProvider, error) {
	g := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s %s %s", s.label, name, source.Label),
		bind_group_provider.WithTextureView(0, source.View),
		bind_group_provider.WithBuffer(paramsBinding, params),
	)
	if withSampler {
		if err := s.r.InitSampler(g, 1, s.samplerData()); err != nil {
			g.Release()
			return nil, err
		}
	}
	if err := s.r.InitBindGroup(g, p, nil, nil); err != nil {
		g.Release()
		return nil, err
	}
	return g, nil
}

func (s *Stage) samplerData() common.SamplerStagingData {
	return common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeRepeat,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
	}
}

// Release frees targets, bind groups and uniforms. Shared pipelines stay registered.
func (s *Stage) Release() {
	s.releaseTargets()
	if s.cameraGroup != nil {
		s.cameraGroup.Release()
	}
	s.fadeParams.Release(s.r)
	s.postParams.Release(s.r)
	s.compositeParams.Release(s.r)
	s.cameraParams.Release(s.r)
}
