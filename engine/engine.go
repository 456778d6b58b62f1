package engine

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/lut"
	"github.com/Carmen-Shannon/oxy-sim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
	"github.com/Carmen-Shannon/oxy-sim/engine/window"
)

const (
	// eventQueueSize bounds the input backlog between two render frames.
	eventQueueSize = 1024
	// keyPanSpeed is the keyboard pan rate in pixels per second.
	keyPanSpeed = 600
	// scrollZoomStep is the relative zoom per scroll notch.
	scrollZoomStep = 0.1
)

// engine implements the Engine interface.
// Coordinates the tick, render and window threads. Only the render goroutine touches the
// renderer and the simulation once Run has started.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates
	events          chan Event

	running atomic.Bool
	paused  atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer
	luts     *lut.Manager

	sim     simulation.Simulation
	presets map[simulation.Kind][]byte

	held    *heldKeys
	pointer pointer
	frame   uint64

	profiler         *profiler.Profiler
	profilingEnabled bool
	telemetry        *profiler.Telemetry

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the host of one running simulation.
// It owns the tick loop, the render loop and the routing of window input to the simulation.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer simulations draw with.
	Renderer() renderer.Renderer

	// Simulation returns the running simulation. Only safe to use before Run or from the
	// render callback.
	Simulation() simulation.Simulation

	// Submit queues an input event for the render goroutine. Events are dropped when the queue
	// is full.
	//
	// Parameters:
	//   - ev: the event
	//
	// Returns:
	//   - bool: false if the event was dropped
	Submit(ev Event) bool

	// SwitchSimulation queues a switch to another simulation kind. The common state (colour
	// table, traces, cursor) carries over.
	//
	// Parameters:
	//   - kind: the simulation to run next
	SwitchSimulation(kind simulation.Kind)

	// Paused reports whether simulation stepping is suspended.
	Paused() bool

	// SetPaused suspends or resumes simulation stepping. Paused frames still redraw.
	SetPaused(paused bool)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback and keyboard panning run at this rate.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame on the render goroutine.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the tick and render loops and processes window messages until the window
	// closes (blocks). The simulation and renderer are released on return.
	Run()

	// Quit signals all engine goroutines to stop and closes the window.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Window callbacks are wired to the event queue when a window is supplied.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, simulation, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		events:           make(chan Event, eventQueueSize),
		quitChannel:      make(chan struct{}),
		presets:          make(map[simulation.Kind][]byte),
		held:             newHeldKeys(),
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.luts == nil {
		e.luts = lut.NewManager()
	}
	if e.sim != nil {
		e.profiler.SetLabel(string(e.sim.Kind()))
	}
	if e.window != nil {
		e.wireWindow()
	}

	return e
}

// wireWindow routes window callbacks into the event queue. Callbacks run on the window thread.
func (e *engine) wireWindow() {
	e.window.SetResizeCallback(func(width, height int) {
		e.Submit(Event{Kind: EventResize, Width: width, Height: height})
	})
	e.window.SetKeyDownCallback(func(keyCode uint32) {
		e.held.set(keyCode, true)
		if !isPanKey(keyCode) {
			e.Submit(Event{Kind: EventKeyDown, Key: keyCode})
		}
	})
	e.window.SetKeyUpCallback(func(keyCode uint32) {
		e.held.set(keyCode, false)
	})
	e.window.SetMouseButtonCallback(func(button int, pressed bool, x, y float32) {
		kind := EventMouseUp
		if pressed {
			kind = EventMouseDown
		}
		e.Submit(Event{Kind: kind, Button: button, X: x, Y: y})
	})
	e.window.SetMouseMoveCallback(func(x, y float32) {
		e.Submit(Event{Kind: EventMouseMove, X: x, Y: y})
	})
	e.window.SetScrollCallback(func(delta float32) {
		e.Submit(Event{Kind: EventScroll, Delta: delta})
	})
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			_ = e.window.Close()
		default:
		}
	})
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Simulation() simulation.Simulation {
	return e.sim
}

func (e *engine) Submit(ev Event) bool {
	select {
	case e.events <- ev:
		return true
	default:
		if ev.Kind != EventMouseMove {
			log.Printf("[Engine] input queue full, dropped event %d", ev.Kind)
		}
		return false
	}
}

func (e *engine) SwitchSimulation(kind simulation.Kind) {
	e.Submit(Event{Kind: EventSwitch, Sim: kind})
}

func (e *engine) Paused() bool {
	return e.paused.Load()
}

func (e *engine) SetPaused(paused bool) {
	e.paused.Store(paused)
}

func (e *engine) Run() {
	if e.window == nil || e.renderer == nil || e.sim == nil {
		log.Printf("[Engine] run requires a window, a renderer and a simulation")
		return
	}
	e.running.Store(true)
	e.handle()
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()

	e.sim.Release()
	e.renderer.Release()
	log.Printf("[Engine] stopped after %d frames", e.frame)
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the tick and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Turns held pan keys into pan events and fires the tick callback. Listens for dynamic rate
// changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if x, y := e.held.direction(); x != 0 || y != 0 {
				e.Submit(Event{Kind: EventPan, X: x * keyPanSpeed * dt, Y: y * keyPanSpeed * dt})
			}

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Each frame drains the input queue, then runs the simulation's frame between BeginFrame and
// Present. Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		frameTime := now.Sub(lastRender)
		dt := float32(frameTime.Seconds())
		lastRender = now

		e.drainEvents()

		cfg := e.renderer.SurfaceConfig()
		if cfg.Width == 0 || cfg.Height == 0 {
			// Minimized.
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if e.renderFrame(dt) {
			e.frame++
			e.record(frameTime)
		}

		if e.renderCallback != nil {
			e.renderCallback(dt)
		}

		if e.renderFrameLimit > 0 {
			elapsed := time.Since(now)
			if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderFrame runs one surface frame. Returns false if no frame was presented.
func (e *engine) renderFrame(dt float32) bool {
	view, err := e.renderer.BeginFrame()
	if err != nil {
		log.Printf("[Engine] begin frame: %v", err)
		return false
	}

	if e.paused.Load() {
		err = e.sim.RenderFramePaused(view)
	} else {
		err = e.sim.RenderFrame(view, dt)
	}
	if err != nil {
		log.Printf("[Engine] %s frame: %v", e.sim.Kind(), err)
	}

	if err := e.renderer.EndFrame(); err != nil {
		log.Printf("[Engine] end frame: %v", err)
		return false
	}
	e.renderer.Present()
	return true
}

// record feeds the profiler and telemetry after a presented frame.
func (e *engine) record(frameTime time.Duration) {
	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
	if e.telemetry == nil {
		return
	}

	st := e.sim.Stats()
	ms := float64(frameTime.Microseconds()) / 1000
	fps := 0.0
	if ms > 0 {
		fps = 1000 / ms
	}
	sample := profiler.FrameSample{
		Frame:        e.frame,
		FPS:          fps,
		FrameMillis:  ms,
		Particles:    st.Particles,
		OffscreenW:   st.OffscreenWidth,
		OffscreenH:   st.OffscreenHeight,
		Tiles:        st.Tiles,
		GridOverflow: st.GridOverflow,
	}
	if _, err := e.telemetry.Record(sample); err != nil {
		log.Printf("[Engine] telemetry disabled: %v", err)
		e.telemetry = nil
	}
}

// drainEvents applies every queued event without blocking.
func (e *engine) drainEvents() {
	for {
		select {
		case ev := <-e.events:
			e.apply(ev)
		default:
			return
		}
	}
}

// apply routes one event to the renderer or the simulation.
func (e *engine) apply(ev Event) {
	switch ev.Kind {
	case EventResize:
		if ev.Width <= 0 || ev.Height <= 0 {
			return
		}
		e.renderer.Resize(ev.Width, ev.Height)
		if err := e.sim.Resize(e.renderer.SurfaceConfig()); err != nil {
			log.Printf("[Engine] resize %dx%d: %v", ev.Width, ev.Height, err)
		}
	case EventKeyDown:
		e.applyKey(ev.Key)
	case EventSwitch:
		e.switchTo(ev.Sim)
	case EventPan:
		e.sim.PanCamera(ev.X, ev.Y)
	case EventScroll:
		e.sim.ZoomCameraToCursor(ev.Delta*scrollZoomStep, e.pointer.x, e.pointer.y)
	case EventMouseDown:
		e.pointer.x, e.pointer.y = ev.X, ev.Y
		if ev.Button == common.MouseButtonMiddle {
			e.pointer.dragging = true
			return
		}
		w := e.sim.Camera().ScreenToWorld(ev.X, ev.Y)
		e.sim.HandleMouseInteraction(w[0], w[1], ev.Button)
	case EventMouseUp:
		if ev.Button == common.MouseButtonMiddle {
			e.pointer.dragging = false
			return
		}
		e.sim.HandleMouseRelease(ev.Button)
	case EventMouseMove:
		dx, dy, drag := e.pointer.move(ev.X, ev.Y)
		if drag {
			e.sim.PanCamera(dx, dy)
			return
		}
		w := e.sim.Camera().ScreenToWorld(ev.X, ev.Y)
		e.sim.HandleMouseMove(w[0], w[1])
	}
}

// applyKey runs the host action bound to a key.
func (e *engine) applyKey(code uint32) {
	act, kind := keyAction(code)
	var err error
	switch act {
	case actionNone:
		return
	case actionPause:
		paused := !e.paused.Load()
		e.paused.Store(paused)
		log.Printf("[Engine] paused: %t", paused)
	case actionReset:
		err = e.sim.ResetRuntimeState()
	case actionResetCamera:
		e.sim.ResetCamera()
	case actionRandomize:
		err = e.sim.RandomizeSettings()
	case actionTraces:
		var st simulation.CommonState
		if st, err = commonState(e.sim); err == nil {
			err = e.sim.UpdateState("traces_enabled", !st.TracesEnabled)
		}
	case actionCycleLUT:
		var st simulation.CommonState
		if st, err = commonState(e.sim); err == nil {
			err = e.sim.UpdateState("lut_name", e.luts.Next(st.LUTName))
		}
	case actionReverseLUT:
		var st simulation.CommonState
		if st, err = commonState(e.sim); err == nil {
			err = e.sim.UpdateState("lut_reversed", !st.LUTReversed)
		}
	case actionSwitch:
		e.switchTo(kind)
	case actionQuit:
		e.signalQuit()
	}
	if err != nil {
		log.Printf("[Engine] key %d: %v", code, err)
	}
}

// switchTo replaces the running simulation, carrying the common state over. The running
// simulation is kept if the new one cannot be created.
func (e *engine) switchTo(kind simulation.Kind) {
	if kind == e.sim.Kind() {
		return
	}
	st, err := commonState(e.sim)
	if err != nil {
		log.Printf("[Engine] reading %s state: %v", e.sim.Kind(), err)
		st = simulation.DefaultState(lut.DefaultName)
	}

	next, err := NewSimulation(kind, e.renderer, e.luts, st, e.presets[kind])
	if err != nil {
		log.Printf("[Engine] switch to %s: %v", kind, err)
		return
	}
	if err := next.Resize(e.renderer.SurfaceConfig()); err != nil {
		log.Printf("[Engine] switch to %s: %v", kind, err)
		next.Release()
		return
	}

	prev := e.sim
	e.sim = next
	prev.Release()
	e.pointer.dragging = false
	e.profiler.SetLabel(string(kind))
	log.Printf("[Engine] switched %s -> %s", prev.Kind(), kind)
}

// commonState decodes the shared part of a simulation's state JSON.
func commonState(sim simulation.Simulation) (simulation.CommonState, error) {
	var st simulation.CommonState
	data, err := sim.State()
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

// frameDuration converts a rate to a period; rates <= 0 yield 0.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
