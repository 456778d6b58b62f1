package engine

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/Carmen-Shannon/oxy-sim/engine/simulation"
)

// EventKind identifies a queued input event.
type EventKind int

const (
	// EventKeyDown is a key press; Key holds the code.
	EventKeyDown EventKind = iota
	// EventMouseDown is a button press at (X, Y) pixels.
	EventMouseDown
	// EventMouseUp is a button release at (X, Y) pixels.
	EventMouseUp
	// EventMouseMove is a pointer move to (X, Y) pixels.
	EventMouseMove
	// EventScroll is a wheel movement of Delta notches.
	EventScroll
	// EventPan is a camera pan of (X, Y) pixels in drag convention.
	EventPan
	// EventResize is a surface resize to Width×Height.
	EventResize
	// EventSwitch replaces the running simulation with Sim.
	EventSwitch
)

// Event is one unit of input handed from the window or tick goroutine to the render goroutine.
type Event struct {
	Kind   EventKind
	Key    uint32
	Button int
	X, Y   float32
	Delta  float32
	Width  int
	Height int
	Sim    simulation.Kind
}

// action is what a key press asks the host to do.
type action int

const (
	actionNone action = iota
	actionPause
	actionReset
	actionResetCamera
	actionRandomize
	actionTraces
	actionCycleLUT
	actionReverseLUT
	actionSwitch
	actionQuit
)

// keyAction maps a key code to its host action. Number keys 1–6 select simulations in
// simulation.Kinds order.
//
// Parameters:
//   - code: the key code
//
// Returns:
//   - action: the action, actionNone for unbound keys
//   - simulation.Kind: the target for actionSwitch
func keyAction(code uint32) (action, simulation.Kind) {
	switch code {
	case common.KeySpace:
		return actionPause, ""
	case common.KeyR:
		return actionReset, ""
	case common.KeyC:
		return actionResetCamera, ""
	case common.KeyN:
		return actionRandomize, ""
	case common.KeyT:
		return actionTraces, ""
	case common.KeyL:
		return actionCycleLUT, ""
	case common.KeyV:
		return actionReverseLUT, ""
	case common.KeyEsc:
		return actionQuit, ""
	}
	if code >= common.Key1 && code <= common.Key6 {
		i := int(code - common.Key1)
		if i < len(simulation.Kinds) {
			return actionSwitch, simulation.Kinds[i]
		}
	}
	return actionNone, ""
}

// isPanKey reports whether code is held for continuous panning.
func isPanKey(code uint32) bool {
	switch code {
	case common.KeyW, common.KeyA, common.KeyS, common.KeyD,
		common.KeyUp, common.KeyLeft, common.KeyDown, common.KeyRight:
		return true
	}
	return false
}

// heldKeys is the set of pan keys currently down. Written by the window thread, read by the
// tick goroutine.
type heldKeys struct {
	mu   sync.Mutex
	down map[uint32]bool
}

func newHeldKeys() *heldKeys {
	return &heldKeys{down: make(map[uint32]bool)}
}

func (h *heldKeys) set(code uint32, pressed bool) {
	if !isPanKey(code) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if pressed {
		h.down[code] = true
	} else {
		delete(h.down, code)
	}
}

// direction returns the pan direction of the held keys in drag convention: holding D moves the
// view right, which is a leftward drag. Opposing keys cancel.
func (h *heldKeys) direction() (float32, float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var x, y float32
	if h.down[common.KeyA] || h.down[common.KeyLeft] {
		x++
	}
	if h.down[common.KeyD] || h.down[common.KeyRight] {
		x--
	}
	if h.down[common.KeyW] || h.down[common.KeyUp] {
		y++
	}
	if h.down[common.KeyS] || h.down[common.KeyDown] {
		y--
	}
	return x, y
}

// pointer tracks the mouse for middle-button drags.
type pointer struct {
	x, y     float32
	dragging bool
}

// move records a new position and returns the drag delta when a middle drag is active.
func (p *pointer) move(x, y float32) (dx, dy float32, drag bool) {
	dx, dy = x-p.x, y-p.y
	p.x, p.y = x, y
	return dx, dy, p.dragging
}
