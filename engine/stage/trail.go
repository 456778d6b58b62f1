package stage

import (
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer"
)

// Trail is the pair of accumulation targets used when traces are enabled. Each frame fades the
// read target into the write target, particles are drawn on top, then the roles swap.
type Trail struct {
	targets    [2]*renderer.RenderTarget
	write      int
	needsClear bool
}

func newTrail(r renderer.Renderer, label string, width, height uint32) (*Trail, error) {
	t := &Trail{needsClear: true}
	for i := range t.targets {
		rt, err := r.CreateRenderTarget(label, width, height)
		if err != nil {
			t.release()
			return nil, err
		}
		t.targets[i] = rt
	}
	return t, nil
}

// Read returns the target holding the previous frame.
func (t *Trail) Read() *renderer.RenderTarget { return t.targets[1-t.write] }

// Write returns the target this frame draws into.
func (t *Trail) Write() *renderer.RenderTarget { return t.targets[t.write] }

// Swap exchanges read and write after the frame is recorded.
func (t *Trail) Swap() {
	t.write = 1 - t.write
	t.needsClear = false
}

// Reset makes the next frame start from a cleared background.
func (t *Trail) Reset() { t.needsClear = true }

// NeedsClear reports whether the next frame clears instead of fading.
func (t *Trail) NeedsClear() bool { return t.needsClear }

func (t *Trail) release() {
	for i, rt := range t.targets {
		rt.Release()
		t.targets[i] = nil
	}
}
