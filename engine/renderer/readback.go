package renderer

import (
	"log"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// readbackState tracks one staging buffer through copy, map and consume.
type readbackState int

const (
	readbackIdle readbackState = iota
	readbackCopied
	readbackMapping
	readbackReady
)

// Readback is a single-shot asynchronous GPU to CPU copy. At most one copy is in flight; while it
// is, Latest keeps returning the previous result so the frame never waits on the GPU.
type Readback struct {
	mu      sync.Mutex
	label   string
	staging *wgpu.Buffer
	size    uint64
	state   readbackState
	latest  []byte
	fresh   bool
}

// NewReadback allocates a MapRead staging buffer of the given size.
//
// Parameters:
//   - r: the renderer that owns the device
//   - label: debug label
//   - size: bytes copied per readback
//
// Returns:
//   - *Readback: the readback handle
//   - error: a *common.BufferTooLargeError or a wrapped GPU error
func NewReadback(r Renderer, label string, size uint64) (*Readback, error) {
	buf, err := r.CreateBuffer(label+" Staging", size, wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	return &Readback{label: label, staging: buf, size: size}, nil
}

// Schedule records a copy from src into the staging buffer on the current compute frame.
// It does nothing while a previous readback is still in flight.
//
// Parameters:
//   - r: the renderer with an open compute frame
//   - src: the buffer to copy; must carry BufferUsageCopySrc
//
// Returns:
//   - bool: true when a copy was recorded
func (rb *Readback) Schedule(r Renderer, src *wgpu.Buffer) bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.state != readbackIdle || src == nil {
		return false
	}
	r.CopyBufferToBuffer(src, rb.staging, rb.size)
	rb.state = readbackCopied
	return true
}

// Resolve starts mapping a copied buffer. Call it after the compute frame is submitted.
// The map callback fires during a later device poll.
func (rb *Readback) Resolve() {
	rb.mu.Lock()
	if rb.state != readbackCopied {
		rb.mu.Unlock()
		return
	}
	rb.state = readbackMapping
	rb.mu.Unlock()

	err := rb.staging.MapAsync(wgpu.MapModeRead, 0, rb.size, func(status wgpu.BufferMapAsyncStatus) {
		rb.mu.Lock()
		defer rb.mu.Unlock()
		if status != wgpu.BufferMapAsyncStatusSuccess {
			log.Printf("[Renderer] readback %s map failed: %v", rb.label, status)
			rb.state = readbackIdle
			return
		}
		rb.state = readbackReady
	})
	if err != nil {
		log.Printf("[Renderer] readback %s: %v", rb.label, err)
		rb.mu.Lock()
		rb.state = readbackIdle
		rb.mu.Unlock()
	}
}

// Latest returns the most recent completed result. When a mapped result is waiting it is
// copied out and the staging buffer returns to idle.
//
// Returns:
//   - []byte: the latest bytes, nil before the first completion
//   - bool: true if the bytes are new since the previous call
func (rb *Readback) Latest() ([]byte, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.state == readbackReady {
		mapped := rb.staging.GetMappedRange(0, uint(rb.size))
		rb.latest = append(rb.latest[:0], mapped...)
		rb.staging.Unmap()
		rb.state = readbackIdle
		rb.fresh = true
	}
	fresh := rb.fresh
	rb.fresh = false
	return rb.latest, fresh
}

// Release frees the staging buffer.
func (rb *Readback) Release() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.staging != nil {
		rb.staging.Release()
		rb.staging = nil
	}
}
