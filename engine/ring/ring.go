// Package ring holds double-buffered particle storage. Exactly one side is read during a compute
// step and the other is written; Swap flips the roles once the step has been recorded.
package ring

import (
	"fmt"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// Allocator is the slice of the renderer a Ring needs.
type Allocator interface {
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error)
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
	ReleaseBuffer(buf *wgpu.Buffer)
}

// Usage is the usage every ring buffer carries: read and written by kernels, read by vertex
// stages, filled from the CPU and copyable for readback.
const Usage = wgpu.BufferUsageStorage | wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

var nextID atomic.Uint64

// Ring is a pair of identically sized particle arrays with an active index.
type Ring struct {
	label      string
	stride     uint64
	count      uint32
	capacity   uint32
	buffers    [2]*wgpu.Buffer
	ids        [2]uint64
	active     int
	generation uint64
}

// New allocates both sides for count elements of stride bytes.
//
// Parameters:
//   - alloc: the buffer allocator
//   - label: debug label
//   - stride: bytes per element
//   - count: initial element count
//
// Returns:
//   - *Ring: the ring, active side 0
//   - error: a *common.BufferTooLargeError or allocation error
func New(alloc Allocator, label string, stride uint64, count uint32) (*Ring, error) {
	r := &Ring{label: label, stride: stride}
	if err := r.allocate(alloc, count); err != nil {
		return nil, err
	}
	return r, nil
}

// allocate replaces both buffers. On failure the previous buffers are untouched.
func (r *Ring) allocate(alloc Allocator, count uint32) error {
	size := r.stride * uint64(max(count, 1))
	var fresh [2]*wgpu.Buffer
	for side := range fresh {
		buf, err := alloc.CreateBuffer(fmt.Sprintf("%s %c", r.label, 'A'+side), size, Usage)
		if err != nil {
			for _, b := range fresh {
				if b != nil {
					alloc.ReleaseBuffer(b)
				}
			}
			return err
		}
		fresh[side] = buf
	}
	for side, old := range r.buffers {
		if old != nil {
			alloc.ReleaseBuffer(old)
		}
		r.buffers[side] = fresh[side]
		r.ids[side] = nextID.Add(1)
	}
	r.count = count
	r.capacity = max(count, 1)
	r.active = 0
	r.generation++
	return nil
}

// Resize changes the element count. Growing past capacity reallocates both sides and bumps the
// generation so dependent bind groups rebuild; shrinking keeps the buffers. When reallocation
// fails the old buffers and count stay in place.
//
// Parameters:
//   - alloc: the buffer allocator
//   - count: the new element count
//
// Returns:
//   - bool: true if the buffers were reallocated
//   - error: the allocation error, with the ring unchanged
func (r *Ring) Resize(alloc Allocator, count uint32) (bool, error) {
	if count <= r.capacity {
		r.count = count
		return false, nil
	}
	if err := r.allocate(alloc, count); err != nil {
		return false, err
	}
	return true, nil
}

// Upload writes the same contents into both sides so either orientation starts consistent.
//
// Parameters:
//   - alloc: the buffer allocator
//   - data: the packed elements; at most Capacity()·Stride() bytes
func (r *Ring) Upload(alloc Allocator, data []byte) {
	if len(data) == 0 {
		return
	}
	limit := int(r.stride * uint64(r.capacity))
	if len(data) > limit {
		data = data[:limit]
	}
	for _, buf := range r.buffers {
		alloc.WriteBuffer(buf, 0, data)
	}
}

// Current returns the read side.
func (r *Ring) Current() *wgpu.Buffer { return r.buffers[r.active] }

// Inactive returns the write side.
func (r *Ring) Inactive() *wgpu.Buffer { return r.buffers[1-r.active] }

// CurrentID returns the identity of the read side.
func (r *Ring) CurrentID() uint64 { return r.ids[r.active] }

// InactiveID returns the identity of the write side.
func (r *Ring) InactiveID() uint64 { return r.ids[1-r.active] }

// Side returns the buffer for side 0 or 1 regardless of orientation.
func (r *Ring) Side(side int) *wgpu.Buffer { return r.buffers[side&1] }

// Active returns the index of the read side.
func (r *Ring) Active() int { return r.active }

// Swap flips read and write sides.
func (r *Ring) Swap() { r.active = 1 - r.active }

// Count returns the logical element count.
func (r *Ring) Count() uint32 { return r.count }

// Capacity returns how many elements the buffers can hold.
func (r *Ring) Capacity() uint32 { return r.capacity }

// Stride returns the element size in bytes.
func (r *Ring) Stride() uint64 { return r.stride }

// Size returns the logical byte length, stride·count.
func (r *Ring) Size() uint64 { return r.stride * uint64(r.count) }

// Generation changes every time the buffers are reallocated.
func (r *Ring) Generation() uint64 { return r.generation }

// Release frees both sides.
//
// Parameters:
//   - alloc: the allocator that created them
func (r *Ring) Release(alloc Allocator) {
	for side, buf := range r.buffers {
		if buf != nil {
			alloc.ReleaseBuffer(buf)
			r.buffers[side] = nil
		}
	}
}
