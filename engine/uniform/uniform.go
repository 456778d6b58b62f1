// Package uniform mirrors fixed-size CPU structs into GPU uniform buffers. Every write replaces
// the whole struct, and only blocks that changed since the last flush are written.
package uniform

import (
	"fmt"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Allocator is the slice of the renderer a Block needs.
type Allocator interface {
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error)
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
	ReleaseBuffer(buf *wgpu.Buffer)
}

// Block is one named uniform block. T must be a plain struct whose size is a multiple of 16
// bytes with explicit padding fields, matching the WGSL declaration byte for byte.
type Block[T any] struct {
	label   string
	value   T
	buf     *wgpu.Buffer
	dirty   bool
	flushes int
}

// New allocates the GPU buffer for a block and marks it dirty so the first Flush uploads it.
//
// Parameters:
//   - alloc: the buffer allocator
//   - label: debug label, also used in error messages
//   - initial: the starting value
//
// Returns:
//   - *Block[T]: the block
//   - error: *common.InitializationFailedError if T is not 16-byte sized, or the allocation error
func New[T any](alloc Allocator, label string, initial T) (*Block[T], error) {
	size := uint64(unsafe.Sizeof(initial))
	if size == 0 || size%16 != 0 {
		return nil, common.InitializationFailed(fmt.Sprintf("uniform %s", label), fmt.Errorf("size %d is not a multiple of 16", size))
	}
	buf, err := alloc.CreateBuffer(label, size, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	return &Block[T]{label: label, value: initial, buf: buf, dirty: true}, nil
}

// Label returns the block's debug label.
func (b *Block[T]) Label() string {
	return b.label
}

// Value returns a copy of the CPU-side struct.
func (b *Block[T]) Value() T {
	return b.value
}

// Set replaces the whole struct.
func (b *Block[T]) Set(v T) {
	b.value = v
	b.dirty = true
}

// Update mutates the struct in place.
//
// Parameters:
//   - fn: receives a pointer to the CPU-side struct
func (b *Block[T]) Update(fn func(*T)) {
	fn(&b.value)
	b.dirty = true
}

// Dirty reports whether the CPU struct differs from what was last written.
func (b *Block[T]) Dirty() bool {
	return b.dirty
}

// MarkDirty forces the next Flush to upload, used after the buffer is recreated.
func (b *Block[T]) MarkDirty() {
	b.dirty = true
}

// Flush writes the whole struct if it changed.
//
// Parameters:
//   - alloc: the allocator that owns the queue
//
// Returns:
//   - bool: true if a write was queued
func (b *Block[T]) Flush(alloc Allocator) bool {
	if !b.dirty || b.buf == nil {
		return false
	}
	v := b.value
	alloc.WriteBuffer(b.buf, 0, common.StructToBytes(&v))
	b.dirty = false
	b.flushes++
	return true
}

// Flushes returns how many writes the block has issued.
func (b *Block[T]) Flushes() int {
	return b.flushes
}

// Buffer returns the GPU buffer backing the block.
func (b *Block[T]) Buffer() *wgpu.Buffer {
	return b.buf
}

// Size returns the struct size in bytes.
func (b *Block[T]) Size() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// Release frees the GPU buffer.
//
// Parameters:
//   - alloc: the allocator that created it
func (b *Block[T]) Release(alloc Allocator) {
	if b != nil && b.buf != nil {
		alloc.ReleaseBuffer(b.buf)
		b.buf = nil
	}
}

// Flusher is any block that can upload itself; lets callers flush heterogeneous blocks together.
type Flusher interface {
	Flush(alloc Allocator) bool
}

// FlushAll flushes every block and reports how many wrote.
//
// Parameters:
//   - alloc: the allocator that owns the queue
//   - blocks: the blocks to flush
//
// Returns:
//   - int: number of blocks written
func FlushAll(alloc Allocator, blocks ...Flusher) int {
	n := 0
	for _, b := range blocks {
		if b != nil && b.Flush(alloc) {
			n++
		}
	}
	return n
}
