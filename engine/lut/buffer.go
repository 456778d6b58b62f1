package lut

import (
	"github.com/Carmen-Shannon/oxy-sim/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Allocator is the slice of the renderer a Buffer needs.
type Allocator interface {
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error)
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
	ReleaseBuffer(buf *wgpu.Buffer)
}

// Buffer is the storage buffer a simulation binds as `lut_table: array<u32>`.
type Buffer struct {
	buf     *wgpu.Buffer
	current *LUT
}

// NewBuffer allocates the table buffer and uploads l.
//
// Parameters:
//   - alloc: the buffer allocator
//   - label: debug label
//   - l: the initial table
//
// Returns:
//   - *Buffer: the GPU table
//   - error: the allocation error
func NewBuffer(alloc Allocator, label string, l *LUT) (*Buffer, error) {
	buf, err := alloc.CreateBuffer(label, Size*4, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	b := &Buffer{buf: buf}
	b.Apply(alloc, l)
	return b, nil
}

// Apply writes a new table into the same buffer. Bind groups referencing the buffer stay valid.
func (b *Buffer) Apply(alloc Allocator, l *LUT) {
	packed := l.Packed()
	alloc.WriteBuffer(b.buf, 0, common.SliceToBytes(packed[:]))
	b.current = l
}

// Current returns the table last written.
func (b *Buffer) Current() *LUT {
	return b.current
}

// GPUBuffer returns the storage buffer.
func (b *Buffer) GPUBuffer() *wgpu.Buffer {
	return b.buf
}

// Release frees the storage buffer.
func (b *Buffer) Release(alloc Allocator) {
	if b.buf != nil {
		alloc.ReleaseBuffer(b.buf)
		b.buf = nil
	}
}
