package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BufferWrite describes a single GPU buffer write. Either Buffer is set directly, or the
// buffer is looked up on Provider at Binding.
type BufferWrite struct {
	Buffer   *wgpu.Buffer
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Target resolves the buffer the write applies to, or nil if none is bound.
//
// Returns:
//   - *wgpu.Buffer: the destination buffer
func (w BufferWrite) Target() *wgpu.Buffer {
	if w.Buffer != nil {
		return w.Buffer
	}
	if w.Provider == nil {
		return nil
	}
	return w.Provider.Buffer(w.Binding)
}
