package bind_group_provider

// BufferWrite describes a single GPU buffer write targeting a binding on a BindGroupProvider
// at a given byte offset. Uniform owners stage these during a frame and the renderer submits
// them in one batch before recording passes.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
