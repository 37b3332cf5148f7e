package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources. They are populated by the backend, not by user-creation.

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the layout the bind group was created against.
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers holds the GPU buffers for this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// textureViews holds the GPU texture views for this provider, keyed by binding index.
	textureViews map[int]*wgpu.TextureView
	// samplers holds the GPU samplers for this provider, keyed by binding index.
	samplers map[int]*wgpu.Sampler

	// shared marks bindings whose resources are borrowed from a ResourceGraph entry or a render
	// target. Release skips them; their owner destroys them.
	sharedBuffers  map[int]bool
	sharedViews    map[int]bool
	sharedSamplers map[int]bool

	// vertexBuffer is the GPU vertex buffer for this provider, or nil if not initialized.
	vertexBuffer *wgpu.Buffer
	// sharedVertices is true when vertexBuffer is borrowed.
	sharedVertices bool
	// indexBuffer is the GPU index buffer for this provider, or nil for non-indexed meshes.
	indexBuffer *wgpu.Buffer
	// count is the index count for indexed meshes, or the vertex count otherwise.
	count int
}

// BindGroupProvider holds the GPU resources behind one bind group and, for meshes, the vertex
// and index buffers. Renderer components each hold providers; the backend creates the GPU objects
// and stores them back on the provider.
//
// Usage pattern:
//  1. Component creates a BindGroupProvider with a label
//  2. Component sets texture views and samplers, owned or shared
//  3. Backend.InitBindGroup(provider, descriptor, ...) creates buffers and the bind group
//  4. Component writes uniform data and binds BindGroup() during draws
//  5. Component calls Release, which destroys only the resources the provider owns
type BindGroupProvider interface {
	// Release releases the GPU resources owned by this provider. Shared resources are
	// forgotten but not destroyed.
	Release()

	// ReleaseBindGroup destroys only the bind group so it can be recreated, for example after
	// the render targets it samples were rebuilt.
	ReleaseBindGroup()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group, or nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the bind group layout, or nil if not initialized.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the texture view at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// VertexBuffer returns the vertex buffer, or nil.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the index buffer, or nil for non-indexed meshes.
	IndexBuffer() *wgpu.Buffer

	// Count returns the index count for indexed meshes and the vertex count otherwise.
	Count() int

	// SetBindGroup stores the created bind group. Called by the backend.
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout stores the bind group layout. Called by the backend.
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer stores an owned buffer for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer, destroyed by Release
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetSharedBuffer stores a borrowed buffer for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer, not destroyed by Release
	SetSharedBuffer(binding int, buf *wgpu.Buffer)

	// SetTextureView stores an owned texture view for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view, destroyed by Release
	SetTextureView(binding int, tv *wgpu.TextureView)

	// SetSharedTextureView stores a borrowed texture view for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view, not destroyed by Release
	SetSharedTextureView(binding int, tv *wgpu.TextureView)

	// SetSampler stores an owned sampler for a binding.
	SetSampler(binding int, s *wgpu.Sampler)

	// SetSharedSampler stores a borrowed sampler for a binding.
	SetSharedSampler(binding int, s *wgpu.Sampler)

	// SetVertexBuffer stores an owned vertex buffer.
	SetVertexBuffer(buf *wgpu.Buffer)

	// SetSharedVertexBuffer stores a borrowed vertex buffer.
	SetSharedVertexBuffer(buf *wgpu.Buffer)

	// SetIndexBuffer stores an owned index buffer.
	SetIndexBuffer(buf *wgpu.Buffer)

	// SetCount sets the index or vertex count used for draws.
	SetCount(count int)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label used for every GPU object the backend creates for this provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:          label,
		buffers:        make(map[int]*wgpu.Buffer),
		textureViews:   make(map[int]*wgpu.TextureView),
		samplers:       make(map[int]*wgpu.Sampler),
		sharedBuffers:  make(map[int]bool),
		sharedViews:    make(map[int]bool),
		sharedSamplers: make(map[int]bool),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) Count() int {
	return p.count
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
	delete(p.sharedBuffers, binding)
}

func (p *bindGroupProvider) SetSharedBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
	p.sharedBuffers[binding] = true
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
	delete(p.sharedViews, binding)
}

func (p *bindGroupProvider) SetSharedTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
	p.sharedViews[binding] = true
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
	delete(p.sharedSamplers, binding)
}

func (p *bindGroupProvider) SetSharedSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
	p.sharedSamplers[binding] = true
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer) {
	p.vertexBuffer = buf
	p.sharedVertices = false
}

func (p *bindGroupProvider) SetSharedVertexBuffer(buf *wgpu.Buffer) {
	p.vertexBuffer = buf
	p.sharedVertices = true
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer) {
	p.indexBuffer = buf
}

func (p *bindGroupProvider) SetCount(count int) {
	p.count = count
}

func (p *bindGroupProvider) ReleaseBindGroup() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}

func (p *bindGroupProvider) Release() {
	p.ReleaseBindGroup()

	for i, tv := range p.textureViews {
		if tv != nil && !p.sharedViews[i] {
			tv.Release()
		}
		delete(p.textureViews, i)
		delete(p.sharedViews, i)
	}
	for i, s := range p.samplers {
		if s != nil && !p.sharedSamplers[i] {
			s.Release()
		}
		delete(p.samplers, i)
		delete(p.sharedSamplers, i)
	}
	for i, buf := range p.buffers {
		if buf != nil && !p.sharedBuffers[i] {
			buf.Release()
		}
		delete(p.buffers, i)
		delete(p.sharedBuffers, i)
	}

	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	if p.vertexBuffer != nil {
		if !p.sharedVertices {
			p.vertexBuffer.Release()
		}
		p.vertexBuffer = nil
		p.sharedVertices = false
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
}
