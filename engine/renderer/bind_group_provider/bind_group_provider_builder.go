package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroupLayout sets the bind group layout for this provider. The layout is owned by
// the provider afterwards.
//
// Parameters:
//   - bgl: the bind group layout to use for this provider
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group layout for this provider
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
	}
}

// WithSharedSampler borrows a sampler for a binding.
//
// Parameters:
//   - binding: the binding index for this sampler
//   - s: the sampler, owned elsewhere
//
// Returns:
//   - BindGroupProviderOption: a function that stores the sampler as shared
func WithSharedSampler(binding int, s *wgpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.samplers[binding] = s
		p.sharedSamplers[binding] = true
	}
}

// WithSharedTextureView borrows a texture view for a binding.
//
// Parameters:
//   - binding: the binding index for this view
//   - tv: the texture view, owned elsewhere
//
// Returns:
//   - BindGroupProviderOption: a function that stores the view as shared
func WithSharedTextureView(binding int, tv *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textureViews[binding] = tv
		p.sharedViews[binding] = true
	}
}

// WithSharedBuffer borrows a buffer for a binding, for example a DynamicUniformBuffer shared
// by several bind groups.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer, owned elsewhere
//
// Returns:
//   - BindGroupProviderOption: a function that stores the buffer as shared
func WithSharedBuffer(binding int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
		p.sharedBuffers[binding] = true
	}
}
