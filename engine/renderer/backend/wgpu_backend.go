package backend

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBackendImpl struct {
	mu     sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	width, height uint32

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount

	// frameHeld is true between BeginFrame and Present; a second BeginFrame would otherwise
	// ask the surface for an image that is already acquired.
	frameHeld bool

	// submitted is the serial of the last queue submission, completed the highest serial the
	// device has reported finished.
	submitted uint64
	completed uint64
}

var _ Backend = &wgpuBackendImpl{}

// NewWGPUBackend creates the WebGPU instance, surface, adapter and device.
// The calling goroutine is locked to its OS thread for the lifetime of the process.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - forceFallbackAdapter: request the software adapter
//   - sampleCount: the MSAA sample count of the geometry passes, 1 or 4
//
// Returns:
//   - Backend: the backend
//   - error: an error if no adapter or device could be obtained
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) (Backend, error) {
	if !sampleCount.Valid() {
		return nil, fmt.Errorf("unsupported MSAA sample count %d", sampleCount)
	}

	runtime.LockOSThread()
	b := &wgpuBackendImpl{
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: sampleCount,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	limits := wgpu.DefaultLimits()
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	common.LogInfo("backend: device ready, msaa=%d fallback=%t", sampleCount, forceFallbackAdapter)
	return b, nil
}

func (b *wgpuBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	return b.surfaceFormat
}

func (b *wgpuBackendImpl) SampleCount() MSAASampleCount {
	return b.sampleCount
}

func (b *wgpuBackendImpl) Size() (uint32, uint32) {
	return b.width, b.height
}

func (b *wgpuBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("configure surface: surface reports no formats")
	}
	b.surfaceFormat = capabilities.Formats[0]
	if len(capabilities.AlphaModes) > 0 {
		b.alphaMode = capabilities.AlphaModes[0]
	}
	b.width, b.height = uint32(max(width, 1)), uint32(max(height, 1))

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       b.width,
		Height:      b.height,
		PresentMode: b.presentMode,
		AlphaMode:   b.alphaMode,
	})
	common.LogDebug("backend: surface configured %dx%d format=%v", b.width, b.height, b.surfaceFormat)
	return nil
}

func (b *wgpuBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return fmt.Errorf("pipeline %s: both vertex and fragment shaders must be set", p.PipelineKey())
	}

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return fmt.Errorf("pipeline %s: vertex module: %w", p.PipelineKey(), err)
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return fmt.Errorf("pipeline %s: fragment module: %w", p.PipelineKey(), err)
	}
	defer fs.Release()

	merged := shader.MergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentShader.BindGroupLayoutDescriptors())
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	release := func() {
		for _, l := range bindGroupLayouts {
			if l != nil {
				l.Release()
			}
		}
	}
	for g := 0; g <= maxGroup; g++ {
		desc := merged[g]
		desc.Label = fmt.Sprintf("%s group %d", p.PipelineKey(), g)
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			release()
			return fmt.Errorf("pipeline %s: bind group layout %d: %w", p.PipelineKey(), g, layoutErr)
		}
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		release()
		return fmt.Errorf("pipeline %s: layout: %w", p.PipelineKey(), err)
	}
	defer pipelineLayout.Release()

	targets := make([]wgpu.ColorTargetState, 0, len(p.ColorTargets()))
	for _, t := range p.ColorTargets() {
		targets = append(targets, wgpu.ColorTargetState{
			Format:    common.Coalesce(t.Format, b.surfaceFormat),
			Blend:     t.Blend,
			WriteMask: p.WriteMask(),
		})
	}

	var depthStencil *wgpu.DepthStencilState
	if p.DepthFormat() != wgpu.TextureFormatUndefined {
		depthStencil = &wgpu.DepthStencilState{
			Format:            p.DepthFormat(),
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      p.DepthCompare(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    shader.OrderedVertexLayouts(vertexShader.VertexLayouts()),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: p.SampleCount(),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		release()
		return fmt.Errorf("pipeline %s: %w", p.PipelineKey(), err)
	}

	p.Release()
	p.SetRenderPipeline(created, bindGroupLayouts)
	common.LogDebug("backend: registered pipeline %s (samples=%d groups=%d)", p.PipelineKey(), p.SampleCount(), len(bindGroupLayouts))
	return nil
}

func (b *wgpuBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, count int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " Vertex Buffer",
			Size:  common.AlignUp(uint64(len(vertexData)), 4),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%s: vertex buffer: %w", provider.Label(), err)
		}
		b.queue.WriteBuffer(buf, 0, vertexData)
		provider.SetVertexBuffer(buf)
	}

	if len(indexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " Index Buffer",
			Size:  common.AlignUp(uint64(len(indexData)), 4),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%s: index buffer: %w", provider.Label(), err)
		}
		b.queue.WriteBuffer(buf, 0, indexData)
		provider.SetIndexBuffer(buf)
	}

	provider.SetCount(count)
	return nil
}

func (b *wgpuBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return fmt.Errorf("%s: bind group layout: %w", provider.Label(), err)
		}
		provider.SetBindGroupLayout(layout)
	}

	bindGroupEntries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		switch {
		case isTexture:
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("%s: texture binding %d has no texture view", provider.Label(), binding)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding:     entry.Binding,
				TextureView: tv,
			}
		case isSampler:
			samp := provider.Sampler(binding)
			if samp == nil {
				return fmt.Errorf("%s: sampler binding %d has no sampler", provider.Label(), binding)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Sampler: samp,
			}
		default:
			var usage wgpu.BufferUsage
			switch entry.Buffer.Type {
			case wgpu.BufferBindingTypeUniform:
				usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
			case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
				usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
			}

			buf := provider.Buffer(binding)
			if buf == nil {
				bufSize := entry.Buffer.MinBindingSize
				if overrideSize, ok := bufferSizeOverrides[binding]; ok {
					bufSize = overrideSize
				}
				var bufErr error
				buf, bufErr = b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
					Size:  common.AlignUp(bufSize, 16),
					Usage: usage,
				})
				if bufErr != nil {
					return fmt.Errorf("%s: buffer %d: %w", provider.Label(), binding, bufErr)
				}
				provider.SetBuffer(binding, buf)
			}

			var size uint64 = wgpu.WholeSize
			if entry.Buffer.HasDynamicOffset {
				// each dynamic offset selects one block of the struct's size
				size = entry.Buffer.MinBindingSize
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    size,
			}
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: bindGroupEntries,
	})
	if err != nil {
		return fmt.Errorf("%s: bind group: %w", provider.Label(), err)
	}
	provider.ReleaseBindGroup()
	provider.SetBindGroup(bindGroup)

	return nil
}

func (b *wgpuBackendImpl) CreateTexture(label string, staging common.TextureStagingData) (*Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	format := common.Coalesce(staging.Format, wgpu.TextureFormatRGBA8UnormSrgb)
	layers := staging.LayerCount()
	size := wgpu.Extent3D{
		Width:              staging.Width,
		Height:             staging.Height,
		DepthOrArrayLayers: layers,
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", label, err)
	}

	if len(staging.Pixels) > 0 {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			staging.Pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  staging.Width * staging.BytesPerPixel(),
				RowsPerImage: staging.Height,
			},
			&size,
		)
	}

	dimension := wgpu.TextureViewDimension2D
	if layers > 1 {
		dimension = wgpu.TextureViewDimension2DArray
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           label + " View",
		Format:          format,
		Dimension:       dimension,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: layers,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("texture %s: view: %w", label, err)
	}

	return &Texture{
		Texture:     tex,
		View:        view,
		Format:      format,
		Width:       staging.Width,
		Height:      staging.Height,
		SampleCount: 1,
	}, nil
}

func (b *wgpuBackendImpl) CreateAttachment(desc AttachmentDescriptor) (*Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	samples := max(desc.SampleCount, 1)
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        desc.Format,
		Usage:         wgpu.TextureUsageRenderAttachment | desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("attachment %s: %w", desc.Label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("attachment %s: view: %w", desc.Label, err)
	}
	return &Texture{
		Texture:     tex,
		View:        view,
		Format:      desc.Format,
		Width:       desc.Width,
		Height:      desc.Height,
		SampleCount: samples,
	}, nil
}

func (b *wgpuBackendImpl) CreateSampler(label string, staging common.SamplerStagingData) (*wgpu.Sampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(staging.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(staging.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(staging.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(staging.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(staging.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(staging.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(staging.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(staging.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(staging.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("sampler %s: %w", label, err)
	}
	return samp, nil
}

func (b *wgpuBackendImpl) CreateBuffer(label string, usage wgpu.BufferUsage, size uint64) (*wgpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  common.AlignUp(size, 4),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("buffer %s: %w", label, err)
	}
	return buf, nil
}

func (b *wgpuBackendImpl) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	if buf == nil || len(data) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(buf, offset, data)
}

func (b *wgpuBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuBackendImpl) BeginFrame() (*Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameHeld {
		return nil, errors.New("begin frame: previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("begin frame: %w: %w", ErrSurfaceInvalidated, err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, fmt.Errorf("begin frame: surface view: %w: %w", ErrSurfaceInvalidated, err)
	}

	encoder, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: "Frame Encoder",
	})
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return nil, fmt.Errorf("begin frame: %w: %w", ErrDeviceLost, err)
	}

	b.frameHeld = true
	return &Frame{
		Encoder:        encoder,
		SurfaceView:    view,
		Serial:         b.submitted + 1,
		surfaceTexture: surfaceTexture,
	}, nil
}

func (b *wgpuBackendImpl) EndFrame(frame *Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	commandBuffer, err := frame.Encoder.Finish(nil)
	frame.Encoder.Release()
	frame.Encoder = nil
	if err != nil {
		return fmt.Errorf("end frame: %w: %w", ErrDeviceLost, err)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.submitted++
	frame.submitted = true
	return nil
}

func (b *wgpuBackendImpl) Present(frame *Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frame == nil || frame.surfaceTexture == nil {
		return
	}
	if frame.Encoder != nil {
		frame.Encoder.Release()
		frame.Encoder = nil
	}
	// an image nothing was submitted for is dropped, not shown
	if frame.Submitted() {
		b.surface.Present()
	}

	if frame.SurfaceView != nil {
		frame.SurfaceView.Release()
		frame.SurfaceView = nil
	}
	frame.surfaceTexture.Release()
	frame.surfaceTexture = nil
	b.frameHeld = false
}

func (b *wgpuBackendImpl) Release() {
	if err := b.Wait(context.Background(), b.Submitted()); err != nil {
		common.LogWarn("backend: release: %v", err)
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
