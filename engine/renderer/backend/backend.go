// Package backend wraps the WebGPU device, queue and surface used by the renderer, and tracks
// queue submissions so that shared resources are only destroyed once the GPU is done with them.
package backend

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrSurfaceInvalidated is returned by BeginFrame when the swapchain image could not be
	// acquired, typically because the surface is outdated, lost or timed out.
	ErrSurfaceInvalidated = errors.New("surface invalidated")

	// ErrDeviceLost is returned when the device refuses to create command encoders or finish
	// command buffers.
	ErrDeviceLost = errors.New("device lost")
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately. May tear.
	PresentModeUncapped
)

// MSAASampleCount is the number of samples used by the multisampled geometry, lighting and
// post-process passes. WebGPU guarantees 1 and 4; the renderer only accepts those two.
type MSAASampleCount uint32

const (
	// MSAAOff renders every pass single-sampled.
	MSAAOff MSAASampleCount = 1

	// MSAA4x renders the G-buffer, resolve and post-process passes with 4 samples per pixel.
	MSAA4x MSAASampleCount = 4
)

// Valid reports whether c is a sample count the renderer supports.
func (c MSAASampleCount) Valid() bool {
	return c == MSAAOff || c == MSAA4x
}

// Texture pairs a GPU texture with its default view.
type Texture struct {
	Texture     *wgpu.Texture
	View        *wgpu.TextureView
	Format      wgpu.TextureFormat
	Width       uint32
	Height      uint32
	SampleCount uint32
}

// Release destroys the view and then the texture. Safe on a nil receiver.
func (t *Texture) Release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}

// AttachmentDescriptor describes a render attachment created by CreateAttachment.
type AttachmentDescriptor struct {
	Label       string
	Width       uint32
	Height      uint32
	Format      wgpu.TextureFormat
	SampleCount uint32
	// Usage is OR-ed with TextureUsageRenderAttachment.
	Usage wgpu.TextureUsage
}

// Frame holds the per-frame GPU state between BeginFrame and Present.
type Frame struct {
	// Encoder records every pass of the frame. All passes share it so the implicit ordering
	// between render passes in one command buffer orders G-buffer writes before their reads.
	Encoder *wgpu.CommandEncoder

	// SurfaceView is the swapchain image the blit pass writes into.
	SurfaceView *wgpu.TextureView

	// Serial is the submission serial this frame will have once EndFrame submits it.
	Serial uint64

	surfaceTexture *wgpu.Texture
	submitted      bool
}

// Submitted reports whether EndFrame submitted the frame's commands.
func (f *Frame) Submitted() bool {
	return f != nil && f.submitted
}

// GroupBinding is a bind group set on a render pass at a group index, with optional dynamic
// offsets for bindings declared with a dynamic offset.
type GroupBinding struct {
	Group     uint32
	BindGroup *wgpu.BindGroup
	Offsets   []uint32
}

// Backend is the GPU device abstraction used by the renderer and its passes.
//
// Every method must be called from the goroutine that created the Backend; the constructor
// locks that goroutine to its OS thread, as the surface requires.
type Backend interface {
	resource.Fence

	// Device returns the logical device.
	Device() *wgpu.Device

	// Queue returns the device queue.
	Queue() *wgpu.Queue

	// SurfaceFormat returns the swapchain texture format chosen by ConfigureSurface.
	SurfaceFormat() wgpu.TextureFormat

	// SampleCount returns the multisample count of the geometry passes.
	SampleCount() MSAASampleCount

	// Size returns the configured surface size in pixels.
	Size() (width, height uint32)

	// ConfigureSurface (re)configures the swapchain for the given size. Called on startup and
	// whenever the window is resized or the surface is invalidated.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface reports no supported formats
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the present mode used by the next ConfigureSurface call.
	//
	// Parameters:
	//   - mode: PresentModeVSync or PresentModeUncapped
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline creates the shader modules, bind group layouts, pipeline layout
	// and render pipeline for p, and stores the result on p.
	//
	// Parameters:
	//   - p: the pipeline holding the vertex and fragment shaders and fixed-function state
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers uploads vertex and index data and stores the buffers on provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: raw vertex bytes, skipped when empty
	//   - indexData: raw uint32 index bytes, skipped when empty
	//   - count: the index count, or the vertex count for non-indexed meshes
	//
	// Returns:
	//   - error: an error if a buffer could not be created
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, count int) error

	// InitBindGroup creates any missing buffers for the layout entries in descriptor and the
	// bind group itself, storing both on provider. Texture and sampler bindings must already
	// be set on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider describing and storing the bind group resources
	//   - descriptor: the layout of the bind group
	//   - bufferSizeOverrides: buffer sizes keyed by binding, used for dynamic-offset buffers
	//
	// Returns:
	//   - error: an error if a binding is missing its resource or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error

	// CreateTexture creates a sampled texture and uploads every layer of staging into it.
	//
	// Parameters:
	//   - label: a debug label
	//   - staging: the pixel data, size, layer count and format
	//
	// Returns:
	//   - *Texture: the texture and a view of the matching dimension
	//   - error: an error if creation fails
	CreateTexture(label string, staging common.TextureStagingData) (*Texture, error)

	// CreateAttachment creates a render attachment texture and its view.
	//
	// Parameters:
	//   - desc: the attachment size, format and sample count
	//
	// Returns:
	//   - *Texture: the attachment
	//   - error: an error if creation fails
	CreateAttachment(desc AttachmentDescriptor) (*Texture, error)

	// CreateSampler creates a sampler, falling back to backend defaults for zero fields.
	//
	// Parameters:
	//   - label: a debug label
	//   - staging: the sampler configuration
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler
	//   - error: an error if creation fails
	CreateSampler(label string, staging common.SamplerStagingData) (*wgpu.Sampler, error)

	// CreateBuffer creates an empty buffer with CopyDst added to usage.
	//
	// Parameters:
	//   - label: a debug label
	//   - usage: the buffer usage flags
	//   - size: the size in bytes
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer
	//   - error: an error if creation fails
	CreateBuffer(label string, usage wgpu.BufferUsage, size uint64) (*wgpu.Buffer, error)

	// WriteBuffer queues a write of data into buf at offset.
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// WriteBuffers queues every staged write. Writes whose provider has no buffer at the
	// binding are skipped.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next swapchain image and creates the frame's command encoder.
	//
	// Returns:
	//   - *Frame: the frame state
	//   - error: ErrSurfaceInvalidated if the image could not be acquired, ErrDeviceLost if
	//     the encoder could not be created
	BeginFrame() (*Frame, error)

	// EndFrame finishes the encoder and submits it, advancing the submission serial.
	//
	// Parameters:
	//   - frame: the frame returned by BeginFrame
	//
	// Returns:
	//   - error: ErrDeviceLost if the command buffer could not be finished
	EndFrame(frame *Frame) error

	// Present shows the swapchain image and releases the frame's surface references.
	Present(frame *Frame)

	// Release waits for the queue to drain and releases the device, surface and instance.
	Release()
}

// SetBindGroups sets each binding on pass.
//
// Parameters:
//   - pass: the render pass being recorded
//   - bindings: the bind groups to set, each at its own group index
func SetBindGroups(pass *wgpu.RenderPassEncoder, bindings ...GroupBinding) {
	for _, b := range bindings {
		pass.SetBindGroup(b.Group, b.BindGroup, b.Offsets)
	}
}

// SetMesh binds the vertex buffer of mesh at slot 0 and, if present, its uint32 index buffer.
func SetMesh(pass *wgpu.RenderPassEncoder, mesh bind_group_provider.BindGroupProvider) {
	pass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
	if ib := mesh.IndexBuffer(); ib != nil {
		pass.SetIndexBuffer(ib, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	}
}
