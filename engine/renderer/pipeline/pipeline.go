package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ColorTarget describes one fragment output of a render pipeline.
type ColorTarget struct {
	// Format is the attachment format. TextureFormatUndefined selects the surface format.
	Format wgpu.TextureFormat

	// Blend enables blending on this target when non-nil.
	Blend *wgpu.BlendState
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// renderPipeline is set by the backend once the GPU pipeline is created.
	renderPipeline *wgpu.RenderPipeline
	// bindGroupLayouts are created alongside the pipeline, indexed by group.
	bindGroupLayouts []*wgpu.BindGroupLayout

	colorTargets      []ColorTarget
	sampleCount       uint32
	depthFormat       wgpu.TextureFormat
	depthCompare      wgpu.CompareFunction
	depthWriteEnabled bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
}

// Pipeline describes a render pipeline: its shaders, attachments and fixed-function state.
// The GPU object is created by the backend and stored back on the Pipeline.
type Pipeline interface {
	// PipelineKey retrieves the unique key of this pipeline, used as its debug label.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Shader retrieves the shader for the given stage.
	//
	// Parameters:
	//   - shaderType: ShaderTypeVertex or ShaderTypeFragment
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// RenderPipeline returns the GPU pipeline, or nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// BindGroupLayout returns the layout the pipeline was created with for group, or nil.
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// BindGroupLayoutDescriptor returns the descriptor of group merged across both stages.
	// Bind groups created from it are compatible with the pipeline.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the merged descriptor; empty when no stage uses group
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// ColorTargets returns the fragment outputs in location order.
	ColorTargets() []ColorTarget

	// SampleCount returns the multisample count. Zero means 1.
	SampleCount() uint32

	// DepthFormat returns the depth attachment format, or TextureFormatUndefined when the
	// pipeline has no depth attachment.
	DepthFormat() wgpu.TextureFormat

	// DepthCompare returns the depth comparison function.
	DepthCompare() wgpu.CompareFunction

	// DepthWriteEnabled reports whether depth writes are enabled.
	DepthWriteEnabled() bool

	CullMode() wgpu.CullMode

	Topology() wgpu.PrimitiveTopology

	FrontFace() wgpu.FrontFace

	WriteMask() wgpu.ColorWriteMask

	// SetRenderPipeline stores the created GPU pipeline and its bind group layouts.
	//
	// Parameters:
	//   - p: the render pipeline
	//   - layouts: the bind group layouts indexed by group
	SetRenderPipeline(p *wgpu.RenderPipeline, layouts []*wgpu.BindGroupLayout)

	// Release destroys the GPU pipeline and its layouts. The Pipeline can be registered again.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new render Pipeline with the provided options.
// Defaults: one color target in the surface format, sample count 1, no depth attachment,
// counter-clockwise front faces, no culling and a triangle list topology.
//
// Parameters:
//   - pipelineKey: a unique identifier for the pipeline
//   - opts: a variadic list of options to configure the pipeline
//
// Returns:
//   - Pipeline: the configured pipeline
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		colorTargets:      []ColorTarget{{}},
		sampleCount:       1,
		depthFormat:       wgpu.TextureFormatUndefined,
		depthCompare:      wgpu.CompareFunctionAlways,
		depthWriteEnabled: false,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.bindGroupLayouts) {
		return nil
	}
	return p.bindGroupLayouts[group]
}

func (p *pipeline) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	var vs, fs map[int]wgpu.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vs = p.vertexShader.BindGroupLayoutDescriptors()
	}
	if p.fragmentShader != nil {
		fs = p.fragmentShader.BindGroupLayoutDescriptors()
	}
	desc := shader.MergeBindGroupLayouts(vs, fs)[group]
	desc.Label = fmt.Sprintf("%s group %d", p.pipelineKey, group)
	return desc
}

func (p *pipeline) ColorTargets() []ColorTarget {
	return p.colorTargets
}

func (p *pipeline) SampleCount() uint32 {
	return max(p.sampleCount, 1)
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline, layouts []*wgpu.BindGroupLayout) {
	p.renderPipeline = rp
	p.bindGroupLayouts = layouts
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	for _, l := range p.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
	}
	p.bindGroupLayouts = nil
}
