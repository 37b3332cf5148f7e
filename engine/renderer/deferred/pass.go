package deferred

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/config"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/fullscreen"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/target"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineKey is the key of the resolve pipeline.
const PipelineKey = "deferred"

// Bindings of the resolve bind group.
const (
	bindingSampler  = 0
	bindingDiffuse  = 1
	bindingNormal   = 2
	bindingLight    = 3
	bindingDepth    = 4
	bindingUniforms = 5
)

// resolvePass is the implementation of the ResolvePass interface.
type resolvePass struct {
	mu *sync.Mutex

	backend     backend.Backend
	graph       resource.ResourceGraph
	shaderDir   string
	shading     config.ShadingConfig
	sampleCount uint32

	pipeline pipeline.Pipeline
	quad     *fullscreen.Quad
	uniforms *wgpu.Buffer
	group    bind_group_provider.BindGroupProvider

	params uniform.GPUDeferredUniforms
}

// ResolvePass lights the G-buffer into the resolve color target.
type ResolvePass interface {
	// SetLights replaces the dynamic lights used by the next Record. At most
	// uniform.MaxLights are kept.
	//
	// Parameters:
	//   - lights: the render-space lights
	//
	// Returns:
	//   - int: the number of lights kept
	SetLights(lights []uniform.GPUPointLight) int

	// LightCount returns the number of lights the next Record uploads.
	LightCount() int

	// Rebuild recreates the pipeline for a new sample count or after a shader edit, and the
	// bind group for targets. Call it after targets were rebuilt. On failure the previous
	// pipeline stays in use.
	//
	// Parameters:
	//   - targets: the attachments the pass reads and writes
	//
	// Returns:
	//   - error: an error if the shader or a GPU object could not be created
	Rebuild(targets *target.Targets) error

	// ReloadShaders rebuilds the pipeline at the current sample count, keeping the bind group.
	// On failure the previous pipeline stays in use.
	ReloadShaders() error

	// Record uploads the inverse view projection and lights and records the resolve pass.
	//
	// Parameters:
	//   - encoder: the frame's command encoder
	//   - targets: the attachments; must be the ones passed to the last Rebuild
	//   - viewProj: the frame's projection × view
	Record(encoder *wgpu.CommandEncoder, targets *target.Targets, viewProj common.Mat4)

	// Release releases the pipeline, the bind group, the uniform buffer and the shared quad.
	Release()
}

var _ ResolvePass = &resolvePass{}

// NewResolvePass builds the resolve pipeline and its bind group over targets.
//
// Parameters:
//   - b: the backend
//   - graph: the resource graph holding the shared quad and sampler
//   - cfg: the renderer configuration; ShaderDir and Shading are read
//   - targets: the attachments the pass reads and writes
//
// Returns:
//   - ResolvePass: the pass
//   - error: an error if a GPU object could not be created
func NewResolvePass(b backend.Backend, graph resource.ResourceGraph, cfg config.Config, targets *target.Targets) (ResolvePass, error) {
	p := &resolvePass{
		mu:        &sync.Mutex{},
		backend:   b,
		graph:     graph,
		shaderDir: cfg.Renderer.ShaderDir,
		shading:   cfg.Shading,
	}
	var err error
	if p.quad, err = fullscreen.AcquireQuad(graph, b); err != nil {
		return nil, err
	}
	if p.uniforms, err = b.CreateBuffer("deferred uniforms", wgpu.BufferUsageUniform, uint64(p.params.Size())); err != nil {
		p.Release()
		return nil, fmt.Errorf("deferred uniforms: %w", err)
	}
	if err := p.Rebuild(targets); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *resolvePass) SetLights(lights []uniform.GPUPointLight) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := copy(p.params.Lights[:], lights)
	if len(lights) > n {
		common.LogDebug("deferred: dropped %d lights over the limit of %d", len(lights)-n, uniform.MaxLights)
	}
	p.params.LightCount = uint32(n)
	return n
}

func (p *resolvePass) LightCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.params.LightCount)
}

func (p *resolvePass) Rebuild(targets *target.Targets) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	samples := targets.SampleCount()
	if p.pipeline == nil || samples != p.sampleCount {
		if err := p.buildPipeline(samples); err != nil {
			return err
		}
	}
	return p.buildGroup(targets)
}

func (p *resolvePass) ReloadShaders() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buildPipeline(p.sampleCount)
}

func (p *resolvePass) buildPipeline(samples uint32) error {
	opts := []shader.PreProcessorOption{shader.WithSampleCount(samples)}
	opts = append(opts, shader.ShadingConstants(p.shading)...)

	pl, err := pipeline.FromAsset(PipelineKey, p.shaderDir, shader.AssetDeferred, shader.NewPreProcessor(opts...),
		pipeline.WithColorTargets(pipeline.ColorTarget{Format: target.ColorFormat}),
		pipeline.WithCullMode(wgpu.CullModeNone),
		pipeline.WithSampleCount(samples),
	)
	if err != nil {
		return err
	}
	if err := p.backend.RegisterRenderPipeline(pl); err != nil {
		pl.Release()
		return fmt.Errorf("pipeline %s: %w", PipelineKey, err)
	}
	if p.pipeline != nil {
		resource.Retire(p.graph, resource.KindPipeline, PipelineKey, p.pipeline)
	}
	p.pipeline = pl
	p.sampleCount = samples
	common.LogDebug("deferred: built resolve pipeline at %d samples", samples)
	return nil
}

func (p *resolvePass) buildGroup(targets *target.Targets) error {
	g := &targets.GBuffer
	group := bind_group_provider.NewBindGroupProvider("deferred",
		bind_group_provider.WithSharedSampler(bindingSampler, p.quad.Sampler),
		bind_group_provider.WithSharedTextureView(bindingDiffuse, g.Diffuse.View),
		bind_group_provider.WithSharedTextureView(bindingNormal, g.Normal.View),
		bind_group_provider.WithSharedTextureView(bindingLight, g.Light.View),
		bind_group_provider.WithSharedTextureView(bindingDepth, g.Depth.View),
		bind_group_provider.WithSharedBuffer(bindingUniforms, p.uniforms),
	)
	if err := p.backend.InitBindGroup(group, p.pipeline.BindGroupLayoutDescriptor(0), nil); err != nil {
		group.Release()
		return fmt.Errorf("deferred bind group: %w", err)
	}
	if p.group != nil {
		resource.Retire(p.graph, resource.KindBindGroup, "deferred", p.group)
	}
	p.group = group
	return nil
}

func (p *resolvePass) Record(encoder *wgpu.CommandEncoder, targets *target.Targets, viewProj common.Mat4) {
	p.mu.Lock()
	defer p.mu.Unlock()

	inv, ok := common.Invert4(viewProj)
	if !ok {
		common.LogWarn("deferred: view projection is singular, using identity")
		inv = common.Identity()
	}
	p.params.InvProjection = inv
	p.backend.WriteBuffer(p.uniforms, 0, p.params.Marshal())

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "deferred resolve",
		ColorAttachments: []wgpu.RenderPassColorAttachment{targets.Resolve.ColorAttachment()},
	})
	defer pass.Release()

	pass.SetPipeline(p.pipeline.RenderPipeline())
	pass.SetBindGroup(0, p.group.BindGroup(), nil)
	p.quad.Draw(pass)
	pass.End()
}

func (p *resolvePass) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.group != nil {
		p.group.Release()
		p.group = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.uniforms != nil {
		p.uniforms.Release()
		p.uniforms = nil
	}
	if p.quad != nil {
		p.quad.Release()
		p.quad = nil
	}
}
