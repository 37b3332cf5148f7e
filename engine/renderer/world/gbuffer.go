package world

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/config"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/target"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group indices shared by the world and alias shaders.
const (
	GroupFrame    = 0
	GroupEntity   = 1
	GroupMaterial = 2
	GroupLightmap = 3
)

// Pipeline keys of the geometry pass.
const (
	WorldPipelineKey = "world"
	AliasPipelineKey = "alias"
)

// Sampler identities in the resource graph.
const (
	diffuseSamplerIdentity  = "world.diffuse_sampler"
	lightmapSamplerIdentity = "world.lightmap_sampler"
)

// BrushDraw is one brush entity queued for the geometry pass.
type BrushDraw struct {
	Model BrushModel
	// Entity holds the transform of the entity; the world itself uses NewWorldEntityContext.
	Entity uniform.EntityContext
	// Frame is the entity frame; non-zero selects alternate texture animations.
	Frame int
}

// AliasDraw is one alias model entity queued for the geometry pass.
type AliasDraw struct {
	Model    AliasModel
	Entity   uniform.EntityContext
	Keyframe int
	Skin     int
}

// gbufferPass is the implementation of the GBufferPass interface.
type gbufferPass struct {
	mu *sync.Mutex

	backend     backend.Backend
	graph       resource.ResourceGraph
	shaderDir   string
	shading     config.ShadingConfig
	sampleCount uint32

	world pipeline.Pipeline
	alias pipeline.Pipeline

	diffuseSampler  resource.Handle
	lightmapSampler resource.Handle

	worldFrame bind_group_provider.BindGroupProvider
	aliasFrame bind_group_provider.BindGroupProvider
	entity     bind_group_provider.BindGroupProvider
	entities   uniform.DynamicUniformBuffer
}

// GBufferPass renders brush and alias models into the G-buffer attachments. Every surface
// writes its diffuse color, its normal encoded as n/2+0.5, and its pre-lit light value, with
// depth testing against the shared depth attachment.
type GBufferPass interface {
	// Layout returns the bind group layout descriptor the given pipeline expects at group.
	// Brush and alias models create their material and lightmap bind groups from it.
	//
	// Parameters:
	//   - key: WorldPipelineKey or AliasPipelineKey
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the merged layout descriptor
	Layout(key string, group int) wgpu.BindGroupLayoutDescriptor

	// SampleCount returns the sample count the pipelines were built for.
	SampleCount() uint32

	// Rebuild recreates both pipelines, picking up shader edits and a new sample count.
	// On failure the previous pipelines stay in use.
	//
	// Parameters:
	//   - sampleCount: the sample count of the G-buffer attachments
	//
	// Returns:
	//   - error: an error if a shader failed to build or a pipeline could not be created
	Rebuild(sampleCount uint32) error

	// Record uploads the frame and entity uniforms and records the geometry render pass.
	// Draws that no longer fit the entity uniform buffer are skipped with a warning.
	//
	// Parameters:
	//   - encoder: the frame's command encoder
	//   - gbuffer: the attachments to render into
	//   - frame: the per-frame snapshot
	//   - elapsed: the level time driving texture and model animations
	//   - brushes: the brush entities to draw, world first
	//   - aliases: the alias model entities to draw
	Record(encoder *wgpu.CommandEncoder, gbuffer *target.GBufferTarget, frame uniform.FrameContext, elapsed time.Duration, brushes []BrushDraw, aliases []AliasDraw)

	// Release releases the pipelines, the pass-owned bind groups and the sampler references.
	Release()
}

var _ GBufferPass = &gbufferPass{}

// NewGBufferPass builds the world and alias pipelines and the bind groups shared by every draw.
//
// Parameters:
//   - b: the backend
//   - graph: the resource graph holding the shared samplers
//   - cfg: the renderer configuration; ShaderDir and Shading are read
//   - sampleCount: the sample count of the G-buffer attachments
//
// Returns:
//   - GBufferPass: the pass
//   - error: an error if a pipeline, bind group or sampler could not be created
func NewGBufferPass(b backend.Backend, graph resource.ResourceGraph, cfg config.Config, sampleCount uint32) (GBufferPass, error) {
	p := &gbufferPass{
		mu:        &sync.Mutex{},
		backend:   b,
		graph:     graph,
		shaderDir: cfg.Renderer.ShaderDir,
		shading:   cfg.Shading,
	}
	if err := p.Rebuild(sampleCount); err != nil {
		return nil, err
	}
	if err := p.initSharedGroups(); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *gbufferPass) preProcessor() shader.PreProcessor {
	opts := []shader.PreProcessorOption{shader.WithSampleCount(p.sampleCount)}
	opts = append(opts, material.ShaderConstants()...)
	opts = append(opts, shader.ShadingConstants(p.shading)...)
	return shader.NewPreProcessor(opts...)
}

func (p *gbufferPass) buildPipeline(key, asset string, pp shader.PreProcessor) (pipeline.Pipeline, error) {
	formats := target.GBufferTarget{}.ColorFormats()
	targets := make([]pipeline.ColorTarget, len(formats))
	for i, f := range formats {
		targets[i] = pipeline.ColorTarget{Format: f}
	}
	pl, err := pipeline.FromAsset(key, p.shaderDir, asset, pp,
		pipeline.WithColorTargets(targets...),
		pipeline.WithDepth(target.DepthFormat, wgpu.CompareFunctionLessEqual, true),
		pipeline.WithFrontFace(wgpu.FrontFaceCW),
		pipeline.WithCullMode(wgpu.CullModeNone),
		pipeline.WithSampleCount(p.sampleCount),
	)
	if err != nil {
		return nil, err
	}
	if err := p.backend.RegisterRenderPipeline(pl); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", key, err)
	}
	return pl, nil
}

func (p *gbufferPass) Rebuild(sampleCount uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prevSamples := p.sampleCount
	p.sampleCount = max(sampleCount, 1)
	pp := p.preProcessor()

	world, err := p.buildPipeline(WorldPipelineKey, shader.AssetWorld, pp)
	if err != nil {
		p.sampleCount = prevSamples
		return err
	}
	alias, err := p.buildPipeline(AliasPipelineKey, shader.AssetAlias, pp)
	if err != nil {
		world.Release()
		p.sampleCount = prevSamples
		return err
	}

	// the previous pipelines may still be referenced by an in-flight submission
	for _, old := range []pipeline.Pipeline{p.world, p.alias} {
		if old != nil {
			resource.Retire(p.graph, resource.KindPipeline, old.PipelineKey(), old)
		}
	}
	p.world, p.alias = world, alias
	common.LogDebug("world: built geometry pipelines at %d samples", p.sampleCount)
	return nil
}

func (p *gbufferPass) initSharedGroups() error {
	var diffuse, lightmap *wgpu.Sampler
	var err error
	if p.diffuseSampler, diffuse, err = material.AcquireSampler(p.graph, p.backend, diffuseSamplerIdentity, common.DiffuseSampler); err != nil {
		return err
	}
	if p.lightmapSampler, lightmap, err = material.AcquireSampler(p.graph, p.backend, lightmapSamplerIdentity, common.LightmapSampler); err != nil {
		return err
	}

	p.worldFrame = bind_group_provider.NewBindGroupProvider("world frame",
		bind_group_provider.WithSharedSampler(1, diffuse),
		bind_group_provider.WithSharedSampler(2, lightmap),
	)
	if err := p.backend.InitBindGroup(p.worldFrame, p.world.BindGroupLayoutDescriptor(GroupFrame), nil); err != nil {
		return fmt.Errorf("world frame bind group: %w", err)
	}

	p.aliasFrame = bind_group_provider.NewBindGroupProvider("alias frame",
		bind_group_provider.WithSharedBuffer(0, p.worldFrame.Buffer(0)),
		bind_group_provider.WithSharedSampler(1, diffuse),
	)
	if err := p.backend.InitBindGroup(p.aliasFrame, p.alias.BindGroupLayoutDescriptor(GroupFrame), nil); err != nil {
		return fmt.Errorf("alias frame bind group: %w", err)
	}

	p.entity = bind_group_provider.NewBindGroupProvider("entity")
	if err := p.backend.InitBindGroup(p.entity, p.world.BindGroupLayoutDescriptor(GroupEntity), map[int]uint64{0: uniform.DynamicBufferSize}); err != nil {
		return fmt.Errorf("entity bind group: %w", err)
	}
	var eu uniform.GPUEntityUniforms
	p.entities = uniform.NewDynamicUniformBuffer("entity", p.entity.Buffer(0), uniform.DynamicBufferSize, eu.Size())
	return nil
}

func (p *gbufferPass) Layout(key string, group int) wgpu.BindGroupLayoutDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch key {
	case WorldPipelineKey:
		return p.world.BindGroupLayoutDescriptor(group)
	case AliasPipelineKey:
		return p.alias.BindGroupLayoutDescriptor(group)
	default:
		panic(fmt.Sprintf("world: unknown pipeline key %q", key))
	}
}

func (p *gbufferPass) SampleCount() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sampleCount
}

// allocate stages one entity block, returning false once the buffer is full.
func (p *gbufferPass) allocate(ctx uniform.EntityContext) (uniform.Block, bool) {
	block, err := p.entities.Allocate()
	if err != nil {
		return uniform.Block{}, false
	}
	p.entities.Write(block, ctx.Bytes())
	return block, true
}

func (p *gbufferPass) Record(encoder *wgpu.CommandEncoder, gbuffer *target.GBufferTarget, frame uniform.FrameContext, elapsed time.Duration, brushes []BrushDraw, aliases []AliasDraw) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.backend.WriteBuffer(p.worldFrame.Buffer(0), 0, frame.Bytes())

	p.entities.Reset()
	brushBlocks := make([]uniform.Block, 0, len(brushes))
	for _, d := range brushes {
		block, ok := p.allocate(d.Entity)
		if !ok {
			break
		}
		brushBlocks = append(brushBlocks, block)
	}
	aliasBlocks := make([]uniform.Block, 0, len(aliases))
	for _, d := range aliases {
		block, ok := p.allocate(d.Entity)
		if !ok {
			break
		}
		aliasBlocks = append(aliasBlocks, block)
	}
	if dropped := len(brushes) + len(aliases) - len(brushBlocks) - len(aliasBlocks); dropped > 0 {
		common.LogWarn("world: %v: skipped %d entities", resource.ErrResourceExhausted, dropped)
	}
	p.entities.Flush(p.backend)

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  "gbuffer",
		ColorAttachments:       gbuffer.ColorAttachments(),
		DepthStencilAttachment: gbuffer.DepthAttachment(),
	})
	defer pass.Release()

	if len(brushBlocks) > 0 {
		pass.SetPipeline(p.world.RenderPipeline())
		pass.SetBindGroup(GroupFrame, p.worldFrame.BindGroup(), nil)
		for i, block := range brushBlocks {
			d := brushes[i]
			pass.SetBindGroup(GroupEntity, p.entity.BindGroup(), []uint32{block.Offset()})
			d.Model.Record(pass, elapsed, d.Frame)
		}
	}

	if len(aliasBlocks) > 0 {
		pass.SetPipeline(p.alias.RenderPipeline())
		pass.SetBindGroup(GroupFrame, p.aliasFrame.BindGroup(), nil)
		for i, block := range aliasBlocks {
			d := aliases[i]
			pass.SetBindGroup(GroupEntity, p.entity.BindGroup(), []uint32{block.Offset()})
			d.Model.Record(pass, elapsed, d.Keyframe, d.Skin)
		}
	}

	pass.End()
	p.graph.MarkUsed(p.diffuseSampler)
	p.graph.MarkUsed(p.lightmapSampler)
}

func (p *gbufferPass) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, bg := range []*bind_group_provider.BindGroupProvider{&p.aliasFrame, &p.worldFrame, &p.entity} {
		if *bg != nil {
			(*bg).Release()
			*bg = nil
		}
	}
	for _, pl := range []*pipeline.Pipeline{&p.world, &p.alias} {
		if *pl != nil {
			(*pl).Release()
			*pl = nil
		}
	}
	for _, h := range []*resource.Handle{&p.diffuseSampler, &p.lightmapSampler} {
		if !h.IsZero() {
			if err := p.graph.Release(*h); err != nil && !errors.Is(err, resource.ErrStaleHandle) {
				common.LogWarn("world: release sampler: %v", err)
			}
			*h = resource.Handle{}
		}
	}
}
