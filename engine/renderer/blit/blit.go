// Package blit copies the single-sample final color onto the swapchain image. It is the only
// pass that renders in the surface format.
package blit

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/fullscreen"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/target"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineKey is the key of the blit pipeline.
const PipelineKey = "blit"

type blitPass struct {
	backend   backend.Backend
	graph     resource.ResourceGraph
	shaderDir string
	format    wgpu.TextureFormat

	pipeline pipeline.Pipeline
	quad     *fullscreen.Quad
	group    bind_group_provider.BindGroupProvider
}

// BlitPass draws the final target onto the surface.
type BlitPass interface {
	// Rebuild recreates the bind group over the final output, and the pipeline if the surface
	// format changed. Call it after targets were rebuilt or the surface was reconfigured.
	Rebuild(targets *target.Targets) error

	// ReloadShaders rebuilds the pipeline. On failure the previous pipeline stays in use.
	ReloadShaders() error

	// Record records the blit into the frame's surface view.
	//
	// Parameters:
	//   - encoder: the frame's command encoder
	//   - surface: the swapchain image view
	Record(encoder *wgpu.CommandEncoder, surface *wgpu.TextureView)

	// Release releases the pipeline, the bind group and the shared quad.
	Release()
}

var _ BlitPass = &blitPass{}

// NewBlitPass builds the blit pipeline for the backend's surface format.
//
// Parameters:
//   - b: the backend; its surface must already be configured
//   - graph: the resource graph holding the shared quad and sampler
//   - shaderDir: the shader override directory; may be empty
//   - targets: the attachments the pass reads
//
// Returns:
//   - BlitPass: the pass
//   - error: an error if a GPU object could not be created
func NewBlitPass(b backend.Backend, graph resource.ResourceGraph, shaderDir string, targets *target.Targets) (BlitPass, error) {
	p := &blitPass{backend: b, graph: graph, shaderDir: shaderDir}
	var err error
	if p.quad, err = fullscreen.AcquireQuad(graph, b); err != nil {
		return nil, err
	}
	if err := p.Rebuild(targets); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *blitPass) Rebuild(targets *target.Targets) error {
	if format := p.backend.SurfaceFormat(); p.pipeline == nil || format != p.format {
		if err := p.buildPipeline(format); err != nil {
			return err
		}
	}

	group := bind_group_provider.NewBindGroupProvider("blit",
		bind_group_provider.WithSharedSampler(0, p.quad.Sampler),
		bind_group_provider.WithSharedTextureView(1, targets.Final.Output().View),
	)
	if err := p.backend.InitBindGroup(group, p.pipeline.BindGroupLayoutDescriptor(0), nil); err != nil {
		group.Release()
		return fmt.Errorf("blit bind group: %w", err)
	}
	if p.group != nil {
		resource.Retire(p.graph, resource.KindBindGroup, PipelineKey, p.group)
	}
	p.group = group
	return nil
}

func (p *blitPass) ReloadShaders() error {
	return p.buildPipeline(p.format)
}

func (p *blitPass) buildPipeline(format wgpu.TextureFormat) error {
	pl, err := pipeline.FromAsset(PipelineKey, p.shaderDir, shader.AssetBlit, shader.NewPreProcessor(),
		pipeline.WithColorTargets(pipeline.ColorTarget{Format: format}),
		pipeline.WithCullMode(wgpu.CullModeNone),
		pipeline.WithSampleCount(1),
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
	p.pipeline, p.format = pl, format
	common.LogDebug("blit: built pipeline for %v", format)
	return nil
}

func (p *blitPass) Record(encoder *wgpu.CommandEncoder, surface *wgpu.TextureView) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "blit",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       surface,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{A: 1},
		}},
	})
	defer pass.Release()

	pass.SetPipeline(p.pipeline.RenderPipeline())
	pass.SetBindGroup(0, p.group.BindGroup(), nil)
	p.quad.Draw(pass)
	pass.End()
}

func (p *blitPass) Release() {
	if p.group != nil {
		p.group.Release()
		p.group = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.quad != nil {
		p.quad.Release()
		p.quad = nil
	}
}
