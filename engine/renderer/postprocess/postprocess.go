// Package postprocess blends a full-screen color shift over the lit frame. The shift comes
// from simulation state such as a damage flash or an underwater tint.
package postprocess

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/common"
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

// PipelineKey is the key of the post-process pipeline.
const PipelineKey = "postprocess"

// Blend returns the color the pass writes for a destination sample: the shift color weighted
// by its alpha over dst. The result is opaque.
func Blend(dst, shift [4]float32) [4]float32 {
	a := common.Clamp(shift[3], 0, 1)
	return [4]float32{
		shift[0]*a + dst[0]*(1-a),
		shift[1]*a + dst[1]*(1-a),
		shift[2]*a + dst[2]*(1-a),
		1,
	}
}

// CombineShifts folds several color shifts into one, each layered over the ones before it.
// Shifts with no alpha are skipped; the combined alpha never exceeds 1.
func CombineShifts(shifts ...[4]float32) [4]float32 {
	var out [4]float32
	for _, s := range shifts {
		if s[3] <= 0 {
			continue
		}
		a := min(s[3], 1)
		out[3] += a * (1 - out[3])
		w := a / out[3]
		for c := range 3 {
			out[c] = out[c]*(1-w) + s[c]*w
		}
	}
	return out
}

type postProcessPass struct {
	mu *sync.Mutex

	backend     backend.Backend
	graph       resource.ResourceGraph
	shaderDir   string
	sampleCount uint32

	pipeline pipeline.Pipeline
	quad     *fullscreen.Quad
	uniforms *wgpu.Buffer
	group    bind_group_provider.BindGroupProvider

	params uniform.GPUPostProcessUniforms
}

// PostProcessPass draws the color shift into the final target. It records into a render pass
// the caller has begun on the final target, so the UI can draw on top in the same pass.
type PostProcessPass interface {
	// SetColorShift sets the RGBA shift used by the next Record. Alpha is the blend weight.
	SetColorShift(shift [4]float32)

	// ColorShift returns the current shift.
	ColorShift() [4]float32

	// Rebuild recreates the pipeline when the sample count changed and the bind group over the
	// resolve color. Call it after targets were rebuilt.
	//
	// Parameters:
	//   - targets: the attachments the pass reads
	//
	// Returns:
	//   - error: an error if the shader or a GPU object could not be created
	Rebuild(targets *target.Targets) error

	// ReloadShaders rebuilds the pipeline at the current sample count. On failure the previous
	// pipeline stays in use.
	ReloadShaders() error

	// Record uploads the shift and draws the full-screen quad.
	//
	// Parameters:
	//   - pass: a render pass begun with targets.Final.ColorAttachment()
	Record(pass *wgpu.RenderPassEncoder)

	// Release releases the pipeline, the bind group, the uniform buffer and the shared quad.
	Release()
}

var _ PostProcessPass = &postProcessPass{}

// NewPostProcessPass builds the post-process pipeline and its bind group over the resolve
// color of targets.
//
// Parameters:
//   - b: the backend
//   - graph: the resource graph holding the shared quad and sampler
//   - shaderDir: the shader override directory; may be empty
//   - targets: the attachments the pass reads
//
// Returns:
//   - PostProcessPass: the pass
//   - error: an error if a GPU object could not be created
func NewPostProcessPass(b backend.Backend, graph resource.ResourceGraph, shaderDir string, targets *target.Targets) (PostProcessPass, error) {
	p := &postProcessPass{
		mu:        &sync.Mutex{},
		backend:   b,
		graph:     graph,
		shaderDir: shaderDir,
	}
	var err error
	if p.quad, err = fullscreen.AcquireQuad(graph, b); err != nil {
		return nil, err
	}
	if p.uniforms, err = b.CreateBuffer("postprocess uniforms", wgpu.BufferUsageUniform, uint64(p.params.Size())); err != nil {
		p.Release()
		return nil, fmt.Errorf("postprocess uniforms: %w", err)
	}
	if err := p.Rebuild(targets); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *postProcessPass) SetColorShift(shift [4]float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	shift[3] = common.Clamp(shift[3], 0, 1)
	p.params.ColorShift = shift
}

func (p *postProcessPass) ColorShift() [4]float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params.ColorShift
}

func (p *postProcessPass) Rebuild(targets *target.Targets) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if samples := targets.SampleCount(); p.pipeline == nil || samples != p.sampleCount {
		if err := p.buildPipeline(samples); err != nil {
			return err
		}
	}

	group := bind_group_provider.NewBindGroupProvider("postprocess",
		bind_group_provider.WithSharedSampler(0, p.quad.Sampler),
		bind_group_provider.WithSharedTextureView(1, targets.Resolve.Color.View),
		bind_group_provider.WithSharedBuffer(2, p.uniforms),
	)
	if err := p.backend.InitBindGroup(group, p.pipeline.BindGroupLayoutDescriptor(0), nil); err != nil {
		group.Release()
		return fmt.Errorf("postprocess bind group: %w", err)
	}
	if p.group != nil {
		resource.Retire(p.graph, resource.KindBindGroup, PipelineKey, p.group)
	}
	p.group = group
	return nil
}

func (p *postProcessPass) ReloadShaders() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buildPipeline(p.sampleCount)
}

func (p *postProcessPass) buildPipeline(samples uint32) error {
	pl, err := pipeline.FromAsset(PipelineKey, p.shaderDir, shader.AssetPostProcess,
		shader.NewPreProcessor(shader.WithSampleCount(samples)),
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
	p.pipeline, p.sampleCount = pl, samples
	return nil
}

func (p *postProcessPass) Record(pass *wgpu.RenderPassEncoder) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.backend.WriteBuffer(p.uniforms, 0, p.params.Marshal())
	pass.SetPipeline(p.pipeline.RenderPipeline())
	pass.SetBindGroup(0, p.group.BindGroup(), nil)
	p.quad.Draw(pass)
}

func (p *postProcessPass) Release() {
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
