package pipeline

import (
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// AlphaBlend is standard non-premultiplied alpha blending, used by UI quads and glyphs.
var AlphaBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// WithVertexShader sets the vertex shader.
//
// Parameters:
//   - s: the vertex shader
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex shader
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment shader.
//
// Parameters:
//   - s: the fragment shader
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment shader
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithColorTargets replaces the fragment outputs. The G-buffer pass writes three targets.
//
// Parameters:
//   - targets: one entry per @location output, in order
//
// Returns:
//   - PipelineBuilderOption: a function that sets the color targets
func WithColorTargets(targets ...ColorTarget) PipelineBuilderOption {
	return func(p *pipeline) {
		p.colorTargets = targets
	}
}

// WithSampleCount sets the multisample count the pipeline renders at.
func WithSampleCount(count uint32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.sampleCount = count
	}
}

// WithDepth attaches a depth buffer of the given format.
//
// Parameters:
//   - format: the depth attachment format
//   - compare: the depth comparison function
//   - write: whether fragments write depth
//
// Returns:
//   - PipelineBuilderOption: a function that configures the depth attachment
func WithDepth(format wgpu.TextureFormat, compare wgpu.CompareFunction, write bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthFormat = format
		p.depthCompare = compare
		p.depthWriteEnabled = write
	}
}

func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}

func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}

// FromAsset loads a WGSL file, builds both stages with pp and returns a Pipeline configured with
// them and opts. The pipeline still has to be registered with the backend.
//
// Parameters:
//   - key: the pipeline key
//   - overrideDir: a directory searched for the file before the embedded assets; may be empty
//   - asset: the shader file name
//   - pp: the pre-processor for both stages
//   - opts: the fixed-function state
//
// Returns:
//   - Pipeline: the unregistered pipeline
//   - error: an error if the source could not be loaded or parsed
func FromAsset(key, overrideDir, asset string, pp shader.PreProcessor, opts ...PipelineBuilderOption) (Pipeline, error) {
	src, err := shader.LoadSource(overrideDir, asset)
	if err != nil {
		return nil, err
	}
	vs, fs, err := shader.NewStagePair(key, src, pp)
	if err != nil {
		return nil, err
	}
	return NewPipeline(key, append([]PipelineBuilderOption{WithVertexShader(vs), WithFragmentShader(fs)}, opts...)...), nil
}
