// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader
// source code for @oxy: annotations, replaces them with generated WGSL declarations
// or injected struct source, and collects a declarations list describing the generated
// bindings.
//
// The pre-processor maintains three registries:
//   - structRegistry: maps AnnotationArg keys to embedded WGSL struct sources and their
//     resolved type names.
//   - addressSpaceRegistry: maps address space argument keys to WGSL var<> syntax strings.
//   - constants: maps WGSL constant names to the literal emitted by @oxy:const.
package shader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the resolved WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "FrameUniforms").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string
	constants            map[string]string
	sampleCount          uint32

	// declarations accumulates group and texture annotations during a Process call.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations,
// replacing them with generated declarations or injected struct sources while collecting
// a declarations list.
type PreProcessor interface {
	// Process takes raw WGSL shader source code and replaces its @oxy: annotations with the
	// corresponding WGSL output.
	//
	// The declarations list is reset at the start of each call and can be retrieved
	// via Declarations() after Process returns.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//
	// Returns:
	//   - string: the processed WGSL shader source code with annotations replaced
	//   - error: an error if any annotation is malformed or references an unknown name
	Process(source string) (string, error)

	// Declarations returns the group and texture annotations collected during the most recent
	// call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation

	// SampleCount returns the sample count textures are declared for.
	SampleCount() uint32
}

var _ PreProcessor = &preProcessor{}

// PreProcessorOption configures a PreProcessor during construction.
type PreProcessorOption func(*preProcessor)

// WithSampleCount selects multisampled texture declarations for counts above 1.
//
// Parameters:
//   - count: the MSAA sample count of the attachments the shader reads
//
// Returns:
//   - PreProcessorOption: a function that sets the sample count
func WithSampleCount(count uint32) PreProcessorOption {
	return func(p *preProcessor) {
		p.sampleCount = max(count, 1)
	}
}

// WithConstant registers or overrides a constant emitted by //@oxy:const.
//
// Parameters:
//   - name: the WGSL constant name
//   - literal: the WGSL literal, including any suffix (e.g. "32u", "0.25")
//
// Returns:
//   - PreProcessorOption: a function that registers the constant
func WithConstant(name, literal string) PreProcessorOption {
	return func(p *preProcessor) {
		p.constants[name] = literal
	}
}

// FloatLiteral formats v as a WGSL abstract float literal.
func FloatLiteral(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// NewPreProcessor creates a new PreProcessor with all registered struct types, address space
// mappings and shared constants pre-populated.
//
// Parameters:
//   - options: a variadic list of options to configure the pre-processor
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(options ...PreProcessorOption) PreProcessor {
	p := &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgFrameUniforms:       {Source: uniform.GPUFrameUniformsSource, Type: "FrameUniforms"},
			AnnotationArgEntityUniforms:      {Source: uniform.GPUEntityUniformsSource, Type: "EntityUniforms"},
			AnnotationArgTextureUniforms:     {Source: uniform.GPUTextureUniformsSource, Type: "TextureUniforms"},
			AnnotationArgDeferredUniforms:    {Source: uniform.GPUDeferredUniformsSource, Type: "DeferredUniforms"},
			AnnotationArgPostProcessUniforms: {Source: uniform.GPUPostProcessUniformsSource, Type: "PostProcessUniforms"},
			AnnotationArgQuadUniforms:        {Source: uniform.GPUQuadUniformsSource, Type: "QuadUniforms"},
			annotationArgWorldVertex:         {Source: uniform.GPUWorldVertexSource, Type: "WorldVertex"},
			annotationArgAliasVertex:         {Source: uniform.GPUAliasVertexSource, Type: "AliasVertex"},
			annotationArgQuadVertex:          {Source: uniform.GPUQuadVertexSource, Type: "QuadVertex"},
			annotationArgGlyphInstance:       {Source: uniform.GPUGlyphInstanceSource, Type: "GlyphInstance"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
			annotationArgStorageTypeRead:    "var<storage, read>",
		},
		constants: map[string]string{
			"MAX_LIGHTS":        strconv.Itoa(uniform.MaxLights) + "u",
			"MAX_LIGHTMAPS":     strconv.Itoa(uniform.MaxLightmaps) + "u",
			"STYLE_SENTINEL":    strconv.Itoa(int(uniform.StyleSentinel)) + "u",
			"LIGHTMAP_SCALE":    FloatLiteral(uniform.LightmapScale),
			"LIGHT_STYLE_COUNT": strconv.Itoa(uniform.LightStyleCount) + "u",
		},
		sampleCount: 1,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *preProcessor) SampleCount() uint32 {
	return p.sampleCount
}

// textureType returns the WGSL type for a texture annotation at the configured sample count.
func (p *preProcessor) textureType(class AnnotationArg) string {
	multisampled := p.sampleCount > 1
	switch {
	case class == annotationArgTextureDepth && multisampled:
		return "texture_depth_multisampled_2d"
	case class == annotationArgTextureDepth:
		return "texture_depth_2d"
	case multisampled:
		return "texture_multisampled_2d<f32>"
	default:
		return "texture_2d<f32>"
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, a.Args[0])
			}
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			varName := string(a.Args[1])
			var wgslType string
			if inner, ok := strings.CutPrefix(string(a.Args[2]), "array<"); ok {
				inner = strings.TrimSuffix(inner, ">")
				wgslType = fmt.Sprintf("array<%s>", p.structRegistry[AnnotationArg(inner)].Type)
			} else {
				wgslType = p.structRegistry[a.Args[2]].Type
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, varName, wgslType))
			p.declarations = append(p.declarations, *a)
		case annotationTypeConst:
			name := string(a.Args[0])
			literal, ok := p.constants[name]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:const %q", i+1, name)
			}
			out = append(out, fmt.Sprintf("const %s = %s;", name, literal))
		case AnnotationTypeTexture:
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) var %s: %s;", *a.Group, *a.Binding, a.Args[0], p.textureType(a.Args[1])))
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
