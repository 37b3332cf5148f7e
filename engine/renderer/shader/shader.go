package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader entry point runs in.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	}
	return fmt.Sprintf("ShaderType(%d)", int(t))
}

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              map[int][]wgpu.VertexBufferLayout
	entryPoint                 string
	module                     *wgpu.ShaderModuleDescriptor
	declarations               []Annotation
}

// Shader defines the interface for a pre-processed and parsed WGSL shader stage. It exposes the
// shader's unique key, source code, entry point, bind group layout descriptors and vertex buffer
// layouts needed for pipeline creation.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name for a given group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index for a given group and variable name.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index associated with the variable name, or -1 if not found
	//   - bool: true if the variable name was found, false otherwise
	BindGroupFromVarName(group int, varName string) (int, bool)

	// VertexLayouts retrieves the vertex buffer layouts of the entry point's inputs, keyed by
	// vertex buffer slot.
	//
	// Returns:
	//   - map[int][]wgpu.VertexBufferLayout: layouts keyed by slot
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// EntryPoint returns the entry point name for this shader.
	EntryPoint() string

	// Module returns the wgpu.ShaderModuleDescriptor built from the processed source.
	Module() *wgpu.ShaderModuleDescriptor

	// ShaderType returns the stage of the shader.
	ShaderType() ShaderType

	// Declarations returns the group and texture annotations found while pre-processing.
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader pre-processes WGSL source and parses the layout metadata of one entry point.
// A file holding both a @vertex and a @fragment entry point yields one Shader per stage.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage whose entry point, vertex inputs and bindings are parsed
//   - source: the raw WGSL source, annotations included
//   - pp: the pre-processor; nil uses NewPreProcessor()
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if pre-processing fails or the source has no entry point for shaderType
func NewShader(key string, shaderType ShaderType, source string, pp PreProcessor) (Shader, error) {
	if pp == nil {
		pp = NewPreProcessor()
	}
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: pre-process: %w", key, err)
	}

	s := &shader{
		key:          key,
		source:       processed,
		shaderType:   shaderType,
		declarations: append([]Annotation(nil), pp.Declarations()...),
	}
	r := reflectSource(s.source)
	s.entryPoint = r.entryPoint(shaderType)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no %s entry point", key, shaderType)
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}

	visibility := wgpu.ShaderStageFragment
	if shaderType == ShaderTypeVertex {
		visibility = wgpu.ShaderStageVertex
		s.vertexLayouts = r.vertexLayouts(s.entryPoint)
	} else {
		s.vertexLayouts = make(map[int][]wgpu.VertexBufferLayout)
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = r.bindGroupLayouts(visibility)
	s.applyDynamicOffsets()
	return s, nil
}

// applyDynamicOffsets flags the layout entries declared with the dynamic annotation argument.
func (s *shader) applyDynamicOffsets() {
	for _, d := range s.declarations {
		if !d.Dynamic || d.Group == nil || d.Binding == nil {
			continue
		}
		desc, ok := s.bindGroupLayoutDescriptors[*d.Group]
		if !ok {
			continue
		}
		for i := range desc.Entries {
			if int(desc.Entries[i].Binding) == *d.Binding {
				desc.Entries[i].Buffer.HasDynamicOffset = true
			}
		}
	}
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}
