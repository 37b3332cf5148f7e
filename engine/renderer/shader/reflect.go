package shader

import (
	"slices"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// reflection answers the pipeline layout questions a shader module raises: its entry point,
// the vertex buffers that entry point reads and the resources it binds. The source is
// stripped of comments once, when the reflection is built.
type reflection struct {
	src       string
	structs   map[string]wgslStruct
	layouts   map[string]typeLayout
	resolving map[string]bool
}

// reflectSource prepares a reflection of pre-processed WGSL source.
//
// Parameters:
//   - source: WGSL source with all annotations already expanded
//
// Returns:
//   - *reflection: the reflection
func reflectSource(source string) *reflection {
	src := stripComments(source)
	return &reflection{
		src:       src,
		structs:   scanStructs(src),
		layouts:   make(map[string]typeLayout),
		resolving: make(map[string]bool),
	}
}

// entryPoint returns the name of the first function marked with the stage attribute of
// shaderType, or "" when there is none.
func (r *reflection) entryPoint(shaderType ShaderType) string {
	var attr string
	switch shaderType {
	case ShaderTypeVertex:
		attr = "@vertex"
	case ShaderTypeFragment:
		attr = "@fragment"
	default:
		return ""
	}

	for off := 0; ; {
		i := strings.Index(r.src[off:], attr)
		if i < 0 {
			return ""
		}
		off += i + len(attr)
		if off < len(r.src) && isIdentByte(r.src[off]) {
			continue
		}
		if m := fnNameRegex.FindStringSubmatch(r.src[off:]); m != nil {
			return m[1]
		}
		return ""
	}
}

// vertexLayouts derives one vertex buffer per vertex-input struct parameter of entry, in
// parameter order. A vertex-input struct has @location members and no @builtin members;
// parameters of any other type take no slot. Structs named *Instance step per instance.
//
// Parameters:
//   - entry: the vertex entry point name
//
// Returns:
//   - map[int][]wgpu.VertexBufferLayout: the layouts keyed by buffer slot
func (r *reflection) vertexLayouts(entry string) map[int][]wgpu.VertexBufferLayout {
	layouts := make(map[int][]wgpu.VertexBufferLayout)
	for _, p := range fnParams(r.src, entry) {
		s, ok := r.structs[p.typ]
		if !ok {
			continue
		}
		if layout, ok := vertexBuffer(s); ok {
			layouts[len(layouts)] = []wgpu.VertexBufferLayout{layout}
		}
	}
	return layouts
}

// vertexBuffer packs the members of s tightly in declaration order.
func vertexBuffer(s wgslStruct) (wgpu.VertexBufferLayout, bool) {
	layout := wgpu.VertexBufferLayout{StepMode: wgpu.VertexStepModeVertex}
	if strings.HasSuffix(s.name, "Instance") {
		layout.StepMode = wgpu.VertexStepModeInstance
	}
	for _, m := range s.members {
		if m.builtin || m.location < 0 {
			return wgpu.VertexBufferLayout{}, false
		}
		format, size, ok := vertexFormat(m.typ)
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         format,
			Offset:         layout.ArrayStride,
			ShaderLocation: uint32(m.location),
		})
		layout.ArrayStride += size
	}
	return layout, len(layout.Attributes) > 0
}

// bindGroupLayouts turns every @group/@binding variable into a layout entry visible to
// visibility. Buffer entries carry the size of their bound type as MinBindingSize.
//
// Parameters:
//   - visibility: the stage the module runs in
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group, entries sorted by binding
//   - map[int]map[int]string: variable names keyed by group and binding
func (r *reflection) bindGroupLayouts(visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	descs := make(map[int]wgpu.BindGroupLayoutDescriptor)
	names := make(map[int]map[int]string)
	for _, d := range scanResources(r.src) {
		entry := resourceEntry(d, visibility)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := r.layoutOf(d.typ); ok {
				entry.Buffer.MinBindingSize = l.size
			}
		}

		desc := descs[d.group]
		desc.Entries = append(desc.Entries, entry)
		descs[d.group] = desc
		if names[d.group] == nil {
			names[d.group] = make(map[int]string)
		}
		names[d.group][d.binding] = d.name
	}

	for _, desc := range descs {
		slices.SortFunc(desc.Entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
	}
	return descs, names
}

// resourceEntry classifies a resource declaration as a buffer, sampler or sampled texture.
func resourceEntry(d resourceDecl, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: uint32(d.binding), Visibility: visibility}

	space, access, _ := strings.Cut(d.space, ",")
	switch {
	case space == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		return entry
	case space == "storage" && access == "read_write":
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		return entry
	case space == "storage":
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		return entry
	}

	switch d.typ {
	case "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		return entry
	case "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		return entry
	}

	base, param, _ := strings.Cut(d.typ, "<")
	param = strings.TrimSuffix(param, ">")
	kind, depth := strings.CutPrefix(base, "texture_depth_")
	if !depth {
		var ok bool
		if kind, ok = strings.CutPrefix(base, "texture_"); !ok {
			return entry
		}
	}

	multisampled := false
	if dim, ok := strings.CutPrefix(kind, "multisampled_"); ok {
		kind, multisampled = dim, true
	}
	switch kind {
	case "1d":
		entry.Texture.ViewDimension = wgpu.TextureViewDimension1D
	case "2d":
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case "2d_array":
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2DArray
	case "3d":
		entry.Texture.ViewDimension = wgpu.TextureViewDimension3D
	case "cube":
		entry.Texture.ViewDimension = wgpu.TextureViewDimensionCube
	case "cube_array":
		entry.Texture.ViewDimension = wgpu.TextureViewDimensionCubeArray
	default:
		return entry
	}
	entry.Texture.Multisampled = multisampled

	switch {
	case depth:
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
	case param == "i32":
		entry.Texture.SampleType = wgpu.TextureSampleTypeSint
	case param == "u32":
		entry.Texture.SampleType = wgpu.TextureSampleTypeUint
	case multisampled:
		// Multisampled float textures cannot be filtered.
		entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
	default:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
	}
	return entry
}
