// annotations.go defines the annotation types, argument constants, and parser for the
// Oxy WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed
// with @oxy: that drive struct injection, bind group declaration, constant substitution
// and multisample-aware texture declarations. The parsed results are stored as Annotation
// values and consumed by the PreProcessor.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct definition
	// into the shader at the annotation site.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include frame_uniforms
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration for a
	// registered struct. The optional trailing "dynamic" marks the binding as addressed with a
	// dynamic offset; the layout entry parsed from the output gets HasDynamicOffset set.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type> [dynamic]
	//
	// Example: //@oxy:group 1 0 storage_uniform entity entity_uniforms dynamic
	AnnotationTypeBindingGroup AnnotationType = "group"

	// annotationTypeConst emits a WGSL const whose value comes from the Go side, so limits such
	// as the light cap cannot drift between the two languages.
	//
	// Syntax: //@oxy:const <NAME>
	//
	// Example: //@oxy:const MAX_LIGHTS
	annotationTypeConst AnnotationType = "const"

	// AnnotationTypeTexture declares a texture that is multisampled when the pre-processor runs
	// with a sample count above 1 and a plain 2D texture otherwise.
	//
	// Syntax: //@oxy:texture <group> <binding> <var_name> <color|depth>
	//
	// Example: //@oxy:texture 0 1 diffuse_target color
	AnnotationTypeTexture AnnotationType = "texture"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = struct type key (e.g. "frame_uniforms")
	//   - group:   [0] = address space, [1] = var name, [2] = WGSL type key
	//   - const:   [0] = constant name
	//   - texture: [0] = var name, [1] = texture class
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source where this annotation
	// was found. Used for error reporting.
	Line int

	// Group is the @group index for group and texture annotations. Nil otherwise.
	Group *int

	// Binding is the @binding index for group and texture annotations. Nil otherwise.
	Binding *int

	// Dynamic is set on group annotations that end with "dynamic".
	Dynamic bool
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// These identify registered WGSL struct types. Each maps to a Go mirror in the uniform
// package with an embedded .wgsl asset file.

const (
	AnnotationArgFrameUniforms       AnnotationArg = "frame_uniforms"
	AnnotationArgEntityUniforms      AnnotationArg = "entity_uniforms"
	AnnotationArgTextureUniforms     AnnotationArg = "texture_uniforms"
	AnnotationArgDeferredUniforms    AnnotationArg = "deferred_uniforms"
	AnnotationArgPostProcessUniforms AnnotationArg = "post_process_uniforms"
	AnnotationArgQuadUniforms        AnnotationArg = "quad_uniforms"

	annotationArgWorldVertex   AnnotationArg = "world_vertex"
	annotationArgAliasVertex   AnnotationArg = "alias_vertex"
	annotationArgQuadVertex    AnnotationArg = "quad_vertex"
	annotationArgGlyphInstance AnnotationArg = "glyph_instance"
)

// ── Address space arguments ────────────────────────────────────────────────────

const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read> in WGSL.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"
)

// ── Texture class arguments ────────────────────────────────────────────────────

const (
	// annotationArgTextureColor is a float color attachment.
	annotationArgTextureColor AnnotationArg = "color"

	// annotationArgTextureDepth is a depth attachment.
	annotationArgTextureDepth AnnotationArg = "depth"
)

// annotationArgDynamic is the optional trailing flag of a group annotation.
const annotationArgDynamic = "dynamic"

// validStructTypes lists all AnnotationArg values that are accepted as struct type
// arguments in @oxy:include and @oxy:group annotations. Each entry must have a
// corresponding registryEntry in the PreProcessor's structRegistry.
var validStructTypes = []AnnotationArg{
	AnnotationArgFrameUniforms,
	AnnotationArgEntityUniforms,
	AnnotationArgTextureUniforms,
	AnnotationArgDeferredUniforms,
	AnnotationArgPostProcessUniforms,
	AnnotationArgQuadUniforms,
	annotationArgWorldVertex,
	annotationArgAliasVertex,
	annotationArgQuadVertex,
	annotationArgGlyphInstance,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
}

var validTextureClasses = []AnnotationArg{
	annotationArgTextureColor,
	annotationArgTextureDepth,
}

// parseGroupBinding parses the group and binding indices shared by group and texture annotations.
func parseGroupBinding(kind AnnotationType, groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q in @oxy %s annotation: %v", lineNum, groupArg, kind, err)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q in @oxy %s annotation: %v", lineNum, bindingArg, kind, err)
	}
	return group, binding, nil
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 && len(args) != 7 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires five or six arguments (group, binding, address space, var name, struct type[, dynamic])", lineNum)
		}
		group, binding, err := parseGroupBinding(AnnotationTypeBindingGroup, args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		typeArg := args[5]
		if inner, ok := strings.CutPrefix(typeArg, "array<"); ok {
			typeArg = strings.TrimSuffix(inner, ">")
		}
		if !slices.Contains(validStructTypes, AnnotationArg(typeArg)) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", lineNum, typeArg)
		}
		dynamic := false
		if len(args) == 7 {
			if args[6] != annotationArgDynamic {
				return nil, fmt.Errorf("line %d: unknown flag %q in @oxy group annotation", lineNum, args[6])
			}
			dynamic = true
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
			Dynamic: dynamic,
		}, nil
	case annotationTypeConst:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy const annotation requires exactly one argument", lineNum)
		}
		return &Annotation{
			Type: annotationTypeConst,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeTexture:
		if len(args) != 5 {
			return nil, fmt.Errorf("line %d: @oxy texture annotation requires four arguments (group, binding, var name, class)", lineNum)
		}
		group, binding, err := parseGroupBinding(AnnotationTypeTexture, args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validTextureClasses, AnnotationArg(args[4])) {
			return nil, fmt.Errorf("line %d: unknown texture class %q in @oxy texture annotation", lineNum, args[4])
		}
		return &Annotation{
			Type:    AnnotationTypeTexture,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
