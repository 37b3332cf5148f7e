package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// typeLayout is the host-shareable size and alignment of a WGSL type.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
type typeLayout struct {
	size  uint64
	align uint64
}

// vectorShape describes a scalar (count 1) or a vector type.
type vectorShape struct {
	scalar string
	count  int
}

var shorthandScalars = map[byte]string{'f': "f32", 'i': "i32", 'u': "u32", 'h': "f16"}

var vertexFormats = map[vectorShape]wgpu.VertexFormat{
	{"f32", 1}: wgpu.VertexFormatFloat32,
	{"f32", 2}: wgpu.VertexFormatFloat32x2,
	{"f32", 3}: wgpu.VertexFormatFloat32x3,
	{"f32", 4}: wgpu.VertexFormatFloat32x4,
	{"i32", 1}: wgpu.VertexFormatSint32,
	{"i32", 2}: wgpu.VertexFormatSint32x2,
	{"i32", 3}: wgpu.VertexFormatSint32x3,
	{"i32", 4}: wgpu.VertexFormatSint32x4,
	{"u32", 1}: wgpu.VertexFormatUint32,
	{"u32", 2}: wgpu.VertexFormatUint32x2,
	{"u32", 3}: wgpu.VertexFormatUint32x3,
	{"u32", 4}: wgpu.VertexFormatUint32x4,
	{"f16", 2}: wgpu.VertexFormatFloat16x2,
	{"f16", 4}: wgpu.VertexFormatFloat16x4,
}

func scalarSize(s string) uint64 {
	switch s {
	case "f32", "i32", "u32", "bool":
		return 4
	case "f16":
		return 2
	}
	return 0
}

func alignUp(align, v uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

// parseShape reads a scalar, "vecN<T>" or a shorthand like "vec3f".
func parseShape(typ string) (vectorShape, bool) {
	if scalarSize(typ) > 0 {
		return vectorShape{typ, 1}, true
	}
	rest, ok := strings.CutPrefix(typ, "vec")
	if !ok || len(rest) < 2 {
		return vectorShape{}, false
	}
	n := int(rest[0] - '0')
	if n < 2 || n > 4 {
		return vectorShape{}, false
	}
	return shapeOf(n, rest[1:])
}

// shapeOf resolves the element type suffix of a vector or matrix: "<T>" or a one letter
// shorthand.
func shapeOf(n int, suffix string) (vectorShape, bool) {
	var scalar string
	switch {
	case len(suffix) == 1:
		scalar = shorthandScalars[suffix[0]]
	case strings.HasPrefix(suffix, "<") && strings.HasSuffix(suffix, ">"):
		scalar = suffix[1 : len(suffix)-1]
	}
	if scalarSize(scalar) == 0 {
		return vectorShape{}, false
	}
	return vectorShape{scalar, n}, true
}

func (v vectorShape) layout() typeLayout {
	s := scalarSize(v.scalar)
	switch v.count {
	case 1:
		return typeLayout{s, s}
	case 2:
		return typeLayout{2 * s, 2 * s}
	default:
		return typeLayout{uint64(v.count) * s, 4 * s}
	}
}

// matrixLayout resolves "matCxR<T>" and its shorthands: C columns of vecR, each padded to
// the column alignment.
func matrixLayout(typ string) (typeLayout, bool) {
	rest, ok := strings.CutPrefix(typ, "mat")
	if !ok || len(rest) < 4 || rest[1] != 'x' {
		return typeLayout{}, false
	}
	cols, rows := int(rest[0]-'0'), int(rest[2]-'0')
	if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
		return typeLayout{}, false
	}
	column, ok := shapeOf(rows, rest[3:])
	if !ok {
		return typeLayout{}, false
	}
	c := column.layout()
	return typeLayout{uint64(cols) * alignUp(c.align, c.size), c.align}, true
}

// vertexFormat maps a vertex attribute type to its wgpu format and byte size.
//
// Parameters:
//   - typ: a compacted WGSL scalar or vector type
//
// Returns:
//   - wgpu.VertexFormat: the attribute format
//   - uint64: the attribute size in bytes
//   - bool: false when the type cannot be a vertex attribute
func vertexFormat(typ string) (wgpu.VertexFormat, uint64, bool) {
	shape, ok := parseShape(typ)
	if !ok {
		return 0, 0, false
	}
	format, ok := vertexFormats[shape]
	if !ok {
		return 0, 0, false
	}
	return format, uint64(shape.count) * scalarSize(shape.scalar), true
}

// layoutOf resolves the size and alignment of typ, computing struct layouts on first use.
//
// Runtime-sized arrays report a single element, which is the smallest binding that can be
// valid.
//
// Parameters:
//   - typ: a compacted WGSL type
//
// Returns:
//   - typeLayout: the resolved layout
//   - bool: false for unknown, recursive or non host-shareable types
func (r *reflection) layoutOf(typ string) (typeLayout, bool) {
	if l, ok := r.layouts[typ]; ok {
		return l, true
	}
	if shape, ok := parseShape(typ); ok {
		return shape.layout(), true
	}
	if l, ok := matrixLayout(typ); ok {
		return l, true
	}
	if inner, ok := strings.CutPrefix(typ, "atomic<"); ok && strings.HasSuffix(inner, ">") {
		return typeLayout{4, 4}, true
	}
	if inner, ok := strings.CutPrefix(typ, "array<"); ok && strings.HasSuffix(inner, ">") {
		return r.arrayLayout(strings.TrimSuffix(inner, ">"))
	}

	s, ok := r.structs[typ]
	if !ok || r.resolving[typ] {
		return typeLayout{}, false
	}
	r.resolving[typ] = true
	defer delete(r.resolving, typ)

	var offset uint64
	align := uint64(1)
	for _, m := range s.members {
		if m.builtin {
			continue
		}
		ml, ok := r.layoutOf(m.typ)
		if !ok {
			return typeLayout{}, false
		}
		offset = alignUp(ml.align, offset) + ml.size
		align = max(align, ml.align)
	}
	l := typeLayout{alignUp(align, offset), align}
	r.layouts[typ] = l
	return l, true
}

// arrayLayout resolves the inside of "array<T, N>" or "array<T>".
func (r *reflection) arrayLayout(params string) (typeLayout, bool) {
	parts := splitList(params)
	elem, ok := r.layoutOf(parts[0])
	if !ok {
		return typeLayout{}, false
	}
	stride := alignUp(elem.align, elem.size)

	count := uint64(1)
	if len(parts) > 1 {
		n, err := strconv.ParseUint(strings.TrimRight(parts[1], "ui"), 10, 64)
		if err != nil || n == 0 {
			return typeLayout{}, false
		}
		count = n
	}
	return typeLayout{count * stride, elem.align}, true
}
