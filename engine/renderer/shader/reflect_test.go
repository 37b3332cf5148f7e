package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line", "a // b\nc", "a \nc"},
		{"block", "a /* b */c", "a c"},
		{"nested", "a /* b /* c */ d */e", "a e"},
		{"newlines kept", "a /* b\nc */d", "a \nd"},
		{"trailing line", "a // b", "a "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripComments(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLayoutOf(t *testing.T) {
	r := reflectSource(`
struct Light {
    origin: vec3<f32>,
    radius: f32,
}
struct Block {
    flag: u32,
    lights: array<Light, 4>,
    tail: vec2f,
}
struct Loop {
    next: Loop,
}`)
	tests := []struct {
		typ    string
		want   typeLayout
		wantOK bool
	}{
		{"f32", typeLayout{4, 4}, true},
		{"vec3h", typeLayout{6, 8}, true},
		{"vec3<f32>", typeLayout{12, 16}, true},
		{"mat3x3<f32>", typeLayout{48, 16}, true},
		{"mat4x2f", typeLayout{32, 8}, true},
		{"atomic<u32>", typeLayout{4, 4}, true},
		{"array<vec3<f32>,4>", typeLayout{64, 16}, true},
		{"array<vec4<f32>>", typeLayout{16, 16}, true},
		{"Light", typeLayout{16, 16}, true},
		{"Block", typeLayout{96, 16}, true},
		{"Loop", typeLayout{}, false},
		{"texture_2d<f32>", typeLayout{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, ok := r.layoutOf(tt.typ)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("got %v %t, want %v %t", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestVertexFormat(t *testing.T) {
	tests := []struct {
		typ      string
		want     wgpu.VertexFormat
		wantSize uint64
		wantOK   bool
	}{
		{"u32", wgpu.VertexFormatUint32, 4, true},
		{"vec2f", wgpu.VertexFormatFloat32x2, 8, true},
		{"vec3<i32>", wgpu.VertexFormatSint32x3, 12, true},
		{"vec4h", wgpu.VertexFormatFloat16x4, 8, true},
		{"vec3h", 0, 0, false},
		{"mat4x4<f32>", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, size, ok := vertexFormat(tt.typ)
			if ok != tt.wantOK || (ok && (got != tt.want || size != tt.wantSize)) {
				t.Errorf("got %v %d %t, want %v %d %t", got, size, ok, tt.want, tt.wantSize, tt.wantOK)
			}
		})
	}
}

func TestReflectionSkipsNonVertexInputs(t *testing.T) {
	r := reflectSource(`
struct Out {
    @builtin(position) pos: vec4<f32>,
    @location(0) uv: vec2<f32>,
}
struct Corner {
    @location(0) uv: vec2<f32>,
}
@vertex
fn vs_main(@builtin(vertex_index) i: u32, o: Out, c: Corner) -> Out {
    return o;
}
@group(1) @binding(2) var<storage, read_write> counts: array<u32>;
@group(1) @binding(0) var shadow: sampler_comparison;
@group(1) @binding(1) var sky: texture_cube<f32>;`)

	if got := r.entryPoint(ShaderTypeVertex); got != "vs_main" {
		t.Fatalf("got entry %q, want vs_main", got)
	}
	if got := r.entryPoint(ShaderTypeFragment); got != "" {
		t.Errorf("got fragment entry %q, want none", got)
	}

	layouts := r.vertexLayouts("vs_main")
	if len(layouts) != 1 || layouts[0][0].ArrayStride != 8 {
		t.Errorf("got %v, want the Corner buffer alone in slot 0", layouts)
	}

	descs, names := r.bindGroupLayouts(wgpu.ShaderStageVertex)
	entries := descs[1].Entries
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Sampler.Type != wgpu.SamplerBindingTypeComparison {
		t.Errorf("got sampler %v, want comparison", entries[0].Sampler.Type)
	}
	if entries[1].Texture.ViewDimension != wgpu.TextureViewDimensionCube || entries[1].Texture.SampleType != wgpu.TextureSampleTypeFloat {
		t.Errorf("got texture %+v, want a float cube", entries[1].Texture)
	}
	if entries[2].Buffer.Type != wgpu.BufferBindingTypeStorage || entries[2].Buffer.MinBindingSize != 4 {
		t.Errorf("got buffer %+v, want read-write storage of one u32", entries[2].Buffer)
	}
	if names[1][2] != "counts" {
		t.Errorf("got name %q, want counts", names[1][2])
	}
}
