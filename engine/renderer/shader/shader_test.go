package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/engine/config"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// testPreProcessor registers the pass-level constants the renderer adds at pipeline build.
func testPreProcessor(samples uint32) PreProcessor {
	return NewPreProcessor(
		WithSampleCount(samples),
		WithConstant("SURFACE_WARP", "1u"),
		WithConstant("SURFACE_SKY", "2u"),
		WithConstant("WARP_AMPLITUDE", FloatLiteral(0.125)),
		WithConstant("WARP_SCALE", FloatLiteral(8)),
		WithConstant("WARP_FREQUENCY", FloatLiteral(1)),
		WithConstant("SKY_SCROLL_SPEED", FloatLiteral(8)),
		WithConstant("SKY_PERIOD", FloatLiteral(128)),
		WithConstant("SATURATION_CEILING", FloatLiteral(4)),
	)
}

func mustStages(t *testing.T, name string, samples uint32) (Shader, Shader) {
	t.Helper()
	src, err := LoadSource("", name)
	if err != nil {
		t.Fatalf("LoadSource(%s): %v", name, err)
	}
	vs, fs, err := NewStagePair(name, src, testPreProcessor(samples))
	if err != nil {
		t.Fatalf("NewStagePair(%s): %v", name, err)
	}
	return vs, fs
}

func TestFloatLiteral(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{4, "4.0"},
		{0.25, "0.25"},
		{128, "128.0"},
		{-1.5, "-1.5"},
	}
	for _, tt := range tests {
		if got := FloatLiteral(tt.in); got != tt.want {
			t.Errorf("FloatLiteral(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProcessConst(t *testing.T) {
	out, err := NewPreProcessor().Process("//@oxy:const MAX_LIGHTS\n//@oxy:const LIGHTMAP_SCALE")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, want := range []string{"const MAX_LIGHTS = 32u;", "const LIGHTMAP_SCALE = 0.25;"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProcessConstOverride(t *testing.T) {
	out, err := NewPreProcessor(WithConstant("SATURATION_CEILING", FloatLiteral(2))).Process("//@oxy:const SATURATION_CEILING")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(out, "const SATURATION_CEILING = 2.0;") {
		t.Errorf("output = %q", out)
	}
}

func TestShadingConstants(t *testing.T) {
	shading := config.Default().Shading
	shading.SkyPeriod = 64
	pp := NewPreProcessor(ShadingConstants(shading)...)
	tests := []struct {
		name string
		want string
	}{
		{"SKY_PERIOD", "const SKY_PERIOD = 64.0;"},
		{"SATURATION_CEILING", "const SATURATION_CEILING = 4.0;"},
		{"LIGHTMAP_SCALE", "const LIGHTMAP_SCALE = 0.25;"},
	}
	for _, tt := range tests {
		out, err := pp.Process("//@oxy:const " + tt.name)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("%s: got %q, want %q", tt.name, out, tt.want)
		}
	}
}

func TestProcessUnknownConst(t *testing.T) {
	if _, err := NewPreProcessor().Process("//@oxy:const NOT_A_CONSTANT"); err == nil {
		t.Fatal("expected error for unknown constant")
	}
}

func TestProcessMalformedAnnotations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown type", "//@oxy:bogus thing"},
		{"unknown struct", "//@oxy:include camera_uniforms"},
		{"bad group number", "//@oxy:group x 0 storage_uniform frame frame_uniforms"},
		{"bad flag", "//@oxy:group 1 0 storage_uniform entity entity_uniforms sometimes"},
		{"bad texture class", "//@oxy:texture 0 1 target stencil"},
		{"empty", "//@oxy:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPreProcessor().Process(tt.src); err == nil {
				t.Errorf("Process(%q) succeeded, want error", tt.src)
			}
		})
	}
}

func TestProcessTextureSampleCount(t *testing.T) {
	src := "//@oxy:texture 0 1 diffuse_target color\n//@oxy:texture 0 4 depth_target depth"
	tests := []struct {
		samples   uint32
		wantColor string
		wantDepth string
	}{
		{1, "var diffuse_target: texture_2d<f32>;", "var depth_target: texture_depth_2d;"},
		{4, "var diffuse_target: texture_multisampled_2d<f32>;", "var depth_target: texture_depth_multisampled_2d;"},
	}
	for _, tt := range tests {
		pp := NewPreProcessor(WithSampleCount(tt.samples))
		out, err := pp.Process(src)
		if err != nil {
			t.Fatalf("samples=%d: %v", tt.samples, err)
		}
		if !strings.Contains(out, tt.wantColor) || !strings.Contains(out, tt.wantDepth) {
			t.Errorf("samples=%d output:\n%s", tt.samples, out)
		}
		if len(pp.Declarations()) != 2 {
			t.Errorf("samples=%d: %d declarations, want 2", tt.samples, len(pp.Declarations()))
		}
	}
}

func TestWithSampleCountFloor(t *testing.T) {
	if got := NewPreProcessor(WithSampleCount(0)).SampleCount(); got != 1 {
		t.Errorf("SampleCount() = %d, want 1", got)
	}
}

func TestNewShaderMissingEntryPoint(t *testing.T) {
	src := "@fragment\nfn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }"
	if _, err := NewShader("frag-only", ShaderTypeVertex, src, nil); err == nil {
		t.Fatal("expected error for missing vertex entry point")
	}
}

func TestWorldVertexLayout(t *testing.T) {
	vs, _ := mustStages(t, AssetWorld, 1)

	layouts := vs.VertexLayouts()
	if len(layouts) != 1 {
		t.Fatalf("got %d vertex slots, want 1", len(layouts))
	}
	layout := layouts[0][0]
	if layout.ArrayStride != 44 {
		t.Errorf("ArrayStride = %d, want 44", layout.ArrayStride)
	}
	if layout.StepMode != wgpu.VertexStepModeVertex {
		t.Errorf("StepMode = %v, want vertex", layout.StepMode)
	}
	if len(layout.Attributes) != 5 {
		t.Fatalf("got %d attributes, want 5", len(layout.Attributes))
	}
	anim := layout.Attributes[4]
	if anim.Format != wgpu.VertexFormatUint32 || anim.Offset != 40 || anim.ShaderLocation != 4 {
		t.Errorf("lightmap_anim attribute = %+v", anim)
	}
}

func TestGlyphInstanceLayout(t *testing.T) {
	vs, _ := mustStages(t, AssetGlyph, 1)

	ordered := OrderedVertexLayouts(vs.VertexLayouts())
	if len(ordered) != 2 {
		t.Fatalf("got %d vertex buffers, want 2", len(ordered))
	}
	if ordered[0].StepMode != wgpu.VertexStepModeVertex || ordered[0].ArrayStride != 16 {
		t.Errorf("slot 0 = %+v", ordered[0])
	}
	if ordered[1].StepMode != wgpu.VertexStepModeInstance || ordered[1].ArrayStride != 20 {
		t.Errorf("slot 1 = %+v", ordered[1])
	}
}

func TestFragmentShaderHasNoVertexLayouts(t *testing.T) {
	_, fs := mustStages(t, AssetDeferred, 1)
	if n := len(fs.VertexLayouts()); n != 0 {
		t.Errorf("fragment stage has %d vertex slots", n)
	}
}

func TestDeferredBindings(t *testing.T) {
	tests := []struct {
		samples     uint32
		multisample bool
		sampleType  wgpu.TextureSampleType
	}{
		{1, false, wgpu.TextureSampleTypeFloat},
		{4, true, wgpu.TextureSampleTypeUnfilterableFloat},
	}
	for _, tt := range tests {
		_, fs := mustStages(t, AssetDeferred, tt.samples)
		desc := fs.BindGroupLayoutDescriptor(0)
		if len(desc.Entries) != 6 {
			t.Fatalf("samples=%d: got %d entries, want 6", tt.samples, len(desc.Entries))
		}

		diffuse := desc.Entries[1]
		if diffuse.Texture.Multisampled != tt.multisample || diffuse.Texture.SampleType != tt.sampleType {
			t.Errorf("samples=%d: diffuse entry = %+v", tt.samples, diffuse.Texture)
		}
		depth := desc.Entries[4]
		if depth.Texture.SampleType != wgpu.TextureSampleTypeDepth || depth.Texture.Multisampled != tt.multisample {
			t.Errorf("samples=%d: depth entry = %+v", tt.samples, depth.Texture)
		}
		uniforms := desc.Entries[5]
		if uniforms.Buffer.Type != wgpu.BufferBindingTypeUniform || uniforms.Buffer.MinBindingSize != 592 {
			t.Errorf("samples=%d: uniforms entry = %+v", tt.samples, uniforms.Buffer)
		}
		if name := fs.BindGroupVarName(0, 5); name != "deferred" {
			t.Errorf("BindGroupVarName(0, 5) = %q", name)
		}
	}
}

func TestDynamicEntityBinding(t *testing.T) {
	vs, _ := mustStages(t, AssetWorld, 1)
	entity := vs.BindGroupLayoutDescriptor(1)
	if len(entity.Entries) != 1 {
		t.Fatalf("group 1 has %d entries", len(entity.Entries))
	}
	if !entity.Entries[0].Buffer.HasDynamicOffset {
		t.Error("entity binding is not dynamic")
	}
	if entity.Entries[0].Buffer.MinBindingSize != 128 {
		t.Errorf("MinBindingSize = %d, want 128", entity.Entries[0].Buffer.MinBindingSize)
	}

	frame := vs.BindGroupLayoutDescriptor(0)
	if frame.Entries[0].Buffer.HasDynamicOffset {
		t.Error("frame binding is dynamic")
	}
	if frame.Entries[0].Buffer.MinBindingSize != 1056 {
		t.Errorf("frame MinBindingSize = %d, want 1056", frame.Entries[0].Buffer.MinBindingSize)
	}
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vs, fs := mustStages(t, AssetWorld, 1)
	merged := MergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())

	if len(merged) != 4 {
		t.Fatalf("got %d groups, want 4", len(merged))
	}
	g0 := merged[0].Entries
	if len(g0) != 3 {
		t.Fatalf("group 0 has %d entries, want 3", len(g0))
	}
	for i, e := range g0 {
		if e.Binding != uint32(i) {
			t.Errorf("entry %d has binding %d", i, e.Binding)
		}
		if e.Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
			t.Errorf("binding %d visibility = %v", e.Binding, e.Visibility)
		}
	}
	if !merged[1].Entries[0].Buffer.HasDynamicOffset {
		t.Error("merge dropped the dynamic flag")
	}
	if merged[3].Entries[0].Texture.ViewDimension != wgpu.TextureViewDimension2DArray {
		t.Errorf("lightmap view dimension = %v", merged[3].Entries[0].Texture.ViewDimension)
	}
}

func TestLoadSourceOverride(t *testing.T) {
	dir := t.TempDir()
	want := "// edited\n"
	if err := os.WriteFile(filepath.Join(dir, AssetBlit), []byte(want), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSource(dir, AssetBlit)
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if got != want {
		t.Errorf("override not used: %q", got)
	}

	embedded, err := LoadSource(dir, AssetQuad)
	if err != nil {
		t.Fatalf("LoadSource fallback: %v", err)
	}
	if !strings.Contains(embedded, "fn vs_main") {
		t.Error("fallback did not return the embedded source")
	}

	if _, err := LoadSource("", "missing.wgsl"); err == nil {
		t.Error("expected error for unknown asset")
	}
}

// TestAssetsCompile checks every built-in shader through naga at both supported sample counts.
func TestAssetsCompile(t *testing.T) {
	for _, samples := range []uint32{1, 4} {
		for _, name := range Assets {
			src, err := LoadSource("", name)
			if err != nil {
				t.Fatal(err)
			}
			processed, err := testPreProcessor(samples).Process(src)
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}

			spirv, err := naga.Compile(processed)
			if err != nil {
				// naga trails the WGSL spec; only front-end failures are ours
				msg := strings.ToLower(err.Error())
				if !strings.Contains(msg, "parse") && !strings.Contains(msg, "syntax") {
					t.Skipf("naga limitation in %s: %v", name, err)
				}
				t.Fatalf("%s (samples=%d): %v", name, samples, err)
			}
			if len(spirv) < 4 {
				t.Fatalf("%s: SPIR-V too short", name)
			}
			magic := uint32(spirv[0]) | uint32(spirv[1])<<8 | uint32(spirv[2])<<16 | uint32(spirv[3])<<24
			if magic != 0x07230203 {
				t.Errorf("%s: invalid SPIR-V magic 0x%08X", name, magic)
			}
		}
	}
}

func TestWatcherQueuesValidEdits(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, func(string) PreProcessor { return testPreProcessor(1) })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	// ignored: not a built-in asset name
	if err := os.WriteFile(filepath.Join(dir, "notes.wgsl"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	// rejected: does not pre-process
	if err := os.WriteFile(filepath.Join(dir, AssetQuad), []byte("//@oxy:const NOPE"), 0o644); err != nil {
		t.Fatal(err)
	}

	var changes []Change
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		changes = append(changes, w.Changes()...)
		time.Sleep(20 * time.Millisecond)
	}
	if len(changes) != 0 {
		t.Errorf("got %d changes for invalid edits", len(changes))
	}
}

func TestWatcherClose(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), func(string) PreProcessor { return NewPreProcessor() })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if got := w.Changes(); got != nil {
		t.Errorf("Changes() after close = %v", got)
	}
}

func TestNewWatcherMissingDir(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "absent"), nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
