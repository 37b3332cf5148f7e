// Package uniform holds the GPU-visible structs shared by the renderer passes: their canonical
// WGSL definitions, the byte-exact Go mirrors, and the per-frame and per-draw contexts that
// fill them.
package uniform

import (
	_ "embed"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

const (
	// MaxLights caps the dynamic lights uploaded to the deferred resolve pass each frame.
	MaxLights = 32

	// MaxLightmaps is the number of lightmap style slots per face.
	MaxLightmaps = 4

	// LightStyleCount is the size of the light style table.
	LightStyleCount = 64

	// StyleSentinel marks an unused lightmap style slot. Iteration stops at the first one.
	StyleSentinel uint8 = 255

	// LightmapScale compresses the accumulated lightmap into the R8 light attachment.
	LightmapScale = 0.25

	// BlockAlignment is the minimum dynamic uniform offset alignment guaranteed by WebGPU.
	BlockAlignment = 256
)

// expand substitutes the shared constants into a WGSL asset so array sizes always agree
// with the Go mirrors below.
func expand(src string) string {
	return strings.NewReplacer(
		"{{MAX_LIGHTS}}", strconv.Itoa(MaxLights),
		"{{MAX_LIGHTMAPS}}", strconv.Itoa(MaxLightmaps),
		"{{LIGHT_STYLE_COUNT}}", strconv.Itoa(LightStyleCount),
	).Replace(src)
}

var (
	//go:embed assets/frame_uniforms.wgsl
	frameUniformsWGSL string
	//go:embed assets/entity_uniforms.wgsl
	entityUniformsWGSL string
	//go:embed assets/texture_uniforms.wgsl
	textureUniformsWGSL string
	//go:embed assets/deferred_uniforms.wgsl
	deferredUniformsWGSL string
	//go:embed assets/post_process_uniforms.wgsl
	postProcessUniformsWGSL string
	//go:embed assets/quad_uniforms.wgsl
	quadUniformsWGSL string
	//go:embed assets/world_vertex.wgsl
	worldVertexWGSL string
	//go:embed assets/alias_vertex.wgsl
	aliasVertexWGSL string
	//go:embed assets/quad_vertex.wgsl
	quadVertexWGSL string
	//go:embed assets/glyph_instance.wgsl
	glyphInstanceWGSL string
)

// Canonical WGSL sources, injected into shaders by the //@oxy:include annotation.
var (
	// GPUFrameUniformsSource defines FrameUniforms (group 0 of the geometry passes).
	GPUFrameUniformsSource = expand(frameUniformsWGSL)
	// GPUEntityUniformsSource defines EntityUniforms (one dynamic block per draw).
	GPUEntityUniformsSource = expand(entityUniformsWGSL)
	// GPUTextureUniformsSource defines TextureUniforms, the surface kind selector.
	GPUTextureUniformsSource = expand(textureUniformsWGSL)
	// GPUDeferredUniformsSource defines PointLight and DeferredUniforms.
	GPUDeferredUniformsSource = expand(deferredUniformsWGSL)
	// GPUPostProcessUniformsSource defines PostProcessUniforms.
	GPUPostProcessUniformsSource = expand(postProcessUniformsWGSL)
	// GPUQuadUniformsSource defines QuadUniforms (one dynamic block per UI quad).
	GPUQuadUniformsSource = expand(quadUniformsWGSL)
	// GPUWorldVertexSource defines the brush vertex input.
	GPUWorldVertexSource = expand(worldVertexWGSL)
	// GPUAliasVertexSource defines the alias model vertex input.
	GPUAliasVertexSource = expand(aliasVertexWGSL)
	// GPUQuadVertexSource defines the unit quad vertex input.
	GPUQuadVertexSource = expand(quadVertexWGSL)
	// GPUGlyphInstanceSource defines the per-instance glyph input.
	GPUGlyphInstanceSource = expand(glyphInstanceWGSL)
)

func putF32(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}

func putMat4(buf []byte, offset int, m [16]float32) {
	for i := range 16 {
		putF32(buf, offset+i*4, m[i])
	}
}

// GPUFrameUniforms mirrors FrameUniforms. Size: 1056 bytes.
// Each light style value occupies the x lane of a vec4 so the array keeps a 16 byte stride.
type GPUFrameUniforms struct {
	LightStyles [LightStyleCount]float32 // offset    0: array<vec4<f32>, 64>, x lane only
	CameraPos   [3]float32               // offset 1024: vec4<f32>, w = 1
	Time        float32                  // offset 1040
	RawLightmap bool                     // offset 1044: u32
}

// Size returns the struct size in bytes (1056).
func (g *GPUFrameUniforms) Size() int {
	return LightStyleCount*16 + 32
}

// Marshal serializes the struct into its WGSL layout.
func (g *GPUFrameUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, v := range g.LightStyles {
		putF32(buf, i*16, v)
	}
	base := LightStyleCount * 16
	for i := range 3 {
		putF32(buf, base+i*4, g.CameraPos[i])
	}
	putF32(buf, base+12, 1)
	putF32(buf, base+16, g.Time)
	if g.RawLightmap {
		binary.LittleEndian.PutUint32(buf[base+20:], 1)
	}
	return buf
}

// GPUEntityUniforms mirrors EntityUniforms. Size: 128 bytes.
type GPUEntityUniforms struct {
	Transform [16]float32 // offset  0: projection * view * model
	Model     [16]float32 // offset 64: model matrix alone
}

// Size returns the struct size in bytes (128).
func (g *GPUEntityUniforms) Size() int {
	return 128
}

// Marshal serializes the struct into its WGSL layout.
func (g *GPUEntityUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putMat4(buf, 0, g.Transform)
	putMat4(buf, 64, g.Model)
	return buf
}

// GPUTextureUniforms mirrors TextureUniforms. Size: 16 bytes.
type GPUTextureUniforms struct {
	Kind uint32
}

// Size returns the struct size in bytes (16).
func (g *GPUTextureUniforms) Size() int {
	return 16
}

// Marshal serializes the struct into its WGSL layout.
func (g *GPUTextureUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf, g.Kind)
	return buf
}

// GPUPointLight mirrors PointLight. Size: 16 bytes.
type GPUPointLight struct {
	Origin [3]float32
	Radius float32
}

// GPUDeferredUniforms mirrors DeferredUniforms. Size: 592 bytes.
type GPUDeferredUniforms struct {
	InvProjection [16]float32
	LightCount    uint32
	Lights        [MaxLights]GPUPointLight
}

// Size returns the struct size in bytes (592).
func (g *GPUDeferredUniforms) Size() int {
	return 80 + MaxLights*16
}

// Marshal serializes the struct into its WGSL layout. Lights past LightCount are zeroed.
func (g *GPUDeferredUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putMat4(buf, 0, g.InvProjection)
	count := min(g.LightCount, MaxLights)
	binary.LittleEndian.PutUint32(buf[64:], count)
	for i := range int(count) {
		off := 80 + i*16
		l := g.Lights[i]
		putF32(buf, off, l.Origin[0])
		putF32(buf, off+4, l.Origin[1])
		putF32(buf, off+8, l.Origin[2])
		putF32(buf, off+12, l.Radius)
	}
	return buf
}

// GPUPostProcessUniforms mirrors PostProcessUniforms. Size: 16 bytes.
type GPUPostProcessUniforms struct {
	ColorShift [4]float32
}

// Size returns the struct size in bytes (16).
func (g *GPUPostProcessUniforms) Size() int {
	return 16
}

// Marshal serializes the struct into its WGSL layout.
func (g *GPUPostProcessUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, v := range g.ColorShift {
		putF32(buf, i*4, v)
	}
	return buf
}

// GPUQuadUniforms mirrors QuadUniforms. Size: 64 bytes.
type GPUQuadUniforms struct {
	Transform [16]float32
}

// Size returns the struct size in bytes (64).
func (g *GPUQuadUniforms) Size() int {
	return 64
}

// Marshal serializes the struct into its WGSL layout.
func (g *GPUQuadUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putMat4(buf, 0, g.Transform)
	return buf
}

// WorldVertex mirrors the WorldVertex input. Stride: 44 bytes.
type WorldVertex struct {
	Position         [3]float32
	Normal           [3]float32
	DiffuseTexcoord  [2]float32
	LightmapTexcoord [2]float32
	// LightmapAnim holds the four style indices, one per byte, read as a packed u32.
	LightmapAnim [MaxLightmaps]uint8
}

// WorldVertexStride is the byte size of one WorldVertex.
const WorldVertexStride = 44

// MarshalWorldVertices packs vertices into a vertex buffer.
func MarshalWorldVertices(verts []WorldVertex) []byte {
	buf := make([]byte, len(verts)*WorldVertexStride)
	for i, v := range verts {
		off := i * WorldVertexStride
		for j := range 3 {
			putF32(buf, off+j*4, v.Position[j])
			putF32(buf, off+12+j*4, v.Normal[j])
		}
		putF32(buf, off+24, v.DiffuseTexcoord[0])
		putF32(buf, off+28, v.DiffuseTexcoord[1])
		putF32(buf, off+32, v.LightmapTexcoord[0])
		putF32(buf, off+36, v.LightmapTexcoord[1])
		copy(buf[off+40:off+44], v.LightmapAnim[:])
	}
	return buf
}

// AliasVertex mirrors the AliasVertex input. Stride: 32 bytes.
type AliasVertex struct {
	Position        [3]float32
	Normal          [3]float32
	DiffuseTexcoord [2]float32
}

// AliasVertexStride is the byte size of one AliasVertex.
const AliasVertexStride = 32

// MarshalAliasVertices packs vertices into a vertex buffer.
func MarshalAliasVertices(verts []AliasVertex) []byte {
	buf := make([]byte, len(verts)*AliasVertexStride)
	for i, v := range verts {
		off := i * AliasVertexStride
		for j := range 3 {
			putF32(buf, off+j*4, v.Position[j])
			putF32(buf, off+12+j*4, v.Normal[j])
		}
		putF32(buf, off+24, v.DiffuseTexcoord[0])
		putF32(buf, off+28, v.DiffuseTexcoord[1])
	}
	return buf
}

// QuadVertex mirrors the QuadVertex input. Stride: 16 bytes.
type QuadVertex struct {
	Position [2]float32
	Texcoord [2]float32
}

// UnitQuad is the [0,1]² quad as two triangles. Texture v runs top to bottom.
var UnitQuad = [6]QuadVertex{
	{Position: [2]float32{0, 0}, Texcoord: [2]float32{0, 1}},
	{Position: [2]float32{1, 0}, Texcoord: [2]float32{1, 1}},
	{Position: [2]float32{1, 1}, Texcoord: [2]float32{1, 0}},
	{Position: [2]float32{0, 0}, Texcoord: [2]float32{0, 1}},
	{Position: [2]float32{1, 1}, Texcoord: [2]float32{1, 0}},
	{Position: [2]float32{0, 1}, Texcoord: [2]float32{0, 0}},
}

// MarshalQuadVertices packs vertices into a vertex buffer.
func MarshalQuadVertices(verts []QuadVertex) []byte {
	buf := make([]byte, len(verts)*16)
	for i, v := range verts {
		putF32(buf, i*16, v.Position[0])
		putF32(buf, i*16+4, v.Position[1])
		putF32(buf, i*16+8, v.Texcoord[0])
		putF32(buf, i*16+12, v.Texcoord[1])
	}
	return buf
}

// GlyphInstance mirrors the GlyphInstance input. Stride: 20 bytes.
type GlyphInstance struct {
	Position [2]float32
	Scale    [2]float32
	Layer    uint32
}

// GlyphInstanceStride is the byte size of one GlyphInstance.
const GlyphInstanceStride = 20

// MarshalGlyphInstances packs instances into an instance buffer.
func MarshalGlyphInstances(instances []GlyphInstance) []byte {
	buf := make([]byte, len(instances)*GlyphInstanceStride)
	for i, g := range instances {
		off := i * GlyphInstanceStride
		putF32(buf, off, g.Position[0])
		putF32(buf, off+4, g.Position[1])
		putF32(buf, off+8, g.Scale[0])
		putF32(buf, off+12, g.Scale[1])
		binary.LittleEndian.PutUint32(buf[off+16:], g.Layer)
	}
	return buf
}
