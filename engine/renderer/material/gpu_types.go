package material

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

// SurfaceKind selects the shading variant of a brush surface. The value is written verbatim into
// TextureUniforms.kind and compared against the SURFACE_* constants in the world shader.
type SurfaceKind uint32

const (
	// SurfaceRegular is a lightmapped surface with pass-through texcoords.
	SurfaceRegular SurfaceKind = iota

	// SurfaceWarp is a turbulent liquid surface. Texcoords are displaced over time and the
	// surface is drawn at full brightness.
	SurfaceWarp

	// SurfaceSky is a two-layer scrolling sky. Texcoords are derived from the view direction.
	SurfaceSky
)

func (k SurfaceKind) String() string {
	switch k {
	case SurfaceRegular:
		return "regular"
	case SurfaceWarp:
		return "warp"
	case SurfaceSky:
		return "sky"
	}
	return fmt.Sprintf("SurfaceKind(%d)", uint32(k))
}

// Valid reports whether k is one of the defined surface kinds.
func (k SurfaceKind) Valid() bool {
	return k <= SurfaceSky
}

// MustValid returns k, panicking if it is not a defined kind. A kind outside the set can only
// come from memory corruption or a programming error, and drawing it would select no shader path.
func (k SurfaceKind) MustValid() SurfaceKind {
	if !k.Valid() {
		panic(fmt.Sprintf("material: unknown surface kind %d reached dispatch", uint32(k)))
	}
	return k
}

// Special reports whether surfaces of this kind skip lightmapping.
func (k SurfaceKind) Special() bool {
	return k.MustValid() != SurfaceRegular
}

// KindFromName derives the surface kind from a texture name: a "sky" prefix selects SurfaceSky,
// a "*" prefix SurfaceWarp and anything else SurfaceRegular.
func KindFromName(name string) SurfaceKind {
	switch {
	case strings.HasPrefix(name, "sky"):
		return SurfaceSky
	case strings.HasPrefix(name, "*"):
		return SurfaceWarp
	default:
		return SurfaceRegular
	}
}

// Uniforms returns the per-texture uniform block for k.
func (k SurfaceKind) Uniforms() uniform.GPUTextureUniforms {
	return uniform.GPUTextureUniforms{Kind: uint32(k.MustValid())}
}

// ShaderConstants returns the pre-processor options that define SURFACE_WARP and SURFACE_SKY,
// so the shader compares against the same values this package writes.
func ShaderConstants() []shader.PreProcessorOption {
	return []shader.PreProcessorOption{
		shader.WithConstant("SURFACE_REGULAR", strconv.FormatUint(uint64(SurfaceRegular), 10)+"u"),
		shader.WithConstant("SURFACE_WARP", strconv.FormatUint(uint64(SurfaceWarp), 10)+"u"),
		shader.WithConstant("SURFACE_SKY", strconv.FormatUint(uint64(SurfaceSky), 10)+"u"),
	}
}
