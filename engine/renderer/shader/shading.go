package shader

import (
	"github.com/Carmen-Shannon/oxy-quake/engine/config"
)

// ShadingConstants returns the pre-processor options that bake the configurable shading
// constants into the surface, resolve and sky shaders.
//
// Parameters:
//   - c: the shading configuration
//
// Returns:
//   - []PreProcessorOption: one WithConstant option per shading constant
func ShadingConstants(c config.ShadingConfig) []PreProcessorOption {
	return []PreProcessorOption{
		WithConstant("SATURATION_CEILING", FloatLiteral(c.SaturationCeiling)),
		WithConstant("LIGHTMAP_SCALE", FloatLiteral(c.LightmapScale)),
		WithConstant("WARP_AMPLITUDE", FloatLiteral(c.WarpAmplitude)),
		WithConstant("WARP_SCALE", FloatLiteral(c.WarpScale)),
		WithConstant("WARP_FREQUENCY", FloatLiteral(c.WarpFrequency)),
		WithConstant("SKY_SCROLL_SPEED", FloatLiteral(c.SkyScrollSpeed)),
		WithConstant("SKY_PERIOD", FloatLiteral(c.SkyPeriod)),
	}
}
