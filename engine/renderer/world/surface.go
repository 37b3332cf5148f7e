// Package world renders brush and alias models into the G-buffer.
//
// The surface functions in this file are CPU mirrors of the shading math in world.wgsl. They
// use the same operation order as the shader so tests can pin down its behavior without a GPU.
package world

import (
	"math"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/config"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

// skyDistance is the radius of the sky dome the view direction is projected onto.
const skyDistance = 6 * 63

// WarpParams parameterizes the turbulent texcoord offset of warp surfaces.
type WarpParams struct {
	Amplitude float32
	Scale     float32
	Frequency float32
}

// SkyParams parameterizes the scrolling sky layers.
type SkyParams struct {
	// ScrollSpeed is the solid layer speed; clouds scroll at twice this rate.
	ScrollSpeed float32
	// Period is the texcoord range after which the scroll wraps.
	Period float32
}

// DefaultWarpParams returns the warp parameters of the default configuration.
func DefaultWarpParams() WarpParams {
	return WarpParamsFromConfig(config.Default().Shading)
}

// DefaultSkyParams returns the sky parameters of the default configuration.
func DefaultSkyParams() SkyParams {
	return SkyParamsFromConfig(config.Default().Shading)
}

// WarpParamsFromConfig extracts the warp parameters from the shading configuration.
func WarpParamsFromConfig(c config.ShadingConfig) WarpParams {
	return WarpParams{Amplitude: c.WarpAmplitude, Scale: c.WarpScale, Frequency: c.WarpFrequency}
}

// SkyParamsFromConfig extracts the sky parameters from the shading configuration.
func SkyParamsFromConfig(c config.ShadingConfig) SkyParams {
	return SkyParams{ScrollSpeed: c.SkyScrollSpeed, Period: c.SkyPeriod}
}

func fmod(x, y float32) float32 {
	return float32(math.Mod(float64(x), float64(y)))
}

func sin32(x float32) float32 {
	return float32(math.Sin(float64(x)))
}

// SkyTexcoords computes the sky layer texcoords with the default sky parameters.
//
// Parameters:
//   - pos: the surface position in render space
//   - camera: the camera position in render space
//   - time: elapsed time in seconds
//
// Returns:
//   - [2]float32: the solid layer texcoord
//   - [2]float32: the cloud layer texcoord
func SkyTexcoords(pos, camera common.Vec3, time float32) (solid, cloud [2]float32) {
	return DefaultSkyParams().Texcoords(pos, camera, time)
}

// Texcoords projects the view direction onto a flattened dome and scrolls it over time. The
// result is periodic in time with period Period/ScrollSpeed.
//
// Parameters:
//   - pos: the surface position in render space
//   - camera: the camera position in render space
//   - time: elapsed time in seconds
//
// Returns:
//   - [2]float32: the solid layer texcoord
//   - [2]float32: the cloud layer texcoord
func (p SkyParams) Texcoords(pos, camera common.Vec3, time float32) (solid, cloud [2]float32) {
	dir := common.RenderToSim(common.Sub(pos, camera))
	dir[2] *= 3
	dir = common.Mul(dir, skyDistance/max(common.Length(dir), 0.000001))

	solidScroll := fmod(time*p.ScrollSpeed, p.Period)
	cloudScroll := fmod(time*p.ScrollSpeed*2, p.Period)
	solid = [2]float32{(solidScroll + dir[0]) / p.Period, (solidScroll + dir[1]) / p.Period}
	cloud = [2]float32{(cloudScroll + dir[0]) / p.Period, (cloudScroll + dir[1]) / p.Period}
	return solid, cloud
}

// WarpTexcoord offsets uv on each axis by a sine of the other axis, so the offset on either
// axis never exceeds the amplitude.
//
// Parameters:
//   - uv: the undistorted texcoord
//   - time: elapsed time in seconds
//   - params: the warp amplitude, scale and frequency
//
// Returns:
//   - [2]float32: the distorted texcoord
func WarpTexcoord(uv [2]float32, time float32, params WarpParams) [2]float32 {
	swapped := [2]float32{uv[1], uv[0]}
	return [2]float32{
		uv[0] + params.Amplitude*sin32(params.Scale*swapped[0]+params.Frequency*time),
		uv[1] + params.Amplitude*sin32(params.Scale*swapped[1]+params.Frequency*time),
	}
}

// AccumulateLightmap sums lightmap samples weighted by their light style values. Iteration
// stops at the first sentinel style; later slots are never read.
//
// Parameters:
//   - samples: the lightmap sample of each slot
//   - styles: the style index of each slot
//   - table: the frame's light style values
//
// Returns:
//   - float32: the weighted sum, before LightmapScale is applied
//   - int: the number of slots read
func AccumulateLightmap(samples [uniform.MaxLightmaps]float32, styles [uniform.MaxLightmaps]uint8, table *[uniform.LightStyleCount]float32) (sum float32, read int) {
	for i, style := range styles {
		if style == uniform.StyleSentinel {
			break
		}
		read++
		if int(style) < len(table) {
			sum += samples[i] * table[style]
		}
	}
	return sum, read
}

// EncodeLight maps an accumulated light value into the light attachment. A covered fullbright
// sample overrides the lightmap with full intensity.
//
// Parameters:
//   - light: the accumulated lightmap value
//   - fullbright: the fullbright mask sample
//   - scale: the lightmap scale
//
// Returns:
//   - float32: the value written to the light attachment
func EncodeLight(light, fullbright, scale float32) float32 {
	if fullbright > 0 {
		light = 1
	}
	return light * scale
}
