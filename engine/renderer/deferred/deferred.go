// Package deferred implements the lighting resolve: a full-screen pass that reads every
// G-buffer sample, reconstructs its render-space position from depth and adds the frame's
// dynamic point lights to the light value the geometry pass stored.
//
// The CPU functions in this file compute the same values as deferred.wgsl and are used to
// check its math.
package deferred

import (
	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

// ReconstructPosition unprojects a depth sample back to render space.
//
// Parameters:
//   - invViewProj: the inverse of projection × view
//   - uv: the sample position in [0,1]², v running top to bottom
//   - depth: the depth sample in [0,1]
//
// Returns:
//   - [3]float32: the render-space position
func ReconstructPosition(invViewProj common.Mat4, uv [2]float32, depth float32) [3]float32 {
	ndc := [4]float32{uv[0]*2 - 1, (1-uv[1])*2 - 1, depth, 1}
	p := common.MulVec4(invViewProj, ndc)
	if p[3] == 0 {
		return [3]float32{p[0], p[1], p[2]}
	}
	return [3]float32{p[0] / p[3], p[1] / p[3], p[2] / p[3]}
}

// LightContribution returns the linear falloff of l at pos, or 0 when pos is out of range or
// its surface faces away from the light.
func LightContribution(l uniform.GPUPointLight, pos, normal [3]float32) float32 {
	dir := common.Sub(pos, l.Origin)
	d := common.Length(dir)
	if d >= l.Radius || common.Dot(common.Normalize(dir), normal) >= 0 {
		return 0
	}
	return (l.Radius - d) / l.Radius
}

// DecodeLight undoes the scale the geometry pass stored light with.
func DecodeLight(sample, scale float32) float32 {
	if scale == 0 {
		return 0
	}
	return sample / scale
}

// ResolveLight sums the decoded base light and every dynamic light, clamped to ceiling.
// Lights past uniform.MaxLights are ignored.
//
// Parameters:
//   - base: the decoded light value from the light target
//   - lights: the frame's dynamic lights
//   - pos: the render-space position of the sample
//   - normal: the unit normal of the sample
//   - ceiling: the saturation ceiling
//
// Returns:
//   - float32: the light multiplier applied to the diffuse color
func ResolveLight(base float32, lights []uniform.GPUPointLight, pos, normal [3]float32, ceiling float32) float32 {
	light := base
	for _, l := range lights[:min(len(lights), uniform.MaxLights)] {
		light += LightContribution(l, pos, normal)
	}
	return min(light, ceiling)
}
