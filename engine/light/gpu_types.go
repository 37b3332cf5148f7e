package light

import (
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

// ToGPULight converts a Light into its render-space GPU representation at now.
//
// Parameters:
//   - l: the Light to convert
//   - now: the level time the radius is evaluated at
//
// Returns:
//   - uniform.GPUPointLight: the GPU-aligned representation
func ToGPULight(l Light, now time.Duration) uniform.GPUPointLight {
	return uniform.GPUPointLight{
		Origin: common.SimToRender(l.Origin()),
		Radius: l.Radius(now),
	}
}
