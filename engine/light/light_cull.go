package light

import (
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

// Collect builds the frame's light list: every live light at now whose sphere of influence
// intersects the view frustum, converted to render space. The result holds at most
// uniform.MaxLights entries; later lights are dropped.
//
// Parameters:
//   - ls: the live lights
//   - now: the current level time
//   - frustum: the view frustum in render space, or nil to keep every light
//
// Returns:
//   - []uniform.GPUPointLight: the visible lights
func Collect(ls List, now time.Duration, frustum *common.Frustum) []uniform.GPUPointLight {
	out := make([]uniform.GPUPointLight, 0, uniform.MaxLights)
	ls.Each(func(_ ID, l Light) {
		if len(out) == uniform.MaxLights || l.Expired(now) {
			return
		}
		gl := ToGPULight(l, now)
		if frustum != nil && !frustum.ContainsSphere(gl.Origin, gl.Radius) {
			return
		}
		out = append(out, gl)
	})
	return out
}
