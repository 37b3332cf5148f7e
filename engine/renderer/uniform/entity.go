package uniform

import (
	"github.com/Carmen-Shannon/oxy-quake/common"
)

// EntityContext is the transform state of one draw.
type EntityContext struct {
	transform common.Mat4
	model     common.Mat4
}

// NewEntityContext builds the draw transform for an entity placed in simulation space.
//
// Parameters:
//   - viewProj: the camera's projection * view matrix
//   - origin: the entity origin in simulation space
//   - angles: pitch, yaw and roll in degrees
//
// Returns:
//   - EntityContext: the transform pair for the entity
func NewEntityContext(viewProj common.Mat4, origin common.Vec3, angles [3]float32) EntityContext {
	o := common.SimToRender(origin)
	model := common.Mul4(common.Translate(o[0], o[1], o[2]), common.EntityRotation(angles[0], angles[1], angles[2]))
	return EntityContext{
		transform: common.Mul4(viewProj, model),
		model:     model,
	}
}

// NewWorldEntityContext returns the context for geometry already in render space, such as the
// world brush model.
func NewWorldEntityContext(viewProj common.Mat4) EntityContext {
	return EntityContext{
		transform: viewProj,
		model:     common.Identity(),
	}
}

func (e EntityContext) Transform() common.Mat4 {
	return e.transform
}

func (e EntityContext) Model() common.Mat4 {
	return e.model
}

// Bytes serializes the context as EntityUniforms.
func (e EntityContext) Bytes() []byte {
	u := GPUEntityUniforms{Transform: e.transform, Model: e.model}
	return u.Marshal()
}
