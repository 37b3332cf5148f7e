package game_object

import (
	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/light"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/world"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithEnabled sets whether the GameObject is drawn.
//
// Parameters:
//   - enabled: true to render the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithWorld makes the object the level's world model: drawn with an identity transform and
// never culled. Its origin and angles are ignored.
//
// Parameters:
//   - m: the world brush model
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the world model
func WithWorld(m world.BrushModel) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.world = true
		obj.brush = m
		obj.alias = nil
	}
}

// WithBrushModel sets a brush model, clearing any alias model.
//
// Parameters:
//   - m: the brush model
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the model
func WithBrushModel(m world.BrushModel) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.brush = m
		obj.alias = nil
	}
}

// WithAliasModel sets an alias model, clearing any brush model.
//
// Parameters:
//   - m: the alias model
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the model
func WithAliasModel(m world.AliasModel) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.alias = m
		obj.brush = nil
	}
}

// WithOrigin sets the initial simulation-space position.
//
// Parameters:
//   - origin: the position
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the origin
func WithOrigin(origin common.Vec3) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.origin = origin
	}
}

// WithAngles sets the initial orientation in degrees (pitch, yaw, roll).
//
// Parameters:
//   - angles: the orientation
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the angles
func WithAngles(angles [3]float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.angles = angles
	}
}

// WithSkin selects the initial alias skin.
//
// Parameters:
//   - skin: the skin index
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the skin
func WithSkin(skin int) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.skin = skin
	}
}

// WithLight attaches a dynamic light that follows the object.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - GameObjectBuilderOption: functional option to attach the light
func WithLight(l light.Light) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.attachedLight = l
	}
}
