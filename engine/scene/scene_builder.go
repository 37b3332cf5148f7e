package scene

import (
	"github.com/Carmen-Shannon/oxy-quake/engine/game_object"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.addLocked(obj)
		}
	}
}

// WithLightStyles sets the initial style patterns, starting at style 0.
// Patterns past the end of the style table are ignored.
//
// Parameters:
//   - patterns: the style patterns in style order
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLightStyles(patterns ...string) SceneBuilderOption {
	return func(s *scene) {
		for i, p := range patterns {
			if i >= len(s.styles) {
				break
			}
			s.styles[i] = p
		}
	}
}

// WithCullingDisabled turns off frustum culling of entities and lights.
//
// Parameters:
//   - disabled: true to draw everything
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.cullingDisabled = disabled
	}
}
