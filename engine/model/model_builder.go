package model

// ModelBuilderOption is a function that configures a Model during construction.
type ModelBuilderOption func(*model)

// WithName sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name to the Model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithSkinSize sets the skin dimensions shared by every skin frame.
//
// Parameters:
//   - width: the skin width in texels
//   - height: the skin height in texels
//
// Returns:
//   - ModelBuilderOption: a function that applies the size to the Model
func WithSkinSize(width, height uint32) ModelBuilderOption {
	return func(m *model) {
		m.skinWidth = width
		m.skinHeight = height
	}
}

// WithTexcoords sets one skin coordinate per vertex.
func WithTexcoords(texcoords []Texcoord) ModelBuilderOption {
	return func(m *model) {
		m.texcoords = texcoords
	}
}

// WithTriangles sets the triangle list.
func WithTriangles(triangles []Triangle) ModelBuilderOption {
	return func(m *model) {
		m.triangles = triangles
	}
}

// WithKeyframes sets the keyframes.
func WithKeyframes(keyframes ...Keyframe) ModelBuilderOption {
	return func(m *model) {
		m.keyframes = keyframes
	}
}

// WithSkins sets the skins.
func WithSkins(skins ...Skin) ModelBuilderOption {
	return func(m *model) {
		m.skins = skins
	}
}

// WithBoundingRadius overrides the bounding radius computed from the poses.
//
// Parameters:
//   - radius: the bounding sphere radius
//
// Returns:
//   - ModelBuilderOption: a function that applies the radius to the Model
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}
