package model

import (
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	skinWidth      uint32
	skinHeight     uint32
	texcoords      []Texcoord
	triangles      []Triangle
	keyframes      []Keyframe
	skins          []Skin
	boundingRadius float32
}

// Model is an alias model: a skinned triangle mesh animated by swapping whole vertex poses.
// The Model only holds CPU data. The world package uploads it as one vertex buffer holding
// every pose back to back.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// SkinSize returns the skin dimensions in texels.
	//
	// Returns:
	//   - uint32: the skin width
	//   - uint32: the skin height
	SkinSize() (uint32, uint32)

	// Texcoords returns one skin coordinate per vertex.
	Texcoords() []Texcoord

	// Triangles returns the triangle list shared by every pose.
	Triangles() []Triangle

	// Keyframes returns the keyframes in file order.
	Keyframes() []Keyframe

	// Skins returns the skins in file order.
	Skins() []Skin

	// BoundingRadius returns the largest distance of any pose vertex from the origin. Used by
	// frustum culling.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// PoseCount returns the total number of poses across every keyframe.
	PoseCount() int

	// Pose returns the global pose index shown for a keyframe at elapsed time. Out of range
	// keyframes fall back to keyframe 0.
	//
	// Parameters:
	//   - keyframe: the keyframe index, usually the entity frame
	//   - elapsed: the time since the level started
	//
	// Returns:
	//   - int: an index in [0, PoseCount())
	Pose(keyframe int, elapsed time.Duration) int

	// SkinFrame returns the frame of a skin shown at elapsed time. Out of range skins fall back
	// to skin 0.
	//
	// Parameters:
	//   - skin: the skin index, usually the entity skin
	//   - elapsed: the time since the level started
	//
	// Returns:
	//   - int: the skin index actually used
	//   - int: the frame index within that skin
	SkinFrame(skin int, elapsed time.Duration) (int, int)
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied. The bounding
// radius is computed from the poses unless WithBoundingRadius is given.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.boundingRadius == 0 {
		for _, k := range m.keyframes {
			for _, p := range k.Poses {
				for _, v := range p.Vertices {
					m.boundingRadius = max(m.boundingRadius, common.Length(v))
				}
			}
		}
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) SkinSize() (uint32, uint32) {
	return m.skinWidth, m.skinHeight
}

func (m *model) Texcoords() []Texcoord {
	return m.texcoords
}

func (m *model) Triangles() []Triangle {
	return m.triangles
}

func (m *model) Keyframes() []Keyframe {
	return m.keyframes
}

func (m *model) Skins() []Skin {
	return m.skins
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) PoseCount() int {
	n := 0
	for _, k := range m.keyframes {
		n += len(k.Poses)
	}
	return n
}

func (m *model) Pose(keyframe int, elapsed time.Duration) int {
	if keyframe < 0 || keyframe >= len(m.keyframes) {
		keyframe = 0
	}
	base := 0
	for _, k := range m.keyframes[:keyframe] {
		base += len(k.Poses)
	}
	if len(m.keyframes) == 0 {
		return 0
	}
	k := m.keyframes[keyframe]
	if !k.Animated() {
		return base
	}
	durations := make([]time.Duration, len(k.Poses))
	for i, p := range k.Poses {
		durations[i] = p.Duration
	}
	return base + PoseIndex(durations, elapsed)
}

func (m *model) SkinFrame(skin int, elapsed time.Duration) (int, int) {
	if skin < 0 || skin >= len(m.skins) {
		skin = 0
	}
	if len(m.skins) == 0 || len(m.skins[skin].Durations) < 2 {
		return skin, 0
	}
	return skin, PoseIndex(m.skins[skin].Durations, elapsed)
}
