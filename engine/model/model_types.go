package model

import (
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
)

// Texcoord is a skin coordinate in texels.
type Texcoord struct {
	// S is the horizontal texel coordinate.
	S int32

	// T is the vertical texel coordinate.
	T int32

	// OnSeam marks a vertex shared between the front and back halves of the skin. Back-facing
	// triangles shift such vertices by half the skin width.
	OnSeam bool
}

// Triangle indexes three vertices of every pose.
type Triangle struct {
	// Indices are the vertex indices into Pose.Vertices and the model texcoords.
	Indices [3]uint32

	// FacesFront is false for triangles that sample the back half of the skin.
	FacesFront bool
}

// Pose is one set of vertex positions, in simulation space relative to the entity origin.
type Pose struct {
	// Vertices holds one position per model vertex.
	Vertices []common.Vec3

	// Duration is how long the pose is shown inside an animated keyframe.
	Duration time.Duration
}

// Keyframe is a static pose or a timed group of poses.
type Keyframe struct {
	// Name is the keyframe name, e.g. "stand1".
	Name string

	// Poses holds a single pose for a static keyframe.
	Poses []Pose
}

// Animated reports whether the keyframe cycles through more than one pose.
func (k Keyframe) Animated() bool {
	return len(k.Poses) > 1
}

// Skin is a static or timed sequence of palette-indexed skin images.
type Skin struct {
	// Frames are the skin images, width*height palette indices each.
	Frames [][]byte

	// Durations holds the display time of each frame. Empty for a static skin.
	Durations []time.Duration
}

// PoseIndex selects the entry of a timed sequence shown at elapsed. A sequence whose total
// duration is zero always shows its first entry.
//
// Parameters:
//   - durations: the display time of each entry
//   - elapsed: the time since the level started
//
// Returns:
//   - int: the index of the entry to show
func PoseIndex(durations []time.Duration, elapsed time.Duration) int {
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	if total <= 0 {
		return 0
	}
	t := elapsed % total
	if t < 0 {
		t += total
	}
	for i, d := range durations {
		t -= d
		if t < 0 {
			return i
		}
	}
	return len(durations) - 1
}
