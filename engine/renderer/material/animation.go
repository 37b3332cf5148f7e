package material

import (
	"time"
)

// FrameDuration is how long each frame of an animated texture is shown.
const FrameDuration = 200 * time.Millisecond

// FrameIndex returns the frame of a looping animation with frames entries at elapsed time.
//
// Parameters:
//   - elapsed: the time since the level started
//   - frames: the number of frames in the animation
//
// Returns:
//   - int: the frame index in [0, frames), or 0 for an empty animation
func FrameIndex(elapsed time.Duration, frames int) int {
	total := FrameDuration.Milliseconds() * int64(frames)
	if total == 0 {
		return 0
	}
	ms := elapsed.Milliseconds() % total
	if ms < 0 {
		ms += total
	}
	return int(ms / FrameDuration.Milliseconds())
}

// Animation is a texture whose Binding changes over time. A static texture is an Animation
// with a single primary frame.
type Animation struct {
	// Primary is the default frame sequence.
	Primary []Binding

	// Alternate is used by entities whose frame is not zero, e.g. switched-on buttons.
	Alternate []Binding
}

// Static wraps a single binding.
func Static(b Binding) Animation {
	return Animation{Primary: []Binding{b}}
}

// Kind returns the surface kind of the first primary frame.
func (a Animation) Kind() SurfaceKind {
	if len(a.Primary) == 0 {
		return SurfaceRegular
	}
	return a.Primary[0].Kind()
}

// Frame selects the binding to draw.
//
// Parameters:
//   - elapsed: the time since the level started
//   - entityFrame: the frame of the entity that owns the surface; non-zero selects Alternate
//     when it exists
//
// Returns:
//   - Binding: the current frame, or nil for an empty animation
func (a Animation) Frame(elapsed time.Duration, entityFrame int) Binding {
	seq := a.Primary
	if entityFrame != 0 && len(a.Alternate) > 0 {
		seq = a.Alternate
	}
	if len(seq) == 0 {
		return nil
	}
	return seq[FrameIndex(elapsed, len(seq))]
}

// Release releases every frame.
func (a Animation) Release() {
	for _, b := range a.Primary {
		b.Release()
	}
	for _, b := range a.Alternate {
		b.Release()
	}
}
