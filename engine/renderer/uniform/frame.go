package uniform

import (
	"github.com/Carmen-Shannon/oxy-quake/common"
)

// FrameContext is the per-frame snapshot read by every pass. It is built once at the start of
// a frame and never modified; it only has value getters.
type FrameContext struct {
	cameraPos   common.Vec3
	time        float32
	styles      [LightStyleCount]float32
	rawLightmap bool
	sampleCount uint32
}

// NewFrameContext snapshots the per-frame scalars.
//
// Parameters:
//   - cameraPos: the camera origin in render space
//   - time: elapsed time in seconds
//   - styles: the light style table; it is copied, so later edits do not leak into the frame
//   - rawLightmap: when set the geometry pass writes white diffuse so only lighting shows
//   - sampleCount: the MSAA sample count of the frame's attachments
//
// Returns:
//   - FrameContext: the immutable snapshot
func NewFrameContext(cameraPos common.Vec3, time float32, styles *[LightStyleCount]float32, rawLightmap bool, sampleCount uint32) FrameContext {
	fc := FrameContext{
		cameraPos:   cameraPos,
		time:        time,
		rawLightmap: rawLightmap,
		sampleCount: max(sampleCount, 1),
	}
	if styles != nil {
		fc.styles = *styles
	}
	return fc
}

func (f FrameContext) CameraPos() common.Vec3 {
	return f.cameraPos
}

func (f FrameContext) Time() float32 {
	return f.time
}

// Style returns the value of light style idx, or 0 when idx is out of range.
func (f FrameContext) Style(idx uint8) float32 {
	if int(idx) >= LightStyleCount {
		return 0
	}
	return f.styles[idx]
}

// Styles returns a copy of the style table.
func (f FrameContext) Styles() [LightStyleCount]float32 {
	return f.styles
}

func (f FrameContext) RawLightmap() bool {
	return f.rawLightmap
}

func (f FrameContext) SampleCount() uint32 {
	return f.sampleCount
}

// Bytes serializes the snapshot as FrameUniforms.
func (f FrameContext) Bytes() []byte {
	u := GPUFrameUniforms{
		LightStyles: f.styles,
		CameraPos:   f.cameraPos,
		Time:        f.time,
		RawLightmap: f.rawLightmap,
	}
	return u.Marshal()
}
