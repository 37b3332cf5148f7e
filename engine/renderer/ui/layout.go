package ui

import "github.com/Carmen-Shannon/oxy-quake/common"

// AnchorKind selects how an AnchorCoord resolves against an extent.
type AnchorKind int

const (
	// AnchorZero resolves to 0.
	AnchorZero AnchorKind = iota
	// AnchorCenter resolves to half the extent.
	AnchorCenter
	// AnchorMax resolves to the full extent.
	AnchorMax
	// AnchorAbsolute resolves to Value pixels.
	AnchorAbsolute
	// AnchorProportion resolves to Value times the extent.
	AnchorProportion
)

// AnchorCoord is one axis of an Anchor.
type AnchorCoord struct {
	Kind  AnchorKind
	Value float32
}

// Absolute returns an AnchorCoord fixed at px pixels.
func Absolute(px int32) AnchorCoord {
	return AnchorCoord{Kind: AnchorAbsolute, Value: float32(px)}
}

// Proportion returns an AnchorCoord at p times the extent.
func Proportion(p float32) AnchorCoord {
	return AnchorCoord{Kind: AnchorProportion, Value: p}
}

// Resolve returns the coordinate in pixels for an extent of max pixels.
func (c AnchorCoord) Resolve(max uint32) int32 {
	switch c.Kind {
	case AnchorCenter:
		return int32(max) / 2
	case AnchorMax:
		return int32(max)
	case AnchorAbsolute:
		return int32(c.Value)
	case AnchorProportion:
		return int32(c.Value * float32(max))
	default:
		return 0
	}
}

// Anchor names a point on a rectangle. Screen coordinates start at the bottom left.
type Anchor struct {
	X AnchorCoord
	Y AnchorCoord
}

var (
	BottomLeft   = Anchor{X: AnchorCoord{Kind: AnchorZero}, Y: AnchorCoord{Kind: AnchorZero}}
	CenterLeft   = Anchor{X: AnchorCoord{Kind: AnchorZero}, Y: AnchorCoord{Kind: AnchorCenter}}
	TopLeft      = Anchor{X: AnchorCoord{Kind: AnchorZero}, Y: AnchorCoord{Kind: AnchorMax}}
	BottomCenter = Anchor{X: AnchorCoord{Kind: AnchorCenter}, Y: AnchorCoord{Kind: AnchorZero}}
	Center       = Anchor{X: AnchorCoord{Kind: AnchorCenter}, Y: AnchorCoord{Kind: AnchorCenter}}
	TopCenter    = Anchor{X: AnchorCoord{Kind: AnchorCenter}, Y: AnchorCoord{Kind: AnchorMax}}
	BottomRight  = Anchor{X: AnchorCoord{Kind: AnchorMax}, Y: AnchorCoord{Kind: AnchorZero}}
	CenterRight  = Anchor{X: AnchorCoord{Kind: AnchorMax}, Y: AnchorCoord{Kind: AnchorCenter}}
	TopRight     = Anchor{X: AnchorCoord{Kind: AnchorMax}, Y: AnchorCoord{Kind: AnchorMax}}
)

// Resolve returns the anchor point on a width × height rectangle.
func (a Anchor) Resolve(width, height uint32) (int32, int32) {
	return a.X.Resolve(width), a.Y.Resolve(height)
}

// ScreenPosition places a point on the display: an anchor on the display plus a pixel offset
// that is multiplied by the draw scale.
type ScreenPosition struct {
	Anchor  Anchor
	OffsetX int32
	OffsetY int32
}

// At returns a ScreenPosition at a display anchor with no offset.
func At(a Anchor) ScreenPosition {
	return ScreenPosition{Anchor: a}
}

// Offset returns a ScreenPosition offset from a display anchor.
func Offset(a Anchor, x, y int32) ScreenPosition {
	return ScreenPosition{Anchor: a, OffsetX: x, OffsetY: y}
}

// Resolve returns the position in pixels.
func (p ScreenPosition) Resolve(displayWidth, displayHeight uint32, scale float32) (int32, int32) {
	x, y := p.Anchor.Resolve(displayWidth, displayHeight)
	return x + int32(float32(p.OffsetX)*scale), y + int32(float32(p.OffsetY)*scale)
}

// SizeKind selects how a Size resolves.
type SizeKind int

const (
	// SizeScale multiplies the texture size by Factor; a zero Factor means 1.
	SizeScale SizeKind = iota
	// SizeAbsolute uses Width and Height in pixels.
	SizeAbsolute
	// SizeDisplayScale multiplies the display size by Factor.
	SizeDisplayScale
)

// Size is the on-screen size of a quad.
type Size struct {
	Kind          SizeKind
	Width, Height uint32
	Factor        float32
}

// Scaled returns a Size of the texture size times factor.
func Scaled(factor float32) Size {
	return Size{Kind: SizeScale, Factor: factor}
}

// Pixels returns a fixed Size.
func Pixels(width, height uint32) Size {
	return Size{Kind: SizeAbsolute, Width: width, Height: height}
}

// DisplayScaled returns a Size of the display size times ratio.
func DisplayScaled(ratio float32) Size {
	return Size{Kind: SizeDisplayScale, Factor: ratio}
}

// scale returns the factor applied to offsets; only texture-scaled sizes scale them.
func (s Size) scale() float32 {
	if s.Kind == SizeScale {
		return common.Coalesce(s.Factor, 1)
	}
	return 1
}

// Resolve returns the size in pixels.
func (s Size) Resolve(textureWidth, textureHeight, displayWidth, displayHeight uint32) (uint32, uint32) {
	switch s.Kind {
	case SizeAbsolute:
		return s.Width, s.Height
	case SizeDisplayScale:
		return uint32(float32(displayWidth) * s.Factor), uint32(float32(displayHeight) * s.Factor)
	default:
		f := s.scale()
		return uint32(float32(textureWidth) * f), uint32(float32(textureHeight) * f)
	}
}

// Layout positions a quad: Anchor on the quad is placed at Position on the display.
type Layout struct {
	Position ScreenPosition
	Anchor   Anchor
	Size     Size
}

// Rect resolves the layout to a rectangle whose origin is its bottom left corner.
//
// Parameters:
//   - textureWidth: the width of the quad texture in pixels
//   - textureHeight: the height of the quad texture in pixels
//   - displayWidth: the display width in pixels
//   - displayHeight: the display height in pixels
//
// Returns:
//   - x, y: the bottom left corner in pixels
//   - w, h: the size in pixels
func (l Layout) Rect(textureWidth, textureHeight, displayWidth, displayHeight uint32) (x, y int32, w, h uint32) {
	scale := l.Size.scale()
	sx, sy := l.Position.Resolve(displayWidth, displayHeight, scale)
	ax, ay := l.Anchor.Resolve(textureWidth, textureHeight)
	x = sx - int32(float32(ax)*scale)
	y = sy - int32(float32(ay)*scale)
	w, h = l.Size.Resolve(textureWidth, textureHeight, displayWidth, displayHeight)
	return x, y, w, h
}

// ScreenSpaceTranslate maps a pixel position to normalized device coordinates.
func ScreenSpaceTranslate(displayWidth, displayHeight uint32, x, y int32) [2]float32 {
	w, h := float32(displayWidth), float32(displayHeight)
	return [2]float32{
		(float32(x)*2 - w) / w,
		(float32(y)*2 - h) / h,
	}
}

// ScreenSpaceScale maps a pixel size to a normalized device coordinate extent.
func ScreenSpaceScale(displayWidth, displayHeight, width, height uint32) [2]float32 {
	return [2]float32{
		float32(width*2) / float32(displayWidth),
		float32(height*2) / float32(displayHeight),
	}
}

// ScreenSpaceTransform returns the matrix that maps the unit quad onto a pixel rectangle.
//
// Parameters:
//   - displayWidth: the display width in pixels
//   - displayHeight: the display height in pixels
//   - width: the rectangle width in pixels
//   - height: the rectangle height in pixels
//   - x: the left edge in pixels
//   - y: the bottom edge in pixels
//
// Returns:
//   - common.Mat4: translate × scale
func ScreenSpaceTransform(displayWidth, displayHeight, width, height uint32, x, y int32) common.Mat4 {
	t := ScreenSpaceTranslate(displayWidth, displayHeight, x, y)
	s := ScreenSpaceScale(displayWidth, displayHeight, width, height)
	return common.Mul4(common.Translate(t[0], t[1], 0), common.Scale(s[0], s[1], 1))
}
