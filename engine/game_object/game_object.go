package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/light"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/world"
)

type gameObject struct {
	mu *sync.Mutex

	id      uint64
	enabled atomic.Bool
	world   bool

	brush world.BrushModel
	alias world.AliasModel

	origin   common.Vec3
	angles   [3]float32
	frame    int
	keyframe int
	skin     int

	attachedLight light.Light
}

// GameObject is an entity placed in a scene: a brush or alias model with a simulation-space
// origin and orientation, plus the animation state the geometry pass reads each frame.
// An object with neither model is invisible but can still carry a light.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Enabled returns whether this object is drawn.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the object is drawn.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// IsWorld reports whether the object is the level's world model. The world is drawn first,
	// with an identity transform, and is never culled.
	IsWorld() bool

	// BrushModel returns the brush model, or nil.
	BrushModel() world.BrushModel

	// AliasModel returns the alias model, or nil.
	AliasModel() world.AliasModel

	// Origin returns the simulation-space position.
	Origin() common.Vec3

	// SetOrigin moves the object. An attached light follows.
	//
	// Parameters:
	//   - origin: the new simulation-space position
	SetOrigin(origin common.Vec3)

	// Angles returns pitch, yaw and roll in degrees.
	Angles() [3]float32

	// SetAngles sets pitch, yaw and roll in degrees.
	//
	// Parameters:
	//   - angles: the new orientation
	SetAngles(angles [3]float32)

	// Frame returns the brush entity frame. Non-zero selects alternate texture animations.
	Frame() int

	// SetFrame sets the brush entity frame.
	//
	// Parameters:
	//   - frame: the entity frame
	SetFrame(frame int)

	// Keyframe returns the alias keyframe index.
	Keyframe() int

	// SetKeyframe sets the alias keyframe index.
	//
	// Parameters:
	//   - keyframe: the keyframe index
	SetKeyframe(keyframe int)

	// Skin returns the alias skin index.
	Skin() int

	// SetSkin sets the alias skin index.
	//
	// Parameters:
	//   - skin: the skin index
	SetSkin(skin int)

	// Light returns the attached dynamic light, or nil.
	Light() light.Light

	// SetLight attaches a dynamic light that tracks the object's origin. Pass nil to detach.
	//
	// Parameters:
	//   - l: the light to attach
	SetLight(l light.Light)

	// BoundingSphere returns a render-space sphere enclosing the object at any orientation.
	//
	// Returns:
	//   - common.Vec3: the sphere center
	//   - float32: the sphere radius
	BoundingSphere() (common.Vec3, float32)

	// EntityContext builds the per-draw transform for viewProj.
	//
	// Parameters:
	//   - viewProj: the camera transform
	//
	// Returns:
	//   - uniform.EntityContext: the entity uniforms
	EntityContext(viewProj common.Mat4) uniform.EntityContext
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject with the provided options.
// Objects start enabled.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		mu: &sync.Mutex{},
	}
	obj.enabled.Store(true)
	for _, opt := range options {
		opt(obj)
	}
	if obj.attachedLight != nil {
		obj.attachedLight.SetOrigin(obj.origin)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.id
}

func (g *gameObject) SetID(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.id = id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) IsWorld() bool {
	return g.world
}

func (g *gameObject) BrushModel() world.BrushModel {
	return g.brush
}

func (g *gameObject) AliasModel() world.AliasModel {
	return g.alias
}

func (g *gameObject) Origin() common.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.origin
}

func (g *gameObject) SetOrigin(origin common.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.origin = origin
	if g.attachedLight != nil {
		g.attachedLight.SetOrigin(origin)
	}
}

func (g *gameObject) Angles() [3]float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.angles
}

func (g *gameObject) SetAngles(angles [3]float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.angles = angles
}

func (g *gameObject) Frame() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frame
}

func (g *gameObject) SetFrame(frame int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frame = frame
}

func (g *gameObject) Keyframe() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.keyframe
}

func (g *gameObject) SetKeyframe(keyframe int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keyframe = keyframe
}

func (g *gameObject) Skin() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.skin
}

func (g *gameObject) SetSkin(skin int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.skin = skin
}

func (g *gameObject) Light() light.Light {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Light) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attachedLight = l
	if l != nil {
		l.SetOrigin(g.origin)
	}
}

func (g *gameObject) BoundingSphere() (common.Vec3, float32) {
	g.mu.Lock()
	defer g.mu.Unlock()

	center := common.SimToRender(g.origin)
	switch {
	case g.brush != nil:
		// Bounds are model-local; the farthest corner covers every rotation.
		mins, maxs := g.brush.Bounds()
		return center, max(common.Length(mins), common.Length(maxs))
	case g.alias != nil:
		return center, g.alias.Model().BoundingRadius()
	default:
		return center, 0
	}
}

func (g *gameObject) EntityContext(viewProj common.Mat4) uniform.EntityContext {
	if g.world {
		return uniform.NewWorldEntityContext(viewProj)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return uniform.NewEntityContext(viewProj, g.origin, g.angles)
}
