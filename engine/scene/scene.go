package scene

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/camera"
	"github.com/Carmen-Shannon/oxy-quake/engine/game_object"
	"github.com/Carmen-Shannon/oxy-quake/engine/light"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/world"
)

// ErrStyleOutOfRange is returned when a light style index is outside the style table.
var ErrStyleOutOfRange = errors.New("scene: light style out of range")

// Scene is a level being viewed: the world model, the entities placed in it, the dynamic
// lights and light styles, and the camera looking at it. Frame snapshots all of it into the
// renderer's per-frame input.
type Scene interface {
	// Name returns the scene name.
	Name() string

	// SetName sets the scene name.
	SetName(name string)

	// Active reports whether the engine renders this scene.
	Active() bool

	// SetActive sets whether the engine renders this scene.
	SetActive(active bool)

	// Camera returns the scene camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// SetCamera replaces the scene camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Count returns the number of objects in the scene, including the world.
	Count() int

	// Add registers obj, assigning an ID when it has none. An attached light is inserted into
	// the light list; its own time to live still applies.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Get returns the object with the given ID, or nil.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove drops the object with the given ID and its attached light.
	//
	// Parameters:
	//   - id: the object ID
	Remove(id uint64)

	// Clear drops every object and light and resets the level time.
	Clear()

	// Lights returns the dynamic light list.
	//
	// Returns:
	//   - light.List: the live lights
	Lights() light.List

	// SpawnLight inserts a free-standing light, such as an explosion flash.
	//
	// Parameters:
	//   - l: the light
	//
	// Returns:
	//   - light.ID: the light's ID in the list
	SpawnLight(l light.Light) light.ID

	// SetLightStyle sets the animation pattern of one light style.
	//
	// Parameters:
	//   - index: the style number
	//   - pattern: the pattern, see StyleValue
	//
	// Returns:
	//   - error: ErrStyleOutOfRange if index is outside the table
	SetLightStyle(index int, pattern string) error

	// Time returns the level time.
	Time() time.Duration

	// Advance moves the level time forward and drops expired lights.
	//
	// Parameters:
	//   - dt: the time step
	Advance(dt time.Duration)

	// ColorShift returns the full-screen blend applied after lighting.
	ColorShift() [4]float32

	// SetColorShift sets the full-screen blend; alpha 0 disables it.
	//
	// Parameters:
	//   - shift: RGBA in [0, 1]
	SetColorShift(shift [4]float32)

	// SetRawLightmap toggles lightmap-only rendering.
	//
	// Parameters:
	//   - raw: true to draw white diffuse
	SetRawLightmap(raw bool)

	// CullingDisabled reports whether frustum culling of entities and lights is off.
	CullingDisabled() bool

	// SetCullingDisabled turns frustum culling of entities and lights off or on.
	//
	// Parameters:
	//   - disabled: true to draw everything
	SetCullingDisabled(disabled bool)

	// Frame snapshots the scene for one rendered frame. The world draw comes first, then brush
	// entities, then alias entities, each in ID order. Disabled and culled objects are skipped.
	//
	// Parameters:
	//   - sampleCount: the renderer's G-buffer sample count
	//
	// Returns:
	//   - renderer.FrameInput: the frame input, without UI overlays
	//   - int: the number of objects culled
	Frame(sampleCount uint32) (renderer.FrameInput, int)
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	registry map[uint64]game_object.GameObject
	nextID   uint64
	lightIDs map[uint64]light.ID // attached light of each object

	cam camera.Camera

	lights     light.List
	styles     [uniform.LightStyleCount]string
	now        time.Duration
	colorShift [4]float32
	raw        bool

	cullingDisabled bool
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene viewed through cam. Every light style starts as "m".
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach; nil attaches a default camera
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		cam = camera.NewCamera()
	}
	s := &scene{
		mu:       &sync.RWMutex{},
		name:     name,
		registry: make(map[uint64]game_object.GameObject),
		nextID:   1,
		lightIDs: make(map[uint64]light.ID),
		cam:      cam,
		lights:   light.NewList(),
	}
	for i := range s.styles {
		s.styles[i] = "m"
	}

	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(obj)
}

// addLocked registers obj. Caller must hold the write lock.
func (s *scene) addLocked(obj game_object.GameObject) uint64 {
	id := obj.ID()
	if id == 0 {
		id = s.nextID
		obj.SetID(id)
	}
	if id >= s.nextID {
		s.nextID = id + 1
	}
	s.registry[id] = obj

	if l := obj.Light(); l != nil {
		s.lightIDs[id] = s.lights.Insert(l, s.lightIDs[id])
	}
	return id
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lid, ok := s.lightIDs[id]; ok {
		s.lights.Remove(lid)
		delete(s.lightIDs, id)
	}
	delete(s.registry, id)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = make(map[uint64]game_object.GameObject)
	s.lightIDs = make(map[uint64]light.ID)
	s.lights.Clear()
	s.nextID = 1
	s.now = 0
}

func (s *scene) Lights() light.List {
	return s.lights
}

func (s *scene) SpawnLight(l light.Light) light.ID {
	return s.lights.Insert(l, 0)
}

func (s *scene) SetLightStyle(index int, pattern string) error {
	if index < 0 || index >= uniform.LightStyleCount {
		return fmt.Errorf("%w: %d", ErrStyleOutOfRange, index)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.styles[index] = pattern
	return nil
}

func (s *scene) Time() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

func (s *scene) Advance(dt time.Duration) {
	s.mu.Lock()
	s.now += dt
	now := s.now
	s.mu.Unlock()

	if n := s.lights.Update(now); n > 0 {
		common.LogDebug("scene %s: %d lights expired", s.Name(), n)
	}
}

func (s *scene) ColorShift() [4]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.colorShift
}

func (s *scene) SetColorShift(shift [4]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colorShift = shift
}

func (s *scene) SetRawLightmap(raw bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
}

func (s *scene) CullingDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cullingDisabled
}

func (s *scene) SetCullingDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cullingDisabled = disabled
}

func (s *scene) Frame(sampleCount uint32) (renderer.FrameInput, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.cam.Update()
	viewProj := s.cam.Transform()
	var frustum *common.Frustum
	if !s.cullingDisabled {
		frustum = s.cam.Frustum()
	}

	styles := StyleTable(&s.styles, s.now)
	in := renderer.FrameInput{
		Frame: uniform.NewFrameContext(
			common.SimToRender(s.cam.Origin()),
			float32(s.now.Seconds()),
			&styles,
			s.raw,
			sampleCount,
		),
		Elapsed:    s.now,
		ViewProj:   viewProj,
		Lights:     light.Collect(s.lights, s.now, frustum),
		ColorShift: s.colorShift,
	}

	ids := make([]uint64, 0, len(s.registry))
	for id := range s.registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	culled := 0
	var worldDraws []world.BrushDraw
	for _, id := range ids {
		obj := s.registry[id]
		if !obj.Enabled() {
			continue
		}
		brush, alias := obj.BrushModel(), obj.AliasModel()
		if brush == nil && alias == nil {
			continue
		}
		if frustum != nil && !obj.IsWorld() {
			center, radius := obj.BoundingSphere()
			if !frustum.ContainsSphere(center, radius) {
				culled++
				continue
			}
		}

		entity := obj.EntityContext(viewProj)
		switch {
		case obj.IsWorld():
			worldDraws = append(worldDraws, world.BrushDraw{Model: brush, Entity: entity, Frame: obj.Frame()})
		case brush != nil:
			in.Brushes = append(in.Brushes, world.BrushDraw{Model: brush, Entity: entity, Frame: obj.Frame()})
		default:
			in.Aliases = append(in.Aliases, world.AliasDraw{Model: alias, Entity: entity, Keyframe: obj.Keyframe(), Skin: obj.Skin()})
		}
	}
	in.Brushes = append(worldDraws, in.Brushes...)
	return in, culled
}
