// Package light manages the short-lived dynamic lights spawned by muzzle flashes, explosions
// and bright entities, and turns them into the per-frame light list of the deferred resolve.
package light

import (
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	origin    common.Vec3
	radius    float32
	decayRate float32
	minRadius float32
	spawned   time.Duration
	ttl       time.Duration
}

// Light is a point light whose radius shrinks linearly from the moment it is spawned until it
// expires. Positions are in simulation space and times are level times.
type Light interface {
	// Origin returns the light position in simulation space.
	Origin() common.Vec3

	// Spawned returns the level time the light was created at.
	Spawned() time.Duration

	// Radius returns the radius at now: the initial radius minus the decay accumulated since
	// spawning, never below the minimum radius.
	//
	// Parameters:
	//   - now: the current level time
	//
	// Returns:
	//   - float32: the radius, 0 once fully decayed
	Radius(now time.Duration) float32

	// Expired reports whether the light should be dropped at now: its time to live has passed
	// or its radius has reached zero.
	Expired(now time.Duration) bool

	// SetOrigin moves the light, e.g. to follow the entity that owns it.
	SetOrigin(origin common.Vec3)
}

var _ Light = &lightImpl{}

// NewLight creates a Light spawned at the given level time.
//
// Parameters:
//   - spawned: the level time the light appears
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(spawned time.Duration, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		radius:  200,
		spawned: spawned,
		ttl:     100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Origin() common.Vec3 {
	return l.origin
}

func (l *lightImpl) Spawned() time.Duration {
	return l.spawned
}

func (l *lightImpl) Radius(now time.Duration) float32 {
	age := float32((now - l.spawned).Seconds())
	r := l.radius - l.decayRate*max(age, 0)
	return max(r, l.minRadius, 0)
}

func (l *lightImpl) Expired(now time.Duration) bool {
	return now >= l.spawned+l.ttl || l.Radius(now) <= 0
}

func (l *lightImpl) SetOrigin(origin common.Vec3) {
	l.origin = origin
}
