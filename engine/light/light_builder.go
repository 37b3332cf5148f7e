package light

import (
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
)

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithOrigin is an option builder that sets the simulation-space position of the light.
//
// Parameters:
//   - origin: the light position
//
// Returns:
//   - LightBuilderOption: a function that applies the origin option to a lightImpl
func WithOrigin(origin common.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.origin = origin
	}
}

// WithRadius is an option builder that sets the radius the light spawns with.
//
// Parameters:
//   - radius: the initial radius in world units
//
// Returns:
//   - LightBuilderOption: a function that applies the radius option to a lightImpl
func WithRadius(radius float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.radius = radius
	}
}

// WithDecayRate is an option builder that sets how fast the radius shrinks.
//
// Parameters:
//   - rate: the radius lost per second
//
// Returns:
//   - LightBuilderOption: a function that applies the decay option to a lightImpl
func WithDecayRate(rate float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.decayRate = rate
	}
}

// WithMinRadius is an option builder that sets the radius decay stops at.
func WithMinRadius(radius float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.minRadius = radius
	}
}

// WithTTL is an option builder that sets how long the light lives.
//
// Parameters:
//   - ttl: the time to live
//
// Returns:
//   - LightBuilderOption: a function that applies the lifetime option to a lightImpl
func WithTTL(ttl time.Duration) LightBuilderOption {
	return func(l *lightImpl) {
		l.ttl = ttl
	}
}
