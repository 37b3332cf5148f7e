package scene

import (
	"time"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

const (
	// LightStyleRate is the number of pattern characters a light style advances per second.
	LightStyleRate = 10
	// lightStyleUnit maps 'a'..'z' onto [0, 2]; 'm' is roughly normal brightness.
	lightStyleUnit = 12.5
)

// StyleValue evaluates a light style pattern at level time t. Each character is one step of
// the animation: 'a' is dark, 'z' is double brightness. An empty pattern is a constant 1.
// Characters outside 'a'..'z' are clamped into that range.
//
// Parameters:
//   - pattern: the style pattern, e.g. "mmnmmommommnonmmonqnmmo"
//   - t: the level time
//
// Returns:
//   - float32: the style multiplier
func StyleValue(pattern string, t time.Duration) float32 {
	if len(pattern) == 0 {
		return 1
	}
	step := int(t.Seconds()*LightStyleRate) % len(pattern)
	c := pattern[step]
	switch {
	case c < 'a':
		c = 'a'
	case c > 'z':
		c = 'z'
	}
	return float32(c-'a') / lightStyleUnit
}

// StyleTable evaluates every style at t. Styles without a pattern evaluate to 1.
//
// Parameters:
//   - patterns: the style patterns, indexed by style number
//   - t: the level time
//
// Returns:
//   - [uniform.LightStyleCount]float32: the table uploaded with the frame uniforms
func StyleTable(patterns *[uniform.LightStyleCount]string, t time.Duration) [uniform.LightStyleCount]float32 {
	var out [uniform.LightStyleCount]float32
	for i := range out {
		out[i] = StyleValue(patterns[i], t)
	}
	return out
}
