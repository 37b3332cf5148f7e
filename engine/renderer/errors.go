package renderer

import (
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
)

// Sentinel errors surfaced by the renderer. They are re-exported from the packages that
// produce them so callers only need to import renderer to match with errors.Is.
var (
	// ErrResourceExhausted is returned when a GPU allocation or a fixed-capacity buffer is full.
	// The affected draw is skipped for the frame.
	ErrResourceExhausted = resource.ErrResourceExhausted

	// ErrSurfaceInvalidated is returned by BeginFrame when the surface is outdated or lost.
	// The renderer reconfigures the surface and the frame is skipped.
	ErrSurfaceInvalidated = backend.ErrSurfaceInvalidated

	// ErrDeviceLost is returned when the device stops accepting work.
	ErrDeviceLost = backend.ErrDeviceLost

	// ErrStaleHandle is returned when a handle outlives its ResourceGraph entry.
	ErrStaleHandle = resource.ErrStaleHandle
)
