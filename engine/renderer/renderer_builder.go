package renderer

import (
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/ui"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode = backend.PresentMode

const (
	// PresentModeVSync waits for the next vertical blank before presenting.
	PresentModeVSync = backend.PresentModeVSync

	// PresentModeUncapped presents frames immediately. May tear.
	PresentModeUncapped = backend.PresentModeUncapped
)

// MSAASampleCount is the sample count of the G-buffer, resolve and final color targets.
type MSAASampleCount = backend.MSAASampleCount

const (
	// MSAAOff renders single-sampled.
	MSAAOff = backend.MSAAOff

	// MSAA4x renders with 4 samples. This is the default.
	MSAA4x = backend.MSAA4x
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode, overriding the configured VSync flag.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the sample count, overriding the configured MSAA value. Only MSAAOff and MSAA4x
// are guaranteed by WebGPU.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingMSAA = &count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithUIAssets sets the glyph atlas, console background and status bar images. Without it the
// UI draws text with the built-in fallback font and no images.
//
// Parameters:
//   - assets: the UI images
//
// Returns:
//   - RendererBuilderOption: a function that applies the UI assets to a renderer
func WithUIAssets(assets ui.Assets) RendererBuilderOption {
	return func(r *renderer) {
		r.uiAssets = assets
	}
}
