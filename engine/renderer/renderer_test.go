package renderer

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
)

func TestPassesForChanges(t *testing.T) {
	tests := []struct {
		name    string
		changes []string
		want    []Pass
	}{
		{"none", nil, nil},
		{"world and alias share a pass", []string{shader.AssetAlias, shader.AssetWorld}, []Pass{PassGeometry}},
		{"frame order", []string{shader.AssetBlit, shader.AssetGlyph, shader.AssetDeferred}, []Pass{PassResolve, PassUI, PassBlit}},
		{"post-process", []string{shader.AssetPostProcess}, []Pass{PassPostProcess}},
		{"unknown asset", []string{"notes.wgsl"}, nil},
		{"quad and glyph once", []string{shader.AssetQuad, shader.AssetGlyph}, []Pass{PassUI}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := make([]shader.Change, len(tt.changes))
			for i, name := range tt.changes {
				changes[i] = shader.Change{Name: name}
			}
			if got := PassesForChanges(changes); !slices.Equal(got, tt.want) {
				t.Errorf("PassesForChanges = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinelsMatchProducers(t *testing.T) {
	tests := []struct {
		sentinel error
		produced error
	}{
		{ErrResourceExhausted, fmt.Errorf("acquire: %w", resource.ErrResourceExhausted)},
		{ErrStaleHandle, fmt.Errorf("resolve: %w", resource.ErrStaleHandle)},
		{ErrSurfaceInvalidated, fmt.Errorf("begin frame: %w", backend.ErrSurfaceInvalidated)},
		{ErrDeviceLost, fmt.Errorf("end frame: %w", backend.ErrDeviceLost)},
	}
	for _, tt := range tests {
		if !errors.Is(tt.produced, tt.sentinel) {
			t.Errorf("%v does not match %v", tt.produced, tt.sentinel)
		}
	}
}
