package shader

import (
	"maps"
	"slices"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// MergeBindGroupLayouts combines the layouts declared by the vertex and fragment stages of one
// pipeline. A binding present in both stages keeps the vertex entry with the visibility of
// both; the entries of each group come back sorted by binding.
//
// Parameters:
//   - vertexLayouts: descriptors parsed from the vertex shader
//   - fragmentLayouts: descriptors parsed from the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: one descriptor per group used by either stage
func MergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, max(len(vertexLayouts), len(fragmentLayouts)))

	for _, layouts := range []map[int]wgpu.BindGroupLayoutDescriptor{vertexLayouts, fragmentLayouts} {
		for g, desc := range layouts {
			byBinding := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range merged[g].Entries {
				byBinding[e.Binding] = e
			}
			for _, e := range desc.Entries {
				if existing, ok := byBinding[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					e = existing
				}
				byBinding[e.Binding] = e
			}

			entries := slices.Collect(maps.Values(byBinding))
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})
			merged[g] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: entries}
		}
	}
	return merged
}

// OrderedVertexLayouts flattens per-slot vertex layouts into the slice a vertex state expects,
// ordered by slot.
//
// Parameters:
//   - layouts: vertex buffer layouts keyed by slot
//
// Returns:
//   - []wgpu.VertexBufferLayout: the layouts in slot order
func OrderedVertexLayouts(layouts map[int][]wgpu.VertexBufferLayout) []wgpu.VertexBufferLayout {
	slots := slices.Sorted(maps.Keys(layouts))
	out := make([]wgpu.VertexBufferLayout, 0, len(slots))
	for _, slot := range slots {
		out = append(out, layouts[slot]...)
	}
	return out
}
