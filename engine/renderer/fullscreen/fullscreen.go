// Package fullscreen holds the pieces shared by the passes that draw one quad over the whole
// target: the unit quad vertex buffer and the nearest sampler, both shared through the
// resource graph.
package fullscreen

import (
	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// SamplerIdentity is the graph identity of the sampler used to read render targets.
const SamplerIdentity = "target.sampler"

// Creator creates the shared quad buffer and sampler. backend.Backend satisfies it.
type Creator interface {
	material.BufferCreator
	material.SamplerCreator
}

// Quad is a reference to the shared unit quad and target sampler.
type Quad struct {
	graph    resource.ResourceGraph
	vertices resource.Handle
	sampler  resource.Handle

	buffer *wgpu.Buffer
	// Sampler is the nearest, clamping sampler for reading render targets.
	Sampler *wgpu.Sampler
}

// AcquireQuad takes a reference to the shared quad vertices and target sampler, creating them
// on first use.
//
// Parameters:
//   - graph: the resource graph
//   - c: creates the buffer and sampler on first acquisition
//
// Returns:
//   - *Quad: the references
//   - error: an error wrapping resource.ErrResourceExhausted on creation failure
func AcquireQuad(graph resource.ResourceGraph, c Creator) (*Quad, error) {
	return AcquireQuadWithSampler(graph, c, SamplerIdentity, common.NearestSampler)
}

// AcquireQuadWithSampler is AcquireQuad with the sampler shared under identity instead.
func AcquireQuadWithSampler(graph resource.ResourceGraph, c Creator, identity string, staging common.SamplerStagingData) (*Quad, error) {
	q := &Quad{graph: graph}
	var err error
	if q.vertices, q.buffer, err = material.AcquireQuadVertices(graph, c); err != nil {
		return nil, err
	}
	if q.sampler, q.Sampler, err = material.AcquireSampler(graph, c, identity, staging); err != nil {
		q.Release()
		return nil, err
	}
	return q, nil
}

// Bind sets the quad vertices at slot 0 and marks both shared objects used by this frame.
func (q *Quad) Bind(pass *wgpu.RenderPassEncoder) {
	q.graph.MarkUsed(q.vertices)
	q.graph.MarkUsed(q.sampler)
	pass.SetVertexBuffer(0, q.buffer, 0, wgpu.WholeSize)
}

// Draw binds and draws the quad once. The pipeline and bind groups must already be set.
func (q *Quad) Draw(pass *wgpu.RenderPassEncoder) {
	q.Bind(pass)
	pass.Draw(6, 1, 0, 0)
}

// Handles returns the graph handles of the vertex buffer and the sampler.
func (q *Quad) Handles() (vertices, sampler resource.Handle) {
	return q.vertices, q.sampler
}

// Release drops both references.
func (q *Quad) Release() {
	for _, h := range []*resource.Handle{&q.vertices, &q.sampler} {
		if !h.IsZero() {
			_ = q.graph.Release(*h)
			*h = resource.Handle{}
		}
	}
	q.buffer = nil
	q.Sampler = nil
}
