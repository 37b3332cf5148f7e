package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// Graph identities of the objects shared by the full-screen passes and the UI renderers.
const (
	QuadVerticesIdentity = "ui.quad.vertices"
	UISamplerIdentity    = "ui.sampler"
)

// SamplerCreator creates samplers. backend.Backend satisfies it.
type SamplerCreator interface {
	CreateSampler(label string, staging common.SamplerStagingData) (*wgpu.Sampler, error)
}

// AcquireSampler acquires the sampler registered under identity, creating it from staging if
// it is not live yet, and resolves it.
//
// Parameters:
//   - graph: the resource graph
//   - samplers: creates the sampler on first acquisition
//   - identity: the shared sampler identity
//   - staging: the sampler configuration used on creation
//
// Returns:
//   - resource.Handle: the sampler handle, released by the caller
//   - *wgpu.Sampler: the sampler
//   - error: an error wrapping resource.ErrResourceExhausted on creation failure
func AcquireSampler(graph resource.ResourceGraph, samplers SamplerCreator, identity string, staging common.SamplerStagingData) (resource.Handle, *wgpu.Sampler, error) {
	h, err := graph.Acquire(resource.KindSampler, identity, func() (resource.Releaser, error) {
		s, err := samplers.CreateSampler(identity, staging)
		if err != nil {
			return nil, fmt.Errorf("sampler %s: %w", identity, err)
		}
		return s, nil
	})
	if err != nil {
		return resource.Handle{}, nil, err
	}
	s, err := resource.ResolveAs[*wgpu.Sampler](graph, h)
	if err != nil {
		_ = graph.Release(h)
		return resource.Handle{}, nil, err
	}
	return h, s, nil
}

// BufferCreator creates and fills GPU buffers. backend.Backend satisfies it.
type BufferCreator interface {
	CreateBuffer(label string, usage wgpu.BufferUsage, size uint64) (*wgpu.Buffer, error)
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
}

// AcquireQuadVertices acquires the unit quad vertex buffer under QuadVerticesIdentity,
// uploading uniform.UnitQuad on first use.
//
// Parameters:
//   - graph: the resource graph
//   - buffers: creates the buffer on first acquisition
//
// Returns:
//   - resource.Handle: the buffer handle, released by the caller
//   - *wgpu.Buffer: the vertex buffer holding six QuadVertex entries
//   - error: an error wrapping resource.ErrResourceExhausted on creation failure
func AcquireQuadVertices(graph resource.ResourceGraph, buffers BufferCreator) (resource.Handle, *wgpu.Buffer, error) {
	h, err := graph.Acquire(resource.KindBuffer, QuadVerticesIdentity, func() (resource.Releaser, error) {
		data := uniform.MarshalQuadVertices(uniform.UnitQuad[:])
		buf, err := buffers.CreateBuffer(QuadVerticesIdentity, wgpu.BufferUsageVertex, uint64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("quad vertices: %w", err)
		}
		buffers.WriteBuffer(buf, 0, data)
		return buf, nil
	})
	if err != nil {
		return resource.Handle{}, nil, err
	}
	buf, err := resource.ResolveAs[*wgpu.Buffer](graph, h)
	if err != nil {
		_ = graph.Release(h)
		return resource.Handle{}, nil, err
	}
	return h, buf, nil
}
