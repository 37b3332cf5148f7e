package ui

import (
	"context"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeFence struct{}

func (fakeFence) Submitted() uint64                  { return 0 }
func (fakeFence) Completed() uint64                  { return 0 }
func (fakeFence) Wait(context.Context, uint64) error { return nil }

// fakeCreator counts creations. Its objects are never released, so tests must not Collect.
type fakeCreator struct {
	buffers  int
	samplers int
}

func (f *fakeCreator) CreateBuffer(string, wgpu.BufferUsage, uint64) (*wgpu.Buffer, error) {
	f.buffers++
	return &wgpu.Buffer{}, nil
}

func (f *fakeCreator) WriteBuffer(*wgpu.Buffer, uint64, []byte) {}

func (f *fakeCreator) CreateSampler(string, common.SamplerStagingData) (*wgpu.Sampler, error) {
	f.samplers++
	return &wgpu.Sampler{}, nil
}

func TestSharedPrimitives(t *testing.T) {
	graph := resource.NewResourceGraph(fakeFence{})
	c := &fakeCreator{}

	quads, err := acquireShared(graph, c)
	if err != nil {
		t.Fatalf("acquireShared: %v", err)
	}
	glyphs, err := acquireShared(graph, c)
	if err != nil {
		t.Fatalf("acquireShared: %v", err)
	}
	if c.buffers != 1 || c.samplers != 1 {
		t.Fatalf("created %d buffers and %d samplers, want one of each", c.buffers, c.samplers)
	}
	if quads.Sampler != glyphs.Sampler {
		t.Error("renderers got different samplers")
	}

	vertices, sampler := quads.Handles()
	if n := graph.RefCount(vertices); n != 2 {
		t.Errorf("vertex refs = %d, want 2", n)
	}

	quads.Release()
	if n := graph.RefCount(sampler); n != 1 {
		t.Errorf("sampler refs after one release = %d, want 1", n)
	}
	if graph.Pending() != 0 {
		t.Errorf("pending = %d while still referenced", graph.Pending())
	}

	glyphs.Release()
	if graph.Len() != 0 || graph.Pending() != 2 {
		t.Errorf("after last release len = %d pending = %d, want 0 and 2", graph.Len(), graph.Pending())
	}
	if _, err := graph.Resolve(vertices); err == nil {
		t.Error("resolved a released handle")
	}

	if _, err := graph.Acquire(resource.KindSampler, material.UISamplerIdentity, func() (resource.Releaser, error) {
		return c.CreateSampler("", common.NearestSampler)
	}); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if c.samplers != 2 {
		t.Errorf("samplers = %d, want a fresh sampler after release", c.samplers)
	}
}

func TestQuadDrawPanicsOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		texture int
	}{
		{"past the last layer", MaxTextureArrayLayers},
		{"negative", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &quadRenderer{mu: &sync.Mutex{}}
			r.Draw(QuadCommand{Texture: MaxTextureArrayLayers - 1})
			r.Draw(QuadCommand{Texture: 0})
			if r.Pending() != 2 {
				t.Fatalf("got %d pending, want 2", r.Pending())
			}

			defer func() {
				if recover() == nil {
					t.Error("got no panic, want one")
				}
				if r.Pending() != 2 {
					t.Errorf("got %d pending after rejected draw, want 2", r.Pending())
				}
			}()
			r.Draw(QuadCommand{Texture: tt.texture})
		})
	}
}
