package resource

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrStaleHandle is returned when a handle refers to an entry that has already been released.
	ErrStaleHandle = errors.New("stale resource handle")

	// ErrResourceExhausted is returned when creating a shared resource fails.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// Kind partitions the graph's key space by GPU object type.
type Kind uint8

const (
	KindBuffer Kind = iota
	KindTexture
	KindSampler
	KindBindGroup
	KindPipeline
)

func (k Kind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindTexture:
		return "texture"
	case KindSampler:
		return "sampler"
	case KindBindGroup:
		return "bind_group"
	case KindPipeline:
		return "pipeline"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Key identifies a shared resource. Two Acquire calls with equal keys share one object.
type Key struct {
	Kind     Kind
	Identity string
}

func (k Key) String() string {
	return k.Kind.String() + ":" + k.Identity
}

// NewIdentity returns a unique identity for a resource that is owned by a single renderer
// object and only goes through the graph for deferred destruction.
func NewIdentity(prefix string) string {
	return prefix + "." + uuid.New().String()
}

// Handle is an opaque reference to a graph entry. The zero Handle is never valid.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("handle(%d@%d)", h.index, h.generation)
}

// Releaser is any GPU object that can be destroyed. wgpu buffers, textures, views, samplers,
// bind groups and pipelines all satisfy it.
type Releaser interface {
	Release()
}

// ReleaserFunc adapts a function to the Releaser interface.
type ReleaserFunc func()

func (f ReleaserFunc) Release() { f() }
