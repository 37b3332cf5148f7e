// Package resource implements a reference-counted registry for GPU objects shared by
// renderer components that have no single natural owner.
//
// Destruction is deferred: when the last reference is released the object is queued with the
// current submission serial, and it is only destroyed once the Fence reports that serial as
// completed.
package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/common"
)

// Fence reports GPU submission progress as monotonically increasing serials.
type Fence interface {
	// Submitted returns the serial of the most recent submission.
	Submitted() uint64
	// Completed returns the highest serial the GPU has finished executing.
	Completed() uint64
	// Wait blocks until serial has completed or ctx is done.
	Wait(ctx context.Context, serial uint64) error
}

type entry struct {
	key        Key
	object     Releaser
	refs       int
	generation uint32
	lastUse    uint64
	live       bool
}

type pending struct {
	key    Key
	object Releaser
	serial uint64
}

// graph is the implementation of the ResourceGraph interface.
type graph struct {
	mu sync.Mutex

	fence   Fence
	entries []entry
	free    []uint32
	byKey   map[Key]uint32
	queue   []pending
}

// ResourceGraph owns shared GPU objects and hands out generation-checked handles to them.
//
// Every Acquire must be paired with exactly one Release. The object is destroyed once the
// count reaches zero and every submission that used it has completed.
type ResourceGraph interface {
	// Acquire returns a handle to the object registered under (kind, identity), creating it
	// with create when no live entry exists. An existing entry has its count incremented and
	// create is not called.
	//
	// Parameters:
	//   - kind: the object category
	//   - identity: the stable name shared by every user of the object
	//   - create: constructs the object on first acquisition
	//
	// Returns:
	//   - Handle: the handle for the entry
	//   - error: an error wrapping ErrResourceExhausted if create fails
	Acquire(kind Kind, identity string, create func() (Releaser, error)) (Handle, error)

	// Retain adds a reference to an existing entry.
	//
	// Parameters:
	//   - h: a live handle
	//
	// Returns:
	//   - error: ErrStaleHandle if h no longer refers to a live entry
	Retain(h Handle) error

	// Release drops one reference. At zero the entry is removed and its object is queued for
	// destruction after the current submission completes.
	//
	// Parameters:
	//   - h: a live handle
	//
	// Returns:
	//   - error: ErrStaleHandle if h no longer refers to a live entry
	Release(h Handle) error

	// Resolve returns the object behind h.
	//
	// Parameters:
	//   - h: the handle to resolve
	//
	// Returns:
	//   - Releaser: the registered object
	//   - error: ErrStaleHandle if h no longer refers to a live entry
	Resolve(h Handle) (Releaser, error)

	// RefCount returns the number of outstanding references, or 0 for a stale handle.
	RefCount(h Handle) int

	// Len returns the number of live entries.
	Len() int

	// Pending returns the number of objects waiting for their submission to complete.
	Pending() int

	// MarkUsed records that the next submission references h, which delays destruction until
	// that submission completes.
	MarkUsed(h Handle)

	// Collect destroys every queued object whose serial is at or below completed.
	//
	// Parameters:
	//   - completed: the highest completed submission serial
	//
	// Returns:
	//   - int: the number of objects destroyed
	Collect(completed uint64) int

	// Drain waits for every in-flight submission and destroys all queued objects.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: the Fence error if the wait did not finish
	Drain(ctx context.Context) error

	// ReleaseAll drops every live entry regardless of its count. Used at shutdown after Drain.
	ReleaseAll()
}

// NewResourceGraph creates an empty ResourceGraph driven by the given Fence.
//
// Parameters:
//   - fence: the submission tracker used to decide when queued objects may be destroyed
//
// Returns:
//   - ResourceGraph: the new graph
func NewResourceGraph(fence Fence) ResourceGraph {
	return &graph{
		fence: fence,
		byKey: make(map[Key]uint32),
	}
}

var _ ResourceGraph = &graph{}

func (g *graph) Acquire(kind Kind, identity string, create func() (Releaser, error)) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := Key{Kind: kind, Identity: identity}
	if idx, ok := g.byKey[key]; ok {
		e := &g.entries[idx]
		e.refs++
		return Handle{index: idx, generation: e.generation}, nil
	}

	obj, err := create()
	if err != nil {
		return Handle{}, fmt.Errorf("acquire %s: %w: %w", key, ErrResourceExhausted, err)
	}
	if obj == nil {
		return Handle{}, fmt.Errorf("acquire %s: %w: create returned nil", key, ErrResourceExhausted)
	}

	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		idx = uint32(len(g.entries))
		// generation 0 is reserved for the zero Handle
		g.entries = append(g.entries, entry{generation: 1})
	}

	e := &g.entries[idx]
	e.key = key
	e.object = obj
	e.refs = 1
	e.live = true
	e.lastUse = g.fence.Submitted()
	g.byKey[key] = idx

	common.LogDebug("resource: created %s as %s", key, Handle{index: idx, generation: e.generation})
	return Handle{index: idx, generation: e.generation}, nil
}

func (g *graph) lookup(h Handle) (*entry, error) {
	if int(h.index) >= len(g.entries) {
		return nil, fmt.Errorf("%s: %w", h, ErrStaleHandle)
	}
	e := &g.entries[h.index]
	if !e.live || e.generation != h.generation {
		return nil, fmt.Errorf("%s: %w", h, ErrStaleHandle)
	}
	return e, nil
}

func (g *graph) Retain(h Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, err := g.lookup(h)
	if err != nil {
		return err
	}
	e.refs++
	return nil
}

func (g *graph) Release(h Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, err := g.lookup(h)
	if err != nil {
		return err
	}
	e.refs--
	if e.refs > 0 {
		return nil
	}
	g.retire(h.index)
	return nil
}

// retire removes the entry at idx and queues its object. Caller holds mu.
func (g *graph) retire(idx uint32) {
	e := &g.entries[idx]
	serial := max(e.lastUse, g.fence.Submitted())
	g.queue = append(g.queue, pending{key: e.key, object: e.object, serial: serial})
	delete(g.byKey, e.key)

	common.LogDebug("resource: released %s, destroy after serial %d", e.key, serial)

	e.object = nil
	e.refs = 0
	e.live = false
	e.key = Key{}
	e.generation++
	if e.generation == 0 {
		e.generation = 1
	}
	g.free = append(g.free, idx)
}

func (g *graph) Resolve(h Handle) (Releaser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, err := g.lookup(h)
	if err != nil {
		return nil, err
	}
	return e.object, nil
}

func (g *graph) RefCount(h Handle) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, err := g.lookup(h)
	if err != nil {
		return 0
	}
	return e.refs
}

func (g *graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.byKey)
}

func (g *graph) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

func (g *graph) MarkUsed(h Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, err := g.lookup(h)
	if err != nil {
		return
	}
	// the frame being recorded will be submitted as Submitted()+1
	e.lastUse = g.fence.Submitted() + 1
}

func (g *graph) Collect(completed uint64) int {
	g.mu.Lock()
	ready := make([]pending, 0, len(g.queue))
	kept := g.queue[:0]
	for _, p := range g.queue {
		if p.serial <= completed {
			ready = append(ready, p)
		} else {
			kept = append(kept, p)
		}
	}
	g.queue = kept
	g.mu.Unlock()

	for _, p := range ready {
		p.object.Release()
		common.LogDebug("resource: destroyed %s", p.key)
	}
	return len(ready)
}

func (g *graph) Drain(ctx context.Context) error {
	g.mu.Lock()
	var last uint64
	for _, p := range g.queue {
		last = max(last, p.serial)
	}
	last = max(last, g.fence.Submitted())
	g.mu.Unlock()

	if err := g.fence.Wait(ctx, last); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	g.Collect(last)
	return nil
}

func (g *graph) ReleaseAll() {
	g.mu.Lock()
	for idx := range g.entries {
		if g.entries[idx].live {
			g.retire(uint32(idx))
		}
	}
	g.mu.Unlock()
}

// ResolveAs resolves h and asserts the object to T.
//
// Parameters:
//   - g: the graph holding the entry
//   - h: the handle to resolve
//
// Returns:
//   - T: the typed object
//   - error: ErrStaleHandle, or a type mismatch error
func ResolveAs[T Releaser](g ResourceGraph, h Handle) (T, error) {
	var zero T
	obj, err := g.Resolve(h)
	if err != nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("%s: object is %T, want %T", h, obj, zero)
	}
	return typed, nil
}

// Retire hands obj to g for destruction once every submission recorded so far has completed.
// It is used for objects replaced between frames, such as pipelines rebuilt after a shader
// edit or bind groups pointing at resized attachments.
//
// Parameters:
//   - g: the graph queueing the object
//   - kind: the kind recorded for debugging
//   - label: a label recorded for debugging
//   - obj: the object to destroy
func Retire(g ResourceGraph, kind Kind, label string, obj Releaser) {
	h, err := g.Acquire(kind, NewIdentity("retired."+label), func() (Releaser, error) {
		return obj, nil
	})
	if err != nil {
		// nothing was queued; the object cannot outlive this call
		obj.Release()
		return
	}
	_ = g.Release(h)
}
