package resource

import (
	"context"
	"errors"
	"testing"
)

type fakeFence struct {
	submitted uint64
	completed uint64
}

func (f *fakeFence) Submitted() uint64 { return f.submitted }
func (f *fakeFence) Completed() uint64 { return f.completed }
func (f *fakeFence) Wait(ctx context.Context, serial uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if serial > f.completed {
		f.completed = serial
	}
	return nil
}

// submit simulates recording and submitting one frame.
func (f *fakeFence) submit() uint64 {
	f.submitted++
	return f.submitted
}

type countingObject struct {
	name     string
	released int
}

func (o *countingObject) Release() { o.released++ }

func newCreator(obj *countingObject, calls *int) func() (Releaser, error) {
	return func() (Releaser, error) {
		*calls++
		return obj, nil
	}
}

func TestAcquireSharesByKey(t *testing.T) {
	g := NewResourceGraph(&fakeFence{})
	obj := &countingObject{name: "quad"}
	calls := 0

	h1, err := g.Acquire(KindBuffer, "ui.quad.vertices", newCreator(obj, &calls))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	h2, err := g.Acquire(KindBuffer, "ui.quad.vertices", newCreator(obj, &calls))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if h1 != h2 {
		t.Errorf("handles differ: %v vs %v", h1, h2)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	if got := g.RefCount(h1); got != 2 {
		t.Errorf("RefCount = %d, want 2", got)
	}

	// same identity under a different kind is a different entry
	h3, err := g.Acquire(KindSampler, "ui.quad.vertices", newCreator(&countingObject{}, &calls))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if h3 == h1 {
		t.Error("different kinds share a handle")
	}
	if got := g.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

func TestReleaseInvalidatesHandle(t *testing.T) {
	fence := &fakeFence{}
	g := NewResourceGraph(fence)
	obj := &countingObject{}
	calls := 0

	h, _ := g.Acquire(KindTexture, "dummy.diffuse", newCreator(obj, &calls))
	if err := g.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := g.Resolve(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Resolve after release: err = %v, want ErrStaleHandle", err)
	}
	if err := g.Release(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("double Release: err = %v, want ErrStaleHandle", err)
	}
	if err := g.Retain(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Retain after release: err = %v, want ErrStaleHandle", err)
	}
	if got := g.RefCount(h); got != 0 {
		t.Errorf("RefCount of stale handle = %d, want 0", got)
	}

	// the slot is reused with a new generation; the old handle stays stale
	h2, _ := g.Acquire(KindTexture, "dummy.diffuse", newCreator(&countingObject{}, &calls))
	if h2.index != h.index {
		t.Fatalf("slot not reused: %v vs %v", h2, h)
	}
	if _, err := g.Resolve(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("old handle resolved after slot reuse")
	}
	if _, err := g.Resolve(h2); err != nil {
		t.Errorf("Resolve(new handle): %v", err)
	}
}

func TestZeroHandleIsStale(t *testing.T) {
	g := NewResourceGraph(&fakeFence{})
	var h Handle
	if !h.IsZero() {
		t.Fatal("zero handle not reported as zero")
	}
	if _, err := g.Resolve(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Resolve(zero) err = %v, want ErrStaleHandle", err)
	}
}

func TestDestructionWaitsForSubmission(t *testing.T) {
	fence := &fakeFence{}
	g := NewResourceGraph(fence)
	obj := &countingObject{}
	calls := 0

	h, _ := g.Acquire(KindBuffer, "frame.uniforms", newCreator(obj, &calls))
	g.MarkUsed(h)
	serial := fence.submit()

	if err := g.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := g.Collect(fence.completed); got != 0 || obj.released != 0 {
		t.Fatalf("destroyed while in flight: collected=%d released=%d", got, obj.released)
	}
	if got := g.Pending(); got != 1 {
		t.Errorf("Pending = %d, want 1", got)
	}

	fence.completed = serial
	if got := g.Collect(fence.completed); got != 1 {
		t.Errorf("Collect = %d, want 1", got)
	}
	if obj.released != 1 {
		t.Errorf("released %d times, want 1", obj.released)
	}

	// collecting again must not destroy twice
	g.Collect(fence.completed + 10)
	if obj.released != 1 {
		t.Errorf("released %d times after second collect, want 1", obj.released)
	}
}

func TestAcquireFailure(t *testing.T) {
	g := NewResourceGraph(&fakeFence{})
	boom := errors.New("out of memory")

	_, err := g.Acquire(KindTexture, "big", func() (Releaser, error) { return nil, boom })
	if !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("err = %v, want ErrResourceExhausted", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want it to wrap the create error", err)
	}
	if got := g.Len(); got != 0 {
		t.Errorf("Len = %d after failed acquire, want 0", got)
	}
}

// Three UI renderers share the quad vertex buffer and sampler. Dropping any two leaves the
// resources usable by the third, and dropping all three destroys each exactly once.
func TestSharedQuadScenario(t *testing.T) {
	fence := &fakeFence{}
	g := NewResourceGraph(fence)
	vertices := &countingObject{name: "vertices"}
	sampler := &countingObject{name: "sampler"}
	var vCalls, sCalls int

	type user struct{ v, s Handle }
	acquire := func() user {
		v, err := g.Acquire(KindBuffer, "ui.quad.vertices", newCreator(vertices, &vCalls))
		if err != nil {
			t.Fatalf("Acquire vertices: %v", err)
		}
		s, err := g.Acquire(KindSampler, "ui.sampler", newCreator(sampler, &sCalls))
		if err != nil {
			t.Fatalf("Acquire sampler: %v", err)
		}
		return user{v, s}
	}
	release := func(u user) {
		if err := g.Release(u.v); err != nil {
			t.Fatalf("Release vertices: %v", err)
		}
		if err := g.Release(u.s); err != nil {
			t.Fatalf("Release sampler: %v", err)
		}
	}

	a, b, c := acquire(), acquire(), acquire()
	if vCalls != 1 || sCalls != 1 {
		t.Fatalf("create calls = %d/%d, want 1/1", vCalls, sCalls)
	}

	release(a)
	release(c)
	fence.submit()
	fence.completed = fence.submitted
	g.Collect(fence.completed)

	obj, err := ResolveAs[*countingObject](g, b.v)
	if err != nil {
		t.Fatalf("B lost the vertex buffer: %v", err)
	}
	if obj != vertices || vertices.released != 0 {
		t.Errorf("vertex buffer destroyed while B holds it")
	}

	release(b)
	if err := g.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if vertices.released != 1 || sampler.released != 1 {
		t.Errorf("released vertices=%d sampler=%d, want 1/1", vertices.released, sampler.released)
	}
	if g.Len() != 0 || g.Pending() != 0 {
		t.Errorf("graph not empty: len=%d pending=%d", g.Len(), g.Pending())
	}
}

func TestReleaseAllAndDrain(t *testing.T) {
	fence := &fakeFence{}
	g := NewResourceGraph(fence)
	objs := []*countingObject{{}, {}, {}}
	calls := 0
	for i, o := range objs {
		h, _ := g.Acquire(KindBindGroup, NewIdentity("bg"), newCreator(o, &calls))
		if i == 0 {
			_ = g.Retain(h)
		}
	}
	fence.submit()

	g.ReleaseAll()
	if err := g.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	for i, o := range objs {
		if o.released != 1 {
			t.Errorf("object %d released %d times, want 1", i, o.released)
		}
	}
}

func TestDrainHonoursContext(t *testing.T) {
	g := NewResourceGraph(&fakeFence{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.Drain(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Drain err = %v, want context.Canceled", err)
	}
}

func TestResolveAsTypeMismatch(t *testing.T) {
	g := NewResourceGraph(&fakeFence{})
	h, _ := g.Acquire(KindSampler, "s", func() (Releaser, error) { return ReleaserFunc(func() {}), nil })
	if _, err := ResolveAs[*countingObject](g, h); err == nil {
		t.Error("expected a type mismatch error")
	}
}

func TestRetireWaitsForSubmitted(t *testing.T) {
	fence := &fakeFence{}
	g := NewResourceGraph(fence)
	obj := &countingObject{name: "pipeline"}

	fence.submit()
	Retire(g, KindPipeline, "world", obj)
	if g.Len() != 0 || g.Pending() != 1 {
		t.Fatalf("Len = %d, Pending = %d, want 0 and 1", g.Len(), g.Pending())
	}
	if g.Collect(0) != 0 || obj.released != 0 {
		t.Fatal("retired object destroyed before its serial completed")
	}
	if g.Collect(1) != 1 || obj.released != 1 {
		t.Errorf("released = %d after serial 1 completed, want 1", obj.released)
	}
}
