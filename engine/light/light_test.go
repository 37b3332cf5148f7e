package light

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

func TestRadiusDecay(t *testing.T) {
	explosion := NewLight(time.Second, WithRadius(350), WithDecayRate(300), WithTTL(500*time.Millisecond))
	flash := NewLight(0, WithRadius(200), WithDecayRate(1000), WithMinRadius(32), WithTTL(time.Second))

	tests := []struct {
		name    string
		l       Light
		now     time.Duration
		radius  float32
		expired bool
	}{
		{"at spawn", explosion, time.Second, 350, false},
		{"half second", explosion, time.Second + 250*time.Millisecond, 275, false},
		{"before spawn", explosion, 0, 350, false},
		{"ttl reached", explosion, time.Second + 500*time.Millisecond, 200, true},
		{"floored at min radius", flash, 500 * time.Millisecond, 32, false},
		{"min radius still expires", flash, time.Second, 32, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.l.Radius(tt.now); got != tt.radius {
				t.Errorf("Radius = %v, want %v", got, tt.radius)
			}
			if got := tt.l.Expired(tt.now); got != tt.expired {
				t.Errorf("Expired = %v, want %v", got, tt.expired)
			}
		})
	}
}

func TestRadiusDecaysToZero(t *testing.T) {
	l := NewLight(0, WithRadius(100), WithDecayRate(200), WithTTL(time.Minute))
	if l.Radius(time.Second) != 0 {
		t.Errorf("Radius = %v, want 0", l.Radius(time.Second))
	}
	if !l.Expired(time.Second) {
		t.Error("fully decayed light should be expired")
	}
}

func TestListInsertReplace(t *testing.T) {
	ls := NewList()
	a := ls.Insert(NewLight(0), 0)
	b := ls.Insert(NewLight(0), 0)
	c := ls.Insert(NewLight(0), a)

	if ls.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ls.Len())
	}
	if _, ok := ls.Get(a); ok {
		t.Error("replaced light still live")
	}
	var order []ID
	ls.Each(func(id ID, _ Light) { order = append(order, id) })
	if len(order) != 2 || order[0] != b || order[1] != c {
		t.Errorf("order = %v, want [%d %d]", order, b, c)
	}

	ls.Remove(b)
	ls.Clear()
	if ls.Len() != 0 {
		t.Errorf("Len after Clear = %d", ls.Len())
	}
}

func TestListUpdate(t *testing.T) {
	ls := NewList()
	ls.Insert(NewLight(0, WithTTL(100*time.Millisecond)), 0)
	keep := ls.Insert(NewLight(0, WithTTL(time.Second)), 0)

	if n := ls.Update(200 * time.Millisecond); n != 1 {
		t.Errorf("Update dropped %d, want 1", n)
	}
	if _, ok := ls.Get(keep); !ok || ls.Len() != 1 {
		t.Error("long-lived light was dropped")
	}
}

func TestCollect(t *testing.T) {
	ls := NewList()
	for i := range uniform.MaxLights + 8 {
		ls.Insert(NewLight(0, WithOrigin(common.Vec3{float32(i), 2, 3}), WithTTL(time.Minute)), 0)
	}
	ls.Insert(NewLight(0, WithTTL(time.Millisecond)), 0)

	got := Collect(ls, time.Second, nil)
	if len(got) != uniform.MaxLights {
		t.Fatalf("len = %d, want %d", len(got), uniform.MaxLights)
	}
	// simulation (1, 2, 3) is render (-2, 3, -1)
	if got[1].Origin != [3]float32{-2, 3, -1} || got[1].Radius != 200 {
		t.Errorf("light 1 = %+v", got[1])
	}
}

func TestCollectFrustum(t *testing.T) {
	// camera at the render origin looking down -z
	viewProj := common.Perspective(common.Radians(90), 1, 1, 1000)
	frustum := common.ExtractFrustum(viewProj)

	ls := NewList()
	// simulation +x is render -z, in front of the camera
	ls.Insert(NewLight(0, WithOrigin(common.Vec3{100, 0, 0}), WithRadius(10), WithTTL(time.Minute)), 0)
	// simulation -x is behind it
	ls.Insert(NewLight(0, WithOrigin(common.Vec3{-100, 0, 0}), WithRadius(10), WithTTL(time.Minute)), 0)

	got := Collect(ls, 0, &frustum)
	if len(got) != 1 || got[0].Origin != [3]float32{0, 0, -100} {
		t.Errorf("visible lights = %+v", got)
	}
}
