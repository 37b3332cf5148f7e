package game_object

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/light"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

func TestAttachedLightFollowsOrigin(t *testing.T) {
	l := light.NewLight(0)
	obj := NewGameObject(WithOrigin(common.Vec3{1, 2, 3}), WithLight(l))
	if got, want := l.Origin(), (common.Vec3{1, 2, 3}); got != want {
		t.Errorf("got light origin %v at construction, want %v", got, want)
	}

	obj.SetOrigin(common.Vec3{10, 20, 30})
	if got, want := l.Origin(), (common.Vec3{10, 20, 30}); got != want {
		t.Errorf("got light origin %v after move, want %v", got, want)
	}

	other := light.NewLight(time.Second)
	obj.SetLight(other)
	if got, want := other.Origin(), (common.Vec3{10, 20, 30}); got != want {
		t.Errorf("got attached light origin %v, want %v", got, want)
	}
	obj.SetLight(nil)
	obj.SetOrigin(common.Vec3{})
	if got, want := other.Origin(), (common.Vec3{10, 20, 30}); got != want {
		t.Errorf("got detached light origin %v, want unchanged %v", got, want)
	}
}

func TestEntityContext(t *testing.T) {
	viewProj := common.Perspective(common.Radians(90), 1, 1, 1000)
	tests := []struct {
		name string
		obj  GameObject
		want uniform.EntityContext
	}{
		{
			name: "world ignores origin",
			obj:  NewGameObject(WithWorld(nil), WithOrigin(common.Vec3{5, 5, 5})),
			want: uniform.NewWorldEntityContext(viewProj),
		},
		{
			name: "entity uses origin and angles",
			obj:  NewGameObject(WithOrigin(common.Vec3{5, 0, 0}), WithAngles([3]float32{0, 90, 0})),
			want: uniform.NewEntityContext(viewProj, common.Vec3{5, 0, 0}, [3]float32{0, 90, 0}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obj.EntityContext(viewProj); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	obj := NewGameObject()
	if !obj.Enabled() {
		t.Errorf("got disabled, want enabled by default")
	}
	if obj.IsWorld() {
		t.Errorf("got world, want plain entity")
	}
	center, radius := obj.BoundingSphere()
	if center != (common.Vec3{}) || radius != 0 {
		t.Errorf("got sphere (%v, %v), want empty sphere at origin", center, radius)
	}
	obj.SetEnabled(false)
	if obj.Enabled() {
		t.Errorf("got enabled, want disabled")
	}
}
