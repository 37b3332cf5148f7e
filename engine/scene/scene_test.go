package scene

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/game_object"
	"github.com/Carmen-Shannon/oxy-quake/engine/light"
	"github.com/Carmen-Shannon/oxy-quake/engine/model"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/world"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeBrush struct {
	name       string
	mins, maxs common.Vec3
}

func (f *fakeBrush) Name() string { return f.name }
func (f *fakeBrush) Geometry() *world.BrushGeometry { return nil }
func (f *fakeBrush) Bounds() (common.Vec3, common.Vec3) { return f.mins, f.maxs }
func (f *fakeBrush) Record(*wgpu.RenderPassEncoder, time.Duration, int) {}
func (f *fakeBrush) Release() {}

type fakeAlias struct {
	m model.Model
}

func (f *fakeAlias) Model() model.Model { return f.m }
func (f *fakeAlias) Record(*wgpu.RenderPassEncoder, time.Duration, int, int) {}
func (f *fakeAlias) Release() {}

func newAlias(radius float32) world.AliasModel {
	return &fakeAlias{m: model.NewModel(model.WithName("test"), model.WithBoundingRadius(radius))}
}

func TestStyleValue(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		at      time.Duration
		want    float32
	}{
		{"empty is constant", "", 3 * time.Second, 1},
		{"dark", "a", 0, 0},
		{"double", "z", 0, 2},
		{"normal", "m", 0, 12 / 12.5},
		{"first step", "az", 50 * time.Millisecond, 0},
		{"second step", "az", 150 * time.Millisecond, 2},
		{"wraps", "az", 250 * time.Millisecond, 0},
		{"below range clamps", "#", 0, 0},
		{"above range clamps", "~", 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StyleValue(tt.pattern, tt.at); math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetLightStyle(t *testing.T) {
	s := NewScene("test", nil)
	if err := s.SetLightStyle(64, "a"); !errors.Is(err, ErrStyleOutOfRange) {
		t.Errorf("got %v, want ErrStyleOutOfRange", err)
	}
	if err := s.SetLightStyle(-1, "a"); !errors.Is(err, ErrStyleOutOfRange) {
		t.Errorf("got %v, want ErrStyleOutOfRange", err)
	}
	if err := s.SetLightStyle(3, "z"); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	in, _ := s.Frame(1)
	if got := in.Frame.Style(3); got != 2 {
		t.Errorf("got style 3 = %v, want 2", got)
	}
	if got, want := in.Frame.Style(0), float32(12/12.5); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("got style 0 = %v, want default %v", got, want)
	}
}

func TestFrameOrdersDraws(t *testing.T) {
	worldModel := &fakeBrush{name: "world"}
	door := &fakeBrush{name: "door", mins: common.Vec3{-8, -8, -8}, maxs: common.Vec3{8, 8, 8}}
	monster := newAlias(16)

	s := NewScene("test", nil, WithObjects(
		game_object.NewGameObject(game_object.WithBrushModel(door), game_object.WithOrigin(common.Vec3{200, 0, 0})),
		game_object.NewGameObject(game_object.WithAliasModel(monster), game_object.WithOrigin(common.Vec3{100, 0, 0}), game_object.WithSkin(1)),
		game_object.NewGameObject(game_object.WithBrushModel(door), game_object.WithOrigin(common.Vec3{300, 0, 0}), game_object.WithEnabled(false)),
	))
	s.Add(game_object.NewGameObject(game_object.WithWorld(worldModel)))

	in, culled := s.Frame(4)
	if culled != 0 {
		t.Errorf("got %d culled, want 0", culled)
	}
	if len(in.Brushes) != 2 {
		t.Fatalf("got %d brush draws, want 2", len(in.Brushes))
	}
	if in.Brushes[0].Model != world.BrushModel(worldModel) {
		t.Errorf("got first brush %v, want the world", in.Brushes[0].Model.Name())
	}
	if len(in.Aliases) != 1 || in.Aliases[0].Skin != 1 {
		t.Errorf("got aliases %+v, want one draw with skin 1", in.Aliases)
	}
	if got := in.Frame.SampleCount(); got != 4 {
		t.Errorf("got sample count %d, want 4", got)
	}
}

func TestFrameCulling(t *testing.T) {
	behind := game_object.NewGameObject(game_object.WithAliasModel(newAlias(10)), game_object.WithOrigin(common.Vec3{-500, 0, 0}))
	ahead := game_object.NewGameObject(game_object.WithAliasModel(newAlias(10)), game_object.WithOrigin(common.Vec3{500, 0, 0}))
	s := NewScene("test", nil, WithObjects(behind, ahead))

	in, culled := s.Frame(1)
	if culled != 1 || len(in.Aliases) != 1 {
		t.Errorf("got %d culled and %d draws, want 1 and 1", culled, len(in.Aliases))
	}

	s.SetCullingDisabled(true)
	in, culled = s.Frame(1)
	if culled != 0 || len(in.Aliases) != 2 {
		t.Errorf("got %d culled and %d draws with culling off, want 0 and 2", culled, len(in.Aliases))
	}
}

func TestAttachedLights(t *testing.T) {
	l := light.NewLight(0, light.WithRadius(200), light.WithTTL(time.Second))
	s := NewScene("test", nil)
	id := s.Add(game_object.NewGameObject(game_object.WithOrigin(common.Vec3{100, 0, 0}), game_object.WithLight(l)))

	in, _ := s.Frame(1)
	if len(in.Lights) != 1 {
		t.Fatalf("got %d lights, want 1", len(in.Lights))
	}
	if got, want := in.Lights[0].Origin, common.SimToRender(common.Vec3{100, 0, 0}); got != want {
		t.Errorf("got light origin %v, want %v", got, want)
	}

	s.Remove(id)
	if s.Lights().Len() != 0 {
		t.Errorf("got %d lights after remove, want 0", s.Lights().Len())
	}

	s.SpawnLight(light.NewLight(s.Time(), light.WithTTL(500*time.Millisecond)))
	s.Advance(time.Second)
	if s.Lights().Len() != 0 {
		t.Errorf("got %d lights after expiry, want 0", s.Lights().Len())
	}
	if got := s.Time(); got != time.Second {
		t.Errorf("got time %v, want 1s", got)
	}
}

func TestClear(t *testing.T) {
	s := NewScene("test", nil, WithObjects(game_object.NewGameObject()))
	s.Advance(time.Second)
	s.Clear()
	if s.Count() != 0 || s.Time() != 0 {
		t.Errorf("got count %d time %v, want empty scene at time 0", s.Count(), s.Time())
	}
	if id := s.Add(game_object.NewGameObject()); id != 1 {
		t.Errorf("got id %d after clear, want 1", id)
	}
}
