package main

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quake/engine/scene"
)

func typeLine(in *input, line string) {
	for _, r := range line {
		in.char(r)
	}
	in.keyDown(common.KeyEnter)
}

func TestConsoleCommands(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		reply string
		check func(t *testing.T, sc scene.Scene)
	}{
		{
			name: "fov",
			line: "fov 110",
			check: func(t *testing.T, sc scene.Scene) {
				if got := sc.Camera().Fov(); got != 110 {
					t.Errorf("got fov %v, want 110", got)
				}
			},
		},
		{name: "fov out of range", line: "fov 200", reply: "fov: expected degrees between 0 and 180"},
		{
			name: "nocull",
			line: "r_nocull 1",
			check: func(t *testing.T, sc scene.Scene) {
				if !sc.CullingDisabled() {
					t.Errorf("got culling enabled, want disabled")
				}
			},
		},
		{name: "bad style", line: "lightstyle 64 a", reply: scene.ErrStyleOutOfRange.Error() + ": 64"},
		{name: "unknown", line: "noclip", reply: "unknown command noclip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := scene.NewScene("test", nil)
			in := newInput(sc, func() {})
			in.keyDown(common.KeyGrave)
			typeLine(in, tt.line)

			out := in.console.Output
			if out[0] != "]"+tt.line {
				t.Errorf("got echo %q, want %q", out[0], "]"+tt.line)
			}
			if tt.reply != "" && (len(out) < 2 || out[1] != tt.reply) {
				t.Errorf("got output %q, want reply %q", out, tt.reply)
			}
			if tt.check != nil {
				tt.check(t, sc)
			}
		})
	}
}

func TestConsoleLineEditing(t *testing.T) {
	in := newInput(scene.NewScene("test", nil), func() {})
	in.char('x')
	if in.console.Input != "" {
		t.Errorf("got %q typed with the console closed, want nothing", in.console.Input)
	}

	in.keyDown(common.KeyGrave)
	for _, r := range "fv" {
		in.char(r)
	}
	in.keyDown(common.KeyLeft)
	in.char('o')
	if in.console.Input != "fov" || in.console.Cursor != 2 {
		t.Errorf("got %q cursor %d, want \"fov\" cursor 2", in.console.Input, in.console.Cursor)
	}
	in.keyDown(common.KeyBackspace)
	if in.console.Input != "fv" {
		t.Errorf("got %q, want \"fv\"", in.console.Input)
	}
}

func TestEscapeQuits(t *testing.T) {
	quit := 0
	in := newInput(scene.NewScene("test", nil), func() { quit++ })

	in.keyDown(common.KeyGrave)
	in.keyDown(common.KeyEscape)
	if quit != 0 || in.consoleOpen {
		t.Errorf("got quit %d console %t, want escape to close the console first", quit, in.consoleOpen)
	}
	in.keyDown(common.KeyEscape)
	if quit != 1 {
		t.Errorf("got quit %d, want 1", quit)
	}
}

func TestTickMovesCamera(t *testing.T) {
	sc := scene.NewScene("test", nil)
	in := newInput(sc, func() {})
	in.keyDown(common.KeyW)
	in.tick(0.5)

	ctrl := sc.Camera().Controller()
	want := ctrl.MoveSpeed() * 0.5
	if got := ctrl.Origin(); got[0] != want || got[1] != 0 || got[2] != 0 {
		t.Errorf("got origin %v, want (%v, 0, 0)", got, want)
	}

	in.keyUp(common.KeyW)
	in.tick(0.5)
	if got := ctrl.Origin(); got[0] != want {
		t.Errorf("got origin %v after release, want unchanged", got)
	}
}

func TestMouseButtons(t *testing.T) {
	sc := scene.NewScene("test", nil)
	in := newInput(sc, func() {})

	in.mouseButton(common.MouseLeft, true)
	if n := sc.Lights().Len(); n != 1 {
		t.Errorf("got %d lights, want a muzzle flash", n)
	}
	if in.hud.Ammo != 24 {
		t.Errorf("got ammo %d, want 24", in.hud.Ammo)
	}

	in.mouseButton(common.MouseRight, true)
	in.tick(0)
	if got := sc.ColorShift(); got[3] != 0.5 {
		t.Errorf("got shift %v, want alpha 0.5", got)
	}
	in.tick(1)
	if got := sc.ColorShift(); got[3] != 0 || in.hud.Pain {
		t.Errorf("got shift %v pain %t, want faded", got, in.hud.Pain)
	}
}

func TestOverlay(t *testing.T) {
	in := newInput(scene.NewScene("test", nil), func() {})
	var frame renderer.FrameInput
	in.overlay(0, &frame)
	if frame.Hud == nil || frame.Hud.Health != 100 {
		t.Errorf("got hud %+v, want health 100", frame.Hud)
	}
	if frame.Console != nil {
		t.Errorf("got console with the console closed, want nil")
	}

	in.keyDown(common.KeyGrave)
	frame = renderer.FrameInput{}
	in.overlay(0, &frame)
	if frame.Console == nil || frame.Console.Proportion != consoleProportion {
		t.Errorf("got console %+v, want proportion %v", frame.Console, consoleProportion)
	}
}
