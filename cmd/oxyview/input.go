package main

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/light"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/ui"
	"github.com/Carmen-Shannon/oxy-quake/engine/scene"
)

const (
	consoleProportion = 0.5
	consoleHistory    = 64
	// flashFade is how much color shift alpha fades per second.
	flashFade = 1.5
)

// input turns window events into camera movement, console edits and scene changes. Events
// arrive on the window goroutine; tick and overlay run on the engine goroutines.
type input struct {
	mu *sync.Mutex

	scene scene.Scene
	quit  func()

	held map[uint32]bool
	look [2]float32

	console     ui.ConsoleState
	consoleOpen bool
	rawLightmap bool
	flash       float32
	hud         ui.HudState
}

func newInput(sc scene.Scene, quit func()) *input {
	return &input{
		mu:    &sync.Mutex{},
		scene: sc,
		quit:  quit,
		held:  make(map[uint32]bool),
		hud:   ui.HudState{Health: 100, Ammo: 25, AmmoCounts: [4]int32{25, 0, 0, 0}},
	}
}

func (in *input) keyDown(key uint32) {
	in.mu.Lock()
	defer in.mu.Unlock()

	switch key {
	case common.KeyGrave:
		in.consoleOpen = !in.consoleOpen
		clear(in.held)
		return
	case common.KeyEscape:
		if in.consoleOpen {
			in.consoleOpen = false
			return
		}
		in.quit()
		return
	}

	if in.consoleOpen {
		in.editConsole(key)
		return
	}
	switch key {
	case common.KeyF1:
		in.rawLightmap = !in.rawLightmap
		in.scene.SetRawLightmap(in.rawLightmap)
	default:
		in.held[key] = true
	}
}

func (in *input) keyUp(key uint32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.held, key)
}

func (in *input) char(r rune) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.consoleOpen || r == '`' {
		return
	}
	c := &in.console
	c.Input = c.Input[:c.Cursor] + string(r) + c.Input[c.Cursor:]
	c.Cursor += len(string(r))
}

// editConsole handles the non-printable keys of the console line editor. Must hold mu.
func (in *input) editConsole(key uint32) {
	c := &in.console
	switch key {
	case common.KeyBackspace:
		if c.Cursor > 0 {
			c.Input = c.Input[:c.Cursor-1] + c.Input[c.Cursor:]
			c.Cursor--
		}
	case common.KeyLeft:
		c.Cursor = max(c.Cursor-1, 0)
	case common.KeyRight:
		c.Cursor = min(c.Cursor+1, len(c.Input))
	case common.KeyEnter:
		line := c.Input
		c.Input, c.Cursor = "", 0
		in.print("]" + line)
		if out := in.execute(line); out != "" {
			in.print(out)
		}
	}
}

// print appends a line to the console output, dropping the oldest past consoleHistory.
func (in *input) print(line string) {
	in.console.Output = append(in.console.Output, line)
	if n := len(in.console.Output); n > consoleHistory {
		in.console.Output = in.console.Output[n-consoleHistory:]
	}
}

// execute runs one console command and returns its reply. Must hold mu.
func (in *input) execute(line string) string {
	args := strings.Fields(line)
	if len(args) == 0 {
		return ""
	}
	switch args[0] {
	case "quit":
		in.quit()
		return ""
	case "fov":
		if len(args) < 2 {
			return fmt.Sprintf("fov is %g", in.scene.Camera().Fov())
		}
		v, err := strconv.ParseFloat(args[1], 32)
		if err != nil || v <= 0 || v >= 180 {
			return "fov: expected degrees between 0 and 180"
		}
		in.scene.Camera().SetFov(float32(v))
	case "r_nocull":
		if len(args) < 2 {
			return fmt.Sprintf("r_nocull is %t", in.scene.CullingDisabled())
		}
		in.scene.SetCullingDisabled(args[1] == "1")
	case "r_lightmap":
		in.rawLightmap = !in.rawLightmap
		in.scene.SetRawLightmap(in.rawLightmap)
	case "lightstyle":
		if len(args) < 3 {
			return "usage: lightstyle <index> <pattern>"
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return "lightstyle: bad index"
		}
		if err := in.scene.SetLightStyle(idx, args[2]); err != nil {
			return err.Error()
		}
	default:
		return "unknown command " + args[0]
	}
	return ""
}

func (in *input) mouseMove(dx, dy float32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.consoleOpen {
		return
	}
	in.look[0] += dx
	in.look[1] += dy
}

// mouseButton fires a muzzle flash on the left button and a damage flash on the right.
func (in *input) mouseButton(button int, pressed bool) {
	if !pressed {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.consoleOpen {
		return
	}

	switch button {
	case common.MouseLeft:
		cam := in.scene.Camera()
		forward, _, _ := cam.Controller().Vectors()
		origin := common.Add(cam.Origin(), common.Mul(forward, 18))
		in.scene.SpawnLight(light.NewLight(in.scene.Time(),
			light.WithOrigin(origin),
			light.WithRadius(200+float32(in.hud.Ammo%4)*8),
			light.WithMinRadius(32),
			light.WithTTL(100*time.Millisecond),
		))
		if in.hud.Ammo > 0 {
			in.hud.Ammo--
			in.hud.AmmoCounts[0] = in.hud.Ammo
		}
	case common.MouseRight:
		in.flash = 0.5
		in.hud.Pain = true
		in.hud.Health = max(in.hud.Health-10, 0)
	}
}

// tick applies held movement keys and accumulated mouse look. Runs on the tick goroutine.
func (in *input) tick(dt float32) {
	in.mu.Lock()
	defer in.mu.Unlock()

	ctrl := in.scene.Camera().Controller()
	ctrl.Look(in.look[0], in.look[1])
	in.look = [2]float32{}

	// The controller scales by its move speed.
	step := dt
	if in.held[common.KeyLeftShift] {
		step *= 2
	}
	if in.held[common.KeyW] {
		ctrl.MoveForward(step)
	}
	if in.held[common.KeyS] {
		ctrl.MoveForward(-step)
	}
	if in.held[common.KeyD] {
		ctrl.MoveRight(step)
	}
	if in.held[common.KeyA] {
		ctrl.MoveRight(-step)
	}
	if in.held[common.KeySpace] {
		ctrl.MoveUp(step)
	}

	in.flash = max(in.flash-flashFade*dt, 0)
	if in.flash == 0 {
		in.hud.Pain = false
	}
	in.scene.SetColorShift([4]float32{1, 0, 0, in.flash})
	in.console.Time += float64(dt)
}

// overlay attaches the console and the status bar to a frame. Runs on the render goroutine.
func (in *input) overlay(_ float32, frame *renderer.FrameInput) {
	in.mu.Lock()
	defer in.mu.Unlock()

	hud := in.hud
	frame.Hud = &hud
	if in.consoleOpen {
		console := in.console
		console.Output = append([]string(nil), in.console.Output...)
		console.Proportion = consoleProportion
		frame.Console = &console
	}
}
