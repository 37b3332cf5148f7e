// Command oxyview flies a camera through a demo level with the deferred renderer.
//
// Controls: WASD and space move, shift runs, the mouse looks, the left button fires a muzzle
// flash, the right button flashes the screen red, F1 shows the raw lightmap, ` opens the
// console and escape quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine"
	"github.com/Carmen-Shannon/oxy-quake/engine/camera"
	"github.com/Carmen-Shannon/oxy-quake/engine/config"
	"github.com/Carmen-Shannon/oxy-quake/engine/game_object"
	"github.com/Carmen-Shannon/oxy-quake/engine/light"
	"github.com/Carmen-Shannon/oxy-quake/engine/loader"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/palette"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/world"
	"github.com/Carmen-Shannon/oxy-quake/engine/scene"
	"github.com/Carmen-Shannon/oxy-quake/engine/window"
)

// flickerStyle is the classic fluorescent flicker.
const flickerStyle = "mmamammmmammamamaaamammma"

func main() {
	configPath := flag.String("config", "oxyview.toml", "path to the TOML configuration; defaults are used when it does not exist")
	palettePath := flag.String("palette", "", "path to a 768 byte palette.lmp; a grayscale ramp is used when empty")
	flag.Parse()

	if err := run(*configPath, *palettePath); err != nil {
		common.LogError("oxyview: %v", err)
		os.Exit(1)
	}
}

func run(configPath, palettePath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	common.SetLogLevel(cfg.Log.Level)

	pal := palette.Grayscale()
	if palettePath != "" {
		if pal, err = palette.Load(palettePath); err != nil {
			return err
		}
	}

	// ── Window + Renderer ───────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithCursorCaptured(true),
	)
	if err != nil {
		return err
	}
	r, err := renderer.NewRenderer(win, cfg)
	if err != nil {
		win.Close()
		return err
	}

	// ── Level ───────────────────────────────────────────────────────────
	worldModel, pillarModel, err := loadLevel(r, pal)
	if err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		r.Shutdown(ctx)
		win.Close()
		return err
	}

	// ── Camera + Scene ──────────────────────────────────────────────────
	cam := camera.NewCamera(
		camera.WithFov(cfg.Renderer.FieldOfView),
		camera.WithAspect(float32(win.Width())/float32(max(win.Height(), 1))),
		camera.WithController(camera.NewCameraController(
			camera.WithOrigin(common.Vec3{-192, 0, 64}),
		)),
	)
	sc := scene.NewScene("demo", cam,
		scene.WithActive(true),
		scene.WithLightStyles("m", flickerStyle),
	)
	sc.Add(game_object.NewGameObject(game_object.WithWorld(worldModel)))
	pillar := game_object.NewGameObject(
		game_object.WithBrushModel(pillarModel),
		game_object.WithOrigin(common.Vec3{128, 0, 0}),
		game_object.WithLight(light.NewLight(0,
			light.WithRadius(180),
			light.WithTTL(24*time.Hour),
		)),
	)
	sc.Add(pillar)

	// ── Engine ──────────────────────────────────────────────────────────
	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithScene(0, sc),
		engine.WithProfiling(cfg.Renderer.Profile),
		engine.WithRenderFrameLimit(cfg.Renderer.FrameLimit),
	)

	in := newInput(sc, eng.Quit)
	win.SetKeyDownCallback(in.keyDown)
	win.SetKeyUpCallback(in.keyUp)
	win.SetCharCallback(in.char)
	win.SetMouseMoveCallback(in.mouseMove)
	win.SetMouseButtonCallback(in.mouseButton)

	eng.SetTickCallback(func(dt float32) {
		in.tick(dt)
		// The pillar turns.
		angles := pillar.Angles()
		angles[1] += 45 * dt
		pillar.SetAngles(angles)
	})
	eng.SetRenderCallback(in.overlay)

	common.LogInfo("oxyview: %s at %dx%d, %d MSAA samples", cfg.Window.Title, win.Width(), win.Height(), r.SampleCount())
	return eng.Run()
}

// loadLevel translates the demo textures on the loader's worker pool and uploads the world and
// the pillar brush model.
func loadLevel(r renderer.Renderer, pal palette.Palette) (world.BrushModel, world.BrushModel, error) {
	ld := loader.NewLoader(pal)
	defer ld.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	textures := roomTextures()
	worldSrc, err := ld.PrepareBrush(ctx, "maps/demo.bsp", textures, roomFaces())
	if err != nil {
		return nil, nil, err
	}
	pillarSrc, err := ld.PrepareBrush(ctx, "*1", textures[texWall:texWall+1], pillarFaces())
	if err != nil {
		return nil, nil, err
	}

	worldModel, err := world.NewBrushModel(r.Backend(), r.Graph(), r.Dummies(), r.GBuffer(), worldSrc)
	if err != nil {
		return nil, nil, fmt.Errorf("upload %s: %w", worldSrc.Name, err)
	}
	pillarModel, err := world.NewBrushModel(r.Backend(), r.Graph(), r.Dummies(), r.GBuffer(), pillarSrc)
	if err != nil {
		worldModel.Release()
		return nil, nil, fmt.Errorf("upload %s: %w", pillarSrc.Name, err)
	}
	common.LogInfo("oxyview: loaded %d textures", len(ld.Textures()))
	return worldModel, pillarModel, nil
}
