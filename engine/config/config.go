// Package config loads engine settings from TOML. Every field has a default so an
// empty or partial file is valid.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is wrapped by every validation failure returned from Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of the engine configuration file.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Shading  ShadingConfig  `toml:"shading"`
	Log      LogConfig      `toml:"log"`
}

// WindowConfig controls the platform window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// RendererConfig controls device creation and the frame pipeline.
type RendererConfig struct {
	// MSAA is the G-buffer sample count: 1 or 4.
	MSAA uint32 `toml:"msaa"`
	// VSync selects FIFO presentation when true, immediate otherwise.
	VSync bool `toml:"vsync"`
	// ForceFallbackAdapter requests a software adapter.
	ForceFallbackAdapter bool `toml:"force_fallback_adapter"`
	// FrameLimit caps frames per second; 0 is uncapped.
	FrameLimit float64 `toml:"frame_limit"`
	// FieldOfView is the vertical field of view in degrees.
	FieldOfView float32 `toml:"fov"`
	// ShaderDir, when set, is searched for .wgsl overrides of the embedded shaders.
	ShaderDir string `toml:"shader_dir"`
	// HotReload watches ShaderDir and rebuilds pipelines when a shader changes.
	HotReload bool `toml:"hot_reload"`
	// Profile logs frame statistics once per second.
	Profile bool `toml:"profile"`
}

// ShadingConfig holds the constants the surface and lighting shaders are parameterised with.
type ShadingConfig struct {
	// SaturationCeiling is the upper bound on accumulated light in the resolve pass.
	SaturationCeiling float32 `toml:"saturation_ceiling"`
	// LightmapScale is applied to the summed lightmap before it is written to the light attachment.
	LightmapScale float32 `toml:"lightmap_scale"`

	WarpAmplitude float32 `toml:"warp_amplitude"`
	WarpScale     float32 `toml:"warp_scale"`
	WarpFrequency float32 `toml:"warp_frequency"`

	// SkyScrollSpeed is the solid layer scroll speed in texels per second; clouds move at twice this rate.
	SkyScrollSpeed float32 `toml:"sky_scroll_speed"`
	// SkyPeriod is the texcoord range after which the sky scroll wraps.
	SkyPeriod float32 `toml:"sky_period"`
}

// LogConfig controls the engine logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-quake",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			MSAA:        4,
			VSync:       true,
			FieldOfView: 90,
		},
		Shading: ShadingConfig{
			SaturationCeiling: 4.0,
			LightmapScale:     0.25,
			WarpAmplitude:     0.125,
			WarpScale:         math.Pi,
			WarpFrequency:     1.0,
			SkyScrollSpeed:    8.0,
			SkyPeriod:         128.0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Parse decodes TOML over the defaults and validates the result. Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the merged configuration
//   - error: a decode error, or an error wrapping ErrInvalidConfig
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Encode renders the configuration back to TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks value ranges that the renderer depends on.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Renderer.MSAA != 1 && c.Renderer.MSAA != 4:
		return fmt.Errorf("%w: msaa must be 1 or 4, got %d", ErrInvalidConfig, c.Renderer.MSAA)
	case c.Renderer.FieldOfView <= 0 || c.Renderer.FieldOfView >= 180:
		return fmt.Errorf("%w: fov %v out of range", ErrInvalidConfig, c.Renderer.FieldOfView)
	case c.Shading.SaturationCeiling <= 0:
		return fmt.Errorf("%w: saturation_ceiling must be positive", ErrInvalidConfig)
	case c.Shading.LightmapScale <= 0 || c.Shading.LightmapScale > 1:
		return fmt.Errorf("%w: lightmap_scale must be in (0, 1]", ErrInvalidConfig)
	case c.Shading.SkyPeriod <= 0:
		return fmt.Errorf("%w: sky_period must be positive", ErrInvalidConfig)
	case c.Renderer.HotReload && c.Renderer.ShaderDir == "":
		return fmt.Errorf("%w: hot_reload requires shader_dir", ErrInvalidConfig)
	}
	return nil
}
