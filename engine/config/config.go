package config

import (
	_ "embed"
	"fmt"
	"math"
)

//go:embed default.toml
var defaultConfig []byte

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Loop        LoopConfig        `toml:"loop"`
	InfoDisplay InfoDisplay       `toml:"info_display"`
	Renderer    RendererConfig    `toml:"renderer"`
	Scripting   ScriptingConfig   `toml:"scripting"`
	Assets      AssetsConfig      `toml:"assets"`
	Audio       AudioConfig       `toml:"audio"`
	Log         LogConfig         `toml:"log"`
}

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
}

// LoopConfig drives the frame timing of the application loop.
type LoopConfig struct {
	// Fixed update rate, in updates per second.
	TargetFrameRate float64 `toml:"target_frame_rate"`
	// When enabled, fixed updates catch up with the elapsed time; otherwise
	// exactly one fixed update runs per frame.
	FrameSkip bool `toml:"frame_skip"`
	// When enabled, every frame advances by 1/TargetFrameRate regardless of
	// the measured delta time.
	FrameRateLock bool `toml:"frame_rate_lock"`
	// Seconds of accumulated fixed-update backlog after which the loop is
	// considered stalled and the backlog is dropped.
	BacklogCeiling        float64 `toml:"backlog_ceiling"`
	WarnOnBacklogOverflow bool    `toml:"warn_on_backlog_overflow"`
}

// InfoDisplay toggles the text overlay drawn on top of every frame.
type InfoDisplay struct {
	Active     bool `toml:"active"`
	Watermark  bool `toml:"watermark"`
	Resolution bool `toml:"resolution"`
	FPSInfo    bool `toml:"fps_info"`
	Size       int  `toml:"size"`
}

type RendererConfig struct {
	// One of "vulkan", "webgpu", "headless".
	Backend     string `toml:"backend"`
	DebugDevice bool   `toml:"debug_device"`
	// Optional .fnt (bitmap) or .ttf/.otf font used for overlay text.
	Font          string `toml:"font"`
	ScreenshotDir string `toml:"screenshot_dir"`
	// Headless only: dump every n-th frame to ScreenshotDir, 0 disables.
	HeadlessDumpEvery int `toml:"headless_dump_every"`
}

type ScriptingConfig struct {
	StartupScript string `toml:"startup_script"`
}

type AssetsConfig struct {
	Dir string `toml:"dir"`
	// Re-run Lua scripts of the asset directory when they change on disk.
	HotReload bool `toml:"hot_reload"`
}

type AudioConfig struct {
	Enabled       bool    `toml:"enabled"`
	SampleRate    int     `toml:"sample_rate"`
	EffectsVolume float64 `toml:"effects_volume"`
	MusicVolume   float64 `toml:"music_volume"`
}

type LogConfig struct {
	Level        string `toml:"level"`
	BacklogLines int    `toml:"backlog_lines"`
}

// FixedPeriod returns the length in seconds of one fixed update step.
func (lc LoopConfig) FixedPeriod() float64 {
	return 1.0 / lc.TargetFrameRate
}

// Validate rejects loop settings under which fixed updates could never run.
func (lc LoopConfig) Validate() error {
	if !(lc.TargetFrameRate > 0) || math.IsInf(lc.TargetFrameRate, 1) {
		return fmt.Errorf("loop.target_frame_rate must be positive, got %f", lc.TargetFrameRate)
	}
	if !(lc.BacklogCeiling >= lc.FixedPeriod()) {
		return fmt.Errorf("loop.backlog_ceiling (%f) is shorter than one fixed step (%f)", lc.BacklogCeiling, lc.FixedPeriod())
	}
	return nil
}

// Validate checks the values that would break the loop.
func (c *Config) Validate() error {
	if err := c.Loop.Validate(); err != nil {
		return err
	}
	if c.Application.StartWidth == 0 || c.Application.StartHeight == 0 {
		return fmt.Errorf("application start size must be non-zero, got %dx%d", c.Application.StartWidth, c.Application.StartHeight)
	}
	if c.InfoDisplay.Size <= 0 {
		return fmt.Errorf("info_display.size must be positive, got %d", c.InfoDisplay.Size)
	}
	switch c.Renderer.Backend {
	case "vulkan", "webgpu", "headless":
	default:
		return fmt.Errorf("renderer.backend %q is not one of vulkan, webgpu, headless", c.Renderer.Backend)
	}
	if c.Audio.EffectsVolume < 0 || c.Audio.MusicVolume < 0 {
		return fmt.Errorf("audio volumes must not be negative")
	}
	return nil
}
