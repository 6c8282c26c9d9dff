package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Lantern", cfg.Application.Name)
	assert.Equal(t, 60.0, cfg.Loop.TargetFrameRate)
	assert.True(t, cfg.Loop.FrameSkip)
	assert.False(t, cfg.Loop.FrameRateLock)
	assert.Equal(t, 10.0, cfg.Loop.BacklogCeiling)
	assert.InDelta(t, 1.0/60.0, cfg.Loop.FixedPeriod(), 1e-12)
	assert.True(t, cfg.InfoDisplay.Active)
	assert.Equal(t, "vulkan", cfg.Renderer.Backend)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lantern.toml")
	data := "[loop]\ntarget_frame_rate = 120.0\nframe_skip = false\n\n[renderer]\nbackend = \"headless\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.Loop.TargetFrameRate)
	assert.False(t, cfg.Loop.FrameSkip)
	assert.Equal(t, "headless", cfg.Renderer.Backend)
	// untouched sections keep their defaults
	assert.Equal(t, uint32(1280), cfg.Application.StartWidth)
	assert.Equal(t, 10.0, cfg.Loop.BacklogCeiling)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadInvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[loop\ntarget_frame_rate = "), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero frame rate", func(c *Config) { c.Loop.TargetFrameRate = 0 }},
		{"negative frame rate", func(c *Config) { c.Loop.TargetFrameRate = -30 }},
		{"zero ceiling", func(c *Config) { c.Loop.BacklogCeiling = 0 }},
		{"ceiling shorter than a step", func(c *Config) { c.Loop.BacklogCeiling = 0.001 }},
		{"zero width", func(c *Config) { c.Application.StartWidth = 0 }},
		{"zero info size", func(c *Config) { c.InfoDisplay.Size = 0 }},
		{"unknown backend", func(c *Config) { c.Renderer.Backend = "directx" }},
		{"negative volume", func(c *Config) { c.Audio.MusicVolume = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoopConfigValidate(t *testing.T) {
	assert.NoError(t, LoopConfig{TargetFrameRate: 4, BacklogCeiling: 0.25}.Validate())
	assert.NoError(t, Default().Loop.Validate())

	tests := []struct {
		name string
		lc   LoopConfig
	}{
		{"missing ceiling", LoopConfig{TargetFrameRate: 4, FrameSkip: true}},
		{"ceiling shorter than a step", LoopConfig{TargetFrameRate: 4, BacklogCeiling: 0.2}},
		{"zero frame rate", LoopConfig{BacklogCeiling: 10}},
		{"nan frame rate", LoopConfig{TargetFrameRate: math.NaN(), BacklogCeiling: 10}},
		{"infinite frame rate", LoopConfig{TargetFrameRate: math.Inf(1), BacklogCeiling: 10}},
		{"nan ceiling", LoopConfig{TargetFrameRate: 60, BacklogCeiling: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.lc.Validate())
		})
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cfg := Default()
	err := Parse([]byte("[loop]\ntarget_frame_rate = 0.0\n"), cfg)
	assert.Error(t, err)
}
