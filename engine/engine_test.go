package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/lantern/engine/config"
	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/helper"
	"github.com/spaghettifunk/lantern/engine/renderer"
	"github.com/spaghettifunk/lantern/engine/renderer/headless"
	"github.com/spaghettifunk/lantern/engine/renderpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type titlePath struct {
	renderpath.Base
	frames int
}

func (p *titlePath) Update(float64) {
	p.frames++
}

func headlessConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Application.StartWidth = 160
	cfg.Application.StartHeight = 90
	cfg.Renderer.Backend = "headless"
	cfg.Renderer.ScreenshotDir = filepath.Join(dir, "shots")
	cfg.Scripting.StartupScript = filepath.Join(dir, "startup.lua")
	cfg.Assets.Dir = filepath.Join(dir, "assets")
	cfg.Audio.Enabled = true
	cfg.Log.Level = "warn"
	return cfg
}

func newHeadlessEngine(t *testing.T, cfg *config.Config, maxFrames uint64) (*Engine, *titlePath) {
	t.Helper()
	title := &titlePath{Base: renderpath.Base{Name: "title"}}
	g := &Game{
		Name: "engine test",
		FnInitialize: func(app *Application) error {
			app.Paths().Add("title", title)
			return nil
		},
	}
	e, err := New(g, Options{Config: cfg, MaxFrames: maxFrames})
	require.NoError(t, err)
	t.Cleanup(func() { core.SetLogOutput(os.Stderr) })
	return e, title
}

func TestEngineRunsHeadless(t *testing.T) {
	cfg := headlessConfig(t)
	require.NoError(t, os.WriteFile(cfg.Scripting.StartupScript, []byte(`
		local ok, err = main.activate_path("title", 0, 0, 0, 0)
		assert(ok, err)
		main.set_target_frame_rate(30)
	`), 0o644))

	e, title := newHeadlessEngine(t, cfg, 10)
	require.NoError(t, e.Initialize())
	assert.Equal(t, EngineStageInitialized, e.Stage())
	assert.Equal(t, renderer.Headless, e.Device().Kind())
	assert.Equal(t, 160, e.Device().ScreenWidth())

	require.Eventually(t, e.IsLoaded, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(10), e.Frames())
	assert.Equal(t, 30.0, e.Application().LoopConfig().TargetFrameRate)
	assert.Same(t, title, e.Application().ActivePath())
	assert.Equal(t, 10, title.frames)
	assert.True(t, title.IsRunning())

	dev := e.Device().(*headless.Device)
	require.NoError(t, e.Shutdown())
	assert.Equal(t, uint64(10), dev.PresentedFrames())
	assert.False(t, title.IsRunning())
	assert.Equal(t, EngineStageShuttingDown, e.Stage())
}

func TestEngineStartupScriptErrorIsNotFatal(t *testing.T) {
	cfg := headlessConfig(t)
	require.NoError(t, os.WriteFile(cfg.Scripting.StartupScript, []byte(`error("boom")`), 0o644))

	e, _ := newHeadlessEngine(t, cfg, 3)
	require.NoError(t, e.Initialize())
	require.Eventually(t, e.IsLoaded, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, e.Run(context.Background()))
	assert.Nil(t, e.Application().ActivePath())
	assert.Equal(t, uint64(3), e.Frames())
	require.NoError(t, e.Shutdown())
}

func TestEngineRunRequiresInitialize(t *testing.T) {
	e, _ := newHeadlessEngine(t, headlessConfig(t), 1)
	assert.ErrorIs(t, e.Run(context.Background()), core.ErrEngineNotInitialized)
	require.NoError(t, e.Shutdown())
}

func TestEngineStopsOnCancelledContext(t *testing.T) {
	e, _ := newHeadlessEngine(t, headlessConfig(t), 0)
	require.NoError(t, e.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, uint64(0), e.Frames())
	require.NoError(t, e.Shutdown())
}

func TestEngineQuitEvent(t *testing.T) {
	e, _ := newHeadlessEngine(t, headlessConfig(t), 0)
	require.NoError(t, e.Initialize())

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	require.Eventually(t, func() bool { return e.isRunning.Load() }, 5*time.Second, time.Millisecond)

	e.Quit()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
	require.NoError(t, e.Shutdown())
}

func TestEngineScreenshot(t *testing.T) {
	cfg := headlessConfig(t)
	e, _ := newHeadlessEngine(t, cfg, 2)
	require.NoError(t, e.Initialize())
	require.Eventually(t, e.IsLoaded, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, e.Run(context.Background()))
	e.Device().WaitForIdle()

	require.NoError(t, e.Screenshot())
	require.NoError(t, e.Shutdown())

	files, err := helper.FilesInDirectory(cfg.Renderer.ScreenshotDir, "png")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := headlessConfig(t)
	cfg.Loop.TargetFrameRate = 0
	_, err := New(&Game{}, Options{Config: cfg})
	assert.Error(t, err)

	_, err = New(nil, Options{})
	assert.Error(t, err)
}

func TestEngineConfigReload(t *testing.T) {
	cfg := headlessConfig(t)
	e, _ := newHeadlessEngine(t, cfg, 1)
	require.NoError(t, e.Initialize())

	next := *cfg
	next.Loop.TargetFrameRate = 120
	next.InfoDisplay.Resolution = true
	e.onConfigReload(&next)

	assert.Equal(t, 120.0, e.Application().LoopConfig().TargetFrameRate)
	assert.True(t, e.Application().InfoDisplay().Resolution)
	require.NoError(t, e.Shutdown())
}

func TestEngineReloadsChangedScripts(t *testing.T) {
	cfg := headlessConfig(t)
	cfg.Assets.HotReload = true
	script := filepath.Join(cfg.Assets.Dir, "scripts", "tune.lua")
	require.NoError(t, os.MkdirAll(filepath.Dir(script), 0o755))
	require.NoError(t, os.WriteFile(script, []byte(`main.set_target_frame_rate(20)`), 0o644))

	e, _ := newHeadlessEngine(t, cfg, 1)
	require.NoError(t, e.Initialize())
	require.NotNil(t, e.Assets())
	_, ok := e.Assets().Get(script)
	assert.True(t, ok)
	require.Eventually(t, e.IsLoaded, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(script, []byte(`main.set_target_frame_rate(15)`), 0o644))
	require.Eventually(t, func() bool { return len(e.reloads) > 0 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 15.0, e.Application().LoopConfig().TargetFrameRate)
	require.NoError(t, e.Shutdown())
}
