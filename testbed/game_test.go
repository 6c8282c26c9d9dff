package testbed

import (
	"image"
	"testing"

	"github.com/spaghettifunk/lantern/engine"
	"github.com/spaghettifunk/lantern/engine/config"
	"github.com/spaghettifunk/lantern/engine/renderer"
	"github.com/spaghettifunk/lantern/engine/renderer/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeShowsTitle(t *testing.T) {
	dev, err := headless.New(renderer.DeviceOptions{Kind: renderer.Headless, Width: 320, Height: 180})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Shutdown() })

	cfg := config.Default()
	app, err := engine.NewApplication(engine.Collaborators{Device: dev}, cfg.Loop, cfg.InfoDisplay)
	require.NoError(t, err)

	tg := NewTestGame()
	require.NoError(t, tg.FnInitialize(app))

	state := tg.State.(*gameState)
	assert.Same(t, state.title, app.ActivePath())
	assert.True(t, state.title.IsRunning())

	_, ok := app.Paths().Get("level")
	assert.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 320, 180), state.level.bounds)
	assert.InDelta(t, cfg.Loop.FixedPeriod(), state.level.step, 1e-9)
}
