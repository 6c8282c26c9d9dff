package testbed

import (
	"image"

	"github.com/spaghettifunk/lantern/engine"
	"github.com/spaghettifunk/lantern/engine/core"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	title *TitlePath
	level *LevelPath
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Name: "Lantern Testbed",
			State: &gameState{
				title: NewTitlePath(),
				level: NewLevelPath(),
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnShutdown = tg.Shutdown

	return tg
}

// Initialize registers the render paths and shows the title screen. The
// startup script runs afterwards and switches paths by name.
func (g *TestGame) Initialize(app *engine.Application) error {
	core.LogDebug("TestGame Initialize fn....")

	state := g.State.(*gameState)
	app.Paths().Add("title", state.title)
	app.Paths().Add("level", state.level)
	state.level.SetStep(app.LoopConfig().FixedPeriod())
	w, h := app.ScreenSize()
	state.level.SetBounds(image.Rect(0, 0, w, h))

	app.ActivatePath(state.title, 0, black)
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	core.LogInfo("testbed shut down after %d fixed steps in the level", state.level.Steps())
	return nil
}
