package engine

// Game is what a program built on the engine provides. FnInitialize runs in
// the background while the loop presents the loading screen; it typically
// registers render paths and activates the first one.
type Game struct {
	Name         string
	State        interface{}
	FnInitialize Initialize
	FnShutdown   Shutdown
}

type Initialize func(app *Application) error
type Shutdown func() error
