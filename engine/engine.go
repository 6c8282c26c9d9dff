package engine

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/spaghettifunk/lantern/engine/assets"
	"github.com/spaghettifunk/lantern/engine/audio"
	"github.com/spaghettifunk/lantern/engine/backlog"
	"github.com/spaghettifunk/lantern/engine/config"
	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/helper"
	"github.com/spaghettifunk/lantern/engine/initializer"
	"github.com/spaghettifunk/lantern/engine/jobs"
	"github.com/spaghettifunk/lantern/engine/platform"
	"github.com/spaghettifunk/lantern/engine/profiler"
	"github.com/spaghettifunk/lantern/engine/renderer"
	"github.com/spaghettifunk/lantern/engine/scripting"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageBooting:
		return "booting"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

type Options struct {
	// Used as is when set, otherwise loaded from ConfigPath.
	Config *config.Config
	// Optional TOML file. It is watched and reloaded while running.
	ConfigPath string
	// Boolean startup switches such as "headless" or "debugdevice".
	Args *core.StartupArguments
	// Stop after this many frames, 0 runs until quit.
	MaxFrames uint64
}

// Engine wires the platform, the graphics device and the subsystems around an
// Application. Graphics backends register themselves when their package is
// imported.
type Engine struct {
	currentStage Stage
	gameInstance *Game
	options      Options
	config       *config.Config

	events      *core.EventBus
	input       *core.Input
	platform    *platform.Platform
	jobs        *jobs.JobSystem
	device      renderer.Device
	backlog     *backlog.Backlog
	profiler    *profiler.Profiler
	scripting   *scripting.Engine
	audio       *audio.Engine
	initializer *initializer.Initializer
	watcher     *config.Watcher
	assets      *assets.Manager
	app         *Application

	// changed scripts waiting to be run on the loop goroutine
	reloads   chan string
	isRunning atomic.Bool
	frames    uint64
}

func New(g *Game, opts Options) (*Engine, error) {
	if g == nil {
		return nil, errors.New("engine needs a game")
	}
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			core.LogError(err.Error())
			return nil, err
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Args == nil {
		opts.Args = core.NewStartupArguments()
	}
	if g.Name != "" {
		cfg.Application.Name = g.Name
	}
	core.SetLogLevel(core.ParseLogLevel(cfg.Log.Level))

	events := core.NewEventBus()
	input := core.NewInput(events)
	bl := backlog.New(cfg.Log.BacklogLines, input)
	bl.FontSize = cfg.InfoDisplay.Size
	// every log line goes to the console as well
	core.SetLogOutput(io.MultiWriter(os.Stderr, bl))

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		options:      opts,
		config:       cfg,
		events:       events,
		input:        input,
		backlog:      bl,
		reloads:      make(chan string, 16),
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already %s", e.currentStage)
	}
	e.currentStage = EngineStageBooting
	cfg := e.config

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	js, err := jobs.NewJobSystem(runtime.NumCPU(), 64)
	if err != nil {
		return err
	}
	e.jobs = js

	kind, err := renderer.SelectBackend(e.options.Args, cfg.Renderer.Backend)
	if err != nil {
		return err
	}
	debug := cfg.Renderer.DebugDevice || e.options.Args.Has("debugdevice")

	opts := renderer.DeviceOptions{
		Kind:        kind,
		AppName:     cfg.Application.Name,
		Width:       int(cfg.Application.StartWidth),
		Height:      int(cfg.Application.StartHeight),
		DebugDevice: debug,
		FontPath:    cfg.Renderer.Font,
		Jobs:        e.jobs,
		DumpDir:     cfg.Renderer.ScreenshotDir,
		DumpEvery:   cfg.Renderer.HeadlessDumpEvery,
	}
	if cfg.Assets.Dir != "" && helper.FileExists(cfg.Assets.Dir) {
		e.startAssets()
		if opts.FontPath == "" && e.assets != nil {
			if fonts := e.assets.List(assets.KindFont); len(fonts) > 0 {
				opts.FontPath = fonts[0].Path
			}
		}
	}
	if kind != renderer.Headless {
		p, err := platform.New(e.input, e.events)
		if err != nil {
			return err
		}
		if err := p.Startup(cfg.Application.Name,
			cfg.Application.StartPosX,
			cfg.Application.StartPosY,
			cfg.Application.StartWidth,
			cfg.Application.StartHeight); err != nil {
			return err
		}
		e.platform = p
		opts.Window = p
	}

	dev, err := renderer.CreateDevice(opts)
	if err != nil {
		return err
	}
	e.device = dev

	e.profiler = profiler.New(nil)
	e.profiler.FontSize = cfg.InfoDisplay.Size

	if cfg.Audio.Enabled {
		e.audio = e.startAudio(kind)
	}
	var audioHost scripting.AudioHost
	if e.audio != nil {
		audioHost = e.audio
		if e.assets != nil {
			e.assets.RegisterLoader(assets.KindSound, &assets.SoundLoader{Engine: e.audio, Channel: audio.Effects})
		}
	}
	e.scripting = scripting.New(e, audioHost)

	e.initializer = initializer.New(e.jobs)
	collab := Collaborators{
		Device:      e.device,
		Scripting:   e.scripting,
		Backlog:     e.backlog,
		Profiler:    e.profiler,
		Input:       e.input,
		Initializer: e.initializer,
	}
	if e.platform != nil {
		collab.Window = e.platform
	}
	app, err := NewApplication(collab, cfg.Loop, cfg.InfoDisplay)
	if err != nil {
		return err
	}
	e.app = app

	e.initializer.Add("screenshot directory", func() error {
		return os.MkdirAll(cfg.Renderer.ScreenshotDir, 0o755)
	})
	// the startup script usually activates paths the game registers
	e.initializer.Add("game", func() error {
		if e.gameInstance.FnInitialize != nil {
			if err := e.gameInstance.FnInitialize(e.app); err != nil {
				core.LogError("game initialization failed: %s", err)
				return err
			}
		}
		script := cfg.Scripting.StartupScript
		if script == "" || !helper.FileExists(script) {
			return nil
		}
		if err := e.scripting.RunFile(script); err != nil {
			core.LogError("startup script failed: %s", err)
			return err
		}
		return nil
	})
	if err := e.initializer.Start(); err != nil {
		return err
	}

	if e.options.ConfigPath != "" {
		w, err := config.NewWatcher(e.options.ConfigPath, e.onConfigReload)
		if err != nil {
			core.LogWarn("config hot reload disabled: %s", err)
		} else {
			e.watcher = w
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized (%s)", kind)
	return nil
}

func (e *Engine) startAssets() {
	am, err := assets.NewManager(e.config.Assets.Dir, e.onAssetChanged)
	if err != nil {
		core.LogWarn("assets unavailable: %s", err)
		return
	}
	if err := am.Initialize(e.config.Assets.HotReload); err != nil {
		core.LogWarn("failed to index assets: %s", err)
		return
	}
	e.assets = am
}

// onAssetChanged runs on the asset watcher goroutine.
func (e *Engine) onAssetChanged(info assets.AssetInfo) {
	if info.Kind != assets.KindScript {
		return
	}
	select {
	case e.reloads <- info.Path:
	default:
		core.LogWarn("script reload queue full, %s skipped", info.Path)
	}
}

// reloadScripts runs the scripts that changed since the last frame.
func (e *Engine) reloadScripts() {
	for {
		select {
		case path := <-e.reloads:
			if err := e.scripting.RunFile(path); err != nil {
				core.LogError("script reload failed: %s", err)
			}
		default:
			return
		}
	}
}

func (e *Engine) startAudio(kind renderer.BackendKind) *audio.Engine {
	cfg := e.config.Audio
	var out audio.Output
	if kind != renderer.Headless {
		out = audio.NewSpeakerOutput()
	}
	a, err := audio.New(cfg.SampleRate, out)
	if err != nil {
		core.LogWarn("no audio device, sounds are discarded: %s", err)
		if a, err = audio.New(cfg.SampleRate, nil); err != nil {
			core.LogError("audio disabled: %s", err)
			return nil
		}
	}
	a.SetEffectsVolume(cfg.EffectsVolume)
	a.SetMusicVolume(cfg.MusicVolume)
	return a
}

// Run ticks the application until quit is requested, ctx is cancelled, the
// window is closed or the frame budget is spent.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return core.ErrEngineNotInitialized
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	for e.isRunning.Load() {
		if err := ctx.Err(); err != nil {
			core.LogInfo("context done, stopping: %s", err)
			break
		}
		if e.platform != nil {
			e.platform.PumpMessages()
			if e.platform.ShouldClose() {
				break
			}
		}

		e.reloadScripts()
		e.app.Tick()

		e.frames++
		if e.options.MaxFrames > 0 && e.frames >= e.options.MaxFrames {
			break
		}
	}
	e.isRunning.Store(false)
	return nil
}

// Quit stops Run after the current frame. Safe to call from any goroutine.
func (e *Engine) Quit() {
	e.isRunning.Store(false)
}

// Shutdown waits for the device to finish every submitted frame and then
// releases the subsystems in reverse order of creation.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	var errs []error
	if e.jobs != nil {
		// initialization may still be running
		e.jobs.Wait()
	}
	if e.app != nil {
		e.app.Shutdown()
	}
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
	}
	if e.assets != nil {
		errs = append(errs, e.assets.Close())
	}
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.scripting != nil {
		e.scripting.Close()
	}
	if e.audio != nil {
		e.audio.Shutdown()
	}
	if e.device != nil {
		errs = append(errs, e.device.Shutdown())
	}
	if e.jobs != nil {
		errs = append(errs, e.jobs.Shutdown())
	}
	errs = append(errs, e.events.Shutdown())
	if e.platform != nil {
		errs = append(errs, e.platform.Shutdown())
	}
	core.SetLogOutput(os.Stderr)
	return errors.Join(errs...)
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Application() *Application {
	return e.app
}

func (e *Engine) Device() renderer.Device {
	return e.device
}

func (e *Engine) Backlog() *backlog.Backlog {
	return e.backlog
}

// Assets is nil when the asset directory does not exist.
func (e *Engine) Assets() *assets.Manager {
	return e.assets
}

func (e *Engine) Scripting() *scripting.Engine {
	return e.scripting
}

// IsLoaded reports whether the game and the startup script finished
// initializing.
func (e *Engine) IsLoaded() bool {
	return e.initializer != nil && e.initializer.IsFinished()
}

// Frames counts the frames Run has ticked.
func (e *Engine) Frames() uint64 {
	return e.frames
}

// ActivatePathByName and the setters below let scripts drive the application.
func (e *Engine) ActivatePathByName(name string, fadeSeconds float64, fadeColor color.RGBA) error {
	return e.app.ActivatePathByName(name, fadeSeconds, fadeColor)
}

func (e *Engine) UpdateInfoDisplay(fn func(*config.InfoDisplay)) {
	e.app.UpdateInfoDisplay(fn)
}

func (e *Engine) SetTargetFrameRate(rate float64) {
	e.app.SetTargetFrameRate(rate)
}

func (e *Engine) SetFrameSkip(enabled bool) {
	e.app.SetFrameSkip(enabled)
}

func (e *Engine) SetFrameRateLock(enabled bool) {
	e.app.SetFrameRateLock(enabled)
}

// Screenshot writes the last presented frame into the screenshot directory.
// The PNG is encoded on the job system.
func (e *Engine) Screenshot() error {
	snap, ok := e.device.(renderer.Snapshotter)
	if !ok {
		return fmt.Errorf("%s device cannot take screenshots", e.device.Kind())
	}
	img := snap.Snapshot()
	if img == nil {
		return errors.New("no frame presented yet")
	}
	dir := e.config.Renderer.ScreenshotDir
	return e.jobs.Submit(jobs.JobTask{
		Name: "screenshot",
		OnStart: func() error {
			path, err := helper.Screenshot(img, dir)
			if err != nil {
				return err
			}
			core.LogInfo("screenshot saved to %s", path)
			return nil
		},
		OnFailure: func(err error) {
			core.LogError("screenshot failed: %s", err)
		},
	})
}

// onConfigReload runs on the watcher goroutine.
func (e *Engine) onConfigReload(cfg *config.Config) {
	if err := e.app.SetLoopConfig(cfg.Loop); err != nil {
		core.LogWarn("loop settings not reloaded: %s", err)
	}
	e.app.SetInfoDisplay(cfg.InfoDisplay)
	core.SetLogLevel(core.ParseLogLevel(cfg.Log.Level))
	if e.audio != nil {
		e.audio.SetEffectsVolume(cfg.Audio.EffectsVolume)
		e.audio.SetMusicVolume(cfg.Audio.MusicVolume)
	}
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Quit()
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	switch ke.KeyCode {
	case core.KEY_ESCAPE:
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		return true
	case core.KEY_F1:
		e.profiler.SetEnabled(!e.profiler.IsEnabled())
		return true
	case core.KEY_F2:
		if err := e.Screenshot(); err != nil {
			core.LogWarn("screenshot: %s", err)
		}
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	if se.WindowWidth == 0 || se.WindowHeight == 0 {
		core.LogInfo("Window minimized, pausing the simulation.")
	} else {
		core.LogDebug("Window resize: %d, %d", se.WindowWidth, se.WindowHeight)
	}
	// the device picks the new size up on the next BeginFrame
	return false
}
