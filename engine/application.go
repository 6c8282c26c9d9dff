package engine

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/spaghettifunk/lantern/engine/config"
	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/fader"
	"github.com/spaghettifunk/lantern/engine/profiler"
	"github.com/spaghettifunk/lantern/engine/renderer"
	"github.com/spaghettifunk/lantern/engine/renderpath"
)

// Scripting receives the loop phases before the active path does.
type Scripting interface {
	SetDeltaTime(dt float64)
	Update()
	FixedUpdate()
	Render()
}

// Backlog is the log console drawn on top of everything else.
type Backlog interface {
	Update()
	Draw(s *renderer.Surface)
	Text() string
}

type Profiler interface {
	BeginFrame()
	EndFrame(s *renderer.Surface)
	BeginRange(name string) profiler.Range
	EndRange(r profiler.Range)
	Draw(x, y int, s *renderer.Surface)
}

// Window reports whether the application should simulate. An inactive window
// pauses the update phases.
type Window interface {
	IsActive() bool
}

type InputPoller interface {
	Update()
}

type Initializer interface {
	IsFinished() bool
}

// Collaborators are handed to NewApplication once. Only Device is required;
// the rest default to no-ops.
type Collaborators struct {
	Device      renderer.Device
	Scripting   Scripting
	Backlog     Backlog
	Profiler    Profiler
	Window      Window
	Input       InputPoller
	Initializer Initializer
	// Paths resolves names for ActivatePathByName.
	Paths *renderpath.Registry
	// Time source of the frame clock. Defaults to time.Now.
	Time core.TimeSource
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Application is the frame driver. Tick, ActivatePath and Compose must be
// called from a single goroutine; the loop and info display settings may be
// replaced from anywhere.
type Application struct {
	device      renderer.Device
	scripting   Scripting
	backlog     Backlog
	profiler    Profiler
	window      Window
	input       InputPoller
	initializer Initializer
	paths       *renderpath.Registry

	initialized bool
	clock       *core.Clock

	deltaTime   float64
	accumulator float64
	frameCount  uint64

	fader      fader.Fader[renderpath.RenderPath]
	activePath renderpath.RenderPath

	loop        atomic.Pointer[config.LoopConfig]
	infoDisplay atomic.Pointer[config.InfoDisplay]
}

func NewApplication(c Collaborators, loop config.LoopConfig, info config.InfoDisplay) (*Application, error) {
	if c.Device == nil {
		return nil, errors.New("application needs a device")
	}
	if err := loop.Validate(); err != nil {
		return nil, err
	}
	a := &Application{
		device:      c.Device,
		scripting:   c.Scripting,
		backlog:     c.Backlog,
		profiler:    c.Profiler,
		window:      c.Window,
		input:       c.Input,
		initializer: c.Initializer,
		paths:       c.Paths,
		clock:       core.NewClockWithSource(c.Time),
	}
	if a.scripting == nil {
		a.scripting = nopScripting{}
	}
	if a.backlog == nil {
		a.backlog = nopBacklog{}
	}
	if a.profiler == nil {
		a.profiler = nopProfiler{}
	}
	if a.window == nil {
		a.window = alwaysActive{}
	}
	if a.input == nil {
		a.input = nopInput{}
	}
	if a.paths == nil {
		a.paths = renderpath.NewRegistry()
	}
	a.loop.Store(&loop)
	a.SetInfoDisplay(info)
	return a, nil
}

// Initialize starts the frame clock. Tick calls it on first use.
func (a *Application) Initialize() {
	if a.initialized {
		return
	}
	a.initialized = true
	a.clock.Start()
	core.LogInfo("application initialized on %s", a.device.Kind())
}

// Tick runs one frame.
func (a *Application) Tick() {
	a.Initialize()

	if a.initializer != nil && !a.initializer.IsFinished() {
		// keep presenting the log until the engine is loaded
		s := a.device.BeginFrame()
		a.device.PresentBegin(s)
		s.DrawText(a.backlog.Text(), renderer.TextParams{X: 4, Y: 4, Size: a.InfoDisplay().Size, Color: white})
		a.device.PresentEnd(s)
		return
	}

	a.profiler.BeginFrame()

	a.deltaTime = math.Max(0, a.clock.Elapsed())
	a.clock.Record()

	loop := a.LoopConfig()
	if a.window.IsActive() {
		dt := a.deltaTime
		if loop.FrameRateLock {
			dt = loop.FixedPeriod()
		}

		a.advanceFade(dt)

		r := a.profiler.BeginRange("Fixed Update")
		if loop.FrameSkip {
			a.accumulator += dt
			if a.accumulator > loop.BacklogCeiling {
				// the loop lost control, catching up would take too long
				if loop.WarnOnBacklogOverflow {
					core.LogWarn("fixed update backlog of %.2fs dropped", a.accumulator)
				}
				a.accumulator = 0
			}
			period := loop.FixedPeriod()
			for a.accumulator >= period {
				a.FixedUpdate()
				a.accumulator -= period
			}
		} else {
			a.FixedUpdate()
		}
		a.profiler.EndRange(r)

		a.Update(dt)
		a.input.Update()
		a.Render()
	} else {
		a.accumulator = 0
	}

	s := a.device.BeginFrame()
	a.device.PresentBegin(s)
	a.Compose(s)
	a.profiler.EndFrame(s)
	a.device.PresentEnd(s)

	a.frameCount++
}

func (a *Application) FixedUpdate() {
	a.scripting.FixedUpdate()
	if a.activePath != nil {
		a.activePath.FixedUpdate()
	}
}

func (a *Application) Update(dt float64) {
	r := a.profiler.BeginRange("Update")
	defer a.profiler.EndRange(r)

	a.backlog.Update()
	a.scripting.SetDeltaTime(dt)
	a.scripting.Update()
	if a.activePath != nil {
		a.activePath.Update(dt)
	}
}

func (a *Application) Render() {
	r := a.profiler.BeginRange("Render")
	defer a.profiler.EndRange(r)

	a.scripting.Render()
	if a.activePath != nil {
		a.activePath.Render()
	}
}

// Compose draws the frame: the active path, the fade color, the info display,
// the profiler and the backlog, in this order.
func (a *Application) Compose(s *renderer.Surface) {
	r := a.profiler.BeginRange("Compose")
	defer a.profiler.EndRange(r)

	if a.activePath != nil {
		a.activePath.Compose(s)
	}

	if a.fader.IsActive() {
		s.FillScreen(a.fader.Color(), a.fader.Opacity())
	}

	info := a.InfoDisplay()
	if info.Active {
		s.DrawText(a.InfoText(info), renderer.TextParams{
			X:      4,
			Y:      4,
			Size:   info.Size,
			Color:  white,
			Shadow: true,
		})
	}

	a.profiler.Draw(4, 120, s)
	a.backlog.Draw(s)
}

// InfoText builds the lines of the info display.
func (a *Application) InfoText(info config.InfoDisplay) string {
	var sb strings.Builder
	if info.Watermark {
		sb.WriteString("Lantern ")
		sb.WriteString(Version)
		sb.WriteString(" ")
		if strings.HasPrefix(runtime.GOARCH, "arm") {
			sb.WriteString("[ARM]")
		} else {
			sb.WriteString("[" + strconv.Itoa(strconv.IntSize) + "-bit]")
		}
		sb.WriteString("[" + a.device.Kind().String() + "]")
		if a.device.IsDebugDevice() {
			sb.WriteString("[debugdevice]")
		}
		sb.WriteString("\n")
	}
	if info.Resolution {
		fmt.Fprintf(&sb, "Resolution: %d x %d\n", a.device.ScreenWidth(), a.device.ScreenHeight())
	}
	if info.FPSInfo {
		fps := 0.0
		if a.deltaTime > 0 {
			fps = 1 / a.deltaTime
		}
		fmt.Fprintf(&sb, "%.2f FPS\n", fps)
		if a.device.IsDebugDevice() {
			sb.WriteString("Warning: Graphics is in [debugdevice] mode, performance will be slow!\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ActivatePath switches to path behind a fade to fadeColor. The outgoing path
// is stopped and the new one started when the screen is fully covered. A zero
// duration switches before returning, and so does a duration that is not a
// finite number. A nil path, typed nil pointers included, is ignored.
func (a *Application) ActivatePath(path renderpath.RenderPath, fadeSeconds float64, fadeColor color.RGBA) {
	if renderpath.IsNil(path) {
		return
	}
	a.fader.Start(fadeSeconds, fadeColor, path)
	a.advanceFade(0)
}

// ActivatePathByName looks the path up in the registry.
func (a *Application) ActivatePathByName(name string, fadeSeconds float64, fadeColor color.RGBA) error {
	p, ok := a.paths.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownRenderPath, name)
	}
	a.ActivatePath(p, fadeSeconds, fadeColor)
	return nil
}

func (a *Application) advanceFade(dt float64) {
	req := a.fader.Update(dt)
	if req == nil {
		return
	}
	if a.activePath != nil {
		a.activePath.Stop()
	}
	req.Target.Start()
	a.activePath = req.Target
}

// Shutdown stops the active path and blocks until the device finished every
// submitted frame. Resources can be released afterwards.
func (a *Application) Shutdown() {
	a.device.WaitForIdle()
	a.fader.Clear()
	if a.activePath != nil {
		a.activePath.Stop()
		a.activePath = nil
	}
}

func (a *Application) ActivePath() renderpath.RenderPath {
	return a.activePath
}

func (a *Application) ScreenSize() (int, int) {
	return a.device.ScreenWidth(), a.device.ScreenHeight()
}

func (a *Application) Paths() *renderpath.Registry {
	return a.paths
}

func (a *Application) Fader() *fader.Fader[renderpath.RenderPath] {
	return &a.fader
}

func (a *Application) DeltaTime() float64 {
	return a.deltaTime
}

// Accumulator is the fixed update backlog in seconds.
func (a *Application) Accumulator() float64 {
	return a.accumulator
}

func (a *Application) FrameCount() uint64 {
	return a.frameCount
}

func (a *Application) LoopConfig() config.LoopConfig {
	return *a.loop.Load()
}

// SetLoopConfig publishes lc. Invalid settings are rejected and the current
// ones stay in place.
func (a *Application) SetLoopConfig(lc config.LoopConfig) error {
	if err := lc.Validate(); err != nil {
		return err
	}
	a.loop.Store(&lc)
	return nil
}

// UpdateLoopConfig applies fn to a copy of the loop settings and publishes it
// when the result is valid.
func (a *Application) UpdateLoopConfig(fn func(*config.LoopConfig)) error {
	for {
		old := a.loop.Load()
		lc := *old
		fn(&lc)
		if err := lc.Validate(); err != nil {
			return err
		}
		if a.loop.CompareAndSwap(old, &lc) {
			return nil
		}
	}
}

func (a *Application) SetTargetFrameRate(rate float64) {
	if err := a.UpdateLoopConfig(func(lc *config.LoopConfig) { lc.TargetFrameRate = rate }); err != nil {
		core.LogWarn("target frame rate %f ignored: %s", rate, err)
	}
}

func (a *Application) SetFrameSkip(enabled bool) {
	_ = a.UpdateLoopConfig(func(lc *config.LoopConfig) { lc.FrameSkip = enabled })
}

func (a *Application) SetFrameRateLock(enabled bool) {
	_ = a.UpdateLoopConfig(func(lc *config.LoopConfig) { lc.FrameRateLock = enabled })
}

func (a *Application) InfoDisplay() config.InfoDisplay {
	return *a.infoDisplay.Load()
}

func (a *Application) SetInfoDisplay(info config.InfoDisplay) {
	a.infoDisplay.Store(&info)
}

// UpdateInfoDisplay applies fn to a copy of the info display and publishes it.
func (a *Application) UpdateInfoDisplay(fn func(*config.InfoDisplay)) {
	for {
		old := a.infoDisplay.Load()
		info := *old
		fn(&info)
		if a.infoDisplay.CompareAndSwap(old, &info) {
			return
		}
	}
}

type nopScripting struct{}

func (nopScripting) SetDeltaTime(float64) {}
func (nopScripting) Update()              {}
func (nopScripting) FixedUpdate()         {}
func (nopScripting) Render()              {}

type nopBacklog struct{}

func (nopBacklog) Update()                {}
func (nopBacklog) Draw(*renderer.Surface) {}
func (nopBacklog) Text() string           { return "" }

type nopProfiler struct{}

func (nopProfiler) BeginFrame()                      {}
func (nopProfiler) EndFrame(*renderer.Surface)       {}
func (nopProfiler) BeginRange(string) profiler.Range { return profiler.Range{} }
func (nopProfiler) EndRange(profiler.Range)          {}
func (nopProfiler) Draw(int, int, *renderer.Surface) {}

type alwaysActive struct{}

func (alwaysActive) IsActive() bool { return true }

type nopInput struct{}

func (nopInput) Update() {}
