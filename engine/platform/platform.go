package platform

import (
	"runtime"
	"sync/atomic"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/lantern/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window

	input  *core.Input
	events *core.EventBus

	focused   atomic.Bool
	iconified atomic.Bool
	width     atomic.Int32
	height    atomic.Int32
}

func New(input *core.Input, events *core.EventBus) (*Platform, error) {
	return &Platform{
		Window: nil,
		input:  input,
		events: events,
	}, nil
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan and WebGPU.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetMouseButtonCallback(p.mouseButtonCallback)
	p.Window.SetCursorPosCallback(p.cursorPosCallback)
	p.Window.SetScrollCallback(p.scrollCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetFocusCallback(p.focusCallback)
	p.Window.SetIconifyCallback(p.iconifyCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	fw, fh := p.Window.GetFramebufferSize()
	p.width.Store(int32(fw))
	p.height.Store(int32(fh))
	p.focused.Store(true)

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes the pending window events. Callbacks run on the
// calling goroutine.
func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

// IsActive reports whether the window is focused and not minimized.
func (p *Platform) IsActive() bool {
	return p.focused.Load() && !p.iconified.Load()
}

func (p *Platform) ShouldClose() bool {
	return p.Window == nil || p.Window.ShouldClose()
}

func (p *Platform) FramebufferSize() (int, int) {
	return int(p.width.Load()), int(p.height.Load())
}

// RequiredVulkanExtensions lists the instance extensions the window surface needs.
func (p *Platform) RequiredVulkanExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// GetTime is the glfw timer in seconds.
func (p *Platform) GetTime() float64 {
	return glfw.GetTime()
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	code, ok := translateKey(key)
	if !ok {
		return
	}
	p.input.ProcessKey(code, action == glfw.Press)
}

func (p *Platform) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	var b core.Button
	switch button {
	case glfw.MouseButtonLeft:
		b = core.BUTTON_LEFT
	case glfw.MouseButtonRight:
		b = core.BUTTON_RIGHT
	case glfw.MouseButtonMiddle:
		b = core.BUTTON_MIDDLE
	default:
		return
	}
	p.input.ProcessButton(b, action == glfw.Press)
}

func (p *Platform) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	if xpos < 0 || ypos < 0 {
		return
	}
	p.input.ProcessMouseMove(uint16(xpos), uint16(ypos))
}

func (p *Platform) scrollCallback(w *glfw.Window, xoff, yoff float64) {
	if yoff == 0 {
		return
	}
	var z int8 = 1
	if yoff < 0 {
		z = -1
	}
	p.input.ProcessMouseWheel(z)
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.width.Store(int32(width))
	p.height.Store(int32(height))
	p.events.Fire(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{WindowWidth: uint32(width), WindowHeight: uint32(height)},
	})
}

func (p *Platform) focusCallback(w *glfw.Window, focused bool) {
	p.focused.Store(focused)
	p.fireFocus()
}

func (p *Platform) iconifyCallback(w *glfw.Window, iconified bool) {
	p.iconified.Store(iconified)
	p.fireFocus()
}

func (p *Platform) fireFocus() {
	p.events.Fire(core.EventContext{
		Type: core.EVENT_CODE_WINDOW_FOCUS,
		Data: &core.SystemEvent{Active: p.IsActive()},
	})
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}
