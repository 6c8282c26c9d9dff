// Package scripting runs Lua scripts next to the application loop. Scripts
// define optional Update(dt), FixedUpdate() and Render() globals which are
// called in lockstep with the loop, and drive the application through the
// main and audio tables.
package scripting

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync"
	"time"

	"github.com/spaghettifunk/lantern/engine/config"
	"github.com/spaghettifunk/lantern/engine/core"
	lua "github.com/yuin/gopher-lua"
)

var ErrNoAudio = errors.New("audio is disabled")

// Host is the part of the application scripts may drive.
type Host interface {
	ActivatePathByName(name string, fadeSeconds float64, fadeColor color.RGBA) error
	UpdateInfoDisplay(fn func(*config.InfoDisplay))
	SetTargetFrameRate(rate float64)
	SetFrameSkip(enabled bool)
	SetFrameRateLock(enabled bool)
}

// AudioHost is the sound library behind the audio table.
type AudioHost interface {
	Load(name, path string, music bool) error
	Play(name string, delay time.Duration) error
	Stop(name string) error
	SetEffectsVolume(v float64)
	SetMusicVolume(v float64)
}

type Engine struct {
	mutex sync.Mutex
	state *lua.LState
	main  *lua.LTable

	host  Host
	audio AudioHost
}

// New creates a Lua state with the standard libraries and the engine tables.
// host and audio may be nil; the matching functions then fail with an error.
func New(host Host, audio AudioHost) *Engine {
	e := &Engine{
		state: lua.NewState(),
		host:  host,
		audio: audio,
	}
	e.register()
	return e
}

func (e *Engine) register() {
	L := e.state
	L.SetGlobal("print", L.NewFunction(e.luaPrint))

	e.main = L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"activate_path":          e.luaActivatePath,
		"set_info_display":       e.infoDisplaySetter(func(d *config.InfoDisplay, v bool) { d.Active = v }),
		"set_fps_display":        e.infoDisplaySetter(func(d *config.InfoDisplay, v bool) { d.FPSInfo = v }),
		"set_resolution_display": e.infoDisplaySetter(func(d *config.InfoDisplay, v bool) { d.Resolution = v }),
		"set_watermark_display":  e.infoDisplaySetter(func(d *config.InfoDisplay, v bool) { d.Watermark = v }),
		"set_target_frame_rate":  e.luaSetTargetFrameRate,
		"set_frame_skip":         e.luaSetFrameSkip,
		"set_frame_rate_lock":    e.luaSetFrameRateLock,
		"log":                    e.luaPrint,
	})
	L.SetField(e.main, "delta_time", lua.LNumber(0))
	L.SetGlobal("main", e.main)

	L.SetGlobal("audio", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"load":               e.luaAudioLoad,
		"play":               e.luaAudioPlay,
		"stop":               e.luaAudioStop,
		"set_effects_volume": e.luaSetEffectsVolume,
		"set_music_volume":   e.luaSetMusicVolume,
	}))
}

func (e *Engine) RunString(source string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if err := e.state.DoString(source); err != nil {
		return fmt.Errorf("lua: %w", err)
	}
	return nil
}

func (e *Engine) RunFile(path string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if err := e.state.DoFile(path); err != nil {
		return fmt.Errorf("lua %s: %w", path, err)
	}
	core.LogInfo("script %s loaded", path)
	return nil
}

// SetDeltaTime publishes the frame delta as main.delta_time.
func (e *Engine) SetDeltaTime(dt float64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.state.SetField(e.main, "delta_time", lua.LNumber(dt))
}

// DeltaTime reads main.delta_time back.
func (e *Engine) DeltaTime() float64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return float64(lua.LVAsNumber(e.state.GetField(e.main, "delta_time")))
}

func (e *Engine) Update() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.callHook("Update", e.state.GetField(e.main, "delta_time"))
}

func (e *Engine) FixedUpdate() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.callHook("FixedUpdate")
}

func (e *Engine) Render() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.callHook("Render")
}

// callHook calls a global function when the script defines it. Errors are
// logged and do not propagate to the loop.
func (e *Engine) callHook(name string, args ...lua.LValue) {
	fn, ok := e.state.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return
	}
	if err := e.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		core.LogError("lua %s: %s", name, err)
	}
}

func (e *Engine) Close() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.state.Close()
}

func (e *Engine) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	core.LogInfo("[lua] %s", strings.Join(parts, " "))
	return 0
}

// pushResult follows the Lua convention of returning true, or false and a
// message.
func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func colorComponent(L *lua.LState, n int) uint8 {
	return uint8(core.Clamp(L.OptInt(n, 0), 0, 255))
}

func (e *Engine) luaActivatePath(L *lua.LState) int {
	name := L.CheckString(1)
	seconds := float64(L.OptNumber(2, 0))
	c := color.RGBA{R: colorComponent(L, 3), G: colorComponent(L, 4), B: colorComponent(L, 5), A: 255}
	if e.host == nil {
		return pushResult(L, errors.New("no application attached"))
	}
	return pushResult(L, e.host.ActivatePathByName(name, seconds, c))
}

func (e *Engine) infoDisplaySetter(set func(*config.InfoDisplay, bool)) lua.LGFunction {
	return func(L *lua.LState) int {
		v := L.CheckBool(1)
		if e.host != nil {
			e.host.UpdateInfoDisplay(func(d *config.InfoDisplay) { set(d, v) })
		}
		return 0
	}
}

func (e *Engine) luaSetTargetFrameRate(L *lua.LState) int {
	rate := float64(L.CheckNumber(1))
	if rate <= 0 {
		L.ArgError(1, "frame rate must be positive")
		return 0
	}
	if e.host != nil {
		e.host.SetTargetFrameRate(rate)
	}
	return 0
}

func (e *Engine) luaSetFrameSkip(L *lua.LState) int {
	v := L.CheckBool(1)
	if e.host != nil {
		e.host.SetFrameSkip(v)
	}
	return 0
}

func (e *Engine) luaSetFrameRateLock(L *lua.LState) int {
	v := L.CheckBool(1)
	if e.host != nil {
		e.host.SetFrameRateLock(v)
	}
	return 0
}

func (e *Engine) luaAudioLoad(L *lua.LState) int {
	name := L.CheckString(1)
	path := L.CheckString(2)
	music := L.OptBool(3, false)
	if e.audio == nil {
		return pushResult(L, ErrNoAudio)
	}
	return pushResult(L, e.audio.Load(name, path, music))
}

func (e *Engine) luaAudioPlay(L *lua.LState) int {
	name := L.CheckString(1)
	delay := time.Duration(L.OptInt(2, 0)) * time.Millisecond
	if e.audio == nil {
		return pushResult(L, ErrNoAudio)
	}
	return pushResult(L, e.audio.Play(name, delay))
}

func (e *Engine) luaAudioStop(L *lua.LState) int {
	name := L.CheckString(1)
	if e.audio == nil {
		return pushResult(L, ErrNoAudio)
	}
	return pushResult(L, e.audio.Stop(name))
}

func (e *Engine) luaSetEffectsVolume(L *lua.LState) int {
	v := float64(L.CheckNumber(1))
	if e.audio != nil {
		e.audio.SetEffectsVolume(v)
	}
	return 0
}

func (e *Engine) luaSetMusicVolume(L *lua.LState) int {
	v := float64(L.CheckNumber(1))
	if e.audio != nil {
		e.audio.SetMusicVolume(v)
	}
	return 0
}
