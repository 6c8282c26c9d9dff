package scripting

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/lantern/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	activated   []string
	fadeSeconds float64
	fadeColor   color.RGBA
	display     config.InfoDisplay
	rate        float64
	frameSkip   bool
	rateLock    bool
}

func (h *fakeHost) ActivatePathByName(name string, seconds float64, c color.RGBA) error {
	if name == "missing" {
		return errors.New("unknown render path")
	}
	h.activated = append(h.activated, name)
	h.fadeSeconds = seconds
	h.fadeColor = c
	return nil
}

func (h *fakeHost) UpdateInfoDisplay(fn func(*config.InfoDisplay)) { fn(&h.display) }
func (h *fakeHost) SetTargetFrameRate(rate float64)                { h.rate = rate }
func (h *fakeHost) SetFrameSkip(enabled bool)                      { h.frameSkip = enabled }
func (h *fakeHost) SetFrameRateLock(enabled bool)                  { h.rateLock = enabled }

type fakeAudio struct {
	loaded  map[string]bool
	played  []string
	delay   time.Duration
	stopped []string
	effects float64
	music   float64
}

func (a *fakeAudio) Load(name, path string, music bool) error {
	if a.loaded == nil {
		a.loaded = make(map[string]bool)
	}
	a.loaded[name] = music
	return nil
}

func (a *fakeAudio) Play(name string, delay time.Duration) error {
	a.played = append(a.played, name)
	a.delay = delay
	return nil
}

func (a *fakeAudio) Stop(name string) error {
	a.stopped = append(a.stopped, name)
	return nil
}

func (a *fakeAudio) SetEffectsVolume(v float64) { a.effects = v }
func (a *fakeAudio) SetMusicVolume(v float64)   { a.music = v }

func TestHooksAreCalled(t *testing.T) {
	e := New(nil, nil)
	defer e.Close()

	require.NoError(t, e.RunString(`
		updates, fixed, renders, last_dt = 0, 0, 0, 0
		function Update(dt) updates = updates + 1; last_dt = dt end
		function FixedUpdate() fixed = fixed + 1 end
		function Render() renders = renders + 1 end
	`))

	e.SetDeltaTime(0.25)
	e.Update()
	e.FixedUpdate()
	e.FixedUpdate()
	e.Render()

	require.NoError(t, e.RunString(`assert(updates == 1 and fixed == 2 and renders == 1)`))
	require.NoError(t, e.RunString(`assert(last_dt == 0.25 and main.delta_time == 0.25)`))
	assert.Equal(t, 0.25, e.DeltaTime())
}

func TestMissingHooksAreSkipped(t *testing.T) {
	e := New(nil, nil)
	defer e.Close()
	assert.NotPanics(t, func() {
		e.Update()
		e.FixedUpdate()
		e.Render()
	})
}

func TestHookErrorsDoNotPropagate(t *testing.T) {
	e := New(nil, nil)
	defer e.Close()
	require.NoError(t, e.RunString(`
		calls = 0
		function Update(dt) calls = calls + 1; error("boom") end
	`))
	e.Update()
	e.Update()
	require.NoError(t, e.RunString(`assert(calls == 2)`))
}

func TestRunStringSyntaxError(t *testing.T) {
	e := New(nil, nil)
	defer e.Close()
	assert.Error(t, e.RunString(`function (`))
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "startup.lua")
	require.NoError(t, os.WriteFile(path, []byte(`loaded = true`), 0o644))

	e := New(nil, nil)
	defer e.Close()
	require.NoError(t, e.RunFile(path))
	require.NoError(t, e.RunString(`assert(loaded)`))

	assert.Error(t, e.RunFile(filepath.Join(t.TempDir(), "missing.lua")))
}

func TestMainTable(t *testing.T) {
	host := &fakeHost{}
	e := New(host, nil)
	defer e.Close()

	require.NoError(t, e.RunString(`
		local ok = main.activate_path("level", 0.5, 255, 0, 300)
		assert(ok)
		local ok2, msg = main.activate_path("missing")
		assert(not ok2 and msg ~= nil)
		main.set_info_display(true)
		main.set_fps_display(true)
		main.set_resolution_display(true)
		main.set_watermark_display(false)
		main.set_target_frame_rate(30)
		main.set_frame_skip(false)
		main.set_frame_rate_lock(true)
		main.log("hello", 1)
		print("from print")
	`))

	assert.Equal(t, []string{"level"}, host.activated)
	assert.Equal(t, 0.5, host.fadeSeconds)
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 255, A: 255}, host.fadeColor)
	assert.Equal(t, config.InfoDisplay{Active: true, FPSInfo: true, Resolution: true}, host.display)
	assert.Equal(t, 30.0, host.rate)
	assert.False(t, host.frameSkip)
	assert.True(t, host.rateLock)
}

func TestTargetFrameRateMustBePositive(t *testing.T) {
	host := &fakeHost{rate: 60}
	e := New(host, nil)
	defer e.Close()
	assert.Error(t, e.RunString(`main.set_target_frame_rate(0)`))
	assert.Equal(t, 60.0, host.rate)
}

func TestAudioTable(t *testing.T) {
	a := &fakeAudio{}
	e := New(nil, a)
	defer e.Close()

	require.NoError(t, e.RunString(`
		assert(audio.load("click", "click.wav"))
		assert(audio.load("theme", "theme.wav", true))
		assert(audio.play("click", 250))
		assert(audio.stop("theme"))
		audio.set_effects_volume(0.5)
		audio.set_music_volume(0.25)
	`))

	assert.Equal(t, map[string]bool{"click": false, "theme": true}, a.loaded)
	assert.Equal(t, []string{"click"}, a.played)
	assert.Equal(t, 250*time.Millisecond, a.delay)
	assert.Equal(t, []string{"theme"}, a.stopped)
	assert.Equal(t, 0.5, a.effects)
	assert.Equal(t, 0.25, a.music)
}

func TestAudioDisabled(t *testing.T) {
	e := New(nil, nil)
	defer e.Close()
	require.NoError(t, e.RunString(`
		local ok, msg = audio.play("click")
		assert(not ok and msg == "audio is disabled")
	`))
}
