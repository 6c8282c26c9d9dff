package fader

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var black = color.RGBA{A: 255}

func TestAdvanceOnIdleDoesNothing(t *testing.T) {
	s, req := Advance(State[string]{}, 1)
	assert.Nil(t, req)
	assert.Equal(t, Idle, s.Phase)
	assert.Zero(t, s.Opacity())
}

func TestZeroDurationCompletesOnFirstAdvance(t *testing.T) {
	var f Fader[string]
	f.Start(0, black, "next")
	require.True(t, f.IsActive())

	req := f.Update(0)
	require.NotNil(t, req)
	assert.Equal(t, "next", req.Target)
	assert.False(t, f.IsActive())
}

func TestOpacityRisesThenFalls(t *testing.T) {
	var f Fader[int]
	id := f.Start(1, black, 7)

	assert.Nil(t, f.Update(0.25))
	assert.InDelta(t, 0.5, f.Opacity(), 1e-9)
	assert.Equal(t, FadingOut, f.State().Phase)

	req := f.Update(0.25)
	require.NotNil(t, req)
	assert.Equal(t, id, req.ID)
	assert.Equal(t, 7, req.Target)
	assert.Equal(t, FadingIn, f.State().Phase)
	assert.InDelta(t, 1.0, f.Opacity(), 1e-9)

	assert.Nil(t, f.Update(0.25))
	assert.InDelta(t, 0.5, f.Opacity(), 1e-9)

	assert.Nil(t, f.Update(0.5))
	assert.False(t, f.IsActive())
	assert.Zero(t, f.Opacity())
}

func TestLargeStepSwitchesAndCompletes(t *testing.T) {
	var f Fader[string]
	f.Start(0.5, black, "level")
	req := f.Update(10)
	require.NotNil(t, req)
	assert.Equal(t, "level", req.Target)
	assert.False(t, f.IsActive())
}

func TestSwitchIsRequestedOnce(t *testing.T) {
	var f Fader[string]
	f.Start(1, black, "a")
	requests := 0
	for i := 0; i < 20; i++ {
		if f.Update(0.1) != nil {
			requests++
		}
	}
	assert.Equal(t, 1, requests)
}

func TestStartCancelsPreviousTransition(t *testing.T) {
	var f Fader[string]
	first := f.Start(1, black, "first")
	f.Update(0.3)
	second := f.Start(1, color.RGBA{R: 255, A: 255}, "second")
	assert.NotEqual(t, first, second)
	assert.Zero(t, f.Opacity())

	var targets []string
	for i := 0; i < 20; i++ {
		if req := f.Update(0.1); req != nil {
			targets = append(targets, req.Target)
		}
	}
	assert.Equal(t, []string{"second"}, targets)
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	in := State[string]{Phase: FadingOut, Duration: 1, Target: "x"}
	out, _ := Advance(in, 0.75)
	assert.Equal(t, FadingOut, in.Phase)
	assert.Zero(t, in.Elapsed)
	assert.Equal(t, FadingIn, out.Phase)
}

func TestNegativeDeltaIsIgnored(t *testing.T) {
	var f Fader[string]
	f.Start(1, black, "x")
	f.Update(0.25)
	f.Update(-5)
	assert.InDelta(t, 0.5, f.Opacity(), 1e-9)
}

func TestNonFiniteDurationSwitchesImmediately(t *testing.T) {
	for _, seconds := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		var f Fader[string]
		f.Start(seconds, black, "next")

		req := f.Update(0)
		require.NotNil(t, req, "duration %v", seconds)
		assert.Equal(t, "next", req.Target)
		assert.False(t, f.IsActive())
		assert.Zero(t, f.Opacity())
	}
}

func TestNaNDeltaIsIgnored(t *testing.T) {
	var f Fader[string]
	f.Start(1, black, "x")
	f.Update(0.25)
	f.Update(math.NaN())
	assert.InDelta(t, 0.5, f.Opacity(), 1e-9)
	assert.NotNil(t, f.Update(0.25))
}

func TestClear(t *testing.T) {
	var f Fader[string]
	f.Start(1, black, "x")
	f.Clear()
	assert.False(t, f.IsActive())
	assert.Nil(t, f.Update(1))
}
