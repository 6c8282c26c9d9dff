// Package fader implements the fade-to-color transition used when switching
// between render paths.
//
// A transition goes Idle -> FadingOut -> FadingIn -> Idle. The opacity of the
// fade color rises from 0 to 1 during the first half of the duration and falls
// back to 0 during the second half. The switch to the pending target is
// requested exactly once, at the moment the screen is fully covered.
package fader

import (
	"image/color"
	"math"

	"github.com/google/uuid"
	"github.com/spaghettifunk/lantern/engine/core"
)

type Phase uint8

const (
	Idle Phase = iota
	FadingOut
	FadingIn
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case FadingOut:
		return "fading-out"
	case FadingIn:
		return "fading-in"
	}
	return "unknown"
}

// State is the complete transition state. It is a plain value: Advance never
// mutates its input.
type State[T any] struct {
	ID       uuid.UUID
	Phase    Phase
	Duration float64
	Elapsed  float64
	Color    color.RGBA
	Target   T
}

// Switch is returned by Advance when the transition reached its midpoint and
// the caller has to swap to Target.
type Switch[T any] struct {
	ID     uuid.UUID
	Target T
}

// Opacity of the fade color for the given state, in [0, 1].
func (s State[T]) Opacity() float64 {
	half := s.Duration / 2
	switch s.Phase {
	case FadingOut:
		if half <= 0 {
			return 1
		}
		return core.Clamp(s.Elapsed/half, 0, 1)
	case FadingIn:
		if half <= 0 {
			return 0
		}
		return core.Clamp(1-(s.Elapsed-half)/half, 0, 1)
	}
	return 0
}

// Advance moves the transition forward by dt seconds and returns the new state
// plus the switch request, if the midpoint was crossed during this step. A
// zero duration transition completes in a single Advance, even with dt == 0.
func Advance[T any](s State[T], dt float64) (State[T], *Switch[T]) {
	if s.Phase == Idle {
		return s, nil
	}
	if !(dt > 0) {
		dt = 0
	}

	var req *Switch[T]
	half := s.Duration / 2
	s.Elapsed += dt

	if s.Phase == FadingOut && s.Elapsed >= half {
		req = &Switch[T]{ID: s.ID, Target: s.Target}
		var zero T
		s.Target = zero
		s.Phase = FadingIn
	}
	if s.Phase == FadingIn && s.Elapsed >= s.Duration {
		return State[T]{}, req
	}
	return s, req
}

// Fader owns one State and is what the application loop holds.
type Fader[T any] struct {
	state State[T]
}

// Start begins a new transition towards target. Any transition in flight is
// discarded together with its pending switch.
func (f *Fader[T]) Start(seconds float64, c color.RGBA, target T) uuid.UUID {
	if !(seconds > 0) || math.IsInf(seconds, 1) {
		seconds = 0
	}
	if f.state.Phase != Idle {
		core.LogDebug("fade %s cancelled in phase %s", f.state.ID, f.state.Phase)
	}
	f.state = State[T]{
		ID:       uuid.New(),
		Phase:    FadingOut,
		Duration: seconds,
		Color:    c,
		Target:   target,
	}
	return f.state.ID
}

// Update advances the owned state. See Advance.
func (f *Fader[T]) Update(dt float64) *Switch[T] {
	var req *Switch[T]
	f.state, req = Advance(f.state, dt)
	return req
}

// Clear drops the current transition without switching.
func (f *Fader[T]) Clear() {
	f.state = State[T]{}
}

func (f *Fader[T]) IsActive() bool {
	return f.state.Phase != Idle
}

func (f *Fader[T]) Opacity() float64 {
	return f.state.Opacity()
}

func (f *Fader[T]) Color() color.RGBA {
	return f.state.Color
}

func (f *Fader[T]) State() State[T] {
	return f.state
}
