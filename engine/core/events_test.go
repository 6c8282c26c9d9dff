package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type listener struct{ name string }

func TestEventBusRegisterAndFire(t *testing.T) {
	eb := NewEventBus()
	a, b := &listener{"a"}, &listener{"b"}

	var calls []string
	assert.True(t, eb.Register(EVENT_CODE_RESIZED, a, func(EventContext) bool {
		calls = append(calls, "a")
		return false
	}))
	assert.True(t, eb.Register(EVENT_CODE_RESIZED, b, func(ctx EventContext) bool {
		calls = append(calls, "b")
		return true
	}))
	assert.False(t, eb.Register(EVENT_CODE_RESIZED, a, func(EventContext) bool { return false }))

	assert.True(t, eb.Fire(EventContext{Type: EVENT_CODE_RESIZED}))
	assert.Equal(t, []string{"a", "b"}, calls)

	assert.False(t, eb.Fire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
}

func TestEventBusHandledStopsPropagation(t *testing.T) {
	eb := NewEventBus()
	a, b := &listener{"a"}, &listener{"b"}
	secondCalled := false
	eb.Register(EVENT_CODE_KEY_PRESSED, a, func(EventContext) bool { return true })
	eb.Register(EVENT_CODE_KEY_PRESSED, b, func(EventContext) bool { secondCalled = true; return false })

	assert.True(t, eb.Fire(EventContext{Type: EVENT_CODE_KEY_PRESSED}))
	assert.False(t, secondCalled)
}

func TestEventBusUnregister(t *testing.T) {
	eb := NewEventBus()
	a := &listener{"a"}
	called := 0
	eb.Register(EVENT_CODE_WINDOW_FOCUS, a, func(EventContext) bool { called++; return true })

	assert.True(t, eb.Unregister(EVENT_CODE_WINDOW_FOCUS, a))
	assert.False(t, eb.Unregister(EVENT_CODE_WINDOW_FOCUS, a))
	eb.Fire(EventContext{Type: EVENT_CODE_WINDOW_FOCUS})
	assert.Zero(t, called)
}

func TestEventBusShutdown(t *testing.T) {
	eb := NewEventBus()
	eb.Register(EVENT_CODE_APPLICATION_QUIT, &listener{}, func(EventContext) bool { return true })
	assert.NoError(t, eb.Shutdown())
	assert.False(t, eb.Fire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
}
