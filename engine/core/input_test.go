package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputKeyTransitions(t *testing.T) {
	in := NewInput(nil)

	in.ProcessKey(KEY_HOME, true)
	assert.True(t, in.IsKeyDown(KEY_HOME))
	assert.True(t, in.IsKeyPressed(KEY_HOME))

	in.Update()
	assert.True(t, in.WasKeyDown(KEY_HOME))
	assert.False(t, in.IsKeyPressed(KEY_HOME))

	in.ProcessKey(KEY_HOME, false)
	assert.True(t, in.IsKeyUp(KEY_HOME))
	in.Update()
	assert.True(t, in.WasKeyUp(KEY_HOME))
}

func TestInputFiresOnlyOnChange(t *testing.T) {
	eb := NewEventBus()
	in := NewInput(eb)

	var keys []KeyCode
	eb.Register(EVENT_CODE_KEY_PRESSED, in, func(ctx EventContext) bool {
		keys = append(keys, ctx.Data.(*KeyEvent).KeyCode)
		return true
	})

	in.ProcessKey(KEY_SPACE, true)
	in.ProcessKey(KEY_SPACE, true)
	in.ProcessKey(KEY_SPACE, false)
	in.ProcessKey(KEY_SPACE, true)
	assert.Equal(t, []KeyCode{KEY_SPACE, KEY_SPACE}, keys)
}

func TestInputMouse(t *testing.T) {
	eb := NewEventBus()
	in := NewInput(eb)

	var moved *MouseEvent
	eb.Register(EVENT_CODE_MOUSE_MOVED, in, func(ctx EventContext) bool {
		moved = ctx.Data.(*MouseEvent)
		return true
	})

	in.ProcessMouseMove(10, 20)
	require.NotNil(t, moved)
	assert.Equal(t, uint16(10), moved.PosX)

	x, y := in.MousePosition()
	assert.Equal(t, int32(10), x)
	assert.Equal(t, int32(20), y)

	in.ProcessButton(BUTTON_LEFT, true)
	assert.True(t, in.IsButtonDown(BUTTON_LEFT))
	assert.False(t, in.WasButtonDown(BUTTON_LEFT))
	in.Update()
	assert.True(t, in.WasButtonDown(BUTTON_LEFT))
	px, py := in.PreviousMousePosition()
	assert.Equal(t, int32(10), px)
	assert.Equal(t, int32(20), py)
}
