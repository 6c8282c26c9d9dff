package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/stretchr/testify/assert"
)

func TestTranslateKey(t *testing.T) {
	cases := map[glfw.Key]core.KeyCode{
		glfw.KeyHome:     core.KEY_HOME,
		glfw.KeyPageUp:   core.KEY_PRIOR,
		glfw.KeyPageDown: core.KEY_NEXT,
		glfw.KeyA:        core.KEY_A,
		glfw.KeyZ:        core.KEY_Z,
		glfw.Key9:        core.KEY_9,
		glfw.KeyF12:      core.KEY_F12,
	}
	for in, want := range cases {
		got, ok := translateKey(in)
		assert.True(t, ok, "key %d", in)
		assert.Equal(t, want, got)
	}

	_, ok := translateKey(glfw.KeyWorld1)
	assert.False(t, ok)
}
