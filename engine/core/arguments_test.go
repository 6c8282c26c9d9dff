package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartupArguments(t *testing.T) {
	args := NewStartupArguments("--vulkan", "DebugDevice", "", "-")
	assert.True(t, args.Has("vulkan"))
	assert.True(t, args.Has("--VULKAN"))
	assert.True(t, args.Has("debugdevice"))
	assert.False(t, args.Has("webgpu"))

	args.Set("-headless")
	assert.True(t, args.Has("headless"))

	var missing *StartupArguments
	assert.False(t, missing.Has("vulkan"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warn"))
	assert.Equal(t, InfoLevel, ParseLogLevel("chatty"))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(42, 0, 10))
	assert.Equal(t, 0.5, Clamp(0.5, 0.0, 1.0))
}
