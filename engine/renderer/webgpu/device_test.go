package webgpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/spaghettifunk/lantern/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseFormat(t *testing.T) {
	f := chooseFormat([]wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float, wgpu.TextureFormatBGRA8UnormSrgb})
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, f)
	assert.True(t, isBGRA(f))

	f = chooseFormat([]wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float})
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, f)
	assert.False(t, isBGRA(f))
}

func TestNewWithoutWindow(t *testing.T) {
	_, err := New(renderer.DeviceOptions{Kind: renderer.WebGPU, Width: 64, Height: 64})
	require.Error(t, err)
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, renderer.Backends(), renderer.WebGPU)
}
