package headless

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/lantern/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateThroughRegistry(t *testing.T) {
	dev, err := renderer.CreateDevice(renderer.DeviceOptions{Kind: renderer.Headless, Width: 32, Height: 16, DebugDevice: true})
	require.NoError(t, err)
	defer dev.Shutdown()

	assert.Equal(t, renderer.Headless, dev.Kind())
	assert.Equal(t, 32, dev.ScreenWidth())
	assert.Equal(t, 16, dev.ScreenHeight())
	assert.True(t, dev.IsDebugDevice())
}

func TestInvalidResolution(t *testing.T) {
	_, err := New(renderer.DeviceOptions{Width: 0, Height: 10})
	assert.Error(t, err)
}

func TestWaitForIdleFlushesFrames(t *testing.T) {
	dev, err := New(renderer.DeviceOptions{Width: 8, Height: 8})
	require.NoError(t, err)
	defer dev.Shutdown()

	red := color.RGBA{R: 255, A: 255}
	for i := 0; i < 10; i++ {
		s := dev.BeginFrame()
		dev.PresentBegin(s)
		s.FillScreen(red, 1)
		dev.PresentEnd(s)
	}
	dev.WaitForIdle()

	assert.Equal(t, uint64(10), dev.PresentedFrames())
	img, frame := dev.LastFrame()
	require.NotNil(t, img)
	assert.Equal(t, uint64(10), frame)
	assert.Equal(t, red, img.RGBAAt(4, 4))
}

func TestDumpEveryNthFrame(t *testing.T) {
	dir := t.TempDir()
	dev, err := New(renderer.DeviceOptions{Width: 4, Height: 4, DumpDir: dir, DumpEvery: 2})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		dev.PresentEnd(dev.BeginFrame())
	}
	require.NoError(t, dev.Shutdown())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"frame_000002.png", "frame_000004.png"}, names)
	assert.FileExists(t, filepath.Join(dir, "frame_000002.png"))
}

func TestSnapshotIsACopy(t *testing.T) {
	dev, err := New(renderer.DeviceOptions{Width: 4, Height: 4})
	require.NoError(t, err)
	defer dev.Shutdown()

	assert.Nil(t, dev.Snapshot())

	s := dev.BeginFrame()
	s.FillScreen(color.RGBA{B: 255, A: 255}, 1)
	dev.PresentEnd(s)
	dev.WaitForIdle()

	snap := dev.Snapshot()
	require.NotNil(t, snap)
	snap.Pix[0] = 1
	last, _ := dev.LastFrame()
	assert.NotEqual(t, snap.Pix[0], last.Pix[0])
}
