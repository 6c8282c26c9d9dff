package helper

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t *testing.T) {
	prev := now
	now = func() time.Time { return time.Date(2024, 3, 9, 7, 5, 1, 0, time.Local) }
	t.Cleanup(func() { now = prev })
}

func TestDateTimeString(t *testing.T) {
	fixedNow(t)
	assert.Equal(t, "2024-03-09_07-05-01", DateTimeString())
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "startup.lua", FileNameFromPath("scripts/startup.lua"))
	assert.Equal(t, "", FileNameFromPath(""))
	assert.Equal(t, "scripts/", DirectoryFromPath("scripts/startup.lua"))
	assert.Equal(t, "", DirectoryFromPath("startup.lua"))
	assert.Equal(t, "png", ExtensionFromFileName("shot.PNG"))
	assert.Equal(t, "", ExtensionFromFileName("README"))
	assert.Equal(t, "sounds/boom", RemoveExtension("sounds/boom.wav"))
}

func TestScreenshotDoesNotOverwrite(t *testing.T) {
	fixedNow(t)
	dir := filepath.Join(t.TempDir(), "shots")
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	first, err := Screenshot(img, dir)
	require.NoError(t, err)
	second, err := Screenshot(img, dir)
	require.NoError(t, err)

	assert.Equal(t, "sc_2024-03-09_07-05-01.png", filepath.Base(first))
	assert.Equal(t, "sc_2024-03-09_07-05-01_1.png", filepath.Base(second))
	assert.True(t, FileExists(first))
	assert.True(t, FileExists(second))
}

func TestFilesInDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.lua", "a.LUA", "c.wav"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.lua"), 0o755))

	files, err := FilesInDirectory(dir, ".lua")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.LUA"), filepath.Join(dir, "b.lua")}, files)

	all, err := FilesInDirectory(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = FilesInDirectory(filepath.Join(dir, "nope"), "")
	assert.Error(t, err)
}
