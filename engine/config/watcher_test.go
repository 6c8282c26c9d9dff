package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRequiresPath(t *testing.T) {
	_, err := NewWatcher("", nil)
	assert.Error(t, err)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lantern.toml")
	require.NoError(t, os.WriteFile(path, []byte("[loop]\ntarget_frame_rate = 60.0\n"), 0o644))

	var rate atomic.Value
	w, err := NewWatcher(path, func(cfg *Config) {
		rate.Store(cfg.Loop.TargetFrameRate)
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[loop]\ntarget_frame_rate = 30.0\n"), 0o644))

	require.Eventually(t, func() bool {
		v, ok := rate.Load().(float64)
		return ok && v == 30.0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherSkipsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lantern.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	var last atomic.Value
	w, err := NewWatcher(path, func(cfg *Config) {
		last.Store(cfg.Loop.TargetFrameRate)
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[loop]\ntarget_frame_rate = -1.0\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("[loop]\ntarget_frame_rate = 90.0\n"), 0o644))

	require.Eventually(t, func() bool {
		v, ok := last.Load().(float64)
		return ok && v == 90.0
	}, 5*time.Second, 10*time.Millisecond)
	// other files in the directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("garbage"), 0o644))
	time.Sleep(50 * time.Millisecond)
	v, _ := last.Load().(float64)
	assert.Equal(t, 90.0, v)
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lantern.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
