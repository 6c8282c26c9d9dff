package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 8000

// writeTone writes a constant stereo signal of n samples.
func writeTone(t *testing.T, rate, n int, level float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	left := n
	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left == 0 {
			return 0, false
		}
		k := min(len(samples), left)
		for i := 0; i < k; i++ {
			samples[i] = [2]float64{level, level}
		}
		left -= k
		return k, true
	})
	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, tone, format))
	return path
}

func newEngine(t *testing.T) (*Engine, *NullOutput) {
	t.Helper()
	out := &NullOutput{}
	e, err := New(testRate, out)
	require.NoError(t, err)
	return e, out
}

func TestNewRejectsInvalidRate(t *testing.T) {
	_, err := New(0, nil)
	assert.Error(t, err)
}

func TestVolumes(t *testing.T) {
	e, _ := newEngine(t)
	assert.Equal(t, 1.0, e.Volume(Effects))
	assert.Equal(t, 1.0, e.Volume(Music))

	e.SetEffectsVolume(0.5)
	e.SetMusicVolume(-1)
	assert.Equal(t, 0.5, e.Volume(Effects))
	assert.Equal(t, 0.0, e.Volume(Music))
	assert.True(t, e.mixes[Music].volume.Silent)
	assert.InDelta(t, -1.0, e.mixes[Effects].volume.Volume, 1e-12)
}

func TestPlayMixesIntoOutput(t *testing.T) {
	e, out := newEngine(t)
	path := writeTone(t, testRate, 100, 0.5)
	require.NoError(t, e.Load("tone", path, false))

	s, ok := e.Sound("tone")
	require.True(t, ok)
	assert.Equal(t, Effects, s.Channel())
	assert.Equal(t, 12500*time.Microsecond, s.Duration())

	require.NoError(t, e.Play("tone", 0))
	samples := out.Pull(200)
	assert.InDelta(t, 0.5, samples[0][0], 1e-3)
	assert.InDelta(t, 0.5, samples[99][1], 1e-3)
	assert.Equal(t, 0.0, samples[150][0])
	assert.Equal(t, 0, s.Playing())
}

func TestPlayWithDelay(t *testing.T) {
	e, out := newEngine(t)
	require.NoError(t, e.Load("tone", writeTone(t, testRate, 100, 0.5), false))

	// 10ms at 8kHz is 80 samples of silence
	require.NoError(t, e.Play("tone", 10*time.Millisecond))
	samples := out.Pull(200)
	assert.Equal(t, 0.0, samples[79][0])
	assert.InDelta(t, 0.5, samples[80][0], 1e-3)
	assert.InDelta(t, 0.5, samples[179][0], 1e-3)
	assert.Equal(t, 0.0, samples[180][0])
}

func TestChannelVolumeApplies(t *testing.T) {
	e, out := newEngine(t)
	require.NoError(t, e.Load("theme", writeTone(t, testRate, 100, 0.8), true))
	e.SetMusicVolume(0.5)
	require.NoError(t, e.Play("theme", 0))
	samples := out.Pull(10)
	assert.InDelta(t, 0.4, samples[5][0], 1e-3)

	e.SetMusicVolume(0)
	samples = out.Pull(10)
	assert.Equal(t, 0.0, samples[5][0])
}

func TestStopCutsPlayback(t *testing.T) {
	e, out := newEngine(t)
	require.NoError(t, e.Load("tone", writeTone(t, testRate, 1000, 0.5), false))
	require.NoError(t, e.Play("tone", 0))
	out.Pull(10)

	s, _ := e.Sound("tone")
	assert.Equal(t, 1, s.Playing())
	require.NoError(t, e.Stop("tone"))
	assert.Equal(t, 0, s.Playing())
	samples := out.Pull(10)
	assert.Equal(t, 0.0, samples[0][0])
}

func TestResampledOnLoad(t *testing.T) {
	e, _ := newEngine(t)
	require.NoError(t, e.Load("tone", writeTone(t, testRate*2, 200, 0.5), false))
	s, _ := e.Sound("tone")
	// 200 samples at twice the engine rate
	assert.InDelta(t, float64(12500*time.Microsecond), float64(s.Duration()), float64(time.Millisecond))
}

func TestUnknownSound(t *testing.T) {
	e, _ := newEngine(t)
	assert.Error(t, e.Play("nope", 0))
	assert.Error(t, e.Stop("nope"))
	assert.Error(t, e.Load("nope", filepath.Join(t.TempDir(), "nope.wav"), false))
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "effects", Effects.String())
	assert.Equal(t, "music", Music.String())
	assert.Equal(t, "Channel(7)", Channel(7).String())
}
