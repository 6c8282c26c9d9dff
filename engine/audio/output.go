package audio

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Output pulls samples from the master streamer. Mixer changes happen between
// Lock and Unlock so they never race with the pulling goroutine.
type Output interface {
	Start(format beep.Format, s beep.Streamer) error
	Lock()
	Unlock()
	Close()
}

// SpeakerOutput plays through the default sound device.
type SpeakerOutput struct {
	// Length of the device buffer. Shorter means lower latency and more CPU.
	Latency time.Duration
}

func NewSpeakerOutput() *SpeakerOutput {
	return &SpeakerOutput{Latency: 100 * time.Millisecond}
}

func (so *SpeakerOutput) Start(format beep.Format, s beep.Streamer) error {
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(so.Latency)); err != nil {
		return err
	}
	speaker.Play(s)
	return nil
}

func (so *SpeakerOutput) Lock()   { speaker.Lock() }
func (so *SpeakerOutput) Unlock() { speaker.Unlock() }

func (so *SpeakerOutput) Close() {
	speaker.Clear()
	speaker.Close()
}

// NullOutput discards the audio unless someone pulls it. Used without a sound
// device and in tests.
type NullOutput struct {
	sync.Mutex
	streamer beep.Streamer
}

func (no *NullOutput) Start(format beep.Format, s beep.Streamer) error {
	no.streamer = s
	return nil
}

func (no *NullOutput) Close() {}

// Pull streams n samples out of the master mix.
func (no *NullOutput) Pull(n int) [][2]float64 {
	no.Lock()
	defer no.Unlock()
	samples := make([][2]float64, n)
	if no.streamer == nil {
		return samples
	}
	filled := 0
	for filled < n {
		k, ok := no.streamer.Stream(samples[filled:])
		filled += k
		if !ok || k == 0 {
			break
		}
	}
	return samples
}
