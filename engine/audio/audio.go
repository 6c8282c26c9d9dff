// Package audio plays sounds through two submixes, effects and music, each
// with its own volume.
package audio

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/wav"
	"github.com/spaghettifunk/lantern/engine/core"
)

type Channel uint8

const (
	Effects Channel = iota
	Music
	MAX_CHANNELS
)

func (c Channel) String() string {
	switch c {
	case Effects:
		return "effects"
	case Music:
		return "music"
	}
	return fmt.Sprintf("Channel(%d)", uint8(c))
}

const resampleQuality = 4

type submix struct {
	mixer  *beep.Mixer
	volume *effects.Volume
	linear float64
}

type Engine struct {
	format beep.Format
	output Output
	master *beep.Mixer
	mixes  [MAX_CHANNELS]*submix

	mutex  sync.Mutex
	sounds map[string]*Sound
}

// New builds the mixer graph and starts the output. A nil output discards
// everything.
func New(sampleRate int, output Output) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if output == nil {
		output = &NullOutput{}
	}
	e := &Engine{
		format: beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 2, Precision: 2},
		output: output,
		master: &beep.Mixer{},
		sounds: make(map[string]*Sound),
	}
	for i := range e.mixes {
		m := &beep.Mixer{}
		sm := &submix{
			mixer:  m,
			volume: &effects.Volume{Streamer: m, Base: 2},
		}
		setLinear(sm, 1)
		e.mixes[i] = sm
		e.master.Add(sm.volume)
	}
	if err := output.Start(e.format, e.master); err != nil {
		return nil, fmt.Errorf("failed to start audio output: %w", err)
	}
	core.LogInfo("audio engine started at %d Hz", sampleRate)
	return e, nil
}

func (e *Engine) Format() beep.Format {
	return e.format
}

// setLinear maps a linear gain to the logarithmic volume of effects.Volume.
func setLinear(sm *submix, v float64) {
	v = math.Max(v, 0)
	sm.linear = v
	sm.volume.Silent = v == 0
	if v > 0 {
		sm.volume.Volume = math.Log2(v)
	}
}

func (e *Engine) SetVolume(ch Channel, v float64) {
	if ch >= MAX_CHANNELS {
		return
	}
	e.output.Lock()
	defer e.output.Unlock()
	setLinear(e.mixes[ch], v)
}

func (e *Engine) Volume(ch Channel) float64 {
	if ch >= MAX_CHANNELS {
		return 0
	}
	e.output.Lock()
	defer e.output.Unlock()
	return e.mixes[ch].linear
}

func (e *Engine) SetEffectsVolume(v float64) { e.SetVolume(Effects, v) }
func (e *Engine) SetMusicVolume(v float64)   { e.SetVolume(Music, v) }

// LoadSound decodes a WAV file into memory, resampled to the engine rate.
func (e *Engine) LoadSound(path string, ch Channel) (*Sound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != e.format.SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, e.format.SampleRate, streamer)
	}
	buffer := beep.NewBuffer(e.format)
	buffer.Append(s)

	return &Sound{engine: e, channel: ch, buffer: buffer}, nil
}

// Load registers a sound under name. music selects the music channel.
func (e *Engine) Load(name, path string, music bool) error {
	ch := Effects
	if music {
		ch = Music
	}
	s, err := e.LoadSound(path, ch)
	if err != nil {
		return err
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if old, ok := e.sounds[name]; ok {
		old.Stop()
	}
	e.sounds[name] = s
	return nil
}

func (e *Engine) Sound(name string) (*Sound, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	s, ok := e.sounds[name]
	return s, ok
}

func (e *Engine) Play(name string, delay time.Duration) error {
	s, ok := e.Sound(name)
	if !ok {
		return fmt.Errorf("unknown sound %q", name)
	}
	s.Play(delay)
	return nil
}

func (e *Engine) Stop(name string) error {
	s, ok := e.Sound(name)
	if !ok {
		return fmt.Errorf("unknown sound %q", name)
	}
	s.Stop()
	return nil
}

// Shutdown stops every sound and closes the output.
func (e *Engine) Shutdown() {
	e.mutex.Lock()
	sounds := make([]*Sound, 0, len(e.sounds))
	for _, s := range e.sounds {
		sounds = append(sounds, s)
	}
	e.sounds = make(map[string]*Sound)
	e.mutex.Unlock()

	for _, s := range sounds {
		s.Stop()
	}
	e.output.Close()
}

// Sound is a decoded clip. It can be played several times at once.
type Sound struct {
	engine  *Engine
	channel Channel
	buffer  *beep.Buffer
	voices  []voice
}

type voice struct {
	ctrl *beep.Ctrl
	clip beep.StreamSeeker
}

func (s *Sound) Channel() Channel {
	return s.channel
}

// Duration is the length of the clip.
func (s *Sound) Duration() time.Duration {
	return s.engine.format.SampleRate.D(s.buffer.Len())
}

// Play starts the clip after delay of silence.
func (s *Sound) Play(delay time.Duration) {
	clip := s.buffer.Streamer(0, s.buffer.Len())
	var st beep.Streamer = clip
	if delay > 0 {
		st = beep.Seq(beep.Silence(s.engine.format.SampleRate.N(delay)), clip)
	}
	v := voice{ctrl: &beep.Ctrl{Streamer: st}, clip: clip}

	s.engine.output.Lock()
	defer s.engine.output.Unlock()
	// forget finished voices
	alive := s.voices[:0]
	for _, old := range s.voices {
		if old.clip.Position() < old.clip.Len() {
			alive = append(alive, old)
		}
	}
	s.voices = append(alive, v)
	s.engine.mixes[s.channel].mixer.Add(v.ctrl)
}

// Playing counts the voices that did not finish yet.
func (s *Sound) Playing() int {
	s.engine.output.Lock()
	defer s.engine.output.Unlock()
	n := 0
	for _, v := range s.voices {
		if v.clip.Position() < v.clip.Len() {
			n++
		}
	}
	return n
}

// Stop cuts every playing voice of the clip.
func (s *Sound) Stop() {
	s.engine.output.Lock()
	defer s.engine.output.Unlock()
	for _, v := range s.voices {
		// the mixer drops streamers that report they are drained
		v.ctrl.Streamer = nil
	}
	s.voices = s.voices[:0]
}
