// Package backlog is the in-game log console. It keeps the most recent log
// lines and draws them over the frame when toggled open.
package backlog

import (
	"bytes"
	"image"
	"image/color"
	"regexp"
	"strings"
	"sync"

	"github.com/spaghettifunk/lantern/engine/containers"
	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/renderer"
)

const (
	// Fraction of the screen height the console slides per update.
	slideSpeed = 0.1
	margin     = 4
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

var backgroundColor = color.RGBA{R: 0, G: 0, B: 0, A: 255}

// Backlog stores log lines in a bounded ring queue. Write may be called from
// any goroutine; Update and Draw run on the loop.
type Backlog struct {
	mutex   sync.Mutex
	lines   *containers.RingQueue[string]
	partial bytes.Buffer

	input    *core.Input
	FontSize int

	enabled bool
	pos     float64
	scroll  int
}

// New creates a backlog keeping at most capacity lines. input may be nil, in
// which case the console is only driven through Toggle and Scroll.
func New(capacity int, input *core.Input) *Backlog {
	return &Backlog{
		lines:    containers.NewRingQueue[string](capacity),
		input:    input,
		FontSize: 16,
	}
}

// Write implements io.Writer so the backlog can be handed to core.SetLogOutput.
// Complete lines are stored; a trailing partial line waits for the next call.
func (b *Backlog) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.partial.Write(p)
	for {
		data := b.partial.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		b.push(string(data[:i]))
		b.partial.Next(i + 1)
	}
	return len(p), nil
}

// Post adds a message directly, one entry per line.
func (b *Backlog) Post(msg string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, line := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
		b.push(line)
	}
}

func (b *Backlog) push(line string) {
	line = strings.TrimRight(ansiEscape.ReplaceAllString(line, ""), "\r")
	b.lines.Push(line)
}

// Text returns the stored lines joined by newlines, oldest first.
func (b *Backlog) Text() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return strings.Join(b.lines.Items(), "\n")
}

func (b *Backlog) Lines() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.lines.Items()
}

func (b *Backlog) Clear() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.lines.Clear()
	b.partial.Reset()
	b.scroll = 0
}

func (b *Backlog) Toggle() {
	b.enabled = !b.enabled
}

// IsActive reports whether the console is open or still sliding.
func (b *Backlog) IsActive() bool {
	return b.enabled || b.pos > 0
}

// Scroll moves the view by n lines towards older entries; negative values go
// back towards the newest one.
func (b *Backlog) Scroll(n int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.scroll = core.Clamp(b.scroll+n, 0, max(b.lines.Len()-1, 0))
}

// Update handles the console keys and advances the slide animation.
func (b *Backlog) Update() {
	if b.input != nil {
		if b.input.IsKeyPressed(core.KEY_HOME) {
			b.Toggle()
		}
		if b.enabled {
			if b.input.IsKeyDown(core.KEY_PRIOR) {
				b.Scroll(1)
			}
			if b.input.IsKeyDown(core.KEY_NEXT) {
				b.Scroll(-1)
			}
		}
	}

	if b.enabled {
		b.pos = core.Clamp(b.pos+slideSpeed, 0, 1)
	} else {
		b.pos = core.Clamp(b.pos-slideSpeed, 0, 1)
	}
}

// Draw covers the upper part of the surface with the newest lines that fit.
func (b *Backlog) Draw(s *renderer.Surface) {
	if b.pos <= 0 {
		return
	}
	height := int(float64(s.Height) * b.pos)
	s.FillRect(image.Rect(0, 0, s.Width, height), backgroundColor, 0.8)

	lineHeight := b.FontSize + 2
	rows := (height - 2*margin) / lineHeight
	if rows <= 0 {
		return
	}

	b.mutex.Lock()
	lines := b.lines.Items()
	scroll := b.scroll
	b.mutex.Unlock()

	end := max(len(lines)-scroll, 0)
	start := max(end-rows, 0)
	s.DrawText(strings.Join(lines[start:end], "\n"), renderer.TextParams{
		X:     margin,
		Y:     margin,
		Size:  b.FontSize,
		Color: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Align: renderer.AlignLeft,
	})
}
