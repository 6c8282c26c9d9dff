// Package profiler measures named CPU ranges per frame and keeps a rolling
// average of each.
package profiler

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/spaghettifunk/lantern/engine/containers"
	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/renderer"
)

const (
	// Number of frames averaged per range.
	AVG_FRAMES = 20
	FrameRange = "CPU Frame"
)

// Range is the handle returned by BeginRange. The zero Range is invalid and
// ignored by EndRange.
type Range struct {
	name  string
	start time.Time
	valid bool
}

type entry struct {
	// accumulated seconds in the current frame
	frameTime float64
	samples   *containers.RingQueue[float64]
	average   float64
}

type Profiler struct {
	now     core.TimeSource
	enabled bool
	inFrame bool

	entries map[string]*entry
	order   []string

	frame Range
	// frame interval between BeginFrame calls
	metrics   *core.Metrics
	lastFrame time.Time

	FontSize int
}

func New(source core.TimeSource) *Profiler {
	if source == nil {
		source = time.Now
	}
	return &Profiler{
		now:      source,
		entries:  make(map[string]*entry),
		metrics:  core.NewMetrics(),
		FontSize: 14,
	}
}

func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled = enabled
	if !enabled {
		p.lastFrame = time.Time{}
	}
}

func (p *Profiler) IsEnabled() bool {
	return p.enabled
}

func (p *Profiler) BeginFrame() {
	if !p.enabled {
		return
	}
	now := p.now()
	if !p.lastFrame.IsZero() {
		p.metrics.Update(now.Sub(p.lastFrame).Seconds())
	}
	p.lastFrame = now
	p.inFrame = true
	p.frame = p.BeginRange(FrameRange)
}

// EndFrame closes the frame range and folds the frame totals into the
// rolling averages.
func (p *Profiler) EndFrame(s *renderer.Surface) {
	if !p.enabled || !p.inFrame {
		return
	}
	p.EndRange(p.frame)
	p.frame = Range{}
	p.inFrame = false

	for _, name := range p.order {
		e := p.entries[name]
		e.samples.Push(e.frameTime)
		e.frameTime = 0

		sum := 0.0
		for _, v := range e.samples.Items() {
			sum += v
		}
		e.average = sum / float64(e.samples.Len())
	}
}

// BeginRange starts timing name. A range may be entered several times per
// frame; the durations add up.
func (p *Profiler) BeginRange(name string) Range {
	if !p.enabled {
		return Range{}
	}
	if _, ok := p.entries[name]; !ok {
		p.entries[name] = &entry{samples: containers.NewRingQueue[float64](AVG_FRAMES)}
		p.order = append(p.order, name)
	}
	return Range{name: name, start: p.now(), valid: true}
}

func (p *Profiler) EndRange(r Range) {
	if !r.valid {
		return
	}
	e, ok := p.entries[r.name]
	if !ok {
		return
	}
	e.frameTime += p.now().Sub(r.start).Seconds()
}

// Average returns the rolling average of name in milliseconds.
func (p *Profiler) Average(name string) (float64, bool) {
	e, ok := p.entries[name]
	if !ok || e.samples.Len() == 0 {
		return 0, false
	}
	return e.average * 1000, true
}

// Frame returns the frames counted in the last second and the average frame
// interval in milliseconds.
func (p *Profiler) Frame() (float64, float64) {
	return p.metrics.Frame()
}

// Text formats the frame interval and every range as "name: x.xx ms", in
// first-seen order.
func (p *Profiler) Text() string {
	var sb strings.Builder
	sb.WriteString("Frame Profiler\n")
	if fps, ms := p.Frame(); ms > 0 {
		fmt.Fprintf(&sb, "Frame Time: %.2f ms (%.0f FPS)\n", ms, fps)
	}
	for _, name := range p.order {
		avg, ok := p.Average(name)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s: %.2f ms\n", name, avg)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Draw renders the averages at (x, y) when the profiler is enabled.
func (p *Profiler) Draw(x, y int, s *renderer.Surface) {
	if !p.enabled || len(p.order) == 0 {
		return
	}
	text := p.Text()
	lines := strings.Count(text, "\n") + 1
	s.FillRect(image.Rect(x-2, y-2, x+220, y+lines*(p.FontSize+2)+2), color.RGBA{A: 255}, 0.5)
	s.DrawText(text, renderer.TextParams{
		X:      x,
		Y:      y,
		Size:   p.FontSize,
		Color:  color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Shadow: true,
	})
}
