package testbed

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/spaghettifunk/lantern/engine/renderer"
	"github.com/spaghettifunk/lantern/engine/renderpath"
)

var (
	black   = color.RGBA{A: 255}
	white   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	night   = color.RGBA{R: 12, G: 16, B: 38, A: 255}
	grass   = color.RGBA{R: 24, G: 60, B: 32, A: 255}
	lantern = color.RGBA{R: 255, G: 176, B: 64, A: 255}
)

const (
	boxSize   = 32
	boxSpeedX = 180.0
	boxSpeedY = 120.0
)

// TitlePath shows the name of the testbed with a slowly pulsing glow.
type TitlePath struct {
	renderpath.Base
	elapsed float64
}

func NewTitlePath() *TitlePath {
	return &TitlePath{Base: renderpath.Base{Name: "title"}}
}

func (p *TitlePath) Start() {
	p.Base.Start()
	p.elapsed = 0
}

func (p *TitlePath) Update(dt float64) {
	p.elapsed += dt
}

// Glow is the opacity of the halo behind the title, in [0.25, 0.75].
func (p *TitlePath) Glow() float64 {
	return 0.5 + 0.25*math.Sin(p.elapsed*2)
}

func (p *TitlePath) Compose(s *renderer.Surface) {
	s.FillScreen(night, 1)
	cx, cy := s.Width/2, s.Height/2
	s.FillRect(image.Rect(cx-160, cy-48, cx+160, cy+48), lantern, p.Glow()*0.3)
	s.DrawText("LANTERN", renderer.TextParams{X: cx, Y: cy - 24, Size: 48, Color: lantern, Shadow: true, Align: renderer.AlignCenter})
	s.DrawText("press ESC to quit", renderer.TextParams{X: cx, Y: cy + 32, Size: 16, Color: white, Align: renderer.AlignCenter})
}

// LevelPath bounces a box around the screen. The box moves in fixed steps so
// its motion is independent of the frame rate.
type LevelPath struct {
	renderpath.Base

	step   float64
	steps  int
	bounds image.Rectangle

	x, y   float64
	vx, vy float64
}

func NewLevelPath() *LevelPath {
	return &LevelPath{
		Base:   renderpath.Base{Name: "level"},
		step:   1.0 / 60.0,
		bounds: image.Rect(0, 0, 1280, 720),
	}
}

// SetStep sets the length of one fixed update in seconds.
func (p *LevelPath) SetStep(seconds float64) {
	if seconds > 0 {
		p.step = seconds
	}
}

// SetBounds sets the area the box bounces in, usually the screen.
func (p *LevelPath) SetBounds(r image.Rectangle) {
	if r.Dx() > boxSize && r.Dy() > boxSize {
		p.bounds = r
	}
}

func (p *LevelPath) Start() {
	p.Base.Start()
	p.x, p.y = 0, 0
	p.vx, p.vy = boxSpeedX, boxSpeedY
}

func (p *LevelPath) FixedUpdate() {
	p.steps++
	p.x += p.vx * p.step
	p.y += p.vy * p.step

	maxX := float64(p.bounds.Dx() - boxSize)
	maxY := float64(p.bounds.Dy() - boxSize)
	if p.x < 0 || p.x > maxX {
		p.vx = -p.vx
		p.x = math.Max(0, math.Min(p.x, maxX))
	}
	if p.y < 0 || p.y > maxY {
		p.vy = -p.vy
		p.y = math.Max(0, math.Min(p.y, maxY))
	}
}

func (p *LevelPath) Steps() int {
	return p.steps
}

func (p *LevelPath) Box() image.Rectangle {
	x, y := int(p.x), int(p.y)
	return image.Rect(x, y, x+boxSize, y+boxSize)
}

func (p *LevelPath) Compose(s *renderer.Surface) {
	s.FillScreen(grass, 1)
	s.FillRect(p.Box(), lantern, 1)
	s.DrawText(fmt.Sprintf("fixed steps: %d", p.steps), renderer.TextParams{
		X:     s.Width - 8,
		Y:     8,
		Size:  16,
		Color: white,
		Align: renderer.AlignRight,
	})
}
