package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/spaghettifunk/lantern/engine/core"
)

// Compositor rasterizes the command list of a Surface into an RGBA image. Font
// faces are not safe for concurrent use, so rasterization is serialized.
type Compositor struct {
	font       FontSource
	Background color.RGBA

	mutex sync.Mutex
}

func NewCompositor(fs FontSource) *Compositor {
	if fs == nil {
		fs = DefaultFont()
	}
	return &Compositor{
		font:       fs,
		Background: color.RGBA{A: 255},
	}
}

func (c *Compositor) Font() FontSource {
	return c.font
}

// Rasterize allocates a new image the size of the surface and draws into it.
func (c *Compositor) Rasterize(s *Surface) *image.RGBA {
	dst := image.NewRGBA(s.Bounds())
	c.RasterizeInto(dst, s)
	return dst
}

// RasterizeInto clears dst with the background color and replays the commands
// of s in order.
func (c *Compositor) RasterizeInto(dst *image.RGBA, s *Surface) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	draw.Draw(dst, dst.Bounds(), image.NewUniform(c.Background), image.Point{}, draw.Src)
	for _, cmd := range s.Commands() {
		switch cmd.Kind {
		case CommandFillRect:
			fillRect(dst, cmd.Rect, cmd.Color, cmd.Opacity)
		case CommandText:
			c.drawText(dst, cmd.Text, cmd.Params)
		case CommandImage:
			b := cmd.Image.Bounds()
			draw.Draw(dst, b.Sub(b.Min).Add(cmd.At), cmd.Image, b.Min, draw.Over)
		}
	}
}

func fillRect(dst draw.Image, r image.Rectangle, c color.RGBA, opacity float64) {
	opacity = core.Clamp(opacity, 0, 1)
	if opacity == 0 {
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

func (c *Compositor) drawText(dst draw.Image, text string, p TextParams) {
	face := c.font.Face(p.Size)
	if p.Shadow {
		drawString(dst, face, image.NewUniform(color.RGBA{A: 255}), p.X+1, p.Y+1, p.Align, text)
	}
	col := p.Color
	if col == (color.RGBA{}) {
		col = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	drawString(dst, face, image.NewUniform(col), p.X, p.Y, p.Align, text)
}
