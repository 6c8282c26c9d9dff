package renderer

import (
	"image"
	"image/color"
)

type CommandKind uint8

const (
	CommandFillRect CommandKind = iota
	CommandText
	CommandImage
)

type HAlign uint8

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
)

// TextParams positions a block of text. Lines are separated by '\n'.
type TextParams struct {
	X, Y   int
	Size   int
	Color  color.RGBA
	Shadow bool
	Align  HAlign
}

type Command struct {
	Kind    CommandKind
	Rect    image.Rectangle
	Color   color.RGBA
	Opacity float64
	Text    string
	Params  TextParams
	Image   image.Image
	At      image.Point
}

// Surface records the draw commands of one frame in submission order.
type Surface struct {
	Width  int
	Height int
	Frame  uint64

	commands []Command
}

func NewSurface(width, height int, frame uint64) *Surface {
	return &Surface{Width: width, Height: height, Frame: frame}
}

func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

func (s *Surface) FillRect(r image.Rectangle, c color.RGBA, opacity float64) {
	s.commands = append(s.commands, Command{Kind: CommandFillRect, Rect: r, Color: c, Opacity: opacity})
}

func (s *Surface) FillScreen(c color.RGBA, opacity float64) {
	s.FillRect(s.Bounds(), c, opacity)
}

func (s *Surface) DrawText(text string, p TextParams) {
	if text == "" {
		return
	}
	s.commands = append(s.commands, Command{Kind: CommandText, Text: text, Params: p})
}

func (s *Surface) DrawImage(img image.Image, at image.Point) {
	if img == nil {
		return
	}
	s.commands = append(s.commands, Command{Kind: CommandImage, Image: img, At: at})
}

// Commands returns the recorded commands. The slice must not be modified.
func (s *Surface) Commands() []Command {
	return s.commands
}

func (s *Surface) Len() int {
	return len(s.commands)
}

// Reset drops the recorded commands so the surface can be reused for frame.
func (s *Surface) Reset(frame uint64) {
	s.commands = s.commands[:0]
	s.Frame = frame
}
