package renderer

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fzipp/bmfont"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontSource hands out faces for a requested pixel size. Sources that only have
// one size ignore the argument.
type FontSource interface {
	Face(size int) font.Face
	Name() string
}

// LoadFont picks the loader by file extension. An empty path returns the
// built-in 7x13 face.
func LoadFont(path string) (FontSource, error) {
	if path == "" {
		return DefaultFont(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fnt":
		return loadBitmapFont(path)
	case ".ttf", ".otf":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
		}
		return &vectorFont{name: filepath.Base(path), font: f, faces: map[int]font.Face{}}, nil
	}
	return nil, fmt.Errorf("unsupported font file %s", path)
}

func DefaultFont() FontSource {
	return basicFont{}
}

type basicFont struct{}

func (basicFont) Face(int) font.Face { return basicfont.Face7x13 }
func (basicFont) Name() string       { return "basic 7x13" }

type vectorFont struct {
	name  string
	font  *opentype.Font
	mutex sync.Mutex
	faces map[int]font.Face
}

func (vf *vectorFont) Name() string { return vf.name }

func (vf *vectorFont) Face(size int) font.Face {
	if size <= 0 {
		size = 16
	}
	vf.mutex.Lock()
	defer vf.mutex.Unlock()
	if face, ok := vf.faces[size]; ok {
		return face
	}
	face, err := opentype.NewFace(vf.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	vf.faces[size] = face
	return face
}

type bitmapGlyph struct {
	rect     image.Rectangle
	xOffset  int
	yOffset  int
	xAdvance int
	page     int
}

type kerningPair struct {
	first, second rune
}

// bitmapFace renders an AngelCode bitmap font through the font.Face interface
// so it can be used with font.Drawer.
type bitmapFace struct {
	name       string
	lineHeight int
	base       int
	glyphs     map[rune]bitmapGlyph
	kerning    map[kerningPair]int
	pages      map[int]image.Image
}

func loadBitmapFont(path string) (*bitmapFace, error) {
	bf, err := bmfont.Load(path)
	if err != nil {
		return nil, err
	}
	desc := bf.Descriptor

	face := &bitmapFace{
		name:       desc.Info.Face,
		lineHeight: int(desc.Common.LineHeight),
		base:       int(desc.Common.Base),
		glyphs:     make(map[rune]bitmapGlyph, len(desc.Chars)),
		kerning:    make(map[kerningPair]int, len(desc.Kerning)),
		pages:      make(map[int]image.Image, len(desc.Pages)),
	}
	for _, g := range desc.Chars {
		face.glyphs[rune(g.ID)] = bitmapGlyph{
			rect:     image.Rect(int(g.X), int(g.Y), int(g.X)+int(g.Width), int(g.Y)+int(g.Height)),
			xOffset:  int(g.XOffset),
			yOffset:  int(g.YOffset),
			xAdvance: int(g.XAdvance),
			page:     int(g.Page),
		}
	}
	for p, k := range desc.Kerning {
		face.kerning[kerningPair{rune(p.First), rune(p.Second)}] = int(k.Amount)
	}
	dir := filepath.Dir(path)
	for _, p := range desc.Pages {
		img, err := loadPage(filepath.Join(dir, p.File))
		if err != nil {
			return nil, err
		}
		face.pages[int(p.ID)] = img
	}
	return face, nil
}

func loadPage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode font page %s: %w", path, err)
	}
	return img, nil
}

func (bf *bitmapFace) Name() string       { return bf.name }
func (bf *bitmapFace) Face(int) font.Face { return bf }
func (bf *bitmapFace) Close() error       { return nil }

func (bf *bitmapFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	g, ok := bf.glyphs[r]
	if !ok {
		return image.Rectangle{}, nil, image.Point{}, 0, false
	}
	page, ok := bf.pages[g.page]
	if !ok {
		return image.Rectangle{}, nil, image.Point{}, 0, false
	}
	// dot sits on the baseline, glyph offsets are relative to the line top
	x := dot.X.Round() + g.xOffset
	y := dot.Y.Round() - bf.base + g.yOffset
	dr := image.Rect(x, y, x+g.rect.Dx(), y+g.rect.Dy())
	return dr, page, g.rect.Min, fixed.I(g.xAdvance), true
}

func (bf *bitmapFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	g, ok := bf.glyphs[r]
	if !ok {
		return fixed.Rectangle26_6{}, 0, false
	}
	top := g.yOffset - bf.base
	bounds := fixed.R(g.xOffset, top, g.xOffset+g.rect.Dx(), top+g.rect.Dy())
	return bounds, fixed.I(g.xAdvance), true
}

func (bf *bitmapFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	g, ok := bf.glyphs[r]
	if !ok {
		return 0, false
	}
	return fixed.I(g.xAdvance), true
}

func (bf *bitmapFace) Kern(r0, r1 rune) fixed.Int26_6 {
	return fixed.I(bf.kerning[kerningPair{r0, r1}])
}

func (bf *bitmapFace) Metrics() font.Metrics {
	return font.Metrics{
		Height:    fixed.I(bf.lineHeight),
		Ascent:    fixed.I(bf.base),
		Descent:   fixed.I(bf.lineHeight - bf.base),
		CapHeight: fixed.I(bf.base),
		XHeight:   fixed.I(bf.base / 2),
	}
}

var _ font.Face = (*bitmapFace)(nil)

// drawString draws text with its top-left corner at (x, y). Lines are split on
// '\n' and advanced by the face height.
func drawString(dst draw.Image, face font.Face, src image.Image, x, y int, align HAlign, text string) {
	m := face.Metrics()
	lineHeight := m.Height.Ceil()
	if lineHeight == 0 {
		lineHeight = (m.Ascent + m.Descent).Ceil()
	}
	d := &font.Drawer{Dst: dst, Src: src, Face: face}
	for i, line := range strings.Split(text, "\n") {
		lx := x
		switch align {
		case AlignCenter:
			lx -= d.MeasureString(line).Round() / 2
		case AlignRight:
			lx -= d.MeasureString(line).Round()
		}
		d.Dot = fixed.P(lx, y+m.Ascent.Ceil()+i*lineHeight)
		d.DrawString(line)
	}
}

// MeasureText returns the pixel size of a possibly multi-line text block.
func MeasureText(face font.Face, text string) image.Point {
	m := face.Metrics()
	lineHeight := m.Height.Ceil()
	lines := strings.Split(text, "\n")
	w := 0
	for _, line := range lines {
		if lw := font.MeasureString(face, line).Round(); lw > w {
			w = lw
		}
	}
	return image.Pt(w, lineHeight*len(lines))
}
