// Package captcha generates, renders and checks human-verification codes.
package captcha

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

const (
	// Alphabet excludes 0 and O, which render alike.
	Alphabet = "123456789ABCDEFGHIJKLMNPQRSTUVWXYZ"
	// Length is the number of characters in a code.
	Length = 6

	Width  = 140
	Height = 44

	speckles    = 50
	strayLines  = 5
	maxRotation = 0.2
	glyphScale  = 2.0
)

var background = color.RGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}

// Generator draws codes and their noisy renderings. It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a Generator seeded from the runtime's random source.
func NewGenerator() *Generator {
	return NewGeneratorWithSource(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewGeneratorWithSource creates a Generator over a caller-provided source.
func NewGeneratorWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Generate returns a fresh code of Length characters drawn uniformly from Alphabet.
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(Length)
	for range Length {
		b.WriteByte(Alphabet[g.rnd.IntN(len(Alphabet))])
	}
	return b.String()
}

// Validate reports whether input matches code, ignoring the case of input.
func Validate(input, code string) bool {
	if code == "" {
		return false
	}
	return strings.ToUpper(input) == code
}

// Render draws code over random speckles and stray lines, each glyph with
// its own rotation and colour. The image is for display only.
func (g *Generator) Render(code string) image.Image {
	g.mu.Lock()
	defer g.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	for range speckles {
		c := color.NRGBA{R: g.byteN(256), G: g.byteN(256), B: g.byteN(256), A: 77}
		fillDot(img, g.rnd.IntN(Width), g.rnd.IntN(Height), c)
	}

	for range strayLines {
		c := color.NRGBA{R: g.byteN(256), G: g.byteN(256), B: g.byteN(256), A: 128}
		drawLine(img, g.rnd.IntN(Width), g.rnd.IntN(Height), g.rnd.IntN(Width), g.rnd.IntN(Height), c)
	}

	if code == "" {
		return img
	}
	space := float64(Width) / float64(len(code)+1)
	for i, r := range code {
		c := color.RGBA{R: g.byteN(100), G: g.byteN(100), B: g.byteN(150), A: 0xff}
		angle := (g.rnd.Float64() - 0.5) * 2 * maxRotation
		drawGlyph(img, r, float64(i+1)*space, float64(Height)/2, angle, c)
	}

	return img
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func (g *Generator) byteN(n int) uint8 {
	return uint8(g.rnd.IntN(n))
}

func blend(img *image.RGBA, x, y int, c color.Color) {
	p := image.Point{X: x, Y: y}
	if !p.In(img.Bounds()) {
		return
	}
	draw.Draw(img, image.Rectangle{Min: p, Max: p.Add(image.Point{X: 1, Y: 1})}, image.NewUniform(c), image.Point{}, draw.Over)
}

func fillDot(img *image.RGBA, cx, cy int, c color.Color) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx*dx+dy*dy <= 1 {
				blend(img, cx+dx, cy+dy, c)
			}
		}
	}
}

// drawLine is Bresenham's algorithm with alpha blending.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		blend(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func drawGlyph(dst *image.RGBA, r rune, cx, cy, angle float64, c color.Color) {
	face := basicfont.Face7x13
	// one extra column for the faux-bold second pass
	w, h := face.Advance+1, face.Height
	glyph := image.NewRGBA(image.Rect(0, 0, w, h))

	d := font.Drawer{Dst: glyph, Src: image.NewUniform(c), Face: face}
	for _, off := range []int{0, 1} {
		d.Dot = fixed.P(off, face.Ascent)
		d.DrawString(string(r))
	}

	sin, cos := math.Sincos(angle)
	a, b := glyphScale*cos, -glyphScale*sin
	dd, e := glyphScale*sin, glyphScale*cos
	hw, hh := float64(w)/2, float64(h)/2
	m := f64.Aff3{
		a, b, cx - (a*hw + b*hh),
		dd, e, cy - (dd*hw + e*hh),
	}
	xdraw.BiLinear.Transform(dst, m, glyph, glyph.Bounds(), xdraw.Over, nil)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
