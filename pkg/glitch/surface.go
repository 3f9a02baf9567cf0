package glitch

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
)

// DefaultBackground is the surface fill used when no background is configured.
const DefaultBackground = "#1a191c"

// Pixels is a rectangular block of non-premultiplied RGBA bytes.
type Pixels struct {
	Width  int
	Height int
	Data   []byte
}

// NewPixels allocates a transparent block of the given size.
func NewPixels(width, height int) Pixels {
	width, height = max(width, 0), max(height, 0)
	return Pixels{Width: width, Height: height, Data: make([]byte, width*height*4)}
}

// Surface is the drawable target the renderer borrows from its host.
type Surface interface {
	Width() int
	Height() int
	// Resize sets the surface dimensions. Content is undefined afterwards.
	Resize(width, height int)
	// Fill paints every pixel with c.
	Fill(c color.NRGBA)
	// DrawImage composites img scaled into the rectangle (x, y, w, h).
	DrawImage(img image.Image, x, y, w, h int)
	// ReadPixels copies a region; pixels outside the surface read as transparent black.
	ReadPixels(x, y, w, h int) Pixels
	// WritePixels replaces a region without compositing; pixels outside the surface are dropped.
	WritePixels(p Pixels, x, y int)
}

// Canvas is an in-memory Surface backed by a gg.Pixmap.
type Canvas struct {
	pm *gg.Pixmap
}

// NewCanvas creates a transparent canvas.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{pm: gg.NewPixmap(max(width, 0), max(height, 0))}
}

func (c *Canvas) Width() int  { return c.pm.Width() }
func (c *Canvas) Height() int { return c.pm.Height() }

// Resize reallocates the pixmap when the dimensions change.
func (c *Canvas) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width == c.pm.Width() && height == c.pm.Height() {
		return
	}
	c.pm = gg.NewPixmap(width, height)
}

// Fill writes c into every pixel.
func (c *Canvas) Fill(col color.NRGBA) {
	data := c.pm.Data()
	for i := 0; i+3 < len(data); i += 4 {
		data[i+0] = col.R
		data[i+1] = col.G
		data[i+2] = col.B
		data[i+3] = col.A
	}
}

// DrawImage composites img over the canvas, scaling it to w×h when its size differs.
func (c *Canvas) DrawImage(img image.Image, x, y, w, h int) {
	if img == nil || w <= 0 || h <= 0 {
		return
	}
	dst := c.view()
	r := image.Rect(x, y, x+w, y+h)
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		draw.Draw(dst, r, img, b.Min, draw.Over)
		return
	}
	draw.ApproxBiLinear.Scale(dst, r, img, b, draw.Over, nil)
}

func (c *Canvas) ReadPixels(x, y, w, h int) Pixels {
	p := NewPixels(w, h)
	cw, ch := c.pm.Width(), c.pm.Height()
	data := c.pm.Data()
	for row := 0; row < p.Height; row++ {
		sy := y + row
		if sy < 0 || sy >= ch {
			continue
		}
		x0, x1 := max(x, 0), min(x+p.Width, cw)
		if x0 >= x1 {
			continue
		}
		src := data[(sy*cw+x0)*4 : (sy*cw+x1)*4]
		off := (row*p.Width + (x0 - x)) * 4
		copy(p.Data[off:], src)
	}
	return p
}

func (c *Canvas) WritePixels(p Pixels, x, y int) {
	cw, ch := c.pm.Width(), c.pm.Height()
	data := c.pm.Data()
	for row := 0; row < p.Height; row++ {
		dy := y + row
		if dy < 0 || dy >= ch {
			continue
		}
		x0, x1 := max(x, 0), min(x+p.Width, cw)
		if x0 >= x1 {
			continue
		}
		src := p.Data[(row*p.Width+(x0-x))*4 : (row*p.Width+(x1-x))*4]
		copy(data[(dy*cw+x0)*4:], src)
	}
}

// Snapshot returns a copy of the current canvas content.
func (c *Canvas) Snapshot() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.pm.Width(), c.pm.Height()))
	copy(img.Pix, c.pm.Data())
	return img
}

// view exposes the pixmap bytes as an image without copying.
func (c *Canvas) view() *image.NRGBA {
	w, h := c.pm.Width(), c.pm.Height()
	return &image.NRGBA{Pix: c.pm.Data(), Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
}

var _ Surface = (*Canvas)(nil)

// ParseColor parses a hex background color. An empty string yields
// DefaultBackground.
func ParseColor(s string) (color.NRGBA, error) {
	if s == "" {
		s = DefaultBackground
	}
	if err := apperrors.ValidateColor(s); err != nil {
		return color.NRGBA{}, err
	}
	c := gg.Hex(s)
	return color.NRGBA{
		R: uint8(math.Round(c.R * 255)),
		G: uint8(math.Round(c.G * 255)),
		B: uint8(math.Round(c.B * 255)),
		A: uint8(math.Round(c.A * 255)),
	}, nil
}
