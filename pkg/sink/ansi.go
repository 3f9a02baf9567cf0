package sink

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/image/draw"
)

const upperHalfBlock = "▀"

// ANSI renders the last frame as true-color half-block characters, two
// pixel rows per terminal line.
type ANSI struct {
	// Columns scales the frame to this many cells; zero keeps one cell per pixel.
	Columns int
}

func (ANSI) Ext() string         { return ".ansi" }
func (ANSI) ContentType() string { return "text/plain; charset=utf-8" }

func (a ANSI) Encode(w io.Writer, frames []*image.NRGBA, _ int) error {
	f, err := lastFrame(frames)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, a.Render(f))
	return err
}

// Render returns the frame as a multi-line string.
func (a ANSI) Render(img *image.NRGBA) string {
	img = scaleToColumns(img, a.Columns)
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)

	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			style := r.NewStyle().Foreground(hexColor(img.NRGBAAt(x, y)))
			if y+1 < b.Max.Y {
				style = style.Background(hexColor(img.NRGBAAt(x, y+1)))
			}
			sb.WriteString(style.Render(upperHalfBlock))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func hexColor(c color.NRGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func scaleToColumns(img *image.NRGBA, cols int) *image.NRGBA {
	b := img.Bounds()
	if cols <= 0 || cols == b.Dx() || b.Dx() == 0 {
		return img
	}
	rows := max(b.Dy()*cols/b.Dx(), 1)
	dst := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
