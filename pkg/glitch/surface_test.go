package glitch

import (
	"image"
	"image/color"
	"testing"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestCanvasFillAndSnapshot(t *testing.T) {
	c := NewCanvas(3, 2)
	want := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	c.Fill(want)

	snap := c.Snapshot()
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if got := snap.NRGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestCanvasResize(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Fill(color.NRGBA{R: 9, A: 255})

	c.Resize(2, 2)
	if got := c.Snapshot().NRGBAAt(0, 0); got.R != 9 {
		t.Error("same-size resize cleared the canvas")
	}

	c.Resize(5, 4)
	if c.Width() != 5 || c.Height() != 4 {
		t.Fatalf("size = %dx%d, want 5x4", c.Width(), c.Height())
	}
	if got := c.Snapshot().NRGBAAt(0, 0); got != (color.NRGBA{}) {
		t.Errorf("resized canvas pixel = %v, want transparent", got)
	}
}

func TestCanvasReadWriteClipping(t *testing.T) {
	c := NewCanvas(4, 4)
	red := color.NRGBA{R: 255, A: 255}
	c.Fill(red)

	p := c.ReadPixels(-1, -1, 3, 3)
	if p.Width != 3 || p.Height != 3 || len(p.Data) != 36 {
		t.Fatalf("ReadPixels() = %dx%d len %d", p.Width, p.Height, len(p.Data))
	}
	if p.Data[0] != 0 || p.Data[3] != 0 {
		t.Error("off-surface pixel should read as transparent black")
	}
	if p.Data[(1*3+1)*4] != 255 {
		t.Error("on-surface pixel should read as red")
	}

	blue := NewPixels(3, 3)
	for i := 0; i < len(blue.Data); i += 4 {
		blue.Data[i+2], blue.Data[i+3] = 255, 255
	}
	c.WritePixels(blue, 2, 2)
	snap := c.Snapshot()
	if got := snap.NRGBAAt(3, 3); got.B != 255 || got.R != 0 {
		t.Errorf("pixel (3,3) = %v, want blue", got)
	}
	if got := snap.NRGBAAt(1, 1); got != red {
		t.Errorf("pixel (1,1) = %v, want untouched red", got)
	}
}

func TestCanvasDrawImageScales(t *testing.T) {
	c := NewCanvas(4, 4)
	c.Fill(color.NRGBA{A: 255})
	green := color.NRGBA{G: 255, A: 255}
	c.DrawImage(solid(2, 2, green), 0, 0, 4, 4)

	snap := c.Snapshot()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := snap.NRGBAAt(x, y); got != green {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, green)
			}
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"", color.NRGBA{R: 0x1a, G: 0x19, B: 0x1c, A: 0xff}},
		{"#ff0000", color.NRGBA{R: 255, A: 255}},
		{"00ff00", color.NRGBA{G: 255, A: 255}},
		{"#00f", color.NRGBA{B: 255, A: 255}},
		{"#11223344", color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"red", "#12", "#zzzzzz"} {
		_, err := ParseColor(bad)
		if !apperrors.Is(err, apperrors.ErrCodeInvalidColor) {
			t.Errorf("ParseColor(%q) error = %v, want INVALID_COLOR", bad, err)
		}
	}
}
