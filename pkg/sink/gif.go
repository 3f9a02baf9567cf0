package sink

import (
	"image"
	"image/color/palette"
	"image/gif"
	"io"

	"golang.org/x/image/draw"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
)

// GIF encodes an endlessly looping animation quantized to the Plan 9 palette.
type GIF struct {
	// Dither enables Floyd-Steinberg error diffusion.
	Dither bool
}

func (GIF) Ext() string         { return ".gif" }
func (GIF) ContentType() string { return "image/gif" }

func (g GIF) Encode(w io.Writer, frames []*image.NRGBA, fps int) error {
	if len(frames) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "no frames to encode")
	}
	delay := GIFDelay(fps)

	anim := &gif.GIF{LoopCount: 0}
	for _, f := range frames {
		anim.Image = append(anim.Image, g.quantize(f))
		anim.Delay = append(anim.Delay, delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
	}
	return gif.EncodeAll(w, anim)
}

func (g GIF) quantize(src *image.NRGBA) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(b, palette.Plan9)
	if g.Dither {
		draw.FloydSteinberg.Draw(dst, b, src, b.Min)
	} else {
		draw.Draw(dst, b, src, b.Min, draw.Src)
	}
	return dst
}

// GIFDelay converts fps to a per-frame delay in hundredths of a second,
// never below 2 since most viewers clamp smaller values.
func GIFDelay(fps int) int {
	if fps <= 0 {
		return 10
	}
	return max(100/fps, 2)
}
