package sink

import (
	"image"
	"image/png"
	"io"
)

// PNG encodes the last frame as a still.
type PNG struct{}

func (PNG) Ext() string         { return ".png" }
func (PNG) ContentType() string { return "image/png" }

func (PNG) Encode(w io.Writer, frames []*image.NRGBA, _ int) error {
	f, err := lastFrame(frames)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, f)
}
