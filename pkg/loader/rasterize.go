package loader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
)

// Rasterizer renders SVG markup to pixels.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg []byte) (image.Image, error)
}

// RasterizerFunc adapts a function to a Rasterizer.
type RasterizerFunc func(ctx context.Context, svg []byte) (image.Image, error)

// Rasterize implements Rasterizer.
func (f RasterizerFunc) Rasterize(ctx context.Context, svg []byte) (image.Image, error) {
	return f(ctx, svg)
}

// RSVG shells out to rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
type RSVG struct {
	// Binary defaults to "rsvg-convert".
	Binary string
	// Zoom defaults to 1.
	Zoom float64
}

func (r RSVG) Rasterize(ctx context.Context, svg []byte) (image.Image, error) {
	bin := r.Binary
	if bin == "" {
		bin = "rsvg-convert"
	}
	zoom := r.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnsupported, err,
			"svg sources require librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}

	cmd := exec.CommandContext(ctx, bin, "-f", "png", "-z", fmt.Sprintf("%.2f", zoom))
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	return png.Decode(&out)
}
