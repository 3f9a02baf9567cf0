package sink

import (
	"image"
	"io"
	"sort"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
)

// Format names.
const (
	FormatGIF  = "gif"
	FormatPNG  = "png"
	FormatANSI = "ansi"
)

// Encoder writes a finished frame sequence.
type Encoder interface {
	// Encode writes frames captured at fps to w.
	Encode(w io.Writer, frames []*image.NRGBA, fps int) error
	// Ext is the file extension including the dot.
	Ext() string
	// ContentType is the MIME type of the output.
	ContentType() string
}

var encoders = map[string]func() Encoder{
	FormatGIF:  func() Encoder { return GIF{} },
	FormatPNG:  func() Encoder { return PNG{} },
	FormatANSI: func() Encoder { return ANSI{} },
}

// ForFormat returns the encoder registered for name.
func ForFormat(name string) (Encoder, error) {
	fn, ok := encoders[name]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "unknown output format %q (valid: %v)", name, Formats())
	}
	return fn(), nil
}

// Formats lists the registered format names.
func Formats() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lastFrame(frames []*image.NRGBA) (*image.NRGBA, error) {
	if len(frames) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "no frames to encode")
	}
	return frames[len(frames)-1], nil
}
