package loader

import (
	"errors"
	"net/url"
	"path"
	"strings"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
)

// ErrUnsupportedExtension is wrapped by load errors for sources whose
// extension is neither vector nor a known raster format.
var ErrUnsupportedExtension = errors.New("unsupported image extension")

// Kind is how a source is decoded.
type Kind int

const (
	KindRaster Kind = iota
	KindVector
)

func (k Kind) String() string {
	if k == KindVector {
		return "vector"
	}
	return "raster"
}

const svgMediaType = "image/svg+xml"

var rasterExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Classify returns the decode path for src.
func Classify(src string) (Kind, error) {
	if isDataURI(src) {
		mediaType := dataURIMediaType(src)
		switch {
		case mediaType == svgMediaType:
			return KindVector, nil
		case strings.HasPrefix(mediaType, "image/"):
			return KindRaster, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrCodeLoad, ErrUnsupportedExtension, "data URI media type %q", mediaType)
	}

	ext := strings.ToLower(path.Ext(sourcePath(src)))
	switch {
	case ext == ".svg":
		return KindVector, nil
	case rasterExtensions[ext]:
		return KindRaster, nil
	}
	return 0, apperrors.Wrap(apperrors.ErrCodeLoad, ErrUnsupportedExtension, "%s: extension %q", displaySource(src), ext)
}

// sourcePath strips the query string and fragment.
func sourcePath(src string) string {
	if u, err := url.Parse(src); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return u.Path
	}
	// Plain paths (including Windows drive letters) are cut by hand.
	p, _, _ := strings.Cut(src, "?")
	p, _, _ = strings.Cut(p, "#")
	return p
}

// displaySource shortens data URIs for logs and messages.
func displaySource(src string) string {
	const limit = 64
	if isDataURI(src) && len(src) > limit {
		return src[:limit] + "..."
	}
	return src
}
