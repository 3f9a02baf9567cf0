package loader

import (
	"encoding/base64"
	"net/url"
	"strings"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
)

func isDataURI(src string) bool {
	return len(src) >= 5 && strings.EqualFold(src[:5], "data:")
}

func dataURIMediaType(uri string) string {
	meta, _, _ := strings.Cut(uri[5:], ",")
	mediaType, _, _ := strings.Cut(meta, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// EncodeDataURI returns data:<mediaType>;base64,<data>.
func EncodeDataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI parses a base64 or percent-encoded data URI. A missing
// media type defaults to text/plain.
func DecodeDataURI(uri string) (string, []byte, error) {
	if !isDataURI(uri) {
		return "", nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "not a data URI")
	}
	meta, payload, ok := strings.Cut(uri[5:], ",")
	if !ok {
		return "", nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "data URI has no payload")
	}

	mediaType := dataURIMediaType(uri)
	if mediaType == "" {
		mediaType = "text/plain"
	}

	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		payload = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return "", nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "data URI payload")
		}
		return mediaType, data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "data URI payload")
	}
	return mediaType, []byte(data), nil
}
