package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxSourceLength bounds image sources. Data URIs can be large, so the limit
// is generous; it exists to reject accidental binary input.
const maxSourceLength = 8 << 20

// ValidateSource validates an image source for safety and correctness.
// A source may be an http(s) URL, a file:// URL, a data: URI or a local path.
//
// The validation rules are intentionally conservative:
//   - No empty sources
//   - No control characters or null bytes
//   - Bounded length
//
// Extension classification is done by the loader, not here.
func ValidateSource(src string) error {
	if strings.TrimSpace(src) == "" {
		return New(ErrCodeInvalidInput, "image source cannot be empty")
	}

	if len(src) > maxSourceLength {
		return New(ErrCodeInvalidInput, "image source too long (max %d bytes)", maxSourceLength)
	}

	for _, r := range src {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "image source contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// hexColorRegex matches #RGB, #RGBA, #RRGGBB and #RRGGBBAA (leading # optional).
var hexColorRegex = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidateColor validates a background color string.
// Only hex notation is accepted; named CSS colors are not.
func ValidateColor(c string) error {
	if !hexColorRegex.MatchString(c) {
		return New(ErrCodeInvalidColor, "invalid color %q (want #RGB, #RGBA, #RRGGBB or #RRGGBBAA)", c)
	}
	return nil
}

// ValidateFPS validates a frame rate for the ticker scheduler.
func ValidateFPS(fps int) error {
	if fps < 1 || fps > 240 {
		return New(ErrCodeConfiguration, "fps must be between 1 and 240, got %d", fps)
	}
	return nil
}

// ValidateFrames validates the number of frames rendered for an offline artifact.
func ValidateFrames(n int) error {
	if n < 1 || n > 1000 {
		return New(ErrCodeConfiguration, "frames must be between 1 and 1000, got %d", n)
	}
	return nil
}

// ValidateContainerWidth validates the container width used by auto-fit sizing.
func ValidateContainerWidth(w int) error {
	if w < 1 || w > 8192 {
		return New(ErrCodeConfiguration, "container width must be between 1 and 8192, got %d", w)
	}
	return nil
}

// ValidateSurface validates a surface size against a pixel cap. A cap of
// zero or less disables the check.
func ValidateSurface(w, h, maxPixels int) error {
	if maxPixels <= 0 {
		return nil
	}
	if px := int64(w) * int64(h); px > int64(maxPixels) {
		return New(ErrCodeInvalidInput, "surface %dx%d exceeds %d pixels", w, h, maxPixels)
	}
	return nil
}

// ValidateRenderBudget validates the pixels held by frames snapshots of a
// w×h surface. A budget of zero or less disables the check.
func ValidateRenderBudget(w, h, frames int, maxPixels int64) error {
	if maxPixels <= 0 {
		return nil
	}
	if px := int64(w) * int64(h) * int64(frames); px > maxPixels {
		return New(ErrCodeInvalidInput, "%d frames of %dx%d exceed the render budget of %d pixels", frames, w, h, maxPixels)
	}
	return nil
}
