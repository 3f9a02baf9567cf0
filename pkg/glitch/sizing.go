package glitch

import (
	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
)

// Container reports the logical width of the element the surface is fitted to.
type Container interface {
	// ClientWidth returns the container width and whether one is available.
	ClientWidth() (int, bool)
}

// FixedWidth is a Container with a constant width. Non-positive values
// report no container.
type FixedWidth int

// ClientWidth implements Container.
func (w FixedWidth) ClientWidth() (int, bool) { return int(w), w > 0 }

// ContainerFunc adapts a function to a Container.
type ContainerFunc func() (int, bool)

// ClientWidth implements Container.
func (f ContainerFunc) ClientWidth() (int, bool) { return f() }

// ComputeSize returns the surface dimensions for an image of imgW×imgH.
//
// With autoFit the surface takes the container width and a height that keeps
// the image aspect ratio, truncated to whole pixels. Without it the surface
// matches the image exactly and the container is ignored.
func ComputeSize(imgW, imgH int, autoFit bool, c Container) (int, int, error) {
	if imgW <= 0 || imgH <= 0 {
		return 0, 0, apperrors.New(apperrors.ErrCodeConfiguration, "image has no area (%dx%d)", imgW, imgH)
	}
	if !autoFit {
		return imgW, imgH, nil
	}
	if c == nil {
		return 0, 0, apperrors.New(apperrors.ErrCodeConfiguration, "auto-fit requires a container")
	}
	cw, ok := c.ClientWidth()
	if !ok {
		return 0, 0, apperrors.New(apperrors.ErrCodeConfiguration, "auto-fit container has no width")
	}
	return cw, int(float64(cw) * (float64(imgH) / float64(imgW))), nil
}
