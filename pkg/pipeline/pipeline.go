// Package pipeline renders glitch animations offline.
//
// A run has three stages:
//
//  1. Load: fetch and decode the image source (cached by source URL)
//  2. Animate: drive a [glitch.Renderer] with a manual scheduler for a fixed
//     number of frames at a fixed frame rate, snapshotting each frame
//  3. Encode: write the frames as GIF, PNG or ANSI artifacts
//
// Seeded runs are deterministic, so their artifacts are cached by source
// hash and options. Unseeded runs always render.
//
// Usage:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "https://example.com/logo.svg",
//	    Frames:  90,
//	    Formats: []string{"gif"},
//	    Seed:    7,
//	})
//	gif := result.Artifacts["gif"]
package pipeline

import (
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/glitchimage/pkg/cache"
	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
	"github.com/matzehuels/glitchimage/pkg/glitch"
	"github.com/matzehuels/glitchimage/pkg/httputil"
	"github.com/matzehuels/glitchimage/pkg/loader"
	"github.com/matzehuels/glitchimage/pkg/sink"
)

// Defaults shared by the CLI and the server.
const (
	DefaultFrames = 60
	DefaultFPS    = 30
)

// Options configure one pipeline run.
type Options struct {
	Source         string  `json:"src"`
	DisableNoise   bool    `json:"disable_noise,omitempty"`
	AutoFit        bool    `json:"auto,omitempty"`
	ContainerWidth int     `json:"width,omitempty"`
	Background     string  `json:"background,omitempty"`
	Frames         int     `json:"frames,omitempty"`
	FPS            int     `json:"fps,omitempty"`
	Seed           uint64  `json:"seed,omitempty"`
	OffsetScale    float64 `json:"offset_scale,omitempty"`

	Formats []string `json:"formats,omitempty"`
	// Columns scales ANSI output; zero keeps one cell per pixel.
	Columns int  `json:"columns,omitempty"`
	Dither  bool `json:"dither,omitempty"`
	Refresh bool `json:"refresh,omitempty"`

	// MaxSurfacePixels caps width×height of the sized surface.
	MaxSurfacePixels int `json:"-"`
	// MaxRenderPixels caps width×height×frames held in memory by a run.
	// Zero disables either cap.
	MaxRenderPixels int64 `json:"-"`

	Fetch      httputil.Options  `json:"-"`
	Rasterizer loader.Rasterizer `json:"-"`
	Logger     *log.Logger       `json:"-"`

	validated bool
}

// Result is the output of a run.
type Result struct {
	// SourceHash is the SHA-256 of the fetched source bytes.
	SourceHash string
	Width      int
	Height     int
	// Frames holds the rendered frames; empty when artifacts came from cache.
	Frames    []*image.NRGBA
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timings and counters of a run.
type Stats struct {
	Frames     int
	Rerolls    int
	LoadTime   time.Duration
	RenderTime time.Duration
	EncodeTime time.Duration
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	RenderHit bool
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := apperrors.ValidateSource(o.Source); err != nil {
		return err
	}
	if o.Frames == 0 {
		o.Frames = DefaultFrames
	}
	if o.FPS == 0 {
		o.FPS = DefaultFPS
	}
	if err := apperrors.ValidateFrames(o.Frames); err != nil {
		return err
	}
	if err := apperrors.ValidateFPS(o.FPS); err != nil {
		return err
	}
	if o.ContainerWidth != 0 {
		if err := apperrors.ValidateContainerWidth(o.ContainerWidth); err != nil {
			return err
		}
	}
	if _, err := glitch.ParseColor(o.Background); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{sink.FormatGIF}
	}
	for _, f := range o.Formats {
		if _, err := sink.ForFormat(f); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// CheckSurface enforces the pixel caps for a w×h surface.
func (o *Options) CheckSurface(w, h int) error {
	if err := apperrors.ValidateSurface(w, h, o.MaxSurfacePixels); err != nil {
		return err
	}
	return apperrors.ValidateRenderBudget(w, h, o.Frames, o.MaxRenderPixels)
}

// Deterministic reports whether the run is reproducible and therefore cacheable.
func (o *Options) Deterministic() bool { return o.Seed != 0 }

// Container returns the container the renderer fits to when AutoFit is set.
func (o *Options) Container() glitch.Container { return glitch.FixedWidth(o.ContainerWidth) }

// RendererConfig builds the glitch configuration for these options.
func (o *Options) RendererConfig(surface glitch.Surface, sched glitch.Scheduler, l glitch.Loader) glitch.Config {
	return glitch.Config{
		Surface:      surface,
		Source:       o.Source,
		DisableNoise: o.DisableNoise,
		AutoFit:      o.AutoFit,
		Background:   o.Background,
		Container:    o.Container(),
		Loader:       l,
		Scheduler:    sched,
		Random:       glitch.NewSource(o.Seed),
		OffsetScale:  o.OffsetScale,
		Logger:       o.Logger,
	}
}

// ArtifactKeyOpts returns the cache key options for format at the given size.
func (o *Options) ArtifactKeyOpts(format string, width, height int) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:       format,
		Frames:       o.Frames,
		FPS:          o.FPS,
		Seed:         o.Seed,
		Width:        width,
		Height:       height,
		Background:   o.Background,
		DisableNoise: o.DisableNoise,
		AutoFit:      o.AutoFit,
		OffsetScale:  o.OffsetScale,
		Dither:       o.Dither,
		Columns:      o.Columns,
	}
}

func (o *Options) encoder(format string) (sink.Encoder, error) {
	enc, err := sink.ForFormat(format)
	if err != nil {
		return nil, err
	}
	switch e := enc.(type) {
	case sink.GIF:
		e.Dither = o.Dither
		return e, nil
	case sink.ANSI:
		e.Columns = o.Columns
		return e, nil
	}
	return enc, nil
}
