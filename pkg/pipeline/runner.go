package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/glitchimage/pkg/cache"
	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
	"github.com/matzehuels/glitchimage/pkg/glitch"
	"github.com/matzehuels/glitchimage/pkg/httputil"
	"github.com/matzehuels/glitchimage/pkg/loader"
)

// Runner executes pipeline runs against a shared cache. It holds no per-run
// state, so one Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// SourceTTL bounds how long fetched sources stay cached. Zero means
	// cache.TTLSource.
	SourceTTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// uses the default keyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Loader returns a source loader sharing the runner's cache.
func (r *Runner) Loader(opts Options) *loader.Loader {
	r.applyLogger(&opts)
	return loader.New(loader.Options{
		Client:     httputil.NewClient(opts.Fetch),
		Cache:      r.Cache,
		Keyer:      r.Keyer,
		TTL:        r.SourceTTL,
		Rasterizer: opts.Rasterizer,
		Refresh:    opts.Refresh,
		Logger:     opts.Logger,
	})
}

// Execute runs load → animate → encode.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	img, data, err := r.Loader(opts).LoadBytes(ctx, opts.Source)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.SourceHash = cache.Hash(data)
	result.Stats.LoadTime = time.Since(loadStart)

	b := img.Bounds()
	w, h, err := glitch.ComputeSize(b.Dx(), b.Dy(), opts.AutoFit, opts.Container())
	if err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}
	if err := opts.CheckSurface(w, h); err != nil {
		return nil, err
	}
	result.Width, result.Height = w, h
	r.Logger.Info("loaded source", "size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()), "surface", fmt.Sprintf("%dx%d", w, h), "duration", result.Stats.LoadTime)

	if opts.Deterministic() && !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, result.SourceHash, opts, w, h); ok {
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			r.Logger.Info("artifacts served from cache", "formats", opts.Formats)
			return result, nil
		}
	}

	// Stage 2: Animate
	renderStart := time.Now()
	frames, rerolls, err := r.Animate(ctx, img, opts)
	if err != nil {
		return nil, fmt.Errorf("animate: %w", err)
	}
	result.Frames = frames
	result.Stats.Frames = len(frames)
	result.Stats.Rerolls = rerolls
	result.Stats.RenderTime = time.Since(renderStart)
	r.Logger.Info("rendered frames", "frames", len(frames), "rerolls", rerolls, "duration", result.Stats.RenderTime)

	// Stage 3: Encode
	encodeStart := time.Now()
	for _, format := range opts.Formats {
		enc, err := opts.encoder(format)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := enc.Encode(&buf, frames, opts.FPS); err != nil {
			return nil, fmt.Errorf("encode %s: %w", format, err)
		}
		result.Artifacts[format] = buf.Bytes()

		if opts.Deterministic() {
			key := r.Keyer.ArtifactKey(result.SourceHash, opts.ArtifactKeyOpts(format, w, h))
			if err := r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLArtifact); err != nil {
				r.Logger.Warn("artifact cache write failed", "format", format, "err", err)
			}
		}
	}
	result.Stats.EncodeTime = time.Since(encodeStart)
	r.Logger.Info("encoded outputs", "formats", opts.Formats, "duration", result.Stats.EncodeTime)

	return result, nil
}

// Animate renders opts.Frames frames of img, one every 1000/FPS milliseconds
// starting at tick 0, and returns a snapshot of each with the reroll count.
func (r *Runner) Animate(ctx context.Context, img image.Image, opts Options) ([]*image.NRGBA, int, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, 0, err
	}

	canvas := glitch.NewCanvas(0, 0)
	sched := glitch.NewManualScheduler()
	static := glitch.LoaderFunc(func(context.Context, string) (image.Image, error) { return img, nil })

	rd, err := glitch.New(opts.RendererConfig(canvas, sched, static))
	if err != nil {
		return nil, 0, err
	}
	if err := rd.Initialize(ctx); err != nil {
		return nil, 0, err
	}
	defer rd.Stop()

	step := 1000 / float64(opts.FPS)
	frames := make([]*image.NRGBA, 0, opts.Frames)
	for i := range opts.Frames {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if sched.Step(float64(i)*step) == 0 {
			return nil, 0, apperrors.New(apperrors.ErrCodeInternal, "renderer stopped after %d frames", i)
		}
		frames = append(frames, canvas.Snapshot())
	}
	return frames, rd.Rerolls(), nil
}

func (r *Runner) cachedArtifacts(ctx context.Context, sourceHash string, opts Options, w, h int) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(sourceHash, opts.ArtifactKeyOpts(format, w, h))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			return nil, false
		}
		artifacts[format] = data
	}
	return artifacts, true
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
