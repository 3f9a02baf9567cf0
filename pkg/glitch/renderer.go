package glitch

import (
	"context"
	"image"
	"image/color"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
	"github.com/matzehuels/glitchimage/pkg/observability"
)

// Loader fetches and decodes an image source. It is called exactly once per
// renderer.
type Loader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// LoaderFunc adapts a function to a Loader.
type LoaderFunc func(ctx context.Context, src string) (image.Image, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, src string) (image.Image, error) { return f(ctx, src) }

// Status is the lifecycle state of a Renderer.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusRunning
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	}
	return "unknown"
}

// Config is accepted at construction. Surface, Source, Loader and Scheduler
// are required.
type Config struct {
	Surface      Surface
	Source       string
	DisableNoise bool
	AutoFit      bool
	// Background is a hex color; empty means DefaultBackground.
	Background string
	// Container is consulted on every frame when AutoFit is set.
	Container Container

	Loader    Loader
	Scheduler Scheduler
	// Random defaults to a clock-seeded NewSource.
	Random Source
	// OffsetScale multiplies the origin's X before it becomes the image
	// channel offset. Zero means 1.
	OffsetScale float64
	// Period defaults to DefaultPeriod.
	Period float64
	Logger *log.Logger
}

// RenderConfig is the immutable rendering configuration derived from Config.
type RenderConfig struct {
	ImageSource  string
	NoiseEnabled bool
	AutoFit      bool
	Background   color.NRGBA
	OffsetScale  float64
	Period       float64
}

// Renderer animates the glitch effect for one image on one surface.
// All methods are safe for concurrent use; frames are rendered one at a time.
type Renderer struct {
	cfg       RenderConfig
	surface   Surface
	container Container
	loader    Loader
	scheduler Scheduler
	random    Source
	logger    *log.Logger

	mu      sync.Mutex
	status  Status
	img     image.Image
	state   *State
	frameID FrameID
	frames  int
}

// New validates cfg and returns an idle renderer.
func New(cfg Config) (*Renderer, error) {
	if cfg.Surface == nil {
		return nil, apperrors.New(apperrors.ErrCodeConfiguration, "surface is required")
	}
	if cfg.Loader == nil {
		return nil, apperrors.New(apperrors.ErrCodeConfiguration, "loader is required")
	}
	if cfg.Scheduler == nil {
		return nil, apperrors.New(apperrors.ErrCodeConfiguration, "scheduler is required")
	}
	if err := apperrors.ValidateSource(cfg.Source); err != nil {
		return nil, err
	}
	bg, err := ParseColor(cfg.Background)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfiguration, err, "invalid background")
	}
	if cfg.Random == nil {
		cfg.Random = NewSource(0)
	}
	if cfg.OffsetScale == 0 {
		cfg.OffsetScale = 1
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return &Renderer{
		cfg: RenderConfig{
			ImageSource:  cfg.Source,
			NoiseEnabled: !cfg.DisableNoise,
			AutoFit:      cfg.AutoFit,
			Background:   bg,
			OffsetScale:  cfg.OffsetScale,
			Period:       cfg.Period,
		},
		surface:   cfg.Surface,
		container: cfg.Container,
		loader:    cfg.Loader,
		scheduler: cfg.Scheduler,
		random:    cfg.Random,
		logger:    cfg.Logger,
		state:     NewState(cfg.Period, cfg.Random),
	}, nil
}

// Config returns the immutable render configuration.
func (r *Renderer) Config() RenderConfig { return r.cfg }

// Status returns the current lifecycle state.
func (r *Renderer) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Origin returns the current glitch origin.
func (r *Renderer) Origin() Origin {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Origin()
}

// Frames returns the number of frames rendered so far.
func (r *Renderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Rerolls returns how many times the origin was re-rolled by the period policy.
func (r *Renderer) Rerolls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Rerolls()
}

// Initialize loads the image, sizes the surface and schedules the first
// frame. It returns once the first frame is scheduled. Load and sizing
// failures are terminal: the renderer moves to Stopped and the error carries
// LOAD_ERROR or CONFIGURATION_ERROR.
func (r *Renderer) Initialize(ctx context.Context) error {
	r.mu.Lock()
	if r.status != StatusIdle {
		st := r.status
		r.mu.Unlock()
		return apperrors.New(apperrors.ErrCodeInvalidState, "initialize called while %s", st)
	}
	r.setStatus(StatusLoading)
	r.mu.Unlock()

	img, err := r.loader.Load(ctx, r.cfg.ImageSource)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusStopped {
		return apperrors.New(apperrors.ErrCodeInvalidState, "renderer stopped while loading")
	}
	if err != nil {
		r.setStatus(StatusStopped)
		if apperrors.GetCode(err) == apperrors.ErrCodeLoad {
			return err
		}
		return apperrors.Wrap(apperrors.ErrCodeLoad, err, "load %s", r.cfg.ImageSource)
	}
	if img == nil {
		r.setStatus(StatusStopped)
		return apperrors.New(apperrors.ErrCodeLoad, "loader returned no image for %s", r.cfg.ImageSource)
	}

	b := img.Bounds()
	w, h, err := ComputeSize(b.Dx(), b.Dy(), r.cfg.AutoFit, r.container)
	if err != nil {
		r.setStatus(StatusStopped)
		return err
	}
	r.img = img
	r.surface.Resize(w, h)
	r.logger.Debug("image loaded", "src", r.cfg.ImageSource, "image", b.Size(), "surface", image.Pt(w, h))

	r.setStatus(StatusRunning)
	r.frameID = r.scheduler.RequestFrame(r.tick)
	return nil
}

// Stop deregisters the pending frame and moves the renderer to Stopped.
// It is idempotent. Stopping while Initialize is loading makes Initialize
// return INVALID_STATE once the load finishes.
func (r *Renderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusStopped {
		return
	}
	if r.status == StatusRunning {
		r.scheduler.CancelFrame(r.frameID)
	}
	r.setStatus(StatusStopped)
}

// tick renders one frame and schedules the next one.
func (r *Renderer) tick(elapsed float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusRunning {
		return
	}
	r.renderFrame(elapsed)
	r.frameID = r.scheduler.RequestFrame(r.tick)
}

// RenderFrame renders a single frame at tick t without scheduling another.
// It fails with INVALID_STATE before the image has been loaded.
func (r *Renderer) RenderFrame(t float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.img == nil {
		return apperrors.New(apperrors.ErrCodeInvalidState, "render called before the image was loaded")
	}
	r.renderFrame(t)
	return nil
}

func (r *Renderer) renderFrame(t float64) {
	start := time.Now()

	w, h := r.resolveSize()
	r.surface.Fill(r.cfg.Background)

	rerolled := r.state.Advance(t, r.random)
	if rerolled {
		r.logger.Debug("glitch origin rerolled", "tick", t, "origin", r.state.Origin())
	}

	r.surface.DrawImage(r.img, 0, 0, w, h)
	base := r.surface.ReadPixels(0, 0, w, h)
	base.Data = ShiftChannels(base.Data, r.state.ImageOffsets(r.cfg.OffsetScale))
	r.surface.WritePixels(base, 0, 0)

	if r.cfg.NoiseEnabled {
		r.drawNoise(w, h)
	}
	r.drawBars(w, h)

	r.state.Commit(t)
	r.frames++
	observability.Frame().OnFrame(t, rerolled, time.Since(start))
}

// resolveSize recomputes the surface size. When the container disappears
// mid-animation the previous size is kept; rendering never fails.
func (r *Renderer) resolveSize() (int, int) {
	b := r.img.Bounds()
	w, h, err := ComputeSize(b.Dx(), b.Dy(), r.cfg.AutoFit, r.container)
	if err != nil {
		r.logger.Debug("keeping surface size", "err", err)
		return r.surface.Width(), r.surface.Height()
	}
	r.surface.Resize(w, h)
	return w, h
}

// drawNoise draws floor(random * h/10) bursts at uniformly random positions.
func (r *Renderer) drawNoise(w, h int) {
	count := NoiseCount(h, r.random)
	for range count {
		x := float64(w) * r.random.Float64()
		y := float64(h) * r.random.Float64()
		strip := NoiseStrip(w, r.random)
		r.surface.WritePixels(strip, int(x), int(y))
	}
}

// drawBars shifts floor(random * h) one-pixel rows spaced Origin.Y apart.
// With Y == 0 every bar hits row 0 and the shift accumulates.
func (r *Renderer) drawBars(w, h int) {
	count := intn(r.random, float64(h))
	origin := r.state.Origin()
	x := int(origin.X)
	for i := range count {
		y := i * origin.Y
		if y >= h {
			// Reads beyond the surface are transparent and their writes are
			// dropped, so the remaining bars are no-ops.
			break
		}
		row := r.surface.ReadPixels(x, y, w, 1)
		row.Data = ShiftChannels(row.Data, BarOffsets)
		r.surface.WritePixels(row, x, y)
	}
}

// NoiseCount returns floor(random * h/10), the number of noise bursts in a frame.
func NoiseCount(h int, src Source) int {
	return intn(src, float64(h)/10)
}

// NoiseStrip returns a one-pixel-tall strip of random opaque pixels whose
// width is ceil(random * floor(w/15)), at least 1.
func NoiseStrip(w int, src Source) Pixels {
	width := int(math.Ceil(src.Float64() * math.Floor(float64(w)/15)))
	strip := NewPixels(max(width, 1), 1)
	FillNoise(strip.Data, src)
	return strip
}

// setStatus must be called with r.mu held.
func (r *Renderer) setStatus(s Status) {
	if r.status == s {
		return
	}
	r.logger.Debug("renderer state", "from", r.status, "to", s)
	observability.Frame().OnStateChange(r.status.String(), s.String())
	r.status = s
}
