package server

import (
	"context"
	"image"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
	"github.com/matzehuels/glitchimage/pkg/glitch"
	"github.com/matzehuels/glitchimage/pkg/sink"
)

// handleStream plays the glitch animation as multipart MJPEG. A frames
// parameter ends the stream after that many frames; otherwise it runs until
// the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit := opts.Frames
	opts.Frames = 1
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}

	if !s.acquire() {
		writeError(w, apperrors.New(apperrors.ErrCodeRateLimited, "too many concurrent streams (max %d)", s.cfg.MaxStreams))
		return
	}
	defer s.release()

	id := uuid.NewString()
	logger := s.logger.With("stream", id)
	ctx := r.Context()

	img, err := s.runner.Loader(opts).Load(ctx, opts.Source)
	if err != nil {
		logger.Warn("stream load failed", "src", opts.Source, "err", err)
		writeError(w, err)
		return
	}
	b := img.Bounds()
	sw, sh, err := glitch.ComputeSize(b.Dx(), b.Dy(), opts.AutoFit, opts.Container())
	if err == nil {
		err = opts.CheckSurface(sw, sh)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	sched := glitch.NewTickerScheduler(opts.FPS)
	defer sched.Close()

	canvas := glitch.NewCanvas(0, 0)
	static := glitch.LoaderFunc(func(context.Context, string) (image.Image, error) { return img, nil })
	cfg := opts.RendererConfig(canvas, sched, static)
	cfg.Logger = logger
	rd, err := glitch.New(cfg)
	if err == nil {
		err = rd.Initialize(ctx)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	defer rd.Stop()

	frames := make(chan *image.NRGBA, 1)
	capture(sched, canvas, frames)

	mj := sink.NewMJPEG(w, s.cfg.Quality)
	w.Header().Set("Content-Type", mj.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Stream-ID", id)
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	s.streams.Add(1)
	defer s.streams.Add(-1)
	start := time.Now()
	logger.Info("stream started", "src", opts.Source, "fps", opts.FPS)

	sent := 0
	for limit == 0 || sent < limit {
		select {
		case <-ctx.Done():
			logger.Info("stream closed by client", "frames", sent, "duration", time.Since(start))
			return
		case f := <-frames:
			if err := mj.WriteFrame(f); err != nil {
				logger.Debug("stream write failed", "err", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			sent++
		}
	}
	mj.Close()
	logger.Info("stream finished", "frames", sent, "duration", time.Since(start))
}

// capture snapshots the canvas after every rendered frame. It is requested
// after the renderer on the same scheduler, so it always runs second. Frames
// the client is too slow for are dropped.
func capture(sched glitch.Scheduler, canvas *glitch.Canvas, out chan<- *image.NRGBA) {
	var fn glitch.FrameFunc
	fn = func(float64) {
		select {
		case out <- canvas.Snapshot():
		default:
		}
		sched.RequestFrame(fn)
	}
	sched.RequestFrame(fn)
}

func (s *Server) acquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Server) release() { <-s.slots }
