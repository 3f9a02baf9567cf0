// Package server hosts the glitch widget over HTTP.
//
// Routes:
//
//	GET /healthz     liveness and active stream count
//	GET /            demo page embedding a stream for ?src=...
//	GET /render.gif  a finished animation rendered by the pipeline
//	GET /stream      a live multipart MJPEG stream; the renderer stops
//	                 when the client disconnects
//
// Every route takes the widget attributes (src, disabled-noise, auto,
// background, width) as query parameters, plus seed, fps and frames.
// Sources must be http(s) URLs or data URIs; local paths are refused.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/glitchimage/pkg/buildinfo"
	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
	"github.com/matzehuels/glitchimage/pkg/httputil"
	"github.com/matzehuels/glitchimage/pkg/pipeline"
	"github.com/matzehuels/glitchimage/pkg/widget"
)

// Config configures a Server.
type Config struct {
	Addr string
	// MaxStreams bounds concurrent /stream clients. Zero means 16.
	MaxStreams int
	// FPS is the default stream and render frame rate.
	FPS int
	// Quality is the JPEG quality of stream frames.
	Quality int
	// MaxSurfacePixels caps the sized surface of every request. Zero means
	// DefaultMaxSurfacePixels.
	MaxSurfacePixels int
	// MaxRenderPixels caps width×height×frames of a /render.gif request.
	// Zero means DefaultMaxRenderPixels.
	MaxRenderPixels int64
	// Fetch configures source downloads for every request.
	Fetch  httputil.Options
	Logger *log.Logger
}

// Request size caps. A 2048×2048 surface is 16 MiB per NRGBA frame.
const (
	DefaultMaxSurfacePixels       = 2048 * 2048
	DefaultMaxRenderPixels  int64 = 64 << 20
)

// Server serves widget renders.
type Server struct {
	runner  *pipeline.Runner
	cfg     Config
	logger  *log.Logger
	slots   chan struct{}
	streams atomic.Int32
}

// New creates a server rendering through runner.
func New(runner *pipeline.Runner, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxStreams <= 0 {
		cfg.MaxStreams = 16
	}
	if cfg.FPS <= 0 {
		cfg.FPS = pipeline.DefaultFPS
	}
	if cfg.MaxSurfacePixels <= 0 {
		cfg.MaxSurfacePixels = DefaultMaxSurfacePixels
	}
	if cfg.MaxRenderPixels <= 0 {
		cfg.MaxRenderPixels = DefaultMaxRenderPixels
	}
	if cfg.Logger == nil {
		cfg.Logger = runner.Logger
	}
	return &Server{
		runner: runner,
		cfg:    cfg,
		logger: cfg.Logger,
		slots:  make(chan struct{}, cfg.MaxStreams),
	}
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/render.gif", s.handleRender)
	r.Get("/stream", s.handleStream)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"streams": s.streams.Load(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	el, err := widget.FromQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var body strings.Builder
	body.WriteString("<!doctype html><html><head><title>glitchimage</title></head><body style=\"margin:0;background:#1a191c\">")
	if el.Src != "" {
		body.WriteString(el.StreamTag("/stream"))
	} else {
		body.WriteString("<p style=\"color:#eee;font-family:monospace\">add ?src=&lt;image url&gt;</p>")
	}
	body.WriteString("</body></html>")
	w.Write([]byte(body.String()))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{"gif"}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.logger.Warn("render failed", "src", opts.Source, "err", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.RenderHit))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Artifacts["gif"])))
	w.Write(res.Artifacts["gif"])
}

// parseOptions reads widget attributes and render knobs from the query.
func (s *Server) parseOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	el, err := widget.FromQuery(q)
	if err != nil {
		return pipeline.Options{}, err
	}
	if !strings.HasPrefix(el.Src, "data:") {
		if err := apperrors.ValidateURL(el.Src); err != nil {
			return pipeline.Options{}, err
		}
	}

	opts := el.Options()
	opts.FPS = s.cfg.FPS
	opts.Fetch = s.cfg.Fetch
	opts.MaxSurfacePixels = s.cfg.MaxSurfacePixels
	opts.MaxRenderPixels = s.cfg.MaxRenderPixels
	if opts.Seed, err = uintParam(q.Get("seed")); err != nil {
		return pipeline.Options{}, err
	}
	if v := q.Get("fps"); v != "" {
		if opts.FPS, err = strconv.Atoi(v); err != nil {
			return pipeline.Options{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "fps %q", v)
		}
	}
	if v := q.Get("frames"); v != "" {
		if opts.Frames, err = strconv.Atoi(v); err != nil {
			return pipeline.Options{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "frames %q", v)
		}
	}
	return opts, nil
}

func uintParam(v string) (uint64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "seed %q", v)
	}
	return n, nil
}

func cacheHeader(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperrors.HTTPStatus(err), map[string]string{
		"error": apperrors.UserMessage(err),
		"code":  string(apperrors.GetCode(err)),
	})
}
