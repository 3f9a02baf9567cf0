package loader

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/glitchimage/pkg/cache"
	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
	"github.com/matzehuels/glitchimage/pkg/httputil"
	"github.com/matzehuels/glitchimage/pkg/observability"
)

// Options configure a Loader. Nil fields get working defaults.
type Options struct {
	Client     *httputil.Client
	Cache      cache.Cache
	Keyer      cache.Keyer
	TTL        time.Duration
	Rasterizer Rasterizer
	// Refresh skips cache reads but still writes.
	Refresh bool
	Logger  *log.Logger
}

// Loader fetches and decodes image sources.
type Loader struct {
	client     *httputil.Client
	cache      cache.Cache
	keyer      cache.Keyer
	ttl        time.Duration
	rasterizer Rasterizer
	refresh    bool
	logger     *log.Logger
}

// New creates a Loader.
func New(opts Options) *Loader {
	if opts.Client == nil {
		opts.Client = httputil.NewClient(httputil.Options{})
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL == 0 {
		opts.TTL = cache.TTLSource
	}
	if opts.Rasterizer == nil {
		opts.Rasterizer = RSVG{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Loader{
		client:     opts.Client,
		cache:      opts.Cache,
		keyer:      opts.Keyer,
		ttl:        opts.TTL,
		rasterizer: opts.Rasterizer,
		refresh:    opts.Refresh,
		logger:     opts.Logger,
	}
}

// Load fetches and decodes src. Every failure carries LOAD_ERROR.
func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	img, _, err := l.LoadBytes(ctx, src)
	return img, err
}

// LoadBytes is Load that also returns the fetched source bytes.
func (l *Loader) LoadBytes(ctx context.Context, src string) (img image.Image, data []byte, err error) {
	start := time.Now()
	kind := "unknown"
	hooks := observability.Load()
	hooks.OnLoadStart(ctx, src)
	defer func() {
		if err != nil && apperrors.GetCode(err) != apperrors.ErrCodeLoad {
			err = apperrors.Wrap(apperrors.ErrCodeLoad, err, "load %s", displaySource(src))
		}
		hooks.OnLoadComplete(ctx, src, kind, time.Since(start), err)
	}()

	k, err := Classify(src)
	if err != nil {
		return nil, nil, err
	}
	kind = k.String()

	data, err = l.Fetch(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	img, err = l.Decode(ctx, k, data)
	if err != nil {
		return nil, nil, err
	}
	l.logger.Debug("source decoded", "src", displaySource(src), "kind", kind, "size", img.Bounds().Size(), "duration", time.Since(start))
	return img, data, nil
}

// Fetch returns the raw bytes behind src.
func (l *Loader) Fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case isDataURI(src):
		_, data, err := DecodeDataURI(src)
		return data, err
	case hasScheme(src, "http"), hasScheme(src, "https"):
		return l.fetchRemote(ctx, src)
	case hasScheme(src, "file"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "bad file url")
		}
		return readFile(u.Path)
	}
	return readFile(sourcePath(src))
}

func (l *Loader) fetchRemote(ctx context.Context, src string) ([]byte, error) {
	key := l.keyer.SourceKey(src)
	hooks := observability.Cache()

	if !l.refresh {
		if data, ok, err := l.cache.Get(ctx, key); err == nil && ok {
			hooks.OnCacheHit(ctx, "source")
			l.logger.Debug("source cache hit", "src", src)
			return data, nil
		}
		hooks.OnCacheMiss(ctx, "source")
	}

	resp, err := l.client.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := l.cache.Set(ctx, key, resp.Body, l.ttl); err != nil {
		l.logger.Warn("source cache write failed", "src", src, "err", err)
	} else {
		hooks.OnCacheSet(ctx, "source", len(resp.Body))
	}
	return resp.Body, nil
}

// Decode turns fetched bytes into an image along the path for kind.
func (l *Loader) Decode(ctx context.Context, kind Kind, data []byte) (image.Image, error) {
	if kind == KindVector {
		return l.decodeSVG(ctx, data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode image")
	}
	return img, nil
}

func (l *Loader) decodeSVG(ctx context.Context, data []byte) (image.Image, error) {
	markup, err := SerializeSVG(data)
	if err != nil {
		return nil, err
	}
	// Rasterizers read raw markup; rsvg-convert takes it on stdin.
	img, err := l.rasterizer.Rasterize(ctx, markup)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "%s", path)
	}
	return data, err
}

func hasScheme(src, scheme string) bool {
	return len(src) > len(scheme)+3 && strings.EqualFold(src[:len(scheme)+3], scheme+"://")
}
