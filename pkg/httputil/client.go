package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/glitchimage/pkg/buildinfo"
	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
	"github.com/matzehuels/glitchimage/pkg/observability"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
	// MaxBodySize caps downloaded image bytes.
	MaxBodySize = 64 << 20
)

// Options configure a Client. The zero value makes one attempt with
// DefaultTimeout.
type Options struct {
	Timeout time.Duration
	// Retries is the number of additional attempts after a retryable failure.
	Retries    int
	RetryDelay time.Duration
	Headers    map[string]string
}

// Response is a fetched body.
type Response struct {
	Body        []byte
	ContentType string
}

// Client fetches URLs.
type Client struct {
	http    *http.Client
	opts    Options
	headers map[string]string
}

// NewClient builds a client from opts.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	headers := map[string]string{
		"User-Agent": buildinfo.UserAgent(),
		"Accept":     "image/*,*/*;q=0.8",
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		headers: headers,
	}
}

// Fetch GETs url and returns the body.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	var resp *Response
	err := Retry(ctx, c.opts.Retries+1, c.opts.RetryDelay, func() error {
		r, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		var re *RetryableError
		if errors.As(err, &re) {
			err = re.Err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Wrap(apperrors.ErrCodeTimeout, err, "fetch %s", url)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) doRequest(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "bad url %q", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(apperrors.Wrap(apperrors.ErrCodeNetwork, err, "fetch %s", url))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(url, resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, Retryable(apperrors.Wrap(apperrors.ErrCodeNetwork, err, "read %s", url))
	}
	if len(body) > MaxBodySize {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "%s exceeds %d bytes", url, MaxBodySize)
	}
	return &Response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

func checkStatus(url string, code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return apperrors.New(apperrors.ErrCodeNotFound, "%s: status %d", url, code)
	case code == http.StatusTooManyRequests:
		return Retryable(apperrors.New(apperrors.ErrCodeRateLimited, "%s: status %d", url, code))
	case code >= 500:
		return Retryable(apperrors.New(apperrors.ErrCodeNetwork, "%s: status %d", url, code))
	default:
		return apperrors.New(apperrors.ErrCodeNetwork, "%s: status %d", url, code)
	}
}
