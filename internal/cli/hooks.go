package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/glitchimage/pkg/observability"
)

// debugHooks logs observability events at debug level. Frame events are
// too frequent to log one by one; only rerolls are reported.
type debugHooks struct {
	logger *log.Logger
}

func (h debugHooks) OnLoadStart(_ context.Context, src string) {
	h.logger.Debug("load start", "src", displayName(src))
}

func (h debugHooks) OnLoadComplete(_ context.Context, src, kind string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "src", displayName(src), "duration", d, "err", err)
		return
	}
	h.logger.Debug("load complete", "src", displayName(src), "kind", kind, "duration", d)
}

func (h debugHooks) OnFrame(tick float64, rerolled bool, _ time.Duration) {
	if rerolled {
		h.logger.Debug("glitch origin rerolled", "tick", tick)
	}
}

func (h debugHooks) OnStateChange(from, to string) {
	h.logger.Debug("renderer state", "from", from, "to", to)
}

func (h debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h debugHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h debugHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h debugHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

// installDebugHooks routes every observability event to the logger.
func (c *CLI) installDebugHooks() {
	h := debugHooks{logger: c.Logger}
	observability.SetLoadHooks(h)
	observability.SetFrameHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}
