// Package cache stores fetched image sources and rendered artifacts as bytes.
//
// Three backends share the [Cache] interface:
//
//   - [FileCache]: zstd-compressed files under a directory, used by the CLI
//   - [RedisCache]: a shared Redis instance, used by the server
//   - [NullCache]: stores nothing, used with --no-cache
//
// Keys come from a [Keyer] so that callers never build key strings by hand.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	// TTLSource applies to fetched image bytes.
	TTLSource = 24 * time.Hour
	// TTLArtifact applies to rendered GIF/PNG/ANSI output.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// SourceKey identifies the raw bytes behind an image source.
	SourceKey(src string) string
	// ArtifactKey identifies a rendered artifact of a source.
	ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change artifact bytes.
type ArtifactKeyOpts struct {
	Format       string  `json:"format"`
	Frames       int     `json:"frames"`
	FPS          int     `json:"fps"`
	Seed         uint64  `json:"seed"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Background   string  `json:"background"`
	DisableNoise bool    `json:"disable_noise"`
	AutoFit      bool    `json:"auto_fit"`
	OffsetScale  float64 `json:"offset_scale"`
	Dither       bool    `json:"dither"`
	Columns      int     `json:"columns"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SourceKey returns "source:<src>".
func (DefaultKeyer) SourceKey(src string) string { return "source:" + src }

// ArtifactKey returns "artifact:<hash of source hash and opts>".
func (DefaultKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sourceHash, opts)
}
