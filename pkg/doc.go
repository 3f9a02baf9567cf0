// Package pkg provides the core libraries for glitchimage.
//
// # Overview
//
// Glitchimage animates an image with an RGB-split glitch: the red, green and
// blue channels are shifted apart, random noise bursts flicker across the
// surface, and thin scan-line bars are redrawn with shifted channels. The
// effect mirrors the glitch-image web widget and runs wherever a frame
// clock and a pixel surface exist: offline, in a terminal or over HTTP.
//
// # Architecture
//
// The typical data flow:
//
//	Image source (URL, path, data URI)
//	         ↓
//	    [loader] package (fetch, classify, decode, rasterize SVG)
//	         ↓
//	    [glitch] package (renderer state machine, one frame per tick)
//	         ↓
//	    [sink] package (GIF, PNG, ANSI, MJPEG)
//
// # Quick Start
//
// Render a seeded animation to GIF:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "https://example.com/logo.png",
//	    Frames:  60,
//	    Seed:    7,
//	    Formats: []string{"gif"},
//	})
//	os.WriteFile("logo.gif", result.Artifacts["gif"], 0o644)
//
// Drive a renderer directly:
//
//	canvas := glitch.NewCanvas(0, 0)
//	sched := glitch.NewTickerScheduler(60)
//	defer sched.Close()
//	r, _ := glitch.New(glitch.Config{
//	    Surface:   canvas,
//	    Source:    "logo.png",
//	    Loader:    loader.New(loader.Options{}),
//	    Scheduler: sched,
//	})
//	if err := r.Initialize(ctx); err != nil {
//	    return err
//	}
//	defer r.Stop()
//
// # Main Packages
//
// ## Core Domain Logic
//
// [glitch] - Channel shift and noise pixel operations, the reroll state,
// surface sizing, frame schedulers and the Renderer with its
// Idle → Loading → Running → Stopped lifecycle.
//
// [loader] - Image sources: http(s) with caching, file:// and local paths,
// data URIs. SVG sources are validated, re-encoded as a base64 data URI and
// rasterized through rsvg-convert.
//
// [sink] - Frame encoders: animated GIF, last-frame PNG, true-color ANSI
// half blocks and a multipart MJPEG writer for streaming.
//
// [widget] - The glitch-image element's attributes mapped to render options.
//
// ## Orchestration
//
// [pipeline] - Load → animate → encode, used by the CLI and the server.
// Seeded runs are deterministic and cached.
//
// [server] - chi router serving live streams and rendered GIFs.
//
// ## Infrastructure
//
// [cache] - Cache interface with zstd file, Redis and null backends.
//
// [httputil] - HTTP client with retry and status mapping.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for load, frame, cache and HTTP events.
//
// [buildinfo] - Version information injected at build time.
//
// [glitch]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/glitch
// [loader]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/loader
// [sink]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/sink
// [widget]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/widget
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/server
// [cache]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/glitchimage/pkg/buildinfo
package pkg
