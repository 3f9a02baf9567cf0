package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/glitchimage/pkg/loader"
	"github.com/matzehuels/glitchimage/pkg/pipeline"
	"github.com/matzehuels/glitchimage/pkg/sink"
)

// defaultOutputBase names outputs for sources without a usable file name,
// such as data URIs.
const defaultOutputBase = "glitch"

// glitchFlags are the widget and animation flags shared by render and play.
type glitchFlags struct {
	background   string
	disableNoise bool
	auto         bool
	width        int
	frames       int
	fps          int
	seed         uint64
	offsetScale  float64
	columns      int
	refresh      bool
	noCache      bool
	retries      int
	timeout      time.Duration
	rsvg         string
}

func (f *glitchFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.background, "background", "", "background color as hex (default #1a191c)")
	fl.BoolVar(&f.disableNoise, "disable-noise", false, "disable random noise bursts")
	fl.BoolVar(&f.auto, "auto", false, "fit the surface to --width, keeping the aspect ratio")
	fl.IntVar(&f.width, "width", 0, "container width in pixels for --auto")
	fl.IntVar(&f.frames, "frames", 0, fmt.Sprintf("number of frames (default %d)", pipeline.DefaultFrames))
	fl.IntVar(&f.fps, "fps", 0, fmt.Sprintf("frames per second (default %d)", pipeline.DefaultFPS))
	fl.Uint64Var(&f.seed, "seed", 0, "random seed; non-zero seeds are reproducible and cached")
	fl.Float64Var(&f.offsetScale, "offset-scale", 0, "multiplier for the channel offset magnitude (default 1)")
	fl.IntVar(&f.columns, "columns", 0, "terminal columns for ANSI output (0 keeps one cell per pixel)")
	fl.BoolVar(&f.refresh, "refresh", false, "bypass cached sources and artifacts")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching entirely")
	fl.IntVar(&f.retries, "retries", 0, "retries for failed downloads")
	fl.DurationVar(&f.timeout, "timeout", 0, "download timeout (default 30s)")
	fl.StringVar(&f.rsvg, "rsvg", "", "path to rsvg-convert for SVG sources")
}

// options merges the config file with explicitly set flags. Flags win.
func (f *glitchFlags) options(cmd *cobra.Command, src string, cfg *Config) pipeline.Options {
	changed := cmd.Flags().Changed
	r := cfg.Render

	opts := pipeline.Options{
		Source:       src,
		Background:   r.Background,
		DisableNoise: r.DisableNoise,
		Frames:       r.Frames,
		FPS:          r.FPS,
		Seed:         r.Seed,
		OffsetScale:  r.OffsetScale,
		Columns:      r.Columns,
		Dither:       r.Dither,
		AutoFit:      f.auto,
		Refresh:      f.refresh,
	}
	opts.Fetch.Timeout = cfg.Fetch.Timeout
	opts.Fetch.Retries = cfg.Fetch.Retries

	if changed("background") {
		opts.Background = f.background
	}
	if changed("disable-noise") {
		opts.DisableNoise = f.disableNoise
	}
	if changed("width") {
		opts.ContainerWidth = f.width
	}
	if changed("frames") {
		opts.Frames = f.frames
	}
	if changed("fps") {
		opts.FPS = f.fps
	}
	if changed("seed") {
		opts.Seed = f.seed
	}
	if changed("offset-scale") {
		opts.OffsetScale = f.offsetScale
	}
	if changed("columns") {
		opts.Columns = f.columns
	}
	if changed("retries") {
		opts.Fetch.Retries = f.retries
	}
	if changed("timeout") {
		opts.Fetch.Timeout = f.timeout
	}
	if f.rsvg != "" {
		opts.Rasterizer = loader.RSVG{Binary: f.rsvg}
	}
	if f.noCache {
		cfg.Cache.Backend = backendNone
	}
	return opts
}

// renderOpts holds the flags specific to the render command.
type renderOpts struct {
	glitchFlags
	output  string
	formats string
	dither  bool
}

// renderCommand creates the render command for writing animations to files.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <src>",
		Short: "Render a glitch animation to GIF, PNG or ANSI files",
		Long: `Render a glitch animation of an image to files.

The source may be an http(s) URL, a file:// URL, a local path or a data URI.
Raster sources (png, jpg, gif, webp, bmp, tiff) are decoded directly; SVG
sources are rasterized with rsvg-convert.

Outputs are written next to --output (or into the current directory, named
after the source) with one file per format.`,
		Example: `  glitchimage render logo.png
  glitchimage render https://example.com/logo.svg -f gif,png --seed 7
  glitchimage render photo.jpg --auto --width 320 --frames 120 -o out/photo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			popts := opts.options(cmd, args[0], &cfg)
			popts.Formats = parseFormats(opts.formats)
			if cmd.Flags().Changed("dither") {
				popts.Dither = opts.dither
			}
			return c.runRender(cmd.Context(), cfg, popts, opts.output)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: source name in the current directory)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", fmt.Sprintf("output format(s): %s (comma-separated, default gif)", strings.Join(sink.Formats(), ", ")))
	cmd.Flags().BoolVar(&opts.dither, "dither", false, "Floyd-Steinberg dither GIF frames")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cfg Config, opts pipeline.Options, output string) error {
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	c.Logger.Info("Rendering", "src", displayName(opts.Source), "formats", opts.Formats)
	prog := newProgress(c.Logger)

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	prog.done("Rendered " + displayName(opts.Source))

	base := basePath(output, opts.Source)
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	for _, format := range opts.Formats {
		enc, err := sink.ForFormat(format)
		if err != nil {
			return err
		}
		out := base + enc.Ext()
		if err := os.WriteFile(out, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		printFile(out)
	}
	printStats(result)
	if len(opts.Formats) > 0 && opts.Formats[0] == sink.FormatANSI {
		printNextStep("View it", "cat "+base+".ansi")
	} else {
		printNextStep("Watch it live", appName+" play "+opts.Source)
	}
	return nil
}

// basePath derives the output path without extension. An explicit output
// keeps its name with a known format extension stripped; otherwise the
// source's file name is used in the current directory.
func basePath(output, src string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if _, err := sink.ForFormat(strings.TrimPrefix(ext, ".")); err == nil {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	name := sourceName(src)
	if name == "" {
		return defaultOutputBase
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// sourceName returns the last path element of a source, or "" for data URIs
// and sources without one.
func sourceName(src string) string {
	if strings.HasPrefix(src, "data:") {
		return ""
	}
	p := src
	if u, err := url.Parse(src); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		p = u.Path
	}
	name := path.Base(filepath.ToSlash(p))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// displayName shortens data URIs for logs.
func displayName(src string) string {
	if strings.HasPrefix(src, "data:") {
		if i := strings.IndexByte(src, ','); i > 0 {
			return src[:i] + ",…"
		}
	}
	return src
}
