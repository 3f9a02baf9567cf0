package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/glitchimage/pkg/httputil"
	"github.com/matzehuels/glitchimage/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr       string
	maxStreams int
	fps        int
	quality    int
	noCache    bool
}

// serveCommand creates the serve command, which hosts the widget over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live glitch streams and rendered GIFs over HTTP",
		Long: `Serve the glitch widget over HTTP.

Routes take the widget attributes as query parameters
(src, disabled-noise, auto, background, width):

  GET /?src=...            demo page embedding a live stream
  GET /stream?src=...      multipart MJPEG stream
  GET /render.gif?src=...  rendered animation (add seed=N to cache it)
  GET /healthz             liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			changed := cmd.Flags().Changed
			if changed("addr") {
				cfg.Server.Addr = opts.addr
			}
			if changed("max-streams") {
				cfg.Server.MaxStreams = opts.maxStreams
			}
			if changed("quality") {
				cfg.Server.Quality = opts.quality
			}
			if changed("fps") {
				cfg.Render.FPS = opts.fps
			}
			if opts.noCache {
				cfg.Cache.Backend = backendNone
			}

			runner, err := c.newRunner(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, server.Config{
				Addr:       cfg.Server.Addr,
				MaxStreams: cfg.Server.MaxStreams,
				FPS:        cfg.Render.FPS,
				Quality:    cfg.Server.Quality,
				Fetch:      httputil.Options{Timeout: cfg.Fetch.Timeout, Retries: cfg.Fetch.Retries},
				Logger:     c.Logger,
			})

			printKeyValue("Listening", StyleLink.Render(serverURL(cfg.Server.Addr)))
			printKeyValue("Streams", strconv.Itoa(cfg.Server.MaxStreams))
			if cfg.Cache.Backend == backendNone {
				printWarning("Caching disabled; every request fetches its source")
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&opts.maxStreams, "max-streams", 16, "maximum concurrent streams")
	cmd.Flags().IntVar(&opts.fps, "fps", 0, "default frame rate")
	cmd.Flags().IntVar(&opts.quality, "quality", 80, "JPEG quality of stream frames (1-100)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")

	return cmd
}

// serverURL turns a listen address into a browsable URL.
func serverURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
