package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[render]
background = "#000000"
fps = 24
seed = 7
disable_noise = true

[cache]
backend = "redis"
redis_addr = "localhost:6380"
ttl = "2h"

[fetch]
timeout = "5s"
retries = 2

[server]
max_streams = 4
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Render.Background != "#000000" || cfg.Render.FPS != 24 || cfg.Render.Seed != 7 || !cfg.Render.DisableNoise {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Render.Frames != 60 {
		t.Errorf("frames = %d, want default 60", cfg.Render.Frames)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6380" || cfg.Cache.TTL != 2*time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Fetch.Timeout != 5*time.Second || cfg.Fetch.Retries != 2 {
		t.Errorf("fetch = %+v", cfg.Fetch)
	}
	if cfg.Server.MaxStreams != 4 || cfg.Server.Addr != ":8080" {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "config.yml", `
render:
  background: "#ff00ff"
  offset_scale: 12.5
cache:
  backend: none
fetch:
  timeout: 1m
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Render.Background != "#ff00ff" || cfg.Render.OffsetScale != 12.5 {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Cache.Backend != backendNone {
		t.Errorf("backend = %q", cfg.Cache.Backend)
	}
	if cfg.Fetch.Timeout != time.Minute {
		t.Errorf("timeout = %v", cfg.Fetch.Timeout)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code apperrors.Code
	}{
		{"missing", filepath.Join(t.TempDir(), "nope.toml"), apperrors.ErrCodeFileNotFound},
		{"extension", writeFile(t, "config.json", `{}`), apperrors.ErrCodeConfiguration},
		{"bad toml", writeFile(t, "config.toml", `[render`), apperrors.ErrCodeConfiguration},
		{"bad yaml", writeFile(t, "config.yaml", "render: [1"), apperrors.ErrCodeConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			if !apperrors.Is(err, tt.code) {
				t.Errorf("LoadConfig() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	var f glitchFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	if err := cmd.ParseFlags([]string{"--fps", "12", "--background", "#abcdef", "--no-cache", "--retries", "3"}); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Render.FPS = 24
	cfg.Render.Seed = 9
	cfg.Fetch.Retries = 1

	opts := f.options(cmd, "logo.png", &cfg)

	if opts.FPS != 12 {
		t.Errorf("FPS = %d, want flag value 12", opts.FPS)
	}
	if opts.Background != "#abcdef" {
		t.Errorf("Background = %q", opts.Background)
	}
	if opts.Seed != 9 {
		t.Errorf("Seed = %d, want config value 9", opts.Seed)
	}
	if opts.Fetch.Retries != 3 {
		t.Errorf("Retries = %d, want 3", opts.Fetch.Retries)
	}
	if opts.Fetch.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want config default", opts.Fetch.Timeout)
	}
	if cfg.Cache.Backend != backendNone {
		t.Errorf("--no-cache should switch the backend, got %q", cfg.Cache.Backend)
	}
}

func TestLoadConfigFromXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[render]\nfps = 15\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(os.Stderr, LogInfo)
	cfg, err := c.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Render.FPS != 15 {
		t.Errorf("FPS = %d, want 15 from default config file", cfg.Render.FPS)
	}
}
