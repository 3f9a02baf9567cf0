package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
	"github.com/matzehuels/glitchimage/pkg/glitch"
	"github.com/matzehuels/glitchimage/pkg/pipeline"
)

// Config is the optional config file. TOML and YAML files share one shape:
//
//	[render]
//	background = "#000000"
//	fps = 24
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
type Config struct {
	Render RenderConfig `toml:"render" yaml:"render"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Fetch  FetchConfig  `toml:"fetch" yaml:"fetch"`
	Server ServerConfig `toml:"server" yaml:"server"`
}

// RenderConfig holds defaults for rendered animations.
type RenderConfig struct {
	Background   string  `toml:"background" yaml:"background"`
	FPS          int     `toml:"fps" yaml:"fps"`
	Frames       int     `toml:"frames" yaml:"frames"`
	Seed         uint64  `toml:"seed" yaml:"seed"`
	OffsetScale  float64 `toml:"offset_scale" yaml:"offset_scale"`
	DisableNoise bool    `toml:"disable_noise" yaml:"disable_noise"`
	Dither       bool    `toml:"dither" yaml:"dither"`
	Columns      int     `toml:"columns" yaml:"columns"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string        `toml:"backend" yaml:"backend"`
	Dir           string        `toml:"dir" yaml:"dir"`
	TTL           time.Duration `toml:"ttl" yaml:"ttl"`
	RedisAddr     string        `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int           `toml:"redis_db" yaml:"redis_db"`
}

// FetchConfig configures remote source downloads.
type FetchConfig struct {
	Timeout time.Duration `toml:"timeout" yaml:"timeout"`
	Retries int           `toml:"retries" yaml:"retries"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr       string `toml:"addr" yaml:"addr"`
	MaxStreams int    `toml:"max_streams" yaml:"max_streams"`
	Quality    int    `toml:"quality" yaml:"quality"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Render: RenderConfig{
			Background:  glitch.DefaultBackground,
			FPS:         pipeline.DefaultFPS,
			Frames:      pipeline.DefaultFrames,
			OffsetScale: 1,
		},
		Cache:  CacheConfig{Backend: backendFile},
		Fetch:  FetchConfig{Timeout: 30 * time.Second},
		Server: ServerConfig{Addr: ":8080", MaxStreams: 16, Quality: 80},
	}
}

// LoadConfig reads path on top of DefaultConfig. The format follows the
// file extension.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "config file not found: %s", path)
		}
		return cfg, apperrors.Wrap(apperrors.ErrCodeConfiguration, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, apperrors.Wrap(apperrors.ErrCodeConfiguration, err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, apperrors.Wrap(apperrors.ErrCodeConfiguration, err, "parse %s", path)
		}
	default:
		return cfg, apperrors.New(apperrors.ErrCodeConfiguration, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}
	return cfg, nil
}
