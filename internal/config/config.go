// Package config loads editor settings from an optional TOML file, .env
// files and FACIAL_EDITOR_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"strings"
	"time"

	"facial-editor/pkg/colorutil"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the editor reads.
const EnvPrefix = "FACIAL_EDITOR_"

// DefaultFile is read when no config file is named explicitly and it exists
// in the working directory.
const DefaultFile = "facial-editor.toml"

// Config holds all editor settings.
type Config struct {
	LogLevel  string          `toml:"log_level" env:"LOG_LEVEL"`
	Catalog   CatalogConfig   `toml:"catalog" envPrefix:"CATALOG_"`
	Params    ParamBounds     `toml:"params" envPrefix:"PARAMS_"`
	Output    OutputConfig    `toml:"output" envPrefix:"OUTPUT_"`
	Transform TransformConfig `toml:"transform" envPrefix:"TRANSFORM_"`
	Server    ServerConfig    `toml:"server" envPrefix:"SERVER_"`
	Redis     RedisConfig     `toml:"redis" envPrefix:"REDIS_"`
}

// CatalogConfig selects where stickers come from.
type CatalogConfig struct {
	Dir     string `toml:"dir" env:"DIR"`
	Builtin bool   `toml:"builtin" env:"BUILTIN"`
}

// ParamBounds are the slider ranges offered to users. They narrow, never
// widen, the hard limits (scale > 0, opacity in [0,1]).
type ParamBounds struct {
	ScaleMin   float64 `toml:"scale_min" env:"SCALE_MIN"`
	ScaleMax   float64 `toml:"scale_max" env:"SCALE_MAX"`
	ScaleStep  float64 `toml:"scale_step" env:"SCALE_STEP"`
	OpacityMin float64 `toml:"opacity_min" env:"OPACITY_MIN"`
}

// OutputConfig controls saved images.
type OutputConfig struct {
	JPEGQuality int    `toml:"jpeg_quality" env:"JPEG_QUALITY"`
	Background  string `toml:"background" env:"BACKGROUND"`
}

// TransformConfig selects the transform engine.
type TransformConfig struct {
	Backend string `toml:"backend" env:"BACKEND"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `toml:"addr" env:"ADDR"`
	SessionTTL     time.Duration `toml:"session_ttl" env:"SESSION_TTL"`
	MaxUploadBytes int64         `toml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	ReadTimeout    time.Duration `toml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT"`

	// SessionDir keeps session snapshots on disk when Redis is not
	// configured. Empty keeps them in memory.
	SessionDir string `toml:"session_dir" env:"SESSION_DIR"`
}

// RedisConfig configures the optional Redis session store. An empty Addr
// keeps sessions in memory only.
type RedisConfig struct {
	Addr     string `toml:"addr" env:"ADDR"`
	Password string `toml:"password" env:"PASSWORD"`
	DB       int    `toml:"db" env:"DB"`
	Prefix   string `toml:"prefix" env:"PREFIX"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Catalog:  CatalogConfig{Builtin: true},
		Params: ParamBounds{
			ScaleMin:   0.02,
			ScaleMax:   3.0,
			ScaleStep:  0.01,
			OpacityMin: 0.1,
		},
		Output: OutputConfig{
			JPEGQuality: 95,
			Background:  "#ffffff",
		},
		Transform: TransformConfig{Backend: "resample"},
		Server: ServerConfig{
			Addr:           ":8080",
			SessionTTL:     30 * time.Minute,
			MaxUploadBytes: 20 << 20,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
		},
		Redis: RedisConfig{Prefix: "facial-editor:session:"},
	}
}

// LoadOptions name the files Load reads.
type LoadOptions struct {
	// File is a TOML config file. Empty means DefaultFile if it exists.
	File string
	// EnvFiles are .env files, later ones overriding earlier ones. Missing
	// files are skipped.
	EnvFiles []string
	// Environ overrides the process environment, mainly for tests.
	Environ map[string]string
}

// Load builds a Config from defaults, the TOML file, .env files and the
// environment.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	path := opts.File
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	vars := make(map[string]string)
	for _, f := range opts.EnvFiles {
		m, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("env file %s: %w", f, err)
		}
		for k, v := range m {
			vars[k] = v
		}
	}
	environ := opts.Environ
	if environ == nil {
		environ = osEnviron()
	}
	for k, v := range environ {
		vars[k] = v
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	p := c.Params
	if p.ScaleMin <= 0 || p.ScaleMax < p.ScaleMin {
		return fmt.Errorf("params: scale range [%v, %v] is invalid", p.ScaleMin, p.ScaleMax)
	}
	if p.OpacityMin < 0 || p.OpacityMin > 1 {
		return fmt.Errorf("params: opacity_min %v is outside [0, 1]", p.OpacityMin)
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output: jpeg_quality %d is outside [1, 100]", c.Output.JPEGQuality)
	}
	if _, err := c.BackgroundColor(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if c.Server.SessionTTL < 0 {
		return fmt.Errorf("server: session_ttl must not be negative")
	}
	if !c.Catalog.Builtin && c.Catalog.Dir == "" {
		return fmt.Errorf("catalog: no sources (enable builtin or set dir)")
	}
	return nil
}

// BackgroundColor parses Output.Background.
func (c *Config) BackgroundColor() (color.NRGBA, error) {
	return colorutil.ParseHex(c.Output.Background)
}

func osEnviron() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
