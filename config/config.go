// Package config loads pixreveal defaults from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/caarlos0/env/v11"
)

// Config holds the defaults shared by every command. Command line flags
// override them.
type Config struct {
	Speed          int           `env:"PIXREVEAL_SPEED"            envDefault:"5"`
	DelayBase      time.Duration `env:"PIXREVEAL_DELAY"            envDefault:"10ms"`
	Sampler        string        `env:"PIXREVEAL_SAMPLER"          envDefault:"shuffle"`
	MaxWidth       int           `env:"PIXREVEAL_MAX_WIDTH"        envDefault:"0"`
	MaxHeight      int           `env:"PIXREVEAL_MAX_HEIGHT"       envDefault:"0"`
	PixelsPerFrame int           `env:"PIXREVEAL_PIXELS_PER_FRAME" envDefault:"50"`
	Palette        string        `env:"PIXREVEAL_PALETTE"          envDefault:"plan9"`
	LogLevel       slog.Level    `env:"PIXREVEAL_LOG_LEVEL"        envDefault:"info"`
}

// Load parses the PIXREVEAL_* environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Speed < 1 || cfg.Speed > 10 {
		return Config{}, fmt.Errorf("invalid PIXREVEAL_SPEED %d, should be 1..10", cfg.Speed)
	}
	if cfg.DelayBase < 0 {
		return Config{}, fmt.Errorf("invalid PIXREVEAL_DELAY %s", cfg.DelayBase)
	}
	if cfg.PixelsPerFrame < 1 {
		return Config{}, fmt.Errorf("invalid PIXREVEAL_PIXELS_PER_FRAME %d", cfg.PixelsPerFrame)
	}
	return cfg, nil
}

// Vars exposes the configuration as kong interpolation variables, so flag
// defaults can reference them as ${speed}, ${sampler}, ...
func (c Config) Vars() kong.Vars {
	return kong.Vars{
		"speed":            strconv.Itoa(c.Speed),
		"delay":            c.DelayBase.String(),
		"sampler":          c.Sampler,
		"max_width":        strconv.Itoa(c.MaxWidth),
		"max_height":       strconv.Itoa(c.MaxHeight),
		"pixels_per_frame": strconv.Itoa(c.PixelsPerFrame),
		"palette":          c.Palette,
	}
}

// Logger returns a text logger at the configured level.
func (c Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}
