package puppet

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/benoitkugler/svgpuppet/binder"
	"github.com/benoitkugler/svgpuppet/illustration"
	"github.com/benoitkugler/svgpuppet/skeleton"
	"github.com/benoitkugler/svgpuppet/svgscene"
	"gopkg.in/yaml.v3"
)

// Canvas is the output surface size, in pixels or points.
type Canvas struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Config tunes the loading and the animation of a puppet.
type Config struct {
	// ErrorMode is one of "ignore", "warn" and "strict".
	ErrorMode     string            `yaml:"error_mode"`
	SkeletonGroup string            `yaml:"skeleton_group"`
	Aliases       map[string]string `yaml:"aliases"`
	ZOrder        []string          `yaml:"z_order"`

	Limits    skeleton.Limits `yaml:"limits"`
	Smoothing float64         `yaml:"smoothing"`
	// ResetEachFrame restores the bind pose before each frame,
	// so that bones without confident joints go back to rest
	// instead of keeping their previous pose.
	ResetEachFrame bool `yaml:"reset_each_frame"`

	// Canvas is the output size. The view box of the illustration is
	// fitted into it. A zero size keeps the document units.
	Canvas Canvas `yaml:"canvas"`

	// Debug logs the degraded frames.
	Debug bool `yaml:"debug"`

	// Logger defaults to log.Default()
	Logger *log.Logger `yaml:"-"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		ErrorMode:     "warn",
		SkeletonGroup: binder.DefaultSkeletonGroup,
		Limits:        skeleton.DefaultLimits(),
		Canvas:        Canvas{Width: 513, Height: 513},
	}
}

// LoadConfig reads a YAML file. Missing fields keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	// an empty file is valid
	if err = yaml.NewDecoder(f).Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the ranges of the settings.
func (c Config) Validate() error {
	if _, err := svgscene.ParseErrorMode(c.ErrorMode); err != nil {
		return err
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("smoothing must be in [0, 1), got %g", c.Smoothing)
	}
	l := c.Limits
	if l.MinConfidence < 0 || l.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0, 1], got %g", l.MinConfidence)
	}
	if l.MinScale < 0 || (l.MaxScale > 0 && l.MaxScale < l.MinScale) {
		return fmt.Errorf("invalid scale range [%g, %g]", l.MinScale, l.MaxScale)
	}
	if c.Canvas.Width < 0 || c.Canvas.Height < 0 {
		return fmt.Errorf("invalid canvas %gx%g", c.Canvas.Width, c.Canvas.Height)
	}
	return nil
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func (c Config) bindOptions() binder.Options {
	limits := c.Limits
	return binder.Options{SkeletonGroup: c.SkeletonGroup, Limits: &limits, Aliases: c.Aliases}
}

func (c Config) zOrder() illustration.ZOrder {
	if len(c.ZOrder) == 0 {
		return nil
	}
	return illustration.ZOrder(c.ZOrder)
}
