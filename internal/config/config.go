package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/user0608/moodcam"
)

// Display modes for the run command.
const (
	DisplayWindow = "window"
	DisplayStream = "stream"
	DisplayBoth   = "both"
	DisplayNone   = "none"
)

// maxInterval keeps the tick cadence visually smooth.
const maxInterval = 50 * time.Millisecond

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	// Pipeline
	Device       string        `envconfig:"CAMERA_DEVICE" default:"0"`
	CascadePath  string        `envconfig:"CASCADE_PATH" default:"haarcascade_files/haarcascade_frontalface_default.xml"`
	ModelPath    string        `envconfig:"MODEL_PATH" default:"models/fine_tuned_model.onnx"`
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"10ms"`
	Mirror       bool          `envconfig:"MIRROR" default:"true"`

	// Presentation
	Display     string `envconfig:"DISPLAY_MODE" default:"window"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":1323"`
	OutputDir   string `envconfig:"OUTPUT_DIR" default:"frames"`
	JPEGQuality int    `envconfig:"JPEG_QUALITY" default:"85"`
}

// Load reads MOODCAM_* variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("moodcam", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TickInterval <= 0 || c.TickInterval >= maxInterval {
		return fmt.Errorf("tick interval must be in (0, %s), got %s", maxInterval, c.TickInterval)
	}
	switch c.Display {
	case DisplayWindow, DisplayStream, DisplayBoth, DisplayNone:
	default:
		return fmt.Errorf("unknown display mode %q", c.Display)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	return nil
}

// Options converts the pipeline part of the config.
func (c *Config) Options() moodcam.Options {
	return moodcam.Options{
		CascadePath: c.CascadePath,
		ModelPath:   c.ModelPath,
		Device:      c.Device,
		Interval:    c.TickInterval,
		Mirror:      c.Mirror,
	}
}

func (c *Config) WantsWindow() bool {
	return c.Display == DisplayWindow || c.Display == DisplayBoth
}

func (c *Config) WantsStream() bool {
	return c.Display == DisplayStream || c.Display == DisplayBoth
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
