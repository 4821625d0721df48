// Package config holds the startup configuration of the triangle renderer.
package config

import (
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

const maxFramesInFlight = 8

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type Shaders struct {
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
}

type Config struct {
	Window         Window     `toml:"window"`
	Shaders        Shaders    `toml:"shaders"`
	FramesInFlight int        `toml:"frames_in_flight"`
	Validation     bool       `toml:"validation"`
	ClearColor     mgl32.Vec4 `toml:"clear_color"`
	PipelineCache  string     `toml:"pipeline_cache"`
	LogLevel       string     `toml:"log_level"`
	StatsInterval  string     `toml:"stats_interval"`
}

func Default() Config {
	return Config{
		Window: Window{
			Title:  "Hello Triangle",
			Width:  800,
			Height: 600,
		},
		Shaders: Shaders{
			Vertex:   "shaders/vert.spv",
			Fragment: "shaders/frag.spv",
		},
		FramesInFlight: 2,
		Validation:     true,
		ClearColor:     mgl32.Vec4{0, 0, 0, 1},
		LogLevel:       "info",
		StatsInterval:  "5s",
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}

	return cfg, cfg.Validate()
}

// Parse loads the file named by -config, if any, then applies the remaining
// command-line flags on top of it.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("hello_triangle", flag.ContinueOnError)
	path := fs.String("config", "", "TOML configuration file")
	width := fs.Int("width", 0, "window width in pixels")
	height := fs.Int("height", 0, "window height in pixels")
	validation := fs.Bool("validation", true, "enable the Khronos validation layer")
	level := fs.String("log-level", "", "debug, info, warn or error")

	err := fs.Parse(args)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *path != "" {
		cfg, err = Load(*path)
		if err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		case "validation":
			cfg.Validation = *validation
		case "log-level":
			cfg.LogLevel = *level
		}
	})

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.FramesInFlight < 1 || c.FramesInFlight > maxFramesInFlight {
		return errors.Newf("frames_in_flight must be in [1,%d], got %d", maxFramesInFlight, c.FramesInFlight)
	}
	if c.Shaders.Vertex == "" || c.Shaders.Fragment == "" {
		return errors.New("both vertex and fragment shader paths are required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Interval(); err != nil {
		return err
	}
	return nil
}

// Level is the slog level named by LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel)))
	if err != nil {
		return slog.LevelInfo, errors.Wrapf(err, "log_level %q", c.LogLevel)
	}
	return level, nil
}

// Interval is how often frame statistics are logged. Zero disables them.
func (c Config) Interval() (time.Duration, error) {
	if c.StatsInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.StatsInterval)
	if err != nil {
		return 0, errors.Wrapf(err, "stats_interval %q", c.StatsInterval)
	}
	if d < 0 {
		return 0, errors.Newf("stats_interval must not be negative, got %s", d)
	}
	return d, nil
}
