package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triangle.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, 2, cfg.FramesInFlight)
	assert.True(t, cfg.Validation)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
frames_in_flight = 3
validation = false
clear_color = [0.1, 0.2, 0.3, 1.0]
log_level = "debug"
stats_interval = "250ms"

[window]
width = 1280
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height, "unset keys keep defaults")
	assert.Equal(t, "Hello Triangle", cfg.Window.Title)
	assert.Equal(t, 3, cfg.FramesInFlight)
	assert.False(t, cfg.Validation)
	assert.Equal(t, mgl32.Vec4{0.1, 0.2, 0.3, 1.0}, cfg.ClearColor)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	interval, err := cfg.Interval()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, interval)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "frames_in_flight = ["))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "frames_in_flight = 0"))
	assert.ErrorContains(t, err, "frames_in_flight")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window size"},
		{"negative height", func(c *Config) { c.Window.Height = -5 }, "window size"},
		{"too many frames", func(c *Config) { c.FramesInFlight = 9 }, "frames_in_flight"},
		{"missing shader", func(c *Config) { c.Shaders.Fragment = "" }, "shader"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad interval", func(c *Config) { c.StatsInterval = "soon" }, "stats_interval"},
		{"negative interval", func(c *Config) { c.StatsInterval = "-1s" }, "stats_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestParseFlags(t *testing.T) {
	path := writeConfig(t, "[window]\nwidth = 1024\nheight = 768\n")

	cfg, err := Parse([]string{"-config", path, "-height", "500", "-validation=false", "-log-level", "warn"})
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 500, cfg.Window.Height)
	assert.False(t, cfg.Validation)
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg, err = Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Parse([]string{"-width", "0"})
	assert.Error(t, err)
}

func TestEmptyIntervalDisablesStats(t *testing.T) {
	cfg := Default()
	cfg.StatsInterval = ""
	interval, err := cfg.Interval()
	require.NoError(t, err)
	assert.Zero(t, interval)
}
