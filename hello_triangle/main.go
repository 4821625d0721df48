// Command hello_triangle opens a window and draws a single triangle with
// Vulkan, recreating the swapchain whenever the window changes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/hellotriangle/config"
	"github.com/vkngwrapper/hellotriangle/render"
	"github.com/vkngwrapper/hellotriangle/setup"
)

//go:generate glslc shaders/triangle.vert -o shaders/vert.spv
//go:generate glslc shaders/triangle.frag -o shaders/frag.spv

type app struct {
	cfg    config.Config
	logger *slog.Logger

	window    *sdl.Window
	ctx       *setup.Context
	pipelines *setup.Pipelines
	renderer  *render.Renderer

	cancel    context.CancelFunc
	rendering bool

	statsInterval time.Duration
	lastStats     time.Time
}

func (a *app) initWindow() error {
	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return errors.Wrap(err, "init sdl")
	}

	a.window, err = sdl.CreateWindow(a.cfg.Window.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(a.cfg.Window.Width), int32(a.cfg.Window.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	return errors.Wrap(err, "create window")
}

func (a *app) initVulkan() error {
	var err error
	a.ctx, err = setup.New(a.cfg, a.window, a.logger)
	if err != nil {
		return err
	}

	a.pipelines, err = a.ctx.Pipelines()
	if err != nil {
		return err
	}

	a.renderer, err = render.New(a.ctx.Device(), a.ctx, a.ctx.CommandPool(), a.pipelines, render.Options{
		FramesInFlight: a.cfg.FramesInFlight,
		ClearColor:     a.cfg.ClearColor,
		Logger:         a.logger,
	})
	return err
}

// pollEvents drains the SDL queue and reports whether a frame should be
// drawn now.
func (a *app) pollEvents() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			a.cancel()
			return false
		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_MINIMIZED:
				a.rendering = false
			case sdl.WINDOWEVENT_RESTORED:
				a.rendering = true
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
				w, h := a.window.GetSize()
				a.rendering = w > 0 && h > 0
				a.renderer.RequestRebuild()
			}
		}
	}

	if !a.rendering {
		sdl.Delay(16)
		return false
	}

	a.logStats()
	return true
}

func (a *app) logStats() {
	if a.statsInterval == 0 || time.Since(a.lastStats) < a.statsInterval {
		return
	}
	a.lastStats = time.Now()

	snap := a.renderer.Stats().Snapshot()
	if snap.Frames == 0 {
		return
	}
	a.logger.Info("frame stats",
		slog.Int("frames", snap.Frames),
		slog.Float64("fps", snap.FPS()),
		slog.Duration("mean", snap.Mean),
		slog.Duration("min", snap.Min),
		slog.Duration("max", snap.Max))
}

func (a *app) cleanup() error {
	var err error
	if a.renderer != nil {
		err = a.renderer.Close()
	}
	if a.pipelines != nil {
		err = errors.CombineErrors(err, a.pipelines.Close())
	}
	if a.ctx != nil {
		a.ctx.Destroy()
	}
	if a.window != nil {
		destroyErr := a.window.Destroy()
		err = errors.CombineErrors(err, destroyErr)
	}
	sdl.Quit()
	return err
}

func (a *app) run() (err error) {
	defer func() {
		err = errors.CombineErrors(err, a.cleanup())
	}()

	err = a.initWindow()
	if err != nil {
		return err
	}

	err = a.initVulkan()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.cancel = cancel
	a.rendering = true
	a.lastStats = time.Now()

	return a.renderer.Run(ctx, a.pollEvents)
}

func main() {
	runtime.LockOSThread()

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(2)
	}

	// Validate has already checked both of these.
	level, _ := cfg.Level()
	interval, _ := cfg.Interval()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	a := &app{cfg: cfg, logger: logger, statsInterval: interval}

	err = a.run()
	if err != nil {
		logger.Error("hello triangle failed", slog.String("error", fmt.Sprintf("%+v", err)))
		os.Exit(1)
	}
}
