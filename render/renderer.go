package render

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Options is the startup configuration of a Renderer.
type Options struct {
	FramesInFlight int
	ClearColor     mgl32.Vec4
	Logger         *slog.Logger
}

// Renderer drives the render-frame lifecycle: it owns the current swapchain
// generation (swapchain, framebuffers, command buffers), the pipeline built
// for its format, and the ring of frame slots.
//
// A Renderer must only be used from one goroutine.
type Renderer struct {
	device   Device
	window   DrawableSizer
	pool     CommandPool
	pipes    PipelineBuilder
	options  Options
	logger   *slog.Logger
	manager  *SwapchainManager
	ring     *FrameRing
	pipeline *Pipeline

	swapchain      *SwapchainState
	framebuffers   []Framebuffer
	commandBuffers []CommandBuffer

	rebuildPending bool
	stats          FrameStats
}

// New builds the frame ring and the first swapchain generation. On failure
// everything created so far is destroyed.
func New(device Device, window DrawableSizer, pool CommandPool, pipes PipelineBuilder, options Options) (*Renderer, error) {
	if options.FramesInFlight == 0 {
		options.FramesInFlight = DefaultFramesInFlight
	}
	if options.Logger == nil {
		options.Logger = discardLogger()
	}

	r := &Renderer{
		device:  device,
		window:  window,
		pool:    pool,
		pipes:   pipes,
		options: options,
		logger:  options.Logger,
		manager: NewSwapchainManager(device, window, options.Logger),
	}

	var err error
	r.ring, err = NewFrameRing(device, options.FramesInFlight)
	if err != nil {
		return nil, err
	}

	err = r.buildGeneration(nil)
	if errors.Is(err, ErrZeroExtent) {
		r.rebuildPending = true
		err = nil
	}
	if err != nil {
		r.destroyPipeline()
		r.ring.Destroy(device)
		return nil, err
	}

	return r, nil
}

// CurrentFrame is the index of the frame slot the next RenderFrame uses.
func (r *Renderer) CurrentFrame() int { return r.ring.CurrentIndex() }

// Swapchain returns the live swapchain generation, nil if none is built.
func (r *Renderer) Swapchain() *SwapchainState { return r.swapchain }

// Ring exposes the frame slots.
func (r *Renderer) Ring() *FrameRing { return r.ring }

// Stats returns the frame timing accumulator.
func (r *Renderer) Stats() *FrameStats { return &r.stats }

// RequestRebuild schedules a swapchain rebuild before the next frame is
// rendered. Call it when the window is resized.
func (r *Renderer) RequestRebuild() { r.rebuildPending = true }

// Rebuild waits for the device to go idle, then tears down and recreates the
// swapchain, framebuffers and command buffers. The old swapchain is handed to
// the driver while the new one is created. While the window or the surface
// has no drawable area the rebuild is postponed.
func (r *Renderer) Rebuild() error {
	width, height := r.window.DrawableSize()
	if width == 0 || height == 0 {
		r.rebuildPending = true
		return nil
	}

	err := r.device.WaitIdle()
	if err != nil {
		return frameFailure(err, "wait for device idle before rebuild")
	}

	r.destroyTargets()
	previous := r.swapchain
	r.swapchain = nil

	err = r.buildGeneration(previous)
	if errors.Is(err, ErrZeroExtent) {
		r.logger.Debug("postponing swapchain rebuild", slog.String("reason", "zero surface extent"))
		r.rebuildPending = true
		return nil
	}
	if err != nil {
		return err
	}

	r.rebuildPending = false
	return nil
}

// RenderFrame renders and presents one frame. A stale surface reported by
// acquire or present triggers a rebuild; every other failure is returned
// marked ErrFrameFailure.
func (r *Renderer) RenderFrame() error {
	if r.rebuildPending {
		err := r.Rebuild()
		if err != nil {
			return err
		}
		if r.rebuildPending {
			return nil
		}
	}
	if r.swapchain == nil {
		return errors.Mark(errors.New("no swapchain"), ErrFrameFailure)
	}

	r.stats.begin()
	defer r.stats.end()

	slot := r.ring.Current()

	err := r.device.WaitForFence(slot.InFlight)
	if err != nil {
		return frameFailure(err, "wait for in-flight fence")
	}

	slot.State = SlotAcquiring
	imageIndex, err := r.device.AcquireNextImage(r.swapchain.Swapchain, slot.ImageAvailable)
	switch {
	case errors.Is(err, ErrOutOfDate):
		slot.State = SlotIdle
		r.logger.Info("rebuilding swapchain", slog.String("reason", "acquire out of date"))
		return r.Rebuild()
	case errors.Is(err, ErrSuboptimal):
		err = r.drain(slot)
		if err != nil {
			return err
		}
		r.logger.Info("rebuilding swapchain", slog.String("reason", "acquire suboptimal"))
		return r.Rebuild()
	case err != nil:
		slot.State = SlotIdle
		return frameFailure(err, "acquire next image")
	}

	err = r.device.ResetFence(slot.InFlight)
	if err != nil {
		return frameFailure(err, "reset in-flight fence")
	}

	err = r.device.Submit(SubmitInfo{
		Wait:      slot.ImageAvailable,
		WaitStage: core1_0.PipelineStageColorAttachmentOutput,
		Buffer:    r.commandBuffers[imageIndex],
		Signal:    slot.RenderFinished,
		Fence:     slot.InFlight,
	})
	if err != nil {
		return frameFailure(err, "submit draw command buffer")
	}
	slot.State = SlotSubmitted
	r.logger.Debug("frame submitted",
		slog.Int("frame", r.ring.CurrentIndex()),
		slog.Int("image", imageIndex),
		slog.String("state", slot.State.String()))

	slot.State = SlotPresenting
	err = r.device.Present(PresentInfo{
		Wait:       slot.RenderFinished,
		Swapchain:  r.swapchain.Swapchain,
		ImageIndex: imageIndex,
	})
	slot.State = SlotIdle
	r.ring.Advance()

	if IsStaleSurface(err) {
		r.logger.Info("rebuilding swapchain", slog.String("reason", err.Error()))
		return r.Rebuild()
	} else if err != nil {
		return frameFailure(err, "present")
	}

	return nil
}

// drain consumes the pending image-available signal of an image acquired
// from a suboptimal swapchain without touching its command buffers, so the
// slot's semaphore and fence are left in the same state as after a frame.
func (r *Renderer) drain(slot *FrameSlot) error {
	err := r.device.ResetFence(slot.InFlight)
	if err != nil {
		return frameFailure(err, "reset in-flight fence")
	}

	err = r.device.Submit(SubmitInfo{
		Wait:      slot.ImageAvailable,
		WaitStage: core1_0.PipelineStageColorAttachmentOutput,
		Fence:     slot.InFlight,
	})
	if err != nil {
		return frameFailure(err, "submit drain batch")
	}
	slot.State = SlotIdle

	return nil
}

// Run renders frames until ctx is done or a frame fails.
func (r *Renderer) Run(ctx context.Context, beforeFrame func() bool) error {
	for ctx.Err() == nil {
		if beforeFrame != nil && !beforeFrame() {
			continue
		}
		err := r.RenderFrame()
		if err != nil {
			return err
		}
	}
	return nil
}

// Close waits for the device to go idle and destroys everything the
// Renderer owns, top-down.
func (r *Renderer) Close() error {
	err := r.device.WaitIdle()

	r.destroyGeneration()
	r.destroyPipeline()
	r.ring.Destroy(r.device)

	if err != nil {
		return frameFailure(err, "wait for device idle before shutdown")
	}
	return nil
}

// buildGeneration consumes previous, see SwapchainManager.Build.
func (r *Renderer) buildGeneration(previous *SwapchainState) error {
	swapchain, err := r.manager.Build(previous)
	if err != nil {
		return err
	}

	if r.pipeline == nil || r.pipeline.Format != swapchain.Format.Format {
		r.destroyPipeline()
		pipeline, err := r.pipes.BuildPipeline(swapchain.Format.Format)
		if err != nil {
			r.manager.Destroy(swapchain)
			return stageFailure(ErrPipelineCreation, err, "build pipeline")
		}
		r.pipeline = &pipeline
	}

	framebuffers, err := BuildFramebuffers(r.device, r.pipeline.RenderPass, swapchain.Views, swapchain.Extent)
	if err != nil {
		r.manager.Destroy(swapchain)
		return err
	}

	commandBuffers, err := RecordAll(r.device, r.pool, framebuffers, *r.pipeline, swapchain.Extent, r.options.ClearColor)
	if err != nil {
		DestroyFramebuffers(r.device, framebuffers)
		r.manager.Destroy(swapchain)
		return err
	}

	r.swapchain = swapchain
	r.framebuffers = framebuffers
	r.commandBuffers = commandBuffers
	return nil
}

// destroyTargets releases everything that references the swapchain views.
func (r *Renderer) destroyTargets() {
	if len(r.commandBuffers) > 0 {
		r.device.FreeCommandBuffers(r.pool, r.commandBuffers)
		r.commandBuffers = nil
	}

	DestroyFramebuffers(r.device, r.framebuffers)
	r.framebuffers = nil
}

func (r *Renderer) destroyGeneration() {
	r.destroyTargets()
	r.manager.Destroy(r.swapchain)
	r.swapchain = nil
}

func (r *Renderer) destroyPipeline() {
	if r.pipeline != nil {
		r.pipes.DestroyPipeline(*r.pipeline)
		r.pipeline = nil
	}
}
