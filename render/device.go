package render

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// Driver handles are opaque to this package. Only the Device that created a
// handle knows how to interpret it.
type (
	Swapchain        interface{}
	Image            interface{}
	ImageView        interface{}
	RenderPass       interface{}
	GraphicsPipeline interface{}
	Framebuffer      interface{}
	CommandPool      interface{}
	CommandBuffer    interface{}
	Semaphore        interface{}
	Fence            interface{}
)

// SurfaceSupport is what the surface reports at the moment of a swapchain
// (re)build.
type SurfaceSupport struct {
	Capabilities khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// SwapchainCreateInfo carries the choices made by the SwapchainManager.
// OldSwapchain, when set, is the swapchain being replaced. It is retired by
// the create call whether or not that call succeeds.
type SwapchainCreateInfo struct {
	ImageCount   int
	Format       khr_surface.SurfaceFormat
	PresentMode  khr_surface.PresentMode
	Extent       core1_0.Extent2D
	Transform    khr_surface.SurfaceTransformFlags
	OldSwapchain Swapchain
}

// RenderPassBegin describes the render pass instance a command buffer opens.
type RenderPassBegin struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Extent      core1_0.Extent2D
	ClearColor  [4]float32
}

// SubmitInfo is a single graphics queue batch. A nil Buffer submits a batch
// that only waits on and signals synchronization primitives.
type SubmitInfo struct {
	Wait      Semaphore
	WaitStage core1_0.PipelineStageFlags
	Buffer    CommandBuffer
	Signal    Semaphore
	Fence     Fence
}

// PresentInfo is a single present request.
type PresentInfo struct {
	Wait       Semaphore
	Swapchain  Swapchain
	ImageIndex int
}

// SwapchainDevice creates and destroys presentable images.
type SwapchainDevice interface {
	SurfaceSupport() (SurfaceSupport, error)
	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	SwapchainImages(swapchain Swapchain) ([]Image, error)
	DestroySwapchain(swapchain Swapchain)
	CreateImageView(image Image, format core1_0.Format) (ImageView, error)
	DestroyImageView(view ImageView)
}

// FramebufferDevice binds image views to a render pass.
type FramebufferDevice interface {
	CreateFramebuffer(renderPass RenderPass, view ImageView, extent core1_0.Extent2D) (Framebuffer, error)
	DestroyFramebuffer(framebuffer Framebuffer)
}

// CommandDevice allocates and records command buffers.
type CommandDevice interface {
	AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, error)
	FreeCommandBuffers(pool CommandPool, buffers []CommandBuffer)

	BeginCommandBuffer(buffer CommandBuffer, simultaneousUse bool) error
	CmdBeginRenderPass(buffer CommandBuffer, begin RenderPassBegin) error
	CmdBindPipeline(buffer CommandBuffer, pipeline GraphicsPipeline)
	CmdSetViewport(buffer CommandBuffer, viewport core1_0.Viewport)
	CmdSetScissor(buffer CommandBuffer, scissor core1_0.Rect2D)
	CmdDraw(buffer CommandBuffer, vertexCount, instanceCount int)
	CmdEndRenderPass(buffer CommandBuffer)
	EndCommandBuffer(buffer CommandBuffer) error
}

// SyncDevice owns semaphores and fences and the queues that use them.
type SyncDevice interface {
	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(semaphore Semaphore)
	CreateFence(signaled bool) (Fence, error)
	DestroyFence(fence Fence)
	WaitForFence(fence Fence) error
	ResetFence(fence Fence) error

	// AcquireNextImage returns ErrOutOfDate when no image could be acquired
	// and a valid index together with ErrSuboptimal when the image was
	// acquired but the swapchain no longer matches the surface.
	AcquireNextImage(swapchain Swapchain, signal Semaphore) (int, error)
	Submit(info SubmitInfo) error
	// Present returns ErrOutOfDate or ErrSuboptimal for a stale surface.
	Present(info PresentInfo) error
	WaitIdle() error
}

// Device is the logical device together with its graphics and present
// queues and the surface it presents to.
type Device interface {
	SwapchainDevice
	FramebufferDevice
	CommandDevice
	SyncDevice
}

// DrawableSizer reports the window's size in pixels.
type DrawableSizer interface {
	DrawableSize() (width, height int)
}

// Pipeline is the render pass and graphics pipeline built for one color
// format.
type Pipeline struct {
	RenderPass RenderPass
	Pipeline   GraphicsPipeline
	Format     core1_0.Format
}

// PipelineBuilder constructs the static pipeline state for a swapchain
// format. Viewport and scissor must be dynamic state.
type PipelineBuilder interface {
	BuildPipeline(format core1_0.Format) (Pipeline, error)
	DestroyPipeline(pipeline Pipeline)
}
