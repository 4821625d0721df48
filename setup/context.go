// Package setup bootstraps the Vulkan objects the renderer consumes: the
// instance, surface, logical device, queues and command pool, and the
// render pass and graphics pipeline built for a swapchain format.
package setup

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/vkngwrapper/hellotriangle/config"
	"github.com/vkngwrapper/hellotriangle/vkdevice"
)

// Context owns the instance, surface and logical device. Destroy releases
// them in reverse creation order.
type Context struct {
	cfg    config.Config
	logger *slog.Logger
	window *sdl.Window

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	queueFamilies  QueueFamilyIndices

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	commandPool core1_0.CommandPool
}

// New creates every device-level object for window. If any stage fails the
// objects already created are destroyed before returning.
func New(cfg config.Config, window *sdl.Window, logger *slog.Logger) (ctx *Context, err error) {
	ctx = &Context{cfg: cfg, logger: logger, window: window}
	defer func() {
		if err != nil {
			ctx.Destroy()
			ctx = nil
		}
	}()

	ctx.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return ctx, errors.Wrap(err, "load vulkan")
	}

	stages := []struct {
		name  string
		apply func() error
	}{
		{"create instance", ctx.createInstance},
		{"set up debug messenger", ctx.setupDebugMessenger},
		{"create surface", ctx.createSurface},
		{"pick physical device", ctx.pickPhysicalDevice},
		{"create logical device", ctx.createLogicalDevice},
		{"create command pool", ctx.createCommandPool},
	}

	for _, stage := range stages {
		err = stage.apply()
		if err != nil {
			return ctx, errors.Wrap(err, stage.name)
		}
		logger.Debug("setup stage complete", slog.String("stage", stage.name))
	}

	return ctx, nil
}

// Device returns the render.Device for this context.
func (c *Context) Device() *vkdevice.Device {
	return vkdevice.New(vkdevice.Options{
		DeviceDriver:     c.deviceDriver,
		SurfaceExtension: c.surfaceExtension,
		Surface:          c.surface,
		PhysicalDevice:   c.physicalDevice,
		GraphicsQueue:    c.graphicsQueue,
		PresentQueue:     c.presentQueue,
		GraphicsFamily:   *c.queueFamilies.GraphicsFamily,
		PresentFamily:    *c.queueFamilies.PresentFamily,
	})
}

// CommandPool is the pool the renderer records its command buffers from.
func (c *Context) CommandPool() core1_0.CommandPool {
	return c.commandPool
}

// DrawableSize reports the window's drawable area in pixels.
func (c *Context) DrawableSize() (int, int) {
	w, h := c.window.VulkanGetDrawableSize()
	return int(w), int(h)
}

func (c *Context) Destroy() {
	if c.commandPool.Initialized() {
		c.deviceDriver.DestroyCommandPool(c.commandPool, nil)
		c.commandPool = core1_0.CommandPool{}
	}

	if c.deviceDriver != nil {
		c.deviceDriver.DestroyDevice(nil)
		c.deviceDriver = nil
	}

	if c.debugMessenger.Initialized() {
		c.debugDriver.DestroyDebugUtilsMessenger(c.debugMessenger, nil)
		c.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if c.surface.Initialized() {
		c.surfaceExtension.DestroySurface(c.surface, nil)
		c.surface = khr_surface.Surface{}
	}

	if c.instanceDriver != nil {
		c.instanceDriver.DestroyInstance(nil)
		c.instanceDriver = nil
	}
}
