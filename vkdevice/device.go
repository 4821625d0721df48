// Package vkdevice implements render.Device on top of vkngwrapper's core and
// swapchain drivers.
package vkdevice

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/hellotriangle/render"
)

// Options are the objects the device context hands to the renderer.
type Options struct {
	DeviceDriver     core1_0.CoreDeviceDriver
	SurfaceExtension khr_surface.ExtensionDriver
	Surface          khr_surface.Surface
	PhysicalDevice   core1_0.PhysicalDevice

	GraphicsQueue  core1_0.Queue
	PresentQueue   core1_0.Queue
	GraphicsFamily int
	PresentFamily  int
}

// Device drives one logical device and its presentation surface.
type Device struct {
	driver    core1_0.CoreDeviceDriver
	surfaces  khr_surface.ExtensionDriver
	swapchain khr_swapchain.ExtensionDriver
	surface   khr_surface.Surface
	physical  core1_0.PhysicalDevice

	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue
	graphicsFamily int
	presentFamily  int
}

var _ render.Device = (*Device)(nil)

func New(o Options) *Device {
	return &Device{
		driver:         o.DeviceDriver,
		surfaces:       o.SurfaceExtension,
		swapchain:      khr_swapchain.CreateExtensionDriverFromCoreDriver(o.DeviceDriver),
		surface:        o.Surface,
		physical:       o.PhysicalDevice,
		graphicsQueue:  o.GraphicsQueue,
		presentQueue:   o.PresentQueue,
		graphicsFamily: o.GraphicsFamily,
		presentFamily:  o.PresentFamily,
	}
}

// surfaceResult turns the swapchain result codes the frame loop recovers
// from into the renderer's stale-surface errors.
func surfaceResult(res common.VkResult, err error) error {
	switch res {
	case khr_swapchain.VKErrorOutOfDate:
		return render.ErrOutOfDate
	case khr_swapchain.VKSuboptimal:
		return render.ErrSuboptimal
	}
	return err
}

func (d *Device) SurfaceSupport() (render.SurfaceSupport, error) {
	var support render.SurfaceSupport

	capabilities, _, err := d.surfaces.GetPhysicalDeviceSurfaceCapabilities(d.surface, d.physical)
	if err != nil {
		return support, err
	}
	support.Capabilities = *capabilities

	support.Formats, _, err = d.surfaces.GetPhysicalDeviceSurfaceFormats(d.surface, d.physical)
	if err != nil {
		return support, err
	}

	support.PresentModes, _, err = d.surfaces.GetPhysicalDeviceSurfacePresentModes(d.surface, d.physical)
	return support, err
}

func (d *Device) CreateSwapchain(info render.SwapchainCreateInfo) (render.Swapchain, error) {
	swapchain, _, err := d.swapchain.CreateSwapchain(nil, swapchainCreateInfo(d.surface, info, d.graphicsFamily, d.presentFamily))
	if err != nil {
		return nil, err
	}
	return swapchain, nil
}

func (d *Device) SwapchainImages(swapchain render.Swapchain) ([]render.Image, error) {
	images, _, err := d.swapchain.GetSwapchainImages(swapchain.(khr_swapchain.Swapchain))
	if err != nil {
		return nil, err
	}

	out := make([]render.Image, len(images))
	for i, image := range images {
		out[i] = image
	}
	return out, nil
}

func (d *Device) DestroySwapchain(swapchain render.Swapchain) {
	d.swapchain.DestroySwapchain(swapchain.(khr_swapchain.Swapchain), nil)
}

func (d *Device) CreateImageView(image render.Image, format core1_0.Format) (render.ImageView, error) {
	view, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image.(core1_0.Image),
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (d *Device) DestroyImageView(view render.ImageView) {
	d.driver.DestroyImageView(view.(core1_0.ImageView), nil)
}

func (d *Device) CreateFramebuffer(renderPass render.RenderPass, view render.ImageView, extent core1_0.Extent2D) (render.Framebuffer, error) {
	framebuffer, _, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass: renderPass.(core1_0.RenderPass),
		Layers:     1,
		Attachments: []core1_0.ImageView{
			view.(core1_0.ImageView),
		},
		Width:  extent.Width,
		Height: extent.Height,
	})
	if err != nil {
		return nil, err
	}
	return framebuffer, nil
}

func (d *Device) DestroyFramebuffer(framebuffer render.Framebuffer) {
	d.driver.DestroyFramebuffer(framebuffer.(core1_0.Framebuffer), nil)
}

func (d *Device) WaitIdle() error {
	_, err := d.driver.DeviceWaitIdle()
	return err
}
