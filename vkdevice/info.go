package vkdevice

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/hellotriangle/render"
)

// The builders below translate render requests into vkngwrapper create and
// submit structures. They hold no driver state.

func swapchainCreateInfo(surface khr_surface.Surface, info render.SwapchainCreateInfo, graphicsFamily, presentFamily int) khr_swapchain.SwapchainCreateInfo {
	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int

	if graphicsFamily != presentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, graphicsFamily, presentFamily)
	}

	create := khr_swapchain.SwapchainCreateInfo{
		Surface: surface,

		MinImageCount:    info.ImageCount,
		ImageFormat:      info.Format.Format,
		ImageColorSpace:  info.Format.ColorSpace,
		ImageExtent:      info.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   info.Transform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    info.PresentMode,
		Clipped:        true,
	}
	if info.OldSwapchain != nil {
		create.OldSwapchain = info.OldSwapchain.(khr_swapchain.Swapchain)
	}
	return create
}

func commandBufferBeginInfo(simultaneousUse bool) core1_0.CommandBufferBeginInfo {
	var info core1_0.CommandBufferBeginInfo
	if simultaneousUse {
		info.Flags = core1_0.CommandBufferUsageSimultaneousUse
	}
	return info
}

func fenceCreateInfo(signaled bool) core1_0.FenceCreateInfo {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}
	return info
}

// submitInfo builds one batch and the fence it signals, nil for none. A nil
// command buffer leaves the batch empty.
func submitInfo(info render.SubmitInfo) (core1_0.SubmitInfo, *core1_0.Fence) {
	submit := core1_0.SubmitInfo{
		WaitSemaphores:   []core1_0.Semaphore{info.Wait.(core1_0.Semaphore)},
		WaitDstStageMask: []core1_0.PipelineStageFlags{info.WaitStage},
	}
	if info.Buffer != nil {
		submit.CommandBuffers = []core1_0.CommandBuffer{info.Buffer.(core1_0.CommandBuffer)}
	}
	if info.Signal != nil {
		submit.SignalSemaphores = []core1_0.Semaphore{info.Signal.(core1_0.Semaphore)}
	}

	var fence *core1_0.Fence
	if info.Fence != nil {
		f := info.Fence.(core1_0.Fence)
		fence = &f
	}
	return submit, fence
}

func presentInfo(info render.PresentInfo) khr_swapchain.PresentInfo {
	return khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{info.Wait.(core1_0.Semaphore)},
		Swapchains:     []khr_swapchain.Swapchain{info.Swapchain.(khr_swapchain.Swapchain)},
		ImageIndices:   []int{info.ImageIndex},
	}
}
