package vkdevice

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/hellotriangle/render"
)

func (d *Device) CreateSemaphore() (render.Semaphore, error) {
	semaphore, _, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, err
	}
	return semaphore, nil
}

func (d *Device) DestroySemaphore(semaphore render.Semaphore) {
	d.driver.DestroySemaphore(semaphore.(core1_0.Semaphore), nil)
}

func (d *Device) CreateFence(signaled bool) (render.Fence, error) {
	fence, _, err := d.driver.CreateFence(nil, fenceCreateInfo(signaled))
	if err != nil {
		return nil, err
	}
	return fence, nil
}

func (d *Device) DestroyFence(fence render.Fence) {
	d.driver.DestroyFence(fence.(core1_0.Fence), nil)
}

func (d *Device) WaitForFence(fence render.Fence) error {
	_, err := d.driver.WaitForFences(true, common.NoTimeout, fence.(core1_0.Fence))
	return err
}

func (d *Device) ResetFence(fence render.Fence) error {
	_, err := d.driver.ResetFences(fence.(core1_0.Fence))
	return err
}

func (d *Device) AcquireNextImage(swapchain render.Swapchain, signal render.Semaphore) (int, error) {
	semaphore := signal.(core1_0.Semaphore)
	imageIndex, res, err := d.swapchain.AcquireNextImage(swapchain.(khr_swapchain.Swapchain), common.NoTimeout, &semaphore, nil)
	return imageIndex, surfaceResult(res, err)
}

func (d *Device) Submit(info render.SubmitInfo) error {
	submit, fence := submitInfo(info)
	_, err := d.driver.QueueSubmit(d.graphicsQueue, fence, submit)
	return err
}

func (d *Device) Present(info render.PresentInfo) error {
	res, err := d.swapchain.QueuePresent(d.presentQueue, presentInfo(info))
	return surfaceResult(res, err)
}
