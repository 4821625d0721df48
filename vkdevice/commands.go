package vkdevice

import (
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/hellotriangle/render"
)

func commandBuffers(buffers []render.CommandBuffer) []core1_0.CommandBuffer {
	out := make([]core1_0.CommandBuffer, len(buffers))
	for i, buffer := range buffers {
		out[i] = buffer.(core1_0.CommandBuffer)
	}
	return out
}

func (d *Device) AllocateCommandBuffers(pool render.CommandPool, count int) ([]render.CommandBuffer, error) {
	buffers, _, err := d.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool.(core1_0.CommandPool),
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, err
	}

	out := make([]render.CommandBuffer, len(buffers))
	for i, buffer := range buffers {
		out[i] = buffer
	}
	return out, nil
}

func (d *Device) FreeCommandBuffers(pool render.CommandPool, buffers []render.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	d.driver.FreeCommandBuffers(commandBuffers(buffers)...)
}

func (d *Device) BeginCommandBuffer(buffer render.CommandBuffer, simultaneousUse bool) error {
	_, err := d.driver.BeginCommandBuffer(buffer.(core1_0.CommandBuffer), commandBufferBeginInfo(simultaneousUse))
	return err
}

func (d *Device) CmdBeginRenderPass(buffer render.CommandBuffer, begin render.RenderPassBegin) error {
	return d.driver.CmdBeginRenderPass(buffer.(core1_0.CommandBuffer), core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  begin.RenderPass.(core1_0.RenderPass),
			Framebuffer: begin.Framebuffer.(core1_0.Framebuffer),
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: begin.Extent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(begin.ClearColor),
			},
		})
}

func (d *Device) CmdBindPipeline(buffer render.CommandBuffer, pipeline render.GraphicsPipeline) {
	d.driver.CmdBindPipeline(buffer.(core1_0.CommandBuffer), core1_0.PipelineBindPointGraphics, pipeline.(core1_0.Pipeline))
}

func (d *Device) CmdSetViewport(buffer render.CommandBuffer, viewport core1_0.Viewport) {
	d.driver.CmdSetViewport(buffer.(core1_0.CommandBuffer), viewport)
}

func (d *Device) CmdSetScissor(buffer render.CommandBuffer, scissor core1_0.Rect2D) {
	d.driver.CmdSetScissor(buffer.(core1_0.CommandBuffer), scissor)
}

func (d *Device) CmdDraw(buffer render.CommandBuffer, vertexCount, instanceCount int) {
	d.driver.CmdDraw(buffer.(core1_0.CommandBuffer), vertexCount, instanceCount, 0, 0)
}

func (d *Device) CmdEndRenderPass(buffer render.CommandBuffer) {
	d.driver.CmdEndRenderPass(buffer.(core1_0.CommandBuffer))
}

func (d *Device) EndCommandBuffer(buffer render.CommandBuffer) error {
	_, err := d.driver.EndCommandBuffer(buffer.(core1_0.CommandBuffer))
	return err
}
