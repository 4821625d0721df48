package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"
)

const (
	triangleVertices  = 3
	triangleInstances = 1
)

// RecordAll allocates one primary command buffer per framebuffer and records
// the triangle draw into each. Buffers are begun with the simultaneous-use
// flag because the same buffer is resubmitted whenever its image comes up
// again. On any failure all allocated buffers are freed.
func RecordAll(device CommandDevice, pool CommandPool, framebuffers []Framebuffer, pipeline Pipeline, extent core1_0.Extent2D, clear mgl32.Vec4) ([]CommandBuffer, error) {
	buffers, err := device.AllocateCommandBuffers(pool, len(framebuffers))
	if err != nil {
		return nil, stageFailure(ErrCommandRecording, err, "allocate command buffers")
	}

	for i, buffer := range buffers {
		err = record(device, buffer, framebuffers[i], pipeline, extent, clear)
		if err != nil {
			device.FreeCommandBuffers(pool, buffers)
			return nil, stageFailure(ErrCommandRecording, err, "record command buffer %d", i)
		}
	}

	return buffers, nil
}

func record(device CommandDevice, buffer CommandBuffer, framebuffer Framebuffer, pipeline Pipeline, extent core1_0.Extent2D, clear mgl32.Vec4) error {
	err := device.BeginCommandBuffer(buffer, true)
	if err != nil {
		return err
	}

	err = device.CmdBeginRenderPass(buffer, RenderPassBegin{
		RenderPass:  pipeline.RenderPass,
		Framebuffer: framebuffer,
		Extent:      extent,
		ClearColor:  clear,
	})
	if err != nil {
		return err
	}

	device.CmdBindPipeline(buffer, pipeline.Pipeline)
	device.CmdSetViewport(buffer, core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	device.CmdSetScissor(buffer, core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: extent,
	})
	device.CmdDraw(buffer, triangleVertices, triangleInstances)
	device.CmdEndRenderPass(buffer)

	return device.EndCommandBuffer(buffer)
}
