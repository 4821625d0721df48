package render

import "github.com/vkngwrapper/core/v3/core1_0"

// BuildFramebuffers creates one single-attachment framebuffer per image view.
// A partial set is never returned: if any framebuffer fails, the ones already
// created are destroyed.
func BuildFramebuffers(device FramebufferDevice, renderPass RenderPass, views []ImageView, extent core1_0.Extent2D) ([]Framebuffer, error) {
	framebuffers := make([]Framebuffer, 0, len(views))
	for i, view := range views {
		framebuffer, err := device.CreateFramebuffer(renderPass, view, extent)
		if err != nil {
			DestroyFramebuffers(device, framebuffers)
			return nil, stageFailure(ErrFramebufferCreation, err, "create framebuffer %d", i)
		}
		framebuffers = append(framebuffers, framebuffer)
	}

	return framebuffers, nil
}

func DestroyFramebuffers(device FramebufferDevice, framebuffers []Framebuffer) {
	for _, framebuffer := range framebuffers {
		device.DestroyFramebuffer(framebuffer)
	}
}
