package render

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// anyExtent is the width vkngwrapper reports when the surface size is
// decided by the swapchain.
const anyExtent = -1

var preferredFormat = khr_surface.SurfaceFormat{
	Format:     core1_0.FormatB8G8R8A8SRGB,
	ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
}

// ChooseSurfaceFormat picks BGRA8 sRGB when it is available and the first
// reported format otherwise. formats must not be empty.
func ChooseSurfaceFormat(formats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	if len(formats) == 1 && formats[0].Format == core1_0.FormatUndefined {
		return preferredFormat
	}

	for _, format := range formats {
		if format.Format == preferredFormat.Format && format.ColorSpace == preferredFormat.ColorSpace {
			return format
		}
	}

	return formats[0]
}

// ChoosePresentMode prefers mailbox, then immediate, then FIFO which every
// surface supports.
func ChoosePresentMode(modes []khr_surface.PresentMode) khr_surface.PresentMode {
	immediate := false
	for _, mode := range modes {
		if mode == khr_surface.PresentModeMailbox {
			return mode
		}
		if mode == khr_surface.PresentModeImmediate {
			immediate = true
		}
	}

	if immediate {
		return khr_surface.PresentModeImmediate
	}
	return khr_surface.PresentModeFIFO
}

// ChooseExtent honors a fixed current extent and otherwise clamps the
// window's drawable size into the surface's bounds.
func ChooseExtent(capabilities khr_surface.SurfaceCapabilities, width, height int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != anyExtent {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, capped by the
// maximum unless the surface reports it as unbounded (0).
func ChooseImageCount(capabilities khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// SwapchainState is one live generation of the swapchain and its views.
type SwapchainState struct {
	Generation  int
	Swapchain   Swapchain
	Format      khr_surface.SurfaceFormat
	PresentMode khr_surface.PresentMode
	Extent      core1_0.Extent2D
	Images      []Image
	Views       []ImageView
}

// SwapchainManager builds swapchain generations against a device's surface.
type SwapchainManager struct {
	device     SwapchainDevice
	window     DrawableSizer
	logger     *slog.Logger
	generation int
}

func NewSwapchainManager(device SwapchainDevice, window DrawableSizer, logger *slog.Logger) *SwapchainManager {
	if logger == nil {
		logger = discardLogger()
	}
	return &SwapchainManager{device: device, window: window, logger: logger}
}

// Build queries the surface and creates a swapchain with one view per image.
// On failure everything created so far is destroyed.
//
// previous, if not nil, is handed to the driver as the old swapchain and is
// destroyed before Build returns, on success and on failure alike. Anything
// that references its views must already be gone.
func (m *SwapchainManager) Build(previous *SwapchainState) (*SwapchainState, error) {
	defer m.Destroy(previous)

	support, err := m.device.SurfaceSupport()
	if err != nil {
		return nil, stageFailure(ErrSwapchainCreation, err, "query surface support")
	}
	if len(support.Formats) == 0 {
		return nil, errors.Mark(errors.New("surface reports no formats"), ErrSwapchainCreation)
	}

	width, height := m.window.DrawableSize()
	info := SwapchainCreateInfo{
		ImageCount:  ChooseImageCount(support.Capabilities),
		Format:      ChooseSurfaceFormat(support.Formats),
		PresentMode: ChoosePresentMode(support.PresentModes),
		Extent:      ChooseExtent(support.Capabilities, width, height),
		Transform:   support.Capabilities.CurrentTransform,
	}
	if info.Extent.Width == 0 || info.Extent.Height == 0 {
		return nil, ErrZeroExtent
	}
	if previous != nil {
		info.OldSwapchain = previous.Swapchain
	}

	swapchain, err := m.device.CreateSwapchain(info)
	if err != nil {
		return nil, stageFailure(ErrSwapchainCreation, err, "create swapchain")
	}

	state := &SwapchainState{
		Generation:  m.generation + 1,
		Swapchain:   swapchain,
		Format:      info.Format,
		PresentMode: info.PresentMode,
		Extent:      info.Extent,
	}

	state.Images, err = m.device.SwapchainImages(swapchain)
	if err != nil {
		m.Destroy(state)
		return nil, stageFailure(ErrSwapchainCreation, err, "get swapchain images")
	}

	for i, image := range state.Images {
		view, err := m.device.CreateImageView(image, info.Format.Format)
		if err != nil {
			m.Destroy(state)
			return nil, stageFailure(ErrSwapchainCreation, err, "create image view %d", i)
		}
		state.Views = append(state.Views, view)
	}

	m.generation = state.Generation
	m.logger.Info("swapchain built",
		slog.Int("generation", state.Generation),
		slog.Int("width", state.Extent.Width),
		slog.Int("height", state.Extent.Height),
		slog.Any("format", state.Format.Format),
		slog.Any("presentMode", state.PresentMode),
		slog.Int("images", len(state.Images)),
	)

	return state, nil
}

// Destroy releases the views and then the swapchain. The device must be idle.
func (m *SwapchainManager) Destroy(state *SwapchainState) {
	if state == nil {
		return
	}

	for _, view := range state.Views {
		m.device.DestroyImageView(view)
	}
	state.Views = nil
	state.Images = nil

	if state.Swapchain != nil {
		m.device.DestroySwapchain(state.Swapchain)
		state.Swapchain = nil
	}
}
