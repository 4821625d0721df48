package setup

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/hellotriangle/render"
)

// Pipelines builds the render pass and graphics pipeline for a swapchain
// format. The pipeline layout and pipeline cache are shared by every build
// and released by Close.
type Pipelines struct {
	driver    core1_0.CoreDeviceDriver
	logger    *slog.Logger
	vertPath  string
	fragPath  string
	cachePath string

	layout core1_0.PipelineLayout
	cache  core1_0.PipelineCache
}

var _ render.PipelineBuilder = (*Pipelines)(nil)

// Pipelines creates the shared pipeline layout and pipeline cache. A cache
// file written by a different device or driver is ignored.
func (c *Context) Pipelines() (*Pipelines, error) {
	p := &Pipelines{
		driver:    c.deviceDriver,
		logger:    c.logger,
		vertPath:  c.cfg.Shaders.Vertex,
		fragPath:  c.cfg.Shaders.Fragment,
		cachePath: c.cfg.PipelineCache,
	}

	props, err := c.instanceDriver.GetPhysicalDeviceProperties(c.physicalDevice)
	if err != nil {
		return nil, errors.Wrap(err, "read device properties")
	}

	initial := loadCacheData(p.cachePath, CacheIdentity{
		VendorID: props.VendorID,
		DeviceID: props.DeviceID,
		UUID:     props.PipelineCacheUUID,
	}, c.logger)

	p.cache, _, err = p.driver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: initial,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline cache")
	}

	p.layout, _, err = p.driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		p.driver.DestroyPipelineCache(p.cache, nil)
		return nil, errors.Wrap(err, "create pipeline layout")
	}

	return p, nil
}

func (p *Pipelines) BuildPipeline(format core1_0.Format) (render.Pipeline, error) {
	renderPass, err := p.createRenderPass(format)
	if err != nil {
		return render.Pipeline{}, errors.Wrap(err, "create render pass")
	}

	pipeline, err := p.createGraphicsPipeline(renderPass)
	if err != nil {
		p.driver.DestroyRenderPass(renderPass, nil)
		return render.Pipeline{}, err
	}

	p.logger.Debug("graphics pipeline built", slog.Any("format", format))
	return render.Pipeline{
		RenderPass: renderPass,
		Pipeline:   pipeline,
		Format:     format,
	}, nil
}

func (p *Pipelines) DestroyPipeline(pipeline render.Pipeline) {
	if pipeline.Pipeline != nil {
		p.driver.DestroyPipeline(pipeline.Pipeline.(core1_0.Pipeline), nil)
	}
	if pipeline.RenderPass != nil {
		p.driver.DestroyRenderPass(pipeline.RenderPass.(core1_0.RenderPass), nil)
	}
}

// Close writes the pipeline cache back to disk and destroys the shared
// objects. Every pipeline must already have been destroyed.
func (p *Pipelines) Close() error {
	var saveErr error
	data, _, err := p.driver.GetPipelineCacheData(p.cache)
	if err != nil {
		saveErr = errors.Wrap(err, "read pipeline cache")
	} else {
		saveErr = saveCacheData(p.cachePath, data)
	}

	p.driver.DestroyPipelineLayout(p.layout, nil)
	p.driver.DestroyPipelineCache(p.cache, nil)
	return saveErr
}

func (p *Pipelines) createRenderPass(format core1_0.Format) (core1_0.RenderPass, error) {
	renderPass, _, err := p.driver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		// The layout transition must wait for the acquire semaphore, which
		// the submission waits on at the color output stage.
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	return renderPass, err
}

func (p *Pipelines) createShaderModule(path string) (core1_0.ShaderModule, error) {
	code, err := readShader(path)
	if err != nil {
		return core1_0.ShaderModule{}, err
	}

	module, _, err := p.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	return module, errors.Wrapf(err, "create shader module %s", path)
}

func (p *Pipelines) createGraphicsPipeline(renderPass core1_0.RenderPass) (core1_0.Pipeline, error) {
	vertShader, err := p.createShaderModule(p.vertPath)
	if err != nil {
		return core1_0.Pipeline{}, err
	}
	defer p.driver.DestroyShaderModule(vertShader, nil)

	fragShader, err := p.createShaderModule(p.fragPath)
	if err != nil {
		return core1_0.Pipeline{}, err
	}
	defer p.driver.DestroyShaderModule(fragShader, nil)

	// Viewport and scissor are dynamic so the pipeline survives extent
	// changes. The counts still come from these placeholders.
	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{{MinDepth: 0, MaxDepth: 1}},
		Scissors:  []core1_0.Rect2D{{}},
	}

	pipelines, _, err := p.driver.CreateGraphicsPipelines(&p.cache, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: vertShader,
					Name:   "main",
				},
				{
					Stage:  core1_0.StageFragment,
					Module: fragShader,
					Name:   "main",
				},
			},
			VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{},
			InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
				Topology:               core1_0.PrimitiveTopologyTriangleList,
				PrimitiveRestartEnable: false,
			},
			ViewportState: viewport,
			RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
				PolygonMode: core1_0.PolygonModeFill,
				CullMode:    core1_0.CullModeBack,
				FrontFace:   core1_0.FrontFaceClockwise,
				LineWidth:   1.0,
			},
			MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
				RasterizationSamples: core1_0.Samples1,
				MinSampleShading:     1.0,
			},
			ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
				LogicOp: core1_0.LogicOpCopy,
				Attachments: []core1_0.PipelineColorBlendAttachmentState{
					{
						BlendEnabled:   false,
						ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
					},
				},
			},
			DynamicState: &core1_0.PipelineDynamicStateCreateInfo{
				DynamicStates: []core1_0.DynamicState{
					core1_0.DynamicStateViewport,
					core1_0.DynamicStateScissor,
				},
			},
			Layout:            p.layout,
			RenderPass:        renderPass,
			Subpass:           0,
			BasePipelineIndex: -1,
		},
	)
	if err != nil {
		return core1_0.Pipeline{}, errors.Wrap(err, "create graphics pipeline")
	}

	return pipelines[0], nil
}
