package render

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

type fakeObject struct {
	kind      string
	id        int
	destroyed bool
}

type fakeSwapchain struct {
	fakeObject
	info   SwapchainCreateInfo
	images []Image
}

type fakeCommandBuffer struct {
	fakeObject
	swapchain *fakeSwapchain
	commands  []string
	recording bool
	beginUse  bool
}

type fakeSemaphore struct {
	fakeObject
	signaled bool
}

type fakeFence struct {
	fakeObject
	signaled bool
	pending  bool
}

type submission struct {
	info SubmitInfo
}

type acquireResult struct {
	index int
	err   error
}

// fakeDevice is an in-memory Device. Submitted work completes in FIFO order
// when a fence it signals is waited on, which is the earliest a real GPU
// would have to finish it.
type fakeDevice struct {
	support SurfaceSupport
	nextID  int
	live    map[string]int
	ops     []string

	// failures maps an operation name to the error it returns. failAfter
	// lets that many calls succeed first.
	failures  map[string]error
	failAfter map[string]int

	acquireScript []acquireResult
	presentScript []error
	acquireCalls  int

	currentSwapchain *fakeSwapchain
	queue            []submission
	inFlight         int
	maxInFlight      int
	submits          []SubmitInfo
	presents         []PresentInfo
	idleWaits        int

	onSubmit  func()
	onPresent func()
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		support: SurfaceSupport{
			Capabilities: khr_surface.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  0,
				CurrentExtent:  core1_0.Extent2D{Width: 800, Height: 600},
				MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
			},
			Formats: []khr_surface.SurfaceFormat{
				{Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
				{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
			},
			PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
		},
		live:      map[string]int{},
		failures:  map[string]error{},
		failAfter: map[string]int{},
	}
}

func (d *fakeDevice) op(name string) error {
	d.ops = append(d.ops, name)
	err, ok := d.failures[name]
	if !ok {
		return nil
	}
	if d.failAfter[name] > 0 {
		d.failAfter[name]--
		return nil
	}
	return err
}

func (d *fakeDevice) newObject(kind string) fakeObject {
	d.nextID++
	d.live[kind]++
	return fakeObject{kind: kind, id: d.nextID}
}

func (d *fakeDevice) destroy(obj *fakeObject) {
	if obj.destroyed {
		panic(fmt.Sprintf("%s %d destroyed twice", obj.kind, obj.id))
	}
	obj.destroyed = true
	d.live[obj.kind]--
}

func (d *fakeDevice) liveObjects() int {
	total := 0
	for _, n := range d.live {
		total += n
	}
	return total
}

func (d *fakeDevice) SurfaceSupport() (SurfaceSupport, error) {
	return d.support, d.op("SurfaceSupport")
}

func (d *fakeDevice) CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error) {
	if err := d.op("CreateSwapchain"); err != nil {
		return nil, err
	}
	if info.OldSwapchain != nil && info.OldSwapchain.(*fakeSwapchain).destroyed {
		return nil, errors.New("old swapchain was destroyed before it was retired")
	}
	sc := &fakeSwapchain{fakeObject: d.newObject("swapchain"), info: info}
	for i := 0; i < info.ImageCount; i++ {
		sc.images = append(sc.images, &fakeObject{kind: "image", id: i})
	}
	d.currentSwapchain = sc
	return sc, nil
}

func (d *fakeDevice) SwapchainImages(swapchain Swapchain) ([]Image, error) {
	if err := d.op("SwapchainImages"); err != nil {
		return nil, err
	}
	return swapchain.(*fakeSwapchain).images, nil
}

func (d *fakeDevice) DestroySwapchain(swapchain Swapchain) {
	d.ops = append(d.ops, "DestroySwapchain")
	d.destroy(&swapchain.(*fakeSwapchain).fakeObject)
}

func (d *fakeDevice) CreateImageView(image Image, format core1_0.Format) (ImageView, error) {
	if err := d.op("CreateImageView"); err != nil {
		return nil, err
	}
	view := d.newObject("view")
	return &view, nil
}

func (d *fakeDevice) DestroyImageView(view ImageView) {
	d.ops = append(d.ops, "DestroyImageView")
	d.destroy(view.(*fakeObject))
}

func (d *fakeDevice) CreateFramebuffer(renderPass RenderPass, view ImageView, extent core1_0.Extent2D) (Framebuffer, error) {
	if err := d.op("CreateFramebuffer"); err != nil {
		return nil, err
	}
	if view.(*fakeObject).destroyed {
		return nil, errors.New("framebuffer over destroyed view")
	}
	framebuffer := d.newObject("framebuffer")
	return &framebuffer, nil
}

func (d *fakeDevice) DestroyFramebuffer(framebuffer Framebuffer) {
	d.ops = append(d.ops, "DestroyFramebuffer")
	d.destroy(framebuffer.(*fakeObject))
}

func (d *fakeDevice) AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, error) {
	if err := d.op("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	buffers := make([]CommandBuffer, count)
	for i := range buffers {
		buffers[i] = &fakeCommandBuffer{fakeObject: d.newObject("commandBuffer"), swapchain: d.currentSwapchain}
	}
	return buffers, nil
}

func (d *fakeDevice) FreeCommandBuffers(pool CommandPool, buffers []CommandBuffer) {
	d.ops = append(d.ops, "FreeCommandBuffers")
	for _, buffer := range buffers {
		d.destroy(&buffer.(*fakeCommandBuffer).fakeObject)
	}
}

func (d *fakeDevice) BeginCommandBuffer(buffer CommandBuffer, simultaneousUse bool) error {
	if err := d.op("BeginCommandBuffer"); err != nil {
		return err
	}
	cb := buffer.(*fakeCommandBuffer)
	cb.recording = true
	cb.beginUse = simultaneousUse
	return nil
}

func (d *fakeDevice) record(buffer CommandBuffer, command string) {
	cb := buffer.(*fakeCommandBuffer)
	if !cb.recording {
		panic(command + " outside recording")
	}
	cb.commands = append(cb.commands, command)
}

func (d *fakeDevice) CmdBeginRenderPass(buffer CommandBuffer, begin RenderPassBegin) error {
	if err := d.op("CmdBeginRenderPass"); err != nil {
		return err
	}
	d.record(buffer, "BeginRenderPass")
	return nil
}

func (d *fakeDevice) CmdBindPipeline(buffer CommandBuffer, pipeline GraphicsPipeline) {
	d.record(buffer, "BindPipeline")
}

func (d *fakeDevice) CmdSetViewport(buffer CommandBuffer, viewport core1_0.Viewport) {
	d.record(buffer, "SetViewport")
}

func (d *fakeDevice) CmdSetScissor(buffer CommandBuffer, scissor core1_0.Rect2D) {
	d.record(buffer, "SetScissor")
}

func (d *fakeDevice) CmdDraw(buffer CommandBuffer, vertexCount, instanceCount int) {
	d.record(buffer, fmt.Sprintf("Draw(%d,%d)", vertexCount, instanceCount))
}

func (d *fakeDevice) CmdEndRenderPass(buffer CommandBuffer) {
	d.record(buffer, "EndRenderPass")
}

func (d *fakeDevice) EndCommandBuffer(buffer CommandBuffer) error {
	if err := d.op("EndCommandBuffer"); err != nil {
		return err
	}
	buffer.(*fakeCommandBuffer).recording = false
	return nil
}

func (d *fakeDevice) CreateSemaphore() (Semaphore, error) {
	if err := d.op("CreateSemaphore"); err != nil {
		return nil, err
	}
	return &fakeSemaphore{fakeObject: d.newObject("semaphore")}, nil
}

func (d *fakeDevice) DestroySemaphore(semaphore Semaphore) {
	d.destroy(&semaphore.(*fakeSemaphore).fakeObject)
}

func (d *fakeDevice) CreateFence(signaled bool) (Fence, error) {
	if err := d.op("CreateFence"); err != nil {
		return nil, err
	}
	return &fakeFence{fakeObject: d.newObject("fence"), signaled: signaled}, nil
}

func (d *fakeDevice) DestroyFence(fence Fence) {
	d.destroy(&fence.(*fakeFence).fakeObject)
}

// complete retires queued submissions in order until fence is signaled.
func (d *fakeDevice) complete(fence *fakeFence) {
	for len(d.queue) > 0 && !fence.signaled {
		s := d.queue[0]
		d.queue = d.queue[1:]
		d.retire(s)
	}
}

func (d *fakeDevice) retire(s submission) {
	if s.info.Fence != nil {
		f := s.info.Fence.(*fakeFence)
		f.signaled = true
		f.pending = false
		d.inFlight--
	}
}

func (d *fakeDevice) WaitForFence(fence Fence) error {
	if err := d.op("WaitForFence"); err != nil {
		return err
	}
	f := fence.(*fakeFence)
	if f.signaled {
		return nil
	}
	if !f.pending {
		return errors.New("deadlock: waiting on a fence no submission will signal")
	}
	d.complete(f)
	return nil
}

func (d *fakeDevice) ResetFence(fence Fence) error {
	if err := d.op("ResetFence"); err != nil {
		return err
	}
	f := fence.(*fakeFence)
	if f.pending {
		return errors.New("reset of a fence still in use")
	}
	f.signaled = false
	return nil
}

func (d *fakeDevice) AcquireNextImage(swapchain Swapchain, signal Semaphore) (int, error) {
	if err := d.op("AcquireNextImage"); err != nil {
		return 0, err
	}
	sc := swapchain.(*fakeSwapchain)
	if sc.destroyed {
		return 0, errors.New("acquire on destroyed swapchain")
	}
	sem := signal.(*fakeSemaphore)
	if sem.signaled {
		return 0, errors.New("acquire into a semaphore with a pending signal")
	}

	result := acquireResult{index: d.acquireCalls % len(sc.images)}
	if len(d.acquireScript) > 0 {
		result = d.acquireScript[0]
		d.acquireScript = d.acquireScript[1:]
	}
	d.acquireCalls++

	if errors.Is(result.err, ErrOutOfDate) {
		return 0, result.err
	}
	sem.signaled = true
	return result.index, result.err
}

func (d *fakeDevice) Submit(info SubmitInfo) error {
	if err := d.op("Submit"); err != nil {
		return err
	}
	if d.onSubmit != nil {
		d.onSubmit()
	}
	wait := info.Wait.(*fakeSemaphore)
	if !wait.signaled {
		return errors.New("submit waits on a semaphore that will never signal")
	}
	wait.signaled = false

	if info.Buffer != nil {
		cb := info.Buffer.(*fakeCommandBuffer)
		if cb.destroyed || cb.swapchain.destroyed {
			return errors.New("submit of a stale command buffer")
		}
	}
	if info.Signal != nil {
		info.Signal.(*fakeSemaphore).signaled = true
	}
	if info.Fence != nil {
		f := info.Fence.(*fakeFence)
		if f.signaled || f.pending {
			return errors.New("submit with a fence that was not reset")
		}
		f.pending = true
		d.inFlight++
		if d.inFlight > d.maxInFlight {
			d.maxInFlight = d.inFlight
		}
	}

	d.submits = append(d.submits, info)
	d.queue = append(d.queue, submission{info: info})
	return nil
}

func (d *fakeDevice) Present(info PresentInfo) error {
	if err := d.op("Present"); err != nil {
		return err
	}
	if d.onPresent != nil {
		d.onPresent()
	}
	wait := info.Wait.(*fakeSemaphore)
	if !wait.signaled {
		return errors.New("present waits on a semaphore that will never signal")
	}
	wait.signaled = false
	d.presents = append(d.presents, info)

	if len(d.presentScript) > 0 {
		err := d.presentScript[0]
		d.presentScript = d.presentScript[1:]
		return err
	}
	return nil
}

func (d *fakeDevice) WaitIdle() error {
	if err := d.op("WaitIdle"); err != nil {
		return err
	}
	d.idleWaits++
	for len(d.queue) > 0 {
		s := d.queue[0]
		d.queue = d.queue[1:]
		d.retire(s)
	}
	return nil
}

type fakeWindow struct {
	width, height int
}

func (w *fakeWindow) DrawableSize() (int, int) { return w.width, w.height }

type fakePipelines struct {
	built   []core1_0.Format
	live    int
	failErr error
}

func (p *fakePipelines) BuildPipeline(format core1_0.Format) (Pipeline, error) {
	if p.failErr != nil {
		return Pipeline{}, p.failErr
	}
	p.built = append(p.built, format)
	p.live++
	return Pipeline{
		RenderPass: &fakeObject{kind: "renderPass"},
		Pipeline:   &fakeObject{kind: "pipeline"},
		Format:     format,
	}, nil
}

func (p *fakePipelines) DestroyPipeline(pipeline Pipeline) {
	p.live--
}
