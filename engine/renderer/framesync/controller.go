// Package framesync drives the per-frame acquire/record/submit/present cycle
// and the swapchain recreation path. A single thread issues every driver
// call; the GPU runs one frame behind, throttled by the fence protocol.
package framesync

import (
	"errors"
	"fmt"
	"log"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/sbt"
)

// controller is the implementation of the Controller interface.
type controller struct {
	drv driver.Driver

	swapchain       driver.Swapchain
	swapchainImages []driver.Image
	extent          driver.Extent2D
	target          gpu.RenderTarget

	pipeline       driver.Pipeline
	pipelineLayout driver.PipelineLayout
	descriptorSet  driver.DescriptorSet
	table          sbt.Table
	uniformBuffer  gpu.Buffer
	imageBinding   uint32

	drawCmd  driver.CommandBuffer
	setupCmd driver.CommandBuffer

	// The reuse fences start signaled so the first frame's waits pass. The
	// acquire fence starts unsignaled: it is armed by a successful acquire
	// and acquirePending tracks whether a wait on it will ever complete.
	drawFence      driver.Fence
	setupFence     driver.Fence
	acquireFence   driver.Fence
	acquirePending bool

	presentComplete driver.Semaphore
	renderComplete  driver.Semaphore

	ready bool
}

// Controller defines the interface for the frame loop. RenderFrame performs
// one full acquire/record/submit/present cycle; OnResize forces swapchain
// recreation at the next opportunity. All methods must be called from the
// thread that owns the driver.
type Controller interface {
	// RenderFrame runs one frame: waits for the previous acquire and draw
	// to retire, records the uniform update, the ray dispatch, and the copy
	// to the acquired swapchain image, submits, and presents. A stale
	// swapchain triggers recreation instead of an error.
	//
	// Parameters:
	//   - uniformData: bytes written into the uniform buffer before the
	//     dispatch, or nil to skip the update
	//
	// Returns:
	//   - error: an error if any driver call fails for a reason other than
	//     a stale swapchain
	RenderFrame(uniformData []byte) error

	// OnResize recreates the swapchain and render target at the current
	// surface resolution. Acceleration structures and the shader binding
	// table are resolution independent and untouched.
	//
	// Returns:
	//   - error: an error if recreation fails
	OnResize() error

	// Setup records one-time work on the dedicated setup command buffer,
	// gated by the setup-reuse fence so back-to-back setup submissions
	// never overlap.
	//
	// Parameters:
	//   - record: callback that records commands into the setup command buffer
	//
	// Returns:
	//   - error: an error if recording or submission fails
	Setup(record func(cb driver.CommandBuffer) error) error

	// Extent retrieves the current swapchain resolution.
	//
	// Returns:
	//   - driver.Extent2D: the swapchain extent
	Extent() driver.Extent2D

	// Destroy waits for the device to go idle and releases every object the
	// controller owns. Safe to call more than once.
	Destroy()
}

var _ Controller = &controller{}

// NewController creates the frame loop state: swapchain, render target,
// command buffers, pre-signaled reuse fences, and the two frame semaphores.
// The render target view is written into the descriptor set's storage image
// binding before the first frame.
//
// Parameters:
//   - drv: the driver to render on
//   - options: variadic list of ControllerBuilderOption functions to configure the controller
//
// Returns:
//   - Controller: the ready controller
//   - error: an error if any resource creation fails
func NewController(drv driver.Driver, options ...ControllerBuilderOption) (Controller, error) {
	c := &controller{
		drv:          drv,
		imageBinding: 1,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.table == nil {
		return nil, fmt.Errorf("controller requires a shader binding table")
	}
	if c.uniformBuffer == nil {
		return nil, fmt.Errorf("controller requires a uniform buffer")
	}

	if err := c.createSwapchainResources(0); err != nil {
		return nil, err
	}

	cbs, err := drv.AllocateCommandBuffers(2)
	if err != nil {
		c.destroySwapchainResources()
		return nil, fmt.Errorf("failed to allocate frame command buffers: %w", err)
	}
	c.drawCmd, c.setupCmd = cbs[0], cbs[1]

	if c.drawFence, err = drv.CreateFence(true); err != nil {
		return nil, fmt.Errorf("failed to create draw fence: %w", err)
	}
	if c.setupFence, err = drv.CreateFence(true); err != nil {
		return nil, fmt.Errorf("failed to create setup fence: %w", err)
	}
	if c.acquireFence, err = drv.CreateFence(false); err != nil {
		return nil, fmt.Errorf("failed to create acquire fence: %w", err)
	}
	if c.presentComplete, err = drv.CreateSemaphore(); err != nil {
		return nil, fmt.Errorf("failed to create present semaphore: %w", err)
	}
	if c.renderComplete, err = drv.CreateSemaphore(); err != nil {
		return nil, fmt.Errorf("failed to create render semaphore: %w", err)
	}

	c.ready = true
	return c, nil
}

// createSwapchainResources builds the swapchain at the current surface
// extent, chaining oldSwapchain when recreating, plus the render target, and
// points the storage image descriptor at the new target.
func (c *controller) createSwapchainResources(oldSwapchain driver.Swapchain) error {
	c.extent = c.drv.SurfaceExtent()

	swapchain, err := c.drv.CreateSwapchain(driver.SwapchainSpec{
		Extent:       c.extent,
		OldSwapchain: oldSwapchain,
	})
	if err != nil {
		return fmt.Errorf("failed to create swapchain: %w", err)
	}
	c.swapchain = swapchain

	if c.swapchainImages, err = c.drv.SwapchainImages(swapchain); err != nil {
		return fmt.Errorf("failed to query swapchain images: %w", err)
	}

	if c.target, err = gpu.NewRenderTarget(c.drv, gpu.WithExtent(c.extent)); err != nil {
		return fmt.Errorf("failed to create render target: %w", err)
	}

	if c.descriptorSet != 0 {
		c.drv.UpdateStorageImageDescriptor(c.descriptorSet, c.imageBinding, c.target.View())
	}
	return nil
}

func (c *controller) destroySwapchainResources() {
	if c.target != nil {
		c.target.Destroy()
		c.target = nil
	}
	if c.swapchain != 0 {
		c.drv.DestroySwapchain(c.swapchain)
		c.swapchain = 0
	}
}

func (c *controller) RenderFrame(uniformData []byte) error {
	imageIndex, err := c.acquire()
	if err != nil {
		return err
	}

	if err := c.drv.WaitForFences([]driver.Fence{c.drawFence}); err != nil {
		return fmt.Errorf("failed to wait for draw fence: %w", err)
	}
	if err := c.drv.ResetFences([]driver.Fence{c.drawFence}); err != nil {
		return fmt.Errorf("failed to reset draw fence: %w", err)
	}

	if err := c.record(imageIndex, uniformData); err != nil {
		return err
	}

	err = c.drv.QueueSubmit(driver.SubmitInfo{
		WaitSemaphores:   []driver.Semaphore{c.presentComplete},
		WaitStages:       []driver.PipelineStageFlags{driver.StageColorAttachmentOutput},
		CommandBuffers:   []driver.CommandBuffer{c.drawCmd},
		SignalSemaphores: []driver.Semaphore{c.renderComplete},
	}, c.drawFence)
	if err != nil {
		return fmt.Errorf("failed to submit frame: %w", err)
	}

	err = c.drv.QueuePresent(driver.PresentInfo{
		WaitSemaphores: []driver.Semaphore{c.renderComplete},
		Swapchain:      c.swapchain,
		ImageIndex:     imageIndex,
	})
	if errors.Is(err, driver.ErrOutOfDate) || errors.Is(err, driver.ErrSuboptimal) {
		return c.OnResize()
	}
	if err != nil {
		return fmt.Errorf("failed to present frame: %w", err)
	}
	return nil
}

// acquire waits for the previous acquire to retire, then acquires the next
// swapchain image. The dedicated fence throttles acquisition to the GPU's
// pace, since acquire itself is asynchronous on some drivers. A stale
// swapchain recreates and retries. An out-of-date acquire does not signal
// the fence, so the wait runs only while a previous acquire has it armed.
func (c *controller) acquire() (uint32, error) {
	for {
		if c.acquirePending {
			if err := c.drv.WaitForFences([]driver.Fence{c.acquireFence}); err != nil {
				return 0, fmt.Errorf("failed to wait for acquire fence: %w", err)
			}
			if err := c.drv.ResetFences([]driver.Fence{c.acquireFence}); err != nil {
				return 0, fmt.Errorf("failed to reset acquire fence: %w", err)
			}
			c.acquirePending = false
		}

		imageIndex, err := c.drv.AcquireNextImage(c.swapchain, c.presentComplete, c.acquireFence)
		if errors.Is(err, driver.ErrOutOfDate) {
			if err := c.recreate(); err != nil {
				return 0, err
			}
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to acquire swapchain image: %w", err)
		}
		c.acquirePending = true
		return imageIndex, nil
	}
}

// record writes the frame's command buffer: uniform update fenced by
// read/write barriers, the ray dispatch, and the copy of the render target
// into the acquired swapchain image with explicit layout transitions.
func (c *controller) record(imageIndex uint32, uniformData []byte) error {
	drv := c.drv
	cb := c.drawCmd

	if err := drv.ResetCommandBuffer(cb, true); err != nil {
		return fmt.Errorf("failed to reset frame command buffer: %w", err)
	}
	if err := drv.BeginCommandBuffer(cb, true); err != nil {
		return fmt.Errorf("failed to begin frame command buffer: %w", err)
	}

	if len(uniformData) > 0 {
		// The previous frame's dispatch may still read the uniform buffer,
		// so the update is bracketed read-to-write and write-to-read.
		drv.CmdPipelineBarrier(cb, driver.StageRayTracingShader, driver.StageTransfer,
			[]driver.MemoryBarrier{{SrcAccess: driver.AccessShaderRead, DstAccess: driver.AccessTransferWrite}}, nil)
		drv.CmdUpdateBuffer(cb, c.uniformBuffer.Handle(), 0, uniformData)
		drv.CmdPipelineBarrier(cb, driver.StageTransfer, driver.StageRayTracingShader,
			[]driver.MemoryBarrier{{SrcAccess: driver.AccessTransferWrite, DstAccess: driver.AccessShaderRead}}, nil)
	}

	drv.CmdBindRayTracingPipeline(cb, c.pipeline)
	drv.CmdBindDescriptorSets(cb, c.pipelineLayout, []driver.DescriptorSet{c.descriptorSet})
	drv.CmdTraceRays(cb, c.table.Raygen(), c.table.Miss(), c.table.Hit(), c.table.Callable(),
		c.extent.Width, c.extent.Height, 1)

	swapImage := c.swapchainImages[imageIndex]
	rtImage := c.target.Image()

	drv.CmdPipelineBarrier(cb, driver.StageTopOfPipe, driver.StageTransfer, nil, []driver.ImageBarrier{{
		Image:     swapImage,
		OldLayout: driver.LayoutUndefined,
		NewLayout: driver.LayoutTransferDst,
		DstAccess: driver.AccessTransferWrite,
	}})
	drv.CmdPipelineBarrier(cb, driver.StageRayTracingShader, driver.StageTransfer, nil, []driver.ImageBarrier{{
		Image:     rtImage,
		OldLayout: driver.LayoutGeneral,
		NewLayout: driver.LayoutTransferSrc,
		SrcAccess: driver.AccessShaderWrite,
		DstAccess: driver.AccessTransferRead,
	}})
	drv.CmdCopyImage(cb, rtImage, driver.LayoutTransferSrc, swapImage, driver.LayoutTransferDst, c.extent)
	drv.CmdPipelineBarrier(cb, driver.StageTransfer, driver.StageBottomOfPipe, nil, []driver.ImageBarrier{{
		Image:     swapImage,
		OldLayout: driver.LayoutTransferDst,
		NewLayout: driver.LayoutPresentSrc,
		SrcAccess: driver.AccessTransferWrite,
		DstAccess: driver.AccessMemoryRead,
	}})
	drv.CmdPipelineBarrier(cb, driver.StageTransfer, driver.StageRayTracingShader, nil, []driver.ImageBarrier{{
		Image:     rtImage,
		OldLayout: driver.LayoutTransferSrc,
		NewLayout: driver.LayoutGeneral,
		SrcAccess: driver.AccessTransferRead,
		DstAccess: driver.AccessShaderWrite,
	}})

	if err := drv.EndCommandBuffer(cb); err != nil {
		return fmt.Errorf("failed to end frame command buffer: %w", err)
	}
	return nil
}

func (c *controller) Setup(record func(cb driver.CommandBuffer) error) error {
	if err := c.drv.WaitForFences([]driver.Fence{c.setupFence}); err != nil {
		return fmt.Errorf("failed to wait for setup fence: %w", err)
	}
	if err := c.drv.ResetFences([]driver.Fence{c.setupFence}); err != nil {
		return fmt.Errorf("failed to reset setup fence: %w", err)
	}
	if err := c.drv.ResetCommandBuffer(c.setupCmd, true); err != nil {
		return fmt.Errorf("failed to reset setup command buffer: %w", err)
	}
	if err := c.drv.BeginCommandBuffer(c.setupCmd, true); err != nil {
		return fmt.Errorf("failed to begin setup command buffer: %w", err)
	}
	if err := record(c.setupCmd); err != nil {
		return err
	}
	if err := c.drv.EndCommandBuffer(c.setupCmd); err != nil {
		return fmt.Errorf("failed to end setup command buffer: %w", err)
	}
	if err := c.drv.QueueSubmit(driver.SubmitInfo{
		CommandBuffers: []driver.CommandBuffer{c.setupCmd},
	}, c.setupFence); err != nil {
		return fmt.Errorf("failed to submit setup command buffer: %w", err)
	}
	return nil
}

func (c *controller) OnResize() error {
	return c.recreate()
}

// recreate rebuilds the swapchain and render target at the current surface
// resolution. The new swapchain chains the old one for driver-assisted
// resource reuse, then the old chain is destroyed.
func (c *controller) recreate() error {
	if err := c.drv.DeviceWaitIdle(); err != nil {
		return fmt.Errorf("failed to wait for device idle before recreation: %w", err)
	}

	c.target.Destroy()
	c.target = nil

	old := c.swapchain
	c.swapchain = 0
	if err := c.createSwapchainResources(old); err != nil {
		c.drv.DestroySwapchain(old)
		return err
	}
	c.drv.DestroySwapchain(old)

	log.Printf("[FrameSync] swapchain recreated at %dx%d", c.extent.Width, c.extent.Height)
	return nil
}

func (c *controller) Extent() driver.Extent2D {
	return c.extent
}

func (c *controller) Destroy() {
	if !c.ready {
		return
	}
	if err := c.drv.DeviceWaitIdle(); err != nil {
		log.Printf("[FrameSync] device wait before teardown failed: %v", err)
	}
	c.drv.FreeCommandBuffers([]driver.CommandBuffer{c.drawCmd, c.setupCmd})
	c.drv.DestroyFence(c.drawFence)
	c.drv.DestroyFence(c.setupFence)
	c.drv.DestroyFence(c.acquireFence)
	c.drv.DestroySemaphore(c.presentComplete)
	c.drv.DestroySemaphore(c.renderComplete)
	c.destroySwapchainResources()
	c.ready = false
}
