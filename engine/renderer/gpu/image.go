package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/vkrt-go/common"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

// renderTarget is the implementation of the RenderTarget interface.
type renderTarget struct {
	drv    driver.Driver
	image  driver.Image
	view   driver.ImageView
	memory driver.Memory
	extent driver.Extent2D
	format driver.Format
	ready  bool
}

// RenderTarget defines the interface for the storage image that ray tracing
// writes into. The image is created in the general layout and is expected to
// be returned to it after every frame's copy to the swapchain.
type RenderTarget interface {
	// Image retrieves the underlying driver image handle.
	//
	// Returns:
	//   - driver.Image: the driver handle of the image
	Image() driver.Image

	// View retrieves the image view used for the storage image descriptor.
	//
	// Returns:
	//   - driver.ImageView: the driver handle of the image view
	View() driver.ImageView

	// Extent retrieves the dimensions of the image.
	//
	// Returns:
	//   - driver.Extent2D: the image width and height
	Extent() driver.Extent2D

	// Format retrieves the pixel format of the image.
	//
	// Returns:
	//   - driver.Format: the image format
	Format() driver.Format

	// Destroy releases the image view, image, and backing memory. Safe to
	// call more than once.
	Destroy()
}

var _ RenderTarget = &renderTarget{}

// NewRenderTarget creates the ray-tracing output image with bound
// device-local memory and an image view, and transitions it from the
// undefined to the general layout with a one-shot submission.
//
// Parameters:
//   - drv: the driver to create the image on
//   - options: variadic list of RenderTargetBuilderOption functions to configure the image
//
// Returns:
//   - RenderTarget: the ready render target
//   - error: an error if creation, allocation, binding, or the layout transition fails
func NewRenderTarget(drv driver.Driver, options ...RenderTargetBuilderOption) (RenderTarget, error) {
	rt := &renderTarget{
		drv: drv,
	}
	for _, opt := range options {
		opt(rt)
	}
	rt.format = common.Coalesce(rt.format, drv.SurfaceFormat())
	rt.extent = common.Coalesce(rt.extent, drv.SurfaceExtent())

	image, err := drv.CreateImage(driver.ImageSpec{
		Extent: rt.extent,
		Format: rt.format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render target image: %w", err)
	}
	rt.image = image

	req := drv.ImageMemoryRequirements(image)
	typeIndex, err := FindMemoryType(drv.MemoryTypes(), req.MemoryTypeBits, driver.MemoryDeviceLocal)
	if err != nil {
		drv.DestroyImage(image)
		return nil, err
	}
	memory, err := drv.AllocateMemory(req.Size, typeIndex, false)
	if err != nil {
		drv.DestroyImage(image)
		return nil, fmt.Errorf("failed to allocate image memory: %w", err)
	}
	rt.memory = memory

	if err := drv.BindImageMemory(image, memory); err != nil {
		drv.FreeMemory(memory)
		drv.DestroyImage(image)
		return nil, fmt.Errorf("failed to bind image memory: %w", err)
	}

	view, err := drv.CreateImageView(image, rt.format)
	if err != nil {
		drv.FreeMemory(memory)
		drv.DestroyImage(image)
		return nil, fmt.Errorf("failed to create image view: %w", err)
	}
	rt.view = view

	err = OneShot(drv, func(cb driver.CommandBuffer) error {
		drv.CmdPipelineBarrier(cb, driver.StageTopOfPipe, driver.StageRayTracingShader, nil, []driver.ImageBarrier{{
			Image:     image,
			OldLayout: driver.LayoutUndefined,
			NewLayout: driver.LayoutGeneral,
			DstAccess: driver.AccessShaderWrite,
		}})
		return nil
	})
	if err != nil {
		rt.destroyResources()
		return nil, fmt.Errorf("failed to transition render target layout: %w", err)
	}

	rt.ready = true
	return rt, nil
}

func (rt *renderTarget) Image() driver.Image {
	return rt.image
}

func (rt *renderTarget) View() driver.ImageView {
	return rt.view
}

func (rt *renderTarget) Extent() driver.Extent2D {
	return rt.extent
}

func (rt *renderTarget) Format() driver.Format {
	return rt.format
}

func (rt *renderTarget) Destroy() {
	if !rt.ready {
		return
	}
	rt.destroyResources()
	rt.ready = false
}

func (rt *renderTarget) destroyResources() {
	rt.drv.DestroyImageView(rt.view)
	rt.drv.DestroyImage(rt.image)
	rt.drv.FreeMemory(rt.memory)
}
