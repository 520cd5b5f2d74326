package gpu

import "github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"

// RenderTargetBuilderOption is a function that configures a render target instance during construction.
type RenderTargetBuilderOption func(*renderTarget)

// WithExtent is an option builder that sets the dimensions of the render
// target. Defaults to the current surface extent.
//
// Parameters:
//   - extent: the image width and height
//
// Returns:
//   - RenderTargetBuilderOption: a function that applies the extent option to a render target
func WithExtent(extent driver.Extent2D) RenderTargetBuilderOption {
	return func(rt *renderTarget) {
		rt.extent = extent
	}
}

// WithFormat is an option builder that sets the pixel format of the render
// target. Defaults to the surface format so the frame copy needs no
// conversion.
//
// Parameters:
//   - format: the image format
//
// Returns:
//   - RenderTargetBuilderOption: a function that applies the format option to a render target
func WithFormat(format driver.Format) RenderTargetBuilderOption {
	return func(rt *renderTarget) {
		rt.format = format
	}
}
