package renderer

import (
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithDriver injects a pre-built driver instead of creating a backend from
// the window surface. The renderer does not take ownership of an injected
// driver; the caller destroys it.
//
// Parameters:
//   - drv: the driver to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the driver option to a renderer
func WithDriver(drv driver.Driver) RendererBuilderOption {
	return func(r *renderer) {
		r.drv = drv
	}
}

// WithAppName sets the application name reported to the GPU driver.
//
// Parameters:
//   - name: the application name
//
// Returns:
//   - RendererBuilderOption: a function that applies the app name option to a renderer
func WithAppName(name string) RendererBuilderOption {
	return func(r *renderer) {
		r.appName = name
	}
}

// WithValidation enables the GPU validation layer when the backend is
// created. Validation is off by default and costs performance; use it
// during development only.
//
// Parameters:
//   - enable: true to enable validation
//
// Returns:
//   - RendererBuilderOption: a function that applies the validation option to a renderer
func WithValidation(enable bool) RendererBuilderOption {
	return func(r *renderer) {
		r.enableValidation = enable
	}
}

// WithUniformBufferSize sets the size of the per-frame uniform buffer.
// When not specified, the default is 256 bytes, which fits the standard
// camera uniform block.
//
// Parameters:
//   - size: the uniform buffer size in bytes
//
// Returns:
//   - RendererBuilderOption: a function that applies the uniform buffer size option to a renderer
func WithUniformBufferSize(size uint64) RendererBuilderOption {
	return func(r *renderer) {
		r.uniformSize = size
	}
}
