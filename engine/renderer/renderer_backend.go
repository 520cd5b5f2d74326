package renderer

import "github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeVulkan selects the Vulkan ray-tracing backend.
	BackendTypeVulkan RendererBackendType = iota
)

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	vulkanRendererBackend
}

// vulkanRendererBackend is the backend surface the facade needs: device
// bring-up and teardown. Everything else goes through the typed driver.
type vulkanRendererBackend interface {
	// Driver retrieves the typed driver bound to the backend's device.
	//
	// Returns:
	//   - driver.Driver: the driver
	Driver() driver.Driver

	// Destroy tears down the device, surface, and instance.
	Destroy()
}
