package renderer

import (
	vk "github.com/goki/vulkan"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/window"
)

// vulkanBackend is the implementation of the vulkanRendererBackend interface.
// It owns the Vulkan driver created against the window's surface.
type vulkanBackend struct {
	drv driver.Driver
}

var _ vulkanRendererBackend = &vulkanBackend{}

// newVulkanRendererBackend brings up the Vulkan device against the given
// window's surface. Panics on failure, since a renderer without a device has
// nothing to fall back to.
func newVulkanRendererBackend(win window.Window, appName string, enableValidation bool) *vulkanBackend {
	drv := driver.NewVulkan(driver.VulkanConfig{
		AppName:             appName,
		EnableValidation:    enableValidation,
		InstanceExtensions:  win.InstanceExtensions(),
		GetInstanceProcAddr: win.InstanceProcAddr(),
		CreateSurface: func(instance vk.Instance) (uintptr, error) {
			return win.CreateSurface(instance)
		},
	})
	return &vulkanBackend{drv: drv}
}

func (b *vulkanBackend) Driver() driver.Driver {
	return b.drv
}

func (b *vulkanBackend) Destroy() {
	b.drv.Destroy()
}
