package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

// OneShot records commands into a freshly allocated command buffer, submits
// it, and blocks until the queue is idle before freeing the buffer. Used for
// setup work such as acceleration structure builds and initial layout
// transitions, where overlap with other GPU work is not needed.
//
// Parameters:
//   - drv: the driver to submit on
//   - record: callback that records commands into the provided command buffer
//
// Returns:
//   - error: an error if allocation, recording, submission, or the queue wait fails
func OneShot(drv driver.Driver, record func(cb driver.CommandBuffer) error) error {
	cbs, err := drv.AllocateCommandBuffers(1)
	if err != nil {
		return fmt.Errorf("failed to allocate one-shot command buffer: %w", err)
	}
	cb := cbs[0]
	defer drv.FreeCommandBuffers(cbs)

	if err := drv.BeginCommandBuffer(cb, true); err != nil {
		return fmt.Errorf("failed to begin one-shot command buffer: %w", err)
	}
	if err := record(cb); err != nil {
		return err
	}
	if err := drv.EndCommandBuffer(cb); err != nil {
		return fmt.Errorf("failed to end one-shot command buffer: %w", err)
	}

	if err := drv.QueueSubmit(driver.SubmitInfo{CommandBuffers: []driver.CommandBuffer{cb}}, 0); err != nil {
		return fmt.Errorf("failed to submit one-shot command buffer: %w", err)
	}
	if err := drv.QueueWaitIdle(); err != nil {
		return fmt.Errorf("failed to wait for one-shot completion: %w", err)
	}
	return nil
}
