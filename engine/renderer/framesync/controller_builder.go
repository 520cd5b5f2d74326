package framesync

import (
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/sbt"
)

// ControllerBuilderOption is a function that configures a controller instance during construction.
type ControllerBuilderOption func(*controller)

// WithPipeline is an option builder that sets the ray-tracing pipeline and
// its layout bound each frame.
//
// Parameters:
//   - pipeline: the ray-tracing pipeline handle
//   - layout: the pipeline layout used for descriptor binding
//
// Returns:
//   - ControllerBuilderOption: a function that applies the pipeline option to a controller
func WithPipeline(pipeline driver.Pipeline, layout driver.PipelineLayout) ControllerBuilderOption {
	return func(c *controller) {
		c.pipeline = pipeline
		c.pipelineLayout = layout
	}
}

// WithDescriptorSet is an option builder that sets the frame descriptor set.
// The controller rewrites its storage image binding whenever the render
// target is recreated.
//
// Parameters:
//   - set: the descriptor set bound each frame
//
// Returns:
//   - ControllerBuilderOption: a function that applies the descriptor set option to a controller
func WithDescriptorSet(set driver.DescriptorSet) ControllerBuilderOption {
	return func(c *controller) {
		c.descriptorSet = set
	}
}

// WithShaderBindingTable is an option builder that sets the shader binding
// table whose regions are passed to every trace command.
//
// Parameters:
//   - table: the built shader binding table
//
// Returns:
//   - ControllerBuilderOption: a function that applies the table option to a controller
func WithShaderBindingTable(table sbt.Table) ControllerBuilderOption {
	return func(c *controller) {
		c.table = table
	}
}

// WithUniformBuffer is an option builder that sets the uniform buffer the
// per-frame update command writes into.
//
// Parameters:
//   - buffer: the uniform buffer
//
// Returns:
//   - ControllerBuilderOption: a function that applies the uniform buffer option to a controller
func WithUniformBuffer(buffer gpu.Buffer) ControllerBuilderOption {
	return func(c *controller) {
		c.uniformBuffer = buffer
	}
}

// WithStorageImageBinding is an option builder that sets the descriptor
// binding index of the render target storage image. Defaults to binding 1.
//
// Parameters:
//   - binding: the storage image binding index
//
// Returns:
//   - ControllerBuilderOption: a function that applies the binding option to a controller
func WithStorageImageBinding(binding uint32) ControllerBuilderOption {
	return func(c *controller) {
		c.imageBinding = binding
	}
}
