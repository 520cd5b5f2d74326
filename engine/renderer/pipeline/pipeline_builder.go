package pipeline

import (
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/shader"
)

// PipelineBuilderOption is a function that configures a pipeline instance during construction.
type PipelineBuilderOption func(*pipeline)

// WithKey is an option builder that sets the unique identifier of the pipeline.
//
// Parameters:
//   - key: the identifier for the pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that applies the key option to a pipeline
func WithKey(key string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.key = key
	}
}

// WithShaders is an option builder that appends shader stages to the
// pipeline in declaration order.
//
// Parameters:
//   - shaders: the shader stages to add
//
// Returns:
//   - PipelineBuilderOption: a function that applies the shaders option to a pipeline
func WithShaders(shaders ...shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.shaders = append(p.shaders, shaders...)
	}
}

// WithHitGroups is an option builder that declares the pipeline's hit groups
// explicitly, in binding table order. When omitted, a single hit group is
// derived from the closest-hit and intersection stages present.
//
// Parameters:
//   - groups: the hit groups referencing shaders by key
//
// Returns:
//   - PipelineBuilderOption: a function that applies the hit groups option to a pipeline
func WithHitGroups(groups ...HitGroup) PipelineBuilderOption {
	return func(p *pipeline) {
		p.hitGroups = append(p.hitGroups, groups...)
	}
}

// WithMaxRecursionDepth is an option builder that sets the maximum ray
// recursion depth. Defaults to 1, primary rays only.
//
// Parameters:
//   - depth: the recursion depth
//
// Returns:
//   - PipelineBuilderOption: a function that applies the recursion option to a pipeline
func WithMaxRecursionDepth(depth uint32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.maxRecursion = depth
	}
}
