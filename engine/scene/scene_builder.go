package scene

import (
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithGeometries registers initial geometry sources. Their indices follow
// registration order, starting at zero.
//
// Parameters:
//   - sources: the geometry sources to register
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithGeometries(sources ...GeometrySource) SceneBuilderOption {
	return func(s *scene) {
		s.sources = append(s.sources, sources...)
	}
}

// WithInstances registers initial instance placements.
//
// Parameters:
//   - descs: the instance placements to register
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithInstances(descs ...renderer.InstanceDesc) SceneBuilderOption {
	return func(s *scene) {
		s.instances = append(s.instances, descs...)
	}
}
