// Package scene stages geometry and instance data for the renderer. A scene
// collects geometry sources and instance placements, then builds the GPU
// acceleration structures through the renderer in one shot. Scenes are static
// once built.
package scene

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/vkrt-go/engine/camera"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/accel"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

// GeometrySource creates one geometry input on the given driver. Sources are
// invoked during Build so the scene can be described before the GPU exists.
type GeometrySource func(drv driver.Driver) (accel.Geometry, error)

type scene struct {
	mu *sync.Mutex

	name     string
	cam      camera.Camera
	renderer renderer.Renderer

	sources   []GeometrySource
	instances []renderer.InstanceDesc

	built bool
}

// Scene manages the geometry sources and instance placements of one static
// world, with a Camera and Renderer for rendering. Geometry is described
// up front and committed to GPU acceleration structures by Build.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// AddGeometry registers a geometry source and returns its index, used as
	// GeometryIndex by instance placements. Must be called before Build.
	//
	// Parameters:
	//   - source: the geometry source to register
	//
	// Returns:
	//   - int: the geometry index
	//   - error: an error if the scene is already built
	AddGeometry(source GeometrySource) (int, error)

	// AddInstance registers an instance placement. Must be called before Build.
	//
	// Parameters:
	//   - desc: the instance placement
	//
	// Returns:
	//   - error: an error if the scene is already built
	AddInstance(desc renderer.InstanceDesc) error

	// Build commits the scene to the GPU: every geometry source is realized
	// on the renderer's driver, acceleration structures are built, and the
	// camera's aspect ratio is synced to the render extent. A scene builds
	// at most once.
	//
	// Returns:
	//   - error: an error if the scene is empty, already built, or a GPU build fails
	Build() error

	// Built reports whether Build has completed successfully.
	//
	// Returns:
	//   - bool: true once the scene's acceleration structures exist
	Built() bool

	// Update advances per-frame camera state and returns the uniform bytes
	// for the renderer. Call once per frame before RenderFrame.
	//
	// Returns:
	//   - []byte: the marshaled camera uniforms
	Update() []byte
}

var _ Scene = &scene{}

// NewScene creates a new Scene with the given camera and renderer. Both are
// required and NewScene panics if either is nil. Geometry and instances can
// be supplied through options or added afterwards, before Build.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: camera must not be nil")
	}
	if r == nil {
		panic("scene: renderer must not be nil")
	}
	s := &scene{
		mu:       &sync.Mutex{},
		name:     name,
		cam:      cam,
		renderer: r,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Camera() camera.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer
}

func (s *scene) AddGeometry(source GeometrySource) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.built {
		return 0, fmt.Errorf("scene %q is already built", s.name)
	}
	s.sources = append(s.sources, source)
	return len(s.sources) - 1, nil
}

func (s *scene) AddInstance(desc renderer.InstanceDesc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.built {
		return fmt.Errorf("scene %q is already built", s.name)
	}
	s.instances = append(s.instances, desc)
	return nil
}

func (s *scene) Build() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.built {
		return fmt.Errorf("scene %q is already built", s.name)
	}
	if len(s.sources) == 0 || len(s.instances) == 0 {
		return fmt.Errorf("scene %q has no geometry or no instances", s.name)
	}

	drv := s.renderer.Driver()
	geometries := make([]accel.Geometry, 0, len(s.sources))
	for i, source := range s.sources {
		geom, err := source(drv)
		if err != nil {
			for _, g := range geometries {
				g.Destroy()
			}
			return fmt.Errorf("scene %q geometry %d failed: %w", s.name, i, err)
		}
		geometries = append(geometries, geom)
	}

	if err := s.renderer.BuildScene(geometries, s.instances); err != nil {
		return fmt.Errorf("scene %q build failed: %w", s.name, err)
	}

	extent := s.renderer.Extent()
	if extent.Height > 0 {
		s.cam.SetAspect(float32(extent.Width) / float32(extent.Height))
	}

	s.built = true
	return nil
}

func (s *scene) Built() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.built
}

func (s *scene) Update() []byte {
	s.mu.Lock()
	cam := s.cam
	s.mu.Unlock()

	cam.Update()
	u := cam.Uniforms()
	return u.Marshal()
}
