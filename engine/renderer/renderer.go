package renderer

import (
	"fmt"
	"log"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/accel"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/framesync"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/sbt"
	"github.com/Carmen-Shannon/vkrt-go/engine/window"
)

// Descriptor bindings of the ray-tracing set: the top-level acceleration
// structure, the output storage image, and the frame uniform block.
const (
	bindingAccelerationStructure = 0
	bindingStorageImage          = 1
	bindingUniforms              = 2
)

// InstanceDesc positions one scene geometry in the world. GeometryIndex
// selects the BLAS built from the geometry list passed to BuildScene.
type InstanceDesc struct {
	// Transform places the instance in world space.
	Transform mgl32.Mat4

	// GeometryIndex selects the BLAS by position in the BuildScene geometry list.
	GeometryIndex int

	// CustomIndex is the 24-bit application index visible to shaders.
	CustomIndex uint32

	// Mask is the visibility mask tested against the ray mask, 0xFF for all rays.
	Mask uint8

	// SBTOffset is the offset into the hit-group region of the binding table.
	SBTOffset uint32

	// Flags are the per-instance geometry flags.
	Flags accel.InstanceFlags
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	drv         driver.Driver

	pipelineCache map[string]pipeline.Pipeline

	// Pre-creation config collected from builder options
	appName          string
	enableValidation bool
	uniformSize      uint64

	uniform gpu.Buffer

	activePipeline driver.Pipeline
	activeLayout   driver.PipelineLayout
	descriptorSet  driver.DescriptorSet
	table          sbt.Table
	modules        []driver.ShaderModule

	blas []accel.AccelerationStructure
	tlas accel.TLAS

	frames framesync.Controller
}

// Renderer defines the interface for the ray-tracing rendering system.
//
// This is a high-level API designed to simplify rendering tasks into a
// streamlined and idiomatic flow. The Renderer manages a cache of pipeline
// descriptions, owns the scene's acceleration structures and shader binding
// table, and drives the per-frame loop through the typed driver.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipeline creates the GPU ray-tracing pipeline for the given
	// description, builds its shader binding table, allocates the frame
	// descriptor set, and makes it the active pipeline. Registering a key
	// that already exists is an error.
	//
	// Parameters:
	//   - p: the pipeline description to register
	//
	// Returns:
	//   - error: an error if pipeline or table creation fails
	RegisterPipeline(p pipeline.Pipeline) error

	// BuildScene builds one BLAS per geometry and a single TLAS over the
	// given instances, then binds the TLAS to the active descriptor set.
	// Must be called after RegisterPipeline and at most once.
	//
	// Parameters:
	//   - geometries: the geometry inputs, consumed by the builds
	//   - instances: the instance placements referencing geometries by index
	//
	// Returns:
	//   - error: an error if any build fails or an instance index is out of range
	BuildScene(geometries []accel.Geometry, instances []InstanceDesc) error

	// RenderFrame runs one acquire/record/submit/present cycle, writing
	// uniformData into the uniform buffer before the ray dispatch. The
	// frame loop is created on first use, once a pipeline and scene exist.
	//
	// Parameters:
	//   - uniformData: the frame uniform bytes, or nil to skip the update
	//
	// Returns:
	//   - error: an error if the frame cannot be rendered
	RenderFrame(uniformData []byte) error

	// Resize reacts to a window size change by recreating the swapchain
	// and render target at the surface's current resolution.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// Extent retrieves the current swapchain resolution.
	//
	// Returns:
	//   - driver.Extent2D: the swapchain extent
	Extent() driver.Extent2D

	// Driver retrieves the typed driver, for callers that need direct
	// resource access such as custom uploads.
	//
	// Returns:
	//   - driver.Driver: the driver
	Driver() driver.Driver

	// Destroy releases every GPU object the renderer owns, in dependency
	// order, and tears down the backend. Safe to call more than once.
	Destroy()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend
// type bound to the given window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., Vulkan)
//   - win: the window providing the presentation surface
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		appName:       "vkrt",
		uniformSize:   256,
	}

	// Apply options first so config flags (e.g. validation) are available
	// before the backend creates the device.
	for _, opt := range options {
		opt(r)
	}

	if r.drv == nil {
		switch backendType {
		case BackendTypeVulkan:
			fallthrough
		default:
			r.backend = newVulkanRendererBackend(win, r.appName, r.enableValidation)
		}
		r.drv = r.backend.Driver()
	}

	uniform, err := gpu.NewBuffer(r.drv,
		gpu.WithSize(r.uniformSize),
		gpu.WithUsage(driver.UsageUniformBuffer|driver.UsageTransferDst),
	)
	if err != nil {
		log.Panicf("[Renderer] failed to create uniform buffer: %v", err)
	}
	r.uniform = uniform

	return r
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipeline(p pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := p.Key()
	if _, exists := r.pipelineCache[key]; exists {
		return fmt.Errorf("pipeline %q already registered", key)
	}
	if r.activePipeline != 0 {
		return fmt.Errorf("renderer already has an active pipeline")
	}

	stages := make([]driver.ShaderStageSpec, 0, len(p.Shaders()))
	for _, s := range p.Shaders() {
		module, err := r.drv.CreateShaderModule(s.Code())
		if err != nil {
			return fmt.Errorf("failed to create shader module %q: %w", s.Key(), err)
		}
		r.modules = append(r.modules, module)
		stages = append(stages, driver.ShaderStageSpec{
			Stage:      s.Stage(),
			Module:     module,
			EntryPoint: s.EntryPoint(),
		})
	}

	pipe, layout, err := r.drv.CreateRayTracingPipeline(driver.RayTracingPipelineSpec{
		Stages:            stages,
		Groups:            p.Groups(),
		MaxRecursionDepth: p.MaxRecursionDepth(),
	})
	if err != nil {
		return fmt.Errorf("failed to create ray tracing pipeline %q: %w", key, err)
	}
	r.activePipeline = pipe
	r.activeLayout = layout

	set, err := r.drv.AllocateDescriptorSet(layout)
	if err != nil {
		return fmt.Errorf("failed to allocate descriptor set: %w", err)
	}
	r.descriptorSet = set
	r.drv.UpdateUniformBufferDescriptor(set, bindingUniforms, r.uniform.Handle(), r.uniform.Size())

	table, err := sbt.NewTable(r.drv, pipe, p.GroupCounts())
	if err != nil {
		return fmt.Errorf("failed to build shader binding table: %w", err)
	}
	r.table = table

	r.pipelineCache[key] = p
	return nil
}

func (r *renderer) BuildScene(geometries []accel.Geometry, instances []InstanceDesc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tlas != nil {
		return fmt.Errorf("scene already built")
	}
	if r.descriptorSet == 0 {
		return fmt.Errorf("scene build requires a registered pipeline")
	}
	if len(geometries) == 0 || len(instances) == 0 {
		return fmt.Errorf("scene build requires geometries and instances")
	}

	builder := accel.NewBuilder(r.drv)
	for i, geom := range geometries {
		blas, err := builder.BuildBLAS(geom)
		if err != nil {
			return fmt.Errorf("failed to build BLAS %d: %w", i, err)
		}
		r.blas = append(r.blas, blas)
	}

	records := make([]accel.Instance, 0, len(instances))
	for i, inst := range instances {
		if inst.GeometryIndex < 0 || inst.GeometryIndex >= len(r.blas) {
			return fmt.Errorf("instance %d references geometry %d of %d", i, inst.GeometryIndex, len(r.blas))
		}
		records = append(records, accel.Instance{
			Transform:   inst.Transform,
			CustomIndex: inst.CustomIndex,
			Mask:        inst.Mask,
			SBTOffset:   inst.SBTOffset,
			Flags:       inst.Flags,
			BLASAddress: r.blas[inst.GeometryIndex].DeviceAddress(),
		})
	}

	tlas, err := builder.BuildTLAS(records)
	if err != nil {
		return fmt.Errorf("failed to build TLAS: %w", err)
	}
	r.tlas = tlas
	r.drv.UpdateAccelerationStructureDescriptor(r.descriptorSet, bindingAccelerationStructure, tlas.Handle())

	log.Printf("[Renderer] scene built: %d BLAS, %d instances", len(r.blas), tlas.InstanceCount())
	return nil
}

func (r *renderer) RenderFrame(uniformData []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frames == nil {
		if r.tlas == nil {
			return fmt.Errorf("frame requested before scene build")
		}
		frames, err := framesync.NewController(r.drv,
			framesync.WithPipeline(r.activePipeline, r.activeLayout),
			framesync.WithDescriptorSet(r.descriptorSet),
			framesync.WithShaderBindingTable(r.table),
			framesync.WithUniformBuffer(r.uniform),
			framesync.WithStorageImageBinding(bindingStorageImage),
		)
		if err != nil {
			return fmt.Errorf("failed to create frame controller: %w", err)
		}
		r.frames = frames
	}
	return r.frames.RenderFrame(uniformData)
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frames == nil {
		return
	}
	if err := r.frames.OnResize(); err != nil {
		log.Printf("[Renderer] resize to %dx%d failed: %v", width, height, err)
	}
}

func (r *renderer) Extent() driver.Extent2D {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frames != nil {
		return r.frames.Extent()
	}
	return r.drv.SurfaceExtent()
}

func (r *renderer) Driver() driver.Driver {
	return r.drv
}

func (r *renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frames != nil {
		r.frames.Destroy()
		r.frames = nil
	}
	if r.table != nil {
		r.table.Destroy()
		r.table = nil
	}
	if r.tlas != nil {
		r.tlas.Destroy()
		r.tlas = nil
	}
	for _, blas := range r.blas {
		blas.Destroy()
	}
	r.blas = nil
	for _, module := range r.modules {
		r.drv.DestroyShaderModule(module)
	}
	r.modules = nil
	if r.activePipeline != 0 {
		r.drv.DestroyPipeline(r.activePipeline, r.activeLayout)
		r.activePipeline = 0
		r.activeLayout = 0
	}
	if r.uniform != nil {
		r.uniform.Destroy()
		r.uniform = nil
	}
	if r.backend != nil {
		r.backend.Destroy()
		r.backend = nil
	}
}
