package driver

// Handle types are opaque identifiers for driver-owned objects. A zero value
// is the null handle. Handles are only meaningful to the Driver that issued
// them and must be destroyed through that same Driver.
type (
	// Buffer identifies a device buffer object.
	Buffer uint64
	// Memory identifies a device memory allocation.
	Memory uint64
	// Image identifies a device image object.
	Image uint64
	// ImageView identifies a view over an Image.
	ImageView uint64
	// CommandBuffer identifies a recordable command buffer.
	CommandBuffer uint64
	// Fence is a CPU-waitable GPU completion signal.
	Fence uint64
	// Semaphore is a GPU-side queue ordering signal.
	Semaphore uint64
	// Swapchain identifies a presentable image chain bound to the surface.
	Swapchain uint64
	// AccelerationStructure identifies a built or pending BLAS/TLAS object.
	AccelerationStructure uint64
	// Pipeline identifies a ray-tracing pipeline object.
	Pipeline uint64
	// PipelineLayout identifies the descriptor layout of a Pipeline.
	PipelineLayout uint64
	// DescriptorSet identifies an allocated descriptor set.
	DescriptorSet uint64
	// ShaderModule identifies a compiled shader blob uploaded to the driver.
	ShaderModule uint64
)

// MemoryPropertyFlags select the kind of memory an allocation must come from.
type MemoryPropertyFlags uint32

const (
	// MemoryDeviceLocal is memory resident on the GPU.
	MemoryDeviceLocal MemoryPropertyFlags = 1 << iota
	// MemoryHostVisible is memory the CPU can map.
	MemoryHostVisible
	// MemoryHostCoherent removes the need for explicit flushes after host writes.
	MemoryHostCoherent
)

// MemoryType describes one memory type reported by the device.
type MemoryType struct {
	// Properties are the property flags of this memory type.
	Properties MemoryPropertyFlags
}

// MemoryRequirements are the driver-reported requirements for backing a
// buffer or image with memory.
type MemoryRequirements struct {
	// Size is the required allocation size in bytes.
	Size uint64
	// Alignment is the required allocation alignment in bytes.
	Alignment uint64
	// MemoryTypeBits is a bitmask of memory type indices usable for the resource.
	MemoryTypeBits uint32
}

// BufferUsageFlags declare how a buffer participates in GPU work.
type BufferUsageFlags uint32

const (
	UsageTransferSrc BufferUsageFlags = 1 << iota
	UsageTransferDst
	UsageUniformBuffer
	UsageStorageBuffer
	// UsageShaderDeviceAddress makes the buffer addressable by device address.
	// Allocations backing such buffers are made with the device-address flag.
	UsageShaderDeviceAddress
	// UsageAccelerationStructureStorage marks the backing store of a BLAS/TLAS.
	UsageAccelerationStructureStorage
	// UsageAccelerationStructureBuildInput marks geometry/instance data read by an AS build.
	UsageAccelerationStructureBuildInput
	// UsageShaderBindingTable marks the SBT buffer read by the trace-rays dispatch.
	UsageShaderBindingTable
)

// Format is a pixel format token. Only the formats the frame pipeline
// actually renders to are enumerated.
type Format int

const (
	FormatUndefined Format = iota
	FormatB8G8R8A8Unorm
	FormatR8G8B8A8Unorm
)

// ImageLayout is an explicit image layout state. Every transition between
// layouts is expressed as an ImageBarrier; there is no implicit tracking.
type ImageLayout int

const (
	LayoutUndefined ImageLayout = iota
	LayoutGeneral
	LayoutTransferSrc
	LayoutTransferDst
	LayoutPresentSrc
)

// PipelineStageFlags identify synchronization scopes for barriers and
// submit-wait operations.
type PipelineStageFlags uint32

const (
	StageTopOfPipe PipelineStageFlags = 1 << iota
	StageTransfer
	StageRayTracingShader
	StageAccelerationStructureBuild
	StageColorAttachmentOutput
	StageBottomOfPipe
	StageAllCommands
)

// AccessFlags identify memory access kinds ordered by a barrier.
type AccessFlags uint32

const (
	AccessTransferRead AccessFlags = 1 << iota
	AccessTransferWrite
	AccessShaderRead
	AccessShaderWrite
	AccessAccelerationStructureRead
	AccessAccelerationStructureWrite
	AccessMemoryRead
)

// MemoryBarrier is a global memory dependency between two access scopes.
type MemoryBarrier struct {
	SrcAccess AccessFlags
	DstAccess AccessFlags
}

// ImageBarrier is a layout transition plus memory dependency for one image.
type ImageBarrier struct {
	Image     Image
	SrcAccess AccessFlags
	DstAccess AccessFlags
	OldLayout ImageLayout
	NewLayout ImageLayout
}

// Extent2D is a surface or image size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// ImageSpec describes an image to create. Usage is fixed to what the
// ray-tracing output target needs (storage + transfer source + color
// attachment); the frame pipeline creates no other images itself.
type ImageSpec struct {
	Extent Extent2D
	Format Format
}

// SwapchainSpec describes a swapchain to create. OldSwapchain, when non-zero,
// is chained into the creation call for driver-assisted resource reuse and
// remains the caller's to destroy.
type SwapchainSpec struct {
	Extent       Extent2D
	OldSwapchain Swapchain
}

// SubmitInfo describes one queue submission.
type SubmitInfo struct {
	// WaitSemaphores are waited before execution, each at the matching WaitStages entry.
	WaitSemaphores []Semaphore
	// WaitStages has one stage mask per wait semaphore.
	WaitStages []PipelineStageFlags
	// CommandBuffers execute in order.
	CommandBuffers []CommandBuffer
	// SignalSemaphores are signaled when execution completes.
	SignalSemaphores []Semaphore
}

// PresentInfo describes one presentation request.
type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}

// StridedRegion is an addressable slice of the shader binding table: a base
// device address plus the stride between records and the total region size.
type StridedRegion struct {
	DeviceAddress uint64
	Stride        uint64
	Size          uint64
}

// GeometryKind selects the geometry encoding of an acceleration structure build.
type GeometryKind int

const (
	// GeometryAABBs is a list of axis-aligned bounding boxes hit-tested by an
	// intersection shader.
	GeometryAABBs GeometryKind = iota
	// GeometryTriangles is an indexed triangle mesh.
	GeometryTriangles
	// GeometryInstances is an array of packed instance records (TLAS input).
	GeometryInstances
)

// ASType distinguishes bottom-level from top-level acceleration structures.
type ASType int

const (
	BottomLevel ASType = iota
	TopLevel
)

// GeometryDesc describes the device-side input of an acceleration structure
// build. All data references are buffer device addresses; the referenced
// buffers must stay alive until the build command has completed.
type GeometryDesc struct {
	Kind GeometryKind

	// Opaque marks the geometry as never invoking any-hit shaders.
	Opaque bool

	// AABB data (Kind == GeometryAABBs): tightly packed min/max corner pairs.
	AABBDataAddress uint64
	AABBStride      uint64

	// Triangle data (Kind == GeometryTriangles).
	VertexDataAddress uint64
	VertexStride      uint64
	MaxVertex         uint32
	IndexDataAddress  uint64

	// Instance data (Kind == GeometryInstances): packed 64-byte instance records.
	InstanceDataAddress uint64
}

// BuildSizes are the driver-reported sizes for an acceleration structure build.
type BuildSizes struct {
	// AccelerationStructureSize is the required size of the destination buffer.
	AccelerationStructureSize uint64
	// BuildScratchSize is the required size of the transient scratch buffer.
	BuildScratchSize uint64
}

// ASBuildInfo fully describes one acceleration structure build command. The
// PrimitiveCount passed here must match the count used for the size query of
// the same geometry; a mismatch is undefined behavior at the driver level.
type ASBuildInfo struct {
	Type           ASType
	Geometry       GeometryDesc
	PrimitiveCount uint32

	// Dst is the destination structure. Zero for a size query.
	Dst AccelerationStructure
	// ScratchAddress is the device address of the scratch buffer. Zero for a
	// size query.
	ScratchAddress uint64
}

// RayTracingProperties are the device limits governing shader binding table
// layout.
type RayTracingProperties struct {
	// ShaderGroupHandleSize is the size in bytes of one opaque group handle.
	ShaderGroupHandleSize uint32
	// ShaderGroupBaseAlignment is the required alignment of each SBT record.
	ShaderGroupBaseAlignment uint32
}

// ShaderStage identifies one ray-tracing shader stage.
type ShaderStage int

const (
	StageRaygen ShaderStage = iota
	StageMiss
	StageClosestHit
	StageIntersection
)

// ShaderStageSpec is one entry point of a compiled shader module.
type ShaderStageSpec struct {
	Stage      ShaderStage
	Module     ShaderModule
	EntryPoint string
}

// ShaderGroupSpec describes one shader group of a ray-tracing pipeline.
// Indices refer to positions in RayTracingPipelineSpec.Stages; -1 means unused.
type ShaderGroupSpec struct {
	// General is the stage index for raygen/miss groups, -1 otherwise.
	General int
	// ClosestHit is the stage index of the closest-hit shader, -1 otherwise.
	ClosestHit int
	// Intersection is the stage index of the intersection shader for
	// procedural hit groups, -1 otherwise.
	Intersection int
}

// RayTracingPipelineSpec describes a ray-tracing pipeline to create. Group
// order is load-bearing: shader binding table offsets are positional over
// this slice.
type RayTracingPipelineSpec struct {
	Stages []ShaderStageSpec
	Groups []ShaderGroupSpec
	// MaxRecursionDepth bounds recursive trace calls from hit shaders.
	MaxRecursionDepth uint32
}
