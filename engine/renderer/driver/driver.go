// package driver wraps every raw graphics-driver entry point the engine
// touches behind one typed interface. The renderer core is written entirely
// against Driver, so the Vulkan-backed implementation and the in-memory
// instrumented implementation are interchangeable; all cgo stays inside this
// package.
package driver

import "errors"

// Sentinel errors distinguishing the one recoverable driver failure category
// (a stale swapchain) from everything else, which is fatal.
var (
	// ErrOutOfDate is returned by AcquireNextImage or QueuePresent when the
	// swapchain no longer matches the surface and must be recreated.
	ErrOutOfDate = errors.New("driver: swapchain out of date")
	// ErrSuboptimal is returned by QueuePresent when presentation succeeded
	// but the swapchain no longer matches the surface exactly.
	ErrSuboptimal = errors.New("driver: swapchain suboptimal")
)

// Driver is the typed boundary between the engine and the graphics driver.
// One Driver owns one logical device and one queue; all calls must come from
// a single goroutine. Handles returned by a Driver are only valid with that
// Driver.
//
// Fence waits and the *WaitIdle calls block indefinitely; a hang behind one
// of them indicates a driver or programming error, not a condition this
// layer recovers from.
type Driver interface {
	// MemoryTypes returns the memory types reported by the device, indexed by
	// memory type index.
	//
	// Returns:
	//   - []MemoryType: the device's memory types in index order
	MemoryTypes() []MemoryType

	// BufferMemoryRequirements queries the memory requirements of a buffer.
	//
	// Parameters:
	//   - buffer: the buffer to query
	//
	// Returns:
	//   - MemoryRequirements: required size, alignment, and memory type mask
	BufferMemoryRequirements(buffer Buffer) MemoryRequirements

	// ImageMemoryRequirements queries the memory requirements of an image.
	//
	// Parameters:
	//   - image: the image to query
	//
	// Returns:
	//   - MemoryRequirements: required size, alignment, and memory type mask
	ImageMemoryRequirements(image Image) MemoryRequirements

	// AllocateMemory allocates device memory of the given size from the given
	// memory type.
	//
	// Parameters:
	//   - size: allocation size in bytes
	//   - typeIndex: memory type index (from MemoryTypes)
	//   - deviceAddress: chain the device-address allocation flag, required
	//     whenever the memory backs a buffer with UsageShaderDeviceAddress
	//
	// Returns:
	//   - Memory: the allocation handle
	//   - error: error if the allocation fails (treated as fatal by callers)
	AllocateMemory(size uint64, typeIndex uint32, deviceAddress bool) (Memory, error)

	// FreeMemory releases a memory allocation.
	FreeMemory(memory Memory)

	// MapMemory maps a host-visible allocation and returns a writable view.
	//
	// Parameters:
	//   - memory: the allocation to map (must be host-visible)
	//   - offset: byte offset into the allocation
	//   - size: number of bytes to map
	//
	// Returns:
	//   - []byte: writable view of the mapped range
	//   - error: error if the mapping fails
	MapMemory(memory Memory, offset, size uint64) ([]byte, error)

	// UnmapMemory unmaps a previously mapped allocation.
	UnmapMemory(memory Memory)

	// CreateBuffer creates a buffer object. The buffer has no backing memory
	// until BindBufferMemory is called.
	//
	// Parameters:
	//   - size: buffer size in bytes
	//   - usage: usage flags the buffer will be used with
	//
	// Returns:
	//   - Buffer: the buffer handle
	//   - error: error if creation fails
	CreateBuffer(size uint64, usage BufferUsageFlags) (Buffer, error)

	// BindBufferMemory binds an allocation as the buffer's backing store.
	BindBufferMemory(buffer Buffer, memory Memory) error

	// DestroyBuffer destroys a buffer object.
	DestroyBuffer(buffer Buffer)

	// BufferDeviceAddress returns the device address of a bound buffer created
	// with UsageShaderDeviceAddress.
	BufferDeviceAddress(buffer Buffer) uint64

	// CreateImage creates an image suitable as the ray-tracing output target.
	CreateImage(spec ImageSpec) (Image, error)

	// BindImageMemory binds an allocation as the image's backing store.
	BindImageMemory(image Image, memory Memory) error

	// DestroyImage destroys an image object.
	DestroyImage(image Image)

	// CreateImageView creates a 2D color view over the whole image.
	CreateImageView(image Image, format Format) (ImageView, error)

	// DestroyImageView destroys an image view.
	DestroyImageView(view ImageView)

	// AllocateCommandBuffers allocates primary command buffers from the
	// driver's command pool.
	//
	// Parameters:
	//   - count: number of command buffers to allocate
	//
	// Returns:
	//   - []CommandBuffer: the allocated command buffers
	//   - error: error if allocation fails
	AllocateCommandBuffers(count uint32) ([]CommandBuffer, error)

	// FreeCommandBuffers returns command buffers to the pool.
	FreeCommandBuffers(buffers []CommandBuffer)

	// ResetCommandBuffer resets a command buffer for re-recording.
	//
	// Parameters:
	//   - cb: the command buffer to reset
	//   - releaseResources: return the buffer's internal allocations to the pool
	ResetCommandBuffer(cb CommandBuffer, releaseResources bool) error

	// BeginCommandBuffer begins recording.
	//
	// Parameters:
	//   - cb: the command buffer to record into
	//   - oneTimeSubmit: the recording will be submitted exactly once
	BeginCommandBuffer(cb CommandBuffer, oneTimeSubmit bool) error

	// EndCommandBuffer ends recording.
	EndCommandBuffer(cb CommandBuffer) error

	// CmdPipelineBarrier records a pipeline barrier ordering the given memory
	// and image transitions between the two stage scopes.
	CmdPipelineBarrier(cb CommandBuffer, srcStage, dstStage PipelineStageFlags, memory []MemoryBarrier, images []ImageBarrier)

	// CmdCopyImage records a full-extent copy between two images in the given
	// layouts.
	CmdCopyImage(cb CommandBuffer, src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout, extent Extent2D)

	// CmdUpdateBuffer records an inline buffer write. Limited to small
	// payloads (uniform blocks); larger uploads go through mapped memory.
	CmdUpdateBuffer(cb CommandBuffer, dst Buffer, offset uint64, data []byte)

	// CmdBindRayTracingPipeline records a bind of the ray-tracing pipeline.
	CmdBindRayTracingPipeline(cb CommandBuffer, pipeline Pipeline)

	// CmdBindDescriptorSets records a bind of descriptor sets for the
	// ray-tracing pipeline layout.
	CmdBindDescriptorSets(cb CommandBuffer, layout PipelineLayout, sets []DescriptorSet)

	// CmdTraceRays records the ray-tracing dispatch over the given extent
	// using the four shader binding table regions.
	CmdTraceRays(cb CommandBuffer, raygen, miss, hit, callable StridedRegion, width, height, depth uint32)

	// CmdBuildAccelerationStructure records a build of info.Dst using
	// info.ScratchAddress as transient scratch.
	CmdBuildAccelerationStructure(cb CommandBuffer, info ASBuildInfo)

	// CreateFence creates a fence.
	//
	// Parameters:
	//   - signaled: create the fence already signaled, so the first wait on it
	//     returns immediately
	//
	// Returns:
	//   - Fence: the fence handle
	//   - error: error if creation fails
	CreateFence(signaled bool) (Fence, error)

	// DestroyFence destroys a fence.
	DestroyFence(fence Fence)

	// WaitForFences blocks until all fences are signaled. Infinite timeout.
	WaitForFences(fences []Fence) error

	// ResetFences returns fences to the unsignaled state.
	ResetFences(fences []Fence) error

	// CreateSemaphore creates a binary semaphore.
	CreateSemaphore() (Semaphore, error)

	// DestroySemaphore destroys a semaphore.
	DestroySemaphore(semaphore Semaphore)

	// QueueSubmit submits command buffers to the queue.
	//
	// Parameters:
	//   - info: wait/signal semaphores and command buffers
	//   - fence: fence signaled when execution completes (zero for none)
	//
	// Returns:
	//   - error: error if submission fails
	QueueSubmit(info SubmitInfo, fence Fence) error

	// QueueWaitIdle blocks until the queue has drained.
	QueueWaitIdle() error

	// DeviceWaitIdle blocks until the whole device is idle.
	DeviceWaitIdle() error

	// QueuePresent presents a swapchain image.
	//
	// Returns:
	//   - error: ErrOutOfDate or ErrSuboptimal for stale swapchains, any other
	//     non-nil error is fatal
	QueuePresent(info PresentInfo) error

	// CreateSwapchain creates a swapchain for the surface. When
	// spec.OldSwapchain is non-zero it is chained into the creation call; the
	// caller still destroys it afterwards.
	CreateSwapchain(spec SwapchainSpec) (Swapchain, error)

	// DestroySwapchain destroys a swapchain.
	DestroySwapchain(swapchain Swapchain)

	// SwapchainImages returns the presentable images of a swapchain. The
	// images are owned by the swapchain and must not be destroyed directly.
	SwapchainImages(swapchain Swapchain) ([]Image, error)

	// AcquireNextImage acquires the next presentable image.
	//
	// Parameters:
	//   - swapchain: the swapchain to acquire from
	//   - signal: semaphore signaled when the image is ready for GPU use
	//   - fence: fence signaled when the acquire's GPU work retires, used to
	//     throttle acquire-ahead
	//
	// Returns:
	//   - uint32: index of the acquired image
	//   - error: ErrOutOfDate when the swapchain must be recreated
	AcquireNextImage(swapchain Swapchain, signal Semaphore, fence Fence) (uint32, error)

	// SurfaceFormat returns the pixel format the surface presents in.
	SurfaceFormat() Format

	// SurfaceExtent returns the surface's current size in pixels.
	SurfaceExtent() Extent2D

	// AccelerationStructureBuildSizes queries the destination and scratch
	// sizes for a build described by info (Dst and ScratchAddress ignored).
	// The primitive count used here must be the count later passed to
	// CmdBuildAccelerationStructure for the same geometry.
	AccelerationStructureBuildSizes(info ASBuildInfo) BuildSizes

	// CreateAccelerationStructure creates an acceleration structure object
	// bound to offset 0 of the given buffer.
	//
	// Parameters:
	//   - buffer: backing buffer (UsageAccelerationStructureStorage)
	//   - size: structure size from AccelerationStructureBuildSizes
	//   - asType: BottomLevel or TopLevel
	//
	// Returns:
	//   - AccelerationStructure: the created (not yet built) structure
	//   - error: error if creation fails
	CreateAccelerationStructure(buffer Buffer, size uint64, asType ASType) (AccelerationStructure, error)

	// DestroyAccelerationStructure destroys an acceleration structure. Its
	// backing buffer is destroyed separately.
	DestroyAccelerationStructure(as AccelerationStructure)

	// AccelerationStructureDeviceAddress returns the device address of a
	// built acceleration structure, used in instance records.
	AccelerationStructureDeviceAddress(as AccelerationStructure) uint64

	// RayTracingProperties returns the device's shader-group handle size and
	// base alignment.
	RayTracingProperties() RayTracingProperties

	// CreateShaderModule uploads a compiled SPIR-V blob.
	CreateShaderModule(code []byte) (ShaderModule, error)

	// DestroyShaderModule destroys a shader module. Safe once the pipeline
	// using it has been created.
	DestroyShaderModule(module ShaderModule)

	// CreateRayTracingPipeline creates the ray-tracing pipeline and its
	// layout. The group order in spec fixes shader binding table offsets.
	//
	// Parameters:
	//   - spec: stages, groups, and recursion depth
	//
	// Returns:
	//   - Pipeline: the pipeline handle
	//   - PipelineLayout: the pipeline's layout handle
	//   - error: error if creation fails
	CreateRayTracingPipeline(spec RayTracingPipelineSpec) (Pipeline, PipelineLayout, error)

	// DestroyPipeline destroys a pipeline and its layout.
	DestroyPipeline(pipeline Pipeline, layout PipelineLayout)

	// ShaderGroupHandles returns groupCount opaque shader-group handles,
	// tightly packed at ShaderGroupHandleSize stride, in group creation order.
	ShaderGroupHandles(pipeline Pipeline, groupCount uint32) ([]byte, error)

	// AllocateDescriptorSet allocates the frame descriptor set matching the
	// pipeline layout (TLAS, storage image, uniform buffer).
	AllocateDescriptorSet(layout PipelineLayout) (DescriptorSet, error)

	// UpdateAccelerationStructureDescriptor writes a TLAS binding.
	UpdateAccelerationStructureDescriptor(set DescriptorSet, binding uint32, as AccelerationStructure)

	// UpdateStorageImageDescriptor writes a storage-image binding. Called
	// again in place after the ray-tracing output image is rebuilt on resize.
	UpdateStorageImageDescriptor(set DescriptorSet, binding uint32, view ImageView)

	// UpdateUniformBufferDescriptor writes a uniform-buffer binding.
	UpdateUniformBufferDescriptor(set DescriptorSet, binding uint32, buffer Buffer, size uint64)

	// Destroy tears down the driver's own objects (command pool, device,
	// instance). All engine-created handles must already be destroyed.
	Destroy()
}
