package driver

import (
	"fmt"
	"log"
	"unsafe"

	vk "github.com/goki/vulkan"
)

const shaderUnused = 0xFFFFFFFF

// VulkanConfig configures the Vulkan-backed driver. The window layer supplies
// the surface hookup so this package never depends on GLFW directly.
type VulkanConfig struct {
	// AppName is reported to the driver in the application info.
	AppName string

	// EnableValidation requests the Khronos validation layer.
	EnableValidation bool

	// InstanceExtensions are the surface extensions required by the window
	// layer (from glfw GetRequiredInstanceExtensions).
	InstanceExtensions []string

	// GetInstanceProcAddr is the loader entry point
	// (from glfw GetVulkanGetInstanceProcAddress).
	GetInstanceProcAddr unsafe.Pointer

	// CreateSurface creates the window surface for a given instance and
	// returns the raw VkSurfaceKHR pointer.
	CreateSurface func(instance vk.Instance) (uintptr, error)
}

// vulkanDriver implements Driver over goki/vulkan. It owns the instance,
// device, queue, and command pool, and keeps translation tables from the
// package's opaque handles to the underlying Vulkan objects. All methods must
// be called from the thread that created the driver.
type vulkanDriver struct {
	instance         vk.Instance
	gpu              vk.PhysicalDevice
	device           vk.Device
	queue            vk.Queue
	queueFamilyIndex uint32
	surface          vk.Surface
	commandPool      vk.CommandPool

	memoryTypes   []MemoryType
	rtProps       RayTracingProperties
	surfaceFormat vk.SurfaceFormat
	presentModes  []vk.PresentMode

	nextHandle uint64

	khr *khrDispatch

	buffers    map[Buffer]vk.Buffer
	memories   map[Memory]vk.DeviceMemory
	images     map[Image]vk.Image
	views      map[ImageView]vk.ImageView
	cmdBufs    map[CommandBuffer]vk.CommandBuffer
	fences     map[Fence]vk.Fence
	semaphores map[Semaphore]vk.Semaphore
	swapchains map[Swapchain]vk.Swapchain
	structures map[AccelerationStructure]vk.AccelerationStructure
	pipelines  map[Pipeline]vk.Pipeline
	layouts    map[PipelineLayout]*vulkanPipelineLayout
	sets       map[DescriptorSet]vk.DescriptorSet
	shaders    map[ShaderModule]vk.ShaderModule
}

// vulkanPipelineLayout bundles the Vulkan objects behind one PipelineLayout
// handle: the pipeline layout itself plus the descriptor machinery needed to
// allocate the frame descriptor set.
type vulkanPipelineLayout struct {
	layout    vk.PipelineLayout
	setLayout vk.DescriptorSetLayout
	pool      vk.DescriptorPool
}

var _ Driver = &vulkanDriver{}

// NewVulkan initializes the Vulkan loader, creates the instance, surface,
// and logical device with the ray-tracing extension set, and returns a Driver
// bound to the device's graphics+present queue. Panics on any failure: there
// is no meaningful recovery from a failed device bring-up.
//
// Parameters:
//   - cfg: loader entry point, surface hookup, and instance options
//
// Returns:
//   - Driver: the Vulkan-backed driver
func NewVulkan(cfg VulkanConfig) Driver {
	d := &vulkanDriver{
		buffers:    make(map[Buffer]vk.Buffer),
		memories:   make(map[Memory]vk.DeviceMemory),
		images:     make(map[Image]vk.Image),
		views:      make(map[ImageView]vk.ImageView),
		cmdBufs:    make(map[CommandBuffer]vk.CommandBuffer),
		fences:     make(map[Fence]vk.Fence),
		semaphores: make(map[Semaphore]vk.Semaphore),
		swapchains: make(map[Swapchain]vk.Swapchain),
		structures: make(map[AccelerationStructure]vk.AccelerationStructure),
		pipelines:  make(map[Pipeline]vk.Pipeline),
		layouts:    make(map[PipelineLayout]*vulkanPipelineLayout),
		sets:       make(map[DescriptorSet]vk.DescriptorSet),
		shaders:    make(map[ShaderModule]vk.ShaderModule),
	}

	vk.SetGetInstanceProcAddr(cfg.GetInstanceProcAddr)
	if err := vk.Init(); err != nil {
		log.Panicf("[Driver] failed to initialize Vulkan loader: %v", err)
	}

	d.createInstance(cfg)

	surfacePtr, err := cfg.CreateSurface(d.instance)
	if err != nil {
		log.Panicf("[Driver] failed to create window surface: %v", err)
	}
	d.surface = vk.SurfaceFromPointer(surfacePtr)

	d.pickPhysicalDevice()
	d.createDevice()

	khr, err := loadKHRDispatch(cfg.GetInstanceProcAddr, d.instance, d.device)
	if err != nil {
		log.Panicf("[Driver] failed to load ray tracing entry points: %v", err)
	}
	d.khr = khr

	d.createCommandPool()
	d.queryDeviceProperties()

	return d
}

func (d *vulkanDriver) createInstance(cfg VulkanConfig) {
	extensions := make([]string, 0, len(cfg.InstanceExtensions))
	for _, ext := range cfg.InstanceExtensions {
		extensions = append(extensions, ext+"\x00")
	}
	var layers []string
	if cfg.EnableValidation {
		layers = append(layers, "VK_LAYER_KHRONOS_validation\x00")
	}

	createInfo := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   cfg.AppName + "\x00",
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PEngineName:        "vkrt\x00",
			EngineVersion:      vk.MakeVersion(1, 0, 0),
			ApiVersion:         vk.MakeVersion(1, 2, 0),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		log.Panicf("[Driver] failed to create instance: %d", res)
	}
	d.instance = instance
	if err := vk.InitInstance(instance); err != nil {
		log.Panicf("[Driver] failed to load instance entry points: %v", err)
	}
}

func (d *vulkanDriver) pickPhysicalDevice() {
	var count uint32
	vk.EnumeratePhysicalDevices(d.instance, &count, nil)
	if count == 0 {
		log.Panicf("[Driver] no Vulkan-capable devices found")
	}
	devices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(d.instance, &count, devices)

	for _, gpu := range devices {
		family, ok := d.findQueueFamily(gpu)
		if !ok {
			continue
		}
		d.gpu = gpu
		d.queueFamilyIndex = family
		return
	}
	log.Panicf("[Driver] no device with a graphics+present queue family found")
}

func (d *vulkanDriver) findQueueFamily(gpu vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, families)

	for i := uint32(0); i < count; i++ {
		families[i].Deref()
		if families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gpu, i, d.surface, &supported)
		if supported == vk.True {
			return i, true
		}
	}
	return 0, false
}

func (d *vulkanDriver) createDevice() {
	extensions := []string{
		vk.KhrSwapchainExtensionName + "\x00",
		"VK_KHR_acceleration_structure\x00",
		"VK_KHR_ray_tracing_pipeline\x00",
		"VK_KHR_deferred_host_operations\x00",
	}

	featureChain, releaseChain := rayTracingFeatureChain(nil)
	defer releaseChain()
	vulkan12Features := vk.PhysicalDeviceVulkan12Features{
		SType:               vk.StructureTypePhysicalDeviceVulkan12Features,
		BufferDeviceAddress: vk.True,
		PNext:               featureChain,
	}

	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.queueFamilyIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}

	deviceInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PNext:                   unsafe.Pointer(&vulkan12Features),
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueInfo},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var device vk.Device
	if res := vk.CreateDevice(d.gpu, &deviceInfo, nil, &device); res != vk.Success {
		log.Panicf("[Driver] failed to create device: %d", res)
	}
	d.device = device

	var queue vk.Queue
	vk.GetDeviceQueue(d.device, d.queueFamilyIndex, 0, &queue)
	d.queue = queue
}

func (d *vulkanDriver) createCommandPool() {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: d.queueFamilyIndex,
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(d.device, &poolInfo, nil, &pool); res != vk.Success {
		log.Panicf("[Driver] failed to create command pool: %d", res)
	}
	d.commandPool = pool
}

func (d *vulkanDriver) queryDeviceProperties() {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.gpu, &memProps)
	memProps.Deref()
	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memProps.MemoryTypes[i].Deref()
		var props MemoryPropertyFlags
		flags := memProps.MemoryTypes[i].PropertyFlags
		if flags&vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit) != 0 {
			props |= MemoryDeviceLocal
		}
		if flags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0 {
			props |= MemoryHostVisible
		}
		if flags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit) != 0 {
			props |= MemoryHostCoherent
		}
		d.memoryTypes = append(d.memoryTypes, MemoryType{Properties: props})
	}

	d.rtProps = d.khr.rayTracingPipelineProperties(d.gpu)

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(d.gpu, d.surface, &formatCount, nil)
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(d.gpu, d.surface, &formatCount, formats)
	formats[0].Deref()
	d.surfaceFormat = formats[0]

	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(d.gpu, d.surface, &modeCount, nil)
	d.presentModes = make([]vk.PresentMode, modeCount)
	vk.GetPhysicalDeviceSurfacePresentModes(d.gpu, d.surface, &modeCount, d.presentModes)
}

func (d *vulkanDriver) handle() uint64 {
	d.nextHandle++
	return d.nextHandle
}

func (d *vulkanDriver) MemoryTypes() []MemoryType {
	return d.memoryTypes
}

func (d *vulkanDriver) BufferMemoryRequirements(buffer Buffer) MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, d.buffers[buffer], &req)
	req.Deref()
	return MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

func (d *vulkanDriver) ImageMemoryRequirements(image Image) MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, d.images[image], &req)
	req.Deref()
	return MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

func (d *vulkanDriver) AllocateMemory(size uint64, typeIndex uint32, deviceAddress bool) (Memory, error) {
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}
	if deviceAddress {
		flagsInfo := vk.MemoryAllocateFlagsInfo{
			SType: vk.StructureTypeMemoryAllocateFlagsInfo,
			Flags: vk.MemoryAllocateFlags(vk.MemoryAllocateDeviceAddressBit),
		}
		allocInfo.PNext = unsafe.Pointer(&flagsInfo)
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.device, &allocInfo, nil, &memory); res != vk.Success {
		return 0, fmt.Errorf("vkAllocateMemory failed: %d", res)
	}
	m := Memory(d.handle())
	d.memories[m] = memory
	return m, nil
}

func (d *vulkanDriver) FreeMemory(memory Memory) {
	vk.FreeMemory(d.device, d.memories[memory], nil)
	delete(d.memories, memory)
}

func (d *vulkanDriver) MapMemory(memory Memory, offset, size uint64) ([]byte, error) {
	var ptr unsafe.Pointer
	res := vk.MapMemory(d.device, d.memories[memory], vk.DeviceSize(offset), vk.DeviceSize(size), 0, &ptr)
	if res != vk.Success {
		return nil, fmt.Errorf("vkMapMemory failed: %d", res)
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (d *vulkanDriver) UnmapMemory(memory Memory) {
	vk.UnmapMemory(d.device, d.memories[memory])
}

func (d *vulkanDriver) CreateBuffer(size uint64, usage BufferUsageFlags) (Buffer, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       toVkBufferUsage(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if res := vk.CreateBuffer(d.device, &bufferInfo, nil, &buffer); res != vk.Success {
		return 0, fmt.Errorf("vkCreateBuffer failed: %d", res)
	}
	b := Buffer(d.handle())
	d.buffers[b] = buffer
	return b, nil
}

func (d *vulkanDriver) BindBufferMemory(buffer Buffer, memory Memory) error {
	if res := vk.BindBufferMemory(d.device, d.buffers[buffer], d.memories[memory], 0); res != vk.Success {
		return fmt.Errorf("vkBindBufferMemory failed: %d", res)
	}
	return nil
}

func (d *vulkanDriver) DestroyBuffer(buffer Buffer) {
	vk.DestroyBuffer(d.device, d.buffers[buffer], nil)
	delete(d.buffers, buffer)
}

func (d *vulkanDriver) BufferDeviceAddress(buffer Buffer) uint64 {
	return d.khr.bufferDeviceAddress(d.device, d.buffers[buffer])
}

func (d *vulkanDriver) CreateImage(spec ImageSpec) (Image, error) {
	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    toVkFormat(spec.Format),
		Extent: vk.Extent3D{
			Width:  spec.Extent.Width,
			Height: spec.Extent.Height,
			Depth:  1,
		},
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     vk.SampleCount1Bit,
		Tiling:      vk.ImageTilingOptimal,
		Usage: vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) |
			vk.ImageUsageFlags(vk.ImageUsageStorageBit) |
			vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var image vk.Image
	if res := vk.CreateImage(d.device, &imageInfo, nil, &image); res != vk.Success {
		return 0, fmt.Errorf("vkCreateImage failed: %d", res)
	}
	img := Image(d.handle())
	d.images[img] = image
	return img, nil
}

func (d *vulkanDriver) BindImageMemory(image Image, memory Memory) error {
	if res := vk.BindImageMemory(d.device, d.images[image], d.memories[memory], 0); res != vk.Success {
		return fmt.Errorf("vkBindImageMemory failed: %d", res)
	}
	return nil
}

func (d *vulkanDriver) DestroyImage(image Image) {
	vk.DestroyImage(d.device, d.images[image], nil)
	delete(d.images, image)
}

func (d *vulkanDriver) CreateImageView(image Image, format Format) (ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    d.images[image],
		ViewType: vk.ImageViewType2d,
		Format:   toVkFormat(format),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(d.device, &viewInfo, nil, &view); res != vk.Success {
		return 0, fmt.Errorf("vkCreateImageView failed: %d", res)
	}
	v := ImageView(d.handle())
	d.views[v] = view
	return v, nil
}

func (d *vulkanDriver) DestroyImageView(view ImageView) {
	vk.DestroyImageView(d.device, d.views[view], nil)
	delete(d.views, view)
}

func (d *vulkanDriver) AllocateCommandBuffers(count uint32) ([]CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}
	raw := make([]vk.CommandBuffer, count)
	if res := vk.AllocateCommandBuffers(d.device, &allocInfo, raw); res != vk.Success {
		return nil, fmt.Errorf("vkAllocateCommandBuffers failed: %d", res)
	}
	out := make([]CommandBuffer, count)
	for i, rcb := range raw {
		cb := CommandBuffer(d.handle())
		d.cmdBufs[cb] = rcb
		out[i] = cb
	}
	return out, nil
}

func (d *vulkanDriver) FreeCommandBuffers(buffers []CommandBuffer) {
	raw := make([]vk.CommandBuffer, 0, len(buffers))
	for _, cb := range buffers {
		raw = append(raw, d.cmdBufs[cb])
		delete(d.cmdBufs, cb)
	}
	vk.FreeCommandBuffers(d.device, d.commandPool, uint32(len(raw)), raw)
}

func (d *vulkanDriver) ResetCommandBuffer(cb CommandBuffer, releaseResources bool) error {
	var flags vk.CommandBufferResetFlags
	if releaseResources {
		flags = vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit)
	}
	if res := vk.ResetCommandBuffer(d.cmdBufs[cb], flags); res != vk.Success {
		return fmt.Errorf("vkResetCommandBuffer failed: %d", res)
	}
	return nil
}

func (d *vulkanDriver) BeginCommandBuffer(cb CommandBuffer, oneTimeSubmit bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if res := vk.BeginCommandBuffer(d.cmdBufs[cb], &beginInfo); res != vk.Success {
		return fmt.Errorf("vkBeginCommandBuffer failed: %d", res)
	}
	return nil
}

func (d *vulkanDriver) EndCommandBuffer(cb CommandBuffer) error {
	if res := vk.EndCommandBuffer(d.cmdBufs[cb]); res != vk.Success {
		return fmt.Errorf("vkEndCommandBuffer failed: %d", res)
	}
	return nil
}

func (d *vulkanDriver) CmdPipelineBarrier(cb CommandBuffer, srcStage, dstStage PipelineStageFlags, memory []MemoryBarrier, images []ImageBarrier) {
	memBarriers := make([]vk.MemoryBarrier, 0, len(memory))
	for _, mb := range memory {
		memBarriers = append(memBarriers, vk.MemoryBarrier{
			SType:         vk.StructureTypeMemoryBarrier,
			SrcAccessMask: toVkAccess(mb.SrcAccess),
			DstAccessMask: toVkAccess(mb.DstAccess),
		})
	}
	imgBarriers := make([]vk.ImageMemoryBarrier, 0, len(images))
	for _, ib := range images {
		imgBarriers = append(imgBarriers, vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       toVkAccess(ib.SrcAccess),
			DstAccessMask:       toVkAccess(ib.DstAccess),
			OldLayout:           toVkLayout(ib.OldLayout),
			NewLayout:           toVkLayout(ib.NewLayout),
			SrcQueueFamilyIndex: uint32(vk.QueueFamilyIgnored),
			DstQueueFamilyIndex: uint32(vk.QueueFamilyIgnored),
			Image:               d.images[ib.Image],
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		})
	}
	vk.CmdPipelineBarrier(d.cmdBufs[cb],
		toVkStage(srcStage), toVkStage(dstStage), 0,
		uint32(len(memBarriers)), memBarriers,
		0, nil,
		uint32(len(imgBarriers)), imgBarriers)
}

func (d *vulkanDriver) CmdCopyImage(cb CommandBuffer, src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout, extent Extent2D) {
	region := vk.ImageCopy{
		SrcSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		DstSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		Extent: vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
	}
	vk.CmdCopyImage(d.cmdBufs[cb],
		d.images[src], toVkLayout(srcLayout),
		d.images[dst], toVkLayout(dstLayout),
		1, []vk.ImageCopy{region})
}

func (d *vulkanDriver) CmdUpdateBuffer(cb CommandBuffer, dst Buffer, offset uint64, data []byte) {
	vk.CmdUpdateBuffer(d.cmdBufs[cb], d.buffers[dst], vk.DeviceSize(offset), vk.DeviceSize(len(data)), (*uint32)(unsafe.Pointer(&data[0])))
}

func (d *vulkanDriver) CmdBindRayTracingPipeline(cb CommandBuffer, pipeline Pipeline) {
	vk.CmdBindPipeline(d.cmdBufs[cb], vk.PipelineBindPointRayTracing, d.pipelines[pipeline])
}

func (d *vulkanDriver) CmdBindDescriptorSets(cb CommandBuffer, layout PipelineLayout, sets []DescriptorSet) {
	raw := make([]vk.DescriptorSet, 0, len(sets))
	for _, s := range sets {
		raw = append(raw, d.sets[s])
	}
	vk.CmdBindDescriptorSets(d.cmdBufs[cb], vk.PipelineBindPointRayTracing,
		d.layouts[layout].layout, 0, uint32(len(raw)), raw, 0, nil)
}

func (d *vulkanDriver) CmdTraceRays(cb CommandBuffer, raygen, miss, hit, callable StridedRegion, width, height, depth uint32) {
	d.khr.traceRays(d.cmdBufs[cb], raygen, miss, hit, callable, width, height, depth)
}

func (d *vulkanDriver) CmdBuildAccelerationStructure(cb CommandBuffer, info ASBuildInfo) {
	d.khr.cmdBuildAccelerationStructure(d.cmdBufs[cb], newASBuildDesc(info), d.structures[info.Dst])
}

func (d *vulkanDriver) CreateFence(signaled bool) (Fence, error) {
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if res := vk.CreateFence(d.device, &fenceInfo, nil, &fence); res != vk.Success {
		return 0, fmt.Errorf("vkCreateFence failed: %d", res)
	}
	f := Fence(d.handle())
	d.fences[f] = fence
	return f, nil
}

func (d *vulkanDriver) DestroyFence(fence Fence) {
	vk.DestroyFence(d.device, d.fences[fence], nil)
	delete(d.fences, fence)
}

func (d *vulkanDriver) WaitForFences(fences []Fence) error {
	raw := make([]vk.Fence, 0, len(fences))
	for _, f := range fences {
		raw = append(raw, d.fences[f])
	}
	if res := vk.WaitForFences(d.device, uint32(len(raw)), raw, vk.True, ^uint64(0)); res != vk.Success {
		return fmt.Errorf("vkWaitForFences failed: %d", res)
	}
	return nil
}

func (d *vulkanDriver) ResetFences(fences []Fence) error {
	raw := make([]vk.Fence, 0, len(fences))
	for _, f := range fences {
		raw = append(raw, d.fences[f])
	}
	if res := vk.ResetFences(d.device, uint32(len(raw)), raw); res != vk.Success {
		return fmt.Errorf("vkResetFences failed: %d", res)
	}
	return nil
}

func (d *vulkanDriver) CreateSemaphore() (Semaphore, error) {
	semInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var sem vk.Semaphore
	if res := vk.CreateSemaphore(d.device, &semInfo, nil, &sem); res != vk.Success {
		return 0, fmt.Errorf("vkCreateSemaphore failed: %d", res)
	}
	s := Semaphore(d.handle())
	d.semaphores[s] = sem
	return s, nil
}

func (d *vulkanDriver) DestroySemaphore(semaphore Semaphore) {
	vk.DestroySemaphore(d.device, d.semaphores[semaphore], nil)
	delete(d.semaphores, semaphore)
}

func (d *vulkanDriver) QueueSubmit(info SubmitInfo, fence Fence) error {
	waitSems := make([]vk.Semaphore, 0, len(info.WaitSemaphores))
	for _, s := range info.WaitSemaphores {
		waitSems = append(waitSems, d.semaphores[s])
	}
	waitStages := make([]vk.PipelineStageFlags, 0, len(info.WaitStages))
	for _, st := range info.WaitStages {
		waitStages = append(waitStages, toVkStage(st))
	}
	signalSems := make([]vk.Semaphore, 0, len(info.SignalSemaphores))
	for _, s := range info.SignalSemaphores {
		signalSems = append(signalSems, d.semaphores[s])
	}
	cmdBufs := make([]vk.CommandBuffer, 0, len(info.CommandBuffers))
	for _, cb := range info.CommandBuffers {
		cmdBufs = append(cmdBufs, d.cmdBufs[cb])
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waitSems)),
		PWaitSemaphores:      waitSems,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   uint32(len(cmdBufs)),
		PCommandBuffers:      cmdBufs,
		SignalSemaphoreCount: uint32(len(signalSems)),
		PSignalSemaphores:    signalSems,
	}
	vkFence := vk.Fence(vk.NullFence)
	if fence != 0 {
		vkFence = d.fences[fence]
	}
	if res := vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{submitInfo}, vkFence); res != vk.Success {
		return fmt.Errorf("vkQueueSubmit failed: %d", res)
	}
	return nil
}

func (d *vulkanDriver) QueueWaitIdle() error {
	if res := vk.QueueWaitIdle(d.queue); res != vk.Success {
		return fmt.Errorf("vkQueueWaitIdle failed: %d", res)
	}
	return nil
}

func (d *vulkanDriver) DeviceWaitIdle() error {
	if res := vk.DeviceWaitIdle(d.device); res != vk.Success {
		return fmt.Errorf("vkDeviceWaitIdle failed: %d", res)
	}
	return nil
}

func (d *vulkanDriver) QueuePresent(info PresentInfo) error {
	waitSems := make([]vk.Semaphore, 0, len(info.WaitSemaphores))
	for _, s := range info.WaitSemaphores {
		waitSems = append(waitSems, d.semaphores[s])
	}
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(waitSems)),
		PWaitSemaphores:    waitSems,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.swapchains[info.Swapchain]},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	switch res := vk.QueuePresent(d.queue, &presentInfo); res {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate:
		return ErrOutOfDate
	case vk.Suboptimal:
		return ErrSuboptimal
	default:
		return fmt.Errorf("vkQueuePresent failed: %d", res)
	}
}

func (d *vulkanDriver) CreateSwapchain(spec SwapchainSpec) (Swapchain, error) {
	var caps vk.SurfaceCapabilities
	vk.GetPhysicalDeviceSurfaceCapabilities(d.gpu, d.surface, &caps)
	caps.Deref()

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	// Mailbox when available, otherwise the always-supported FIFO.
	presentMode := vk.PresentModeFifo
	for _, mode := range d.presentModes {
		if mode == vk.PresentModeMailbox {
			presentMode = vk.PresentModeMailbox
			break
		}
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         d.surface,
		MinImageCount:   imageCount,
		ImageFormat:     d.surfaceFormat.Format,
		ImageColorSpace: d.surfaceFormat.ColorSpace,
		ImageExtent: vk.Extent2D{
			Width:  spec.Extent.Width,
			Height: spec.Extent.Height,
		},
		ImageArrayLayers: 1,
		ImageUsage: vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) |
			vk.ImageUsageFlags(vk.ImageUsageTransferDstBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
	}
	if spec.OldSwapchain != 0 {
		createInfo.OldSwapchain = d.swapchains[spec.OldSwapchain]
	}

	var swapchain vk.Swapchain
	if res := vk.CreateSwapchain(d.device, &createInfo, nil, &swapchain); res != vk.Success {
		return 0, fmt.Errorf("vkCreateSwapchainKHR failed: %d", res)
	}
	sc := Swapchain(d.handle())
	d.swapchains[sc] = swapchain
	return sc, nil
}

func (d *vulkanDriver) DestroySwapchain(swapchain Swapchain) {
	vk.DestroySwapchain(d.device, d.swapchains[swapchain], nil)
	delete(d.swapchains, swapchain)
}

func (d *vulkanDriver) SwapchainImages(swapchain Swapchain) ([]Image, error) {
	var count uint32
	if res := vk.GetSwapchainImages(d.device, d.swapchains[swapchain], &count, nil); res != vk.Success {
		return nil, fmt.Errorf("vkGetSwapchainImagesKHR failed: %d", res)
	}
	raw := make([]vk.Image, count)
	vk.GetSwapchainImages(d.device, d.swapchains[swapchain], &count, raw)
	out := make([]Image, count)
	for i, img := range raw {
		h := Image(d.handle())
		d.images[h] = img
		out[i] = h
	}
	return out, nil
}

func (d *vulkanDriver) AcquireNextImage(swapchain Swapchain, signal Semaphore, fence Fence) (uint32, error) {
	vkFence := vk.Fence(vk.NullFence)
	if fence != 0 {
		vkFence = d.fences[fence]
	}
	var index uint32
	switch res := vk.AcquireNextImage(d.device, d.swapchains[swapchain], ^uint64(0), d.semaphores[signal], vkFence, &index); res {
	case vk.Success, vk.Suboptimal:
		return index, nil
	case vk.ErrorOutOfDate:
		return 0, ErrOutOfDate
	default:
		return 0, fmt.Errorf("vkAcquireNextImageKHR failed: %d", res)
	}
}

func (d *vulkanDriver) SurfaceFormat() Format {
	switch d.surfaceFormat.Format {
	case vk.FormatR8g8b8a8Unorm:
		return FormatR8G8B8A8Unorm
	default:
		return FormatB8G8R8A8Unorm
	}
}

func (d *vulkanDriver) SurfaceExtent() Extent2D {
	var caps vk.SurfaceCapabilities
	vk.GetPhysicalDeviceSurfaceCapabilities(d.gpu, d.surface, &caps)
	caps.Deref()
	caps.CurrentExtent.Deref()
	return Extent2D{
		Width:  caps.CurrentExtent.Width,
		Height: caps.CurrentExtent.Height,
	}
}

func (d *vulkanDriver) AccelerationStructureBuildSizes(info ASBuildInfo) BuildSizes {
	return d.khr.buildSizes(d.device, newASBuildDesc(info))
}

func (d *vulkanDriver) CreateAccelerationStructure(buffer Buffer, size uint64, asType ASType) (AccelerationStructure, error) {
	structure, err := d.khr.createAccelerationStructure(d.device, d.buffers[buffer], size, asType)
	if err != nil {
		return 0, err
	}
	as := AccelerationStructure(d.handle())
	d.structures[as] = structure
	return as, nil
}

func (d *vulkanDriver) DestroyAccelerationStructure(as AccelerationStructure) {
	d.khr.destroyAccelerationStructure(d.device, d.structures[as])
	delete(d.structures, as)
}

func (d *vulkanDriver) AccelerationStructureDeviceAddress(as AccelerationStructure) uint64 {
	return d.khr.accelerationStructureDeviceAddress(d.device, d.structures[as])
}

func (d *vulkanDriver) RayTracingProperties() RayTracingProperties {
	return d.rtProps
}

func (d *vulkanDriver) CreateShaderModule(code []byte) (ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    sliceUint32(code),
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(d.device, &createInfo, nil, &module); res != vk.Success {
		return 0, fmt.Errorf("vkCreateShaderModule failed: %d", res)
	}
	m := ShaderModule(d.handle())
	d.shaders[m] = module
	return m, nil
}

func (d *vulkanDriver) DestroyShaderModule(module ShaderModule) {
	vk.DestroyShaderModule(d.device, d.shaders[module], nil)
	delete(d.shaders, module)
}

func (d *vulkanDriver) CreateRayTracingPipeline(spec RayTracingPipelineSpec) (Pipeline, PipelineLayout, error) {
	setLayout, pool, err := d.createDescriptorMachinery()
	if err != nil {
		return 0, 0, err
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{setLayout},
	}
	var pipelineLayout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(d.device, &layoutInfo, nil, &pipelineLayout); res != vk.Success {
		return 0, 0, fmt.Errorf("vkCreatePipelineLayout failed: %d", res)
	}

	stages := make([]khrStageDesc, 0, len(spec.Stages))
	for _, st := range spec.Stages {
		stages = append(stages, khrStageDesc{
			Stage:  int32(toVkShaderStage(st.Stage)),
			Module: d.shaders[st.Module],
			Name:   st.EntryPoint,
		})
	}

	groups := make([]khrGroupDesc, 0, len(spec.Groups))
	for _, g := range spec.Groups {
		group := khrGroupDesc{
			General:      shaderUnused,
			ClosestHit:   shaderUnused,
			AnyHit:       shaderUnused,
			Intersection: shaderUnused,
		}
		switch {
		case g.General >= 0:
			group.Type = shaderGroupGeneral
			group.General = uint32(g.General)
		case g.Intersection >= 0:
			group.Type = shaderGroupProceduralHit
			group.Intersection = uint32(g.Intersection)
			if g.ClosestHit >= 0 {
				group.ClosestHit = uint32(g.ClosestHit)
			}
		default:
			group.Type = shaderGroupTrianglesHit
			if g.ClosestHit >= 0 {
				group.ClosestHit = uint32(g.ClosestHit)
			}
		}
		groups = append(groups, group)
	}

	pipeline, err := d.khr.createRayTracingPipeline(d.device, stages, groups, spec.MaxRecursionDepth, pipelineLayout)
	if err != nil {
		return 0, 0, err
	}

	p := Pipeline(d.handle())
	l := PipelineLayout(d.handle())
	d.pipelines[p] = pipeline
	d.layouts[l] = &vulkanPipelineLayout{
		layout:    pipelineLayout,
		setLayout: setLayout,
		pool:      pool,
	}
	return p, l, nil
}

// createDescriptorMachinery creates the fixed descriptor set layout of the
// frame pipeline (binding 0 TLAS, binding 1 storage image, binding 2 uniform
// block) and a pool sized for the single frame descriptor set.
func (d *vulkanDriver) createDescriptorMachinery() (vk.DescriptorSetLayout, vk.DescriptorPool, error) {
	rayStages := vk.ShaderStageFlags(vk.ShaderStageRaygenBit)
	allRayStages := vk.ShaderStageFlags(vk.ShaderStageRaygenBit) |
		vk.ShaderStageFlags(vk.ShaderStageClosestHitBit) |
		vk.ShaderStageFlags(vk.ShaderStageIntersectionBit) |
		vk.ShaderStageFlags(vk.ShaderStageMissBit)

	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeAccelerationStructure,
			DescriptorCount: 1,
			StageFlags:      rayStages,
		},
		{
			Binding:         1,
			DescriptorType:  vk.DescriptorTypeStorageImage,
			DescriptorCount: 1,
			StageFlags:      rayStages,
		},
		{
			Binding:         2,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      allRayStages,
		},
	}

	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var setLayout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(d.device, &layoutInfo, nil, &setLayout); res != vk.Success {
		return setLayout, vk.DescriptorPool(vk.NullHandle), fmt.Errorf("vkCreateDescriptorSetLayout failed: %d", res)
	}

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeAccelerationStructure, DescriptorCount: 1},
		{Type: vk.DescriptorTypeStorageImage, DescriptorCount: 1},
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: 1},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(d.device, &poolInfo, nil, &pool); res != vk.Success {
		return setLayout, pool, fmt.Errorf("vkCreateDescriptorPool failed: %d", res)
	}
	return setLayout, pool, nil
}

func (d *vulkanDriver) DestroyPipeline(pipeline Pipeline, layout PipelineLayout) {
	vk.DestroyPipeline(d.device, d.pipelines[pipeline], nil)
	delete(d.pipelines, pipeline)
	if l, ok := d.layouts[layout]; ok {
		vk.DestroyPipelineLayout(d.device, l.layout, nil)
		vk.DestroyDescriptorPool(d.device, l.pool, nil)
		vk.DestroyDescriptorSetLayout(d.device, l.setLayout, nil)
		delete(d.layouts, layout)
	}
}

func (d *vulkanDriver) ShaderGroupHandles(pipeline Pipeline, groupCount uint32) ([]byte, error) {
	data := make([]byte, groupCount*d.rtProps.ShaderGroupHandleSize)
	if err := d.khr.shaderGroupHandles(d.device, d.pipelines[pipeline], 0, groupCount, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (d *vulkanDriver) AllocateDescriptorSet(layout PipelineLayout) (DescriptorSet, error) {
	l, ok := d.layouts[layout]
	if !ok {
		return 0, fmt.Errorf("descriptor set requested for unknown pipeline layout %d", layout)
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     l.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{l.setLayout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(d.device, &allocInfo, &sets[0]); res != vk.Success {
		return 0, fmt.Errorf("vkAllocateDescriptorSets failed: %d", res)
	}
	s := DescriptorSet(d.handle())
	d.sets[s] = sets[0]
	return s, nil
}

func (d *vulkanDriver) UpdateAccelerationStructureDescriptor(set DescriptorSet, binding uint32, as AccelerationStructure) {
	asInfo, release := writeASDescriptorInfo(d.structures[as])
	defer release()
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		PNext:           asInfo,
		DstSet:          d.sets[set],
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeAccelerationStructure,
	}
	vk.UpdateDescriptorSets(d.device, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

func (d *vulkanDriver) UpdateStorageImageDescriptor(set DescriptorSet, binding uint32, view ImageView) {
	imageInfo := vk.DescriptorImageInfo{
		ImageView:   d.views[view],
		ImageLayout: vk.ImageLayoutGeneral,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          d.sets[set],
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeStorageImage,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}
	vk.UpdateDescriptorSets(d.device, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

func (d *vulkanDriver) UpdateUniformBufferDescriptor(set DescriptorSet, binding uint32, buffer Buffer, size uint64) {
	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: d.buffers[buffer],
		Offset: 0,
		Range:  vk.DeviceSize(size),
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          d.sets[set],
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
	}
	vk.UpdateDescriptorSets(d.device, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

func (d *vulkanDriver) Destroy() {
	vk.DestroyCommandPool(d.device, d.commandPool, nil)
	vk.DestroyDevice(d.device, nil)
	vk.DestroySurface(d.instance, d.surface, nil)
	vk.DestroyInstance(d.instance, nil)
}

func toVkBufferUsage(usage BufferUsageFlags) vk.BufferUsageFlags {
	var out vk.BufferUsageFlags
	if usage&UsageTransferSrc != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	if usage&UsageTransferDst != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}
	if usage&UsageUniformBuffer != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	if usage&UsageStorageBuffer != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	}
	if usage&UsageShaderDeviceAddress != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageShaderDeviceAddressBit)
	}
	if usage&UsageAccelerationStructureStorage != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageAccelerationStructureStorageBit)
	}
	if usage&UsageAccelerationStructureBuildInput != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageAccelerationStructureBuildInputReadOnlyBit)
	}
	if usage&UsageShaderBindingTable != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageShaderBindingTableBit)
	}
	return out
}

func toVkFormat(format Format) vk.Format {
	switch format {
	case FormatR8G8B8A8Unorm:
		return vk.FormatR8g8b8a8Unorm
	default:
		return vk.FormatB8g8r8a8Unorm
	}
}

func toVkLayout(layout ImageLayout) vk.ImageLayout {
	switch layout {
	case LayoutGeneral:
		return vk.ImageLayoutGeneral
	case LayoutTransferSrc:
		return vk.ImageLayoutTransferSrcOptimal
	case LayoutTransferDst:
		return vk.ImageLayoutTransferDstOptimal
	case LayoutPresentSrc:
		return vk.ImageLayoutPresentSrc
	default:
		return vk.ImageLayoutUndefined
	}
}

func toVkStage(stage PipelineStageFlags) vk.PipelineStageFlags {
	var out vk.PipelineStageFlags
	if stage&StageTopOfPipe != 0 {
		out |= vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}
	if stage&StageTransfer != 0 {
		out |= vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	}
	if stage&StageRayTracingShader != 0 {
		out |= vk.PipelineStageFlags(vk.PipelineStageRayTracingShaderBit)
	}
	if stage&StageAccelerationStructureBuild != 0 {
		out |= vk.PipelineStageFlags(vk.PipelineStageAccelerationStructureBuildBit)
	}
	if stage&StageColorAttachmentOutput != 0 {
		out |= vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	}
	if stage&StageBottomOfPipe != 0 {
		out |= vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	}
	if stage&StageAllCommands != 0 {
		out |= vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	}
	return out
}

func toVkAccess(access AccessFlags) vk.AccessFlags {
	var out vk.AccessFlags
	if access&AccessTransferRead != 0 {
		out |= vk.AccessFlags(vk.AccessTransferReadBit)
	}
	if access&AccessTransferWrite != 0 {
		out |= vk.AccessFlags(vk.AccessTransferWriteBit)
	}
	if access&AccessShaderRead != 0 {
		out |= vk.AccessFlags(vk.AccessShaderReadBit)
	}
	if access&AccessShaderWrite != 0 {
		out |= vk.AccessFlags(vk.AccessShaderWriteBit)
	}
	if access&AccessAccelerationStructureRead != 0 {
		out |= vk.AccessFlags(vk.AccessAccelerationStructureReadBit)
	}
	if access&AccessAccelerationStructureWrite != 0 {
		out |= vk.AccessFlags(vk.AccessAccelerationStructureWriteBit)
	}
	if access&AccessMemoryRead != 0 {
		out |= vk.AccessFlags(vk.AccessMemoryReadBit)
	}
	return out
}

func toVkShaderStage(stage ShaderStage) vk.ShaderStageFlagBits {
	switch stage {
	case StageMiss:
		return vk.ShaderStageMissBit
	case StageClosestHit:
		return vk.ShaderStageClosestHitBit
	case StageIntersection:
		return vk.ShaderStageIntersectionBit
	default:
		return vk.ShaderStageRaygenBit
	}
}

// sliceUint32 reinterprets SPIR-V bytes as the uint32 words the driver
// expects. The input length must be a multiple of 4.
func sliceUint32(data []byte) []uint32 {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}
