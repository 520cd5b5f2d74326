package driver

/*
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

// goki/vulkan v1.0.8 carries the enums, handle types, and feature bits of
// VK_KHR_acceleration_structure and VK_KHR_ray_tracing_pipeline but none of
// the extension's commands or parameter structs. The declarations below
// mirror the extension's C ABI (vulkan_core.h, header 239); the commands are
// resolved at device bring-up through vkGetDeviceProcAddr and dispatched
// through these helpers. Non-dispatchable handles travel as uint64_t, which
// matches the pointer representation on 64-bit targets.

typedef void*    khrPtr;
typedef uint64_t khrHandle;
typedef uint64_t khrDeviceAddress;
typedef uint64_t khrDeviceSize;

typedef union khrAddressConst {
	khrDeviceAddress deviceAddress;
	const void*      hostAddress;
} khrAddressConst;

typedef union khrAddress {
	khrDeviceAddress deviceAddress;
	void*            hostAddress;
} khrAddress;

typedef struct khrGeometryTrianglesData {
	int32_t         sType;
	const void*     pNext;
	int32_t         vertexFormat;
	khrAddressConst vertexData;
	khrDeviceSize   vertexStride;
	uint32_t        maxVertex;
	int32_t         indexType;
	khrAddressConst indexData;
	khrAddressConst transformData;
} khrGeometryTrianglesData;

typedef struct khrGeometryAabbsData {
	int32_t         sType;
	const void*     pNext;
	khrAddressConst data;
	khrDeviceSize   stride;
} khrGeometryAabbsData;

typedef struct khrGeometryInstancesData {
	int32_t         sType;
	const void*     pNext;
	uint32_t        arrayOfPointers;
	khrAddressConst data;
} khrGeometryInstancesData;

typedef union khrGeometryData {
	khrGeometryTrianglesData triangles;
	khrGeometryAabbsData     aabbs;
	khrGeometryInstancesData instances;
} khrGeometryData;

typedef struct khrGeometry {
	int32_t         sType;
	const void*     pNext;
	int32_t         geometryType;
	khrGeometryData geometry;
	uint32_t        flags;
} khrGeometry;

typedef struct khrBuildGeometryInfo {
	int32_t                  sType;
	const void*              pNext;
	int32_t                  type;
	uint32_t                 flags;
	int32_t                  mode;
	khrHandle                srcAccelerationStructure;
	khrHandle                dstAccelerationStructure;
	uint32_t                 geometryCount;
	const khrGeometry*       pGeometries;
	const khrGeometry* const* ppGeometries;
	khrAddress               scratchData;
} khrBuildGeometryInfo;

typedef struct khrBuildRangeInfo {
	uint32_t primitiveCount;
	uint32_t primitiveOffset;
	uint32_t firstVertex;
	uint32_t transformOffset;
} khrBuildRangeInfo;

typedef struct khrBuildSizesInfo {
	int32_t       sType;
	const void*   pNext;
	khrDeviceSize accelerationStructureSize;
	khrDeviceSize updateScratchSize;
	khrDeviceSize buildScratchSize;
} khrBuildSizesInfo;

typedef struct khrASCreateInfo {
	int32_t          sType;
	const void*      pNext;
	uint32_t         createFlags;
	khrHandle        buffer;
	khrDeviceSize    offset;
	khrDeviceSize    size;
	int32_t          type;
	khrDeviceAddress deviceAddress;
} khrASCreateInfo;

typedef struct khrASDeviceAddressInfo {
	int32_t     sType;
	const void* pNext;
	khrHandle   accelerationStructure;
} khrASDeviceAddressInfo;

typedef struct khrBufferDeviceAddressInfo {
	int32_t     sType;
	const void* pNext;
	khrHandle   buffer;
} khrBufferDeviceAddressInfo;

typedef struct khrStridedRegion {
	khrDeviceAddress deviceAddress;
	khrDeviceSize    stride;
	khrDeviceSize    size;
} khrStridedRegion;

typedef struct khrShaderStageInfo {
	int32_t     sType;
	const void* pNext;
	uint32_t    flags;
	int32_t     stage;
	khrHandle   module;
	const char* pName;
	const void* pSpecializationInfo;
} khrShaderStageInfo;

typedef struct khrShaderGroupInfo {
	int32_t     sType;
	const void* pNext;
	int32_t     type;
	uint32_t    generalShader;
	uint32_t    closestHitShader;
	uint32_t    anyHitShader;
	uint32_t    intersectionShader;
	const void* pShaderGroupCaptureReplayHandle;
} khrShaderGroupInfo;

typedef struct khrRTPipelineCreateInfo {
	int32_t                   sType;
	const void*               pNext;
	uint32_t                  flags;
	uint32_t                  stageCount;
	const khrShaderStageInfo* pStages;
	uint32_t                  groupCount;
	const khrShaderGroupInfo* pGroups;
	uint32_t                  maxPipelineRayRecursionDepth;
	const void*               pLibraryInfo;
	const void*               pLibraryInterface;
	const void*               pDynamicState;
	khrHandle                 layout;
	khrHandle                 basePipelineHandle;
	int32_t                   basePipelineIndex;
} khrRTPipelineCreateInfo;

typedef struct khrWriteDescriptorSetAS {
	int32_t          sType;
	const void*      pNext;
	uint32_t         accelerationStructureCount;
	const khrHandle* pAccelerationStructures;
} khrWriteDescriptorSetAS;

typedef struct khrASFeatures {
	int32_t  sType;
	void*    pNext;
	uint32_t accelerationStructure;
	uint32_t accelerationStructureCaptureReplay;
	uint32_t accelerationStructureIndirectBuild;
	uint32_t accelerationStructureHostCommands;
	uint32_t descriptorBindingAccelerationStructureUpdateAfterBind;
} khrASFeatures;

typedef struct khrRTPipelineFeatures {
	int32_t  sType;
	void*    pNext;
	uint32_t rayTracingPipeline;
	uint32_t rayTracingPipelineShaderGroupHandleCaptureReplay;
	uint32_t rayTracingPipelineShaderGroupHandleCaptureReplayMixed;
	uint32_t rayTracingPipelineTraceRaysIndirect;
	uint32_t rayTraversalPrimitiveCulling;
} khrRTPipelineFeatures;

typedef struct khrRTPipelineProperties {
	int32_t  sType;
	void*    pNext;
	uint32_t shaderGroupHandleSize;
	uint32_t maxRayRecursionDepth;
	uint32_t maxShaderGroupStride;
	uint32_t shaderGroupBaseAlignment;
	uint32_t shaderGroupHandleCaptureReplaySize;
	uint32_t maxRayDispatchInvocationCount;
	uint32_t shaderGroupHandleAlignment;
	uint32_t maxRayHitAttributeSize;
} khrRTPipelineProperties;

// The flattened build description a Go caller hands across; khrFillBuild
// expands it into the geometry and build-info structs the extension expects.
typedef struct khrBuildDesc {
	int32_t          topLevel;
	int32_t          geometryType;
	uint32_t         opaque;
	khrDeviceAddress vertexData;
	khrDeviceSize    vertexStride;
	uint32_t         maxVertex;
	khrDeviceAddress indexData;
	khrDeviceAddress aabbData;
	khrDeviceSize    aabbStride;
	khrDeviceAddress instanceData;
	khrHandle        dst;
	khrDeviceAddress scratch;
	uint32_t         primitiveCount;
} khrBuildDesc;

static void khrFillBuild(const khrBuildDesc* d, khrGeometry* g, khrBuildGeometryInfo* info) {
	memset(g, 0, sizeof *g);
	memset(info, 0, sizeof *info);
	g->sType = 1000150006; // ACCELERATION_STRUCTURE_GEOMETRY_KHR
	g->geometryType = d->geometryType;
	g->flags = d->opaque ? 1 : 0; // GEOMETRY_OPAQUE_BIT_KHR
	switch (d->geometryType) {
	case 0: // GEOMETRY_TYPE_TRIANGLES_KHR
		g->geometry.triangles.sType = 1000150005;
		g->geometry.triangles.vertexFormat = 106; // FORMAT_R32G32B32_SFLOAT
		g->geometry.triangles.vertexData.deviceAddress = d->vertexData;
		g->geometry.triangles.vertexStride = d->vertexStride;
		g->geometry.triangles.maxVertex = d->maxVertex;
		g->geometry.triangles.indexType = 1; // INDEX_TYPE_UINT32
		g->geometry.triangles.indexData.deviceAddress = d->indexData;
		break;
	case 1: // GEOMETRY_TYPE_AABBS_KHR
		g->geometry.aabbs.sType = 1000150003;
		g->geometry.aabbs.data.deviceAddress = d->aabbData;
		g->geometry.aabbs.stride = d->aabbStride;
		break;
	default: // GEOMETRY_TYPE_INSTANCES_KHR
		g->geometry.instances.sType = 1000150004;
		g->geometry.instances.data.deviceAddress = d->instanceData;
		break;
	}
	info->sType = 1000150000; // ACCELERATION_STRUCTURE_BUILD_GEOMETRY_INFO_KHR
	info->type = d->topLevel ? 0 : 1;
	info->mode = 0; // BUILD_ACCELERATION_STRUCTURE_MODE_BUILD_KHR
	info->dstAccelerationStructure = d->dst;
	info->geometryCount = 1;
	info->pGeometries = g;
	info->scratchData.deviceAddress = d->scratch;
}

// khrProperties2 stands in for VkPhysicalDeviceProperties2: only sType and
// the pNext chain matter here, so the properties block is an oversized blob
// the driver writes into.
typedef struct khrProperties2 {
	int32_t       sType;
	void*         pNext;
	unsigned char properties[4096];
} khrProperties2;

typedef void (*khrVoidFn)(void);
typedef khrVoidFn (*khrGetProcAddrFn)(khrPtr, const char*);

static void* khrLoadProc(khrPtr loader, khrPtr handle, const char* name) {
	return (void*)((khrGetProcAddrFn)loader)(handle, name);
}

typedef void (*PFN_khrGetProperties2)(khrPtr, khrProperties2*);
static void khrGetRTPipelineProperties(void* fp, khrPtr gpu, uint32_t* handleSize, uint32_t* baseAlignment) {
	khrRTPipelineProperties rt;
	memset(&rt, 0, sizeof rt);
	rt.sType = 1000347001; // PHYSICAL_DEVICE_RAY_TRACING_PIPELINE_PROPERTIES_KHR
	khrProperties2 props;
	memset(&props, 0, sizeof props);
	props.sType = 1000059001; // PHYSICAL_DEVICE_PROPERTIES_2
	props.pNext = &rt;
	((PFN_khrGetProperties2)fp)(gpu, &props);
	*handleSize = rt.shaderGroupHandleSize;
	*baseAlignment = rt.shaderGroupBaseAlignment;
}

typedef uint64_t (*PFN_khrGetBufferDeviceAddress)(khrPtr, const khrBufferDeviceAddressInfo*);
static uint64_t khrGetBufferDeviceAddress(void* fp, khrPtr device, khrHandle buffer) {
	khrBufferDeviceAddressInfo info;
	memset(&info, 0, sizeof info);
	info.sType = 1000244001; // BUFFER_DEVICE_ADDRESS_INFO
	info.buffer = buffer;
	return ((PFN_khrGetBufferDeviceAddress)fp)(device, &info);
}

typedef void (*PFN_khrCmdTraceRays)(khrPtr, const khrStridedRegion*, const khrStridedRegion*, const khrStridedRegion*, const khrStridedRegion*, uint32_t, uint32_t, uint32_t);
static void khrCmdTraceRays(void* fp, khrPtr cb,
	khrStridedRegion rgen, khrStridedRegion miss, khrStridedRegion hit, khrStridedRegion call,
	uint32_t w, uint32_t h, uint32_t depth) {
	((PFN_khrCmdTraceRays)fp)(cb, &rgen, &miss, &hit, &call, w, h, depth);
}

typedef void (*PFN_khrCmdBuildAS)(khrPtr, uint32_t, const khrBuildGeometryInfo*, const khrBuildRangeInfo* const*);
static void khrCmdBuildAS(void* fp, khrPtr cb, khrBuildDesc d) {
	khrGeometry g;
	khrBuildGeometryInfo info;
	khrFillBuild(&d, &g, &info);
	khrBuildRangeInfo range = {d.primitiveCount, 0, 0, 0};
	const khrBuildRangeInfo* pRange = &range;
	((PFN_khrCmdBuildAS)fp)(cb, 1, &info, &pRange);
}

typedef void (*PFN_khrGetASBuildSizes)(khrPtr, int32_t, const khrBuildGeometryInfo*, const uint32_t*, khrBuildSizesInfo*);
static void khrGetASBuildSizes(void* fp, khrPtr device, khrBuildDesc d, uint64_t* asSize, uint64_t* scratchSize) {
	khrGeometry g;
	khrBuildGeometryInfo info;
	khrFillBuild(&d, &g, &info);
	khrBuildSizesInfo sizes;
	memset(&sizes, 0, sizeof sizes);
	sizes.sType = 1000150020; // ACCELERATION_STRUCTURE_BUILD_SIZES_INFO_KHR
	uint32_t primCount = d.primitiveCount;
	((PFN_khrGetASBuildSizes)fp)(device, 1, &info, &primCount, &sizes); // 1 = BUILD_TYPE_DEVICE
	*asSize = sizes.accelerationStructureSize;
	*scratchSize = sizes.buildScratchSize;
}

typedef int32_t (*PFN_khrCreateAS)(khrPtr, const khrASCreateInfo*, const void*, khrHandle*);
static int32_t khrCreateAS(void* fp, khrPtr device, khrHandle buffer, khrDeviceSize size, int32_t topLevel, khrHandle* out) {
	khrASCreateInfo info;
	memset(&info, 0, sizeof info);
	info.sType = 1000150017; // ACCELERATION_STRUCTURE_CREATE_INFO_KHR
	info.buffer = buffer;
	info.size = size;
	info.type = topLevel ? 0 : 1;
	return ((PFN_khrCreateAS)fp)(device, &info, NULL, out);
}

typedef void (*PFN_khrDestroyAS)(khrPtr, khrHandle, const void*);
static void khrDestroyAS(void* fp, khrPtr device, khrHandle as) {
	((PFN_khrDestroyAS)fp)(device, as, NULL);
}

typedef uint64_t (*PFN_khrGetASDeviceAddress)(khrPtr, const khrASDeviceAddressInfo*);
static uint64_t khrGetASDeviceAddress(void* fp, khrPtr device, khrHandle as) {
	khrASDeviceAddressInfo info;
	memset(&info, 0, sizeof info);
	info.sType = 1000150002; // ACCELERATION_STRUCTURE_DEVICE_ADDRESS_INFO_KHR
	info.accelerationStructure = as;
	return ((PFN_khrGetASDeviceAddress)fp)(device, &info);
}

typedef int32_t (*PFN_khrCreateRTPipelines)(khrPtr, khrHandle, khrHandle, uint32_t, const khrRTPipelineCreateInfo*, const void*, khrHandle*);
static int32_t khrCreateRTPipelines(void* fp, khrPtr device,
	uint32_t stageCount, const khrShaderStageInfo* stages,
	uint32_t groupCount, const khrShaderGroupInfo* groups,
	uint32_t maxDepth, khrHandle layout, khrHandle* out) {
	khrRTPipelineCreateInfo info;
	memset(&info, 0, sizeof info);
	info.sType = 1000150015; // RAY_TRACING_PIPELINE_CREATE_INFO_KHR
	info.stageCount = stageCount;
	info.pStages = stages;
	info.groupCount = groupCount;
	info.pGroups = groups;
	info.maxPipelineRayRecursionDepth = maxDepth;
	info.layout = layout;
	return ((PFN_khrCreateRTPipelines)fp)(device, 0, 0, 1, &info, NULL, out);
}

typedef int32_t (*PFN_khrGetGroupHandles)(khrPtr, khrHandle, uint32_t, uint32_t, size_t, void*);
static int32_t khrGetGroupHandles(void* fp, khrPtr device, khrHandle pipeline, uint32_t first, uint32_t count, size_t size, void* data) {
	return ((PFN_khrGetGroupHandles)fp)(device, pipeline, first, count, size, data);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// khrDispatch holds the resolved device-level entry points of the
// ray-tracing extensions.
type khrDispatch struct {
	getProperties2         unsafe.Pointer
	getBufferDeviceAddress unsafe.Pointer
	cmdTraceRays           unsafe.Pointer
	cmdBuildAS             unsafe.Pointer
	getASBuildSizes        unsafe.Pointer
	createAS               unsafe.Pointer
	destroyAS              unsafe.Pointer
	getASDeviceAddress     unsafe.Pointer
	createRTPipelines      unsafe.Pointer
	getGroupHandles        unsafe.Pointer
}

// dispatchPtr reinterprets a goki dispatchable handle (VkInstance, VkDevice,
// VkCommandBuffer) as the raw pointer the loader traffics in.
func dispatchPtr[H any](h H) C.khrPtr {
	return C.khrPtr(*(*unsafe.Pointer)(unsafe.Pointer(&h)))
}

// rawHandle reinterprets a goki non-dispatchable handle as its 64-bit value.
func rawHandle[H any](h H) C.khrHandle {
	return *(*C.khrHandle)(unsafe.Pointer(&h))
}

func handleFromRaw[H any](raw C.khrHandle) H {
	return *(*H)(unsafe.Pointer(&raw))
}

// loadKHRDispatch resolves the acceleration-structure and ray-tracing
// pipeline commands for a freshly created device. loader is the
// vkGetInstanceProcAddr pointer the window layer provided.
func loadKHRDispatch(loader unsafe.Pointer, instance vk.Instance, device vk.Device) (*khrDispatch, error) {
	instPtr := dispatchPtr(instance)
	devPtr := dispatchPtr(device)

	name := C.CString("vkGetDeviceProcAddr")
	gdpa := C.khrLoadProc(C.khrPtr(loader), instPtr, name)
	C.free(unsafe.Pointer(name))
	if gdpa == nil {
		return nil, fmt.Errorf("loader returned no vkGetDeviceProcAddr")
	}

	k := &khrDispatch{}

	// vkGetPhysicalDeviceProperties2 is instance-level.
	name = C.CString("vkGetPhysicalDeviceProperties2")
	k.getProperties2 = C.khrLoadProc(C.khrPtr(loader), instPtr, name)
	C.free(unsafe.Pointer(name))
	if k.getProperties2 == nil {
		return nil, fmt.Errorf("instance does not expose vkGetPhysicalDeviceProperties2")
	}

	load := func(out *unsafe.Pointer, proc string) error {
		cname := C.CString(proc)
		fp := C.khrLoadProc(C.khrPtr(gdpa), devPtr, cname)
		C.free(unsafe.Pointer(cname))
		if fp == nil {
			return fmt.Errorf("device does not expose %s", proc)
		}
		*out = fp
		return nil
	}

	procs := []struct {
		out  *unsafe.Pointer
		name string
	}{
		{&k.getBufferDeviceAddress, "vkGetBufferDeviceAddress"},
		{&k.cmdTraceRays, "vkCmdTraceRaysKHR"},
		{&k.cmdBuildAS, "vkCmdBuildAccelerationStructuresKHR"},
		{&k.getASBuildSizes, "vkGetAccelerationStructureBuildSizesKHR"},
		{&k.createAS, "vkCreateAccelerationStructureKHR"},
		{&k.destroyAS, "vkDestroyAccelerationStructureKHR"},
		{&k.getASDeviceAddress, "vkGetAccelerationStructureDeviceAddressKHR"},
		{&k.createRTPipelines, "vkCreateRayTracingPipelinesKHR"},
		{&k.getGroupHandles, "vkGetRayTracingShaderGroupHandlesKHR"},
	}
	for _, p := range procs {
		if err := load(p.out, p.name); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func (k *khrDispatch) bufferDeviceAddress(device vk.Device, buffer vk.Buffer) uint64 {
	return uint64(C.khrGetBufferDeviceAddress(k.getBufferDeviceAddress, dispatchPtr(device), rawHandle(buffer)))
}

func toKHRRegion(region StridedRegion) C.khrStridedRegion {
	return C.khrStridedRegion{
		deviceAddress: C.khrDeviceAddress(region.DeviceAddress),
		stride:        C.khrDeviceSize(region.Stride),
		size:          C.khrDeviceSize(region.Size),
	}
}

func (k *khrDispatch) traceRays(cb vk.CommandBuffer, raygen, miss, hit, callable StridedRegion, width, height, depth uint32) {
	C.khrCmdTraceRays(k.cmdTraceRays, dispatchPtr(cb),
		toKHRRegion(raygen), toKHRRegion(miss), toKHRRegion(hit), toKHRRegion(callable),
		C.uint32_t(width), C.uint32_t(height), C.uint32_t(depth))
}

// asBuildDesc is the flattened geometry description handed to the C side.
// Geometry kinds carry the VkGeometryTypeKHR values.
type asBuildDesc struct {
	TopLevel       bool
	GeometryType   int32
	Opaque         bool
	VertexData     uint64
	VertexStride   uint64
	MaxVertex      uint32
	IndexData      uint64
	AABBData       uint64
	AABBStride     uint64
	InstanceData   uint64
	Scratch        uint64
	PrimitiveCount uint32
}

func newASBuildDesc(info ASBuildInfo) asBuildDesc {
	desc := asBuildDesc{
		TopLevel:       info.Type == TopLevel,
		Opaque:         info.Geometry.Opaque,
		Scratch:        info.ScratchAddress,
		PrimitiveCount: info.PrimitiveCount,
	}
	switch info.Geometry.Kind {
	case GeometryTriangles:
		desc.GeometryType = 0
		desc.VertexData = info.Geometry.VertexDataAddress
		desc.VertexStride = info.Geometry.VertexStride
		desc.MaxVertex = info.Geometry.MaxVertex
		desc.IndexData = info.Geometry.IndexDataAddress
	case GeometryAABBs:
		desc.GeometryType = 1
		desc.AABBData = info.Geometry.AABBDataAddress
		desc.AABBStride = info.Geometry.AABBStride
	case GeometryInstances:
		desc.GeometryType = 2
		desc.InstanceData = info.Geometry.InstanceDataAddress
	}
	return desc
}

func (d asBuildDesc) c(dst C.khrHandle) C.khrBuildDesc {
	out := C.khrBuildDesc{
		geometryType:   C.int32_t(d.GeometryType),
		vertexData:     C.khrDeviceAddress(d.VertexData),
		vertexStride:   C.khrDeviceSize(d.VertexStride),
		maxVertex:      C.uint32_t(d.MaxVertex),
		indexData:      C.khrDeviceAddress(d.IndexData),
		aabbData:       C.khrDeviceAddress(d.AABBData),
		aabbStride:     C.khrDeviceSize(d.AABBStride),
		instanceData:   C.khrDeviceAddress(d.InstanceData),
		dst:            dst,
		scratch:        C.khrDeviceAddress(d.Scratch),
		primitiveCount: C.uint32_t(d.PrimitiveCount),
	}
	if d.TopLevel {
		out.topLevel = 1
	}
	if d.Opaque {
		out.opaque = 1
	}
	return out
}

func (k *khrDispatch) cmdBuildAccelerationStructure(cb vk.CommandBuffer, desc asBuildDesc, dst vk.AccelerationStructure) {
	C.khrCmdBuildAS(k.cmdBuildAS, dispatchPtr(cb), desc.c(rawHandle(dst)))
}

func (k *khrDispatch) buildSizes(device vk.Device, desc asBuildDesc) BuildSizes {
	var asSize, scratchSize C.uint64_t
	C.khrGetASBuildSizes(k.getASBuildSizes, dispatchPtr(device), desc.c(0), &asSize, &scratchSize)
	return BuildSizes{
		AccelerationStructureSize: uint64(asSize),
		BuildScratchSize:          uint64(scratchSize),
	}
}

func (k *khrDispatch) createAccelerationStructure(device vk.Device, buffer vk.Buffer, size uint64, asType ASType) (vk.AccelerationStructure, error) {
	topLevel := C.int32_t(0)
	if asType == TopLevel {
		topLevel = 1
	}
	var out C.khrHandle
	res := C.khrCreateAS(k.createAS, dispatchPtr(device), rawHandle(buffer), C.khrDeviceSize(size), topLevel, &out)
	if res != 0 {
		return handleFromRaw[vk.AccelerationStructure](0), fmt.Errorf("vkCreateAccelerationStructureKHR failed: %d", res)
	}
	return handleFromRaw[vk.AccelerationStructure](out), nil
}

func (k *khrDispatch) destroyAccelerationStructure(device vk.Device, as vk.AccelerationStructure) {
	C.khrDestroyAS(k.destroyAS, dispatchPtr(device), rawHandle(as))
}

func (k *khrDispatch) accelerationStructureDeviceAddress(device vk.Device, as vk.AccelerationStructure) uint64 {
	return uint64(C.khrGetASDeviceAddress(k.getASDeviceAddress, dispatchPtr(device), rawHandle(as)))
}

// khrStageDesc and khrGroupDesc are the Go-side forms of the pipeline stage
// and group entries; createRayTracingPipeline marshals them into C arrays.
type khrStageDesc struct {
	Stage  int32 // VkShaderStageFlagBits value
	Module vk.ShaderModule
	Name   string
}

// VkRayTracingShaderGroupTypeKHR values.
const (
	shaderGroupGeneral       = 0
	shaderGroupTrianglesHit  = 1
	shaderGroupProceduralHit = 2
)

type khrGroupDesc struct {
	Type         int32 // VkRayTracingShaderGroupTypeKHR value
	General      uint32
	ClosestHit   uint32
	AnyHit       uint32
	Intersection uint32
}

func (k *khrDispatch) createRayTracingPipeline(device vk.Device, stages []khrStageDesc, groups []khrGroupDesc, maxRecursionDepth uint32, layout vk.PipelineLayout) (vk.Pipeline, error) {
	stageMem := C.calloc(C.size_t(len(stages)), C.size_t(unsafe.Sizeof(C.khrShaderStageInfo{})))
	groupMem := C.calloc(C.size_t(len(groups)), C.size_t(unsafe.Sizeof(C.khrShaderGroupInfo{})))
	names := make([]*C.char, 0, len(stages))
	defer func() {
		for _, n := range names {
			C.free(unsafe.Pointer(n))
		}
		C.free(stageMem)
		C.free(groupMem)
	}()

	cStages := unsafe.Slice((*C.khrShaderStageInfo)(stageMem), len(stages))
	for i, st := range stages {
		cname := C.CString(st.Name)
		names = append(names, cname)
		cStages[i].sType = 18 // PIPELINE_SHADER_STAGE_CREATE_INFO
		cStages[i].stage = C.int32_t(st.Stage)
		cStages[i].module = rawHandle(st.Module)
		cStages[i].pName = cname
	}

	cGroups := unsafe.Slice((*C.khrShaderGroupInfo)(groupMem), len(groups))
	for i, g := range groups {
		cGroups[i].sType = 1000150016 // RAY_TRACING_SHADER_GROUP_CREATE_INFO_KHR
		cGroups[i]._type = C.int32_t(g.Type)
		cGroups[i].generalShader = C.uint32_t(g.General)
		cGroups[i].closestHitShader = C.uint32_t(g.ClosestHit)
		cGroups[i].anyHitShader = C.uint32_t(g.AnyHit)
		cGroups[i].intersectionShader = C.uint32_t(g.Intersection)
	}

	var out C.khrHandle
	res := C.khrCreateRTPipelines(k.createRTPipelines, dispatchPtr(device),
		C.uint32_t(len(stages)), (*C.khrShaderStageInfo)(stageMem),
		C.uint32_t(len(groups)), (*C.khrShaderGroupInfo)(groupMem),
		C.uint32_t(maxRecursionDepth), rawHandle(layout), &out)
	if res != 0 {
		return handleFromRaw[vk.Pipeline](0), fmt.Errorf("vkCreateRayTracingPipelinesKHR failed: %d", res)
	}
	return handleFromRaw[vk.Pipeline](out), nil
}

func (k *khrDispatch) shaderGroupHandles(device vk.Device, pipeline vk.Pipeline, first, count uint32, data []byte) error {
	res := C.khrGetGroupHandles(k.getGroupHandles, dispatchPtr(device), rawHandle(pipeline),
		C.uint32_t(first), C.uint32_t(count), C.size_t(len(data)), unsafe.Pointer(&data[0]))
	if res != 0 {
		return fmt.Errorf("vkGetRayTracingShaderGroupHandlesKHR failed: %d", res)
	}
	return nil
}

// writeASDescriptorInfo allocates the pNext payload for a TLAS descriptor
// write. The returned release func frees it after vkUpdateDescriptorSets.
func writeASDescriptorInfo(as vk.AccelerationStructure) (unsafe.Pointer, func()) {
	handle := (*C.khrHandle)(C.malloc(C.size_t(unsafe.Sizeof(C.khrHandle(0)))))
	*handle = rawHandle(as)
	w := (*C.khrWriteDescriptorSetAS)(C.calloc(1, C.size_t(unsafe.Sizeof(C.khrWriteDescriptorSetAS{}))))
	w.sType = 1000150007 // WRITE_DESCRIPTOR_SET_ACCELERATION_STRUCTURE_KHR
	w.accelerationStructureCount = 1
	w.pAccelerationStructures = handle
	return unsafe.Pointer(w), func() {
		C.free(unsafe.Pointer(handle))
		C.free(unsafe.Pointer(w))
	}
}

// rayTracingFeatureChain allocates the feature structs that enable
// acceleration structures and the ray-tracing pipeline, chained ahead of
// next. The release func frees the chain after vkCreateDevice returns.
func rayTracingFeatureChain(next unsafe.Pointer) (unsafe.Pointer, func()) {
	rt := (*C.khrRTPipelineFeatures)(C.calloc(1, C.size_t(unsafe.Sizeof(C.khrRTPipelineFeatures{}))))
	rt.sType = 1000347000 // PHYSICAL_DEVICE_RAY_TRACING_PIPELINE_FEATURES_KHR
	rt.rayTracingPipeline = 1
	rt.pNext = next

	as := (*C.khrASFeatures)(C.calloc(1, C.size_t(unsafe.Sizeof(C.khrASFeatures{}))))
	as.sType = 1000150013 // PHYSICAL_DEVICE_ACCELERATION_STRUCTURE_FEATURES_KHR
	as.accelerationStructure = 1
	as.pNext = unsafe.Pointer(rt)

	return unsafe.Pointer(as), func() {
		C.free(unsafe.Pointer(as))
		C.free(unsafe.Pointer(rt))
	}
}

// rayTracingPipelineProperties queries the shader group handle size and base
// alignment used for binding table layout.
func (k *khrDispatch) rayTracingPipelineProperties(gpu vk.PhysicalDevice) RayTracingProperties {
	var handleSize, baseAlignment C.uint32_t
	C.khrGetRTPipelineProperties(k.getProperties2, dispatchPtr(gpu), &handleSize, &baseAlignment)
	return RayTracingProperties{
		ShaderGroupHandleSize:    uint32(handleSize),
		ShaderGroupBaseAlignment: uint32(baseAlignment),
	}
}
