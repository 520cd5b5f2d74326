package accel

import (
	"fmt"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/gpu"
)

// accelerationStructure is the implementation of the AccelerationStructure interface.
type accelerationStructure struct {
	drv    driver.Driver
	handle driver.AccelerationStructure
	buffer gpu.Buffer
	ready  bool
}

// AccelerationStructure defines the interface for a built bottom- or
// top-level acceleration structure and its backing buffer. A BLAS must
// outlive every TLAS instance referencing it.
type AccelerationStructure interface {
	// Handle retrieves the underlying driver acceleration structure handle.
	//
	// Returns:
	//   - driver.AccelerationStructure: the driver handle
	Handle() driver.AccelerationStructure

	// DeviceAddress retrieves the device address of the built structure,
	// used to populate instance records referencing it.
	//
	// Returns:
	//   - uint64: the device address
	DeviceAddress() uint64

	// Destroy releases the acceleration structure and its backing buffer.
	// Safe to call more than once.
	Destroy()
}

// TLAS defines the interface for a built top-level acceleration structure.
type TLAS interface {
	AccelerationStructure

	// InstanceCount retrieves the number of instances the structure was
	// built from.
	//
	// Returns:
	//   - uint32: the instance count
	InstanceCount() uint32
}

// tlas is the implementation of the TLAS interface.
type tlas struct {
	AccelerationStructure
	instanceCount uint32
}

var (
	_ AccelerationStructure = &accelerationStructure{}
	_ TLAS                  = &tlas{}
)

// builder is the implementation of the Builder interface.
type builder struct {
	drv driver.Driver
}

// Builder defines the interface for constructing acceleration structures.
// Every build is three-phase: size query, destination allocation, then a
// one-shot build submission with transient scratch memory that is destroyed
// as soon as the queue has drained.
type Builder interface {
	// BuildBLAS builds a bottom-level acceleration structure from one
	// geometry description. The geometry's upload buffers are released once
	// the build has completed.
	//
	// Parameters:
	//   - geom: the uploaded geometry to build from
	//
	// Returns:
	//   - AccelerationStructure: the built BLAS
	//   - error: an error if allocation or submission fails
	BuildBLAS(geom Geometry) (AccelerationStructure, error)

	// BuildTLAS uploads instance records and builds a top-level
	// acceleration structure over them. Payloads within the inline update
	// limit are recorded in the build's command buffer; larger instance
	// sets are written through a mapped host-visible buffer. Either way a
	// memory barrier makes the records visible to the build.
	//
	// Parameters:
	//   - instances: the instances to build over, must be non-empty
	//
	// Returns:
	//   - TLAS: the built TLAS
	//   - error: an error if allocation or submission fails
	BuildTLAS(instances []Instance) (TLAS, error)
}

var _ Builder = &builder{}

// maxInlineInstanceBytes is the largest payload CmdUpdateBuffer accepts.
// Instance records beyond it go through a mapped host-visible buffer.
const maxInlineInstanceBytes = 65536

// NewBuilder creates an acceleration structure builder on the given driver.
//
// Parameters:
//   - drv: the driver to build on
//
// Returns:
//   - Builder: the builder
func NewBuilder(drv driver.Driver) Builder {
	return &builder{drv: drv}
}

func (b *builder) BuildBLAS(geom Geometry) (AccelerationStructure, error) {
	as, err := b.build(driver.BottomLevel, geom.Desc(), geom.PrimitiveCount(), nil)
	if err != nil {
		return nil, err
	}
	// The queue drained inside build, so the upload buffers are free to go.
	geom.Destroy()
	return as, nil
}

func (b *builder) BuildTLAS(instances []Instance) (TLAS, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("tlas build requires at least one instance")
	}

	records := EncodeInstances(instances)
	inline := len(records) <= maxInlineInstanceBytes

	usage := driver.UsageAccelerationStructureBuildInput | driver.UsageShaderDeviceAddress
	memProps := driver.MemoryDeviceLocal
	if inline {
		usage |= driver.UsageTransferDst
	} else {
		memProps = driver.MemoryHostVisible | driver.MemoryHostCoherent
	}
	instanceBuf, err := gpu.NewBuffer(b.drv,
		gpu.WithSize(uint64(len(records))),
		gpu.WithUsage(usage),
		gpu.WithMemoryProperties(memProps),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance buffer: %w", err)
	}
	defer instanceBuf.Destroy()

	if !inline {
		if err := instanceBuf.Upload(records); err != nil {
			return nil, fmt.Errorf("failed to upload instance records: %w", err)
		}
	}

	desc := driver.GeometryDesc{
		Kind:                driver.GeometryInstances,
		InstanceDataAddress: instanceBuf.DeviceAddress(),
	}

	as, err := b.build(driver.TopLevel, desc, uint32(len(instances)), func(cb driver.CommandBuffer) {
		if inline {
			b.drv.CmdUpdateBuffer(cb, instanceBuf.Handle(), 0, records)
		}
		// The instance writes must be visible to the build reading the
		// instance buffer; without this barrier the build reads stale data.
		b.drv.CmdPipelineBarrier(cb, driver.StageTransfer, driver.StageAccelerationStructureBuild,
			[]driver.MemoryBarrier{{
				SrcAccess: driver.AccessTransferWrite,
				DstAccess: driver.AccessAccelerationStructureWrite | driver.AccessAccelerationStructureRead,
			}}, nil)
	})
	if err != nil {
		return nil, err
	}
	return &tlas{AccelerationStructure: as, instanceCount: uint32(len(instances))}, nil
}

// build runs the shared three-phase protocol. preBuild, when non-nil, records
// into the one-shot command buffer before the build command.
func (b *builder) build(asType driver.ASType, desc driver.GeometryDesc, primitiveCount uint32, preBuild func(cb driver.CommandBuffer)) (AccelerationStructure, error) {
	sizes := b.drv.AccelerationStructureBuildSizes(driver.ASBuildInfo{
		Type:           asType,
		Geometry:       desc,
		PrimitiveCount: primitiveCount,
	})

	asBuf, err := gpu.NewBuffer(b.drv,
		gpu.WithSize(sizes.AccelerationStructureSize),
		gpu.WithUsage(driver.UsageAccelerationStructureStorage|driver.UsageShaderDeviceAddress),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create acceleration structure buffer: %w", err)
	}

	handle, err := b.drv.CreateAccelerationStructure(asBuf.Handle(), sizes.AccelerationStructureSize, asType)
	if err != nil {
		asBuf.Destroy()
		return nil, fmt.Errorf("failed to create acceleration structure: %w", err)
	}

	scratch, err := gpu.NewBuffer(b.drv,
		gpu.WithSize(sizes.BuildScratchSize),
		gpu.WithUsage(driver.UsageStorageBuffer|driver.UsageShaderDeviceAddress),
	)
	if err != nil {
		b.drv.DestroyAccelerationStructure(handle)
		asBuf.Destroy()
		return nil, fmt.Errorf("failed to create scratch buffer: %w", err)
	}

	err = gpu.OneShot(b.drv, func(cb driver.CommandBuffer) error {
		if preBuild != nil {
			preBuild(cb)
		}
		b.drv.CmdBuildAccelerationStructure(cb, driver.ASBuildInfo{
			Type:           asType,
			Geometry:       desc,
			PrimitiveCount: primitiveCount,
			Dst:            handle,
			ScratchAddress: scratch.DeviceAddress(),
		})
		return nil
	})
	// Scratch memory is never retained across builds.
	scratch.Destroy()
	if err != nil {
		b.drv.DestroyAccelerationStructure(handle)
		asBuf.Destroy()
		return nil, fmt.Errorf("failed to build acceleration structure: %w", err)
	}

	return &accelerationStructure{
		drv:    b.drv,
		handle: handle,
		buffer: asBuf,
		ready:  true,
	}, nil
}

func (a *accelerationStructure) Handle() driver.AccelerationStructure {
	return a.handle
}

func (a *accelerationStructure) DeviceAddress() uint64 {
	return a.drv.AccelerationStructureDeviceAddress(a.handle)
}

func (a *accelerationStructure) Destroy() {
	if !a.ready {
		return
	}
	a.drv.DestroyAccelerationStructure(a.handle)
	a.buffer.Destroy()
	a.ready = false
}

func (t *tlas) InstanceCount() uint32 {
	return t.instanceCount
}
