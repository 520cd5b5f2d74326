package accel

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/gpu"
)

func unitBox() AABB {
	return AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
}

func TestBuildBLASReleasesTransientMemory(t *testing.T) {
	drv := driver.NewFake()
	b := NewBuilder(drv)

	geom, err := NewAABBGeometry(drv, []AABB{unitBox()})
	require.NoError(t, err)

	blas, err := b.BuildBLAS(geom)
	require.NoError(t, err)
	assert.NotZero(t, blas.DeviceAddress())

	// Only the structure and its backing buffer survive the build: the
	// geometry upload and the scratch buffer are gone.
	assert.Equal(t, 3, drv.LiveObjectCount())
	assert.Empty(t, drv.Violations())

	blas.Destroy()
	blas.Destroy()
	assert.Zero(t, drv.LiveObjectCount())
}

func TestBuildBLASFromTriangles(t *testing.T) {
	drv := driver.NewFake()
	b := NewBuilder(drv)

	vertices := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	indices := []uint32{0, 1, 2, 2, 1, 3}
	geom, err := NewTriangleGeometry(drv, vertices, indices)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), geom.PrimitiveCount())

	blas, err := b.BuildBLAS(geom)
	require.NoError(t, err)
	defer blas.Destroy()

	assert.Empty(t, drv.Violations())
}

func TestTriangleGeometryValidation(t *testing.T) {
	drv := driver.NewFake()

	_, err := NewTriangleGeometry(drv, nil, []uint32{0, 1, 2})
	assert.Error(t, err)

	_, err = NewTriangleGeometry(drv, []mgl32.Vec3{{0, 0, 0}}, []uint32{0, 1})
	assert.Error(t, err)

	_, err = NewAABBGeometry(drv, nil)
	assert.Error(t, err)

	assert.Zero(t, drv.LiveObjectCount())
}

func TestBuildTLASCarriesUploadBarrier(t *testing.T) {
	drv := driver.NewFake()
	b := NewBuilder(drv)

	geom, err := NewAABBGeometry(drv, []AABB{unitBox()})
	require.NoError(t, err)
	blas, err := b.BuildBLAS(geom)
	require.NoError(t, err)
	defer blas.Destroy()

	instances := []Instance{
		{Transform: mgl32.Translate3D(-1.5, 0, 0), Mask: 0xFF, BLASAddress: blas.DeviceAddress()},
		{Transform: mgl32.Ident4(), Mask: 0xFF, BLASAddress: blas.DeviceAddress()},
		{Transform: mgl32.Translate3D(1.5, 0, 0), Mask: 0xFF, BLASAddress: blas.DeviceAddress()},
	}

	top, err := b.BuildTLAS(instances)
	require.NoError(t, err)
	defer top.Destroy()

	assert.Equal(t, uint32(3), top.InstanceCount())
	assert.NotZero(t, top.DeviceAddress())
	assert.Empty(t, drv.Violations())
}

func TestBuildTLASWithManyInstances(t *testing.T) {
	drv := driver.NewFake()
	b := NewBuilder(drv)

	geom, err := NewAABBGeometry(drv, []AABB{unitBox()})
	require.NoError(t, err)
	blas, err := b.BuildBLAS(geom)
	require.NoError(t, err)
	defer blas.Destroy()

	// 2048 records at 64 bytes each is well past the inline update limit.
	instances := make([]Instance, 2048)
	for i := range instances {
		instances[i] = Instance{
			Transform:   mgl32.Translate3D(float32(i), 0, 0),
			Mask:        0xFF,
			BLASAddress: blas.DeviceAddress(),
		}
	}

	top, err := b.BuildTLAS(instances)
	require.NoError(t, err)
	defer top.Destroy()

	assert.Equal(t, uint32(2048), top.InstanceCount())
	assert.Empty(t, drv.Violations())
}

func TestBuildTLASWithoutBarrierIsDetected(t *testing.T) {
	drv := driver.NewFake()

	records := EncodeInstances([]Instance{{Transform: mgl32.Ident4(), Mask: 0xFF}})
	instanceBuf, err := gpu.NewBuffer(drv,
		gpu.WithSize(uint64(len(records))),
		gpu.WithUsage(driver.UsageTransferDst|driver.UsageAccelerationStructureBuildInput|driver.UsageShaderDeviceAddress),
	)
	require.NoError(t, err)
	defer instanceBuf.Destroy()

	desc := driver.GeometryDesc{
		Kind:                driver.GeometryInstances,
		InstanceDataAddress: instanceBuf.DeviceAddress(),
	}
	sizes := drv.AccelerationStructureBuildSizes(driver.ASBuildInfo{
		Type: driver.TopLevel, Geometry: desc, PrimitiveCount: 1,
	})

	asBuf, err := gpu.NewBuffer(drv,
		gpu.WithSize(sizes.AccelerationStructureSize),
		gpu.WithUsage(driver.UsageAccelerationStructureStorage|driver.UsageShaderDeviceAddress),
	)
	require.NoError(t, err)
	defer asBuf.Destroy()
	handle, err := drv.CreateAccelerationStructure(asBuf.Handle(), sizes.AccelerationStructureSize, driver.TopLevel)
	require.NoError(t, err)
	defer drv.DestroyAccelerationStructure(handle)

	scratch, err := gpu.NewBuffer(drv,
		gpu.WithSize(sizes.BuildScratchSize),
		gpu.WithUsage(driver.UsageStorageBuffer|driver.UsageShaderDeviceAddress),
	)
	require.NoError(t, err)
	defer scratch.Destroy()

	// Record the upload and the build with no barrier between them.
	err = gpu.OneShot(drv, func(cb driver.CommandBuffer) error {
		drv.CmdUpdateBuffer(cb, instanceBuf.Handle(), 0, records)
		drv.CmdBuildAccelerationStructure(cb, driver.ASBuildInfo{
			Type:           driver.TopLevel,
			Geometry:       desc,
			PrimitiveCount: 1,
			Dst:            handle,
			ScratchAddress: scratch.DeviceAddress(),
		})
		return nil
	})
	require.NoError(t, err)

	assert.NotEmpty(t, drv.Violations())
}

func TestBuildTLASRequiresInstances(t *testing.T) {
	drv := driver.NewFake()
	b := NewBuilder(drv)

	_, err := b.BuildTLAS(nil)
	assert.Error(t, err)
	assert.Zero(t, drv.LiveObjectCount())
}
