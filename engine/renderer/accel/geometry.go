// Package accel builds bottom- and top-level acceleration structures from
// geometry and instance descriptions, using transient scratch memory and
// one-shot command submission.
package accel

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/vkrt-go/common"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/gpu"
)

// AABB is one axis-aligned bounding box of a procedural geometry, in the
// device layout the build input expects: min corner then max corner.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

const aabbStride = 24

// geometry is the implementation of the Geometry interface.
type geometry struct {
	desc           driver.GeometryDesc
	primitiveCount uint32
	buffers        []gpu.Buffer
}

// Geometry defines the interface for uploaded build input consumed by a
// bottom-level acceleration structure. The backing buffers belong to the
// geometry until the consuming build has drained the queue, after which
// Destroy releases them.
type Geometry interface {
	// Desc retrieves the driver geometry description referencing the
	// uploaded buffers by device address.
	//
	// Returns:
	//   - driver.GeometryDesc: the geometry description for the build
	Desc() driver.GeometryDesc

	// PrimitiveCount retrieves the number of primitives declared for the
	// build. The build range must use this exact count.
	//
	// Returns:
	//   - uint32: the primitive count
	PrimitiveCount() uint32

	// Destroy releases the uploaded buffers. Must only be called once the
	// build consuming this geometry has completed.
	Destroy()
}

var _ Geometry = &geometry{}

// NewAABBGeometry uploads a list of axis-aligned boxes and describes them as
// procedural build input, one primitive per box.
//
// Parameters:
//   - drv: the driver to upload through
//   - boxes: the axis-aligned boxes, must be non-empty
//
// Returns:
//   - Geometry: the uploaded geometry
//   - error: an error if the upload fails
func NewAABBGeometry(drv driver.Driver, boxes []AABB) (Geometry, error) {
	if len(boxes) == 0 {
		return nil, fmt.Errorf("aabb geometry requires at least one box")
	}

	data := common.SliceToBytes(boxes)
	buf, err := uploadBuildInput(drv, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload aabb data: %w", err)
	}

	return &geometry{
		desc: driver.GeometryDesc{
			Kind:            driver.GeometryAABBs,
			Opaque:          true,
			AABBDataAddress: buf.DeviceAddress(),
			AABBStride:      aabbStride,
		},
		primitiveCount: uint32(len(boxes)),
		buffers:        []gpu.Buffer{buf},
	}, nil
}

// NewTriangleGeometry uploads an indexed triangle mesh and describes it as
// triangle build input. The index count must be a multiple of three; the
// primitive count is the number of index triples.
//
// Parameters:
//   - drv: the driver to upload through
//   - vertices: the vertex positions
//   - indices: the 32-bit index triples
//
// Returns:
//   - Geometry: the uploaded geometry
//   - error: an error if the mesh is malformed or the upload fails
func NewTriangleGeometry(drv driver.Driver, vertices []mgl32.Vec3, indices []uint32) (Geometry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("triangle geometry requires vertices and indices")
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("triangle geometry index count %d is not a multiple of 3", len(indices))
	}

	vertexBuf, err := uploadBuildInput(drv, common.SliceToBytes(vertices))
	if err != nil {
		return nil, fmt.Errorf("failed to upload vertex data: %w", err)
	}
	indexBuf, err := uploadBuildInput(drv, common.SliceToBytes(indices))
	if err != nil {
		vertexBuf.Destroy()
		return nil, fmt.Errorf("failed to upload index data: %w", err)
	}

	return &geometry{
		desc: driver.GeometryDesc{
			Kind:              driver.GeometryTriangles,
			Opaque:            true,
			VertexDataAddress: vertexBuf.DeviceAddress(),
			VertexStride:      12,
			MaxVertex:         uint32(len(vertices) - 1),
			IndexDataAddress:  indexBuf.DeviceAddress(),
		},
		primitiveCount: uint32(len(indices) / 3),
		buffers:        []gpu.Buffer{vertexBuf, indexBuf},
	}, nil
}

func uploadBuildInput(drv driver.Driver, data []byte) (gpu.Buffer, error) {
	buf, err := gpu.NewBuffer(drv,
		gpu.WithSize(uint64(len(data))),
		gpu.WithUsage(driver.UsageAccelerationStructureBuildInput|driver.UsageShaderDeviceAddress),
		gpu.WithMemoryProperties(driver.MemoryHostVisible|driver.MemoryHostCoherent),
	)
	if err != nil {
		return nil, err
	}
	if err := buf.Upload(data); err != nil {
		buf.Destroy()
		return nil, err
	}
	return buf, nil
}

func (g *geometry) Desc() driver.GeometryDesc {
	return g.desc
}

func (g *geometry) PrimitiveCount() uint32 {
	return g.primitiveCount
}

func (g *geometry) Destroy() {
	for _, buf := range g.buffers {
		buf.Destroy()
	}
	g.buffers = nil
}
