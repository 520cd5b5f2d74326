package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/accel"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

// UnitCubeAABB returns a geometry source for a procedural axis-aligned unit
// cube centered at the origin. Procedural geometry is intersected by the
// pipeline's intersection shader.
//
// Returns:
//   - GeometrySource: the unit cube AABB source
func UnitCubeAABB() GeometrySource {
	return func(drv driver.Driver) (accel.Geometry, error) {
		return accel.NewAABBGeometry(drv, []accel.AABB{{
			Min: mgl32.Vec3{-0.5, -0.5, -0.5},
			Max: mgl32.Vec3{0.5, 0.5, 0.5},
		}})
	}
}

// UnitCubeMesh returns a geometry source for a triangulated unit cube
// centered at the origin: 8 vertices, 12 triangles, counter-clockwise
// winding viewed from outside.
//
// Returns:
//   - GeometrySource: the unit cube triangle mesh source
func UnitCubeMesh() GeometrySource {
	vertices := []mgl32.Vec3{
		{-0.5, -0.5, -0.5},
		{0.5, -0.5, -0.5},
		{0.5, 0.5, -0.5},
		{-0.5, 0.5, -0.5},
		{-0.5, -0.5, 0.5},
		{0.5, -0.5, 0.5},
		{0.5, 0.5, 0.5},
		{-0.5, 0.5, 0.5},
	}
	indices := []uint32{
		4, 5, 6, 4, 6, 7, // front (+Z)
		1, 0, 3, 1, 3, 2, // back (-Z)
		5, 1, 2, 5, 2, 6, // right (+X)
		0, 4, 7, 0, 7, 3, // left (-X)
		7, 6, 2, 7, 2, 3, // top (+Y)
		0, 1, 5, 0, 5, 4, // bottom (-Y)
	}
	return func(drv driver.Driver) (accel.Geometry, error) {
		return accel.NewTriangleGeometry(drv, vertices, indices)
	}
}

// InstanceRow returns count placements of geometry 0 in a row along the X
// axis, spaced apart by spacing and centered on the origin. Each instance
// carries its row position as the custom index and is visible to all rays.
//
// Parameters:
//   - count: the number of instances
//   - spacing: the distance between adjacent instances
//
// Returns:
//   - []renderer.InstanceDesc: the placements
func InstanceRow(count int, spacing float32) []renderer.InstanceDesc {
	if count <= 0 {
		return nil
	}
	descs := make([]renderer.InstanceDesc, 0, count)
	offset := -spacing * float32(count-1) / 2
	for i := 0; i < count; i++ {
		descs = append(descs, renderer.InstanceDesc{
			Transform:   mgl32.Translate3D(offset+spacing*float32(i), 0, 0),
			CustomIndex: uint32(i),
			Mask:        0xFF,
		})
	}
	return descs
}
