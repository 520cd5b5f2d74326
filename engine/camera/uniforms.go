package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/vkrt-go/common"
)

// RayUniforms is the GPU-aligned uniform block read by the ray generation
// shader. The raygen stage unprojects each pixel through ProjInverse and
// transforms the result into world space through ViewInverse to form the ray.
// Size: 144 bytes (std140 aligned).
type RayUniforms struct {
	ViewInverse mgl32.Mat4 // offset   0: inverse view matrix
	ProjInverse mgl32.Mat4 // offset  64: inverse projection matrix
	Position    mgl32.Vec3 // offset 128: world-space camera position
	_           float32    // offset 140: padding to 144 bytes
}

// Size returns the size of the RayUniforms block in bytes.
//
// Returns:
//   - int: the block size in bytes (144)
func (u *RayUniforms) Size() int {
	return len(common.StructToBytes(u))
}

// Marshal serializes the RayUniforms block into a byte buffer suitable for
// GPU upload. The backing memory is a view into the struct, so the result
// must be consumed before the struct is modified.
//
// Returns:
//   - []byte: the serialized byte buffer
func (u *RayUniforms) Marshal() []byte {
	return common.StructToBytes(u)
}
