package accel

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/vkrt-go/common"
)

// InstanceFlags are per-instance geometry flags in the low byte of the
// packed SBT-offset word.
type InstanceFlags uint8

const (
	// InstanceTriangleFacingCullDisable disables backface culling for the instance.
	InstanceTriangleFacingCullDisable InstanceFlags = 0x01
	// InstanceForceOpaque treats every geometry in the instance as opaque.
	InstanceForceOpaque InstanceFlags = 0x04
)

// Instance positions one built bottom-level acceleration structure in the
// scene. BLASAddress must come from AccelerationStructure.DeviceAddress of an
// already-built BLAS.
type Instance struct {
	// Transform places the instance in world space.
	Transform mgl32.Mat4

	// CustomIndex is the 24-bit application-defined index visible to shaders.
	CustomIndex uint32

	// Mask is the 8-bit visibility mask tested against the ray mask.
	Mask uint8

	// SBTOffset is the 24-bit offset into the hit-group region of the
	// shader binding table.
	SBTOffset uint32

	// Flags are the per-instance geometry flags.
	Flags InstanceFlags

	// BLASAddress is the device address of the referenced BLAS.
	BLASAddress uint64
}

// instanceRecord is the 64-byte device layout of one instance: a 3x4
// row-major transform, two packed 24+8 bit words, and the BLAS address.
type instanceRecord struct {
	Transform                      [12]float32
	CustomIndexAndMask             uint32
	SBTOffsetAndFlags              uint32
	AccelerationStructureReference uint64
}

// Pack24_8 packs a 24-bit value and an 8-bit value into one 32-bit word,
// the low 24 bits holding the value and the high 8 bits the flags.
//
// Parameters:
//   - value: the 24-bit field, truncated to 24 bits
//   - high: the 8-bit field
//
// Returns:
//   - uint32: the packed word
func Pack24_8(value uint32, high uint8) uint32 {
	return value&0x00FFFFFF | uint32(high)<<24
}

// EncodeInstances serializes instances into the contiguous 64-byte record
// array the top-level build reads from the instance buffer.
//
// Parameters:
//   - instances: the instances to serialize
//
// Returns:
//   - []byte: the packed record array, 64 bytes per instance
func EncodeInstances(instances []Instance) []byte {
	records := make([]instanceRecord, len(instances))
	for i, inst := range instances {
		records[i] = instanceRecord{
			Transform:                      transformRows(inst.Transform),
			CustomIndexAndMask:             Pack24_8(inst.CustomIndex, inst.Mask),
			SBTOffsetAndFlags:              Pack24_8(inst.SBTOffset, uint8(inst.Flags)),
			AccelerationStructureReference: inst.BLASAddress,
		}
	}
	return common.SliceToBytes(records)
}

// transformRows drops the last row of a column-major 4x4 matrix and lays the
// remaining 3x4 out row-major as the record requires.
func transformRows(m mgl32.Mat4) [12]float32 {
	var out [12]float32
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			out[row*4+col] = m.At(row, col)
		}
	}
	return out
}
