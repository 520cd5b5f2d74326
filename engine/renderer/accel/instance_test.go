package accel

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPack24_8(t *testing.T) {
	assert.Equal(t, uint32(0xFF000000), Pack24_8(0, 0xFF))
	assert.Equal(t, uint32(0x00FFFFFF), Pack24_8(0xFFFFFF, 0))
	assert.Equal(t, uint32(0xAB123456), Pack24_8(0x123456, 0xAB))
	// The 24-bit field truncates.
	assert.Equal(t, uint32(0x01000001), Pack24_8(0x1000001, 0x01))
}

func TestEncodeInstancesLayout(t *testing.T) {
	inst := Instance{
		Transform:   mgl32.Translate3D(1.5, -2, 3),
		CustomIndex: 7,
		Mask:        0xFF,
		SBTOffset:   2,
		Flags:       InstanceTriangleFacingCullDisable,
		BLASAddress: 0xDEADBEEF00,
	}

	data := EncodeInstances([]Instance{inst, inst})
	require.Len(t, data, 128)

	// Row-major 3x4 transform: translation lands at row ends.
	rec := data[:64]
	assert.Equal(t, float32(1), floatAt(rec, 0))
	assert.Equal(t, float32(1.5), floatAt(rec, 3))
	assert.Equal(t, float32(-2), floatAt(rec, 7))
	assert.Equal(t, float32(3), floatAt(rec, 11))

	assert.Equal(t, Pack24_8(7, 0xFF), binary.LittleEndian.Uint32(rec[48:]))
	assert.Equal(t, Pack24_8(2, uint8(InstanceTriangleFacingCullDisable)), binary.LittleEndian.Uint32(rec[52:]))
	assert.Equal(t, uint64(0xDEADBEEF00), binary.LittleEndian.Uint64(rec[56:]))

	// Records are contiguous.
	assert.Equal(t, rec, data[64:])
}

func floatAt(data []byte, index int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[index*4:]))
}
