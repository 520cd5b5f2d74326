package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDescFlattensTriangleGeometry(t *testing.T) {
	desc := newASBuildDesc(ASBuildInfo{
		Type: BottomLevel,
		Geometry: GeometryDesc{
			Kind:              GeometryTriangles,
			Opaque:            true,
			VertexDataAddress: 0x1000,
			VertexStride:      12,
			MaxVertex:         7,
			IndexDataAddress:  0x2000,
		},
		ScratchAddress: 0x3000,
		PrimitiveCount: 4,
	})

	assert.False(t, desc.TopLevel)
	assert.Equal(t, int32(0), desc.GeometryType)
	assert.True(t, desc.Opaque)
	assert.Equal(t, uint64(0x1000), desc.VertexData)
	assert.Equal(t, uint64(12), desc.VertexStride)
	assert.Equal(t, uint32(7), desc.MaxVertex)
	assert.Equal(t, uint64(0x2000), desc.IndexData)
	assert.Equal(t, uint64(0x3000), desc.Scratch)
	assert.Equal(t, uint32(4), desc.PrimitiveCount)
}

func TestBuildDescFlattensAABBGeometry(t *testing.T) {
	desc := newASBuildDesc(ASBuildInfo{
		Type: BottomLevel,
		Geometry: GeometryDesc{
			Kind:            GeometryAABBs,
			AABBDataAddress: 0x4000,
			AABBStride:      24,
		},
		PrimitiveCount: 2,
	})

	assert.Equal(t, int32(1), desc.GeometryType)
	assert.Equal(t, uint64(0x4000), desc.AABBData)
	assert.Equal(t, uint64(24), desc.AABBStride)
	assert.Zero(t, desc.VertexData)
}

func TestBuildDescFlattensInstanceGeometry(t *testing.T) {
	desc := newASBuildDesc(ASBuildInfo{
		Type: TopLevel,
		Geometry: GeometryDesc{
			Kind:                GeometryInstances,
			InstanceDataAddress: 0x5000,
		},
		PrimitiveCount: 3,
	})

	assert.True(t, desc.TopLevel)
	assert.Equal(t, int32(2), desc.GeometryType)
	assert.Equal(t, uint64(0x5000), desc.InstanceData)
	assert.Equal(t, uint32(3), desc.PrimitiveCount)
}
