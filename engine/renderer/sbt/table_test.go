package sbt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vkrt-go/common"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

// buildPipeline creates a raygen/hit/hit/miss pipeline on the fake driver.
func buildPipeline(t *testing.T, drv driver.Driver) driver.Pipeline {
	t.Helper()
	rgen, err := drv.CreateShaderModule(make([]byte, 32))
	require.NoError(t, err)
	sect, err := drv.CreateShaderModule(make([]byte, 32))
	require.NoError(t, err)
	chit, err := drv.CreateShaderModule(make([]byte, 32))
	require.NoError(t, err)
	miss, err := drv.CreateShaderModule(make([]byte, 32))
	require.NoError(t, err)

	pipeline, _, err := drv.CreateRayTracingPipeline(driver.RayTracingPipelineSpec{
		Stages: []driver.ShaderStageSpec{
			{Stage: driver.StageRaygen, Module: rgen, EntryPoint: "main"},
			{Stage: driver.StageIntersection, Module: sect, EntryPoint: "main"},
			{Stage: driver.StageClosestHit, Module: chit, EntryPoint: "main"},
			{Stage: driver.StageMiss, Module: miss, EntryPoint: "main"},
		},
		Groups: []driver.ShaderGroupSpec{
			{General: 0, ClosestHit: -1, Intersection: -1},
			{General: -1, ClosestHit: 2, Intersection: 1},
			{General: -1, ClosestHit: 2, Intersection: 1},
			{General: 3, ClosestHit: -1, Intersection: -1},
		},
		MaxRecursionDepth: 1,
	})
	require.NoError(t, err)
	return pipeline
}

func TestAlignUpLaws(t *testing.T) {
	assert.Equal(t, uint64(64), common.AlignUp(32, 64))
	assert.Equal(t, uint64(64), common.AlignUp(64, 64))
	assert.Equal(t, uint64(128), common.AlignUp(65, 64))

	for _, v := range []uint64{1, 31, 32, 33, 63, 64, 65, 4095} {
		for _, a := range []uint64{1, 2, 32, 64, 256} {
			got := common.AlignUp(v, a)
			assert.GreaterOrEqual(t, got, v)
			assert.Zero(t, got%a)
		}
	}
}

func TestTableRegionArithmetic(t *testing.T) {
	drv := driver.NewFake(driver.WithShaderGroupProperties(32, 64))
	pipeline := buildPipeline(t, drv)

	table, err := NewTable(drv, pipeline, GroupCounts{Hit: 2, Miss: 1})
	require.NoError(t, err)
	defer table.Destroy()

	base := table.Raygen().DeviceAddress
	require.NotZero(t, base)
	aligned := uint64(64)

	assert.Equal(t, driver.StridedRegion{DeviceAddress: base, Stride: aligned, Size: aligned}, table.Raygen())
	assert.Equal(t, driver.StridedRegion{DeviceAddress: base + aligned, Stride: aligned, Size: 2 * aligned}, table.Hit())
	assert.Equal(t, driver.StridedRegion{DeviceAddress: base + 3*aligned, Stride: aligned, Size: aligned}, table.Miss())
	assert.Equal(t, driver.StridedRegion{}, table.Callable())
}

func TestTableOffsetsIdempotentAcrossRebuilds(t *testing.T) {
	drv := driver.NewFake(driver.WithShaderGroupProperties(32, 64))
	pipeline := buildPipeline(t, drv)
	counts := GroupCounts{Hit: 2, Miss: 1}

	first, err := NewTable(drv, pipeline, counts)
	require.NoError(t, err)
	second, err := NewTable(drv, pipeline, counts)
	require.NoError(t, err)
	defer first.Destroy()
	defer second.Destroy()

	relative := func(tab Table) [4]uint64 {
		base := tab.Raygen().DeviceAddress
		return [4]uint64{
			tab.Raygen().DeviceAddress - base,
			tab.Hit().DeviceAddress - base,
			tab.Miss().DeviceAddress - base,
			tab.Callable().Size,
		}
	}
	assert.Equal(t, relative(first), relative(second))
	assert.Empty(t, drv.Violations())
}

func TestRepackPadsEachSlot(t *testing.T) {
	handles := []byte{1, 2, 3, 4, 5, 6}
	out := repack(handles, 3, 8, 2)

	require.Len(t, out, 16)
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, out[:8])
	assert.Equal(t, []byte{4, 5, 6, 0, 0, 0, 0, 0}, out[8:])
}

func TestTableHandleSizeEqualsAlignment(t *testing.T) {
	drv := driver.NewFake(driver.WithShaderGroupProperties(64, 64))
	pipeline := buildPipeline(t, drv)

	table, err := NewTable(drv, pipeline, GroupCounts{Hit: 2, Miss: 1})
	require.NoError(t, err)
	defer table.Destroy()

	// handle_size == base_alignment leaves no padding, stride still 64.
	assert.Equal(t, uint64(64), table.Raygen().Stride)
	assert.Equal(t, table.Raygen().DeviceAddress+64, table.Hit().DeviceAddress)
}
