package framesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vkrt-go/common"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/sbt"
)

type frameFixture struct {
	drv        *driver.Fake
	controller Controller
	uniform    gpu.Buffer
	table      sbt.Table
	set        driver.DescriptorSet
	pipeline   driver.Pipeline
	layout     driver.PipelineLayout
}

// newFrameFixture builds the full frame-loop dependency set on the fake
// driver: a raygen/hit/miss pipeline, its descriptor set, a shader binding
// table, and a uniform buffer.
func newFrameFixture(t *testing.T) *frameFixture {
	t.Helper()
	drv := driver.NewFake()

	rgen, err := drv.CreateShaderModule(make([]byte, 32))
	require.NoError(t, err)
	chit, err := drv.CreateShaderModule(make([]byte, 32))
	require.NoError(t, err)
	miss, err := drv.CreateShaderModule(make([]byte, 32))
	require.NoError(t, err)

	pipeline, layout, err := drv.CreateRayTracingPipeline(driver.RayTracingPipelineSpec{
		Stages: []driver.ShaderStageSpec{
			{Stage: driver.StageRaygen, Module: rgen, EntryPoint: "main"},
			{Stage: driver.StageClosestHit, Module: chit, EntryPoint: "main"},
			{Stage: driver.StageMiss, Module: miss, EntryPoint: "main"},
		},
		Groups: []driver.ShaderGroupSpec{
			{General: 0, ClosestHit: -1, Intersection: -1},
			{General: -1, ClosestHit: 1, Intersection: -1},
			{General: 2, ClosestHit: -1, Intersection: -1},
		},
		MaxRecursionDepth: 1,
	})
	require.NoError(t, err)

	set, err := drv.AllocateDescriptorSet(layout)
	require.NoError(t, err)

	table, err := sbt.NewTable(drv, pipeline, sbt.GroupCounts{Hit: 1, Miss: 1})
	require.NoError(t, err)

	uniform, err := gpu.NewBuffer(drv,
		gpu.WithSize(128),
		gpu.WithUsage(driver.UsageUniformBuffer|driver.UsageTransferDst),
	)
	require.NoError(t, err)

	controller, err := NewController(drv,
		WithPipeline(pipeline, layout),
		WithDescriptorSet(set),
		WithShaderBindingTable(table),
		WithUniformBuffer(uniform),
	)
	require.NoError(t, err)

	return &frameFixture{
		drv:        drv,
		controller: controller,
		uniform:    uniform,
		table:      table,
		set:        set,
		pipeline:   pipeline,
		layout:     layout,
	}
}

func (fx *frameFixture) destroy() {
	fx.controller.Destroy()
	fx.uniform.Destroy()
	fx.table.Destroy()
}

func TestRenderFrameProtocol(t *testing.T) {
	fx := newFrameFixture(t)
	defer fx.destroy()

	uniforms := common.SliceToBytes([]float32{1, 2, 3, 4})
	require.NoError(t, fx.controller.RenderFrame(uniforms))
	assert.Empty(t, fx.drv.Violations())
}

func TestThousandFrameLoopLeaksNothing(t *testing.T) {
	fx := newFrameFixture(t)
	defer fx.destroy()

	uniforms := common.SliceToBytes([]float32{0, 0, -5, 1})
	var steadyState int
	for frame := 0; frame < 1000; frame++ {
		require.NoError(t, fx.controller.RenderFrame(uniforms))
		if frame == 10 {
			steadyState = fx.drv.LiveObjectCount()
		}
		if frame > 10 {
			require.Equal(t, steadyState, fx.drv.LiveObjectCount(), "handle count drifted at frame %d", frame)
		}
	}
	assert.Empty(t, fx.drv.Violations())
}

func TestRenderFrameWithoutUniformUpdate(t *testing.T) {
	fx := newFrameFixture(t)
	defer fx.destroy()

	require.NoError(t, fx.controller.RenderFrame(nil))
	assert.Empty(t, fx.drv.Violations())
}

func TestResizeRecreatesSwapchainAndTarget(t *testing.T) {
	fx := newFrameFixture(t)
	defer fx.destroy()

	require.NoError(t, fx.controller.RenderFrame(nil))
	require.Equal(t, driver.Extent2D{Width: 1280, Height: 720}, fx.controller.Extent())

	fx.drv.SetSurfaceExtent(1920, 1080)

	// The stale swapchain is noticed at the next acquire; the frame
	// recreates and carries on.
	require.NoError(t, fx.controller.RenderFrame(nil))
	assert.Equal(t, driver.Extent2D{Width: 1920, Height: 1080}, fx.controller.Extent())

	// The descriptor set now references the recreated render target.
	assert.NotZero(t, fx.drv.BoundStorageImage(fx.set))

	for frame := 0; frame < 20; frame++ {
		require.NoError(t, fx.controller.RenderFrame(nil))
	}
	assert.Empty(t, fx.drv.Violations())
}

func TestResizeIsIdempotent(t *testing.T) {
	fx := newFrameFixture(t)
	defer fx.destroy()

	require.NoError(t, fx.controller.RenderFrame(nil))
	before := fx.drv.LiveObjectCount()

	require.NoError(t, fx.controller.OnResize())
	require.NoError(t, fx.controller.OnResize())
	assert.Equal(t, before, fx.drv.LiveObjectCount())

	require.NoError(t, fx.controller.RenderFrame(nil))
	assert.Empty(t, fx.drv.Violations())
}

func TestResizeDoesNotTouchResolutionIndependentState(t *testing.T) {
	fx := newFrameFixture(t)
	defer fx.destroy()

	raygenBefore := fx.table.Raygen()
	fx.drv.SetSurfaceExtent(640, 480)
	require.NoError(t, fx.controller.OnResize())

	assert.Equal(t, raygenBefore, fx.table.Raygen())
	require.NoError(t, fx.controller.RenderFrame(nil))
	assert.Empty(t, fx.drv.Violations())
}

func TestSetupUsesDedicatedFence(t *testing.T) {
	fx := newFrameFixture(t)
	defer fx.destroy()

	for i := 0; i < 3; i++ {
		err := fx.controller.Setup(func(cb driver.CommandBuffer) error {
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, fx.controller.RenderFrame(nil))
	assert.Empty(t, fx.drv.Violations())
}

func TestStaleAcquireLeavesFenceUnsignaled(t *testing.T) {
	fx := newFrameFixture(t)
	defer fx.destroy()

	// Arm the acquire fence with a successful frame, then make the
	// swapchain stale. The failed acquire leaves the fence unsignaled, so
	// the retry after recreation must not wait on it again.
	require.NoError(t, fx.controller.RenderFrame(nil))
	fx.drv.SetSurfaceExtent(800, 600)
	require.NoError(t, fx.controller.RenderFrame(nil))
	assert.Equal(t, driver.Extent2D{Width: 800, Height: 600}, fx.controller.Extent())

	// Back-to-back staleness keeps recovering.
	for i := uint32(0); i < 3; i++ {
		fx.drv.SetSurfaceExtent(800+i, 600+i)
		require.NoError(t, fx.controller.RenderFrame(nil))
	}
	assert.Empty(t, fx.drv.Violations())
}

func TestControllerRequiresTableAndUniform(t *testing.T) {
	drv := driver.NewFake()

	_, err := NewController(drv)
	assert.Error(t, err)
}

func TestWaitBeforeResetIsEnforced(t *testing.T) {
	drv := driver.NewFake()

	cbs, err := drv.AllocateCommandBuffers(1)
	require.NoError(t, err)
	fence, err := drv.CreateFence(false)
	require.NoError(t, err)

	require.NoError(t, drv.BeginCommandBuffer(cbs[0], true))
	require.NoError(t, drv.EndCommandBuffer(cbs[0]))
	require.NoError(t, drv.QueueSubmit(driver.SubmitInfo{CommandBuffers: cbs}, fence))

	// Resetting without waiting on the fence is the protocol violation the
	// draw-reuse fence exists to prevent.
	require.NoError(t, drv.ResetCommandBuffer(cbs[0], true))
	assert.NotEmpty(t, drv.Violations())
}
