package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/accel"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/shader"
)

func testShader(t *testing.T, key string, stage driver.ShaderStage) shader.Shader {
	t.Helper()
	s, err := shader.NewShader(
		shader.WithKey(key),
		shader.WithStage(stage),
		shader.WithCode([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}),
	)
	require.NoError(t, err)
	return s
}

func testPipeline(t *testing.T) pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.NewPipeline(
		pipeline.WithKey("primary"),
		pipeline.WithShaders(
			testShader(t, "rgen", driver.StageRaygen),
			testShader(t, "rint", driver.StageIntersection),
			testShader(t, "rchit", driver.StageClosestHit),
			testShader(t, "rmiss", driver.StageMiss),
		),
	)
	require.NoError(t, err)
	return p
}

func sceneInputs(t *testing.T, drv driver.Driver) ([]accel.Geometry, []InstanceDesc) {
	t.Helper()
	geom, err := accel.NewAABBGeometry(drv, []accel.AABB{{
		Min: mgl32.Vec3{-0.5, -0.5, -0.5},
		Max: mgl32.Vec3{0.5, 0.5, 0.5},
	}})
	require.NoError(t, err)

	instances := make([]InstanceDesc, 0, 3)
	for i, x := range []float32{-1.5, 0, 1.5} {
		instances = append(instances, InstanceDesc{
			Transform:   mgl32.Translate3D(x, 0, 0),
			CustomIndex: uint32(i),
			Mask:        0xFF,
		})
	}
	return []accel.Geometry{geom}, instances
}

func newTestRenderer(t *testing.T) (Renderer, *driver.Fake) {
	t.Helper()
	drv := driver.NewFake()
	r := NewRenderer(BackendTypeVulkan, nil, WithDriver(drv))
	return r, drv
}

func TestRendererEndToEnd(t *testing.T) {
	r, drv := newTestRenderer(t)
	defer r.Destroy()

	require.NoError(t, r.RegisterPipeline(testPipeline(t)))

	geoms, instances := sceneInputs(t, drv)
	require.NoError(t, r.BuildScene(geoms, instances))

	uniform := make([]byte, 128)
	for i := 0; i < 25; i++ {
		require.NoError(t, r.RenderFrame(uniform))
	}

	assert.Empty(t, drv.Violations())
	assert.Equal(t, drv.SurfaceExtent(), r.Extent())
}

func TestRendererDestroyReleasesEverything(t *testing.T) {
	r, drv := newTestRenderer(t)

	require.NoError(t, r.RegisterPipeline(testPipeline(t)))
	geoms, instances := sceneInputs(t, drv)
	require.NoError(t, r.BuildScene(geoms, instances))
	require.NoError(t, r.RenderFrame(nil))

	r.Destroy()

	assert.Empty(t, drv.Violations())
	assert.Zero(t, drv.LiveObjectCount())
}

func TestRendererRegisterPipelineCachesDescription(t *testing.T) {
	r, _ := newTestRenderer(t)
	defer r.Destroy()

	p := testPipeline(t)
	require.NoError(t, r.RegisterPipeline(p))

	assert.Equal(t, p, r.Pipeline("primary"))
	assert.Nil(t, r.Pipeline("missing"))
}

func TestRendererRejectsDuplicatePipeline(t *testing.T) {
	r, _ := newTestRenderer(t)
	defer r.Destroy()

	require.NoError(t, r.RegisterPipeline(testPipeline(t)))
	assert.Error(t, r.RegisterPipeline(testPipeline(t)))
}

func TestRendererSceneRequiresPipeline(t *testing.T) {
	r, drv := newTestRenderer(t)
	defer r.Destroy()

	geoms, instances := sceneInputs(t, drv)
	err := r.BuildScene(geoms, instances)
	assert.Error(t, err)
}

func TestRendererSceneRejectsBadGeometryIndex(t *testing.T) {
	r, drv := newTestRenderer(t)
	defer r.Destroy()

	require.NoError(t, r.RegisterPipeline(testPipeline(t)))

	geoms, instances := sceneInputs(t, drv)
	instances[1].GeometryIndex = 7
	assert.Error(t, r.BuildScene(geoms, instances))
}

func TestRendererFrameRequiresScene(t *testing.T) {
	r, _ := newTestRenderer(t)
	defer r.Destroy()

	require.NoError(t, r.RegisterPipeline(testPipeline(t)))
	assert.Error(t, r.RenderFrame(nil))
}

func TestRendererResizeFollowsSurface(t *testing.T) {
	r, drv := newTestRenderer(t)
	defer r.Destroy()

	require.NoError(t, r.RegisterPipeline(testPipeline(t)))
	geoms, instances := sceneInputs(t, drv)
	require.NoError(t, r.BuildScene(geoms, instances))
	require.NoError(t, r.RenderFrame(nil))

	drv.SetSurfaceExtent(1920, 1080)
	r.Resize(1920, 1080)

	assert.Equal(t, driver.Extent2D{Width: 1920, Height: 1080}, r.Extent())
	require.NoError(t, r.RenderFrame(nil))
	assert.Empty(t, drv.Violations())
}
