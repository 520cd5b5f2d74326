package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vkrt-go/engine/camera"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/shader"
)

func testRenderer(t *testing.T) (renderer.Renderer, *driver.Fake) {
	t.Helper()
	drv := driver.NewFake(driver.WithSurfaceExtent(1280, 720))
	r := renderer.NewRenderer(renderer.BackendTypeVulkan, nil, renderer.WithDriver(drv))
	t.Cleanup(r.Destroy)

	code := []byte{0x03, 0x02, 0x23, 0x07}
	stages := map[string]driver.ShaderStage{
		"rgen":  driver.StageRaygen,
		"rint":  driver.StageIntersection,
		"rchit": driver.StageClosestHit,
		"rmiss": driver.StageMiss,
	}
	shaders := make([]shader.Shader, 0, len(stages))
	for key, stage := range stages {
		s, err := shader.NewShader(shader.WithKey(key), shader.WithStage(stage), shader.WithCode(code))
		require.NoError(t, err)
		shaders = append(shaders, s)
	}
	p, err := pipeline.NewPipeline(pipeline.WithKey("test"), pipeline.WithShaders(shaders...))
	require.NoError(t, err)
	require.NoError(t, r.RegisterPipeline(p))
	return r, drv
}

func testCamera() camera.Camera {
	return camera.NewCamera(camera.WithController(camera.NewCameraController()))
}

func TestSceneBuildCommitsGeometry(t *testing.T) {
	r, drv := testRenderer(t)
	s := NewScene("demo", testCamera(), r,
		WithGeometries(UnitCubeAABB()),
		WithInstances(InstanceRow(3, 1.5)...),
	)

	require.NoError(t, s.Build())
	assert.True(t, s.Built())
	assert.Empty(t, drv.Violations())
	require.NoError(t, r.RenderFrame(s.Update()))
}

func TestSceneBuildSyncsCameraAspect(t *testing.T) {
	r, _ := testRenderer(t)
	cam := testCamera()
	s := NewScene("demo", cam, r,
		WithGeometries(UnitCubeMesh()),
		WithInstances(InstanceRow(1, 0)...),
	)

	require.NoError(t, s.Build())
	assert.InDelta(t, 1280.0/720.0, cam.Aspect(), 1e-5)
}

func TestSceneBuildsOnlyOnce(t *testing.T) {
	r, _ := testRenderer(t)
	s := NewScene("demo", testCamera(), r,
		WithGeometries(UnitCubeAABB()),
		WithInstances(InstanceRow(2, 1.5)...),
	)

	require.NoError(t, s.Build())
	assert.Error(t, s.Build())
}

func TestSceneRejectsEmptyBuild(t *testing.T) {
	r, _ := testRenderer(t)
	s := NewScene("empty", testCamera(), r)

	assert.Error(t, s.Build())
}

func TestSceneRejectsAddAfterBuild(t *testing.T) {
	r, _ := testRenderer(t)
	s := NewScene("demo", testCamera(), r,
		WithGeometries(UnitCubeAABB()),
		WithInstances(InstanceRow(1, 0)...),
	)
	require.NoError(t, s.Build())

	_, err := s.AddGeometry(UnitCubeMesh())
	assert.Error(t, err)
	assert.Error(t, s.AddInstance(renderer.InstanceDesc{Mask: 0xFF}))
}

func TestInstanceRowCentersOnOrigin(t *testing.T) {
	descs := InstanceRow(3, 1.5)
	require.Len(t, descs, 3)

	xs := make([]float32, 0, 3)
	for _, d := range descs {
		xs = append(xs, d.Transform.Col(3).X())
	}
	assert.Equal(t, []float32{-1.5, 0, 1.5}, xs)
}
