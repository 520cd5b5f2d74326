package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMat4Near(t *testing.T, expected, actual mgl32.Mat4) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], 1e-4)
	}
}

func TestCameraUniformsInvertViewAndProjection(t *testing.T) {
	cam := NewCamera(
		WithAspect(16.0/9.0),
		WithController(NewCameraController(WithRadius(6))),
	)

	u := cam.Uniforms()
	assertMat4Near(t, mgl32.Ident4(), cam.ViewMatrix().Mul4(u.ViewInverse))
	assertMat4Near(t, mgl32.Ident4(), cam.ProjectionMatrix().Mul4(u.ProjInverse))
}

func TestCameraUniformsCarryControllerPosition(t *testing.T) {
	ctrl := NewCameraController(WithRadius(6), WithAzimuth(0), WithElevation(0.1))
	cam := NewCamera(WithController(ctrl))

	px, py, pz := ctrl.Position()
	u := cam.Uniforms()
	assert.Equal(t, mgl32.Vec3{px, py, pz}, u.Position)
}

func TestRayUniformsMarshalSize(t *testing.T) {
	var u RayUniforms
	require.Equal(t, 144, u.Size())
	assert.Len(t, u.Marshal(), 144)
}

func TestCameraUpdateFollowsController(t *testing.T) {
	ctrl := NewCameraController(WithRadius(6))
	cam := NewCamera(WithController(ctrl))
	before := cam.ViewMatrix()

	ctrl.OrbitRight()
	cam.Update()

	assert.NotEqual(t, before, cam.ViewMatrix())
}

func TestCameraSetAspectRecomputesProjection(t *testing.T) {
	cam := NewCamera(WithController(NewCameraController()))
	before := cam.ProjectionMatrix()

	cam.SetAspect(2.0)

	assert.NotEqual(t, before, cam.ProjectionMatrix())
	assert.Equal(t, float32(2.0), cam.Aspect())
}

func TestControllerZoomClampsToRadiusBounds(t *testing.T) {
	ctrl := NewCameraController(
		WithRadius(5),
		WithRadiusBounds(1, 10),
		WithZoomSpeed(1),
	)

	ctrl.Zoom(100)
	assert.Equal(t, float32(1), ctrl.Radius())

	ctrl.Zoom(-100)
	assert.Equal(t, float32(10), ctrl.Radius())
}

func TestControllerElevationClamps(t *testing.T) {
	ctrl := NewCameraController(WithElevationBounds(0.1, 1.0))

	ctrl.SetElevation(5)
	assert.Equal(t, float32(1.0), ctrl.Elevation())

	ctrl.SetElevation(-5)
	assert.Equal(t, float32(0.1), ctrl.Elevation())
}

func TestControllerPanPreservesOrbitRadius(t *testing.T) {
	ctrl := NewCameraController(WithRadius(6), WithPanSpeed(1))

	ctrl.PanRight(2)
	ctrl.PanUp(1)

	px, py, pz := ctrl.Position()
	tx, ty, tz := ctrl.Target()
	d := mgl32.Vec3{px - tx, py - ty, pz - tz}.Len()
	assert.InDelta(t, 6.0, d, 1e-4)
}

func TestControllerOrbitKeepsDistance(t *testing.T) {
	ctrl := NewCameraController(WithRadius(3))

	for i := 0; i < 10; i++ {
		ctrl.OrbitLeft()
		ctrl.OrbitUp()
	}

	px, py, pz := ctrl.Position()
	assert.InDelta(t, 3.0, mgl32.Vec3{px, py, pz}.Len(), 1e-4)
}
