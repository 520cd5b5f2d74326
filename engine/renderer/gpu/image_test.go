package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

func TestNewRenderTargetDefaults(t *testing.T) {
	drv := driver.NewFake(driver.WithSurfaceExtent(800, 600))

	rt, err := NewRenderTarget(drv)
	require.NoError(t, err)

	assert.Equal(t, driver.Extent2D{Width: 800, Height: 600}, rt.Extent())
	assert.Equal(t, drv.SurfaceFormat(), rt.Format())
	assert.Equal(t, driver.LayoutGeneral, drv.ImageLayoutOf(rt.Image()))

	rt.Destroy()
	rt.Destroy()
	assert.Empty(t, drv.Violations())
	assert.Zero(t, drv.LiveObjectCount())
}

func TestNewRenderTargetExplicitExtent(t *testing.T) {
	drv := driver.NewFake()

	rt, err := NewRenderTarget(drv,
		WithExtent(driver.Extent2D{Width: 320, Height: 240}),
		WithFormat(driver.FormatR8G8B8A8Unorm),
	)
	require.NoError(t, err)
	defer rt.Destroy()

	assert.Equal(t, driver.Extent2D{Width: 320, Height: 240}, rt.Extent())
	assert.Equal(t, driver.FormatR8G8B8A8Unorm, rt.Format())
}

func TestOneShotSubmitsAndFrees(t *testing.T) {
	drv := driver.NewFake()

	img, err := drv.CreateImage(driver.ImageSpec{Extent: driver.Extent2D{Width: 16, Height: 16}, Format: driver.FormatB8G8R8A8Unorm})
	require.NoError(t, err)
	defer drv.DestroyImage(img)

	err = OneShot(drv, func(cb driver.CommandBuffer) error {
		drv.CmdPipelineBarrier(cb, driver.StageTopOfPipe, driver.StageTransfer, nil, []driver.ImageBarrier{{
			Image:     img,
			OldLayout: driver.LayoutUndefined,
			NewLayout: driver.LayoutTransferDst,
			DstAccess: driver.AccessTransferWrite,
		}})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, driver.LayoutTransferDst, drv.ImageLayoutOf(img))
	assert.Empty(t, drv.Violations())
}
