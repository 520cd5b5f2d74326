package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

func TestFindMemoryType(t *testing.T) {
	types := []driver.MemoryType{
		{Properties: driver.MemoryDeviceLocal},
		{Properties: driver.MemoryHostVisible | driver.MemoryHostCoherent},
	}

	idx, err := FindMemoryType(types, 0b11, driver.MemoryHostVisible|driver.MemoryHostCoherent)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)

	idx, err = FindMemoryType(types, 0b11, driver.MemoryDeviceLocal)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx)

	// Type bits exclude the only matching type.
	_, err = FindMemoryType(types, 0b01, driver.MemoryHostVisible)
	assert.Error(t, err)

	_, err = FindMemoryType(types, 0b11, driver.MemoryDeviceLocal|driver.MemoryHostVisible)
	assert.Error(t, err)
}

func TestNewBufferLifecycle(t *testing.T) {
	drv := driver.NewFake()

	buf, err := NewBuffer(drv,
		WithSize(256),
		WithUsage(driver.UsageStorageBuffer|driver.UsageShaderDeviceAddress),
	)
	require.NoError(t, err)
	assert.True(t, buf.Ready())
	assert.Equal(t, uint64(256), buf.Size())
	assert.NotZero(t, buf.DeviceAddress())

	buf.Destroy()
	assert.False(t, buf.Ready())
	buf.Destroy()

	assert.Empty(t, drv.Violations())
	assert.Zero(t, drv.LiveObjectCount())
}

func TestNewBufferZeroSize(t *testing.T) {
	drv := driver.NewFake()

	_, err := NewBuffer(drv, WithUsage(driver.UsageUniformBuffer))
	assert.Error(t, err)
	assert.Zero(t, drv.LiveObjectCount())
}

func TestBufferUpload(t *testing.T) {
	drv := driver.NewFake()

	buf, err := NewBuffer(drv,
		WithSize(64),
		WithUsage(driver.UsageUniformBuffer),
		WithMemoryProperties(driver.MemoryHostVisible|driver.MemoryHostCoherent),
	)
	require.NoError(t, err)
	defer buf.Destroy()

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, buf.Upload(data))

	mapped, err := drv.MapMemory(memoryOf(t, buf), 0, uint64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, mapped)
	drv.UnmapMemory(memoryOf(t, buf))

	assert.Error(t, buf.Upload(make([]byte, 65)))
	assert.Empty(t, drv.Violations())
}

func memoryOf(t *testing.T, b Buffer) driver.Memory {
	t.Helper()
	impl, ok := b.(*buffer)
	require.True(t, ok)
	return impl.memory
}
