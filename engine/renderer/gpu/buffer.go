package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

// buffer is the implementation of the Buffer interface.
type buffer struct {
	drv    driver.Driver
	handle driver.Buffer
	memory driver.Memory
	size   uint64
	usage  driver.BufferUsageFlags

	memProps driver.MemoryPropertyFlags
	ready    bool
}

// Buffer defines the interface for a device buffer with bound memory. A
// Buffer is either ready or destroyed: construction performs the full
// create-allocate-bind sequence, and Destroy releases both the buffer and its
// memory. Using a destroyed Buffer is a programming error.
type Buffer interface {
	// Handle retrieves the underlying driver buffer handle.
	//
	// Returns:
	//   - driver.Buffer: the driver handle of the buffer
	Handle() driver.Buffer

	// Size retrieves the requested size of the buffer in bytes.
	//
	// Returns:
	//   - uint64: the buffer size
	Size() uint64

	// DeviceAddress retrieves the buffer's device address. The buffer must
	// have been created with device-address usage.
	//
	// Returns:
	//   - uint64: the device address of the buffer
	DeviceAddress() uint64

	// Upload writes data into the buffer through a host mapping. The buffer
	// must be host-visible and data must fit within the buffer size.
	//
	// Parameters:
	//   - data: the bytes to write starting at offset zero
	//
	// Returns:
	//   - error: an error if the mapping fails or the data does not fit
	Upload(data []byte) error

	// Ready reports whether the buffer is usable.
	//
	// Returns:
	//   - bool: true until Destroy is called
	Ready() bool

	// Destroy releases the buffer and frees its memory. Safe to call more
	// than once.
	Destroy()
}

var _ Buffer = &buffer{}

// NewBuffer creates a device buffer, allocates memory satisfying its
// requirements from a type with the given properties, and binds the two.
//
// Parameters:
//   - drv: the driver to create the buffer on
//   - options: variadic list of BufferBuilderOption functions to configure the buffer
//
// Returns:
//   - Buffer: the ready buffer
//   - error: an error if creation, allocation, or binding fails
func NewBuffer(drv driver.Driver, options ...BufferBuilderOption) (Buffer, error) {
	b := &buffer{
		drv:      drv,
		memProps: driver.MemoryDeviceLocal,
	}
	for _, opt := range options {
		opt(b)
	}
	if b.size == 0 {
		return nil, fmt.Errorf("buffer size must be non-zero")
	}

	handle, err := drv.CreateBuffer(b.size, b.usage)
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer: %w", err)
	}
	b.handle = handle

	req := drv.BufferMemoryRequirements(handle)
	typeIndex, err := FindMemoryType(drv.MemoryTypes(), req.MemoryTypeBits, b.memProps)
	if err != nil {
		drv.DestroyBuffer(handle)
		return nil, err
	}

	deviceAddress := b.usage&driver.UsageShaderDeviceAddress != 0
	memory, err := drv.AllocateMemory(req.Size, typeIndex, deviceAddress)
	if err != nil {
		drv.DestroyBuffer(handle)
		return nil, fmt.Errorf("failed to allocate buffer memory: %w", err)
	}
	b.memory = memory

	if err := drv.BindBufferMemory(handle, memory); err != nil {
		drv.FreeMemory(memory)
		drv.DestroyBuffer(handle)
		return nil, fmt.Errorf("failed to bind buffer memory: %w", err)
	}

	b.ready = true
	return b, nil
}

func (b *buffer) Handle() driver.Buffer {
	return b.handle
}

func (b *buffer) Size() uint64 {
	return b.size
}

func (b *buffer) DeviceAddress() uint64 {
	return b.drv.BufferDeviceAddress(b.handle)
}

func (b *buffer) Upload(data []byte) error {
	if uint64(len(data)) > b.size {
		return fmt.Errorf("upload of %d bytes exceeds buffer size %d", len(data), b.size)
	}
	mapped, err := b.drv.MapMemory(b.memory, 0, uint64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to map buffer memory: %w", err)
	}
	copy(mapped, data)
	b.drv.UnmapMemory(b.memory)
	return nil
}

func (b *buffer) Ready() bool {
	return b.ready
}

func (b *buffer) Destroy() {
	if !b.ready {
		return
	}
	b.drv.DestroyBuffer(b.handle)
	b.drv.FreeMemory(b.memory)
	b.ready = false
}
