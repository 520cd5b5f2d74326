package gpu

import "github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"

// BufferBuilderOption is a function that configures a buffer instance during construction.
type BufferBuilderOption func(*buffer)

// WithSize is an option builder that sets the size of the buffer in bytes.
//
// Parameters:
//   - size: the buffer size in bytes, must be non-zero
//
// Returns:
//   - BufferBuilderOption: a function that applies the size option to a buffer
func WithSize(size uint64) BufferBuilderOption {
	return func(b *buffer) {
		b.size = size
	}
}

// WithUsage is an option builder that sets the usage flags of the buffer.
// Including driver.UsageShaderDeviceAddress also enables a device-address
// capable memory allocation.
//
// Parameters:
//   - usage: the buffer usage flags
//
// Returns:
//   - BufferBuilderOption: a function that applies the usage option to a buffer
func WithUsage(usage driver.BufferUsageFlags) BufferBuilderOption {
	return func(b *buffer) {
		b.usage = usage
	}
}

// WithMemoryProperties is an option builder that sets the required memory
// property flags for the buffer's backing allocation. Defaults to
// device-local memory.
//
// Parameters:
//   - props: the required memory property flags
//
// Returns:
//   - BufferBuilderOption: a function that applies the memory properties option to a buffer
func WithMemoryProperties(props driver.MemoryPropertyFlags) BufferBuilderOption {
	return func(b *buffer) {
		b.memProps = props
	}
}
