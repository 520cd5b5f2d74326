// Package gpu provides the device-memory primitives of the renderer: buffers
// with explicit lifetimes, the ray-traced render target image, memory type
// selection, and one-shot command submission.
package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

// FindMemoryType selects the index of a device memory type that is allowed by
// the resource's type bitmask and carries all requested property flags.
//
// Parameters:
//   - types: the memory types reported by the driver
//   - typeBits: the resource's allowed-type bitmask from its memory requirements
//   - props: the required memory property flags
//
// Returns:
//   - uint32: the index of the first matching memory type
//   - error: an error if no memory type satisfies both constraints
func FindMemoryType(types []driver.MemoryType, typeBits uint32, props driver.MemoryPropertyFlags) (uint32, error) {
	for i, t := range types {
		if typeBits&(1<<uint32(i)) == 0 {
			continue
		}
		if t.Properties&props == props {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("no memory type matches bits %#x with properties %#x", typeBits, props)
}
