// Package sbt lays shader-group handles out into the shader binding table
// buffer and derives the strided regions trace-rays commands consume.
package sbt

import (
	"fmt"

	"github.com/Carmen-Shannon/vkrt-go/common"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/gpu"
)

// GroupCounts describes the shader-group ordering of the pipeline the table
// is built for: one raygen group first, then hit groups, then miss groups,
// then callable groups. Region arithmetic is purely positional, so the counts
// must match the order used at pipeline creation.
type GroupCounts struct {
	Hit      uint32
	Miss     uint32
	Callable uint32
}

// Total retrieves the total number of shader groups including the raygen group.
//
// Returns:
//   - uint32: the group count
func (g GroupCounts) Total() uint32 {
	return 1 + g.Hit + g.Miss + g.Callable
}

// table is the implementation of the Table interface.
type table struct {
	buffer   gpu.Buffer
	raygen   driver.StridedRegion
	hit      driver.StridedRegion
	miss     driver.StridedRegion
	callable driver.StridedRegion
}

// Table defines the interface for a built shader binding table. The table is
// immutable after construction and is destroyed together with the pipeline
// it was built from.
type Table interface {
	// Raygen retrieves the ray-generation region, a single entry at the
	// table base.
	//
	// Returns:
	//   - driver.StridedRegion: the raygen region
	Raygen() driver.StridedRegion

	// Hit retrieves the hit-group region spanning the contiguous hit slots.
	//
	// Returns:
	//   - driver.StridedRegion: the hit region
	Hit() driver.StridedRegion

	// Miss retrieves the miss region.
	//
	// Returns:
	//   - driver.StridedRegion: the miss region
	Miss() driver.StridedRegion

	// Callable retrieves the callable region. Empty when the pipeline
	// defines no callable shaders.
	//
	// Returns:
	//   - driver.StridedRegion: the callable region
	Callable() driver.StridedRegion

	// Destroy releases the table buffer. Safe to call more than once.
	Destroy()
}

var _ Table = &table{}

// NewTable queries the shader-group handles of a pipeline, repacks them from
// the driver's tight packing into independently aligned slots, uploads the
// result, and derives the four regions by address arithmetic over the single
// buffer.
//
// Parameters:
//   - drv: the driver to query and upload through
//   - pipeline: the ray-tracing pipeline to read group handles from
//   - counts: the pipeline's group ordering
//
// Returns:
//   - Table: the built table
//   - error: an error if the handle query or the upload fails
func NewTable(drv driver.Driver, pipeline driver.Pipeline, counts GroupCounts) (Table, error) {
	props := drv.RayTracingProperties()
	handleSize := uint64(props.ShaderGroupHandleSize)
	aligned := common.AlignUp(handleSize, uint64(props.ShaderGroupBaseAlignment))
	groupCount := counts.Total()

	handles, err := drv.ShaderGroupHandles(pipeline, groupCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query shader group handles: %w", err)
	}
	if uint64(len(handles)) < uint64(groupCount)*handleSize {
		return nil, fmt.Errorf("driver returned %d handle bytes, need %d", len(handles), uint64(groupCount)*handleSize)
	}

	packed := repack(handles, handleSize, aligned, groupCount)

	buffer, err := gpu.NewBuffer(drv,
		gpu.WithSize(uint64(len(packed))),
		gpu.WithUsage(driver.UsageShaderBindingTable|driver.UsageShaderDeviceAddress),
		gpu.WithMemoryProperties(driver.MemoryHostVisible|driver.MemoryHostCoherent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader binding table buffer: %w", err)
	}
	if err := buffer.Upload(packed); err != nil {
		buffer.Destroy()
		return nil, fmt.Errorf("failed to upload shader binding table: %w", err)
	}

	base := buffer.DeviceAddress()
	t := &table{
		buffer: buffer,
		raygen: driver.StridedRegion{DeviceAddress: base, Stride: aligned, Size: aligned},
		hit: driver.StridedRegion{
			DeviceAddress: base + aligned,
			Stride:        aligned,
			Size:          uint64(counts.Hit) * aligned,
		},
		miss: driver.StridedRegion{
			DeviceAddress: base + uint64(1+counts.Hit)*aligned,
			Stride:        aligned,
			Size:          uint64(counts.Miss) * aligned,
		},
	}
	if counts.Callable > 0 {
		t.callable = driver.StridedRegion{
			DeviceAddress: base + uint64(1+counts.Hit+counts.Miss)*aligned,
			Stride:        aligned,
			Size:          uint64(counts.Callable) * aligned,
		}
	}
	return t, nil
}

// repack copies each tightly packed handle into its own aligned slot,
// zero-padding the slack bytes. The device reads the table with an aligned
// stride, so the tight packing the driver returns cannot be uploaded as is.
func repack(handles []byte, handleSize, aligned uint64, groupCount uint32) []byte {
	out := make([]byte, uint64(groupCount)*aligned)
	for g := uint64(0); g < uint64(groupCount); g++ {
		copy(out[g*aligned:], handles[g*handleSize:(g+1)*handleSize])
	}
	return out
}

func (t *table) Raygen() driver.StridedRegion {
	return t.raygen
}

func (t *table) Hit() driver.StridedRegion {
	return t.hit
}

func (t *table) Miss() driver.StridedRegion {
	return t.miss
}

func (t *table) Callable() driver.StridedRegion {
	return t.callable
}

func (t *table) Destroy() {
	t.buffer.Destroy()
}
