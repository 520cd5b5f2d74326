package driver

import (
	"fmt"
)

// Fake is an in-memory Driver that models just enough device state to
// validate the engine's resource and synchronization protocol without a GPU:
// it tracks live handles, image layouts, fence state, and per-command-buffer
// command streams, and records a violation for every protocol break a
// validation layer would flag (waiting an unsignaled fence, resetting an
// in-flight command buffer, copying through a wrong layout, building a TLAS
// without the transfer-to-build barrier).
//
// GPU execution is modeled as instantaneous: submits retire immediately,
// signaling their fences and executing recorded buffer writes.
type Fake struct {
	nextHandle uint64

	buffers    map[Buffer]*fakeBuffer
	memories   map[Memory]*fakeMemory
	images     map[Image]*fakeImage
	views      map[ImageView]Image
	cmdBufs    map[CommandBuffer]*fakeCommandBuffer
	fences     map[Fence]*fakeFence
	semaphores map[Semaphore]bool
	swapchains map[Swapchain]*fakeSwapchain
	structures map[AccelerationStructure]*fakeAS
	pipelines  map[Pipeline]*fakePipeline
	layouts    map[PipelineLayout]bool
	sets       map[DescriptorSet]*fakeDescriptorSet
	shaders    map[ShaderModule]int

	surfaceExtent Extent2D
	surfaceFormat Format
	rtProps       RayTracingProperties
	memoryTypes   []MemoryType

	outOfDate  bool
	violations []string
}

type fakeBuffer struct {
	size   uint64
	usage  BufferUsageFlags
	memory Memory
}

type fakeMemory struct {
	data          []byte
	deviceAddress bool
	mapped        bool
}

type fakeImage struct {
	spec      ImageSpec
	layout    ImageLayout
	memory    Memory
	swapchain Swapchain // non-zero for swapchain-owned images
}

type fakeCommandBuffer struct {
	state    cbState
	oneTime  bool
	commands []fakeCommand
	// fence associated with the last submission, cleared by WaitForFences.
	inFlightFence Fence
}

type cbState int

const (
	cbInitial cbState = iota
	cbRecording
	cbExecutable
	cbPending
)

type fakeCommand struct {
	kind string

	srcStage PipelineStageFlags
	dstStage PipelineStageFlags
	memory   []MemoryBarrier
	imgs     []ImageBarrier

	copySrc, copyDst       Image
	copySrcLay, copyDstLay ImageLayout

	updateDst    Buffer
	updateOffset uint64
	updateData   []byte

	build ASBuildInfo
}

type fakeFence struct {
	signaled bool
}

type fakeSwapchain struct {
	extent  Extent2D
	images  []Image
	next    uint32
	retired bool
}

type fakeAS struct {
	asType ASType
	buffer Buffer
	built  bool
}

type fakePipeline struct {
	groups []ShaderGroupSpec
}

type fakeDescriptorSet struct {
	tlas    AccelerationStructure
	view    ImageView
	uniform Buffer
}

var _ Driver = &Fake{}

// FakeOption configures a Fake driver.
type FakeOption func(f *Fake)

// WithSurfaceExtent sets the initial surface size reported by the fake.
func WithSurfaceExtent(width, height uint32) FakeOption {
	return func(f *Fake) {
		f.surfaceExtent = Extent2D{Width: width, Height: height}
	}
}

// WithShaderGroupProperties sets the handle size and base alignment the fake
// reports from RayTracingProperties.
func WithShaderGroupProperties(handleSize, baseAlignment uint32) FakeOption {
	return func(f *Fake) {
		f.rtProps = RayTracingProperties{
			ShaderGroupHandleSize:    handleSize,
			ShaderGroupBaseAlignment: baseAlignment,
		}
	}
}

// NewFake creates a Fake driver with one device-local and one
// host-visible+coherent memory type, a 1280x720 surface, and 32/64
// shader-group properties unless overridden.
//
// Parameters:
//   - options: functional options to configure the fake
//
// Returns:
//   - *Fake: the configured fake driver
func NewFake(options ...FakeOption) *Fake {
	f := &Fake{
		buffers:    make(map[Buffer]*fakeBuffer),
		memories:   make(map[Memory]*fakeMemory),
		images:     make(map[Image]*fakeImage),
		views:      make(map[ImageView]Image),
		cmdBufs:    make(map[CommandBuffer]*fakeCommandBuffer),
		fences:     make(map[Fence]*fakeFence),
		semaphores: make(map[Semaphore]bool),
		swapchains: make(map[Swapchain]*fakeSwapchain),
		structures: make(map[AccelerationStructure]*fakeAS),
		pipelines:  make(map[Pipeline]*fakePipeline),
		layouts:    make(map[PipelineLayout]bool),
		sets:       make(map[DescriptorSet]*fakeDescriptorSet),
		shaders:    make(map[ShaderModule]int),

		surfaceExtent: Extent2D{Width: 1280, Height: 720},
		surfaceFormat: FormatB8G8R8A8Unorm,
		rtProps: RayTracingProperties{
			ShaderGroupHandleSize:    32,
			ShaderGroupBaseAlignment: 64,
		},
		memoryTypes: []MemoryType{
			{Properties: MemoryDeviceLocal},
			{Properties: MemoryHostVisible | MemoryHostCoherent},
		},
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Violations returns every protocol violation recorded so far, in order.
func (f *Fake) Violations() []string {
	return f.violations
}

// LiveObjectCount returns the number of engine-created handles currently
// alive (buffers, memories, images excluding swapchain-owned ones, views,
// fences, semaphores, acceleration structures, swapchains).
func (f *Fake) LiveObjectCount() int {
	n := len(f.buffers) + len(f.memories) + len(f.views) +
		len(f.fences) + len(f.semaphores) + len(f.structures) + len(f.swapchains)
	for _, img := range f.images {
		if img.swapchain == 0 {
			n++
		}
	}
	return n
}

// SetSurfaceExtent changes the reported surface size and marks every current
// swapchain out of date, as a window resize does.
func (f *Fake) SetSurfaceExtent(width, height uint32) {
	f.surfaceExtent = Extent2D{Width: width, Height: height}
	f.outOfDate = true
}

// ImageLayoutOf reports the tracked layout of an image.
func (f *Fake) ImageLayoutOf(image Image) ImageLayout {
	if img, ok := f.images[image]; ok {
		return img.layout
	}
	return LayoutUndefined
}

func (f *Fake) violate(format string, args ...any) {
	f.violations = append(f.violations, fmt.Sprintf(format, args...))
}

func (f *Fake) handle() uint64 {
	f.nextHandle++
	return f.nextHandle
}

func (f *Fake) MemoryTypes() []MemoryType {
	return f.memoryTypes
}

func (f *Fake) BufferMemoryRequirements(buffer Buffer) MemoryRequirements {
	b, ok := f.buffers[buffer]
	if !ok {
		f.violate("memory requirements queried for unknown buffer %d", buffer)
		return MemoryRequirements{}
	}
	return MemoryRequirements{Size: b.size, Alignment: 256, MemoryTypeBits: 0b11}
}

func (f *Fake) ImageMemoryRequirements(image Image) MemoryRequirements {
	img, ok := f.images[image]
	if !ok {
		f.violate("memory requirements queried for unknown image %d", image)
		return MemoryRequirements{}
	}
	size := uint64(img.spec.Extent.Width) * uint64(img.spec.Extent.Height) * 4
	return MemoryRequirements{Size: size, Alignment: 4096, MemoryTypeBits: 0b01}
}

func (f *Fake) AllocateMemory(size uint64, typeIndex uint32, deviceAddress bool) (Memory, error) {
	if int(typeIndex) >= len(f.memoryTypes) {
		return 0, fmt.Errorf("invalid memory type index %d", typeIndex)
	}
	m := Memory(f.handle())
	f.memories[m] = &fakeMemory{data: make([]byte, size), deviceAddress: deviceAddress}
	return m, nil
}

func (f *Fake) FreeMemory(memory Memory) {
	if _, ok := f.memories[memory]; !ok {
		f.violate("free of unknown memory %d", memory)
		return
	}
	delete(f.memories, memory)
}

func (f *Fake) MapMemory(memory Memory, offset, size uint64) ([]byte, error) {
	m, ok := f.memories[memory]
	if !ok {
		return nil, fmt.Errorf("map of unknown memory %d", memory)
	}
	if offset+size > uint64(len(m.data)) {
		return nil, fmt.Errorf("map range [%d,%d) exceeds allocation size %d", offset, offset+size, len(m.data))
	}
	m.mapped = true
	return m.data[offset : offset+size], nil
}

func (f *Fake) UnmapMemory(memory Memory) {
	m, ok := f.memories[memory]
	if !ok {
		f.violate("unmap of unknown memory %d", memory)
		return
	}
	if !m.mapped {
		f.violate("unmap of memory %d that is not mapped", memory)
	}
	m.mapped = false
}

func (f *Fake) CreateBuffer(size uint64, usage BufferUsageFlags) (Buffer, error) {
	b := Buffer(f.handle())
	f.buffers[b] = &fakeBuffer{size: size, usage: usage}
	return b, nil
}

func (f *Fake) BindBufferMemory(buffer Buffer, memory Memory) error {
	b, ok := f.buffers[buffer]
	if !ok {
		return fmt.Errorf("bind to unknown buffer %d", buffer)
	}
	if _, ok := f.memories[memory]; !ok {
		return fmt.Errorf("bind of unknown memory %d", memory)
	}
	b.memory = memory
	return nil
}

func (f *Fake) DestroyBuffer(buffer Buffer) {
	if _, ok := f.buffers[buffer]; !ok {
		f.violate("destroy of unknown buffer %d", buffer)
		return
	}
	delete(f.buffers, buffer)
}

func (f *Fake) BufferDeviceAddress(buffer Buffer) uint64 {
	b, ok := f.buffers[buffer]
	if !ok {
		f.violate("device address of unknown buffer %d", buffer)
		return 0
	}
	if b.usage&UsageShaderDeviceAddress == 0 {
		f.violate("device address of buffer %d created without UsageShaderDeviceAddress", buffer)
		return 0
	}
	if b.memory == 0 {
		f.violate("device address of buffer %d with no bound memory", buffer)
		return 0
	}
	if m := f.memories[b.memory]; m != nil && !m.deviceAddress {
		f.violate("device address of buffer %d whose memory lacks the device-address flag", buffer)
	}
	return uint64(buffer) << 12
}

func (f *Fake) CreateImage(spec ImageSpec) (Image, error) {
	img := Image(f.handle())
	f.images[img] = &fakeImage{spec: spec, layout: LayoutUndefined}
	return img, nil
}

func (f *Fake) BindImageMemory(image Image, memory Memory) error {
	img, ok := f.images[image]
	if !ok {
		return fmt.Errorf("bind to unknown image %d", image)
	}
	if _, ok := f.memories[memory]; !ok {
		return fmt.Errorf("bind of unknown memory %d", memory)
	}
	img.memory = memory
	return nil
}

func (f *Fake) DestroyImage(image Image) {
	img, ok := f.images[image]
	if !ok {
		f.violate("destroy of unknown image %d", image)
		return
	}
	if img.swapchain != 0 {
		f.violate("direct destroy of swapchain-owned image %d", image)
		return
	}
	delete(f.images, image)
}

func (f *Fake) CreateImageView(image Image, format Format) (ImageView, error) {
	if _, ok := f.images[image]; !ok {
		return 0, fmt.Errorf("view of unknown image %d", image)
	}
	v := ImageView(f.handle())
	f.views[v] = image
	return v, nil
}

func (f *Fake) DestroyImageView(view ImageView) {
	if _, ok := f.views[view]; !ok {
		f.violate("destroy of unknown image view %d", view)
		return
	}
	delete(f.views, view)
}

func (f *Fake) AllocateCommandBuffers(count uint32) ([]CommandBuffer, error) {
	out := make([]CommandBuffer, count)
	for i := range out {
		cb := CommandBuffer(f.handle())
		f.cmdBufs[cb] = &fakeCommandBuffer{state: cbInitial}
		out[i] = cb
	}
	return out, nil
}

func (f *Fake) FreeCommandBuffers(buffers []CommandBuffer) {
	for _, cb := range buffers {
		if _, ok := f.cmdBufs[cb]; !ok {
			f.violate("free of unknown command buffer %d", cb)
			continue
		}
		delete(f.cmdBufs, cb)
	}
}

func (f *Fake) ResetCommandBuffer(cb CommandBuffer, releaseResources bool) error {
	c, ok := f.cmdBufs[cb]
	if !ok {
		return fmt.Errorf("reset of unknown command buffer %d", cb)
	}
	if c.state == cbPending {
		f.violate("reset of command buffer %d still in flight (fence %d not waited)", cb, c.inFlightFence)
	}
	c.state = cbInitial
	c.commands = nil
	return nil
}

func (f *Fake) BeginCommandBuffer(cb CommandBuffer, oneTimeSubmit bool) error {
	c, ok := f.cmdBufs[cb]
	if !ok {
		return fmt.Errorf("begin of unknown command buffer %d", cb)
	}
	if c.state == cbRecording {
		f.violate("begin of command buffer %d already recording", cb)
	}
	if c.state == cbPending {
		f.violate("begin of command buffer %d still in flight", cb)
	}
	c.state = cbRecording
	c.oneTime = oneTimeSubmit
	c.commands = nil
	return nil
}

func (f *Fake) EndCommandBuffer(cb CommandBuffer) error {
	c, ok := f.cmdBufs[cb]
	if !ok {
		return fmt.Errorf("end of unknown command buffer %d", cb)
	}
	if c.state != cbRecording {
		f.violate("end of command buffer %d that is not recording", cb)
	}
	c.state = cbExecutable
	return nil
}

func (f *Fake) recording(cb CommandBuffer, kind string) *fakeCommandBuffer {
	c, ok := f.cmdBufs[cb]
	if !ok {
		f.violate("%s recorded into unknown command buffer %d", kind, cb)
		return nil
	}
	if c.state != cbRecording {
		f.violate("%s recorded into command buffer %d that is not recording", kind, cb)
		return nil
	}
	return c
}

func (f *Fake) CmdPipelineBarrier(cb CommandBuffer, srcStage, dstStage PipelineStageFlags, memory []MemoryBarrier, images []ImageBarrier) {
	c := f.recording(cb, "pipeline barrier")
	if c == nil {
		return
	}
	c.commands = append(c.commands, fakeCommand{
		kind:     "barrier",
		srcStage: srcStage,
		dstStage: dstStage,
		memory:   append([]MemoryBarrier(nil), memory...),
		imgs:     append([]ImageBarrier(nil), images...),
	})
}

func (f *Fake) CmdCopyImage(cb CommandBuffer, src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout, extent Extent2D) {
	c := f.recording(cb, "image copy")
	if c == nil {
		return
	}
	c.commands = append(c.commands, fakeCommand{
		kind:    "copy",
		copySrc: src, copyDst: dst,
		copySrcLay: srcLayout, copyDstLay: dstLayout,
	})
}

func (f *Fake) CmdUpdateBuffer(cb CommandBuffer, dst Buffer, offset uint64, data []byte) {
	c := f.recording(cb, "buffer update")
	if c == nil {
		return
	}
	if len(data) > 65536 {
		f.violate("buffer update of %d bytes exceeds the 65536 byte limit", len(data))
	}
	c.commands = append(c.commands, fakeCommand{
		kind:      "update",
		updateDst: dst, updateOffset: offset,
		updateData: append([]byte(nil), data...),
	})
}

func (f *Fake) CmdBindRayTracingPipeline(cb CommandBuffer, pipeline Pipeline) {
	c := f.recording(cb, "pipeline bind")
	if c == nil {
		return
	}
	if _, ok := f.pipelines[pipeline]; !ok {
		f.violate("bind of unknown pipeline %d", pipeline)
	}
	c.commands = append(c.commands, fakeCommand{kind: "bind-pipeline"})
}

func (f *Fake) CmdBindDescriptorSets(cb CommandBuffer, layout PipelineLayout, sets []DescriptorSet) {
	c := f.recording(cb, "descriptor bind")
	if c == nil {
		return
	}
	for _, s := range sets {
		if _, ok := f.sets[s]; !ok {
			f.violate("bind of unknown descriptor set %d", s)
		}
	}
	c.commands = append(c.commands, fakeCommand{kind: "bind-descriptors"})
}

func (f *Fake) CmdTraceRays(cb CommandBuffer, raygen, miss, hit, callable StridedRegion, width, height, depth uint32) {
	c := f.recording(cb, "trace rays")
	if c == nil {
		return
	}
	if raygen.DeviceAddress == 0 || raygen.Size == 0 {
		f.violate("trace rays with empty raygen region")
	}
	if width == 0 || height == 0 || depth == 0 {
		f.violate("trace rays with zero extent %dx%dx%d", width, height, depth)
	}
	c.commands = append(c.commands, fakeCommand{kind: "trace"})
}

func (f *Fake) CmdBuildAccelerationStructure(cb CommandBuffer, info ASBuildInfo) {
	c := f.recording(cb, "acceleration structure build")
	if c == nil {
		return
	}
	if _, ok := f.structures[info.Dst]; !ok {
		f.violate("build of unknown acceleration structure %d", info.Dst)
	}
	if info.ScratchAddress == 0 {
		f.violate("acceleration structure build with no scratch address")
	}
	if info.Type == TopLevel && !f.hasBuildInputBarrier(c) {
		f.violate("top-level build recorded without a transfer-write to build-read barrier in the same command buffer")
	}
	c.commands = append(c.commands, fakeCommand{kind: "build-as", build: info})
}

// hasBuildInputBarrier reports whether an earlier command in this buffer is a
// memory barrier covering transfer writes against the acceleration structure
// build stage. The instance upload for a top-level build is only visible to
// the build through such a barrier.
func (f *Fake) hasBuildInputBarrier(c *fakeCommandBuffer) bool {
	for _, cmd := range c.commands {
		if cmd.kind != "barrier" {
			continue
		}
		if cmd.dstStage&StageAccelerationStructureBuild == 0 {
			continue
		}
		for _, mb := range cmd.memory {
			if mb.SrcAccess&AccessTransferWrite != 0 &&
				mb.DstAccess&(AccessAccelerationStructureWrite|AccessAccelerationStructureRead) != 0 {
				return true
			}
		}
	}
	return false
}

func (f *Fake) CreateFence(signaled bool) (Fence, error) {
	fe := Fence(f.handle())
	f.fences[fe] = &fakeFence{signaled: signaled}
	return fe, nil
}

func (f *Fake) DestroyFence(fence Fence) {
	if _, ok := f.fences[fence]; !ok {
		f.violate("destroy of unknown fence %d", fence)
		return
	}
	delete(f.fences, fence)
}

func (f *Fake) WaitForFences(fences []Fence) error {
	for _, fence := range fences {
		fe, ok := f.fences[fence]
		if !ok {
			return fmt.Errorf("wait on unknown fence %d", fence)
		}
		if !fe.signaled {
			f.violate("wait on fence %d that nothing will signal", fence)
			return fmt.Errorf("deadlocked wait on fence %d", fence)
		}
	}
	// Retire command buffers gated by these fences.
	for _, fence := range fences {
		for _, c := range f.cmdBufs {
			if c.state == cbPending && c.inFlightFence == fence {
				c.state = cbExecutable
				c.inFlightFence = 0
			}
		}
	}
	return nil
}

func (f *Fake) ResetFences(fences []Fence) error {
	for _, fence := range fences {
		fe, ok := f.fences[fence]
		if !ok {
			return fmt.Errorf("reset of unknown fence %d", fence)
		}
		fe.signaled = false
	}
	return nil
}

func (f *Fake) CreateSemaphore() (Semaphore, error) {
	s := Semaphore(f.handle())
	f.semaphores[s] = true
	return s, nil
}

func (f *Fake) DestroySemaphore(semaphore Semaphore) {
	if _, ok := f.semaphores[semaphore]; !ok {
		f.violate("destroy of unknown semaphore %d", semaphore)
		return
	}
	delete(f.semaphores, semaphore)
}

// QueueSubmit executes the submission immediately: recorded buffer writes
// and layout transitions take effect, acceleration structures referenced by
// build commands become built, and the submit fence is signaled.
func (f *Fake) QueueSubmit(info SubmitInfo, fence Fence) error {
	if len(info.WaitSemaphores) != len(info.WaitStages) {
		f.violate("submit with %d wait semaphores but %d wait stages", len(info.WaitSemaphores), len(info.WaitStages))
	}
	for _, cb := range info.CommandBuffers {
		c, ok := f.cmdBufs[cb]
		if !ok {
			return fmt.Errorf("submit of unknown command buffer %d", cb)
		}
		if c.state != cbExecutable {
			f.violate("submit of command buffer %d that is not executable", cb)
		}
		f.execute(c)
		if fence != 0 {
			c.state = cbPending
			c.inFlightFence = fence
		} else {
			c.state = cbExecutable
		}
	}
	if fence != 0 {
		fe, ok := f.fences[fence]
		if !ok {
			return fmt.Errorf("submit with unknown fence %d", fence)
		}
		if fe.signaled {
			f.violate("submit with fence %d that is already signaled", fence)
		}
		fe.signaled = true
	}
	return nil
}

// execute applies a recorded command stream to the tracked state.
func (f *Fake) execute(c *fakeCommandBuffer) {
	for _, cmd := range c.commands {
		switch cmd.kind {
		case "barrier":
			for _, ib := range cmd.imgs {
				img, ok := f.images[ib.Image]
				if !ok {
					f.violate("barrier on unknown image %d", ib.Image)
					continue
				}
				if ib.OldLayout != LayoutUndefined && img.layout != ib.OldLayout {
					f.violate("barrier on image %d declares old layout %d but tracked layout is %d", ib.Image, ib.OldLayout, img.layout)
				}
				img.layout = ib.NewLayout
			}
		case "copy":
			src, ok := f.images[cmd.copySrc]
			if !ok {
				f.violate("copy from unknown image %d", cmd.copySrc)
				continue
			}
			dst, ok := f.images[cmd.copyDst]
			if !ok {
				f.violate("copy to unknown image %d", cmd.copyDst)
				continue
			}
			if src.layout != LayoutTransferSrc || cmd.copySrcLay != LayoutTransferSrc {
				f.violate("copy source image %d not in transfer-src layout", cmd.copySrc)
			}
			if dst.layout != LayoutTransferDst || cmd.copyDstLay != LayoutTransferDst {
				f.violate("copy destination image %d not in transfer-dst layout", cmd.copyDst)
			}
		case "update":
			b, ok := f.buffers[cmd.updateDst]
			if !ok {
				f.violate("update of unknown buffer %d", cmd.updateDst)
				continue
			}
			m := f.memories[b.memory]
			if m == nil {
				f.violate("update of buffer %d with no bound memory", cmd.updateDst)
				continue
			}
			end := cmd.updateOffset + uint64(len(cmd.updateData))
			if end > uint64(len(m.data)) {
				f.violate("update overruns buffer %d (%d > %d)", cmd.updateDst, end, len(m.data))
				continue
			}
			copy(m.data[cmd.updateOffset:end], cmd.updateData)
		case "build-as":
			if as, ok := f.structures[cmd.build.Dst]; ok {
				as.built = true
			}
		}
	}
}

func (f *Fake) QueueWaitIdle() error {
	for _, c := range f.cmdBufs {
		if c.state == cbPending {
			c.state = cbExecutable
			c.inFlightFence = 0
		}
	}
	return nil
}

func (f *Fake) DeviceWaitIdle() error {
	return f.QueueWaitIdle()
}

func (f *Fake) QueuePresent(info PresentInfo) error {
	sc, ok := f.swapchains[info.Swapchain]
	if !ok {
		return fmt.Errorf("present to unknown swapchain %d", info.Swapchain)
	}
	if int(info.ImageIndex) >= len(sc.images) {
		f.violate("present of image index %d beyond swapchain images", info.ImageIndex)
		return fmt.Errorf("present of invalid image index %d", info.ImageIndex)
	}
	img := f.images[sc.images[info.ImageIndex]]
	if img != nil && img.layout != LayoutPresentSrc {
		f.violate("present of image %d not in present-src layout", sc.images[info.ImageIndex])
	}
	if f.outOfDate || sc.retired || sc.extent != f.surfaceExtent {
		return ErrOutOfDate
	}
	return nil
}

func (f *Fake) CreateSwapchain(spec SwapchainSpec) (Swapchain, error) {
	if spec.OldSwapchain != 0 {
		old, ok := f.swapchains[spec.OldSwapchain]
		if !ok {
			return 0, fmt.Errorf("swapchain create chains unknown old swapchain %d", spec.OldSwapchain)
		}
		old.retired = true
	}
	sc := Swapchain(f.handle())
	chain := &fakeSwapchain{extent: spec.Extent}
	for i := 0; i < 3; i++ {
		img := Image(f.handle())
		f.images[img] = &fakeImage{
			spec:      ImageSpec{Extent: spec.Extent, Format: f.surfaceFormat},
			layout:    LayoutUndefined,
			swapchain: sc,
		}
		chain.images = append(chain.images, img)
	}
	f.swapchains[sc] = chain
	if spec.Extent == f.surfaceExtent {
		f.outOfDate = false
	}
	return sc, nil
}

func (f *Fake) DestroySwapchain(swapchain Swapchain) {
	sc, ok := f.swapchains[swapchain]
	if !ok {
		f.violate("destroy of unknown swapchain %d", swapchain)
		return
	}
	for _, img := range sc.images {
		delete(f.images, img)
	}
	delete(f.swapchains, swapchain)
}

func (f *Fake) SwapchainImages(swapchain Swapchain) ([]Image, error) {
	sc, ok := f.swapchains[swapchain]
	if !ok {
		return nil, fmt.Errorf("images of unknown swapchain %d", swapchain)
	}
	return append([]Image(nil), sc.images...), nil
}

// AcquireNextImage signals the fence immediately on success; the fake has no
// queue depth to hide. An out-of-date acquire leaves the fence untouched,
// matching vkAcquireNextImageKHR.
func (f *Fake) AcquireNextImage(swapchain Swapchain, signal Semaphore, fence Fence) (uint32, error) {
	sc, ok := f.swapchains[swapchain]
	if !ok {
		return 0, fmt.Errorf("acquire from unknown swapchain %d", swapchain)
	}
	var fe *fakeFence
	if fence != 0 {
		if fe, ok = f.fences[fence]; !ok {
			return 0, fmt.Errorf("acquire with unknown fence %d", fence)
		}
		if fe.signaled {
			f.violate("acquire with fence %d that is already signaled", fence)
		}
	}
	if f.outOfDate || sc.retired || sc.extent != f.surfaceExtent {
		return 0, ErrOutOfDate
	}
	if fe != nil {
		fe.signaled = true
	}
	idx := sc.next
	sc.next = (sc.next + 1) % uint32(len(sc.images))
	return idx, nil
}

func (f *Fake) SurfaceFormat() Format {
	return f.surfaceFormat
}

func (f *Fake) SurfaceExtent() Extent2D {
	return f.surfaceExtent
}

// AccelerationStructureBuildSizes returns deterministic sizes derived from
// the primitive count so tests can assert scratch lifetimes without a real
// driver's numbers.
func (f *Fake) AccelerationStructureBuildSizes(info ASBuildInfo) BuildSizes {
	return BuildSizes{
		AccelerationStructureSize: 256 + 64*uint64(info.PrimitiveCount),
		BuildScratchSize:          128 + 32*uint64(info.PrimitiveCount),
	}
}

func (f *Fake) CreateAccelerationStructure(buffer Buffer, size uint64, asType ASType) (AccelerationStructure, error) {
	b, ok := f.buffers[buffer]
	if !ok {
		return 0, fmt.Errorf("acceleration structure over unknown buffer %d", buffer)
	}
	if b.usage&UsageAccelerationStructureStorage == 0 {
		f.violate("acceleration structure over buffer %d without storage usage", buffer)
	}
	if b.size < size {
		f.violate("acceleration structure size %d exceeds backing buffer size %d", size, b.size)
	}
	as := AccelerationStructure(f.handle())
	f.structures[as] = &fakeAS{asType: asType, buffer: buffer}
	return as, nil
}

func (f *Fake) DestroyAccelerationStructure(as AccelerationStructure) {
	if _, ok := f.structures[as]; !ok {
		f.violate("destroy of unknown acceleration structure %d", as)
		return
	}
	delete(f.structures, as)
}

func (f *Fake) AccelerationStructureDeviceAddress(as AccelerationStructure) uint64 {
	s, ok := f.structures[as]
	if !ok {
		f.violate("device address of unknown acceleration structure %d", as)
		return 0
	}
	if !s.built {
		f.violate("device address of acceleration structure %d before its build completed", as)
		return 0
	}
	return uint64(as) << 16
}

func (f *Fake) RayTracingProperties() RayTracingProperties {
	return f.rtProps
}

func (f *Fake) CreateShaderModule(code []byte) (ShaderModule, error) {
	m := ShaderModule(f.handle())
	f.shaders[m] = len(code)
	return m, nil
}

func (f *Fake) DestroyShaderModule(module ShaderModule) {
	if _, ok := f.shaders[module]; !ok {
		f.violate("destroy of unknown shader module %d", module)
		return
	}
	delete(f.shaders, module)
}

func (f *Fake) CreateRayTracingPipeline(spec RayTracingPipelineSpec) (Pipeline, PipelineLayout, error) {
	if len(spec.Groups) == 0 {
		return 0, 0, fmt.Errorf("pipeline with no shader groups")
	}
	for _, g := range spec.Groups {
		for _, idx := range []int{g.General, g.ClosestHit, g.Intersection} {
			if idx >= len(spec.Stages) {
				return 0, 0, fmt.Errorf("shader group references stage %d beyond %d stages", idx, len(spec.Stages))
			}
		}
	}
	p := Pipeline(f.handle())
	l := PipelineLayout(f.handle())
	f.pipelines[p] = &fakePipeline{groups: append([]ShaderGroupSpec(nil), spec.Groups...)}
	f.layouts[l] = true
	return p, l, nil
}

func (f *Fake) DestroyPipeline(pipeline Pipeline, layout PipelineLayout) {
	if _, ok := f.pipelines[pipeline]; !ok {
		f.violate("destroy of unknown pipeline %d", pipeline)
	}
	delete(f.pipelines, pipeline)
	delete(f.layouts, layout)
}

// ShaderGroupHandles returns deterministic per-group byte patterns so repack
// tests can verify placement byte-for-byte.
func (f *Fake) ShaderGroupHandles(pipeline Pipeline, groupCount uint32) ([]byte, error) {
	p, ok := f.pipelines[pipeline]
	if !ok {
		return nil, fmt.Errorf("group handles of unknown pipeline %d", pipeline)
	}
	if int(groupCount) != len(p.groups) {
		f.violate("group handle query for %d groups but pipeline has %d", groupCount, len(p.groups))
	}
	hs := f.rtProps.ShaderGroupHandleSize
	out := make([]byte, groupCount*hs)
	for g := uint32(0); g < groupCount; g++ {
		for j := uint32(0); j < hs; j++ {
			out[g*hs+j] = byte(g*31 + j + 1)
		}
	}
	return out, nil
}

func (f *Fake) AllocateDescriptorSet(layout PipelineLayout) (DescriptorSet, error) {
	if _, ok := f.layouts[layout]; !ok {
		return 0, fmt.Errorf("descriptor set for unknown layout %d", layout)
	}
	s := DescriptorSet(f.handle())
	f.sets[s] = &fakeDescriptorSet{}
	return s, nil
}

func (f *Fake) UpdateAccelerationStructureDescriptor(set DescriptorSet, binding uint32, as AccelerationStructure) {
	s, ok := f.sets[set]
	if !ok {
		f.violate("descriptor write to unknown set %d", set)
		return
	}
	if _, ok := f.structures[as]; !ok {
		f.violate("descriptor write of unknown acceleration structure %d", as)
		return
	}
	s.tlas = as
}

func (f *Fake) UpdateStorageImageDescriptor(set DescriptorSet, binding uint32, view ImageView) {
	s, ok := f.sets[set]
	if !ok {
		f.violate("descriptor write to unknown set %d", set)
		return
	}
	if _, ok := f.views[view]; !ok {
		f.violate("descriptor write of unknown image view %d", view)
		return
	}
	s.view = view
}

// BoundStorageImage reports the image view currently written into a set's
// storage-image binding.
func (f *Fake) BoundStorageImage(set DescriptorSet) ImageView {
	if s, ok := f.sets[set]; ok {
		return s.view
	}
	return 0
}

func (f *Fake) UpdateUniformBufferDescriptor(set DescriptorSet, binding uint32, buffer Buffer, size uint64) {
	s, ok := f.sets[set]
	if !ok {
		f.violate("descriptor write to unknown set %d", set)
		return
	}
	if _, ok := f.buffers[buffer]; !ok {
		f.violate("descriptor write of unknown buffer %d", buffer)
		return
	}
	s.uniform = buffer
}

func (f *Fake) Destroy() {
	for s := range f.sets {
		delete(f.sets, s)
	}
	for cb := range f.cmdBufs {
		delete(f.cmdBufs, cb)
	}
}
