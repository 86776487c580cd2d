package allocation

import (
	"fmt"
	"math/bits"

	"github.com/ember-gfx/ember-go/engine/device"
	"github.com/ember-gfx/ember-go/engine/report"
)

// Usage is a bitmask describing how an allocation's contents are consumed.
type Usage uint32

const (
	// UsageScript makes the CPU buffer readable and writable by kernels.
	UsageScript Usage = 1 << iota

	// UsageTexture mirrors the allocation into a GPU texture.
	UsageTexture

	// UsageVertex mirrors the allocation into a GPU vertex buffer.
	UsageVertex

	// UsageConstants marks the allocation as shader constant storage, read
	// from the CPU buffer at draw time.
	UsageConstants

	// UsageRenderTarget wraps the allocation's texture in a framebuffer so
	// draws can render into it and SyncAll can read it back.
	UsageRenderTarget

	// UsageIOInput marks the allocation as a consumer of external frames.
	UsageIOInput

	// UsageIOOutput marks the allocation as a producer of external frames.
	UsageIOOutput

	// UsageShared requests that the CPU buffer back the allocation directly.
	UsageShared
)

const usageMask = UsageScript | UsageTexture | UsageVertex | UsageConstants |
	UsageRenderTarget | UsageIOInput | UsageIOOutput | UsageShared

// String returns a "|" separated list of set usage names.
//
// Returns:
//   - string: the usage names, "none" when no bits are set
func (u Usage) String() string {
	names := []struct {
		bit  Usage
		name string
	}{
		{UsageScript, "script"},
		{UsageTexture, "texture"},
		{UsageVertex, "vertex"},
		{UsageConstants, "constants"},
		{UsageRenderTarget, "render-target"},
		{UsageIOInput, "io-input"},
		{UsageIOOutput, "io-output"},
		{UsageShared, "shared"},
	}
	out := ""
	for _, n := range names {
		if u&n.bit != 0 {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "none"
	}
	return out
}

// ResourceKind is the single GPU resource family an allocation materializes.
// Derived once from the usage mask at construction so sync and draw paths
// switch exhaustively instead of re-testing flag combinations.
type ResourceKind int

const (
	// KindCPUOnly materializes no GPU resource.
	KindCPUOnly ResourceKind = iota

	// KindTexture materializes a texture, plus a framebuffer when the
	// allocation also has render-target usage.
	KindTexture

	// KindVertexBuffer materializes a vertex buffer.
	KindVertexBuffer
)

// String returns the kind name.
//
// Returns:
//   - string: "cpu-only", "texture" or "vertex-buffer"
func (k ResourceKind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindVertexBuffer:
		return "vertex-buffer"
	default:
		return "cpu-only"
	}
}

// allocation is the implementation of the Allocation interface.
type allocation struct {
	// name labels the allocation in error reports.
	name string
	// typ fixes the element and shape. Replaced only by Resize.
	typ Type
	// usage is the consumption mask set at construction.
	usage Usage
	// kind is the GPU resource family derived from usage.
	kind ResourceKind
	// data is the CPU backing store, always typ.SizeBytes() long.
	data []byte

	// uploadDeferred is true whenever the CPU buffer holds changes no GPU
	// mirror has seen yet.
	uploadDeferred bool
	// degraded is set when a GPU resource could not be allocated. The
	// allocation then stays CPU-only for its lifetime and sync skips
	// silently.
	degraded bool
	// mipmapOnSync derives the mip chain on the GPU after each upload.
	mipmapOnSync bool

	// texture, buffer and target are GPU handles, 0 until first sync.
	texture uint32
	buffer  uint32
	target  uint32

	reporter report.Reporter
}

// Allocation is a CPU-resident buffer of typed cells with optional GPU
// mirrors. Writes land in the CPU buffer and mark the allocation deferred;
// SyncAll is the single point where contents move between CPU and GPU.
//
// All methods except reads and writes of the CPU buffer must be called from
// the thread that owns the GPU context. Kernel workers may share the CPU
// buffer concurrently provided they write disjoint regions and no sync or
// draw touches the allocation during the launch.
type Allocation interface {
	// Name returns the diagnostic label given at construction.
	//
	// Returns:
	//   - string: the allocation name, possibly empty
	Name() string

	// Type returns the element and shape descriptor.
	//
	// Returns:
	//   - Type: the allocation's type
	Type() Type

	// Usage returns the consumption mask given at construction.
	//
	// Returns:
	//   - Usage: the usage bits
	Usage() Usage

	// Kind returns the GPU resource family derived from the usage mask.
	//
	// Returns:
	//   - ResourceKind: the materialized resource kind
	Kind() ResourceKind

	// Bytes returns the live CPU backing store. Kernels read and write it
	// directly; callers that mutate it must call MarkDirty before the next
	// sync or draw.
	//
	// Returns:
	//   - []byte: the CPU buffer
	Bytes() []byte

	// Dirty reports whether the CPU buffer holds changes not yet pushed to
	// the GPU mirrors.
	//
	// Returns:
	//   - bool: true when an upload is pending
	Dirty() bool

	// MarkDirty flags the allocation as needing an upload on the next sync.
	// Used after direct writes through Bytes.
	MarkDirty()

	// Degraded reports whether a GPU allocation failure has pinned the
	// allocation to CPU-only operation.
	//
	// Returns:
	//   - bool: true when GPU mirrors are permanently unavailable
	Degraded() bool

	// Write copies element data into the CPU buffer at an element offset and
	// marks the allocation deferred. Writes exceeding the element count or
	// with mismatched data length are reported as usage errors and leave the
	// buffer unchanged. The GPU is never touched.
	//
	// Parameters:
	//   - offset: the first element to write
	//   - count: the number of elements to write
	//   - data: the element bytes, exactly count times the element size
	Write(offset, count int, data []byte)

	// Write2D copies a rectangle of element data into the base level of a
	// two-dimensional allocation and marks it deferred. Rectangles crossing
	// the allocation bounds are reported as usage errors and leave the
	// buffer unchanged.
	//
	// Parameters:
	//   - x: the first column to write
	//   - y: the first row to write
	//   - w: the rectangle width in elements
	//   - h: the rectangle height in elements
	//   - data: the element bytes, exactly w*h times the element size
	Write2D(x, y, w, h int, data []byte)

	// CopyRangeFrom copies a run of elements out of another allocation's CPU
	// buffer and marks this one deferred. Both allocations must share the
	// same element size; range overruns on either side are reported as usage
	// errors and leave the buffer unchanged. The GPU is never touched.
	//
	// Parameters:
	//   - offset: the first element to write in this allocation
	//   - count: the number of elements to copy
	//   - src: the allocation to read from
	//   - srcOffset: the first element to read in src
	CopyRangeFrom(offset, count int, src Allocation, srcOffset int)

	// SetData replaces the entire CPU buffer and marks the allocation
	// deferred. Data of the wrong length is reported as a usage error.
	//
	// Parameters:
	//   - data: the replacement bytes, exactly the allocation's byte size
	SetData(data []byte)

	// Read copies the CPU buffer into dst. A short dst is reported as a
	// usage error and nothing is copied.
	//
	// Parameters:
	//   - dst: the destination, at least the allocation's byte size
	Read(dst []byte)

	// Resize changes the X dimension of a one-dimensional allocation without
	// mipmaps or faces. Existing element bytes are preserved up to the new
	// size, growth is zero-filled, GPU handles stay intact and the
	// allocation is marked deferred so the next sync republishes the new
	// extent. Other shapes are reported as usage errors.
	//
	// Parameters:
	//   - dimX: the new X dimension in elements, at least 1
	Resize(dimX int)

	// SyncAll moves contents between the CPU buffer and GPU mirrors. The
	// source names whose contents are authoritative and must be exactly one
	// usage bit:
	//
	// UsageScript pushes the CPU buffer out: texture-kind allocations
	// re-upload every face and mip level and derive mipmaps afterward when
	// requested, vertex-kind allocations re-upload the raw bytes. The
	// deferred flag is cleared on success and the push is skipped entirely
	// when it is already clear. GPU allocation failures report out of
	// resources once and degrade the allocation to CPU-only permanently.
	//
	// UsageRenderTarget reads the render target back into the CPU buffer.
	// Requires render-target usage and a packed RGBA byte element; anything
	// else is reported as a usage error.
	//
	// Parameters:
	//   - dev: the device to move data through, nil skips silently
	//   - source: the single usage bit whose contents are authoritative
	SyncAll(dev device.Device, source Usage)

	// Texture returns the GPU texture handle, 0 before the first sync.
	//
	// Returns:
	//   - uint32: the texture handle
	Texture() uint32

	// Buffer returns the GPU vertex buffer handle, 0 before the first sync.
	//
	// Returns:
	//   - uint32: the buffer handle
	Buffer() uint32

	// RenderTarget returns the GPU framebuffer handle, 0 before the first
	// sync of a render-target allocation.
	//
	// Returns:
	//   - uint32: the framebuffer handle
	RenderTarget() uint32

	// Mipmapped reports whether the GPU texture carries a full mip chain,
	// either stored in the type or generated during sync.
	//
	// Returns:
	//   - bool: true when mip levels exist on the GPU side
	Mipmapped() bool

	// FillMipLevels regenerates every stored mip level from the base level
	// with a CPU-side bilinear downscale, leaving the allocation deferred so
	// the next sync uploads the whole chain. Requires stored mip levels and
	// the packed color element; violations are reported as usage errors.
	FillMipLevels()

	// Destroy releases the CPU buffer and any GPU handles. The allocation is
	// unusable after.
	//
	// Parameters:
	//   - dev: the device that owns the GPU handles, nil skips GPU cleanup
	Destroy(dev device.Device)
}

var _ Allocation = &allocation{}

// NewAllocation creates an Allocation with a zero-filled CPU buffer and no
// GPU resources. The first sync materializes the GPU mirror selected by the
// usage mask. Panics when texture and vertex usage are combined, or on
// unknown usage bits; a zero usage defaults to script-only.
//
// Parameters:
//   - t: the element and shape descriptor
//   - usage: the consumption mask
//   - options: functional options to configure the allocation
//
// Returns:
//   - Allocation: the new allocation, marked deferred
func NewAllocation(t Type, usage Usage, options ...AllocationBuilderOption) Allocation {
	if usage == 0 {
		usage = UsageScript
	}
	if usage&^usageMask != 0 {
		panic(fmt.Sprintf("unknown usage bits 0x%x", uint32(usage&^usageMask)))
	}
	if usage&UsageTexture != 0 && usage&UsageVertex != 0 {
		panic("texture and vertex buffer usage are mutually exclusive")
	}

	kind := KindCPUOnly
	switch {
	case usage&(UsageTexture|UsageRenderTarget) != 0:
		kind = KindTexture
	case usage&UsageVertex != 0:
		kind = KindVertexBuffer
	}

	a := &allocation{
		typ:            t,
		usage:          usage,
		kind:           kind,
		data:           make([]byte, t.SizeBytes()),
		uploadDeferred: true,
		reporter:       report.NewLogReporter(),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *allocation) Name() string {
	return a.name
}

func (a *allocation) Type() Type {
	return a.typ
}

func (a *allocation) Usage() Usage {
	return a.usage
}

func (a *allocation) Kind() ResourceKind {
	return a.kind
}

func (a *allocation) Bytes() []byte {
	return a.data
}

func (a *allocation) Dirty() bool {
	return a.uploadDeferred
}

func (a *allocation) MarkDirty() {
	a.uploadDeferred = true
}

func (a *allocation) Degraded() bool {
	return a.degraded
}

func (a *allocation) Write(offset, count int, data []byte) {
	elemBytes := a.typ.Element().Bytes()
	if offset < 0 || count < 0 || offset+count > a.typ.ElementCount() {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: write of %d elements at offset %d exceeds %d elements",
			a.name, count, offset, a.typ.ElementCount()))
		return
	}
	if len(data) != count*elemBytes {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: write data is %d bytes, want %d",
			a.name, len(data), count*elemBytes))
		return
	}
	copy(a.data[offset*elemBytes:], data)
	a.uploadDeferred = true
}

func (a *allocation) Write2D(x, y, w, h int, data []byte) {
	if a.typ.DimY() < 1 {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: 2D write into one-dimensional allocation", a.name))
		return
	}
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > a.typ.DimX() || y+h > a.typ.DimY() {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: 2D write of %dx%d at (%d,%d) exceeds %dx%d",
			a.name, w, h, x, y, a.typ.DimX(), a.typ.DimY()))
		return
	}
	elemBytes := a.typ.Element().Bytes()
	if len(data) != w*h*elemBytes {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: 2D write data is %d bytes, want %d",
			a.name, len(data), w*h*elemBytes))
		return
	}
	rowBytes := w * elemBytes
	for row := 0; row < h; row++ {
		dst := ((y+row)*a.typ.DimX() + x) * elemBytes
		copy(a.data[dst:dst+rowBytes], data[row*rowBytes:(row+1)*rowBytes])
	}
	a.uploadDeferred = true
}

func (a *allocation) CopyRangeFrom(offset, count int, src Allocation, srcOffset int) {
	if src == nil {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: copy from nil allocation", a.name))
		return
	}
	elemBytes := a.typ.Element().Bytes()
	if src.Type().Element().Bytes() != elemBytes {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: copy from allocation %q with %d-byte elements, want %d",
			a.name, src.Name(), src.Type().Element().Bytes(), elemBytes))
		return
	}
	if offset < 0 || count < 0 || offset+count > a.typ.ElementCount() {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: copy of %d elements at offset %d exceeds %d elements",
			a.name, count, offset, a.typ.ElementCount()))
		return
	}
	if srcOffset < 0 || srcOffset+count > src.Type().ElementCount() {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: copy of %d elements at source offset %d exceeds %q's %d elements",
			a.name, count, srcOffset, src.Name(), src.Type().ElementCount()))
		return
	}
	copy(a.data[offset*elemBytes:(offset+count)*elemBytes],
		src.Bytes()[srcOffset*elemBytes:])
	a.uploadDeferred = true
}

func (a *allocation) SetData(data []byte) {
	if len(data) != len(a.data) {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: data is %d bytes, allocation holds %d",
			a.name, len(data), len(a.data)))
		return
	}
	copy(a.data, data)
	a.uploadDeferred = true
}

func (a *allocation) Read(dst []byte) {
	if len(dst) < len(a.data) {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: read destination is %d bytes, allocation holds %d",
			a.name, len(dst), len(a.data)))
		return
	}
	copy(dst, a.data)
}

func (a *allocation) Resize(dimX int) {
	if !a.typ.Is1D() || a.typ.HasMipmaps() || a.typ.HasFaces() {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: resize supports only 1D allocations without mipmaps or faces", a.name))
		return
	}
	if dimX < 1 {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: resize to %d elements", a.name, dimX))
		return
	}

	newType := NewType(a.typ.Element(), dimX)
	newData := make([]byte, newType.SizeBytes())
	copy(newData, a.data)
	a.typ = newType
	a.data = newData
	a.uploadDeferred = true
}

func (a *allocation) SyncAll(dev device.Device, source Usage) {
	if bits.OnesCount32(uint32(source)) != 1 {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: sync source must be exactly one usage type, got %s", a.name, source))
		return
	}
	switch source {
	case UsageScript:
		a.push(dev)
	case UsageRenderTarget:
		a.readback(dev)
	default:
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: cannot sync from %s", a.name, source))
	}
}

// push uploads the CPU buffer to the allocation's GPU mirror. No-op when
// nothing is deferred, when the allocation has degraded, or without a device.
func (a *allocation) push(dev device.Device) {
	if !a.uploadDeferred || a.degraded || dev == nil {
		return
	}
	switch a.kind {
	case KindTexture:
		if !a.pushTexture(dev) {
			return
		}
	case KindVertexBuffer:
		if !a.pushBuffer(dev) {
			return
		}
	case KindCPUOnly:
		// No GPU mirror; the CPU buffer is already authoritative.
	}
	a.uploadDeferred = false
}

func (a *allocation) pushTexture(dev device.Device) bool {
	format, ok := a.typ.Element().PixelFormat()
	if !ok {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: element %s cannot back a texture", a.name, a.typ.Element()))
		return false
	}
	if a.typ.DimZ() > 0 {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: three-dimensional allocations cannot back textures", a.name))
		return false
	}

	if a.texture == 0 {
		tex, err := dev.CreateTexture()
		if err != nil {
			a.degrade(err)
			return false
		}
		a.texture = tex
	}

	kind := device.Texture2D
	if a.typ.HasFaces() {
		kind = device.TextureCube
	}
	for face := 0; face < a.typ.FaceCount(); face++ {
		for level := 0; level < a.typ.LevelCount(); level++ {
			w, h := a.typ.LevelDims(level)
			off := a.typ.LevelOffset(face, level)
			size := a.typ.LevelBytes(level)
			dev.UploadTexture(a.texture, kind, format, face, level, w, h, a.data[off:off+size])
		}
	}
	if a.mipmapOnSync && !a.typ.HasMipmaps() {
		dev.GenerateMipmaps(a.texture, kind)
	}

	if a.usage&UsageRenderTarget != 0 && a.target == 0 {
		target, err := dev.CreateRenderTarget(a.texture)
		if err != nil {
			a.degrade(err)
			return false
		}
		a.target = target
	}
	return true
}

func (a *allocation) pushBuffer(dev device.Device) bool {
	if a.buffer == 0 {
		buf, err := dev.CreateBuffer()
		if err != nil {
			a.degrade(err)
			return false
		}
		a.buffer = buf
	}
	dev.UploadBuffer(a.buffer, a.data)
	return true
}

// readback copies the render target's pixels into the CPU buffer.
func (a *allocation) readback(dev device.Device) {
	if a.usage&UsageRenderTarget == 0 {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: readback requires render-target usage", a.name))
		return
	}
	if !a.typ.Element().ReadbackCompatible() {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: readback requires packed RGBA bytes, allocation is %s",
			a.name, a.typ.Element()))
		return
	}
	if dev == nil || a.degraded {
		return
	}
	if a.target == 0 {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: render target has no GPU resource to read back", a.name))
		return
	}

	w, h := a.typ.LevelDims(0)
	if err := dev.ReadRenderTarget(a.target, w, h, a.data[:w*h*4]); err != nil {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q: %v", a.name, err))
		return
	}
	a.uploadDeferred = false
}

// degrade pins the allocation to CPU-only operation after a GPU allocation
// failure. Reported once; later syncs skip silently.
func (a *allocation) degrade(err error) {
	a.reporter.Report(report.KindOutOfResources, fmt.Sprintf(
		"allocation %q: %v; continuing CPU-only", a.name, err))
	a.degraded = true
}

func (a *allocation) Texture() uint32 {
	return a.texture
}

func (a *allocation) Buffer() uint32 {
	return a.buffer
}

func (a *allocation) RenderTarget() uint32 {
	return a.target
}

func (a *allocation) Mipmapped() bool {
	return a.typ.HasMipmaps() || a.mipmapOnSync
}

func (a *allocation) Destroy(dev device.Device) {
	if dev != nil {
		if a.target != 0 {
			dev.DeleteRenderTarget(a.target)
		}
		if a.texture != 0 {
			dev.DeleteTexture(a.texture)
		}
		if a.buffer != 0 {
			dev.DeleteBuffer(a.buffer)
		}
	}
	a.target = 0
	a.texture = 0
	a.buffer = 0
	a.data = nil
}
