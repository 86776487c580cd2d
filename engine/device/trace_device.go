package device

import (
	"errors"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/sampler"
)

// UniformCall records one uniform upload issued to a TraceDevice.
type UniformCall struct {
	// Slot is the uniform slot written.
	Slot int32
	// Width is components per element for vectors, or the dimension for
	// matrices.
	Width int
	// Count is the number of array elements uploaded.
	Count int
	// Matrix is true when the call came through SetUniformMatrices.
	Matrix bool
	// Data is a copy of the uploaded values.
	Data []float32
}

// TextureUpload records the most recent texture upload on a TraceDevice.
type TextureUpload struct {
	// Texture is the destination texture handle.
	Texture uint32
	// Kind is the texture kind the upload targeted.
	Kind TextureKind
	// Format is the pixel format of the uploaded data.
	Format PixelFormat
	// Face is the cubemap face index, 0 for flat textures.
	Face int
	// Level is the destination mip level.
	Level int
	// Width is the uploaded level width in pixels.
	Width int
	// Height is the uploaded level height in pixels.
	Height int
	// Bytes is the length of the uploaded data.
	Bytes int
	// Data is a copy of the uploaded bytes.
	Data []byte
}

// DrawCall records the most recent draw issued to a TraceDevice.
type DrawCall struct {
	// Mode is the primitive assembly mode.
	Mode Primitive
	// First is the index of the first vertex.
	First int
	// Count is the number of vertices drawn.
	Count int
}

// AttribPointer records one vertex attribute setup call.
type AttribPointer struct {
	// Slot is the vertex attribute slot.
	Slot uint32
	// Components is the float component count per vertex.
	Components int
	// Stride is the byte stride between vertices.
	Stride int
	// Offset is the byte offset of the first component.
	Offset int
}

// traceProgram tracks per-program slot assignments handed out by a
// TraceDevice.
type traceProgram struct {
	attribs     map[string]int32
	uniforms    map[string]int32
	lookupOrder []string
	nextAttrib  int32
	nextUniform int32
}

// TraceDevice is a Device that performs no GPU work. It hands out sequential
// handles, counts and records every call, and can be told to fail specific
// operations. Tests use it to observe upload, compile and link traffic
// without a context.
type TraceDevice struct {
	// Compiles counts CompileShader calls, including failed ones.
	Compiles int
	// Links counts LinkProgram calls, including failed ones.
	Links int
	// TextureUploads counts UploadTexture calls.
	TextureUploads int
	// BufferUploads counts UploadBuffer calls.
	BufferUploads int
	// MipmapPasses counts GenerateMipmaps calls.
	MipmapPasses int
	// Readbacks counts ReadRenderTarget calls.
	Readbacks int
	// Draws counts DrawArrays calls.
	Draws int
	// UniformQueries counts ActiveUniforms calls.
	UniformQueries int

	// FailInit makes Init return an error.
	FailInit bool
	// FailCompile makes CompileShader fail with CompileLog as the info log.
	FailCompile bool
	// FailLink makes LinkProgram fail with LinkLog as the info log.
	FailLink bool
	// FailTextureCreate makes CreateTexture fail.
	FailTextureCreate bool
	// FailBufferCreate makes CreateBuffer fail.
	FailBufferCreate bool
	// FailRenderTarget makes CreateRenderTarget fail.
	FailRenderTarget bool
	// CompileLog is the info log returned by failed compiles.
	CompileLog string
	// LinkLog is the info log returned by failed links.
	LinkLog string

	// UniformSizes overrides the array element count reported for a uniform
	// name by ActiveUniforms. Names not present report size 1.
	UniformSizes map[string]int32
	// MissingAttribs lists attribute names AttribLocation resolves to -1,
	// modeling a linker that discarded them.
	MissingAttribs map[string]bool
	// MissingUniforms lists uniform names UniformLocation resolves to -1.
	MissingUniforms map[string]bool
	// UnreportedUniforms lists uniform names ActiveUniforms omits even
	// though their location resolved, modeling linkers that leave arrays
	// out of the active list.
	UnreportedUniforms map[string]bool
	// RecycleHandles makes DeleteShader push handles onto a free list that
	// CompileShader pops from, modeling drivers that reissue handles.
	RecycleHandles bool
	// MaxUnits overrides the texture unit count reported by Limits.
	MaxUnits int

	// UniformCalls records every float and matrix uniform upload in order.
	UniformCalls []UniformCall
	// IntUniforms records the latest integer written per uniform slot.
	IntUniforms map[int32]int32
	// LastUpload is the most recent texture upload.
	LastUpload TextureUpload
	// LastBufferData is a copy of the most recent buffer upload.
	LastBufferData []byte
	// LastDraw is the most recent draw call.
	LastDraw DrawCall
	// AttribPointers records vertex attribute setups since the last draw.
	AttribPointers []AttribPointer
	// BoundTextures maps texture units to the texture last bound on them.
	BoundTextures map[int]uint32
	// BoundSamplers maps texture units to the sampler state last applied.
	BoundSamplers map[int]sampler.Sampler
	// BoundBuffer is the most recently bound vertex buffer.
	BoundBuffer uint32
	// CurrentProgram is the program made current by UseProgram.
	CurrentProgram uint32
	// CurrentRenderTarget is the framebuffer last bound for drawing.
	CurrentRenderTarget uint32
	// ReadbackPixels is copied into the destination of ReadRenderTarget.
	// When nil the destination is zero-filled.
	ReadbackPixels []byte
	// RenderTargetTextures maps framebuffer handles to their color texture.
	RenderTargetTextures map[uint32]uint32

	// DeletedShaders lists shader handles passed to DeleteShader in order.
	DeletedShaders []uint32
	// DeletedPrograms lists program handles passed to DeleteProgram in order.
	DeletedPrograms []uint32
	// DeletedTextures lists texture handles passed to DeleteTexture in order.
	DeletedTextures []uint32
	// DeletedBuffers lists buffer handles passed to DeleteBuffer in order.
	DeletedBuffers []uint32
	// DeletedRenderTargets lists framebuffer handles passed to
	// DeleteRenderTarget in order.
	DeletedRenderTargets []uint32

	next     uint32
	freed    []uint32
	programs map[uint32]*traceProgram
}

var _ Device = &TraceDevice{}

// NewTraceDevice creates a TraceDevice with empty recording state.
//
// Returns:
//   - *TraceDevice: the recording device
func NewTraceDevice() *TraceDevice {
	return &TraceDevice{
		UniformSizes:         make(map[string]int32),
		MissingAttribs:       make(map[string]bool),
		MissingUniforms:      make(map[string]bool),
		UnreportedUniforms:   make(map[string]bool),
		IntUniforms:          make(map[int32]int32),
		BoundTextures:        make(map[int]uint32),
		BoundSamplers:        make(map[int]sampler.Sampler),
		RenderTargetTextures: make(map[uint32]uint32),
		programs:             make(map[uint32]*traceProgram),
	}
}

func (d *TraceDevice) alloc() uint32 {
	if d.RecycleHandles && len(d.freed) > 0 {
		h := d.freed[len(d.freed)-1]
		d.freed = d.freed[:len(d.freed)-1]
		return h
	}
	d.next++
	return d.next
}

func (d *TraceDevice) Init() error {
	if d.FailInit {
		return errors.New("trace device init refused")
	}
	return nil
}

func (d *TraceDevice) Destroy() {}

func (d *TraceDevice) Limits() Limits {
	return Limits{
		MaxTextureSize:   4096,
		MaxTextureUnits:  common.Coalesce(d.MaxUnits, 16),
		MaxVertexAttribs: 16,
	}
}

func (d *TraceDevice) CompileShader(stage Stage, source string) (uint32, string, error) {
	d.Compiles++
	if d.FailCompile {
		infoLog := d.CompileLog
		if infoLog == "" {
			infoLog = "0:1: error: injected compile failure"
		}
		return 0, infoLog, errors.New("failed to compile " + stage.String() + " shader")
	}
	return d.alloc(), "", nil
}

func (d *TraceDevice) DeleteShader(shader uint32) {
	d.DeletedShaders = append(d.DeletedShaders, shader)
	if d.RecycleHandles {
		d.freed = append(d.freed, shader)
	}
}

func (d *TraceDevice) LinkProgram(vertex, fragment uint32, bindings []AttribBinding) (uint32, string, error) {
	d.Links++
	if d.FailLink {
		infoLog := d.LinkLog
		if infoLog == "" {
			infoLog = "error: injected link failure"
		}
		return 0, infoLog, errors.New("failed to link program")
	}

	handle := d.alloc()
	p := &traceProgram{
		attribs:  make(map[string]int32),
		uniforms: make(map[string]int32),
	}
	for _, b := range bindings {
		p.attribs[b.Name] = int32(b.Slot)
		if int32(b.Slot) >= p.nextAttrib {
			p.nextAttrib = int32(b.Slot) + 1
		}
	}
	d.programs[handle] = p
	return handle, "", nil
}

func (d *TraceDevice) DeleteProgram(program uint32) {
	d.DeletedPrograms = append(d.DeletedPrograms, program)
	delete(d.programs, program)
}

func (d *TraceDevice) UseProgram(program uint32) {
	d.CurrentProgram = program
}

func (d *TraceDevice) AttribLocation(program uint32, name string) int32 {
	p := d.programs[program]
	if p == nil || d.MissingAttribs[name] {
		return -1
	}
	if slot, ok := p.attribs[name]; ok {
		return slot
	}
	slot := p.nextAttrib
	p.nextAttrib++
	p.attribs[name] = slot
	return slot
}

func (d *TraceDevice) UniformLocation(program uint32, name string) int32 {
	p := d.programs[program]
	if p == nil || d.MissingUniforms[name] {
		return -1
	}
	if slot, ok := p.uniforms[name]; ok {
		return slot
	}
	slot := p.nextUniform
	p.nextUniform++
	p.uniforms[name] = slot
	p.lookupOrder = append(p.lookupOrder, name)
	return slot
}

func (d *TraceDevice) ActiveUniforms(program uint32) []UniformInfo {
	d.UniformQueries++
	p := d.programs[program]
	if p == nil {
		return nil
	}
	infos := make([]UniformInfo, 0, len(p.lookupOrder))
	for _, name := range p.lookupOrder {
		if d.UnreportedUniforms[name] {
			continue
		}
		size := int32(1)
		if s, ok := d.UniformSizes[name]; ok {
			size = s
		}
		infos = append(infos, UniformInfo{Name: name, Size: size})
	}
	return infos
}

func (d *TraceDevice) SetUniformFloats(slot int32, width, count int, data []float32) {
	if slot < 0 {
		return
	}
	d.UniformCalls = append(d.UniformCalls, UniformCall{
		Slot:  slot,
		Width: width,
		Count: count,
		Data:  append([]float32(nil), data...),
	})
}

func (d *TraceDevice) SetUniformMatrices(slot int32, dim, count int, data []float32) {
	if slot < 0 {
		return
	}
	d.UniformCalls = append(d.UniformCalls, UniformCall{
		Slot:   slot,
		Width:  dim,
		Count:  count,
		Matrix: true,
		Data:   append([]float32(nil), data...),
	})
}

func (d *TraceDevice) SetUniformInt(slot int32, value int32) {
	if slot < 0 {
		return
	}
	d.IntUniforms[slot] = value
}

func (d *TraceDevice) CreateTexture() (uint32, error) {
	if d.FailTextureCreate {
		return 0, errors.New("injected texture allocation failure")
	}
	return d.alloc(), nil
}

func (d *TraceDevice) UploadTexture(texture uint32, kind TextureKind, format PixelFormat, face, level, width, height int, data []byte) {
	d.TextureUploads++
	d.LastUpload = TextureUpload{
		Texture: texture,
		Kind:    kind,
		Format:  format,
		Face:    face,
		Level:   level,
		Width:   width,
		Height:  height,
		Bytes:   len(data),
		Data:    append([]byte(nil), data...),
	}
}

func (d *TraceDevice) GenerateMipmaps(texture uint32, kind TextureKind) {
	d.MipmapPasses++
}

func (d *TraceDevice) BindTexture(unit int, kind TextureKind, texture uint32) {
	d.BoundTextures[unit] = texture
}

func (d *TraceDevice) ApplySampler(unit int, kind TextureKind, s sampler.Sampler, mipmapped bool) {
	d.BoundSamplers[unit] = s
}

func (d *TraceDevice) DeleteTexture(texture uint32) {
	d.DeletedTextures = append(d.DeletedTextures, texture)
}

func (d *TraceDevice) CreateRenderTarget(texture uint32) (uint32, error) {
	if d.FailRenderTarget {
		return 0, errors.New("injected framebuffer failure")
	}
	fbo := d.alloc()
	d.RenderTargetTextures[fbo] = texture
	return fbo, nil
}

func (d *TraceDevice) BindRenderTarget(target uint32) {
	d.CurrentRenderTarget = target
}

func (d *TraceDevice) ReadRenderTarget(target uint32, width, height int, dst []byte) error {
	d.Readbacks++
	n := width * height * 4
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		if i < len(d.ReadbackPixels) {
			dst[i] = d.ReadbackPixels[i]
		} else {
			dst[i] = 0
		}
	}
	return nil
}

func (d *TraceDevice) DeleteRenderTarget(target uint32) {
	d.DeletedRenderTargets = append(d.DeletedRenderTargets, target)
	delete(d.RenderTargetTextures, target)
}

func (d *TraceDevice) CreateBuffer() (uint32, error) {
	if d.FailBufferCreate {
		return 0, errors.New("injected buffer allocation failure")
	}
	return d.alloc(), nil
}

func (d *TraceDevice) UploadBuffer(buffer uint32, data []byte) {
	d.BufferUploads++
	d.LastBufferData = append([]byte(nil), data...)
}

func (d *TraceDevice) BindBuffer(buffer uint32) {
	d.BoundBuffer = buffer
}

func (d *TraceDevice) DeleteBuffer(buffer uint32) {
	d.DeletedBuffers = append(d.DeletedBuffers, buffer)
}

func (d *TraceDevice) VertexAttrib(slot uint32, components, stride, offset int) {
	d.AttribPointers = append(d.AttribPointers, AttribPointer{
		Slot:       slot,
		Components: components,
		Stride:     stride,
		Offset:     offset,
	})
}

func (d *TraceDevice) DisableVertexAttrib(slot uint32) {}

func (d *TraceDevice) DrawArrays(mode Primitive, first, count int) {
	d.Draws++
	d.LastDraw = DrawCall{Mode: mode, First: first, Count: count}
	d.AttribPointers = nil
}

func (d *TraceDevice) Clear(r, g, b, a float32) {}

func (d *TraceDevice) Viewport(width, height int) {}
