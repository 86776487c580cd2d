package device

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/ember-gfx/ember-go/engine/sampler"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// glDevice is the OpenGL implementation of the Device interface.
type glDevice struct {
	// vao is the single vertex array object bound for the device's lifetime.
	// Core profile contexts refuse to draw without one.
	vao uint32
	// limits holds the hardware capacities queried at Init.
	limits Limits
}

var _ Device = &glDevice{}

// NewGLDevice creates a Device backed by the OpenGL context current on the
// calling thread. Init must be called before use and may fail when no
// context is current, in which case the engine falls back to CPU-only
// operation.
//
// Returns:
//   - Device: the OpenGL device
func NewGLDevice() Device {
	return &glDevice{}
}

func (d *glDevice) Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to load OpenGL functions: %w", err)
	}

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	var texSize, texUnits, attribs int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &texSize)
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &texUnits)
	gl.GetIntegerv(gl.MAX_VERTEX_ATTRIBS, &attribs)
	d.limits = Limits{
		MaxTextureSize:   int(texSize),
		MaxTextureUnits:  int(texUnits),
		MaxVertexAttribs: int(attribs),
	}

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	return nil
}

func (d *glDevice) Destroy() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

func (d *glDevice) Limits() Limits {
	return d.limits
}

func (d *glDevice) CompileShader(stage Stage, source string) (uint32, string, error) {
	handle := gl.CreateShader(glStage(stage))
	if handle == 0 {
		return 0, "", fmt.Errorf("failed to create %s shader object", stage)
	}

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		infoLog := shaderLog(handle)
		gl.DeleteShader(handle)
		return 0, infoLog, fmt.Errorf("failed to compile %s shader", stage)
	}
	return handle, "", nil
}

func (d *glDevice) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (d *glDevice) LinkProgram(vertex, fragment uint32, bindings []AttribBinding) (uint32, string, error) {
	handle := gl.CreateProgram()
	if handle == 0 {
		return 0, "", errors.New("failed to create program object")
	}

	gl.AttachShader(handle, vertex)
	gl.AttachShader(handle, fragment)
	for _, b := range bindings {
		gl.BindAttribLocation(handle, b.Slot, gl.Str(b.Name+"\x00"))
	}
	gl.LinkProgram(handle)

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		infoLog := programLog(handle)
		gl.DeleteProgram(handle)
		return 0, infoLog, errors.New("failed to link program")
	}
	return handle, "", nil
}

func (d *glDevice) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (d *glDevice) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (d *glDevice) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (d *glDevice) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *glDevice) ActiveUniforms(program uint32) []UniformInfo {
	var count, maxLen int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)

	infos := make([]UniformInfo, 0, count)
	for i := int32(0); i < count; i++ {
		buf := strings.Repeat("\x00", int(maxLen+1))
		var nameLen, size int32
		var xtype uint32
		gl.GetActiveUniform(program, uint32(i), maxLen, &nameLen, &size, &xtype, gl.Str(buf))

		// Drivers report array uniforms as "name[0]".
		name := strings.TrimSuffix(buf[:nameLen], "[0]")
		infos = append(infos, UniformInfo{Name: name, Size: size})
	}
	return infos
}

func (d *glDevice) SetUniformFloats(slot int32, width, count int, data []float32) {
	if slot < 0 || len(data) == 0 {
		return
	}
	switch width {
	case 1:
		gl.Uniform1fv(slot, int32(count), &data[0])
	case 2:
		gl.Uniform2fv(slot, int32(count), &data[0])
	case 3:
		gl.Uniform3fv(slot, int32(count), &data[0])
	case 4:
		gl.Uniform4fv(slot, int32(count), &data[0])
	}
}

func (d *glDevice) SetUniformMatrices(slot int32, dim, count int, data []float32) {
	if slot < 0 || len(data) == 0 {
		return
	}
	switch dim {
	case 2:
		gl.UniformMatrix2fv(slot, int32(count), false, &data[0])
	case 3:
		gl.UniformMatrix3fv(slot, int32(count), false, &data[0])
	case 4:
		gl.UniformMatrix4fv(slot, int32(count), false, &data[0])
	}
}

func (d *glDevice) SetUniformInt(slot int32, value int32) {
	if slot < 0 {
		return
	}
	gl.Uniform1i(slot, value)
}

func (d *glDevice) CreateTexture() (uint32, error) {
	var tex uint32
	gl.GenTextures(1, &tex)
	if tex == 0 {
		return 0, errors.New("failed to create texture object")
	}
	return tex, nil
}

func (d *glDevice) UploadTexture(texture uint32, kind TextureKind, format PixelFormat, face, level, width, height int, data []byte) {
	target := glTarget(kind)
	gl.BindTexture(target, texture)

	uploadTarget := target
	if kind == TextureCube {
		uploadTarget = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(face)
	}

	internal, layout, xtype := glFormat(format)
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}
	gl.TexImage2D(uploadTarget, int32(level), internal, int32(width), int32(height), 0, layout, xtype, ptr)
}

func (d *glDevice) GenerateMipmaps(texture uint32, kind TextureKind) {
	target := glTarget(kind)
	gl.BindTexture(target, texture)
	gl.GenerateMipmap(target)
}

func (d *glDevice) BindTexture(unit int, kind TextureKind, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(glTarget(kind), texture)
}

func (d *glDevice) ApplySampler(unit int, kind TextureKind, s sampler.Sampler, mipmapped bool) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	target := glTarget(kind)
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, glMinFilter(s.MinFilter(), mipmapped))
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, glMagFilter(s.MagFilter()))
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, glWrap(s.WrapS()))
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, glWrap(s.WrapT()))
}

func (d *glDevice) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}

func (d *glDevice) CreateRenderTarget(texture uint32) (uint32, error) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, texture, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		return 0, fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return fbo, nil
}

func (d *glDevice) BindRenderTarget(target uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, target)
}

func (d *glDevice) ReadRenderTarget(target uint32, width, height int, dst []byte) error {
	if len(dst) < width*height*4 {
		return fmt.Errorf("readback destination too small: %d bytes for %dx%d", len(dst), width, height)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, target)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(dst))
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

func (d *glDevice) DeleteRenderTarget(target uint32) {
	gl.DeleteFramebuffers(1, &target)
}

func (d *glDevice) CreateBuffer() (uint32, error) {
	var buf uint32
	gl.GenBuffers(1, &buf)
	if buf == 0 {
		return 0, errors.New("failed to create buffer object")
	}
	return buf, nil
}

func (d *glDevice) UploadBuffer(buffer uint32, data []byte) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(data), ptr, gl.STATIC_DRAW)
}

func (d *glDevice) BindBuffer(buffer uint32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
}

func (d *glDevice) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (d *glDevice) VertexAttrib(slot uint32, components, stride, offset int) {
	gl.EnableVertexAttribArray(slot)
	gl.VertexAttribPointerWithOffset(slot, int32(components), gl.FLOAT, false, int32(stride), uintptr(offset))
}

func (d *glDevice) DisableVertexAttrib(slot uint32) {
	gl.DisableVertexAttribArray(slot)
}

func (d *glDevice) DrawArrays(mode Primitive, first, count int) {
	gl.DrawArrays(glPrimitive(mode), int32(first), int32(count))
}

func (d *glDevice) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *glDevice) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// shaderLog fetches the info log of a shader object.
func shaderLog(handle uint32) string {
	var length int32
	gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(length+1))
	gl.GetShaderInfoLog(handle, length, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}

// programLog fetches the info log of a program object.
func programLog(handle uint32) string {
	var length int32
	gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(length+1))
	gl.GetProgramInfoLog(handle, length, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}

func glStage(s Stage) uint32 {
	if s == StageFragment {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

func glTarget(k TextureKind) uint32 {
	if k == TextureCube {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

func glFormat(f PixelFormat) (internal int32, layout, xtype uint32) {
	switch f {
	case FormatR8:
		return gl.R8, gl.RED, gl.UNSIGNED_BYTE
	case FormatRG8:
		return gl.RG8, gl.RG, gl.UNSIGNED_BYTE
	case FormatRGB8:
		return gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE
	case FormatR32F:
		return gl.R32F, gl.RED, gl.FLOAT
	case FormatRG32F:
		return gl.RG32F, gl.RG, gl.FLOAT
	case FormatRGB32F:
		return gl.RGB32F, gl.RGB, gl.FLOAT
	case FormatRGBA32F:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func glMinFilter(f sampler.Filter, mipmapped bool) int32 {
	switch f {
	case sampler.FilterNearest:
		return gl.NEAREST
	case sampler.FilterLinearMipLinear:
		if mipmapped {
			return gl.LINEAR_MIPMAP_LINEAR
		}
		return gl.LINEAR
	case sampler.FilterLinearMipNearest:
		if mipmapped {
			return gl.LINEAR_MIPMAP_NEAREST
		}
		return gl.LINEAR
	default:
		return gl.LINEAR
	}
}

func glMagFilter(f sampler.Filter) int32 {
	if f == sampler.FilterNearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func glWrap(w sampler.Wrap) int32 {
	switch w {
	case sampler.WrapRepeat:
		return gl.REPEAT
	case sampler.WrapMirroredRepeat:
		return gl.MIRRORED_REPEAT
	default:
		return gl.CLAMP_TO_EDGE
	}
}

func glPrimitive(p Primitive) uint32 {
	switch p {
	case PrimitiveTriangleStrip:
		return gl.TRIANGLE_STRIP
	case PrimitiveTriangleFan:
		return gl.TRIANGLE_FAN
	case PrimitiveLines:
		return gl.LINES
	case PrimitiveLineStrip:
		return gl.LINE_STRIP
	case PrimitivePoints:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}
