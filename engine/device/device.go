package device

import (
	"github.com/ember-gfx/ember-go/engine/sampler"
)

// Device defines the low-level GPU interface the engine renders through.
//
// This is a thin API over raw GPU object handles. The higher-level resource
// and renderer layers own all caching, dirty tracking and slot resolution;
// a Device only creates, uploads, binds, draws and destroys. All methods
// must be called from the thread that owns the GPU context.
type Device interface {
	// Init initializes the device against the current context and queries
	// hardware limits. Must be called once before any other method.
	//
	// Returns:
	//   - error: an error if the device could not be initialized
	Init() error

	// Destroy releases device-owned objects. The Device is unusable after.
	Destroy()

	// Limits returns the hardware capacities queried at Init.
	//
	// Returns:
	//   - Limits: the fixed hardware limits
	Limits() Limits

	// CompileShader compiles source for one pipeline stage into a shader
	// object. On failure no handle is retained and the driver's info log is
	// returned alongside the error.
	//
	// Parameters:
	//   - stage: the pipeline stage the source targets
	//   - source: the complete shader source text
	//
	// Returns:
	//   - uint32: the compiled shader handle, 0 on failure
	//   - string: the driver info log, empty on success
	//   - error: an error if compilation fails
	CompileShader(stage Stage, source string) (uint32, string, error)

	// DeleteShader releases a compiled shader object. The handle may be
	// reissued by later CompileShader calls.
	//
	// Parameters:
	//   - shader: the shader handle to release
	DeleteShader(shader uint32)

	// LinkProgram links a vertex and fragment shader into a program, binding
	// the given attribute names to fixed slots before the link. On failure no
	// handle is retained and the driver's info log is returned.
	//
	// Parameters:
	//   - vertex: the compiled vertex shader handle
	//   - fragment: the compiled fragment shader handle
	//   - bindings: attribute name to slot assignments applied pre-link
	//
	// Returns:
	//   - uint32: the linked program handle, 0 on failure
	//   - string: the driver info log, empty on success
	//   - error: an error if linking fails
	LinkProgram(vertex, fragment uint32, bindings []AttribBinding) (uint32, string, error)

	// DeleteProgram releases a linked program object.
	//
	// Parameters:
	//   - program: the program handle to release
	DeleteProgram(program uint32)

	// UseProgram makes a linked program current for subsequent uniform
	// updates and draws.
	//
	// Parameters:
	//   - program: the program handle to make current
	UseProgram(program uint32)

	// AttribLocation queries the slot a vertex attribute landed on after
	// linking.
	//
	// Parameters:
	//   - program: the linked program handle
	//   - name: the attribute variable name
	//
	// Returns:
	//   - int32: the attribute slot, -1 if the linker discarded the name
	AttribLocation(program uint32, name string) int32

	// UniformLocation queries the slot of a uniform in a linked program.
	//
	// Parameters:
	//   - program: the linked program handle
	//   - name: the uniform variable name
	//
	// Returns:
	//   - int32: the uniform slot, -1 if the linker discarded the name
	UniformLocation(program uint32, name string) int32

	// ActiveUniforms lists the uniforms that survived linking, with the
	// array element counts the linker actually retained.
	//
	// Parameters:
	//   - program: the linked program handle
	//
	// Returns:
	//   - []UniformInfo: one entry per active uniform
	ActiveUniforms(program uint32) []UniformInfo

	// SetUniformFloats uploads float vector data to a uniform slot on the
	// current program. Slots below zero are ignored.
	//
	// Parameters:
	//   - slot: the uniform slot to write
	//   - width: components per element, 1 through 4
	//   - count: number of array elements to upload
	//   - data: the packed float data, width*count values
	SetUniformFloats(slot int32, width, count int, data []float32)

	// SetUniformMatrices uploads square float matrices to a uniform slot on
	// the current program. Slots below zero are ignored.
	//
	// Parameters:
	//   - slot: the uniform slot to write
	//   - dim: matrix dimension, 2 through 4
	//   - count: number of matrices to upload
	//   - data: the packed column-major matrix data, dim*dim*count values
	SetUniformMatrices(slot int32, dim, count int, data []float32)

	// SetUniformInt uploads a single integer to a uniform slot on the
	// current program. Used for sampler unit assignments. Slots below zero
	// are ignored.
	//
	// Parameters:
	//   - slot: the uniform slot to write
	//   - value: the integer value
	SetUniformInt(slot int32, value int32)

	// CreateTexture creates an empty texture object.
	//
	// Returns:
	//   - uint32: the texture handle
	//   - error: an error if the object could not be created
	CreateTexture() (uint32, error)

	// UploadTexture uploads pixel data for one level of a texture, replacing
	// that level's storage. A nil data slice allocates uninitialized storage,
	// which render targets use.
	//
	// Parameters:
	//   - texture: the texture handle to upload into
	//   - kind: flat texture or cubemap
	//   - format: the channel layout of the pixel data
	//   - face: the cubemap face index 0-5, ignored for Texture2D
	//   - level: the mip level to replace
	//   - width: the level width in pixels
	//   - height: the level height in pixels
	//   - data: the tightly packed pixel data, or nil
	UploadTexture(texture uint32, kind TextureKind, format PixelFormat, face, level, width, height int, data []byte)

	// GenerateMipmaps derives the full mip chain from a texture's base level.
	//
	// Parameters:
	//   - texture: the texture handle
	//   - kind: flat texture or cubemap
	GenerateMipmaps(texture uint32, kind TextureKind)

	// BindTexture binds a texture to a texture unit for sampling.
	//
	// Parameters:
	//   - unit: the texture unit index
	//   - kind: flat texture or cubemap
	//   - texture: the texture handle to bind
	BindTexture(unit int, kind TextureKind, texture uint32)

	// ApplySampler applies filter and wrap state to the texture bound on a
	// unit. Mip filters degrade to their non-mip equivalents when the bound
	// texture carries no mip chain.
	//
	// Parameters:
	//   - unit: the texture unit index
	//   - kind: flat texture or cubemap
	//   - s: the sampler state to apply
	//   - mipmapped: whether the bound texture has a full mip chain
	ApplySampler(unit int, kind TextureKind, s sampler.Sampler, mipmapped bool)

	// DeleteTexture releases a texture object.
	//
	// Parameters:
	//   - texture: the texture handle to release
	DeleteTexture(texture uint32)

	// CreateRenderTarget wraps a texture's base level in a framebuffer so it
	// can be rendered to and read back.
	//
	// Parameters:
	//   - texture: the texture handle to attach as the color target
	//
	// Returns:
	//   - uint32: the framebuffer handle
	//   - error: an error if the framebuffer is incomplete
	CreateRenderTarget(texture uint32) (uint32, error)

	// BindRenderTarget directs subsequent draws into a framebuffer.
	//
	// Parameters:
	//   - target: the framebuffer handle, 0 for the default framebuffer
	BindRenderTarget(target uint32)

	// ReadRenderTarget copies a render target's pixels back to CPU memory as
	// tightly packed RGBA bytes.
	//
	// Parameters:
	//   - target: the framebuffer handle to read from
	//   - width: the width to read in pixels
	//   - height: the height to read in pixels
	//   - dst: the destination, at least width*height*4 bytes
	//
	// Returns:
	//   - error: an error if the read could not be performed
	ReadRenderTarget(target uint32, width, height int, dst []byte) error

	// DeleteRenderTarget releases a framebuffer object. The attached texture
	// is not released.
	//
	// Parameters:
	//   - target: the framebuffer handle to release
	DeleteRenderTarget(target uint32)

	// CreateBuffer creates an empty vertex buffer object.
	//
	// Returns:
	//   - uint32: the buffer handle
	//   - error: an error if the object could not be created
	CreateBuffer() (uint32, error)

	// UploadBuffer replaces a buffer's contents with the given bytes.
	//
	// Parameters:
	//   - buffer: the buffer handle to upload into
	//   - data: the raw bytes to upload
	UploadBuffer(buffer uint32, data []byte)

	// BindBuffer makes a buffer current for subsequent VertexAttrib calls.
	//
	// Parameters:
	//   - buffer: the buffer handle to bind
	BindBuffer(buffer uint32)

	// DeleteBuffer releases a vertex buffer object.
	//
	// Parameters:
	//   - buffer: the buffer handle to release
	DeleteBuffer(buffer uint32)

	// VertexAttrib enables a vertex attribute slot and points it at float
	// data within the currently bound buffer.
	//
	// Parameters:
	//   - slot: the vertex attribute slot
	//   - components: float components per vertex, 1 through 4
	//   - stride: byte stride between consecutive vertices
	//   - offset: byte offset of the first component in the buffer
	VertexAttrib(slot uint32, components, stride, offset int)

	// DisableVertexAttrib disables a previously enabled attribute slot.
	//
	// Parameters:
	//   - slot: the vertex attribute slot to disable
	DisableVertexAttrib(slot uint32)

	// DrawArrays issues a non-indexed draw with the current program, buffer
	// bindings and texture units.
	//
	// Parameters:
	//   - mode: how vertices are assembled
	//   - first: the index of the first vertex
	//   - count: the number of vertices to draw
	DrawArrays(mode Primitive, first, count int)

	// Clear clears the color and depth buffers of the current target.
	//
	// Parameters:
	//   - r: red clear component in [0, 1]
	//   - g: green clear component in [0, 1]
	//   - b: blue clear component in [0, 1]
	//   - a: alpha clear component in [0, 1]
	Clear(r, g, b, a float32)

	// Viewport sets the rendering viewport to cover a width and height from
	// the origin.
	//
	// Parameters:
	//   - width: the viewport width in pixels
	//   - height: the viewport height in pixels
	Viewport(width, height int)
}
