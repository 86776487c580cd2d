package renderer

import (
	"fmt"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/allocation"
	"github.com/ember-gfx/ember-go/engine/device"
	"github.com/ember-gfx/ember-go/engine/renderer/program"
	"github.com/ember-gfx/ember-go/engine/report"
	"github.com/ember-gfx/ember-go/engine/shader"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	// dev is the device all GPU work goes through.
	dev device.Device
	// reporter receives usage and link errors.
	reporter report.Reporter

	// programCache maps shader generation pairs to linked programs. Entries
	// are evicted when either shader is destroyed and en masse on Destroy.
	programCache map[program.Key]program.Program

	// vertexShader and fragmentShader are the active pair the next draw
	// uses.
	vertexShader   shader.Shader
	fragmentShader shader.Shader
	// current is the linked program for the active pair, nil until
	// PrepareDraw succeeds.
	current program.Program
	// shaderDirty is set whenever the active pair changes and cleared once
	// a program for the pair is current. While clear, PrepareDraw skips all
	// cache and link work.
	shaderDirty bool

	// enabledAttribs are the attribute slots enabled by the previous vertex
	// bind, disabled again when a later layout no longer uses them.
	enabledAttribs []uint32
}

// Renderer caches linked shader programs and drives draws through a device.
// All methods must be called from the goroutine that owns the device
// context; the renderer carries no internal locking.
type Renderer interface {
	// Device returns the device the renderer was built with.
	//
	// Returns:
	//   - device.Device: the underlying device
	Device() device.Device

	// SetVertexShader makes a vertex shader active for subsequent draws.
	// Setting a different shader than the current one marks the pair dirty;
	// re-setting the same shader is a no-op.
	//
	// Parameters:
	//   - s: the vertex shader to activate
	SetVertexShader(s shader.Shader)

	// SetFragmentShader makes a fragment shader active for subsequent
	// draws. Setting a different shader than the current one marks the pair
	// dirty; re-setting the same shader is a no-op.
	//
	// Parameters:
	//   - s: the fragment shader to activate
	SetFragmentShader(s shader.Shader)

	// VertexShader returns the active vertex shader.
	//
	// Returns:
	//   - shader.Shader: the active vertex shader, nil when unset
	VertexShader() shader.Shader

	// FragmentShader returns the active fragment shader.
	//
	// Returns:
	//   - shader.Shader: the active fragment shader, nil when unset
	FragmentShader() shader.Shader

	// PrepareDraw resolves the active shader pair to a linked program. When
	// the pair is unchanged since the last successful prepare it returns
	// immediately. Otherwise both shaders are compiled on demand, the
	// program cache is consulted under the pair's generation key, and on a
	// miss a new program is linked with the well-known attribute bindings,
	// resolved, and inserted. Compile and link failures are reported and
	// leave the cache untouched.
	//
	// Returns:
	//   - bool: true when a program is current and drawing may proceed
	PrepareDraw() bool

	// CurrentProgram returns the program made current by the last
	// successful PrepareDraw.
	//
	// Returns:
	//   - program.Program: the current program, nil when none is prepared
	CurrentProgram() program.Program

	// ProgramCount returns the number of linked programs in the cache.
	//
	// Returns:
	//   - int: the cache entry count
	ProgramCount() int

	// Draw prepares the active pair, applies shader constants and textures,
	// binds the vertex allocation and issues the draw call. Vertex data is
	// interleaved float32 in the vertex shader's attribute declaration
	// order. A nil vertices allocation is allowed only when the vertex
	// shader declares no attributes. Failures at any stage are reported
	// and the draw is skipped.
	//
	// Parameters:
	//   - vertices: the vertex allocation, created with vertex usage
	//   - mode: the primitive topology
	//   - first: index of the first vertex to draw
	//   - count: number of vertices to draw
	Draw(vertices allocation.Allocation, mode device.Primitive, first, count int)

	// SetRenderTarget directs subsequent draws into an offscreen render
	// target allocation, syncing it first if dirty so the framebuffer
	// exists. The viewport is set to the target's dimensions. Passing nil
	// restores the default framebuffer without touching the viewport.
	//
	// Parameters:
	//   - target: the render target allocation, nil for the default
	//     framebuffer
	SetRenderTarget(target allocation.Allocation)

	// Clear fills the current render target with a constant color.
	//
	// Parameters:
	//   - r: red component in [0, 1]
	//   - g: green component in [0, 1]
	//   - b: blue component in [0, 1]
	//   - a: alpha component in [0, 1]
	Clear(r, g, b, a float32)

	// Viewport sets the drawable region to the given size at origin.
	//
	// Parameters:
	//   - width: viewport width in pixels
	//   - height: viewport height in pixels
	Viewport(width, height int)

	// DestroyShader evicts every cached program linked against the shader
	// and then releases the shader's GPU object. Eviction happens before
	// the shader handle is freed so a recycled handle can never alias a
	// cache entry. If the shader is part of the active pair the pair is
	// marked dirty.
	//
	// Parameters:
	//   - s: the shader to destroy
	DestroyShader(s shader.Shader)

	// Destroy releases every cached program. Shaders and allocations are
	// owned by their creators and are not touched.
	Destroy()
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer with an empty program cache. Errors are
// reported to the standard log unless WithReporter overrides the
// destination.
//
// Parameters:
//   - dev: the device to render through, must not be nil
//   - options: optional configuration (reporter)
//
// Returns:
//   - Renderer: the configured renderer
func NewRenderer(dev device.Device, options ...RendererBuilderOption) Renderer {
	if dev == nil {
		panic("renderer requires a device")
	}
	r := &renderer{
		dev:          dev,
		reporter:     report.NewLogReporter(),
		programCache: make(map[program.Key]program.Program),
		shaderDirty:  true,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) Device() device.Device {
	return r.dev
}

func (r *renderer) SetVertexShader(s shader.Shader) {
	if s == r.vertexShader {
		return
	}
	r.vertexShader = s
	r.shaderDirty = true
}

func (r *renderer) SetFragmentShader(s shader.Shader) {
	if s == r.fragmentShader {
		return
	}
	r.fragmentShader = s
	r.shaderDirty = true
}

func (r *renderer) VertexShader() shader.Shader {
	return r.vertexShader
}

func (r *renderer) FragmentShader() shader.Shader {
	return r.fragmentShader
}

func (r *renderer) PrepareDraw() bool {
	if !r.shaderDirty && r.current != nil {
		return true
	}
	if r.vertexShader == nil || r.fragmentShader == nil {
		r.reporter.Report(report.KindUsage,
			"draw requires both a vertex and a fragment shader")
		return false
	}
	if !r.vertexShader.Compile(r.dev) {
		return false
	}
	if !r.fragmentShader.Compile(r.dev) {
		return false
	}
	key := program.Key{
		VertexGen:   r.vertexShader.Generation(),
		FragmentGen: r.fragmentShader.Generation(),
	}
	if p, ok := r.programCache[key]; ok {
		r.current = p
		r.shaderDirty = false
		r.dev.UseProgram(p.Handle())
		return true
	}
	handle, infoLog, err := r.dev.LinkProgram(
		r.vertexShader.Handle(), r.fragmentShader.Handle(),
		program.WellKnownBindings())
	if err != nil {
		r.reporter.Report(report.KindProgramLink,
			fmt.Sprintf("%v\n%s", err, infoLog))
		return false
	}
	p := program.NewProgram(r.dev, key, handle, r.vertexShader, r.fragmentShader)
	r.programCache[key] = p
	r.current = p
	r.shaderDirty = false
	r.dev.UseProgram(handle)
	return true
}

func (r *renderer) CurrentProgram() program.Program {
	return r.current
}

func (r *renderer) ProgramCount() int {
	return len(r.programCache)
}

func (r *renderer) Draw(vertices allocation.Allocation, mode device.Primitive, first, count int) {
	if !r.PrepareDraw() {
		return
	}
	r.applyShaderState()
	if !r.bindVertices(vertices) {
		return
	}
	r.dev.DrawArrays(mode, first, count)
}

// applyShaderState uploads both stages' constants and binds their textures.
// Texture units are assigned in declaration order, vertex stage first.
func (r *renderer) applyShaderState() {
	r.applyUniforms(r.vertexShader, r.current.VertexUniforms())
	r.applyUniforms(r.fragmentShader, r.current.FragmentUniforms())
	unit := 0
	r.applyTextures(r.vertexShader, r.current.VertexTextures(), &unit)
	r.applyTextures(r.fragmentShader, r.current.FragmentTextures(), &unit)
}

func (r *renderer) applyUniforms(sh shader.Shader, slots []program.UniformSlot) {
	if len(slots) == 0 {
		return
	}
	constants := sh.Constants()
	if constants == nil {
		r.reporter.Report(report.KindUsage, fmt.Sprintf(
			"%s shader declares uniforms but has no constants allocation bound",
			sh.Stage()))
		return
	}
	data := common.BytesToSlice[float32](constants.Bytes())
	uniforms := sh.Uniforms()
	for i, slot := range slots {
		if slot.Slot < 0 {
			continue
		}
		u := uniforms[i]
		count := int(slot.Size)
		floats := u.Kind.Components() * count
		offset := sh.UniformOffset(i)
		if offset+floats > len(data) {
			r.reporter.Report(report.KindUsage, fmt.Sprintf(
				"%s shader uniform %q needs %d floats at offset %d but constants hold %d",
				sh.Stage(), u.Name, floats, offset, len(data)))
			continue
		}
		values := data[offset : offset+floats]
		if u.Kind.IsMatrix() {
			r.dev.SetUniformMatrices(slot.Slot, u.Kind.MatrixDim(), count, values)
		} else {
			r.dev.SetUniformFloats(slot.Slot, u.Kind.Components(), count, values)
		}
	}
}

func (r *renderer) applyTextures(sh shader.Shader, slots []program.UniformSlot, unit *int) {
	if len(slots) == 0 {
		return
	}
	maxUnits := r.dev.Limits().MaxTextureUnits
	textures := sh.Textures()
	for i, slot := range slots {
		if *unit >= maxUnits {
			r.reporter.Report(report.KindUsage, fmt.Sprintf(
				"attempting to bind more textures than the %d units the hardware supports",
				maxUnits))
			return
		}
		a := sh.BoundTexture(i)
		if a == nil {
			r.reporter.Report(report.KindUsage, fmt.Sprintf(
				"%s shader texture %q has no allocation bound",
				sh.Stage(), textures[i].Name))
			*unit++
			continue
		}
		if a.Dirty() {
			a.SyncAll(r.dev, allocation.UsageScript)
		}
		if a.Texture() != 0 {
			kind := device.Texture2D
			if a.Type().HasFaces() {
				kind = device.TextureCube
			}
			r.dev.BindTexture(*unit, kind, a.Texture())
			r.dev.ApplySampler(*unit, kind, sh.BoundSampler(i), a.Mipmapped())
			if slot.Slot >= 0 {
				r.dev.SetUniformInt(slot.Slot, int32(*unit))
			}
		}
		*unit++
	}
}

// bindVertices uploads pending vertex data, binds the buffer and points the
// program's attribute slots into the interleaved layout.
func (r *renderer) bindVertices(vertices allocation.Allocation) bool {
	attrs := r.current.Attributes()
	if vertices == nil {
		if len(attrs) > 0 {
			r.reporter.Report(report.KindUsage,
				"vertex shader declares attributes but no vertex allocation was provided")
			return false
		}
		return true
	}
	if vertices.Usage()&allocation.UsageVertex == 0 {
		r.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q was not created with vertex usage", vertices.Name()))
		return false
	}
	if vertices.Dirty() {
		vertices.SyncAll(r.dev, allocation.UsageScript)
	}
	if vertices.Buffer() == 0 {
		r.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q has no vertex buffer, draw skipped", vertices.Name()))
		return false
	}
	r.dev.BindBuffer(vertices.Buffer())

	stride := 0
	for _, a := range attrs {
		stride += a.Components * 4
	}
	used := make([]uint32, 0, len(attrs))
	offset := 0
	for _, a := range attrs {
		if a.Slot >= 0 {
			r.dev.VertexAttrib(uint32(a.Slot), a.Components, stride, offset)
			used = append(used, uint32(a.Slot))
		}
		offset += a.Components * 4
	}
	for _, slot := range r.enabledAttribs {
		still := false
		for _, u := range used {
			if u == slot {
				still = true
				break
			}
		}
		if !still {
			r.dev.DisableVertexAttrib(slot)
		}
	}
	r.enabledAttribs = used
	return true
}

func (r *renderer) SetRenderTarget(target allocation.Allocation) {
	if target == nil {
		r.dev.BindRenderTarget(0)
		return
	}
	if target.Usage()&allocation.UsageRenderTarget == 0 {
		r.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q was not created with render target usage", target.Name()))
		return
	}
	if target.Dirty() {
		target.SyncAll(r.dev, allocation.UsageScript)
	}
	if target.RenderTarget() == 0 {
		return
	}
	r.dev.BindRenderTarget(target.RenderTarget())
	width, height := target.Type().LevelDims(0)
	r.dev.Viewport(width, height)
}

func (r *renderer) Clear(red, green, blue, alpha float32) {
	r.dev.Clear(red, green, blue, alpha)
}

func (r *renderer) Viewport(width, height int) {
	r.dev.Viewport(width, height)
}

func (r *renderer) DestroyShader(s shader.Shader) {
	if s == nil {
		return
	}
	gen := s.Generation()
	for key, p := range r.programCache {
		if key.VertexGen != gen && key.FragmentGen != gen {
			continue
		}
		if r.current == p {
			r.current = nil
			r.shaderDirty = true
		}
		p.Destroy(r.dev)
		delete(r.programCache, key)
	}
	if s == r.vertexShader || s == r.fragmentShader {
		r.current = nil
		r.shaderDirty = true
	}
	s.Destroy(r.dev)
}

func (r *renderer) Destroy() {
	for key, p := range r.programCache {
		p.Destroy(r.dev)
		delete(r.programCache, key)
	}
	r.current = nil
	r.shaderDirty = true
}
