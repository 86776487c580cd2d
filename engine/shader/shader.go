package shader

import (
	"fmt"
	"sync/atomic"

	"github.com/ember-gfx/ember-go/engine/allocation"
	"github.com/ember-gfx/ember-go/engine/device"
	"github.com/ember-gfx/ember-go/engine/report"
	"github.com/ember-gfx/ember-go/engine/sampler"
)

// UniformKind identifies the GLSL type of a declared uniform.
type UniformKind int

const (
	// UniformFloat is a single float.
	UniformFloat UniformKind = iota

	// UniformVec2 is a 2-component float vector.
	UniformVec2

	// UniformVec3 is a 3-component float vector.
	UniformVec3

	// UniformVec4 is a 4-component float vector.
	UniformVec4

	// UniformMat2 is a 2x2 float matrix.
	UniformMat2

	// UniformMat3 is a 3x3 float matrix.
	UniformMat3

	// UniformMat4 is a 4x4 float matrix.
	UniformMat4
)

// Components returns the number of floats one element of the kind occupies.
//
// Returns:
//   - int: the float count per element
func (k UniformKind) Components() int {
	switch k {
	case UniformFloat:
		return 1
	case UniformVec2:
		return 2
	case UniformVec3:
		return 3
	case UniformVec4:
		return 4
	case UniformMat2:
		return 4
	case UniformMat3:
		return 9
	case UniformMat4:
		return 16
	default:
		return 0
	}
}

// IsMatrix reports whether the kind is a square matrix.
//
// Returns:
//   - bool: true for mat2, mat3 and mat4
func (k UniformKind) IsMatrix() bool {
	return k == UniformMat2 || k == UniformMat3 || k == UniformMat4
}

// MatrixDim returns the dimension of a matrix kind.
//
// Returns:
//   - int: 2, 3 or 4 for matrices, 0 otherwise
func (k UniformKind) MatrixDim() int {
	switch k {
	case UniformMat2:
		return 2
	case UniformMat3:
		return 3
	case UniformMat4:
		return 4
	default:
		return 0
	}
}

// Attribute declares one vertex input.
type Attribute struct {
	// Name is the attribute variable name in the shader source.
	Name string
	// Components is the float component count per vertex, 1 through 4.
	Components int
}

// Uniform declares one user constant.
type Uniform struct {
	// Name is the uniform variable name in the shader source.
	Name string
	// Kind is the GLSL type of one element.
	Kind UniformKind
	// ArraySize is the declared element count, 1 for non-arrays. The linker
	// may size the array down; the resolved size wins at draw time.
	ArraySize int
}

// Texture declares one texture sampler input.
type Texture struct {
	// Name is the sampler variable name in the shader source.
	Name string
	// Cube declares a cubemap sampler instead of a flat one.
	Cube bool
}

// generationCounter issues engine-wide identities for compiled stages. Never
// reused, unlike driver handles.
var generationCounter atomic.Uint64

func nextGeneration() uint64 {
	return generationCounter.Add(1)
}

// shader is the implementation of the Shader interface.
type shader struct {
	// stage is the pipeline stage the source targets.
	stage device.Stage
	// body is the user-supplied source text appended after the generated
	// declarations.
	body string
	// source is the complete assembled source submitted to the compiler.
	source string

	// attributes, uniforms and textures are the declared inputs, fixed at
	// construction.
	attributes []Attribute
	uniforms   []Uniform
	textures   []Texture

	// offsets holds the float offset of each uniform within the bound
	// constants buffer, packed in declaration order.
	offsets []int
	// floatCount is the total float count of all declared uniforms.
	floatCount int

	// handle is the compiled stage handle, 0 until compiled and after
	// invalidation.
	handle uint32
	// generation is the engine-wide identity of the current compile, 0
	// before the first compile. Bumped on every successful compile.
	generation uint64

	// constants supplies uniform values at draw time.
	constants allocation.Allocation
	// boundTextures and boundSamplers hold the per-slot texture bindings.
	boundTextures []allocation.Allocation
	boundSamplers []sampler.Sampler

	reporter report.Reporter
}

// Shader is a single pipeline stage bound to a declarative list of vertex
// attributes, user uniforms and texture samplers. The complete source is
// assembled at construction from the declarations plus the user body;
// compilation happens lazily on first use and is idempotent.
//
// Compile, Invalidate and Destroy must be called from the thread that owns
// the GPU context.
type Shader interface {
	// Stage returns the pipeline stage the shader targets.
	//
	// Returns:
	//   - device.Stage: vertex or fragment
	Stage() device.Stage

	// Source returns the complete assembled source text.
	//
	// Returns:
	//   - string: the source submitted to the compiler
	Source() string

	// Attributes returns the declared vertex inputs. Empty for fragment
	// shaders.
	//
	// Returns:
	//   - []Attribute: the declared attributes in order
	Attributes() []Attribute

	// Uniforms returns the declared user constants.
	//
	// Returns:
	//   - []Uniform: the declared uniforms in order
	Uniforms() []Uniform

	// Textures returns the declared sampler inputs.
	//
	// Returns:
	//   - []Texture: the declared textures in unit order
	Textures() []Texture

	// UniformOffset returns the float offset of a declared uniform within
	// the constants buffer. Uniforms pack tightly in declaration order.
	//
	// Parameters:
	//   - index: the uniform's position in the declaration list
	//
	// Returns:
	//   - int: the offset in floats
	UniformOffset(index int) int

	// FloatCount returns the total number of floats the declared uniforms
	// occupy in the constants buffer.
	//
	// Returns:
	//   - int: the constants buffer size in floats
	FloatCount() int

	// Compile submits the assembled source to the device if no compiled
	// handle exists yet. Compiling twice without an intervening Invalidate
	// or Destroy is a no-op. A successful compile assigns a fresh
	// generation; failures are reported with the driver log and leave the
	// shader unusable.
	//
	// Parameters:
	//   - dev: the device to compile on, nil fails quietly
	//
	// Returns:
	//   - bool: true when a compiled handle is available
	Compile(dev device.Device) bool

	// Compiled reports whether a compiled handle is available.
	//
	// Returns:
	//   - bool: true after a successful Compile
	Compiled() bool

	// Handle returns the driver handle of the compiled stage.
	//
	// Returns:
	//   - uint32: the compiled handle, 0 when not compiled
	Handle() uint32

	// Generation returns the engine-wide identity of the current compile.
	// Unlike the driver handle, a generation is never reused, so it is safe
	// to key caches on.
	//
	// Returns:
	//   - uint64: the compile generation, 0 before the first compile
	Generation() uint64

	// Invalidate forgets the compiled handle without touching the device,
	// forcing the next Compile to resubmit. Called after context loss, when
	// driver handles are no longer valid.
	Invalidate()

	// BindConstants attaches the allocation that supplies uniform values at
	// draw time. The allocation needs constants usage and room for every
	// declared uniform; violations are reported as usage errors and leave
	// the previous binding.
	//
	// Parameters:
	//   - a: the constants allocation
	BindConstants(a allocation.Allocation)

	// Constants returns the bound constants allocation.
	//
	// Returns:
	//   - allocation.Allocation: the bound allocation, nil when unbound
	Constants() allocation.Allocation

	// BindTexture attaches an allocation to a declared texture slot.
	// Out-of-range slots and non-texture allocations are reported as usage
	// errors and leave the previous binding.
	//
	// Parameters:
	//   - slot: the texture slot, ordered as declared
	//   - a: the texture allocation to bind
	BindTexture(slot int, a allocation.Allocation)

	// BoundTexture returns the allocation bound to a texture slot.
	//
	// Parameters:
	//   - slot: the texture slot
	//
	// Returns:
	//   - allocation.Allocation: the bound allocation, nil when unbound
	BoundTexture(slot int) allocation.Allocation

	// BindSampler sets the sampler state applied when a texture slot is
	// bound at draw time. Slots default to the shared default sampler.
	//
	// Parameters:
	//   - slot: the texture slot, ordered as declared
	//   - s: the sampler state to apply
	BindSampler(slot int, s sampler.Sampler)

	// BoundSampler returns the sampler state of a texture slot.
	//
	// Parameters:
	//   - slot: the texture slot
	//
	// Returns:
	//   - sampler.Sampler: the slot's sampler state
	BoundSampler(slot int) sampler.Sampler

	// Destroy releases the compiled handle. The owning renderer must evict
	// dependent linked programs first; prefer Renderer.DestroyShader over
	// calling this directly.
	//
	// Parameters:
	//   - dev: the device that owns the handle, nil skips GPU cleanup
	Destroy(dev device.Device)
}

var _ Shader = &shader{}

// NewShader creates a Shader for one pipeline stage from a user source body
// and declared inputs. The complete source is assembled immediately; nothing
// touches the GPU until Compile. Panics on contradictory declarations:
// attributes on a fragment stage, component counts outside 1 through 4, or
// negative array sizes.
//
// Parameters:
//   - stage: the pipeline stage the source targets
//   - body: the user source text, declarations excluded
//   - options: functional options declaring inputs and configuration
//
// Returns:
//   - Shader: the new shader, not yet compiled
func NewShader(stage device.Stage, body string, options ...ShaderBuilderOption) Shader {
	s := &shader{
		stage:    stage,
		body:     body,
		reporter: report.NewLogReporter(),
	}
	for _, opt := range options {
		opt(s)
	}

	if stage != device.StageVertex && len(s.attributes) > 0 {
		panic("attributes are only valid on vertex shaders")
	}
	for _, a := range s.attributes {
		if a.Components < 1 || a.Components > 4 {
			panic(fmt.Sprintf("attribute %q has %d components, want 1-4", a.Name, a.Components))
		}
	}
	for i, u := range s.uniforms {
		if u.ArraySize < 0 {
			panic(fmt.Sprintf("uniform %q has negative array size", u.Name))
		}
		if u.ArraySize == 0 {
			s.uniforms[i].ArraySize = 1
		}
	}

	s.offsets = make([]int, len(s.uniforms))
	offset := 0
	for i, u := range s.uniforms {
		s.offsets[i] = offset
		offset += u.Kind.Components() * u.ArraySize
	}
	s.floatCount = offset

	s.boundTextures = make([]allocation.Allocation, len(s.textures))
	s.boundSamplers = make([]sampler.Sampler, len(s.textures))
	for i := range s.boundSamplers {
		s.boundSamplers[i] = sampler.Default()
	}

	s.source = assembleSource(s.stage, s.attributes, s.uniforms, s.textures, s.body)
	return s
}

func (s *shader) Stage() device.Stage {
	return s.stage
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Attributes() []Attribute {
	return s.attributes
}

func (s *shader) Uniforms() []Uniform {
	return s.uniforms
}

func (s *shader) Textures() []Texture {
	return s.textures
}

func (s *shader) UniformOffset(index int) int {
	return s.offsets[index]
}

func (s *shader) FloatCount() int {
	return s.floatCount
}

func (s *shader) Compile(dev device.Device) bool {
	if s.handle != 0 {
		return true
	}
	if dev == nil {
		return false
	}

	handle, infoLog, err := dev.CompileShader(s.stage, s.source)
	if err != nil {
		s.reporter.Report(report.KindShaderCompile, fmt.Sprintf(
			"%v\n%s\nshader source:\n%s", err, infoLog, s.source))
		return false
	}
	s.handle = handle
	s.generation = nextGeneration()
	return true
}

func (s *shader) Compiled() bool {
	return s.handle != 0
}

func (s *shader) Handle() uint32 {
	return s.handle
}

func (s *shader) Generation() uint64 {
	return s.generation
}

func (s *shader) Invalidate() {
	s.handle = 0
}

func (s *shader) BindConstants(a allocation.Allocation) {
	if a == nil {
		s.constants = nil
		return
	}
	if a.Usage()&allocation.UsageConstants == 0 {
		s.reporter.Report(report.KindUsage, fmt.Sprintf(
			"shader constants allocation %q lacks constants usage", a.Name()))
		return
	}
	if a.Type().SizeBytes() < s.floatCount*4 {
		s.reporter.Report(report.KindUsage, fmt.Sprintf(
			"shader constants allocation %q holds %d bytes, uniforms need %d",
			a.Name(), a.Type().SizeBytes(), s.floatCount*4))
		return
	}
	s.constants = a
}

func (s *shader) Constants() allocation.Allocation {
	return s.constants
}

func (s *shader) BindTexture(slot int, a allocation.Allocation) {
	if slot < 0 || slot >= len(s.textures) {
		s.reporter.Report(report.KindUsage, fmt.Sprintf(
			"texture slot %d out of range, shader declares %d", slot, len(s.textures)))
		return
	}
	if a != nil && a.Kind() != allocation.KindTexture {
		s.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q is %s, texture slot %d needs a texture",
			a.Name(), a.Kind(), slot))
		return
	}
	s.boundTextures[slot] = a
}

func (s *shader) BoundTexture(slot int) allocation.Allocation {
	if slot < 0 || slot >= len(s.boundTextures) {
		return nil
	}
	return s.boundTextures[slot]
}

func (s *shader) BindSampler(slot int, smp sampler.Sampler) {
	if slot < 0 || slot >= len(s.textures) {
		s.reporter.Report(report.KindUsage, fmt.Sprintf(
			"sampler slot %d out of range, shader declares %d", slot, len(s.textures)))
		return
	}
	if smp == nil {
		smp = sampler.Default()
	}
	s.boundSamplers[slot] = smp
}

func (s *shader) BoundSampler(slot int) sampler.Sampler {
	if slot < 0 || slot >= len(s.boundSamplers) {
		return sampler.Default()
	}
	return s.boundSamplers[slot]
}

func (s *shader) Destroy(dev device.Device) {
	if s.handle != 0 && dev != nil {
		dev.DeleteShader(s.handle)
	}
	s.handle = 0
}
