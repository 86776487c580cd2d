package program

import (
	"github.com/ember-gfx/ember-go/engine/device"
	"github.com/ember-gfx/ember-go/engine/shader"
)

// Key identifies a linked program by the compile generations of its two
// stages. Generations are engine-issued and never reused, so a Key can never
// alias a recompiled shader the way raw driver handles can.
type Key struct {
	// VertexGen is the vertex shader's compile generation.
	VertexGen uint64
	// FragmentGen is the fragment shader's compile generation.
	FragmentGen uint64
}

// AttributeSlot is one declared vertex attribute resolved against a linked
// program.
type AttributeSlot struct {
	// Name is the declared attribute name.
	Name string
	// Components is the declared float component count per vertex.
	Components int
	// Slot is the hardware attribute slot, -1 when the linker discarded the
	// attribute. Discarded attributes are skipped at draw time.
	Slot int32
}

// UniformSlot is one declared uniform or sampler resolved against a linked
// program.
type UniformSlot struct {
	// Name is the declared uniform name.
	Name string
	// Slot is the hardware uniform slot, -1 when the linker discarded the
	// uniform. Discarded uniforms are skipped at draw time.
	Slot int32
	// Size is the array element count to upload. Starts as the declared
	// size and is overwritten with the linker-reported size when the two
	// differ.
	Size int32
}

// wellKnownBindings are bound to fixed low slots before every link so common
// vertex layouts land on stable slots across distinct programs.
var wellKnownBindings = []device.AttribBinding{
	{Name: "position", Slot: 0},
	{Name: "color", Slot: 1},
	{Name: "normal", Slot: 2},
	{Name: "texcoord0", Slot: 3},
}

// WellKnownBindings returns the attribute names bound to fixed slots before
// linking: position, color, normal and the first texture coordinate.
//
// Returns:
//   - []device.AttribBinding: the pre-link bindings in slot order
func WellKnownBindings() []device.AttribBinding {
	return wellKnownBindings
}

// program is the implementation of the Program interface.
type program struct {
	// key identifies the generation pair this program was linked from.
	key Key
	// handle is the linked program object.
	handle uint32

	// attributes are the vertex stage's declared inputs with resolved slots.
	attributes []AttributeSlot
	// vertexUniforms and fragmentUniforms are the per-stage declared
	// uniforms with resolved slots and corrected array sizes, in
	// declaration order.
	vertexUniforms   []UniformSlot
	fragmentUniforms []UniformSlot
	// vertexTextures and fragmentTextures are the per-stage sampler
	// uniforms with resolved slots, in texture unit order.
	vertexTextures   []UniformSlot
	fragmentTextures []UniformSlot
}

// Program is one linked program cache entry: the linked handle plus the
// attribute and uniform slot tables resolved once at link time and reused on
// every draw.
type Program interface {
	// Key returns the generation pair the program was linked from.
	//
	// Returns:
	//   - Key: the cache key
	Key() Key

	// Handle returns the linked program object.
	//
	// Returns:
	//   - uint32: the driver program handle
	Handle() uint32

	// Attributes returns the vertex attributes with their resolved slots.
	//
	// Returns:
	//   - []AttributeSlot: the declared attributes in order
	Attributes() []AttributeSlot

	// VertexUniforms returns the vertex stage's uniforms with resolved
	// slots and corrected array sizes.
	//
	// Returns:
	//   - []UniformSlot: the declared uniforms in order
	VertexUniforms() []UniformSlot

	// FragmentUniforms returns the fragment stage's uniforms with resolved
	// slots and corrected array sizes.
	//
	// Returns:
	//   - []UniformSlot: the declared uniforms in order
	FragmentUniforms() []UniformSlot

	// VertexTextures returns the vertex stage's sampler uniforms with
	// resolved slots.
	//
	// Returns:
	//   - []UniformSlot: the declared samplers in unit order
	VertexTextures() []UniformSlot

	// FragmentTextures returns the fragment stage's sampler uniforms with
	// resolved slots.
	//
	// Returns:
	//   - []UniformSlot: the declared samplers in unit order
	FragmentTextures() []UniformSlot

	// Destroy releases the linked program object.
	//
	// Parameters:
	//   - dev: the device that owns the handle, nil skips GPU cleanup
	Destroy(dev device.Device)
}

var _ Program = &program{}

// NewProgram wraps a freshly linked program handle and resolves every
// declared attribute and uniform of both stages to its hardware slot. When
// any declared uniform requests an array larger than one element, the
// linker's active uniform list is queried once and the declared sizes are
// overwritten with the sizes the linker actually retained.
//
// Parameters:
//   - dev: the device the program was linked on
//   - key: the generation pair the program was linked from
//   - handle: the linked program handle
//   - vertex: the vertex stage, supplying attribute and uniform declarations
//   - fragment: the fragment stage, supplying uniform declarations
//
// Returns:
//   - Program: the resolved cache entry
func NewProgram(dev device.Device, key Key, handle uint32, vertex, fragment shader.Shader) Program {
	p := &program{
		key:    key,
		handle: handle,
	}

	for _, a := range vertex.Attributes() {
		p.attributes = append(p.attributes, AttributeSlot{
			Name:       a.Name,
			Components: a.Components,
			Slot:       dev.AttribLocation(handle, a.Name),
		})
	}
	p.vertexUniforms = resolveUniforms(dev, handle, vertex.Uniforms())
	p.fragmentUniforms = resolveUniforms(dev, handle, fragment.Uniforms())
	p.vertexTextures = resolveTextures(dev, handle, vertex.Textures())
	p.fragmentTextures = resolveTextures(dev, handle, fragment.Textures())

	if wantsArrayCorrection(vertex.Uniforms()) || wantsArrayCorrection(fragment.Uniforms()) {
		p.correctArraySizes(dev)
	}
	return p
}

func resolveUniforms(dev device.Device, handle uint32, uniforms []shader.Uniform) []UniformSlot {
	slots := make([]UniformSlot, 0, len(uniforms))
	for _, u := range uniforms {
		slots = append(slots, UniformSlot{
			Name: u.Name,
			Slot: dev.UniformLocation(handle, u.Name),
			Size: int32(u.ArraySize),
		})
	}
	return slots
}

func resolveTextures(dev device.Device, handle uint32, textures []shader.Texture) []UniformSlot {
	slots := make([]UniformSlot, 0, len(textures))
	for _, t := range textures {
		slots = append(slots, UniformSlot{
			Name: t.Name,
			Slot: dev.UniformLocation(handle, t.Name),
			Size: 1,
		})
	}
	return slots
}

func wantsArrayCorrection(uniforms []shader.Uniform) bool {
	for _, u := range uniforms {
		if u.ArraySize > 1 {
			return true
		}
	}
	return false
}

// correctArraySizes overwrites declared array sizes with the sizes the
// linker actually retained. The linker sizes a uniform array down to the
// highest index the shader body references, so the declared size is only a
// request. Names the linker does not report keep their declared size.
func (p *program) correctArraySizes(dev device.Device) {
	linked := make(map[string]int32)
	for _, info := range dev.ActiveUniforms(p.handle) {
		linked[info.Name] = info.Size
	}
	for _, slots := range [][]UniformSlot{p.vertexUniforms, p.fragmentUniforms} {
		for i := range slots {
			if slots[i].Size <= 1 {
				continue
			}
			if size, ok := linked[slots[i].Name]; ok {
				slots[i].Size = size
			}
		}
	}
}

func (p *program) Key() Key {
	return p.key
}

func (p *program) Handle() uint32 {
	return p.handle
}

func (p *program) Attributes() []AttributeSlot {
	return p.attributes
}

func (p *program) VertexUniforms() []UniformSlot {
	return p.vertexUniforms
}

func (p *program) FragmentUniforms() []UniformSlot {
	return p.fragmentUniforms
}

func (p *program) VertexTextures() []UniformSlot {
	return p.vertexTextures
}

func (p *program) FragmentTextures() []UniformSlot {
	return p.fragmentTextures
}

func (p *program) Destroy(dev device.Device) {
	if p.handle != 0 && dev != nil {
		dev.DeleteProgram(p.handle)
	}
	p.handle = 0
}
