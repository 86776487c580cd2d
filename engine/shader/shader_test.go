package shader

import (
	"strings"
	"testing"

	"github.com/ember-gfx/ember-go/engine/allocation"
	"github.com/ember-gfx/ember-go/engine/device"
	"github.com/ember-gfx/ember-go/engine/report"
	"github.com/stretchr/testify/assert"
)

const vertexBody = `void main() {
	gl_Position = vec4(position, 1.0);
}`

const fragmentBody = `out vec4 fragColor;
void main() {
	fragColor = vec4(1.0);
}`

func TestSourceAssembly(t *testing.T) {
	s := NewShader(device.StageVertex, vertexBody,
		WithAttributes(
			Attribute{Name: "position", Components: 3},
			Attribute{Name: "texcoord0", Components: 2},
		),
		WithUniforms(
			Uniform{Name: "modelView", Kind: UniformMat4},
			Uniform{Name: "weights", Kind: UniformVec4, ArraySize: 8},
		),
		WithTextures(Texture{Name: "heightMap"}),
	)

	src := s.Source()
	assert.True(t, strings.HasPrefix(src, "#version 410 core\n"))
	assert.Contains(t, src, "in vec3 position;\n")
	assert.Contains(t, src, "in vec2 texcoord0;\n")
	assert.Contains(t, src, "uniform mat4 modelView;\n")
	assert.Contains(t, src, "uniform vec4 weights[8];\n")
	assert.Contains(t, src, "uniform sampler2D heightMap;\n")
	assert.True(t, strings.HasSuffix(src, vertexBody+"\n"))

	// Declarations precede the body.
	assert.Less(t, strings.Index(src, "in vec3 position"), strings.Index(src, "void main"))
}

func TestSourceAssemblyCubeSampler(t *testing.T) {
	s := NewShader(device.StageFragment, fragmentBody,
		WithTextures(Texture{Name: "environment", Cube: true}),
	)
	assert.Contains(t, s.Source(), "uniform samplerCube environment;\n")
}

func TestDeclarationValidation(t *testing.T) {
	assert.Panics(t, func() {
		NewShader(device.StageFragment, fragmentBody,
			WithAttributes(Attribute{Name: "position", Components: 3}))
	})
	assert.Panics(t, func() {
		NewShader(device.StageVertex, vertexBody,
			WithAttributes(Attribute{Name: "position", Components: 5}))
	})
	assert.Panics(t, func() {
		NewShader(device.StageVertex, vertexBody,
			WithUniforms(Uniform{Name: "u", Kind: UniformFloat, ArraySize: -1}))
	})

	// Zero array size normalizes to 1.
	s := NewShader(device.StageVertex, vertexBody,
		WithUniforms(Uniform{Name: "u", Kind: UniformFloat}))
	assert.Equal(t, 1, s.Uniforms()[0].ArraySize)
}

func TestCompileIdempotent(t *testing.T) {
	dev := device.NewTraceDevice()
	s := NewShader(device.StageFragment, fragmentBody)

	assert.True(t, s.Compile(dev))
	handle := s.Handle()
	assert.NotZero(t, handle)

	assert.True(t, s.Compile(dev))
	assert.Equal(t, 1, dev.Compiles)
	assert.Equal(t, handle, s.Handle())
}

func TestCompileFailure(t *testing.T) {
	dev := device.NewTraceDevice()
	dev.FailCompile = true
	dev.CompileLog = "0:3: error: undeclared identifier"
	rec := report.NewRecorder()
	s := NewShader(device.StageFragment, fragmentBody, WithReporter(rec))

	assert.False(t, s.Compile(dev))
	assert.False(t, s.Compiled())
	assert.Zero(t, s.Generation())
	assert.Equal(t, 1, rec.Count(report.KindShaderCompile))
	assert.Contains(t, rec.Messages()[0].Text, "undeclared identifier")

	// A failed compile leaves no handle, so a retry resubmits.
	dev.FailCompile = false
	assert.True(t, s.Compile(dev))
	assert.Equal(t, 2, dev.Compiles)
}

func TestGenerationNeverReused(t *testing.T) {
	dev := device.NewTraceDevice()
	dev.RecycleHandles = true

	a := NewShader(device.StageVertex, vertexBody)
	b := NewShader(device.StageFragment, fragmentBody)
	a.Compile(dev)
	b.Compile(dev)
	assert.NotEqual(t, a.Generation(), b.Generation())

	// Recompiling after invalidation gets a fresh generation even when the
	// driver reissues the same handle value.
	oldGen := a.Generation()
	oldHandle := a.Handle()
	a.Destroy(dev)
	a.Invalidate()
	a.Compile(dev)
	assert.Equal(t, oldHandle, a.Handle())
	assert.Greater(t, a.Generation(), oldGen)
}

func TestUniformOffsets(t *testing.T) {
	s := NewShader(device.StageVertex, vertexBody,
		WithUniforms(
			Uniform{Name: "scale", Kind: UniformFloat},
			Uniform{Name: "weights", Kind: UniformVec4, ArraySize: 3},
			Uniform{Name: "transform", Kind: UniformMat4},
		),
	)

	assert.Equal(t, 0, s.UniformOffset(0))
	assert.Equal(t, 1, s.UniformOffset(1))
	assert.Equal(t, 13, s.UniformOffset(2))
	assert.Equal(t, 29, s.FloatCount())
}

func TestBindConstants(t *testing.T) {
	rec := report.NewRecorder()
	s := NewShader(device.StageVertex, vertexBody,
		WithUniforms(Uniform{Name: "transform", Kind: UniformMat4}),
		WithReporter(rec),
	)

	good := allocation.NewAllocation(
		allocation.NewType(allocation.ElementF32, 16),
		allocation.UsageScript|allocation.UsageConstants)
	s.BindConstants(good)
	assert.Equal(t, good, s.Constants())

	noUsage := allocation.NewAllocation(
		allocation.NewType(allocation.ElementF32, 16), allocation.UsageScript)
	s.BindConstants(noUsage)
	assert.Equal(t, 1, rec.Count(report.KindUsage))
	assert.Equal(t, good, s.Constants())

	short := allocation.NewAllocation(
		allocation.NewType(allocation.ElementF32, 4),
		allocation.UsageScript|allocation.UsageConstants)
	s.BindConstants(short)
	assert.Equal(t, 2, rec.Count(report.KindUsage))
	assert.Equal(t, good, s.Constants())
}

func TestBindTexture(t *testing.T) {
	rec := report.NewRecorder()
	s := NewShader(device.StageFragment, fragmentBody,
		WithTextures(Texture{Name: "diffuse"}),
		WithReporter(rec),
	)

	tex := allocation.NewAllocation(
		allocation.NewType(allocation.ElementRGBA8888, 2, allocation.WithDimY(2)),
		allocation.UsageScript|allocation.UsageTexture)
	s.BindTexture(0, tex)
	assert.Equal(t, tex, s.BoundTexture(0))

	s.BindTexture(1, tex)
	assert.Equal(t, 1, rec.Count(report.KindUsage))

	vertex := allocation.NewAllocation(
		allocation.NewType(allocation.ElementF32x4, 3),
		allocation.UsageScript|allocation.UsageVertex)
	s.BindTexture(0, vertex)
	assert.Equal(t, 2, rec.Count(report.KindUsage))
	assert.Equal(t, tex, s.BoundTexture(0))
}

func TestBoundSamplerDefaults(t *testing.T) {
	s := NewShader(device.StageFragment, fragmentBody,
		WithTextures(Texture{Name: "diffuse"}))
	assert.NotNil(t, s.BoundSampler(0))
	assert.NotNil(t, s.BoundSampler(99))
}

func TestDestroyReleasesHandle(t *testing.T) {
	dev := device.NewTraceDevice()
	s := NewShader(device.StageVertex, vertexBody)
	s.Compile(dev)
	handle := s.Handle()

	s.Destroy(dev)
	assert.False(t, s.Compiled())
	assert.Contains(t, dev.DeletedShaders, handle)
}

func TestUniformKindSizes(t *testing.T) {
	assert.Equal(t, 1, UniformFloat.Components())
	assert.Equal(t, 3, UniformVec3.Components())
	assert.Equal(t, 4, UniformMat2.Components())
	assert.Equal(t, 9, UniformMat3.Components())
	assert.Equal(t, 16, UniformMat4.Components())

	assert.False(t, UniformVec4.IsMatrix())
	assert.True(t, UniformMat3.IsMatrix())
	assert.Equal(t, 0, UniformVec2.MatrixDim())
	assert.Equal(t, 3, UniformMat3.MatrixDim())
}
