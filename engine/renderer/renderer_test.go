package renderer

import (
	"strings"
	"testing"

	"github.com/ember-gfx/ember-go/common"
	"github.com/ember-gfx/ember-go/engine/allocation"
	"github.com/ember-gfx/ember-go/engine/device"
	"github.com/ember-gfx/ember-go/engine/report"
	"github.com/ember-gfx/ember-go/engine/shader"
	"github.com/stretchr/testify/assert"
)

const passthroughVertex = `void main() {
	gl_Position = vec4(position, 1.0);
}`

const solidFragment = `out vec4 fragColor;
void main() {
	fragColor = vec4(1.0);
}`

const texturedFragment = `out vec4 fragColor;
void main() {
	fragColor = texture(tex0, vec2(0.5));
}`

func newTestRenderer() (Renderer, *device.TraceDevice, *report.Recorder) {
	dev := device.NewTraceDevice()
	rec := report.NewRecorder()
	return NewRenderer(dev, WithReporter(rec)), dev, rec
}

func positionVertexShader(rec *report.Recorder) shader.Shader {
	return shader.NewShader(device.StageVertex, passthroughVertex,
		shader.WithAttributes(shader.Attribute{Name: "position", Components: 3}),
		shader.WithReporter(rec),
	)
}

func solidFragmentShader(rec *report.Recorder) shader.Shader {
	return shader.NewShader(device.StageFragment, solidFragment,
		shader.WithReporter(rec),
	)
}

// constantsFor builds a bound constants allocation holding the given floats.
func constantsFor(sh shader.Shader, values []float32) allocation.Allocation {
	typ := allocation.NewType(allocation.ElementF32, sh.FloatCount())
	a := allocation.NewAllocation(typ, allocation.UsageConstants,
		allocation.WithInitialData(common.SliceToBytes(values)))
	sh.BindConstants(a)
	return a
}

// triangleVertices builds a 3 vertex position-only allocation.
func triangleVertices(rec *report.Recorder) allocation.Allocation {
	typ := allocation.NewType(allocation.ElementF32x3, 3)
	a := allocation.NewAllocation(typ, allocation.UsageScript|allocation.UsageVertex,
		allocation.WithReporter(rec))
	a.SetData(common.SliceToBytes([]float32{
		-1, -1, 0,
		1, -1, 0,
		0, 1, 0,
	}))
	return a
}

func TestPrepareDrawLinksOnce(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := positionVertexShader(rec)
	frag := solidFragmentShader(rec)
	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)

	assert.True(t, r.PrepareDraw())
	assert.Equal(t, 1, dev.Links)
	assert.Equal(t, 1, r.ProgramCount())
	assert.NotNil(t, r.CurrentProgram())

	// Unchanged pair short-circuits before any cache or device work.
	for i := 0; i < 10; i++ {
		assert.True(t, r.PrepareDraw())
	}
	assert.Equal(t, 1, dev.Links)
	assert.Equal(t, 2, dev.Compiles)
	assert.Zero(t, rec.Count(report.KindProgramLink))
}

func TestProgramCacheHitAcrossPairs(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := positionVertexShader(rec)
	fragA := solidFragmentShader(rec)
	fragB := shader.NewShader(device.StageFragment, "out vec4 c;\nvoid main() { c = vec4(0.0); }",
		shader.WithReporter(rec))

	r.SetVertexShader(vert)
	r.SetFragmentShader(fragA)
	assert.True(t, r.PrepareDraw())
	first := r.CurrentProgram()

	r.SetFragmentShader(fragB)
	assert.True(t, r.PrepareDraw())
	assert.Equal(t, 2, dev.Links)
	assert.Equal(t, 2, r.ProgramCount())

	// Switching back to the first pair reuses its cached program.
	r.SetFragmentShader(fragA)
	assert.True(t, r.PrepareDraw())
	assert.Equal(t, 2, dev.Links)
	assert.Equal(t, 2, r.ProgramCount())
	assert.Same(t, first, r.CurrentProgram())
	assert.Equal(t, first.Handle(), dev.CurrentProgram)
}

func TestSettingSameShaderKeepsProgramCurrent(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := positionVertexShader(rec)
	frag := solidFragmentShader(rec)
	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	assert.True(t, r.PrepareDraw())

	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	assert.True(t, r.PrepareDraw())
	assert.Equal(t, 1, dev.Links)
	assert.Equal(t, 2, dev.Compiles)
}

func TestPrepareDrawRequiresBothStages(t *testing.T) {
	r, dev, rec := newTestRenderer()
	r.SetVertexShader(positionVertexShader(rec))

	assert.False(t, r.PrepareDraw())
	assert.Equal(t, 1, rec.Count(report.KindUsage))
	assert.Zero(t, dev.Links)
}

func TestLinkFailureLeavesCacheUntouched(t *testing.T) {
	r, dev, rec := newTestRenderer()
	dev.FailLink = true
	dev.LinkLog = "error: varying v not written by vertex stage"
	r.SetVertexShader(positionVertexShader(rec))
	r.SetFragmentShader(solidFragmentShader(rec))

	assert.False(t, r.PrepareDraw())
	assert.Equal(t, 1, rec.Count(report.KindProgramLink))
	assert.Contains(t, rec.Messages()[0].Text, "varying v not written")
	assert.Zero(t, r.ProgramCount())
	assert.Nil(t, r.CurrentProgram())

	// The failing pair is retried on the next prepare, not remembered.
	dev.FailLink = false
	assert.True(t, r.PrepareDraw())
	assert.Equal(t, 2, dev.Links)
	assert.Equal(t, 1, r.ProgramCount())
}

func TestCompileFailureSkipsLink(t *testing.T) {
	r, dev, rec := newTestRenderer()
	dev.FailCompile = true
	r.SetVertexShader(positionVertexShader(rec))
	r.SetFragmentShader(solidFragmentShader(rec))

	assert.False(t, r.PrepareDraw())
	assert.Zero(t, dev.Links)
	assert.Equal(t, 1, rec.Count(report.KindShaderCompile))
	assert.Zero(t, r.ProgramCount())
}

func TestDestroyShaderEvictsItsPrograms(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := positionVertexShader(rec)
	fragA := solidFragmentShader(rec)
	fragB := shader.NewShader(device.StageFragment, "out vec4 c;\nvoid main() { c = vec4(0.5); }",
		shader.WithReporter(rec))

	r.SetVertexShader(vert)
	r.SetFragmentShader(fragA)
	assert.True(t, r.PrepareDraw())
	r.SetFragmentShader(fragB)
	assert.True(t, r.PrepareDraw())
	assert.Equal(t, 2, r.ProgramCount())
	doomed := r.CurrentProgram().Handle()
	fragBHandle := fragB.Handle()

	r.DestroyShader(fragB)
	assert.Equal(t, 1, r.ProgramCount())
	assert.Contains(t, dev.DeletedPrograms, doomed)
	assert.Contains(t, dev.DeletedShaders, fragBHandle)
	assert.Nil(t, r.CurrentProgram())

	// The surviving pair is still a cache hit.
	r.SetFragmentShader(fragA)
	assert.True(t, r.PrepareDraw())
	assert.Equal(t, 2, dev.Links)
}

func TestDestroyVertexShaderEvictsEveryPair(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := positionVertexShader(rec)
	fragA := solidFragmentShader(rec)
	fragB := shader.NewShader(device.StageFragment, "out vec4 c;\nvoid main() { c = vec4(0.5); }",
		shader.WithReporter(rec))

	r.SetVertexShader(vert)
	r.SetFragmentShader(fragA)
	assert.True(t, r.PrepareDraw())
	r.SetFragmentShader(fragB)
	assert.True(t, r.PrepareDraw())

	r.DestroyShader(vert)
	assert.Zero(t, r.ProgramCount())
	assert.Len(t, dev.DeletedPrograms, 2)
	assert.Zero(t, vert.Handle())

	// The vertex shader recompiles under a new generation and relinks.
	r.SetFragmentShader(fragA)
	assert.True(t, r.PrepareDraw())
	assert.Equal(t, 3, dev.Links)
	assert.Equal(t, 1, r.ProgramCount())
}

func TestRecycledHandlesNeverAliasCacheEntries(t *testing.T) {
	r, dev, rec := newTestRenderer()
	dev.RecycleHandles = true
	vert := positionVertexShader(rec)
	frag := solidFragmentShader(rec)

	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	assert.True(t, r.PrepareDraw())
	oldHandle := frag.Handle()

	r.DestroyShader(frag)

	// A new shader with identical source picks up the freed handle.
	replacement := shader.NewShader(device.StageFragment, solidFragment,
		shader.WithReporter(rec))
	r.SetFragmentShader(replacement)
	assert.True(t, r.PrepareDraw())
	assert.Equal(t, oldHandle, replacement.Handle())

	// Same handle, different generation: the pair must link fresh.
	assert.Equal(t, 2, dev.Links)
	assert.Equal(t, 1, r.ProgramCount())
}

func TestDrawUploadsConstants(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := shader.NewShader(device.StageVertex, passthroughVertex,
		shader.WithAttributes(shader.Attribute{Name: "position", Components: 3}),
		shader.WithUniforms(
			shader.Uniform{Name: "modelView", Kind: shader.UniformMat4},
			shader.Uniform{Name: "tint", Kind: shader.UniformVec4},
		),
		shader.WithReporter(rec),
	)
	frag := solidFragmentShader(rec)

	values := make([]float32, vert.FloatCount())
	for i := range values {
		values[i] = float32(i)
	}
	constantsFor(vert, values)

	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	r.Draw(triangleVertices(rec), device.PrimitiveTriangles, 0, 3)

	assert.Equal(t, 1, dev.Draws)
	assert.Len(t, dev.UniformCalls, 2)

	matrix := dev.UniformCalls[0]
	assert.True(t, matrix.Matrix)
	assert.Equal(t, 4, matrix.Width)
	assert.Equal(t, 1, matrix.Count)
	assert.Equal(t, values[:16], matrix.Data)

	tint := dev.UniformCalls[1]
	assert.False(t, tint.Matrix)
	assert.Equal(t, 4, tint.Width)
	assert.Equal(t, 1, tint.Count)
	assert.Equal(t, values[16:20], tint.Data)
}

func TestDrawUploadsCorrectedArrayCount(t *testing.T) {
	r, dev, rec := newTestRenderer()
	dev.UniformSizes = map[string]int32{"weights": 3}
	vert := shader.NewShader(device.StageVertex, passthroughVertex,
		shader.WithAttributes(shader.Attribute{Name: "position", Components: 3}),
		shader.WithUniforms(shader.Uniform{Name: "weights", Kind: shader.UniformVec4, ArraySize: 8}),
		shader.WithReporter(rec),
	)
	frag := solidFragmentShader(rec)

	values := make([]float32, vert.FloatCount())
	for i := range values {
		values[i] = float32(i)
	}
	constantsFor(vert, values)

	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	r.Draw(triangleVertices(rec), device.PrimitiveTriangles, 0, 3)

	// Declared 8 elements, linker kept 3: exactly 3 are uploaded.
	assert.Len(t, dev.UniformCalls, 1)
	call := dev.UniformCalls[0]
	assert.Equal(t, 3, call.Count)
	assert.Equal(t, values[:12], call.Data)
}

func TestDrawSkipsDiscardedUniforms(t *testing.T) {
	r, dev, rec := newTestRenderer()
	dev.MissingUniforms = map[string]bool{"unused": true}
	vert := shader.NewShader(device.StageVertex, passthroughVertex,
		shader.WithAttributes(shader.Attribute{Name: "position", Components: 3}),
		shader.WithUniforms(
			shader.Uniform{Name: "unused", Kind: shader.UniformVec4},
			shader.Uniform{Name: "tint", Kind: shader.UniformVec4},
		),
		shader.WithReporter(rec),
	)
	frag := solidFragmentShader(rec)
	values := []float32{0, 1, 2, 3, 4, 5, 6, 7}
	constantsFor(vert, values)

	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	r.Draw(triangleVertices(rec), device.PrimitiveTriangles, 0, 3)

	// Only the surviving uniform is uploaded, still from its own offset.
	assert.Len(t, dev.UniformCalls, 1)
	assert.Equal(t, values[4:8], dev.UniformCalls[0].Data)
	assert.Equal(t, 1, dev.Draws)
}

func TestDrawReportsMissingConstants(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := shader.NewShader(device.StageVertex, passthroughVertex,
		shader.WithAttributes(shader.Attribute{Name: "position", Components: 3}),
		shader.WithUniforms(shader.Uniform{Name: "tint", Kind: shader.UniformVec4}),
		shader.WithReporter(rec),
	)
	frag := solidFragmentShader(rec)

	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	r.Draw(triangleVertices(rec), device.PrimitiveTriangles, 0, 3)

	assert.Equal(t, 1, rec.Count(report.KindUsage))
	assert.Contains(t, rec.Messages()[0].Text, "no constants allocation bound")
	assert.Empty(t, dev.UniformCalls)
	// The draw itself still proceeds.
	assert.Equal(t, 1, dev.Draws)
}

func TestDrawSyncsDirtyTextureAtBind(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := positionVertexShader(rec)
	frag := shader.NewShader(device.StageFragment, texturedFragment,
		shader.WithTextures(shader.Texture{Name: "tex0"}),
		shader.WithReporter(rec),
	)

	typ := allocation.NewType(allocation.ElementRGBA8888, 2, allocation.WithDimY(2))
	tex := allocation.NewAllocation(typ, allocation.UsageScript|allocation.UsageTexture,
		allocation.WithReporter(rec))
	tex.SetData(make([]byte, typ.SizeBytes()))
	frag.BindTexture(0, tex)

	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	r.Draw(triangleVertices(rec), device.PrimitiveTriangles, 0, 3)

	assert.False(t, tex.Dirty())
	assert.Equal(t, 1, dev.TextureUploads)
	assert.Equal(t, tex.Texture(), dev.BoundTextures[0])
	assert.NotNil(t, dev.BoundSamplers[0])

	unitSlot, ok := dev.IntUniforms[samplerSlot(t, r, "tex0")]
	assert.True(t, ok)
	assert.Equal(t, int32(0), unitSlot)

	// A clean texture is not uploaded again on the next draw.
	r.Draw(triangleVertices(rec), device.PrimitiveTriangles, 0, 3)
	assert.Equal(t, 1, dev.TextureUploads)
	assert.Zero(t, rec.Count(report.KindUsage))
}

// samplerSlot digs the resolved slot of a named fragment sampler out of the
// current program.
func samplerSlot(t *testing.T, r Renderer, name string) int32 {
	t.Helper()
	for _, ts := range r.CurrentProgram().FragmentTextures() {
		if ts.Name == name {
			return ts.Slot
		}
	}
	t.Fatalf("sampler %q not found in current program", name)
	return -1
}

func TestDrawReportsUnboundTexture(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := positionVertexShader(rec)
	frag := shader.NewShader(device.StageFragment, texturedFragment,
		shader.WithTextures(shader.Texture{Name: "tex0"}),
		shader.WithReporter(rec),
	)

	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	r.Draw(triangleVertices(rec), device.PrimitiveTriangles, 0, 3)

	assert.Equal(t, 1, rec.Count(report.KindUsage))
	assert.Contains(t, rec.Messages()[0].Text, `texture "tex0" has no allocation bound`)
	assert.Empty(t, dev.BoundTextures)
	assert.Equal(t, 1, dev.Draws)
}

func TestDrawReportsTextureUnitOverflow(t *testing.T) {
	r, dev, rec := newTestRenderer()
	dev.MaxUnits = 2
	vert := positionVertexShader(rec)
	frag := shader.NewShader(device.StageFragment, texturedFragment,
		shader.WithTextures(
			shader.Texture{Name: "tex0"},
			shader.Texture{Name: "tex1"},
			shader.Texture{Name: "tex2"},
		),
		shader.WithReporter(rec),
	)

	typ := allocation.NewType(allocation.ElementRGBA8888, 2, allocation.WithDimY(2))
	for i := 0; i < 3; i++ {
		tex := allocation.NewAllocation(typ, allocation.UsageScript|allocation.UsageTexture,
			allocation.WithReporter(rec))
		frag.BindTexture(i, tex)
	}

	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	r.Draw(triangleVertices(rec), device.PrimitiveTriangles, 0, 3)

	assert.Equal(t, 1, rec.Count(report.KindUsage))
	found := false
	for _, m := range rec.Messages() {
		if strings.Contains(m.Text, "more textures than the 2 units") {
			found = true
		}
	}
	assert.True(t, found)
	// The two units that fit were still bound.
	assert.Len(t, dev.BoundTextures, 2)
}

func TestDrawBindsInterleavedAttributes(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := shader.NewShader(device.StageVertex, passthroughVertex,
		shader.WithAttributes(
			shader.Attribute{Name: "position", Components: 3},
			shader.Attribute{Name: "texcoord0", Components: 2},
		),
		shader.WithReporter(rec),
	)
	frag := solidFragmentShader(rec)

	typ := allocation.NewType(allocation.ElementF32, 15)
	verts := allocation.NewAllocation(typ, allocation.UsageScript|allocation.UsageVertex,
		allocation.WithReporter(rec))
	verts.SetData(make([]byte, typ.SizeBytes()))

	r.SetVertexShader(vert)
	r.SetFragmentShader(frag)
	r.Draw(verts, device.PrimitiveTriangleStrip, 0, 3)

	assert.Equal(t, 1, dev.BufferUploads)
	assert.Equal(t, verts.Buffer(), dev.BoundBuffer)
	assert.Len(t, dev.AttribPointers, 2)

	position := dev.AttribPointers[0]
	assert.Equal(t, uint32(0), position.Slot)
	assert.Equal(t, 3, position.Components)
	assert.Equal(t, 20, position.Stride)
	assert.Equal(t, 0, position.Offset)

	texcoord := dev.AttribPointers[1]
	assert.Equal(t, uint32(3), texcoord.Slot)
	assert.Equal(t, 2, texcoord.Components)
	assert.Equal(t, 20, texcoord.Stride)
	assert.Equal(t, 12, texcoord.Offset)

	assert.Equal(t, device.PrimitiveTriangleStrip, dev.LastDraw.Mode)
	assert.Equal(t, 3, dev.LastDraw.Count)

	// The buffer is clean on the second draw, so nothing re-uploads.
	r.Draw(verts, device.PrimitiveTriangleStrip, 0, 3)
	assert.Equal(t, 1, dev.BufferUploads)
	assert.Equal(t, 2, dev.Draws)
}

func TestDrawRejectsNonVertexAllocation(t *testing.T) {
	r, dev, rec := newTestRenderer()
	r.SetVertexShader(positionVertexShader(rec))
	r.SetFragmentShader(solidFragmentShader(rec))

	typ := allocation.NewType(allocation.ElementF32x3, 3)
	plain := allocation.NewAllocation(typ, allocation.UsageScript,
		allocation.WithReporter(rec))
	r.Draw(plain, device.PrimitiveTriangles, 0, 3)

	assert.Equal(t, 1, rec.Count(report.KindUsage))
	assert.Zero(t, dev.Draws)
}

func TestDrawReportsDegradedVertexAllocation(t *testing.T) {
	r, dev, rec := newTestRenderer()
	dev.FailBufferCreate = true
	r.SetVertexShader(positionVertexShader(rec))
	r.SetFragmentShader(solidFragmentShader(rec))

	verts := triangleVertices(rec)
	r.Draw(verts, device.PrimitiveTriangles, 0, 3)

	// The failed sync degrades the allocation; the skipped draw is a usage
	// report on top of the sync's exhaustion report.
	assert.True(t, verts.Degraded())
	assert.Equal(t, 1, rec.Count(report.KindOutOfResources))
	assert.Equal(t, 1, rec.Count(report.KindUsage))
	assert.Zero(t, dev.Draws)
}

func TestDrawRejectsNilVerticesWithAttributes(t *testing.T) {
	r, dev, rec := newTestRenderer()
	r.SetVertexShader(positionVertexShader(rec))
	r.SetFragmentShader(solidFragmentShader(rec))

	r.Draw(nil, device.PrimitiveTriangles, 0, 3)

	assert.Equal(t, 1, rec.Count(report.KindUsage))
	assert.Zero(t, dev.Draws)
}

func TestAttributelessDraw(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := shader.NewShader(device.StageVertex,
		"void main() { gl_Position = vec4(0.0); }",
		shader.WithReporter(rec))
	r.SetVertexShader(vert)
	r.SetFragmentShader(solidFragmentShader(rec))

	r.Draw(nil, device.PrimitiveTriangleStrip, 0, 4)

	assert.Equal(t, 1, dev.Draws)
	assert.Equal(t, 4, dev.LastDraw.Count)
	assert.Zero(t, rec.Count(report.KindUsage))
}

func TestSetRenderTargetSyncsAndBinds(t *testing.T) {
	r, dev, rec := newTestRenderer()
	typ := allocation.NewType(allocation.ElementRGBA8888, 8, allocation.WithDimY(4))
	target := allocation.NewAllocation(typ,
		allocation.UsageScript|allocation.UsageTexture|allocation.UsageRenderTarget,
		allocation.WithReporter(rec))

	r.SetRenderTarget(target)

	assert.NotZero(t, target.RenderTarget())
	assert.Equal(t, target.RenderTarget(), dev.CurrentRenderTarget)
	assert.Zero(t, rec.Count(report.KindUsage))

	r.SetRenderTarget(nil)
	assert.Zero(t, dev.CurrentRenderTarget)
}

func TestSetRenderTargetRequiresUsage(t *testing.T) {
	r, dev, rec := newTestRenderer()
	typ := allocation.NewType(allocation.ElementRGBA8888, 8, allocation.WithDimY(4))
	plain := allocation.NewAllocation(typ, allocation.UsageScript|allocation.UsageTexture,
		allocation.WithReporter(rec))

	r.SetRenderTarget(plain)

	assert.Equal(t, 1, rec.Count(report.KindUsage))
	assert.Zero(t, dev.CurrentRenderTarget)
}

func TestDestroyReleasesAllPrograms(t *testing.T) {
	r, dev, rec := newTestRenderer()
	vert := positionVertexShader(rec)
	fragA := solidFragmentShader(rec)
	fragB := shader.NewShader(device.StageFragment, "out vec4 c;\nvoid main() { c = vec4(0.5); }",
		shader.WithReporter(rec))

	r.SetVertexShader(vert)
	r.SetFragmentShader(fragA)
	assert.True(t, r.PrepareDraw())
	r.SetFragmentShader(fragB)
	assert.True(t, r.PrepareDraw())

	r.Destroy()
	assert.Zero(t, r.ProgramCount())
	assert.Len(t, dev.DeletedPrograms, 2)
	assert.Nil(t, r.CurrentProgram())

	// Prepared pairs relink after a teardown.
	assert.True(t, r.PrepareDraw())
	assert.Equal(t, 3, dev.Links)
}
