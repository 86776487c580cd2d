package device

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	// StageVertex is the vertex processing stage.
	StageVertex Stage = iota

	// StageFragment is the fragment processing stage.
	StageFragment
)

// String returns the lowercase stage name.
//
// Returns:
//   - string: "vertex" or "fragment"
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// TextureKind distinguishes flat textures from cubemaps.
type TextureKind int

const (
	// Texture2D is a single two-dimensional image with optional mip levels.
	Texture2D TextureKind = iota

	// TextureCube is a six-faced cubemap.
	TextureCube
)

// PixelFormat identifies the channel layout and component type of texture
// data handed to UploadTexture.
type PixelFormat int

const (
	// FormatR8 is one unsigned normalized byte per pixel.
	FormatR8 PixelFormat = iota

	// FormatRG8 is two unsigned normalized bytes per pixel.
	FormatRG8

	// FormatRGB8 is three unsigned normalized bytes per pixel.
	FormatRGB8

	// FormatRGBA8 is four unsigned normalized bytes per pixel.
	FormatRGBA8

	// FormatR32F is one 32-bit float per pixel.
	FormatR32F

	// FormatRG32F is two 32-bit floats per pixel.
	FormatRG32F

	// FormatRGB32F is three 32-bit floats per pixel.
	FormatRGB32F

	// FormatRGBA32F is four 32-bit floats per pixel.
	FormatRGBA32F
)

// Primitive selects how vertices are assembled by DrawArrays.
type Primitive int

const (
	// PrimitiveTriangles assembles independent triangles.
	PrimitiveTriangles Primitive = iota

	// PrimitiveTriangleStrip assembles a connected triangle strip.
	PrimitiveTriangleStrip

	// PrimitiveTriangleFan assembles a triangle fan around the first vertex.
	PrimitiveTriangleFan

	// PrimitiveLines assembles independent line segments.
	PrimitiveLines

	// PrimitiveLineStrip assembles a connected line strip.
	PrimitiveLineStrip

	// PrimitivePoints renders each vertex as a point.
	PrimitivePoints
)

// AttribBinding assigns a vertex attribute name to a fixed slot before a
// program is linked.
type AttribBinding struct {
	// Name is the attribute variable name as declared in the vertex source.
	Name string
	// Slot is the vertex attribute index the name is bound to.
	Slot uint32
}

// UniformInfo describes one active uniform as reported by the linker.
type UniformInfo struct {
	// Name is the uniform variable name with any trailing "[0]" removed.
	Name string
	// Size is the active array element count, 1 for non-arrays. Linkers may
	// report fewer elements than declared when trailing elements are unused.
	Size int32
}

// Limits reports fixed hardware capacities queried once at Init.
type Limits struct {
	// MaxTextureSize is the largest supported texture dimension in pixels.
	MaxTextureSize int
	// MaxTextureUnits is the number of combined texture image units.
	MaxTextureUnits int
	// MaxVertexAttribs is the number of vertex attribute slots.
	MaxVertexAttribs int
}
