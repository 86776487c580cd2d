package allocation

// TypeBuilderOption is a functional option for configuring a Type.
type TypeBuilderOption func(*Type)

// WithDimY adds a Y dimension, making the type two-dimensional.
//
// Parameters:
//   - dimY: the Y dimension in cells
//
// Returns:
//   - TypeBuilderOption: the option to apply
func WithDimY(dimY int) TypeBuilderOption {
	return func(t *Type) {
		t.dimY = dimY
	}
}

// WithDimZ adds a Z dimension, making the type three-dimensional. Types with
// a Z dimension cannot back textures.
//
// Parameters:
//   - dimZ: the Z dimension in cells
//
// Returns:
//   - TypeBuilderOption: the option to apply
func WithDimZ(dimZ int) TypeBuilderOption {
	return func(t *Type) {
		t.dimZ = dimZ
	}
}

// WithMipmaps makes the type store a full mip chain per face, sized down to
// 1x1 from the base dimensions.
//
// Returns:
//   - TypeBuilderOption: the option to apply
func WithMipmaps() TypeBuilderOption {
	return func(t *Type) {
		t.mipmaps = true
	}
}

// WithFaces makes the type store six cubemap faces. Requires square X and Y
// dimensions.
//
// Returns:
//   - TypeBuilderOption: the option to apply
func WithFaces() TypeBuilderOption {
	return func(t *Type) {
		t.faces = true
	}
}
