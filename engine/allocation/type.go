package allocation

import (
	"fmt"
	"math/bits"
)

// Type describes the shape of an allocation: its element, up to three
// dimensions, and whether the cells carry a full mip chain or six cubemap
// faces. Types are immutable values; the byte layout of every level and face
// is fixed at construction.
//
// A dimension of 0 means the dimension is absent: a Type with DimY 0 is
// one-dimensional. Cell layout is face-major, each face holding its mip
// levels from largest to smallest.
type Type struct {
	element Element
	dimX    int
	dimY    int
	dimZ    int
	mipmaps bool
	faces   bool
}

// NewType creates a Type with the specified element, X dimension and
// options. Panics on impossible shapes: a non-positive X dimension, cubemap
// faces on non-square or missing Y, or mipmaps combined with a Z dimension.
//
// Parameters:
//   - element: the element stored in each cell
//   - dimX: the X dimension in cells, at least 1
//   - options: functional options to configure the type
//
// Returns:
//   - Type: the type descriptor
func NewType(element Element, dimX int, options ...TypeBuilderOption) Type {
	t := Type{element: element, dimX: dimX}
	for _, opt := range options {
		opt(&t)
	}

	if t.dimX < 1 {
		panic(fmt.Sprintf("type X dimension must be at least 1, got %d", t.dimX))
	}
	if t.dimY < 0 || t.dimZ < 0 {
		panic("type dimensions cannot be negative")
	}
	if t.faces {
		if t.dimY < 1 {
			panic("cubemap types require a Y dimension")
		}
		if t.dimX != t.dimY {
			panic(fmt.Sprintf("cubemap types must be square, got %dx%d", t.dimX, t.dimY))
		}
		if t.dimZ > 0 {
			panic("cubemap types cannot have a Z dimension")
		}
	}
	if t.mipmaps && t.dimZ > 0 {
		panic("mipmapped types cannot have a Z dimension")
	}
	return t
}

// Element returns the element stored in each cell.
//
// Returns:
//   - Element: the cell element
func (t Type) Element() Element {
	return t.element
}

// DimX returns the X dimension in cells.
//
// Returns:
//   - int: the X dimension
func (t Type) DimX() int {
	return t.dimX
}

// DimY returns the Y dimension in cells, 0 when absent.
//
// Returns:
//   - int: the Y dimension
func (t Type) DimY() int {
	return t.dimY
}

// DimZ returns the Z dimension in cells, 0 when absent.
//
// Returns:
//   - int: the Z dimension
func (t Type) DimZ() int {
	return t.dimZ
}

// HasMipmaps reports whether the type stores a full mip chain.
//
// Returns:
//   - bool: true when the type carries mip levels
func (t Type) HasMipmaps() bool {
	return t.mipmaps
}

// HasFaces reports whether the type stores six cubemap faces.
//
// Returns:
//   - bool: true when the type is a cubemap
func (t Type) HasFaces() bool {
	return t.faces
}

// Is1D reports whether the type has only an X dimension.
//
// Returns:
//   - bool: true when Y and Z are absent
func (t Type) Is1D() bool {
	return t.dimY == 0 && t.dimZ == 0
}

// FaceCount returns the number of stored faces.
//
// Returns:
//   - int: 6 for cubemaps, 1 otherwise
func (t Type) FaceCount() int {
	if t.faces {
		return 6
	}
	return 1
}

// LevelCount returns the number of stored mip levels per face.
//
// Returns:
//   - int: the level count, 1 for non-mipmapped types
func (t Type) LevelCount() int {
	if !t.mipmaps {
		return 1
	}
	max := t.dimX
	if t.dimY > max {
		max = t.dimY
	}
	return bits.Len(uint(max))
}

// LevelDims returns the cell dimensions of one mip level.
//
// Parameters:
//   - level: the mip level, 0 being the base
//
// Returns:
//   - int: the level width in cells, at least 1
//   - int: the level height in cells, at least 1
func (t Type) LevelDims(level int) (int, int) {
	w := t.dimX >> level
	if w < 1 {
		w = 1
	}
	h := t.dimY >> level
	if h < 1 {
		h = 1
	}
	return w, h
}

// levelCells returns the cell count of one level including the Z extent.
func (t Type) levelCells(level int) int {
	w, h := t.LevelDims(level)
	cells := w * h
	if t.dimZ > 0 {
		cells *= t.dimZ
	}
	return cells
}

// faceBytes returns the byte size of all levels of a single face.
func (t Type) faceBytes() int {
	total := 0
	for level := 0; level < t.LevelCount(); level++ {
		total += t.levelCells(level) * t.element.Bytes()
	}
	return total
}

// LevelOffset returns the byte offset of one face's mip level within the
// allocation's CPU buffer.
//
// Parameters:
//   - face: the face index, 0 for non-cubemap types
//   - level: the mip level, 0 being the base
//
// Returns:
//   - int: the byte offset of the level's first cell
func (t Type) LevelOffset(face, level int) int {
	offset := face * t.faceBytes()
	for l := 0; l < level; l++ {
		offset += t.levelCells(l) * t.element.Bytes()
	}
	return offset
}

// LevelBytes returns the byte size of one mip level of one face.
//
// Parameters:
//   - level: the mip level, 0 being the base
//
// Returns:
//   - int: the level size in bytes
func (t Type) LevelBytes(level int) int {
	return t.levelCells(level) * t.element.Bytes()
}

// ElementCount returns the total cell count across all levels and faces.
//
// Returns:
//   - int: the total number of cells
func (t Type) ElementCount() int {
	cells := 0
	for level := 0; level < t.LevelCount(); level++ {
		cells += t.levelCells(level)
	}
	return cells * t.FaceCount()
}

// SizeBytes returns the total byte size of the type's cells across all
// levels and faces.
//
// Returns:
//   - int: the total size in bytes
func (t Type) SizeBytes() int {
	return t.ElementCount() * t.element.Bytes()
}

// String returns a short descriptor such as "f32x4[64x64 mips]".
//
// Returns:
//   - string: the type descriptor
func (t Type) String() string {
	dims := fmt.Sprintf("%d", t.dimX)
	if t.dimY > 0 {
		dims += fmt.Sprintf("x%d", t.dimY)
	}
	if t.dimZ > 0 {
		dims += fmt.Sprintf("x%d", t.dimZ)
	}
	suffix := ""
	if t.mipmaps {
		suffix += " mips"
	}
	if t.faces {
		suffix += " faces"
	}
	return fmt.Sprintf("%s[%s%s]", t.element, dims, suffix)
}
