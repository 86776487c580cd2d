package allocation

import (
	"fmt"

	"github.com/ember-gfx/ember-go/engine/device"
)

// DataType identifies the scalar component type of an element.
type DataType int

const (
	// U8 is an unsigned 8-bit integer, normalized when sampled as a texture.
	U8 DataType = iota

	// I8 is a signed 8-bit integer.
	I8

	// U16 is an unsigned 16-bit integer.
	U16

	// I16 is a signed 16-bit integer.
	I16

	// U32 is an unsigned 32-bit integer.
	U32

	// I32 is a signed 32-bit integer.
	I32

	// F32 is a 32-bit float.
	F32

	// F64 is a 64-bit float. Kernel-side only, never texturable.
	F64
)

// Bytes returns the size of one scalar of the data type.
//
// Returns:
//   - int: the scalar size in bytes
func (t DataType) Bytes() int {
	switch t {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case F64:
		return 8
	default:
		return 0
	}
}

// Element describes the type of a single cell of an allocation: a scalar or
// short vector of one data type. Elements are immutable values.
type Element struct {
	dataType   DataType
	vectorSize int
}

// Predefined elements for common buffer and pixel layouts.
var (
	ElementU8       = NewElement(U8, 1)
	ElementRGB888   = NewElement(U8, 3)
	ElementRGBA8888 = NewElement(U8, 4)
	ElementI32      = NewElement(I32, 1)
	ElementU32      = NewElement(U32, 1)
	ElementF32      = NewElement(F32, 1)
	ElementF32x2    = NewElement(F32, 2)
	ElementF32x3    = NewElement(F32, 3)
	ElementF32x4    = NewElement(F32, 4)
	ElementF64      = NewElement(F64, 1)
)

// NewElement creates an Element from a data type and vector size. Panics when
// the vector size is outside 1 through 4.
//
// Parameters:
//   - dataType: the scalar component type
//   - vectorSize: components per element, 1 through 4
//
// Returns:
//   - Element: the element descriptor
func NewElement(dataType DataType, vectorSize int) Element {
	if vectorSize < 1 || vectorSize > 4 {
		panic(fmt.Sprintf("element vector size must be 1-4, got %d", vectorSize))
	}
	if dataType.Bytes() == 0 {
		panic(fmt.Sprintf("unknown element data type %d", dataType))
	}
	return Element{dataType: dataType, vectorSize: vectorSize}
}

// DataType returns the scalar component type.
//
// Returns:
//   - DataType: the scalar component type
func (e Element) DataType() DataType {
	return e.dataType
}

// VectorSize returns the number of components per element.
//
// Returns:
//   - int: the component count, 1 through 4
func (e Element) VectorSize() int {
	return e.vectorSize
}

// Bytes returns the packed size of one element.
//
// Returns:
//   - int: the element size in bytes
func (e Element) Bytes() int {
	return e.dataType.Bytes() * e.vectorSize
}

// PixelFormat maps the element to a texture pixel format. Only byte and
// 32-bit float elements can back textures.
//
// Returns:
//   - device.PixelFormat: the matching pixel format
//   - bool: false when the element cannot back a texture
func (e Element) PixelFormat() (device.PixelFormat, bool) {
	switch e.dataType {
	case U8:
		switch e.vectorSize {
		case 1:
			return device.FormatR8, true
		case 2:
			return device.FormatRG8, true
		case 3:
			return device.FormatRGB8, true
		case 4:
			return device.FormatRGBA8, true
		}
	case F32:
		switch e.vectorSize {
		case 1:
			return device.FormatR32F, true
		case 2:
			return device.FormatRG32F, true
		case 3:
			return device.FormatRGB32F, true
		case 4:
			return device.FormatRGBA32F, true
		}
	}
	return 0, false
}

// ReadbackCompatible reports whether render-target contents of this element
// can be read back to the CPU. Readback is defined for packed 8-bit RGBA
// color only.
//
// Returns:
//   - bool: true when the element is 4 unsigned normalized bytes
func (e Element) ReadbackCompatible() bool {
	return e.dataType == U8 && e.vectorSize == 4
}

// String returns a short descriptor such as "f32x4" or "u8x1".
//
// Returns:
//   - string: the element descriptor
func (e Element) String() string {
	names := map[DataType]string{
		U8: "u8", I8: "i8", U16: "u16", I16: "i16",
		U32: "u32", I32: "i32", F32: "f32", F64: "f64",
	}
	return fmt.Sprintf("%sx%d", names[e.dataType], e.vectorSize)
}
