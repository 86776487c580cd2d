// package common contains shared helpers used throughout this engine:
// unsafe slice reinterpretation for moving typed data in and out of raw
// allocation buffers, plus small generic utilities.
package common

import "unsafe"

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// BytesToSlice converts a byte slice to a typed slice for reading structured
// data out of raw buffers. Uses unsafe pointer operations to create a view
// into the original data. Trailing bytes smaller than one element are
// dropped.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source byte slice
//
// Returns:
//   - []T: typed slice view of the input data, or nil if input is too short
func BytesToSlice[T any](data []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	count := len(data) / size
	if count == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), count)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
