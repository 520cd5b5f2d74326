// package common contains common helpers that are used throughout this engine. They are not interface-wrapped structs, just plain
// helpers for reinterpreting host memory for GPU uploads and for driver-mandated alignment arithmetic.
package common

import (
	"unsafe"
)

// AlignUp rounds value up to the next multiple of alignment.
// alignment must be a power of two. This is the standard mask form used for
// every driver-mandated alignment in this engine (shader-group strides,
// uniform block sizes).
//
// Parameters:
//   - value: the value to round up
//   - alignment: power-of-two alignment to round to
//
// Returns:
//   - uint64: the smallest multiple of alignment >= value
func AlignUp(value, alignment uint64) uint64 {
	return (value + alignment - 1) &^ (alignment - 1)
}

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
