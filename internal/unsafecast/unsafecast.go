// Package unsafecast reinterprets slices of fetched page bytes as slices of
// typed values without copying.
//
// Decoded buffers hold little-endian fixed-width values back to back, so on
// little-endian targets a byte slice can be viewed directly as the value
// slice. Callers are responsible for keeping the backing bytes alive and
// unmodified while the converted view is in use.
package unsafecast

import "unsafe"

type slice struct {
	ptr unsafe.Pointer
	len int
	cap int
}

// Slice converts data of type []From to a view of type []To sharing the same
// backing array, scaling length and capacity by the element size ratio. No
// layout compatibility checks are performed.
func Slice[To, From any](data []From) []To {
	var zf From
	var zt To
	var s = slice{
		ptr: *(*unsafe.Pointer)(unsafe.Pointer(&data)),
		len: int((uintptr(len(data)) * unsafe.Sizeof(zf)) / unsafe.Sizeof(zt)),
		cap: int((uintptr(cap(data)) * unsafe.Sizeof(zf)) / unsafe.Sizeof(zt)),
	}
	return *(*[]To)(unsafe.Pointer(&s))
}

// BytesToString views a byte slice as a string. The bytes must not be
// modified while the string is in use.
func BytesToString(data []byte) string {
	return unsafe.String(unsafe.SliceData(data), len(data))
}

// StringToBytes applies the inverse conversion of BytesToString.
func StringToBytes(data string) []byte {
	return unsafe.Slice(unsafe.StringData(data), len(data))
}
