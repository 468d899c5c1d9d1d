package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/strata-go/strata-go/internal/unsafecast"
)

// elemType strips fixed-size-list nesting from a logical type. The
// interpreter threads types through list wrappers unchanged, so a value
// strategy reached below a fixed-size list sees the list type and decodes at
// its element type; the wrapping strategy reassembles the list shape.
func elemType(dtype arrow.DataType) arrow.DataType {
	for {
		fsl, ok := dtype.(*arrow.FixedSizeListType)
		if !ok {
			return dtype
		}
		dtype = fsl.Elem()
	}
}

// rawIntType returns the integer type matching a storage width, used when the
// logical type does not dictate the interpretation of raw bytes (offsets,
// dictionary indices, byte payloads).
func rawIntType(byteWidth uint64, signed bool) arrow.DataType {
	switch byteWidth {
	case 1:
		if signed {
			return arrow.PrimitiveTypes.Int8
		}
		return arrow.PrimitiveTypes.Uint8
	case 2:
		if signed {
			return arrow.PrimitiveTypes.Int16
		}
		return arrow.PrimitiveTypes.Uint16
	case 4:
		if signed {
			return arrow.PrimitiveTypes.Int32
		}
		return arrow.PrimitiveTypes.Uint32
	default:
		if signed {
			return arrow.PrimitiveTypes.Int64
		}
		return arrow.PrimitiveTypes.Uint64
	}
}

// storageType chooses the type a run of fixed-width values decodes into: the
// logical type when its width matches the stored width, otherwise the raw
// integer type of that width.
func storageType(dtype arrow.DataType, byteWidth uint64, signed bool) arrow.DataType {
	dt := elemType(dtype)
	if fw, ok := dt.(arrow.FixedWidthDataType); ok {
		if _, isBool := dt.(*arrow.BooleanType); !isBool {
			if _, isDict := dt.(*arrow.DictionaryType); !isDict {
				if fw.BitWidth() == int(byteWidth)*8 {
					return dt
				}
			}
		}
	}
	return rawIntType(byteWidth, signed)
}

// newFixedWidthArray views data as n values of the given fixed-width type.
// The bytes are not copied; they must stay valid for the array's lifetime.
func newFixedWidthArray(dtype arrow.DataType, n int, data []byte) arrow.Array {
	ad := array.NewData(dtype, n, []*memory.Buffer{nil, memory.NewBufferBytes(data)}, nil, 0, 0)
	defer ad.Release()
	return array.MakeFromData(ad)
}

// newBooleanArray views bitmap as n boolean values starting at bit 0.
func newBooleanArray(n int, bitmap []byte) arrow.Array {
	ad := array.NewData(arrow.FixedWidthTypes.Boolean, n,
		[]*memory.Buffer{nil, memory.NewBufferBytes(bitmap)}, nil, 0, 0)
	defer ad.Release()
	return array.MakeFromData(ad)
}

// withValidity rebuilds arr with the given null bitmap. The array must have
// offset zero, which holds for every array produced by the page decoders.
func withValidity(arr arrow.Array, bitmap []byte, nulls int) arrow.Array {
	d := arr.Data()
	buffers := make([]*memory.Buffer, len(d.Buffers()))
	copy(buffers, d.Buffers())
	buffers[0] = memory.NewBufferBytes(bitmap)
	ad := array.NewData(d.DataType(), d.Len(), buffers, d.Children(), nulls, 0)
	defer ad.Release()
	return array.MakeFromData(ad)
}

// validityBitmap converts a decoded boolean validity array to an lsb bitmap
// plus null count.
func validityBitmap(arr arrow.Array) ([]byte, int, error) {
	bools, ok := arr.(*array.Boolean)
	if !ok {
		return nil, 0, fmt.Errorf("%w: validity decoded to %s, expected boolean",
			ErrInvalidDescriptor, arr.DataType())
	}
	n := bools.Len()
	bitmap := make([]byte, bitutil.BytesForBits(int64(n)))
	nulls := 0
	for i := 0; i < n; i++ {
		if bools.Value(i) {
			bitutil.SetBit(bitmap, i)
		} else {
			nulls++
		}
	}
	return bitmap, nulls, nil
}

// uintValues widens a decoded integer array to uint64, preserving the raw
// bit patterns. It is used for offsets and dictionary indices, which are
// always stored as integers regardless of the page's logical type.
func uintValues(arr arrow.Array) ([]uint64, error) {
	out := make([]uint64, arr.Len())
	switch a := arr.(type) {
	case *array.Uint8:
		for i, v := range a.Uint8Values() {
			out[i] = uint64(v)
		}
	case *array.Uint16:
		for i, v := range a.Uint16Values() {
			out[i] = uint64(v)
		}
	case *array.Uint32:
		for i, v := range a.Uint32Values() {
			out[i] = uint64(v)
		}
	case *array.Uint64:
		copy(out, a.Uint64Values())
	case *array.Int8:
		for i, v := range a.Int8Values() {
			out[i] = uint64(v)
		}
	case *array.Int16:
		for i, v := range a.Int16Values() {
			out[i] = uint64(v)
		}
	case *array.Int32:
		for i, v := range a.Int32Values() {
			out[i] = uint64(v)
		}
	case *array.Int64:
		for i, v := range a.Int64Values() {
			out[i] = uint64(v)
		}
	default:
		return nil, fmt.Errorf("%w: expected integer storage, decoded %s",
			ErrInvalidDescriptor, arr.DataType())
	}
	return out, nil
}

// packUints narrows widened values back to a raw little-endian byte run of
// the given width.
func packUints(vals []uint64, byteWidth uint64) []byte {
	switch byteWidth {
	case 1:
		out := make([]uint8, len(vals))
		for i, v := range vals {
			out[i] = uint8(v)
		}
		return out
	case 2:
		out := make([]uint16, len(vals))
		for i, v := range vals {
			out[i] = uint16(v)
		}
		return unsafecast.Slice[byte](out)
	case 4:
		out := make([]uint32, len(vals))
		for i, v := range vals {
			out[i] = uint32(v)
		}
		return unsafecast.Slice[byte](out)
	default:
		return unsafecast.Slice[byte](vals)
	}
}

// fixedWidthBytes returns the raw little-endian value bytes of a fixed-width
// array. The array must have offset zero, which holds for every array
// produced by the page decoders.
func fixedWidthBytes(arr arrow.Array, byteWidth int) []byte {
	return arr.Data().Buffers()[1].Bytes()[:arr.Len()*byteWidth]
}

// rawBytes returns the byte payload of an array decoded at one byte per
// value.
func rawBytes(arr arrow.Array) ([]byte, error) {
	switch a := arr.(type) {
	case *array.Uint8:
		return a.Uint8Values(), nil
	case *array.Int8:
		return unsafecast.Slice[byte](a.Int8Values()), nil
	default:
		return nil, fmt.Errorf("%w: expected byte storage, decoded %s",
			ErrInvalidDescriptor, arr.DataType())
	}
}

// binaryOutputType maps a logical type to the variable-width binary type a
// binary strategy materializes. Types that are not binary-like fall back to
// raw bytes.
func binaryOutputType(dtype arrow.DataType) arrow.BinaryDataType {
	switch dt := elemType(dtype).(type) {
	case *arrow.StringType:
		return dt
	case *arrow.BinaryType:
		return dt
	case *arrow.LargeStringType:
		return dt
	case *arrow.LargeBinaryType:
		return dt
	default:
		return arrow.BinaryTypes.Binary
	}
}

// isLargeBinaryLike reports whether the logical type stores 8-byte offsets.
func isLargeBinaryLike(dtype arrow.DataType) bool {
	switch elemType(dtype).(type) {
	case *arrow.LargeStringType, *arrow.LargeBinaryType:
		return true
	default:
		return false
	}
}

// newVarBinaryArray assembles a variable-width binary array from relative
// end offsets. ends[i] is the exclusive end of row i within data; row i
// starts at ends[i-1] (0 for the first row). A nil validity means no nulls.
func newVarBinaryArray(dtype arrow.BinaryDataType, ends []uint64, data []byte, validity []byte, nulls int) arrow.Array {
	n := len(ends)
	large := false
	switch dtype.(type) {
	case *arrow.LargeStringType, *arrow.LargeBinaryType:
		large = true
	}

	var offsetBuf *memory.Buffer
	if large {
		offsets := make([]int64, n+1)
		for i, end := range ends {
			offsets[i+1] = int64(end)
		}
		offsetBuf = memory.NewBufferBytes(unsafecast.Slice[byte](offsets))
	} else {
		offsets := make([]int32, n+1)
		for i, end := range ends {
			offsets[i+1] = int32(end)
		}
		offsetBuf = memory.NewBufferBytes(unsafecast.Slice[byte](offsets))
	}

	var validityBuf *memory.Buffer
	if validity != nil {
		validityBuf = memory.NewBufferBytes(validity)
	}
	ad := array.NewData(dtype, n,
		[]*memory.Buffer{validityBuf, offsetBuf, memory.NewBufferBytes(data)}, nil, nulls, 0)
	defer ad.Release()
	return array.MakeFromData(ad)
}
