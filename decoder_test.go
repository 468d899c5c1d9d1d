package strata

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/strata-go/strata-go/compress"
	"github.com/strata-go/strata-go/format"
	"github.com/strata-go/strata-go/fsst"
)

func pageBuffers(ranges ...ByteRange) *PageBuffers {
	return &PageBuffers{PositionsAndSizes: ranges}
}

func flatEncoding(index uint32, bits uint64) *format.ArrayEncoding {
	return &format.ArrayEncoding{Flat: &format.Flat{
		Buffer:       &format.Buffer{Index: index, Scope: format.PageScope},
		BitsPerValue: bits,
	}}
}

func decodeAll(t *testing.T, enc *format.ArrayEncoding, buffers *PageBuffers, dtype arrow.DataType, rows RowRange, file []byte) arrow.Array {
	t.Helper()
	scheduler, err := NewPageScheduler(enc, buffers, dtype)
	if err != nil {
		t.Fatalf("constructing scheduler: %v", err)
	}
	arr, err := DecodePage(context.Background(), scheduler, rows,
		NewRangeReaderAt(bytes.NewReader(file)), memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("decoding rows [%d,%d): %v", rows.Begin, rows.End, err)
	}
	return arr
}

func TestValuePage(t *testing.T) {
	const offset = 16
	file := make([]byte, offset+400)
	for i := 0; i < 100; i++ {
		binary.LittleEndian.PutUint32(file[offset+i*4:], uint32(i*3))
	}
	enc := flatEncoding(0, 32)
	buffers := pageBuffers(ByteRange{Offset: offset, Length: 400})

	tests := []RowRange{
		{Begin: 0, End: 100},
		{Begin: 10, End: 20},
		{Begin: 99, End: 100},
		{Begin: 5, End: 5},
	}
	for _, rows := range tests {
		arr := decodeAll(t, enc, buffers, arrow.PrimitiveTypes.Uint32, rows, file)
		values := arr.(*array.Uint32).Uint32Values()
		if len(values) != int(rows.Len()) {
			t.Fatalf("rows [%d,%d): got %d values", rows.Begin, rows.End, len(values))
		}
		for i, v := range values {
			if want := uint32((int(rows.Begin) + i) * 3); v != want {
				t.Errorf("rows [%d,%d): value %d = %d, want %d", rows.Begin, rows.End, i, v, want)
			}
		}
	}
}

func TestValuePageCompressed(t *testing.T) {
	raw := make([]byte, 100)
	for i := range raw {
		raw[i] = byte(i)
	}
	block, err := compress.Zstd.Encode(nil, raw)
	if err != nil {
		t.Fatal(err)
	}

	level := int32(0)
	enc := &format.ArrayEncoding{Flat: &format.Flat{
		Buffer:       &format.Buffer{Index: 0, Scope: format.FileScope},
		BitsPerValue: 8,
		Compression:  &format.Compression{Scheme: "zstd", Level: &level},
	}}
	buffers := &PageBuffers{ColumnBuffers: ColumnBuffers{FileBuffers: FileBuffers{
		PositionsAndSizes: []ByteRange{{Offset: 0, Length: uint64(len(block))}},
	}}}

	arr := decodeAll(t, enc, buffers, arrow.PrimitiveTypes.Uint8, RowRange{Begin: 10, End: 60}, block)
	if got := arr.(*array.Uint8).Uint8Values(); !bytes.Equal(got, raw[10:60]) {
		t.Errorf("decoded %v, want %v", got, raw[10:60])
	}
}

// A compressed flat column of byte-wide values resolves to a value strategy
// holding the resolved buffer and the codec configuration.
func TestValuePageConstruction(t *testing.T) {
	level := int32(0)
	enc := &format.ArrayEncoding{Flat: &format.Flat{
		Buffer:       &format.Buffer{Index: 0, Scope: format.FileScope},
		BitsPerValue: 8,
		Compression:  &format.Compression{Scheme: "zstd", Level: &level},
	}}
	buffers := &PageBuffers{ColumnBuffers: ColumnBuffers{FileBuffers: FileBuffers{
		PositionsAndSizes: []ByteRange{{Offset: 0, Length: 100}},
	}}}

	scheduler, err := NewPageScheduler(enc, buffers, arrow.PrimitiveTypes.Uint8)
	if err != nil {
		t.Fatal(err)
	}
	value, ok := scheduler.(*ValuePageScheduler)
	if !ok {
		t.Fatalf("got %T, want *ValuePageScheduler", scheduler)
	}
	if value.BytesPerValue() != 1 {
		t.Errorf("bytes per value = %d, want 1", value.BytesPerValue())
	}
	if value.BufferOffset() != 0 || value.BufferSize() != 100 {
		t.Errorf("buffer = (%d,%d), want (0,100)", value.BufferOffset(), value.BufferSize())
	}
	if got := value.Compression().String(); got != "zstd(0)" {
		t.Errorf("compression = %q, want %q", got, "zstd(0)")
	}
}

func TestBitmapPage(t *testing.T) {
	// Alternating bits over 100 rows, lsb first.
	file := make([]byte, 13)
	for i := 0; i < 100; i += 2 {
		file[i/8] |= 1 << (i % 8)
	}
	enc := flatEncoding(0, 1)
	buffers := pageBuffers(ByteRange{Offset: 0, Length: 13})

	arr := decodeAll(t, enc, buffers, arrow.FixedWidthTypes.Boolean, RowRange{Begin: 3, End: 75}, file)
	bools := arr.(*array.Boolean)
	if bools.Len() != 72 {
		t.Fatalf("got %d rows, want 72", bools.Len())
	}
	for i := 0; i < bools.Len(); i++ {
		if want := (3+i)%2 == 0; bools.Value(i) != want {
			t.Errorf("bit %d = %t, want %t", i, bools.Value(i), want)
		}
	}
}

func TestNullablePage(t *testing.T) {
	// 100 int64 rows with every odd row null.
	const n = 100
	file := make([]byte, 13+n*8)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			file[i/8] |= 1 << (i % 8)
			binary.LittleEndian.PutUint64(file[13+i*8:], uint64(i))
		}
	}
	enc := &format.ArrayEncoding{Nullable: &format.Nullable{SomeNulls: &format.SomeNulls{
		Validity: flatEncoding(0, 1),
		Values:   flatEncoding(1, 64),
	}}}
	buffers := pageBuffers(
		ByteRange{Offset: 0, Length: 13},
		ByteRange{Offset: 13, Length: n * 8},
	)

	arr := decodeAll(t, enc, buffers, arrow.PrimitiveTypes.Int64, RowRange{Begin: 0, End: n}, file)
	ints := arr.(*array.Int64)
	if ints.NullN() != n/2 {
		t.Fatalf("got %d nulls, want %d", ints.NullN(), n/2)
	}
	for i := 0; i < n; i++ {
		if ints.IsNull(i) != (i%2 == 1) {
			t.Errorf("row %d null = %t", i, ints.IsNull(i))
		}
		if i%2 == 0 && ints.Value(i) != int64(i) {
			t.Errorf("row %d = %d, want %d", i, ints.Value(i), i)
		}
	}
}

func TestNullablePageNoNulls(t *testing.T) {
	file := make([]byte, 40)
	for i := 0; i < 10; i++ {
		binary.LittleEndian.PutUint32(file[i*4:], uint32(i))
	}
	enc := &format.ArrayEncoding{Nullable: &format.Nullable{NoNulls: &format.NoNulls{
		Values: flatEncoding(0, 32),
	}}}
	arr := decodeAll(t, enc, pageBuffers(ByteRange{Offset: 0, Length: 40}),
		arrow.PrimitiveTypes.Int32, RowRange{Begin: 2, End: 7}, file)
	got := arr.(*array.Int32).Int32Values()
	for i, v := range got {
		if v != int32(i+2) {
			t.Errorf("row %d = %d, want %d", i, v, i+2)
		}
	}
}

func TestAllNullsPage(t *testing.T) {
	enc := &format.ArrayEncoding{Nullable: &format.Nullable{AllNulls: &format.AllNulls{}}}
	arr := decodeAll(t, enc, pageBuffers(), arrow.PrimitiveTypes.Float64, RowRange{Begin: 0, End: 7}, nil)
	if arr.Len() != 7 || arr.NullN() != 7 {
		t.Fatalf("got len=%d nulls=%d, want 7/7", arr.Len(), arr.NullN())
	}
}

// binaryTestPage lays out a binary column: uint32 end offsets at file offset
// 0, character data after them. Null rows store adjustment plus the running
// offset.
func binaryTestPage(values []string, nulls map[int]bool, adjustment uint64) (file []byte, enc *format.ArrayEncoding, buffers *PageBuffers) {
	var data []byte
	ends := make([]uint32, len(values))
	for i, v := range values {
		if !nulls[i] {
			data = append(data, v...)
		}
		ends[i] = uint32(len(data))
		if nulls[i] {
			ends[i] += uint32(adjustment)
		}
	}

	file = make([]byte, len(ends)*4+len(data))
	for i, end := range ends {
		binary.LittleEndian.PutUint32(file[i*4:], end)
	}
	copy(file[len(ends)*4:], data)

	enc = &format.ArrayEncoding{Binary: &format.Binary{
		Indices:        flatEncoding(0, 32),
		Bytes:          flatEncoding(1, 8),
		NullAdjustment: adjustment,
	}}
	buffers = pageBuffers(
		ByteRange{Offset: 0, Length: uint64(len(ends) * 4)},
		ByteRange{Offset: uint64(len(ends) * 4), Length: uint64(len(data))},
	)
	return file, enc, buffers
}

func TestBinaryPage(t *testing.T) {
	values := []string{"", "hello", "b\x00c", "", "xyz", "world"}
	nulls := map[int]bool{3: true}
	file, enc, buffers := binaryTestPage(values, nulls, 1000)

	tests := []RowRange{
		{Begin: 0, End: 6},
		{Begin: 1, End: 4},
		{Begin: 5, End: 6},
		{Begin: 2, End: 2},
	}
	for _, rows := range tests {
		arr := decodeAll(t, enc, buffers, arrow.BinaryTypes.String, rows, file)
		strs := arr.(*array.String)
		if strs.Len() != int(rows.Len()) {
			t.Fatalf("rows [%d,%d): got %d values", rows.Begin, rows.End, strs.Len())
		}
		for i := 0; i < strs.Len(); i++ {
			row := int(rows.Begin) + i
			if strs.IsNull(i) != nulls[row] {
				t.Errorf("rows [%d,%d): row %d null = %t", rows.Begin, rows.End, row, strs.IsNull(i))
				continue
			}
			if !nulls[row] && strs.Value(i) != values[row] {
				t.Errorf("rows [%d,%d): row %d = %q, want %q", rows.Begin, rows.End, row, strs.Value(i), values[row])
			}
		}
	}
}

func TestBinaryPageLargeOffsets(t *testing.T) {
	file, enc, buffers := binaryTestPage([]string{"a", "bc"}, nil, 100)
	arr := decodeAll(t, enc, buffers, arrow.BinaryTypes.LargeString, RowRange{Begin: 0, End: 2}, file)
	large := arr.(*array.LargeString)
	if large.Value(0) != "a" || large.Value(1) != "bc" {
		t.Errorf("got %q, %q", large.Value(0), large.Value(1))
	}
}

func TestBinaryPageZeroNullAdjustment(t *testing.T) {
	enc := &format.ArrayEncoding{Binary: &format.Binary{
		Indices: flatEncoding(0, 32),
		Bytes:   flatEncoding(1, 8),
	}}
	buffers := pageBuffers(ByteRange{}, ByteRange{})
	if _, err := NewPageScheduler(enc, buffers, arrow.BinaryTypes.String); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("got %v, want ErrInvalidDescriptor", err)
	}
}

// dictionaryTestPage lays out uint8 indices at offset 0 followed by a binary
// items column.
func dictionaryTestPage(items []string, indices []byte) (file []byte, enc *format.ArrayEncoding, buffers *PageBuffers) {
	var data []byte
	ends := make([]uint32, len(items))
	for i, v := range items {
		data = append(data, v...)
		ends[i] = uint32(len(data))
	}

	file = append([]byte(nil), indices...)
	endsOffset := len(file)
	for _, end := range ends {
		file = binary.LittleEndian.AppendUint32(file, end)
	}
	dataOffset := len(file)
	file = append(file, data...)

	enc = &format.ArrayEncoding{Dictionary: &format.Dictionary{
		Indices: flatEncoding(0, 8),
		Items: &format.ArrayEncoding{Binary: &format.Binary{
			Indices:        flatEncoding(1, 32),
			Bytes:          flatEncoding(2, 8),
			NullAdjustment: 1 << 20,
		}},
		NumDictionaryItems: uint32(len(items)),
	}}
	buffers = pageBuffers(
		ByteRange{Offset: 0, Length: uint64(len(indices))},
		ByteRange{Offset: uint64(endsOffset), Length: uint64(len(ends) * 4)},
		ByteRange{Offset: uint64(dataOffset), Length: uint64(len(data))},
	)
	return file, enc, buffers
}

func TestDictionaryPageMaterialized(t *testing.T) {
	items := []string{"red", "green", "blue"}
	indices := []byte{2, 0, 0, 1, 2, 1}
	file, enc, buffers := dictionaryTestPage(items, indices)

	arr := decodeAll(t, enc, buffers, arrow.BinaryTypes.String, RowRange{Begin: 1, End: 5}, file)
	strs := arr.(*array.String)
	want := []string{"red", "red", "green", "blue"}
	for i, w := range want {
		if strs.Value(i) != w {
			t.Errorf("row %d = %q, want %q", i, strs.Value(i), w)
		}
	}
}

func TestDictionaryPageAsDictionary(t *testing.T) {
	items := []string{"red", "green", "blue"}
	indices := []byte{2, 0, 1}
	file, enc, buffers := dictionaryTestPage(items, indices)

	dictType := &arrow.DictionaryType{
		IndexType: arrow.PrimitiveTypes.Int32,
		ValueType: arrow.BinaryTypes.String,
	}
	arr := decodeAll(t, enc, buffers, dictType, RowRange{Begin: 0, End: 3}, file)
	dict := arr.(*array.Dictionary)
	idx := dict.Indices().(*array.Int32).Int32Values()
	if len(idx) != 3 || idx[0] != 2 || idx[1] != 0 || idx[2] != 1 {
		t.Errorf("indices = %v, want [2 0 1]", idx)
	}
	vals := dict.Dictionary().(*array.String)
	for i, w := range items {
		if vals.Value(i) != w {
			t.Errorf("item %d = %q, want %q", i, vals.Value(i), w)
		}
	}
}

func TestDictionaryPageIndexOutOfRange(t *testing.T) {
	file, enc, buffers := dictionaryTestPage([]string{"a", "b"}, []byte{0, 5})
	scheduler, err := NewPageScheduler(enc, buffers, arrow.BinaryTypes.String)
	if err != nil {
		t.Fatal(err)
	}
	_, err = DecodePage(context.Background(), scheduler, RowRange{Begin: 0, End: 2},
		NewRangeReaderAt(bytes.NewReader(file)), memory.DefaultAllocator)
	if !errors.Is(err, ErrCorrupted) {
		t.Fatalf("got %v, want ErrCorrupted", err)
	}
}

func TestDictionaryPageUnmaterializableItems(t *testing.T) {
	// Boolean items are narrower than a byte and cannot be copied row by row.
	file := []byte{0, 1, 0b10}
	enc := &format.ArrayEncoding{Dictionary: &format.Dictionary{
		Indices:            flatEncoding(0, 8),
		Items:              flatEncoding(1, 1),
		NumDictionaryItems: 2,
	}}
	buffers := pageBuffers(
		ByteRange{Offset: 0, Length: 2},
		ByteRange{Offset: 2, Length: 1},
	)
	scheduler, err := NewPageScheduler(enc, buffers, arrow.FixedWidthTypes.Boolean)
	if err != nil {
		t.Fatal(err)
	}
	_, err = DecodePage(context.Background(), scheduler, RowRange{Begin: 0, End: 2},
		NewRangeReaderAt(bytes.NewReader(file)), memory.DefaultAllocator)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("got %v, want ErrTypeMismatch", err)
	}
}

func TestFixedSizeListPage(t *testing.T) {
	file := make([]byte, 120)
	for i := 0; i < 30; i++ {
		binary.LittleEndian.PutUint32(file[i*4:], uint32(i))
	}
	enc := &format.ArrayEncoding{FixedSizeList: &format.FixedSizeList{
		Items:     flatEncoding(0, 32),
		Dimension: 3,
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: 120})
	dtype := arrow.FixedSizeListOf(3, arrow.PrimitiveTypes.Int32)

	// List row 1 covers item rows [3,6).
	scheduler, err := NewPageScheduler(enc, buffers, dtype)
	if err != nil {
		t.Fatal(err)
	}
	plan := NewReadPlan()
	if _, err := scheduler.Schedule(RowRange{Begin: 1, End: 2}, plan); err != nil {
		t.Fatal(err)
	}
	if got, want := plan.Ranges()[0], (ByteRange{Offset: 12, Length: 12}); got != want {
		t.Fatalf("scheduled %+v, want %+v", got, want)
	}

	arr := decodeAll(t, enc, buffers, dtype, RowRange{Begin: 1, End: 2}, file)
	list := arr.(*array.FixedSizeList)
	if list.Len() != 1 {
		t.Fatalf("got %d rows, want 1", list.Len())
	}
	got := list.ListValues().(*array.Int32).Int32Values()
	if len(got) != 3 || got[0] != 3 || got[1] != 4 || got[2] != 5 {
		t.Errorf("items = %v, want [3 4 5]", got)
	}
}

func TestFixedSizeListDimensionOverflow(t *testing.T) {
	enc := &format.ArrayEncoding{FixedSizeList: &format.FixedSizeList{
		Items:     flatEncoding(0, 32),
		Dimension: math.MaxUint32 + 1,
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: 100})
	dtype := arrow.FixedSizeListOf(3, arrow.PrimitiveTypes.Int32)
	if _, err := NewPageScheduler(enc, buffers, dtype); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("got %v, want ErrInvalidDescriptor", err)
	}
}

// packBits writes values lsb first at the given bit width.
func packBits(values []uint64, width uint64) []byte {
	out := make([]byte, (uint64(len(values))*width+7)/8)
	for i, v := range values {
		for b := uint64(0); b < width; b++ {
			if v&(1<<b) != 0 {
				bit := uint64(i)*width + b
				out[bit/8] |= 1 << (bit % 8)
			}
		}
	}
	return out
}

func TestBitpackedPage(t *testing.T) {
	values := []uint64{3, 21, 17, 30, 7, 0, 31}
	file := packBits(values, 5)
	enc := &format.ArrayEncoding{Bitpacked: &format.Bitpacked{
		Buffer:                   &format.Buffer{Index: 0, Scope: format.PageScope},
		CompressedBitsPerValue:   5,
		UncompressedBitsPerValue: 32,
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: uint64(len(file))})

	arr := decodeAll(t, enc, buffers, arrow.PrimitiveTypes.Uint32, RowRange{Begin: 0, End: 7}, file)
	got := arr.(*array.Uint32).Uint32Values()
	for i, v := range values {
		if got[i] != uint32(v) {
			t.Errorf("row %d = %d, want %d", i, got[i], v)
		}
	}

	// Unaligned start.
	arr = decodeAll(t, enc, buffers, arrow.PrimitiveTypes.Uint32, RowRange{Begin: 3, End: 6}, file)
	got = arr.(*array.Uint32).Uint32Values()
	for i, v := range values[3:6] {
		if got[i] != uint32(v) {
			t.Errorf("row %d = %d, want %d", i+3, got[i], v)
		}
	}
}

func TestBitpackedPageSigned(t *testing.T) {
	// -3 and 5 in 4-bit two's complement.
	file := packBits([]uint64{0b1101, 0b0101}, 4)
	enc := &format.ArrayEncoding{Bitpacked: &format.Bitpacked{
		Buffer:                   &format.Buffer{Index: 0, Scope: format.PageScope},
		CompressedBitsPerValue:   4,
		UncompressedBitsPerValue: 8,
		Signed:                   true,
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: uint64(len(file))})

	arr := decodeAll(t, enc, buffers, arrow.PrimitiveTypes.Int8, RowRange{Begin: 0, End: 2}, file)
	got := arr.(*array.Int8).Int8Values()
	if got[0] != -3 || got[1] != 5 {
		t.Errorf("got %v, want [-3 5]", got)
	}
}

func TestBitpackedForNonNegPage(t *testing.T) {
	// High bit set in a 3-bit value must zero extend, not sign extend.
	values := []uint64{0, 7, 4, 1}
	file := packBits(values, 3)
	enc := &format.ArrayEncoding{BitpackedForNonNeg: &format.BitpackedForNonNeg{
		Buffer:                   &format.Buffer{Index: 0, Scope: format.PageScope},
		CompressedBitsPerValue:   3,
		UncompressedBitsPerValue: 64,
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: uint64(len(file))})

	arr := decodeAll(t, enc, buffers, arrow.PrimitiveTypes.Uint64, RowRange{Begin: 0, End: 4}, file)
	got := arr.(*array.Uint64).Uint64Values()
	for i, v := range values {
		if got[i] != v {
			t.Errorf("row %d = %d, want %d", i, got[i], v)
		}
	}
}

func TestUnsupportedBitWidths(t *testing.T) {
	buffers := pageBuffers(ByteRange{Offset: 0, Length: 100})
	tests := []struct {
		name string
		enc  *format.ArrayEncoding
	}{
		{"flat 17 bits", flatEncoding(0, 17)},
		{"flat 0 bits", flatEncoding(0, 0)},
		{"bitpacked to 17 bits", &format.ArrayEncoding{Bitpacked: &format.Bitpacked{
			Buffer:                   &format.Buffer{Index: 0, Scope: format.PageScope},
			CompressedBitsPerValue:   5,
			UncompressedBitsPerValue: 17,
		}}},
		{"bitpacked growing", &format.ArrayEncoding{Bitpacked: &format.Bitpacked{
			Buffer:                   &format.Buffer{Index: 0, Scope: format.PageScope},
			CompressedBitsPerValue:   40,
			UncompressedBitsPerValue: 32,
		}}},
	}
	for _, test := range tests {
		if _, err := NewPageScheduler(test.enc, buffers, arrow.PrimitiveTypes.Int32); !errors.Is(err, ErrUnsupportedBitWidth) {
			t.Errorf("%s: got %v, want ErrUnsupportedBitWidth", test.name, err)
		}
	}
}

func TestBufferIndexOutOfRange(t *testing.T) {
	buffers := pageBuffers(ByteRange{Offset: 0, Length: 100})
	if _, err := NewPageScheduler(flatEncoding(3, 32), buffers, arrow.PrimitiveTypes.Int32); !errors.Is(err, ErrBufferOutOfRange) {
		t.Fatalf("got %v, want ErrBufferOutOfRange", err)
	}
}

func TestStructEncodingNeverDecodes(t *testing.T) {
	enc := &format.ArrayEncoding{Struct: &format.Struct{}}
	if _, err := NewPageScheduler(enc, pageBuffers(), arrow.PrimitiveTypes.Int32); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("got %v, want ErrInvalidDescriptor", err)
	}
}

func TestUnknownCompressionScheme(t *testing.T) {
	enc := &format.ArrayEncoding{Flat: &format.Flat{
		Buffer:       &format.Buffer{Index: 0, Scope: format.PageScope},
		BitsPerValue: 32,
		Compression:  &format.Compression{Scheme: "paq"},
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: 100})
	if _, err := NewPageScheduler(enc, buffers, arrow.PrimitiveTypes.Int32); !errors.Is(err, compress.ErrUnknownScheme) {
		t.Fatalf("got %v, want ErrUnknownScheme", err)
	}
}

func TestFixedSizeBinaryPage(t *testing.T) {
	file := []byte("abcdefghijkl")
	enc := &format.ArrayEncoding{FixedSizeBinary: &format.FixedSizeBinary{
		Bytes:     flatEncoding(0, 8),
		ByteWidth: 4,
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: uint64(len(file))})

	scheduler, err := NewPageScheduler(enc, buffers, arrow.BinaryTypes.String)
	if err != nil {
		t.Fatal(err)
	}
	fixed, ok := scheduler.(*FixedSizeBinaryScheduler)
	if !ok {
		t.Fatalf("got %T, want *FixedSizeBinaryScheduler", scheduler)
	}
	if fixed.ByteWidth() != 4 {
		t.Fatalf("byte width = %d, want 4", fixed.ByteWidth())
	}

	arr := decodeAll(t, enc, buffers, arrow.BinaryTypes.String, RowRange{Begin: 1, End: 3}, file)
	strs := arr.(*array.String)
	if strs.Value(0) != "efgh" || strs.Value(1) != "ijkl" {
		t.Errorf("got %q, %q", strs.Value(0), strs.Value(1))
	}

	if _, err := NewPageScheduler(enc, buffers, arrow.PrimitiveTypes.Int32); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("int32 column: got %v, want ErrTypeMismatch", err)
	}
}

func TestPackedStructPage(t *testing.T) {
	// Rows of a uint32 followed by a uint16, interleaved.
	const n = 4
	file := make([]byte, n*6)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(file[i*6:], uint32(i*100))
		binary.LittleEndian.PutUint16(file[i*6+4:], uint16(i+1))
	}
	enc := &format.ArrayEncoding{PackedStruct: &format.PackedStruct{
		Buffer: &format.Buffer{Index: 0, Scope: format.PageScope},
		Inner: []*format.ArrayEncoding{
			{Flat: &format.Flat{BitsPerValue: 32}},
			{Flat: &format.Flat{BitsPerValue: 16}},
		},
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: n * 6})
	dtype := arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Uint32},
		arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Uint16},
	)

	arr := decodeAll(t, enc, buffers, dtype, RowRange{Begin: 1, End: 3}, file)
	st := arr.(*array.Struct)
	xs := st.Field(0).(*array.Uint32).Uint32Values()
	ys := st.Field(1).(*array.Uint16).Uint16Values()
	if xs[0] != 100 || xs[1] != 200 {
		t.Errorf("x = %v, want [100 200]", xs)
	}
	if ys[0] != 2 || ys[1] != 3 {
		t.Errorf("y = %v, want [2 3]", ys)
	}
}

func TestPackedStructPageFieldCountMismatch(t *testing.T) {
	enc := &format.ArrayEncoding{PackedStruct: &format.PackedStruct{
		Buffer: &format.Buffer{Index: 0, Scope: format.PageScope},
		Inner:  []*format.ArrayEncoding{{Flat: &format.Flat{BitsPerValue: 32}}},
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: 100})
	dtype := arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Uint32},
		arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Uint16},
	)
	if _, err := NewPageScheduler(enc, buffers, dtype); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("got %v, want ErrTypeMismatch", err)
	}
}

func TestPackedStructPageBufferOutOfRange(t *testing.T) {
	enc := &format.ArrayEncoding{PackedStruct: &format.PackedStruct{
		Buffer: &format.Buffer{Index: 0, Scope: format.PageScope},
		Inner: []*format.ArrayEncoding{
			{Flat: &format.Flat{
				Buffer:       &format.Buffer{Index: 7, Scope: format.PageScope},
				BitsPerValue: 32,
			}},
		},
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: 100})
	dtype := arrow.StructOf(arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Uint32})
	if _, err := NewPageScheduler(enc, buffers, dtype); !errors.Is(err, ErrBufferOutOfRange) {
		t.Fatalf("got %v, want ErrBufferOutOfRange", err)
	}
}

func TestFsstPage(t *testing.T) {
	table, err := fsst.NewSymbolTable([][]byte{[]byte("he"), []byte("llo"), []byte(" world")})
	if err != nil {
		t.Fatal(err)
	}
	values := []string{"hello world", "he", "", "xyz llo"}

	var data []byte
	ends := make([]uint32, len(values))
	for i, v := range values {
		data = table.Compress(data, []byte(v))
		ends[i] = uint32(len(data))
	}
	file := make([]byte, len(ends)*4+len(data))
	for i, end := range ends {
		binary.LittleEndian.PutUint32(file[i*4:], end)
	}
	copy(file[len(ends)*4:], data)

	enc := &format.ArrayEncoding{Fsst: &format.Fsst{
		Binary: &format.ArrayEncoding{Binary: &format.Binary{
			Indices:        flatEncoding(0, 32),
			Bytes:          flatEncoding(1, 8),
			NullAdjustment: 1 << 20,
		}},
		SymbolTable: table.Marshal(),
	}}
	buffers := pageBuffers(
		ByteRange{Offset: 0, Length: uint64(len(ends) * 4)},
		ByteRange{Offset: uint64(len(ends) * 4), Length: uint64(len(data))},
	)

	arr := decodeAll(t, enc, buffers, arrow.BinaryTypes.String, RowRange{Begin: 0, End: 4}, file)
	strs := arr.(*array.String)
	for i, v := range values {
		if strs.Value(i) != v {
			t.Errorf("row %d = %q, want %q", i, strs.Value(i), v)
		}
	}
}

func TestFsstRequiresBinaryChild(t *testing.T) {
	enc := &format.ArrayEncoding{Fsst: &format.Fsst{
		Binary:      flatEncoding(0, 8),
		SymbolTable: []byte{0},
	}}
	buffers := pageBuffers(ByteRange{Offset: 0, Length: 10})
	if _, err := NewPageScheduler(enc, buffers, arrow.BinaryTypes.String); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("got %v, want ErrInvalidDescriptor", err)
	}
}

func TestListEncodingIsTransparent(t *testing.T) {
	file := make([]byte, 40)
	for i := 0; i < 10; i++ {
		binary.LittleEndian.PutUint32(file[i*4:], uint32(i*7))
	}
	enc := &format.ArrayEncoding{List: &format.List{Offsets: flatEncoding(0, 32)}}
	arr := decodeAll(t, enc, pageBuffers(ByteRange{Offset: 0, Length: 40}),
		arrow.PrimitiveTypes.Uint32, RowRange{Begin: 0, End: 10}, file)
	got := arr.(*array.Uint32).Uint32Values()
	for i, v := range got {
		if v != uint32(i*7) {
			t.Errorf("row %d = %d, want %d", i, v, i*7)
		}
	}
}
