package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// PackedStructPageScheduler reads a struct column whose fixed-width fields
// are interleaved row by row in one shared buffer. A row occupies the sum of
// the field widths; decode de-interleaves each field into its own column.
type PackedStructPageScheduler struct {
	bufferOffset uint64
	fieldWidths  []uint64
	rowWidth     uint64
	structType   *arrow.StructType
}

func newPackedStructPageScheduler(bufferOffset uint64, fieldWidths []uint64, structType *arrow.StructType) (*PackedStructPageScheduler, error) {
	if structType.NumFields() != len(fieldWidths) {
		return nil, fmt.Errorf("%w: packed struct stores %d fields, %s has %d",
			ErrTypeMismatch, len(fieldWidths), structType, structType.NumFields())
	}
	var rowWidth uint64
	for i, w := range fieldWidths {
		if w == 0 {
			return nil, fmt.Errorf("%w: packed struct field %d has zero width", ErrInvalidDescriptor, i)
		}
		rowWidth += w
	}
	return &PackedStructPageScheduler{
		bufferOffset: bufferOffset,
		fieldWidths:  fieldWidths,
		rowWidth:     rowWidth,
		structType:   structType,
	}, nil
}

func (s *PackedStructPageScheduler) RowWidth() uint64 { return s.rowWidth }

func (s *PackedStructPageScheduler) Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error) {
	if !rows.valid() {
		return nil, fmt.Errorf("strata: packed struct page: invalid row range [%d,%d)", rows.Begin, rows.End)
	}
	handle := plan.Add(ByteRange{
		Offset: s.bufferOffset + rows.Begin*s.rowWidth,
		Length: rows.Len() * s.rowWidth,
	})
	return &packedStructPageDecoder{scheduler: s, handle: handle, n: int(rows.Len())}, nil
}

type packedStructPageDecoder struct {
	noMoreReads
	scheduler *PackedStructPageScheduler
	handle    BufferHandle
	n         int
}

func (d *packedStructPageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	s := d.scheduler
	data := fetched.Bytes(d.handle)
	if want := uint64(d.n) * s.rowWidth; uint64(len(data)) != want {
		return nil, fmt.Errorf("%w: packed struct holds %d bytes, %d rows of width %d need %d",
			ErrCorrupted, len(data), d.n, s.rowWidth, want)
	}

	children := make([]arrow.ArrayData, len(s.fieldWidths))
	fields := make([]arrow.Field, len(s.fieldWidths))
	var fieldStart uint64
	for f, w := range s.fieldWidths {
		raw := make([]byte, uint64(d.n)*w)
		for i := 0; i < d.n; i++ {
			row := data[uint64(i)*s.rowWidth+fieldStart:]
			copy(raw[uint64(i)*w:], row[:w])
		}
		fieldStart += w

		declared := s.structType.Field(f)
		child := newFixedWidthArray(storageType(declared.Type, w, false), d.n, raw)
		children[f] = child.Data()
		fields[f] = arrow.Field{Name: declared.Name, Type: child.DataType(), Nullable: declared.Nullable}
	}

	ad := array.NewData(arrow.StructOf(fields...), d.n, []*memory.Buffer{nil}, children, 0, 0)
	defer ad.Release()
	return array.MakeFromData(ad), nil
}
