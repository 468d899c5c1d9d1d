package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// FixedSizeBinaryScheduler reads strings of one constant byte width and
// materializes them as a variable-width binary column, synthesizing the
// constant-stride offsets at decode time.
type FixedSizeBinaryScheduler struct {
	bytes     PageScheduler
	byteWidth uint32
	dtype     arrow.DataType
}

func newFixedSizeBinaryScheduler(bytes PageScheduler, byteWidth uint32, dtype arrow.DataType) (*FixedSizeBinaryScheduler, error) {
	if byteWidth == 0 {
		return nil, fmt.Errorf("%w: fixed-size binary byte width 0", ErrInvalidDescriptor)
	}
	switch elemType(dtype).(type) {
	case *arrow.StringType, *arrow.BinaryType, *arrow.LargeStringType, *arrow.LargeBinaryType:
	default:
		return nil, fmt.Errorf("%w: fixed-size binary encoding for %s column", ErrTypeMismatch, dtype)
	}
	return &FixedSizeBinaryScheduler{bytes: bytes, byteWidth: byteWidth, dtype: dtype}, nil
}

func (s *FixedSizeBinaryScheduler) ByteWidth() uint32 { return s.byteWidth }

func (s *FixedSizeBinaryScheduler) Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error) {
	if !rows.valid() {
		return nil, fmt.Errorf("strata: fixed-size binary page: invalid row range [%d,%d)", rows.Begin, rows.End)
	}
	w := uint64(s.byteWidth)
	bytesDec, err := s.bytes.Schedule(RowRange{Begin: rows.Begin * w, End: rows.End * w}, plan)
	if err != nil {
		return nil, err
	}
	return &fixedSizeBinaryPageDecoder{scheduler: s, bytes: bytesDec, n: int(rows.Len())}, nil
}

type fixedSizeBinaryPageDecoder struct {
	scheduler *FixedSizeBinaryScheduler
	bytes     PageDecoder
	n         int
}

func (d *fixedSizeBinaryPageDecoder) ScheduleMore(fetched *FetchResult, plan *ReadPlan) (bool, error) {
	return d.bytes.ScheduleMore(fetched, plan)
}

func (d *fixedSizeBinaryPageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	s := d.scheduler
	arr, err := d.bytes.Decode(fetched, mem)
	if err != nil {
		return nil, err
	}
	data, err := rawBytes(arr)
	if err != nil {
		return nil, err
	}
	w := int(s.byteWidth)
	if len(data) != d.n*w {
		return nil, fmt.Errorf("%w: fixed-size binary decoded %d bytes, %d rows of width %d need %d",
			ErrCorrupted, len(data), d.n, w, d.n*w)
	}
	ends := make([]uint64, d.n)
	for i := range ends {
		ends[i] = uint64((i + 1) * w)
	}
	return newVarBinaryArray(binaryOutputType(s.dtype), ends, data, nil, 0), nil
}
