package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// BinaryPageScheduler composes an indices strategy holding cumulative end
// offsets with a bytes strategy holding the raw character data. Scheduling is
// two rounds: the offsets for the requested rows must be fetched and decoded
// before the exact data range is known.
//
// Offsets are reconciled with nulls through the null adjustment: a stored
// offset at or above it marks the row null, and subtracting it recovers the
// true cumulative offset, so nulls consume no distinct offset slots.
type BinaryPageScheduler struct {
	indices        PageScheduler
	bytes          PageScheduler
	offsetBytes    int
	nullAdjustment uint64
	dtype          arrow.DataType
}

func newBinaryPageScheduler(indices, bytes PageScheduler, offsetBytes int, nullAdjustment uint64, dtype arrow.DataType) *BinaryPageScheduler {
	return &BinaryPageScheduler{
		indices:        indices,
		bytes:          bytes,
		offsetBytes:    offsetBytes,
		nullAdjustment: nullAdjustment,
		dtype:          dtype,
	}
}

// OffsetBytes returns the width of the materialized offsets: 8 for
// large-binary logical types, 4 otherwise.
func (s *BinaryPageScheduler) OffsetBytes() int { return s.offsetBytes }

func (s *BinaryPageScheduler) NullAdjustment() uint64 { return s.nullAdjustment }

func (s *BinaryPageScheduler) Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error) {
	if !rows.valid() {
		return nil, fmt.Errorf("strata: binary page: invalid row range [%d,%d)", rows.Begin, rows.End)
	}
	// Row i starts where row i-1 ends, so ranges not touching row zero need
	// one extra offset in front.
	idxRows := rows
	if idxRows.Begin > 0 {
		idxRows.Begin--
	}
	idxDec, err := s.indices.Schedule(idxRows, plan)
	if err != nil {
		return nil, err
	}
	return &binaryPageDecoder{scheduler: s, rows: rows, indices: idxDec}, nil
}

const (
	binaryWantOffsets = iota
	binaryWantData
	binaryReady
)

type binaryPageDecoder struct {
	scheduler *BinaryPageScheduler
	rows      RowRange
	indices   PageDecoder
	bytes     PageDecoder
	stage     int

	ends     []uint64 // end offset of each row, relative to the fetched data
	validity []byte
	nulls    int
}

func (d *binaryPageDecoder) ScheduleMore(fetched *FetchResult, plan *ReadPlan) (bool, error) {
	switch d.stage {
	case binaryWantOffsets:
		more, err := d.indices.ScheduleMore(fetched, plan)
		if more || err != nil {
			return more, err
		}
		if err := d.resolveOffsets(fetched, plan); err != nil {
			return false, err
		}
		d.stage = binaryWantData
		return true, nil

	case binaryWantData:
		more, err := d.bytes.ScheduleMore(fetched, plan)
		if err != nil {
			return false, err
		}
		if !more {
			d.stage = binaryReady
		}
		return more, nil
	}
	return false, nil
}

// resolveOffsets decodes the fetched offsets, derives per-row extents and
// nulls, and schedules the byte range the rows actually cover.
func (d *binaryPageDecoder) resolveOffsets(fetched *FetchResult, plan *ReadPlan) error {
	s := d.scheduler
	arr, err := d.indices.Decode(fetched, memory.DefaultAllocator)
	if err != nil {
		return err
	}
	raw, err := uintValues(arr)
	if err != nil {
		return err
	}

	n := int(d.rows.Len())
	var dataStart uint64
	k := 0
	if d.rows.Begin > 0 {
		if len(raw) == 0 {
			return fmt.Errorf("%w: binary page offsets missing", ErrCorrupted)
		}
		dataStart = realOffset(raw[0], s.nullAdjustment)
		k = 1
	}
	if len(raw)-k < n {
		return fmt.Errorf("%w: binary page decoded %d offsets, rows need %d",
			ErrCorrupted, len(raw)-k, n)
	}

	ends := make([]uint64, n)
	var validity []byte
	nulls := 0
	prev := dataStart
	for i := 0; i < n; i++ {
		v := raw[k+i]
		if v >= s.nullAdjustment {
			if validity == nil {
				validity = newFilledBitmap(n)
			}
			bitutil.ClearBit(validity, i)
			nulls++
			v -= s.nullAdjustment
		}
		if v < prev {
			return fmt.Errorf("%w: binary page offsets decrease at row %d", ErrCorrupted, i)
		}
		prev = v
		ends[i] = v - dataStart
	}

	dataEnd := dataStart
	if n > 0 {
		dataEnd = dataStart + ends[n-1]
	}
	d.bytes, err = s.bytes.Schedule(RowRange{Begin: dataStart, End: dataEnd}, plan)
	if err != nil {
		return err
	}
	d.ends = ends
	d.validity = validity
	d.nulls = nulls
	return nil
}

func (d *binaryPageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	arr, err := d.bytes.Decode(fetched, mem)
	if err != nil {
		return nil, err
	}
	data, err := rawBytes(arr)
	if err != nil {
		return nil, err
	}
	if n := len(d.ends); n > 0 && uint64(len(data)) < d.ends[n-1] {
		return nil, fmt.Errorf("%w: binary page holds %d data bytes, offsets need %d",
			ErrCorrupted, len(data), d.ends[n-1])
	}
	return newVarBinaryArray(binaryOutputType(d.scheduler.dtype), d.ends, data, d.validity, d.nulls), nil
}

func realOffset(v, nullAdjustment uint64) uint64 {
	if v >= nullAdjustment {
		return v - nullAdjustment
	}
	return v
}

func newFilledBitmap(n int) []byte {
	bm := make([]byte, bitutil.BytesForBits(int64(n)))
	bitutil.SetBitsTo(bm, 0, int64(n), true)
	return bm
}
