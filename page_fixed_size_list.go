package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// FixedListScheduler multiplies row ranges by the list dimension and
// delegates to the items strategy. Row i of the list column covers item rows
// [i*dim, (i+1)*dim).
type FixedListScheduler struct {
	items     PageScheduler
	dimension uint32
	dtype     arrow.DataType
}

func newFixedListScheduler(items PageScheduler, dimension uint32, dtype arrow.DataType) (*FixedListScheduler, error) {
	if dimension == 0 {
		return nil, fmt.Errorf("%w: fixed-size list dimension 0", ErrInvalidDescriptor)
	}
	return &FixedListScheduler{items: items, dimension: dimension, dtype: dtype}, nil
}

func (s *FixedListScheduler) Dimension() uint32 { return s.dimension }

func (s *FixedListScheduler) Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error) {
	if !rows.valid() {
		return nil, fmt.Errorf("strata: fixed-size list page: invalid row range [%d,%d)", rows.Begin, rows.End)
	}
	dim := uint64(s.dimension)
	itemsDec, err := s.items.Schedule(RowRange{Begin: rows.Begin * dim, End: rows.End * dim}, plan)
	if err != nil {
		return nil, err
	}
	return &fixedListPageDecoder{scheduler: s, items: itemsDec, n: int(rows.Len())}, nil
}

type fixedListPageDecoder struct {
	scheduler *FixedListScheduler
	items     PageDecoder
	n         int
}

func (d *fixedListPageDecoder) ScheduleMore(fetched *FetchResult, plan *ReadPlan) (bool, error) {
	return d.items.ScheduleMore(fetched, plan)
}

func (d *fixedListPageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	s := d.scheduler
	itemsArr, err := d.items.Decode(fetched, mem)
	if err != nil {
		return nil, err
	}
	if itemsArr.Len() != d.n*int(s.dimension) {
		return nil, fmt.Errorf("%w: fixed-size list decoded %d items, %d rows of %d need %d",
			ErrCorrupted, itemsArr.Len(), d.n, s.dimension, d.n*int(s.dimension))
	}

	listType, ok := s.dtype.(*arrow.FixedSizeListType)
	if !ok || listType.Len() != int32(s.dimension) || !arrow.TypeEqual(listType.Elem(), itemsArr.DataType()) {
		listType = arrow.FixedSizeListOf(int32(s.dimension), itemsArr.DataType())
	}
	ad := array.NewData(listType, d.n, []*memory.Buffer{nil},
		[]arrow.ArrayData{itemsArr.Data()}, 0, 0)
	defer ad.Release()
	return array.MakeFromData(ad), nil
}
