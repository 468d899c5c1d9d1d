package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

type nullability int

const (
	noNulls nullability = iota
	someNulls
	allNulls
)

// BasicPageScheduler is the nullability wrapper. It holds no buffers itself:
// with no nulls it delegates entirely to the values strategy, with some nulls
// it composes a validity bitmap strategy with the values strategy, and with
// all nulls it synthesizes a fully null array.
type BasicPageScheduler struct {
	nulls    nullability
	validity PageScheduler
	values   PageScheduler
	dtype    arrow.DataType
}

func newBasicNonNullableScheduler(values PageScheduler, dtype arrow.DataType) *BasicPageScheduler {
	return &BasicPageScheduler{nulls: noNulls, values: values, dtype: dtype}
}

func newBasicNullableScheduler(validity, values PageScheduler, dtype arrow.DataType) *BasicPageScheduler {
	return &BasicPageScheduler{nulls: someNulls, validity: validity, values: values, dtype: dtype}
}

func newBasicAllNullScheduler(dtype arrow.DataType) *BasicPageScheduler {
	return &BasicPageScheduler{nulls: allNulls, dtype: dtype}
}

func (s *BasicPageScheduler) Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error) {
	switch s.nulls {
	case noNulls:
		return s.values.Schedule(rows, plan)
	case allNulls:
		if !rows.valid() {
			return nil, fmt.Errorf("strata: all-null page: invalid row range [%d,%d)", rows.Begin, rows.End)
		}
		return &allNullPageDecoder{dtype: s.dtype, n: int(rows.Len())}, nil
	}

	validityDec, err := s.validity.Schedule(rows, plan)
	if err != nil {
		return nil, err
	}
	valuesDec, err := s.values.Schedule(rows, plan)
	if err != nil {
		return nil, err
	}
	return &basicPageDecoder{validity: validityDec, values: valuesDec}, nil
}

type basicPageDecoder struct {
	validity PageDecoder
	values   PageDecoder
}

func (d *basicPageDecoder) ScheduleMore(fetched *FetchResult, plan *ReadPlan) (bool, error) {
	moreValidity, err := d.validity.ScheduleMore(fetched, plan)
	if err != nil {
		return false, err
	}
	moreValues, err := d.values.ScheduleMore(fetched, plan)
	if err != nil {
		return false, err
	}
	return moreValidity || moreValues, nil
}

func (d *basicPageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	validityArr, err := d.validity.Decode(fetched, mem)
	if err != nil {
		return nil, err
	}
	bitmap, nulls, err := validityBitmap(validityArr)
	if err != nil {
		return nil, err
	}
	valuesArr, err := d.values.Decode(fetched, mem)
	if err != nil {
		return nil, err
	}
	if valuesArr.Len() != validityArr.Len() {
		return nil, fmt.Errorf("%w: %d values for %d validity bits",
			ErrCorrupted, valuesArr.Len(), validityArr.Len())
	}
	if nulls == 0 {
		return valuesArr, nil
	}
	return withValidity(valuesArr, bitmap, nulls), nil
}

type allNullPageDecoder struct {
	noMoreReads
	dtype arrow.DataType
	n     int
}

func (d *allNullPageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	return array.MakeArrayOfNull(mem, d.dtype, d.n), nil
}
