package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/strata-go/strata-go/fsst"
)

// FsstPageScheduler wraps a binary strategy whose values were compressed by
// static symbol substitution. The symbol table travels inline in the page
// descriptor, so it is parsed once at construction and shared by every
// decoder.
type FsstPageScheduler struct {
	inner *BinaryPageScheduler
	table *fsst.SymbolTable
	dtype arrow.DataType
}

func newFsstPageScheduler(inner *BinaryPageScheduler, table *fsst.SymbolTable, dtype arrow.DataType) *FsstPageScheduler {
	return &FsstPageScheduler{inner: inner, table: table, dtype: dtype}
}

func (s *FsstPageScheduler) SymbolTable() *fsst.SymbolTable { return s.table }

func (s *FsstPageScheduler) Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error) {
	dec, err := s.inner.Schedule(rows, plan)
	if err != nil {
		return nil, err
	}
	return &fsstPageDecoder{scheduler: s, inner: dec}, nil
}

type fsstPageDecoder struct {
	scheduler *FsstPageScheduler
	inner     PageDecoder
}

func (d *fsstPageDecoder) ScheduleMore(fetched *FetchResult, plan *ReadPlan) (bool, error) {
	return d.inner.ScheduleMore(fetched, plan)
}

func (d *fsstPageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	arr, err := d.inner.Decode(fetched, mem)
	if err != nil {
		return nil, err
	}

	s := d.scheduler
	n := arr.Len()
	ends := make([]uint64, n)
	var data []byte
	for i := 0; i < n; i++ {
		if arr.IsValid(i) {
			data, err = s.table.Decompress(data, varBinaryValue(arr, i))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %w", ErrCorrupted, i, err)
			}
		}
		ends[i] = uint64(len(data))
	}

	if nulls := arr.NullN(); nulls > 0 {
		return newVarBinaryArray(binaryOutputType(s.dtype), ends, data, arr.NullBitmapBytes(), nulls), nil
	}
	return newVarBinaryArray(binaryOutputType(s.dtype), ends, data, nil, 0), nil
}

func varBinaryValue(arr arrow.Array, i int) []byte {
	switch a := arr.(type) {
	case *array.Binary:
		return a.Value(i)
	case *array.LargeBinary:
		return a.Value(i)
	case *array.String:
		return []byte(a.Value(i))
	case *array.LargeString:
		return []byte(a.Value(i))
	}
	return nil
}
