package strata

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DecodePage drives one page decode sequentially: schedule, fetch, repeat for
// strategies whose later reads depend on earlier bytes, then decode.
//
// Production runtimes typically run this loop themselves so they can batch
// and parallelize fetches across pages and columns; the scheduling and
// decoding contracts do not change.
func DecodePage(ctx context.Context, scheduler PageScheduler, rows RowRange, r RangeReader, mem memory.Allocator) (arrow.Array, error) {
	plan := NewReadPlan()
	dec, err := scheduler.Schedule(rows, plan)
	if err != nil {
		return nil, err
	}

	fetched := new(FetchResult)
	for {
		if err := plan.Fetch(ctx, r, fetched); err != nil {
			return nil, err
		}
		more, err := dec.ScheduleMore(fetched, plan)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return dec.Decode(fetched, mem)
}

// readerAt adapts an io.ReaderAt to the RangeReader contract.
type readerAt struct {
	r io.ReaderAt
}

// NewRangeReaderAt wraps an io.ReaderAt as a RangeReader.
func NewRangeReaderAt(r io.ReaderAt) RangeReader {
	return &readerAt{r: r}
}

func (r *readerAt) ReadRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := make([]byte, length)
	n, err := r.r.ReadAt(data, int64(offset))
	if err == io.EOF && uint64(n) == length {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
