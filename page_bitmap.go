package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DenseBitmapScheduler reads a packed boolean bitmap. A flat encoding with
// one bit per value selects this strategy; bitmaps are never block
// compressed.
type DenseBitmapScheduler struct {
	bufferOffset uint64
}

func newDenseBitmapScheduler(bufferOffset uint64) *DenseBitmapScheduler {
	return &DenseBitmapScheduler{bufferOffset: bufferOffset}
}

func (s *DenseBitmapScheduler) BufferOffset() uint64 { return s.bufferOffset }

func (s *DenseBitmapScheduler) Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error) {
	if !rows.valid() {
		return nil, fmt.Errorf("strata: bitmap page: invalid row range [%d,%d)", rows.Begin, rows.End)
	}
	byteBegin := rows.Begin / 8
	byteEnd := (rows.End + 7) / 8
	if rows.Len() == 0 {
		byteEnd = byteBegin
	}
	handle := plan.Add(ByteRange{Offset: s.bufferOffset + byteBegin, Length: byteEnd - byteBegin})
	return &bitmapPageDecoder{handle: handle, bitOffset: int(rows.Begin % 8), n: int(rows.Len())}, nil
}

type bitmapPageDecoder struct {
	noMoreReads
	handle    BufferHandle
	bitOffset int
	n         int
}

func (d *bitmapPageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	data := fetched.Bytes(d.handle)
	if need := bitutil.BytesForBits(int64(d.bitOffset + d.n)); d.n > 0 && int64(len(data)) < need {
		return nil, fmt.Errorf("%w: bitmap holds %d bytes, rows need %d", ErrCorrupted, len(data), need)
	}
	// Realign to bit zero so downstream strategies can treat the bitmap as
	// offset-free.
	out := make([]byte, bitutil.BytesForBits(int64(d.n)))
	bitutil.CopyBitmap(data, d.bitOffset, d.n, out, 0)
	return newBooleanArray(d.n, out), nil
}
