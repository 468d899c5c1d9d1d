package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/strata-go/strata-go/compress"
)

// ValuePageScheduler reads fixed-width values stored back to back in a
// single buffer, optionally passing the buffer through a block codec before
// reinterpreting the bytes.
type ValuePageScheduler struct {
	bytesPerValue uint64
	bufferOffset  uint64
	bufferSize    uint64
	compression   compress.Config
	codec         compress.Codec
	dtype         arrow.DataType
}

func newValuePageScheduler(bytesPerValue, bufferOffset, bufferSize uint64, compression compress.Config, codec compress.Codec, dtype arrow.DataType) *ValuePageScheduler {
	return &ValuePageScheduler{
		bytesPerValue: bytesPerValue,
		bufferOffset:  bufferOffset,
		bufferSize:    bufferSize,
		compression:   compression,
		codec:         codec,
		dtype:         dtype,
	}
}

func (s *ValuePageScheduler) BytesPerValue() uint64 { return s.bytesPerValue }

func (s *ValuePageScheduler) BufferOffset() uint64 { return s.bufferOffset }

func (s *ValuePageScheduler) BufferSize() uint64 { return s.bufferSize }

func (s *ValuePageScheduler) Compression() compress.Config { return s.compression }

func (s *ValuePageScheduler) Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error) {
	if !rows.valid() {
		return nil, fmt.Errorf("strata: value page: invalid row range [%d,%d)", rows.Begin, rows.End)
	}
	dec := &valuePageDecoder{scheduler: s, rows: rows}
	if s.compression.IsNone() {
		// Uncompressed values support random access; fetch only the rows.
		dec.handle = plan.Add(ByteRange{
			Offset: s.bufferOffset + rows.Begin*s.bytesPerValue,
			Length: rows.Len() * s.bytesPerValue,
		})
	} else {
		// A block codec needs the whole buffer before any row is reachable.
		dec.compressed = true
		dec.handle = plan.Add(ByteRange{Offset: s.bufferOffset, Length: s.bufferSize})
	}
	return dec, nil
}

type valuePageDecoder struct {
	noMoreReads
	scheduler  *ValuePageScheduler
	rows       RowRange
	handle     BufferHandle
	compressed bool
}

func (d *valuePageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	s := d.scheduler
	data := fetched.Bytes(d.handle)

	if d.compressed {
		decoded, err := s.codec.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s block: %w", ErrCorrupted, s.compression, err)
		}
		begin := d.rows.Begin * s.bytesPerValue
		end := d.rows.End * s.bytesPerValue
		if end > uint64(len(decoded)) {
			return nil, fmt.Errorf("%w: %s block decoded to %d bytes, rows need %d",
				ErrCorrupted, s.compression, len(decoded), end)
		}
		data = decoded[begin:end]
	} else if want := d.rows.Len() * s.bytesPerValue; uint64(len(data)) != want {
		return nil, fmt.Errorf("%w: value page holds %d bytes, rows need %d",
			ErrCorrupted, len(data), want)
	}

	n := int(d.rows.Len())
	return newFixedWidthArray(storageType(s.dtype, s.bytesPerValue, false), n, data), nil
}
