package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// BitpackedScheduler reads integers packed at a reduced bit width and widens
// them back to their storage width, sign extending when the values are
// signed.
type BitpackedScheduler struct {
	compressedBits   uint64
	uncompressedBits uint64
	bufferOffset     uint64
	signed           bool
	dtype            arrow.DataType
}

// BitpackedForNonNegScheduler is the bit unpacking strategy restricted to
// non-negative values; decoded values are zero extended.
type BitpackedForNonNegScheduler struct {
	BitpackedScheduler
}

func newBitpackedScheduler(compressedBits, uncompressedBits, bufferOffset uint64, signed bool, dtype arrow.DataType) (*BitpackedScheduler, error) {
	if compressedBits == 0 || compressedBits > uncompressedBits {
		return nil, fmt.Errorf("%w: %d compressed bits does not fit %d uncompressed bits",
			ErrUnsupportedBitWidth, compressedBits, uncompressedBits)
	}
	switch uncompressedBits {
	case 8, 16, 32, 64:
	default:
		return nil, fmt.Errorf("%w: bitpacked storage width %d", ErrUnsupportedBitWidth, uncompressedBits)
	}
	return &BitpackedScheduler{
		compressedBits:   compressedBits,
		uncompressedBits: uncompressedBits,
		bufferOffset:     bufferOffset,
		signed:           signed,
		dtype:            dtype,
	}, nil
}

func newBitpackedForNonNegScheduler(compressedBits, uncompressedBits, bufferOffset uint64, dtype arrow.DataType) (*BitpackedForNonNegScheduler, error) {
	s, err := newBitpackedScheduler(compressedBits, uncompressedBits, bufferOffset, false, dtype)
	if err != nil {
		return nil, err
	}
	return &BitpackedForNonNegScheduler{BitpackedScheduler: *s}, nil
}

func (s *BitpackedScheduler) CompressedBitsPerValue() uint64 { return s.compressedBits }

func (s *BitpackedScheduler) UncompressedBitsPerValue() uint64 { return s.uncompressedBits }

func (s *BitpackedScheduler) BufferOffset() uint64 { return s.bufferOffset }

func (s *BitpackedScheduler) Signed() bool { return s.signed }

func (s *BitpackedScheduler) Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error) {
	if !rows.valid() {
		return nil, fmt.Errorf("strata: bitpacked page: invalid row range [%d,%d)", rows.Begin, rows.End)
	}
	bitBegin := rows.Begin * s.compressedBits
	bitEnd := rows.End * s.compressedBits
	byteBegin := bitBegin / 8
	byteEnd := (bitEnd + 7) / 8
	if rows.Len() == 0 {
		byteEnd = byteBegin
	}
	handle := plan.Add(ByteRange{Offset: s.bufferOffset + byteBegin, Length: byteEnd - byteBegin})
	return &bitpackedPageDecoder{
		scheduler: s,
		handle:    handle,
		bitOffset: bitBegin % 8,
		n:         int(rows.Len()),
	}, nil
}

type bitpackedPageDecoder struct {
	noMoreReads
	scheduler *BitpackedScheduler
	handle    BufferHandle
	bitOffset uint64
	n         int
}

func (d *bitpackedPageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	s := d.scheduler
	data := fetched.Bytes(d.handle)
	if need := (d.bitOffset + uint64(d.n)*s.compressedBits + 7) / 8; d.n > 0 && uint64(len(data)) < need {
		return nil, fmt.Errorf("%w: bitpacked page holds %d bytes, rows need %d",
			ErrCorrupted, len(data), need)
	}

	values := make([]uint64, d.n)
	for i := range values {
		v := readBits(data, d.bitOffset+uint64(i)*s.compressedBits, s.compressedBits)
		if s.signed {
			v = signExtend(v, s.compressedBits)
		}
		values[i] = v
	}

	byteWidth := s.uncompressedBits / 8
	raw := packUints(values, byteWidth)
	return newFixedWidthArray(storageType(s.dtype, byteWidth, s.signed), d.n, raw), nil
}

// readBits extracts width bits starting at bit position pos, least
// significant bit first within each byte.
func readBits(data []byte, pos, width uint64) uint64 {
	var v uint64
	for i := uint64(0); i < width; i++ {
		bit := pos + i
		if data[bit/8]&(1<<(bit%8)) != 0 {
			v |= 1 << i
		}
	}
	return v
}

// signExtend widens the width-bit two's complement value v to 64 bits.
func signExtend(v, width uint64) uint64 {
	if width == 64 || v&(1<<(width-1)) == 0 {
		return v
	}
	return v | ^uint64(0)<<width
}
