package strata

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
)

// RangeReader is the byte-range read primitive supplied by the object-store
// layer. Implementations must be safe for concurrent use.
type RangeReader interface {
	ReadRange(ctx context.Context, offset, length uint64) ([]byte, error)
}

// PageScheduler is the contract every physical decoding strategy implements.
//
// Schedule records the byte ranges required to decode rows into plan and
// returns a decoder bound to those ranges. It performs no I/O, has no side
// effects beyond appending to plan, and is safe to call concurrently: all
// per-request state lives in the returned PageDecoder.
type PageScheduler interface {
	Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error)
}

// PageDecoder turns fetched bytes into a decoded array. A decoder is bound to
// one Schedule call and is not safe for concurrent use, but distinct decoders
// never share mutable state.
type PageDecoder interface {
	// ScheduleMore appends byte ranges for a follow-up read round whose
	// extent depends on bytes fetched in earlier rounds, such as data ranges
	// derived from freshly read offsets. It returns true while another fetch
	// round is required before Decode.
	ScheduleMore(fetched *FetchResult, plan *ReadPlan) (bool, error)

	// Decode materializes the scheduled rows from the fetched bytes. It is
	// pure computation: deterministic for the same bytes and safe to run on
	// any worker.
	Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error)
}

// noMoreReads is embedded by decoders whose byte ranges are fully known at
// schedule time.
type noMoreReads struct{}

func (noMoreReads) ScheduleMore(*FetchResult, *ReadPlan) (bool, error) { return false, nil }

// BufferHandle identifies one scheduled byte range within a ReadPlan and the
// fetched bytes it produced.
type BufferHandle int

// ReadPlan accumulates the byte ranges one page decode needs, possibly over
// several rounds. It carries an identity so fetch failures from different
// rounds of the same request can be correlated.
type ReadPlan struct {
	id      uuid.UUID
	ranges  []ByteRange
	fetched int
}

func NewReadPlan() *ReadPlan {
	return &ReadPlan{id: uuid.New()}
}

// ID returns the plan's identity.
func (p *ReadPlan) ID() uuid.UUID { return p.id }

// Add records a byte range to fetch and returns its handle.
func (p *ReadPlan) Add(r ByteRange) BufferHandle {
	p.ranges = append(p.ranges, r)
	return BufferHandle(len(p.ranges) - 1)
}

// Ranges returns every byte range added so far.
func (p *ReadPlan) Ranges() []ByteRange { return p.ranges }

// Pending returns the ranges added since the last Fetch.
func (p *ReadPlan) Pending() []ByteRange { return p.ranges[p.fetched:] }

// Fetch reads all pending ranges through r and records the bytes in res. It
// is the only place in the decode path that performs I/O; zero-length ranges
// are satisfied without touching the reader.
func (p *ReadPlan) Fetch(ctx context.Context, r RangeReader, res *FetchResult) error {
	for _, br := range p.Pending() {
		var data []byte
		if br.Length > 0 {
			var err error
			data, err = r.ReadRange(ctx, br.Offset, br.Length)
			if err != nil {
				return fmt.Errorf("strata: plan %s: reading %d bytes at %d: %w",
					p.id, br.Length, br.Offset, err)
			}
			if uint64(len(data)) != br.Length {
				return fmt.Errorf("strata: plan %s: short read at %d: got %d of %d bytes",
					p.id, br.Offset, len(data), br.Length)
			}
		}
		res.buffers = append(res.buffers, data)
		p.fetched++
	}
	return nil
}

// FetchResult holds the bytes fetched for a plan, indexed by BufferHandle.
type FetchResult struct {
	buffers [][]byte
}

// Bytes returns the fetched bytes for a handle.
func (f *FetchResult) Bytes(h BufferHandle) []byte { return f.buffers[h] }

// SetBytes records fetched bytes for a handle, growing the result as needed.
// It is exported for execution runtimes that issue reads themselves instead
// of going through ReadPlan.Fetch.
func (f *FetchResult) SetBytes(h BufferHandle, data []byte) {
	for len(f.buffers) <= int(h) {
		f.buffers = append(f.buffers, nil)
	}
	f.buffers[h] = data
}
