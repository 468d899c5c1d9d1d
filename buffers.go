package strata

import (
	"fmt"

	"github.com/strata-go/strata-go/format"
)

// ByteRange is an absolute byte range within a physical file.
type ByteRange struct {
	Offset uint64
	Length uint64
}

// RowRange is a half-open range of row positions within a page.
type RowRange struct {
	Begin uint64
	End   uint64
}

// Len returns the number of rows in the range.
func (r RowRange) Len() uint64 { return r.End - r.Begin }

func (r RowRange) valid() bool { return r.Begin <= r.End }

// FileBuffers is the address table of buffers shared by the whole file.
type FileBuffers struct {
	PositionsAndSizes []ByteRange
}

// ColumnBuffers is the address table of buffers shared by all pages of one
// column, together with the file table.
type ColumnBuffers struct {
	FileBuffers       FileBuffers
	PositionsAndSizes []ByteRange
}

// PageBuffers gathers the three buffer address tables a page's descriptor
// references: its own page-local table, the column table, and the file table.
type PageBuffers struct {
	ColumnBuffers     ColumnBuffers
	PositionsAndSizes []ByteRange
}

// Resolve translates a descriptor buffer reference into a position in the
// file. Failing to resolve is a construction error: it indicates a corrupt
// descriptor and is reported before any read is planned.
func (b *PageBuffers) Resolve(ref *format.Buffer) (ByteRange, error) {
	if ref == nil {
		return ByteRange{}, fmt.Errorf("%w: missing buffer reference", ErrInvalidDescriptor)
	}
	var table []ByteRange
	switch ref.Scope {
	case format.PageScope:
		table = b.PositionsAndSizes
	case format.ColumnScope:
		table = b.ColumnBuffers.PositionsAndSizes
	case format.FileScope:
		table = b.ColumnBuffers.FileBuffers.PositionsAndSizes
	default:
		return ByteRange{}, fmt.Errorf("%w: unknown buffer scope %d", ErrInvalidDescriptor, ref.Scope)
	}
	if int(ref.Index) >= len(table) {
		return ByteRange{}, fmt.Errorf("%w: %s buffer %d, table holds %d",
			ErrBufferOutOfRange, ref.Scope, ref.Index, len(table))
	}
	return table[ref.Index], nil
}
