// Package format defines the wire model of the encoding descriptors found in
// strata page metadata.
//
// Each descriptor node is a protobuf message; union fields are represented as
// pointers, only one of which is non-nil on a well-formed descriptor. The
// binary layout is decoded by the protodecode sub-package.
package format

import "fmt"

// BufferScope selects which buffer address table a Buffer index refers to.
type BufferScope int32

const (
	// PageScope indexes the page-local buffer table.
	PageScope BufferScope = 0
	// ColumnScope indexes the table of buffers shared by all pages of a column.
	ColumnScope BufferScope = 1
	// FileScope indexes the table of buffers shared by the whole file.
	FileScope BufferScope = 2
)

func (s BufferScope) String() string {
	switch s {
	case PageScope:
		return "page"
	case ColumnScope:
		return "column"
	case FileScope:
		return "file"
	default:
		return fmt.Sprintf("scope(%d)", int32(s))
	}
}

// Buffer is a reference to a byte range recorded in one of the three buffer
// address tables. It carries no offset of its own; resolution happens at
// scheduler construction time.
type Buffer struct {
	Index uint32
	Scope BufferScope
}

// Compression names the block compression applied to a buffer. An empty or
// "none" scheme means the bytes are stored as-is. The scheme is a free-form
// string so new codecs do not require a descriptor schema change.
type Compression struct {
	Scheme string
	Level  *int32
}

// Flat is a run of fixed-width values stored back to back in a single buffer.
// BitsPerValue of exactly 1 marks a packed boolean bitmap; otherwise it must
// be a multiple of 8.
type Flat struct {
	Buffer       *Buffer
	BitsPerValue uint64
	Compression  *Compression
}

// Bitpacked stores integers at a reduced bit width. Values occupy
// CompressedBitsPerValue bits on disk and widen to UncompressedBitsPerValue
// bits when decoded, with sign extension when Signed is set.
type Bitpacked struct {
	Buffer                   *Buffer
	CompressedBitsPerValue   uint64
	UncompressedBitsPerValue uint64
	Signed                   bool
}

// BitpackedForNonNeg is Bitpacked restricted to non-negative values; there is
// no sign flag and decoded values are zero extended.
type BitpackedForNonNeg struct {
	Buffer                   *Buffer
	CompressedBitsPerValue   uint64
	UncompressedBitsPerValue uint64
}

// NoNulls wraps a values encoding for a page known to contain no nulls.
type NoNulls struct {
	Values *ArrayEncoding
}

// SomeNulls pairs a validity bitmap encoding with a values encoding.
type SomeNulls struct {
	Validity *ArrayEncoding
	Values   *ArrayEncoding
}

// AllNulls marks a page where every row is null; it carries no buffers.
type AllNulls struct{}

// Nullable is the nullability wrapper. Exactly one of the three variants is
// set.
type Nullable struct {
	NoNulls   *NoNulls
	SomeNulls *SomeNulls
	AllNulls  *AllNulls
}

// FixedSizeList stores Dimension consecutive item rows per logical row.
type FixedSizeList struct {
	Items     *ArrayEncoding
	Dimension uint64
}

// List carries the encoding of the list offsets column. The wrapper is
// currently transparent because list-ness is already known from the schema;
// it exists so future formats can store offsets differently.
type List struct {
	Offsets *ArrayEncoding
}

// Binary splits variable-length values into an offsets (indices) encoding and
// a raw bytes encoding. NullAdjustment reconciles offsets with nulls: a
// stored offset at or above it marks the row null, and the true offset is
// recovered by subtracting it.
type Binary struct {
	Indices        *ArrayEncoding
	Bytes          *ArrayEncoding
	NullAdjustment uint64
}

// Fsst wraps a Binary encoding whose values were compressed by static symbol
// substitution. SymbolTable is the serialized table, stored inline rather
// than through the buffer address tables.
type Fsst struct {
	Binary      *ArrayEncoding
	SymbolTable []byte
}

// Dictionary splits a column into an indices encoding and an items encoding
// holding the NumDictionaryItems distinct values.
type Dictionary struct {
	Indices            *ArrayEncoding
	Items              *ArrayEncoding
	NumDictionaryItems uint32
}

// FixedSizeBinary stores binary values that all share the same ByteWidth, so
// no offsets buffer is needed.
type FixedSizeBinary struct {
	Bytes     *ArrayEncoding
	ByteWidth uint32
}

// PackedStruct interleaves the fixed-width fields of a struct row by row in
// one shared buffer. Inner holds one encoding per field in schema order.
type PackedStruct struct {
	Buffer *Buffer
	Inner  []*ArrayEncoding
}

// Struct is reserved for struct nullability headers. Struct nullability is
// currently represented by a header column with no payload, so this node is
// never decoded; encountering one at decode time is a defect.
type Struct struct{}

// ArrayEncoding is one node of the descriptor tree. Exactly one field is set.
type ArrayEncoding struct {
	Flat               *Flat
	Nullable           *Nullable
	FixedSizeList      *FixedSizeList
	List               *List
	Struct             *Struct
	Binary             *Binary
	Dictionary         *Dictionary
	Fsst               *Fsst
	PackedStruct       *PackedStruct
	Bitpacked          *Bitpacked
	FixedSizeBinary    *FixedSizeBinary
	BitpackedForNonNeg *BitpackedForNonNeg
}

// Kind returns the name of the populated variant, for error messages.
func (e *ArrayEncoding) Kind() string {
	switch {
	case e == nil:
		return "none"
	case e.Flat != nil:
		return "flat"
	case e.Nullable != nil:
		return "nullable"
	case e.FixedSizeList != nil:
		return "fixed-size-list"
	case e.List != nil:
		return "list"
	case e.Struct != nil:
		return "struct"
	case e.Binary != nil:
		return "binary"
	case e.Dictionary != nil:
		return "dictionary"
	case e.Fsst != nil:
		return "fsst"
	case e.PackedStruct != nil:
		return "packed-struct"
	case e.Bitpacked != nil:
		return "bitpacked"
	case e.FixedSizeBinary != nil:
		return "fixed-size-binary"
	case e.BitpackedForNonNeg != nil:
		return "bitpacked-for-non-neg"
	default:
		return "none"
	}
}
