package strata

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/strata-go/strata-go/compress"
	"github.com/strata-go/strata-go/format"
	"github.com/strata-go/strata-go/fsst"
)

// NewPageScheduler interprets an encoding descriptor tree, resolving its
// buffer references against the page's address tables and composing one page
// scheduler per node. The logical type threads downward unchanged except
// where a node splits it: a dictionary hands its index and value types to its
// halves, and a packed struct hands each field type to its column.
//
// Construction performs no I/O. Every error it returns means the descriptor,
// the address tables, or the logical type do not line up, and retrying cannot
// help.
func NewPageScheduler(enc *format.ArrayEncoding, buffers *PageBuffers, dtype arrow.DataType) (PageScheduler, error) {
	switch {
	case enc == nil:
		return nil, fmt.Errorf("%w: missing encoding", ErrInvalidDescriptor)

	case enc.Flat != nil:
		return newFlatScheduler(enc.Flat, buffers, dtype)

	case enc.Nullable != nil:
		return newNullableScheduler(enc.Nullable, buffers, dtype)

	case enc.FixedSizeList != nil:
		if enc.FixedSizeList.Dimension > math.MaxUint32 {
			return nil, fmt.Errorf("%w: fixed-size list dimension %d", ErrInvalidDescriptor, enc.FixedSizeList.Dimension)
		}
		items, err := NewPageScheduler(enc.FixedSizeList.Items, buffers, dtype)
		if err != nil {
			return nil, err
		}
		return newFixedListScheduler(items, uint32(enc.FixedSizeList.Dimension), dtype)

	case enc.List != nil:
		// List offsets are a plain integer column; the wrapper adds nothing
		// at this layer.
		return NewPageScheduler(enc.List.Offsets, buffers, dtype)

	case enc.Struct != nil:
		return nil, fmt.Errorf("%w: struct header columns carry no data", ErrInvalidDescriptor)

	case enc.Binary != nil:
		return newBinarySchedulerFromDescriptor(enc.Binary, buffers, dtype)

	case enc.Dictionary != nil:
		return newDictionarySchedulerFromDescriptor(enc.Dictionary, buffers, dtype)

	case enc.FixedSizeBinary != nil:
		bytes, err := NewPageScheduler(enc.FixedSizeBinary.Bytes, buffers, dtype)
		if err != nil {
			return nil, err
		}
		return newFixedSizeBinaryScheduler(bytes, enc.FixedSizeBinary.ByteWidth, dtype)

	case enc.Fsst != nil:
		inner, err := NewPageScheduler(enc.Fsst.Binary, buffers, dtype)
		if err != nil {
			return nil, err
		}
		binary, ok := inner.(*BinaryPageScheduler)
		if !ok {
			return nil, fmt.Errorf("%w: fsst wraps %s, expected binary", ErrInvalidDescriptor, enc.Fsst.Binary.Kind())
		}
		table, err := fsst.ParseSymbolTable(enc.Fsst.SymbolTable)
		if err != nil {
			return nil, fmt.Errorf("%w: fsst symbol table: %w", ErrInvalidDescriptor, err)
		}
		return newFsstPageScheduler(binary, table, dtype), nil

	case enc.PackedStruct != nil:
		return newPackedStructSchedulerFromDescriptor(enc.PackedStruct, buffers, dtype)

	case enc.Bitpacked != nil:
		b := enc.Bitpacked
		pos, err := buffers.Resolve(b.Buffer)
		if err != nil {
			return nil, err
		}
		return newBitpackedScheduler(b.CompressedBitsPerValue, b.UncompressedBitsPerValue, pos.Offset, b.Signed, dtype)

	case enc.BitpackedForNonNeg != nil:
		b := enc.BitpackedForNonNeg
		pos, err := buffers.Resolve(b.Buffer)
		if err != nil {
			return nil, err
		}
		return newBitpackedForNonNegScheduler(b.CompressedBitsPerValue, b.UncompressedBitsPerValue, pos.Offset, dtype)

	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrInvalidDescriptor, enc.Kind())
	}
}

func newFlatScheduler(flat *format.Flat, buffers *PageBuffers, dtype arrow.DataType) (PageScheduler, error) {
	pos, err := buffers.Resolve(flat.Buffer)
	if err != nil {
		return nil, err
	}
	if flat.BitsPerValue == 1 {
		return newDenseBitmapScheduler(pos.Offset), nil
	}
	if flat.BitsPerValue == 0 || flat.BitsPerValue%8 != 0 {
		return nil, fmt.Errorf("%w: flat encoding with %d bits per value",
			ErrUnsupportedBitWidth, flat.BitsPerValue)
	}

	cfg := compress.Config{}
	if flat.Compression != nil {
		cfg = compress.Config{Scheme: flat.Compression.Scheme, Level: flat.Compression.Level}
	}
	codec, err := compress.Lookup(cfg)
	if err != nil {
		return nil, err
	}
	return newValuePageScheduler(flat.BitsPerValue/8, pos.Offset, pos.Length, cfg, codec, dtype), nil
}

func newNullableScheduler(n *format.Nullable, buffers *PageBuffers, dtype arrow.DataType) (PageScheduler, error) {
	switch {
	case n.NoNulls != nil:
		values, err := NewPageScheduler(n.NoNulls.Values, buffers, dtype)
		if err != nil {
			return nil, err
		}
		return newBasicNonNullableScheduler(values, dtype), nil

	case n.SomeNulls != nil:
		validity, err := NewPageScheduler(n.SomeNulls.Validity, buffers, arrow.FixedWidthTypes.Boolean)
		if err != nil {
			return nil, err
		}
		values, err := NewPageScheduler(n.SomeNulls.Values, buffers, dtype)
		if err != nil {
			return nil, err
		}
		return newBasicNullableScheduler(validity, values, dtype), nil

	case n.AllNulls != nil:
		return newBasicAllNullScheduler(dtype), nil
	}
	return nil, fmt.Errorf("%w: nullable encoding with no variant", ErrInvalidDescriptor)
}

func newBinarySchedulerFromDescriptor(b *format.Binary, buffers *PageBuffers, dtype arrow.DataType) (PageScheduler, error) {
	if b.NullAdjustment == 0 {
		return nil, fmt.Errorf("%w: binary encoding with null adjustment 0", ErrInvalidDescriptor)
	}
	// Offsets are integers whatever the column type; the stored width decides
	// how they decode.
	indices, err := NewPageScheduler(b.Indices, buffers, arrow.PrimitiveTypes.Uint64)
	if err != nil {
		return nil, err
	}
	bytes, err := NewPageScheduler(b.Bytes, buffers, dtype)
	if err != nil {
		return nil, err
	}
	offsetBytes := 4
	if isLargeBinaryLike(dtype) {
		offsetBytes = 8
	}
	return newBinaryPageScheduler(indices, bytes, offsetBytes, b.NullAdjustment, dtype), nil
}

func newDictionarySchedulerFromDescriptor(d *format.Dictionary, buffers *PageBuffers, dtype arrow.DataType) (PageScheduler, error) {
	indexType := arrow.DataType(arrow.PrimitiveTypes.Uint64)
	itemType := dtype
	dictType, isDict := dtype.(*arrow.DictionaryType)
	if isDict {
		indexType = dictType.IndexType
		itemType = dictType.ValueType
	}
	indices, err := NewPageScheduler(d.Indices, buffers, indexType)
	if err != nil {
		return nil, err
	}
	items, err := NewPageScheduler(d.Items, buffers, itemType)
	if err != nil {
		return nil, err
	}
	// A column that is not itself dictionary typed wants plain values, so the
	// indices are resolved away at decode time.
	return newDictionaryPageScheduler(indices, items, d.NumDictionaryItems, !isDict, dtype), nil
}

func newPackedStructSchedulerFromDescriptor(p *format.PackedStruct, buffers *PageBuffers, dtype arrow.DataType) (PageScheduler, error) {
	structType, ok := elemType(dtype).(*arrow.StructType)
	if !ok {
		return nil, fmt.Errorf("%w: packed struct encoding for %s column", ErrTypeMismatch, dtype)
	}
	pos, err := buffers.Resolve(p.Buffer)
	if err != nil {
		return nil, err
	}
	widths := make([]uint64, len(p.Inner))
	for i, inner := range p.Inner {
		if inner == nil || inner.Flat == nil {
			return nil, fmt.Errorf("%w: packed struct field %d is %s, expected flat",
				ErrInvalidDescriptor, i, inner.Kind())
		}
		flat := inner.Flat
		if flat.BitsPerValue == 0 || flat.BitsPerValue%8 != 0 {
			return nil, fmt.Errorf("%w: packed struct field %d with %d bits per value",
				ErrUnsupportedBitWidth, i, flat.BitsPerValue)
		}
		if flat.Compression != nil && !(compress.Config{Scheme: flat.Compression.Scheme}).IsNone() {
			return nil, fmt.Errorf("%w: packed struct field %d is block compressed", ErrInvalidDescriptor, i)
		}
		// Field encodings point back into the shared packed buffer; resolve
		// their references anyway so a corrupt index fails at construction.
		if flat.Buffer != nil {
			if _, err := buffers.Resolve(flat.Buffer); err != nil {
				return nil, err
			}
		}
		widths[i] = flat.BitsPerValue / 8
	}
	return newPackedStructPageScheduler(pos.Offset, widths, structType)
}
