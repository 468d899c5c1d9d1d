package strata

import (
	"fmt"
	"strings"
)

// Describe renders a scheduler tree as an indented dump, one strategy per
// line with its resolved parameters. The output is stable across runs and is
// meant for debugging and golden tests.
func Describe(s PageScheduler) string {
	var b strings.Builder
	describe(&b, s, 0)
	return b.String()
}

func describe(b *strings.Builder, s PageScheduler, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := s.(type) {
	case *ValuePageScheduler:
		fmt.Fprintf(b, "%svalue bytes_per_value=%d buffer_offset=%d buffer_size=%d compression=%s\n",
			indent, v.bytesPerValue, v.bufferOffset, v.bufferSize, v.compression)

	case *DenseBitmapScheduler:
		fmt.Fprintf(b, "%sbitmap buffer_offset=%d\n", indent, v.bufferOffset)

	case *BitpackedForNonNegScheduler:
		fmt.Fprintf(b, "%sbitpacked-non-neg bits=%d/%d buffer_offset=%d\n",
			indent, v.compressedBits, v.uncompressedBits, v.bufferOffset)

	case *BitpackedScheduler:
		fmt.Fprintf(b, "%sbitpacked bits=%d/%d buffer_offset=%d signed=%t\n",
			indent, v.compressedBits, v.uncompressedBits, v.bufferOffset, v.signed)

	case *BasicPageScheduler:
		switch v.nulls {
		case noNulls:
			fmt.Fprintf(b, "%snullable no-nulls\n", indent)
			fmt.Fprintf(b, "%s  values:\n", indent)
			describe(b, v.values, depth+2)
		case someNulls:
			fmt.Fprintf(b, "%snullable some-nulls\n", indent)
			fmt.Fprintf(b, "%s  validity:\n", indent)
			describe(b, v.validity, depth+2)
			fmt.Fprintf(b, "%s  values:\n", indent)
			describe(b, v.values, depth+2)
		case allNulls:
			fmt.Fprintf(b, "%snullable all-nulls type=%s\n", indent, v.dtype)
		}

	case *BinaryPageScheduler:
		fmt.Fprintf(b, "%sbinary offset_bytes=%d null_adjustment=%d\n",
			indent, v.offsetBytes, v.nullAdjustment)
		fmt.Fprintf(b, "%s  indices:\n", indent)
		describe(b, v.indices, depth+2)
		fmt.Fprintf(b, "%s  bytes:\n", indent)
		describe(b, v.bytes, depth+2)

	case *FsstPageScheduler:
		fmt.Fprintf(b, "%sfsst symbols=%d\n", indent, v.table.NumSymbols())
		describe(b, v.inner, depth+1)

	case *DictionaryPageScheduler:
		fmt.Fprintf(b, "%sdictionary items=%d materialize=%t\n",
			indent, v.numItems, v.decodeDict)
		fmt.Fprintf(b, "%s  indices:\n", indent)
		describe(b, v.indices, depth+2)
		fmt.Fprintf(b, "%s  items:\n", indent)
		describe(b, v.items, depth+2)

	case *FixedListScheduler:
		fmt.Fprintf(b, "%sfixed-size-list dimension=%d\n", indent, v.dimension)
		describe(b, v.items, depth+1)

	case *FixedSizeBinaryScheduler:
		fmt.Fprintf(b, "%sfixed-size-binary byte_width=%d\n", indent, v.byteWidth)
		describe(b, v.bytes, depth+1)

	case *PackedStructPageScheduler:
		fmt.Fprintf(b, "%spacked-struct row_width=%d buffer_offset=%d fields=%v\n",
			indent, v.rowWidth, v.bufferOffset, v.fieldWidths)

	default:
		fmt.Fprintf(b, "%s%T\n", indent, s)
	}
}
