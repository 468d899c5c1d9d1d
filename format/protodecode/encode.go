package protodecode

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/strata-go/strata-go/format"
)

// Marshal encodes an encoding descriptor tree to its protobuf wire form.
func Marshal(enc *format.ArrayEncoding) []byte {
	return AppendArrayEncoding(nil, enc)
}

func appendMessage(dst []byte, num protowire.Number, body []byte) []byte {
	dst = protowire.AppendTag(dst, num, protowire.BytesType)
	return protowire.AppendBytes(dst, body)
}

func appendUint(dst []byte, num protowire.Number, v uint64) []byte {
	dst = protowire.AppendTag(dst, num, protowire.VarintType)
	return protowire.AppendVarint(dst, v)
}

func appendBuffer(dst []byte, num protowire.Number, buf *format.Buffer) []byte {
	if buf == nil {
		return dst
	}
	var body []byte
	if buf.Index != 0 {
		body = appendUint(body, 1, uint64(buf.Index))
	}
	if buf.Scope != 0 {
		body = appendUint(body, 2, uint64(buf.Scope))
	}
	return appendMessage(dst, num, body)
}

func appendCompression(dst []byte, num protowire.Number, c *format.Compression) []byte {
	if c == nil {
		return dst
	}
	var body []byte
	if c.Scheme != "" {
		body = protowire.AppendTag(body, 1, protowire.BytesType)
		body = protowire.AppendString(body, c.Scheme)
	}
	if c.Level != nil {
		body = appendUint(body, 2, uint64(uint32(*c.Level)))
	}
	return appendMessage(dst, num, body)
}

func appendChild(dst []byte, num protowire.Number, child *format.ArrayEncoding) []byte {
	if child == nil {
		return dst
	}
	return appendMessage(dst, num, AppendArrayEncoding(nil, child))
}

// AppendArrayEncoding appends the wire form of enc to dst.
func AppendArrayEncoding(dst []byte, enc *format.ArrayEncoding) []byte {
	switch {
	case enc == nil:
		return dst

	case enc.Flat != nil:
		var body []byte
		body = appendBuffer(body, 1, enc.Flat.Buffer)
		if enc.Flat.BitsPerValue != 0 {
			body = appendUint(body, 2, enc.Flat.BitsPerValue)
		}
		body = appendCompression(body, 3, enc.Flat.Compression)
		return appendMessage(dst, 1, body)

	case enc.Nullable != nil:
		var body []byte
		switch n := enc.Nullable; {
		case n.NoNulls != nil:
			body = appendMessage(body, 1, appendChild(nil, 1, n.NoNulls.Values))
		case n.SomeNulls != nil:
			var inner []byte
			inner = appendChild(inner, 1, n.SomeNulls.Validity)
			inner = appendChild(inner, 2, n.SomeNulls.Values)
			body = appendMessage(body, 2, inner)
		case n.AllNulls != nil:
			body = appendMessage(body, 3, nil)
		}
		return appendMessage(dst, 2, body)

	case enc.FixedSizeList != nil:
		var body []byte
		body = appendChild(body, 1, enc.FixedSizeList.Items)
		if enc.FixedSizeList.Dimension != 0 {
			body = appendUint(body, 2, enc.FixedSizeList.Dimension)
		}
		return appendMessage(dst, 3, body)

	case enc.List != nil:
		return appendMessage(dst, 4, appendChild(nil, 1, enc.List.Offsets))

	case enc.Struct != nil:
		return appendMessage(dst, 5, nil)

	case enc.Binary != nil:
		var body []byte
		body = appendChild(body, 1, enc.Binary.Indices)
		body = appendChild(body, 2, enc.Binary.Bytes)
		if enc.Binary.NullAdjustment != 0 {
			body = appendUint(body, 3, enc.Binary.NullAdjustment)
		}
		return appendMessage(dst, 6, body)

	case enc.Dictionary != nil:
		var body []byte
		body = appendChild(body, 1, enc.Dictionary.Indices)
		body = appendChild(body, 2, enc.Dictionary.Items)
		if enc.Dictionary.NumDictionaryItems != 0 {
			body = appendUint(body, 3, uint64(enc.Dictionary.NumDictionaryItems))
		}
		return appendMessage(dst, 7, body)

	case enc.Fsst != nil:
		var body []byte
		body = appendChild(body, 1, enc.Fsst.Binary)
		if len(enc.Fsst.SymbolTable) != 0 {
			body = protowire.AppendTag(body, 2, protowire.BytesType)
			body = protowire.AppendBytes(body, enc.Fsst.SymbolTable)
		}
		return appendMessage(dst, 8, body)

	case enc.PackedStruct != nil:
		var body []byte
		body = appendBuffer(body, 1, enc.PackedStruct.Buffer)
		for _, inner := range enc.PackedStruct.Inner {
			body = appendChild(body, 2, inner)
		}
		return appendMessage(dst, 9, body)

	case enc.Bitpacked != nil:
		var body []byte
		body = appendBuffer(body, 1, enc.Bitpacked.Buffer)
		if enc.Bitpacked.CompressedBitsPerValue != 0 {
			body = appendUint(body, 2, enc.Bitpacked.CompressedBitsPerValue)
		}
		if enc.Bitpacked.UncompressedBitsPerValue != 0 {
			body = appendUint(body, 3, enc.Bitpacked.UncompressedBitsPerValue)
		}
		if enc.Bitpacked.Signed {
			body = appendUint(body, 4, 1)
		}
		return appendMessage(dst, 10, body)

	case enc.FixedSizeBinary != nil:
		var body []byte
		body = appendChild(body, 1, enc.FixedSizeBinary.Bytes)
		if enc.FixedSizeBinary.ByteWidth != 0 {
			body = appendUint(body, 2, uint64(enc.FixedSizeBinary.ByteWidth))
		}
		return appendMessage(dst, 11, body)

	case enc.BitpackedForNonNeg != nil:
		var body []byte
		body = appendBuffer(body, 1, enc.BitpackedForNonNeg.Buffer)
		if enc.BitpackedForNonNeg.CompressedBitsPerValue != 0 {
			body = appendUint(body, 2, enc.BitpackedForNonNeg.CompressedBitsPerValue)
		}
		if enc.BitpackedForNonNeg.UncompressedBitsPerValue != 0 {
			body = appendUint(body, 3, enc.BitpackedForNonNeg.UncompressedBitsPerValue)
		}
		return appendMessage(dst, 12, body)

	default:
		return dst
	}
}
