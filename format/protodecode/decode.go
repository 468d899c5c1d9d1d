// Package protodecode reads and writes the protobuf wire form of encoding
// descriptor trees.
//
// The decoders work directly on the wire format so no generated code is
// needed; unknown fields are skipped, which keeps old readers compatible with
// descriptors written by newer formats. Field numbers are part of the stable
// wire contract:
//
//	ArrayEncoding      1 flat, 2 nullable, 3 fixed_size_list, 4 list,
//	                   5 struct, 6 binary, 7 dictionary, 8 fsst,
//	                   9 packed_struct, 10 bitpacked, 11 fixed_size_binary,
//	                   12 bitpacked_for_non_neg
//	Buffer             1 index, 2 scope
//	Compression        1 scheme, 2 level
//	Flat               1 buffer, 2 bits_per_value, 3 compression
//	Bitpacked          1 buffer, 2 compressed_bits_per_value,
//	                   3 uncompressed_bits_per_value, 4 signed
//	BitpackedForNonNeg 1 buffer, 2 compressed_bits_per_value,
//	                   3 uncompressed_bits_per_value
//	Nullable           1 no_nulls, 2 some_nulls, 3 all_nulls
//	NoNulls            1 values
//	SomeNulls          1 validity, 2 values
//	FixedSizeList      1 items, 2 dimension
//	List               1 offsets
//	Binary             1 indices, 2 bytes, 3 null_adjustment
//	Fsst               1 binary, 2 symbol_table
//	Dictionary         1 indices, 2 items, 3 num_dictionary_items
//	FixedSizeBinary    1 bytes, 2 byte_width
//	PackedStruct       1 buffer, 2 inner (repeated)
package protodecode

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/strata-go/strata-go/format"
)

// Unmarshal decodes the wire form of an encoding descriptor tree into enc.
func Unmarshal(data []byte, enc *format.ArrayEncoding) error {
	return unmarshalArrayEncoding(data, enc)
}

type fieldFunc func(data []byte, num protowire.Number, typ protowire.Type) (int, error)

// walkMessage drives the generic field loop: it consumes tags, hands known
// fields to f, and skips the rest.
func walkMessage(data []byte, what string, f fieldFunc) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("protodecode: %s: %w", what, protowire.ParseError(n))
		}
		data = data[n:]

		n, err := f(data, num, typ)
		if err != nil {
			return err
		}
		if n < 0 {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("protodecode: %s: field %d: %w", what, num, protowire.ParseError(n))
			}
		}
		data = data[n:]
	}
	return nil
}

func consumeMessage(data []byte, what string, num protowire.Number, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("protodecode: %s: field %d: expected message, got wire type %d", what, num, typ)
	}
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, fmt.Errorf("protodecode: %s: field %d: %w", what, num, protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeVarint(data []byte, what string, num protowire.Number, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("protodecode: %s: field %d: expected varint, got wire type %d", what, num, typ)
	}
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, fmt.Errorf("protodecode: %s: field %d: %w", what, num, protowire.ParseError(n))
	}
	return v, n, nil
}

func unmarshalChild(data []byte, what string, num protowire.Number, typ protowire.Type) (*format.ArrayEncoding, int, error) {
	v, n, err := consumeMessage(data, what, num, typ)
	if err != nil {
		return nil, 0, err
	}
	child := new(format.ArrayEncoding)
	if err := unmarshalArrayEncoding(v, child); err != nil {
		return nil, 0, err
	}
	return child, n, nil
}

func unmarshalBuffer(data []byte, buf *format.Buffer) error {
	return walkMessage(data, "Buffer", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(data, "Buffer.Index", num, typ)
			buf.Index = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(data, "Buffer.Scope", num, typ)
			buf.Scope = format.BufferScope(v)
			return n, err
		}
		return -1, nil
	})
}

func unmarshalCompression(data []byte, c *format.Compression) error {
	return walkMessage(data, "Compression", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage(data, "Compression.Scheme", num, typ)
			c.Scheme = string(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(data, "Compression.Level", num, typ)
			level := int32(v)
			c.Level = &level
			return n, err
		}
		return -1, nil
	})
}

func unmarshalFlat(data []byte, f *format.Flat) error {
	return walkMessage(data, "Flat", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage(data, "Flat.Buffer", num, typ)
			if err != nil {
				return 0, err
			}
			f.Buffer = new(format.Buffer)
			return n, unmarshalBuffer(v, f.Buffer)
		case 2:
			v, n, err := consumeVarint(data, "Flat.BitsPerValue", num, typ)
			f.BitsPerValue = v
			return n, err
		case 3:
			v, n, err := consumeMessage(data, "Flat.Compression", num, typ)
			if err != nil {
				return 0, err
			}
			f.Compression = new(format.Compression)
			return n, unmarshalCompression(v, f.Compression)
		}
		return -1, nil
	})
}

func unmarshalBitpacked(data []byte, b *format.Bitpacked) error {
	return walkMessage(data, "Bitpacked", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage(data, "Bitpacked.Buffer", num, typ)
			if err != nil {
				return 0, err
			}
			b.Buffer = new(format.Buffer)
			return n, unmarshalBuffer(v, b.Buffer)
		case 2:
			v, n, err := consumeVarint(data, "Bitpacked.CompressedBitsPerValue", num, typ)
			b.CompressedBitsPerValue = v
			return n, err
		case 3:
			v, n, err := consumeVarint(data, "Bitpacked.UncompressedBitsPerValue", num, typ)
			b.UncompressedBitsPerValue = v
			return n, err
		case 4:
			v, n, err := consumeVarint(data, "Bitpacked.Signed", num, typ)
			b.Signed = v != 0
			return n, err
		}
		return -1, nil
	})
}

func unmarshalBitpackedForNonNeg(data []byte, b *format.BitpackedForNonNeg) error {
	return walkMessage(data, "BitpackedForNonNeg", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage(data, "BitpackedForNonNeg.Buffer", num, typ)
			if err != nil {
				return 0, err
			}
			b.Buffer = new(format.Buffer)
			return n, unmarshalBuffer(v, b.Buffer)
		case 2:
			v, n, err := consumeVarint(data, "BitpackedForNonNeg.CompressedBitsPerValue", num, typ)
			b.CompressedBitsPerValue = v
			return n, err
		case 3:
			v, n, err := consumeVarint(data, "BitpackedForNonNeg.UncompressedBitsPerValue", num, typ)
			b.UncompressedBitsPerValue = v
			return n, err
		}
		return -1, nil
	})
}

func unmarshalNullable(data []byte, nn *format.Nullable) error {
	return walkMessage(data, "Nullable", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage(data, "Nullable.NoNulls", num, typ)
			if err != nil {
				return 0, err
			}
			nn.NoNulls = new(format.NoNulls)
			return n, walkMessage(v, "NoNulls", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
				if num == 1 {
					child, n, err := unmarshalChild(data, "NoNulls.Values", num, typ)
					nn.NoNulls.Values = child
					return n, err
				}
				return -1, nil
			})
		case 2:
			v, n, err := consumeMessage(data, "Nullable.SomeNulls", num, typ)
			if err != nil {
				return 0, err
			}
			nn.SomeNulls = new(format.SomeNulls)
			return n, walkMessage(v, "SomeNulls", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
				switch num {
				case 1:
					child, n, err := unmarshalChild(data, "SomeNulls.Validity", num, typ)
					nn.SomeNulls.Validity = child
					return n, err
				case 2:
					child, n, err := unmarshalChild(data, "SomeNulls.Values", num, typ)
					nn.SomeNulls.Values = child
					return n, err
				}
				return -1, nil
			})
		case 3:
			_, n, err := consumeMessage(data, "Nullable.AllNulls", num, typ)
			nn.AllNulls = new(format.AllNulls)
			return n, err
		}
		return -1, nil
	})
}

func unmarshalArrayEncoding(data []byte, enc *format.ArrayEncoding) error {
	return walkMessage(data, "ArrayEncoding", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage(data, "ArrayEncoding.Flat", num, typ)
			if err != nil {
				return 0, err
			}
			enc.Flat = new(format.Flat)
			return n, unmarshalFlat(v, enc.Flat)
		case 2:
			v, n, err := consumeMessage(data, "ArrayEncoding.Nullable", num, typ)
			if err != nil {
				return 0, err
			}
			enc.Nullable = new(format.Nullable)
			return n, unmarshalNullable(v, enc.Nullable)
		case 3:
			v, n, err := consumeMessage(data, "ArrayEncoding.FixedSizeList", num, typ)
			if err != nil {
				return 0, err
			}
			enc.FixedSizeList = new(format.FixedSizeList)
			return n, walkMessage(v, "FixedSizeList", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
				switch num {
				case 1:
					child, n, err := unmarshalChild(data, "FixedSizeList.Items", num, typ)
					enc.FixedSizeList.Items = child
					return n, err
				case 2:
					v, n, err := consumeVarint(data, "FixedSizeList.Dimension", num, typ)
					enc.FixedSizeList.Dimension = v
					return n, err
				}
				return -1, nil
			})
		case 4:
			v, n, err := consumeMessage(data, "ArrayEncoding.List", num, typ)
			if err != nil {
				return 0, err
			}
			enc.List = new(format.List)
			return n, walkMessage(v, "List", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
				if num == 1 {
					child, n, err := unmarshalChild(data, "List.Offsets", num, typ)
					enc.List.Offsets = child
					return n, err
				}
				return -1, nil
			})
		case 5:
			_, n, err := consumeMessage(data, "ArrayEncoding.Struct", num, typ)
			enc.Struct = new(format.Struct)
			return n, err
		case 6:
			v, n, err := consumeMessage(data, "ArrayEncoding.Binary", num, typ)
			if err != nil {
				return 0, err
			}
			enc.Binary = new(format.Binary)
			return n, walkMessage(v, "Binary", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
				switch num {
				case 1:
					child, n, err := unmarshalChild(data, "Binary.Indices", num, typ)
					enc.Binary.Indices = child
					return n, err
				case 2:
					child, n, err := unmarshalChild(data, "Binary.Bytes", num, typ)
					enc.Binary.Bytes = child
					return n, err
				case 3:
					v, n, err := consumeVarint(data, "Binary.NullAdjustment", num, typ)
					enc.Binary.NullAdjustment = v
					return n, err
				}
				return -1, nil
			})
		case 7:
			v, n, err := consumeMessage(data, "ArrayEncoding.Dictionary", num, typ)
			if err != nil {
				return 0, err
			}
			enc.Dictionary = new(format.Dictionary)
			return n, walkMessage(v, "Dictionary", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
				switch num {
				case 1:
					child, n, err := unmarshalChild(data, "Dictionary.Indices", num, typ)
					enc.Dictionary.Indices = child
					return n, err
				case 2:
					child, n, err := unmarshalChild(data, "Dictionary.Items", num, typ)
					enc.Dictionary.Items = child
					return n, err
				case 3:
					v, n, err := consumeVarint(data, "Dictionary.NumDictionaryItems", num, typ)
					enc.Dictionary.NumDictionaryItems = uint32(v)
					return n, err
				}
				return -1, nil
			})
		case 8:
			v, n, err := consumeMessage(data, "ArrayEncoding.Fsst", num, typ)
			if err != nil {
				return 0, err
			}
			enc.Fsst = new(format.Fsst)
			return n, walkMessage(v, "Fsst", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
				switch num {
				case 1:
					child, n, err := unmarshalChild(data, "Fsst.Binary", num, typ)
					enc.Fsst.Binary = child
					return n, err
				case 2:
					v, n, err := consumeMessage(data, "Fsst.SymbolTable", num, typ)
					if err != nil {
						return 0, err
					}
					enc.Fsst.SymbolTable = append([]byte(nil), v...)
					return n, nil
				}
				return -1, nil
			})
		case 9:
			v, n, err := consumeMessage(data, "ArrayEncoding.PackedStruct", num, typ)
			if err != nil {
				return 0, err
			}
			enc.PackedStruct = new(format.PackedStruct)
			return n, walkMessage(v, "PackedStruct", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
				switch num {
				case 1:
					v, n, err := consumeMessage(data, "PackedStruct.Buffer", num, typ)
					if err != nil {
						return 0, err
					}
					enc.PackedStruct.Buffer = new(format.Buffer)
					return n, unmarshalBuffer(v, enc.PackedStruct.Buffer)
				case 2:
					child, n, err := unmarshalChild(data, "PackedStruct.Inner", num, typ)
					enc.PackedStruct.Inner = append(enc.PackedStruct.Inner, child)
					return n, err
				}
				return -1, nil
			})
		case 10:
			v, n, err := consumeMessage(data, "ArrayEncoding.Bitpacked", num, typ)
			if err != nil {
				return 0, err
			}
			enc.Bitpacked = new(format.Bitpacked)
			return n, unmarshalBitpacked(v, enc.Bitpacked)
		case 11:
			v, n, err := consumeMessage(data, "ArrayEncoding.FixedSizeBinary", num, typ)
			if err != nil {
				return 0, err
			}
			enc.FixedSizeBinary = new(format.FixedSizeBinary)
			return n, walkMessage(v, "FixedSizeBinary", func(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
				switch num {
				case 1:
					child, n, err := unmarshalChild(data, "FixedSizeBinary.Bytes", num, typ)
					enc.FixedSizeBinary.Bytes = child
					return n, err
				case 2:
					v, n, err := consumeVarint(data, "FixedSizeBinary.ByteWidth", num, typ)
					enc.FixedSizeBinary.ByteWidth = uint32(v)
					return n, err
				}
				return -1, nil
			})
		case 12:
			v, n, err := consumeMessage(data, "ArrayEncoding.BitpackedForNonNeg", num, typ)
			if err != nil {
				return 0, err
			}
			enc.BitpackedForNonNeg = new(format.BitpackedForNonNeg)
			return n, unmarshalBitpackedForNonNeg(v, enc.BitpackedForNonNeg)
		}
		return -1, nil
	})
}
