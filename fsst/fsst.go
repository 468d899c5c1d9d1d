// Package fsst implements the decode side of Fast Static Symbol Table string
// compression, plus a table-driven compressor used by writers and tests.
//
// A symbol table holds up to 255 symbols of 1 to 8 bytes. Compressed data is
// a sequence of single-byte codes: values below the symbol count substitute
// the corresponding symbol, and the escape code 0xFF is followed by one
// literal byte. The serialized table layout is one count byte, the symbol
// lengths, then the concatenated symbol bytes.
package fsst

import (
	"errors"
	"fmt"
)

const (
	// EscapeCode marks the next input byte as a literal.
	EscapeCode = 0xFF

	// MaxSymbols is the number of distinct symbols a table can hold; code
	// 0xFF is reserved for escapes.
	MaxSymbols = 255

	// MaxSymbolLength bounds a single symbol.
	MaxSymbolLength = 8
)

// ErrCorrupted is returned when compressed data references a code outside the
// symbol table or ends in the middle of an escape sequence.
var ErrCorrupted = errors.New("fsst: corrupted data")

// SymbolTable is an immutable set of substitution symbols. It is safe for
// concurrent use once constructed.
type SymbolTable struct {
	symbols [][]byte
}

// NewSymbolTable constructs a table from the given symbols.
func NewSymbolTable(symbols [][]byte) (*SymbolTable, error) {
	if len(symbols) > MaxSymbols {
		return nil, fmt.Errorf("fsst: too many symbols: %d > %d", len(symbols), MaxSymbols)
	}
	for i, s := range symbols {
		if len(s) == 0 || len(s) > MaxSymbolLength {
			return nil, fmt.Errorf("fsst: symbol %d has invalid length %d", i, len(s))
		}
	}
	t := &SymbolTable{symbols: make([][]byte, len(symbols))}
	for i, s := range symbols {
		t.symbols[i] = append([]byte(nil), s...)
	}
	return t, nil
}

// ParseSymbolTable decodes a serialized symbol table.
func ParseSymbolTable(data []byte) (*SymbolTable, error) {
	if len(data) == 0 {
		return nil, errors.New("fsst: empty symbol table")
	}
	n := int(data[0])
	if n > MaxSymbols {
		return nil, fmt.Errorf("fsst: symbol count %d exceeds %d", n, MaxSymbols)
	}
	if len(data) < 1+n {
		return nil, fmt.Errorf("fsst: symbol table truncated: %d lengths missing", 1+n-len(data))
	}
	lengths := data[1 : 1+n]
	symbols := make([][]byte, n)
	rest := data[1+n:]
	for i, l := range lengths {
		if l == 0 || int(l) > MaxSymbolLength {
			return nil, fmt.Errorf("fsst: symbol %d has invalid length %d", i, l)
		}
		if len(rest) < int(l) {
			return nil, fmt.Errorf("fsst: symbol table truncated in symbol %d", i)
		}
		symbols[i] = rest[:l:l]
		rest = rest[l:]
	}
	return &SymbolTable{symbols: symbols}, nil
}

// Marshal serializes the table to the layout documented on the package.
func (t *SymbolTable) Marshal() []byte {
	size := 1 + len(t.symbols)
	for _, s := range t.symbols {
		size += len(s)
	}
	out := make([]byte, 0, size)
	out = append(out, byte(len(t.symbols)))
	for _, s := range t.symbols {
		out = append(out, byte(len(s)))
	}
	for _, s := range t.symbols {
		out = append(out, s...)
	}
	return out
}

// NumSymbols returns the number of symbols in the table.
func (t *SymbolTable) NumSymbols() int { return len(t.symbols) }

// Decompress expands src through the table, appending to dst.
func (t *SymbolTable) Decompress(dst, src []byte) ([]byte, error) {
	for i := 0; i < len(src); i++ {
		code := src[i]
		if code == EscapeCode {
			i++
			if i == len(src) {
				return dst, fmt.Errorf("%w: trailing escape", ErrCorrupted)
			}
			dst = append(dst, src[i])
			continue
		}
		if int(code) >= len(t.symbols) {
			return dst, fmt.Errorf("%w: code %d outside table of %d symbols", ErrCorrupted, code, len(t.symbols))
		}
		dst = append(dst, t.symbols[code]...)
	}
	return dst, nil
}

// Compress substitutes the longest matching symbol at each position,
// escaping bytes no symbol covers. It appends to dst.
func (t *SymbolTable) Compress(dst, src []byte) []byte {
	for len(src) > 0 {
		code, n := t.longestMatch(src)
		if n == 0 {
			dst = append(dst, EscapeCode, src[0])
			src = src[1:]
			continue
		}
		dst = append(dst, code)
		src = src[n:]
	}
	return dst
}

func (t *SymbolTable) longestMatch(src []byte) (code byte, n int) {
	for i, s := range t.symbols {
		if len(s) > n && matchPrefix(src, s) {
			code, n = byte(i), len(s)
		}
	}
	return code, n
}

func matchPrefix(src, sym []byte) bool {
	if len(src) < len(sym) {
		return false
	}
	for i := range sym {
		if src[i] != sym[i] {
			return false
		}
	}
	return true
}
