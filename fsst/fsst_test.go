package fsst

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	table, err := NewSymbolTable([][]byte{
		[]byte("http://"),
		[]byte("www."),
		[]byte(".com"),
		[]byte("e"),
	})
	if err != nil {
		t.Fatal(err)
	}

	inputs := []string{
		"",
		"http://www.example.com",
		"no symbols here!",
		"eeee",
		"\xff escape-looking byte",
	}
	for _, input := range inputs {
		compressed := table.Compress(nil, []byte(input))
		decompressed, err := table.Decompress(nil, compressed)
		if err != nil {
			t.Fatalf("%q: %v", input, err)
		}
		if string(decompressed) != input {
			t.Errorf("%q round tripped to %q", input, decompressed)
		}
	}
}

func TestCompressPicksLongestMatch(t *testing.T) {
	table, err := NewSymbolTable([][]byte{[]byte("ab"), []byte("abcd")})
	if err != nil {
		t.Fatal(err)
	}
	if got := table.Compress(nil, []byte("abcd")); !bytes.Equal(got, []byte{1}) {
		t.Errorf("compressed to %v, want [1]", got)
	}
}

func TestMarshalParse(t *testing.T) {
	table, err := NewSymbolTable([][]byte{[]byte("a"), []byte("bcdefghi"), []byte("xy")})
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseSymbolTable(table.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if parsed.NumSymbols() != 3 {
		t.Fatalf("parsed %d symbols, want 3", parsed.NumSymbols())
	}
	out, err := parsed.Decompress(nil, []byte{1, 0, 2})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "bcdefghiaxy" {
		t.Errorf("got %q", out)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"missing lengths", []byte{2, 1}},
		{"zero length symbol", []byte{1, 0}},
		{"oversized symbol", []byte{1, 9}},
		{"truncated bytes", []byte{1, 3, 'a', 'b'}},
	}
	for _, test := range tests {
		if _, err := ParseSymbolTable(test.data); err == nil {
			t.Errorf("%s: parse succeeded", test.name)
		}
	}
}

func TestDecompressErrors(t *testing.T) {
	table, err := NewSymbolTable([][]byte{[]byte("ab")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := table.Decompress(nil, []byte{5}); !errors.Is(err, ErrCorrupted) {
		t.Errorf("unknown code: got %v, want ErrCorrupted", err)
	}
	if _, err := table.Decompress(nil, []byte{0, EscapeCode}); !errors.Is(err, ErrCorrupted) {
		t.Errorf("trailing escape: got %v, want ErrCorrupted", err)
	}
}

func TestTableLimits(t *testing.T) {
	symbols := make([][]byte, MaxSymbols+1)
	for i := range symbols {
		symbols[i] = []byte{byte(i), byte(i >> 8)}
	}
	if _, err := NewSymbolTable(symbols); err == nil {
		t.Error("table above MaxSymbols accepted")
	}
	if _, err := NewSymbolTable([][]byte{make([]byte, MaxSymbolLength+1)}); err == nil {
		t.Error("symbol above MaxSymbolLength accepted")
	}
}
