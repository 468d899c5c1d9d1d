package unsafecast_test

import (
	"encoding/binary"
	"testing"

	"github.com/strata-go/strata-go/internal/unsafecast"
)

func TestSlice(t *testing.T) {
	values := []uint32{0, 1, 0xDEADBEEF, 1 << 31}
	data := unsafecast.Slice[byte](values)
	if len(data) != 4*len(values) {
		t.Fatalf("got %d bytes, want %d", len(data), 4*len(values))
	}
	for i, v := range values {
		if got := binary.LittleEndian.Uint32(data[i*4:]); got != v {
			t.Errorf("value %d = %#x, want %#x", i, got, v)
		}
	}

	back := unsafecast.Slice[uint32](data)
	if len(back) != len(values) {
		t.Fatalf("got %d values back, want %d", len(back), len(values))
	}
	// The view shares the backing array.
	back[0] = 42
	if values[0] != 42 {
		t.Error("converted slice does not share memory")
	}
}

func TestSliceEmpty(t *testing.T) {
	if got := unsafecast.Slice[uint64]([]byte(nil)); len(got) != 0 {
		t.Errorf("got %d values from nil", len(got))
	}
}

func TestStringConversions(t *testing.T) {
	data := []byte("hello")
	s := unsafecast.BytesToString(data)
	if s != "hello" {
		t.Errorf("got %q", s)
	}
	if got := unsafecast.StringToBytes(s); string(got) != "hello" {
		t.Errorf("got %q", got)
	}
}
