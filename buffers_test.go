package strata

import (
	"errors"
	"testing"

	"github.com/strata-go/strata-go/format"
)

func TestResolveBufferScopes(t *testing.T) {
	buffers := &PageBuffers{
		ColumnBuffers: ColumnBuffers{
			FileBuffers: FileBuffers{
				PositionsAndSizes: []ByteRange{{Offset: 0, Length: 100}},
			},
			PositionsAndSizes: []ByteRange{{Offset: 100, Length: 50}, {Offset: 150, Length: 60}},
		},
		PositionsAndSizes: []ByteRange{{Offset: 210, Length: 8}},
	}

	tests := []struct {
		ref  format.Buffer
		want ByteRange
	}{
		{format.Buffer{Index: 0, Scope: format.PageScope}, ByteRange{Offset: 210, Length: 8}},
		{format.Buffer{Index: 1, Scope: format.ColumnScope}, ByteRange{Offset: 150, Length: 60}},
		{format.Buffer{Index: 0, Scope: format.FileScope}, ByteRange{Offset: 0, Length: 100}},
	}
	for _, test := range tests {
		got, err := buffers.Resolve(&test.ref)
		if err != nil {
			t.Errorf("%s buffer %d: %v", test.ref.Scope, test.ref.Index, err)
			continue
		}
		if got != test.want {
			t.Errorf("%s buffer %d = %+v, want %+v", test.ref.Scope, test.ref.Index, got, test.want)
		}
	}
}

func TestResolveBufferErrors(t *testing.T) {
	buffers := pageBuffers(ByteRange{Offset: 0, Length: 10})

	outOfRange := []format.Buffer{
		{Index: 1, Scope: format.PageScope},
		{Index: 0, Scope: format.ColumnScope},
		{Index: 0, Scope: format.FileScope},
	}
	for _, ref := range outOfRange {
		if _, err := buffers.Resolve(&ref); !errors.Is(err, ErrBufferOutOfRange) {
			t.Errorf("%s buffer %d: got %v, want ErrBufferOutOfRange", ref.Scope, ref.Index, err)
		}
	}

	if _, err := buffers.Resolve(nil); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("nil reference: got %v, want ErrInvalidDescriptor", err)
	}
	if _, err := buffers.Resolve(&format.Buffer{Scope: 9}); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("unknown scope: got %v, want ErrInvalidDescriptor", err)
	}
}
